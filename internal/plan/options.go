package plan

// Proportions controls positional bucketing when a plan has no section
// headings. Cool-down receives whatever the other three leave over.
type Proportions struct {
	WarmUp float64 `yaml:"warmup" json:"warmup"`
	Main   float64 `yaml:"main" json:"main"`
	Aux    float64 `yaml:"aux" json:"aux"`
}

// Options holds the heuristic thresholds used by a Parser.
// The defaults are empirical tuning, not a contract.
type Options struct {
	// MinTextLength is the shortest text run considered as an entry.
	MinTextLength int
	// MaxHeaderLength is the longest line or bold run that may act as a section header.
	MaxHeaderLength int
	// MaxRunLength skips pathological single runs (a whole article with no breaks).
	MaxRunLength int
	// MaxInputBytes truncates oversized documents before parsing.
	MaxInputBytes int
	Proportions   Proportions
}

// DefaultOptions returns the thresholds used by the package-level functions.
func DefaultOptions() Options {
	return Options{
		MinTextLength:   5,
		MaxHeaderLength: 48,
		MaxRunLength:    2000,
		MaxInputBytes:   1 << 20,
		Proportions:     Proportions{WarmUp: 0.2, Main: 0.4, Aux: 0.3},
	}
}

// withDefaults fills zero fields from DefaultOptions.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MinTextLength <= 0 {
		o.MinTextLength = d.MinTextLength
	}
	if o.MaxHeaderLength <= 0 {
		o.MaxHeaderLength = d.MaxHeaderLength
	}
	if o.MaxRunLength <= 0 {
		o.MaxRunLength = d.MaxRunLength
	}
	if o.MaxInputBytes <= 0 {
		o.MaxInputBytes = d.MaxInputBytes
	}
	p := o.Proportions
	if p.WarmUp < 0 || p.Main < 0 || p.Aux < 0 || p.WarmUp+p.Main+p.Aux == 0 || p.WarmUp+p.Main+p.Aux > 1 {
		o.Proportions = d.Proportions
	}
	return o
}
