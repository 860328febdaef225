package plan

import (
	"fmt"
	"regexp"
	"strings"
)

// SectionKind is a canonical workout section.
type SectionKind string

const (
	SectionWarmUp   SectionKind = "Warm-up"
	SectionMain     SectionKind = "Main"
	SectionAux      SectionKind = "Aux"
	SectionCoolDown SectionKind = "Cool-down"
	SectionOther    SectionKind = "Other"
)

var canonicalSections = [...]SectionKind{SectionWarmUp, SectionMain, SectionAux, SectionCoolDown}

// CanonicalSections lists the sections every workout ends up with, in order.
// The slice is a fresh copy.
func CanonicalSections() []SectionKind {
	return append([]SectionKind(nil), canonicalSections[:]...)
}

// SectionLabel is a section kind plus an optional duration annotation.
type SectionLabel struct {
	Kind     SectionKind
	Duration string
}

// String renders the label the way entries carry it, e.g. "Main (30 min)".
func (l SectionLabel) String() string {
	if l.Duration == "" {
		return string(l.Kind)
	}
	return fmt.Sprintf("%s (%s)", l.Kind, l.Duration)
}

// sectionFamily pairs a kind with its keyword family. Strong keywords name a
// section outright; weak ones (strength, mobility) also describe the work
// inside other sections and only decide when no strong keyword is present.
type sectionFamily struct {
	kind   SectionKind
	strong *regexp.Regexp
	weak   *regexp.Regexp
	prefix *regexp.Regexp
}

func newSectionFamily(kind SectionKind, strong, weak string) sectionFamily {
	all := strong
	if weak != "" {
		all += "|" + weak
	}
	f := sectionFamily{
		kind:   kind,
		strong: regexp.MustCompile(`(?i)\b(?:` + strong + `)\b`),
		prefix: regexp.MustCompile(`(?i)^(?:` + all + `)\b`),
	}
	if weak != "" {
		f.weak = regexp.MustCompile(`(?i)\b(?:` + weak + `)\b`)
	}
	return f
}

// Family order breaks ties between keywords starting at the same offset.
var sectionFamilies = []sectionFamily{
	newSectionFamily(SectionWarmUp, `warm[\s-]?up|activation|prep(?:aration)?`, `mobility`),
	newSectionFamily(SectionMain, `main|primary`, `strength|power`),
	newSectionFamily(SectionAux, `aux(?:iliary)?|accessor(?:y|ies)|assistance`, ""),
	newSectionFamily(SectionCoolDown, `cool[\s-]?down|recovery|stretching`, ""),
}

// labelNounRe matches the generic words a leading section label may carry
// after its keyword: "Main work:", "Accessory block".
var labelNounRe = regexp.MustCompile(`(?i)^(?:work(?:out)?|training|block|sets?|phase|exercises|circuit|section|lifts?)?$`)

var (
	// sectionDurationRe matches: 30 min, 10-15 minutes, 5 mins
	sectionDurationRe = regexp.MustCompile(`(?i)(\d+(?:\s*[-–]\s*\d+)?)\s*min(?:ute)?s?\b`)

	// durationParenRe matches a parenthetical holding a minute count: (30 min), (approx. 10 minutes)
	durationParenRe = regexp.MustCompile(`(?i)\([^)]*\d+\s*min[^)]*\)`)

	// leadingDurationRe matches a duration right after the keyword: ": 10 min", " - 5 minutes"
	leadingDurationRe = regexp.MustCompile(`(?i)^[\s:\-–—]*\d+(?:\s*[-–]\s*\d+)?\s*min(?:ute)?s?\b`)

	// durationAnnotationRe matches lines that carry nothing but a time budget: "(10 min)", "Total: 45 minutes"
	durationAnnotationRe = regexp.MustCompile(`(?i)^(?:total|duration|time)?\s*:?\s*\(?\s*(?:approx\.?|about|~)?\s*\d+(?:\s*[-–]\s*\d+)?\s*(?:min(?:ute)?s?|hours?|hrs?)\s*\)?\s*$`)

	rangeDashRe = regexp.MustCompile(`\s*[-–]\s*`)
)

// classifySection tests heading text against the keyword families. The
// earliest strong keyword wins, so "Accessory Strength Work" is Aux and
// "Cool-down & Mobility" is Cool-down; weak keywords only count when no
// strong one matches.
func classifySection(text string) (SectionLabel, bool) {
	kind, ok := earliestFamily(text, func(f sectionFamily) *regexp.Regexp { return f.strong })
	if !ok {
		kind, ok = earliestFamily(text, func(f sectionFamily) *regexp.Regexp { return f.weak })
	}
	if !ok {
		return SectionLabel{}, false
	}
	return SectionLabel{Kind: kind, Duration: sectionDuration(text)}, true
}

func earliestFamily(text string, re func(sectionFamily) *regexp.Regexp) (SectionKind, bool) {
	best, start := SectionKind(""), -1
	for _, f := range sectionFamilies {
		r := re(f)
		if r == nil {
			continue
		}
		if loc := r.FindStringIndex(text); loc != nil && (start < 0 || loc[0] < start) {
			best, start = f.kind, loc[0]
		}
	}
	return best, start >= 0
}

// looksLikeSectionHeader reports whether a plain line (list item, paragraph
// run) is a section header rather than an entry: it must start with a family
// keyword and carry at most two further words and no numbers besides a
// duration annotation.
func looksLikeSectionHeader(text string) (SectionLabel, bool) {
	rest, ok := afterLeadingKeyword(text)
	if !ok || !isHeaderRemainder(rest) {
		return SectionLabel{}, false
	}
	return classifySection(text)
}

// leadingSectionLabel reports whether text, the part of a line before its
// colon or a leading bold run, is a bare section label such as "Warm-up",
// "Main work (30 min)" or "Accessory block".
func leadingSectionLabel(text string) (SectionLabel, bool) {
	t := strings.Trim(cleanLine(text), " :-–—")
	rest, ok := afterLeadingKeyword(t)
	if !ok {
		return SectionLabel{}, false
	}
	rest = durationParenRe.ReplaceAllString(rest, " ")
	rest = leadingDurationRe.ReplaceAllString(rest, "")
	rest = collapseSpace(strings.Trim(rest, " :-–—()&/,."))
	if !labelNounRe.MatchString(rest) {
		if _, ok := leadingSectionLabel(rest); !ok {
			return SectionLabel{}, false
		}
	}
	return classifySection(t)
}

// afterLeadingKeyword returns the text following a family keyword that
// starts text.
func afterLeadingKeyword(text string) (string, bool) {
	for _, f := range sectionFamilies {
		if loc := f.prefix.FindStringIndex(text); loc != nil {
			return text[loc[1]:], true
		}
	}
	return "", false
}

func isHeaderRemainder(rest string) bool {
	rest = durationParenRe.ReplaceAllString(rest, " ")
	rest = leadingDurationRe.ReplaceAllString(rest, "")
	rest = strings.Trim(rest, " :-–—()&/,.")
	if rest == "" {
		return true
	}
	if strings.ContainsAny(rest, "0123456789") {
		return false
	}
	return len(strings.Fields(rest)) <= 2
}

// sectionDuration returns the first minute count in text as "N min".
func sectionDuration(text string) string {
	m := sectionDurationRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return rangeDashRe.ReplaceAllString(m[1], "-") + " min"
}

// isDurationAnnotation reports whether text is only a time budget.
func isDurationAnnotation(text string) bool {
	return durationAnnotationRe.MatchString(text)
}

// sectionKindOf maps an entry's section label back to its kind by prefix.
func sectionKindOf(label string) SectionKind {
	for _, k := range canonicalSections {
		if strings.HasPrefix(label, string(k)) {
			return k
		}
	}
	return SectionOther
}
