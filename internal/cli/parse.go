package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/claude/coachplan/internal/models"
	"github.com/claude/coachplan/internal/plan"
	"github.com/spf13/cobra"
)

// parsedFile is the JSON output for one input file.
type parsedFile struct {
	File    string         `json:"file"`
	Entries []plan.Entry   `json:"entries,omitempty"`
	Days    []plan.DayPlan `json:"days,omitempty"`
}

func newParseCmd(kind models.PlanKind, opts *plan.Options) *cobra.Command {
	var days, summary bool

	noun := "exercises"
	if kind == models.KindNutrition {
		noun = "meals"
	}

	cmd := &cobra.Command{
		Use:   string(kind) + " FILE...",
		Short: fmt.Sprintf("Extract %s from %s plans", noun, kind),
		Long: fmt.Sprintf(`Extract %s from one or more HTML %s plans.

With --days the plan is split at day headings first. With --summary a table
of entries per section is printed instead of JSON.`, noun, kind),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := plan.New(*opts)
			out := make([]parsedFile, 0, len(args))
			for _, path := range args {
				src, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("reading %s: %w", path, err)
				}
				out = append(out, parseFile(p, kind, path, string(src), days))
			}
			if summary {
				return writeSummary(cmd.OutOrStdout(), out)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}

	cmd.Flags().BoolVar(&days, "days", false, "split each plan into days")
	cmd.Flags().BoolVar(&summary, "summary", false, "print a per-section summary table")
	return cmd
}

func parseFile(p *plan.Parser, kind models.PlanKind, path, src string, days bool) parsedFile {
	f := parsedFile{File: path}
	switch {
	case days:
		f.Days = kind.Parse(p, src)
	case kind == models.KindNutrition:
		f.Entries = p.ExtractMeals(src).Meals
	default:
		f.Entries = p.ExtractEntries(src).Exercises
	}
	return f
}

// writeSummary prints one row per file, day and section with its entry count.
func writeSummary(out io.Writer, files []parsedFile) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FILE\tDAY\tSECTION\tENTRIES\tFIRST")

	for _, f := range files {
		if f.Days == nil {
			writeSections(w, f.File, "-", f.Entries)
			continue
		}
		for _, d := range f.Days {
			day := d.ID
			if day == "" {
				day = "-"
			}
			writeSections(w, f.File, day, d.Entries)
		}
	}
	return w.Flush()
}

func writeSections(w io.Writer, file, day string, entries []plan.Entry) {
	if len(entries) == 0 {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", file, day, "-", 0, "-")
		return
	}
	var order []string
	counts := map[string]int{}
	first := map[string]string{}
	for _, e := range entries {
		if _, ok := counts[e.Section]; !ok {
			order = append(order, e.Section)
			first[e.Section] = e.Name
		}
		counts[e.Section]++
	}
	for _, s := range order {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", file, day, s, counts[s], first[s])
	}
}
