package cli

import (
	"github.com/claude/coachplan/internal/models"
	"github.com/claude/coachplan/internal/plan"
	"github.com/spf13/cobra"
)

// Version is set by the main package.
var Version = "dev"

// NewRootCmd builds the coachplan-parse command tree.
func NewRootCmd() *cobra.Command {
	opts := plan.DefaultOptions()

	root := &cobra.Command{
		Use:   "coachplan-parse",
		Short: "Parse coaching plans offline",
		Long: `coachplan-parse extracts structured entries from HTML workout and nutrition
plans on disk and prints them as JSON or as a per-section summary.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.IntVar(&opts.MinTextLength, "min-text-length", opts.MinTextLength, "ignore text runs shorter than this")
	flags.IntVar(&opts.MaxHeaderLength, "max-header-length", opts.MaxHeaderLength, "longest bold line treated as a section header")
	flags.IntVar(&opts.MaxInputBytes, "max-input-bytes", opts.MaxInputBytes, "truncate documents above this size")

	root.AddCommand(newParseCmd(models.KindWorkout, &opts))
	root.AddCommand(newParseCmd(models.KindNutrition, &opts))
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
