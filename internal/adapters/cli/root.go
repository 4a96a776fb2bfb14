// Package cli holds the classifier command tree.
package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/kirillkom/restaurant-classifier/internal/config"
	"github.com/kirillkom/restaurant-classifier/internal/core/ports"
	"github.com/kirillkom/restaurant-classifier/internal/observability/logging"
)

// PipelineFactory builds the pipeline once flags have been applied to cfg.
type PipelineFactory func(cfg config.Config) (ports.SessionPipeline, error)

type options struct {
	radius         int
	maxPages       int
	timeoutSeconds int
	xlsxPath       string
	step           bool
	logLevel       string
}

func NewRootCommand(cfg config.Config, factory PipelineFactory) *cobra.Command {
	opts := &options{
		radius:         cfg.SearchRadiusMeters,
		maxPages:       cfg.MaxExtraPages,
		timeoutSeconds: cfg.ClassifyTimeoutSeconds,
		logLevel:       "warn",
	}

	root := &cobra.Command{
		Use:   "classifier",
		Short: "Classify the restaurants around a map link by cuisine",
		Long: `
classifier resolves a map link to coordinates, lists the restaurants around
it and asks a language model to put each one into a fixed cuisine category.
`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			slog.SetDefault(logging.NewJSONLoggerTo(cmd.ErrOrStderr(), "classifier", opts.logLevel))
		},
	}
	root.PersistentFlags().IntVar(&opts.radius, "radius", opts.radius, "search radius in meters")
	root.PersistentFlags().IntVar(&opts.maxPages, "max-pages", opts.maxPages, "continuation pages to follow after the first")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", opts.logLevel, "debug, info, warn or error; logs go to stderr")
	root.PersistentFlags().IntVar(&opts.timeoutSeconds, "timeout", opts.timeoutSeconds, "per-restaurant classification timeout in seconds")

	build := func() (ports.SessionPipeline, error) {
		if opts.radius <= 0 {
			return nil, fmt.Errorf("--radius must be positive, got %d", opts.radius)
		}
		if opts.maxPages < 0 {
			return nil, fmt.Errorf("--max-pages must not be negative, got %d", opts.maxPages)
		}
		effective := cfg
		effective.SearchRadiusMeters = opts.radius
		effective.MaxExtraPages = opts.maxPages
		effective.ClassifyTimeoutSeconds = opts.timeoutSeconds
		return factory(effective)
	}

	root.AddCommand(
		newResolveCommand(build),
		newFetchCommand(build),
		newRunCommand(build, opts),
	)
	return root
}
