package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kirillkom/restaurant-classifier/internal/core/domain"
	"github.com/kirillkom/restaurant-classifier/internal/core/ports"
)

func newResolveCommand(build func() (ports.SessionPipeline, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <url>",
		Short: "Print the coordinates found in a map link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pipeline, err := build()
			if err != nil {
				return err
			}
			_, res, err := pipeline.Resolve(cmd.Context(), pipeline.NewSession(), args[0])
			if err != nil {
				return err
			}
			printResolution(cmd, res)
			return nil
		},
	}
}

func printResolution(cmd *cobra.Command, res domain.Resolution) {
	out := cmd.OutOrStdout()
	if res.Coordinate == nil {
		fmt.Fprintf(out, "Coordinates not found (%.3fs)\n", res.ElapsedSeconds())
		return
	}
	fmt.Fprintf(out, "Coordinates: %.6f, %.6f (%s, %.3fs)\n",
		res.Coordinate.Latitude,
		res.Coordinate.Longitude,
		res.Source,
		res.ElapsedSeconds(),
	)
	if res.ResolvedURL != "" && res.ResolvedURL != res.InputURL {
		fmt.Fprintf(out, "Expanded: %s\n", res.ResolvedURL)
	}
}
