package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kirillkom/restaurant-classifier/internal/core/domain"
	"github.com/kirillkom/restaurant-classifier/internal/core/ports"
)

func newFetchCommand(build func() (ports.SessionPipeline, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch <url>",
		Short: "List the restaurants around a map link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pipeline, err := build()
			if err != nil {
				return err
			}
			s, res, err := pipeline.Resolve(cmd.Context(), pipeline.NewSession(), args[0])
			if err != nil {
				return err
			}
			printResolution(cmd, res)

			s, err = pipeline.Fetch(cmd.Context(), s)
			if err != nil {
				return err
			}
			printCandidates(cmd.OutOrStdout(), s.Candidates)
			return nil
		},
	}
}

func printCandidates(w io.Writer, candidates []domain.PlaceCandidate) {
	fmt.Fprintf(w, "Found %d restaurants\n", len(candidates))
	for i, c := range candidates {
		rating := "-"
		if c.Rating != nil {
			rating = strconv.FormatFloat(*c.Rating, 'f', 1, 64)
		}
		distance := "-"
		if c.DistanceMeters != nil {
			distance = fmt.Sprintf("%.0fm", *c.DistanceMeters)
		}
		fmt.Fprintf(w, "%3d. %s | %s | rating %s | %s | %s\n", i+1, c.Name, c.Address, rating, distance, c.MapURL)
	}
}
