package cli

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kirillkom/restaurant-classifier/internal/core/domain"
	"github.com/kirillkom/restaurant-classifier/internal/core/ports"
	"github.com/kirillkom/restaurant-classifier/internal/infrastructure/export/xlsx"
	"github.com/kirillkom/restaurant-classifier/internal/infrastructure/storage/localfs"
)

func newRunCommand(build func() (ports.SessionPipeline, error), opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <url>",
		Short: "Resolve, fetch and classify every restaurant around a map link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pipeline, err := build()
			if err != nil {
				return err
			}
			return run(cmd, pipeline, args[0], opts)
		},
	}
	cmd.Flags().StringVar(&opts.xlsxPath, "xlsx", "", "write the classified table to this .xlsx file")
	cmd.Flags().BoolVar(&opts.step, "step", false, "classify one restaurant per Enter key press (q to stop)")
	return cmd
}

func run(cmd *cobra.Command, pipeline ports.SessionPipeline, rawURL string, opts *options) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	s, res, err := pipeline.Resolve(ctx, pipeline.NewSession(), rawURL)
	if err != nil {
		return err
	}
	printResolution(cmd, res)

	s, err = pipeline.Fetch(ctx, s)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Found %d restaurants\n", len(s.Candidates))
	if len(s.Candidates) == 0 {
		return nil
	}

	if opts.step {
		s, err = runStepwise(cmd, pipeline, s)
	} else {
		s, err = runAll(cmd, pipeline, s)
	}
	interrupted := err != nil && ctx.Err() != nil
	if err != nil && !interrupted {
		return err
	}
	if interrupted {
		fmt.Fprintf(out, "Interrupted after %d/%d\n", s.Cursor, len(s.Candidates))
	}

	if s.Done() {
		fmt.Fprintln(out, "All restaurants classified")
	}
	printSummary(out, s.Log)

	if opts.xlsxPath != "" {
		path, err := saveWorkbook(cmd, opts.xlsxPath, s.Log)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Saved %s\n", path)
	}
	if interrupted {
		return ctx.Err()
	}
	return nil
}

func runAll(cmd *cobra.Command, pipeline ports.SessionPipeline, s domain.Session) (domain.Session, error) {
	out := cmd.OutOrStdout()
	bar := newProgressBar(cmd.ErrOrStderr(), s.Remaining())

	s, err := pipeline.ClassifyAll(cmd.Context(), s, func(done, total int, row domain.ClassificationResult) {
		if bar != nil {
			_ = bar.Add(1)
		}
		printRow(out, done, total, row)
	})
	if bar != nil {
		_ = bar.Finish()
	}
	return s, err
}

func runStepwise(cmd *cobra.Command, pipeline ports.SessionPipeline, s domain.Session) (domain.Session, error) {
	out := cmd.OutOrStdout()
	in := bufio.NewScanner(cmd.InOrStdin())

	for !s.Done() {
		fmt.Fprintf(out, "[%d/%d] Enter to classify, q to stop: ", s.Cursor+1, len(s.Candidates))
		if !in.Scan() {
			fmt.Fprintln(out)
			break
		}
		if strings.EqualFold(strings.TrimSpace(in.Text()), "q") {
			break
		}

		next, row, err := pipeline.ClassifyNext(cmd.Context(), s)
		if err != nil {
			return s, err
		}
		s = next
		if row != nil {
			printRow(out, s.Cursor, len(s.Candidates), *row)
		}
	}
	return s, in.Err()
}

func printRow(w io.Writer, done, total int, row domain.ClassificationResult) {
	latency := "-"
	if v := row.Classification.LatencySeconds(); v != nil {
		latency = fmt.Sprintf("%.2fs", *v)
	}
	fmt.Fprintf(w, "%d/%d: %s -> %s (%s)\n", done, total, row.Name, row.Classification.Label(), latency)
}

func printSummary(w io.Writer, rows []domain.ClassificationResult) {
	counts := map[string]int{}
	failed := 0
	for _, row := range rows {
		if row.Classification.Failed() {
			failed++
			continue
		}
		counts[string(row.Classification.Category)]++
	}

	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		if counts[labels[i]] != counts[labels[j]] {
			return counts[labels[i]] > counts[labels[j]]
		}
		return labels[i] < labels[j]
	})

	parts := make([]string, 0, len(labels)+1)
	for _, label := range labels {
		parts = append(parts, fmt.Sprintf("%s %d", label, counts[label]))
	}
	if failed > 0 {
		parts = append(parts, fmt.Sprintf("errors %d", failed))
	}
	if len(parts) > 0 {
		fmt.Fprintf(w, "Summary: %s\n", strings.Join(parts, ", "))
	}
}

func saveWorkbook(cmd *cobra.Command, path string, rows []domain.ClassificationResult) (string, error) {
	var buf bytes.Buffer
	if err := xlsx.Write(&buf, rows); err != nil {
		return "", err
	}
	store, err := localfs.New(filepath.Dir(path))
	if err != nil {
		return "", err
	}
	// The workbook is still written after an interrupt.
	return store.Save(context.WithoutCancel(cmd.Context()), filepath.Base(path), &buf)
}

// newProgressBar returns nil unless w is a terminal.
func newProgressBar(w io.Writer, total int) *progressbar.ProgressBar {
	f, ok := w.(*os.File)
	if !ok || !isatty.IsTerminal(f.Fd()) {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Classifying"),
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}
