package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"highlighter/internal/export"
)

func newScoresCommand() *cobra.Command {
	var (
		format string
		top    int
		sorted bool
	)

	cmd := &cobra.Command{
		Use:         "scores <workdir|scores.json>",
		Short:       "Render a scores export",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			outFormat, err := parseFormat(format)
			if err != nil {
				return err
			}
			doc, err := export.ReadScores(args[0])
			if err != nil {
				return err
			}
			windows := selectWindows(doc.Windows, top, sorted)
			if outFormat != formatTable {
				doc.Windows = windows
				return writeStructured(cmd, outFormat, doc)
			}
			renderScores(cmd, doc, windows)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatTable, "Output format: table, json, or yaml")
	cmd.Flags().IntVarP(&top, "top", "n", 0, "Only show the highest N windows (implies --sort)")
	cmd.Flags().BoolVar(&sorted, "sort", false, "Order windows by composite score instead of index")
	return cmd
}

// selectWindows returns windows in index order, or by composite descending
// with index tiebreak when sorting or limiting.
func selectWindows(windows []export.WindowRecord, top int, sorted bool) []export.WindowRecord {
	out := append([]export.WindowRecord(nil), windows...)
	if top > 0 || sorted {
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].Composite != out[j].Composite {
				return out[i].Composite > out[j].Composite
			}
			return out[i].Index < out[j].Index
		})
	}
	if top > 0 && top < len(out) {
		out = out[:top]
	}
	return out
}

func renderScores(cmd *cobra.Command, doc export.Scores, windows []export.WindowRecord) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Source: %s\n", doc.Source)
	fmt.Fprintf(out, "Segments: %d  Window: %d/%d  Alignment: %s\n", doc.SegmentCount, doc.WindowSize, doc.Stride, doc.Alignment)
	fmt.Fprintf(out, "Weights: acoustic %.2f, individual %.2f, window %.2f\n", doc.Weights.Acoustic, doc.Weights.Individual, doc.Weights.Window)
	if len(doc.Skipped) > 0 {
		fmt.Fprintf(out, "Skipped windows: %v\n", doc.Skipped)
	}
	if len(windows) == 0 {
		fmt.Fprintln(out, "No windows scored")
		return
	}

	rows := make([][]string, 0, len(windows))
	for _, w := range windows {
		flags := ""
		if w.Truncated {
			flags += "T"
		}
		if w.Desynced {
			flags += "D"
		}
		rows = append(rows, []string{
			strconv.Itoa(w.Index),
			formatSeconds(w.StartSeconds),
			formatSeconds(w.EndSeconds),
			formatScore(w.AcousticMean),
			formatScore(w.IndividualMean),
			formatScore(w.Sentiment),
			formatScore(w.Composite),
			flags,
			truncateText(w.Text, 40),
		})
	}
	fmt.Fprint(out, renderTable(
		[]string{"#", "Start", "End", "Acoustic", "Individual", "Window", "Composite", "Flags", "Text"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft, alignLeft},
		shouldColorize(out),
	))
}
