package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"workorder-intake-go/internal/actionable"
	"workorder-intake-go/internal/aggregator"
	"workorder-intake-go/internal/config"
	"workorder-intake-go/internal/dataset"
	"workorder-intake-go/internal/processor"
	"workorder-intake-go/internal/types"
)

func newBatchCmd(build builder) *cobra.Command {
	var (
		in          string
		out         string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Extract every job description in a spreadsheet and write a results workbook",
		RunE: func(cmd *cobra.Command, _ []string) error {
			jobs, err := dataset.Load(in)
			if err != nil {
				return fmt.Errorf("load %s: %w", in, err)
			}

			a, err := build(cmd, func(cfg *config.Config) {
				if concurrency > 0 {
					cfg.BatchConcurrency = concurrency
				}
			})
			if err != nil {
				return err
			}
			defer a.Close()

			items := make([]processor.BatchItem, len(jobs))
			for i, j := range jobs {
				items[i] = processor.BatchItem{ID: j.ID, RawText: j.RawText}
			}
			batch := a.Processor.ProcessBatch(cmd.Context(), items)

			threshold := a.Config.ReviewThreshold
			rows := make([]dataset.ResultRow, 0, len(batch))
			results := make([]types.ExtractionResult, 0, len(batch))
			for _, b := range batch {
				if b.Err != nil {
					rows = append(rows, dataset.ResultRow{ID: b.ID, Error: b.Err.Error()})
					continue
				}
				routing := actionable.Route(b.Result, threshold)
				rows = append(rows, dataset.ResultRow{
					ID:       b.ID,
					Result:   b.Result,
					Decision: string(routing.Decision),
					Reasons:  routing.Reasons,
				})
				results = append(results, b.Result)
			}

			ins := aggregator.Aggregate(results, threshold)
			card := actionable.Generate(ins)
			if err := dataset.WriteResults(out, rows, summaryLines(ins, card)); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "processed %d jobs (%d below review threshold), results written to %s\n%s\n",
				ins.Total, ins.BelowReview, out, card.Insight)
			return nil
		},
	}
	cmd.Flags().StringVarP(&in, "in", "i", "", "Input .xlsx with one job description per row")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output .xlsx for extraction results")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Parallel extractions (defaults to BATCH_CONCURRENCY)")
	_ = cmd.MarkFlagRequired("in")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func summaryLines(ins aggregator.Insight, card actionable.ActionCard) []dataset.SummaryLine {
	lines := []dataset.SummaryLine{
		{Label: "total", Value: strconv.Itoa(ins.Total)},
		{Label: "mean_confidence", Value: strconv.FormatFloat(ins.MeanConfidence, 'f', 2, 64)},
		{Label: "below_review", Value: strconv.Itoa(ins.BelowReview)},
	}
	for _, src := range []types.Source{types.SourcePrimary, types.SourceSecondary, types.SourceHeuristic} {
		lines = append(lines, dataset.SummaryLine{Label: "source_" + string(src), Value: strconv.Itoa(ins.SourceCounts[src])})
	}
	for _, fc := range ins.TopWeakFields(5) {
		lines = append(lines, dataset.SummaryLine{Label: "weak_" + fc.Field, Value: strconv.Itoa(fc.Count)})
	}
	return append(lines,
		dataset.SummaryLine{Label: "insight", Value: card.Insight},
		dataset.SummaryLine{Label: "action", Value: card.Action},
		dataset.SummaryLine{Label: "impact", Value: card.Impact},
	)
}
