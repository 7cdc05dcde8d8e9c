package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/revscore/internal/contract"
	"github.com/huangsam/revscore/internal/parquet"
	"github.com/huangsam/revscore/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// predictionFixedWidth is the table width taken by every column but the comment.
const predictionFixedWidth = 60

// WritePredictions outputs evaluation results, dispatching based on the output format configured.
func WritePredictions(result schema.EvaluationResult, cfg *contract.Config, duration time.Duration) error {
	fmtFloat := createFormatter(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, result)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writePredictionsCSV(w, result, fmtFloat)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if err := parquet.WritePredictionsParquet(parquet.ConvertPredictions(result), cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
	default:
		// Default to human-readable table
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writePredictionsTable(w, result, cfg, fmtFloat, duration)
		}, "Wrote table")
	}
	return nil
}

// writePredictionsTable generates and writes the human-readable table.
func writePredictionsTable(w io.Writer, result schema.EvaluationResult, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"#", "Comment", "Importance", "Quality", "Label", "Heuristic"})
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignRight
		c.Row.Alignment.PerColumn = []tw.Align{tw.AlignRight, tw.AlignLeft, tw.AlignRight, tw.AlignRight, tw.AlignLeft, tw.AlignRight}
	})

	width := getMaxTableTextWidth(cfg, predictionFixedWidth)
	var data [][]string
	for i, p := range result.Ratings {
		data = append(data, []string{
			strconv.Itoa(i + 1),
			contract.TruncateText(p.Comment, width),
			fmtFloat(p.PredictedImportance),
			fmtFloat(p.PredictedQuality),
			contract.GetColorLabel(p.PredictedQuality),
			fmt.Sprintf("%s / %s", fmtFloat(p.HeuristicImportance), fmtFloat(p.HeuristicQuality)),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Scored %d comments with model %s v%d\n", len(result.Ratings), result.Model.Name, result.Model.Version); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Evaluation completed in %v. Sentiment provider: %s\n", duration, cfg.SentimentProvider); err != nil {
		return err
	}
	return nil
}

// writePredictionsCSV writes one row per prediction.
func writePredictionsCSV(w io.Writer, result schema.EvaluationResult, fmtFloat func(float64) string) error {
	header := []string{
		"rank",
		"comment",
		"predicted_importance",
		"predicted_quality",
		"label",
		"heuristic_importance",
		"heuristic_quality",
		"model_version",
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		version := strconv.Itoa(result.Model.Version)
		for i, p := range result.Ratings {
			rec := []string{
				strconv.Itoa(i + 1),
				p.Comment,
				fmtFloat(p.PredictedImportance),
				fmtFloat(p.PredictedQuality),
				contract.GetPlainLabel(p.PredictedQuality),
				fmtFloat(p.HeuristicImportance),
				fmtFloat(p.HeuristicQuality),
				version,
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}
