package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/revscore/internal/contract"
	"github.com/huangsam/revscore/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteTrainingSummary outputs the result of a retrain in the configured format.
// Parquet has no meaning for a single summary and falls back to JSON.
func WriteTrainingSummary(summary schema.TrainingSummary, cfg *contract.Config) error {
	fmtFloat := createFormatter(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut, schema.ParquetOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, summary)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeTrainingCSV(w, summary, fmtFloat)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeTrainingTable(w, summary, fmtFloat)
		}, "Wrote table")
	}
}

// trainingFields flattens a summary into ordered name/value pairs.
func trainingFields(s schema.TrainingSummary, fmtFloat func(float64) string) [][]string {
	validation := ""
	if s.ValidationLoss != nil {
		validation = fmtFloat(*s.ValidationLoss)
	}
	return [][]string{
		{"status", s.Status},
		{"message", s.Message},
		{"run_id", s.RunID},
		{"model", s.Model.Name},
		{"version", strconv.Itoa(s.Model.Version)},
		{"checksum", s.Model.Checksum},
		{"comments", strconv.Itoa(s.Comments)},
		{"feedback", strconv.Itoa(s.Feedback)},
		{"train_examples", strconv.Itoa(s.TrainExamples)},
		{"validation_examples", strconv.Itoa(s.ValidationSamples)},
		{"epochs", strconv.Itoa(s.Epochs)},
		{"final_loss", fmtFloat(s.FinalLoss)},
		{"validation_loss", validation},
		{"duration", s.Duration.String()},
	}
}

func writeTrainingTable(w io.Writer, s schema.TrainingSummary, fmtFloat func(float64) string) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Field", "Value"})
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignLeft
	})
	if err := table.Bulk(trainingFields(s, fmtFloat)); err != nil {
		return err
	}
	return table.Render()
}

func writeTrainingCSV(w io.Writer, s schema.TrainingSummary, fmtFloat func(float64) string) error {
	fields := trainingFields(s, fmtFloat)
	header := make([]string, len(fields))
	row := make([]string, len(fields))
	for i, f := range fields {
		header[i], row[i] = f[0], f[1]
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
		return nil
	})
}
