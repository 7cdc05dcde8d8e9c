package cmd

import (
	"errors"
	"fmt"

	"github.com/huangsam/revscore/core"
	"github.com/huangsam/revscore/internal/contract"
	"github.com/huangsam/revscore/internal/parquet"
	"github.com/spf13/cobra"
)

// datasetCmd groups training dataset commands.
var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Inspect the training dataset built from stored reviews",
	Long: `The training dataset is rebuilt from scratch on every run: one example per
stored comment with its own heuristic as target, plus one example per
feedback label with the human scores as target.

Subcommands:
  export - Write the dataset to Parquet`,
}

// datasetExportCmd writes the built dataset to Parquet.
var datasetExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the training dataset to Parquet",
	Long: `Build the dataset exactly as "revscore train" would and write it to a
Parquet file with raw features, standardized features and targets.

Requires: --output-file parameter

Examples:
  revscore dataset export --output-file dataset.parquet
  duckdb -c "SELECT source, avg(target_quality) FROM 'dataset.parquet' GROUP BY 1"`,
	PreRunE: engineSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := exportDataset(engine, cfg.OutputFile); err != nil {
			contract.LogFatal("Cannot export dataset", err)
		}
	},
}

// exportDataset builds the dataset through engine and writes it to outputFile.
func exportDataset(engine *core.Engine, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	ds, err := engine.BuildDataset(rootCtx)
	if err != nil {
		return err
	}
	if err := parquet.WriteDatasetParquet(convertDataset(ds), outputFile); err != nil {
		return fmt.Errorf("failed to write dataset: %w", err)
	}
	fmt.Printf("Exported %d examples to: %s\n", ds.Len(), outputFile)
	return nil
}

// convertDataset flattens examples into Parquet rows.
func convertDataset(ds *core.Dataset) []parquet.DatasetRow {
	inputs := ds.Inputs()
	rows := make([]parquet.DatasetRow, len(ds.Examples))
	for i, ex := range ds.Examples {
		rows[i] = parquet.DatasetRow{
			Text:                   ex.Comment,
			Source:                 string(ex.Source),
			FeatureImportance:      ex.Features[0],
			FeatureQuality:         ex.Features[1],
			StandardizedImportance: inputs[i][0],
			StandardizedQuality:    inputs[i][1],
			TargetImportance:       ex.Target[0],
			TargetQuality:          ex.Target[1],
		}
	}
	return rows
}
