package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/huangsam/revscore/core"
	"github.com/huangsam/revscore/internal/contract"
	"github.com/huangsam/revscore/internal/iocache"
	"github.com/huangsam/revscore/internal/outwriter"
	"github.com/huangsam/revscore/schema"
	"github.com/spf13/cobra"
)

// modelCmd groups model version management.
var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Manage stored calibration model versions",
	Long: `Every training run saves the calibration model as a new, immutable version.

Supported backends: file (default), SQLite, MySQL, PostgreSQL, S3

Subcommands:
  list   - Show every stored version
  show   - Describe one version
  export - Copy one version's artifact to a file
  prune  - Delete all but the newest versions`,
}

// modelListCmd lists stored versions.
var modelListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List stored model versions, oldest first",
	PreRunE: sharedSetup,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := iocache.Manager.GetModelStore().GetStatus(rootCtx, cfg.ModelName)
		if err != nil {
			contract.LogFatal("Cannot list model versions", err)
		}
		if err := outwriter.NewOutWriter().WriteModelVersions(status, cfg); err != nil {
			contract.LogFatal("Cannot write model versions", err)
		}
	},
}

// modelDescription is what "model show" prints.
type modelDescription struct {
	Version      schema.ModelVersion `json:"version"`
	Architecture []int               `json:"architecture"`
	Parameters   int                 `json:"parameters"`
	Bounds       core.Bounds         `json:"bounds"`
	Standardizer core.Standardizer   `json:"standardizer"`
	Training     core.TrainingMeta   `json:"training"`
}

// modelShowCmd describes one version.
var modelShowCmd = &cobra.Command{
	Use:   "show [version]",
	Short: "Describe a model version (latest by default)",
	Long: `Print the metadata of one model version as JSON: checksum, size,
layer widths, output bounds, the standardizer statistics and the
hyperparameters it was trained with.

Examples:
  revscore model show
  revscore model show 3`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetup,
	Run: func(_ *cobra.Command, args []string) {
		version, err := parseVersionArg(args)
		if err != nil {
			contract.LogFatal("Cannot show model", err)
		}
		model, meta, err := core.LoadModel(rootCtx, iocache.Manager.GetModelStore(), cfg.ModelName, version)
		if err != nil {
			contract.LogFatal("Cannot load model", err)
		}
		if err := writeModelDescription(describeModel(model, meta), cfg.OutputFile); err != nil {
			contract.LogFatal("Cannot write model description", err)
		}
	},
}

// modelExportCmd copies an artifact out of the store.
var modelExportCmd = &cobra.Command{
	Use:   "export [version]",
	Short: "Write a model artifact to a file",
	Long: `Copy the serialized artifact of one version (latest by default) to
--output-file, for instance to move it between backends.

Examples:
  revscore model export --output-file calibration-v3.json 3`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetup,
	Run: func(_ *cobra.Command, args []string) {
		version, err := parseVersionArg(args)
		if err != nil {
			contract.LogFatal("Cannot export model", err)
		}
		if err := exportModel(iocache.Manager.GetModelStore(), cfg.ModelName, version, cfg.OutputFile); err != nil {
			contract.LogFatal("Cannot export model", err)
		}
	},
}

// modelPruneCmd deletes old versions.
var modelPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete all but the newest model versions",
	Long: `Delete old model versions, keeping the newest --keep of them.
Without --keep the model-retain setting is used. 0 keeps everything.

Examples:
  revscore model prune --keep 2`,
	PreRunE: sharedSetup,
	Run: func(cmd *cobra.Command, _ []string) {
		keep := cfg.ModelRetain
		if cmd.Flags().Changed("keep") {
			keep, _ = cmd.Flags().GetInt("keep")
		}
		if keep < 0 {
			contract.LogFatal("Cannot prune models", contract.NewInvalidInputError("keep", "must not be negative"))
		}
		removed, err := iocache.Manager.GetModelStore().Prune(rootCtx, cfg.ModelName, keep)
		if err != nil {
			contract.LogFatal("Cannot prune models", err)
		}
		fmt.Printf("Removed %d model versions.\n", removed)
	},
}

// parseVersionArg reads the optional version argument; 0 means latest.
func parseVersionArg(args []string) (int, error) {
	if len(args) == 0 {
		return 0, nil
	}
	v, err := strconv.Atoi(args[0])
	if err != nil || v < 1 {
		return 0, contract.NewInvalidInputError("version", fmt.Sprintf("must be a positive integer (received %q)", args[0]))
	}
	return v, nil
}

func describeModel(m *core.Model, meta schema.ModelVersion) modelDescription {
	arch := make([]int, 0, len(m.Layers)+1)
	for i, l := range m.Layers {
		if i == 0 {
			arch = append(arch, l.In)
		}
		arch = append(arch, l.Out)
	}
	return modelDescription{
		Version:      meta,
		Architecture: arch,
		Parameters:   m.ParamCount(),
		Bounds:       m.Bounds,
		Standardizer: m.Standardizer,
		Training:     m.Training,
	}
}

func writeModelDescription(desc modelDescription, outputFile string) error {
	file, err := contract.SelectOutputFile(outputFile)
	if err != nil {
		return err
	}
	if file != os.Stdout {
		defer func() { _ = file.Close() }()
	}
	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(desc)
}

// exportModel writes the raw payload of one version to outputFile.
func exportModel(store contract.ModelStore, name string, version int, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	var (
		payload []byte
		meta    schema.ModelVersion
		err     error
	)
	if version > 0 {
		payload, meta, err = store.LoadVersion(rootCtx, name, version)
	} else {
		payload, meta, err = store.Load(rootCtx, name)
	}
	if err != nil {
		return err
	}
	if err := os.WriteFile(outputFile, payload, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", outputFile, err)
	}
	fmt.Printf("Exported %s v%d (%d bytes) to: %s\n", meta.Name, meta.Version, len(payload), outputFile)
	return nil
}
