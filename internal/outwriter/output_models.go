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

// shortChecksumLen is how much of a sha256 the table shows.
const shortChecksumLen = 12

// WriteModelVersions outputs the stored versions of one model.
func WriteModelVersions(status schema.ModelStoreStatus, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut, schema.ParquetOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, status)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeModelVersionsCSV(w, status)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeModelVersionsTable(w, status)
		}, "Wrote table")
	}
}

func writeModelVersionsTable(w io.Writer, status schema.ModelStoreStatus) error {
	if _, err := fmt.Fprintf(w, "Model %q in %s (%s)\n", status.Name, status.Location, status.Backend); err != nil {
		return err
	}
	if len(status.Versions) == 0 {
		_, err := fmt.Fprintln(w, "No versions stored. Run `revscore train` first.")
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Version", "Created", "Size", "Checksum", "ID"})
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignLeft
	})

	latest, _ := status.Latest()
	var data [][]string
	for _, v := range status.Versions {
		version := strconv.Itoa(v.Version)
		if v.Version == latest.Version {
			version += " *"
		}
		data = append(data, []string{
			version,
			v.CreatedAt.Format(contract.DateTimeFormat),
			formatBytes(v.SizeBytes),
			shortChecksum(v.Checksum),
			v.ID,
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func writeModelVersionsCSV(w io.Writer, status schema.ModelStoreStatus) error {
	header := []string{"name", "version", "created_at", "size_bytes", "checksum", "id"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, v := range status.Versions {
			rec := []string{
				v.Name,
				strconv.Itoa(v.Version),
				v.CreatedAt.Format(contract.DateTimeFormat),
				strconv.FormatInt(v.SizeBytes, 10),
				v.Checksum,
				v.ID,
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func shortChecksum(sum string) string {
	if len(sum) > shortChecksumLen {
		return sum[:shortChecksumLen]
	}
	return sum
}

// formatBytes renders a size with a binary unit.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
