package outwriter

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/huangsam/revscore/internal/contract"
	"github.com/huangsam/revscore/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteScore outputs the breakdown of a single heuristic score.
func WriteScore(bd schema.ScoreBreakdown, cfg *contract.Config) error {
	fmtFloat := createFormatter(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut, schema.ParquetOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, bd)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeScoreCSV(w, bd, fmtFloat)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeScoreTable(w, bd, cfg, fmtFloat)
		}, "Wrote table")
	}
}

func writeScoreTable(w io.Writer, bd schema.ScoreBreakdown, cfg *contract.Config, fmtFloat func(float64) string) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Stage", "Importance", "Quality", "Note"})
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.PerColumn = []tw.Align{tw.AlignLeft, tw.AlignRight, tw.AlignRight, tw.AlignLeft}
	})

	keywords := "none matched"
	if len(bd.Tokens) > 0 {
		keywords = contract.TruncateText(strings.Join(bd.Tokens, ", "), getMaxTableTextWidth(cfg, 45))
	}
	sentiment := string(bd.Sentiment.Label) + " " + fmtFloat(bd.Sentiment.Confidence)
	rating := "no rating"
	if bd.WebsiteRating != nil {
		rating = "rating " + fmtFloat(*bd.WebsiteRating)
	}

	data := [][]string{
		{"keywords", fmtFloat(bd.RawImportance), fmtFloat(bd.RawQuality), keywords},
		{"heuristic", fmtFloat(bd.Heuristic.Importance), fmtFloat(bd.Heuristic.Quality), sentiment + ", " + rating},
	}
	if bd.Calibrated != nil {
		data = append(data, []string{
			"calibrated",
			fmtFloat(bd.Calibrated.Importance),
			fmtFloat(bd.Calibrated.Quality),
			"model v" + strconv.Itoa(bd.CalibratedVersion) + ", " + contract.GetColorLabel(bd.Calibrated.Quality),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func writeScoreCSV(w io.Writer, bd schema.ScoreBreakdown, fmtFloat func(float64) string) error {
	header := []string{
		"comment",
		"matched_keywords",
		"raw_importance",
		"raw_quality",
		"sentiment",
		"sentiment_score",
		"website_rating",
		"heuristic_importance",
		"heuristic_quality",
		"calibrated_importance",
		"calibrated_quality",
		"model_version",
	}
	var calImp, calQual, version string
	if bd.Calibrated != nil {
		calImp = fmtFloat(bd.Calibrated.Importance)
		calQual = fmtFloat(bd.Calibrated.Quality)
		version = strconv.Itoa(bd.CalibratedVersion)
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		return cw.Write([]string{
			bd.Text,
			strings.Join(bd.Tokens, "|"),
			fmtFloat(bd.RawImportance),
			fmtFloat(bd.RawQuality),
			string(bd.Sentiment.Label),
			fmtFloat(bd.Sentiment.Confidence),
			formatOptional(bd.WebsiteRating, fmtFloat),
			fmtFloat(bd.Heuristic.Importance),
			fmtFloat(bd.Heuristic.Quality),
			calImp,
			calQual,
			version,
		})
	})
}
