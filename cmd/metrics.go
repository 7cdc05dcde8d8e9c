package cmd

import (
	"github.com/huangsam/revscore/core"
	"github.com/huangsam/revscore/internal/contract"
	"github.com/prometheus/client_golang/prometheus"
)

// writeMetricsFile dumps the run metrics in the node_exporter textfile format.
// It does nothing when no metrics file is configured.
func writeMetricsFile(path string, m *core.Metrics) error {
	if path == "" || m == nil {
		return nil
	}
	reg := prometheus.NewRegistry()
	if err := m.Register(reg); err != nil {
		return err
	}
	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return err
	}
	logger.Debug("Metrics written", "path", path)
	return nil
}

// flushMetrics writes the metrics file and warns on failure.
func flushMetrics() {
	if err := writeMetricsFile(cfg.MetricsFile, metrics); err != nil {
		contract.LogWarn("Cannot write metrics file", err)
	}
}
