package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	dto "github.com/prometheus/client_model/go"
	"github.com/spf13/cobra"

	"github.com/roach88/drillstore/internal/config"
	"github.com/roach88/drillstore/internal/drill"
	"github.com/roach88/drillstore/internal/engine"
	"github.com/roach88/drillstore/internal/store"
)

// document is one open drill database with its engine and service.
type document struct {
	cfg     config.Config
	store   *store.Store
	engine  *engine.Engine
	service *drill.Service
	logger  *slog.Logger

	metricsTo io.Writer
}

// openDocument resolves settings (flags over file over defaults), opens
// the database and applies the configured history limit.
func openDocument(ctx context.Context, opts *RootOptions, cmd *cobra.Command) (*document, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.Database != "" {
		cfg.Database.Path = opts.Database
	}

	level := cfg.SlogLevel()
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	logger.Debug("opening database", "path", cfg.Database.Path)
	st, err := store.Open(cfg.Database.Path, store.WithBusyTimeout(cfg.Database.BusyTimeoutMS))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	eng := engine.New(st, engine.WithLogger(logger))
	doc := &document{
		cfg:     cfg,
		store:   st,
		engine:  eng,
		service: drill.New(eng, drill.WithDefaultPlacement(cfg.Defaults.X, cfg.Defaults.Y)),
		logger:  logger,
	}
	if opts.Metrics {
		doc.metricsTo = cmd.ErrOrStderr()
	}

	stats, err := eng.History(ctx)
	if err != nil {
		doc.Close()
		return nil, WrapExitError(ExitCommandError, "failed to read history", err)
	}
	if stats.GroupLimit != cfg.History.GroupLimit {
		if err := eng.SetGroupLimit(ctx, cfg.History.GroupLimit); err != nil {
			doc.Close()
			return nil, WrapExitError(ExitCommandError, "failed to apply group limit", err)
		}
		logger.Debug("group limit applied", "limit", cfg.History.GroupLimit)
	}
	return doc, nil
}

// Close prints metrics when asked to and closes the database.
func (d *document) Close() {
	if d.metricsTo != nil {
		if err := writeMetrics(d.metricsTo, d.engine); err != nil {
			d.logger.Error("error writing metrics", "error", err)
		}
	}
	if err := d.store.Close(); err != nil {
		d.logger.Error("error closing database", "error", err)
	}
}

// writeMetrics prints every sample of the engine registry, one per line.
func writeMetrics(w io.Writer, eng *engine.Engine) error {
	families, err := eng.Registry().Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			fmt.Fprintf(w, "%s%s %s\n", mf.GetName(), formatLabels(m.GetLabel()), formatSample(mf.GetType(), m))
		}
	}
	return nil
}

func formatLabels(pairs []*dto.LabelPair) string {
	if len(pairs) == 0 {
		return ""
	}
	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = fmt.Sprintf("%s=%q", p.GetName(), p.GetValue())
	}
	sort.Strings(parts)
	return "{" + strings.Join(parts, ",") + "}"
}

func formatSample(kind dto.MetricType, m *dto.Metric) string {
	switch kind {
	case dto.MetricType_COUNTER:
		return fmt.Sprint(m.GetCounter().GetValue())
	case dto.MetricType_GAUGE:
		return fmt.Sprint(m.GetGauge().GetValue())
	case dto.MetricType_HISTOGRAM:
		h := m.GetHistogram()
		return fmt.Sprintf("count=%d sum=%g", h.GetSampleCount(), h.GetSampleSum())
	default:
		return kind.String()
	}
}
