package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"github.com/couchcryptid/gssha-etl/internal/domain"
	"github.com/couchcryptid/gssha-etl/internal/gssha"
	"github.com/couchcryptid/gssha-etl/internal/observability"
)

// Converter implements Transformer using the domain conversion. Pass a nil
// params set when no replacement parameter file is configured; gridColumns
// may be zero when no gridded dataset files are expected.
type Converter struct {
	opts    domain.ConvertOptions
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewConverter creates a Converter.
func NewConverter(params *gssha.ReplaceParams, gridColumns int, logger *slog.Logger, metrics *observability.Metrics) *Converter {
	return &Converter{
		opts:    domain.ConvertOptions{Params: params, GridColumns: gridColumns},
		logger:  logger,
		metrics: metrics,
	}
}

func (c *Converter) Transform(ctx context.Context, file domain.ModelFile) (domain.ConvertedFile, error) {
	doc, err := domain.Convert(file, c.opts)
	if err != nil {
		return domain.ConvertedFile{}, err
	}

	c.metrics.FilesByKind.WithLabelValues(string(doc.Kind)).Inc()
	for _, d := range doc.Diagnostics {
		level, _, _ := strings.Cut(d, ":")
		c.metrics.Diagnostics.WithLabelValues(level).Inc()
		c.logger.Debug("parse diagnostic", "path", file.Path, "finding", d)
	}
	if !doc.Stable {
		c.metrics.RoundTripFailures.Inc()
		c.logger.Warn("canonical output is not self-reproducing", "path", file.Path, "kind", doc.Kind)
	}

	return doc, nil
}
