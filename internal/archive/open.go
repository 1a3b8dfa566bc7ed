package archive

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/cardclash/battle-sim/internal/config"
)

// Opened is an archive built from configuration. Source is the first
// readable sink, or nil when none is configured.
type Opened struct {
	*Archive
	Source Source
	closers []func() error
}

// Close releases database pools and storage clients.
func (o *Opened) Close() error {
	var errs error
	for i := len(o.closers) - 1; i >= 0; i-- {
		errs = multierr.Append(errs, o.closers[i]())
	}
	return errs
}

// Open builds the sinks enabled in cfg: a directory, PostgreSQL and a GCS
// bucket, in that order.
func Open(ctx context.Context, cfg config.ArchiveConfig, logger *zap.Logger) (*Opened, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var (
		sinks []Sink
		o     = &Opened{}
	)
	add := func(s Store) {
		sinks = append(sinks, s)
		if o.Source == nil {
			o.Source = s
		}
		logger.Info("archive sink enabled", zap.String("sink", s.Name()))
	}

	if cfg.Dir != "" {
		add(NewFileSink(cfg.Dir, cfg.Gzip))
	}
	if cfg.PostgresDSN != "" {
		sink, pool, err := NewPostgresSink(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, multierr.Append(fmt.Errorf("postgres sink: %w", err), o.Close())
		}
		o.closers = append(o.closers, func() error { pool.Close(); return nil })
		add(sink)
	}
	if cfg.GCSBucket != "" {
		sink, err := NewGCSSink(ctx, cfg.GCSBucket, cfg.GCSPrefix)
		if err != nil {
			return nil, multierr.Append(fmt.Errorf("gcs sink: %w", err), o.Close())
		}
		o.closers = append(o.closers, sink.Close)
		add(sink)
	}

	o.Archive = New(logger, sinks...)
	return o, nil
}
