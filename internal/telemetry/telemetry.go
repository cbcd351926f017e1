package telemetry

import (
	"context"

	"codeberg.org/mutker/rnboctl/internal/control"
	"codeberg.org/mutker/rnboctl/internal/errors"
	"codeberg.org/mutker/rnboctl/internal/logger"
)

type service struct {
	repo   Repository
	logger logger.Logger
}

// No-op implementation
type noopCollector struct{}

func NewService(cfg Config, log logger.Logger) (Collector, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}

	if !cfg.Enabled {
		log.Debug().Msg("Telemetry disabled, using no-op collector")
		return &noopCollector{}, nil
	}

	repo, err := NewRepository(cfg, log)
	if err != nil {
		return nil, err
	}

	return &service{repo: repo, logger: log}, nil
}

func (s *service) Record(ctx context.Context, record *CycleRecord) error {
	errFactory := errors.New()

	if record == nil {
		return errFactory.New(ErrInvalidRecord)
	}

	select {
	case <-ctx.Done():
		return errFactory.Wrap(ErrOperationTimeout, ctx.Err())
	default:
		if err := s.repo.Record(record); err != nil {
			return errFactory.Wrap(ErrCollection, err)
		}
	}

	return nil
}

func (s *service) Close() error {
	errFactory := errors.New()

	if err := s.repo.Close(); err != nil {
		return errFactory.Wrap(ErrStorageClose, err)
	}

	return nil
}

func (*noopCollector) Record(_ context.Context, _ *CycleRecord) error {
	return nil
}

func (*noopCollector) Close() error {
	return nil
}

// Observer adapts a Collector to the control loop. Storage failures are
// logged and never reach the loop.
type Observer struct {
	collector Collector
	logger    logger.Logger
}

func NewObserver(c Collector, log logger.Logger) *Observer {
	return &Observer{collector: c, logger: log}
}

func (o *Observer) ObserveCycle(r control.CycleResult) {
	record := &CycleRecord{
		Timestamp: r.Time,
		Path:      r.Path,
		Outcome:   r.Outcome.String(),
		Reason:    string(r.Reason),
		Raw:       r.Raw,
		Percent:   r.Percent,
		Ratio:     r.Ratio,
	}

	if err := o.collector.Record(context.Background(), record); err != nil {
		o.logger.Warn().Err(err).Msg("Failed to record cycle")
	}
}
