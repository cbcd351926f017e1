package control

import (
	"context"
	"time"

	"codeberg.org/mutker/rnboctl/internal/errors"
	"codeberg.org/mutker/rnboctl/internal/logger"
	"codeberg.org/mutker/rnboctl/internal/oscquery"
)

const DefaultInterval = time.Second

type Config struct {
	Interval     time.Duration `mapstructure:"interval"`
	StartupDelay time.Duration
}

// Loop polls the resolved path and actuates on every usable value.
type Loop struct {
	fetcher    oscquery.Fetcher
	discoverer Discoverer
	actuator   Actuator
	cfg        Config
	observers  []CycleObserver
	logger     logger.Logger
	now        func() time.Time
}

type Option func(*Loop)

// WithObserver adds a cycle observer. Observers run synchronously on the
// loop goroutine and must not block.
func WithObserver(o CycleObserver) Option {
	return func(l *Loop) {
		l.observers = append(l.observers, o)
	}
}

func NewLoop(fetcher oscquery.Fetcher, discoverer Discoverer, act Actuator, cfg Config, log logger.Logger, opts ...Option) *Loop {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}

	l := &Loop{
		fetcher:    fetcher,
		discoverer: discoverer,
		actuator:   act,
		cfg:        cfg,
		logger:     log,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Run blocks until ctx is cancelled or discovery fails fatally. The
// actuator is released to neutral before Run returns, on every path.
// Cancellation is a clean exit and returns nil.
func (l *Loop) Run(ctx context.Context) (err error) {
	defer func() {
		if rerr := l.actuator.Release(); rerr != nil {
			l.logger.Error().Err(rerr).Msg("Failed to release actuator")
			if err == nil {
				err = rerr
			}
		}
	}()

	if l.cfg.StartupDelay > 0 {
		l.logger.Info().Dur("delay", l.cfg.StartupDelay).Msg("Waiting for RNBO to start")
		if !sleep(ctx, l.cfg.StartupDelay) {
			return nil
		}
	}

	res, err := l.discoverer.Run(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	l.logger.Info().
		Str("path", res.Path).
		Dur("interval", l.cfg.Interval).
		Msg("Polling RNBO output")

	for ctx.Err() == nil {
		if result, ok := l.cycle(ctx, res.Path); ok {
			for _, o := range l.observers {
				o.ObserveCycle(result)
			}
		}

		if !sleep(ctx, l.cfg.Interval) {
			break
		}
	}

	l.logger.Info().Msg("Control loop stopped")

	return nil
}

// cycle runs one fetch-locate-extract-actuate pass. The second result is
// false when ctx was cancelled mid-cycle and nothing should be recorded.
func (l *Loop) cycle(ctx context.Context, path string) (CycleResult, bool) {
	result := CycleResult{Time: l.now(), Path: path}

	root, err := l.fetcher.Fetch(ctx)
	if ctx.Err() != nil {
		return result, false
	}
	if err != nil {
		return l.skip(result, err), true
	}

	var value oscquery.Value
	if n := oscquery.Find(root, oscquery.Exact(path)); n != nil {
		value = n.Value
	}
	result.Raw = value.String()

	percent, err := oscquery.Extract(value)
	if err != nil {
		return l.skip(result, err), true
	}
	result.Percent = percent

	ratio, err := l.actuator.Actuate(percent)
	if err != nil {
		return l.skip(result, err), true
	}

	result.Outcome = Actuated
	result.Ratio = ratio
	l.logger.Debug().
		Float64("percent", percent).
		Float64("ratio", ratio).
		Msg("Motor and indicators set")

	return result, true
}

func (l *Loop) skip(result CycleResult, err error) CycleResult {
	result.Outcome = Skipped
	result.Reason = errors.CodeOf(err)
	if result.Reason == "" {
		result.Reason = errors.ErrInternal
	}

	l.logger.Warn().
		Str("reason", string(result.Reason)).
		Str("raw", result.Raw).
		Err(err).
		Msg("Skipping cycle")

	return result
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
