package discovery

import (
	"context"
	"time"

	"codeberg.org/mutker/rnboctl/internal/errors"
	"codeberg.org/mutker/rnboctl/internal/logger"
	"codeberg.org/mutker/rnboctl/internal/oscquery"
)

// Controller runs the search for the output path.
type Controller struct {
	fetcher    oscquery.Fetcher
	feedback   Feedback
	cfg        Config
	candidates []string
	logger     logger.Logger
	onState    func(State)
	onAttempt  func()
}

type Option func(*Controller)

// WithStateHook registers fn to be called on every state transition.
func WithStateHook(fn func(State)) Option {
	return func(c *Controller) {
		c.onState = fn
	}
}

// WithAttemptHook registers fn to be called once per fetch attempt.
func WithAttemptHook(fn func()) Option {
	return func(c *Controller) {
		c.onAttempt = fn
	}
}

func NewController(fetcher oscquery.Fetcher, feedback Feedback, cfg Config, log logger.Logger, opts ...Option) *Controller {
	c := &Controller{
		fetcher:    fetcher,
		feedback:   feedback,
		cfg:        cfg,
		candidates: cfg.Candidates(),
		logger:     log,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Run searches until the path resolves, the configured timeout elapses, or
// ctx is cancelled. A timeout returns ErrTimeout; cancellation returns the
// context error.
func (c *Controller) Run(ctx context.Context) (Result, error) {
	errFactory := errors.New()

	searchCtx := ctx
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		searchCtx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	c.transition(Searching)
	c.logger.Info().
		Strs("candidates", c.candidates).
		Str("suffix", c.cfg.Suffix).
		Dur("timeout", c.cfg.Timeout).
		Msg("Searching for RNBO output path")

	for attempt := 0; ; attempt++ {
		if searchCtx.Err() != nil {
			return c.stop(ctx, attempt, errFactory)
		}

		if path, ok := c.attempt(searchCtx); ok {
			c.indicatorsOff()
			c.transition(Resolved)
			c.logger.Info().Str("path", path).Int("attempts", attempt+1).Msg("Resolved RNBO output path")

			return Result{State: Resolved, Path: path, Attempts: attempt + 1}, nil
		}

		if err := c.feedback.SetIndicators(feedbackLevel(attempt)); err != nil {
			c.logger.Debug().Err(err).Msg("Failed to drive discovery feedback")
		}

		select {
		case <-searchCtx.Done():
			return c.stop(ctx, attempt+1, errFactory)
		case <-time.After(c.cfg.BlinkPeriod):
		}
	}
}

// attempt performs one fetch and looks for the output path in it.
func (c *Controller) attempt(ctx context.Context) (string, bool) {
	if c.onAttempt != nil {
		c.onAttempt()
	}

	root, err := c.fetcher.Fetch(ctx)
	if err != nil {
		c.logger.Debug().Err(err).Msg("Tree not available yet")
		return "", false
	}

	return c.locate(root)
}

func (c *Controller) locate(root *oscquery.Node) (string, bool) {
	if len(c.candidates) > 0 {
		path, _, ok := oscquery.Probe(root, c.candidates)
		return path, ok
	}

	n := oscquery.Find(root, oscquery.Suffix(c.cfg.Suffix))
	if n == nil || !n.Value.Present() {
		return "", false
	}

	return n.Path, true
}

func (c *Controller) stop(parent context.Context, attempts int, errFactory errors.Factory) (Result, error) {
	if err := parent.Err(); err != nil {
		return Result{State: Searching, Attempts: attempts}, err
	}

	c.indicatorsOff()
	c.transition(TimedOut)

	err := errFactory.WithData(ErrTimeout, c.cfg.Timeout.String())
	c.logger.ErrorWithCode(err).Int("attempts", attempts).Msg("Discovery timed out")

	return Result{State: TimedOut, Attempts: attempts}, err
}

func (c *Controller) indicatorsOff() {
	if err := c.feedback.IndicatorsOff(); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to switch indicators off")
	}
}

func (c *Controller) transition(s State) {
	if c.onState != nil {
		c.onState(s)
	}
}

// feedbackLevel is the indicator level shown after the given attempt:
// full on even attempts, off on odd ones.
func feedbackLevel(attempt int) float64 {
	if attempt%2 == 0 {
		return 1
	}

	return 0
}
