package discovery

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"codeberg.org/mutker/rnboctl/internal/errors"
	"codeberg.org/mutker/rnboctl/internal/logger"
	"codeberg.org/mutker/rnboctl/internal/oscquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) Fetch(ctx context.Context) (*oscquery.Node, error) {
	args := m.Called()
	node, _ := args.Get(0).(*oscquery.Node)
	return node, args.Error(1)
}

type recordingFeedback struct {
	mu     sync.Mutex
	levels []float64
	offs   int
}

func (r *recordingFeedback) SetIndicators(ratio float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.levels = append(r.levels, ratio)
	return nil
}

func (r *recordingFeedback) IndicatorsOff() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.offs++
	return nil
}

const instOneOnly = `{
	"FULL_PATH": "/",
	"CONTENTS": {
		"rnbo": {"FULL_PATH": "/rnbo", "CONTENTS": {
			"inst": {"FULL_PATH": "/rnbo/inst", "CONTENTS": {
				"1": {"FULL_PATH": "/rnbo/inst/1", "CONTENTS": {
					"messages": {"FULL_PATH": "/rnbo/inst/1/messages", "CONTENTS": {
						"out": {"FULL_PATH": "/rnbo/inst/1/messages/out", "CONTENTS": {
							"output1": {"FULL_PATH": "/rnbo/inst/1/messages/out/output1", "VALUE": [55]}
						}}
					}}
				}}
			}}
		}}
	}
}`

const bothInstances = `{
	"FULL_PATH": "/",
	"CONTENTS": {
		"rnbo": {"FULL_PATH": "/rnbo", "CONTENTS": {
			"inst": {"FULL_PATH": "/rnbo/inst", "CONTENTS": {
				"1": {"FULL_PATH": "/rnbo/inst/1", "CONTENTS": {
					"messages": {"FULL_PATH": "/rnbo/inst/1/messages", "CONTENTS": {
						"out": {"FULL_PATH": "/rnbo/inst/1/messages/out", "CONTENTS": {
							"output1": {"FULL_PATH": "/rnbo/inst/1/messages/out/output1", "VALUE": [55]}
						}}
					}}
				}},
				"0": {"FULL_PATH": "/rnbo/inst/0", "CONTENTS": {
					"messages": {"FULL_PATH": "/rnbo/inst/0/messages", "CONTENTS": {
						"out": {"FULL_PATH": "/rnbo/inst/0/messages/out", "CONTENTS": {
							"output1": {"FULL_PATH": "/rnbo/inst/0/messages/out/output1", "value": [12]}
						}}
					}}
				}}
			}}
		}}
	}
}`

func mustParse(t *testing.T, doc string) *oscquery.Node {
	t.Helper()

	root, err := oscquery.Parse([]byte(doc))
	require.NoError(t, err)

	return root
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.BlinkPeriod = time.Millisecond
	cfg.StartupDelay = 0

	return cfg
}

func TestRunResolvesLowestCandidate(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"only index 1", instOneOnly, "/rnbo/inst/1/messages/out/output1"},
		{"both present", bothInstances, "/rnbo/inst/0/messages/out/output1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := &MockFetcher{}
			fetcher.On("Fetch").Return(mustParse(t, tt.doc), nil)
			feedback := &recordingFeedback{}

			ctrl := NewController(fetcher, feedback, testConfig(), logger.Nop())
			res, err := ctrl.Run(context.Background())

			require.NoError(t, err)
			assert.Equal(t, Resolved, res.State)
			assert.Equal(t, tt.want, res.Path)
			assert.Equal(t, 1, res.Attempts)
			assert.Equal(t, 1, feedback.offs)
		})
	}
}

func TestRunSuffixFallback(t *testing.T) {
	cfg := testConfig()
	cfg.Template = ""

	fetcher := &MockFetcher{}
	fetcher.On("Fetch").Return(mustParse(t, bothInstances), nil)

	res, err := NewController(fetcher, &recordingFeedback{}, cfg, logger.Nop()).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "/rnbo/inst/1/messages/out/output1", res.Path, "document order wins for suffix search")
}

func TestRunRetriesUntilTreeAppears(t *testing.T) {
	fetcher := &MockFetcher{}
	fetcher.On("Fetch").Return(nil, stderrors.New("connection refused")).Twice()
	fetcher.On("Fetch").Return(mustParse(t, `{"FULL_PATH": "/"}`), nil).Once()
	fetcher.On("Fetch").Return(mustParse(t, instOneOnly), nil)

	feedback := &recordingFeedback{}
	var states []State
	attempts := 0

	ctrl := NewController(fetcher, feedback, testConfig(), logger.Nop(),
		WithStateHook(func(s State) { states = append(states, s) }),
		WithAttemptHook(func() { attempts++ }),
	)
	res, err := ctrl.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 4, res.Attempts)
	assert.Equal(t, 4, attempts)
	assert.Equal(t, []float64{1, 0, 1}, feedback.levels)
	assert.Equal(t, 1, feedback.offs)
	assert.Equal(t, []State{Searching, Resolved}, states)
	fetcher.AssertNumberOfCalls(t, "Fetch", 4)
}

func TestRunTimesOut(t *testing.T) {
	cfg := testConfig()
	cfg.Timeout = 20 * time.Millisecond

	fetcher := &MockFetcher{}
	fetcher.On("Fetch").Return(nil, stderrors.New("connection refused"))
	feedback := &recordingFeedback{}

	res, err := NewController(fetcher, feedback, cfg, logger.Nop()).Run(context.Background())

	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrTimeout))
	assert.Equal(t, TimedOut, res.State)
	assert.Equal(t, 1, feedback.offs)
	assert.Positive(t, res.Attempts)
}

func TestRunCancelledIsNotTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.Timeout = time.Hour

	fetcher := &MockFetcher{}
	fetcher.On("Fetch").Return(nil, stderrors.New("connection refused"))

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	res, err := NewController(fetcher, &recordingFeedback{}, cfg, logger.Nop()).Run(ctx)

	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.HasCode(err, ErrTimeout))
	assert.Equal(t, Searching, res.State)
}

func TestFeedbackLevel(t *testing.T) {
	for attempt := range 6 {
		want := 1.0
		if attempt%2 == 1 {
			want = 0
		}
		assert.InDelta(t, want, feedbackLevel(attempt), 0, "attempt %d", attempt)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"default", func(*Config) {}, true},
		{"suffix only", func(c *Config) { c.Template = "" }, true},
		{"no verb", func(c *Config) { c.Template = "/rnbo/inst/0/out" }, false},
		{"no instances", func(c *Config) { c.Instances = 0 }, false},
		{"nothing to match", func(c *Config) { c.Template, c.Suffix = "", "" }, false},
		{"negative timeout", func(c *Config) { c.Timeout = -time.Second }, false},
		{"zero blink", func(c *Config) { c.BlinkPeriod = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if tt.ok {
				assert.NoError(t, cfg.Validate())
			} else {
				assert.True(t, errors.HasCode(cfg.Validate(), ErrInvalidConfig))
			}
		})
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "searching", Searching.String())
	assert.Equal(t, "resolved", Resolved.String())
	assert.Equal(t, "timed_out", TimedOut.String())
}
