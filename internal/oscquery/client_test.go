package oscquery_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"codeberg.org/mutker/rnboctl/internal/errors"
	"codeberg.org/mutker/rnboctl/internal/oscquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(rnboTree))
	}))
	defer srv.Close()

	var observed []error
	client := oscquery.NewClient(srv.URL, oscquery.WithFetchObserver(func(_ time.Duration, err error) {
		observed = append(observed, err)
	}))

	root, err := client.Fetch(context.Background())
	require.NoError(t, err)

	path, _, ok := oscquery.Probe(root, oscquery.Candidates("/rnbo/inst/%d/messages/out/output1", 2))
	require.True(t, ok)
	assert.Equal(t, "/rnbo/inst/1/messages/out/output1", path)
	assert.Equal(t, []error{nil}, observed)
}

func TestClientFetchFailures(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		wantCode errors.ErrorCode
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			},
			wantCode: errors.ErrUnreachable,
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"FULL_PATH":`))
			},
			wantCode: errors.ErrMalformed,
		},
		{
			name: "slow server",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
			},
			wantCode: errors.ErrUnreachable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			client := oscquery.NewClient(srv.URL, oscquery.WithTimeout(50*time.Millisecond))
			root, err := client.Fetch(context.Background())
			require.Error(t, err)
			assert.Nil(t, root)
			assert.True(t, errors.HasCode(err, tt.wantCode), "got %v", err)
		})
	}
}

func TestClientFetchConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.Listener.Addr().String()
	srv.Close()

	client := oscquery.NewClient(addr, oscquery.WithTimeout(200*time.Millisecond))
	_, err := client.Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrUnreachable))
}

func TestBaseURL(t *testing.T) {
	assert.Equal(t, "http://192.168.1.20:5678", oscquery.BaseURL("192.168.1.20:5678"))
	assert.Equal(t, "http://localhost:1234/", oscquery.BaseURL("http://localhost:1234/"))
	assert.Equal(t, "http://10.0.0.1:5678", oscquery.NewClient("10.0.0.1:5678").URL())
}
