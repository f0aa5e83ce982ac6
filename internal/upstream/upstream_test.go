package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digitrend/internal/errs"
)

func TestClientFetch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"rates": {"AI Engineer Jobs": 45, "IoT Workshops": 10.5}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, zerolog.Nop())
	rates, err := client.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"AI Engineer Jobs": 45, "IoT Workshops": 10.5}, rates)
}

func TestClientFetch_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		payload string
	}{
		{"server error", http.StatusInternalServerError, `{}`},
		{"malformed body", http.StatusOK, `{"rates": [`},
		{"no rates", http.StatusOK, `{"rates": {}}`},
		{"rate below floor", http.StatusOK, `{"rates": {"x": -150}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.payload))
			}))
			defer server.Close()

			_, err := NewClient(server.URL, time.Second, zerolog.Nop()).Fetch(context.Background())
			assert.ErrorIs(t, err, errs.ErrUpstream)
		})
	}
}

func TestClientFetch_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := NewClient(url, 200*time.Millisecond, zerolog.Nop()).Fetch(context.Background())
	assert.ErrorIs(t, err, errs.ErrUpstream)
}

type stubFetcher struct {
	rates map[string]float64
	err   error
	calls atomic.Int32
}

func (s *stubFetcher) Fetch(context.Context) (map[string]float64, error) {
	s.calls.Add(1)
	return s.rates, s.err
}

func TestProvider_KeepsLastGoodSet(t *testing.T) {
	stub := &stubFetcher{rates: map[string]float64{"Fintech Startups": 35}}
	p := NewProvider(stub, time.Second, zerolog.Nop())
	assert.True(t, p.Enabled())
	assert.Empty(t, p.Overrides())
	assert.True(t, p.UpdatedAt().IsZero())

	require.NoError(t, p.Refresh(context.Background()))
	assert.Equal(t, map[string]float64{"Fintech Startups": 35}, p.Overrides())
	assert.False(t, p.UpdatedAt().IsZero())

	stub.rates = nil
	stub.err = errors.New("source down")
	assert.Error(t, p.Run())
	assert.Equal(t, map[string]float64{"Fintech Startups": 35}, p.Overrides())
	assert.Equal(t, int32(2), stub.calls.Load())
}

func TestProvider_OverridesAreCopies(t *testing.T) {
	p := NewProvider(&stubFetcher{rates: map[string]float64{"a": 1}}, 0, zerolog.Nop())
	require.NoError(t, p.Refresh(context.Background()))

	got := p.Overrides()
	got["a"] = 99
	assert.Equal(t, 1.0, p.Overrides()["a"])
}

func TestProvider_Disabled(t *testing.T) {
	p := NewProvider(nil, time.Second, zerolog.Nop())
	assert.False(t, p.Enabled())
	assert.NoError(t, p.Refresh(context.Background()))
	assert.Empty(t, p.Overrides())
	assert.Equal(t, "upstream_refresh", p.Name())
}

func TestScheduler_AddJob(t *testing.T) {
	s := NewScheduler(zerolog.Nop())
	p := NewProvider(nil, 0, zerolog.Nop())

	require.NoError(t, s.AddJob("@every 1h", p))
	assert.Equal(t, 1, s.Entries())
	assert.Error(t, s.AddJob("not a schedule", p))

	s.Start()
	s.Stop()
}

type countingJob struct {
	ran chan struct{}
}

func (j *countingJob) Name() string { return "counting" }

func (j *countingJob) Run() error {
	select {
	case j.ran <- struct{}{}:
	default:
	}
	return errors.New("still failing")
}

func TestScheduler_RunsJobAndSurvivesFailure(t *testing.T) {
	s := NewScheduler(zerolog.Nop())
	job := &countingJob{ran: make(chan struct{}, 1)}
	require.NoError(t, s.AddJob("@every 1s", job))

	s.Start()
	defer s.Stop()

	for range 2 {
		select {
		case <-job.ran:
		case <-time.After(5 * time.Second):
			t.Fatal("job did not run")
		}
	}
}
