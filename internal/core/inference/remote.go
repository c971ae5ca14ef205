package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"sentimentd/internal/core/vocab"
	perr "sentimentd/internal/platform/errors"
	"sentimentd/internal/platform/logger"
	"sentimentd/internal/platform/metrics"

	"github.com/sony/gobreaker"
)

// BreakerConfig tunes the remote engine's circuit breaker; zero values pick defaults
type BreakerConfig struct {
	// MinRequests is how many calls the window needs before it may trip, default 5
	MinRequests uint32
	// FailureRatio trips the breaker at or above this share of failures, default 0.6
	FailureRatio float64
	// Interval resets the closed state counters, default 60s
	Interval time.Duration
	// OpenFor is how long the breaker stays open before probing, default 30s
	OpenFor time.Duration
	// HalfOpenProbes is how many calls half open admits, default 1
	HalfOpenProbes uint32
}

// RemoteConfig configures a REST predictor client
type RemoteConfig struct {
	// URL is the server root, e.g. http://tfserving:8501
	URL string
	// Model is the served model name
	Model string
	// Timeout bounds each predict call, default 5s
	Timeout time.Duration
	// Width and Outputs describe the served model; the server does not report them
	Width   int
	Outputs int
	Breaker BreakerConfig
	// Client overrides the http client, mostly for tests
	Client *http.Client
}

// Remote posts batches to {URL}/v1/models/{Model}:predict
type Remote struct {
	width, outputs int
	predictURL     string
	statusURL      string
	client         *http.Client
	cb             *gobreaker.CircuitBreaker
}

type predictRequest struct {
	Instances []vocab.Sequence `json:"instances"`
}

type predictResponse struct {
	Predictions []json.RawMessage `json:"predictions"`
	Error       string            `json:"error"`
}

// NewRemote validates cfg and builds the client; it does not dial
func NewRemote(cfg RemoteConfig) (*Remote, error) {
	u, err := url.Parse(strings.TrimRight(cfg.URL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, perr.Configurationf("model url %q must be absolute", cfg.URL)
	}
	if cfg.Model == "" {
		return nil, perr.Configurationf("model name is required for a remote engine")
	}
	if cfg.Width <= 0 || cfg.Outputs <= 0 {
		return nil, perr.Configurationf("remote engine needs positive width and outputs, got %d and %d", cfg.Width, cfg.Outputs)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	base := u.String() + "/v1/models/" + url.PathEscape(cfg.Model)
	return &Remote{
		width:      cfg.Width,
		outputs:    cfg.Outputs,
		predictURL: base + ":predict",
		statusURL:  base,
		client:     client,
		cb:         newBreaker("inference-"+cfg.Model, cfg.Breaker),
	}, nil
}

func newBreaker(name string, c BreakerConfig) *gobreaker.CircuitBreaker {
	if c.MinRequests == 0 {
		c.MinRequests = 5
	}
	if c.FailureRatio <= 0 {
		c.FailureRatio = 0.6
	}
	if c.Interval <= 0 {
		c.Interval = 60 * time.Second
	}
	if c.OpenFor <= 0 {
		c.OpenFor = 30 * time.Second
	}
	if c.HalfOpenProbes == 0 {
		c.HalfOpenProbes = 1
	}
	log := logger.Named("inference")
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: c.HalfOpenProbes,
		Interval:    c.Interval,
		Timeout:     c.OpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= c.MinRequests &&
				float64(counts.TotalFailures)/float64(counts.Requests) >= c.FailureRatio
		},
		// a caller giving up says nothing about the server
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
			metrics.CircuitBreakerStateChanges.WithLabelValues(name, to.String()).Inc()
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	}
	return -1
}

// Width implements Engine
func (r *Remote) Width() int { return r.width }

// Outputs implements Engine
func (r *Remote) Outputs() int { return r.outputs }

// Kind implements Engine
func (r *Remote) Kind() Kind { return KindRemote }

// State reports the breaker state
func (r *Remote) State() gobreaker.State { return r.cb.State() }

// ScoreBatch implements Engine; an open breaker fails fast without a request
func (r *Remote) ScoreBatch(ctx context.Context, batch []vocab.Sequence) (Scores, error) {
	if err := checkBatch(batch, r.width); err != nil {
		return nil, err
	}
	body, err := json.Marshal(predictRequest{Instances: batch})
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeInference, "encode predict request")
	}

	out, err := r.cb.Execute(func() (any, error) { return r.predict(ctx, body) })
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, perr.Wrap(err, perr.ErrorCodeInference, "model server circuit open")
		}
		return nil, err
	}
	return out.(Scores), nil
}

func (r *Remote) predict(ctx context.Context, body []byte) (Scores, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.predictURL, bytes.NewReader(body))
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeInference, "build predict request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeInference, "send predict request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, perr.Inferencef("model server returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var pr predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeInference, "decode predict response")
	}
	if pr.Error != "" {
		return nil, perr.Inferencef("model server: %s", pr.Error)
	}

	out := make(Scores, len(pr.Predictions))
	for i, raw := range pr.Predictions {
		row, err := decodeRow(raw)
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeInference, "prediction %d", i)
		}
		out[i] = row
	}
	return out, nil
}

// decodeRow accepts both [p, q] and a bare p for single output models
func decodeRow(raw json.RawMessage) ([]float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var row []float64
		err := json.Unmarshal(raw, &row)
		return row, err
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("not a number or list: %s", raw)
	}
	return []float64{v}, nil
}

// Ping asks the server for the model status
func (r *Remote) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.statusURL, http.NoBody)
	if err != nil {
		return err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("model server not ready: status %d", resp.StatusCode)
	}
	return nil
}
