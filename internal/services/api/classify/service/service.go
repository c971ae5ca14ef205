// Package service contains the classify workflow around the core pipeline
package service

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"sentimentd/internal/core/decision"
	perr "sentimentd/internal/platform/errors"
	"sentimentd/internal/platform/logger"
	"sentimentd/internal/platform/metrics"
	pnet "sentimentd/internal/platform/net"
	"sentimentd/internal/services/api/classify/domain"
	"sentimentd/internal/services/api/classify/repo"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// Service defines the service contract for classify
type Service interface{ domain.ServicePort }

// Classifier is the core pipeline seam
type Classifier interface {
	Classify(ctx context.Context, texts []string) ([]decision.ScoredLabel, error)
}

// Options tunes request limits
type Options struct {
	// MaxItems caps texts per request; 0 means no cap
	MaxItems int
	// Timeout bounds one classify call including admission; 0 means none
	Timeout time.Duration
	// HistoryTimeout bounds the history write after classification, default 2s
	HistoryTimeout time.Duration
	Model          domain.ModelInfo
}

// Svc implements the Service interface
type Svc struct {
	pipe    Classifier
	history repo.History
	opt     Options
	log     *logger.Logger

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy

	now func() time.Time
}

// New creates a classify service; history may be repo.Off()
func New(pipe Classifier, history repo.History, opt Options) *Svc {
	if pipe == nil {
		panic("classify.Service requires a non nil Classifier")
	}
	if history == nil {
		history = repo.Off()
	}
	if opt.HistoryTimeout <= 0 {
		opt.HistoryTimeout = 2 * time.Second
	}
	opt.Model.History = history.Backend()
	return &Svc{
		pipe:    pipe,
		history: history,
		opt:     opt,
		log:     logger.Named("classify"),
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
	}
}

// Classify labels every text and records the batch in history
func (s *Svc) Classify(ctx context.Context, in domain.ClassifyInput) (domain.ClassifyOutput, error) {
	start := s.now()
	batchID := s.newBatchID(start)
	ctx = pnet.WithBatch(pnet.WithUser(ctx, in.UserID), batchID)

	labels, err := s.classify(ctx, in.Texts)

	elapsed := s.now().Sub(start)
	metrics.ClassifyRequestsTotal.WithLabelValues(metrics.Outcome(err)).Inc()
	metrics.ClassifyDuration.Observe(elapsed.Seconds())
	metrics.ClassifyBatchSize.Observe(float64(len(in.Texts)))

	log := logger.C(logger.WithRequest(ctx, "", in.UserID))
	ev := log.Info()
	if err != nil {
		ev = log.Warn().Err(err).Str("code", perr.CodeOf(err).String())
	}
	ev.Str("batch_id", batchID).
		Int("items", len(in.Texts)).
		Dur("duration", elapsed).
		Msg("classify")

	if err != nil {
		return domain.ClassifyOutput{}, err
	}

	out := domain.ClassifyOutput{BatchID: batchID, Outputs: make([]domain.Output, len(labels))}
	recs := make([]repo.Record, len(labels))
	for i, sl := range labels {
		metrics.ClassifyItemsTotal.WithLabelValues(sl.Label).Inc()
		out.Outputs[i] = domain.Output{Text: in.Texts[i], Label: sl.Label, Score: sl.Score}
		recs[i] = repo.Record{
			ID:        uuid.NewString(),
			BatchID:   batchID,
			UserID:    in.UserID,
			CreatedAt: start.UTC(),
			Document:  in.Texts[i],
			Sentiment: sl.Label,
			Score:     sl.Score,
		}
	}
	s.record(ctx, recs)
	return out, nil
}

func (s *Svc) classify(ctx context.Context, texts []string) ([]decision.ScoredLabel, error) {
	if s.opt.MaxItems > 0 && len(texts) > s.opt.MaxItems {
		return nil, perr.Validationf("texts", "at most %d texts per request, got %d", s.opt.MaxItems, len(texts))
	}
	if s.opt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opt.Timeout)
		defer cancel()
	}
	return s.pipe.Classify(ctx, texts)
}

// record writes history; failures are logged and counted, never returned
func (s *Svc) record(ctx context.Context, recs []repo.Record) {
	backend := s.history.Backend()
	if backend == repo.BackendOff {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opt.HistoryTimeout)
	defer cancel()

	err := s.history.Save(ctx, recs)
	metrics.HistoryWritesTotal.WithLabelValues(backend, metrics.Outcome(err)).Inc()
	if err != nil {
		s.log.Error().Err(err).
			Str("backend", backend).
			Str("batch_id", pnet.BatchID(ctx)).
			Int("records", len(recs)).
			Msg("history write failed")
	}
}

// History lists a user's latest predictions
func (s *Svc) History(ctx context.Context, q domain.HistoryQuery) ([]domain.Prediction, error) {
	recs, err := s.history.Recent(ctx, q.UserID, q.Limit)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Prediction, 0, len(recs))
	for _, r := range recs {
		out = append(out, domain.Prediction{
			ID:        r.ID,
			BatchID:   r.BatchID,
			UserID:    r.UserID,
			CreatedAt: r.CreatedAt,
			Document:  r.Document,
			Sentiment: r.Sentiment,
			Score:     r.Score,
		})
	}
	return out, nil
}

// Model describes the loaded model
func (s *Svc) Model() domain.ModelInfo {
	m := s.opt.Model
	m.Labels = append([]string(nil), m.Labels...)
	return m
}

// Ping probes the history backend
func (s *Svc) Ping(ctx context.Context) error { return repo.Ping(ctx, s.history) }

// MonotonicEntropy is not safe for concurrent use
func (s *Svc) newBatchID(at time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(at), s.entropy).String()
}
