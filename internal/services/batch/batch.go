// Package batch classifies files of texts in chunks through the classify service
package batch

import (
	"context"
	"encoding/json"
	"io"
	"time"

	perr "sentimentd/internal/platform/errors"
	"sentimentd/internal/platform/logger"
	"sentimentd/internal/services/api/classify/domain"

	"golang.org/x/sync/errgroup"
)

// Config tunes a run; zero values pick the defaults
type Config struct {
	// Chunk is texts per classify call, default 64
	Chunk int
	// Workers is concurrent classify calls, default 4
	Workers int
	// UserID is stamped on history rows, optional
	UserID string
	// FailFast stops at the first failed chunk instead of reporting it per line
	FailFast bool
}

// Result is one JSONL output line
type Result struct {
	Line    int      `json:"line"`
	Text    string   `json:"text"`
	Label   string   `json:"label,omitempty"`
	Score   *float64 `json:"score,omitempty"`
	BatchID string   `json:"batch_id,omitempty"`
	Error   string   `json:"error,omitempty"`
	Code    string   `json:"code,omitempty"`
}

// Stats summarizes a run
type Stats struct {
	Items    int           `json:"items"`
	OK       int           `json:"ok"`
	Failed   int           `json:"failed"`
	Chunks   int           `json:"chunks"`
	Duration time.Duration `json:"duration"`
}

// Runner drives the classify service over a list of items
type Runner struct {
	svc domain.ServicePort
	cfg Config
}

// New returns a Runner; svc is required
func New(svc domain.ServicePort, cfg Config) *Runner {
	if svc == nil {
		panic("batch: nil service")
	}
	if cfg.Chunk <= 0 {
		cfg.Chunk = 64
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	return &Runner{svc: svc, cfg: cfg}
}

// Run classifies items and writes one Result per item to w, in input order
// a failed chunk marks its own lines failed unless FailFast is set
func (r *Runner) Run(ctx context.Context, items []Item, w io.Writer) (Stats, error) {
	start := time.Now()
	log := logger.Named("batch")

	chunks := split(items, r.cfg.Chunk)
	results := make([][]Result, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)
	for i, c := range chunks {
		g.Go(func() error {
			res, err := r.classify(gctx, c)
			if err != nil {
				if r.cfg.FailFast {
					return err
				}
				log.Warn().Err(err).Int("chunk", i).Int("first_line", c[0].Line).Msg("chunk failed")
				res = failed(c, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Stats{Items: len(items), Chunks: len(chunks), Duration: time.Since(start)}, err
	}

	st := Stats{Items: len(items), Chunks: len(chunks)}
	enc := json.NewEncoder(w)
	for _, res := range results {
		for _, row := range res {
			if row.Error != "" {
				st.Failed++
			} else {
				st.OK++
			}
			if err := enc.Encode(row); err != nil {
				return st, perr.Wrap(err, perr.ErrorCodeUnknown, "write result")
			}
		}
	}
	st.Duration = time.Since(start)

	log.Info().Int("items", st.Items).Int("ok", st.OK).Int("failed", st.Failed).
		Int("chunks", st.Chunks).Dur("duration", st.Duration).Msg("batch done")
	return st, nil
}

func (r *Runner) classify(ctx context.Context, chunk []Item) ([]Result, error) {
	texts := make([]string, len(chunk))
	for i, it := range chunk {
		texts[i] = it.Text
	}
	out, err := r.svc.Classify(ctx, domain.ClassifyInput{UserID: r.cfg.UserID, Texts: texts})
	if err != nil {
		return nil, err
	}
	if len(out.Outputs) != len(chunk) {
		return nil, perr.Inferencef("classify returned %d outputs for %d texts", len(out.Outputs), len(chunk))
	}
	res := make([]Result, len(chunk))
	for i, o := range out.Outputs {
		score := o.Score
		res[i] = Result{Line: chunk[i].Line, Text: o.Text, Label: o.Label, Score: &score, BatchID: out.BatchID}
	}
	return res, nil
}

func failed(chunk []Item, err error) []Result {
	w := perr.WireFrom(err)
	res := make([]Result, len(chunk))
	for i, it := range chunk {
		res[i] = Result{Line: it.Line, Text: it.Text, Error: w.Message, Code: w.Code.String()}
	}
	return res
}

func split(items []Item, n int) [][]Item {
	var out [][]Item
	for len(items) > 0 {
		k := min(n, len(items))
		out = append(out, items[:k])
		items = items[k:]
	}
	return out
}
