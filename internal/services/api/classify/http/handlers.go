// Package http provides http transport for classify
package http

import (
	stdhttp "net/http"

	"sentimentd/internal/modkit/httpkit"
	"sentimentd/internal/services/api/classify/domain"
)

// DefaultMaxBody caps a classify request body
const DefaultMaxBody = 1 << 20

// Register mounts classify endpoints on the given router
func Register(r httpkit.Router, s domain.ServicePort, maxBody int64) {
	if maxBody <= 0 {
		maxBody = DefaultMaxBody
	}
	h := &handlers{svc: s}
	httpkit.PostJSONLimit[domain.ClassifyInput](r, "/", maxBody, h.classify)
	httpkit.GetQuery[domain.HistoryQuery](r, "/history", h.history)
}

type handlers struct{ svc domain.ServicePort }

// swagger:route POST /classify Classify classify
// @Summary Classify a batch of texts
// @Tags Classify
// @Accept json
// @Produce json
// @Param payload body domain.ClassifyInput true "Texts"
// @Success 200 {object} domain.ClassifyOutput "ok"
// @Failure 400 "empty or too long text"
// @Failure 500 "preprocessing or inference failure"
// @Failure 503 "no inference capacity before the deadline"
// @Router /classify [post]
func (h *handlers) classify(r *stdhttp.Request, in domain.ClassifyInput) (any, error) {
	return h.svc.Classify(r.Context(), in)
}

// swagger:route GET /classify/history Classify classifyHistory
// @Summary Latest predictions for a user
// @Tags Classify
// @Produce json
// @Param user_id query string true "User"
// @Param limit query int false "Max rows (1..500)"
// @Success 200 {array} domain.Prediction "ok"
// @Router /classify/history [get]
func (h *handlers) history(r *stdhttp.Request, q domain.HistoryQuery) (any, error) {
	return h.svc.History(r.Context(), q)
}
