package handlers

import (
	"context"
	"net/http"

	"nhbrcforms/application"
	"nhbrcforms/domain/province"
)

// HealthChecker checks downstream connectivity for one province.
type HealthChecker interface {
	Check(ctx context.Context, p province.Province) *application.HealthReport
}

// SystemHandlers serves operational endpoints.
type SystemHandlers struct {
	health   HealthChecker
	province province.Province
}

// NewSystemHandlers creates system handlers probing p by default.
func NewSystemHandlers(health HealthChecker, p province.Province) *SystemHandlers {
	return &SystemHandlers{health: health, province: p}
}

// Health handles GET /api/health. The status code is always 200; the body
// reports the outcome. A ?province= query overrides the default province.
func (h *SystemHandlers) Health(w http.ResponseWriter, r *http.Request) {
	p := h.province
	if q := r.URL.Query().Get("province"); q != "" {
		// Unknown names are passed through so the report fails at the configuration stage.
		p = province.Province(q)
	}
	RenderJSON(w, http.StatusOK, h.health.Check(r.Context(), p))
}
