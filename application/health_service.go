package application

import (
	"context"
	"fmt"
	"time"

	"nhbrcforms/domain/contracts"
	"nhbrcforms/domain/province"
	"nhbrcforms/logging"
)

// Health status values.
const (
	HealthOK       = "ok"
	HealthDegraded = "degraded"
	HealthError    = "error"
)

// DatabaseHealth reports local database connectivity.
type DatabaseHealth interface {
	Health(ctx context.Context) (map[string]any, error)
}

// HealthReport is the body of the health endpoint.
type HealthReport struct {
	Status    string         `json:"status"`
	Province  string         `json:"province"`
	SiteID    string         `json:"siteId,omitempty"`
	Stage     string         `json:"stage,omitempty"`
	Error     string         `json:"error,omitempty"`
	Database  map[string]any `json:"database,omitempty"`
	CheckedAt time.Time      `json:"checkedAt"`
	Duration  string         `json:"duration"`
}

// HealthService checks configuration, authentication and site resolution for one province.
type HealthService struct {
	provinces contracts.ProvinceResolver
	graph     contracts.GraphConnector
	db        DatabaseHealth
	logger    *logging.Logger
}

// NewHealthService creates a health service. db may be nil.
func NewHealthService(provinces contracts.ProvinceResolver, graph contracts.GraphConnector, db DatabaseHealth) *HealthService {
	return &HealthService{
		provinces: provinces,
		graph:     graph,
		db:        db,
		logger:    logging.Default().WithComponent("health_service"),
	}
}

// Check runs the stages in order. It never returns an error; failures are reported in the report.
func (h *HealthService) Check(ctx context.Context, p province.Province) *HealthReport {
	start := time.Now()
	report := &HealthReport{Status: HealthOK, Province: p.String(), CheckedAt: start.UTC()}
	defer func() { report.Duration = time.Since(start).String() }()

	if stage, err := h.checkGraph(ctx, p, report); err != nil {
		report.Status = HealthError
		report.Stage = stage
		report.Error = err.Error()
		h.logger.WithContext(ctx).Warn("Health check failed", "province", p.String(), "stage", stage, "error", err.Error())
	}

	if h.db != nil {
		stats, err := h.db.Health(ctx)
		if err != nil {
			stats = map[string]any{"error": err.Error()}
			if report.Status == HealthOK {
				report.Status = HealthDegraded
			}
		}
		report.Database = stats
	}

	return report
}

func (h *HealthService) checkGraph(ctx context.Context, p province.Province, report *HealthReport) (string, error) {
	target, err := h.provinces.Resolve(p.String())
	if err != nil {
		return "configuration", err
	}
	session, err := h.graph.Acquire(ctx)
	if err != nil {
		return "authentication", err
	}
	siteID, err := session.ResolveSiteID(ctx, target.SiteURL)
	if err != nil {
		return "site", fmt.Errorf("resolve %s: %w", target.SiteURL, err)
	}
	report.SiteID = siteID
	return "", nil
}
