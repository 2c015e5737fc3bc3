package factories

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"nhbrcforms/application"
	"nhbrcforms/database"
	"nhbrcforms/domain/contracts"
	"nhbrcforms/infrastructure/config"
	infrafactories "nhbrcforms/infrastructure/factories"
	"nhbrcforms/infrastructure/graph"
	"nhbrcforms/infrastructure/metrics"
	"nhbrcforms/logging"
)

// Services is the assembled application layer shared by the server and the CLI.
type Services struct {
	Submissions *application.SubmissionService
	Allocator   *application.ReferenceAllocator
	Records     contracts.SubmissionRepository
	Health      *application.HealthService
	Graph       *graph.Client
	Metrics     *metrics.Recorder
	Provinces   *config.ProvinceDirectory
}

// ServiceFactory wires configuration, persistence and the Graph client into services.
type ServiceFactory struct {
	cfg    *config.AppConfig
	db     *database.Database
	logger *logging.Logger
}

// NewServiceFactory creates a factory for cfg backed by db.
func NewServiceFactory(cfg *config.AppConfig, db *database.Database) *ServiceFactory {
	return &ServiceFactory{
		cfg:    cfg,
		db:     db,
		logger: logging.Default().WithComponent("service_factory"),
	}
}

// Build assembles the services. The returned recorder owns a fresh registry
// that also carries the Go runtime and process collectors.
func (f *ServiceFactory) Build() (*Services, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	rec := metrics.NewRecorder(reg)

	repos := infrafactories.NewRepositoryFactory(f.db)
	counter, err := repos.CounterStore(f.cfg.Counter)
	if err != nil {
		return nil, fmt.Errorf("create counter store: %w", err)
	}

	client := graph.NewClient(f.cfg.Graph,
		graph.WithMetrics(rec),
		graph.WithSimpleUploadMaxBytes(f.cfg.Uploads.SimpleMaxBytes))

	allocator := application.NewReferenceAllocator(counter, f.cfg.Counter.Seed, rec)
	uploads := application.NewUploadOrchestrator(
		f.cfg.Uploads.RootFolder,
		f.cfg.Uploads.FallbackFolder,
		f.cfg.Uploads.MaxFiles,
		rec)

	records := repos.SubmissionRepository()
	submissions := application.NewSubmissionService(application.SubmissionServiceDeps{
		Provinces: f.cfg.Provinces,
		Allocator: allocator,
		Graph:     client,
		Uploads:   uploads,
		Records:   records,
		MaxFiles:  f.cfg.Uploads.MaxFiles,
		Metrics:   rec,
	})

	f.logger.Info("Services assembled",
		"counter_backend", f.cfg.Counter.Backend,
		"provinces_configured", len(f.cfg.Provinces.Configured()),
		"max_files", f.cfg.Uploads.MaxFiles)

	return &Services{
		Submissions: submissions,
		Allocator:   allocator,
		Records:     records,
		Health:      application.NewHealthService(f.cfg.Provinces, client, f.db),
		Graph:       client,
		Metrics:     rec,
		Provinces:   f.cfg.Provinces,
	}, nil
}
