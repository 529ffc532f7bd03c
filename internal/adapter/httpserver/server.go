package httpserver

import (
	"log/slog"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/cxyfer/oj-catalog/internal/config"
	"github.com/cxyfer/oj-catalog/internal/domain"
	"github.com/cxyfer/oj-catalog/internal/supervisor"
	"github.com/cxyfer/oj-catalog/internal/usecase"
)

// HealthCheck reports one component of /healthz: database reachability,
// sqlite-vec extension presence, and stored embedding dimension.
type HealthCheck func(ctx domain.Context) error

// Server aggregates the usecase facades and ports the public and admin
// handlers need. Its zero value is unusable; build one with NewServer.
type Server struct {
	Catalog    *usecase.CatalogFacade
	Daily      *usecase.DailyFacade
	Similarity *usecase.SimilarityEngine
	Tokens     domain.TokenRepository
	Settings   domain.SettingsRepository
	Vectors    domain.VectorRepository
	Supervisor *supervisor.Supervisor

	DBCheck  HealthCheck
	VecCheck HealthCheck
	LogsDir  string // scripts/logs, for reading {job_id}.progress.json

	Logger *slog.Logger
}

// NewServer constructs a Server from its collaborators.
func NewServer(
	catalog *usecase.CatalogFacade,
	daily *usecase.DailyFacade,
	similarity *usecase.SimilarityEngine,
	tokens domain.TokenRepository,
	settings domain.SettingsRepository,
	vectors domain.VectorRepository,
	sv *supervisor.Supervisor,
	dbCheck, vecCheck HealthCheck,
	logsDir string,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		Catalog:    catalog,
		Daily:      daily,
		Similarity: similarity,
		Tokens:     tokens,
		Settings:   settings,
		Vectors:    vectors,
		Supervisor: sv,
		DBCheck:    dbCheck,
		VecCheck:   vecCheck,
		LogsDir:    logsDir,
		Logger:     logger,
	}
}

// AdminServer wraps Server with admin-only session/auth concerns.
type AdminServer struct {
	cfg            config.EnvConfig
	sessionManager *SessionManager
	server         *Server
}

// NewAdminServer builds an AdminServer bound to srv and signing sessions
// with cfg.AdminSessionSecret.
func NewAdminServer(cfg config.EnvConfig, srv *Server) *AdminServer {
	return &AdminServer{
		cfg:            cfg,
		sessionManager: NewSessionManager(cfg),
		server:         srv,
	}
}

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

// getValidator returns the shared, lazily-constructed struct validator.
func getValidator() *validator.Validate {
	vldOnce.Do(func() {
		vld = validator.New(validator.WithRequiredStructEnabled())
	})
	return vld
}

func fieldErrorsFrom(err error) []FieldError {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil
	}
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Message: fe.Tag()})
	}
	return out
}
