// Package tracking composes the conversion attribution pipeline: identity
// normalization, dedup guards, envelope building, the emitters, scoring
// and qualification, plus their HTTP surface.
package tracking

import (
	"github.com/Rollnz/window-man-truth-engine-sub000/internal/events"
	apphttp "github.com/Rollnz/window-man-truth-engine-sub000/internal/http"
	"github.com/Rollnz/window-man-truth-engine-sub000/internal/sink"
	"github.com/Rollnz/window-man-truth-engine-sub000/internal/tracking/envelope"
	"github.com/Rollnz/window-man-truth-engine-sub000/internal/tracking/guard"
	"github.com/Rollnz/window-man-truth-engine-sub000/internal/tracking/handler"
	"github.com/Rollnz/window-man-truth-engine-sub000/internal/tracking/identity"
	"github.com/Rollnz/window-man-truth-engine-sub000/internal/tracking/scoring"
	"github.com/Rollnz/window-man-truth-engine-sub000/internal/tracking/service"
	"github.com/Rollnz/window-man-truth-engine-sub000/platform/config"
	"github.com/Rollnz/window-man-truth-engine-sub000/platform/httpkit"
	"github.com/Rollnz/window-man-truth-engine-sub000/platform/logger"

	"github.com/gin-gonic/gin"
)

// ModuleConfig combines the config surfaces the tracking module needs.
type ModuleConfig interface {
	config.TrackingConfig
	config.ScoringConfig
}

// Module wires the tracking pipeline and its routes.
type Module struct {
	svc      *service.Service
	handler  *handler.Handler
	registry *Registry
}

// NewModule assembles the pipeline over the given guard store and sink.
func NewModule(cfg ModuleConfig, store guard.Store, snk *sink.Service, bus events.Bus, log *logger.Logger) (*Module, error) {
	normalizer := identity.NewNormalizer(cfg.GetDefaultPhoneRegion(), log)
	g := guard.New(store, cfg.GetSessionTTL(), log)
	builder := envelope.NewBuilder(cfg.GetTrackingVersion())

	engine, err := scoring.NewEngineFromFile(cfg.GetScoringWeightsPath())
	if err != nil {
		return nil, err
	}

	svc := service.New(normalizer, g, builder, snk, bus, log)

	return &Module{
		svc:      svc,
		handler:  handler.New(svc, engine),
		registry: NewRegistry(cfg.GetTrackingVersion(), snk.Journal()),
	}, nil
}

// Service exposes the emitter service for other modules and tests.
func (m *Module) Service() *service.Service {
	return m.svc
}

func (m *Module) Name() string {
	return "tracking"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	track := ctx.V1.Group("/track")
	track.Use(ctx.TrackRateLimiter.Middleware())
	track.POST("/lead", m.handler.Lead)
	track.POST("/qualified-lead", m.handler.QualifiedLead)
	track.POST("/scanner-upload", m.handler.ScannerUpload)
	track.POST("/appointment", m.handler.Appointment)
	track.POST("/sale", m.handler.Sale)
	track.POST("/retarget", m.handler.Retarget)
	track.POST("/internal", m.handler.Internal)

	leads := ctx.V1.Group("/leads")
	leads.POST("/score", m.handler.Score)
	leads.POST("/qualify", m.handler.Qualify)

	admin := ctx.Admin.Group("/tracking")
	admin.GET("/registry", m.registryHandler)
	admin.POST("/reset", m.handler.Reset)
}

func (m *Module) registryHandler(c *gin.Context) {
	httpkit.OK(c, m.registry.Snapshot())
}

var _ apphttp.Module = (*Module)(nil)
