package http

import (
	"context"

	"github.com/gin-gonic/gin"

	"cmp-dialogue/internal/bootstrap"
	"cmp-dialogue/internal/logger"
	"cmp-dialogue/internal/ratelimit"
	"cmp-dialogue/internal/transport/http/handler"
	"cmp-dialogue/internal/transport/http/middleware"
)

// Deps are the collaborators the router is built from.
type Deps struct {
	GinMode string
	// TrustedProxies may set X-Forwarded-For; nil trusts none.
	TrustedProxies []string
	Dialogue       handler.DialogueAPI
	Sources        handler.SourceAPI
	Health         *handler.HealthHandler
	Limiter        ratelimit.Limiter
	Normal         ratelimit.Class
	Privileged     ratelimit.Class
	Logger         logger.Logger
}

func NewRouter(app *bootstrap.App) *gin.Engine {
	cfg := app.Config
	probes := map[string]handler.Probe{
		"postgres": func(ctx context.Context) error {
			sqlDB, err := app.Postgres.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		"redis":    nil,
		"rabbitmq": nil,
	}
	if app.Redis != nil {
		probes["redis"] = func(ctx context.Context) error {
			return app.Redis.Ping(ctx).Err()
		}
	}
	if app.MQConn != nil {
		probes["rabbitmq"] = func(context.Context) error {
			if app.MQConn.IsClosed() {
				return errConnectionClosed
			}
			return nil
		}
	}

	return NewEngine(Deps{
		GinMode:        cfg.App.GinMode,
		TrustedProxies: cfg.App.TrustedProxies,
		Dialogue:       app.Dialogue,
		Sources:        app.Sources,
		Health:         handler.NewHealthHandler(cfg.App.Name, cfg.App.Env, app.StartedAt, probes),
		Limiter:        app.Limiter,
		Normal:         ratelimit.Normal(cfg.RateLimit.NormalLimit, cfg.RateLimit.NormalWindow()),
		Privileged:     ratelimit.Privileged(cfg.RateLimit.PrivilegedLimit, cfg.RateLimit.PrivilegedWindow()),
		Logger:         app.Logger,
	})
}

func NewEngine(d Deps) *gin.Engine {
	if d.GinMode != "" {
		gin.SetMode(d.GinMode)
	}
	if d.Logger == nil {
		d.Logger = logger.NewNop()
	}
	router := gin.New()
	if err := router.SetTrustedProxies(d.TrustedProxies); err != nil {
		d.Logger.Error("http", "invalid trusted proxies, trusting none", map[string]interface{}{
			"proxies": d.TrustedProxies,
			"error":   err,
		})
		_ = router.SetTrustedProxies(nil)
	}
	router.Use(gin.Logger(), gin.Recovery())

	router.GET("/", d.Health.Hello)
	router.GET("/healthz", d.Health.Check)

	actions := handler.NewActionsHandler(d.Dialogue, d.Sources, d.Logger)
	normal := middleware.RateLimit(d.Limiter, d.Normal, d.Logger)
	privileged := middleware.RateLimit(d.Limiter, d.Privileged, d.Logger)

	group := router.Group("/cmp-actions")
	group.POST("/search-google", normal, actions.SearchGoogle)
	group.POST("/get-content-from-url", normal, actions.GetContentFromURL)
	group.POST("/get-content-from-urls", normal, actions.GetContentFromURLs)
	group.POST("/summarize", normal, actions.Summarize)
	group.POST("/extract-questions", normal, actions.ExtractQuestions)
	group.POST("/ask-teacher", privileged, actions.AskTeacher)
	group.POST("/meeting-with-teacher", privileged, actions.MeetingWithTeacher)
	group.POST("/student-ask-teacher", privileged, actions.StudentAskTeacher)

	return router
}
