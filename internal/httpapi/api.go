package httpapi

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Armin-kho/gold-live-rates/internal/dashboard"
	"github.com/Armin-kho/gold-live-rates/internal/db"
	"github.com/Armin-kho/gold-live-rates/internal/metrics"
	"github.com/Armin-kho/gold-live-rates/internal/rates"
)

const (
	DefaultTimeout      = 10 * time.Second
	ServiceName         = "gold-live-rates"
	ServiceVersion      = "1.0.0"
	RequestIDContextKey = "request_id"
	RequestIDHeaderKey  = "X-Request-ID"

	// maxPricingRows bounds one pricing request.
	maxPricingRows = 200
)

// Dashboard is what the HTTP surface needs from the dashboard service.
type Dashboard interface {
	Snapshot() dashboard.Snapshot
	History(r dashboard.Range) []db.Point
	SetMaking(ctx context.Context, input string) (float64, bool, error)
	SetRefresh(ctx context.Context, value, unit string) (time.Duration, bool, error)
	Pricing(rows []rates.Row) (rates.Invoice, error)
}

type Handler struct {
	dash   Dashboard
	digits string
	nowFn  func() time.Time
}

func NewHandler(dash Dashboard, digits string) *Handler {
	return &Handler{dash: dash, digits: digits, nowFn: time.Now}
}

// SetupRoutes configures all API routes.
func (h *Handler) SetupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(requestIDMiddleware())
	router.Use(loggerMiddleware())
	router.Use(metricsMiddleware())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	router.GET("/health", h.HealthCheck)
	router.GET("/chart", h.GetChart)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := router.Group("/api")
	api.GET("/snapshot", h.GetSnapshot)
	api.GET("/message", h.GetMessage)
	api.GET("/history", h.GetHistory)
	api.PUT("/settings/making", h.PutMaking)
	api.PUT("/settings/refresh", h.PutRefresh)
	api.POST("/pricing", h.PostPricing)
	api.POST("/pricing/xlsx", h.PostPricingXLSX)

	return router
}
