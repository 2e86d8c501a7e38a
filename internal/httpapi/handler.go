package httpapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Armin-kho/gold-live-rates/internal/dashboard"
	"github.com/Armin-kho/gold-live-rates/internal/logger"
	"github.com/Armin-kho/gold-live-rates/internal/rates"
	"github.com/Armin-kho/gold-live-rates/internal/render"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type valueRequest struct {
	Value string `json:"value"`
}

type refreshRequest struct {
	Value string `json:"value"`
	Unit  string `json:"unit"`
}

type pricingRequest struct {
	Rows []rates.Row `json:"rows"`
}

// HealthCheck handles GET /health requests
func (h *Handler) HealthCheck(c *gin.Context) {
	snap := h.dash.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"status":      "OK",
		"service":     ServiceName,
		"version":     ServiceVersion,
		"feed_status": snap.Status,
		"timestamp":   h.nowFn().UTC().Format("2006-01-02T15:04:05Z07:00"),
	})
}

func (h *Handler) GetSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, h.dash.Snapshot())
}

func (h *Handler) GetMessage(c *gin.Context) {
	out := render.BuildMessage(h.dash.Snapshot(), h.digits, h.nowFn())
	c.String(http.StatusOK, out.Text)
}

func (h *Handler) GetHistory(c *gin.Context) {
	r, err := dashboard.ParseRange(c.Query("range"))
	if err != nil {
		h.badRequest(c, err)
		return
	}
	pts := h.dash.History(r)
	c.JSON(http.StatusOK, gin.H{"range": r, "points": pts})
}

func (h *Handler) GetChart(c *gin.Context) {
	r, err := dashboard.ParseRange(c.Query("range"))
	if err != nil {
		h.badRequest(c, err)
		return
	}
	var buf bytes.Buffer
	title := h.dash.Snapshot().Display.ShopName
	if err := render.Chart(&buf, h.dash.History(r), string(r), title); err != nil {
		h.handleError(c, err, http.StatusInternalServerError, "chart rendering failed")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (h *Handler) PutMaking(c *gin.Context) {
	var req valueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), DefaultTimeout)
	defer cancel()

	v, accepted, err := h.dash.SetMaking(ctx, req.Value)
	if err != nil {
		h.handleError(c, err, http.StatusInternalServerError, "could not save making charge")
		return
	}
	c.JSON(http.StatusOK, gin.H{"making": v, "accepted": accepted})
}

func (h *Handler) PutRefresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), DefaultTimeout)
	defer cancel()

	d, accepted, err := h.dash.SetRefresh(ctx, req.Value, req.Unit)
	if err != nil {
		h.handleError(c, err, http.StatusInternalServerError, "could not save refresh interval")
		return
	}
	c.JSON(http.StatusOK, gin.H{"seconds": d.Seconds(), "accepted": accepted})
}

func (h *Handler) PostPricing(c *gin.Context) {
	inv, ok := h.quote(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (h *Handler) PostPricingXLSX(c *gin.Context) {
	inv, ok := h.quote(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := render.InvoiceXLSX(&buf, inv, h.dash.Snapshot().Display.ShopName, h.nowFn()); err != nil {
		h.handleError(c, err, http.StatusInternalServerError, "invoice export failed")
		return
	}
	c.Header("Content-Disposition", `attachment; filename="invoice.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *Handler) quote(c *gin.Context) (rates.Invoice, bool) {
	var req pricingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return rates.Invoice{}, false
	}
	if len(req.Rows) > maxPricingRows {
		h.badRequest(c, fmt.Errorf("at most %d rows", maxPricingRows))
		return rates.Invoice{}, false
	}
	inv, err := h.dash.Pricing(req.Rows)
	if errors.Is(err, dashboard.ErrNoRate) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return rates.Invoice{}, false
	}
	if err != nil {
		h.handleError(c, err, http.StatusInternalServerError, "pricing failed")
		return rates.Invoice{}, false
	}
	return inv, true
}

func (h *Handler) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// handleError logs the error and sends appropriate HTTP response
func (h *Handler) handleError(c *gin.Context, err error, statusCode int, userMessage string) {
	logger.WithFields(map[string]any{
		"request_id": c.GetString(RequestIDContextKey),
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
	}).Errorf("[http] %s: %v", userMessage, err)
	c.JSON(statusCode, gin.H{"error": userMessage})
}
