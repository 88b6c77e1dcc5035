package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rzzdr/options-risk-engine/internal/store"
	"github.com/rzzdr/options-risk-engine/pkg/utils/errors"
	"github.com/rzzdr/options-risk-engine/pkg/utils/logger"
)

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	latest *store.LatestStore
	betas  *store.BetaStore
	log    *logger.Logger
}

// NewHandlers creates new API handlers backed by the given stores
func NewHandlers(latest *store.LatestStore, betas *store.BetaStore) *Handlers {
	return &Handlers{
		latest: latest,
		betas:  betas,
		log:    logger.GetLogger("api.handlers"),
	}
}

// Health handles health check requests
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// GetRiskSummary returns the risk summary of the latest cycle
func (h *Handlers) GetRiskSummary(c *gin.Context) {
	res, err := h.latest.Get()
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, res.Summary)
}

// GetExposures returns per-underlying and portfolio greek buckets from the
// latest cycle
func (h *Handlers) GetExposures(c *gin.Context) {
	res, err := h.latest.Get()
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"timestamp":   res.Timestamp,
		"account":     res.Account,
		"underlyings": res.Underlyings,
		"portfolio":   res.Portfolio,
	})
}

// GetPositions returns the per-position records from the latest cycle
func (h *Handlers) GetPositions(c *gin.Context) {
	res, err := h.latest.Get()
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"timestamp": res.Timestamp,
		"account":   res.Account,
		"options":   res.Options,
		"stocks":    res.Stocks,
	})
}

// GetBetas returns all current beta overrides
func (h *Handlers) GetBetas(c *gin.Context) {
	overrides := h.betas.Snapshot()
	if overrides == nil {
		overrides = map[string]float64{}
	}
	c.JSON(http.StatusOK, gin.H{"overrides": overrides})
}

// a pointer so that an explicit zero beta still binds
type betaRequest struct {
	Beta *float64 `json:"beta" binding:"required"`
}

// PutBeta creates or updates the beta override for a symbol
func (h *Handlers) PutBeta(c *gin.Context) {
	symbol := c.Param("symbol")

	var req betaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	if err := h.betas.Set(symbol, *req.Beta); err != nil {
		h.renderError(c, err)
		return
	}

	h.log.Infof("Beta override set: %s=%.4f", symbol, *req.Beta)
	c.JSON(http.StatusOK, gin.H{"symbol": symbol, "beta": *req.Beta})
}

// DeleteBeta removes the beta override for a symbol
func (h *Handlers) DeleteBeta(c *gin.Context) {
	symbol := c.Param("symbol")

	if err := h.betas.Delete(symbol); err != nil {
		h.renderError(c, err)
		return
	}

	h.log.Infof("Beta override removed: %s", symbol)
	c.JSON(http.StatusOK, gin.H{"symbol": symbol, "deleted": true})
}

func (h *Handlers) renderError(c *gin.Context, err error) {
	switch errors.TypeOf(err) {
	case errors.ErrorTypeNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.ErrorTypeInvalidArgument:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.log.Errorf("Internal error serving %s: %v", c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
