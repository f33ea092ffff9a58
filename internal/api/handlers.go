package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sigmalens/sigmalens/internal/models"
	"github.com/sigmalens/sigmalens/internal/services"
	"github.com/sigmalens/sigmalens/internal/session"
	"github.com/sigmalens/sigmalens/internal/timeline"
	"github.com/sigmalens/sigmalens/internal/utils"
)

type handlers struct {
	logger    *slog.Logger
	dashboard *services.Dashboard
}

// NewRouter builds the dashboard's JSON API.
func NewRouter(logger *slog.Logger, dashboard *services.Dashboard) *gin.Engine {
	if logger == nil {
		logger = slog.Default()
	}
	h := &handlers{logger: logger, dashboard: dashboard}

	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	v1 := router.Group("/api/v1")
	v1.GET("/alerts", h.alerts)
	v1.POST("/alerts/reset", h.resetAlerts)
	v1.GET("/alerts/stats", h.alertStats)
	v1.GET("/notifications", h.notifications)
	v1.GET("/entities/:class/timeline", h.entityTimeline)

	return router
}

// alerts returns the session snapshot; a page query parameter triggers a
// feed page load first.
func (h *handlers) alerts(c *gin.Context) {
	pageParam := c.Query("page")
	if pageParam == "" {
		c.JSON(http.StatusOK, h.dashboard.Alerts())
		return
	}

	page, err := strconv.Atoi(pageParam)
	if err != nil || page < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "page must be a positive integer"})
		return
	}

	snapshot, err := h.dashboard.LoadAlerts(c.Request.Context(), page)
	if errors.Is(err, session.ErrSuperseded) {
		// A newer load owns the view now; the snapshot is still current.
		c.JSON(http.StatusOK, snapshot)
		return
	}
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (h *handlers) resetAlerts(c *gin.Context) {
	h.dashboard.ResetSession()
	c.JSON(http.StatusOK, h.dashboard.Alerts())
}

func (h *handlers) alertStats(c *gin.Context) {
	top := 10
	if v := c.Query("top"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			top = n
		}
	}
	c.JSON(http.StatusOK, h.dashboard.Stats(top))
}

func (h *handlers) notifications(c *gin.Context) {
	notices := h.dashboard.DrainNotices()
	c.JSON(http.StatusOK, gin.H{"notices": notices})
}

func (h *handlers) entityTimeline(c *gin.Context) {
	class, err := models.ParseEntityClass(c.Param("class"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req := models.TimelineRequest{
		Class:        class,
		UserID:       c.Query("user_id"),
		ComputerName: c.Query("computer_name"),
		Title:        c.Query("title"),
		Timeframe:    models.ParseTimeframe(c.Query("timeframe")),
	}

	result, err := h.dashboard.EntityTimeline(c.Request.Context(), req)
	if errors.Is(err, timeline.ErrSuperseded) {
		c.JSON(http.StatusOK, result)
		return
	}
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *handlers) renderError(c *gin.Context, err error) {
	kind := utils.KindOf(err)
	status := http.StatusInternalServerError
	switch kind {
	case utils.KindValidation:
		status = http.StatusBadRequest
	case utils.KindTimeout:
		status = http.StatusGatewayTimeout
	case utils.KindTransport, utils.KindMalformedData:
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"error": err.Error(), "kind": kind.String()})
}
