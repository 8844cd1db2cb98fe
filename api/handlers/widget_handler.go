// api/handlers/widget_handler.go
package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Annany2002/nebula-studio/api/middleware"
	"github.com/Annany2002/nebula-studio/api/models"
	"github.com/Annany2002/nebula-studio/internal/component"
	"github.com/Annany2002/nebula-studio/internal/core"
	"github.com/Annany2002/nebula-studio/internal/domain"
	"github.com/Annany2002/nebula-studio/internal/metrics"
	"github.com/Annany2002/nebula-studio/internal/render"
	"github.com/Annany2002/nebula-studio/internal/storage"
)

const widgetConfigSource = "widget_config"

// WidgetHandler manages the widgets placed on pages and renders them.
type WidgetHandler struct {
	DB       *sql.DB
	Registry *component.Registry
	Engine   *render.Engine
	Metrics  *metrics.Metrics
}

func NewWidgetHandler(db *sql.DB, registry *component.Registry, engine *render.Engine, m *metrics.Metrics) *WidgetHandler {
	return &WidgetHandler{DB: db, Registry: registry, Engine: engine, Metrics: m}
}

// checkConfig validates a widget configuration merged over its type's defaults.
// Unknown types are accepted here and fail at render time.
func (h *WidgetHandler) checkConfig(typeKey string, config map[string]any) error {
	merged, err := h.Registry.DefaultConfig(typeKey)
	if err != nil {
		if errors.Is(err, core.ErrUnknownComponent) {
			customLog.Warnf("Handler: Storing widget of unknown component type '%s'", typeKey)
			return nil
		}
		return err
	}
	for k, v := range config {
		merged[k] = v
	}

	failures, err := h.Registry.ValidateConfig(typeKey, merged)
	if err != nil {
		return err
	}
	if raw, ok := config[render.BindingKey]; ok && raw != nil {
		if _, err := render.ParseBinding(raw); err != nil {
			failures = append(failures, core.FieldFailure{Field: render.BindingKey, Code: core.CodeType, Message: err.Error()})
		}
	}
	if len(failures) > 0 {
		h.Metrics.ObserveValidationFailures(widgetConfigSource, len(failures))
		return core.NewValidationError(failures)
	}
	return nil
}

// loadWidget fetches a widget and checks it sits on the page in the path.
func (h *WidgetHandler) loadWidget(c *gin.Context) (*domain.WidgetInstance, bool) {
	pageID, ok := pathID(c, "page_id")
	if !ok {
		return nil, false
	}
	widgetID, ok := pathID(c, "widget_id")
	if !ok {
		return nil, false
	}
	w, err := storage.GetWidget(c.Request.Context(), h.DB, widgetID)
	if err != nil {
		_ = c.Error(err)
		return nil, false
	}
	if w.PageID != pageID {
		_ = c.Error(fmt.Errorf("%w: widget %d is not on page %d", core.ErrMismatch, widgetID, pageID))
		return nil, false
	}
	return w, true
}

func (h *WidgetHandler) CreateWidget(c *gin.Context) {
	pageID, ok := pathID(c, "page_id")
	if !ok {
		return
	}
	var req models.CreateWidgetRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.checkConfig(req.Type, req.Config); err != nil {
		_ = c.Error(err)
		return
	}

	ctx := c.Request.Context()
	now := time.Now().UTC()
	w := &domain.WidgetInstance{
		PageID:    pageID,
		Type:      req.Type,
		Config:    req.Config,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if w.Config == nil {
		w.Config = map[string]any{}
	}
	if req.SortOrder != nil {
		w.SortOrder = *req.SortOrder
	} else {
		next, err := storage.NextWidgetSortOrder(ctx, h.DB, pageID)
		if err != nil {
			_ = c.Error(err)
			return
		}
		w.SortOrder = next
	}

	if err := storage.InsertWidget(ctx, h.DB, w); err != nil {
		_ = c.Error(err)
		return
	}
	customLog.Printf("Handler: Widget %d (%s) placed on page %d", w.ID, w.Type, pageID)
	c.JSON(http.StatusCreated, w)
}

func (h *WidgetHandler) ListWidgets(c *gin.Context) {
	pageID, ok := pathID(c, "page_id")
	if !ok {
		return
	}
	widgets, err := storage.ListWidgets(c.Request.Context(), h.DB, pageID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": widgets})
}

func (h *WidgetHandler) UpdateWidget(c *gin.Context) {
	w, ok := h.loadWidget(c)
	if !ok {
		return
	}
	var req models.UpdateWidgetRequest
	if !bindJSON(c, &req) {
		return
	}

	if req.Type != nil {
		w.Type = *req.Type
	}
	if req.Config != nil {
		w.Config = req.Config
	}
	if req.SortOrder != nil {
		w.SortOrder = *req.SortOrder
	}
	if err := h.checkConfig(w.Type, w.Config); err != nil {
		_ = c.Error(err)
		return
	}
	w.UpdatedAt = time.Now().UTC()

	if err := storage.UpdateWidget(c.Request.Context(), h.DB, w); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, w)
}

func (h *WidgetHandler) DeleteWidget(c *gin.Context) {
	w, ok := h.loadWidget(c)
	if !ok {
		return
	}
	if err := storage.DeleteWidget(c.Request.Context(), h.DB, w.ID); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RenderPage renders every widget of a page in order. Widgets that fail or are
// hidden by their binding are left out.
func (h *WidgetHandler) RenderPage(c *gin.Context) {
	pageID, ok := pathID(c, "page_id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	widgets, err := storage.ListWidgets(ctx, h.DB, pageID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	trees := h.Engine.RenderPage(ctx, widgets, middleware.UserID(c))
	c.JSON(http.StatusOK, gin.H{"page_id": pageID, "widgets": trees})
}

// RenderWidget renders an unsaved widget instance.
func (h *WidgetHandler) RenderWidget(c *gin.Context) {
	var req models.RenderRequest
	if !bindJSON(c, &req) {
		return
	}
	tree, err := h.Engine.Render(c.Request.Context(), domain.WidgetInstance{Type: req.Type, Config: req.Config}, middleware.UserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, tree)
}
