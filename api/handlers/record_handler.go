// api/handlers/record_handler.go
package handlers

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/Annany2002/nebula-studio/api/middleware"
	"github.com/Annany2002/nebula-studio/api/models"
	"github.com/Annany2002/nebula-studio/internal/core"
	"github.com/Annany2002/nebula-studio/internal/records"
	"github.com/Annany2002/nebula-studio/internal/schema"
	"github.com/Annany2002/nebula-studio/internal/storage"
)

// RecordHandler holds dependencies for record CRUD handlers.
type RecordHandler struct {
	Schema *schema.Service
	Store  *records.Store
}

// NewRecordHandler creates a new RecordHandler.
func NewRecordHandler(svc *schema.Service, store *records.Store) *RecordHandler {
	return &RecordHandler{Schema: svc, Store: store}
}

// collectionID resolves the collection in the path and checks it belongs to the
// project in the path.
func (h *RecordHandler) collectionID(c *gin.Context) (int64, bool) {
	projectID, ok := pathID(c, "project_id")
	if !ok {
		return 0, false
	}
	collectionID, ok := pathID(c, "collection_id")
	if !ok {
		return 0, false
	}
	if _, err := h.Schema.GetCollection(c.Request.Context(), projectID, collectionID); err != nil {
		_ = c.Error(err)
		return 0, false
	}
	return collectionID, true
}

func bindValues(c *gin.Context) (map[string]any, bool) {
	var values map[string]any
	if !bindJSON(c, &values) {
		return nil, false
	}
	if values == nil {
		_ = c.Error(fmt.Errorf("%w: request body must be a JSON object of field values", middleware.ErrBadRequest))
		return nil, false
	}
	return values, true
}

// CreateRecord stores a record owned by the requesting user. The body maps field names to values.
func (h *RecordHandler) CreateRecord(c *gin.Context) {
	collectionID, ok := h.collectionID(c)
	if !ok {
		return
	}
	values, ok := bindValues(c)
	if !ok {
		return
	}

	rec, err := h.Store.CreateRecord(c.Request.Context(), collectionID, middleware.UserID(c), values)
	if err != nil {
		_ = c.Error(err)
		return
	}
	customLog.Printf("Handler: Record %d created in collection %d", rec.ID, collectionID)
	c.JSON(http.StatusCreated, rec)
}

// ListRecords supports page, perPage, sort, order, created_by, filter[field] and contains[field].
func (h *RecordHandler) ListRecords(c *gin.Context) {
	collectionID, ok := h.collectionID(c)
	if !ok {
		return
	}
	opts, err := core.ParseListQueryOptions(c.Request.URL.Query())
	if err != nil {
		_ = c.Error(fmt.Errorf("%w: %v", middleware.ErrBadRequest, err))
		return
	}

	q := records.Query{
		CreatedBy: opts.CreatedBy,
		OrderBy:   opts.SortBy,
		Desc:      opts.SortOrder == "desc",
		Limit:     opts.Limit(),
		Offset:    opts.Offset(),
	}
	q.Filters = append(q.Filters, filtersFrom(opts.Equals, storage.FilterEquals)...)
	q.Filters = append(q.Filters, filtersFrom(opts.Contains, storage.FilterContains)...)

	page, err := h.Store.QueryRecords(c.Request.Context(), collectionID, q)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, models.ListResponse{
		Data:    page.Records,
		Total:   page.Total,
		Page:    opts.Page,
		PerPage: opts.PerPage,
	})
}

func filtersFrom(byField map[string]string, op string) []records.Filter {
	names := make([]string, 0, len(byField))
	for name := range byField {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]records.Filter, 0, len(names))
	for _, name := range names {
		out = append(out, records.Filter{Field: name, Op: op, Value: byField[name]})
	}
	return out
}

func (h *RecordHandler) GetRecord(c *gin.Context) {
	collectionID, ok := h.collectionID(c)
	if !ok {
		return
	}
	recordID, ok := pathID(c, "record_id")
	if !ok {
		return
	}
	rec, err := h.Store.GetRecord(c.Request.Context(), collectionID, recordID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// UpdateRecord applies a partial update; a null value clears that field.
func (h *RecordHandler) UpdateRecord(c *gin.Context) {
	collectionID, ok := h.collectionID(c)
	if !ok {
		return
	}
	recordID, ok := pathID(c, "record_id")
	if !ok {
		return
	}
	values, ok := bindValues(c)
	if !ok {
		return
	}
	rec, err := h.Store.UpdateRecord(c.Request.Context(), collectionID, recordID, values)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *RecordHandler) DeleteRecord(c *gin.Context) {
	collectionID, ok := h.collectionID(c)
	if !ok {
		return
	}
	recordID, ok := pathID(c, "record_id")
	if !ok {
		return
	}
	if err := h.Store.DeleteRecord(c.Request.Context(), collectionID, recordID); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
