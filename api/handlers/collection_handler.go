// api/handlers/collection_handler.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Annany2002/nebula-studio/internal/schema"
)

// CollectionHandler exposes collection and field management.
type CollectionHandler struct {
	Schema *schema.Service
}

func NewCollectionHandler(svc *schema.Service) *CollectionHandler {
	return &CollectionHandler{Schema: svc}
}

func (h *CollectionHandler) CreateCollection(c *gin.Context) {
	projectID, ok := pathID(c, "project_id")
	if !ok {
		return
	}
	var attrs schema.CollectionAttrs
	if !bindJSON(c, &attrs) {
		return
	}

	collection, err := h.Schema.CreateCollection(c.Request.Context(), projectID, attrs)
	if err != nil {
		_ = c.Error(err)
		return
	}
	customLog.Printf("Handler: Collection '%s' (%d) created in project %d", collection.Slug, collection.ID, projectID)
	c.JSON(http.StatusCreated, collection)
}

// ListCollections lists a project's collections; ?active=true hides inactive ones.
func (h *CollectionHandler) ListCollections(c *gin.Context) {
	projectID, ok := pathID(c, "project_id")
	if !ok {
		return
	}
	collections, err := h.Schema.ListCollections(c.Request.Context(), projectID, c.Query("active") == "true")
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": collections})
}

func (h *CollectionHandler) GetCollection(c *gin.Context) {
	projectID, ok := pathID(c, "project_id")
	if !ok {
		return
	}
	collectionID, ok := pathID(c, "collection_id")
	if !ok {
		return
	}
	collection, err := h.Schema.GetCollection(c.Request.Context(), projectID, collectionID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, collection)
}

func (h *CollectionHandler) UpdateCollection(c *gin.Context) {
	projectID, ok := pathID(c, "project_id")
	if !ok {
		return
	}
	collectionID, ok := pathID(c, "collection_id")
	if !ok {
		return
	}
	var upd schema.CollectionUpdate
	if !bindJSON(c, &upd) {
		return
	}
	collection, err := h.Schema.UpdateCollection(c.Request.Context(), projectID, collectionID, upd)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, collection)
}

func (h *CollectionHandler) DeleteCollection(c *gin.Context) {
	projectID, ok := pathID(c, "project_id")
	if !ok {
		return
	}
	collectionID, ok := pathID(c, "collection_id")
	if !ok {
		return
	}
	if err := h.Schema.DeleteCollection(c.Request.Context(), projectID, collectionID); err != nil {
		_ = c.Error(err)
		return
	}
	customLog.Printf("Handler: Collection %d deleted from project %d", collectionID, projectID)
	c.Status(http.StatusNoContent)
}

func (h *CollectionHandler) ListFields(c *gin.Context) {
	projectID, ok := pathID(c, "project_id")
	if !ok {
		return
	}
	collectionID, ok := pathID(c, "collection_id")
	if !ok {
		return
	}
	fields, err := h.Schema.ListFields(c.Request.Context(), projectID, collectionID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": fields})
}

func (h *CollectionHandler) AddField(c *gin.Context) {
	projectID, ok := pathID(c, "project_id")
	if !ok {
		return
	}
	collectionID, ok := pathID(c, "collection_id")
	if !ok {
		return
	}
	var attrs schema.FieldAttrs
	if !bindJSON(c, &attrs) {
		return
	}
	field, err := h.Schema.AddField(c.Request.Context(), projectID, collectionID, attrs)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, field)
}

func (h *CollectionHandler) UpdateField(c *gin.Context) {
	projectID, ok := pathID(c, "project_id")
	if !ok {
		return
	}
	collectionID, ok := pathID(c, "collection_id")
	if !ok {
		return
	}
	fieldID, ok := pathID(c, "field_id")
	if !ok {
		return
	}
	var upd schema.FieldUpdate
	if !bindJSON(c, &upd) {
		return
	}
	field, err := h.Schema.UpdateField(c.Request.Context(), projectID, collectionID, fieldID, upd)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, field)
}

func (h *CollectionHandler) DeleteField(c *gin.Context) {
	projectID, ok := pathID(c, "project_id")
	if !ok {
		return
	}
	collectionID, ok := pathID(c, "collection_id")
	if !ok {
		return
	}
	fieldID, ok := pathID(c, "field_id")
	if !ok {
		return
	}
	if err := h.Schema.DeleteField(c.Request.Context(), projectID, collectionID, fieldID); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
