package handler

import (
	"Go_Attach/internal/dto"
	"Go_Attach/internal/recordstore"
	"Go_Attach/model"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func createdStatus(created bool) int {
	if created {
		return http.StatusCreated
	}
	return http.StatusOK
}

func (h *Handler) PutBucket(c *gin.Context) {
	bucket, created, err := h.records.PutBucket(c.Request.Context(), c.Param("bid"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(createdStatus(created), dto.ResourceResponse{Data: map[string]any{
		"id":            bucket.ID,
		"last_modified": bucket.LastModified,
	}})
}

func (h *Handler) DeleteBucket(c *gin.Context) {
	bid := c.Param("bid")
	if err := h.records.DeleteBucket(c.Request.Context(), bid); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ResourceResponse{Data: map[string]any{"id": bid, "deleted": true}})
}

func (h *Handler) PutCollection(c *gin.Context) {
	collection, created, err := h.records.PutCollection(c.Request.Context(), c.Param("bid"), c.Param("cid"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(createdStatus(created), dto.ResourceResponse{Data: map[string]any{
		"id":            collection.ID,
		"last_modified": collection.LastModified,
	}})
}

func (h *Handler) DeleteCollection(c *gin.Context) {
	cid := c.Param("cid")
	if err := h.records.DeleteCollection(c.Request.Context(), c.Param("bid"), cid); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ResourceResponse{Data: map[string]any{"id": cid, "deleted": true}})
}

func (h *Handler) GetRecord(c *gin.Context) {
	record, err := h.records.GetRecord(c.Request.Context(), recordPath(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.writeRecord(c, http.StatusOK, record)
}

// CreateRecord stores a record under a generated id.
func (h *Handler) CreateRecord(c *gin.Context) {
	var req dto.RecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.invalidBody(c, "Invalid JSON.")
		return
	}
	target := recordPath(c)
	target.RecordID = uuid.NewString()
	record, _, err := h.records.PutRecord(c.Request.Context(), target, req.Data, req.Permissions, recordstore.WriteOptions{})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.writeRecord(c, http.StatusCreated, record)
}

func (h *Handler) PutRecord(c *gin.Context) {
	var req dto.RecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.invalidBody(c, "Invalid JSON.")
		return
	}
	record, created, err := h.records.PutRecord(c.Request.Context(), recordPath(c), req.Data, req.Permissions, recordstore.WriteOptions{})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.writeRecord(c, createdStatus(created), record)
}

func (h *Handler) PatchRecord(c *gin.Context) {
	var req dto.RecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.invalidBody(c, "Invalid JSON.")
		return
	}
	record, err := h.records.PatchRecord(c.Request.Context(), recordPath(c), recordstore.Patch{
		Data:        req.Data,
		Permissions: req.Permissions,
	}, recordstore.WriteOptions{})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.writeRecord(c, http.StatusOK, record)
}

func (h *Handler) DeleteRecord(c *gin.Context) {
	record, err := h.records.DeleteRecord(c.Request.Context(), recordPath(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ResourceResponse{Data: map[string]any{
		"id":            record.ID,
		"last_modified": record.LastModified,
		"deleted":       true,
	}})
}

func (h *Handler) writeRecord(c *gin.Context, status int, record *model.Record) {
	body, err := recordstore.Body(record)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(status, body)
}
