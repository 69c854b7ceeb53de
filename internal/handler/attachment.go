package handler

import (
	"Go_Attach/internal/service"
	"Go_Attach/internal/settings"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

const multipartFormData = "multipart/form-data"

// PostAttachment stores the uploaded file and links it to the record.
func (h *Handler) PostAttachment(c *gin.Context) {
	if c.ContentType() != multipartFormData {
		h.fail(c, &service.ValidationError{Location: "headers", Description: "Content-Type should be multipart/form-data"})
		return
	}
	target := recordPath(c)
	ctx := c.Request.Context()
	if _, err := h.records.GetCollection(ctx, target.BucketID, target.CollectionID); err != nil {
		h.fail(c, err)
		return
	}

	randomize, ok := queryBool(c, "randomize")
	if !ok {
		return
	}
	gzipped, ok := queryBool(c, "gzipped")
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		h.invalidBody(c, "Invalid multipart body.")
		return
	}
	field := h.coordinator.Field()
	fields := make(map[string]string, len(form.Value))
	for name, values := range form.Value {
		if len(values) > 0 {
			fields[name] = values[0]
		}
	}

	var file *service.FileContent
	if files := form.File[field]; len(files) > 0 {
		header := files[0]
		part, err := header.Open()
		if err != nil {
			h.fail(c, err)
			return
		}
		content, err := io.ReadAll(part)
		_ = part.Close()
		if err != nil {
			h.fail(c, err)
			return
		}
		file = &service.FileContent{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Content:     content,
		}
	} else if value, sent := fields[field]; sent {
		// A part without filename is parsed as a plain value.
		delete(fields, field)
		file = &service.FileContent{Content: []byte(value)}
	} else {
		h.invalidBody(c, "Missing file.")
		return
	}

	attachment, err := h.coordinator.Upload(ctx, service.UploadRequest{
		Path:      target,
		File:      file,
		Fields:    fields,
		Randomize: randomize,
		Gzipped:   gzipped,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Location", "/"+h.cfg.RoutePrefix+target.RecordURI())
	c.JSON(http.StatusCreated, attachment)
}

// DeleteAttachment removes the file and nulls the record field.
func (h *Handler) DeleteAttachment(c *gin.Context) {
	if err := h.coordinator.Detach(c.Request.Context(), recordPath(c)); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// queryBool reads an optional boolean query parameter. On a malformed value
// the error response is written and ok is false.
func queryBool(c *gin.Context, name string) (*bool, bool) {
	raw, present := c.GetQuery(name)
	if !present {
		return nil, true
	}
	value, valid := settings.ParseBool(raw)
	if !valid {
		failValidation(c, &service.ValidationError{Location: "querystring", Name: name, Description: "Invalid boolean"})
		return nil, false
	}
	return &value, true
}
