// Package handler exposes the HTTP API.
package handler

import (
	"Go_Attach/config"
	"Go_Attach/internal/listener"
	"Go_Attach/internal/recordstore"
	"Go_Attach/internal/service"
	"Go_Attach/model"
	"Go_Attach/utils"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Version is reported in the capabilities.
const Version = "1.0.0"

type Handler struct {
	cfg         config.Config
	coordinator *service.Coordinator
	records     *recordstore.Store
	accounts    *service.Accounts
	heartbeat   *service.Heartbeat
	logger      zerolog.Logger
}

func New(cfg config.Config, coordinator *service.Coordinator, records *recordstore.Store, accounts *service.Accounts, heartbeat *service.Heartbeat, logger zerolog.Logger) *Handler {
	return &Handler{
		cfg:         cfg,
		coordinator: coordinator,
		records:     records,
		accounts:    accounts,
		heartbeat:   heartbeat,
		logger:      logger,
	}
}

func recordPath(c *gin.Context) model.RecordPath {
	return model.RecordPath{
		BucketID:     c.Param("bid"),
		CollectionID: c.Param("cid"),
		RecordID:     c.Param("id"),
	}
}

// fail maps service errors to the standard error body.
func (h *Handler) fail(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		failValidation(c, verr)
	case errors.Is(err, listener.ErrMetadataImmutable):
		utils.Fail(c, http.StatusBadRequest, utils.ErrnoInvalidParameters, err.Error(), nil)
	case errors.Is(err, recordstore.ErrNotFound):
		utils.Fail(c, http.StatusNotFound, utils.ErrnoInvalidResourceID, "The resource you are looking for could not be found.", gin.H{
			"uri": c.Request.URL.Path,
		})
	case errors.Is(err, service.ErrAccountExists):
		utils.Fail(c, http.StatusConflict, utils.ErrnoConflict, "Account already exists.", nil)
	case errors.Is(err, service.ErrInvalidCredentials):
		utils.Fail(c, http.StatusUnauthorized, utils.ErrnoInvalidAuthToken, "Invalid username or password.", nil)
	default:
		log := h.logger.With().Str("path", c.Request.URL.Path).Logger()
		log.Error().Err(err).Msg("request failed")
		utils.Fail(c, http.StatusInternalServerError, utils.ErrnoUndefined,
			"A programmatic error occured, developers have been informed.", nil)
	}
}

func failValidation(c *gin.Context, verr *service.ValidationError) {
	utils.Fail(c, http.StatusBadRequest, utils.ErrnoInvalidParameters, verr.Message(), gin.H{
		"errors": []gin.H{{
			"location":    verr.Location,
			"name":        verr.Name,
			"description": verr.Description,
		}},
	})
}

// invalidBody reports a malformed request body.
func (h *Handler) invalidBody(c *gin.Context, description string) {
	h.fail(c, &service.ValidationError{Location: "body", Description: description})
}
