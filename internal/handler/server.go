package handler

import (
	"Go_Attach/internal/dto"
	"Go_Attach/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	attachmentDescription = "Add file attachments to records"
	attachmentURL         = "https://github.com/Kinto/kinto-attachment/"
)

// ServerInfo advertises the attachments capability.
func (h *Handler) ServerInfo(c *gin.Context) {
	c.JSON(http.StatusOK, dto.ServerInfo{
		ProjectName:    "go_attach",
		ProjectVersion: Version,
		HTTPAPIVersion: "1.0",
		URL:            attachmentURL,
		Capabilities: map[string]any{
			"attachments": dto.AttachmentCapability{
				Version:     Version,
				Description: attachmentDescription,
				URL:         attachmentURL,
				BaseURL:     h.coordinator.Settings().BaseURL(),
			},
		},
	})
}

// Heartbeat reports every check; any failure turns the status to 503.
func (h *Handler) Heartbeat(c *gin.Context) {
	report := h.heartbeat.Report(c.Request.Context())
	status := http.StatusOK
	if !service.Healthy(report) {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, report)
}

func (h *Handler) LBHeartbeat(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{})
}
