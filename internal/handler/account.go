package handler

import (
	"Go_Attach/internal/dto"
	"Go_Attach/utils"
	"net/http"

	"github.com/gin-gonic/gin"
)

// CreateAccount registers an active account.
func (h *Handler) CreateAccount(c *gin.Context) {
	var req dto.AccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.invalidBody(c, "Invalid JSON.")
		return
	}
	account, err := h.accounts.Create(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ResourceResponse{Data: map[string]any{
		"id":       account.UserName,
		"username": account.UserName,
	}})
}

// Login authenticates an account and returns a Bearer token.
func (h *Handler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.invalidBody(c, "username and password are required.")
		return
	}
	account, err := h.accounts.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	token, err := utils.GenerateToken(h.cfg.JWTSecret, h.cfg.JWTTTL, account.ID, account.UserName)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.LoginResponse{
		Token: token,
		User:  gin.H{"id": account.ID, "username": account.UserName},
	})
}
