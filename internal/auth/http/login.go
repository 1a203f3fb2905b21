package http

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/codecove/codecove-backend/config"
)

// Handler drives the provider's authorization-code flow for browser
// clients. The API itself only ever sees the resulting bearer tokens.
type Handler struct {
	oauth    *oauth2.Config
	audience string
	logger   *zap.Logger
}

func New(cfg *config.AuthConfig, logger *zap.Logger) *Handler {
	return &Handler{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  fmt.Sprintf("https://%s/authorize", cfg.Domain),
				TokenURL: fmt.Sprintf("https://%s/oauth/token", cfg.Domain),
			},
		},
		audience: cfg.Audience,
		logger:   logger,
	}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/login", h.login)
	rg.GET("/callback", h.callback)
}

func (h *Handler) login(c *gin.Context) {
	state := newState()
	c.SetCookie("auth_state", state, 300, "/", "", true, true)

	url := h.oauth.AuthCodeURL(state,
		oauth2.SetAuthURLParam("audience", h.audience))
	c.Redirect(http.StatusTemporaryRedirect, url)
}

func (h *Handler) callback(c *gin.Context) {
	state, err := c.Cookie("auth_state")
	if err != nil || state == "" || c.Query("state") != state {
		c.JSON(http.StatusBadRequest, gin.H{"error": "state mismatch"})
		return
	}

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing authorization code"})
		return
	}

	token, err := h.oauth.Exchange(c.Request.Context(), code)
	if err != nil {
		h.logger.Error("token exchange failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to exchange token"})
		return
	}

	out := gin.H{
		"access_token": token.AccessToken,
		"token_type":   token.TokenType,
		"expiry":       token.Expiry,
	}
	if idToken, ok := token.Extra("id_token").(string); ok {
		out["id_token"] = idToken
	}
	c.JSON(http.StatusOK, out)
}

func newState() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "state"
	}
	return hex.EncodeToString(b)
}
