package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Alankrit2004/AV-CnS-Electric/internal/bom/service"
	"github.com/Alankrit2004/AV-CnS-Electric/internal/middleware"
)

type AuthHandler struct {
	svc *service.AuthService
}

func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

type credentialsRequest struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	user, err := h.svc.Register(req.Username, req.Password)
	if errors.Is(err, service.ErrUserExists) {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10003, "message": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 50001, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": user})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	token, user, err := h.svc.Login(req.Username, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) || errors.Is(err, service.ErrUserDisabled) {
		c.JSON(http.StatusUnauthorized, gin.H{"code": 40101, "message": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 50001, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": gin.H{"token": token, "user": user}})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	value, ok := c.Get("claims")
	if !ok {
		c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success"})
		return
	}
	claims := value.(*middleware.JWTClaims)
	// 没有exp的token无需进黑名单，签名校验已经覆盖它
	if claims.ExpiresAt != nil {
		if err := h.svc.Logout(c.Request.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 50001, "message": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success"})
}

func (h *AuthHandler) Me(c *gin.Context) {
	userID, _ := c.Get("user_id")
	userName, _ := c.Get("user_name")
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": gin.H{
		"user_id":  userID,
		"username": userName,
	}})
}
