package handler

import (
	"go-storefront/internal/middleware"
	"go-storefront/internal/service"
	"go-storefront/pkg/response"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Register(c *gin.Context) {
	var req service.RegisterInput
	if err := bindJSON(c, &req); err != nil {
		response.Fail(c, h.log, err)
		return
	}
	u, err := h.svc.Accounts.Register(c.Request.Context(), req)
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.Created(c, u)
}

func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.Fail(c, h.log, err)
		return
	}
	token, u, err := h.svc.Accounts.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.Success(c, gin.H{"token": token, "user": u})
}

// Logout 注销当前 Token; 购物车属于会话, 不受影响
func (h *Handler) Logout(c *gin.Context) {
	if err := h.svc.Accounts.Logout(c.Request.Context(), middleware.Claims(c)); err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.Success(c, nil)
}

func (h *Handler) ChangePassword(c *gin.Context) {
	var req service.ChangePasswordInput
	if err := bindJSON(c, &req); err != nil {
		response.Fail(c, h.log, err)
		return
	}
	userID, _ := middleware.UserID(c)
	if err := h.svc.Accounts.ChangePassword(c.Request.Context(), userID, req); err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.Success(c, nil)
}

func (h *Handler) PersonalDetails(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	u, err := h.svc.Accounts.PersonalDetails(c.Request.Context(), userID)
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.Success(c, u)
}

func (h *Handler) UpdatePersonalDetails(c *gin.Context) {
	var req service.PersonalDetailsInput
	if err := bindJSON(c, &req); err != nil {
		response.Fail(c, h.log, err)
		return
	}
	userID, _ := middleware.UserID(c)
	u, err := h.svc.Accounts.UpdatePersonalDetails(c.Request.Context(), userID, req)
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.Success(c, u)
}
