package handler

import (
	"go-storefront/internal/middleware"
	"go-storefront/internal/service"
	"go-storefront/pkg/apperror"
	"go-storefront/pkg/response"

	"github.com/gin-gonic/gin"
)

// Login 只有 staff/admin 可以登录后台
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.Fail(c, h.log, err)
		return
	}
	token, u, err := h.accounts.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	if !u.IsStaff() {
		response.Fail(c, h.log, apperror.Forbidden("staff account required"))
		return
	}
	response.Success(c, gin.H{"token": token, "user": u})
}

func (h *Handler) Logout(c *gin.Context) {
	if err := h.accounts.Logout(c.Request.Context(), middleware.Claims(c)); err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.Success(c, nil)
}

func (h *Handler) Dashboard(c *gin.Context) {
	d, err := h.admin.Dashboard(c.Request.Context())
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.Success(c, d)
}

// SearchWishlist ?search= 匹配用户姓名或商品标题
func (h *Handler) SearchWishlist(c *gin.Context) {
	rows, err := h.admin.SearchWishlist(c.Request.Context(), c.Query("search"))
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.Success(c, gin.H{"items": rows})
}

func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.admin.ListUsers(c.Request.Context(), c.Query("search"))
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.Success(c, gin.H{"users": users})
}

// SetUserActive 不能停用自己的账号
func (h *Handler) SetUserActive(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	var req struct {
		IsActive *bool `json:"is_active"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.Fail(c, h.log, err)
		return
	}
	if req.IsActive == nil {
		response.Fail(c, h.log, apperror.ValidationField("is_active", "this field is required"))
		return
	}
	if self, _ := middleware.UserID(c); self == id && !*req.IsActive {
		response.Fail(c, h.log, apperror.ValidationField("is_active", "you cannot disable your own account"))
		return
	}
	u, err := h.admin.SetUserActive(c.Request.Context(), id, *req.IsActive)
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.Success(c, u)
}

func (h *Handler) SetUserRole(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	var req service.RoleInput
	if err := bindJSON(c, &req); err != nil {
		response.Fail(c, h.log, err)
		return
	}
	u, err := h.admin.SetUserRole(c.Request.Context(), id, req)
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.Success(c, u)
}
