package admin

import (
	"errors"
	"time"

	"github.com/parcel-billing/internal/authz"
	"github.com/parcel-billing/internal/http/response"
	"github.com/parcel-billing/internal/service"

	"github.com/gin-gonic/gin"
)

// LoginRequest 员工登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse 员工登录响应
type LoginResponse struct {
	Token     string                 `json:"token"`
	Staff     map[string]interface{} `json:"staff"`
	ExpiresAt string                 `json:"expires_at"`
}

// StaffLogin 员工登录
func (h *Handler) StaffLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	staff, token, expiresAt, err := h.AuthService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			requestLog(c).Infow("staff_login_rejected", "username", req.Username, "client_ip", c.ClientIP())
			respondError(c, response.CodeUnauthorized, "error.login_failed", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, LoginResponse{
		Token: token,
		Staff: map[string]interface{}{
			"id":       staff.ID,
			"username": staff.Username,
			"role":     staff.Role,
			"is_super": staff.IsSuper,
		},
		ExpiresAt: expiresAt.Format(time.RFC3339),
	})
}

// GetStaffMe 当前员工信息与有效权限
func (h *Handler) GetStaffMe(c *gin.Context) {
	staffID, ok := getStaffID(c)
	if !ok {
		return
	}
	state, err := h.AuthService.ResolveStaffAuthState(c.Request.Context(), staffID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	roles := []string{}
	policies := []authz.Policy{}
	if h.AuthzService != nil {
		if roles, err = h.AuthzService.GetStaffRoles(staffID); err != nil {
			respondError(c, response.CodeInternal, "error.internal", err)
			return
		}
		if policies, err = h.AuthzService.GetStaffPolicies(staffID); err != nil {
			respondError(c, response.CodeInternal, "error.internal", err)
			return
		}
	}
	response.Success(c, gin.H{
		"id":       state.StaffID,
		"username": state.Username,
		"role":     state.Role,
		"is_super": state.IsSuper,
		"roles":    roles,
		"policies": policies,
	})
}
