package admin

import "github.com/parcel-billing/internal/provider"

// Handler 员工端计费接口处理器入口
// 说明：除登录外均需员工 Token 与 RBAC 授权。
type Handler struct {
	*provider.Container
}

// New 创建员工端处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
