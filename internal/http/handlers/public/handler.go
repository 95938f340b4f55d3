package public

import "github.com/parcel-billing/internal/provider"

// Handler 公开接口处理器入口
// 说明：仅包含支付网关回调与健康检查，不要求员工登录。
type Handler struct {
	*provider.Container
}

// New 创建公开处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
