package i18n

var enUS = map[string]string{
	"error.bad_request":                "Invalid request parameters",
	"error.unauthorized":               "Unauthorized",
	"error.forbidden":                  "Permission denied",
	"error.not_found":                  "Resource not found",
	"error.internal":                   "Internal server error",
	"error.too_many_requests":          "Too many requests, please try again later",
	"error.login_failed":               "Invalid username or password",
	"error.token_invalid":              "Invalid or expired token",
	"error.staff_id_invalid":           "Invalid staff id",
	"error.staff_id_type_invalid":      "Staff id type invalid",
	"error.id_invalid":                 "Invalid id",
	"error.customer_not_found":         "Customer not found",
	"error.branch_not_found":           "Branch not found",
	"error.delivery_order_not_found":   "Delivery order not found",
	"error.package_not_found":          "Package not found",
	"error.order_has_no_packages":      "Delivery order has no packages",
	"error.package_price_missing":      "Package price is not configured",
	"error.order_status_invalid":       "Delivery order status does not allow this operation",
	"error.enum_invalid":               "Unsupported value",
	"error.charge_type_required":       "Charge type is required",
	"error.charge_type_not_allowed":    "Delivery fee charges cannot be added manually",
	"error.charge_amount_required":     "Charge amount is required",
	"error.discount_type_required":     "Discount type is required",
	"error.discount_amount_required":   "Discount amount is required",
	"error.discount_exists":            "Discount already exists for this order",
	"error.payment_method_required":    "Payment method is required",
	"error.total_amount_required":      "Total amount is required",
	"error.total_amount_incorrect":     "Total amount incorrect",
	"error.end_at_required":            "End date is required",
	"error.date_invalid":               "Invalid date, expected RFC 3339",
	"error.operator_txn_required":      "Operator transaction id is required",
	"error.payment_time_required":      "Payment time is required",
	"error.no_unpaid_charges":          "No unpaid charges",
	"error.charges_reserved":           "Charges are being paid by another payment request",
	"error.charge_already_settled":     "Charge is already paid and cannot be repriced",
	"error.reservation_lost":           "Charges are no longer held by this payment request",
	"error.payment_in_progress":        "Another payment is being processed, please retry",
	"error.pickup_window_closed":       "Pickup time is outside business hours",
	"error.payment_request_not_found":  "Payment request not found",
	"error.callback_status_required":   "Callback status is required",
	"error.callback_request_mismatch":  "Payment request id does not match",
	"error.invoice_not_found":          "Delivery invoice not found",
	"error.invoice_has_no_charges":     "Delivery invoice has no charges",
	"error.invoice_range_invalid":      "Invoice start must be before end",
	"error.payment_gateway_failed":     "Payment gateway request failed",
	"success.callback_processed":       "Callback processed successfully",
	"success.payment_already_complete": "Payment already complete",
	"success.no_unpaid_charges":        "No unpaid charges",
	"error.auth_header_missing":        "Authorization header is missing",
	"error.auth_header_invalid":        "Authorization header format is invalid",
	"error.token_revoked":              "Token has been revoked, please sign in again",
	"error.rate_limited":               "Too many requests, please retry in %d seconds",
	"error.login_too_many":             "Too many login attempts, please retry in %d seconds",
	"error.rate_limit_unavailable":     "Rate limiter unavailable",
	"error.password_min_length":        "Password must be at least %d characters",
	"error.password_require_upper":     "Password must contain an uppercase letter",
	"error.password_require_lower":     "Password must contain a lowercase letter",
	"error.password_require_number":    "Password must contain a digit",
	"error.password_require_special":   "Password must contain a special character",
}

var zhCN = map[string]string{
	"error.bad_request":                "请求参数错误",
	"error.unauthorized":               "未登录或登录已过期",
	"error.forbidden":                  "无权限访问",
	"error.not_found":                  "资源不存在",
	"error.internal":                   "服务器内部错误",
	"error.too_many_requests":          "请求过于频繁，请稍后再试",
	"error.login_failed":               "用户名或密码错误",
	"error.token_invalid":              "登录凭证无效或已过期",
	"error.staff_id_invalid":           "员工 ID 无效",
	"error.staff_id_type_invalid":      "员工 ID 类型错误",
	"error.id_invalid":                 "ID 无效",
	"error.customer_not_found":         "客户不存在",
	"error.branch_not_found":           "分支不存在",
	"error.delivery_order_not_found":   "配送订单不存在",
	"error.package_not_found":          "包裹不存在",
	"error.order_has_no_packages":      "配送订单没有包裹",
	"error.package_price_missing":      "未配置该尺寸的运费",
	"error.order_status_invalid":       "当前订单状态不允许该操作",
	"error.enum_invalid":               "不支持的取值",
	"error.charge_type_required":       "费用类型不能为空",
	"error.charge_type_not_allowed":    "运费不能手动添加",
	"error.charge_amount_required":     "费用金额不能为空",
	"error.discount_type_required":     "折扣类型不能为空",
	"error.discount_amount_required":   "折扣金额不能为空",
	"error.discount_exists":            "该订单已存在同类折扣",
	"error.payment_method_required":    "支付方式不能为空",
	"error.total_amount_required":      "总金额不能为空",
	"error.total_amount_incorrect":     "总金额不正确",
	"error.end_at_required":            "截止日期不能为空",
	"error.date_invalid":               "日期格式错误，应为 RFC 3339",
	"error.operator_txn_required":      "操作流水号不能为空",
	"error.payment_time_required":      "支付时间不能为空",
	"error.no_unpaid_charges":          "没有未付费用",
	"error.charges_reserved":           "费用正在由其他支付请求处理",
	"error.charge_already_settled":     "费用已支付，不能重新计价",
	"error.reservation_lost":           "费用已不再由该支付请求占用",
	"error.payment_in_progress":        "已有支付正在处理，请稍后重试",
	"error.pickup_window_closed":       "取件时间不在营业时间内",
	"error.payment_request_not_found":  "支付请求不存在",
	"error.callback_status_required":   "回调状态不能为空",
	"error.callback_request_mismatch":  "支付请求 ID 不一致",
	"error.invoice_not_found":          "账单不存在",
	"error.invoice_has_no_charges":     "账单没有关联费用",
	"error.invoice_range_invalid":      "账单开始时间必须早于结束时间",
	"error.payment_gateway_failed":     "支付网关请求失败",
	"success.callback_processed":       "回调处理成功",
	"success.payment_already_complete": "已完成支付",
	"success.no_unpaid_charges":        "没有未付费用",
	"error.auth_header_missing":        "缺少认证信息",
	"error.auth_header_invalid":        "认证信息格式错误",
	"error.token_revoked":              "登录状态已失效，请重新登录",
	"error.rate_limited":               "请求过于频繁，请 %d 秒后重试",
	"error.login_too_many":             "登录尝试次数过多，请 %d 秒后重试",
	"error.rate_limit_unavailable":     "限流服务不可用",
	"error.password_min_length":        "密码长度不能少于 %d 位",
	"error.password_require_upper":     "密码必须包含大写字母",
	"error.password_require_lower":     "密码必须包含小写字母",
	"error.password_require_number":    "密码必须包含数字",
	"error.password_require_special":   "密码必须包含特殊字符",
}
