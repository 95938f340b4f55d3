package billing

import (
	"fmt"
	"strings"
)

// ChargeType 费用类型
type ChargeType string

const (
	ChargeTypeDeliveryFee   ChargeType = "DELIVERY_FEE"
	ChargeTypePickUpDelay   ChargeType = "PICK_UP_DELAY"
	ChargeTypePhoneOrder    ChargeType = "PHONE_ORDER"
	ChargeTypeExtraDistance ChargeType = "EXTRA_DISTANCE"
)

// ChargeStatus 费用状态
type ChargeStatus string

const (
	ChargeStatusUnpaid ChargeStatus = "UNPAID"
	ChargeStatusPaid   ChargeStatus = "PAID"
)

// DiscountType 折扣类型
type DiscountType string

const (
	DiscountTypeBatching DiscountType = "BATCHING"
)

// DiscountStatus 折扣状态
type DiscountStatus string

const (
	DiscountStatusPending DiscountStatus = "PENDING"
	DiscountStatusApplied DiscountStatus = "APPLIED"
)

// PaymentStatus 由费用集合推导出的支付状态
type PaymentStatus string

const (
	PaymentStatusNoCharge PaymentStatus = "NO_CHARGE"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusUnpaid   PaymentStatus = "UNPAID"
	PaymentStatusPartial  PaymentStatus = "PARTIAL"
)

// CallbackStatus 支付网关回调状态
type CallbackStatus string

const (
	CallbackStatusSuccess CallbackStatus = "SUCCESS"
	CallbackStatusFailure CallbackStatus = "FAILURE"
)

// PackageSize 包裹尺寸
type PackageSize string

const (
	PackageSizeSmall  PackageSize = "SMALL"
	PackageSizeMedium PackageSize = "MEDIUM"
	PackageSizeLarge  PackageSize = "LARGE"
)

// ParseError 枚举值解析失败
type ParseError struct {
	Kind  string
	Value string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid %s: %q", e.Kind, e.Value)
}

var chargeTypes = map[string]ChargeType{
	string(ChargeTypeDeliveryFee):   ChargeTypeDeliveryFee,
	string(ChargeTypePickUpDelay):   ChargeTypePickUpDelay,
	string(ChargeTypePhoneOrder):    ChargeTypePhoneOrder,
	string(ChargeTypeExtraDistance): ChargeTypeExtraDistance,
}

var discountTypes = map[string]DiscountType{
	string(DiscountTypeBatching): DiscountTypeBatching,
}

var callbackStatuses = map[string]CallbackStatus{
	string(CallbackStatusSuccess): CallbackStatusSuccess,
	string(CallbackStatusFailure): CallbackStatusFailure,
}

var packageSizes = map[string]PackageSize{
	string(PackageSizeSmall):  PackageSizeSmall,
	string(PackageSizeMedium): PackageSizeMedium,
	string(PackageSizeLarge):  PackageSizeLarge,
}

// ParseChargeType 解析费用类型，匹配区分大小写
func ParseChargeType(raw string) (ChargeType, error) {
	if v, ok := chargeTypes[strings.TrimSpace(raw)]; ok {
		return v, nil
	}
	return "", &ParseError{Kind: "charge type", Value: raw}
}

// ParseDiscountType 解析折扣类型
func ParseDiscountType(raw string) (DiscountType, error) {
	if v, ok := discountTypes[strings.TrimSpace(raw)]; ok {
		return v, nil
	}
	return "", &ParseError{Kind: "discount type", Value: raw}
}

// ParseCallbackStatus 解析回调状态
func ParseCallbackStatus(raw string) (CallbackStatus, error) {
	if v, ok := callbackStatuses[strings.TrimSpace(raw)]; ok {
		return v, nil
	}
	return "", &ParseError{Kind: "callback status", Value: raw}
}

// ParsePackageSize 解析包裹尺寸
func ParsePackageSize(raw string) (PackageSize, error) {
	if v, ok := packageSizes[strings.TrimSpace(raw)]; ok {
		return v, nil
	}
	return "", &ParseError{Kind: "package size", Value: raw}
}
