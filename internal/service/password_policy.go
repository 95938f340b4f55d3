package service

import (
	"unicode"

	"github.com/parcel-billing/internal/config"
	"github.com/parcel-billing/internal/i18n"
)

// PasswordPolicyError 密码不满足策略，errors.Is 匹配 ErrWeakPassword
type PasswordPolicyError struct {
	key  string
	args []interface{}
}

func (e PasswordPolicyError) Error() string {
	return i18n.Sprintf(i18n.DefaultLocale, e.key, e.args...)
}

func (e PasswordPolicyError) Is(target error) bool {
	return target == ErrWeakPassword
}

// Key i18n 消息键
func (e PasswordPolicyError) Key() string {
	return e.key
}

// Args 消息参数
func (e PasswordPolicyError) Args() []interface{} {
	return e.args
}

// ValidateStaffPassword 按配置校验员工密码，策略为空时放行
func ValidateStaffPassword(policy config.PasswordPolicyConfig, password string) error {
	if policy.MinLength > 0 && len([]rune(password)) < policy.MinLength {
		return PasswordPolicyError{key: "error.password_min_length", args: []interface{}{policy.MinLength}}
	}

	var hasUpper, hasLower, hasNumber, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasNumber = true
		default:
			hasSpecial = true
		}
	}

	switch {
	case policy.RequireUpper && !hasUpper:
		return PasswordPolicyError{key: "error.password_require_upper"}
	case policy.RequireLower && !hasLower:
		return PasswordPolicyError{key: "error.password_require_lower"}
	case policy.RequireNumber && !hasNumber:
		return PasswordPolicyError{key: "error.password_require_number"}
	case policy.RequireSpecial && !hasSpecial:
		return PasswordPolicyError{key: "error.password_require_special"}
	}
	return nil
}
