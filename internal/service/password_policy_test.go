package service

import (
	"errors"
	"testing"

	"github.com/parcel-billing/internal/config"
)

func TestValidateStaffPassword(t *testing.T) {
	policy := config.PasswordPolicyConfig{MinLength: 8, RequireNumber: true, RequireUpper: true}
	cases := []struct {
		name     string
		password string
		wantKey  string
	}{
		{name: "too short", password: "Ab1", wantKey: "error.password_min_length"},
		{name: "no upper", password: "dispatcher1", wantKey: "error.password_require_upper"},
		{name: "no digit", password: "Dispatcher", wantKey: "error.password_require_number"},
		{name: "ok", password: "Dispatcher1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateStaffPassword(policy, tc.password)
			if tc.wantKey == "" {
				if err != nil {
					t.Fatalf("want nil got %v", err)
				}
				return
			}
			var policyErr PasswordPolicyError
			if !errors.As(err, &policyErr) || policyErr.Key() != tc.wantKey {
				t.Fatalf("want %s got %v", tc.wantKey, err)
			}
			if !errors.Is(err, ErrWeakPassword) {
				t.Fatalf("policy error should match ErrWeakPassword")
			}
		})
	}
}

func TestValidateStaffPasswordMessage(t *testing.T) {
	err := ValidateStaffPassword(config.PasswordPolicyConfig{MinLength: 10}, "short")
	if err == nil || err.Error() != "Password must be at least 10 characters" {
		t.Fatalf("unexpected message: %v", err)
	}
	if err := ValidateStaffPassword(config.PasswordPolicyConfig{}, ""); err != nil {
		t.Fatalf("empty policy should pass, got %v", err)
	}
}
