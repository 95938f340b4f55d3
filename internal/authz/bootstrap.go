package authz

import (
	"fmt"

	"github.com/parcel-billing/internal/constants"
)

// RoleSeed 预置角色定义
type RoleSeed struct {
	Role     string
	Inherits []string
	Policies []Policy
}

// BuiltinRoleSeeds 系统预置角色矩阵
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role: constants.StaffRoleReadonlyAuditor,
			Policies: []Policy{
				{Object: "/*", Action: "GET"},
			},
		},
		{
			Role:     constants.StaffRoleDispatcher,
			Inherits: []string{constants.StaffRoleReadonlyAuditor},
			Policies: []Policy{
				{Object: "/pricing", Action: "POST"},
				{Object: "/delivery-orders/:id/delivery-fees", Action: "POST"},
				{Object: "/delivery-orders/:id/discounts", Action: "POST"},
				{Object: "/delivery-orders/:id/payment-requests", Action: "POST"},
				{Object: "/packages/:id/charges", Action: "POST"},
			},
		},
		{
			Role:     constants.StaffRoleFinance,
			Inherits: []string{constants.StaffRoleDispatcher},
			Policies: []Policy{
				{Object: "/delivery-orders/:id/payment-confirmations", Action: "POST"},
				{Object: "/customers/:id/delivery-payment-requests", Action: "POST"},
				{Object: "/customers/:id/delivery-payment-confirmations", Action: "POST"},
				{Object: "/customers/:id/delivery-invoices", Action: "POST"},
				{Object: "/delivery-payment-requests/:id/expire", Action: "POST"},
			},
		},
	}
}

// BootstrapBuiltinRoles 幂等写入预置角色、继承关系与默认策略
func (s *Service) BootstrapBuiltinRoles() error {
	if err := s.ready(); err != nil {
		return err
	}
	for _, seed := range BuiltinRoleSeeds() {
		role, err := s.EnsureRole(seed.Role)
		if err != nil {
			return err
		}
		for _, parent := range seed.Inherits {
			parentRole, err := s.EnsureRole(parent)
			if err != nil {
				return err
			}
			if _, err := s.enforcer.AddNamedGroupingPolicy("g", role, parentRole); err != nil {
				return fmt.Errorf("link %s to %s: %w", role, parentRole, err)
			}
		}
		for _, policy := range seed.Policies {
			if err := s.GrantRolePolicy(role, policy.Object, policy.Action); err != nil {
				return err
			}
		}
	}
	return nil
}
