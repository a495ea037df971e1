package rbac

import "github.com/odyssey-erp/odyssey-orders/internal/shared"

// Grant ties permissions to a role, optionally narrowed to departments.
// Role storage is owned by the identity provider; grants are static here.
type Grant struct {
	Role        shared.Role
	Departments []string
	Permissions []string
}

// DepartmentAccounting is the finance department allowed to refund.
const DepartmentAccounting = "accounting"

// DefaultGrants returns the order module policy: admin and management hold
// everything, managers everything except delete and bulk, staff the daily
// pipeline operations and accounting staff refunds.
func DefaultGrants() []Grant {
	return []Grant{
		{Role: shared.RoleAdmin, Permissions: shared.OrderScopes()},
		{Role: shared.RoleManagement, Permissions: shared.OrderScopes()},
		{Role: shared.RoleManager, Permissions: []string{
			shared.PermOrderView,
			shared.PermOrderCreate,
			shared.PermOrderStatus,
			shared.PermOrderPriority,
			shared.PermOrderPayment,
			shared.PermOrderRefund,
			shared.PermOrderArchive,
		}},
		{Role: shared.RoleStaff, Permissions: []string{
			shared.PermOrderView,
			shared.PermOrderCreate,
			shared.PermOrderStatus,
			shared.PermOrderPayment,
		}},
		{Role: shared.RoleStaff, Departments: []string{DepartmentAccounting}, Permissions: []string{
			shared.PermOrderRefund,
		}},
	}
}
