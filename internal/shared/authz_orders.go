package shared

// Order lifecycle permissions.
const (
	PermOrderView     = "orders.view"
	PermOrderCreate   = "orders.create"
	PermOrderStatus   = "orders.status"
	PermOrderPriority = "orders.priority"
	PermOrderPayment  = "orders.payment"
	PermOrderRefund   = "orders.refund"
	PermOrderArchive  = "orders.archive"
	PermOrderDelete   = "orders.delete"
	PermOrderBulk     = "orders.bulk"
)

// OrderScopes lists all permissions related to the order module.
func OrderScopes() []string {
	return []string{
		PermOrderView,
		PermOrderCreate,
		PermOrderStatus,
		PermOrderPriority,
		PermOrderPayment,
		PermOrderRefund,
		PermOrderArchive,
		PermOrderDelete,
		PermOrderBulk,
	}
}
