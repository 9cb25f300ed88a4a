package auth

// Builtin permission codes. Codes are stable tokens; routes and seeds refer
// to them by value.
const (
	PermManageUsers     = "MANAGE_USERS"
	PermManageRoles     = "MANAGE_ROLES"
	PermManageCompanies = "MANAGE_COMPANIES"
	PermManageAPIKeys   = "MANAGE_API_KEYS"
	PermViewAPILogs     = "VIEW_API_LOGS"

	PermViewCustomerList = "VIEW_CUSTOMER_LIST"
	PermViewOrderList    = "VIEW_ORDER_LIST"
	PermEditOrderStatus  = "EDIT_ORDER_STATUS"
)

var BuiltinPermissions = []Permission{
	{Code: PermManageUsers, Description: "Create and list users"},
	{Code: PermManageRoles, Description: "Manage roles and their permissions"},
	{Code: PermManageCompanies, Description: "Manage tenant companies"},
	{Code: PermManageAPIKeys, Description: "Issue and revoke company API keys"},
	{Code: PermViewAPILogs, Description: "Query the API audit log"},
	{Code: PermViewCustomerList, Description: "View the customer list"},
	{Code: PermViewOrderList, Description: "View the order list"},
	{Code: PermEditOrderStatus, Description: "Edit order status"},
}
