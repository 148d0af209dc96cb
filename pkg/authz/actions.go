package authz

// Action constants checked against the permission matrix.
const (
	ActionView   = "view"
	ActionCreate = "create"
	ActionEdit   = "edit"
	ActionDelete = "delete"
	ActionExport = "export"
)

// Resource names for the built-in collections. Surrounding applications may
// introduce their own; resources are opaque keys into the matrix.
const (
	ResourceClinics   = "clinics"
	ResourceEmployees = "employees"
	ResourceClients   = "clients"
	ResourceUsers     = "users"
)
