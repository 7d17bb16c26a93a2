package model

// Privilege represents a permission that can be assigned to users
type Privilege struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"` // e.g., "batch:create"
	Name string `gorm:"type:varchar(100)" json:"name"`                     // e.g., "Create Batch"
}

// Default privileges for the system
var DefaultPrivileges = []Privilege{
	// User management
	{Code: "user:view", Name: "View User"},
	{Code: "user:create", Name: "Create User"},
	{Code: "user:update", Name: "Update User"},
	{Code: "user:delete", Name: "Delete User"},
	{Code: "user:update_privilege", Name: "Update User Privileges"},
	// Batch management
	{Code: "batch:view", Name: "View Batch"},
	{Code: "batch:create", Name: "Create Batch"},
	{Code: "batch:update", Name: "Update Batch"},
	{Code: "batch:finalize", Name: "Finalize Batch"},
	{Code: "batch:delete", Name: "Delete Batch"},
	// Stock and expiry
	{Code: "stock:view", Name: "View Stock"},
	{Code: "discard:create", Name: "Discard Expired Stock"},
	{Code: "discard:view", Name: "View Discard Records"},
	// Activity history
	{Code: "activity:view", Name: "View Activity Logs"},
	// Patient registry
	{Code: "patient:view", Name: "View Patient"},
	{Code: "patient:create", Name: "Register Patient"},
	{Code: "patient:update", Name: "Update Patient"},
	{Code: "patient:delete", Name: "Delete Patient"},
	// Dashboard
	{Code: "dashboard:view", Name: "View Dashboard"},
}
