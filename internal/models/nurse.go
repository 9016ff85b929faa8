package models

import "time"

// NurseRole represents the available roles for the RBAC system.
type NurseRole string

const (
	RoleAdmin      NurseRole = "ADMIN"
	RoleSupervisor NurseRole = "SUPERVISOR"
	RoleNurse      NurseRole = "NURSE"
)

// Nurse is the roster identity record mirrored from the external identity
// provider. The service never authenticates nurses; it only resolves ids and
// ward scope.
type Nurse struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	FullName  string    `db:"full_name" json:"full_name"`
	Role      NurseRole `db:"role" json:"role"`
	WardID    string    `db:"ward_id" json:"ward_id"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
