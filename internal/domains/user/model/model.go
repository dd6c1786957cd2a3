package model

import (
	"slices"
	"time"

	"hallbook/shared/constant"
	"hallbook/shared/model"
)

const (
	TableName  = "users"
	EntityName = "user"

	FieldID        = "id"
	FieldUsername  = "username"
	FieldEmail     = "email"
	FieldPassword  = "password"
	FieldFullName  = "full_name"
	FieldRole      = "role"
	FieldActive    = "active"
	FieldLastLogin = "last_login"

	SortableFields = "created_at username email full_name role last_login"
)

// Roles lists every role a user may hold.
var Roles = []string{
	constant.RoleRequester,
	constant.RoleFaculty,
	constant.RoleHOD,
	constant.RoleAdmin,
}

type User struct {
	ID        string     `db:"id"`
	Username  string     `db:"username"`
	Email     string     `db:"email"`
	Password  string     `db:"password"`
	FullName  *string    `db:"full_name"`
	Role      string     `db:"role"`
	Active    bool       `db:"active"`
	LastLogin *time.Time `db:"last_login"`
	model.Metadata
}

func IsValidRole(role string) bool {
	return slices.Contains(Roles, role)
}
