package dto

import (
	"time"

	"hallbook/internal/domains/user/model"
	"hallbook/shared"
	"hallbook/shared/constant"
	gDto "hallbook/shared/dto"
	gModel "hallbook/shared/model"
	"hallbook/shared/timezone"

	"github.com/google/uuid"
)

type CreateUserRequest struct {
	Username string  `json:"username"            validate:"required,min=3,max=150"`
	Email    string  `json:"email"               validate:"required,email"`
	Password string  `json:"password"            validate:"required,min=8"`
	FullName *string `json:"full_name,omitempty" validate:"omitempty,max=150"`
	Role     string  `json:"role"                validate:"omitempty,oneof=REQUESTER FACULTY HOD ADMIN"`
}

func (r *CreateUserRequest) ToModel(actor string, hashedPassword string) model.User {
	role := r.Role
	if role == "" {
		role = constant.RoleRequester
	}

	now := timezone.Now()

	return model.User{
		ID:       uuid.NewString(),
		Username: r.Username,
		Email:    r.Email,
		Password: hashedPassword,
		FullName: r.FullName,
		Role:     role,
		Active:   true,
		Metadata: gModel.Metadata{
			CreatedAt:  now,
			ModifiedAt: now,
			CreatedBy:  actor,
			ModifiedBy: actor,
		},
	}
}

// UpdateUserRequest carries the fields an administrator may change. Nil fields
// are left untouched.
type UpdateUserRequest struct {
	Email    *string `db:"email"     json:"email,omitempty"     validate:"omitempty,email"`
	FullName *string `db:"full_name" json:"full_name,omitempty" validate:"omitempty,max=150"`
	Role     *string `db:"role"      json:"role,omitempty"      validate:"omitempty,oneof=REQUESTER FACULTY HOD ADMIN"`
	Active   *bool   `db:"active"    json:"active,omitempty"`
}

type UserResponse struct {
	ID        string  `json:"id"`
	Username  string  `json:"username"`
	Email     string  `json:"email"`
	FullName  *string `json:"full_name,omitempty"`
	Role      string  `json:"role"`
	Active    bool    `json:"active"`
	LastLogin *string `json:"last_login,omitempty"`
	gDto.Metadata
}

func (r *UserResponse) FromModel(model model.User) {
	r.ID = model.ID
	r.Username = model.Username
	r.Email = model.Email
	r.FullName = model.FullName
	r.Role = model.Role
	r.Active = model.Active
	r.LastLogin = timezone.FormatPtr(model.LastLogin, constant.DateFormat)

	r.Metadata.FromModel(model.Metadata)
}

type GetUsersResponse struct {
	Users     []UserResponse `json:"users"`
	TotalPage int            `json:"total_page"`
	TotalData int            `json:"total_data"`
}

func (r *GetUsersResponse) FromModels(models []model.User, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Users = make([]UserResponse, len(models))
	for i, mod := range models {
		r.Users[i].FromModel(mod)
	}
}

// LastLoginUpdate is the partial row written after a successful login.
type LastLoginUpdate struct {
	LastLogin time.Time `db:"last_login"`
}

// PasswordUpdate is the partial row written on password change.
type PasswordUpdate struct {
	Password string `db:"password"`
}
