package validator_test

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"hallbook/shared/failure"
	"hallbook/shared/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type account struct {
	Username string `json:"username" validate:"required,max=20"`
	Email    string `json:"email"    validate:"required,email"`
	Role     string `json:"role"     validate:"omitempty,oneof=REQUESTER FACULTY HOD ADMIN"`
}

type window struct {
	StartTime time.Time `json:"start_time" validate:"required"`
	EndTime   time.Time `json:"end_time"   validate:"required,gtfield=StartTime"`
}

type upload struct {
	Data []byte `json:"-" validate:"mimetypes=image/png image/jpeg,maxfilesize=0.001"`
}

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name    string
		data    account
		wantMsg string
	}{
		{
			name: "valid",
			data: account{Username: "hod1", Email: "hod1@example.com", Role: "HOD"},
		},
		{
			name:    "missing username",
			data:    account{Email: "hod1@example.com"},
			wantMsg: "username is required",
		},
		{
			name:    "invalid email",
			data:    account{Username: "hod1", Email: "nope"},
			wantMsg: "email must be a valid email address",
		},
		{
			name:    "unknown role",
			data:    account{Username: "hod1", Email: "hod1@example.com", Role: "DEAN"},
			wantMsg: "role must be one of REQUESTER FACULTY HOD ADMIN",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateStruct(&tt.data)

			if tt.wantMsg == "" {
				require.NoError(t, err)

				return
			}

			require.Error(t, err)
			assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
			assert.Equal(t, tt.wantMsg, err.Error())
		})
	}
}

func TestValidateStruct_TimeWindow(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, validator.ValidateStruct(&window{StartTime: start, EndTime: start.Add(time.Hour)}))

	err := validator.ValidateStruct(&window{StartTime: start, EndTime: start})
	require.Error(t, err)
	assert.Equal(t, "end_time must be after start_time", err.Error())
}

func TestValidateStruct_FileContent(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr bool
	}{
		{name: "png", data: pngBytes},
		{name: "text disguised as image", data: []byte("hello world"), wantErr: true},
		{name: "empty", data: nil, wantErr: true},
		{name: "too large", data: append(append([]byte{}, pngBytes...), make([]byte, 2048)...), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateStruct(&upload{Data: tt.data})

			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))

				return
			}

			require.NoError(t, err)
		})
	}
}

func TestValidateVar(t *testing.T) {
	require.NoError(t, validator.ValidateVar("1d5c2f2e-0b7a-4b8e-9e35-6a3c1f6f0c11", "hall_id", "uuid"))

	err := validator.ValidateVar("not-a-uuid", "hall_id", "uuid")
	require.Error(t, err)
	assert.Equal(t, "hall_id must be a valid UUID", err.Error())

	err = validator.ValidateVar("CANCELLED", "status", "oneof=APPROVED REJECTED")
	require.Error(t, err)
	assert.Equal(t, "status must be one of APPROVED REJECTED", err.Error())
}

func TestValidateSortBy(t *testing.T) {
	const allowed = "created_at name"

	require.NoError(t, validator.ValidateSortBy("", allowed))
	require.NoError(t, validator.ValidateSortBy("name", allowed))

	err := validator.ValidateSortBy("password", allowed)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
	assert.Equal(t, "sort_by must be one of created_at name", err.Error())
}

func TestValidateStruct_PasswordChange(t *testing.T) {
	type change struct {
		CurrentPassword string `json:"current_password" validate:"required"`
		NewPassword     string `json:"new_password"     validate:"required,min=8,nefield=CurrentPassword"`
	}

	err := validator.ValidateStruct(&change{CurrentPassword: "password123", NewPassword: "password123"})
	require.Error(t, err)
	assert.Equal(t, "new_password must differ from current_password", err.Error())

	err = validator.ValidateStruct(&change{CurrentPassword: "password123", NewPassword: "short"})
	require.Error(t, err)
	assert.Equal(t, "new_password must be greater than or equal to 8", err.Error())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "valid", body: `{"username":"req1","email":"req1@example.com"}`},
		{name: "fails rules", body: `{"username":"req1","email":"bad"}`, wantErr: true},
		{name: "malformed", body: `{"username":`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var data account

			err := validator.Validate(strings.NewReader(tt.body), &data)

			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, "req1", data.Username)
		})
	}
}
