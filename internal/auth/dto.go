package auth

import (
	"github.com/google/uuid"

	"github.com/nexusfashion/nexus-backend/internal/users"
	"github.com/nexusfashion/nexus-backend/pkg/enums"
)

// RegisterRequest captures a customer self-registration.
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
}

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse contains the token and user produced by a successful login or
// registration.
type AuthResponse struct {
	AccessToken string         `json:"access_token"`
	User        *users.UserDTO `json:"user"`
}

// AdminCreateUserInput carries an admin-initiated account creation, used for
// vendor operators and additional admins.
type AdminCreateUserInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      enums.ActorRole
	VendorID  *uuid.UUID

	ActorUserID uuid.UUID
	ActorRole   enums.ActorRole
}
