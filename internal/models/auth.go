package models

import "github.com/golang-jwt/jwt/v5"

// UserRole enumerates the roles carried in access tokens.
type UserRole string

const (
	RoleAdmin     UserRole = "ADMIN"
	RoleTherapist UserRole = "THERAPIST"
	RolePatient   UserRole = "PATIENT"
	RoleParent    UserRole = "PARENT"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleTherapist, RolePatient, RoleParent:
		return true
	}
	return false
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID   string   `json:"userId"`
	Role     UserRole `json:"role"`
	FullName string   `json:"fullName"`
	jwt.RegisteredClaims
}
