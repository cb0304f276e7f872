package model

import "github.com/golang-jwt/jwt"

// UserClaims carries the authenticated identity for tenant-scoped routes.
type UserClaims struct {
	UserName string `json:"user_name"`
	TenantID string `json:"tenant_id"`
	jwt.StandardClaims
}
