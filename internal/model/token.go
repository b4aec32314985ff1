package model

import "github.com/google/uuid"

// TokenManager generates and validates access and email verification tokens.
type TokenManager interface {
	GenerateAccessToken(accountID uuid.UUID) (string, error)
	GenerateVerificationToken(accountID uuid.UUID) (string, error)
	ParseAccessToken(token string) (uuid.UUID, error)
	ParseVerificationToken(token string) (uuid.UUID, error)
}
