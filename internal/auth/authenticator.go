// Package auth handles user registration, login and session tokens.
// Accounts exist to scope bills and people per user.
package auth

import (
	"context"

	"github.com/mmynk/billsplit/internal/models"
)

// Authenticator registers and verifies users.
type Authenticator interface {
	// Register creates an account for email with the given credential.
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate returns the user the credentials belong to.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential rejects credentials too weak to register with.
	ValidateCredential(credential string) error
}
