package port

import "context"

// CredentialStore hands out short-lived platform tokens. Implementations
// live in infrastructure/credstore.
type CredentialStore interface {
	// Get returns the token for a platform, or "" when none is stored.
	Get(ctx context.Context, platform string) (string, error)
	Set(ctx context.Context, platform, token string) error
	Delete(ctx context.Context, platform string) error
}
