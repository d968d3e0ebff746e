package ports

import (
	"context"

	"github.com/stackgnosis/sg-cli/internal/domain"
)

// CredentialStore persists the login credential across runs. Save writes
// all fields together and Clear removes them together; Load returns
// domain.ErrCredentialNotSet when nothing is stored.
type CredentialStore interface {
	Load(ctx context.Context) (domain.Credential, error)
	Save(ctx context.Context, cred domain.Credential) error
	Clear(ctx context.Context) error
}
