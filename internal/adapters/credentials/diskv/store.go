// Package diskv persists the login credential in a diskv-backed
// key/value directory, one key per field: accessToken, userEmail,
// userSlug. The session service is the only writer.
package diskv

import (
	"context"
	"fmt"
	"strings"
	"sync"

	diskv "github.com/peterbourgon/diskv/v3"

	"github.com/stackgnosis/sg-cli/internal/domain"
	"github.com/stackgnosis/sg-cli/internal/ports"
)

const (
	keyAccessToken = "accessToken"
	keyUserEmail   = "userEmail"
	keyUserSlug    = "userSlug"

	cacheSizeMax = 64 * 1024
)

type Store struct {
	d  *diskv.Diskv
	mu sync.Mutex
}

var _ ports.CredentialStore = (*Store)(nil)

func NewStore(basePath string) *Store {
	return &Store{d: diskv.New(diskv.Options{
		BasePath:     basePath,
		CacheSizeMax: cacheSizeMax,
	})}
}

// Load reads the credential once at startup. All keys absent means no
// stored credential; a partial record loads as-is and derives to
// unauthenticated.
func (s *Store) Load(ctx context.Context) (domain.Credential, error) {
	if err := ctx.Err(); err != nil {
		return domain.Credential{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	token, err := s.readKey(keyAccessToken)
	if err != nil {
		return domain.Credential{}, err
	}
	email, err := s.readKey(keyUserEmail)
	if err != nil {
		return domain.Credential{}, err
	}
	slug, err := s.readKey(keyUserSlug)
	if err != nil {
		return domain.Credential{}, err
	}

	if token == "" && email == "" && slug == "" {
		return domain.Credential{}, domain.ErrCredentialNotSet
	}

	return domain.Credential{Token: token, Email: email, Slug: slug}, nil
}

// Save writes all three fields together.
func (s *Store) Save(ctx context.Context, cred domain.Credential) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pairs := map[string]string{
		keyAccessToken: cred.Token,
		keyUserEmail:   cred.Email,
		keyUserSlug:    cred.Slug,
	}
	for key, value := range pairs {
		if err := s.d.Write(key, []byte(value)); err != nil {
			return fmt.Errorf("write credential key %q: %w", key, err)
		}
	}

	return nil
}

// Clear removes all three fields together. Clearing an empty store is a
// no-op.
func (s *Store) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range []string{keyAccessToken, keyUserEmail, keyUserSlug} {
		if !s.d.Has(key) {
			continue
		}
		if err := s.d.Erase(key); err != nil {
			return fmt.Errorf("erase credential key %q: %w", key, err)
		}
	}

	return nil
}

func (s *Store) readKey(key string) (string, error) {
	if !s.d.Has(key) {
		return "", nil
	}
	value, err := s.d.Read(key)
	if err != nil {
		return "", fmt.Errorf("read credential key %q: %w", key, err)
	}
	return strings.TrimSpace(string(value)), nil
}
