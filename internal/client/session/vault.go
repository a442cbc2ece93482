package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/taskdesk/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/taskdesk/internal/common"
	"github.com/dmitrijs2005/taskdesk/internal/cryptox"
	"github.com/dmitrijs2005/taskdesk/internal/dbx"
	"github.com/golang-jwt/jwt/v5"
)

// errUnreadableCredential means a sealed credential is stored but cannot be
// opened with the configured passphrase.
var errUnreadableCredential = errors.New("stored credential cannot be unsealed")

func (s *Store) getMetadataRepo() metadata.Repository {
	return metadata.NewSQLiteRepository(s.db)
}

// loadCredential returns the persisted credential, or "" if none is stored.
func (s *Store) loadCredential(ctx context.Context) (string, error) {
	repo := s.getMetadataRepo()

	raw, err := repo.Get(ctx, common.CredentialKey)
	if err != nil {
		return "", err
	}
	if len(raw) == 0 {
		return "", nil
	}

	salt, err := repo.Get(ctx, common.CredentialSaltKey)
	if err != nil {
		return "", err
	}
	if len(salt) == 0 {
		return string(raw), nil
	}
	if s.passphrase == nil {
		return "", errUnreadableCredential
	}

	key := cryptox.DeriveKey(s.passphrase, salt)
	defer common.WipeByteArray(key)

	plain, err := cryptox.Open(raw, key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errUnreadableCredential, err)
	}
	return string(plain), nil
}

// saveCredential persists tok, sealed when a passphrase is configured, in a
// single transaction.
func (s *Store) saveCredential(ctx context.Context, tok string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)

		if s.passphrase == nil {
			if err := repo.Delete(ctx, common.CredentialSaltKey); err != nil {
				return err
			}
			return repo.Set(ctx, common.CredentialKey, []byte(tok))
		}

		salt := common.GenerateRandByteArray(cryptox.SaltSize)
		key := cryptox.DeriveKey(s.passphrase, salt)
		defer common.WipeByteArray(key)

		sealed, err := cryptox.Seal([]byte(tok), key)
		if err != nil {
			return fmt.Errorf("seal credential: %w", err)
		}
		if err := repo.Set(ctx, common.CredentialSaltKey, salt); err != nil {
			return err
		}
		return repo.Set(ctx, common.CredentialKey, sealed)
	})
}

func (s *Store) purgeCredential(ctx context.Context) error {
	return s.getMetadataRepo().Delete(ctx, common.CredentialKey, common.CredentialSaltKey)
}

// credentialExpired reports whether tok is a JWT whose exp claim has passed.
// Opaque credentials never expire locally; the server decides.
func credentialExpired(tok string, now time.Time) bool {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !claims.ExpiresAt.After(now)
}
