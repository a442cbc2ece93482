package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/taskdesk/internal/client/client"
	"github.com/dmitrijs2005/taskdesk/internal/client/models"
	"github.com/dmitrijs2005/taskdesk/internal/common"
)

// Restore establishes the session from the persisted credential. It runs
// once: later calls return immediately. Every failure ends in
// StatusAnonymous with the credential purged; only a storage read error is
// returned.
func (s *Store) Restore(ctx context.Context) error {
	s.mu.Lock()
	started := s.restoreStarted
	s.restoreStarted = true
	s.mu.Unlock()
	if started {
		return nil
	}

	tok, err := s.loadCredential(ctx)
	if err != nil {
		s.logger.Warn(ctx, "stored credential unusable", "error", err)
		s.drop(ctx, "")
		if errors.Is(err, errUnreadableCredential) {
			return nil
		}
		return fmt.Errorf("load credential: %w", err)
	}

	if tok == "" {
		s.mu.Lock()
		s.setLocked(anonymous())
		return nil
	}

	if credentialExpired(tok, s.now()) {
		s.logger.Info(ctx, "stored credential expired")
		s.drop(ctx, "")
		return nil
	}

	s.gw.SetCredential(tok)
	p, err := s.api.Me(ctx)
	if err != nil {
		s.logger.Warn(ctx, "restore failed", "error", err)
		s.drop(ctx, tok)
		return nil
	}

	s.mu.Lock()
	if s.gw.Credential() != tok {
		// A 401 observed elsewhere already downgraded the session.
		s.mu.Unlock()
		return nil
	}
	s.logger.Info(ctx, "session restored", "user", p.ID)
	s.setLocked(Snapshot{Status: StatusAuthenticated, Credential: tok, Principal: &p})
	return nil
}

// Login exchanges credentials for a session. On failure the session is
// left unchanged and the error matches common.ErrInvalidCredentials when
// the server rejected the credentials.
func (s *Store) Login(ctx context.Context, email, password string) (models.Principal, error) {
	res, err := s.api.Login(ctx, email, password)
	if err != nil {
		return models.Principal{}, err
	}

	if err := s.saveCredential(ctx, res.Token); err != nil {
		// The session is still usable for this run.
		s.logger.Warn(ctx, "persist credential failed", "error", err)
	}

	s.mu.Lock()
	s.gw.SetCredential(res.Token)
	p := res.User
	s.logger.Info(ctx, "logged in", "user", p.ID)
	s.setLocked(Snapshot{Status: StatusAuthenticated, Credential: res.Token, Principal: &p})
	return p, nil
}

// Register creates an account. It does not log in.
func (s *Store) Register(ctx context.Context, name, email, password string) error {
	if email == "" || password == "" {
		return fmt.Errorf("%w: email and password are required", common.ErrValidation)
	}
	if _, err := s.api.Register(ctx, name, email, password); err != nil {
		return err
	}
	s.logger.Info(ctx, "registered", "email", email)
	return nil
}

// Logout ends the session. The in-memory session is always cleared; a
// storage error is returned after that.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.gw.ClearCredential()
	s.setLocked(anonymous())

	if err := s.purgeCredential(ctx); err != nil {
		return fmt.Errorf("purge credential: %w", err)
	}
	s.logger.Info(ctx, "logged out")
	return nil
}

// handleAuthFailure downgrades the session when the rejected request
// carried the credential currently in use. Stale or unauthenticated
// failures are ignored, which also makes repeated 401s idempotent.
func (s *Store) handleAuthFailure(f client.AuthFailure) {
	if f.Credential == "" {
		return
	}
	ctx := context.Background()
	if s.drop(ctx, f.Credential) {
		s.logger.Warn(ctx, "authorization lost", "path", f.Path, "request_id", f.RequestID)
	}
}

// drop purges the persisted credential and sets the session anonymous. With
// a non-empty tok it only acts while tok is still the gateway's credential,
// and reports whether it did.
func (s *Store) drop(ctx context.Context, tok string) bool {
	s.mu.Lock()
	if tok != "" && s.gw.Credential() != tok {
		if s.snap.Status == StatusInitializing {
			s.setLocked(anonymous())
			return false
		}
		s.mu.Unlock()
		return false
	}
	s.gw.ClearCredential()
	if err := s.purgeCredential(ctx); err != nil {
		s.logger.Error(ctx, "purge credential failed", "error", err)
	}
	s.setLocked(anonymous())
	return true
}
