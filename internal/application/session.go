// Package application holds the session service: the single owner of the
// stored credential and of the one live notification channel.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/stackgnosis/sg-cli/internal/domain"
	"github.com/stackgnosis/sg-cli/internal/ports"
)

// Session derives the authenticated state from the stored credential and
// keeps the notification channel's lifecycle in lockstep with it. All
// credential reads by other components go through here.
type Session struct {
	store    ports.CredentialStore
	opener   ports.ChannelOpener
	logger   *slog.Logger
	onLogout func()

	mu         sync.Mutex
	cred       domain.Credential
	channel    ports.ChannelHandle
	lastState  ports.ChannelState
	generation uint64
}

type SessionOption func(*Session)

// WithChannelOpener enables the notification channel. Sessions without an
// opener (one-shot commands) never dial; long-running ones pass it.
func WithChannelOpener(opener ports.ChannelOpener) SessionOption {
	return func(s *Session) { s.opener = opener }
}

// WithLogoutHook runs after every logout, forced or explicit. The CLI
// uses it as the redirect-to-landing analog.
func WithLogoutHook(hook func()) SessionOption {
	return func(s *Session) { s.onLogout = hook }
}

func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) { s.logger = logger }
}

func NewSession(store ports.CredentialStore, opts ...SessionOption) *Session {
	s := &Session{
		store:     store,
		logger:    slog.Default(),
		lastState: ports.ChannelClosed,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize reads the persisted credential once at startup. A missing
// credential is a normal logged-out state, not an error. When the session
// comes up already authenticated the channel opens immediately.
func (s *Session) Initialize(ctx context.Context) error {
	cred, err := s.store.Load(ctx)
	if err != nil && !errors.Is(err, domain.ErrCredentialNotSet) {
		return fmt.Errorf("load credential: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = cred
	return s.ensureChannelLocked(ctx)
}

// Login persists the credential (all fields together) and opens the
// notification channel. This is the sole trigger besides Initialize that
// may open one.
func (s *Session) Login(ctx context.Context, cred domain.Credential) error {
	if err := s.store.Save(ctx, cred); err != nil {
		return fmt.Errorf("save credential: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = cred
	return s.ensureChannelLocked(ctx)
}

// SetLogoutHook replaces the logout hook after construction. The watch
// TUI wires its quit signal here once the program exists; passing nil
// detaches it again on teardown.
func (s *Session) SetLogoutHook(hook func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onLogout = hook
}

// AttachChannelOpener wires the notification channel into a session built
// without one. When the session is already authenticated the channel
// opens immediately, as it would have on Initialize.
func (s *Session) AttachChannelOpener(ctx context.Context, opener ports.ChannelOpener) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opener = opener
	return s.ensureChannelLocked(ctx)
}

// Logout clears the stored credential, tears down the channel and runs
// the logout hook. Safe to call when already logged out.
func (s *Session) Logout(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}

	s.mu.Lock()
	s.cred = domain.Credential{}
	s.teardownChannelLocked()
	hook := s.onLogout
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
	return nil
}

func (s *Session) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cred.Authenticated()
}

func (s *Session) Credential() domain.Credential {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cred
}

// Token is the gateway's TokenSource.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cred.Token
}

// ChannelState reports the live channel's state. After teardown the last
// terminal state survives, so a forced logout still reads as
// "closed (unauthorized)" rather than a plain close.
func (s *Session) ChannelState() ports.ChannelState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.channel == nil {
		return s.lastState
	}
	return s.channel.State()
}

// Reconnect is the coarse recovery action behind the error toast's retry
// affordance: drop the current channel and dial a fresh one.
func (s *Session) Reconnect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teardownChannelLocked()
	return s.ensureChannelLocked(ctx)
}

// Close tears down the channel without touching the credential. Used on
// component teardown (watch exit), mirroring the explicit logout path.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teardownChannelLocked()
}

// ensureChannelLocked opens the channel iff an opener is wired, the
// session is authenticated and no channel is live. Every transition is
// guarded here so a stray timer can never connect a logged-out session.
func (s *Session) ensureChannelLocked(ctx context.Context) error {
	if s.opener == nil || s.channel != nil || !s.cred.Authenticated() {
		return nil
	}

	s.generation++
	gen := s.generation

	handle, err := s.opener.Open(ctx, s.cred, func() { s.forcedLogout(gen) })
	if err != nil {
		return fmt.Errorf("open notification channel: %w", err)
	}
	s.channel = handle
	return nil
}

func (s *Session) teardownChannelLocked() {
	if s.channel == nil {
		return
	}
	s.channel.Close()
	switch state := s.channel.State(); state {
	case ports.ChannelClosedUnauthorized, ports.ChannelClosedExhausted:
		s.lastState = state
	default:
		s.lastState = ports.ChannelClosed
	}
	s.channel = nil
	s.generation++
}

// forcedLogout handles the channel's unauthorized signal. Signals from a
// superseded channel are ignored; nothing may write to a torn-down
// session on a late callback.
func (s *Session) forcedLogout(gen uint64) {
	s.mu.Lock()
	current := gen == s.generation
	s.mu.Unlock()
	if !current {
		return
	}

	s.logger.Warn("session rejected by notification channel, logging out")
	if err := s.Logout(context.Background()); err != nil {
		s.logger.Error("forced logout failed", "error", err)
	}
}
