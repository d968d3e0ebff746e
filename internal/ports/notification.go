package ports

import (
	"context"

	"github.com/stackgnosis/sg-cli/internal/domain"
)

// NotificationSink receives push notices for display.
type NotificationSink interface {
	Push(kind domain.ToastKind, message string, link *domain.ToastLink)
}

// ChannelState is the lifecycle phase of a notification channel.
type ChannelState string

const (
	ChannelClosed             ChannelState = "closed"
	ChannelConnecting         ChannelState = "connecting"
	ChannelOpen               ChannelState = "open"
	ChannelReconnecting       ChannelState = "reconnecting"
	ChannelClosedUnauthorized ChannelState = "closed (unauthorized)"
	ChannelClosedExhausted    ChannelState = "closed (retries exhausted)"
)

// ChannelHandle is one live notification connection. Close forces
// teardown; it is idempotent and safe from any goroutine.
type ChannelHandle interface {
	Close()
	State() ChannelState
}

// ChannelOpener dials a notification channel authenticated by the given
// credential. onUnauthorized fires when the server rejects the session;
// the caller is expected to log out in response.
type ChannelOpener interface {
	Open(ctx context.Context, cred domain.Credential, onUnauthorized func()) (ChannelHandle, error)
}
