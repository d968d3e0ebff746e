// Package channel maintains the push-notification WebSocket that runs in
// lockstep with an authenticated session. One channel owns one reader
// goroutine; recoverable drops are redialed under a bounded backoff and
// unauthorized closes force a logout through the session's callback.
package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/sethvargo/go-retry"

	"github.com/stackgnosis/sg-cli/internal/domain"
	"github.com/stackgnosis/sg-cli/internal/ports"
)

const (
	notificationsPath = "/ws/notifications/"

	// Retry policy mirrors the service's published client defaults:
	// up to 10 attempts per outage, backoff capped at 2 s. The budget
	// resets after every successful open.
	maxReconnectAttempts  = 10
	initialReconnectDelay = 250 * time.Millisecond
	maxReconnectDelay     = 2 * time.Second

	dialTimeout = 10 * time.Second

	// Private close code the server uses for invalid tokens, alongside
	// the standard policy-violation code.
	statusInvalidToken websocket.StatusCode = 4001
)

// retryPolicy bounds one reconnect cycle. Tests shrink it; production
// channels run the published defaults.
type retryPolicy struct {
	attempts uint64
	initial  time.Duration
	cap      time.Duration
}

var defaultRetryPolicy = retryPolicy{
	attempts: maxReconnectAttempts,
	initial:  initialReconnectDelay,
	cap:      maxReconnectDelay,
}

// Opener dials notification channels against one server.
type Opener struct {
	baseURL string
	sink    ports.NotificationSink
	logger  *slog.Logger
	policy  retryPolicy
}

var _ ports.ChannelOpener = (*Opener)(nil)

// NewOpener validates the ws(s) base URL once so every Open only appends
// the token.
func NewOpener(baseURL string, sink ports.NotificationSink, logger *slog.Logger) (*Opener, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse websocket base url: %w", err)
	}
	if parsed.Scheme != "ws" && parsed.Scheme != "wss" {
		return nil, errors.New("websocket base url must use ws or wss")
	}
	if parsed.Host == "" {
		return nil, errors.New("websocket base url host is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Opener{
		baseURL: strings.TrimRight(baseURL, "/"),
		sink:    sink,
		logger:  logger,
		policy:  defaultRetryPolicy,
	}, nil
}

// Open starts a channel for the credential. The connection outlives the
// calling context; only Close (or an unrecoverable condition) ends it.
func (o *Opener) Open(ctx context.Context, cred domain.Credential, onUnauthorized func()) (ports.ChannelHandle, error) {
	if !cred.Authenticated() {
		return nil, domain.ErrNotAuthenticated
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	ch := &Channel{
		url:            o.baseURL + notificationsPath + "?token=" + url.QueryEscape(cred.Token),
		sink:           o.sink,
		logger:         o.logger,
		onUnauthorized: onUnauthorized,
		policy:         o.policy,
		cancel:         cancel,
		done:           make(chan struct{}),
		state:          ports.ChannelConnecting,
	}

	go ch.run(runCtx)

	return ch, nil
}

// Channel is one live notification connection.
type Channel struct {
	url            string
	sink           ports.NotificationSink
	logger         *slog.Logger
	onUnauthorized func()
	policy         retryPolicy

	cancel    context.CancelFunc
	closeOnce sync.Once
	done      chan struct{}

	mu    sync.Mutex
	state ports.ChannelState
}

var _ ports.ChannelHandle = (*Channel)(nil)

// Close forces teardown. Idempotent; returns without waiting for the
// reader goroutine so it is safe to call from the channel's own
// callbacks.
func (c *Channel) Close() {
	c.closeOnce.Do(c.cancel)
}

// Done is closed once the reader goroutine has fully stopped.
func (c *Channel) Done() <-chan struct{} { return c.done }

func (c *Channel) State() ports.ChannelState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Channel) setState(s ports.ChannelState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Channel) run(ctx context.Context) {
	defer close(c.done)

	opened := false
	for {
		if opened {
			c.setState(ports.ChannelReconnecting)
		} else {
			c.setState(ports.ChannelConnecting)
		}

		conn, err := c.dial(ctx)
		if err != nil {
			switch {
			case ctx.Err() != nil:
				c.setState(ports.ChannelClosed)
			case unauthorizedError(err):
				c.logger.Error("notification channel rejected, logging out", "error", err)
				c.setState(ports.ChannelClosedUnauthorized)
				c.notifyUnauthorized()
			default:
				c.logger.Warn("notification channel gave up reconnecting", "error", err)
				c.setState(ports.ChannelClosedExhausted)
			}
			return
		}

		opened = true
		c.setState(ports.ChannelOpen)
		c.logger.Info("notification channel open")

		err = c.readLoop(ctx, conn)
		if ctx.Err() != nil {
			_ = conn.Close(websocket.StatusNormalClosure, "client closing")
			c.setState(ports.ChannelClosed)
			return
		}
		if unauthorizedError(err) {
			c.logger.Error("notification channel closed as unauthorized, logging out",
				"code", int(websocket.CloseStatus(err)), "error", err)
			c.setState(ports.ChannelClosedUnauthorized)
			c.notifyUnauthorized()
			return
		}

		c.logger.Warn("notification channel dropped, reconnecting", "error", err)
	}
}

// dial connects under the bounded retry policy. Unauthorized handshake
// failures are permanent; everything else is retried until the budget
// runs out.
func (c *Channel) dial(ctx context.Context) (*websocket.Conn, error) {
	backoff := retry.NewExponential(c.policy.initial)
	backoff = retry.WithCappedDuration(c.policy.cap, backoff)
	backoff = retry.WithMaxRetries(c.policy.attempts, backoff)

	var conn *websocket.Conn
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
		defer cancel()

		dialed, resp, err := websocket.Dial(dialCtx, c.url, nil)
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		if err != nil {
			if unauthorizedError(err) {
				return err
			}
			return retry.RetryableError(err)
		}

		conn = dialed
		return nil
	})
	if err != nil {
		return nil, err
	}

	return conn, nil
}

func (c *Channel) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		c.handleMessage(data)
	}
}

// pushMessage is the one inbound payload shape. linkUrl/linkLabel keep
// the server's camelCase keys.
type pushMessage struct {
	Type        string `json:"type"`
	Message     string `json:"message"`
	MessageType string `json:"message_type"`
	LinkURL     string `json:"linkUrl"`
	LinkLabel   string `json:"linkLabel"`
}

// handleMessage never lets a bad payload escape the handler boundary:
// anything malformed is logged and dropped.
func (c *Channel) handleMessage(data []byte) {
	var msg pushMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.logger.Warn("dropping unparseable notification payload", "error", err)
		return
	}

	switch msg.Type {
	case "connection_established":
		c.logger.Info("notification channel established", "message", msg.Message)
	case "send_notification":
		kind := domain.ToastKind(msg.MessageType)
		if !kind.Valid() {
			c.logger.Warn("dropping notification with unknown kind", "kind", msg.MessageType)
			return
		}
		var link *domain.ToastLink
		if msg.LinkURL != "" {
			link = &domain.ToastLink{URL: msg.LinkURL, Label: msg.LinkLabel}
		}
		c.sink.Push(kind, msg.Message, link)
	default:
		c.logger.Warn("dropping notification with unknown type", "type", msg.Type)
	}
}

func (c *Channel) notifyUnauthorized() {
	if c.onUnauthorized != nil {
		c.onUnauthorized()
	}
}

// unauthorizedError applies the session-invalid heuristic: close codes
// 4001 and 1008, close reasons mentioning 403 or unauthorized, and error
// text mentioning 401. The server publishes no structured close contract,
// so this stays a text match.
func unauthorizedError(err error) bool {
	if err == nil {
		return false
	}

	var closeErr websocket.CloseError
	if errors.As(err, &closeErr) {
		if closeErr.Code == statusInvalidToken || closeErr.Code == websocket.StatusPolicyViolation {
			return true
		}
		reason := strings.ToLower(closeErr.Reason)
		if strings.Contains(reason, "403") || strings.Contains(reason, "unauthorized") {
			return true
		}
	}

	return strings.Contains(err.Error(), "401")
}
