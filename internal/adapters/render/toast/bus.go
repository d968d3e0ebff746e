// Package toast is the notification sink: a process-wide, time-bounded
// queue of transient notices plus their terminal rendering.
package toast

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stackgnosis/sg-cli/internal/domain"
	"github.com/stackgnosis/sg-cli/internal/ports"
)

const (
	// Phase timings for one toast, all measured from Push: mounted
	// hidden, shown after a beat, fading at 3 s, gone 400 ms later.
	mountDelay      = 20 * time.Millisecond
	displayDuration = 3 * time.Second
	fadeDuration    = 400 * time.Millisecond
)

// Bus queues toasts for a single subscriber. Pushes without a subscriber
// are dropped outright; there is no buffering. Entries keep insertion
// order and never coalesce.
type Bus struct {
	clock  ports.Clock
	logger *slog.Logger

	mu      sync.Mutex
	entries []domain.Toast
	sub     chan []domain.Toast
}

var _ ports.NotificationSink = (*Bus)(nil)

func NewBus(clock ports.Clock, logger *slog.Logger) *Bus {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{clock: clock, logger: logger}
}

// Push appends a toast and schedules its phase timers. Each timer runs
// independently; the entry is only ever mutated to flip Visible.
func (b *Bus) Push(kind domain.ToastKind, message string, link *domain.ToastLink) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.sub == nil {
		b.logger.Debug("dropping toast with no subscriber", "kind", string(kind), "message", message)
		return
	}

	entry := domain.Toast{
		ID:      uuid.NewString(),
		Kind:    kind,
		Message: message,
		Link:    link,
	}
	b.entries = append(b.entries, entry)

	id := entry.ID
	b.clock.AfterFunc(mountDelay, func() { b.setVisible(id, true) })
	b.clock.AfterFunc(displayDuration, func() { b.setVisible(id, false) })
	b.clock.AfterFunc(displayDuration+fadeDuration, func() { b.remove(id) })

	b.broadcastLocked()
}

// Subscribe registers the single consumer and returns a coalescing
// snapshot channel plus a cancel func. Subscribing replaces any previous
// subscriber and starts from an empty queue.
func (b *Bus) Subscribe() (<-chan []domain.Toast, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan []domain.Toast, 1)
	b.sub = ch
	b.entries = nil

	return ch, func() { b.unsubscribe(ch) }
}

// Entries returns the current queue in display order.
func (b *Bus) Entries() []domain.Toast {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.entries)
}

func (b *Bus) unsubscribe(ch chan []domain.Toast) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sub != ch {
		return
	}
	b.sub = nil
	b.entries = nil
}

func (b *Bus) setVisible(id string, visible bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.entries {
		if b.entries[i].ID == id {
			b.entries[i].Visible = visible
			b.broadcastLocked()
			return
		}
	}
}

func (b *Bus) remove(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	before := len(b.entries)
	b.entries = slices.DeleteFunc(b.entries, func(t domain.Toast) bool { return t.ID == id })
	if len(b.entries) != before {
		b.broadcastLocked()
	}
}

// broadcastLocked hands the subscriber the latest snapshot, replacing an
// unconsumed older one so a slow reader only ever sees current state.
func (b *Bus) broadcastLocked() {
	if b.sub == nil {
		return
	}
	snapshot := slices.Clone(b.entries)
	for {
		select {
		case b.sub <- snapshot:
			return
		default:
		}
		select {
		case <-b.sub:
		default:
		}
	}
}
