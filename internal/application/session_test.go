package application

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackgnosis/sg-cli/internal/domain"
	"github.com/stackgnosis/sg-cli/internal/ports"
)

// memoryStore is an in-memory ports.CredentialStore.
type memoryStore struct {
	mu      sync.Mutex
	cred    domain.Credential
	set     bool
	saveErr error
	saves   int
	clears  int
}

func (m *memoryStore) Load(context.Context) (domain.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set {
		return domain.Credential{}, domain.ErrCredentialNotSet
	}
	return m.cred, nil
}

func (m *memoryStore) Save(_ context.Context, cred domain.Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.cred = cred
	m.set = true
	m.saves++
	return nil
}

func (m *memoryStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cred = domain.Credential{}
	m.set = false
	m.clears++
	return nil
}

// fakeHandle records teardown.
type fakeHandle struct {
	mu     sync.Mutex
	closed bool
	state  ports.ChannelState
}

func (h *fakeHandle) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
}

func (h *fakeHandle) setState(state ports.ChannelState) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = state
}

func (h *fakeHandle) State() ports.ChannelState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func (h *fakeHandle) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// fakeOpener hands out fakeHandles and keeps the unauthorized callbacks
// so tests can fire them like the real channel would.
type fakeOpener struct {
	mu        sync.Mutex
	handles   []*fakeHandle
	callbacks []func()
	openErr   error
}

func (o *fakeOpener) Open(_ context.Context, cred domain.Credential, onUnauthorized func()) (ports.ChannelHandle, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.openErr != nil {
		return nil, o.openErr
	}
	if !cred.Authenticated() {
		return nil, domain.ErrNotAuthenticated
	}
	h := &fakeHandle{state: ports.ChannelOpen}
	o.handles = append(o.handles, h)
	o.callbacks = append(o.callbacks, onUnauthorized)
	return h, nil
}

func (o *fakeOpener) opened() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.handles)
}

func (o *fakeOpener) handle(i int) *fakeHandle {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.handles[i]
}

func (o *fakeOpener) fireUnauthorized(i int) {
	o.mu.Lock()
	cb := o.callbacks[i]
	o.mu.Unlock()
	cb()
}

func testCred() domain.Credential {
	return domain.Credential{Token: "T1", Email: "a@b.com", Slug: "a-b"}
}

func TestInitializeLoggedOut(t *testing.T) {
	store := &memoryStore{}
	opener := &fakeOpener{}
	s := NewSession(store, WithChannelOpener(opener))

	require.NoError(t, s.Initialize(context.Background()))

	assert.False(t, s.IsAuthenticated())
	assert.Equal(t, 0, opener.opened(), "no channel without a credential")
	assert.Equal(t, ports.ChannelClosed, s.ChannelState())
}

func TestInitializeWithStoredCredential(t *testing.T) {
	store := &memoryStore{cred: testCred(), set: true}
	opener := &fakeOpener{}
	s := NewSession(store, WithChannelOpener(opener))

	require.NoError(t, s.Initialize(context.Background()))

	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, testCred(), s.Credential())
	assert.Equal(t, 1, opener.opened())
	assert.Equal(t, ports.ChannelOpen, s.ChannelState())
}

func TestLoginPersistsAndOpensChannel(t *testing.T) {
	store := &memoryStore{}
	opener := &fakeOpener{}
	s := NewSession(store, WithChannelOpener(opener))

	require.NoError(t, s.Login(context.Background(), testCred()))

	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, "T1", s.Token())
	assert.Equal(t, 1, store.saves, "all credential fields persist in one save")
	assert.Equal(t, testCred(), store.cred)
	assert.Equal(t, 1, opener.opened())
}

func TestLoginSaveFailureLeavesSessionLoggedOut(t *testing.T) {
	store := &memoryStore{saveErr: errors.New("disk full")}
	s := NewSession(store, WithChannelOpener(&fakeOpener{}))

	err := s.Login(context.Background(), testCred())
	require.Error(t, err)
	assert.False(t, s.IsAuthenticated())
}

func TestLoginWithoutOpenerSkipsChannel(t *testing.T) {
	s := NewSession(&memoryStore{})

	require.NoError(t, s.Login(context.Background(), testCred()))
	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, ports.ChannelClosed, s.ChannelState())
}

func TestLogoutClearsEverything(t *testing.T) {
	store := &memoryStore{}
	opener := &fakeOpener{}
	hookRuns := 0
	s := NewSession(store,
		WithChannelOpener(opener),
		WithLogoutHook(func() { hookRuns++ }),
	)

	require.NoError(t, s.Login(context.Background(), testCred()))
	require.NoError(t, s.Logout(context.Background()))

	assert.False(t, s.IsAuthenticated())
	assert.Equal(t, domain.Credential{}, s.Credential())
	assert.Empty(t, s.Token())
	assert.Equal(t, 1, store.clears)
	assert.True(t, opener.handle(0).isClosed())
	assert.Equal(t, 1, hookRuns)

	// Logging out twice is harmless.
	require.NoError(t, s.Logout(context.Background()))
	assert.Equal(t, 2, hookRuns)
}

func TestForcedLogoutFromChannel(t *testing.T) {
	store := &memoryStore{}
	opener := &fakeOpener{}
	hookRuns := 0
	s := NewSession(store,
		WithChannelOpener(opener),
		WithLogoutHook(func() { hookRuns++ }),
	)

	require.NoError(t, s.Login(context.Background(), testCred()))
	opener.fireUnauthorized(0)

	assert.False(t, s.IsAuthenticated())
	assert.Equal(t, 1, store.clears, "forced logout clears the stored credential")
	assert.Equal(t, 1, hookRuns)
}

func TestStaleUnauthorizedCallbackIsIgnored(t *testing.T) {
	store := &memoryStore{}
	opener := &fakeOpener{}
	s := NewSession(store, WithChannelOpener(opener))

	require.NoError(t, s.Login(context.Background(), testCred()))
	require.NoError(t, s.Reconnect(context.Background()))
	require.Equal(t, 2, opener.opened())

	// The superseded channel's callback must not log out the session the
	// replacement channel is serving.
	opener.fireUnauthorized(0)
	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, 0, store.clears)

	opener.fireUnauthorized(1)
	assert.False(t, s.IsAuthenticated())
}

func TestReconnectReplacesChannel(t *testing.T) {
	opener := &fakeOpener{}
	s := NewSession(&memoryStore{}, WithChannelOpener(opener))

	require.NoError(t, s.Login(context.Background(), testCred()))
	require.NoError(t, s.Reconnect(context.Background()))

	assert.True(t, opener.handle(0).isClosed())
	assert.False(t, opener.handle(1).isClosed())
	assert.Equal(t, ports.ChannelOpen, s.ChannelState())
}

func TestLoginTwiceKeepsSingleChannel(t *testing.T) {
	opener := &fakeOpener{}
	s := NewSession(&memoryStore{}, WithChannelOpener(opener))

	require.NoError(t, s.Login(context.Background(), testCred()))
	require.NoError(t, s.Login(context.Background(), testCred()))

	assert.Equal(t, 1, opener.opened())
}

func TestCloseKeepsCredential(t *testing.T) {
	opener := &fakeOpener{}
	s := NewSession(&memoryStore{}, WithChannelOpener(opener))

	require.NoError(t, s.Login(context.Background(), testCred()))
	s.Close()

	assert.True(t, opener.handle(0).isClosed())
	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, ports.ChannelClosed, s.ChannelState())
}

func TestForcedLogoutKeepsUnauthorizedState(t *testing.T) {
	store := &memoryStore{}
	opener := &fakeOpener{}
	s := NewSession(store, WithChannelOpener(opener))

	require.NoError(t, s.Login(context.Background(), testCred()))

	// The channel marks itself unauthorized before firing the callback;
	// that state must survive the teardown so the UI can show why the
	// session ended.
	opener.handle(0).setState(ports.ChannelClosedUnauthorized)
	opener.fireUnauthorized(0)

	assert.False(t, s.IsAuthenticated())
	assert.Equal(t, ports.ChannelClosedUnauthorized, s.ChannelState())

	// A fresh login opens a new channel and reads its live state again.
	require.NoError(t, s.Login(context.Background(), testCred()))
	assert.Equal(t, ports.ChannelOpen, s.ChannelState())
}

func TestExplicitLogoutReadsPlainClosed(t *testing.T) {
	opener := &fakeOpener{}
	s := NewSession(&memoryStore{}, WithChannelOpener(opener))

	require.NoError(t, s.Login(context.Background(), testCred()))
	require.NoError(t, s.Logout(context.Background()))

	assert.Equal(t, ports.ChannelClosed, s.ChannelState())
}

func TestSetLogoutHook(t *testing.T) {
	s := NewSession(&memoryStore{})
	runs := 0
	s.SetLogoutHook(func() { runs++ })

	require.NoError(t, s.Login(context.Background(), testCred()))
	require.NoError(t, s.Logout(context.Background()))
	assert.Equal(t, 1, runs)

	// Detaching stops further notifications.
	s.SetLogoutHook(nil)
	require.NoError(t, s.Logout(context.Background()))
	assert.Equal(t, 1, runs)
}

func TestAttachChannelOpener(t *testing.T) {
	opener := &fakeOpener{}
	s := NewSession(&memoryStore{})

	require.NoError(t, s.Login(context.Background(), testCred()))
	require.Equal(t, ports.ChannelClosed, s.ChannelState())

	// Attaching after login opens the channel for the live credential.
	require.NoError(t, s.AttachChannelOpener(context.Background(), opener))
	assert.Equal(t, 1, opener.opened())
	assert.Equal(t, ports.ChannelOpen, s.ChannelState())
}

func TestOpenFailureSurfacesFromLogin(t *testing.T) {
	opener := &fakeOpener{openErr: errors.New("dial refused")}
	s := NewSession(&memoryStore{}, WithChannelOpener(opener))

	err := s.Login(context.Background(), testCred())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open notification channel")

	// The credential itself survives; only the channel failed.
	assert.True(t, s.IsAuthenticated())
}
