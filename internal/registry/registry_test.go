package registry

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	id string
}

func (f *fakeTransport) SessionID() string        { return f.id }
func (f *fakeTransport) Enqueue(frame []byte) bool { return true }

func TestRegister_FirstSession(t *testing.T) {
	r := New()

	first := r.Register("profile-1", "sess-1", &fakeTransport{id: "sess-1"})
	assert.True(t, first, "expected first registration to report first session")

	first = r.Register("profile-1", "sess-2", &fakeTransport{id: "sess-2"})
	assert.False(t, first, "expected second session not to report first session")

	assert.Len(t, r.SessionsOf("profile-1"), 2)
	assert.True(t, r.Online("profile-1"))
}

func TestRegister_DuplicateSessionIsNoOp(t *testing.T) {
	r := New()

	orig := &fakeTransport{id: "sess-1"}
	r.Register("profile-1", "sess-1", orig)
	first := r.Register("profile-1", "sess-1", &fakeTransport{id: "sess-1"})

	assert.False(t, first)
	assert.Len(t, r.SessionsOf("profile-1"), 1, "duplicate register must not grow the set")

	got, ok := r.Transport("sess-1")
	require.True(t, ok)
	assert.Same(t, orig, got, "duplicate register must keep the original transport handle")
}

func TestUnregister_BecameEmptyGate(t *testing.T) {
	r := New()
	r.Register("profile-1", "sess-1", &fakeTransport{id: "sess-1"})
	r.Register("profile-1", "sess-2", &fakeTransport{id: "sess-2"})

	profileID, empty := r.Unregister("sess-1")
	assert.Equal(t, "profile-1", profileID)
	assert.False(t, empty, "one session remains, set must not report empty")
	assert.Len(t, r.SessionsOf("profile-1"), 1)

	profileID, empty = r.Unregister("sess-2")
	assert.Equal(t, "profile-1", profileID)
	assert.True(t, empty, "removing the last session must report empty")
	assert.Empty(t, r.SessionsOf("profile-1"))
	assert.False(t, r.Online("profile-1"))
}

func TestUnregister_UnknownSessionIsNoOp(t *testing.T) {
	r := New()

	profileID, empty := r.Unregister("never-registered")
	assert.Equal(t, "", profileID)
	assert.False(t, empty)

	// Duplicate disconnect: second unregister of the same session.
	r.Register("profile-1", "sess-1", &fakeTransport{id: "sess-1"})
	r.Unregister("sess-1")
	profileID, empty = r.Unregister("sess-1")
	assert.Equal(t, "", profileID)
	assert.False(t, empty, "duplicate unregister must not fire a second empty transition")
}

func TestThreeSessionsArbitraryCloseOrder(t *testing.T) {
	r := New()
	for i := 1; i <= 3; i++ {
		id := fmt.Sprintf("sess-%d", i)
		r.Register("profile-1", id, &fakeTransport{id: id})
	}

	emptyCount := 0
	for _, id := range []string{"sess-2", "sess-3", "sess-1"} {
		if _, empty := r.Unregister(id); empty {
			emptyCount++
		}
	}
	assert.Equal(t, 1, emptyCount, "exactly one unregister may report the set became empty")
}

func TestOnlineUsers(t *testing.T) {
	r := New()
	r.Register("profile-1", "sess-1", &fakeTransport{id: "sess-1"})
	r.Register("profile-2", "sess-2", &fakeTransport{id: "sess-2"})

	users := r.OnlineUsers()
	assert.ElementsMatch(t, []string{"profile-1", "profile-2"}, users)

	r.Unregister("sess-2")
	assert.ElementsMatch(t, []string{"profile-1"}, r.OnlineUsers())
}

func TestConcurrentRegisterUnregister(t *testing.T) {
	r := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("sess-%d", n)
			r.Register("profile-1", id, &fakeTransport{id: id})
			r.SessionsOf("profile-1")
			r.Unregister(id)
		}(i)
	}
	wg.Wait()

	assert.Empty(t, r.SessionsOf("profile-1"), "all sessions unregistered, set must be empty")
	assert.False(t, r.Online("profile-1"))
}
