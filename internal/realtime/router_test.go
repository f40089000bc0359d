package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/life-ease-api/internal/models"
	appErrors "github.com/noah-isme/life-ease-api/pkg/errors"
)

type fakeConn struct {
	id       string
	identity string
	full     bool

	mu     sync.Mutex
	frames []Frame
}

func newFakeConn(id, identity string) *fakeConn {
	return &fakeConn{id: id, identity: identity}
}

func (f *fakeConn) ID() string         { return f.id }
func (f *fakeConn) IdentityID() string { return f.identity }

func (f *fakeConn) Send(frame []byte) bool {
	if f.full {
		return false
	}
	var decoded Frame
	if err := json.Unmarshal(frame, &decoded); err != nil {
		panic(err)
	}
	f.mu.Lock()
	f.frames = append(f.frames, decoded)
	f.mu.Unlock()
	return true
}

func (f *fakeConn) events(name string) []Frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Frame
	for _, fr := range f.frames {
		if fr.Event == name {
			out = append(out, fr)
		}
	}
	return out
}

func (f *fakeConn) statuses(identity string) []bool {
	var out []bool
	for _, fr := range f.events(models.EventUserStatus) {
		var p models.UserStatusPayload
		if err := json.Unmarshal(fr.Data, &p); err != nil {
			panic(err)
		}
		if p.UserID == identity {
			out = append(out, p.IsOnline)
		}
	}
	return out
}

type stubVerifier map[string]string

func (s stubVerifier) VerifyAccess(token string) (string, error) {
	if id, ok := s[token]; ok {
		return id, nil
	}
	return "", errors.New("bad token")
}

type countingMetrics struct {
	mu          sync.Mutex
	connections int
	online      int
	dropped     int
}

func (m *countingMetrics) SetConnections(n int)        { m.mu.Lock(); m.connections = n; m.mu.Unlock() }
func (m *countingMetrics) SetOnlineIdentities(n int)   { m.mu.Lock(); m.online = n; m.mu.Unlock() }
func (m *countingMetrics) ObserveEvent(string, string) {}
func (m *countingMetrics) ObserveDroppedFrame()        { m.mu.Lock(); m.dropped++; m.mu.Unlock() }

func assertInvariants(t *testing.T, r *Router) {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()

	union := 0
	for identity, set := range r.identities {
		assert.NotEmpty(t, set, "identity %s has an empty connection set", identity)
		for connID := range set {
			assert.Equal(t, identity, r.owners[connID])
			union++
		}
	}
	assert.Equal(t, len(r.owners), union)
	for connID, rooms := range r.memberships {
		_, ok := r.owners[connID]
		assert.True(t, ok, "room membership for unknown conn %s", connID)
		assert.NotEmpty(t, rooms)
	}
	for room, members := range r.rooms {
		assert.NotEmpty(t, members, "room %s is empty", room)
	}
}

func TestAuthenticate(t *testing.T) {
	r := NewRouter(stubVerifier{"good": "u1"}, nil, nil)

	id, err := r.Authenticate("good")
	require.NoError(t, err)
	assert.Equal(t, "u1", id)

	_, err = r.Authenticate("bad")
	assert.ErrorIs(t, err, appErrors.ErrAuthenticationFailed)
	_, err = r.Authenticate("")
	assert.ErrorIs(t, err, appErrors.ErrAuthenticationFailed)
}

func TestOnlineBroadcastOnlyOnFirstConnection(t *testing.T) {
	metrics := &countingMetrics{}
	r := NewRouter(stubVerifier{}, metrics, nil)
	observer := newFakeConn("obs", "observer")
	r.Connect(observer)

	phone := newFakeConn("c1", "u1")
	laptop := newFakeConn("c2", "u1")
	r.Connect(phone)
	r.Connect(laptop)
	r.Connect(laptop)

	assert.Equal(t, []bool{true}, observer.statuses("u1"))
	assert.True(t, r.IsOnline("u1"))
	assert.Equal(t, 3, r.ConnectionCount())
	assert.Equal(t, 3, metrics.connections)
	assert.Equal(t, 2, metrics.online)

	assert.True(t, r.Disconnect("c1"))
	assert.Equal(t, []bool{true}, observer.statuses("u1"))
	assert.True(t, r.IsOnline("u1"))

	assert.True(t, r.Disconnect("c2"))
	assert.Equal(t, []bool{true, false}, observer.statuses("u1"))
	assert.False(t, r.IsOnline("u1"))
	assertInvariants(t, r)
}

func TestDisconnectIsIdempotent(t *testing.T) {
	r := NewRouter(stubVerifier{}, nil, nil)
	observer := newFakeConn("obs", "observer")
	r.Connect(observer)
	r.Connect(newFakeConn("c1", "u1"))

	assert.True(t, r.Disconnect("c1"))
	assert.False(t, r.Disconnect("c1"))
	assert.False(t, r.Disconnect("never-registered"))

	assert.Equal(t, []bool{true, false}, observer.statuses("u1"))
	assertInvariants(t, r)
}

func TestConcurrentConnectDisconnectKeepsInvariants(t *testing.T) {
	r := NewRouter(stubVerifier{}, nil, nil)
	observer := newFakeConn("obs", "observer")
	r.Connect(observer)

	const (
		identities = 5
		workers    = 16
		rounds     = 200
	)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(int64(w)))
			for i := 0; i < rounds; i++ {
				identity := fmt.Sprintf("u%d", rng.Intn(identities))
				connID := fmt.Sprintf("w%d-c%d", w, i)
				r.Connect(newFakeConn(connID, identity))
				if rng.Intn(4) > 0 {
					r.Disconnect(connID)
				}
				if rng.Intn(10) == 0 {
					r.Disconnect(connID)
				}
			}
		}(w)
	}
	wg.Wait()
	assertInvariants(t, r)

	for i := 0; i < identities; i++ {
		identity := fmt.Sprintf("u%d", i)
		statuses := observer.statuses(identity)
		for j, online := range statuses {
			assert.Equal(t, j%2 == 0, online, "status transitions for %s must alternate", identity)
		}
		if len(statuses) > 0 {
			assert.Equal(t, statuses[len(statuses)-1], r.IsOnline(identity))
		} else {
			assert.False(t, r.IsOnline(identity))
		}
	}
}

func TestSendToIdentity(t *testing.T) {
	r := NewRouter(stubVerifier{}, nil, nil)
	a1 := newFakeConn("a1", "a")
	a2 := newFakeConn("a2", "a")
	b := newFakeConn("b1", "b")
	r.Connect(a1)
	r.Connect(a2)
	r.Connect(b)

	assert.Equal(t, 2, r.SendToIdentity("a", models.EventTaskAssigned, models.TaskAssignedPayload{TaskID: "t1", AssignedByID: "b"}))
	assert.Len(t, a1.events(models.EventTaskAssigned), 1)
	assert.Len(t, a2.events(models.EventTaskAssigned), 1)
	assert.Empty(t, b.events(models.EventTaskAssigned))

	assert.Equal(t, 0, r.SendToIdentity("offline", models.EventTaskAssigned, nil))
}

func TestBroadcastAndDroppedFrames(t *testing.T) {
	metrics := &countingMetrics{}
	r := NewRouter(stubVerifier{}, metrics, nil)
	a := newFakeConn("a1", "a")
	slow := newFakeConn("s1", "s")
	r.Connect(a)
	r.Connect(slow)
	slow.full = true

	delivered := r.Broadcast(models.EventMessageRead, models.MessageReadPayload{MessageID: "m1", ReadByID: "a"})
	assert.Equal(t, 1, delivered)
	assert.Len(t, a.events(models.EventMessageRead), 1)
	assert.Equal(t, 1, metrics.dropped)
}

func TestJoinChatNotifiesOtherMembers(t *testing.T) {
	r := NewRouter(stubVerifier{}, nil, nil)
	a := newFakeConn("a1", "a")
	b := newFakeConn("b1", "b")
	outsider := newFakeConn("o1", "o")
	r.Connect(a)
	r.Connect(b)
	r.Connect(outsider)

	r.Dispatch(a, []byte(`{"event":"join:chat","data":{"conversationId":"c42"}}`))
	r.Dispatch(b, []byte(`{"event":"join:chat","data":{"conversationId":"c42"}}`))

	joined := a.events(models.EventUserJoined)
	require.Len(t, joined, 1)
	var p models.UserJoinedPayload
	require.NoError(t, json.Unmarshal(joined[0].Data, &p))
	assert.Equal(t, models.UserJoinedPayload{UserID: "b", ConversationID: "c42"}, p)
	assert.Empty(t, b.events(models.EventUserJoined))
	assert.Empty(t, outsider.events(models.EventUserJoined))

	r.Disconnect("a1")
	assertInvariants(t, r)
	assert.Equal(t, 0, r.SendToRoom("chat:c42", models.EventUserJoined, nil, "b1"))
}

func TestDispatchMessageSend(t *testing.T) {
	r := NewRouter(stubVerifier{}, nil, nil)
	sender := newFakeConn("s1", "sender")
	receiver := newFakeConn("r1", "receiver")
	r.Connect(sender)
	r.Connect(receiver)

	r.Dispatch(sender, []byte(`{"event":"message:send","data":{"receiverId":"receiver","message":{"id":"m1","text":"hi"}}}`))

	received := receiver.events(models.EventMessageReceived)
	require.Len(t, received, 1)
	var got struct {
		SenderID string `json:"senderId"`
		Message  struct {
			ID   string `json:"id"`
			Text string `json:"text"`
		} `json:"message"`
	}
	require.NoError(t, json.Unmarshal(received[0].Data, &got))
	assert.Equal(t, "sender", got.SenderID)
	assert.Equal(t, "hi", got.Message.Text)

	acks := sender.events(models.EventMessageSent)
	require.Len(t, acks, 1)
	var ack models.MessageSentPayload
	require.NoError(t, json.Unmarshal(acks[0].Data, &ack))
	assert.Equal(t, models.MessageSentPayload{Success: true, MessageID: "m1"}, ack)
}

func TestDispatchTypingAndTasks(t *testing.T) {
	r := NewRouter(stubVerifier{}, nil, nil)
	a := newFakeConn("a1", "a")
	b := newFakeConn("b1", "b")
	r.Connect(a)
	r.Connect(b)

	r.Dispatch(a, []byte(`{"event":"message:typing","data":{"receiverId":"b","isTyping":true}}`))
	typing := b.events(models.EventUserTyping)
	require.Len(t, typing, 1)
	assert.JSONEq(t, `{"userId":"a","isTyping":true}`, string(typing[0].Data))

	r.Dispatch(a, []byte(`{"event":"task:update","data":{"taskId":"t1","update":{"status":"completed"}}}`))
	assert.Len(t, a.events(models.EventTaskUpdated), 1)
	assert.Len(t, b.events(models.EventTaskUpdated), 1)

	r.Dispatch(a, []byte(`{"event":"task:create","data":{"task":{"id":"t2"},"assigneeId":"b"}}`))
	assigned := b.events(models.EventTaskAssigned)
	require.Len(t, assigned, 1)
	var p struct {
		TaskID       string `json:"taskId"`
		AssignedByID string `json:"assignedById"`
	}
	require.NoError(t, json.Unmarshal(assigned[0].Data, &p))
	assert.Equal(t, "t2", p.TaskID)
	assert.Equal(t, "a", p.AssignedByID)
}

func TestDispatchRejectsUnknownAndMalformed(t *testing.T) {
	r := NewRouter(stubVerifier{}, nil, nil)
	a := newFakeConn("a1", "a")
	r.Connect(a)

	r.Dispatch(a, []byte(`{"event":"launch:rocket"}`))
	r.Dispatch(a, []byte(`not json`))
	r.Dispatch(a, []byte(`{"event":"message:send","data":{}}`))

	assert.Len(t, a.events(models.EventError), 3)
}
