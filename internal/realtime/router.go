// Package realtime tracks live websocket connections per identity and delivers
// events to them.
package realtime

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/life-ease-api/internal/models"
	appErrors "github.com/noah-isme/life-ease-api/pkg/errors"
)

// Conn is one live connection as seen by the router. Send must not block.
type Conn interface {
	ID() string
	IdentityID() string
	Send(frame []byte) bool
}

// AccessVerifier resolves an access token to an identity.
type AccessVerifier interface {
	VerifyAccess(token string) (string, error)
}

// Metrics receives router gauges and counters.
type Metrics interface {
	SetConnections(n int)
	SetOnlineIdentities(n int)
	ObserveEvent(direction, event string)
	ObserveDroppedFrame()
}

type noopMetrics struct{}

func (noopMetrics) SetConnections(int)          {}
func (noopMetrics) SetOnlineIdentities(int)     {}
func (noopMetrics) ObserveEvent(string, string) {}
func (noopMetrics) ObserveDroppedFrame()        {}

// Router is the connection registry. All registry mutation and the online/offline
// broadcasts it triggers happen under one mutex, so status transitions for an
// identity are emitted exactly once and in order.
type Router struct {
	verifier AccessVerifier
	metrics  Metrics
	logger   *zap.Logger

	mu          sync.Mutex
	identities  map[string]map[string]Conn
	owners      map[string]string
	rooms       map[string]map[string]struct{}
	memberships map[string]map[string]struct{}
}

// NewRouter builds an empty router.
func NewRouter(verifier AccessVerifier, metrics Metrics, logger *zap.Logger) *Router {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		verifier:    verifier,
		metrics:     metrics,
		logger:      logger,
		identities:  make(map[string]map[string]Conn),
		owners:      make(map[string]string),
		rooms:       make(map[string]map[string]struct{}),
		memberships: make(map[string]map[string]struct{}),
	}
}

// Authenticate verifies a handshake credential.
func (r *Router) Authenticate(credential string) (string, error) {
	if credential == "" {
		return "", appErrors.ErrAuthenticationFailed
	}
	identityID, err := r.verifier.VerifyAccess(credential)
	if err != nil || identityID == "" {
		return "", appErrors.Wrap(err, appErrors.ErrAuthenticationFailed.Code, appErrors.ErrAuthenticationFailed.Status, appErrors.ErrAuthenticationFailed.Message)
	}
	return identityID, nil
}

// Connect registers c. The first connection of an identity broadcasts it online.
// Registering an id twice is a no-op.
func (r *Router) Connect(c Conn) {
	identityID := c.IdentityID()
	online, err := encodeFrame(models.EventUserStatus, models.UserStatusPayload{UserID: identityID, IsOnline: true})
	if err != nil {
		r.logger.Error("encode status frame", zap.Error(err))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.owners[c.ID()]; exists {
		return
	}

	set, ok := r.identities[identityID]
	if !ok {
		set = make(map[string]Conn)
		r.identities[identityID] = set
	}
	set[c.ID()] = c
	r.owners[c.ID()] = identityID

	if !ok && online != nil {
		r.deliverAllLocked(models.EventUserStatus, online)
	}
	r.updateGaugesLocked()
	r.logger.Info("realtime client connected", zap.String("conn_id", c.ID()), zap.String("user_id", identityID))
}

// Disconnect removes a connection and its room memberships. The last connection of
// an identity broadcasts it offline. Unknown ids are ignored. It reports whether
// anything was removed.
func (r *Router) Disconnect(connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	identityID, ok := r.owners[connID]
	if !ok {
		return false
	}
	delete(r.owners, connID)

	for room := range r.memberships[connID] {
		members := r.rooms[room]
		delete(members, connID)
		if len(members) == 0 {
			delete(r.rooms, room)
		}
	}
	delete(r.memberships, connID)

	if set, ok := r.identities[identityID]; ok {
		delete(set, connID)
		if len(set) == 0 {
			delete(r.identities, identityID)
			offline, err := encodeFrame(models.EventUserStatus, models.UserStatusPayload{UserID: identityID, IsOnline: false})
			if err != nil {
				r.logger.Error("encode status frame", zap.Error(err))
			} else {
				r.deliverAllLocked(models.EventUserStatus, offline)
			}
		}
	}

	r.updateGaugesLocked()
	r.logger.Info("realtime client disconnected", zap.String("conn_id", connID), zap.String("user_id", identityID))
	return true
}

// SendToIdentity delivers an event to every connection of identityID and returns
// how many accepted it. Offline identities are a no-op.
func (r *Router) SendToIdentity(identityID, event string, payload interface{}) int {
	frame, err := encodeFrame(event, payload)
	if err != nil {
		r.logger.Error("encode frame", zap.String("event", event), zap.Error(err))
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delivered := 0
	for _, c := range r.identities[identityID] {
		if r.sendLocked(c, event, frame) {
			delivered++
		}
	}
	return delivered
}

// Broadcast delivers an event to every registered connection.
func (r *Router) Broadcast(event string, payload interface{}) int {
	frame, err := encodeFrame(event, payload)
	if err != nil {
		r.logger.Error("encode frame", zap.String("event", event), zap.Error(err))
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deliverAllLocked(event, frame)
}

// JoinRoom adds a registered connection to room.
func (r *Router) JoinRoom(connID, room string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.owners[connID]; !ok {
		return false
	}
	members, ok := r.rooms[room]
	if !ok {
		members = make(map[string]struct{})
		r.rooms[room] = members
	}
	members[connID] = struct{}{}

	joined, ok := r.memberships[connID]
	if !ok {
		joined = make(map[string]struct{})
		r.memberships[connID] = joined
	}
	joined[room] = struct{}{}
	return true
}

// SendToRoom delivers an event to every member of room except exceptConnID.
func (r *Router) SendToRoom(room, event string, payload interface{}, exceptConnID string) int {
	frame, err := encodeFrame(event, payload)
	if err != nil {
		r.logger.Error("encode frame", zap.String("event", event), zap.Error(err))
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delivered := 0
	for connID := range r.rooms[room] {
		if connID == exceptConnID {
			continue
		}
		if c := r.connLocked(connID); c != nil && r.sendLocked(c, event, frame) {
			delivered++
		}
	}
	return delivered
}

// OnlineIdentities returns the identities with at least one connection, sorted.
func (r *Router) OnlineIdentities() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.identities))
	for id := range r.identities {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// IsOnline reports whether identityID has a live connection.
func (r *Router) IsOnline(identityID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.identities[identityID]
	return ok
}

// ConnectionCount returns the number of registered connections.
func (r *Router) ConnectionCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.owners)
}

func (r *Router) connLocked(connID string) Conn {
	identityID, ok := r.owners[connID]
	if !ok {
		return nil
	}
	return r.identities[identityID][connID]
}

func (r *Router) deliverAllLocked(event string, frame []byte) int {
	delivered := 0
	for _, set := range r.identities {
		for _, c := range set {
			if r.sendLocked(c, event, frame) {
				delivered++
			}
		}
	}
	return delivered
}

func (r *Router) sendLocked(c Conn, event string, frame []byte) bool {
	if c.Send(frame) {
		r.metrics.ObserveEvent("out", event)
		return true
	}
	r.metrics.ObserveDroppedFrame()
	return false
}

func (r *Router) updateGaugesLocked() {
	r.metrics.SetConnections(len(r.owners))
	r.metrics.SetOnlineIdentities(len(r.identities))
}
