// Package registry implements the server-wide directory (C8): id->Session,
// account->Session uniqueness, level->ordered player list, the external
// peer table, and chat-channel multicast.
package registry

import (
	"sort"
	"sync"

	"github.com/gs2core/server/internal/protocol"
	"github.com/gs2core/server/internal/session"
)

// ExternalPlayer is a non-owning stand-in representing a player connected
// to a different cooperating server, discovered via an NC peer (§4.8,
// GLOSSARY "External player").
type ExternalPlayer struct {
	PeerServer string
	AccountID  string
}

// Registry is the process-wide singleton described in §4.8. Sessions are
// added from the accept loop and the indices are read and mutated from
// every session's dispatch goroutine and the tick loop, so every method
// takes mu.
type Registry struct {
	mu sync.Mutex

	byID      map[uint64]*session.Session
	byAccount map[string]*session.Session // key: peer-class|account, to allow one Loaded session per class per account

	levels map[string][]*session.Session // ordered player lists, append order = arrival order

	externalPeers map[string]map[string]ExternalPlayer // peer-server -> external account id -> stand-in

	channels map[string]map[uint64]*session.Session // channel name -> member session id -> session
}

func New() *Registry {
	return &Registry{
		byID:          make(map[uint64]*session.Session),
		byAccount:     make(map[string]*session.Session),
		levels:        make(map[string][]*session.Session),
		externalPeers: make(map[string]map[string]ExternalPlayer),
		channels:      make(map[string]map[uint64]*session.Session),
	}
}

func accountKey(class protocol.PeerClass, account string) string {
	return class.String() + "|" + account
}

// Add registers a new session by id. Add does not enforce the
// account-uniqueness invariant — that's Supersede's job, called once the
// handler has authenticated the session and knows its account name.
func (reg *Registry) Add(sess *session.Session) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.byID[sess.ID] = sess
}

// Remove drops a session from every index it might appear in: id table,
// account table, its level's player list, and every channel it joined.
func (reg *Registry) Remove(sess *session.Session) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	delete(reg.byID, sess.ID)
	if sess.Auth.Account != "" {
		key := accountKey(sess.PeerClass(), sess.Auth.Account)
		if reg.byAccount[key] == sess {
			delete(reg.byAccount, key)
		}
	}
	if sess.Level != "" {
		reg.removeFromLevelLocked(sess.Level, sess)
	}
	for name, members := range reg.channels {
		delete(members, sess.ID)
		if len(members) == 0 {
			delete(reg.channels, name)
		}
	}
}

// Supersede implements the Session invariant: at most one session per
// (account, peer-class) may be Loaded simultaneously — duplicates
// supersede, the older is terminated (§3 Invariants, scenario 2). It
// returns the superseded session (nil if there wasn't one) so the caller
// can send it a disconnect advisory before closing it.
func (reg *Registry) Supersede(sess *session.Session) *session.Session {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	key := accountKey(sess.PeerClass(), sess.Auth.Account)
	old := reg.byAccount[key]
	reg.byAccount[key] = sess
	if old == sess {
		return nil
	}
	return old
}

// Get looks up a session by id.
func (reg *Registry) Get(id uint64) (*session.Session, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	s, ok := reg.byID[id]
	return s, ok
}

// ByAccount looks up the current Loaded session for (class, account).
func (reg *Registry) ByAccount(class protocol.PeerClass, account string) (*session.Session, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	s, ok := reg.byAccount[accountKey(class, account)]
	return s, ok
}

// ByClass enumerates sessions of a given class. nonIterable, when non-nil,
// is consulted per-session to exclude hidden admin sessions from the
// enumeration (§4.8 "non-iterable filter").
func (reg *Registry) ByClass(class protocol.PeerClass, nonIterable func(*session.Session) bool) []*session.Session {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	var out []*session.Session
	for _, s := range reg.byID {
		if s.PeerClass() != class {
			continue
		}
		if nonIterable != nil && nonIterable(s) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Join appends sess to levelName's ordered player list (§4.8, used by
// package presence's Warp).
func (reg *Registry) Join(levelName string, sess *session.Session) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.levels[levelName] = append(reg.levels[levelName], sess)
}

// Leave removes sess from levelName's player list.
func (reg *Registry) Leave(levelName string, sess *session.Session) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.removeFromLevelLocked(levelName, sess)
}

func (reg *Registry) removeFromLevelLocked(levelName string, sess *session.Session) {
	members := reg.levels[levelName]
	for i, m := range members {
		if m == sess {
			reg.levels[levelName] = append(members[:i], members[i+1:]...)
			break
		}
	}
	if len(reg.levels[levelName]) == 0 {
		delete(reg.levels, levelName)
	}
}

// LevelMembers returns the ordered player list for a level.
func (reg *Registry) LevelMembers(levelName string) []*session.Session {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	members := reg.levels[levelName]
	out := make([]*session.Session, len(members))
	copy(out, members)
	return out
}

// AddExternalPeer records an external player discovered via peer.
func (reg *Registry) AddExternalPeer(peer string, ep ExternalPlayer) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	m, ok := reg.externalPeers[peer]
	if !ok {
		m = make(map[string]ExternalPlayer)
		reg.externalPeers[peer] = m
	}
	m[ep.AccountID] = ep
}

// ExternalPeer looks up a previously-discovered external player.
func (reg *Registry) ExternalPeer(peer, accountID string) (ExternalPlayer, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	m, ok := reg.externalPeers[peer]
	if !ok {
		return ExternalPlayer{}, false
	}
	ep, ok := m[accountID]
	return ep, ok
}

// PMDeliverer sends a private message to an NC peer for relay to an
// external player (the "routes via the NC peer" clause of §4.8).
type PMDeliverer func(peer, accountID, message string) error

// PMExternalPlayer routes a private message to an external player through
// its owning peer server.
func (reg *Registry) PMExternalPlayer(peer, accountID, message string, deliver PMDeliverer) error {
	return deliver(peer, accountID, message)
}

// JoinChannel and LeaveChannel are set operations on a channel's member
// set (§4.8 "chat-channel multicast").
func (reg *Registry) JoinChannel(name string, sess *session.Session) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	m, ok := reg.channels[name]
	if !ok {
		m = make(map[uint64]*session.Session)
		reg.channels[name] = m
	}
	m[sess.ID] = sess
	sess.JoinChannel(name)
}

// LeaveChannel removes sess from the channel, reporting whether it had
// actually been a member — resolving the spec's Open Question against the
// original's `removeChatChannel` which returned false unconditionally:
// here it returns true iff the channel was present and the session was
// removed from it (§9 Open Questions, §13 decisions).
func (reg *Registry) LeaveChannel(name string, sess *session.Session) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	m, ok := reg.channels[name]
	if !ok {
		return false
	}
	_, present := m[sess.ID]
	if !present {
		return false
	}
	delete(m, sess.ID)
	if len(m) == 0 {
		delete(reg.channels, name)
	}
	sess.LeaveChannel(name)
	return true
}

// ChannelMembers returns a channel's members, for multicast delivery.
func (reg *Registry) ChannelMembers(name string) []*session.Session {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	m := reg.channels[name]
	out := make([]*session.Session, 0, len(m))
	for _, s := range m {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SendToChannel delivers rec to every member of name via each session's
// Send, implementing "a message to a channel iterates the registry and
// delivers to members" (§4.8).
func (reg *Registry) SendToChannel(name string, rec []byte, except *session.Session) {
	for _, s := range reg.ChannelMembers(name) {
		if s == except {
			continue
		}
		s.Send(rec)
	}
}
