package handler

import (
	"sync"

	"github.com/gs2core/server/internal/presence"
	"github.com/gs2core/server/internal/registry"
	"github.com/gs2core/server/internal/session"
)

// LevelStore is the concrete stand-in for the "Level Collaborator" §4.7
// names and leaves out of scope — a minimal name->modtime directory, just
// enough for warp/sendLevel's cache decision to have something real to
// consult. A full level-file parser (board, signs, links, NPCs) is outside
// this core's responsibility per §1 Non-goals.
type LevelStore struct {
	mu     sync.Mutex
	levels map[string]presence.LevelView
}

func NewLevelStore() *LevelStore {
	return &LevelStore{levels: make(map[string]presence.LevelView)}
}

// Register records a level's initial modtime the first time it's seen.
// It is a no-op on an already-registered level, so a later RC edit's
// Touch() isn't stomped back down by a subsequent login's Register call
// for the same default start level.
func (ls *LevelStore) Register(name string, modTime int64) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if _, ok := ls.levels[name]; ok {
		return
	}
	ls.levels[name] = presence.LevelView{Name: name, ModTime: modTime}
}

// Touch bumps a level's modtime forward (e.g. after an RC edit), which is
// what makes every session's cachedLevel entry stale on next warp. Unlike
// Register, it always overwrites.
func (ls *LevelStore) Touch(name string, modTime int64) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.levels[name] = presence.LevelView{Name: name, ModTime: modTime}
}

// Lookup implements presence.LevelLookup.
func (ls *LevelStore) Lookup(name string) (presence.LevelView, bool) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	lvl, ok := ls.levels[name]
	return lvl, ok
}

// registryOps adapts *registry.Registry to presence.PlayerListOps, adding
// the departure/arrival broadcasts the registry itself doesn't build
// (it only knows how to store member lists, not encode packets).
type registryOps struct {
	reg *registry.Registry
}

func newRegistryOps(reg *registry.Registry) *registryOps {
	return &registryOps{reg: reg}
}

func (o *registryOps) Join(levelName string, sess *session.Session) {
	o.reg.Join(levelName, sess)
}

func (o *registryOps) Leave(levelName string, sess *session.Session) {
	o.reg.Leave(levelName, sess)
}

func (o *registryOps) BroadcastArrival(levelName string, sess *session.Session) {
	rec := buildAddPlayer(sess)
	for _, m := range o.reg.LevelMembers(levelName) {
		if m == sess {
			continue
		}
		m.Send(rec)
	}
}

func (o *registryOps) BroadcastDeparture(levelName string, sess *session.Session) {
	rec := buildRemovePlayer(sess)
	for _, m := range o.reg.LevelMembers(levelName) {
		if m == sess {
			continue
		}
		m.Send(rec)
	}
}
