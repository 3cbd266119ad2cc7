// Package handler implements the packet handlers the dispatcher table
// (internal/protocol.Registry) invokes — the bodies behind the ~80 inbound
// codes of §4.5, grounded on the teacher's handler package: small,
// code-per-file handlers sharing a Deps bag of collaborators rather than a
// god object.
package handler

import (
	"go.uber.org/zap"

	"github.com/gs2core/server/internal/catalog"
	"github.com/gs2core/server/internal/config"
	"github.com/gs2core/server/internal/persist"
	"github.com/gs2core/server/internal/registry"
	"github.com/gs2core/server/internal/scripting"
)

// Deps bundles every collaborator a handler might need. Accounts may be nil
// (tests, or a catalog-only deployment) — handlers that touch it check
// first and fall back to an in-memory identity, matching the account
// schema being named but out-of-scope (§1 Non-goals).
type Deps struct {
	Log      *zap.Logger
	Registry *registry.Registry
	Catalog  *catalog.FileSystem
	Scripts  *scripting.Cache
	Accounts *persist.AccountRepo
	Levels   *LevelStore
	Cfg      *config.Config

	// NextID mints server-unique session ids, assigned at accept time
	// (§3 Invariants: "A Session is LoggedIn iff class != Await and id >
	// 0" — ids are minted before login completes, so this is just a
	// counter, not an authentication gate).
	NextID func() uint64
}
