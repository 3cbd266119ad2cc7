package handler

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gs2core/server/internal/presence"
	"github.com/gs2core/server/internal/property"
	"github.com/gs2core/server/internal/protocol"
	"github.com/gs2core/server/internal/session"
)

// defaultStartLevel is where every client session is warped on login; the
// account row's saved LastLevel is not consulted.
const defaultStartLevel = "start.nw"

// classifyPeer derives a session's peer class from the login packet's
// account field. The distilled header never retrieved the separate
// per-class login opcodes the original protocol used (§6: "codes not
// enumerated here"), so this implementation folds class selection into a
// single PLI_LOGIN handler via account-name convention — documented as an
// Open Question decision (DESIGN.md) rather than a guess buried in code.
func classifyPeer(account string) (protocol.PeerClass, string) {
	switch {
	case account == "NPCSERVER":
		return protocol.ClassNPCServer, account
	case strings.HasPrefix(account, "NC:"):
		return protocol.ClassNC, strings.TrimPrefix(account, "NC:")
	case strings.HasPrefix(account, "RC:"):
		return protocol.ClassRC, strings.TrimPrefix(account, "RC:")
	default:
		return protocol.ClassClient, account
	}
}

// cipherGeneration picks the cipher generation for a negotiated version
// string by longest registered prefix match, falling back to the
// configured default (§4.1, §10.3 [cipher]).
func cipherGeneration(cfg map[string]int, fallback int, version string) protocol.CipherGeneration {
	best := -1
	gen := fallback
	for prefix, g := range cfg {
		if strings.HasPrefix(version, prefix) && len(prefix) > best {
			best = len(prefix)
			gen = g
		}
	}
	return protocol.CipherGeneration(gen)
}

// HandleLogin implements the first-packet handshake (§4.4 Await): decode
// the login payload, classify and authenticate the peer, resolve the
// account-uniqueness invariant (superseding any existing Loaded session
// for the same account+class), then push the initial handshake packets
// (server flags, own props, starting level) and promote straight to Loaded
// — the distilled protocol never retrieved a distinct "client ready" ack
// code, so this implementation treats handshake completion as immediate
// readiness (§13 Open Question decisions).
func HandleLogin(d *Deps) protocol.HandlerFunc {
	return func(s any, r *protocol.Reader) bool {
		sess := s.(*session.Session)

		versionString := r.ReadGString()
		rawAccount := r.ReadGString()
		password := r.ReadGString()
		buildInfo := r.ReadGString()
		platform := r.ReadGString()
		codepageField := r.ReadGString()

		class, account := classifyPeer(rawAccount)
		if account == "" {
			sess.Send(buildDiscMessage(sess.Version.Codepage, "bad account"))
			return false
		}

		gen := cipherGeneration(d.Cfg.Cipher.VersionGenerations, d.Cfg.Cipher.UnknownVersionGeneration, versionString)
		seed := loginSeed(account, versionString)
		sess.ResetCipher(gen, seed)

		cp := protocol.CodepageWindows1252
		if n, err := strconv.Atoi(codepageField); err == nil {
			cp = protocol.Codepage(n)
		}
		sess.Version = session.ClientVersion{
			VersionString: versionString,
			Platform:      platform,
			Codepage:      cp,
		}

		nick := rawAccount
		if class == protocol.ClassClient {
			if !authenticateClient(d, sess, account, password) {
				sess.Send(buildDiscMessage(sess.Version.Codepage, "invalid account or password"))
				return false
			}
			nick = account
		}

		sess.Auth = session.Auth{Account: account, Nick: nick}
		sess.SetPeerClass(class)
		sess.SetPhase(protocol.PhaseAuthenticated)
		sess.LastData.Store(time.Now().UnixNano())

		if old := d.Registry.Supersede(sess); old != nil {
			old.Send(buildDiscMessage(old.Version.Codepage, "account logged in elsewhere"))
			old.Close()
			d.Log.Info("duplicate login superseded", zap.String("account", account))
		}

		d.Log.Info("login", zap.String("account", account), zap.String("class", class.String()),
			zap.String("version", versionString), zap.String("build", buildInfo))

		sess.Send(buildServerFlags(sess.Version.Codepage, 0))
		initDefaultProps(sess)
		broadcastProps(d, sess, property.AllIDs(), true)

		if class == protocol.ClassClient {
			warpToStart(d, sess)
		}

		sess.SetPhase(protocol.PhaseLoaded)
		sess.Loaded.Store(true)
		return true
	}
}

// authenticateClient loads (or lazily creates) the account row and checks
// the password. Account persistence is named but out of scope (§1
// Non-goals); when Deps.Accounts is nil (catalog-only / test deployments)
// every password is accepted, matching "implementation is out of scope".
func authenticateClient(d *Deps, sess *session.Session, account, password string) bool {
	if d.Accounts == nil {
		return true
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	row, err := d.Accounts.Load(ctx, account)
	if err != nil {
		d.Log.Warn("account load failed", zap.String("account", account), zap.Error(err))
		return false
	}
	if row == nil {
		_, err := d.Accounts.Create(ctx, account, password, "", "")
		if err != nil {
			d.Log.Warn("account create failed", zap.String("account", account), zap.Error(err))
			return false
		}
		return true
	}
	if row.Banned {
		return false
	}
	return d.Accounts.ValidatePassword(row.PasswordHash, password)
}

func warpToStart(d *Deps, sess *session.Session) {
	d.Levels.Register(defaultStartLevel, 1) // idempotent: no-op once the level is registered, whatever its modtime
	result := presence.Warp(sess, defaultStartLevel, 30, 30, d.Levels.Lookup, newRegistryOps(d.Registry))
	if !result.OK {
		sess.Send(buildWarpFailed(sess.Version.Codepage, defaultStartLevel))
		return
	}
	sendLevel(d, sess, result.Level, false)

	// A level-to-level warp only tells the sender's current level about the
	// new arrival (presence.Warp's BroadcastArrival); the server-wide
	// announcement belongs only to the warp that turns an authenticated
	// session into a present one, so it's gated on FirstLevel rather than
	// repeated on every subsequent warp.
	if sess.FirstLevel.Load() {
		rec := buildServerText(sess.Version.Codepage, sess.Auth.Nick+" has joined")
		for _, c := range d.Registry.ByClass(protocol.ClassClient, nil) {
			if c == sess {
				continue
			}
			c.Send(rec)
		}
	}
}

// sendLevel implements §4.7 sendLevel's cached-vs-full decision: a cache
// hit sends only the reuse marker; otherwise the (possibly adjacency-
// narrowed) full payload goes out and the session's cache entry is
// updated. The core doesn't own level geometry (§1 Non-goals), so "full
// payload" here is the level-name header that would precede board/sign/
// link/NPC data from the Level Collaborator.
func sendLevel(d *Deps, sess *session.Session, lvl presence.LevelView, fromAdjacent bool) {
	decision := presence.DecideSendLevel(sess, lvl, fromAdjacent)
	sess.Send(buildLevelName(sess.Version.Codepage, lvl.Name))
	if decision != presence.SendCachedMarker {
		presence.RecordLevelSent(sess, lvl)
	}
}

// initDefaultProps seeds the handful of properties every fresh session
// needs a value for before the first broadcast (nickname, full hearts).
func initDefaultProps(sess *session.Session) {
	sess.SetProp(byte(property.PropNickname), []byte(sess.Auth.Nick))
	sess.SetProp(byte(property.PropMaxHearts), []byte{20})
	sess.SetProp(byte(property.PropHearts), []byte{20})
	sess.SetProp(byte(property.PropX), []byte{30})
	sess.SetProp(byte(property.PropY), []byte{30})
}

// loginSeed derives a per-session cipher seed from the account name and
// negotiated version string — deterministic per login, distinct per
// account, which is all the block/rolling-XOR ciphers need as a key (§4.1:
// "a per-session stream cipher keyed at login").
func loginSeed(account, version string) int32 {
	var h int32 = 0x4a2d7f11
	for _, r := range account + "|" + version {
		h = h*31 + int32(r)
	}
	return h
}
