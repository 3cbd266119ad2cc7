// Command gs2core runs the game-server core: login, warp/property/chat
// handling, file serving, and the periodic save/keep-alive/reconnect-
// timeout systems, wired together the way the teacher's cmd/l1jgo/main.go
// wires its own repositories, systems, and game loop.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gs2core/server/internal/catalog"
	"github.com/gs2core/server/internal/config"
	"github.com/gs2core/server/internal/events"
	"github.com/gs2core/server/internal/handler"
	"github.com/gs2core/server/internal/persist"
	"github.com/gs2core/server/internal/property"
	"github.com/gs2core/server/internal/protocol"
	"github.com/gs2core/server/internal/registry"
	"github.com/gs2core/server/internal/scripting"
	"github.com/gs2core/server/internal/session"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := "config/server.toml"
	if p := os.Getenv(config.EnvOverride); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := persist.NewDB(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()
	if err := persist.RunMigrations(ctx, db.Pool); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	accounts := persist.NewAccountRepo(db)
	log.Info("database ready")

	fs := catalog.New(cfg.Catalog.ServerRoot, cfg.Catalog.NoFoldersConfig)
	if err := fs.LoadManifest(cfg.Catalog.ManifestPath); err != nil {
		log.Warn("catalog manifest not loaded, starting with an empty catalogue", zap.Error(err))
	}

	scripts := scripting.NewCache(cfg.Scripting.WorkerPoolSize, log)
	defer scripts.Close()

	reg := registry.New()
	levels := handler.NewLevelStore()

	var nextSessionID uint64
	deps := &handler.Deps{
		Log:      log,
		Registry: reg,
		Catalog:  fs,
		Scripts:  scripts,
		Accounts: accounts,
		Levels:   levels,
		Cfg:      cfg,
		NextID:   func() uint64 { nextSessionID++; return nextSessionID },
	}

	dispatch := handler.Build(deps, log)
	dispatch.InvalidThreshold = cfg.Session.InvalidPacketThreshold

	runner := events.NewRunner()
	runner.Register(&events.SaveSystem{
		Registry:     reg,
		SaveInterval: cfg.Session.SaveInterval,
		Log:          log,
		Save: func(sess *session.Session) error {
			nick := string(sess.Prop(byte(property.PropNickname)))
			guild := string(sess.Prop(byte(property.PropGuild)))
			return accounts.SavePresence(context.Background(), sess.Auth.Account, nick, guild, sess.Level, 30, 30)
		},
	})
	runner.Register(&events.KeepAliveSystem{Registry: reg, IdleTimeout: cfg.Session.IdleTimeout, Log: log})
	runner.Register(&events.ReconnectTimeoutSystem{Registry: reg, MaxNoActivity: cfg.Session.MaxNoActivity, Log: log})
	runner.Register(&events.PMCleanupSystem{Registry: reg, MaxPMAge: cfg.Session.PMMaxAge})

	ln, err := net.Listen("tcp", cfg.Network.BindAddress)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Network.BindAddress, err)
	}
	defer ln.Close()
	log.Info("listening", zap.String("address", cfg.Network.BindAddress))

	go acceptLoop(ln, cfg, deps, dispatch, log)

	ticker := time.NewTicker(cfg.Network.TickRate)
	defer ticker.Stop()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case now := <-ticker.C:
			runner.Tick(now)
			scripts.RunQueue()
		case sig := <-shutdownCh:
			log.Info("shutting down", zap.String("signal", sig.String()))
			ln.Close()
			return nil
		}
	}
}

// acceptLoop accepts connections and spawns a session and its dispatch
// goroutine for each, mirroring the teacher's AcceptLoop/NewSession split
// but inline since this core's Session already owns its read/write
// goroutines (§5 Concurrency Model).
func acceptLoop(ln net.Listener, cfg *config.Config, deps *handler.Deps, dispatch *protocol.Registry, log *zap.Logger) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ne, ok := err.(net.Error); !ok || !ne.Timeout() {
				log.Info("listener closed, accept loop exiting", zap.Error(err))
				return
			}
			log.Warn("accept failed", zap.Error(err))
			continue
		}
		sess := session.New(deps.NextID(), conn, cfg.Network.InQueueSize, cfg.Network.OutQueueSize, log)
		sess.Start()
		deps.Registry.Add(sess)
		go serveSession(sess, deps, dispatch, log)
	}
}

// serveSession drains one session's decrypted InQueue, splits it into
// logical records, and dispatches each — the "raw follows" framing and
// the dispatcher's terminate-on-false contract both live here (§4.1, §4.5).
func serveSession(sess *session.Session, deps *handler.Deps, dispatch *protocol.Registry, log *zap.Logger) {
	defer handler.OnDisconnect(deps, sess)

	rawNext := false
	for plaintext := range sess.InQueue {
		off := 0
		for {
			rec, next, ok := sess.Splitter.Next(plaintext, off)
			if !ok {
				break
			}
			off = next

			if rawNext {
				rawNext = false
				handler.ConsumeRaw(deps, sess, rec)
				continue
			}
			if len(rec) == 0 {
				continue
			}

			code := protocol.NewReader(rec, sess.Version.Codepage).Opcode()
			if !dispatch.Dispatch(sess, rec, sess.Version.Codepage) {
				sess.Close()
				return
			}
			if protocol.IsRawAnnouncer(code) {
				rawNext = true
			}
			sess.PacketCount.Add(1)
		}
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
