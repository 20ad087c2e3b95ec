// Package daemon assembles the full client process: storage backend, runtime
// context, registry actors, and the admin surface.
package daemon

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/wirekit/wirectl/internal/actors"
	"github.com/wirekit/wirectl/internal/config"
	"github.com/wirekit/wirectl/internal/db"
	"github.com/wirekit/wirectl/internal/kvstore"
	"github.com/wirekit/wirectl/internal/options"
	"github.com/wirekit/wirectl/internal/runtime"
	"github.com/wirekit/wirectl/internal/server"
	"github.com/wirekit/wirectl/internal/timesync"
)

const (
	ownerID           = "client.main"
	heartbeatInterval = 30 * time.Second
	tempKeyTTL        = 24 * time.Hour
	protocolLayer     = 160
	appVersion        = "0.1.0"
)

// Service runs the client lifecycle as a standalone process.
type Service struct {
	cfg   config.DaemonConfig
	ctx   *runtime.Context
	admin *server.Server
}

func NewService(cfg config.DaemonConfig) *Service {
	return &Service{cfg: cfg}
}

// Run blocks until process signal shutdown.
func (s *Service) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := s.bootstrap(); err != nil {
		return err
	}
	return s.serve(ctx)
}

// Context exposes the runtime context, mainly for tests.
func (s *Service) Context() *runtime.Context {
	return s.ctx
}

func (s *Service) bootstrap() error {
	store, err := s.openStore()
	if err != nil {
		return err
	}

	s.ctx = runtime.New(timesync.NewSystemClock())
	params := runtime.Parameters{
		APIID:             s.cfg.Client.APIID,
		APIHash:           s.cfg.Client.APIHash,
		DatabaseDirectory: s.cfg.Client.DatabaseDirectory,
		UseTestDC:         s.cfg.Client.UseTestDC,
		UseFileDB:         s.cfg.Client.UseFileDatabase,
		UseSecretChats:    s.cfg.Client.UseSecretChats,
	}
	err = s.ctx.Init(params, ownerID, s.cfg.Scheduler.ID, s.cfg.Scheduler.Count, db.Open(store))
	if err != nil {
		return fmt.Errorf("daemon: bootstrap: %w", err)
	}

	header, err := actors.NewHeaderBuilder(actors.HeaderConfig{
		APIID:          s.cfg.Client.APIID,
		AppVersion:     appVersion,
		DeviceModel:    s.cfg.Name,
		ProtocolLayer:  protocolLayer,
		UseTestNetwork: s.cfg.Client.UseTestDC,
	})
	if err != nil {
		return fmt.Errorf("daemon: bootstrap: %w", err)
	}
	s.ctx.SetHeaderBuilder(header)
	s.ctx.SetConnectionCreator(actors.NewConnectionCreator(actors.DefaultBackoffConfig()))
	s.ctx.SetTempKeyWatchdog(actors.NewTempKeyWatchdog(tempKeyTTL))
	s.ctx.SetQueryDispatcher(actors.NewQueryDispatcher(nil))
	s.ctx.SetNetworkState(actors.NewNetworkStateManager())
	s.ctx.SetOptions(options.New())

	s.admin = server.New(s.ctx, server.Config{
		Name:        s.cfg.Name,
		Addr:        s.cfg.Addr,
		CORSOrigins: s.cfg.CorsOrigins,
	})

	log.Info().
		Str("name", s.cfg.Name).
		Str("storage", s.cfg.Storage.Backend).
		Bool("test_dc", s.cfg.Client.UseTestDC).
		Msg("daemon_ready")
	return nil
}

func (s *Service) openStore() (kvstore.Store, error) {
	switch s.cfg.Storage.Backend {
	case "memory":
		return kvstore.NewMemory(), nil
	case "sqlite":
		return kvstore.OpenSQLite(s.cfg.Storage.Path)
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: s.cfg.Storage.RedisAddr})
		return kvstore.NewRedis(client, ""), nil
	default:
		return nil, fmt.Errorf("daemon: unknown storage backend %q", s.cfg.Storage.Backend)
	}
}

func (s *Service) serve(ctx context.Context) error {
	adminErr := make(chan error, 1)
	go func() {
		adminErr <- s.admin.Run()
	}()

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return s.shutdown()
		case err := <-adminErr:
			if err != nil {
				return fmt.Errorf("daemon: admin server: %w", err)
			}
			return s.shutdown()
		case <-ticker.C:
			state := s.ctx.TimeSyncState()
			log.Info().
				Float64("time_difference", s.ctx.TimeDifference()).
				Bool("server_synced", state.ServerUpdated).
				Bool("dns_synced", state.DNSUpdated).
				Msg("daemon_heartbeat")
			s.ctx.SaveSystemTime()
		}
	}
}

func (s *Service) shutdown() error {
	done := make(chan struct{})
	s.ctx.CloseAll(func() { close(done) })
	select {
	case <-done:
		log.Info().Msg("daemon_shutdown_complete")
		return nil
	case <-time.After(10 * time.Second):
		return fmt.Errorf("daemon: shutdown timed out waiting for storage close")
	}
}
