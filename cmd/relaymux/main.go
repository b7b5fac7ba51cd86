// Command relaymux is the relay multiplexer proxy: it accepts local
// client subscriber/publisher connections and fans events between them
// and two upstream relay pools (public and private), applying signature
// verification, dedup, and optional large-media filtering along the way.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/plebos/nostr-relay-mux/internal/config"
	"github.com/plebos/nostr-relay-mux/internal/dedup"
	"github.com/plebos/nostr-relay-mux/internal/logging"
	"github.com/plebos/nostr-relay-mux/internal/relayengine"
	"github.com/plebos/nostr-relay-mux/internal/supervisor"
	"github.com/plebos/nostr-relay-mux/internal/supervisor/services"
	"github.com/plebos/nostr-relay-mux/internal/wsrelay"
)

func main() {
	os.Exit(run())
}

// run contains the startup sequence as a function returning an exit code,
// so a fatal listener bind failure can return non-zero without os.Exit
// bypassing deferred cleanup.
func run() int {
	cfg, err := config.Load(flag.NewFlagSet("relaymux", flag.ContinueOnError), os.Args[1:])
	if err != nil {
		logging.Error().Err(err).Msg("failed to load configuration")
		return 1
	}

	logging.Init(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Caller: cfg.Log.Caller,
	})

	endpoints, err := cfg.Endpoints()
	if err != nil {
		logging.Error().Err(err).Msg("invalid relay endpoint configuration")
		return 1
	}

	hub := wsrelay.NewHub()
	cache := dedup.NewCache(cfg.NoteCacheTime, cfg.DedupSweepInterval)
	engine := relayengine.NewEngine(cfg, hub, cache)

	listener, err := relayengine.NewListener(cfg.ListenIP, cfg.ListenPort, hub, engine.Router())
	if err != nil {
		logging.Error().Err(err).Str("listen_ip", cfg.ListenIP).Int("listen_port", cfg.ListenPort).Msg("failed to bind client listener")
		return 1
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Error().Err(err).Msg("failed to create supervisor tree")
		return 1
	}

	tree.AddListenerService(services.NewNamedService("client-listener", listener))
	tree.AddListenerService(services.NewNamedService("client-hub", services.ServeFunc(hub.RunWithContext)))

	for _, ep := range endpoints {
		sup := engine.NewSupervisor(ep)
		tree.AddUpstreamService(services.NewNamedService(fmt.Sprintf("upstream-%s-%s", ep.Pool, ep.String()), sup))
	}

	tree.AddMaintenanceService(services.NewNamedService("dedup-sweep", cache))
	if cfg.MetricsListenAddr != "" {
		metricsSrv := relayengine.NewMetricsServer(cfg.MetricsListenAddr)
		tree.AddMaintenanceService(services.NewNamedService("metrics-server", metricsSrv))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	logging.Info().
		Str("listen_ip", cfg.ListenIP).
		Int("listen_port", cfg.ListenPort).
		Int("endpoints", len(endpoints)).
		Bool("filter_large_media", cfg.FilterLargeMedia).
		Msg("starting relay multiplexer")

	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("context canceled, waiting for supervisor tree to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervisor tree exited with error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervisor shutdown error")
		}
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("services failed to stop within timeout")
	}

	return 0
}
