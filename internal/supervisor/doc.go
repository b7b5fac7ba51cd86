/*
Package supervisor provides process supervision for the relay multiplexer
using suture v4.

This package implements a hierarchical supervisor tree that manages the
lifecycle of every long-running service in the proxy. It provides Erlang/OTP
style supervision: automatic restart, failure isolation, and graceful
shutdown.

# Overview

The supervisor tree organizes services into three layers for failure isolation:

	RootSupervisor ("relaymux")
	├── ListenerSupervisor ("listener-layer")
	│   └── ListenerService (accepts client connections)
	├── UpstreamsSupervisor ("upstreams-layer")
	│   ├── Supervisor for each public relay endpoint
	│   └── Supervisor for each private relay endpoint
	└── MaintenanceSupervisor ("maintenance-layer")
	    ├── DedupSweepService
	    └── MetricsServerService

This hierarchy ensures that:
  - One upstream endpoint flapping doesn't affect the listener's ability to
    keep serving already-connected clients
  - A crash in the metrics HTTP server never touches the relay path
  - Each layer restarts independently of the others

# Key Features

Automatic Restart:
  - Crashed services are automatically restarted
  - Exponential-decay failure counting prevents restart storms

Failure Isolation:
  - Services are grouped by the kind of failure that can take them down
  - Child supervisor failures don't propagate upward

Graceful Shutdown:
  - Context cancellation triggers orderly shutdown
  - Configurable shutdown timeout per service
  - UnstoppedServiceReport for debugging hangs

Structured Logging:
  - Integration with slog for structured supervisor events
  - Event hooks via the sutureslog adapter

# Usage Example

	logger := slog.Default()
	config := supervisor.DefaultTreeConfig()

	tree, err := supervisor.NewSupervisorTree(logger, config)
	if err != nil {
		log.Fatal(err)
	}

	tree.AddListenerService(services.NewNamedService("listener", listener))
	for _, ep := range endpoints {
		tree.AddUpstreamService(services.NewNamedService(ep.String(), sup))
	}
	tree.AddMaintenanceService(services.NewNamedService("dedup-sweep", sweep))

	if err := tree.Serve(ctx); err != nil {
		log.Printf("supervisor stopped: %v", err)
	}

# Configuration

	config := supervisor.TreeConfig{
		FailureThreshold: 5.0,              // failures before backoff
		FailureDecay:     30.0,              // seconds for failures to decay
		FailureBackoff:   15 * time.Second,  // backoff duration
		ShutdownTimeout:  10 * time.Second,  // per-service shutdown timeout
	}

# Service Interface

Every supervised component implements suture.Service:

	type Service interface {
		Serve(ctx context.Context) error
	}

Return behavior:
  - Return nil: service stopped cleanly, will not be restarted
  - Return error: service crashed, will be restarted
  - Context canceled: shutdown requested, return promptly

The Connection Supervisor's internal state machine
(Connecting/Running/Recovering) also lives inside one Serve call per
endpoint, so suture restarts it like any other service if it ever panics.

# See Also

  - internal/supervisor/services: generic service-wrapper adapters
  - github.com/thejerf/suture/v4: underlying library
*/
package supervisor
