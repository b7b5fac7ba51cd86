// Package logging provides centralized zerolog-based structured logging for
// the relay multiplexer.
//
// # Overview
//
// The package provides:
//   - Zero-allocation structured logging via zerolog
//   - JSON output format for production (machine-parseable)
//   - Console output format for development (human-readable)
//   - Global logger configuration through Init
//   - An slog adapter for suture v4's sutureslog event hook
//
// # Quick Start
//
//	import "github.com/plebos/nostr-relay-mux/internal/logging"
//
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	    Caller: false,
//	})
//
//	logging.Info().Str("endpoint", ep.String()).Msg("upstream connected")
//	logging.Error().Err(err).Msg("dial failed")
//
// # Configuration
//
// This package reads no environment variables for its settings; level,
// format and caller come from the Config passed to Init. The relay
// multiplexer fills that Config from internal/config, where
// RELAYMUX_LOG_LEVEL, RELAYMUX_LOG_FORMAT and RELAYMUX_LOG_CALLER set them.
//
//	Level   - Minimum log level: trace, debug, info, warn, error (default: info)
//	Format  - Output format: json, console (default: json)
//	Caller  - Include caller file:line: true, false (default: false)
//
// # Log Levels
//
//	trace  - Very detailed diagnostic information
//	debug  - Per-frame chatter (dropped frames, dedup hits, media probe failures)
//	info   - Connection lifecycle events (client/upstream connect/disconnect)
//	warn   - Recoverable conditions (upstream connect failure, full broadcast queue)
//	error  - Error conditions requiring attention (e.g. listener bind failure)
//	fatal  - Fatal errors that terminate the program
//	panic  - Panic conditions that crash the program
//
// # Structured Logging Best Practices
//
// Always terminate log chains with .Msg() or .Send():
//
//	logging.Info().Str("key", "value").Msg("message")  // Correct
//	logging.Info().Str("key", "value")                 // WRONG - log not emitted
//
// # Component Loggers
//
//	upstreamLogger := logging.With().Str("component", "upstream-reader").Logger()
//	upstreamLogger.Info().Msg("connected")
//
// # slog Adapter
//
//	slogLogger := logging.NewSlogLogger()
//	// wired into supervisor.NewSupervisorTree via sutureslog.Handler{Logger: slogLogger}
//
// # Thread Safety
//
// All exported functions are safe for concurrent use. The global logger is
// protected by sync.RWMutex for configuration changes.
//
// # Testing
//
//	var buf bytes.Buffer
//	logger := logging.NewTestLogger(&buf)
//	logger.Info().Msg("test message")
//
// # See Also
//
//   - github.com/rs/zerolog: underlying logging library
//   - github.com/thejerf/sutureslog: suture event-hook bridge consuming the slog adapter
package logging
