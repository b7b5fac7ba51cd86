package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where a config file is searched for,
// in priority order. The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/relaymux/config.yaml",
	"/etc/relaymux/config.yml",
}

// ConfigPathEnvVar is the environment variable that overrides the config
// file search path.
const ConfigPathEnvVar = "CONFIG_PATH"

// envPrefix namespaces every environment variable this proxy reads.
const envPrefix = "RELAYMUX_"

// sliceConfigPaths lists koanf paths that arrive as delimited strings from
// the environment or command line and must be split into string slices
// before Unmarshal.
var sliceConfigPaths = []string{
	"public_servers",
	"private_servers",
}

// Load builds a Config from, in ascending priority: built-in defaults, an
// optional YAML file, environment variables (RELAYMUX_-prefixed), and
// command-line flags bound to fs. Load registers its flags on fs and parses
// args itself, so callers pass a fresh, unparsed *flag.FlagSet (tests pass
// one together with a synthetic argv).
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	k := koanf.New(".")

	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	envProvider := env.Provider(envPrefix, ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	registerFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}
	if err := applyFlagOverrides(k, fs); err != nil {
		return nil, fmt.Errorf("failed to apply flag overrides: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// registerFlags binds the CLI surface this proxy exposes onto fs. Flag
// names match the wire-level argument names exactly so `--public-servers`
// etc. keep working regardless of which config layer eventually wins.
func registerFlags(fs *flag.FlagSet) {
	fs.String("public-servers", "", "comma-separated list of public relay endpoints")
	fs.String("private-servers", "", "comma-separated list of private relay endpoints")
	fs.String("listen-ip", "", "address the client listener binds to")
	fs.Int("listen-port", 0, "port the client listener binds to")
	fs.Int("note-cache-time", 0, "dedup cache entry TTL in seconds")
	fs.Bool("filter-large-media", false, "enable the large-media filter stage")
}

// flagKoanfPaths maps each CLI flag's wire-level name (dashed) to the
// koanf config path it overrides (underscored, per the Config struct's
// koanf tags). The two naming conventions differ, so flag values
// are applied explicitly rather than through koanf's basicflag provider,
// which unflattens a flag's own name with no such translation.
var flagKoanfPaths = map[string]string{
	"public-servers":     "public_servers",
	"private-servers":    "private_servers",
	"listen-ip":          "listen_ip",
	"listen-port":        "listen_port",
	"note-cache-time":    "note_cache_time",
	"filter-large-media": "filter_large_media",
}

// applyFlagOverrides sets the koanf path for every flag the caller actually
// passed on the command line. fs.Visit (unlike VisitAll) only calls back for
// flags explicitly set, so an unset flag's zero-value default never
// clobbers a value already loaded from the file or environment layers.
func applyFlagOverrides(k *koanf.Koanf, fs *flag.FlagSet) error {
	var setErr error
	fs.Visit(func(f *flag.Flag) {
		if setErr != nil {
			return
		}
		path, ok := flagKoanfPaths[f.Name]
		if !ok {
			return
		}
		val := f.Value.String()
		// --note-cache-time is an integer count of seconds on the wire;
		// append the unit so it unmarshals into a time.Duration.
		if f.Name == "note-cache-time" {
			val += "s"
		}
		if err := k.Set(path, val); err != nil {
			setErr = fmt.Errorf("failed to apply --%s: %w", f.Name, err)
		}
	})
	return setErr
}

// findConfigFile searches for a config file in the default paths.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// processSliceFields converts delimited string values into slices for the
// paths listed in sliceConfigPaths, since both env vars and flags arrive
// as plain strings.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		// Server lists arrive either comma- or space-separated.
		parts := strings.FieldsFunc(strVal, func(r rune) bool {
			return r == ',' || unicode.IsSpace(r)
		})
		if len(parts) > 0 {
			if err := k.Set(path, parts); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps RELAYMUX_-prefixed environment variable names to
// koanf config paths, e.g. RELAYMUX_LISTEN_PORT -> listen_port,
// RELAYMUX_LOG_LEVEL -> log.level.
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	switch key {
	case "log_level":
		return "log.level"
	case "log_format":
		return "log.format"
	case "log_caller":
		return "log.caller"
	default:
		return key
	}
}
