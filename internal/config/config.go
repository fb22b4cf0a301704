package config

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Addr   string
	DBPath string
	Debug  bool

	// Polling
	PollConcurrency int
	DeviceTimeout   time.Duration
	RebuildInterval time.Duration
	RebuildTimeout  time.Duration
	SNMPCommunity   string
	SNMPPort        int

	// MAC resolution
	ResolveTimeout time.Duration
	CacheTTL       time.Duration

	// Offline snapshot
	SnapshotStaleAfter time.Duration
}

// Load parses command line flags and environment variables to populate Config.
// Flags take precedence over environment variables.
func Load() *Config {
	cfg := &Config{}

	// Defaults and Environment Variables
	cfg.Addr = getEnv("SWITCHMAP_ADDR", ":8080")
	cfg.DBPath = getEnv("SWITCHMAP_DB", getDefaultDBPath())
	cfg.Debug = getEnvBool("SWITCHMAP_DEBUG", false)
	cfg.PollConcurrency = getEnvInt("SWITCHMAP_POLL_CONCURRENCY", 8)
	cfg.DeviceTimeout = getEnvDuration("SWITCHMAP_DEVICE_TIMEOUT", 30*time.Second)
	cfg.RebuildInterval = getEnvDuration("SWITCHMAP_REBUILD_INTERVAL", 30*time.Minute)
	cfg.RebuildTimeout = getEnvDuration("SWITCHMAP_REBUILD_TIMEOUT", 10*time.Minute)
	cfg.SNMPCommunity = getEnv("SWITCHMAP_SNMP_COMMUNITY", "public")
	cfg.SNMPPort = getEnvInt("SWITCHMAP_SNMP_PORT", 161)
	cfg.ResolveTimeout = getEnvDuration("SWITCHMAP_RESOLVE_TIMEOUT", 45*time.Second)
	cfg.CacheTTL = getEnvDuration("SWITCHMAP_CACHE_TTL", 2*time.Minute)
	cfg.SnapshotStaleAfter = getEnvDuration("SWITCHMAP_SNAPSHOT_STALE_AFTER", time.Hour)

	// Command Line Flags (Override Env)
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP server address")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to SQLite database")
	flag.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Enable verbose debug logging")
	flag.IntVar(&cfg.PollConcurrency, "poll-concurrency", cfg.PollConcurrency, "Max switches polled in parallel during a rebuild")
	flag.DurationVar(&cfg.DeviceTimeout, "device-timeout", cfg.DeviceTimeout, "Per-device poll timeout")
	flag.DurationVar(&cfg.RebuildInterval, "rebuild-interval", cfg.RebuildInterval, "Periodic topology rebuild interval (0 to disable)")
	flag.DurationVar(&cfg.RebuildTimeout, "rebuild-timeout", cfg.RebuildTimeout, "Overall timeout for one rebuild run")
	flag.StringVar(&cfg.SNMPCommunity, "snmp-community", cfg.SNMPCommunity, "SNMP v2c community string")
	flag.IntVar(&cfg.SNMPPort, "snmp-port", cfg.SNMPPort, "SNMP agent port")
	flag.DurationVar(&cfg.ResolveTimeout, "resolve-timeout", cfg.ResolveTimeout, "Overall timeout for one MAC resolution")
	flag.DurationVar(&cfg.CacheTTL, "cache-ttl", cfg.CacheTTL, "Resolved endpoint cache TTL (0 to disable)")
	flag.DurationVar(&cfg.SnapshotStaleAfter, "snapshot-stale-after", cfg.SnapshotStaleAfter, "Age after which snapshot answers are flagged stale")

	flag.Parse()

	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// getDefaultDBPath returns the default database path in user's home directory.
// Creates the directory if it doesn't exist.
func getDefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		log.Printf("Warning: Could not get user home directory, using current dir: %v", err)
		return "switchmap.db"
	}

	dir := filepath.Join(home, ".switchmap")
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Printf("Warning: Could not create .switchmap directory, using current dir: %v", err)
		return "switchmap.db"
	}

	return filepath.Join(dir, "switchmap.db")
}
