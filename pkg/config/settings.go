package config

import "time"

// Settings carries every tunable the service recognises, resolved from the
// environment once at startup. Call sites receive a Settings value instead of
// reading the environment themselves so tests can construct their own.
type Settings struct {
	// Cache TTLs
	CacheExpiry      time.Duration // short-lived directory data
	LongCacheExpiry  time.Duration // immutable universe data and killmail bodies
	StatsCacheExpiry time.Duration // aggregated killboard documents

	// ESI batching
	MaxBulkNames int           // names per bulk resolution request
	ChunkSize    int           // org lookups per concurrent chunk
	ChunkDelay   time.Duration // gap between bulk chunks

	// Killboard scheduler
	StatsMinInterval    time.Duration
	StatsRequestTimeout time.Duration
	StatsMaxRetries     int

	// Proof of work
	PowDifficultyBits int

	// Killmail ingestion
	MaxKillmailsToFetch int
	KillmailBatchSize   int
	KillmailFetchDelay  time.Duration

	// Presentation hints passed through to clients
	MaxConcurrentImages int

	// Storage
	CacheBackend string // "badger" or "redis"
	CacheDir     string
}

// Load resolves Settings from the environment, applying defaults.
func Load() Settings {
	return Settings{
		CacheExpiry:      time.Duration(GetIntEnv("CACHE_EXPIRY_HOURS", 12)) * time.Hour,
		LongCacheExpiry:  time.Duration(GetIntEnv("LONG_CACHE_EXPIRY_HOURS", 168)) * time.Hour,
		StatsCacheExpiry: time.Duration(GetIntEnv("ZKILL_KILLS_CACHE_HOURS", 3)) * time.Hour,

		MaxBulkNames: GetIntEnv("MAX_BULK_NAMES", 100),
		ChunkSize:    GetIntEnv("CHUNK_SIZE", 50),
		ChunkDelay:   time.Duration(GetIntEnv("CHUNK_DELAY_MS", 25)) * time.Millisecond,

		StatsMinInterval:    time.Duration(GetIntEnv("STATS_MIN_INTERVAL_MS", 10000)) * time.Millisecond,
		StatsRequestTimeout: time.Duration(GetIntEnv("STATS_REQUEST_TIMEOUT_MS", 20000)) * time.Millisecond,
		StatsMaxRetries:     GetIntEnv("STATS_MAX_RETRIES", 3),

		PowDifficultyBits: GetIntEnv("POW_DIFFICULTY_BITS", 12),

		MaxKillmailsToFetch: GetIntEnv("MAX_KILLMAILS_TO_FETCH", 100),
		KillmailBatchSize:   GetIntEnv("KILLMAIL_BATCH_SIZE", 10),
		KillmailFetchDelay:  time.Duration(GetIntEnv("KILLMAIL_FETCH_DELAY_MS", 100)) * time.Millisecond,

		MaxConcurrentImages: GetIntEnv("MAX_CONCURRENT_IMAGES", 4),

		CacheBackend: GetEnv("CACHE_BACKEND", "badger"),
		CacheDir:     GetEnv("CACHE_DIR", "data/cache"),
	}
}

// GetAPIPrefix returns the configured HTTP API prefix
func GetAPIPrefix() string {
	return GetEnv("API_PREFIX", "")
}
