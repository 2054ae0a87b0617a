package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/pflag"
)

// Config holds the configuration for a Halcyon insights service
type Config struct {
	// MQTT configuration
	MQTTBroker   string
	MQTTPort     int
	MQTTUser     string
	MQTTPassword string
	MQTTClientID string

	// Redis configuration (document store for insight results and learning records)
	RedisHost     string
	RedisPort     int
	RedisPassword string
	RedisDB       int

	// Postgres configuration (journal entry source)
	PostgresHost               string
	PostgresPort               int
	PostgresUser               string
	PostgresPassword           string
	PostgresDB                 string
	PostgresSSLMode            string
	PostgresMaxConnections     int
	PostgresMaxIdleConnections int
	PostgresConnMaxLifetime    time.Duration

	// Service configuration
	ServiceName string
	HealthPort  int
	APIPort     int
	LogLevel    string

	// Geographic coordinates for daylight-length derivation when an entry
	// carries no recorded daylight value (Helsinki defaults)
	Latitude  float64
	Longitude float64

	// Insight generation thresholds
	Insights InsightConfig

	// Feedback learning thresholds
	Learning LearningConfig

	// Burnout risk scoring constants
	Burnout BurnoutConfig
}

// InsightConfig centralizes every tunable of the correlation engines and the
// orchestrator. These are product-tuned constants; change with care.
type InsightConfig struct {
	MinEntries     int           // mood-bearing entries required before any engine runs
	MinDataPoints  int           // entries required per factor group
	MinMentions    int           // entries required per entity-like factor (people)
	MinMoodDelta   int           // percentage points below which a delta is noise
	MaxPerCategory int           // insights kept per engine
	MaxInsights    int           // insights kept per generated document
	CacheTTL       time.Duration // lifetime of a generated insight document
	MaxEntries     int           // newest entries considered per generation

	// RegenerateCooldown bounds how often entry events can trigger a fresh
	// generation for the same user, judged against the persisted document's
	// GeneratedAt so restarts cannot stampede regeneration
	RegenerateCooldown time.Duration
}

// LearningConfig centralizes the feedback-learning thresholds.
type LearningConfig struct {
	SuppressionThreshold      float64       // accuracy rate below which a pattern is suppressed
	MinFeedbackForSuppression int           // feedback events required before suppression can trigger
	SuppressionExpiry         time.Duration // suppression lapses after this long
	MinNewEntries             int           // new entries that trigger a suppressed-pattern re-evaluation
	ConfidenceFloor           float64       // confidence multiplier never falls below this
	InaccuracyPenalty         float64       // weight of (1 - accuracyRate) in the multiplier
	ResurfaceMultiplier       float64       // delta magnitude factor required to override suppression
	ReevalPenalty             float64       // extra multiplier applied on new-data re-evaluation
	StrengthDowngradeBelow    float64       // multiplier under which a strong insight is demoted
	MaxFalsePositiveEntries   int           // ring buffer size for cited false-positive entries
	MaxFalsePositivePatterns  int           // lexical indicators kept per record
}

// BurnoutConfig centralizes the burnout scorer constants. The factor weights
// sum to 1.0.
type BurnoutConfig struct {
	WindowSize int // newest entries considered
	MinEntries int // below this the scorer reports insufficient data

	WeightMoodTrajectory float64
	WeightFatigue        float64
	WeightOverwork       float64
	WeightPhysical       float64
	WeightWorkTags       float64
	WeightLowMoodStreak  float64

	LowMoodCutoff       float64 // mood score counted toward the low-mood streak
	ModerateThreshold   float64
	HighThreshold       float64
	CriticalThreshold   float64
	RecoveryDiscount    float64 // subtracted per recovery-keyword entry among the newest entries
	MaxRecoveryEntries  int
	MaxRecoveryDiscount float64 // total discount cap
	SevereFactorCutoff  float64 // sub-score counted as severe for shelter-mode
	SevereFactorCount   int     // severe factors required alongside high risk
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		MQTTBroker:   "localhost",
		MQTTPort:     1883,
		MQTTUser:     "",
		MQTTPassword: "",
		MQTTClientID: "",

		RedisHost:     "localhost",
		RedisPort:     6379,
		RedisPassword: "",
		RedisDB:       0,

		PostgresHost:               "localhost",
		PostgresPort:               5432,
		PostgresUser:               "halcyon",
		PostgresPassword:           "",
		PostgresDB:                 "halcyon",
		PostgresSSLMode:            "disable",
		PostgresMaxConnections:     10,
		PostgresMaxIdleConnections: 2,
		PostgresConnMaxLifetime:    30 * time.Minute,

		ServiceName: "insights-agent",
		HealthPort:  8080,
		APIPort:     3004,
		LogLevel:    "info",

		Latitude:  60.1695,
		Longitude: 24.9354,

		Insights: InsightConfig{
			MinEntries:     7,
			MinDataPoints:  5,
			MinMentions:    3,
			MinMoodDelta:   8,
			MaxPerCategory: 3,
			MaxInsights:    8,
			CacheTTL:       12 * time.Hour,
			MaxEntries:     500,

			RegenerateCooldown: 10 * time.Minute,
		},

		Learning: LearningConfig{
			SuppressionThreshold:      0.4,
			MinFeedbackForSuppression: 3,
			SuppressionExpiry:         30 * 24 * time.Hour,
			MinNewEntries:             5,
			ConfidenceFloor:           0.3,
			InaccuracyPenalty:         0.7,
			ResurfaceMultiplier:       1.5,
			ReevalPenalty:             0.8,
			StrengthDowngradeBelow:    0.5,
			MaxFalsePositiveEntries:   20,
			MaxFalsePositivePatterns:  10,
		},

		Burnout: BurnoutConfig{
			WindowSize: 14,
			MinEntries: 3,

			WeightMoodTrajectory: 0.25,
			WeightFatigue:        0.20,
			WeightOverwork:       0.20,
			WeightPhysical:       0.15,
			WeightWorkTags:       0.10,
			WeightLowMoodStreak:  0.10,

			LowMoodCutoff:       0.4,
			ModerateThreshold:   0.3,
			HighThreshold:       0.5,
			CriticalThreshold:   0.7,
			RecoveryDiscount:    0.05,
			MaxRecoveryEntries:  5,
			MaxRecoveryDiscount: 0.15,
			SevereFactorCutoff:  0.6,
			SevereFactorCount:   2,
		},
	}
}

// LoadFromEnv loads configuration from environment variables with HALCYON_ prefix
func (c *Config) LoadFromEnv() {
	// MQTT configuration
	if v := os.Getenv("HALCYON_MQTT_BROKER"); v != "" {
		c.MQTTBroker = v
	}
	if v := os.Getenv("HALCYON_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.MQTTPort = port
		}
	}
	if v := os.Getenv("HALCYON_MQTT_USER"); v != "" {
		c.MQTTUser = v
	}
	if v := os.Getenv("HALCYON_MQTT_PASSWORD"); v != "" {
		c.MQTTPassword = v
	}
	if v := os.Getenv("HALCYON_MQTT_CLIENT_ID"); v != "" {
		c.MQTTClientID = v
	}

	// Redis configuration
	if v := os.Getenv("HALCYON_REDIS_HOST"); v != "" {
		c.RedisHost = v
	}
	if v := os.Getenv("HALCYON_REDIS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.RedisPort = port
		}
	}
	if v := os.Getenv("HALCYON_REDIS_PASSWORD"); v != "" {
		c.RedisPassword = v
	}
	if v := os.Getenv("HALCYON_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			c.RedisDB = db
		}
	}

	// Postgres configuration
	if v := os.Getenv("HALCYON_POSTGRES_HOST"); v != "" {
		c.PostgresHost = v
	}
	if v := os.Getenv("HALCYON_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.PostgresPort = port
		}
	}
	if v := os.Getenv("HALCYON_POSTGRES_USER"); v != "" {
		c.PostgresUser = v
	}
	if v := os.Getenv("HALCYON_POSTGRES_PASSWORD"); v != "" {
		c.PostgresPassword = v
	}
	if v := os.Getenv("HALCYON_POSTGRES_DB"); v != "" {
		c.PostgresDB = v
	}
	if v := os.Getenv("HALCYON_POSTGRES_SSLMODE"); v != "" {
		c.PostgresSSLMode = v
	}

	// Service configuration
	if v := os.Getenv("HALCYON_SERVICE_NAME"); v != "" {
		c.ServiceName = v
	}
	if v := os.Getenv("HALCYON_HEALTH_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.HealthPort = port
		}
	}
	if v := os.Getenv("HALCYON_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.APIPort = port
		}
	}
	if v := os.Getenv("HALCYON_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}

	// Coordinates
	if v := os.Getenv("HALCYON_LATITUDE"); v != "" {
		if lat, err := strconv.ParseFloat(v, 64); err == nil {
			c.Latitude = lat
		}
	}
	if v := os.Getenv("HALCYON_LONGITUDE"); v != "" {
		if lon, err := strconv.ParseFloat(v, 64); err == nil {
			c.Longitude = lon
		}
	}

	// Insight thresholds
	if v := os.Getenv("HALCYON_MIN_ENTRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Insights.MinEntries = n
		}
	}
	if v := os.Getenv("HALCYON_MIN_DATA_POINTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Insights.MinDataPoints = n
		}
	}
	if v := os.Getenv("HALCYON_MIN_MOOD_DELTA"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Insights.MinMoodDelta = n
		}
	}
	if v := os.Getenv("HALCYON_MAX_INSIGHTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Insights.MaxInsights = n
		}
	}
	if v := os.Getenv("HALCYON_CACHE_TTL_HOURS"); v != "" {
		if h, err := strconv.ParseFloat(v, 64); err == nil {
			c.Insights.CacheTTL = time.Duration(h * float64(time.Hour))
		}
	}
	if v := os.Getenv("HALCYON_REGENERATE_COOLDOWN_MINUTES"); v != "" {
		if m, err := strconv.ParseFloat(v, 64); err == nil {
			c.Insights.RegenerateCooldown = time.Duration(m * float64(time.Minute))
		}
	}

	// Burnout window
	if v := os.Getenv("HALCYON_BURNOUT_WINDOW"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Burnout.WindowSize = n
		}
	}
}

// LoadFromFlags parses command-line flags and overrides config values
func (c *Config) LoadFromFlags() {
	// MQTT flags
	pflag.StringVar(&c.MQTTBroker, "mqtt-broker", c.MQTTBroker, "MQTT broker hostname")
	pflag.IntVar(&c.MQTTPort, "mqtt-port", c.MQTTPort, "MQTT broker port")
	pflag.StringVar(&c.MQTTUser, "mqtt-user", c.MQTTUser, "MQTT username")
	pflag.StringVar(&c.MQTTPassword, "mqtt-password", c.MQTTPassword, "MQTT password")
	pflag.StringVar(&c.MQTTClientID, "mqtt-client-id", c.MQTTClientID, "MQTT client ID")

	// Redis flags
	pflag.StringVar(&c.RedisHost, "redis-host", c.RedisHost, "Redis hostname")
	pflag.IntVar(&c.RedisPort, "redis-port", c.RedisPort, "Redis port")
	pflag.StringVar(&c.RedisPassword, "redis-password", c.RedisPassword, "Redis password")
	pflag.IntVar(&c.RedisDB, "redis-db", c.RedisDB, "Redis database number")

	// Postgres flags
	pflag.StringVar(&c.PostgresHost, "postgres-host", c.PostgresHost, "Postgres hostname")
	pflag.IntVar(&c.PostgresPort, "postgres-port", c.PostgresPort, "Postgres port")
	pflag.StringVar(&c.PostgresUser, "postgres-user", c.PostgresUser, "Postgres username")
	pflag.StringVar(&c.PostgresPassword, "postgres-password", c.PostgresPassword, "Postgres password")
	pflag.StringVar(&c.PostgresDB, "postgres-db", c.PostgresDB, "Postgres database name")
	pflag.StringVar(&c.PostgresSSLMode, "postgres-sslmode", c.PostgresSSLMode, "Postgres SSL mode")

	// Service flags
	pflag.StringVar(&c.ServiceName, "service-name", c.ServiceName, "Service name")
	pflag.IntVar(&c.HealthPort, "health-port", c.HealthPort, "Health check HTTP port")
	pflag.IntVar(&c.APIPort, "api-port", c.APIPort, "HTTP API port")
	pflag.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (debug, info, warn, error)")

	// Coordinates
	pflag.Float64Var(&c.Latitude, "latitude", c.Latitude, "Geographic latitude for daylight derivation")
	pflag.Float64Var(&c.Longitude, "longitude", c.Longitude, "Geographic longitude for daylight derivation")

	// Insight threshold flags
	pflag.IntVar(&c.Insights.MinEntries, "min-entries", c.Insights.MinEntries, "Mood-bearing entries required before insight generation")
	pflag.IntVar(&c.Insights.MinDataPoints, "min-data-points", c.Insights.MinDataPoints, "Entries required per factor group")
	pflag.IntVar(&c.Insights.MinMoodDelta, "min-mood-delta", c.Insights.MinMoodDelta, "Minimum mood delta in percentage points")
	pflag.IntVar(&c.Insights.MaxInsights, "max-insights", c.Insights.MaxInsights, "Maximum insights per generated document")
	pflag.DurationVar(&c.Insights.CacheTTL, "cache-ttl", c.Insights.CacheTTL, "Lifetime of a generated insight document")
	pflag.DurationVar(&c.Insights.RegenerateCooldown, "regenerate-cooldown", c.Insights.RegenerateCooldown, "Minimum interval between entry-triggered regenerations per user")

	// Burnout flags
	pflag.IntVar(&c.Burnout.WindowSize, "burnout-window", c.Burnout.WindowSize, "Newest entries considered by the burnout scorer")

	pflag.Parse()
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT broker is required")
	}
	if c.MQTTPort <= 0 || c.MQTTPort > 65535 {
		return fmt.Errorf("MQTT port must be between 1 and 65535")
	}
	if c.RedisHost == "" {
		return fmt.Errorf("Redis host is required")
	}
	if c.RedisPort <= 0 || c.RedisPort > 65535 {
		return fmt.Errorf("Redis port must be between 1 and 65535")
	}
	if c.PostgresHost == "" {
		return fmt.Errorf("Postgres host is required")
	}
	if c.PostgresPort <= 0 || c.PostgresPort > 65535 {
		return fmt.Errorf("Postgres port must be between 1 and 65535")
	}
	if c.HealthPort <= 0 || c.HealthPort > 65535 {
		return fmt.Errorf("Health port must be between 1 and 65535")
	}
	if c.ServiceName == "" {
		return fmt.Errorf("Service name is required")
	}

	if c.Insights.MinEntries < 1 {
		return fmt.Errorf("min entries must be at least 1")
	}
	if c.Insights.MaxInsights < 1 {
		return fmt.Errorf("max insights must be at least 1")
	}
	if c.Learning.ConfidenceFloor <= 0 || c.Learning.ConfidenceFloor > 1 {
		return fmt.Errorf("confidence floor must be in (0, 1]")
	}
	if c.Burnout.WindowSize < c.Burnout.MinEntries {
		return fmt.Errorf("burnout window must be at least %d entries", c.Burnout.MinEntries)
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// MQTTAddress returns the full MQTT broker address
func (c *Config) MQTTAddress() string {
	return fmt.Sprintf("tcp://%s:%d", c.MQTTBroker, c.MQTTPort)
}

// RedisAddress returns the full Redis address
func (c *Config) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// PostgresConnectionString returns the lib/pq connection string
func (c *Config) PostgresConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword,
		c.PostgresDB, c.PostgresSSLMode)
}
