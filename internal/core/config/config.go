package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type GeocoderCfg struct {
	URL       string
	Countries string
	UserAgent string
	Timeout   time.Duration
	CacheSize int
	CacheTTL  time.Duration
}

type DirectionsCfg struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

type EventsCfg struct {
	Enabled bool
	Brokers string
	Topic   string
	Queue   int
	H3Res   int
}

type InvalidationCfg struct {
	Enabled bool
	Topic   string
	GroupID string
}

type Config struct {
	Addr              string
	LogLevel          string
	LogConsole        bool
	LogSampleN        int
	MetricsEnabled    bool
	RedisAddr         string
	CacheOpTimeout    time.Duration
	Geocoder          GeocoderCfg
	Directions        DirectionsCfg
	Events            EventsCfg
	Invalidation      InvalidationCfg
	SpeedCarKmh       float64
	SpeedWalkingKmh   float64
	SanitizeTolerance float64
}

// FromEnv reads configuration from the environment. A .env file in the working
// directory is loaded first; variables already set win.
func FromEnv() Config {
	_ = godotenv.Load()

	h3Res := getint("EVENTS_H3_RES", 7)
	if h3Res < 0 || h3Res > 15 {
		h3Res = 7
	}

	return Config{
		Addr:           getenv("ADDR", ":8090"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		LogConsole:     getbool("LOG_CONSOLE", false),
		LogSampleN:     getint("LOG_SAMPLE_N", 0),
		MetricsEnabled: getbool("METRICS_ENABLED", true),
		RedisAddr:      strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		CacheOpTimeout: getduration("CACHE_OP_TIMEOUT", 250*time.Millisecond),
		Geocoder: GeocoderCfg{
			URL:       getenv("GEOCODER_URL", "https://nominatim.openstreetmap.org"),
			Countries: getenv("GEOCODER_COUNTRIES", "de"),
			UserAgent: getenv("GEOCODER_USER_AGENT", "route-planner/1.0 (+https://github.com/mohammed-shakir/route-planner)"),
			Timeout:   getduration("GEOCODE_TIMEOUT", 5*time.Second),
			CacheSize: getint("GEOCODE_CACHE_SIZE", 4096),
			CacheTTL:  getduration("GEOCODE_CACHE_TTL", 24*time.Hour),
		},
		Directions: DirectionsCfg{
			URL:     getenv("DIRECTIONS_URL", "https://api.openrouteservice.org"),
			APIKey:  strings.TrimSpace(os.Getenv("ORS_API_KEY")),
			Timeout: getduration("DIRECTIONS_TIMEOUT", 10*time.Second),
		},
		Events: EventsCfg{
			Enabled: getbool("EVENTS_ENABLED", false),
			Brokers: getenv("KAFKA_BROKERS", "localhost:9092"),
			Topic:   getenv("KAFKA_TOPIC", "route-events"),
			Queue:   getint("EVENTS_QUEUE", 1024),
			H3Res:   h3Res,
		},
		Invalidation: InvalidationCfg{
			Enabled: getbool("INVALIDATION_ENABLED", false),
			Topic:   getenv("INVALIDATION_TOPIC", "geocode-invalidations"),
			GroupID: getenv("KAFKA_GROUP_ID", "route-planner-geocode"),
		},
		SpeedCarKmh:       getpositive("SPEED_CAR_KMH", 60),
		SpeedWalkingKmh:   getpositive("SPEED_WALKING_KMH", 4.5),
		SanitizeTolerance: getpositive("SANITIZE_TOLERANCE_DEG", 1e-4),
	}
}

// BrokerList splits the comma separated broker setting.
func (c EventsCfg) BrokerList() []string {
	var out []string
	for b := range strings.SplitSeq(c.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

// like getfloat but rejects zero and negative values
func getpositive(k string, def float64) float64 {
	if f := getfloat(k, def); f > 0 {
		return f
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
