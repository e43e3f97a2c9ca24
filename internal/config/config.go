// Package config provides configuration loading for the FinanceApp core.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all tunables consumed by the analysis pipeline and the
// advice client. Values are loaded once at process start and passed
// explicitly into the components that need them.
type Config struct {
	Port int

	// Encodings is the ordered candidate list tried when decoding an
	// uploaded file. Names are those accepted by ingest.DecodeTable.
	Encodings []string

	// DayFirst controls how ambiguous two-numeral date prefixes are
	// interpreted. True means 01/02/2025 is 1 February.
	DayFirst bool

	// OutlierThreshold is the absolute amount above which a transaction
	// is flagged for review, in the base currency unit.
	OutlierThreshold float64

	// MinViableRows is the valid-row count below which the validation
	// report carries an insufficient-data warning.
	MinViableRows int

	// MaxUploadBytes caps the size of an uploaded file.
	MaxUploadBytes int64

	GeminiAPIKey  string
	GeminiModel   string
	AdviceTimeout time.Duration
	AdviceRetries int
}

// Defaults mirrored by Load when the environment does not override them.
const (
	DefaultPort             = 8080
	DefaultOutlierThreshold = 1000.0
	DefaultMinViableRows    = 10
	DefaultMaxUploadBytes   = 10 << 20
	DefaultGeminiModel      = "gemini-2.5-flash"
	DefaultAdviceTimeout    = 15 * time.Second
	DefaultAdviceRetries    = 1
)

// DefaultEncodings is the decode fallback order: strict UTF-8 first, then
// the two single-byte encodings commonly produced by bank export tools.
func DefaultEncodings() []string {
	return []string{"utf-8", "iso-8859-1", "windows-1252"}
}

// Load reads configuration from the environment. A .env file in the
// working directory is honoured when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnvInt("PORT", DefaultPort),
		Encodings:        getEnvList("CSV_ENCODINGS", DefaultEncodings()),
		DayFirst:         getEnvBool("DATE_DAY_FIRST", true),
		OutlierThreshold: getEnvFloat("OUTLIER_THRESHOLD", DefaultOutlierThreshold),
		MinViableRows:    getEnvInt("MIN_VIABLE_ROWS", DefaultMinViableRows),
		MaxUploadBytes:   int64(getEnvInt("MAX_UPLOAD_BYTES", DefaultMaxUploadBytes)),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		GeminiModel:      getEnv("GEMINI_MODEL", DefaultGeminiModel),
		AdviceTimeout:    time.Duration(getEnvInt("ADVICE_TIMEOUT_SECONDS", int(DefaultAdviceTimeout/time.Second))) * time.Second,
		AdviceRetries:    getEnvInt("ADVICE_RETRIES", DefaultAdviceRetries),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
