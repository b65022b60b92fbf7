package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port               string
	LogLevel           string
	MaxUploadBytes     int64
	RateLimitPerMinute int
	SessionTTL         time.Duration
	MaxSessions        int

	// Ledger storage
	LedgerBackend string
	SQLiteDSN     string

	// Text recognition
	OCREngine      string
	TesseractPath  string
	TesseractLangs string
	OCRURL         string
	OCRAPIKey      string
	OCRModel       string
	OCRTimeout     time.Duration

	// AMQP ledger events, optional
	AMQPURL        string
	AMQPExchange   string
	AMQPRoutingKey string

	// Google Sheets export, optional
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
}

var (
	validBackends   = []string{"memory", "sqlite"}
	validOCREngines = []string{"auto", "tesseract", "http", "none"}
	validLogLevels  = []string{"debug", "info", "warn", "error"}
)

func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		LogLevel:           strings.ToLower(getEnv("LOG_LEVEL", "info")),
		MaxUploadBytes:     getEnvInt64("MAX_UPLOAD_BYTES", 10<<20),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		SessionTTL:         getEnvDuration("SESSION_TTL", 2*time.Hour),
		MaxSessions:        getEnvInt("MAX_SESSIONS", 10000),

		LedgerBackend: getEnv("LEDGER_BACKEND", "memory"),
		SQLiteDSN:     getEnv("SQLITE_DSN", ":memory:"),

		OCREngine:      strings.ToLower(getEnv("OCR_ENGINE", "auto")),
		TesseractPath:  getEnv("TESSERACT_PATH", "tesseract"),
		TesseractLangs: getEnv("TESSERACT_LANGS", "eng+ind"),
		OCRURL:         getEnv("OCR_URL", ""),
		OCRAPIKey:      getEnv("OCR_API_KEY", ""),
		OCRModel:       getEnv("OCR_MODEL", "typhoon-ocr"),
		OCRTimeout:     getEnvDuration("OCR_TIMEOUT", 30*time.Second),

		AMQPURL:        getEnv("AMQP_URL", ""),
		AMQPExchange:   getEnv("AMQP_EXCHANGE", "mayfinance"),
		AMQPRoutingKey: getEnv("AMQP_ROUTING_KEY", "ledger_events"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Ledger"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(validLogLevels, c.LogLevel) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLogLevels))
	}

	if c.MaxUploadBytes < 1024 {
		errors = append(errors, fmt.Sprintf("invalid max upload size %d: must be at least 1024 bytes", c.MaxUploadBytes))
	}
	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 per minute", c.RateLimitPerMinute))
	}
	if c.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	}

	if c.MaxSessions < 1 {
		errors = append(errors, fmt.Sprintf("invalid max sessions %d: must be at least 1", c.MaxSessions))
	}

	if !slices.Contains(validBackends, c.LedgerBackend) {
		errors = append(errors, fmt.Sprintf("invalid ledger backend '%s': must be one of %v", c.LedgerBackend, validBackends))
	}
	if c.LedgerBackend == "sqlite" && c.SQLiteDSN == "" {
		errors = append(errors, "SQLite DSN cannot be empty when using sqlite backend")
	}

	if !slices.Contains(validOCREngines, c.OCREngine) {
		errors = append(errors, fmt.Sprintf("invalid OCR engine '%s': must be one of %v", c.OCREngine, validOCREngines))
	}
	if c.OCREngine == "http" && c.OCRURL == "" {
		errors = append(errors, "OCR_URL is required when OCR_ENGINE is http")
	}
	if c.OCRURL != "" {
		if u, err := url.Parse(c.OCRURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			errors = append(errors, fmt.Sprintf("invalid OCR URL '%s': must be an http(s) URL", c.OCRURL))
		}
	}
	if c.OCRTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("invalid OCR timeout %v: must be positive", c.OCRTimeout))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPRoutingKey == "" {
			errors = append(errors, "AMQP routing key cannot be empty when AMQP URL is provided")
		}
	}

	if c.GoogleSpreadsheetID != "" {
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided with GOOGLE_SPREADSHEET_ID")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// SheetsEnabled reports whether the spreadsheet export is configured.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleSpreadsheetID != "" && (c.GoogleServiceAccountJSON != "" || c.GoogleServiceAccountFile != "")
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
