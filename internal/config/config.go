package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"planner/internal/statement"
)

const DefaultMaxUploadBytes = 5 << 20

type Config struct {
	// HTTP Server
	Port string

	// Database
	SQLiteDBPath string

	// AMQP, optional for the HTTP server
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Imports
	MaxUploadBytes      int64
	UploadRatePerMinute int
	DefaultCharset      string
	DefaultCreditRule   string
	CategoryRulesFile   string
	SummaryCacheTTL     time.Duration
	HistoryStart        string
	// CategorizeInterval is how often the worker sweeps uncategorized
	// rows; zero disables the sweep.
	CategorizeInterval time.Duration

	// Raw statement archive in Cloud Storage, optional
	ArchiveBucket string

	// Google Sheets export, optional
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "8081"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/planner.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "planner"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "import_completed"),

		MaxUploadBytes:      int64(getEnvInt("MAX_UPLOAD_BYTES", DefaultMaxUploadBytes)),
		UploadRatePerMinute: getEnvInt("UPLOAD_RATE_PER_MINUTE", 10),
		DefaultCharset:      getEnv("STATEMENT_CHARSET", statement.CharsetUTF8),
		DefaultCreditRule:   getEnv("STATEMENT_CREDIT_RULE", string(statement.CreditByReplacementChar)),
		CategoryRulesFile:   getEnv("CATEGORY_RULES_FILE", ""),
		SummaryCacheTTL:     getEnvDuration("SUMMARY_CACHE_TTL", 5*time.Minute),
		HistoryStart:        getEnv("HISTORY_START", ""),
		CategorizeInterval:  getEnvDuration("CATEGORIZE_INTERVAL", 15*time.Minute),

		ArchiveBucket: getEnv("STATEMENT_ARCHIVE_BUCKET", ""),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Actuals"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
}

// Validate checks every setting and reports all problems at once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
			}
		}
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
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.MaxUploadBytes < 1 {
		errors = append(errors, fmt.Sprintf("invalid max upload bytes %d: must be positive", c.MaxUploadBytes))
	}
	if c.UploadRatePerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid upload rate %d: must be at least 1 per minute", c.UploadRatePerMinute))
	}
	if c.SummaryCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid summary cache TTL %v: must be at least 1 second", c.SummaryCacheTTL))
	}
	if c.CategorizeInterval < 0 {
		errors = append(errors, fmt.Sprintf("invalid categorize interval %v: must not be negative", c.CategorizeInterval))
	}
	if _, err := statement.ParseCreditRule(c.DefaultCreditRule); err != nil {
		errors = append(errors, err.Error())
	}
	if err := (statement.Config{Charset: c.DefaultCharset}).Validate(); err != nil {
		errors = append(errors, err.Error())
	}
	if c.HistoryStart != "" {
		if _, err := time.Parse("2006-01", c.HistoryStart); err != nil {
			errors = append(errors, fmt.Sprintf("invalid history start '%s': must be YYYY-MM", c.HistoryStart))
		}
	}
	if c.CategoryRulesFile != "" {
		if _, err := os.Stat(c.CategoryRulesFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("category rules file does not exist: %s", c.CategoryRulesFile))
		}
	}

	if c.GoogleSpreadsheetID != "" {
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when a spreadsheet ID is set")
		}
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for sheets export")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if c.ArchiveBucket != "" && strings.ContainsAny(c.ArchiveBucket, "/ ") {
		errors = append(errors, fmt.Sprintf("invalid archive bucket '%s': must be a bare bucket name", c.ArchiveBucket))
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// SheetsEnabled reports whether categorized rows should be exported.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

// ArchiveEnabled reports whether raw statements are kept in Cloud Storage.
func (c *Config) ArchiveEnabled() bool {
	return c.ArchiveBucket != ""
}

// ServiceAccountCredentials returns the inline JSON or the contents of the
// credentials file, whichever is configured.
func (c *Config) ServiceAccountCredentials() ([]byte, error) {
	if c.GoogleServiceAccountJSON != "" {
		return []byte(c.GoogleServiceAccountJSON), nil
	}
	if c.GoogleServiceAccountFile == "" {
		return nil, fmt.Errorf("no Google service account credentials configured")
	}
	data, err := os.ReadFile(c.GoogleServiceAccountFile)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return data, nil
}

// HistoryStartMonth returns the first month of the history view, defaulting
// to twelve months before now.
func (c *Config) HistoryStartMonth(now time.Time) time.Time {
	if c.HistoryStart != "" {
		if t, err := time.Parse("2006-01", c.HistoryStart); err == nil {
			return t
		}
	}
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(-1, 0, 0)
}

// StatementDefaults is the parser configuration used when a request does not
// override it.
func (c *Config) StatementDefaults() statement.Config {
	cfg := statement.DefaultConfig()
	cfg.Charset = c.DefaultCharset
	if rule, err := statement.ParseCreditRule(c.DefaultCreditRule); err == nil {
		cfg.Credit = rule
	}
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
