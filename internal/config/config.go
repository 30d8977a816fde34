package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. DOCSECTIONS_PAGE_SCAN_LIMIT.
const EnvPrefix = "DOCSECTIONS"

type Config struct {
	// Collection mode
	CollectionsRoot string
	PageScanLimit   int
	MaxSections     int
	WriteReport     bool

	// Outline mode
	OutlineInputDir  string
	OutlineOutputDir string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// PDF
	PDFFallbackPdftotext bool

	// HTTP API
	Port           string
	APIKey         string
	MaxUploadBytes int64
	JobTTL         time.Duration

	// Logging
	LogLevel  string
	LogFormat string
}

// SetDefaults registers every key with its default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("collections_root", "/app")
	v.SetDefault("page_scan_limit", 5)
	v.SetDefault("max_sections", 5)
	v.SetDefault("write_report", false)

	v.SetDefault("outline_input_dir", "/app/input")
	v.SetDefault("outline_output_dir", "/app/output")

	v.SetDefault("worker_count", runtime.NumCPU())
	v.SetDefault("max_queue_size", 16)

	v.SetDefault("pdf_fallback_pdftotext", true)

	v.SetDefault("port", "8090")
	v.SetDefault("api_key", "")
	v.SetDefault("max_upload_bytes", int64(52428800)) // 50MB
	v.SetDefault("job_ttl", time.Hour)

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
}

// BindEnv makes every key overridable from DOCSECTIONS_* variables.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

// Load reads the configuration from v. Non-positive numbers fall back to defaults.
func Load(v *viper.Viper) Config {
	cfg := Config{
		CollectionsRoot: v.GetString("collections_root"),
		PageScanLimit:   v.GetInt("page_scan_limit"),
		MaxSections:     v.GetInt("max_sections"),
		WriteReport:     v.GetBool("write_report"),

		OutlineInputDir:  v.GetString("outline_input_dir"),
		OutlineOutputDir: v.GetString("outline_output_dir"),

		WorkerCount:  v.GetInt("worker_count"),
		MaxQueueSize: v.GetInt("max_queue_size"),

		PDFFallbackPdftotext: v.GetBool("pdf_fallback_pdftotext"),

		Port:           v.GetString("port"),
		APIKey:         v.GetString("api_key"),
		MaxUploadBytes: v.GetInt64("max_upload_bytes"),
		JobTTL:         v.GetDuration("job_ttl"),

		LogLevel:  strings.ToLower(v.GetString("log_level")),
		LogFormat: strings.ToLower(v.GetString("log_format")),
	}

	if cfg.PageScanLimit <= 0 {
		cfg.PageScanLimit = 5
	}
	if cfg.MaxSections <= 0 {
		cfg.MaxSections = 5
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = runtime.NumCPU()
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 16
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.Port == "" {
		cfg.Port = "8090"
	}

	return cfg
}

// Default returns the configuration with no overrides applied.
func Default() Config {
	v := viper.New()
	SetDefaults(v)
	return Load(v)
}

func (c Config) Validate() error {
	if c.CollectionsRoot == "" {
		return fmt.Errorf("collections_root is required")
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("log_format must be json or text, got %q", c.LogFormat)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn or error, got %q", c.LogLevel)
	}
	return nil
}

// ValidateServer checks the extra settings serve mode needs.
func (c Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.APIKey == "" {
		return fmt.Errorf("api_key is required (set %s_API_KEY)", EnvPrefix)
	}
	return nil
}
