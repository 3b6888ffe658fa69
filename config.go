package formlogic

import (
	"strings"
	"time"
)

// Config consolidates engine, registry and binary settings
type Config struct {
	Attachment AttachmentConfig `json:"attachment"`
	Solver     SolverConfig     `json:"solver"`
	Projection ProjectionConfig `json:"projection"`
	Registry   RegistryConfig   `json:"registry"`
	Database   DatabaseConfig   `json:"database"`
	S3         S3Config         `json:"s3"`
	Logging    LoggingConfig    `json:"logging"`
}

// AttachmentConfig contains attachment validation settings
type AttachmentConfig struct {
	// MaxTotalSizeBytes caps the sum of all attachment sizes in one submission.
	MaxTotalSizeBytes int64 `json:"maxTotalSizeBytes"`
	// DefaultFieldSizeMB applies to attachment fields without their own limit.
	DefaultFieldSizeMB int      `json:"defaultFieldSizeMB"`
	AllowedExtensions  []string `json:"allowedExtensions"`
}

// SolverConfig contains visibility solver settings
type SolverConfig struct {
	// ExtraPasses is added to the field-count pass cap before the solver
	// gives up and freezes the current visibility.
	ExtraPasses int `json:"extraPasses"`
}

// ProjectionConfig contains response projection settings
type ProjectionConfig struct {
	PrefixQuestions bool `json:"prefixQuestions"`
}

// RegistrySource selects where form definitions are loaded from
type RegistrySource string

const (
	RegistrySourceFile     RegistrySource = "file"
	RegistrySourcePostgres RegistrySource = "postgres"
	RegistrySourceS3       RegistrySource = "s3"
)

// RegistryConfig contains form registry settings
type RegistryConfig struct {
	Source    RegistrySource `json:"source"`
	Directory string         `json:"directory"`
	Table     string         `json:"table"`
	CacheTTL  time.Duration  `json:"cacheTTL"`
	Breaker   BreakerConfig  `json:"breaker"`
}

// BreakerConfig guards remote registries. A zero threshold disables the breaker.
type BreakerConfig struct {
	Threshold    int           `json:"threshold"`
	Window       time.Duration `json:"window"`
	OpenDuration time.Duration `json:"openDuration"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	Database        string        `json:"database"`
	Username        string        `json:"username"`
	Password        string        `json:"password"`
	SSLMode         string        `json:"sslMode"`
	UseIAMAuth      bool          `json:"useIAMAuth"`
	Region          string        `json:"region"`
	MaxConnections  int           `json:"maxConnections"`
	MaxIdleConns    int           `json:"maxIdleConns"`
	ConnMaxLifetime time.Duration `json:"connMaxLifetime"`
	ConnMaxIdleTime time.Duration `json:"connMaxIdleTime"`
	Timeout         time.Duration `json:"timeout"`
}

// S3Config contains settings for the S3 form registry
type S3Config struct {
	Bucket       string `json:"bucket"`
	Prefix       string `json:"prefix"`
	Region       string `json:"region"`
	Endpoint     string `json:"endpoint"`
	AccessKey    string `json:"accessKey"`
	SecretKey    string `json:"secretKey"`
	UsePathStyle bool   `json:"usePathStyle"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// DefaultAllowedExtensions is the attachment extension allow-list.
var DefaultAllowedExtensions = []string{
	".asc", ".avi", ".bmp", ".csv", ".dgn", ".docx", ".dwf", ".dwg", ".dxf",
	".ent", ".gif", ".jpeg", ".jpg", ".mpeg", ".mpg", ".mpp", ".odb", ".odf",
	".odg", ".ods", ".pdf", ".png", ".pptx", ".rtf", ".sxc", ".sxd", ".sxi",
	".sxw", ".tif", ".tiff", ".txt", ".wmv", ".xlsx", ".zip",
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Attachment: AttachmentConfig{
			MaxTotalSizeBytes:  20 * 1024 * 1024, // 20MB
			DefaultFieldSizeMB: 1,
			AllowedExtensions:  append([]string(nil), DefaultAllowedExtensions...),
		},
		Solver: SolverConfig{
			ExtraPasses: 1,
		},
		Projection: ProjectionConfig{
			PrefixQuestions: true,
		},
		Registry: RegistryConfig{
			Source:   RegistrySourceFile,
			Table:    "form_definitions",
			CacheTTL: 1 * time.Minute,
			Breaker: BreakerConfig{
				Threshold:    5,
				Window:       30 * time.Second,
				OpenDuration: 15 * time.Second,
			},
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			SSLMode:         "disable",
			MaxConnections:  10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
			ConnMaxIdleTime: 5 * time.Minute,
			Timeout:         30 * time.Second,
		},
		S3: S3Config{
			Region: "us-east-1",
			Prefix: "forms/",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.ValidateEngine(); err != nil {
		return err
	}

	switch c.Registry.Source {
	case RegistrySourceFile:
		if c.Registry.Directory == "" {
			return &ConfigError{Field: "registry.directory", Message: "is required for the file source"}
		}
	case RegistrySourcePostgres:
		if c.Registry.Table == "" {
			return &ConfigError{Field: "registry.table", Message: "is required for the postgres source"}
		}
		if c.Database.MaxConnections <= 0 {
			return &ConfigError{Field: "database.maxConnections", Message: "must be greater than 0"}
		}
	case RegistrySourceS3:
		if c.S3.Bucket == "" {
			return &ConfigError{Field: "s3.bucket", Message: "is required for the s3 source"}
		}
		if c.S3.AccessKey != "" && c.S3.SecretKey == "" {
			return &ConfigError{Field: "s3.secretKey", Message: "must be set when accessKey is provided"}
		}
	default:
		return &ConfigError{Field: "registry.source", Message: "unknown source '" + string(c.Registry.Source) + "'"}
	}

	if c.Registry.CacheTTL < 0 {
		return &ConfigError{Field: "registry.cacheTTL", Message: "must not be negative"}
	}

	if b := c.Registry.Breaker; b.Threshold > 0 && (b.Window <= 0 || b.OpenDuration <= 0) {
		return &ConfigError{Field: "registry.breaker", Message: "window and openDuration must be positive when threshold is set"}
	}

	return nil
}

// ValidateEngine validates only the settings the submission engine reads
func (c *Config) ValidateEngine() error {
	if c.Attachment.MaxTotalSizeBytes <= 0 {
		return &ConfigError{Field: "attachment.maxTotalSizeBytes", Message: "must be greater than 0"}
	}

	if c.Attachment.DefaultFieldSizeMB <= 0 {
		return &ConfigError{Field: "attachment.defaultFieldSizeMB", Message: "must be greater than 0"}
	}

	if int64(c.Attachment.DefaultFieldSizeMB)*1024*1024 > c.Attachment.MaxTotalSizeBytes {
		return &ConfigError{Field: "attachment.defaultFieldSizeMB", Message: "must not exceed maxTotalSizeBytes"}
	}

	for _, ext := range c.Attachment.AllowedExtensions {
		if !strings.HasPrefix(ext, ".") {
			return &ConfigError{Field: "attachment.allowedExtensions", Message: "extension '" + ext + "' must start with '.'"}
		}
	}

	if c.Solver.ExtraPasses < 0 {
		return &ConfigError{Field: "solver.extraPasses", Message: "must not be negative"}
	}

	return nil
}

// ConfigError represents a configuration validation error
type ConfigError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ConfigError) Error() string {
	return "config validation error for field '" + e.Field + "': " + e.Message
}
