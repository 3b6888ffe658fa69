package formlogic

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Attachment.MaxTotalSizeBytes != 20*1024*1024 {
		t.Errorf("Expected MaxTotalSizeBytes 20MB, got %d", config.Attachment.MaxTotalSizeBytes)
	}
	if config.Attachment.DefaultFieldSizeMB != 1 {
		t.Errorf("Expected DefaultFieldSizeMB 1, got %d", config.Attachment.DefaultFieldSizeMB)
	}
	if len(config.Attachment.AllowedExtensions) != len(DefaultAllowedExtensions) {
		t.Errorf("Expected %d allowed extensions, got %d", len(DefaultAllowedExtensions), len(config.Attachment.AllowedExtensions))
	}
	if config.Solver.ExtraPasses != 1 {
		t.Errorf("Expected ExtraPasses 1, got %d", config.Solver.ExtraPasses)
	}
	if !config.Projection.PrefixQuestions {
		t.Error("Expected PrefixQuestions to be enabled")
	}
	if config.Registry.Source != RegistrySourceFile {
		t.Errorf("Expected registry source file, got %s", config.Registry.Source)
	}
	if config.Registry.Table != "form_definitions" {
		t.Errorf("Expected registry table form_definitions, got %s", config.Registry.Table)
	}
	if config.Registry.CacheTTL != time.Minute {
		t.Errorf("Expected CacheTTL 1m, got %v", config.Registry.CacheTTL)
	}
	if config.Database.MaxConnections != 10 {
		t.Errorf("Expected MaxConnections 10, got %d", config.Database.MaxConnections)
	}
	if config.Logging.Level != "info" {
		t.Errorf("Expected log level info, got %s", config.Logging.Level)
	}
}

func TestDefaultConfigExtensionsAreCopied(t *testing.T) {
	config := DefaultConfig()
	config.Attachment.AllowedExtensions[0] = ".exe"

	if DefaultAllowedExtensions[0] == ".exe" {
		t.Error("DefaultConfig must not share the package-level extension list")
	}
}

func TestConfigValidationDetailed(t *testing.T) {
	withDir := func(mutate func(*Config)) *Config {
		config := DefaultConfig()
		config.Registry.Directory = "/srv/forms"
		if mutate != nil {
			mutate(config)
		}
		return config
	}

	tests := []struct {
		name        string
		config      *Config
		expectError bool
		errorField  string
	}{
		{
			name:   "valid file config",
			config: withDir(nil),
		},
		{
			name:        "file source without directory",
			config:      DefaultConfig(),
			expectError: true,
			errorField:  "registry.directory",
		},
		{
			name:        "zero total attachment size",
			config:      withDir(func(c *Config) { c.Attachment.MaxTotalSizeBytes = 0 }),
			expectError: true,
			errorField:  "attachment.maxTotalSizeBytes",
		},
		{
			name:        "zero default field size",
			config:      withDir(func(c *Config) { c.Attachment.DefaultFieldSizeMB = 0 }),
			expectError: true,
			errorField:  "attachment.defaultFieldSizeMB",
		},
		{
			name:        "field size above total",
			config:      withDir(func(c *Config) { c.Attachment.DefaultFieldSizeMB = 21 }),
			expectError: true,
			errorField:  "attachment.defaultFieldSizeMB",
		},
		{
			name:        "extension without dot",
			config:      withDir(func(c *Config) { c.Attachment.AllowedExtensions = []string{"pdf"} }),
			expectError: true,
			errorField:  "attachment.allowedExtensions",
		},
		{
			name:        "negative extra passes",
			config:      withDir(func(c *Config) { c.Solver.ExtraPasses = -1 }),
			expectError: true,
			errorField:  "solver.extraPasses",
		},
		{
			name: "postgres without table",
			config: withDir(func(c *Config) {
				c.Registry.Source = RegistrySourcePostgres
				c.Registry.Table = ""
			}),
			expectError: true,
			errorField:  "registry.table",
		},
		{
			name: "postgres without connections",
			config: withDir(func(c *Config) {
				c.Registry.Source = RegistrySourcePostgres
				c.Database.MaxConnections = 0
			}),
			expectError: true,
			errorField:  "database.maxConnections",
		},
		{
			name: "s3 without bucket",
			config: withDir(func(c *Config) {
				c.Registry.Source = RegistrySourceS3
			}),
			expectError: true,
			errorField:  "s3.bucket",
		},
		{
			name: "s3 access key without secret",
			config: withDir(func(c *Config) {
				c.Registry.Source = RegistrySourceS3
				c.S3.Bucket = "forms"
				c.S3.AccessKey = "key"
			}),
			expectError: true,
			errorField:  "s3.secretKey",
		},
		{
			name: "valid s3 config",
			config: withDir(func(c *Config) {
				c.Registry.Source = RegistrySourceS3
				c.S3.Bucket = "forms"
			}),
		},
		{
			name:        "unknown source",
			config:      withDir(func(c *Config) { c.Registry.Source = "ftp" }),
			expectError: true,
			errorField:  "registry.source",
		},
		{
			name:        "negative cache ttl",
			config:      withDir(func(c *Config) { c.Registry.CacheTTL = -time.Second }),
			expectError: true,
			errorField:  "registry.cacheTTL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.expectError {
				if err == nil {
					t.Error("Expected validation error but got none")
				} else if configErr, ok := err.(*ConfigError); ok {
					if configErr.Field != tt.errorField {
						t.Errorf("Expected error field %s, got %s", tt.errorField, configErr.Field)
					}
				} else {
					t.Errorf("Expected ConfigError, got %T", err)
				}
			} else {
				if err != nil {
					t.Errorf("Expected no validation error but got: %v", err)
				}
			}
		})
	}
}

func TestValidateEngineIgnoresRegistry(t *testing.T) {
	config := DefaultConfig()
	config.Registry.Source = "ftp"

	if err := config.ValidateEngine(); err != nil {
		t.Errorf("Expected engine settings to be valid, got: %v", err)
	}
}

func TestConfigError(t *testing.T) {
	err := &ConfigError{
		Field:   "test.field",
		Message: "test message",
	}

	expected := "config validation error for field 'test.field': test message"
	if err.Error() != expected {
		t.Errorf("Expected error message %s, got %s", expected, err.Error())
	}
}

func TestBreakerConfigValidation(t *testing.T) {
	config := DefaultConfig()
	config.Registry.Directory = "/srv/forms"
	config.Registry.Breaker.Window = 0

	err := config.Validate()
	configErr, ok := err.(*ConfigError)
	if !ok || configErr.Field != "registry.breaker" {
		t.Fatalf("expected registry.breaker error, got %v", err)
	}

	config.Registry.Breaker.Threshold = 0
	if err := config.Validate(); err != nil {
		t.Errorf("disabled breaker should not need a window, got %v", err)
	}
}
