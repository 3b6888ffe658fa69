package main

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lychee-technology/formlogic"
	"github.com/lychee-technology/formlogic/factory"
	"go.uber.org/zap"
)

// Server represents the HTTP server with the submission engine and form registry
type Server struct {
	engine       formlogic.SubmissionEngine
	registry     formlogic.FormRegistry
	maxBodyBytes int64
	mux          *http.ServeMux
}

// NewServer creates a new Server instance
func NewServer(engine formlogic.SubmissionEngine, registry formlogic.FormRegistry, maxBodyBytes int64) *Server {
	return &Server{
		engine:       engine,
		registry:     registry,
		maxBodyBytes: maxBodyBytes,
		mux:          http.NewServeMux(),
	}
}

// RegisterRoutes registers all API routes
func (s *Server) RegisterRoutes() {
	s.mux.HandleFunc("/api/v1/forms", s.handleListForms)
	s.mux.HandleFunc("/api/v1/forms/", s.formHandler)
	s.mux.HandleFunc("/healthz", s.handleHealth)
}

// Start starts the HTTP server on the given port
func (s *Server) Start(port string) error {
	zap.S().Infow("starting server", "port", port)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

func main() {
	config := loadConfig()

	logger, err := newLogger(config.Logging)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	sugar := logger.Sugar()

	ctx := context.Background()

	engine, err := factory.NewEngineWithConfig(config)
	if err != nil {
		sugar.Fatalf("failed to create submission engine: %v", err)
	}

	deps := factory.RegistryDeps{}
	if config.Registry.Source == formlogic.RegistrySourcePostgres {
		pool, err := factory.NewPostgresPool(ctx, config.Database)
		if err != nil {
			sugar.Fatalf("failed to create database pool: %v", err)
		}
		defer pool.Close()
		deps.Pool = pool
	}

	registry, err := factory.NewFormRegistry(ctx, config, deps)
	if err != nil {
		sugar.Fatalf("failed to create form registry: %v", err)
	}
	sugar.Infow("form registry ready", "source", config.Registry.Source)

	server := NewServer(engine, registry, maxBodyBytes(config.Attachment))
	server.RegisterRoutes()

	port := getEnv("PORT", "8080")
	if err := server.Start(port); err != nil {
		sugar.Fatalf("server error: %v", err)
	}
}

// loadConfig builds the configuration from environment variables
func loadConfig() *formlogic.Config {
	config := formlogic.DefaultConfig()

	config.Attachment.MaxTotalSizeBytes = int64(getEnvInt("ATTACHMENT_MAX_TOTAL_BYTES", int(config.Attachment.MaxTotalSizeBytes)))
	config.Attachment.DefaultFieldSizeMB = getEnvInt("ATTACHMENT_DEFAULT_FIELD_MB", config.Attachment.DefaultFieldSizeMB)
	config.Solver.ExtraPasses = getEnvInt("SOLVER_EXTRA_PASSES", config.Solver.ExtraPasses)
	config.Projection.PrefixQuestions = getEnvBool("PREFIX_QUESTIONS", config.Projection.PrefixQuestions)

	config.Registry.Source = formlogic.RegistrySource(getEnv("FORM_SOURCE", string(config.Registry.Source)))
	config.Registry.Directory = getEnv("FORM_DIR", "")
	config.Registry.Table = getEnv("FORM_TABLE", config.Registry.Table)
	config.Registry.CacheTTL = time.Duration(getEnvInt("FORM_CACHE_TTL_SECONDS", int(config.Registry.CacheTTL/time.Second))) * time.Second
	config.Registry.Breaker.Threshold = getEnvInt("FORM_BREAKER_THRESHOLD", config.Registry.Breaker.Threshold)

	config.Database = formlogic.DatabaseConfig{
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvInt("DB_PORT", 5432),
		Database:        getEnv("DB_NAME", "formlogic"),
		Username:        getEnv("DB_USER", "postgres"),
		Password:        getEnv("DB_PASSWORD", ""),
		SSLMode:         getEnv("DB_SSL_MODE", "disable"),
		UseIAMAuth:      getEnvBool("DB_USE_IAM_AUTH", false),
		Region:          getEnv("AWS_REGION", "us-east-1"),
		MaxConnections:  getEnvInt("DB_MAX_CONNECTIONS", 25),
		MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: time.Duration(getEnvInt("DB_CONN_MAX_LIFETIME_SECONDS", 3600)) * time.Second,
		ConnMaxIdleTime: time.Duration(getEnvInt("DB_CONN_MAX_IDLE_TIME_SECONDS", 300)) * time.Second,
		Timeout:         time.Duration(getEnvInt("DB_TIMEOUT_SECONDS", 30)) * time.Second,
	}

	config.S3 = formlogic.S3Config{
		Bucket:       getEnv("S3_BUCKET", ""),
		Prefix:       getEnv("S3_PREFIX", config.S3.Prefix),
		Region:       getEnv("AWS_REGION", config.S3.Region),
		Endpoint:     getEnv("S3_ENDPOINT", ""),
		AccessKey:    getEnv("S3_ACCESS_KEY", ""),
		SecretKey:    getEnv("S3_SECRET_KEY", ""),
		UsePathStyle: getEnvBool("S3_USE_PATH_STYLE", false),
	}

	config.Logging.Level = getEnv("LOG_LEVEL", config.Logging.Level)
	config.Logging.Format = getEnv("LOG_FORMAT", config.Logging.Format)

	return config
}

// newLogger builds a production zap logger honoring the configured level and format
func newLogger(cfg formlogic.LoggingConfig) (*zap.Logger, error) {
	zapConfig := zap.NewProductionConfig()
	if cfg.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, err
		}
		zapConfig.Level = level
	}
	if strings.EqualFold(cfg.Format, "console") {
		zapConfig.Encoding = "console"
	}
	return zapConfig.Build()
}

// maxBodyBytes bounds request bodies. Attachments arrive base64 encoded,
// so the limit leaves room for the encoding overhead.
func maxBodyBytes(cfg formlogic.AttachmentConfig) int64 {
	return cfg.MaxTotalSizeBytes*4/3 + 1<<20
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
