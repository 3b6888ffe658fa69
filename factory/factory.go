package factory

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dsql/auth"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lychee-technology/formlogic"
	"github.com/lychee-technology/formlogic/internal"
	"go.uber.org/zap"
)

// NewEngineWithConfig creates a SubmissionEngine with the provided configuration.
// This is the primary way for external projects to create an engine instance.
//
// Usage:
//
//	import (
//	    "github.com/lychee-technology/formlogic"
//	    "github.com/lychee-technology/formlogic/factory"
//	)
//
//	config := formlogic.DefaultConfig()
//	engine, err := factory.NewEngineWithConfig(config)
//	if err != nil {
//	    // handle error
//	}
//	result, err := engine.Evaluate(ctx, form, submission)
func NewEngineWithConfig(config *formlogic.Config) (formlogic.SubmissionEngine, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := config.ValidateEngine(); err != nil {
		return nil, err
	}
	return internal.NewSubmissionEngine(config), nil
}

// RegistryDeps carries pre-built clients for the registry sources that need
// them. A nil S3 client is created from config.S3.
type RegistryDeps struct {
	Pool internal.PgxQuerier
	S3   internal.S3ReadAPI
}

// NewFormRegistry creates the FormRegistry selected by config.Registry.Source.
// Remote sources are guarded by a circuit breaker and wrapped in a
// read-through cache when CacheTTL is set.
func NewFormRegistry(ctx context.Context, config *formlogic.Config, deps RegistryDeps) (formlogic.FormRegistry, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Registry.Source {
	case formlogic.RegistrySourceFile:
		return internal.NewFileFormRegistry(config.Registry.Directory)
	case formlogic.RegistrySourcePostgres:
		if deps.Pool == nil {
			return nil, fmt.Errorf("postgres registry requires a database pool")
		}
		registry := internal.NewPostgresFormRegistry(deps.Pool, config.Registry.Table)
		return guardRemote(registry, config.Registry), nil
	case formlogic.RegistrySourceS3:
		client := deps.S3
		if client == nil {
			s3Client, err := NewS3Client(ctx, config.S3)
			if err != nil {
				return nil, err
			}
			client = s3Client
		}
		registry := internal.NewS3FormRegistry(client, config.S3.Bucket, config.S3.Prefix)
		return guardRemote(registry, config.Registry), nil
	default:
		return nil, fmt.Errorf("unknown registry source %q", config.Registry.Source)
	}
}

// guardRemote puts the circuit breaker behind the cache, so cached forms are
// still served while the backing store is failing.
func guardRemote(registry formlogic.FormRegistry, cfg formlogic.RegistryConfig) formlogic.FormRegistry {
	var breaker *internal.CircuitBreaker
	if cfg.Breaker.Threshold > 0 {
		breaker = internal.NewCircuitBreaker(cfg.Breaker.Threshold, cfg.Breaker.Window, cfg.Breaker.OpenDuration)
	}
	guarded := internal.NewBreakerFormRegistry(registry, breaker, string(cfg.Source))
	return internal.NewCachedFormRegistry(guarded, cfg.CacheTTL)
}

// LoadAWSConfig builds an AWS configuration for the given region, using
// static credentials and a custom endpoint when provided.
func LoadAWSConfig(ctx context.Context, cfg formlogic.S3Config) (aws.Config, error) {
	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	if cfg.Endpoint != "" {
		loadOpts = append(loadOpts, config.WithBaseEndpoint(cfg.Endpoint))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return awsCfg, nil
}

// NewS3Client creates an S3 client for the form registry and publisher.
func NewS3Client(ctx context.Context, cfg formlogic.S3Config) (*s3.Client, error) {
	awsCfg, err := LoadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	}), nil
}

// NewPostgresPool creates a PostgreSQL connection pool. With UseIAMAuth the
// password is replaced by a DSQL connect token generated from the default
// AWS credentials chain.
func NewPostgresPool(ctx context.Context, cfg formlogic.DatabaseConfig) (*pgxpool.Pool, error) {
	password := cfg.Password
	if cfg.UseIAMAuth {
		awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		endpoint := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
		token, err := auth.GenerateDbConnectAuthToken(ctx, endpoint, awsCfg.Region, awsCfg.Credentials)
		if err != nil {
			return nil, fmt.Errorf("generate IAM auth token: %w", err)
		}
		password = token
		zap.S().Infow("generated IAM auth token for Postgres connection", "host", cfg.Host)
	}

	poolConfig, err := pgxpool.ParseConfig(connString(cfg, password))
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = cfg.ConnMaxIdleTime
	poolConfig.ConnConfig.ConnectTimeout = cfg.Timeout

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

func connString(cfg formlogic.DatabaseConfig, password string) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.Username, password),
		Host:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:     "/" + cfg.Database,
		RawQuery: url.Values{"sslmode": []string{cfg.SSLMode}}.Encode(),
	}
	return u.String()
}
