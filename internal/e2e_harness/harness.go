package e2e_harness

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/docker/go-connections/nat"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lychee-technology/formlogic"
	"github.com/lychee-technology/formlogic/factory"
	"github.com/lychee-technology/formlogic/internal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// FormsTable is the Postgres table the harness seeds.
	FormsTable = "form_definitions"

	s3AccessKey = "minio"
	s3SecretKey = "minio"
	s3Bucket    = "forms-e2e"
	s3Prefix    = "forms/"
)

// PetForm is a small form whose name and licence fields are revealed by the
// first answer.
const PetForm = `{
  "id": "pets",
  "metadata": {"title": "Pet registration", "responseMode": "email"},
  "fields": [
    {"id": "has_pet", "fieldType": "yes_no", "title": "Do you have a pet?", "required": true},
    {"id": "pet_name", "fieldType": "textfield", "title": "Pet name", "required": true},
    {"id": "licence", "fieldType": "attachment", "title": "Licence", "attachmentSizeMB": 1}
  ],
  "logic": [
    {
      "id": "show-name",
      "logicType": "showFields",
      "conditions": [{"field": "has_pet", "state": "is equals to", "value": "Yes"}],
      "show": ["pet_name", "licence"]
    }
  ]
}`

// Harness runs the stores a remote form registry reads from, seeds them with
// Definitions and builds registries over them through the factory.
type Harness struct {
	Definitions []string

	postgres testcontainers.Container
	pool     *pgxpool.Pool

	rustfs   testcontainers.Container
	s3Client *s3.Client
	s3Config formlogic.S3Config
}

// NewHarness creates a harness that seeds the given raw definitions.
func NewHarness(definitions ...string) *Harness {
	return &Harness{Definitions: definitions}
}

// startContainer runs image and returns it with the host:port of its first
// exposed port once that port accepts connections.
func startContainer(ctx context.Context, image, port string, env map[string]string) (testcontainers.Container, string, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        image,
			ExposedPorts: []string{port + "/tcp"},
			Env:          env,
			WaitingFor:   wait.ForListeningPort(nat.Port(port + "/tcp")).WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, "", fmt.Errorf("start %s: %w", image, err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		return container, "", err
	}
	mapped, err := container.MappedPort(ctx, nat.Port(port))
	if err != nil {
		return container, "", err
	}
	return container, fmt.Sprintf("%s:%s", host, mapped.Port()), nil
}

// WithPostgres starts Postgres 16, waits for it to answer pings and stores
// every definition in FormsTable.
func (h *Harness) WithPostgres(ctx context.Context) error {
	container, addr, err := startContainer(ctx, "postgres:16", "5432", map[string]string{
		"POSTGRES_PASSWORD": "password",
		"POSTGRES_USER":     "postgres",
		"POSTGRES_DB":       "postgres",
	})
	h.postgres = container
	if err != nil {
		return err
	}

	pool, err := pgxpool.New(ctx, fmt.Sprintf("postgres://postgres:password@%s/postgres?sslmode=disable", addr))
	if err != nil {
		return err
	}
	h.pool = pool
	if err := waitForPing(ctx, pool, 20*time.Second); err != nil {
		return err
	}

	registry := internal.NewPostgresFormRegistry(pool, FormsTable)
	if err := registry.EnsureTable(ctx); err != nil {
		return err
	}
	for i, definition := range h.Definitions {
		form, err := internal.DecodeFormDefinition(fmt.Sprintf("definition-%d", i), []byte(definition))
		if err != nil {
			return err
		}
		if err := registry.PutForm(ctx, form); err != nil {
			return fmt.Errorf("store form %s: %w", form.ID, err)
		}
	}
	return nil
}

func waitForPing(ctx context.Context, pool *pgxpool.Pool, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		err := pool.Ping(ctx)
		if err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("postgres did not become ready: %w", err)
		}
		time.Sleep(200 * time.Millisecond)
	}
}

// WithS3 starts RustFS and publishes every definition under the harness
// bucket, creating the bucket on first upload.
func (h *Harness) WithS3(ctx context.Context) error {
	container, addr, err := startContainer(ctx, "rustfs/rustfs:latest", "9000", map[string]string{
		"RUSTFS_ACCESS_KEY": s3AccessKey,
		"RUSTFS_SECRET_KEY": s3SecretKey,
	})
	h.rustfs = container
	if err != nil {
		return err
	}

	h.s3Config = formlogic.S3Config{
		Bucket:       s3Bucket,
		Prefix:       s3Prefix,
		Region:       "us-east-1",
		Endpoint:     "http://" + addr,
		AccessKey:    s3AccessKey,
		SecretKey:    s3SecretKey,
		UsePathStyle: true,
	}
	client, err := factory.NewS3Client(ctx, h.s3Config)
	if err != nil {
		return err
	}
	h.s3Client = client

	publisher := internal.NewS3FormPublisher(client, s3Bucket, s3Prefix)
	for _, definition := range h.Definitions {
		if _, err := publisher.Publish(ctx, []byte(definition)); err != nil {
			return fmt.Errorf("publish form: %w", err)
		}
	}
	return nil
}

// Registry builds a cached, breaker-guarded registry over a started store.
func (h *Harness) Registry(ctx context.Context, source formlogic.RegistrySource) (formlogic.FormRegistry, error) {
	config := formlogic.DefaultConfig()
	config.Registry.Source = source
	config.Registry.CacheTTL = time.Minute

	var deps factory.RegistryDeps
	switch source {
	case formlogic.RegistrySourcePostgres:
		if h.pool == nil {
			return nil, errors.New("postgres is not started")
		}
		config.Registry.Table = FormsTable
		deps.Pool = h.pool
	case formlogic.RegistrySourceS3:
		if h.s3Client == nil {
			return nil, errors.New("s3 is not started")
		}
		config.S3 = h.s3Config
		deps.S3 = h.s3Client
	default:
		return nil, fmt.Errorf("harness does not run a %q store", source)
	}
	return factory.NewFormRegistry(ctx, config, deps)
}

// Close releases the pool and terminates every started container.
func (h *Harness) Close(ctx context.Context) error {
	if h.pool != nil {
		h.pool.Close()
		h.pool = nil
	}
	var errs []error
	for _, container := range []testcontainers.Container{h.postgres, h.rustfs} {
		if container != nil {
			errs = append(errs, container.Terminate(ctx))
		}
	}
	h.postgres, h.rustfs, h.s3Client = nil, nil, nil
	return errors.Join(errs...)
}
