package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/lychee-technology/formlogic"
	"github.com/lychee-technology/formlogic/factory"
	"github.com/lychee-technology/formlogic/internal"
	"go.uber.org/zap"
)

func runPublishForm(args []string) error {
	flags := flag.NewFlagSet("publish-form", flag.ContinueOnError)
	flags.SetOutput(os.Stdout)
	flags.Usage = func() {
		fmt.Println("Usage: formlogic-tools publish-form [options] <file|dir>...")
		fmt.Println("")
		fmt.Println("Options:")
		flags.PrintDefaults()
	}

	cfg := formlogic.DefaultConfig().S3
	flags.StringVar(&cfg.Bucket, "bucket", getenvDefault("S3_BUCKET", ""), "target bucket (required)")
	flags.StringVar(&cfg.Prefix, "prefix", getenvDefault("S3_PREFIX", cfg.Prefix), "key prefix for form definitions")
	flags.StringVar(&cfg.Region, "region", getenvDefault("AWS_REGION", cfg.Region), "AWS region")
	flags.StringVar(&cfg.Endpoint, "endpoint", getenvDefault("S3_ENDPOINT", ""), "custom S3 endpoint")
	flags.StringVar(&cfg.AccessKey, "access-key", getenvDefault("S3_ACCESS_KEY", ""), "static access key")
	flags.StringVar(&cfg.SecretKey, "secret-key", getenvDefault("S3_SECRET_KEY", ""), "static secret key")
	flags.BoolVar(&cfg.UsePathStyle, "path-style", getenvDefaultBool("S3_USE_PATH_STYLE", false), "use path-style addressing")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if cfg.Bucket == "" {
		return fmt.Errorf("-bucket is required")
	}
	if flags.NArg() == 0 {
		return fmt.Errorf("at least one form file or directory is required")
	}

	files, err := collectFormFiles(flags.Args())
	if err != nil {
		return err
	}

	ctx := context.Background()
	client, err := factory.NewS3Client(ctx, cfg)
	if err != nil {
		return err
	}

	publisher := internal.NewS3FormPublisher(client, cfg.Bucket, cfg.Prefix)
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read form file: %w", err)
		}
		key, err := publisher.Publish(ctx, data)
		if err != nil {
			return fmt.Errorf("publish %s: %w", file, err)
		}
		zap.S().Infow("published form definition", "file", file, "bucket", cfg.Bucket, "key", key)
	}
	return nil
}
