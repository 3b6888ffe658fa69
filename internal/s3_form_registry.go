package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/lychee-technology/formlogic"
	"go.uber.org/zap"
)

// S3ReadAPI is the subset of the S3 client used to read definitions.
type S3ReadAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// s3FormRegistry reads one JSON definition object per form under a prefix.
type s3FormRegistry struct {
	client S3ReadAPI
	bucket string
	prefix string
}

// NewS3FormRegistry creates a registry over bucket/prefix.
func NewS3FormRegistry(client S3ReadAPI, bucket, prefix string) formlogic.FormRegistry {
	return &s3FormRegistry{client: client, bucket: bucket, prefix: prefix}
}

func (r *s3FormRegistry) GetForm(ctx context.Context, formID string) (*formlogic.Form, error) {
	key := definitionKey(r.prefix, formID)
	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isMissingObject(err) {
			return nil, formlogic.NewFormNotFoundError(formID)
		}
		zap.S().Errorw("failed to fetch form definition", "form_id", formID, "bucket", r.bucket, "key", key, "error", err)
		return nil, formlogic.NewEngineError(formlogic.ErrorTypeInternal, formlogic.ErrCodeRegistryFailed, "failed to load form").
			WithForm(formID).WithCause(err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, formlogic.NewEngineError(formlogic.ErrorTypeInternal, formlogic.ErrCodeRegistryFailed, "failed to read form object").
			WithForm(formID).WithCause(err)
	}
	form, err := DecodeFormDefinition(formID, data)
	if err != nil {
		return nil, err
	}
	if form.ID != formID {
		return nil, formlogic.NewDefinitionError(formID, "stored definition carries a different form id").
			WithDetail("definitionId", form.ID)
	}
	return form, nil
}

func (r *s3FormRegistry) ListForms(ctx context.Context) ([]string, error) {
	paginator := s3.NewListObjectsV2Paginator(r.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(r.bucket),
		Prefix: aws.String(r.prefix),
	})

	var ids []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list form objects: %w", err)
		}
		for _, obj := range page.Contents {
			if id, ok := formIDFromKey(r.prefix, aws.ToString(obj.Key)); ok {
				ids = append(ids, id)
			}
		}
	}
	return ids, nil
}

func isMissingObject(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NoSuchKey" || code == "NotFound"
	}
	return false
}

// S3PublishAPI is the subset of the S3 client used to publish definitions.
type S3PublishAPI interface {
	manager.UploadAPIClient
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

// S3FormPublisher uploads validated form definitions for the S3 registry.
type S3FormPublisher struct {
	client   S3PublishAPI
	uploader *manager.Uploader
	bucket   string
	prefix   string
}

// NewS3FormPublisher creates a publisher writing to bucket/prefix.
func NewS3FormPublisher(client S3PublishAPI, bucket, prefix string) *S3FormPublisher {
	return &S3FormPublisher{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   bucket,
		prefix:   prefix,
	}
}

// Publish validates a definition and uploads it, creating the bucket when
// missing. It returns the object key.
func (p *S3FormPublisher) Publish(ctx context.Context, data []byte) (string, error) {
	form, err := DecodeFormDefinition("", data)
	if err != nil {
		return "", err
	}
	if err := p.ensureBucket(ctx); err != nil {
		return "", err
	}

	body, err := json.Marshal(form)
	if err != nil {
		return "", fmt.Errorf("marshal form %s: %w", form.ID, err)
	}
	key := definitionKey(p.prefix, form.ID)
	_, err = p.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("s3 upload: %w", err)
	}
	zap.S().Infow("published form definition", "form_id", form.ID, "bucket", p.bucket, "key", key)
	return key, nil
}

func (p *S3FormPublisher) ensureBucket(ctx context.Context) error {
	if _, err := p.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(p.bucket)}); err == nil {
		return nil
	}
	if _, err := p.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(p.bucket)}); err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			code := apiErr.ErrorCode()
			if code == "BucketAlreadyOwnedByYou" || code == "BucketAlreadyExists" {
				return nil
			}
		}
		return fmt.Errorf("create bucket: %w", err)
	}
	return nil
}
