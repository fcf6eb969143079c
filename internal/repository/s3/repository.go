// Package s3 stores farm documents as JSON objects in an S3-compatible bucket
// (AWS S3 or MinIO). The revision travels in object metadata and writes are
// conditional on the ETag read just before.
package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/porkyfarm/porcpro/internal/domain/models"
	"github.com/porkyfarm/porcpro/internal/repository"
)

const revisionMetaKey = "revision"

// Config holds explicit construction parameters.
type Config struct {
	Region          string
	Bucket          string
	Prefix          string
	Endpoint        string // optional; enables a custom endpoint such as MinIO
	AccessKeyID     string // optional, falls back to the default credentials chain
	SecretAccessKey string
	PathStyle       bool
}

// Repository implements repository.DocumentRepository on a single bucket.
type Repository struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewRepository builds an S3 client from cfg.
func NewRepository(ctx context.Context, cfg Config) (*Repository, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return New(client, cfg.Bucket, cfg.Prefix), nil
}

// New wraps an existing client.
func New(client *s3.Client, bucket, prefix string) *Repository {
	return &Repository{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

func (r *Repository) objectKey(key string) string {
	if r.prefix == "" {
		return key + ".json"
	}
	return r.prefix + "/" + key + ".json"
}

// Load downloads and decodes the document stored under key.
func (r *Repository) Load(ctx context.Context, key string) (*models.Database, error) {
	objKey := r.objectKey(key)
	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &r.bucket, Key: &objKey})
	if err != nil {
		if isNotFound(err) {
			return nil, repository.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("get object %s: %w", objKey, err)
	}
	defer func() { _ = out.Body.Close() }()

	raw, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", objKey, err)
	}
	var doc models.Database
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", key, err)
	}
	if rev, ok := revisionOf(out.Metadata); ok {
		doc.Revision = rev
	}
	doc.Normalize()
	return &doc, nil
}

// Save uploads doc when the stored revision equals expected.
func (r *Repository) Save(ctx context.Context, key string, doc *models.Database, expected int64) error {
	objKey := r.objectKey(key)

	var etag *string
	head, err := r.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &r.bucket, Key: &objKey})
	switch {
	case err == nil:
		current, _ := revisionOf(head.Metadata)
		if current != expected {
			return repository.ErrRevisionConflict
		}
		etag = head.ETag
	case isNotFound(err):
		if expected != 0 {
			return repository.ErrRevisionConflict
		}
	default:
		return fmt.Errorf("head object %s: %w", objKey, err)
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", key, err)
	}
	input := &s3.PutObjectInput{
		Bucket:      &r.bucket,
		Key:         &objKey,
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/json"),
		Metadata:    map[string]string{revisionMetaKey: strconv.FormatInt(doc.Revision, 10)},
	}
	if etag != nil {
		input.IfMatch = etag
	} else {
		input.IfNoneMatch = aws.String("*")
	}

	if _, err := r.client.PutObject(ctx, input); err != nil {
		if isPreconditionFailed(err) {
			return repository.ErrRevisionConflict
		}
		return fmt.Errorf("put object %s: %w", objKey, err)
	}
	return nil
}

// Close is a no-op; the SDK client holds no resources to release.
func (r *Repository) Close(context.Context) error { return nil }

func revisionOf(md map[string]string) (int64, bool) {
	raw, ok := md[revisionMetaKey]
	if !ok {
		return 0, false
	}
	rev, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return rev, true
}

func isNotFound(err error) bool {
	var noKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noKey) || errors.As(err, &notFound) {
		return true
	}
	var respErr *awshttp.ResponseError
	return errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusNotFound
}

func isPreconditionFailed(err error) bool {
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		code := respErr.HTTPStatusCode()
		return code == http.StatusPreconditionFailed || code == http.StatusConflict
	}
	return false
}
