package documents

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"dreamforge/internal/config"
	"dreamforge/internal/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Archiver stores original uploads
type Archiver interface {
	Archive(ctx context.Context, userID, filename, contentType string, data []byte) (string, error)
}

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archiver writes uploads to an S3 compatible bucket
type S3Archiver struct {
	client objectPutter
	bucket string
	prefix string
	now    func() time.Time
}

// NewS3Archiver returns nil when archiving is disabled
func NewS3Archiver(ctx context.Context, cfg config.S3Config) (*S3Archiver, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if cfg.Bucket == "" {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "storage.s3.bucket is required when archiving is enabled", nil)
	}

	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to load AWS configuration", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Archiver(client, cfg), nil
}

func newS3Archiver(client objectPutter, cfg config.S3Config) *S3Archiver {
	prefix := strings.Trim(cfg.Prefix, "/")
	if prefix == "" {
		prefix = "resumes"
	}
	return &S3Archiver{client: client, bucket: cfg.Bucket, prefix: prefix, now: time.Now}
}

// Archive uploads data and returns its object key
func (a *S3Archiver) Archive(ctx context.Context, userID, filename, contentType string, data []byte) (string, error) {
	key := a.objectKey(userID, filename)

	input := &s3.PutObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := a.client.PutObject(ctx, input); err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable, "failed to archive upload", err).
			WithContext("bucket", a.bucket).
			WithContext("key", key)
	}
	return key, nil
}

// objectKey is {prefix}/{userId}/{unix millis}-{name}
func (a *S3Archiver) objectKey(userID, filename string) string {
	return path.Join(a.prefix, userID, fmt.Sprintf("%d-%s", a.now().UnixMilli(), safeName(filename)))
}

func safeName(filename string) string {
	name := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "resume"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, name)
}
