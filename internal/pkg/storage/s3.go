package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const defaultURLExpiry = 15 * time.Minute

// S3Signer presigns GET URLs for room images stored in AWS S3 or MinIO
type S3Signer struct {
	presign *s3.PresignClient
	bucket  string
	expiry  time.Duration
}

// NewS3Signer creates a presigning client for the configured bucket
func NewS3Signer(ctx context.Context, cfg Config) (*S3Signer, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("storage config error: bucket is empty")
	}

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.S3Region),
	}
	if cfg.S3AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKey,
			cfg.S3SecretKey,
			"",
		)))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true // Required for MinIO
		}
	})

	expiry := cfg.URLExpiry
	if expiry <= 0 {
		expiry = defaultURLExpiry
	}

	return &S3Signer{
		presign: s3.NewPresignClient(client),
		bucket:  cfg.S3Bucket,
		expiry:  expiry,
	}, nil
}

// SignedURL returns a time-limited GET URL for key. Signing is local; no request reaches S3.
func (s *S3Signer) SignedURL(ctx context.Context, key string) (string, error) {
	key = ObjectKey(key)
	if key == "" {
		return "", fmt.Errorf("storage: empty object key")
	}

	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.expiry))
	if err != nil {
		return "", fmt.Errorf("failed to presign S3 url: %w", err)
	}
	return req.URL, nil
}
