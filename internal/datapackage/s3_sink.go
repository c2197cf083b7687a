package datapackage

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"ecomigrate/internal/config"
	"ecomigrate/internal/logging"
)

// S3Sink uploads packages to an S3-compatible bucket.
type S3Sink struct {
	client *s3.Client
	bucket string
	prefix string
	logger *slog.Logger
}

// NewS3Sink builds a client from the default AWS credential chain.
func NewS3Sink(ctx context.Context, cfg config.S3, logger *slog.Logger) (*S3Sink, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = config.DefaultS3Region
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return NewS3SinkWithClient(client, cfg.Bucket, cfg.Prefix, logger), nil
}

// NewS3SinkWithClient wraps an existing client.
func NewS3SinkWithClient(client *s3.Client, bucket, prefix string, logger *slog.Logger) *S3Sink {
	return &S3Sink{
		client: client,
		bucket: bucket,
		prefix: prefix,
		logger: logging.NewComponentLogger(logger, "datapackage"),
	}
}

// Key returns the object key a package is stored under.
func (s *S3Sink) Key(pkg *Package) string {
	if s.prefix == "" {
		return pkg.Filename()
	}
	return path.Join(s.prefix, pkg.Filename())
}

// Write uploads pkg, replacing any existing object.
func (s *S3Sink) Write(ctx context.Context, pkg *Package) (string, error) {
	if pkg.Empty() {
		return "", ErrNothingToWrite
	}
	data, err := pkg.Encode()
	if err != nil {
		return "", err
	}
	key := s.Key(pkg)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("upload s3://%s/%s: %w", s.bucket, key, err)
	}
	location := "s3://" + s.bucket + "/" + key
	s.logger.Info("uploaded migration file",
		logging.String(logging.FieldPath, location),
		logging.Int("bytes", len(data)),
	)
	return location, nil
}

// CheckBucket verifies that the bucket exists and the credentials may use it.
func (s *S3Sink) CheckBucket(ctx context.Context) error {
	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
		return fmt.Errorf("head bucket %s: %w", s.bucket, err)
	}
	return nil
}
