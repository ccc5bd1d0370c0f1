package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// S3Config holds the connection settings for the S3-compatible media bucket.
type S3Config struct {
	Endpoint      string // empty for AWS proper, set for MinIO and friends
	Region        string
	Bucket        string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string // base for the returned public URLs
}

var _ MediaStore = (*S3MediaStore)(nil)

// S3MediaStore stores media files in an S3-compatible bucket.
type S3MediaStore struct {
	client *s3.Client
	cfg    S3Config
	logger *zap.Logger
}

// NewS3MediaStore builds the S3 client with static credentials.
func NewS3MediaStore(ctx context.Context, cfg S3Config, logger *zap.Logger) (*S3MediaStore, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3MediaStore{
		client: client,
		cfg:    cfg,
		logger: logger.Named("S3MediaStore"),
	}, nil
}

// storageKey builds a date-bucketed random object key, keeping the original
// file extension so the public URL stays recognizable.
func storageKey(filename string) string {
	d := time.Now()
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("media/%d/%02d/%02d/%s%s", d.Year(), d.Month(), d.Day(), uuid.New(), ext)
}

// Store uploads the file and returns its public URL.
func (s *S3MediaStore) Store(ctx context.Context, up Upload) (string, error) {
	key := storageKey(up.Filename)

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
		Body:   up.Body,
	}
	if up.ContentType != "" {
		input.ContentType = aws.String(up.ContentType)
	}
	if up.Size > 0 {
		input.ContentLength = aws.Int64(up.Size)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		s.logger.Error("Failed to upload media file", zap.Error(err),
			zap.String("key", key), zap.String("filename", up.Filename))
		return "", fmt.Errorf("failed to upload media file: %w", err)
	}

	url := s.publicURL(key)
	s.logger.Info("Media file uploaded", zap.String("key", key), zap.String("url", url))
	return url, nil
}

func (s *S3MediaStore) publicURL(key string) string {
	if s.cfg.PublicBaseURL != "" {
		return strings.TrimRight(s.cfg.PublicBaseURL, "/") + "/" + key
	}
	if s.cfg.Endpoint != "" {
		return strings.TrimRight(s.cfg.Endpoint, "/") + "/" + s.cfg.Bucket + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.Bucket, s.cfg.Region, key)
}
