package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"carspace-backend/internal/config"
)

// S3Uploader uploads car images to an S3-compatible bucket (AWS S3 or MinIO)
type S3Uploader struct {
	client        *s3.Client
	bucket        string
	publicBaseURL string
}

// NewS3Uploader creates an S3Uploader from the storage configuration
func NewS3Uploader(ctx context.Context, cfg *config.StorageConfig) (*S3Uploader, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
			o.UsePathStyle = true // MinIO-style endpoints
		}
	})

	publicBaseURL := strings.TrimRight(cfg.PublicBaseURL, "/")
	if publicBaseURL == "" {
		publicBaseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}

	return &S3Uploader{
		client:        client,
		bucket:        cfg.Bucket,
		publicBaseURL: publicBaseURL,
	}, nil
}

// storageKey returns a date-partitioned random object key, keeping the
// original file extension so the served content type stays sensible.
func storageKey(filename string) string {
	d := time.Now()
	return fmt.Sprintf("cars/%d/%02d/%02d/%s%s",
		d.Year(), d.Month(), d.Day(), uuid.New(), strings.ToLower(path.Ext(filename)))
}

func (u *S3Uploader) Upload(ctx context.Context, filename, contentType string, body io.Reader) (string, error) {
	key := storageKey(filename)

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &u.bucket,
		Key:         &key,
		Body:        body,
		ContentType: &contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}

	return u.publicBaseURL + "/" + key, nil
}
