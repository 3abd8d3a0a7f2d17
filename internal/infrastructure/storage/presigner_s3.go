package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/aryan0dhankhar/wardenlink/pkg/config"
)

var _ Presigner = (*S3Presigner)(nil)

// S3Presigner signs PUT URLs for AWS S3 or an S3-compatible endpoint.
type S3Presigner struct {
	presignClient *s3.PresignClient
	bucket        string
	publicBase    string
}

// NewS3Presigner creates a presigner from static credentials. A custom
// endpoint switches to path-style addressing.
func NewS3Presigner(cfg config.StorageConfig) (*S3Presigner, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("S3 bucket is required")
	}

	opts := s3.Options{Region: cfg.S3Region}
	if cfg.S3KeyID != "" {
		opts.Credentials = credentials.NewStaticCredentialsProvider(cfg.S3KeyID, cfg.S3Secret, "")
	}
	if cfg.S3Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.S3Endpoint)
		opts.UsePathStyle = true
	}

	publicBase := cfg.PublicURL
	if publicBase == "" {
		if cfg.S3Endpoint != "" {
			publicBase = joinURL(cfg.S3Endpoint, cfg.S3Bucket)
		} else {
			publicBase = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3Bucket, cfg.S3Region)
		}
	}

	return &S3Presigner{
		presignClient: s3.NewPresignClient(s3.New(opts)),
		bucket:        cfg.S3Bucket,
		publicBase:    publicBase,
	}, nil
}

func (p *S3Presigner) PresignPut(ctx context.Context, key, contentType string, expiry time.Duration) (string, error) {
	result, err := p.presignClient.PresignPutObject(ctx,
		&s3.PutObjectInput{
			Bucket:      aws.String(p.bucket),
			Key:         aws.String(key),
			ContentType: aws.String(contentType),
		},
		s3.WithPresignExpires(expiry),
	)
	if err != nil {
		return "", fmt.Errorf("presign PutObject for %q: %w", key, err)
	}
	return result.URL, nil
}

func (p *S3Presigner) PublicURL(key string) string { return joinURL(p.publicBase, key) }

func (p *S3Presigner) Bucket() string { return p.bucket }
