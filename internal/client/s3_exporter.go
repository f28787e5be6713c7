package client

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	appConfig "project-field-api/internal/config"
	"project-field-api/internal/metrics"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// UsageExporter defines the interface for uploading usage report exports
type UsageExporter interface {
	UploadReport(ctx context.Context, key string, data []byte) (string, error)
}

// S3Exporter uploads usage report exports to S3 (or MinIO locally)
type S3Exporter struct {
	client   *s3.Client
	bucket   string
	region   string
	endpoint string
	metrics  *metrics.Metrics
}

// NewS3Exporter creates a new S3 exporter. The metrics recorder may be nil.
func NewS3Exporter(cfg *appConfig.S3Config, m *metrics.Metrics) (*S3Exporter, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("S3 bucket is required")
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("S3 region is required")
	}

	var awsCfg aws.Config
	var err error

	// A custom endpoint means MinIO, which needs explicit credentials and
	// path-style addressing
	if cfg.Endpoint != "" {
		if cfg.AccessKey == "" || cfg.SecretKey == "" {
			return nil, fmt.Errorf("access key and secret key are required for MinIO endpoint")
		}

		awsCfg, err = config.LoadDefaultConfig(context.TODO(),
			config.WithRegion(cfg.Region),
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				cfg.AccessKey,
				cfg.SecretKey,
				"",
			)),
			config.WithEndpointResolverWithOptions(aws.EndpointResolverWithOptionsFunc(
				func(service, region string, options ...interface{}) (aws.Endpoint, error) {
					return aws.Endpoint{
						URL:               cfg.Endpoint,
						HostnameImmutable: true,
						SigningRegion:     cfg.Region,
					}, nil
				},
			)),
		)
	} else {
		// Use AWS SDK default credential chain (IAM role on EC2, ~/.aws/credentials locally)
		awsCfg, err = config.LoadDefaultConfig(context.TODO(),
			config.WithRegion(cfg.Region),
		)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.UsePathStyle = true
		}
	})

	return &S3Exporter{
		client:   s3Client,
		bucket:   cfg.Bucket,
		region:   cfg.Region,
		endpoint: cfg.Endpoint,
		metrics:  m,
	}, nil
}

// UploadReport uploads a rendered CSV report and returns its download URL
func (c *S3Exporter) UploadReport(ctx context.Context, key string, data []byte) (string, error) {
	start := time.Now()
	_, err := c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("text/csv"),
	})
	if c.metrics != nil {
		status := 200
		if err != nil {
			status = 500
		}
		c.metrics.RecordExternalAPICall("s3", "PUT", status, time.Since(start), err)
	}
	if err != nil {
		return "", fmt.Errorf("failed to upload report to S3: %w", err)
	}
	return c.fileURL(key), nil
}

// fileURL builds the public URL of an uploaded object
func (c *S3Exporter) fileURL(key string) string {
	if c.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(c.endpoint, "/"), c.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", c.bucket, c.region, key)
}
