package sink

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/typeface/typeface/internal/logging"
	"github.com/typeface/typeface/internal/metrics"
)

// S3Config holds S3 connection settings.
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
}

type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3 uploads downloads to an S3-compatible bucket.
type S3 struct {
	client putObjectAPI
	bucket string
	prefix string
}

// NewS3 creates an S3 sink. Static credentials are used when AccessKey is
// set, otherwise the default AWS credential chain applies.
func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 sink: bucket is required")
	}

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true // Required for MinIO
		}
	})

	return newS3WithClient(client, cfg.Bucket, cfg.Prefix), nil
}

func newS3WithClient(client putObjectAPI, bucket, prefix string) *S3 {
	return &S3{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

// Save uploads data under prefix/name and returns its s3:// location.
func (s *S3) Save(ctx context.Context, name, mediaType string, data []byte) (string, error) {
	key := SafeName(name)
	if s.prefix != "" {
		key = path.Join(s.prefix, key)
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if mediaType != "" {
		input.ContentType = aws.String(mediaType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		metrics.RecordSinkSave("s3", false)
		return "", fmt.Errorf("put s3://%s/%s: %w", s.bucket, key, err)
	}

	metrics.RecordSinkSave("s3", true)
	location := "s3://" + s.bucket + "/" + key
	logging.Debug("download uploaded", zap.String("location", location), zap.Int("bytes", len(data)))
	return location, nil
}

func parseS3URL(dest string) (bucket, prefix string, err error) {
	u, err := url.Parse(dest)
	if err != nil {
		return "", "", fmt.Errorf("parse %q: %w", dest, err)
	}
	if u.Host == "" {
		return "", "", fmt.Errorf("s3 destination %q has no bucket", dest)
	}
	return u.Host, strings.Trim(u.Path, "/"), nil
}
