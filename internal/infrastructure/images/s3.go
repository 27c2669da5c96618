package images

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ersonp/lore-chronicle/internal/infrastructure/config"
)

// S3Source reads avatars from an S3 compatible bucket.
type S3Source struct {
	bucket string
	client *s3.Client
}

// NewS3SourceWithClient creates an S3Source using an existing client.
func NewS3SourceWithClient(bucket string, client *s3.Client) *S3Source {
	return &S3Source{bucket: bucket, client: client}
}

// NewS3Source creates an S3Source from configuration. Static credentials are
// used when both keys are set, otherwise the default AWS chain applies.
// A custom endpoint switches to path-style addressing for MinIO and friends.
func NewS3Source(ctx context.Context, cfg config.S3Config) (*S3Source, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("images.s3.bucket is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, awsconfig.WithBaseEndpoint(cfg.Endpoint))
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.Endpoint != ""
	})
	return NewS3SourceWithClient(cfg.Bucket, client), nil
}

// Read downloads the object named by ref.
func (s *S3Source) Read(ctx context.Context, ref string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(strings.TrimPrefix(ref, "/")),
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, out.Body); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
