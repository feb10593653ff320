package csvsource

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dafibh/fortuna/fortuna-dashboard/internal/config"
)

// ObjectGetter is the subset of the S3 API the source needs
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// ErrBucketNotAllowed is returned for references outside the configured bucket
var ErrBucketNotAllowed = errors.New("bucket not allowed")

// S3Source reads statements from S3 or an S3-compatible store
type S3Source struct {
	client ObjectGetter
	bucket string // when set, the only bucket Open accepts
}

// NewS3Source creates an S3 source from configuration
func NewS3Source(ctx context.Context, s3cfg config.S3Config) (*S3Source, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(s3cfg.Region),
	}

	if s3cfg.AccessKeyID != "" && s3cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				s3cfg.AccessKeyID,
				s3cfg.SecretAccessKey,
				"",
			),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var client *s3.Client
	if s3cfg.Endpoint != "" {
		client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(s3cfg.Endpoint)
			o.UsePathStyle = true // Required for MinIO
		})
	} else {
		client = s3.NewFromConfig(awsCfg)
	}

	src := NewS3SourceWithClient(client)
	src.bucket = s3cfg.Bucket
	return src, nil
}

// NewS3SourceWithClient wraps an existing S3 client
func NewS3SourceWithClient(client ObjectGetter) *S3Source {
	return &S3Source{client: client}
}

// RestrictTo limits Open to objects in bucket
func (s *S3Source) RestrictTo(bucket string) *S3Source {
	s.bucket = bucket
	return s
}

// Open implements Source
func (s *S3Source) Open(ctx context.Context, ref string) (*File, error) {
	bucket, key, err := ParseS3Ref(ref)
	if err != nil {
		return nil, err
	}
	if s.bucket != "" && bucket != s.bucket {
		return nil, fmt.Errorf("%w: %s", ErrBucketNotAllowed, bucket)
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download statement: %w", err)
	}

	size := int64(-1)
	if out.ContentLength != nil {
		size = *out.ContentLength
	}
	return &File{Name: path.Base(key), Size: size, Body: out.Body}, nil
}

// ParseS3Ref splits s3://bucket/key into its parts
func ParseS3Ref(ref string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(ref, "s3://")
	if !ok {
		return "", "", fmt.Errorf("not an s3 reference: %q", ref)
	}
	bucket, key, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" || strings.HasSuffix(key, "/") {
		return "", "", fmt.Errorf("s3 reference must be s3://bucket/key, got %q", ref)
	}
	return bucket, key, nil
}
