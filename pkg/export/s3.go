package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dd0wney/cluso-flownet/pkg/config"
)

// ObjectPutter is the part of the S3 client used for uploads
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// NewS3Client builds a path-style client for AWS or an S3-compatible store.
// Static credentials are used when both keys are set, otherwise the default
// credential chain applies.
func NewS3Client(ctx context.Context, cfg config.S3Config) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
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
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	}), nil
}

// S3Target buffers each artifact and uploads it to Bucket under Prefix on
// Close.
type S3Target struct {
	client ObjectPutter
	bucket string
	prefix string
}

func NewS3Target(client ObjectPutter, bucket, prefix string) *S3Target {
	return &S3Target{client: client, bucket: bucket, prefix: prefix}
}

// Key returns the object key used for name
func (t *S3Target) Key(name string) string {
	if t.prefix == "" {
		return name
	}
	return path.Join(t.prefix, name)
}

func (t *S3Target) Create(ctx context.Context, name string) (io.WriteCloser, error) {
	return &s3Object{ctx: ctx, target: t, name: name}, nil
}

type s3Object struct {
	bytes.Buffer
	ctx    context.Context
	target *S3Target
	name   string
}

func (o *s3Object) Close() error {
	key := o.target.Key(o.name)
	input := &s3.PutObjectInput{
		Bucket:        aws.String(o.target.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(o.Bytes()),
		ContentLength: aws.Int64(int64(o.Len())),
	}
	if mimeType := mime.TypeByExtension(filepath.Ext(o.name)); mimeType != "" {
		input.ContentType = aws.String(mimeType)
	}

	if _, err := o.target.client.PutObject(o.ctx, input); err != nil {
		return fmt.Errorf("failed to upload %s to S3: %w", key, err)
	}
	return nil
}
