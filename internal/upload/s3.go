package upload

import (
	"context"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"
)

// S3Options configures the S3 backend
type S3Options struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	// PublicURL is the base URL objects are reachable under; defaults to
	// <endpoint>/<bucket>
	PublicURL    string
	UsePathStyle bool
}

type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(
		ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options),
	) (*s3.DeleteObjectOutput, error)
}

// S3 stores uploads in an S3 compatible object store
type S3 struct {
	client    s3API
	bucket    string
	publicURL string
}

// NewS3 creates a new S3 backend
func NewS3(ctx context.Context, opts S3Options) (*S3, error) {
	if opts.Bucket == "" {
		return nil, errors.New("upload: s3 bucket must be set")
	}
	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(opts.Region),
	}
	if opts.AccessKey != "" {
		loadOpts = append(
			loadOpts, config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
			),
		)
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "upload: failed to load s3 config")
	}
	client := s3.NewFromConfig(
		cfg, func(o *s3.Options) {
			if opts.Endpoint != "" {
				o.BaseEndpoint = aws.String(opts.Endpoint)
			}
			o.UsePathStyle = opts.UsePathStyle
		},
	)
	publicURL := opts.PublicURL
	if publicURL == "" {
		publicURL = strings.TrimSuffix(opts.Endpoint, "/") + "/" + opts.Bucket
	}
	return &S3{
		client:    client,
		bucket:    opts.Bucket,
		publicURL: strings.TrimSuffix(publicURL, "/"),
	}, nil
}

func (b *S3) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	_, err := b.client.PutObject(
		ctx, &s3.PutObjectInput{
			Bucket:        aws.String(b.bucket),
			Key:           aws.String(key),
			Body:          r,
			ContentLength: aws.Int64(size),
			ContentType:   aws.String(contentType),
		},
	)
	if err != nil {
		return "", errors.Wrap(err, "upload: s3 put failed")
	}
	return b.publicURL + "/" + key, nil
}

func (b *S3) Delete(ctx context.Context, key string) error {
	_, err := b.client.DeleteObject(
		ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(b.bucket),
			Key:    aws.String(key),
		},
	)
	return errors.Wrap(err, "upload: s3 delete failed")
}
