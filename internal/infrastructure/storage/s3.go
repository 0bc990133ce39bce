package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrForeignURL is returned when a URL does not point into this bucket.
var ErrForeignURL = errors.New("storage: url is not served by this bucket")

// Config for an S3-compatible bucket (AWS S3, Cloudflare R2, MinIO).
type Config struct {
	Bucket          string
	Region          string
	Endpoint        string // empty for AWS; e.g. https://<account>.r2.cloudflarestorage.com
	AccessKeyID     string
	SecretAccessKey string
	PublicURL       string // base URL objects are served from, e.g. https://cdn.example.co
}

// S3Storage stores gallery images in one bucket and serves them from PublicURL.
type S3Storage struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

// NewS3Storage builds the client. Static credentials are used when given,
// otherwise the default AWS credential chain.
func NewS3Storage(ctx context.Context, cfg Config) (*S3Storage, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("storage: S3_BUCKET is not set")
	}
	region := cfg.Region
	if region == "" {
		region = "auto"
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage: load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Storage{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
	}, nil
}

// Upload puts body at key and returns its public URL. progress, when set, is
// called with bytes read so far as the SDK streams the body.
func (s *S3Storage) Upload(ctx context.Context, key string, body []byte, contentType string, progress func(sent, total int64)) (string, error) {
	var reader io.ReadSeeker = bytes.NewReader(body)
	if progress != nil {
		reader = &progressReader{r: bytes.NewReader(body), total: int64(len(body)), fn: progress}
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          reader,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
		CacheControl:  aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return "", fmt.Errorf("storage: put %s: %w", key, err)
	}
	return s.PublicURL(key), nil
}

// Delete removes key. Deleting a missing key is not an error on S3.
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("storage: delete %s: %w", key, err)
	}
	return nil
}

// Ping checks the bucket is reachable with the configured credentials.
func (s *S3Storage) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	return err
}

func (s *S3Storage) PublicURL(key string) string {
	return PublicURL(s.publicURL, key)
}

func (s *S3Storage) KeyFromURL(raw string) (string, error) {
	return KeyFromURL(s.publicURL, raw)
}

// PublicURL joins base and key, escaping each path segment.
func PublicURL(base, key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.TrimRight(base, "/") + "/" + strings.Join(parts, "/")
}

// KeyFromURL is the inverse of PublicURL.
func KeyFromURL(base, raw string) (string, error) {
	prefix := strings.TrimRight(base, "/") + "/"
	if base == "" || !strings.HasPrefix(raw, prefix) {
		return "", ErrForeignURL
	}
	rest := strings.TrimPrefix(raw, prefix)
	if i := strings.IndexAny(rest, "?#"); i >= 0 {
		rest = rest[:i]
	}
	key, err := url.PathUnescape(rest)
	if err != nil || key == "" {
		return "", ErrForeignURL
	}
	return key, nil
}

// progressReader reports read progress. Seeking (the SDK rewinds on retry)
// moves the counter with the offset.
type progressReader struct {
	r     *bytes.Reader
	total int64
	sent  int64
	fn    func(sent, total int64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		p.fn(p.sent, p.total)
	}
	return n, err
}

func (p *progressReader) Seek(offset int64, whence int) (int64, error) {
	pos, err := p.r.Seek(offset, whence)
	if err == nil {
		p.sent = pos
	}
	return pos, err
}
