package pinning

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	DefaultS3Endpoint = "s3.filebase.com"
	defaultS3Region   = "us-east-1"
	cidMetadataHeader = "X-Amz-Meta-Cid"
	cidUserMetadata   = "Cid"
)

type S3Opts func(c *s3Config)

type s3Config struct {
	endpoint        string
	bucket          string
	prefix          string
	accessKey       string
	secretAccessKey string
	region          string
	useSSL          bool
}

func WithS3Endpoint(endpoint string) S3Opts {
	return func(c *s3Config) {
		c.endpoint = endpoint
	}
}

func WithS3Bucket(bucket string) S3Opts {
	return func(c *s3Config) {
		c.bucket = bucket
	}
}

// WithS3Prefix stores every object under prefix inside the bucket.
func WithS3Prefix(prefix string) S3Opts {
	return func(c *s3Config) {
		c.prefix = prefix
	}
}

func WithS3Credentials(accessKey, secretKey string) S3Opts {
	return func(c *s3Config) {
		c.accessKey = accessKey
		c.secretAccessKey = secretKey
	}
}

func WithS3Region(region string) S3Opts {
	return func(c *s3Config) {
		c.region = region
	}
}

func WithS3SSL(useSSL bool) S3Opts {
	return func(c *s3Config) {
		c.useSSL = useSSL
	}
}

// S3Client stores objects in an IPFS backed S3 compatible bucket. The gateway pins
// every stored object and reports its CID as object metadata.
type S3Client struct {
	cfg    *s3Config
	client *minio.Client
}

func NewS3Client(opts ...S3Opts) (*S3Client, error) {
	cfg := &s3Config{
		endpoint: DefaultS3Endpoint,
		region:   defaultS3Region,
		useSSL:   true,
	}
	for _, o := range opts {
		o(cfg)
	}

	if cfg.bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}

	minioClient, err := minio.New(cfg.endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.accessKey, cfg.secretAccessKey, ""),
		Secure: cfg.useSSL,
		Region: cfg.region,
	})
	if err != nil {
		return nil, err
	}

	return &S3Client{cfg: cfg, client: minioClient}, nil
}

func (s *S3Client) Name() string {
	return "s3"
}

func (s *S3Client) Upload(ctx context.Context, filePath string) (*Pin, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, NewErrMalformed(0, fmt.Errorf("failed to open %s: %w", filePath, err))
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, NewErrMalformed(0, fmt.Errorf("failed to stat %s: %w", filePath, err))
	}

	return s.put(ctx, filepath.Base(filePath), f, info.Size(), mediaType(filePath))
}

func (s *S3Client) UploadJSON(ctx context.Context, name string, body []byte) (*Pin, error) {
	return s.put(ctx, name, bytes.NewReader(body), int64(len(body)), "application/json")
}

// Pin is a no-op: objects stored through the gateway are pinned for as long as they exist.
func (s *S3Client) Pin(_ context.Context, _ string, _ string) error {
	return nil
}

func (s *S3Client) put(ctx context.Context, name string, r io.Reader, size int64, contentType string) (*Pin, error) {
	objectName := path.Join(s.cfg.prefix, name)

	uploaded, err := s.client.PutObject(ctx, s.cfg.bucket, objectName, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, classifyS3Error(err)
	}

	objInfo, err := s.client.StatObject(ctx, s.cfg.bucket, objectName, minio.StatObjectOptions{})
	if err != nil {
		return nil, classifyS3Error(err)
	}

	cid := objInfo.Metadata.Get(cidMetadataHeader)
	if cid == "" {
		cid = objInfo.UserMetadata[cidUserMetadata]
	}
	if cid == "" {
		return nil, NewErrMalformed(http.StatusOK, fmt.Errorf("object %s carries no cid metadata", objectName))
	}

	return &Pin{
		Name:      name,
		CID:       cid,
		Size:      uploaded.Size,
		Timestamp: objInfo.LastModified.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}, nil
}

func classifyS3Error(err error) *Error {
	resp := minio.ToErrorResponse(err)
	switch {
	case resp.Code == "SlowDown" || resp.Code == "TooManyRequests" || resp.StatusCode == http.StatusTooManyRequests:
		return NewErrRateLimited(resp.StatusCode, err)
	case resp.Code == "AccessDenied" || resp.Code == "InvalidAccessKeyId" || resp.Code == "SignatureDoesNotMatch",
		resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return NewErrUnauthorized(resp.StatusCode, err)
	case resp.StatusCode == 0 || resp.StatusCode == http.StatusRequestTimeout || resp.StatusCode >= 500:
		return NewErrTransient(resp.StatusCode, err)
	default:
		return NewErrMalformed(resp.StatusCode, err)
	}
}
