package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"github.com/rmoralesp/giftshop-backend/pkg/config"
	"github.com/rmoralesp/giftshop-backend/pkg/logger"
)

const pingTimeout = 5 * time.Second

// Client stores payment-proof objects for transfer-paid sales.
type Client struct {
	raw    *storage.Client
	bucket string
	cfg    config.GCSConfig
}

// Pinger exposes the health-check surface.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ProofUploader is the surface the checkout flow depends on.
type ProofUploader interface {
	UploadProof(ctx context.Context, saleRef string, contentType string, body io.Reader) (string, error)
}

// NewClient builds a GCS-backed object store client.
func NewClient(ctx context.Context, cfg config.GCSConfig, gcp config.GCPConfig, logg *logger.Logger) (*Client, error) {
	if cfg.BucketName == "" {
		return nil, errors.New("gcs bucket name is required")
	}

	var opts []option.ClientOption
	if strings.TrimSpace(gcp.CredentialsJSON) != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(gcp.CredentialsJSON)))
	}

	raw, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating gcs client: %w", err)
	}

	client := &Client{raw: raw, bucket: cfg.BucketName, cfg: cfg}

	if err := client.Ping(ctx); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("gcs health check failed: %w", err)
	}

	if logg != nil {
		logg.Info(ctx, "gcs client initialized")
	}

	return client, nil
}

// Ping verifies the bucket is reachable.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.raw == nil {
		return errors.New("gcs client not initialized")
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	_, err := c.raw.Bucket(c.bucket).Attrs(ctx)
	return err
}

// UploadProof stores a payment-proof object and returns its gs:// reference.
func (c *Client) UploadProof(ctx context.Context, saleRef string, contentType string, body io.Reader) (string, error) {
	if c == nil || c.raw == nil {
		return "", errors.New("gcs client not initialized")
	}
	if body == nil {
		return "", errors.New("proof body is required")
	}

	name := path.Join(c.cfg.ProofPrefix, saleRef, uuid.NewString())

	ctx, cancel := context.WithTimeout(ctx, c.uploadTimeout())
	defer cancel()

	writer := c.raw.Bucket(c.bucket).Object(name).NewWriter(ctx)
	writer.ContentType = contentType
	if c.cfg.MaxProofSizeMB > 0 {
		writer.ChunkSize = 1 << 20
	}

	if _, err := io.Copy(writer, body); err != nil {
		_ = writer.Close()
		return "", fmt.Errorf("writing proof object: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("finalizing proof object: %w", err)
	}

	return fmt.Sprintf("gs://%s/%s", c.bucket, name), nil
}

// SignedDownloadURL returns a short-lived read URL for a stored proof.
func (c *Client) SignedDownloadURL(objectName string) (string, error) {
	if c == nil || c.raw == nil {
		return "", errors.New("gcs client not initialized")
	}
	return c.raw.Bucket(c.bucket).SignedURL(objectName, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().Add(c.cfg.DownloadURLTTL),
	})
}

// Close releases the underlying client.
func (c *Client) Close() error {
	if c == nil || c.raw == nil {
		return nil
	}
	return c.raw.Close()
}

func (c *Client) uploadTimeout() time.Duration {
	if c.cfg.UploadTimeout > 0 {
		return c.cfg.UploadTimeout
	}
	return 30 * time.Second
}
