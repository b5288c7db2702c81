package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"songclub/config"
	"songclub/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Store wraps the MinIO client for the track bucket. It is constructed once
// at startup and injected into the handlers, so tests can substitute their
// own instance.
type Store struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// NewStore connects to MinIO and ensures the track bucket exists.
func NewStore(cfg *config.Config) (*Store, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{Region: cfg.MinioRegion}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		logger.Info("Created bucket", logger.String("bucket", cfg.MinioBucket))
	}

	publicURL := cfg.MinioPublicURL
	if publicURL == "" {
		scheme := "http"
		if cfg.MinioUseSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s/%s", scheme, cfg.MinioEndpoint, cfg.MinioBucket)
	}

	return &Store{
		client:    client,
		bucket:    cfg.MinioBucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

// Put stores an object under key.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to store object %s: %w", key, err)
	}
	return nil
}

// Remove deletes an object. Used both for the compensating delete after a
// failed row insert and for best-effort cleanup when a track is deleted.
func (s *Store) Remove(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove object %s: %w", key, err)
	}
	return nil
}

// PublicURL returns the externally resolvable URL for a stored object.
func (s *Store) PublicURL(key string) string {
	return s.publicURL + "/" + key
}

// KeyFromURL recovers the object key from a URL previously produced by
// PublicURL. It returns "" when the URL does not belong to this store.
func (s *Store) KeyFromURL(url string) string {
	prefix := s.publicURL + "/"
	if !strings.HasPrefix(url, prefix) {
		return ""
	}
	return strings.TrimPrefix(url, prefix)
}

// Stats returns object count and total size for the bucket, used by the
// minio subcommand.
func (s *Store) Stats(ctx context.Context) (int64, int64, error) {
	var count, bytes int64
	for object := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Recursive: true}) {
		if object.Err != nil {
			return 0, 0, fmt.Errorf("failed to list objects: %w", object.Err)
		}
		count++
		bytes += object.Size
	}
	return count, bytes, nil
}

var nonAlphaNumeric = regexp.MustCompile(`[^a-zA-Z0-9_\-\.]`)
var multipleSpaces = regexp.MustCompile(`\s+`)

// ObjectKey builds the per-user-namespaced key for an upload:
// <userID>/<unix-millis>-<sanitized original name>. The timestamp avoids
// collisions; the user prefix keeps uploads grouped per account.
func ObjectKey(userID int64, now time.Time, originalName string) string {
	ext := filepath.Ext(originalName)
	base := strings.TrimSuffix(filepath.Base(originalName), ext)

	base = multipleSpaces.ReplaceAllString(strings.TrimSpace(base), "_")
	base = nonAlphaNumeric.ReplaceAllString(base, "")
	maxLength := 150
	if len(base) > maxLength {
		base = base[:maxLength]
	}
	if base == "" {
		base = "track"
	}
	if ext == "" {
		ext = ".dat"
	}

	return fmt.Sprintf("%d/%d-%s%s", userID, now.UnixMilli(), base, ext)
}
