// Package blob probes and stores original document files in an S3-compatible
// object store.
package blob

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog/log"

	"hybrid-rag/internal/config"
)

// candidateExtensions is the fixed, ordered set of keys probed for a
// document: the bare id first, then the known upload extensions.
var candidateExtensions = []string{"", ".pdf", ".txt", ".md", ".doc", ".docx", ".html"}

type Store struct {
	client *minio.Client
	bucket string
	prefix string
}

// New connects to the object store and ensures the bucket exists.
func New(ctx context.Context, cfg *config.BlobConfig) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.Bucket, err)
		}
		log.Info().Str("bucket", cfg.Bucket).Msg("created blob bucket")
	}

	return &Store{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// Exists probes the candidate keys for the document in order and reports
// whether any resolves. A missing key is not an error; anything else is.
func (s *Store) Exists(ctx context.Context, documentID string) (bool, error) {
	for _, ext := range candidateExtensions {
		key := s.objectName(documentID + ext)
		_, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
		if err == nil {
			return true, nil
		}
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound {
			continue
		}
		return false, fmt.Errorf("failed to stat %s: %w", key, err)
	}
	return false, nil
}

// Put uploads the original file under the document id plus its extension.
// The ingestion pipeline never calls this; it belongs to the upload
// collaborator wired in cmd.
func (s *Store) Put(ctx context.Context, documentID, ext string, r io.Reader, size int64, contentType string) error {
	key := s.objectName(documentID + ext)
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	log.Debug().Str("key", key).Msg("uploaded blob")
	return nil
}

func (s *Store) objectName(name string) string {
	return path.Join(s.prefix, name)
}
