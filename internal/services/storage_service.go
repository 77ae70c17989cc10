// internal/services/storage_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"github.com/javajoker/digital-storefront/internal/config"
)

type AssetObject struct {
	Body io.ReadCloser
	Size int64
}

// AssetStore reads protected files by their path relative to the storage root.
// A missing object, or one that is not a regular file, yields ErrNotFound.
type AssetStore interface {
	Open(ctx context.Context, relPath string) (*AssetObject, error)
}

func NewAssetStore(cfg *config.Config) (AssetStore, error) {
	if !cfg.S3Enabled() {
		return NewLocalAssetStore(cfg.Storage.ProtectedRoot), nil
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.AWS.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.AWS.AccessKeyID,
			cfg.AWS.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return NewS3AssetStore(s3.New(sess), cfg.AWS.S3Bucket), nil
}

type LocalAssetStore struct {
	root string
}

func NewLocalAssetStore(root string) *LocalAssetStore {
	return &LocalAssetStore{root: root}
}

func (s *LocalAssetStore) Open(ctx context.Context, relPath string) (*AssetObject, error) {
	full, err := s.resolve(relPath)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to stat asset: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, ErrNotFound
	}

	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to open asset: %w", err)
	}

	return &AssetObject{Body: f, Size: info.Size()}, nil
}

// resolve joins relPath onto the root and rejects anything that climbs out of it.
func (s *LocalAssetStore) resolve(relPath string) (string, error) {
	rel := strings.TrimLeft(relPath, `/\`)
	if rel == "" {
		return "", ErrNotFound
	}

	root, err := filepath.Abs(s.root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve storage root: %w", err)
	}

	full := filepath.Join(root, filepath.FromSlash(rel))
	within, err := filepath.Rel(root, full)
	if err != nil || within == ".." || strings.HasPrefix(within, ".."+string(filepath.Separator)) {
		return "", ErrNotFound
	}
	return full, nil
}

type S3AssetStore struct {
	client s3iface.S3API
	bucket string
}

func NewS3AssetStore(client s3iface.S3API, bucket string) *S3AssetStore {
	return &S3AssetStore{
		client: client,
		bucket: bucket,
	}
}

func (s *S3AssetStore) Open(ctx context.Context, relPath string) (*AssetObject, error) {
	key := path.Clean("/" + strings.ReplaceAll(relPath, `\`, "/"))[1:]
	if key == "" {
		return nil, ErrNotFound
	}

	out, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && (aerr.Code() == s3.ErrCodeNoSuchKey || aerr.Code() == "NotFound") {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch asset from S3: %w", err)
	}

	return &AssetObject{
		Body: out.Body,
		Size: aws.Int64Value(out.ContentLength),
	}, nil
}
