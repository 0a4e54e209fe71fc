// Package storage provides encrypted payload storage on top of blob buckets
// and secure destruction of local artifacts.
package storage

import (
	"context"
	"crypto/rand"
	"io"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/azureblob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
	"gocloud.dev/gcerrors"

	apperrors "github.com/allisson/fileguard/internal/errors"
)

// ObjectStore persists encrypted payloads by key.
type ObjectStore interface {
	Write(ctx context.Context, key string, data []byte) error
	Read(ctx context.Context, key string) ([]byte, error)
	// Delete removes the object. Returns false when the key does not exist.
	Delete(ctx context.Context, key string) (bool, error)
	// SecureDelete overwrites the object with random data before removing it.
	// Returns false when the key does not exist.
	SecureDelete(ctx context.Context, key string) (bool, error)
	Exists(ctx context.Context, key string) (bool, error)
	// TotalSize sums the stored object sizes, used by the quota watchdog.
	TotalSize(ctx context.Context) (int64, error)
	Close() error
}

// blobObjectStore implements ObjectStore on a gocloud.dev blob bucket, so the
// same code serves local directories (file://), S3, GCS and Azure.
type blobObjectStore struct {
	bucket *blob.Bucket
}

// NewObjectStore opens the bucket at the given URL (e.g. "file:///var/lib/
// fileguard/blobs", "s3://bucket?region=us-east-1").
func NewObjectStore(ctx context.Context, bucketURL string) (ObjectStore, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to open storage bucket")
	}
	return &blobObjectStore{bucket: bucket}, nil
}

func (b *blobObjectStore) Write(ctx context.Context, key string, data []byte) error {
	if err := b.bucket.WriteAll(ctx, key, data, nil); err != nil {
		return apperrors.Wrap(err, "failed to write object")
	}
	return nil
}

func (b *blobObjectStore) Read(ctx context.Context, key string) ([]byte, error) {
	data, err := b.bucket.ReadAll(ctx, key)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrap(err, "failed to read object")
	}
	return data, nil
}

func (b *blobObjectStore) Delete(ctx context.Context, key string) (bool, error) {
	err := b.bucket.Delete(ctx, key)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return false, nil
		}
		return false, apperrors.Wrap(err, "failed to delete object")
	}
	return true, nil
}

// SecureDelete overwrites the object with three passes of random data of the
// original size, then deletes it. Backends without versioning retain no
// recoverable ciphertext.
func (b *blobObjectStore) SecureDelete(ctx context.Context, key string) (bool, error) {
	attrs, err := b.bucket.Attributes(ctx, key)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return false, nil
		}
		return false, apperrors.Wrap(err, "failed to read object attributes")
	}

	noise := make([]byte, attrs.Size)
	for pass := 0; pass < 3; pass++ {
		if _, err := rand.Read(noise); err != nil {
			return false, apperrors.Wrap(err, "failed to generate overwrite data")
		}
		if err := b.bucket.WriteAll(ctx, key, noise, nil); err != nil {
			return false, apperrors.Wrap(err, "failed to overwrite object")
		}
	}

	if err := b.bucket.Delete(ctx, key); err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return false, nil
		}
		return false, apperrors.Wrap(err, "failed to delete object")
	}
	return true, nil
}

func (b *blobObjectStore) Exists(ctx context.Context, key string) (bool, error) {
	exists, err := b.bucket.Exists(ctx, key)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to check object existence")
	}
	return exists, nil
}

func (b *blobObjectStore) TotalSize(ctx context.Context) (int64, error) {
	var total int64
	iter := b.bucket.List(nil)
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, apperrors.Wrap(err, "failed to list objects")
		}
		total += obj.Size
	}
	return total, nil
}

func (b *blobObjectStore) Close() error {
	return b.bucket.Close()
}
