// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package blob releases submission attachments held in S3-compatible storage.

Uploads and downloads happen outside the API; the registry only needs to
delete the objects of a submission once its record is gone.
*/
package blob

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Options configures a [MinIOStore].
type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// MinIOStore deletes objects from one bucket.
type MinIOStore struct {
	client *minio.Client
	bucket string
	logger *slog.Logger
}

// NewMinIOStore creates a MinIO client. The bucket is not checked here;
// readiness reports it through [MinIOStore.Ping].
func NewMinIOStore(options Options, logger *slog.Logger) (*MinIOStore, error) {
	client, err := minio.New(options.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(options.AccessKey, options.SecretKey, ""),
		Secure: options.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("blob: failed to create MinIO client: %w", err)
	}

	logger.Info("minio client created",
		slog.String("endpoint", options.Endpoint),
		slog.String("bucket", options.Bucket),
		slog.Bool("ssl", options.UseSSL),
	)

	return &MinIOStore{client: client, bucket: options.Bucket, logger: logger}, nil
}

// Remove deletes every path. Missing objects are not an error; every path is
// attempted and failures are joined.
func (store *MinIOStore) Remove(ctx context.Context, paths []string) error {
	var errs []error
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := store.client.RemoveObject(ctx, store.bucket, path, minio.RemoveObjectOptions{}); err != nil {
			errs = append(errs, fmt.Errorf("blob: remove %q: %w", path, err))
		}
	}
	return errors.Join(errs...)
}

// Ping checks that the bucket is reachable.
func (store *MinIOStore) Ping(ctx context.Context) error {
	exists, err := store.client.BucketExists(ctx, store.bucket)
	if err != nil {
		return fmt.Errorf("blob: bucket check failed: %w", err)
	}
	if !exists {
		return fmt.Errorf("blob: bucket %q does not exist", store.bucket)
	}
	return nil
}

// Nop discards removals. It backs deployments without object storage.
type Nop struct{}

// Remove implements the blob release contract by doing nothing.
func (Nop) Remove(context.Context, []string) error { return nil }
