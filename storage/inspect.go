package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
)

// ObjectInfo describes one stored object for diagnostics.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
	ContentType  string
}

// BucketStats summarizes bucket usage for diagnostics.
type BucketStats struct {
	TotalObjects int64
	TotalSize    int64
}

// ListBucketObjects lists objects under a prefix together with usage
// totals. Used by the minio diagnostic command.
func ListBucketObjects(ctx context.Context, prefix string, recursive bool) ([]ObjectInfo, *BucketStats, error) {
	if minioClient == nil {
		return nil, nil, fmt.Errorf("MinIO client not initialized")
	}

	stats := &BucketStats{}
	var objects []ObjectInfo
	for object := range minioClient.ListObjects(ctx, minioBucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: recursive,
	}) {
		if object.Err != nil {
			return nil, nil, fmt.Errorf("failed to list objects: %w", object.Err)
		}
		objects = append(objects, ObjectInfo{
			Key:          object.Key,
			Size:         object.Size,
			LastModified: object.LastModified,
			ContentType:  object.ContentType,
		})
		stats.TotalObjects++
		stats.TotalSize += object.Size
	}
	return objects, stats, nil
}

// RemovePrefix deletes every object under a prefix. Used to clear stale
// recordings from the bucket by hand.
func RemovePrefix(ctx context.Context, prefix string) (int, error) {
	if minioClient == nil {
		return 0, fmt.Errorf("MinIO client not initialized")
	}
	if prefix == "" {
		return 0, fmt.Errorf("refusing to delete with an empty prefix")
	}

	removed := 0
	for object := range minioClient.ListObjects(ctx, minioBucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if object.Err != nil {
			return removed, fmt.Errorf("failed to list objects for deletion: %w", object.Err)
		}
		if err := minioClient.RemoveObject(ctx, minioBucket, object.Key, minio.RemoveObjectOptions{}); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", object.Key, err)
		}
		removed++
	}
	return removed, nil
}

// FormatSize renders a byte count for human consumption.
func FormatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
