package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mattislub/Timed-Audio-Queue/logger"
	"github.com/mattislub/Timed-Audio-Queue/storage"
)

var (
	minioPrefix    string
	minioRecursive bool
	minioDelete    bool
)

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "Inspect the recordings bucket",
	Long:  `Lists stored recording objects and bucket usage. With --delete, removes every object under the given prefix.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		fmt.Printf("MinIO: %s, bucket %s\n", cfg.MinioEndpoint, cfg.MinioBucket)

		if err := storage.InitMinio(cfg); err != nil {
			logger.Fatal("failed to connect to MinIO", logger.ErrorField(err))
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if minioDelete {
			if minioPrefix == "" {
				logger.Fatal("--delete requires --prefix")
			}
			removed, err := storage.RemovePrefix(ctx, minioPrefix)
			if err != nil {
				logger.Fatal("failed to delete prefix", logger.ErrorField(err))
			}
			fmt.Printf("Removed %d objects under %q.\n", removed, minioPrefix)
			return
		}

		objects, stats, err := storage.ListBucketObjects(ctx, minioPrefix, minioRecursive)
		if err != nil {
			logger.Fatal("failed to list objects", logger.ErrorField(err))
		}
		for _, obj := range objects {
			fmt.Printf("%-60s %10s  %s\n", obj.Key, storage.FormatSize(obj.Size),
				obj.LastModified.Format(time.RFC3339))
		}
		fmt.Printf("\n%d objects, %s total.\n", stats.TotalObjects, storage.FormatSize(stats.TotalSize))
	},
}

func init() {
	minioCmd.Flags().StringVarP(&minioPrefix, "prefix", "p", "", "object key prefix")
	minioCmd.Flags().BoolVarP(&minioRecursive, "recursive", "r", true, "list recursively")
	minioCmd.Flags().BoolVarP(&minioDelete, "delete", "d", false, "delete all objects under the prefix")
	rootCmd.AddCommand(minioCmd)
}
