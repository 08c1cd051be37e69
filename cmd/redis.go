package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mattislub/Timed-Audio-Queue/cache"
	"github.com/mattislub/Timed-Audio-Queue/logger"
)

var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Test the Redis connection",
	Long:  `Connects to Redis with the configured settings and performs a basic read/write round trip.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		fmt.Printf("Redis: %s:%s, DB %d\n", cfg.RedisHost, cfg.RedisPort, cfg.RedisDB)

		if err := cache.ConnectRedis(cfg); err != nil {
			logger.Fatal("failed to connect to Redis", logger.ErrorField(err))
		}
		fmt.Println("Connected.")

		if err := cache.TestRedis(); err != nil {
			logger.Fatal("Redis round trip failed", logger.ErrorField(err))
		}
		fmt.Println("Read/write round trip OK.")

		if err := cache.CloseRedis(); err != nil {
			logger.Warn("error closing Redis connection", logger.ErrorField(err))
		}
		fmt.Println("Done.")
	},
}

func init() {
	rootCmd.AddCommand(redisCmd)
}
