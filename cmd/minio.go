package cmd

import (
	"context"
	"fmt"
	"log"

	"songclub/config"
	"songclub/storage"

	"github.com/spf13/cobra"
)

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "Check the MinIO connection and print bucket usage",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		fmt.Printf("MinIO: %s, bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)

		store, err := storage.NewStore(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to MinIO: %v", err)
		}
		fmt.Println("MinIO connection successful.")

		count, bytes, err := store.Stats(context.Background())
		if err != nil {
			log.Fatalf("Failed to read bucket stats: %v", err)
		}
		fmt.Printf("Objects: %d, total size: %.2f MB\n", count, float64(bytes)/(1024*1024))
	},
}

func init() {
	rootCmd.AddCommand(minioCmd)
}
