package cmd

import (
	"context"
	"fmt"
	"time"

	"podcastr/server"
	"podcastr/storage"

	"github.com/spf13/cobra"
)

var assetsPrefix string

var assetsCmd = &cobra.Command{
	Use:   "assets",
	Short: "上传静态资源到MinIO",
	Long:  `将内嵌的静态资源（样式、脚本、图标）上传到MinIO存储桶，服务端配置 MINIO_ENDPOINT 后会优先从存储桶读取。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.MinioEnabled() {
			return fmt.Errorf("MINIO_ENDPOINT is not set")
		}
		fmt.Printf("MinIO配置: %s, Bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)

		if err := storage.InitMinio(cfg); err != nil {
			return err
		}
		fmt.Println("MinIO连接成功！")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		count, err := storage.UploadAssets(ctx, server.StaticFS(), assetsPrefix)
		if err != nil {
			return err
		}
		fmt.Printf("上传完成，共 %d 个文件\n", count)
		return nil
	},
}

func init() {
	assetsCmd.Flags().StringVar(&assetsPrefix, "prefix", "static", "对象路径前缀，需要与 /static/ 路由一致")
	rootCmd.AddCommand(assetsCmd)
}
