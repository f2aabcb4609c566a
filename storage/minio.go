package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"path"
	"time"

	"podcastr/config"
	"podcastr/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var (
	minioClient *minio.Client
	bucketName  string
)

// InitMinio 初始化 MinIO 客户端，存储桶不存在时创建
func InitMinio(cfg *config.Config) error {
	logger.Info("connecting to MinIO",
		logger.String("endpoint", cfg.MinioEndpoint),
		logger.String("bucket", cfg.MinioBucket))

	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return fmt.Errorf("创建 MinIO 客户端失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return fmt.Errorf("检查存储桶失败: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{Region: cfg.MinioRegion}); err != nil {
			return fmt.Errorf("创建存储桶失败: %w", err)
		}
		logger.Info("bucket created", logger.String("bucket", cfg.MinioBucket))
	}

	minioClient = client
	bucketName = cfg.MinioBucket
	return nil
}

// GetMinioClient 获取 MinIO 客户端实例，未初始化时为 nil
func GetMinioClient() *minio.Client {
	return minioClient
}

// Bucket 当前使用的存储桶
func Bucket() string {
	return bucketName
}

// Object 从存储桶读取的对象
type Object struct {
	io.ReadCloser
	ContentType string
	Size        int64
}

// GetObject 读取对象，对象不存在时返回 fs.ErrNotExist
func GetObject(ctx context.Context, objectPath string) (*Object, error) {
	if minioClient == nil {
		return nil, fmt.Errorf("MinIO client not initialized")
	}

	obj, err := minioClient.GetObject(ctx, bucketName, objectPath, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}

	// GetObject 是惰性的，Stat 才会真正请求
	info, err := obj.Stat()
	if err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fs.ErrNotExist
		}
		return nil, err
	}

	contentType := info.ContentType
	if contentType == "" {
		contentType = ContentTypeFor(objectPath)
	}
	return &Object{ReadCloser: obj, ContentType: contentType, Size: info.Size}, nil
}

// UploadAssets 把 fsys 中的所有文件上传到存储桶的 prefix 下，返回上传数量
func UploadAssets(ctx context.Context, fsys fs.FS, prefix string) (int, error) {
	if minioClient == nil {
		return 0, fmt.Errorf("MinIO client not initialized")
	}

	uploaded := 0
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}

		f, err := fsys.Open(p)
		if err != nil {
			return err
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			return err
		}

		objectPath := path.Join(prefix, p)
		_, err = minioClient.PutObject(ctx, bucketName, objectPath, f, info.Size(), minio.PutObjectOptions{
			ContentType:  ContentTypeFor(p),
			CacheControl: "public, max-age=31536000",
		})
		if err != nil {
			return fmt.Errorf("上传 %s 失败: %w", objectPath, err)
		}

		logger.Info("asset uploaded", logger.String("object", objectPath), logger.Int("size", int(info.Size())))
		uploaded++
		return nil
	})
	return uploaded, err
}

// ContentTypeFor 根据扩展名推断内容类型
func ContentTypeFor(p string) string {
	if ct := mime.TypeByExtension(path.Ext(p)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
