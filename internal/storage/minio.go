package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const minioNoSuchKey = "NoSuchKey"

var _ FileStorage = (*MinioClient)(nil)

// MinioClient реализует FileStorage для MinIO.
type MinioClient struct {
	client     *minio.Client
	bucketName string
}

// MinioConfig содержит параметры для подключения к MinIO.
type MinioConfig struct {
	Endpoint        string // Адрес MinIO (например, "localhost:9000")
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	BucketName      string
	Region          string
}

// NewMinioClient создает клиент MinIO и при необходимости создает бакет.
func NewMinioClient(ctx context.Context, cfg MinioConfig) (*MinioClient, error) {
	slog.Info("[Minio] Инициализация клиента", slog.String("endpoint", cfg.Endpoint))

	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации клиента MinIO: %w", err)
	}

	exists, err := minioClient.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("ошибка проверки существования бакета '%s': %w", cfg.BucketName, err)
	}
	if !exists {
		slog.Info("[Minio] Бакет не найден, создаем", slog.String("bucket", cfg.BucketName))
		err = minioClient.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{Region: cfg.Region})
		if err != nil {
			return nil, fmt.Errorf("ошибка создания бакета '%s': %w", cfg.BucketName, err)
		}
	}

	slog.Info("[Minio] Клиент инициализирован", slog.String("bucket", cfg.BucketName))
	return &MinioClient{client: minioClient, bucketName: cfg.BucketName}, nil
}

// Save загружает объект. PutObject возвращается только после того, как объект записан целиком.
func (c *MinioClient) Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) error {
	info, err := c.client.PutObject(ctx, c.bucketName, name, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("ошибка загрузки файла '%s' в MinIO: %w", name, err)
	}
	slog.Debug("[Minio] Файл загружен",
		slog.String("name", name),
		slog.Int64("size", info.Size),
		slog.String("etag", info.ETag),
	)
	return nil
}

// Open скачивает объект. GetObject ленивый, поэтому наличие объекта проверяется через Stat.
func (c *MinioClient) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	object, err := c.client.GetObject(ctx, c.bucketName, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, c.mapError(name, err)
	}
	if _, err = object.Stat(); err != nil {
		_ = object.Close()
		return nil, c.mapError(name, err)
	}
	return object, nil
}

// Delete удаляет объект. RemoveObject не сообщает об отсутствии ключа, поэтому сначала StatObject.
func (c *MinioClient) Delete(ctx context.Context, name string) error {
	if _, err := c.client.StatObject(ctx, c.bucketName, name, minio.StatObjectOptions{}); err != nil {
		return c.mapError(name, err)
	}
	if err := c.client.RemoveObject(ctx, c.bucketName, name, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("ошибка удаления файла '%s' из MinIO: %w", name, err)
	}
	return nil
}

func (c *MinioClient) mapError(name string, err error) error {
	if minio.ToErrorResponse(err).Code == minioNoSuchKey {
		return ErrObjectNotFound
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("ошибка получения файла '%s' из MinIO: %w", name, err)
}
