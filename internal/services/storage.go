package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"blogtalks/internal/config"
	"blogtalks/internal/logger"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// StorageService кладёт картинки (аватары, обложки, вставки редактора)
// в S3-совместимый бакет и возвращает публичный URL.
type StorageService struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// NewStorageService возвращает nil без ошибки, если S3 не настроен —
// загрузки просто выключены.
func NewStorageService(cfg *config.Config) (*StorageService, error) {
	if cfg.S3Endpoint == "" || cfg.S3AccessKey == "" {
		return nil, nil
	}

	client, err := minio.New(cfg.S3Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		Secure: cfg.S3UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	publicURL := strings.TrimRight(cfg.S3PublicURL, "/")
	if publicURL == "" {
		scheme := "http"
		if cfg.S3UseSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s", scheme, cfg.S3Endpoint)
	}

	return &StorageService{
		client:    client,
		bucket:    cfg.S3Bucket,
		publicURL: publicURL,
	}, nil
}

func (s *StorageService) Enabled() bool { return s != nil }

var imageExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// UploadImage сохраняет blob под сгенерированным ключом в подпапке
// (avatars, covers, editor) и возвращает публичный URL.
func (s *StorageService) UploadImage(ctx context.Context, reader io.Reader, size int64, contentType, folder string) (string, error) {
	log := logger.WithCtx(ctx)

	if s == nil {
		return "", fmt.Errorf("хранилище файлов не настроено")
	}

	ext, ok := imageExt[contentType]
	if !ok {
		return "", fmt.Errorf("недопустимый тип файла %q: %w", contentType, ErrValidation)
	}

	objectName := fmt.Sprintf("%s/%s%s", folder, uuid.New().String(), ext)

	_, err := s.client.PutObject(ctx, s.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		log.Error("Ошибка загрузки в S3", zap.String("object", objectName), zap.Error(err))
		return "", fmt.Errorf("загрузка в хранилище: %w", err)
	}

	url := fmt.Sprintf("%s/%s/%s", s.publicURL, s.bucket, objectName)
	log.Info("Файл загружен", zap.String("object", objectName), zap.Int64("size", size))
	return url, nil
}
