package app

import (
	"blogtalks/internal/cache"
	"blogtalks/internal/config"
	"blogtalks/internal/db"
	"blogtalks/internal/handlers"
	"blogtalks/internal/logger"
	"blogtalks/internal/repository"
	"blogtalks/internal/routes"
	"blogtalks/internal/services"

	"github.com/gorilla/mux"
)

func InitApp(cfg *config.Config) (*mux.Router, error) {
	conn, err := db.NewPostgresConnection(cfg)
	if err != nil {
		return nil, err
	}

	// Репозитории
	userRepo := repository.NewUserRepository(conn)
	postRepo := repository.NewPostRepo(conn)
	tagRepo := repository.NewTagRepo(conn)
	commentRepo := repository.NewCommentRepo(conn)
	statsRepo := repository.NewStatsRepo(conn)

	// Кэш комментариев; без REDIS_ADDR работаем напрямую из БД
	commentCache, err := cache.NewCommentCache(cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		return nil, err
	}
	if commentCache == nil {
		logger.Log.Warn("Redis не настроен, кэш комментариев выключен")
	}

	// S3-хранилище картинок; без S3_ENDPOINT загрузки выключены
	storage, err := services.NewStorageService(cfg)
	if err != nil {
		return nil, err
	}
	if !storage.Enabled() {
		logger.Log.Warn("S3 не настроен, загрузка файлов выключена")
	}

	// Сервисы
	authService := services.NewAuthService(userRepo)
	tagService := services.NewTagService(tagRepo, postRepo, authService)
	postService := services.NewPostService(postRepo, tagService)
	commentService := services.NewCommentService(commentRepo, postRepo, authService, commentCache)
	statsService := services.NewStatsService(statsRepo)

	// Хендлеры
	authHandler := handlers.NewAuthHandler(authService, storage)
	postHandler := handlers.NewPostHandler(postService)
	commentHandler := handlers.NewCommentHandler(commentService, postService)
	tagHandler := handlers.NewTagHandler(tagService)
	uploadHandler := handlers.NewUploadHandler(storage)
	statsHandler := handlers.NewStatsHandler(statsService)

	// Маршруты
	router := mux.NewRouter()
	routes.InitRoutes(router, authHandler, postHandler, commentHandler, tagHandler, uploadHandler, statsHandler)

	return router, nil
}
