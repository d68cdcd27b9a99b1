package routes

import (
	"net/http"

	"blogtalks/internal/handlers"
	"blogtalks/internal/middleware"

	"github.com/gorilla/mux"
)

func InitRoutes(
	router *mux.Router,
	authHandler *handlers.AuthHandler,
	postHandler *handlers.PostHandler,
	commentHandler *handlers.CommentHandler,
	tagHandler *handlers.TagHandler,
	uploadHandler *handlers.UploadHandler,
	statsHandler *handlers.StatsHandler,
) {
	router.Use(middleware.RequestID)
	router.Use(middleware.Logging)
	router.Use(middleware.Recoverer)

	api := router.PathPrefix("/api").Subrouter()

	// --- Публичные маршруты ---
	api.HandleFunc("/register", authHandler.Register).Methods("POST")
	api.HandleFunc("/login", authHandler.Login).Methods("POST")
	api.HandleFunc("/refresh", authHandler.Refresh).Methods("POST")

	api.HandleFunc("/tags", tagHandler.ListTags).Methods("GET")

	// токен необязателен: админ с токеном видит черновики и
	// неодобренные комментарии, остальные — только публичное
	public := api.PathPrefix("").Subrouter()
	public.Use(middleware.OptionalJWTAuth)
	public.HandleFunc("/posts", postHandler.ListPosts).Methods("GET")
	public.HandleFunc("/posts/{slug}", postHandler.GetPost).Methods("GET")
	public.HandleFunc("/posts/{slug}/comments", commentHandler.GetComments).Methods("GET")

	// --- Защищённые JWT ---
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.JWTAuth)
	protected.Use(middleware.AdminFastLane)

	protected.HandleFunc("/logout", authHandler.Logout).Methods("POST")

	protected.HandleFunc("/profile", authHandler.Profile).Methods("GET")
	protected.HandleFunc("/profile", authHandler.UpdateProfile).Methods("PATCH")
	protected.HandleFunc("/profile/avatar", authHandler.UploadAvatar).Methods("POST")

	protected.HandleFunc("/posts/{slug}/comments", commentHandler.SubmitComment).Methods("POST")

	// жизненный цикл постов живёт на исторических путях, но только для админа
	adminOnly := middleware.OnlyRole("admin")
	protected.Handle("/posts/create", adminOnly(http.HandlerFunc(postHandler.CreatePost))).Methods("POST")
	protected.Handle("/posts/{slug}/update", adminOnly(http.HandlerFunc(postHandler.UpdatePost))).Methods("PUT")
	protected.Handle("/posts/{slug}/delete", adminOnly(http.HandlerFunc(postHandler.DeletePost))).Methods("DELETE")

	admin := protected.PathPrefix("/admin").Subrouter()
	admin.Use(adminOnly)

	admin.HandleFunc("/comments", commentHandler.ModerationQueue).Methods("GET")
	admin.HandleFunc("/comments/{id:[0-9]+}", commentHandler.ApproveComment).Methods("PATCH")
	admin.HandleFunc("/comments/{id:[0-9]+}", commentHandler.DeleteComment).Methods("DELETE")

	admin.HandleFunc("/tags", tagHandler.CreateTag).Methods("POST")
	admin.HandleFunc("/tags/ensure", tagHandler.EnsureTags).Methods("POST")
	admin.HandleFunc("/tags/{id:[0-9]+}", tagHandler.UpdateTag).Methods("PATCH")
	admin.HandleFunc("/tags/{id:[0-9]+}", tagHandler.DeleteTag).Methods("DELETE")

	admin.HandleFunc("/uploads/image", uploadHandler.UploadImage).Methods("POST")
	admin.HandleFunc("/stats", statsHandler.GetStats).Methods("GET")

	admin.HandleFunc("/users", authHandler.GetUsers).Methods("GET")
	admin.HandleFunc("/users/{id:[0-9]+}", authHandler.UpdateUser).Methods("PATCH")
	admin.HandleFunc("/users/{id:[0-9]+}", authHandler.DeleteUser).Methods("DELETE")
}
