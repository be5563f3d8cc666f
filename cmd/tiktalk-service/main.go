package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/tiktalkapp/tiktalk-service/internal/config"
	"github.com/tiktalkapp/tiktalk-service/internal/feed"
	"github.com/tiktalkapp/tiktalk-service/internal/http/handlers/auth"
	"github.com/tiktalkapp/tiktalk-service/internal/http/handlers/comments"
	"github.com/tiktalkapp/tiktalk-service/internal/http/handlers/posts"
	"github.com/tiktalkapp/tiktalk-service/internal/http/handlers/profile"
	"github.com/tiktalkapp/tiktalk-service/internal/http/middleware"
	"github.com/tiktalkapp/tiktalk-service/internal/media"
	"github.com/tiktalkapp/tiktalk-service/internal/metrics"
	"github.com/tiktalkapp/tiktalk-service/internal/ratelimit"
	"github.com/tiktalkapp/tiktalk-service/internal/render"
	"github.com/tiktalkapp/tiktalk-service/internal/seed"
	"github.com/tiktalkapp/tiktalk-service/internal/session"
	"github.com/tiktalkapp/tiktalk-service/internal/storage"
	"github.com/tiktalkapp/tiktalk-service/internal/storage/memory"
	"github.com/tiktalkapp/tiktalk-service/internal/storage/postgres"
	"github.com/tiktalkapp/tiktalk-service/internal/types"
)

func main() {
	// load config
	cfg := config.MustLoad()

	// database setup
	var store storage.Storage
	if cfg.Storage == "memory" {
		store = memory.NewMemory()
		slog.Info("Using in-memory storage")
	} else {
		pg, err := postgres.NewPostgres(cfg)
		if err != nil {
			log.Fatal("Failed to initialize database:", err)
		}
		store = pg
		slog.Info("Connected to Postgres database")
	}

	// redis setup (sessions + rate limiting)
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}

	sessionTTL := time.Duration(cfg.Session.TTLMinutes) * time.Minute
	sessions := session.NewRedisStore(redisClient, sessionTTL)
	limiter := ratelimit.NewSlidingWindow(redisClient, cfg.RateLimit.Limit, time.Duration(cfg.RateLimit.Window)*time.Second)

	// file storage
	files, err := media.NewService(cfg)
	if err != nil {
		log.Fatal("Failed to initialize media service:", err)
	}

	// partial renderer for comment/reply fragments
	renderer, err := render.New()
	if err != nil {
		log.Fatal("Failed to initialize renderer:", err)
	}

	svc := feed.NewService(store)

	if cfg.Seed {
		if err := seed.Run(context.Background(), svc, store); err != nil {
			log.Fatal("Failed to seed store:", err)
		}
	}

	collector := metrics.NewCollector()

	requireAuth := middleware.Auth(sessions, cfg.Session.CookieName)
	optionalAuth := middleware.OptionalAuth(sessions, cfg.Session.CookieName)
	protect := func(action string, h http.Handler) http.Handler {
		return requireAuth(middleware.RateLimit(limiter, action)(h))
	}

	// setup router
	router := http.NewServeMux()

	router.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	router.Handle("GET /metrics", collector.Handler())

	router.HandleFunc("POST /register", auth.Register(svc, sessions, cfg.Session.CookieName, sessionTTL))
	router.HandleFunc("POST /login", auth.Login(svc, sessions, cfg.Session.CookieName, sessionTTL))
	router.HandleFunc("POST /logout", auth.Logout(sessions, cfg.Session.CookieName))

	router.Handle("GET /feed", optionalAuth(posts.Feed(svc)))
	router.Handle("GET /search", optionalAuth(posts.Search(svc)))
	router.Handle("GET /tags/{tag}", optionalAuth(posts.ByTag(svc)))
	router.Handle("GET /posts/{id}", optionalAuth(posts.Get(svc)))

	router.Handle("POST /posts", protect("create_post", posts.Create(svc, files)))
	router.Handle("PATCH /posts/{id}", protect("edit_post", posts.Edit(svc)))
	router.Handle("DELETE /posts/{id}", requireAuth(posts.Delete(svc)))
	router.Handle("POST /posts/{id}/like", protect("react", posts.React(svc, types.PolarityLike)))
	router.Handle("POST /posts/{id}/dislike", protect("react", posts.React(svc, types.PolarityDislike)))
	router.Handle("POST /posts/{id}/save", protect("shelf", posts.Save(svc)))
	router.Handle("POST /posts/{id}/hide", protect("shelf", posts.Hide(svc)))

	router.Handle("POST /posts/{id}/comments", protect("comment", comments.Add(svc, renderer)))
	router.Handle("PUT /posts/{id}/comments/{commentID}", protect("comment", comments.Edit(svc)))
	router.Handle("DELETE /posts/{id}/comments/{commentID}", requireAuth(comments.Delete(svc)))
	router.Handle("POST /posts/{id}/comments/{commentID}/like", protect("react", comments.React(svc, types.PolarityLike)))
	router.Handle("POST /posts/{id}/comments/{commentID}/dislike", protect("react", comments.React(svc, types.PolarityDislike)))

	router.Handle("POST /posts/{id}/comments/{commentID}/replies", protect("comment", comments.AddReply(svc, renderer)))
	router.Handle("PUT /posts/{id}/comments/{commentID}/replies/{replyID}", protect("comment", comments.EditReply(svc)))
	router.Handle("DELETE /posts/{id}/comments/{commentID}/replies/{replyID}", requireAuth(comments.DeleteReply(svc)))
	router.Handle("POST /posts/{id}/comments/{commentID}/replies/{replyID}/like", protect("react", comments.ReactReply(svc, types.PolarityLike)))
	router.Handle("POST /posts/{id}/comments/{commentID}/replies/{replyID}/dislike", protect("react", comments.ReactReply(svc, types.PolarityDislike)))

	router.Handle("GET /profile", requireAuth(profile.Me(svc)))
	router.Handle("GET /profile/posts", requireAuth(profile.Posts(svc)))
	router.Handle("GET /profile/likes", requireAuth(profile.Shelf(svc, feed.ShelfLikes)))
	router.Handle("GET /profile/dislikes", requireAuth(profile.Shelf(svc, feed.ShelfDislikes)))
	router.Handle("GET /profile/saved", requireAuth(profile.Shelf(svc, feed.ShelfSaved)))
	router.Handle("GET /profile/hidden", requireAuth(profile.Shelf(svc, feed.ShelfHidden)))
	router.Handle("POST /profile/picture", protect("upload", profile.UpdatePicture(svc, files)))
	router.Handle("POST /settings", requireAuth(profile.Settings(svc)))

	server := http.Server{
		Addr:    cfg.HTTPServer.Address,
		Handler: collector.Middleware(router),
	}

	log.Println("server started on", cfg.HTTPServer.Address)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %s", err)
		}
	}()

	<-done

	slog.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
		return
	}

	slog.Info("Server stopped")
}
