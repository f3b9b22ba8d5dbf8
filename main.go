package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/time/rate"
	"gopkg.in/natefinch/lumberjack.v2"

	"embystats/api"
	"embystats/config"
	"embystats/handlers"
	"embystats/services/emby"
	"embystats/services/servers"
	"embystats/services/sessions"
	"embystats/utils"
)

func main() {
	settings, err := config.Load()
	if err != nil {
		log.Fatalf("[main] failed to load configuration: %v", err)
	}

	setupLogging(settings.LogDir)
	log.Printf("[main] starting emby stats backend")
	log.Printf("[main] default emby server: %s", settings.EmbyURL)

	embySvc := emby.NewService(emby.Options{
		DefaultServer:   settings.DefaultServer(),
		CacheMaxSize:    settings.ItemCacheMaxSize,
		CacheEvictCount: settings.ItemCacheEvictCount,
	})

	registry, err := servers.NewService(settings.ServersPath())
	if err != nil {
		log.Fatalf("[main] failed to load server registry: %v", err)
	}

	sessionsSvc, err := sessions.NewService(settings.SessionsDir(), sessions.DefaultSessionDuration)
	if err != nil {
		log.Fatalf("[main] failed to initialize sessions: %v", err)
	}

	authHandler := handlers.NewAuthHandler(embySvc, sessionsSvc)
	mediaHandler := handlers.NewMediaHandler(embySvc, registry)
	serversHandler := handlers.NewServersHandler(registry, settings.DefaultServer())

	router := utils.NewRouter()
	router.Use(api.SessionAuthMiddleware(sessionsSvc, []string{
		"/api/auth/login",
		"/api/auth/logout",
		"/api/auth/check",
		"/api/servers",
	}))

	// 5 login attempts per minute per IP.
	loginLimiter := api.NewLoginLimiter(rate.Every(12*time.Second), 5)

	router.HandleFunc("/api/auth/login", loginLimiter.Wrap(authHandler.Login)).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/logout", authHandler.Logout).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/check", authHandler.Check).Methods(http.MethodGet)

	router.HandleFunc("/api/servers", serversHandler.List).Methods(http.MethodGet)
	router.HandleFunc("/api/servers", serversHandler.Add).Methods(http.MethodPost)
	router.HandleFunc("/api/servers/{id}", serversHandler.Delete).Methods(http.MethodDelete)

	router.HandleFunc("/api/poster/{id}", mediaHandler.Poster).Methods(http.MethodGet)
	router.HandleFunc("/api/backdrop/{id}", mediaHandler.Backdrop).Methods(http.MethodGet)
	router.HandleFunc("/api/now-playing", mediaHandler.NowPlaying).Methods(http.MethodGet)

	server := &http.Server{
		Addr:         settings.HTTPAddr,
		Handler:      utils.CORS(router),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("[main] listening on %s", settings.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[main] server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Printf("[main] shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("[main] shutdown error: %v", err)
	}
}

// setupLogging tees logs into a size-rotated file when LOG_DIR is set.
func setupLogging(logDir string) {
	if logDir == "" {
		return
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		log.Printf("[main] cannot create log dir %s: %v", logDir, err)
		return
	}
	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "embystats.log"),
		MaxSize:    20, // megabytes
		MaxBackups: 5,
		MaxAge:     28, // days
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stdout, rotator))
}
