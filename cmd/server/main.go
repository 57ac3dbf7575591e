package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chit-chat/internal/config"
	"chit-chat/internal/engine"
	"chit-chat/internal/handlers"
	"chit-chat/internal/middleware"
	"chit-chat/internal/models"
	"chit-chat/internal/session"
	"chit-chat/internal/store"
	"chit-chat/internal/utils"
	"chit-chat/internal/websocket"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Built-in admin account, created on first start if absent.
const (
	adminEmail    = "admin@gmail.com"
	adminName     = "Admin"
	adminPassword = "admin123"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	middleware.SetSecret(cfg.JWTSecret)
	metrics := utils.NewMetricsCollector()

	// Local store always opens; the server can run on it alone.
	local, err := store.NewLocalStore(cfg.LocalStore.Path)
	if err != nil {
		log.Fatalf("Failed to open local store at %s: %v", cfg.LocalStore.Path, err)
	}

	// The remote store is optional. A failed connection downgrades the
	// server to local-only instead of refusing to start.
	var remote store.Adapter
	if cfg.Database.URI != "" {
		pg, err := store.NewPostgresStore(cfg.Database.URI)
		if err != nil {
			log.Printf("Warning: PostgreSQL unavailable, running local-only: %v", err)
		} else {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if err := pg.InitializeTables(ctx); err != nil {
				cancel()
				log.Fatalf("Failed to initialize PostgreSQL tables: %v", err)
			}
			cancel()
			remote = pg
			log.Println("Connected to PostgreSQL")
		}
	} else {
		log.Println("No DATABASE_URL configured, running local-only")
	}

	fallback := store.NewFallback(remote, local, metrics)

	if err := seedAdmin(fallback); err != nil {
		log.Fatalf("Failed to seed admin account: %v", err)
	}

	sessions := session.NewManager(local)

	system := actor.NewActorSystem()
	eng := engine.NewEngine(system, fallback, metrics)

	hub := websocket.NewHub()
	go hub.Run()

	server := handlers.NewServer(system, system.Root, eng, fallback, hub, sessions, metrics, cfg)

	corsConfig := middleware.DefaultCORSConfig(cfg.AllowedOrigins)

	mux := http.NewServeMux()
	route := func(path string, handler http.HandlerFunc) {
		mux.HandleFunc(path, middleware.ApplyCORS(middleware.ApplyJWTMiddleware(handler, path), corsConfig))
	}

	route("/health", server.HandleHealth())
	route("/user/register", server.HandleUserRegistration())
	route("/user/login", server.HandleUserLogin())
	route("/user/logout", server.HandleUserLogout())
	route("/user/session", server.HandleSessionRestore())
	route("/user/profile", server.HandleUserProfile())
	route("/users", server.HandleGetAllUsers())
	route("/messages", server.HandleMessages())
	route("/messages/reaction", server.HandleReaction())
	route("/messages/seen", server.HandleSeen())
	route("/ws", server.HandleWebSocket())

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		log.Printf("Starting server on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}
	if err := fallback.Close(shutdownCtx); err != nil {
		log.Printf("Store close error: %v", err)
	}
	log.Println("Server stopped")
}

// seedAdmin ensures the built-in admin account exists.
func seedAdmin(adapter store.Adapter) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if existing, _ := adapter.GetUserByEmail(ctx, adminEmail); existing != nil {
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(adminPassword), 14)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %v", err)
	}

	admin := &models.User{
		ID:             uuid.New(),
		Name:           adminName,
		Email:          adminEmail,
		HashedPassword: string(hashed),
		IsAdmin:        true,
		CreatedAt:      time.Now(),
		LastSeen:       time.Now(),
	}

	if err := adapter.SaveUser(ctx, admin); err != nil {
		if utils.IsErrorCode(err, utils.ErrUserAlreadyExists) {
			return nil
		}
		return fmt.Errorf("failed to save admin user: %v", err)
	}

	log.Printf("Seeded admin account %s", adminEmail)
	return nil
}
