package main

import (
	"net/http"

	"wellmind/internal/auth"
	"wellmind/internal/config"
	"wellmind/internal/handlers"
	"wellmind/internal/keystore"
	"wellmind/internal/logger"
	"wellmind/internal/ratelimit"
	"wellmind/internal/service/chat"
	"wellmind/internal/service/llm"
	"wellmind/internal/session"
	"wellmind/internal/users"
)

func enableCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	}
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to load configuration")
	}

	// User repository: in-memory by default, Postgres when configured
	var repo users.Repository
	if cfg.Database.Enabled {
		pg, err := users.NewPostgresRepository(cfg.Database)
		if err != nil {
			logger.Log.WithError(err).Fatal("Failed to initialize database")
		}
		defer pg.Close()
		repo = pg
	} else {
		repo = users.NewMemoryRepository()
	}

	directory := users.NewDirectory(repo)
	if err := users.SeedDemoUser(directory); err != nil {
		logger.Log.WithError(err).Fatal("Failed to seed demo user")
	}

	// Credential store: file-backed when a path is configured
	var store keystore.Store
	if cfg.Keystore.Path != "" {
		store = keystore.NewFileStore(cfg.Keystore.Path)
	} else {
		store = keystore.NewMemoryStore()
	}

	sessions := session.NewManager(directory, store)
	state := sessions.Restore()
	logger.Log.WithField("phase", state.Phase.String()).Info("Resolved initial session state")

	limiter := ratelimit.NewLimiter(cfg.RateLimit.MaxCalls, cfg.RateLimit.Window)
	gateway := llm.NewClient(&cfg.LLM, limiter)
	chatService := chat.NewService(gateway, limiter)

	authHandlers := handlers.NewAuthHandlers(sessions, &cfg.Auth)
	chatHandlers := handlers.NewChatHandlers(chatService)
	protected := auth.Middleware(cfg.Auth.JWTSecret)

	mux := http.NewServeMux()

	corsHandler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.WriteHeader(http.StatusOK)
	}

	// Public routes
	mux.HandleFunc("POST /api/register", enableCORS(authHandlers.Register))
	mux.HandleFunc("OPTIONS /api/register", corsHandler)
	mux.HandleFunc("POST /api/login", enableCORS(authHandlers.Login))
	mux.HandleFunc("OPTIONS /api/login", corsHandler)
	mux.HandleFunc("GET /api/health", enableCORS(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}))
	mux.HandleFunc("OPTIONS /api/health", corsHandler)

	// Protected routes
	mux.HandleFunc("POST /api/logout", enableCORS(protected(authHandlers.Logout)))
	mux.HandleFunc("OPTIONS /api/logout", corsHandler)
	mux.HandleFunc("POST /api/chat", enableCORS(protected(chatHandlers.Chat)))
	mux.HandleFunc("OPTIONS /api/chat", corsHandler)
	mux.HandleFunc("GET /api/chat/limit", enableCORS(protected(chatHandlers.RateLimit)))
	mux.HandleFunc("OPTIONS /api/chat/limit", corsHandler)
	mux.HandleFunc("GET /api/conversations/{id}/messages", enableCORS(protected(chatHandlers.Messages)))
	mux.HandleFunc("OPTIONS /api/conversations/{id}/messages", corsHandler)

	logger.Log.WithField("port", cfg.Server.Port).Info("Server starting")

	if err := http.ListenAndServe(":"+cfg.Server.Port, mux); err != nil {
		logger.Log.WithError(err).Fatal("Server failed to start")
	}
}
