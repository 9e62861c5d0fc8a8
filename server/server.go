package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bloomlabs/chatforge/internal/common"
	"github.com/bloomlabs/chatforge/internal/types"
	"github.com/bloomlabs/chatforge/pkg/knowledge"
)

// Pinger reports storage connectivity for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ChatDocumentStore is everything the HTTP layer needs from storage.
type ChatDocumentStore interface {
	types.DocumentStore
	types.ChatStore
}

type Config struct {
	Port             string
	ChatModel        string
	ChatTokens       int
	ChatTimeout      time.Duration
	MaxUploadBytes   int64
	KnowledgeContext knowledge.ContextConfig
}

// Server is the HTTP orchestrator: it exposes chat/document CRUD, runs the
// prompt pipeline, and serves live chat turns grounded in stored documents.
type Server struct {
	config      Config
	store       ChatDocumentStore
	generator   types.PromptGenerator
	llm         types.Completer
	credentials types.CredentialProvider
	health      Pinger
}

func NewWithConfig(config Config, store ChatDocumentStore, generator types.PromptGenerator, llm types.Completer, credentials types.CredentialProvider, health Pinger) *Server {
	if config.Port == "" {
		config.Port = "8080"
	}
	if config.ChatTokens == 0 {
		config.ChatTokens = 500
	}
	if config.ChatTimeout == 0 {
		config.ChatTimeout = 30 * time.Second
	}
	if config.MaxUploadBytes == 0 {
		config.MaxUploadBytes = 10 << 20
	}

	return &Server{
		config:      config,
		store:       store,
		generator:   generator,
		llm:         llm,
		credentials: credentials,
		health:      health,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/chats", s.handleCreateChat)
		r.Route("/chats/{chatID}", func(r chi.Router) {
			r.Get("/", s.handleGetChat)
			r.Post("/generate-prompt", s.handleGeneratePrompt)
			r.Post("/messages", s.handleSendMessage)
			r.Get("/documents", s.handleListDocuments)
			r.Post("/documents", s.handleUploadDocument)
			r.Delete("/documents/{documentID}", s.handleDeleteDocument)
		})
	})

	r.Get("/ws/{chatID}", s.handleWebSocket)

	return r
}

// Start blocks serving HTTP until the listener fails.
func (s *Server) Start() error {
	logger := common.Logger()
	logger.Info("server: listening", "port", s.config.Port)

	srv := &http.Server{
		Addr:              ":" + s.config.Port,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		common.Logger().Warn("server: response encode failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   err.Error(),
	})
}
