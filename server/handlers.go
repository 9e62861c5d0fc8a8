package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/bloomlabs/chatforge/internal/common"
	"github.com/bloomlabs/chatforge/internal/models"
	"github.com/bloomlabs/chatforge/internal/types"
	"github.com/bloomlabs/chatforge/pkg/extract"
	"github.com/bloomlabs/chatforge/pkg/knowledge"
	"github.com/bloomlabs/chatforge/pkg/store"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	keyAvailable := false
	if s.credentials != nil {
		if _, err := s.credentials.Credential(ctx); err == nil {
			keyAvailable = true
		}
	}

	dbAvailable := false
	if s.health != nil {
		if err := s.health.Ping(ctx); err == nil {
			dbAvailable = true
		}
	}

	status := "healthy"
	if !keyAvailable {
		status = "no_api_key"
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":             status,
		"api_key_available":  keyAvailable,
		"database_available": dbAvailable,
		"timestamp":          time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleCreateChat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatConfiguration
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.ChatName == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("chat_name required"))
		return
	}

	chat := models.Chat{
		ID:          uuid.NewString(),
		Name:        req.ChatName,
		Type:        req.ChatType,
		Personality: req.Personality,
		Description: req.Description,
	}
	if chat.Type == "" {
		chat.Type = "assistant"
	}
	if chat.Personality == "" {
		chat.Personality = "professional"
	}

	if err := s.store.CreateChat(r.Context(), chat); err != nil {
		common.Logger().Error("server: chat create failed", "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"chat_id": chat.ID,
	})
}

func (s *Server) handleGetChat(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")

	chat, err := s.store.GetChat(r.Context(), chatID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Errorf("chat %s not found", chatID))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"chat_id":       chat.ID,
		"chat_name":     chat.Name,
		"chat_type":     chat.Type,
		"personality":   chat.Personality,
		"description":   chat.Description,
		"system_prompt": chat.SystemPrompt,
		"created_at":    chat.CreatedAt,
		"updated_at":    chat.UpdatedAt,
	})
}

// handleGeneratePrompt runs the document-to-prompt pipeline and persists the
// result. Pipeline degradation is invisible here: a generic prompt is still a
// 200, never an error status.
func (s *Server) handleGeneratePrompt(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")
	logger := common.Logger()

	var config models.ChatConfiguration
	if err := decodeJSON(r, &config); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := s.generator.GeneratePrompt(r.Context(), chatID, config)
	if err != nil {
		// Only caller cancellation reaches here.
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	if err := s.store.ApplySystemPrompt(r.Context(), chatID, result.Prompt); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Errorf("chat %s not found", chatID))
			return
		}
		logger.Error("server: prompt persist failed", "chat_id", chatID, "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	logger.Info("server: prompt generated", "chat_id", chatID, "length", len(result.Prompt))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"prompt":   result.Prompt,
		"analysis": result.Analysis,
	})
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")

	var req struct {
		Message string `json:"message"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("message required"))
		return
	}

	reply, usedKnowledge, err := s.chatTurn(r, chatID, req.Message)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":        true,
		"message":        reply,
		"chat_id":        chatID,
		"used_knowledge": usedKnowledge,
	})
}

// chatTurn answers one user message, grounding the reply in the chat's
// documents when any are relevant.
func (s *Server) chatTurn(r *http.Request, chatID, message string) (string, bool, error) {
	ctx := r.Context()

	systemPrompt := "You are a helpful assistant."
	if chat, err := s.store.GetChat(ctx, chatID); err == nil && chat.SystemPrompt != "" {
		systemPrompt = chat.SystemPrompt
	}

	docs, err := s.store.ListDocuments(ctx, chatID, s.config.KnowledgeContext.MaxDocuments)
	if err != nil {
		common.Logger().Warn("server: knowledge lookup failed", "chat_id", chatID, "error", err)
		docs = nil
	}

	context := knowledge.BuildContext(docs, message, s.config.KnowledgeContext)
	usedKnowledge := context != ""

	var builder strings.Builder
	builder.WriteString(systemPrompt)
	if usedKnowledge {
		builder.WriteString("\n\nUSE THIS INFORMATION FROM THE DOCUMENTS:\n")
		builder.WriteString(context)
		builder.WriteString("\nAnswer based on the documents when relevant.")
	}
	builder.WriteString("\n\nUser: ")
	builder.WriteString(message)

	reply, err := s.llm.Complete(ctx, types.CompletionRequest{
		Prompt:    builder.String(),
		Model:     s.config.ChatModel,
		MaxTokens: s.config.ChatTokens,
		Timeout:   s.config.ChatTimeout,
	})
	if err != nil {
		return "", usedKnowledge, err
	}

	return strings.TrimSpace(reply), usedKnowledge, nil
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")

	docs, err := s.store.ListDocuments(r.Context(), chatID, 100)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	items := make([]map[string]interface{}, 0, len(docs))
	for _, doc := range docs {
		items = append(items, map[string]interface{}{
			"document_id":     doc.ID,
			"filename":        doc.Filename,
			"content_type":    doc.ContentType,
			"file_size":       doc.FileSize,
			"content_summary": doc.ContentSummary,
			"uploaded_at":     doc.UploadedAt,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"chat_id":   chatID,
		"documents": items,
	})
}

func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")
	logger := common.Logger()

	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.config.MaxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid upload: %v", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("file field required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("failed to read upload: %v", err))
		return
	}

	contentType := header.Header.Get("Content-Type")
	text, err := extract.Text(data, contentType, header.Filename)
	if err != nil {
		logger.Warn("server: text extraction failed", "filename", header.Filename, "error", err)
		text = fmt.Sprintf("Failed to extract text: %v", err)
	}

	doc := models.StoredDocument{
		ID:               uuid.NewString(),
		ChatID:           chatID,
		Filename:         header.Filename,
		OriginalFilename: header.Filename,
		ContentType:      contentType,
		FileSize:         int64(len(data)),
		ExtractedText:    text,
		ContentSummary:   extract.Summarize(text),
	}

	if err := s.store.InsertDocument(r.Context(), doc); err != nil {
		logger.Error("server: document insert failed", "chat_id", chatID, "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	preview := text
	if len(preview) > 500 {
		preview = preview[:500] + "..."
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success":     true,
		"document_id": doc.ID,
		"preview":     preview,
	})
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")
	documentID := chi.URLParam(r, "documentID")

	err := s.store.DeleteDocument(r.Context(), chatID, documentID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Errorf("document %s not found", documentID))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func decodeJSON(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %v", err)
	}
	return nil
}
