package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bloomlabs/chatforge/internal/models"
)

// ErrNotFound is returned when a chat or document row does not exist.
var ErrNotFound = errors.New("store: not found")

type StoreConfig struct {
	ConnString string
}

// Store persists chats and their ingested documents in PostgreSQL.
type Store struct {
	config StoreConfig
	pool   *pgxpool.Pool
}

func NewWithConfig(config StoreConfig) (*Store, error) {
	pool, err := pgxpool.New(context.Background(), config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	s := &Store{
		config: config,
		pool:   pool,
	}

	if err := s.initialize(); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) initialize() error {
	ctx := context.Background()

	createChats := `
		CREATE TABLE IF NOT EXISTS chats (
			chat_id TEXT PRIMARY KEY,
			chat_name TEXT NOT NULL,
			chat_type TEXT NOT NULL,
			personality TEXT NOT NULL,
			description TEXT,
			system_prompt TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`

	if _, err := s.pool.Exec(ctx, createChats); err != nil {
		return fmt.Errorf("failed to create chats table: %v", err)
	}

	createDocuments := `
		CREATE TABLE IF NOT EXISTS chat_documents (
			document_id TEXT PRIMARY KEY,
			chat_id TEXT NOT NULL,
			filename TEXT NOT NULL,
			original_filename TEXT,
			content_type TEXT,
			file_size BIGINT,
			extracted_text TEXT,
			content_summary TEXT,
			processing_status TEXT,
			uploaded_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`

	if _, err := s.pool.Exec(ctx, createDocuments); err != nil {
		return fmt.Errorf("failed to create chat_documents table: %v", err)
	}

	createIndex := `
		CREATE INDEX IF NOT EXISTS chat_documents_chat_id_idx
		ON chat_documents (chat_id, uploaded_at DESC)`

	if _, err := s.pool.Exec(ctx, createIndex); err != nil {
		return fmt.Errorf("failed to create index: %v", err)
	}

	return nil
}

// ListDocuments returns up to limit documents for the chat, newest first.
func (s *Store) ListDocuments(ctx context.Context, chatID string, limit int) ([]models.StoredDocument, error) {
	if limit <= 0 {
		limit = 3
	}

	query := `
		SELECT document_id, chat_id, filename, original_filename, content_type,
		       file_size, extracted_text, content_summary, processing_status, uploaded_at
		FROM chat_documents
		WHERE chat_id = $1
		ORDER BY uploaded_at DESC
		LIMIT $2`

	rows, err := s.pool.Query(ctx, query, chatID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %v", err)
	}
	defer rows.Close()

	var docs []models.StoredDocument
	for rows.Next() {
		var doc models.StoredDocument
		err := rows.Scan(
			&doc.ID,
			&doc.ChatID,
			&doc.Filename,
			&doc.OriginalFilename,
			&doc.ContentType,
			&doc.FileSize,
			&doc.ExtractedText,
			&doc.ContentSummary,
			&doc.ProcessingStatus,
			&doc.UploadedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %v", err)
		}
		docs = append(docs, doc)
	}

	return docs, rows.Err()
}

func (s *Store) InsertDocument(ctx context.Context, doc models.StoredDocument) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.ProcessingStatus == "" {
		doc.ProcessingStatus = "completed"
	}

	query := `
		INSERT INTO chat_documents
			(document_id, chat_id, filename, original_filename, content_type,
			 file_size, extracted_text, content_summary, processing_status, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())`

	_, err := s.pool.Exec(ctx, query,
		doc.ID,
		doc.ChatID,
		doc.Filename,
		doc.OriginalFilename,
		doc.ContentType,
		doc.FileSize,
		doc.ExtractedText,
		doc.ContentSummary,
		doc.ProcessingStatus,
	)
	if err != nil {
		return fmt.Errorf("failed to insert document: %v", err)
	}

	return nil
}

func (s *Store) DeleteDocument(ctx context.Context, chatID, documentID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM chat_documents WHERE document_id = $1 AND chat_id = $2`,
		documentID, chatID)
	if err != nil {
		return fmt.Errorf("failed to delete document: %v", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) CreateChat(ctx context.Context, chat models.Chat) error {
	query := `
		INSERT INTO chats (chat_id, chat_name, chat_type, personality, description, system_prompt)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.pool.Exec(ctx, query,
		chat.ID,
		chat.Name,
		chat.Type,
		chat.Personality,
		chat.Description,
		chat.SystemPrompt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert chat: %v", err)
	}

	return nil
}

func (s *Store) GetChat(ctx context.Context, chatID string) (models.Chat, error) {
	query := `
		SELECT chat_id, chat_name, chat_type, personality, description,
		       COALESCE(system_prompt, ''), created_at, updated_at
		FROM chats
		WHERE chat_id = $1`

	var chat models.Chat
	err := s.pool.QueryRow(ctx, query, chatID).Scan(
		&chat.ID,
		&chat.Name,
		&chat.Type,
		&chat.Personality,
		&chat.Description,
		&chat.SystemPrompt,
		&chat.CreatedAt,
		&chat.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Chat{}, ErrNotFound
	}
	if err != nil {
		return models.Chat{}, fmt.Errorf("failed to query chat: %v", err)
	}

	return chat, nil
}

// ApplySystemPrompt persists the generated prompt against the chat record.
func (s *Store) ApplySystemPrompt(ctx context.Context, chatID, prompt string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE chats SET system_prompt = $1, updated_at = now() WHERE chat_id = $2`,
		prompt, chatID)
	if err != nil {
		return fmt.Errorf("failed to apply prompt: %v", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Ping verifies database connectivity for health reporting.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}
