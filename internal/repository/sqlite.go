// Package store persists orders, refunds, and conversation history.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/feastline/concierge/internal/domain"
	_ "github.com/mattn/go-sqlite3"
)

// historyLimit caps how many messages a conversation read returns.
const historyLimit = 20

// SQLiteStore implements persistence using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across goroutines.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS orders (
			order_id TEXT PRIMARY KEY,
			items TEXT NOT NULL,
			total_price REAL NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS refunds (
			refund_id TEXT PRIMARY KEY,
			order_id TEXT NOT NULL,
			status TEXT NOT NULL,
			amount REAL NOT NULL,
			reason TEXT NOT NULL,
			estimated_days INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (order_id) REFERENCES orders(order_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_refunds_order ON refunds(order_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS conversations (
			conversation_id TEXT PRIMARY KEY,
			user_id TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS conversation_messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			conversation_id TEXT NOT NULL,
			type TEXT NOT NULL,
			text TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (conversation_id) REFERENCES conversations(conversation_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conversation ON conversation_messages(conversation_id, id)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateOrder persists a new order.
func (s *SQLiteStore) CreateOrder(ctx context.Context, order *domain.Order) error {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to encode order items: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO orders (order_id, items, total_price, created_at) VALUES (?, ?, ?, ?)`,
		order.OrderID, string(items), order.TotalPrice, order.CreatedAt)
	return err
}

// GetOrder retrieves an order by ID. Returns nil when the order does not
// exist.
func (s *SQLiteStore) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	var order domain.Order
	var items string
	err := s.db.QueryRowContext(ctx,
		`SELECT order_id, items, total_price, created_at FROM orders WHERE order_id = ?`,
		orderID).Scan(&order.OrderID, &items, &order.TotalPrice, &order.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(items), &order.Items); err != nil {
		return nil, fmt.Errorf("failed to decode order items: %w", err)
	}
	return &order, nil
}

// CreateRefund persists a refund record.
func (s *SQLiteStore) CreateRefund(ctx context.Context, refund *domain.Refund) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO refunds (refund_id, order_id, status, amount, reason, estimated_days, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		refund.RefundID, refund.OrderID, refund.Status, refund.Amount, refund.Reason, refund.EstimatedDays, refund.CreatedAt)
	return err
}

// GetRefundByOrder retrieves the latest refund for an order, or nil when no
// refund exists.
func (s *SQLiteStore) GetRefundByOrder(ctx context.Context, orderID string) (*domain.Refund, error) {
	var refund domain.Refund
	err := s.db.QueryRowContext(ctx,
		`SELECT refund_id, order_id, status, amount, reason, estimated_days, created_at
		 FROM refunds WHERE order_id = ? ORDER BY created_at DESC, refund_id DESC LIMIT 1`,
		orderID).Scan(&refund.RefundID, &refund.OrderID, &refund.Status, &refund.Amount,
		&refund.Reason, &refund.EstimatedDays, &refund.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &refund, nil
}

// SaveMessage appends a message to a conversation, creating the conversation
// row on first use.
func (s *SQLiteStore) SaveMessage(ctx context.Context, conversationID, userID, msgType, text string) error {
	now := time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (conversation_id, user_id, created_at, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(conversation_id) DO UPDATE SET updated_at = excluded.updated_at`,
		conversationID, userID, now, now)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO conversation_messages (conversation_id, type, text, created_at) VALUES (?, ?, ?, ?)`,
		conversationID, msgType, text, now)
	return err
}

// GetConversation retrieves a conversation with its most recent messages,
// oldest first. Returns nil when the conversation does not exist.
func (s *SQLiteStore) GetConversation(ctx context.Context, conversationID string) (*domain.ConversationSummary, error) {
	var conv domain.ConversationSummary
	var userID sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT conversation_id, user_id, created_at, updated_at FROM conversations WHERE conversation_id = ?`,
		conversationID).Scan(&conv.ConversationID, &userID, &conv.CreatedAt, &conv.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if userID.Valid {
		conv.UserID = userID.String
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT type, text, created_at FROM (
			SELECT id, type, text, created_at FROM conversation_messages
			WHERE conversation_id = ? ORDER BY id DESC LIMIT ?
		 ) ORDER BY id ASC`,
		conversationID, historyLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var msg domain.ConversationMessage
		if err := rows.Scan(&msg.Type, &msg.Text, &msg.CreatedAt); err != nil {
			return nil, err
		}
		conv.Messages = append(conv.Messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM conversation_messages WHERE conversation_id = ?`,
		conversationID).Scan(&conv.MessageCount); err != nil {
		return nil, err
	}
	if len(conv.Messages) > 0 {
		conv.Summary = conv.Messages[0].Text
	}
	return &conv, nil
}

// ListConversations lists conversation summaries for a user, most recently
// updated first. An empty userID lists all conversations.
func (s *SQLiteStore) ListConversations(ctx context.Context, userID string) ([]domain.ConversationSummary, error) {
	query := `SELECT c.conversation_id, c.user_id, c.created_at, c.updated_at,
			(SELECT COUNT(*) FROM conversation_messages m WHERE m.conversation_id = c.conversation_id),
			COALESCE((SELECT text FROM conversation_messages m
				WHERE m.conversation_id = c.conversation_id AND m.type = 'user'
				ORDER BY m.id ASC LIMIT 1), '')
		FROM conversations c`
	args := []interface{}{}
	if userID != "" {
		query += ` WHERE c.user_id = ?`
		args = append(args, userID)
	}
	query += ` ORDER BY c.updated_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conversations []domain.ConversationSummary
	for rows.Next() {
		var conv domain.ConversationSummary
		var uid sql.NullString
		if err := rows.Scan(&conv.ConversationID, &uid, &conv.CreatedAt, &conv.UpdatedAt,
			&conv.MessageCount, &conv.Summary); err != nil {
			return nil, err
		}
		if uid.Valid {
			conv.UserID = uid.String
		}
		conversations = append(conversations, conv)
	}
	return conversations, rows.Err()
}

// DeleteConversation removes a conversation and its messages.
func (s *SQLiteStore) DeleteConversation(ctx context.Context, conversationID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM conversation_messages WHERE conversation_id = ?`, conversationID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM conversations WHERE conversation_id = ?`, conversationID)
	return err
}
