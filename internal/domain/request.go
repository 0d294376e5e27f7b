package domain

import "time"

// Location is a latitude/longitude hint supplied with a turn.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Media is an attachment supplied with a turn. Data is base64 encoded.
type Media struct {
	Type     string         `json:"type"`
	Data     string         `json:"data"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ChatRequest is the inbound turn request.
type ChatRequest struct {
	Message        string    `json:"message"`
	ConversationID string    `json:"conversation_id,omitempty"`
	UserID         string    `json:"user_id,omitempty"`
	Location       *Location `json:"location,omitempty"`
	Media          *Media    `json:"media,omitempty"`
}

// OrderItem is one line of an order.
type OrderItem struct {
	ID       string  `json:"id,omitempty"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// Order is a placed order.
type Order struct {
	OrderID    string      `json:"order_id"`
	Items      []OrderItem `json:"foods"`
	TotalPrice float64     `json:"total_price"`
	CreatedAt  time.Time   `json:"timestamp"`
}

// Refund is a persisted refund record.
type Refund struct {
	RefundID      string    `json:"refund_id"`
	OrderID       string    `json:"order_id"`
	Status        string    `json:"status"`
	Amount        float64   `json:"amount"`
	Reason        string    `json:"reason"`
	EstimatedDays int       `json:"estimated_days"`
	CreatedAt     time.Time `json:"timestamp"`
}

// ConversationMessage is one persisted message of a conversation, used by the
// history endpoints.
type ConversationMessage struct {
	Type      string    `json:"type"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"timestamp"`
}

// ConversationSummary is the paged listing shape of a conversation.
type ConversationSummary struct {
	ConversationID string                `json:"session_id"`
	UserID         string                `json:"user_id,omitempty"`
	Summary        string                `json:"summary"`
	MessageCount   int                   `json:"message_count"`
	Messages       []ConversationMessage `json:"messages,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}
