package domain

import "time"

// Message is one entry of a lobby's message log. Messages are immutable once
// appended and ordered by append order.
type Message struct {
	ID         string    `json:"message_id"`
	AuthorID   string    `json:"id"`
	AuthorName string    `json:"name"`
	Content    string    `json:"content"`
	SentAt     time.Time `json:"sent_at"`
}
