package store

import "time"

type User struct {
	ID          string
	DisplayName string
	Email       string
	CreatedAt   time.Time
}

type Conversation struct {
	ID        string
	Name      string
	UserID    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type File struct {
	ID             string
	Name           string
	URL            string
	Key            string
	ConversationID string
	CreatedAt      time.Time
}
