package util

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

func NewID(prefix string) string {
	bytes := make([]byte, 16)
	_, _ = rand.Read(bytes)
	if prefix == "" {
		return hex.EncodeToString(bytes)
	}
	return prefix + "_" + hex.EncodeToString(bytes)
}

// NewConversationID mints a conversation identifier. Conversations are
// identified by UUIDs because clients mint them before the row exists
// upstream and the create is an upsert keyed by this value.
func NewConversationID() string {
	return uuid.NewString()
}
