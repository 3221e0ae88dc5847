package models

import "strings"

// conversationSeparator joins the two sorted participant ids. User ids are
// UUIDs, which never contain it.
const conversationSeparator = "_"

// ConversationID derives the order-independent key shared by every message
// between a and b. It is also the suffix of the gateway's conversation room.
func ConversationID(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + conversationSeparator + b
}

// ConversationParticipants splits a conversation id back into its two
// participants. ok is false when the id is malformed.
func ConversationParticipants(conversationID string) (a, b string, ok bool) {
	a, b, found := strings.Cut(conversationID, conversationSeparator)
	if !found || a == "" || b == "" || strings.Contains(b, conversationSeparator) {
		return "", "", false
	}
	return a, b, true
}

// HasParticipant reports whether userID is one of the conversation's two users
func HasParticipant(conversationID, userID string) bool {
	a, b, ok := ConversationParticipants(conversationID)
	return ok && (a == userID || b == userID)
}

// ConversationSummary is one row of a user's inbox
type ConversationSummary struct {
	ConversationID string       `json:"conversation_id"`
	LastMessage    *Message     `json:"last_message"`
	UnreadCount    int64        `json:"unread_count"`
	OtherUser      *UserProfile `json:"other_user,omitempty"`
}

// SearchResult groups the messages of one conversation that matched a query
type SearchResult struct {
	ConversationID string       `json:"conversation_id"`
	LastMessage    *Message     `json:"last_message"`
	MatchCount     int          `json:"match_count"`
	Sender         *UserProfile `json:"sender,omitempty"`
	Receiver       *UserProfile `json:"receiver,omitempty"`
}
