package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConversationIDIsOrderIndependent(t *testing.T) {
	pairs := [][2]string{
		{"a", "b"},
		{"7c9e6679-7425-40de-944b-e07fc1f90ae7", "16fd2706-8baf-433b-82eb-8c7fada847da"},
		{"same", "same"},
		{"B", "a"},
	}

	for _, p := range pairs {
		assert.Equal(t, ConversationID(p[0], p[1]), ConversationID(p[1], p[0]))
	}
	assert.Equal(t, "a_b", ConversationID("b", "a"))
}

func TestConversationParticipants(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		wantA  string
		wantB  string
		wantOK bool
	}{
		{"valid", "alice_bob", "alice", "bob", true},
		{"missing separator", "alicebob", "", "", false},
		{"empty side", "alice_", "", "", false},
		{"too many parts", "a_b_c", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b, ok := ConversationParticipants(tt.id)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantA, a)
			assert.Equal(t, tt.wantB, b)
		})
	}

	assert.True(t, HasParticipant(ConversationID("alice", "bob"), "bob"))
	assert.False(t, HasParticipant(ConversationID("alice", "bob"), "carol"))
}

func TestMessageBeforeCreateDerivesConversation(t *testing.T) {
	msg := Message{
		SenderID:       "zed",
		ReceiverID:     "amy",
		ConversationID: "forged",
		Content:        "hi",
	}

	assert.NoError(t, msg.BeforeCreate(nil))
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, "amy_zed", msg.ConversationID)
	assert.Equal(t, MessageTypeText, msg.Type)
}

func TestMessageTypeValid(t *testing.T) {
	assert.True(t, MessageTypeText.Valid())
	assert.True(t, MessageTypeImage.Valid())
	assert.True(t, MessageTypeFile.Valid())
	assert.False(t, MessageType("video").Valid())
}

func TestMessageCounterpartOf(t *testing.T) {
	msg := Message{SenderID: "a", ReceiverID: "b"}
	assert.Equal(t, "b", msg.CounterpartOf("a"))
	assert.Equal(t, "a", msg.CounterpartOf("b"))
}
