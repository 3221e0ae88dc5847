package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/rentyatra/rentyatra-api/models"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SendInput carries the caller supplied part of a new message
type SendInput struct {
	ReceiverID string
	Content    string
	ProductID  string
	Type       models.MessageType
}

// MessageStore persists messages and answers the inbox queries. It is the
// only component that writes message rows.
type MessageStore struct {
	db       *gorm.DB
	users    IdentityDirectory
	listings ListingDirectory
	now      func() time.Time
}

// NewMessageStore creates a message store over db. Sender, receiver and
// product of returned messages are expanded through the directories.
func NewMessageStore(db *gorm.DB, users IdentityDirectory, listings ListingDirectory) *MessageStore {
	return &MessageStore{
		db:       db,
		users:    users,
		listings: listings,
		now:      time.Now,
	}
}

// Send validates and persists a message from senderID. Every lookup happens
// before the insert, so a returned error means nothing was written.
func (s *MessageStore) Send(ctx context.Context, senderID string, in SendInput) (*models.Message, error) {
	receiverID := strings.TrimSpace(in.ReceiverID)
	if receiverID == "" {
		return nil, NewValidationError("VALIDATION_ERROR", "Receiver ID is required")
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, NewValidationError("VALIDATION_ERROR", "Message content is required")
	}

	msgType := in.Type
	if msgType == "" {
		msgType = models.MessageTypeText
	}
	if !msgType.Valid() {
		return nil, NewValidationError("VALIDATION_ERROR", "Unsupported message type")
	}

	receiver, err := s.users.FindByID(ctx, receiverID)
	if err != nil {
		if IsKind(err, KindNotFound) {
			return nil, NewNotFoundError("RECEIVER_NOT_FOUND", "Receiver not found")
		}
		return nil, err
	}

	// The sender comes from the authenticated session, a missing row only
	// leaves its display form empty
	var senderProfile *models.UserProfile
	sender, err := s.users.FindByID(ctx, senderID)
	switch {
	case err == nil:
		senderProfile = sender.Profile()
	case !IsKind(err, KindNotFound):
		return nil, err
	}

	var (
		productID *string
		listing   *models.ListingSummary
	)
	if id := strings.TrimSpace(in.ProductID); id != "" {
		if listing, err = s.listings.FindByID(ctx, id); err != nil {
			return nil, err
		}
		productID = &id
	}

	msg := &models.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    in.Content,
		Type:       msgType,
		ProductID:  productID,
	}
	if err := s.db.WithContext(ctx).Create(msg).Error; err != nil {
		return nil, NewInternalError("Failed to save message", err)
	}

	msg.Sender = senderProfile
	msg.Receiver = receiver.Profile()
	msg.Product = listing
	return msg, nil
}

// Conversation returns one page of the conversation between a and b, newest
// first. Page 1 holds the newest pageSize messages.
func (s *MessageStore) Conversation(ctx context.Context, a, b string, page, pageSize int) ([]models.Message, int64, error) {
	conversationID := models.ConversationID(a, b)
	query := s.db.WithContext(ctx).Model(&models.Message{}).Where("conversation_id = ?", conversationID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, NewInternalError("Failed to count messages", err)
	}

	var messages []models.Message
	if err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&messages).Error; err != nil {
		return nil, 0, NewInternalError("Failed to fetch messages", err)
	}

	if err := s.expand(ctx, messagePtrs(messages)...); err != nil {
		return nil, 0, err
	}
	return messages, total, nil
}

// MarkConversationRead marks every unread message of the conversation
// addressed to receiverID as read with a single UPDATE and one shared
// timestamp. It returns exactly the rows that statement changed, oldest first.
func (s *MessageStore) MarkConversationRead(ctx context.Context, conversationID, receiverID string) ([]models.Message, error) {
	var changed []models.Message
	readAt := s.now()

	if err := s.db.WithContext(ctx).Model(&changed).
		Clauses(clause.Returning{}).
		Where("conversation_id = ? AND receiver_id = ? AND is_read = ?", conversationID, receiverID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": readAt}).Error; err != nil {
		return nil, NewInternalError("Failed to mark conversation as read", err)
	}

	sort.SliceStable(changed, func(i, j int) bool {
		return changed[i].CreatedAt.Before(changed[j].CreatedAt)
	})
	for i := range changed {
		changed[i].IsRead = true
		changed[i].ReadAt = &readAt
	}
	return changed, nil
}

// MarkOneRead marks a single message as read on behalf of its receiver. The
// returned bool is false when the message was already read.
func (s *MessageStore) MarkOneRead(ctx context.Context, messageID, requesterID string) (*models.Message, bool, error) {
	msg, err := s.find(ctx, messageID)
	if err != nil {
		return nil, false, err
	}
	if msg.ReceiverID != requesterID {
		return nil, false, NewForbiddenError("FORBIDDEN", "Only the receiver can mark this message as read")
	}

	transitioned := false
	if !msg.IsRead {
		readAt := s.now()
		result := s.db.WithContext(ctx).Model(&models.Message{}).
			Where("id = ? AND is_read = ?", msg.ID, false).
			Updates(map[string]interface{}{"is_read": true, "read_at": readAt})
		if result.Error != nil {
			return nil, false, NewInternalError("Failed to mark message as read", result.Error)
		}

		if result.RowsAffected == 1 {
			transitioned = true
			msg.IsRead = true
			msg.ReadAt = &readAt
		} else if msg, err = s.find(ctx, messageID); err != nil {
			// Another request won the race, report the stored state
			return nil, false, err
		}
	}

	if err := s.expand(ctx, msg); err != nil {
		return nil, false, err
	}
	return msg, transitioned, nil
}

// UnreadCount counts unread messages addressed to userID across all conversations
func (s *MessageStore) UnreadCount(ctx context.Context, userID string) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Message{}).
		Where("receiver_id = ? AND is_read = ?", userID, false).
		Count(&count).Error; err != nil {
		return 0, NewInternalError("Failed to count unread messages", err)
	}
	return count, nil
}

type conversationRow struct {
	ConversationID string
	Unread         int64
}

// ConversationsFor summarizes every conversation userID takes part in, most
// recently active first
func (s *MessageStore) ConversationsFor(ctx context.Context, userID string) ([]models.ConversationSummary, error) {
	db := s.db.WithContext(ctx)

	var rows []conversationRow
	if err := db.Model(&models.Message{}).
		Select("conversation_id, SUM(CASE WHEN receiver_id = ? AND is_read = ? THEN 1 ELSE 0 END) AS unread", userID, false).
		Where("(sender_id = ? OR receiver_id = ?)", userID, userID).
		Group("conversation_id").
		Scan(&rows).Error; err != nil {
		return nil, NewInternalError("Failed to list conversations", err)
	}

	summaries := make([]models.ConversationSummary, 0, len(rows))
	for _, row := range rows {
		var last models.Message
		if err := db.Where("conversation_id = ?", row.ConversationID).
			Order("created_at DESC").
			First(&last).Error; err != nil {
			return nil, NewInternalError("Failed to load last message", err)
		}
		summaries = append(summaries, models.ConversationSummary{
			ConversationID: row.ConversationID,
			LastMessage:    &last,
			UnreadCount:    row.Unread,
		})
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].LastMessage.CreatedAt.After(summaries[j].LastMessage.CreatedAt)
	})

	lastMessages := lo.Map(summaries, func(cs models.ConversationSummary, _ int) *models.Message { return cs.LastMessage })
	if err := s.expand(ctx, lastMessages...); err != nil {
		return nil, err
	}
	for i := range summaries {
		last := summaries[i].LastMessage
		if last.SenderID == userID {
			summaries[i].OtherUser = last.Receiver
		} else {
			summaries[i].OtherUser = last.Sender
		}
	}

	return summaries, nil
}

// Search finds the user's messages whose content contains query, ignoring
// case. Matches are grouped per conversation and ordered newest first.
func (s *MessageStore) Search(ctx context.Context, userID, query string) ([]models.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, NewValidationError("VALIDATION_ERROR", "Search query is required")
	}

	var matches []models.Message
	if err := s.db.WithContext(ctx).
		Where("(sender_id = ? OR receiver_id = ?)", userID, userID).
		Where(containsCondition(s.db.Dialector.Name()), containsPattern(s.db.Dialector.Name(), query)).
		Order("created_at DESC").
		Find(&matches).Error; err != nil {
		return nil, NewInternalError("Failed to search messages", err)
	}

	results := make([]models.SearchResult, 0)
	index := make(map[string]int)
	for i := range matches {
		m := &matches[i]
		if pos, ok := index[m.ConversationID]; ok {
			results[pos].MatchCount++
			continue
		}
		index[m.ConversationID] = len(results)
		results = append(results, models.SearchResult{
			ConversationID: m.ConversationID,
			LastMessage:    m,
			MatchCount:     1,
		})
	}

	lastMessages := lo.Map(results, func(r models.SearchResult, _ int) *models.Message { return r.LastMessage })
	if err := s.expand(ctx, lastMessages...); err != nil {
		return nil, err
	}
	for i := range results {
		results[i].Sender = results[i].LastMessage.Sender
		results[i].Receiver = results[i].LastMessage.Receiver
	}

	return results, nil
}

func (s *MessageStore) find(ctx context.Context, messageID string) (*models.Message, error) {
	var msg models.Message
	if err := s.db.WithContext(ctx).First(&msg, "id = ?", messageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("MESSAGE_NOT_FOUND", "Message not found")
		}
		return nil, NewInternalError("Failed to load message", err)
	}
	return &msg, nil
}

// expand fills the display forms of sender, receiver and product. Each id is
// looked up once per call; missing users or products are left empty.
func (s *MessageStore) expand(ctx context.Context, messages ...*models.Message) error {
	profiles := make(map[string]*models.UserProfile)
	listings := make(map[string]*models.ListingSummary)

	profileOf := func(userID string) (*models.UserProfile, error) {
		if p, ok := profiles[userID]; ok {
			return p, nil
		}
		user, err := s.users.FindByID(ctx, userID)
		if err != nil && !IsKind(err, KindNotFound) {
			return nil, err
		}
		var p *models.UserProfile
		if user != nil {
			p = user.Profile()
		}
		profiles[userID] = p
		return p, nil
	}

	for _, m := range messages {
		var err error
		if m.Sender, err = profileOf(m.SenderID); err != nil {
			return err
		}
		if m.Receiver, err = profileOf(m.ReceiverID); err != nil {
			return err
		}

		if m.ProductID == nil {
			continue
		}
		listing, ok := listings[*m.ProductID]
		if !ok {
			listing, err = s.listings.FindByID(ctx, *m.ProductID)
			if err != nil && !IsKind(err, KindNotFound) {
				return err
			}
			listings[*m.ProductID] = listing
		}
		m.Product = listing
	}
	return nil
}

func messagePtrs(messages []models.Message) []*models.Message {
	ptrs := make([]*models.Message, len(messages))
	for i := range messages {
		ptrs[i] = &messages[i]
	}
	return ptrs
}

// containsCondition is the case-insensitive substring match for the driver.
// SQLite's LOWER only folds ASCII, so non-ASCII case differences do not match
// there.
func containsCondition(dialect string) string {
	if dialect == "postgres" {
		return "content ILIKE ? ESCAPE '\\'"
	}
	return "LOWER(content) LIKE ? ESCAPE '\\'"
}

func containsPattern(dialect, query string) string {
	if dialect != "postgres" {
		query = strings.ToLower(query)
	}
	return "%" + escapeLike(query) + "%"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
