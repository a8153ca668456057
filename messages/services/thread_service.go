package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"visa-portal-backend/config"
	"visa-portal-backend/db/models"
	"visa-portal-backend/workflow"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const opSendMessage = "send-message"

// ErrTooManyMessages is returned when a sender exceeds the per-sender send
// rate. Surfaced to the actor as a retry-later notification.
var ErrTooManyMessages = errors.New("sending messages too quickly, try again shortly")

// ConversationStatus mirrors the inbox view split: a conversation is
// closed once the linked application reached a decision.
type ConversationStatus string

const (
	ActiveConversation ConversationStatus = "active"
	ClosedConversation ConversationStatus = "closed"
)

// Conversation is one row of the officer inbox: all messages of one case
// folded down to a summary.
type Conversation struct {
	ApplicationID     uuid.UUID          `json:"application_id"`
	ApplicationNumber string             `json:"application_number"`
	LastMessage       string             `json:"last_message"`
	LastActivity      time.Time          `json:"last_activity"`
	Unread            bool               `json:"unread"`
	Status            ConversationStatus `json:"status"`
}

// ThreadStore is the slice of the message repository the thread workflow
// dispatches to.
type ThreadStore interface {
	GetMessageByID(id uuid.UUID) (*models.Message, error)
	GetMessagesByApplicationID(applicationID uuid.UUID, pageSize, offset int) ([]models.Message, error)
	GetMessagesForOfficer(officerID uuid.UUID) ([]models.Message, error)
	CreateMessage(message *models.Message) (*models.Message, error)
	MarkMessageRead(id uuid.UUID) (*models.Message, error)
}

// MessageBroadcaster pushes a new message to connected clients.
type MessageBroadcaster interface {
	BroadcastNewMessage(applicationID uuid.UUID, message *models.Message)
}

// ThreadService handles the officer-applicant message thread: ordering,
// inbox grouping, sending and read receipts.
type ThreadService struct {
	store       ThreadStore
	broadcaster MessageBroadcaster
	guard       *workflow.InFlightGuard

	mu       sync.Mutex
	limiters map[uuid.UUID]*rate.Limiter
}

func NewThreadService(store ThreadStore, broadcaster MessageBroadcaster, guard *workflow.InFlightGuard) *ThreadService {
	return &ThreadService{
		store:       store,
		broadcaster: broadcaster,
		guard:       guard,
		limiters:    make(map[uuid.UUID]*rate.Limiter),
	}
}

// Thread returns one page of a case's messages in display order.
func (s *ThreadService) Thread(applicationID uuid.UUID, pageSize, offset int) ([]models.Message, error) {
	messages, err := s.store.GetMessagesByApplicationID(applicationID, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to load thread: %w", err)
	}
	SortThread(messages)
	return messages, nil
}

// SortThread orders messages ascending by creation time. Ties are broken
// by message id so the order is deterministic regardless of input order.
func SortThread(messages []models.Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		if messages[i].CreatedAt.Equal(messages[j].CreatedAt) {
			return messages[i].ID.String() < messages[j].ID.String()
		}
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
}

// Inbox folds every message visible to the officer into per-case
// conversations, unread conversations first, then by latest activity.
func (s *ThreadService) Inbox(officer *models.User) ([]Conversation, error) {
	messages, err := s.store.GetMessagesForOfficer(officer.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load inbox: %w", err)
	}
	return GroupConversations(messages), nil
}

// GroupConversations folds a message list into a conversation summary per
// application. For each case: the last message is the one with the
// maximum createdAt (id as tie-break), unread is true if any message in
// the group is unread, and the conversation is closed once the linked
// application reached a decision. The result is ordered unread-first,
// then descending by latest activity.
func GroupConversations(messages []models.Message) []Conversation {
	byApplication := make(map[uuid.UUID]*Conversation)
	lastMessageID := make(map[uuid.UUID]uuid.UUID)
	for i := range messages {
		message := &messages[i]
		conversation, ok := byApplication[message.ApplicationID]
		if !ok {
			status := ActiveConversation
			if message.Application.Status.IsTerminal() {
				status = ClosedConversation
			}
			byApplication[message.ApplicationID] = &Conversation{
				ApplicationID:     message.ApplicationID,
				ApplicationNumber: message.Application.ApplicationNumber,
				LastMessage:       message.Content,
				LastActivity:      message.CreatedAt,
				Unread:            !message.IsRead,
				Status:            status,
			}
			lastMessageID[message.ApplicationID] = message.ID
			continue
		}

		if message.CreatedAt.After(conversation.LastActivity) ||
			(message.CreatedAt.Equal(conversation.LastActivity) &&
				message.ID.String() > lastMessageID[message.ApplicationID].String()) {
			conversation.LastMessage = message.Content
			conversation.LastActivity = message.CreatedAt
			lastMessageID[message.ApplicationID] = message.ID
		}
		if !message.IsRead {
			conversation.Unread = true
		}
	}

	conversations := make([]Conversation, 0, len(byApplication))
	for _, conversation := range byApplication {
		conversations = append(conversations, *conversation)
	}

	sort.SliceStable(conversations, func(i, j int) bool {
		if conversations[i].Unread != conversations[j].Unread {
			return conversations[i].Unread
		}
		return conversations[i].LastActivity.After(conversations[j].LastActivity)
	})

	return conversations
}

// SendMessage appends to the case thread. Content must be non-empty after
// trimming; the empty case never reaches the repository. New messages are
// unread from the recipient's perspective.
func (s *ThreadService) SendMessage(applicationID, recipientID uuid.UUID, content string, sender *models.User) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, workflow.ErrEmptyMessage
	}

	if !s.limiter(sender.ID).Allow() {
		return nil, ErrTooManyMessages
	}

	if err := s.guard.Begin(applicationID, opSendMessage); err != nil {
		return nil, err
	}
	defer s.guard.End(applicationID, opSendMessage)

	message := &models.Message{
		ApplicationID: applicationID,
		SenderID:      sender.ID,
		RecipientID:   recipientID,
		Content:       content,
		IsRead:        false,
	}

	created, err := s.store.CreateMessage(message)
	if err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	if created == nil {
		created = message
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastNewMessage(applicationID, created)
	}

	config.Logger.Info("Message sent",
		zap.String("applicationID", applicationID.String()),
		zap.String("senderID", sender.ID.String()))

	return created, nil
}

// MarkRead flips a message to read. Repeat calls are no-ops; the flag
// never goes back to false and the first readAt stamp stands.
func (s *ThreadService) MarkRead(messageID uuid.UUID) (*models.Message, error) {
	message, err := s.store.GetMessageByID(messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to mark message read: %w", err)
	}
	if message.IsRead {
		return message, nil
	}

	updated, err := s.store.MarkMessageRead(messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to mark message read: %w", err)
	}
	if updated == nil {
		message.MarkRead()
		return message, nil
	}
	return updated, nil
}

// limiter returns the per-sender rate limiter, creating it on first use.
// A sender may burst five messages, then one every two seconds.
func (s *ThreadService) limiter(senderID uuid.UUID) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	limiter, ok := s.limiters[senderID]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(2*time.Second), 5)
		s.limiters[senderID] = limiter
	}
	return limiter
}
