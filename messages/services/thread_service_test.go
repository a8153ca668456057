package services

import (
	"errors"
	"testing"
	"time"

	"visa-portal-backend/db/models"
	"visa-portal-backend/workflow"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeThreadStore struct {
	messages map[uuid.UUID]*models.Message

	createCalls   int
	markReadCalls int
	createErr     error
}

func newFakeThreadStore() *fakeThreadStore {
	return &fakeThreadStore{messages: make(map[uuid.UUID]*models.Message)}
}

func (f *fakeThreadStore) GetMessageByID(id uuid.UUID) (*models.Message, error) {
	message, ok := f.messages[id]
	if !ok {
		return nil, errors.New("message not found")
	}
	copied := *message
	return &copied, nil
}

func (f *fakeThreadStore) GetMessagesByApplicationID(applicationID uuid.UUID, pageSize, offset int) ([]models.Message, error) {
	var out []models.Message
	for _, message := range f.messages {
		if message.ApplicationID == applicationID {
			out = append(out, *message)
		}
	}
	return out, nil
}

func (f *fakeThreadStore) GetMessagesForOfficer(officerID uuid.UUID) ([]models.Message, error) {
	var out []models.Message
	for _, message := range f.messages {
		out = append(out, *message)
	}
	return out, nil
}

func (f *fakeThreadStore) CreateMessage(message *models.Message) (*models.Message, error) {
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	message.ID = uuid.New()
	message.CreatedAt = time.Now()
	f.messages[message.ID] = message
	return message, nil
}

func (f *fakeThreadStore) MarkMessageRead(id uuid.UUID) (*models.Message, error) {
	f.markReadCalls++
	message := f.messages[id]
	message.MarkRead()
	copied := *message
	return &copied, nil
}

type fakeMessageBroadcaster struct {
	broadcasts []uuid.UUID
}

func (f *fakeMessageBroadcaster) BroadcastNewMessage(applicationID uuid.UUID, message *models.Message) {
	f.broadcasts = append(f.broadcasts, applicationID)
}

func officer() *models.User {
	return &models.User{ID: uuid.New(), Email: "officer@embassy.example", Role: models.OfficerRole}
}

func at(t int) time.Time {
	return time.Date(2026, 3, 1, 12, 0, t, 0, time.UTC)
}

func messageAt(id string, created time.Time) models.Message {
	return models.Message{
		ID:        uuid.MustParse(id),
		CreatedAt: created,
		Content:   id[:8],
	}
}

func TestSortThreadIsStableAndDeterministic(t *testing.T) {
	// ids chosen so lexical order is a < b < c
	a := messageAt("aaaaaaaa-0000-0000-0000-000000000000", at(3))
	b := messageAt("bbbbbbbb-0000-0000-0000-000000000000", at(1))
	c := messageAt("cccccccc-0000-0000-0000-000000000000", at(2))

	permutations := [][]models.Message{
		{a, b, c},
		{c, a, b},
		{b, c, a},
	}
	for _, messages := range permutations {
		SortThread(messages)
		require.Len(t, messages, 3)
		assert.Equal(t, b.ID, messages[0].ID)
		assert.Equal(t, c.ID, messages[1].ID)
		assert.Equal(t, a.ID, messages[2].ID)
	}
}

func TestSortThreadBreaksTimestampTiesById(t *testing.T) {
	same := at(7)
	second := messageAt("bbbbbbbb-0000-0000-0000-000000000000", same)
	first := messageAt("aaaaaaaa-0000-0000-0000-000000000000", same)

	messages := []models.Message{second, first}
	SortThread(messages)

	assert.Equal(t, first.ID, messages[0].ID)
	assert.Equal(t, second.ID, messages[1].ID)
}

func TestGroupConversationsUnreadFirst(t *testing.T) {
	app1 := uuid.New()
	app2 := uuid.New()

	messages := []models.Message{
		{ID: uuid.New(), ApplicationID: app1, Content: "need documents", IsRead: false, CreatedAt: at(10)},
		{ID: uuid.New(), ApplicationID: app1, Content: "sent them", IsRead: true, CreatedAt: at(20)},
		{ID: uuid.New(), ApplicationID: app2, Content: "thanks", IsRead: true, CreatedAt: at(5)},
	}

	conversations := GroupConversations(messages)

	require.Len(t, conversations, 2)
	// app1 carries an unread message so it leads despite app2 existing.
	assert.Equal(t, app1, conversations[0].ApplicationID)
	assert.True(t, conversations[0].Unread)
	assert.Equal(t, "sent them", conversations[0].LastMessage, "last message is the latest by createdAt")
	assert.Equal(t, app2, conversations[1].ApplicationID)
	assert.False(t, conversations[1].Unread)
}

func TestGroupConversationsReadOrderedByLatestActivity(t *testing.T) {
	older := uuid.New()
	newer := uuid.New()

	messages := []models.Message{
		{ID: uuid.New(), ApplicationID: older, Content: "first", IsRead: true, CreatedAt: at(1)},
		{ID: uuid.New(), ApplicationID: newer, Content: "second", IsRead: true, CreatedAt: at(9)},
	}

	conversations := GroupConversations(messages)

	require.Len(t, conversations, 2)
	assert.Equal(t, newer, conversations[0].ApplicationID)
	assert.Equal(t, older, conversations[1].ApplicationID)
}

func TestGroupConversationsClosedOnDecidedApplication(t *testing.T) {
	appID := uuid.New()
	messages := []models.Message{
		{
			ID:            uuid.New(),
			ApplicationID: appID,
			Content:       "decision is in",
			IsRead:        true,
			CreatedAt:     at(1),
			Application:   models.Application{Status: models.ApprovedApplication},
		},
	}

	conversations := GroupConversations(messages)

	require.Len(t, conversations, 1)
	assert.Equal(t, ClosedConversation, conversations[0].Status)
}

func TestSendMessageRejectsBlankContent(t *testing.T) {
	store := newFakeThreadStore()
	svc := NewThreadService(store, nil, workflow.NewInFlightGuard())

	for _, blank := range []string{"", "   ", "\n\t"} {
		_, err := svc.SendMessage(uuid.New(), uuid.New(), blank, officer())
		assert.ErrorIs(t, err, workflow.ErrEmptyMessage)
	}
	assert.Zero(t, store.createCalls, "blank content never reaches the repository")
}

func TestSendMessageAppendsUnreadAndBroadcasts(t *testing.T) {
	store := newFakeThreadStore()
	broadcaster := &fakeMessageBroadcaster{}
	svc := NewThreadService(store, broadcaster, workflow.NewInFlightGuard())
	appID := uuid.New()
	sender := officer()

	message, err := svc.SendMessage(appID, uuid.New(), "  please attend  ", sender)

	require.NoError(t, err)
	assert.Equal(t, "please attend", message.Content)
	assert.False(t, message.IsRead)
	assert.Equal(t, sender.ID, message.SenderID)
	assert.Equal(t, []uuid.UUID{appID}, broadcaster.broadcasts)
}

func TestSendMessageRateLimited(t *testing.T) {
	store := newFakeThreadStore()
	svc := NewThreadService(store, nil, workflow.NewInFlightGuard())
	sender := officer()
	appID := uuid.New()

	// Burst capacity is five; the sixth immediate send is refused locally.
	for i := 0; i < 5; i++ {
		_, err := svc.SendMessage(appID, uuid.New(), "ping", sender)
		require.NoError(t, err)
	}
	_, err := svc.SendMessage(appID, uuid.New(), "ping", sender)
	assert.ErrorIs(t, err, ErrTooManyMessages)
	assert.Equal(t, 5, store.createCalls)
}

func TestMarkReadIdempotent(t *testing.T) {
	store := newFakeThreadStore()
	svc := NewThreadService(store, nil, workflow.NewInFlightGuard())

	message := &models.Message{ID: uuid.New(), Content: "hello", IsRead: false}
	store.messages[message.ID] = message

	first, err := svc.MarkRead(message.ID)
	require.NoError(t, err)
	require.True(t, first.IsRead)
	require.NotNil(t, first.ReadAt)
	firstStamp := *first.ReadAt

	// Second call short-circuits on the already-read copy.
	second, err := svc.MarkRead(message.ID)
	require.NoError(t, err)
	assert.True(t, second.IsRead)
	assert.Equal(t, firstStamp, *second.ReadAt)
	assert.Equal(t, 1, store.markReadCalls)
}

func TestThreadReturnsPageInDisplayOrder(t *testing.T) {
	store := newFakeThreadStore()
	svc := NewThreadService(store, nil, workflow.NewInFlightGuard())
	appID := uuid.New()

	for i, second := range []int{30, 10, 20} {
		id := uuid.New()
		store.messages[id] = &models.Message{
			ID:            id,
			ApplicationID: appID,
			Content:       string(rune('a' + i)),
			CreatedAt:     at(second),
		}
	}

	messages, err := svc.Thread(appID, 50, 0)

	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.True(t, messages[0].CreatedAt.Before(messages[1].CreatedAt))
	assert.True(t, messages[1].CreatedAt.Before(messages[2].CreatedAt))
}
