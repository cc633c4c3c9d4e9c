package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"botforge/internal/model"
)

// ConversationStore is the persistence surface for conversation rows.
type ConversationStore interface {
	GetByBotAndSession(botID uint, sessionID string) (*model.Conversation, error)
	Create(conv *model.Conversation) error
	Update(conv *model.Conversation) error
	ListByBotID(botID uint) ([]model.Conversation, error)
	DeleteByBotID(botID uint) error
}

// HistoryCache is a read cache over conversation history. Implementations
// may serve slightly stale data; the dirty marker bounds the staleness
// window after writes.
type HistoryCache interface {
	GetHistory(ctx context.Context, botID uint, sessionID string) ([]model.Message, bool, error)
	SetHistory(ctx context.Context, botID uint, sessionID string, messages []model.Message) error
	DeleteHistory(ctx context.Context, botID uint, sessionID string) error
	MarkDirty(ctx context.Context, botID uint, sessionID string) error
	IsDirty(ctx context.Context, botID uint, sessionID string) (bool, error)
}

// ConversationService keeps the rolling message window per (bot, session)
// pair. Appends are read-modify-write on one row, so each key has its own
// lock: same-key calls serialize, different keys run concurrently.
type ConversationService struct {
	store ConversationStore
	cache HistoryCache

	maxContextMessages int

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewConversationService(store ConversationStore, cache HistoryCache, maxContextMessages int) *ConversationService {
	if maxContextMessages <= 0 {
		maxContextMessages = 10
	}
	return &ConversationService{
		store:              store,
		cache:              cache,
		maxContextMessages: maxContextMessages,
		locks:              map[string]*sync.Mutex{},
	}
}

// MaxContextMessages reports how many recent messages the prompt builder
// should include.
func (s *ConversationService) MaxContextMessages() int {
	return s.maxContextMessages
}

func (s *ConversationService) keyLock(botID uint, sessionID string) *sync.Mutex {
	key := fmt.Sprintf("%d:%s", botID, sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[key] = lock
	}
	return lock
}

// History returns up to limit most recent messages for the session; a
// limit of zero or less returns the whole retained window. An unknown
// session is an empty history, not an error.
func (s *ConversationService) History(botID uint, sessionID string, limit int) ([]model.Message, error) {
	if botID == 0 || strings.TrimSpace(sessionID) == "" {
		return nil, ErrInvalidInput
	}

	ctx := context.Background()
	if s.cache != nil {
		dirty, err := s.cache.IsDirty(ctx, botID, sessionID)
		if err == nil && !dirty {
			if cached, hit, cacheErr := s.cache.GetHistory(ctx, botID, sessionID); cacheErr == nil && hit {
				return tailMessages(cached, limit), nil
			}
		}
	}

	conv, err := s.store.GetByBotAndSession(botID, sessionID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, nil
	}
	messages := conv.MessageList()
	if s.cache != nil {
		if dirty, dirtyErr := s.cache.IsDirty(ctx, botID, sessionID); dirtyErr == nil && !dirty {
			_ = s.cache.SetHistory(ctx, botID, sessionID, messages)
		}
	}
	return tailMessages(messages, limit), nil
}

// Append records one message, trimming the window from the front when it
// exceeds twice the context size.
func (s *ConversationService) Append(botID uint, sessionID, role, content string) error {
	return s.appendMessages(botID, sessionID, []model.Message{
		{Role: role, Content: content, Timestamp: time.Now().UTC()},
	})
}

// AppendPair records a completed user/assistant exchange as one write, so
// the window never holds half an exchange.
func (s *ConversationService) AppendPair(botID uint, sessionID, userContent, assistantContent string) error {
	now := time.Now().UTC()
	return s.appendMessages(botID, sessionID, []model.Message{
		{Role: "user", Content: userContent, Timestamp: now},
		{Role: "assistant", Content: assistantContent, Timestamp: now},
	})
}

func (s *ConversationService) appendMessages(botID uint, sessionID string, msgs []model.Message) error {
	if botID == 0 || strings.TrimSpace(sessionID) == "" {
		return ErrInvalidInput
	}
	for _, m := range msgs {
		if m.Role != "user" && m.Role != "assistant" {
			return ErrInvalidInput
		}
		if strings.TrimSpace(m.Content) == "" {
			return ErrInvalidInput
		}
	}

	lock := s.keyLock(botID, sessionID)
	lock.Lock()
	defer lock.Unlock()

	conv, err := s.store.GetByBotAndSession(botID, sessionID)
	if err != nil {
		return err
	}
	created := false
	if conv == nil {
		conv = &model.Conversation{BotID: botID, SessionID: sessionID}
		created = true
	}

	messages := append(conv.MessageList(), msgs...)
	if bound := 2 * s.maxContextMessages; len(messages) > bound {
		messages = messages[len(messages)-bound:]
	}
	conv.SetMessages(messages)

	if created {
		err = s.store.Create(conv)
	} else {
		err = s.store.Update(conv)
	}
	if err != nil {
		return err
	}

	if s.cache != nil {
		ctx := context.Background()
		_ = s.cache.MarkDirty(ctx, botID, sessionID)
		_ = s.cache.DeleteHistory(ctx, botID, sessionID)
	}
	return nil
}

// Clear empties the session's window and hands back a fresh session id for
// the caller to continue under. Returns false when there was nothing to
// clear.
func (s *ConversationService) Clear(botID uint, sessionID string) (bool, string, error) {
	if botID == 0 || strings.TrimSpace(sessionID) == "" {
		return false, "", ErrInvalidInput
	}

	lock := s.keyLock(botID, sessionID)
	lock.Lock()
	defer lock.Unlock()

	newSessionID := uuid.NewString()

	conv, err := s.store.GetByBotAndSession(botID, sessionID)
	if err != nil {
		return false, "", err
	}
	if conv == nil || len(conv.MessageList()) == 0 {
		return false, newSessionID, nil
	}

	conv.SetMessages(nil)
	if err := s.store.Update(conv); err != nil {
		return false, "", err
	}
	if s.cache != nil {
		ctx := context.Background()
		_ = s.cache.MarkDirty(ctx, botID, sessionID)
		_ = s.cache.DeleteHistory(ctx, botID, sessionID)
	}
	return true, newSessionID, nil
}

// SessionInfo summarizes one conversation for listings.
type SessionInfo struct {
	SessionID    string    `json:"session_id"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (s *ConversationService) ListSessions(botID uint) ([]SessionInfo, error) {
	if botID == 0 {
		return nil, ErrInvalidInput
	}
	convs, err := s.store.ListByBotID(botID)
	if err != nil {
		return nil, err
	}
	infos := make([]SessionInfo, 0, len(convs))
	for i := range convs {
		infos = append(infos, SessionInfo{
			SessionID:    convs[i].SessionID,
			MessageCount: len(convs[i].MessageList()),
			CreatedAt:    convs[i].CreatedAt,
			UpdatedAt:    convs[i].UpdatedAt,
		})
	}
	return infos, nil
}

func tailMessages(messages []model.Message, limit int) []model.Message {
	if limit <= 0 || limit >= len(messages) {
		return messages
	}
	return messages[len(messages)-limit:]
}
