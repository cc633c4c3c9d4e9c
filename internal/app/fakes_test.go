package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"botforge/internal/ai"
	"botforge/internal/model"
	"botforge/internal/ratelimit"
)

// In-memory stores backing the service tests. Each mirrors the matching
// repository's behavior: nil for not found, copies on read.

type fakeUserStore struct {
	nextID uint
	users  map[uint]model.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[uint]model.User{}}
}

func (f *fakeUserStore) Create(user *model.User) error {
	f.nextID++
	user.ID = f.nextID
	f.users[user.ID] = *user
	return nil
}

func (f *fakeUserStore) GetByID(id uint) (*model.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	copied := user
	return &copied, nil
}

func (f *fakeUserStore) GetByUsername(username string) (*model.User, error) {
	for _, user := range f.users {
		if user.Username == username {
			copied := user
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) GetByEmail(email string) (*model.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			copied := user
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) Count() (int64, error) {
	return int64(len(f.users)), nil
}

type fakeClientStore struct {
	nextID  uint
	clients map[uint]model.Client
}

func newFakeClientStore() *fakeClientStore {
	return &fakeClientStore{clients: map[uint]model.Client{}}
}

func (f *fakeClientStore) Create(client *model.Client) error {
	f.nextID++
	client.ID = f.nextID
	f.clients[client.ID] = *client
	return nil
}

func (f *fakeClientStore) GetByID(id uint) (*model.Client, error) {
	client, ok := f.clients[id]
	if !ok {
		return nil, nil
	}
	copied := client
	return &copied, nil
}

func (f *fakeClientStore) List() ([]model.Client, error) {
	var list []model.Client
	for _, client := range f.clients {
		list = append(list, client)
	}
	return list, nil
}

func (f *fakeClientStore) Update(client *model.Client) error {
	f.clients[client.ID] = *client
	return nil
}

func (f *fakeClientStore) Delete(id uint) error {
	delete(f.clients, id)
	return nil
}

type fakeBotStore struct {
	nextID uint
	bots   map[uint]model.Bot
}

func newFakeBotStore() *fakeBotStore {
	return &fakeBotStore{bots: map[uint]model.Bot{}}
}

func (f *fakeBotStore) Create(bot *model.Bot) error {
	f.nextID++
	bot.ID = f.nextID
	f.bots[bot.ID] = *bot
	return nil
}

func (f *fakeBotStore) GetByID(id uint) (*model.Bot, error) {
	bot, ok := f.bots[id]
	if !ok {
		return nil, nil
	}
	copied := bot
	return &copied, nil
}

func (f *fakeBotStore) List() ([]model.Bot, error) {
	var list []model.Bot
	for _, bot := range f.bots {
		list = append(list, bot)
	}
	return list, nil
}

func (f *fakeBotStore) ListByClientID(clientID uint) ([]model.Bot, error) {
	var list []model.Bot
	for _, bot := range f.bots {
		if bot.ClientID == clientID {
			list = append(list, bot)
		}
	}
	return list, nil
}

func (f *fakeBotStore) Update(bot *model.Bot) error {
	f.bots[bot.ID] = *bot
	return nil
}

func (f *fakeBotStore) Delete(id uint) error {
	delete(f.bots, id)
	return nil
}

type fakeDocStore struct {
	nextID uint
	docs   map[uint]model.Document
}

func newFakeDocStore() *fakeDocStore {
	return &fakeDocStore{docs: map[uint]model.Document{}}
}

func (f *fakeDocStore) Create(doc *model.Document) error {
	f.nextID++
	doc.ID = f.nextID
	f.docs[doc.ID] = *doc
	return nil
}

func (f *fakeDocStore) GetByIDAndBotID(id, botID uint) (*model.Document, error) {
	doc, ok := f.docs[id]
	if !ok || doc.BotID != botID {
		return nil, nil
	}
	copied := doc
	return &copied, nil
}

func (f *fakeDocStore) ListByBotID(botID uint) ([]model.Document, error) {
	var list []model.Document
	for id := uint(1); id <= f.nextID; id++ {
		if doc, ok := f.docs[id]; ok && doc.BotID == botID {
			list = append(list, doc)
		}
	}
	return list, nil
}

func (f *fakeDocStore) Update(doc *model.Document) error {
	f.docs[doc.ID] = *doc
	return nil
}

func (f *fakeDocStore) DeleteByIDAndBotID(id, botID uint) error {
	if doc, ok := f.docs[id]; ok && doc.BotID == botID {
		delete(f.docs, id)
	}
	return nil
}

func (f *fakeDocStore) DeleteByBotID(botID uint) error {
	for id, doc := range f.docs {
		if doc.BotID == botID {
			delete(f.docs, id)
		}
	}
	return nil
}

type fakeChunkStore struct {
	nextID uint
	chunks map[uint]model.Chunk
}

func newFakeChunkStore() *fakeChunkStore {
	return &fakeChunkStore{chunks: map[uint]model.Chunk{}}
}

func (f *fakeChunkStore) CreateBatch(chunks []model.Chunk) error {
	for i := range chunks {
		f.nextID++
		chunks[i].ID = f.nextID
		f.chunks[chunks[i].ID] = chunks[i]
	}
	return nil
}

func (f *fakeChunkStore) ListByBotID(botID uint) ([]model.Chunk, error) {
	var list []model.Chunk
	for id := uint(1); id <= f.nextID; id++ {
		if chunk, ok := f.chunks[id]; ok && chunk.BotID == botID {
			list = append(list, chunk)
		}
	}
	return list, nil
}

func (f *fakeChunkStore) CountByDocumentID(documentID uint) (int64, error) {
	var count int64
	for _, chunk := range f.chunks {
		if chunk.DocumentID == documentID {
			count++
		}
	}
	return count, nil
}

func (f *fakeChunkStore) DeleteByDocumentID(documentID uint) error {
	for id, chunk := range f.chunks {
		if chunk.DocumentID == documentID {
			delete(f.chunks, id)
		}
	}
	return nil
}

func (f *fakeChunkStore) DeleteByBotID(botID uint) error {
	for id, chunk := range f.chunks {
		if chunk.BotID == botID {
			delete(f.chunks, id)
		}
	}
	return nil
}

type convKey struct {
	botID     uint
	sessionID string
}

type fakeConvStore struct {
	mu     sync.Mutex
	nextID uint
	convs  map[convKey]model.Conversation
}

func newFakeConvStore() *fakeConvStore {
	return &fakeConvStore{convs: map[convKey]model.Conversation{}}
}

func (f *fakeConvStore) GetByBotAndSession(botID uint, sessionID string) (*model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	conv, ok := f.convs[convKey{botID, sessionID}]
	if !ok {
		return nil, nil
	}
	copied := conv
	return &copied, nil
}

func (f *fakeConvStore) Create(conv *model.Conversation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	conv.ID = f.nextID
	conv.CreatedAt = time.Now()
	conv.UpdatedAt = conv.CreatedAt
	f.convs[convKey{conv.BotID, conv.SessionID}] = *conv
	return nil
}

func (f *fakeConvStore) Update(conv *model.Conversation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	conv.UpdatedAt = time.Now()
	f.convs[convKey{conv.BotID, conv.SessionID}] = *conv
	return nil
}

func (f *fakeConvStore) ListByBotID(botID uint) ([]model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var list []model.Conversation
	for key, conv := range f.convs {
		if key.botID == botID {
			list = append(list, conv)
		}
	}
	return list, nil
}

func (f *fakeConvStore) DeleteByBotID(botID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for key := range f.convs {
		if key.botID == botID {
			delete(f.convs, key)
		}
	}
	return nil
}

type fakeUsageStore struct {
	records []model.Usage
	failing bool
}

func (f *fakeUsageStore) Create(record *model.Usage) error {
	if f.failing {
		return errors.New("store unavailable")
	}
	record.ID = uint(len(f.records) + 1)
	f.records = append(f.records, *record)
	return nil
}

func (f *fakeUsageStore) List(clientID, botID uint, from, to time.Time) ([]model.Usage, error) {
	var list []model.Usage
	for _, record := range f.records {
		if clientID != 0 && record.ClientID != clientID {
			continue
		}
		if botID != 0 && record.BotID != botID {
			continue
		}
		if !from.IsZero() && record.Timestamp.Before(from) {
			continue
		}
		if !to.IsZero() && !record.Timestamp.Before(to) {
			continue
		}
		list = append(list, record)
	}
	return list, nil
}

func (f *fakeUsageStore) SumTokensByClientSince(clientID uint, since time.Time) (int64, error) {
	var total int64
	for _, record := range f.records {
		if record.ClientID == clientID && !record.Timestamp.Before(since) {
			total += int64(record.TotalTokens)
		}
	}
	return total, nil
}

type fakeLimiter struct {
	allow  bool
	reason string
	admits int
}

func (f *fakeLimiter) Admit(botID uint, now time.Time) (bool, string) {
	f.admits++
	if f.allow {
		return true, ""
	}
	return false, f.reason
}

func (f *fakeLimiter) Stats(botID uint, now time.Time) ratelimit.Stats {
	return ratelimit.Stats{Enabled: true}
}

type fakePublisher struct {
	published []model.Usage
	err       error
}

func (f *fakePublisher) Publish(ctx context.Context, record model.Usage) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, record)
	return nil
}

type fakeCompleter struct {
	reply    string
	usage    ai.TokenUsage
	err      error
	lastCfg  ai.ChatConfig
	messages []ai.ChatMessage
}

func (f *fakeCompleter) Complete(ctx context.Context, cfg ai.ChatConfig, messages []ai.ChatMessage) (string, ai.TokenUsage, error) {
	f.lastCfg = cfg
	f.messages = messages
	if f.err != nil {
		return "", ai.TokenUsage{}, f.err
	}
	return f.reply, f.usage, nil
}
