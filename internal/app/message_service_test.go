package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"botforge/internal/ai"
	"botforge/internal/model"
)

type messageFixture struct {
	svc       *MessageService
	bots      *fakeBotStore
	clients   *fakeClientStore
	convs     *ConversationService
	usage     *fakeUsageStore
	limiter   *fakeLimiter
	publisher *fakePublisher
	completer *fakeCompleter
	knowledge *KnowledgeService
}

func newMessageFixture(t *testing.T) *messageFixture {
	t.Helper()
	clients := newFakeClientStore()
	bots := newFakeBotStore()
	docs := newFakeDocStore()
	chunks := newFakeChunkStore()
	convStore := newFakeConvStore()
	usageStore := &fakeUsageStore{}

	convSvc := NewConversationService(convStore, nil, 10)
	knowledgeSvc := NewKnowledgeService(docs, chunks, 40, 10, 5, 2000)
	usageSvc := NewUsageService(usageStore, bots, clients, 0.03, 0.06)
	botSvc := NewBotService(bots, clients, docs, chunks, convStore)

	limiter := &fakeLimiter{allow: true}
	publisher := &fakePublisher{}
	completer := &fakeCompleter{
		reply: "Soundbar mounting is $40.",
		usage: ai.TokenUsage{InputTokens: 120, OutputTokens: 30, TotalTokens: 150},
	}

	svc := NewMessageService(
		botSvc, knowledgeSvc, convSvc, usageSvc,
		limiter, completer, publisher,
		ai.ChatConfig{BaseURL: "http://llm", APIKey: "k", Model: "gpt-4o", Temperature: 0.5, MaxTokens: 1000},
	)

	return &messageFixture{
		svc:       svc,
		bots:      bots,
		clients:   clients,
		convs:     convSvc,
		usage:     usageStore,
		limiter:   limiter,
		publisher: publisher,
		completer: completer,
		knowledge: knowledgeSvc,
	}
}

func (f *messageFixture) createBot(t *testing.T, metered bool) *model.Bot {
	t.Helper()
	var clientID uint
	if metered {
		client := &model.Client{Name: "Acme"}
		require.NoError(t, f.clients.Create(client))
		clientID = client.ID
	}
	bot := &model.Bot{ClientID: clientID, Name: "support", Tone: "friendly", Temperature: 0.9}
	require.NoError(t, f.bots.Create(bot))
	return bot
}

func TestProcessFullPipeline(t *testing.T) {
	f := newMessageFixture(t)
	bot := f.createBot(t, true)

	_, err := f.knowledge.Ingest(IngestInput{BotID: bot.ID, Filename: "pricing.txt", Content: pricingText})
	require.NoError(t, err)
	require.NoError(t, f.convs.AppendPair(bot.ID, "s1", "hi", "hello, how can I help?"))

	result, err := f.svc.Process(context.Background(), ProcessInput{
		BotID:     bot.ID,
		SessionID: "s1",
		Content:   "how much is soundbar mounting",
	})
	require.NoError(t, err)

	assert.False(t, result.RateLimited)
	assert.Equal(t, "s1", result.SessionID)
	assert.Equal(t, "Soundbar mounting is $40.", result.Reply)
	assert.Equal(t, 150, result.Usage.TotalTokens)
	assert.Equal(t, 4, result.ConversationLength)

	// Prompt: system with knowledge block, then prior turns, then the
	// inbound message.
	require.Len(t, f.completer.messages, 4)
	assert.Equal(t, "system", f.completer.messages[0].Role)
	assert.Contains(t, f.completer.messages[0].Content, "KNOWLEDGE BASE")
	assert.Contains(t, f.completer.messages[0].Content, "Soundbar mounting is $40.")
	assert.Equal(t, "hi", f.completer.messages[1].Content)
	assert.Equal(t, "user", f.completer.messages[3].Role)
	assert.Equal(t, "how much is soundbar mounting", f.completer.messages[3].Content)
	assert.Equal(t, 0.9, f.completer.lastCfg.Temperature)

	// The exchange landed in the conversation window.
	history, err := f.convs.History(bot.ID, "s1", 0)
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, "how much is soundbar mounting", history[2].Content)
	assert.Equal(t, "Soundbar mounting is $40.", history[3].Content)

	// Billing went through the queue, not the store.
	require.NotNil(t, result.Billing)
	assert.Equal(t, 150, result.Billing.TotalTokens)
	require.Len(t, f.publisher.published, 1)
	assert.Empty(t, f.usage.records)
}

func TestProcessReportsRetainedWindowLength(t *testing.T) {
	f := newMessageFixture(t)
	bot := f.createBot(t, false)

	for i := 0; i < 7; i++ {
		require.NoError(t, f.convs.AppendPair(bot.ID, "s1", fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i)))
	}

	result, err := f.svc.Process(context.Background(), ProcessInput{BotID: bot.ID, SessionID: "s1", Content: "hello"})
	require.NoError(t, err)

	// The prompt slice is capped at ten messages, but the reported length
	// is the stored window after the append: 14 prior turns plus 2.
	assert.Equal(t, 16, result.ConversationLength)

	history, err := f.convs.History(bot.ID, "s1", 0)
	require.NoError(t, err)
	assert.Len(t, history, 16)
}

func TestProcessRateLimited(t *testing.T) {
	f := newMessageFixture(t)
	bot := f.createBot(t, true)
	f.limiter.allow = false
	f.limiter.reason = "rate limit exceeded: 2 messages per second"

	result, err := f.svc.Process(context.Background(), ProcessInput{
		BotID: bot.ID, SessionID: "s1", Content: "hello",
	})
	require.NoError(t, err)

	assert.True(t, result.RateLimited)
	assert.Equal(t, "rate limit exceeded: 2 messages per second", result.RateLimitReason)
	assert.Empty(t, result.Reply)
	assert.Nil(t, f.completer.messages)

	history, err := f.convs.History(bot.ID, "s1", 0)
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.Empty(t, f.publisher.published)
}

func TestProcessIssuesSessionID(t *testing.T) {
	f := newMessageFixture(t)
	bot := f.createBot(t, false)

	result, err := f.svc.Process(context.Background(), ProcessInput{BotID: bot.ID, Content: "hello"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.SessionID)

	history, err := f.convs.History(bot.ID, result.SessionID, 0)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestProcessUnknownBot(t *testing.T) {
	f := newMessageFixture(t)

	_, err := f.svc.Process(context.Background(), ProcessInput{BotID: 42, Content: "hello"})
	assert.ErrorIs(t, err, ErrBotNotFound)
}

func TestProcessRejectsEmptyContent(t *testing.T) {
	f := newMessageFixture(t)
	bot := f.createBot(t, false)

	_, err := f.svc.Process(context.Background(), ProcessInput{BotID: bot.ID, Content: "   "})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestProcessLLMFailure(t *testing.T) {
	f := newMessageFixture(t)
	bot := f.createBot(t, true)
	f.completer.err = errors.New("upstream down")

	_, err := f.svc.Process(context.Background(), ProcessInput{BotID: bot.ID, SessionID: "s1", Content: "hello"})
	require.Error(t, err)

	// Nothing was committed for the failed exchange.
	history, histErr := f.convs.History(bot.ID, "s1", 0)
	require.NoError(t, histErr)
	assert.Empty(t, history)
	assert.Empty(t, f.publisher.published)
	assert.Empty(t, f.usage.records)
}

func TestProcessPublishFailureFallsBackToDirectRecord(t *testing.T) {
	f := newMessageFixture(t)
	bot := f.createBot(t, true)
	f.publisher.err = errors.New("broker gone")

	result, err := f.svc.Process(context.Background(), ProcessInput{BotID: bot.ID, SessionID: "s1", Content: "hello"})
	require.NoError(t, err)
	require.NotNil(t, result.Billing)
	require.Len(t, f.usage.records, 1)
	assert.Equal(t, 150, f.usage.records[0].TotalTokens)
}

func TestProcessUnmeteredBotSkipsBilling(t *testing.T) {
	f := newMessageFixture(t)
	bot := f.createBot(t, false)

	result, err := f.svc.Process(context.Background(), ProcessInput{BotID: bot.ID, SessionID: "s1", Content: "hello"})
	require.NoError(t, err)
	assert.Nil(t, result.Billing)
	assert.Empty(t, f.publisher.published)
	assert.Empty(t, f.usage.records)
}

func TestProcessEmptyReplyPlaceholder(t *testing.T) {
	f := newMessageFixture(t)
	bot := f.createBot(t, false)
	f.completer.reply = "   "

	result, err := f.svc.Process(context.Background(), ProcessInput{BotID: bot.ID, SessionID: "s1", Content: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "The model returned an empty response.", result.Reply)
}

func TestClearIssuesFreshSession(t *testing.T) {
	f := newMessageFixture(t)
	bot := f.createBot(t, false)

	require.NoError(t, f.convs.AppendPair(bot.ID, "s1", "hi", "hello"))

	cleared, newID, err := f.svc.Clear(bot.ID, "s1")
	require.NoError(t, err)
	assert.True(t, cleared)
	assert.NotEqual(t, "s1", newID)
	assert.False(t, strings.TrimSpace(newID) == "")
}

func TestRateStatsUnknownBot(t *testing.T) {
	f := newMessageFixture(t)

	_, err := f.svc.RateStats(99)
	assert.ErrorIs(t, err, ErrBotNotFound)
}
