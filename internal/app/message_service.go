package app

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"botforge/internal/ai"
	"botforge/internal/model"
	"botforge/internal/pkg/logger"
	"botforge/internal/ratelimit"
)

// ChatCompleter is the LLM collaborator: prompt in, text and token counts
// out.
type ChatCompleter interface {
	Complete(ctx context.Context, cfg ai.ChatConfig, messages []ai.ChatMessage) (string, ai.TokenUsage, error)
}

// AsyncUsagePublisher hands billing records to the queue; a worker
// persists them off the chat path.
type AsyncUsagePublisher interface {
	Publish(ctx context.Context, record model.Usage) error
}

// Admitter is the sliding-window gate in front of the pipeline.
type Admitter interface {
	Admit(botID uint, now time.Time) (bool, string)
	Stats(botID uint, now time.Time) ratelimit.Stats
}

// MessageService runs the inbound message pipeline: admission, history,
// knowledge context, completion, memory update, usage accounting.
type MessageService struct {
	bots      *BotService
	knowledge *KnowledgeService
	convs     *ConversationService
	usage     *UsageService
	limiter   Admitter
	llm       ChatCompleter
	publisher AsyncUsagePublisher

	chatConfig ai.ChatConfig
}

func NewMessageService(
	bots *BotService,
	knowledge *KnowledgeService,
	convs *ConversationService,
	usage *UsageService,
	limiter Admitter,
	llm ChatCompleter,
	publisher AsyncUsagePublisher,
	chatConfig ai.ChatConfig,
) *MessageService {
	return &MessageService{
		bots:       bots,
		knowledge:  knowledge,
		convs:      convs,
		usage:      usage,
		limiter:    limiter,
		llm:        llm,
		publisher:  publisher,
		chatConfig: chatConfig,
	}
}

type ProcessInput struct {
	BotID     uint
	SessionID string
	Content   string
}

// ProcessResult carries the outcome of one exchange. RateLimited is an
// ordinary result, not an error.
type ProcessResult struct {
	SessionID          string         `json:"session_id"`
	Reply              string         `json:"reply,omitempty"`
	RateLimited        bool           `json:"rate_limited"`
	RateLimitReason    string         `json:"rate_limit_reason,omitempty"`
	Usage              ai.TokenUsage  `json:"usage"`
	Billing            *model.Usage   `json:"billing,omitempty"`
	ConversationLength int            `json:"conversation_length"`
}

// Process drives one inbound message through the full pipeline. Context
// and history lookups degrade to empty on failure; the exchange still
// completes.
func (s *MessageService) Process(ctx context.Context, input ProcessInput) (*ProcessResult, error) {
	content := strings.TrimSpace(input.Content)
	if input.BotID == 0 || content == "" {
		return nil, ErrInvalidInput
	}

	bot, err := s.bots.Get(input.BotID)
	if err != nil {
		return nil, err
	}

	sessionID := strings.TrimSpace(input.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	if allowed, reason := s.limiter.Admit(bot.ID, time.Now()); !allowed {
		return &ProcessResult{
			SessionID:       sessionID,
			RateLimited:     true,
			RateLimitReason: reason,
		}, nil
	}

	history, err := s.convs.History(bot.ID, sessionID, s.convs.MaxContextMessages())
	if err != nil {
		logger.Log.Warnf("history lookup failed, continuing without it: %v", err)
		history = nil
	}

	knowledgeContext, err := s.knowledge.BuildContext(bot.ID, content)
	if err != nil {
		logger.Log.Warnf("context assembly failed, continuing without it: %v", err)
		knowledgeContext = ""
	}

	messages := make([]ai.ChatMessage, 0, len(history)+2)
	messages = append(messages, ai.ChatMessage{
		Role:    "system",
		Content: BuildSystemPrompt(bot, knowledgeContext),
	})
	for _, item := range history {
		if item.Role != "user" && item.Role != "assistant" {
			continue
		}
		messages = append(messages, ai.ChatMessage{Role: item.Role, Content: item.Content})
	}
	messages = append(messages, ai.ChatMessage{Role: "user", Content: content})

	cfg := s.chatConfig
	if bot.Temperature > 0 {
		cfg.Temperature = bot.Temperature
	}

	reply, usage, err := s.llm.Complete(ctx, cfg, messages)
	if err != nil {
		return nil, err
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		reply = "The model returned an empty response."
	}

	conversationLength := len(history) + 2
	if err := s.convs.AppendPair(bot.ID, sessionID, content, reply); err != nil {
		logger.Log.Errorf("append exchange failed: %v", err)
	} else if full, histErr := s.convs.History(bot.ID, sessionID, 0); histErr == nil {
		// The retained window, not the prompt slice: it can hold up to twice
		// the context size.
		conversationLength = len(full)
	}

	result := &ProcessResult{
		SessionID:          sessionID,
		Reply:              reply,
		Usage:              usage,
		ConversationLength: conversationLength,
	}

	record, err := s.usage.Build(bot.ID, usage.InputTokens, usage.OutputTokens)
	if err != nil {
		logger.Log.Errorf("build usage record failed: %v", err)
		return result, nil
	}
	if record == nil {
		return result, nil
	}
	result.Billing = record

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, *record); err != nil {
			logger.Log.Errorf("publish usage record failed, recording directly: %v", err)
			if _, recErr := s.usage.Record(bot.ID, usage.InputTokens, usage.OutputTokens); recErr != nil {
				logger.Log.Errorf("record usage failed: %v", recErr)
			}
		}
	} else if _, err := s.usage.Record(bot.ID, usage.InputTokens, usage.OutputTokens); err != nil {
		logger.Log.Errorf("record usage failed: %v", err)
	}

	return result, nil
}

// Clear resets the session window and issues a fresh session id.
func (s *MessageService) Clear(botID uint, sessionID string) (bool, string, error) {
	if _, err := s.bots.Get(botID); err != nil {
		return false, "", err
	}
	return s.convs.Clear(botID, sessionID)
}

// RateStats snapshots the bot's rate window without consuming a slot.
func (s *MessageService) RateStats(botID uint) (ratelimit.Stats, error) {
	if _, err := s.bots.Get(botID); err != nil {
		return ratelimit.Stats{}, err
	}
	return s.limiter.Stats(botID, time.Now()), nil
}
