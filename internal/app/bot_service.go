package app

import (
	"errors"
	"fmt"
	"strings"

	"botforge/internal/model"
)

var ErrBotNotFound = errors.New("bot not found")

const defaultTemperature = 0.7

// BotStore is the persistence surface BotService needs.
type BotStore interface {
	Create(bot *model.Bot) error
	GetByID(id uint) (*model.Bot, error)
	List() ([]model.Bot, error)
	ListByClientID(clientID uint) ([]model.Bot, error)
	Update(bot *model.Bot) error
	Delete(id uint) error
}

type BotService struct {
	bots    BotStore
	clients ClientStore
	docs    DocumentStore
	chunks  ChunkStore
	convs   ConversationStore
}

func NewBotService(
	bots BotStore,
	clients ClientStore,
	docs DocumentStore,
	chunks ChunkStore,
	convs ConversationStore,
) *BotService {
	return &BotService{
		bots:    bots,
		clients: clients,
		docs:    docs,
		chunks:  chunks,
		convs:   convs,
	}
}

type BotInput struct {
	ClientID               uint
	Name                   string
	Description            string
	Personality            string
	PersonalityDescription string
	Tone                   string
	SystemPrompt           string
	Temperature            float64
}

func (s *BotService) Create(input BotInput) (*model.Bot, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrInvalidInput
	}
	if input.ClientID != 0 {
		client, err := s.clients.GetByID(input.ClientID)
		if err != nil {
			return nil, err
		}
		if client == nil {
			return nil, ErrClientNotFound
		}
	}

	temperature := input.Temperature
	if temperature <= 0 {
		temperature = defaultTemperature
	}

	bot := &model.Bot{
		ClientID:               input.ClientID,
		Name:                   name,
		Description:            strings.TrimSpace(input.Description),
		Personality:            strings.TrimSpace(input.Personality),
		PersonalityDescription: strings.TrimSpace(input.PersonalityDescription),
		Tone:                   strings.TrimSpace(strings.ToLower(input.Tone)),
		SystemPrompt:           strings.TrimSpace(input.SystemPrompt),
		Temperature:            temperature,
	}
	if err := s.bots.Create(bot); err != nil {
		return nil, err
	}
	return bot, nil
}

func (s *BotService) Get(id uint) (*model.Bot, error) {
	if id == 0 {
		return nil, ErrInvalidInput
	}
	bot, err := s.bots.GetByID(id)
	if err != nil {
		return nil, err
	}
	if bot == nil {
		return nil, ErrBotNotFound
	}
	return bot, nil
}

func (s *BotService) List(clientID uint) ([]model.Bot, error) {
	if clientID != 0 {
		return s.bots.ListByClientID(clientID)
	}
	return s.bots.List()
}

func (s *BotService) Update(id uint, input BotInput) (*model.Bot, error) {
	bot, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if input.ClientID != 0 && input.ClientID != bot.ClientID {
		client, err := s.clients.GetByID(input.ClientID)
		if err != nil {
			return nil, err
		}
		if client == nil {
			return nil, ErrClientNotFound
		}
	}
	bot.ClientID = input.ClientID
	if name := strings.TrimSpace(input.Name); name != "" {
		bot.Name = name
	}
	bot.Description = strings.TrimSpace(input.Description)
	bot.Personality = strings.TrimSpace(input.Personality)
	bot.PersonalityDescription = strings.TrimSpace(input.PersonalityDescription)
	bot.Tone = strings.TrimSpace(strings.ToLower(input.Tone))
	bot.SystemPrompt = strings.TrimSpace(input.SystemPrompt)
	if input.Temperature > 0 {
		bot.Temperature = input.Temperature
	}

	if err := s.bots.Update(bot); err != nil {
		return nil, err
	}
	return bot, nil
}

// Delete removes the bot and everything hanging off it: chunks first,
// then documents and conversations, then the bot row.
func (s *BotService) Delete(id uint) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	if err := s.chunks.DeleteByBotID(id); err != nil {
		return err
	}
	if err := s.docs.DeleteByBotID(id); err != nil {
		return err
	}
	if err := s.convs.DeleteByBotID(id); err != nil {
		return err
	}
	return s.bots.Delete(id)
}

var toneModifiers = map[string]string{
	"friendly":     "with a warm and approachable manner",
	"professional": "with a professional and business-focused approach",
	"humorous":     "with a light-hearted and witty personality",
	"casual":       "with a relaxed and informal style",
	"formal":       "with a formal and respectful communication style",
	"enthusiastic": "with an energetic and positive attitude",
}

// BuildSystemPrompt composes the system message for a bot from its
// personality settings and the assembled knowledge context. The knowledge
// block carries a hard instruction to quote figures verbatim because
// models otherwise round prices freely.
func BuildSystemPrompt(bot *model.Bot, knowledgeContext string) string {
	var parts []string

	intro := "You are an AI assistant"
	if bot.Tone != "" {
		desc, ok := toneModifiers[bot.Tone]
		if !ok {
			desc = fmt.Sprintf("with a %s tone", bot.Tone)
		}
		intro += " " + desc
	}
	parts = append(parts, intro+".")

	if bot.PersonalityDescription != "" {
		parts = append(parts, "Your detailed personality: "+bot.PersonalityDescription)
	} else if bot.Personality != "" {
		parts = append(parts, "Your core personality: "+bot.Personality)
	}

	if bot.SystemPrompt != "" {
		parts = append(parts, "Additional instructions: "+bot.SystemPrompt)
	}

	if knowledgeContext != "" {
		divider := strings.Repeat("=", 50)
		parts = append(parts,
			divider,
			"KNOWLEDGE BASE - USE THIS EXACT INFORMATION:",
			knowledgeContext,
			divider,
			"MANDATORY INSTRUCTION: You MUST use the exact figures and information from the knowledge base above. When asked about prices, quote the EXACT amounts shown. DO NOT CHANGE, ROUND, OR APPROXIMATE ANY PRICES.",
		)
	}

	if len(parts) == 0 {
		parts = append(parts, "You are a helpful and friendly AI assistant.")
	}

	return strings.Join(parts, "\n\n")
}
