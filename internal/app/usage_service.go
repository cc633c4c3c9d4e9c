package app

import (
	"fmt"
	"math"
	"time"

	"botforge/internal/model"
)

// UsageStore is the persistence surface for billing records.
type UsageStore interface {
	Create(record *model.Usage) error
	List(clientID, botID uint, from, to time.Time) ([]model.Usage, error)
	SumTokensByClientSince(clientID uint, since time.Time) (int64, error)
}

// UsageService converts token counts into cost records and answers
// aggregate queries over them. Rates are USD per 1000 tokens.
type UsageService struct {
	store   UsageStore
	bots    BotStore
	clients ClientStore

	inputRate  float64
	outputRate float64

	now func() time.Time
}

func NewUsageService(store UsageStore, bots BotStore, clients ClientStore, inputRate, outputRate float64) *UsageService {
	if inputRate <= 0 {
		inputRate = 0.03
	}
	if outputRate <= 0 {
		outputRate = 0.06
	}
	return &UsageService{
		store:      store,
		bots:       bots,
		clients:    clients,
		inputRate:  inputRate,
		outputRate: outputRate,
		now:        time.Now,
	}
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

// Build computes the cost record for one exchange. Bots without a client
// are not metered; Build returns nil for them.
func (s *UsageService) Build(botID uint, inputTokens, outputTokens int) (*model.Usage, error) {
	if botID == 0 {
		return nil, ErrInvalidInput
	}
	bot, err := s.bots.GetByID(botID)
	if err != nil {
		return nil, err
	}
	if bot == nil || bot.ClientID == 0 {
		return nil, nil
	}

	inputCost := round6(float64(inputTokens) / 1000 * s.inputRate)
	outputCost := round6(float64(outputTokens) / 1000 * s.outputRate)
	return &model.Usage{
		ClientID:     bot.ClientID,
		BotID:        botID,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		TotalTokens:  inputTokens + outputTokens,
		InputCost:    inputCost,
		OutputCost:   outputCost,
		TotalCost:    round6(inputCost + outputCost),
		Timestamp:    s.now().UTC(),
	}, nil
}

// Record builds and persists the cost record synchronously. No-op for
// unmetered bots.
func (s *UsageService) Record(botID uint, inputTokens, outputTokens int) (*model.Usage, error) {
	record, err := s.Build(botID, inputTokens, outputTokens)
	if err != nil || record == nil {
		return nil, err
	}
	if err := s.store.Create(record); err != nil {
		return nil, err
	}
	return record, nil
}

// UsageFilter narrows aggregate queries. Zero values match everything.
type UsageFilter struct {
	ClientID uint
	BotID    uint
	From     time.Time
	To       time.Time
}

// UsageTotals is the zero-safe aggregate over matching records.
type UsageTotals struct {
	TotalTokens       int     `json:"total_tokens"`
	TotalInputTokens  int     `json:"total_input_tokens"`
	TotalOutputTokens int     `json:"total_output_tokens"`
	TotalCost         float64 `json:"total_cost"`
	TotalMessages     int     `json:"total_messages"`
}

// Aggregate sums matching records. An empty match is a zero-valued result,
// not an error.
func (s *UsageService) Aggregate(filter UsageFilter) (UsageTotals, error) {
	records, err := s.store.List(filter.ClientID, filter.BotID, filter.From, filter.To)
	if err != nil {
		return UsageTotals{}, err
	}
	var totals UsageTotals
	for i := range records {
		totals.TotalTokens += records[i].TotalTokens
		totals.TotalInputTokens += records[i].InputTokens
		totals.TotalOutputTokens += records[i].OutputTokens
		totals.TotalCost += records[i].TotalCost
		totals.TotalMessages++
	}
	totals.TotalCost = round6(totals.TotalCost)
	return totals, nil
}

// DailyUsage is one UTC calendar day's slice of the breakdown.
type DailyUsage struct {
	Date          string  `json:"date"`
	TotalTokens   int     `json:"total_tokens"`
	TotalMessages int     `json:"total_messages"`
	Cost          float64 `json:"cost"`
}

// DailyBreakdown groups matching records by UTC calendar day over the
// trailing days window, ascending by date. Days without records are
// omitted.
func (s *UsageService) DailyBreakdown(filter UsageFilter, days int) ([]DailyUsage, error) {
	if days <= 0 {
		days = 30
	}
	now := s.now().UTC()
	windowStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -(days - 1))
	if filter.From.IsZero() || filter.From.Before(windowStart) {
		filter.From = windowStart
	}

	records, err := s.store.List(filter.ClientID, filter.BotID, filter.From, filter.To)
	if err != nil {
		return nil, err
	}

	byDay := map[string]*DailyUsage{}
	var order []string
	for i := range records {
		day := records[i].Timestamp.UTC().Format("2006-01-02")
		entry, ok := byDay[day]
		if !ok {
			entry = &DailyUsage{Date: day}
			byDay[day] = entry
			order = append(order, day)
		}
		entry.TotalTokens += records[i].TotalTokens
		entry.TotalMessages++
		entry.Cost += records[i].TotalCost
	}

	// Records arrive ascending by timestamp, so day keys are already in
	// order.
	result := make([]DailyUsage, 0, len(order))
	for _, day := range order {
		entry := byDay[day]
		entry.Cost = round6(entry.Cost)
		result = append(result, *entry)
	}
	return result, nil
}

// LimitStatus reports a client's position against its advisory monthly
// token ceiling. Nothing in the pipeline blocks on it.
type LimitStatus struct {
	HasLimit           bool    `json:"has_limit"`
	Limit              int64   `json:"limit,omitempty"`
	CurrentUsage       int64   `json:"current_usage"`
	UsagePercentage    float64 `json:"usage_percentage"`
	RemainingTokens    int64   `json:"remaining_tokens"`
	IsOverLimit        bool    `json:"is_over_limit"`
	IsApproachingLimit bool    `json:"is_approaching_limit"`
	Message            string  `json:"message,omitempty"`
}

// CheckLimit compares the client's current-month usage (from the first of
// the month, UTC) against its configured ceiling.
func (s *UsageService) CheckLimit(clientID uint) (*LimitStatus, error) {
	if clientID == 0 {
		return nil, ErrInvalidInput
	}
	client, err := s.clients.GetByID(clientID)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, ErrClientNotFound
	}
	if client.TokenLimit == nil {
		return &LimitStatus{HasLimit: false}, nil
	}

	now := s.now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	current, err := s.store.SumTokensByClientSince(clientID, monthStart)
	if err != nil {
		return nil, err
	}

	limit := *client.TokenLimit
	status := &LimitStatus{
		HasLimit:     true,
		Limit:        limit,
		CurrentUsage: current,
	}
	if limit > 0 {
		status.UsagePercentage = math.Round(float64(current)/float64(limit)*10000) / 100
	}
	if remaining := limit - current; remaining > 0 {
		status.RemainingTokens = remaining
	}
	status.IsOverLimit = current > limit
	status.IsApproachingLimit = status.UsagePercentage >= 80

	switch {
	case status.IsOverLimit:
		status.Message = fmt.Sprintf("Monthly token limit exceeded: %d of %d tokens used", current, limit)
	case status.IsApproachingLimit:
		status.Message = fmt.Sprintf("Approaching monthly token limit: %d of %d tokens used", current, limit)
	}
	return status, nil
}
