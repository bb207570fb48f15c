// Package chat provides a small retrieval-based conversational responder
// trained on an ordered list of statements, plus time-of-day greetings.
package chat

import (
	"strings"
	"time"
)

// DefaultFallback is returned when no known statement is close enough.
const DefaultFallback = "Sorry, I do not understand that yet."

// DefaultThreshold is the minimum similarity for a statement to match.
const DefaultThreshold = 0.5

// Response is the bot's answer to one input.
type Response struct {
	Text       string  `json:"text"`
	Matched    string  `json:"matched,omitempty"`
	Confidence float64 `json:"confidence"`
}

// Bot answers an input with the statement that followed the closest known
// statement in its training conversation.
type Bot struct {
	name       string
	statements []string
	normalized []string
	threshold  float64
	fallback   string
}

// BotOption configures a Bot.
type BotOption func(*Bot)

// WithThreshold sets the minimum match similarity in [0, 1].
func WithThreshold(v float64) BotOption {
	return func(b *Bot) { b.threshold = v }
}

// WithFallback sets the reply used when nothing matches.
func WithFallback(text string) BotOption {
	return func(b *Bot) { b.fallback = text }
}

// NewBot trains a bot on conversation, where each statement's reply is the
// statement after it.
func NewBot(name string, conversation []string, opts ...BotOption) *Bot {
	b := &Bot{
		name:      name,
		threshold: DefaultThreshold,
		fallback:  DefaultFallback,
	}
	for _, s := range conversation {
		if strings.TrimSpace(s) == "" {
			continue
		}
		b.statements = append(b.statements, s)
		b.normalized = append(b.normalized, normalize(s))
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name returns the bot's display name.
func (b *Bot) Name() string {
	return b.name
}

// Respond returns the reply for input.
func (b *Bot) Respond(input string) Response {
	query := normalize(input)
	best, bestScore := -1, -1.0
	// The last statement has no successor to reply with.
	for i := 0; i+1 < len(b.normalized); i++ {
		score := Ratio(query, b.normalized[i])
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 || bestScore < b.threshold {
		return Response{Text: b.fallback, Confidence: max(bestScore, 0)}
	}
	return Response{
		Text:       b.statements[best+1],
		Matched:    b.statements[best],
		Confidence: bestScore,
	}
}

// Greeting returns a greeting for the hour of t.
func Greeting(t time.Time) string {
	switch h := t.Hour(); {
	case h < 12:
		return "Good morning!"
	case h < 18:
		return "Good afternoon!"
	default:
		return "Good evening!"
	}
}

func normalize(s string) string {
	s = strings.ToLower(strings.Join(strings.Fields(s), " "))
	return strings.TrimRight(s, "?!.,;: ")
}
