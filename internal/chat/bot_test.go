package chat

import (
	"testing"
	"time"
)

var testConversation = []string{
	"hello",
	"hi there",
	"how are you?",
	"I am fine",
	"what is your favorite book?",
	"I am a computer, I have no preferences",
}

func TestBot_Respond(t *testing.T) {
	bot := NewBot("Tester", testConversation)
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"exact", "hello", "hi there"},
		{"case and punctuation", "How are you", "I am fine"},
		{"typo", "how ar you?", "I am fine"},
		{"extra spaces", "  what is   your favorite book ", "I am a computer, I have no preferences"},
		{"unknown", "quantum chromodynamics lecture", DefaultFallback},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := bot.Respond(tt.input)
			if got.Text != tt.want {
				t.Errorf("Respond(%q) = %q, want %q", tt.input, got.Text, tt.want)
			}
		})
	}
}

func TestBot_LastStatementHasNoReply(t *testing.T) {
	bot := NewBot("Tester", []string{"ping", "pong"})
	if got := bot.Respond("pong"); got.Text != DefaultFallback && got.Matched == "pong" {
		t.Errorf("last statement must not be matched, got %+v", got)
	}
	if got := bot.Respond("ping"); got.Text != "pong" || got.Confidence != 1 {
		t.Errorf("Respond(ping) = %+v", got)
	}
}

func TestBot_EmptyConversation(t *testing.T) {
	bot := NewBot("Empty", nil, WithFallback("nothing to say"))
	if got := bot.Respond("hello"); got.Text != "nothing to say" {
		t.Errorf("got %q", got.Text)
	}
	if bot.Name() != "Empty" {
		t.Errorf("Name() = %q", bot.Name())
	}
}

func TestBot_WithThreshold(t *testing.T) {
	bot := NewBot("Strict", testConversation, WithThreshold(1))
	if got := bot.Respond("how ar you"); got.Text != DefaultFallback {
		t.Errorf("strict bot should reject near matches, got %q", got.Text)
	}
}

func TestGreeting(t *testing.T) {
	tests := []struct {
		hour int
		want string
	}{
		{0, "Good morning!"},
		{11, "Good morning!"},
		{12, "Good afternoon!"},
		{17, "Good afternoon!"},
		{18, "Good evening!"},
		{23, "Good evening!"},
	}
	for _, tt := range tests {
		at := time.Date(2024, 3, 1, tt.hour, 30, 0, 0, time.UTC)
		if got := Greeting(at); got != tt.want {
			t.Errorf("Greeting(%02d:30) = %q, want %q", tt.hour, got, tt.want)
		}
	}
}
