package config

import "os"

// DefaultConversation trains the chat prompt when no conversation is configured.
var DefaultConversation = []string{
	"hello",
	"hi",
	"how are you?",
	"I am fine",
	"that is good",
	"yes",
	"can I help you with something?",
	"yes, I have a question",
	"what is your question?",
	"could I borrow a cup of sugar?",
	"I am sorry, but I do not have any",
	"thanks anyway",
	"no problem",
	"what is your favorite book?",
	"I am a computer, I have no preferences",
	"so what is your favorite color?",
	"purple",
	"who are you?",
	"a bot that reads articles and summarizes them",
	"what can you do?",
	"type read followed by a file path and I will summarize it",
	"are you a robot?",
	"yes I am",
	"how do you work?",
	"too complex for you to understand",
}

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/synopsis/data/summaries.db"
	}
	if cfg.Summary.Ratio == 0 {
		cfg.Summary.Ratio = 0.2
	}
	if cfg.Summary.MaxInputBytes == 0 {
		cfg.Summary.MaxInputBytes = 20 << 20
	}
	if cfg.Summary.Parallelism <= 0 {
		cfg.Summary.Parallelism = 4
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".txt", ".md", ".rst", ".pdf", ".docx", ".odt"}
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
	if cfg.Mail.Port == 0 {
		cfg.Mail.Port = 465
	}
	if cfg.Mail.Subject == "" {
		cfg.Mail.Subject = "Your summary"
	}
	if cfg.Mail.Password == "" {
		cfg.Mail.Password = os.Getenv(MailPasswordEnv)
	}
	if cfg.Chat.Name == "" {
		cfg.Chat.Name = "Synopsis"
	}
	if len(cfg.Chat.Conversation) == 0 {
		cfg.Chat.Conversation = append([]string(nil), DefaultConversation...)
	}
}
