package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/mail"
	"strings"
	"time"

	"github.com/hyperjump/synopsis/internal/chat"
	"github.com/hyperjump/synopsis/internal/models"
)

// FileSummarizer summarizes a document on disk.
type FileSummarizer interface {
	SummarizeFileRequest(ctx context.Context, path string, req models.SummarizeRequest) (*models.Summary, error)
}

// Session is an interactive prompt: it summarizes files on request, can mail
// the results, and hands every other line to a chat bot.
type Session struct {
	bot        *chat.Bot
	summarizer FileSummarizer
	ratio      float64
	save       bool
	recipient  string
	now        func() time.Time
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithRatio sets the ratio used for "read". Zero uses the summarizer default.
func WithRatio(r float64) SessionOption {
	return func(s *Session) { s.ratio = r }
}

// WithSave stores every summary produced in the session.
func WithSave(save bool) SessionOption {
	return func(s *Session) { s.save = save }
}

// WithClock sets the time source used for the greeting.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

// NewSession returns a session that chats with bot and summarizes with fs.
func NewSession(bot *chat.Bot, fs FileSummarizer, opts ...SessionOption) *Session {
	s := &Session{bot: bot, summarizer: fs, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Recipient returns the address summaries are currently mailed to.
func (s *Session) Recipient() string {
	return s.recipient
}

// Run greets, then reads commands from in until "bye", EOF or ctx is done.
func (s *Session) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	name := s.bot.Name()
	fmt.Fprintf(out, "%s: %s I am %s.\n", name, chat.Greeting(s.now()), name)
	fmt.Fprintf(out, "%s: Type \"read <path>\" to summarize a file, \"mail <address>\" to get summaries by mail, \"bye\" to leave.\n", name)

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	prompt := func(p string) bool {
		fmt.Fprint(out, p)
		return scanner.Scan()
	}

	for prompt("> ") {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		cmd, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)

		switch strings.ToLower(cmd) {
		case "bye", "quit", "exit":
			fmt.Fprintf(out, "%s: Bye!\n", name)
			return nil
		case "read":
			if arg == "" {
				if !prompt("Path: ") {
					return scanner.Err()
				}
				arg = strings.TrimSpace(scanner.Text())
			}
			s.read(ctx, out, arg)
		case "mail":
			s.setRecipient(out, arg)
		default:
			fmt.Fprintf(out, "%s: %s\n", name, s.bot.Respond(line).Text)
		}
	}
	return scanner.Err()
}

func (s *Session) read(ctx context.Context, out io.Writer, path string) {
	name := s.bot.Name()
	if path == "" {
		fmt.Fprintf(out, "%s: I need a file path to read.\n", name)
		return
	}
	req := models.SummarizeRequest{Ratio: s.ratio, Save: s.save}
	if s.recipient != "" {
		req.Email = []string{s.recipient}
	}
	sum, err := s.summarizer.SummarizeFileRequest(ctx, path, req)
	if sum != nil {
		_ = WriteSummary(out, sum, OutputText)
	}
	if err != nil {
		fmt.Fprintf(out, "%s: Could not finish with %s: %v\n", name, path, err)
		return
	}
	if s.recipient != "" {
		fmt.Fprintf(out, "%s: I mailed the summary to %s.\n", name, s.recipient)
	}
}

func (s *Session) setRecipient(out io.Writer, arg string) {
	name := s.bot.Name()
	switch strings.ToLower(arg) {
	case "":
		if s.recipient == "" {
			fmt.Fprintf(out, "%s: Summaries are not being mailed. Use \"mail <address>\".\n", name)
		} else {
			fmt.Fprintf(out, "%s: Summaries go to %s.\n", name, s.recipient)
		}
		return
	case "off", "none":
		s.recipient = ""
		fmt.Fprintf(out, "%s: I will stop mailing summaries.\n", name)
		return
	}
	addr, err := mail.ParseAddress(arg)
	if err != nil {
		fmt.Fprintf(out, "%s: %q does not look like an email address.\n", name, arg)
		return
	}
	s.recipient = addr.Address
	fmt.Fprintf(out, "%s: I will mail summaries to %s.\n", name, s.recipient)
}
