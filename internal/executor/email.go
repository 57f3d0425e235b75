package executor

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"voxdesk/internal/nlu"
)

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

type Mailer interface {
	From() string
	Send(ctx context.Context, to, subject, body string) error
}

// TextGenerator produces free text from a prompt.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Email struct {
	mailer   Mailer
	contacts map[string]string
	gen      TextGenerator
	logger   *slog.Logger
	now      func() time.Time
}

func NewEmail(mailer Mailer, contacts map[string]string, gen TextGenerator, logger *slog.Logger) *Email {
	lower := make(map[string]string, len(contacts))
	for name, addr := range contacts {
		lower[strings.ToLower(strings.TrimSpace(name))] = strings.TrimSpace(addr)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Email{mailer: mailer, contacts: lower, gen: gen, logger: logger, now: time.Now}
}

func (e *Email) Route() Route {
	return Route{Icon: "📧", Handle: e.Handle}
}

func (e *Email) Handle(ctx context.Context, slots nlu.Slots) string {
	to := slots.Text("to", "")
	body := slots.First("body", "message")
	subject := slots.Text("subject", "")

	if to == "" {
		return failf("No recipient name or email provided.")
	}

	recipient := e.Resolve(to)
	if !ValidEmail(recipient) {
		return failf("Invalid recipient email: %s", recipient)
	}

	if subject == "" {
		subject = e.generateSubject(ctx, body)
	}
	if subject == "" {
		subject = DeterministicSubject(body, e.mailer.From(), e.now())
	}

	text := body
	if text == "" {
		text = "No message content."
	}

	if err := e.mailer.Send(ctx, recipient, subject, text); err != nil {
		return failf("Failed to send email: %v", err)
	}
	return fmt.Sprintf("Email sent to %s with subject: %s", recipient, subject)
}

// Resolve maps a contact name to its address; unknown names pass through.
func (e *Email) Resolve(name string) string {
	if addr, ok := e.contacts[strings.ToLower(strings.TrimSpace(name))]; ok {
		return addr
	}
	return strings.TrimSpace(name)
}

func ValidEmail(addr string) bool {
	return emailRe.MatchString(addr)
}

const subjectPrompt = `Generate a short, clean email subject (3-8 words) for the following message.
Return ONLY the subject text. No quotes.

Message:
%s

Subject:`

func (e *Email) generateSubject(ctx context.Context, body string) string {
	if e.gen == nil || body == "" {
		return ""
	}

	out, err := e.gen.Generate(ctx, fmt.Sprintf(subjectPrompt, body))
	if err != nil {
		e.logger.Debug("subject generation failed", "err", err)
		return ""
	}

	line := firstLine(out)
	line = strings.Trim(line, `"'`)
	line = strings.TrimPrefix(line, "Subject:")
	return truncate(strings.TrimSpace(line), 120)
}

// DeterministicSubject keeps bodies of up to seven words and abbreviates
// longer ones to their first three words.
func DeterministicSubject(body, from string, now time.Time) string {
	words := strings.Fields(body)
	if len(words) == 0 {
		return fmt.Sprintf("Message from %s - %s", from, now.Format("Jan 02, 2006"))
	}

	var s string
	if len(words) <= 7 {
		s = strings.Join(words, " ")
	} else {
		s = strings.Join(words[:3], " ") + "..."
	}
	return capitalize(s)
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
