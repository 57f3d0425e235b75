package executor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"voxdesk/internal/nlu"
)

type sentMail struct{ to, subject, body string }

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (f *fakeMailer) From() string { return "me@example.com" }

func (f *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to, subject, body})
	return nil
}

var contacts = map[string]string{"Raj": "raj@example.com", "asha ": "asha@example.com"}

func TestDeterministicSubject(t *testing.T) {
	now := time.Date(2025, 10, 8, 0, 0, 0, 0, time.UTC)

	cases := map[string]string{
		"":                                                           "Message from me@example.com - Oct 08, 2025",
		"   ":                                                        "Message from me@example.com - Oct 08, 2025",
		"the REPORT is done":                                         "The report is done",
		"one two three four five six sev":                            "One two three four five six sev",
		"please review the attached quarterly numbers before friday": "Please review the...",
	}
	for body, want := range cases {
		if got := DeterministicSubject(body, "me@example.com", now); got != want {
			t.Errorf("%q: got %q, want %q", body, got, want)
		}
	}
}

func TestEmail_ResolvesContactsCaseInsensitively(t *testing.T) {
	m := &fakeMailer{}
	e := NewEmail(m, contacts, nil, quietLogger())

	out := e.Handle(context.Background(), nlu.Slots{"to": "RAJ", "body": "hello there", "subject": "Hi"})
	if out != "Email sent to raj@example.com with subject: Hi" {
		t.Errorf("got %q", out)
	}
	if m.sent[0].to != "raj@example.com" {
		t.Errorf("sent to %q", m.sent[0].to)
	}

	if e.Resolve("Asha") != "asha@example.com" {
		t.Errorf("trimmed contact key not resolved")
	}
}

func TestEmail_InvalidRecipient(t *testing.T) {
	m := &fakeMailer{}
	e := NewEmail(m, contacts, nil, quietLogger())

	for _, to := range []string{"Bob", "bob@", "bob@example", "bob smith@example.com"} {
		out := e.Handle(context.Background(), nlu.Slots{"to": to, "body": "x"})
		if !strings.HasPrefix(out, MarkError+" Invalid recipient email") {
			t.Errorf("%q: %q", to, out)
		}
	}
	if len(m.sent) != 0 {
		t.Errorf("mail sent to invalid recipient")
	}

	out := e.Handle(context.Background(), nlu.Slots{"body": "x"})
	if out != MarkError+" No recipient name or email provided." {
		t.Errorf("missing to: %q", out)
	}
}

func TestEmail_SubjectFromGenerator(t *testing.T) {
	m := &fakeMailer{}
	gen := &fakeGenerator{out: "\n  \"Quarterly Report Ready\"\nextra line"}
	e := NewEmail(m, contacts, gen, quietLogger())

	e.Handle(context.Background(), nlu.Slots{"to": "raj", "body": "the quarterly report is ready for review"})

	if m.sent[0].subject != "Quarterly Report Ready" {
		t.Errorf("subject %q", m.sent[0].subject)
	}
	if !strings.Contains(gen.prompts[0], "the quarterly report is ready for review") {
		t.Errorf("prompt should embed the body")
	}
}

func TestEmail_GeneratorFailureFallsBack(t *testing.T) {
	m := &fakeMailer{}
	e := NewEmail(m, contacts, &fakeGenerator{err: errGenDown}, quietLogger())

	e.Handle(context.Background(), nlu.Slots{"to": "raj@example.com", "body": "lunch?"})
	if m.sent[0].subject != "Lunch?" {
		t.Errorf("subject %q", m.sent[0].subject)
	}
}

func TestEmail_EmptyBody(t *testing.T) {
	m := &fakeMailer{}
	e := NewEmail(m, nil, &fakeGenerator{out: "never used"}, quietLogger())
	e.now = func() time.Time { return time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC) }

	e.Handle(context.Background(), nlu.Slots{"to": "raj@example.com"})

	if m.sent[0].body != "No message content." {
		t.Errorf("body %q", m.sent[0].body)
	}
	if m.sent[0].subject != "Message from me@example.com - Jan 02, 2025" {
		t.Errorf("subject %q", m.sent[0].subject)
	}
}

func TestEmail_SendFailure(t *testing.T) {
	e := NewEmail(&fakeMailer{err: errors.New("535 bad credentials")}, nil, nil, quietLogger())
	out := e.Handle(context.Background(), nlu.Slots{"to": "raj@example.com", "body": "x", "subject": "y"})
	if out != MarkError+" Failed to send email: 535 bad credentials" {
		t.Errorf("got %q", out)
	}
}
