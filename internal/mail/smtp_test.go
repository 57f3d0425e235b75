package mail

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"
)

func TestBuildMessage(t *testing.T) {
	now := time.Date(2025, 10, 8, 9, 0, 0, 0, time.UTC)
	msg := string(buildMessage("me@example.com", "raj@example.com", "Report done", "line1\nline2", now))

	for _, want := range []string{
		"From: me@example.com\r\n",
		"To: raj@example.com\r\n",
		"Subject: Report done\r\n",
		"Content-Type: text/plain; charset=UTF-8\r\n",
		"\r\n\r\nline1\r\nline2",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestBuildMessage_EncodesUnicodeSubject(t *testing.T) {
	msg := string(buildMessage("a@b.c", "d@e.f", "Résumé", "", time.Now()))
	if !strings.Contains(msg, "Subject: =?utf-8?q?R=C3=A9sum=C3=A9?=") {
		t.Errorf("subject not Q-encoded:\n%s", msg)
	}
}

func TestSMTPSender_Send(t *testing.T) {
	s := NewSMTPSender("smtp.example.com", 587, "me@example.com", "pw", "")

	var gotAddr, gotFrom string
	var gotTo []string
	var gotAuth smtp.Auth
	s.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotAuth, gotFrom, gotTo = addr, a, from, to
		return nil
	}

	if err := s.Send(context.Background(), "raj@example.com", "Hi", "hello"); err != nil {
		t.Fatal(err)
	}
	if gotAddr != "smtp.example.com:587" {
		t.Errorf("addr: %s", gotAddr)
	}
	if gotFrom != "me@example.com" || len(gotTo) != 1 || gotTo[0] != "raj@example.com" {
		t.Errorf("envelope: from=%s to=%v", gotFrom, gotTo)
	}
	if gotAuth == nil {
		t.Error("expected PLAIN auth with credentials")
	}
}

func TestSMTPSender_SendError(t *testing.T) {
	s := NewSMTPSender("smtp.example.com", 587, "", "", "me@example.com")
	s.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("535 auth failed")
	}

	err := s.Send(context.Background(), "raj@example.com", "Hi", "hello")
	if err == nil || !strings.Contains(err.Error(), "535") {
		t.Fatalf("got %v", err)
	}
}
