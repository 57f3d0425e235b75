// Package gcal wraps the Google Calendar v3 API for the assistant.
package gcal

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
)

// OpenURL shows the consent page to the user, typically in a browser.
type OpenURL func(url string) error

// NewHTTPClient returns an authorized client for the calendar scope. The token
// is loaded from tokenPath; without one the installed-app loopback flow runs
// once and the result is saved. Refreshed tokens are written back.
func NewHTTPClient(ctx context.Context, credentialsPath, tokenPath string, open OpenURL, logger *slog.Logger) (*http.Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	secret, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("reading google credentials %s: %w", credentialsPath, err)
	}

	cfg, err := google.ConfigFromJSON(secret, calendar.CalendarEventsScope)
	if err != nil {
		return nil, fmt.Errorf("parsing google credentials: %w", err)
	}

	tok, err := LoadToken(tokenPath)
	if err != nil {
		logger.Info("no stored calendar token, starting consent flow", "token", tokenPath, "err", err)

		tok, err = Authorize(ctx, cfg, open, logger)
		if err != nil {
			return nil, err
		}
		if err := SaveToken(tokenPath, tok); err != nil {
			return nil, err
		}
	}

	src := &persistingSource{
		base:   cfg.TokenSource(ctx, tok),
		path:   tokenPath,
		last:   tok.AccessToken,
		logger: logger,
	}
	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(tok, src)), nil
}

func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("decoding token %s: %w", path, err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, errors.New("token file holds no credentials")
	}
	return &tok, nil
}

func SaveToken(path string, tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating token dir: %w", err)
	}
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing token %s: %w", path, err)
	}
	return nil
}

type persistingSource struct {
	base   oauth2.TokenSource
	path   string
	logger *slog.Logger

	mu   sync.Mutex
	last string
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := p.base.Token()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if tok.AccessToken != p.last {
		p.last = tok.AccessToken
		if err := SaveToken(p.path, tok); err != nil {
			p.logger.Warn("failed to persist refreshed token", "err", err)
		}
	}
	return tok, nil
}

// Authorize runs the OAuth installed-app flow with a loopback redirect.
func Authorize(ctx context.Context, cfg *oauth2.Config, open OpenURL, logger *slog.Logger) (*oauth2.Token, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("loopback listen: %w", err)
	}
	defer ln.Close()

	flow := *cfg
	flow.RedirectURL = "http://" + ln.Addr().String() + "/"

	state, err := randomState()
	if err != nil {
		return nil, err
	}

	type result struct {
		code string
		err  error
	}
	done := make(chan result, 1)
	deliver := func(r result) {
		select {
		case done <- r:
		default:
		}
	}

	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case q.Get("state") != state:
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		case q.Get("error") != "":
			fmt.Fprintln(w, "Authorization failed. You can close this window.")
			deliver(result{err: fmt.Errorf("authorization denied: %s", q.Get("error"))})
		default:
			fmt.Fprintln(w, "Authorization complete. You can close this window.")
			deliver(result{code: q.Get("code")})
		}
	})}
	go srv.Serve(ln)
	defer srv.Close()

	authURL := flow.AuthCodeURL(state, oauth2.AccessTypeOffline)
	logger.Info("open this URL to authorize calendar access", "url", authURL)
	if open != nil {
		if err := open(authURL); err != nil {
			logger.Warn("could not open browser", "err", err)
		}
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		if res.err != nil {
			return nil, res.err
		}
		tok, err := flow.Exchange(ctx, res.code)
		if err != nil {
			return nil, fmt.Errorf("exchanging auth code: %w", err)
		}
		return tok, nil
	}
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating state: %w", err)
	}
	return hex.EncodeToString(b), nil
}
