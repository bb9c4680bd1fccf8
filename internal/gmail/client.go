package gmail

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailv1 "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// Scopes requested by the terminal client: read the selected message and send
// the to-do e-mail.
var Scopes = []string{
	gmailv1.GmailReadonlyScope,
	gmailv1.GmailSendScope,
}

// TokenCache persists the terminal client's OAuth token between runs.
type TokenCache interface {
	Load() (*oauth2.Token, error)
	Save(tok *oauth2.Token) error
	Clear() error
}

// NewEventService builds a Gmail service authorized with the OAuth token the
// add-on host attached to one event. It is only good for that event.
func NewEventService(ctx context.Context, userOAuthToken string) (*gmailv1.Service, error) {
	if userOAuthToken == "" {
		return nil, errors.New("event carries no user OAuth token")
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: userOAuthToken, TokenType: "Bearer"})
	svc, err := gmailv1.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	return svc, nil
}

// NewService initializes an OAuth-backed Gmail service using the client
// credentials at <configDir>/client_secret.json, prompting on stderr when no
// valid token is cached.
func NewService(ctx context.Context, configDir string, cache TokenCache) (*gmailv1.Service, error) {
	return NewServiceInteractive(ctx, configDir, cache, nil, nil)
}

// NewServiceInteractive initializes a Gmail service, using the provided channels
// for interactive authentication if needed.
func NewServiceInteractive(ctx context.Context, configDir string, cache TokenCache, uiEvents chan<- interface{}, userResponses <-chan string) (*gmailv1.Service, error) {
	credPath := filepath.Join(configDir, "client_secret.json")
	b, err := os.ReadFile(credPath)
	if err != nil {
		return nil, fmt.Errorf("read credentials at %s: %w", credPath, err)
	}

	cfg, err := google.ConfigFromJSON(b, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("parse oauth config: %w", err)
	}

	tok, err := cache.Load()
	if err == nil {
		// Validate the cached token by making a lightweight API call.
		svc, err := gmailv1.NewService(ctx, option.WithHTTPClient(cfg.Client(ctx, tok)))
		if err == nil {
			_, err = svc.Users.GetProfile("me").Context(ctx).Do()
		}
		if err == nil {
			return svc, nil
		}
		// Token is invalid or expired; drop it and re-authorize.
		_ = cache.Clear()
	}

	tok, err = getTokenFromWeb(ctx, cfg, uiEvents, userResponses)
	if err != nil {
		return nil, err
	}
	if err := cache.Save(tok); err != nil {
		return nil, err
	}

	svc, err := gmailv1.NewService(ctx, option.WithHTTPClient(cfg.Client(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	return svc, nil
}

// Profile returns the authenticated mailbox address.
func Profile(ctx context.Context, svc *gmailv1.Service) (string, error) {
	p, err := svc.Users.GetProfile("me").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("get profile: %w", err)
	}
	return p.EmailAddress, nil
}

func getTokenFromWeb(ctx context.Context, cfg *oauth2.Config, uiEvents chan<- interface{}, userResponses <-chan string) (*oauth2.Token, error) {
	if uiEvents != nil && userResponses != nil {
		return getTokenFromWebInteractive(ctx, cfg, uiEvents, userResponses)
	}
	return getTokenFromWebCLI(ctx, cfg)
}

// loopback serves a one-shot redirect target on a random localhost port and
// delivers the received auth code on codes.
type loopback struct {
	srv      *http.Server
	redirect string
	codes    chan string
}

func startLoopback() (*loopback, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("listen on loopback: %w", err)
	}
	lb := &loopback{
		redirect: fmt.Sprintf("http://127.0.0.1:%d/", ln.Addr().(*net.TCPAddr).Port),
		codes:    make(chan string, 1),
	}
	mux := http.NewServeMux()
	lb.srv = &http.Server{
		ReadHeaderTimeout: 5 * time.Second,
		Handler:           mux,
	}
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "Missing 'code' parameter", http.StatusBadRequest)
			return
		}
		fmt.Fprintln(w, "Authentication complete. You can close this window.")
		select {
		case lb.codes <- code:
		default:
		}
		go func() { _ = lb.srv.Shutdown(context.Background()) }()
	})
	go func() { _ = lb.srv.Serve(ln) }()
	return lb, nil
}

func (lb *loopback) close() {
	_ = lb.srv.Shutdown(context.Background())
}

// getTokenFromWebInteractive sends the auth URL to the UI and waits for the
// loopback redirect or a code pasted by the user.
func getTokenFromWebInteractive(ctx context.Context, cfg *oauth2.Config, uiEvents chan<- interface{}, userResponses <-chan string) (*oauth2.Token, error) {
	lb, err := startLoopback()
	if err != nil {
		return nil, err
	}
	oldRedirect := cfg.RedirectURL
	cfg.RedirectURL = lb.redirect
	defer func() { cfg.RedirectURL = oldRedirect }()

	uiEvents <- cfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline, oauth2.ApprovalForce)

	var code string
	select {
	case <-ctx.Done():
		lb.close()
		return nil, ctx.Err()
	case code = <-lb.codes:
	case input := <-userResponses:
		lb.close()
		code, err = codeFromInput(input)
		if err != nil {
			return nil, err
		}
	}
	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("token exchange: %w", err)
	}
	return tok, nil
}

// getTokenFromWebCLI waits for the loopback redirect and falls back to a
// code pasted on stdin after two minutes.
func getTokenFromWebCLI(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
	if lb, err := startLoopback(); err == nil {
		oldRedirect := cfg.RedirectURL
		cfg.RedirectURL = lb.redirect

		authURL := cfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
		fmt.Fprintln(os.Stderr, "A browser window will open. If it does not, copy this URL:")
		fmt.Fprintln(os.Stderr, authURL)
		fmt.Fprintf(os.Stderr, "Waiting for redirect on %s …\n", lb.redirect)

		select {
		case <-ctx.Done():
			lb.close()
			cfg.RedirectURL = oldRedirect
			return nil, ctx.Err()
		case code := <-lb.codes:
			fmt.Fprintln(os.Stderr, "Exchanging code for token…")
			tok, err := cfg.Exchange(ctx, code)
			// Restore redirect only after the exchange to avoid invalid_grant.
			cfg.RedirectURL = oldRedirect
			if err != nil {
				return nil, fmt.Errorf("token exchange: %w", err)
			}
			fmt.Fprintln(os.Stderr, "Authentication successful.")
			return tok, nil
		case <-time.After(120 * time.Second):
			lb.close()
			cfg.RedirectURL = oldRedirect
			fmt.Fprintln(os.Stderr, "Timeout waiting for redirect; falling back to manual paste.")
		}
	}

	authURL := cfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	fmt.Fprintln(os.Stderr, "Open this URL in your browser to authorize mailtothings:")
	fmt.Fprintln(os.Stderr, authURL)
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Paste the AUTH CODE itself or the FULL redirect URL here, then press Enter.")
	fmt.Fprint(os.Stderr, "> ")

	sc := bufio.NewScanner(os.Stdin)
	sc.Buffer(make([]byte, 0, 1024), 1024*1024)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("read auth code: %w", err)
		}
		return nil, errors.New("empty authorization code")
	}
	code, err := codeFromInput(sc.Text())
	if err != nil {
		return nil, err
	}

	fmt.Fprintln(os.Stderr, "Exchanging code for token…")
	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("token exchange: %w", err)
	}
	fmt.Fprintln(os.Stderr, "Authentication successful.")
	return tok, nil
}

// codeFromInput accepts either a bare auth code or the full redirect URL.
func codeFromInput(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", errors.New("empty authorization code")
	}
	if !strings.HasPrefix(input, "http://") && !strings.HasPrefix(input, "https://") {
		return input, nil
	}
	u, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("parse redirect URL: %w", err)
	}
	c := u.Query().Get("code")
	if c == "" {
		return "", errors.New("no 'code' parameter found in pasted URL")
	}
	return c, nil
}
