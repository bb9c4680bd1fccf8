// Package server exposes the add-on handlers over HTTP for Google Workspace
// add-on deployments.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"mailtothings/internal/addon"
	"mailtothings/internal/gmail"
	"mailtothings/internal/model"
)

const requestIDHeader = "X-Request-Id"

// MailboxOpener returns a mailbox authorized by one event's tokens.
type MailboxOpener func(ctx context.Context, ev *model.Event) (gmail.Mailbox, error)

// OpenEventMailbox authorizes Gmail with the event's user OAuth token and
// per-message access token.
func OpenEventMailbox(ctx context.Context, ev *model.Event) (gmail.Mailbox, error) {
	svc, err := gmail.NewEventService(ctx, ev.AuthorizationEventObject.UserOAuthToken)
	if err != nil {
		return nil, err
	}
	accessToken := ""
	if ev.Gmail != nil {
		accessToken = ev.Gmail.AccessToken
	}
	return gmail.NewMailbox(svc, accessToken), nil
}

type Server struct {
	registry *addon.Registry
	verifier Verifier
	open     MailboxOpener
	logger   *log.Logger
	engine   *gin.Engine
}

func New(registry *addon.Registry, verifier Verifier, open MailboxOpener, logger *log.Logger) *Server {
	s := &Server{
		registry: registry,
		verifier: verifier,
		open:     open,
		logger:   logger,
	}
	s.engine = s.routes()
	return s
}

// Handler returns the HTTP handler serving the add-on.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(requestID(), s.accessLog(), gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.POST("/addon/:handler", s.dispatch)
	return r
}

// dispatch runs one handler for one event and writes its render actions.
func (s *Server) dispatch(c *gin.Context) {
	name := c.Param("handler")
	logger := s.logger.With("request_id", c.GetString("request_id"), "handler", name)

	if !s.registry.Has(name) {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("%v: %q", addon.ErrUnknownHandler, name)})
		return
	}

	var ev model.Event
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event: " + err.Error()})
		return
	}

	ctx := c.Request.Context()
	userID, err := s.verifier.Verify(ctx, bearerToken(c.GetHeader("Authorization")), &ev)
	if err != nil {
		logger.Warn("rejected request", "err", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	mailbox := &lazyMailbox{ev: &ev, open: s.open}
	resp, err := s.registry.Dispatch(ctx, name, &addon.Request{Event: &ev, UserID: userID, Mailbox: mailbox})
	switch {
	case errors.Is(err, addon.ErrUnknownHandler):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	case err != nil:
		logger.Error("handler failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, resp.RenderActions())
}

// lazyMailbox opens the event's mailbox on first use, so handlers that never
// touch Gmail work without a user OAuth token.
type lazyMailbox struct {
	ev   *model.Event
	open MailboxOpener
	once sync.Once
	mb   gmail.Mailbox
	err  error
}

func (l *lazyMailbox) get(ctx context.Context) (gmail.Mailbox, error) {
	l.once.Do(func() {
		l.mb, l.err = l.open(ctx, l.ev)
		if l.err != nil {
			l.err = fmt.Errorf("open mailbox: %w", l.err)
		}
	})
	return l.mb, l.err
}

func (l *lazyMailbox) Message(ctx context.Context, id string) (model.Message, error) {
	mb, err := l.get(ctx)
	if err != nil {
		return model.Message{}, err
	}
	return mb.Message(ctx, id)
}

func (l *lazyMailbox) Send(ctx context.Context, to, subject, body string) error {
	mb, err := l.get(ctx)
	if err != nil {
		return err
	}
	return mb.Send(ctx, to, subject, body)
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

// requestID tags each request with an id, reusing one supplied by a proxy.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"request_id", c.GetString("request_id"),
		)
	}
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
// within shutdownTimeout.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
