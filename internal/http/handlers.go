package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"swasthyasathi/internal/core"
	"swasthyasathi/internal/whatsapp"
	"swasthyasathi/pkg"
)

const maxWebhookBody = 1 << 20

// MessageHandler consumes parsed inbound messages.  core.Dispatcher
// implements it.
type MessageHandler interface {
	Handle(ctx context.Context, msg pkg.InboundMessage)
}

// UserReader backs the admin read API.  db.Repository implements it.
type UserReader interface {
	Get(ctx context.Context, phone string) (*pkg.UserProfile, error)
	GetChatLogs(ctx context.Context, userID string, limit int) ([]pkg.ChatLogEntry, error)
}

// Options configures a Server.  Users and AdminToken are optional; the admin
// routes are only mounted when both are set.
type Options struct {
	Messages    MessageHandler
	Users       UserReader
	VerifyToken string
	AppSecret   string
	AdminToken  string
	Logger      *zap.Logger
}

// Server bundles together the dependencies required by HTTP handlers.  It
// implements http.Handler so it can be passed to an http.Server.
type Server struct {
	messages    MessageHandler
	users       UserReader
	verifyToken string
	appSecret   string
	adminToken  string
	logger      *zap.Logger
	router      chi.Router

	// background dispatch
	baseCtx  context.Context
	cancel   context.CancelFunc
	mu       sync.Mutex
	draining bool
	inflight sync.WaitGroup
}

func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		messages:    opts.Messages,
		users:       opts.Users,
		verifyToken: opts.VerifyToken,
		appSecret:   opts.AppSecret,
		adminToken:  opts.AdminToken,
		logger:      logger,
		baseCtx:     ctx,
		cancel:      cancel,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	applyMiddlewares(r, s.logger)

	r.Get("/healthz", s.Health)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/webhook", s.VerifyWebhook)
	r.Post("/webhook", s.ReceiveWebhook)

	if s.users != nil && s.adminToken != "" {
		r.Route("/api/users/{phone}", func(r chi.Router) {
			r.Use(adminAuth(s.adminToken))
			r.Get("/", s.GetUser)
			r.Get("/chat-logs", s.GetChatLogs)
		})
	}
	return r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// VerifyWebhook answers the subscription handshake by echoing hub.challenge.
func (s *Server) VerifyWebhook(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("hub.mode") == "subscribe" && s.verifyToken != "" && q.Get("hub.verify_token") == s.verifyToken {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, q.Get("hub.challenge"))
		return
	}
	s.logger.Warn("webhook verification rejected", zap.String("mode", q.Get("hub.mode")))
	w.WriteHeader(http.StatusForbidden)
}

// ReceiveWebhook acknowledges a delivery immediately and handles its messages
// in the background.
func (s *Server) ReceiveWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}
	if s.appSecret != "" {
		if err := whatsapp.VerifySignature(s.appSecret, body, r.Header.Get(whatsapp.SignatureHeader)); err != nil {
			s.logger.Warn("webhook signature mismatch", zap.String("remote", r.RemoteAddr))
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
	}
	msgs, err := whatsapp.ParseWebhook(body)
	if err != nil {
		s.logger.Warn("malformed webhook payload", zap.Error(err))
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if len(msgs) > 0 && !s.dispatch(msgs) {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// dispatch hands one delivery to a goroutine.  Messages within a delivery keep
// their order.  It reports false once Shutdown has started.
func (s *Server) dispatch(msgs []pkg.InboundMessage) bool {
	s.mu.Lock()
	if s.draining {
		s.mu.Unlock()
		return false
	}
	s.inflight.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.inflight.Done()
		for _, m := range msgs {
			s.messages.Handle(s.baseCtx, m)
		}
	}()
	return true
}

// Shutdown stops accepting deliveries and waits for in-flight ones.  When ctx
// expires first, their context is cancelled.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.draining = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.cancel()
		return nil
	case <-ctx.Done():
		s.cancel()
		<-done
		return ctx.Err()
	}
}

// GetUser returns the stored profile as JSON.
func (s *Server) GetUser(w http.ResponseWriter, r *http.Request) {
	p, err := s.users.Get(r.Context(), chi.URLParam(r, "phone"))
	if errors.Is(err, core.ErrProfileNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
		return
	}
	if err != nil {
		s.logger.Error("admin get user failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// GetChatLogs returns the most recent chat log entries, oldest first.
func (s *Server) GetChatLogs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be between 1 and 500"})
			return
		}
		limit = n
	}
	logs, err := s.users.GetChatLogs(r.Context(), chi.URLParam(r, "phone"), limit)
	if err != nil {
		s.logger.Error("admin get chat logs failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if logs == nil {
		logs = []pkg.ChatLogEntry{}
	}
	writeJSON(w, http.StatusOK, logs)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
