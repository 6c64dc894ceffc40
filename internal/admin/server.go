package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mediarise/referralbot/internal/service"
)

// Broadcaster delivers a plain message to a Telegram chat. The bot satisfies
// it; tests substitute a fake.
type Broadcaster interface {
	SendMessage(chatID int64, text string) error
}

type Server struct {
	addr     string
	username string
	password string
	log      *slog.Logger
	ledger   *service.LedgerService
	channels *service.ChannelService
	settings *service.SettingsService
	sender   Broadcaster
	router   *chi.Mux
}

func NewServer(addr, username, password string, log *slog.Logger, ledger *service.LedgerService, channels *service.ChannelService, settings *service.SettingsService, sender Broadcaster) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	s := &Server{
		addr:     addr,
		username: username,
		password: password,
		log:      log,
		ledger:   ledger,
		channels: channels,
		settings: settings,
		sender:   sender,
		router:   r,
	}
	r.Group(func(protected chi.Router) {
		protected.Use(s.basicAuthMiddleware())
		protected.Post("/broadcast", s.handleBroadcast)
		protected.Get("/stats", s.handleStats)
		protected.Route("/channels", func(r chi.Router) {
			r.Get("/", s.handleListChannels)
			r.Post("/", s.handleAddChannel)
			r.Delete("/{channelID}", s.handleRemoveChannel)
		})
		protected.Route("/users/{id}", func(r chi.Router) {
			r.Get("/referrals", s.handleUserReferrals)
			r.Get("/redemptions", s.handleUserRedemptions)
		})
		protected.Get("/referral-codes/{code}", s.handleResolveReferralCode)
		protected.Route("/settings", func(r chi.Router) {
			r.Get("/start-message", s.handleGetStartMessage)
			r.Put("/start-message", s.handleSetStartMessage)
			r.Get("/log-channel", s.handleGetLogChannel)
			r.Put("/log-channel", s.handleSetLogChannel)
		})
	})
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Error("admin shutdown error", "err", err)
		}
	}()

	s.log.Info("admin panel listening", "addr", s.addr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("admin listen: %w", err)
	}
	return nil
}

type broadcastRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleBroadcast(w http.ResponseWriter, r *http.Request) {
	var req broadcastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		http.Error(w, "message required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	ids, err := s.ledger.ListUserIDs(ctx)
	if err != nil {
		s.internalError(w, err)
		return
	}

	sent, failed := 0, 0
	for _, id := range ids {
		if err := s.sender.SendMessage(id, req.Message); err != nil {
			s.log.Error("send broadcast", "user", id, "err", err)
			failed++
			continue
		}
		sent++
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"sent":   sent,
		"failed": failed,
		"total":  len(ids),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.ledger.Stats(r.Context())
	if err != nil {
		s.internalError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"total_users":       stats.TotalUsers,
		"total_referrals":   stats.TotalReferrals,
		"total_redemptions": stats.TotalRedemptions,
	})
}

func (s *Server) handleListChannels(w http.ResponseWriter, r *http.Request) {
	channels, err := s.channels.List(r.Context())
	if err != nil {
		s.internalError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, channels)
}

type channelRequest struct {
	ChannelID string `json:"channel_id"`
	Title     string `json:"title"`
	JoinLink  string `json:"join_link"`
}

func (s *Server) handleAddChannel(w http.ResponseWriter, r *http.Request) {
	var req channelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.ChannelID == "" || req.Title == "" {
		http.Error(w, "channel_id and title required", http.StatusBadRequest)
		return
	}
	ch, err := s.channels.Add(r.Context(), req.ChannelID, req.Title, req.JoinLink)
	if err != nil {
		if errors.Is(err, service.ErrChannelExists) {
			http.Error(w, "channel already exists", http.StatusConflict)
			return
		}
		s.badRequest(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, ch)
}

func (s *Server) handleRemoveChannel(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "channelID")
	if err := s.channels.Remove(r.Context(), channelID); err != nil {
		if errors.Is(err, service.ErrChannelNotFound) {
			http.Error(w, "channel not found", http.StatusNotFound)
			return
		}
		s.internalError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUserReferrals(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	refs, err := s.ledger.Referrals(r.Context(), id)
	if err != nil {
		s.internalError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, refs)
}

func (s *Server) handleUserRedemptions(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	reds, err := s.ledger.Redemptions(r.Context(), id)
	if err != nil {
		s.internalError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, reds)
}

func (s *Server) handleResolveReferralCode(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	user, err := s.ledger.ResolveReferralCode(r.Context(), code)
	if err != nil {
		s.internalError(w, err)
		return
	}
	if user == nil {
		http.Error(w, "unknown referral code", http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int64{"user_id": user.ID})
}

type startMessageRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleGetStartMessage(w http.ResponseWriter, r *http.Request) {
	message, err := s.settings.StartMessage(r.Context())
	if err != nil {
		s.internalError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"message": message})
}

func (s *Server) handleSetStartMessage(w http.ResponseWriter, r *http.Request) {
	var req startMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		http.Error(w, "message required", http.StatusBadRequest)
		return
	}
	if err := s.settings.SetStartMessage(r.Context(), req.Message); err != nil {
		s.internalError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type logChannelRequest struct {
	ChannelID int64 `json:"channel_id"`
}

func (s *Server) handleGetLogChannel(w http.ResponseWriter, r *http.Request) {
	id, err := s.settings.LogChannel(r.Context())
	if err != nil {
		s.internalError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int64{"channel_id": id})
}

func (s *Server) handleSetLogChannel(w http.ResponseWriter, r *http.Request) {
	var req logChannelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.ChannelID == 0 {
		http.Error(w, "channel_id required", http.StatusBadRequest)
		return
	}
	if err := s.settings.SetLogChannel(r.Context(), req.ChannelID); err != nil {
		s.internalError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) basicAuthMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok || user != s.username || pass != s.password {
				w.Header().Set("WWW-Authenticate", `Basic realm="referralbot"`)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) badRequest(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), http.StatusBadRequest)
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	s.log.Error("admin handler error", "err", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func parseID(value string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(value), 10, 64)
}
