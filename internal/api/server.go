package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/haytac/emote-relay/internal/emote"
	"github.com/haytac/emote-relay/internal/logging"
	"github.com/haytac/emote-relay/internal/metrics"
)

const maxBodyBytes = 64 << 10

var (
	// ErrUnknownChannel is returned by a Backend for channels that are not registered or are disabled.
	ErrUnknownChannel = errors.New("unknown channel")
	// ErrNoRelayTarget is returned by Relay when the channel has no Telegram chat.
	ErrNoRelayTarget = errors.New("channel has no relay target")
)

// EmoteListing describes the tables of one channel.
type EmoteListing struct {
	Channel string                       `json:"channel"`
	Size    int                          `json:"size"`
	Emotes  map[string]map[string]string `json:"emotes"`
}

// Backend performs the channel operations behind the HTTP routes.
type Backend interface {
	Render(ctx context.Context, channel, message string, tags emote.TagRanges) (string, error)
	Strip(ctx context.Context, channel, message string, tags emote.TagRanges) (string, error)
	SetSize(ctx context.Context, channel string, size emote.Size) error
	Emotes(ctx context.Context, channel string) (*EmoteListing, error)
	Relay(ctx context.Context, channel, message string, tags emote.TagRanges) (string, error)
}

// MessageRequest is the body of render, strip and relay calls. Tags takes the
// map form; EmotesTag takes the raw IRC emotes tag and is used when Tags is empty.
type MessageRequest struct {
	Message   string              `json:"message"`
	Tags      map[string][]string `json:"tags,omitempty"`
	EmotesTag string              `json:"emotes_tag,omitempty"`
}

func (r MessageRequest) tagRanges() emote.TagRanges {
	if len(r.Tags) > 0 {
		return emote.TagRanges(r.Tags)
	}
	return emote.ParseEmotesTag(r.EmotesTag)
}

// SizeRequest is the body of a size change.
type SizeRequest struct {
	Size int `json:"size"`
}

type messageResponse struct {
	Channel string `json:"channel"`
	Result  string `json:"result"`
}

type relayResponse struct {
	Channel string `json:"channel"`
	Sent    bool   `json:"sent"`
	Text    string `json:"text"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server exposes a Backend over HTTP.
type Server struct {
	backend Backend
	router  chi.Router
	http    *http.Server
}

// NewServer builds the router for backend.
func NewServer(backend Backend) *Server {
	s := &Server{backend: backend}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", metrics.Handler())

	r.Route("/channels/{channel}", func(r chi.Router) {
		r.Post("/render", s.handleRender)
		r.Post("/strip", s.handleStrip)
		r.Put("/size", s.handleSize)
		r.Get("/emotes", s.handleEmotes)
		r.Post("/relay", s.handleRelay)
	})

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start listens on addr in the background.
func (s *Server) Start(addr string) {
	if addr == "" {
		log.Info().Msg("API listen address not configured, HTTP API will not be available.")
		return
	}
	s.http = &http.Server{Addr: addr, Handler: s, ReadHeaderTimeout: 10 * time.Second}

	log.Info().Str("address", addr).Msg("Starting HTTP API server")
	go func() {
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP API server failed")
		}
	}()
}

// Shutdown stops a server started with Start.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	s.handleMessage(w, r, s.backend.Render)
}

func (s *Server) handleStrip(w http.ResponseWriter, r *http.Request) {
	s.handleMessage(w, r, s.backend.Strip)
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, channel, message string, tags emote.TagRanges) (string, error),
) {
	channel := chi.URLParam(r, "channel")
	var req MessageRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := op(r.Context(), channel, req.Message, req.tagRanges())
	if err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Channel: channel, Result: result})
}

func (s *Server) handleSize(w http.ResponseWriter, r *http.Request) {
	channel := chi.URLParam(r, "channel")
	var req SizeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.backend.SetSize(r.Context(), channel, emote.Size(req.Size)); err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SizeRequest{Size: req.Size})
}

func (s *Server) handleEmotes(w http.ResponseWriter, r *http.Request) {
	listing, err := s.backend.Emotes(r.Context(), chi.URLParam(r, "channel"))
	if err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (s *Server) handleRelay(w http.ResponseWriter, r *http.Request) {
	channel := chi.URLParam(r, "channel")
	var req MessageRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	text, err := s.backend.Relay(r.Context(), channel, req.Message, req.tagRanges())
	if err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, relayResponse{Channel: channel, Sent: text != "", Text: text})
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.New("invalid request body: " + err.Error())
	}
	return nil
}

func writeBackendError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnknownChannel):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, emote.ErrInvalidSize):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, ErrNoRelayTarget):
		writeError(w, http.StatusConflict, err)
	default:
		log.Error().Err(err).Msg("API request failed")
		writeError(w, http.StatusInternalServerError, err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("Failed to write API response")
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		l := logging.Component("api")
		l.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("API request")
	})
}
