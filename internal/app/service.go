package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/haytac/emote-relay/internal/api"
	"github.com/haytac/emote-relay/internal/config"
	"github.com/haytac/emote-relay/internal/database"
	"github.com/haytac/emote-relay/internal/emote"
	"github.com/haytac/emote-relay/internal/formatter"
	"github.com/haytac/emote-relay/internal/metrics"
	"github.com/haytac/emote-relay/internal/telegram"
	"github.com/haytac/emote-relay/pkg/interfaces"
)

// Service implements the channel operations of the HTTP API on top of the
// channel registry and the in-memory sessions.
type Service struct {
	cfg       *config.AppConfig
	channels  *database.ChannelStore
	proxies   *database.ProxyStore
	clients   interfaces.HTTPClientFactory
	notifier  interfaces.Notifier
	formatter *formatter.Formatter
	sessions  *SessionManager

	// Endpoints overrides the catalog endpoints of new sessions when set.
	Endpoints emote.Endpoints
}

var _ api.Backend = (*Service)(nil)

// NewService creates a Service.
func NewService(
	cfg *config.AppConfig,
	channels *database.ChannelStore,
	proxies *database.ProxyStore,
	clients interfaces.HTTPClientFactory,
	notifier interfaces.Notifier,
	f *formatter.Formatter,
) *Service {
	return &Service{
		cfg:       cfg,
		channels:  channels,
		proxies:   proxies,
		clients:   clients,
		notifier:  notifier,
		formatter: f,
		sessions:  NewSessionManager(),
	}
}

// Sessions exposes the session manager.
func (s *Service) Sessions() *SessionManager { return s.sessions }

func (s *Service) channel(ctx context.Context, name string) (*database.Channel, error) {
	c, err := s.channels.GetChannelByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("channel %q: %w", name, api.ErrUnknownChannel)
	}
	if !c.IsEnabled {
		return nil, fmt.Errorf("channel %q is disabled: %w", name, api.ErrUnknownChannel)
	}
	return c, nil
}

// proxyFor returns the channel's proxy, or the default proxy of the given kind.
func (s *Service) proxyFor(ctx context.Context, c *database.Channel, kind string) *database.Proxy {
	if c.Proxy != nil {
		return c.Proxy
	}
	p, err := s.proxies.GetDefaultProxy(ctx, kind)
	if err != nil {
		log.Warn().Err(err).Str("kind", kind).Msg("Failed to get default proxy")
		return nil
	}
	if p != nil {
		log.Debug().Str("proxy_name", p.Name).Str("kind", kind).Msg("Using default proxy")
	}
	return p
}

func (s *Service) newLoader(c *database.Channel) (*emote.Loader, error) {
	client, err := s.clients.GetClient(s.proxyFor(context.Background(), c, database.ProxyForCatalogs))
	if err != nil {
		return nil, fmt.Errorf("building catalog client for %s: %w", c.Name, err)
	}
	l := emote.NewLoader(client)
	if s.cfg.Emotes.UserAgent != "" {
		l.UserAgent = s.cfg.Emotes.UserAgent
	}
	if s.Endpoints != nil {
		l.Endpoints = s.Endpoints
	}
	return l, nil
}

// applySize sets the channel's stored size on the session, falling back to
// the configured default.
func (s *Service) applySize(sess *emote.Session, c *database.Channel) {
	if err := sess.SetSize(emote.Size(c.RenderSize)); err == nil {
		return
	}
	if err := sess.SetSize(emote.Size(s.cfg.Emotes.DefaultSize)); err != nil {
		log.Warn().Int("default_size", s.cfg.Emotes.DefaultSize).Msg("Configured default size is invalid, keeping session size")
	}
}

// session returns the channel's session. A new session starts loading its
// catalogs in the background.
func (s *Service) session(c *database.Channel) (*emote.Session, error) {
	sess, created, err := s.sessions.GetOrCreate(c, s.newLoader)
	if err != nil {
		return nil, err
	}
	if created {
		s.applySize(sess, c)
		go s.Refresh(c)
	}
	return sess, nil
}

// Session returns the session of an enabled channel, creating it on demand.
func (s *Service) Session(ctx context.Context, name string) (*emote.Session, error) {
	c, err := s.channel(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.session(c)
}

// Render substitutes emotes in message and post-processes the markup.
func (s *Service) Render(ctx context.Context, name, message string, tags emote.TagRanges) (string, error) {
	sess, err := s.Session(ctx, name)
	if err != nil {
		return "", err
	}
	return s.formatter.Format(sess.Render(message, tags)), nil
}

// Strip removes every recognized emote from message.
func (s *Service) Strip(ctx context.Context, name, message string, tags emote.TagRanges) (string, error) {
	sess, err := s.Session(ctx, name)
	if err != nil {
		return "", err
	}
	return sess.StripAll(message, tags), nil
}

// SetSize persists a channel's render size and applies it to its session.
func (s *Service) SetSize(ctx context.Context, name string, size emote.Size) error {
	if !size.Valid() {
		return fmt.Errorf("%w: %d", emote.ErrInvalidSize, size)
	}
	c, err := s.channel(ctx, name)
	if err != nil {
		return err
	}
	if err := s.channels.UpdateRenderSize(ctx, c.ID, int(size)); err != nil {
		return err
	}
	if sess, ok := s.sessions.Get(name); ok {
		return sess.SetSize(size)
	}
	return nil
}

// Emotes lists the tables of a channel's session.
func (s *Service) Emotes(ctx context.Context, name string) (*api.EmoteListing, error) {
	sess, err := s.Session(ctx, name)
	if err != nil {
		return nil, err
	}
	listing := &api.EmoteListing{
		Channel: name,
		Size:    int(sess.Size()),
		Emotes:  make(map[string]map[string]string, len(emote.CatalogProviders)),
	}
	for _, p := range emote.CatalogProviders {
		listing.Emotes[p.String()] = sess.Store().Table(p)
	}
	return listing, nil
}

// Relay strips message and sends what is left to the channel's Telegram chat.
// It returns the relayed text, which is empty when nothing was sent.
func (s *Service) Relay(ctx context.Context, name, message string, tags emote.TagRanges) (string, error) {
	c, err := s.channel(ctx, name)
	if err != nil {
		return "", err
	}
	if c.TelegramChatID == nil || *c.TelegramChatID == "" {
		return "", fmt.Errorf("channel %q: %w", name, api.ErrNoRelayTarget)
	}
	sess, err := s.session(c)
	if err != nil {
		return "", err
	}

	text := sess.StripAll(message, tags)
	l := log.With().Str("channel", name).Str("chat_id", *c.TelegramChatID).Logger()
	if text == "" {
		l.Debug().Msg("Message is empty after stripping emotes, not relaying")
		metrics.RelayCalls.WithLabelValues(s.notifier.Name(), "skipped").Inc()
		return "", nil
	}
	if s.cfg.DryRun {
		l.Info().Str("text", text).Msg("[DRY RUN] Would relay message")
		metrics.RelayCalls.WithLabelValues(s.notifier.Name(), "skipped").Inc()
		return text, nil
	}

	parts := telegram.SplitMessage(text, "")
	if err := s.notifier.Send(ctx, *c.TelegramChatID, parts, s.proxyFor(ctx, c, database.ProxyForTelegram)); err != nil {
		metrics.RelayCalls.WithLabelValues(s.notifier.Name(), "error").Inc()
		return "", fmt.Errorf("relaying message for %s: %w", name, err)
	}
	metrics.RelayCalls.WithLabelValues(s.notifier.Name(), "success").Inc()
	return text, nil
}
