package emote

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/haytac/emote-relay/internal/metrics"
)

// ErrInvalidSize is returned by SetSize for sizes outside 1-3.
var ErrInvalidSize = errors.New("invalid render size")

// Session holds the emote tables of one channel and renders its messages.
type Session struct {
	UserID  string // platform user id, scopes 7TV and BTTV
	Channel string // channel name, scopes FFZ

	store  *Store
	loader *Loader
	size   atomic.Int32
}

// NewSession creates a session with empty tables. loader may be nil when
// tables are only fed through Merge.
func NewSession(userID, channel string, loader *Loader) *Session {
	s := &Session{
		UserID:  userID,
		Channel: channel,
		store:   NewStore(),
		loader:  loader,
	}
	s.size.Store(int32(DefaultSize))
	return s
}

// Store exposes the session's tables.
func (s *Session) Store() *Store { return s.store }

// Size returns the current render size.
func (s *Session) Size() Size { return Size(s.size.Load()) }

// SetSize changes the size used by later renders. Tables are not touched.
func (s *Session) SetSize(size Size) error {
	if !size.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	s.size.Store(int32(size))
	return nil
}

// Merge folds entries into a provider's table.
func (s *Session) Merge(p Provider, entries []Entry) error {
	n, err := s.store.Merge(p, entries)
	if err != nil {
		return err
	}
	metrics.EmoteTableSize.WithLabelValues(s.Channel, p.String()).Set(float64(n))
	return nil
}

// ResolveNative replaces the words of message declared in tags, or removes
// them when purge is set.
func (s *Session) ResolveNative(message string, tags TagRanges, purge bool) string {
	tokens := tokenize(message)
	resolveNative(tokens, tags, purge, s.Size())
	return join(tokens)
}

// Render replaces native emotes and then 7TV, FFZ and BTTV names with image
// references. Earlier providers win when a name is in several catalogs.
func (s *Session) Render(message string, tags TagRanges) string {
	size := s.Size()
	tokens := tokenize(message)
	resolveNative(tokens, tags, false, size)
	for _, p := range CatalogProviders {
		resolveCatalog(tokens, p, s.store.snapshot(p), false, size)
	}
	metrics.MessagesRendered.WithLabelValues(s.Channel, "render").Inc()
	return join(tokens)
}

// StripAll removes every recognized emote and trims surrounding whitespace.
func (s *Session) StripAll(message string, tags TagRanges) string {
	tokens := tokenize(message)
	resolveNative(tokens, tags, true, 0)
	for _, p := range stripOrder {
		resolveCatalog(tokens, p, s.store.snapshot(p), true, 0)
	}
	metrics.MessagesRendered.WithLabelValues(s.Channel, "strip").Inc()
	return strings.TrimSpace(join(tokens))
}

// Load starts one task per catalog variant and returns immediately. Each
// completed task merges into its provider's table; failures are logged and
// leave the table unchanged.
func (s *Session) Load(ctx context.Context) []*LoadTask {
	all := Catalogs()
	tasks := make([]*LoadTask, 0, len(all))
	for _, c := range all {
		t := &LoadTask{Catalog: c, done: make(chan struct{})}
		tasks = append(tasks, t)
		go s.run(ctx, t)
	}
	return tasks
}

func (s *Session) identifier(p Provider) string {
	if p == FFZ {
		return s.Channel
	}
	return s.UserID
}

func (s *Session) run(ctx context.Context, t *LoadTask) {
	defer close(t.done)

	l := log.With().Str("channel", s.Channel).Str("catalog", t.Catalog.String()).Logger()
	if s.loader == nil {
		t.err = errors.New("session has no loader")
		return
	}

	entries, err := s.loader.Fetch(ctx, t.Catalog, s.identifier(t.Catalog.Provider))
	if err != nil {
		t.err = err
		l.Warn().Err(err).Msg("Failed to load emote catalog")
		metrics.CatalogLoads.WithLabelValues(t.Catalog.Provider.String(), t.Catalog.Scope.String(), "error").Inc()
		return
	}
	if err := s.Merge(t.Catalog.Provider, entries); err != nil {
		t.err = err
		l.Error().Err(err).Msg("Failed to merge emote catalog")
		return
	}
	t.count = len(entries)
	l.Debug().Int("emotes", len(entries)).Msg("Emote catalog loaded")
	metrics.CatalogLoads.WithLabelValues(t.Catalog.Provider.String(), t.Catalog.Scope.String(), "success").Inc()
}

// LoadTask is the outcome of loading one catalog variant.
type LoadTask struct {
	Catalog Catalog

	done  chan struct{}
	err   error
	count int
}

// Done is closed when the load has finished.
func (t *LoadTask) Done() <-chan struct{} { return t.done }

// Wait blocks until the load finishes or ctx ends.
func (t *LoadTask) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the load error, or nil while the load is running.
func (t *LoadTask) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Count returns the number of entries merged, or 0 while the load is running.
func (t *LoadTask) Count() int {
	select {
	case <-t.done:
		return t.count
	default:
		return 0
	}
}

// WaitAll waits for every task and joins their errors.
func WaitAll(ctx context.Context, tasks []*LoadTask) error {
	var errs []error
	for _, t := range tasks {
		if err := t.Wait(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", t.Catalog, err))
		}
	}
	return errors.Join(errs...)
}
