package app

import (
	"context"
	"time"

	"github.com/haytac/emote-relay/internal/database"
	"github.com/haytac/emote-relay/internal/emote"
	"github.com/haytac/emote-relay/internal/logging"
)

const (
	defaultLoadTimeout = 30 * time.Second
	dbTimeout          = 10 * time.Second
)

// Refresh loads every catalog of a channel into its session. It is the
// scheduler task for each registered channel.
func (s *Service) Refresh(scheduled *database.Channel) {
	l := logging.Component("refresh").With().Int64("channel_id", scheduled.ID).Str("channel", scheduled.Name).Logger()

	dbCtx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	// Reload so CLI changes made since scheduling take effect.
	c, err := s.channels.GetChannelByID(dbCtx, scheduled.ID)
	if err != nil {
		l.Error().Err(err).Msg("Failed to reload channel details from DB")
		return
	}
	if c == nil || !c.IsEnabled {
		l.Info().Msg("Channel no longer exists or is disabled, dropping its session")
		s.sessions.Remove(scheduled.Name)
		return
	}

	sess, created, err := s.sessions.GetOrCreate(c, s.newLoader)
	if err != nil {
		l.Error().Err(err).Msg("Failed to create channel session")
		return
	}
	if created || sess.Size() != emote.Size(c.RenderSize) {
		s.applySize(sess, c)
	}

	timeout := s.cfg.Emotes.LoadTimeout()
	if timeout <= 0 {
		timeout = defaultLoadTimeout
	}
	loadCtx, cancelLoad := context.WithTimeout(context.Background(), timeout)
	defer cancelLoad()

	l.Info().Msg("Loading emote catalogs")
	tasks := sess.Load(loadCtx)
	waitErr := emote.WaitAll(loadCtx, tasks)

	loaded, emotes := 0, 0
	for _, t := range tasks {
		select {
		case <-t.Done():
			if t.Err() == nil {
				loaded++
				emotes += t.Count()
			}
		default:
		}
	}
	if loaded == 0 {
		l.Warn().Err(waitErr).Msg("No emote catalog could be loaded")
		return
	}
	if waitErr != nil {
		l.Warn().Err(waitErr).Int("loaded", loaded).Int("catalogs", len(tasks)).Msg("Some emote catalogs failed to load")
	}

	markCtx, cancelMark := context.WithTimeout(context.Background(), dbTimeout)
	defer cancelMark()
	if err := s.channels.MarkLoaded(markCtx, c.ID, time.Now()); err != nil {
		l.Error().Err(err).Msg("Failed to record channel load time")
	}
	l.Info().Int("catalogs", loaded).Int("emotes", emotes).Msg("Finished loading emote catalogs")
}
