package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const channelSelect = `
	SELECT
		c.id, c.channel_name, c.platform_user_id, c.render_size, c.refresh_seconds,
		c.proxy_id, c.telegram_chat_id, c.is_enabled, c.last_loaded_at, c.created_at, c.updated_at,
		p.id, p.name, p.type, p.address, p.username, p.password
	FROM channels c
	LEFT JOIN proxies p ON p.id = c.proxy_id`

// ChannelStore provides methods to interact with tracked channels.
type ChannelStore struct {
	db *DB
}

// NewChannelStore creates a new ChannelStore.
func NewChannelStore(db *DB) *ChannelStore {
	return &ChannelStore{db: db}
}

func scanChannel(scanner interface{ Scan(...any) error }) (*Channel, error) {
	var (
		c            Channel
		proxyID      sql.NullInt64
		proxyName    sql.NullString
		proxyType    sql.NullString
		proxyAddress sql.NullString
		proxyUser    sql.NullString
		proxyPass    sql.NullString
	)
	err := scanner.Scan(
		&c.ID, &c.Name, &c.PlatformUserID, &c.RenderSize, &c.RefreshSeconds,
		&c.ProxyID, &c.TelegramChatID, &c.IsEnabled, &c.LastLoadedAt, &c.CreatedAt, &c.UpdatedAt,
		&proxyID, &proxyName, &proxyType, &proxyAddress, &proxyUser, &proxyPass,
	)
	if err != nil {
		return nil, err
	}
	if proxyID.Valid {
		c.Proxy = &Proxy{
			ID:      proxyID.Int64,
			Name:    proxyName.String,
			Type:    proxyType.String,
			Address: proxyAddress.String,
		}
		if proxyUser.Valid {
			c.Proxy.Username = &proxyUser.String
		}
		if proxyPass.Valid {
			c.Proxy.Password = &proxyPass.String
		}
	}
	return &c, nil
}

// CreateChannel adds a new channel.
func (s *ChannelStore) CreateChannel(ctx context.Context, c *Channel) (int64, error) {
	if c.RenderSize == 0 {
		c.RenderSize = 2
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO channels (channel_name, platform_user_id, render_size, refresh_seconds, proxy_id, telegram_chat_id, is_enabled)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.Name, c.PlatformUserID, c.RenderSize, c.RefreshSeconds, c.ProxyID, c.TelegramChatID, c.IsEnabled)
	if err != nil {
		return 0, fmt.Errorf("CreateChannel exec: %w", err)
	}
	return res.LastInsertId()
}

func (s *ChannelStore) getOne(ctx context.Context, method, where string, arg any) (*Channel, error) {
	c, err := scanChannel(s.db.QueryRowContext(ctx, channelSelect+" WHERE "+where, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s scan: %w", method, err)
	}
	return c, nil
}

// GetChannelByID retrieves a channel with its proxy, or nil when it does not exist.
func (s *ChannelStore) GetChannelByID(ctx context.Context, id int64) (*Channel, error) {
	return s.getOne(ctx, "GetChannelByID", "c.id = ?", id)
}

// GetChannelByName retrieves a channel by name, or nil when it does not exist.
func (s *ChannelStore) GetChannelByName(ctx context.Context, name string) (*Channel, error) {
	return s.getOne(ctx, "GetChannelByName", "c.channel_name = ?", name)
}

func (s *ChannelStore) list(ctx context.Context, method, query string) ([]*Channel, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s query: %w", method, err)
	}
	defer rows.Close()

	var channels []*Channel
	for rows.Next() {
		c, err := scanChannel(rows)
		if err != nil {
			return nil, fmt.Errorf("%s scan: %w", method, err)
		}
		channels = append(channels, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s rows error: %w", method, err)
	}
	return channels, nil
}

// ListChannels retrieves all channels ordered by name.
func (s *ChannelStore) ListChannels(ctx context.Context) ([]*Channel, error) {
	return s.list(ctx, "ListChannels", channelSelect+" ORDER BY c.channel_name")
}

// GetEnabledChannels retrieves the channels whose catalogs should be loaded.
func (s *ChannelStore) GetEnabledChannels(ctx context.Context) ([]*Channel, error) {
	return s.list(ctx, "GetEnabledChannels", channelSelect+" WHERE c.is_enabled = TRUE ORDER BY c.channel_name")
}

func (s *ChannelStore) update(ctx context.Context, method, set string, args ...any) error {
	res, err := s.db.ExecContext(ctx, "UPDATE channels SET "+set+", updated_at = CURRENT_TIMESTAMP WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("%s exec: %w", method, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", method, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", method, sql.ErrNoRows)
	}
	return nil
}

// UpdateRenderSize stores the channel's image size.
func (s *ChannelStore) UpdateRenderSize(ctx context.Context, id int64, size int) error {
	return s.update(ctx, "UpdateRenderSize", "render_size = ?", size, id)
}

// SetEnabled enables or disables catalog loading for a channel.
func (s *ChannelStore) SetEnabled(ctx context.Context, id int64, enabled bool) error {
	return s.update(ctx, "SetEnabled", "is_enabled = ?", enabled, id)
}

// MarkLoaded records when the channel's catalogs were last loaded.
func (s *ChannelStore) MarkLoaded(ctx context.Context, id int64, at time.Time) error {
	return s.update(ctx, "MarkLoaded", "last_loaded_at = ?", at.UTC(), id)
}
