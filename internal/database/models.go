package database

import "time"

// Proxy represents an outbound proxy configuration.
type Proxy struct {
	ID                   int64     `db:"id"`
	Name                 string    `db:"name"`
	Type                 string    `db:"type"` // http, https, socks5
	Address              string    `db:"address"`
	Username             *string   `db:"username"`
	Password             *string   `db:"password"`
	IsDefaultForCatalogs bool      `db:"is_default_for_catalogs"`
	IsDefaultForTelegram bool      `db:"is_default_for_telegram"`
	CreatedAt            time.Time `db:"created_at"`
	UpdatedAt            time.Time `db:"updated_at"`
}

// Channel is a chat channel whose emote catalogs are tracked.
type Channel struct {
	ID             int64      `db:"id"`
	Name           string     `db:"channel_name"`     // scopes the FFZ catalog
	PlatformUserID string     `db:"platform_user_id"` // scopes the 7TV and BTTV catalogs
	RenderSize     int        `db:"render_size"`
	RefreshSeconds int        `db:"refresh_seconds"` // 0 uses the configured default
	ProxyID        *int64     `db:"proxy_id"`
	TelegramChatID *string    `db:"telegram_chat_id"`
	IsEnabled      bool       `db:"is_enabled"`
	LastLoadedAt   *time.Time `db:"last_loaded_at"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`

	// Joined data
	Proxy *Proxy
}

// RefreshInterval returns the channel's refresh period, or def when unset.
func (c *Channel) RefreshInterval(def time.Duration) time.Duration {
	if c.RefreshSeconds > 0 {
		return time.Duration(c.RefreshSeconds) * time.Second
	}
	return def
}
