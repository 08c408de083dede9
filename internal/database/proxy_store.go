package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Proxy default targets accepted by GetDefaultProxy.
const (
	ProxyForCatalogs = "catalogs"
	ProxyForTelegram = "telegram"
)

const proxyColumns = `id, name, type, address, username, password, is_default_for_catalogs, is_default_for_telegram, created_at, updated_at`

// ProxyStore provides methods to interact with proxy configurations.
type ProxyStore struct {
	db *DB
}

// NewProxyStore creates a new ProxyStore.
func NewProxyStore(db *DB) *ProxyStore {
	return &ProxyStore{db: db}
}

func scanProxy(scanner interface{ Scan(...any) error }) (*Proxy, error) {
	p := &Proxy{}
	err := scanner.Scan(&p.ID, &p.Name, &p.Type, &p.Address, &p.Username, &p.Password,
		&p.IsDefaultForCatalogs, &p.IsDefaultForTelegram, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// CreateProxy adds a new proxy.
func (s *ProxyStore) CreateProxy(ctx context.Context, p *Proxy) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO proxies (name, type, address, username, password, is_default_for_catalogs, is_default_for_telegram)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.Name, p.Type, p.Address, p.Username, p.Password, p.IsDefaultForCatalogs, p.IsDefaultForTelegram)
	if err != nil {
		return 0, fmt.Errorf("CreateProxy exec: %w", err)
	}
	return res.LastInsertId()
}

// GetProxyByID retrieves a proxy by its ID, or nil when it does not exist.
func (s *ProxyStore) GetProxyByID(ctx context.Context, id int64) (*Proxy, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+proxyColumns+` FROM proxies WHERE id = ?`, id)
	p, err := scanProxy(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("GetProxyByID scan: %w", err)
	}
	return p, nil
}

// GetDefaultProxy retrieves the default proxy for catalog fetches or Telegram.
func (s *ProxyStore) GetDefaultProxy(ctx context.Context, forType string) (*Proxy, error) {
	var column string
	switch forType {
	case ProxyForCatalogs:
		column = "is_default_for_catalogs"
	case ProxyForTelegram:
		column = "is_default_for_telegram"
	default:
		return nil, fmt.Errorf("invalid default proxy type: %s", forType)
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+proxyColumns+` FROM proxies WHERE `+column+` = TRUE ORDER BY id LIMIT 1`)
	p, err := scanProxy(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("GetDefaultProxy for %s scan: %w", forType, err)
	}
	return p, nil
}

// ListProxies retrieves all proxies ordered by name.
func (s *ProxyStore) ListProxies(ctx context.Context) ([]*Proxy, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+proxyColumns+` FROM proxies ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("ListProxies query: %w", err)
	}
	defer rows.Close()

	var proxies []*Proxy
	for rows.Next() {
		p, err := scanProxy(rows)
		if err != nil {
			return nil, fmt.Errorf("ListProxies scan: %w", err)
		}
		proxies = append(proxies, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListProxies rows error: %w", err)
	}
	return proxies, nil
}
