package storage

import (
	"context"
	"fmt"

	"github.com/claude/coachplan/internal/models"
)

// GetOrCreateClient finds or creates a client by login name (a Tailscale
// login or an admin-chosen handle). Returns the client ID. Updates last_seen
// and display_name on each call.
func (db *DB) GetOrCreateClient(ctx context.Context, login, displayName string) (int, error) {
	var id int
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO clients (login, display_name)
		VALUES ($1, $2)
		ON CONFLICT (login) DO UPDATE
			SET last_seen = NOW(), display_name = COALESCE(NULLIF($2, ''), clients.display_name)
		RETURNING id
	`, login, displayName).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upserting client %q: %w", login, err)
	}
	return id, nil
}

// GetClient returns a single client.
func (db *DB) GetClient(ctx context.Context, id int) (*models.ClientRow, error) {
	var c models.ClientRow
	err := db.Pool.QueryRow(ctx,
		`SELECT id, login, display_name, created_at, last_seen FROM clients WHERE id = $1`, id,
	).Scan(&c.ID, &c.Login, &c.DisplayName, &c.CreatedAt, &c.LastSeen)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("client %d", id))
	}
	return &c, nil
}

// ListClients returns all clients ordered by login.
func (db *DB) ListClients(ctx context.Context) ([]models.ClientRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, login, display_name, created_at, last_seen FROM clients ORDER BY login`)
	if err != nil {
		return nil, fmt.Errorf("querying clients: %w", err)
	}
	defer rows.Close()

	var result []models.ClientRow
	for rows.Next() {
		var c models.ClientRow
		if err := rows.Scan(&c.ID, &c.Login, &c.DisplayName, &c.CreatedAt, &c.LastSeen); err != nil {
			return nil, fmt.Errorf("scanning client: %w", err)
		}
		result = append(result, c)
	}
	return result, rows.Err()
}
