package storage

import (
	"context"
	"fmt"
	"strings"

	"agencyhub/internal/models"
)

const clientColumns = `id, name, contact_name, contact_email, brand_color, logo_url, tone_of_voice, created_at`

// ListClients returns clients ordered by name.
func (s *Store) ListClients(ctx context.Context) ([]models.Client, error) {
	clients := []models.Client{}
	if err := s.db.SelectContext(ctx, &clients, `SELECT `+clientColumns+` FROM clients ORDER BY name, id`); err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	return clients, nil
}

// GetClient fetches a single client by id.
func (s *Store) GetClient(ctx context.Context, id string) (models.Client, error) {
	var c models.Client
	err := s.db.GetContext(ctx, &c, s.db.Rebind(`SELECT `+clientColumns+` FROM clients WHERE id = ?`), id)
	if err != nil {
		return models.Client{}, notFound(err, "client", "get client")
	}
	return c, nil
}

// CreateClient persists a new client.
func (s *Store) CreateClient(ctx context.Context, in models.NewClient) (models.Client, error) {
	if err := in.Validate(); err != nil {
		return models.Client{}, err
	}
	id := newID()
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`INSERT INTO clients(id, name, contact_name, contact_email, brand_color, logo_url, tone_of_voice, created_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)`),
		id, strings.TrimSpace(in.Name), trimPtr(in.ContactName), trimPtr(in.ContactEmail), trimPtr(in.BrandColor),
		trimPtr(in.LogoURL), trimPtr(in.ToneOfVoice), s.now())
	if err != nil {
		return models.Client{}, fmt.Errorf("insert client: %w", err)
	}
	return s.GetClient(ctx, id)
}

// UpdateClient applies a partial update.
func (s *Store) UpdateClient(ctx context.Context, id string, p models.ClientPatch) (models.Client, error) {
	if err := p.Validate(); err != nil {
		return models.Client{}, err
	}
	var u update
	if p.Name.Set {
		u.set("name", strings.TrimSpace(p.Name.Value))
	}
	for _, f := range []struct {
		col string
		v   models.Optional[string]
	}{
		{"contact_name", p.ContactName},
		{"contact_email", p.ContactEmail},
		{"brand_color", p.BrandColor},
		{"logo_url", p.LogoURL},
		{"tone_of_voice", p.ToneOfVoice},
	} {
		if f.v.Set {
			u.set(f.col, trimPtr(f.v.Ptr()))
		}
	}
	if u.empty() {
		return s.GetClient(ctx, id)
	}
	q, args := u.query("clients", id)
	res, err := s.db.ExecContext(ctx, s.db.Rebind(q), args...)
	if err != nil {
		return models.Client{}, fmt.Errorf("update client: %w", err)
	}
	if err := expectRow(res, "client"); err != nil {
		return models.Client{}, err
	}
	return s.GetClient(ctx, id)
}

// DeleteClient removes a client together with its projects.
func (s *Store) DeleteClient(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM clients WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	return expectRow(res, "client")
}
