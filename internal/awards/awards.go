package awards

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"communityhub/internal/community"
)

// Badge is an issued-to-user award record. Linkage to the source workshop is
// by id captured at issuance time; the title is a display snapshot only, so
// renaming a workshop does not relink or orphan existing awards.
type Badge struct {
	ID            string                 `json:"id"`
	UserID        string                 `json:"user_id"`
	Title         string                 `json:"title"`
	Org           community.Organization `json:"org"`
	WorkshopID    string                 `json:"workshop_id"`
	WorkshopTitle string                 `json:"workshop_title"`
	AssetURL      string                 `json:"asset_url,omitempty"`
	IssuedAt      time.Time              `json:"issued_at"`
}

// Certificate mirrors Badge for the certificate asset.
type Certificate struct {
	ID            string                 `json:"id"`
	UserID        string                 `json:"user_id"`
	Title         string                 `json:"title"`
	Org           community.Organization `json:"org"`
	WorkshopID    string                 `json:"workshop_id"`
	WorkshopTitle string                 `json:"workshop_title"`
	AssetURL      string                 `json:"asset_url,omitempty"`
	IssuedAt      time.Time              `json:"issued_at"`
}

// Repository persists awards in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// InsertBadge writes a new badge.
func (r *Repository) InsertBadge(ctx context.Context, b Badge) (Badge, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.IssuedAt.IsZero() {
		b.IssuedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO badges (id, user_id, title, org, workshop_id, workshop_title, asset_url, issued_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, b.ID, b.UserID, b.Title, b.Org, b.WorkshopID, b.WorkshopTitle, b.AssetURL, b.IssuedAt)
	if err != nil {
		return Badge{}, err
	}
	return b, nil
}

// DeleteBadge removes a badge by id. Used as the compensating step when the
// certificate write of an issue sequence fails.
func (r *Repository) DeleteBadge(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM badges WHERE id = $1`, id)
	return err
}

// InsertCertificate writes a new certificate.
func (r *Repository) InsertCertificate(ctx context.Context, c Certificate) (Certificate, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.IssuedAt.IsZero() {
		c.IssuedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO certificates (id, user_id, title, org, workshop_id, workshop_title, asset_url, issued_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, c.ID, c.UserID, c.Title, c.Org, c.WorkshopID, c.WorkshopTitle, c.AssetURL, c.IssuedAt)
	if err != nil {
		return Certificate{}, err
	}
	return c, nil
}

// BadgesByUser returns the user's badges, newest first. No badges is an empty
// slice, not an error.
func (r *Repository) BadgesByUser(ctx context.Context, userID string) ([]Badge, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, title, org, workshop_id, workshop_title, asset_url, issued_at
		FROM badges WHERE user_id = $1 ORDER BY issued_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Badge{}
	for rows.Next() {
		var b Badge
		if err := rows.Scan(&b.ID, &b.UserID, &b.Title, &b.Org, &b.WorkshopID, &b.WorkshopTitle, &b.AssetURL, &b.IssuedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// CertificatesByUser returns the user's certificates, newest first.
func (r *Repository) CertificatesByUser(ctx context.Context, userID string) ([]Certificate, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, title, org, workshop_id, workshop_title, asset_url, issued_at
		FROM certificates WHERE user_id = $1 ORDER BY issued_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Certificate{}
	for rows.Next() {
		var c Certificate
		if err := rows.Scan(&c.ID, &c.UserID, &c.Title, &c.Org, &c.WorkshopID, &c.WorkshopTitle, &c.AssetURL, &c.IssuedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// DeleteByUserWorkshop removes all badge and certificate rows the user earned
// from the given workshop, in one transaction. Returns total rows removed.
func (r *Repository) DeleteByUserWorkshop(ctx context.Context, userID, workshopID string) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var total int64
	res, err := tx.ExecContext(ctx, `DELETE FROM badges WHERE user_id = $1 AND workshop_id = $2`, userID, workshopID)
	if err != nil {
		return 0, err
	}
	if n, err := res.RowsAffected(); err == nil {
		total += n
	}

	res, err = tx.ExecContext(ctx, `DELETE FROM certificates WHERE user_id = $1 AND workshop_id = $2`, userID, workshopID)
	if err != nil {
		return 0, err
	}
	if n, err := res.RowsAffected(); err == nil {
		total += n
	}

	return total, tx.Commit()
}
