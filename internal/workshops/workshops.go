package workshops

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"communityhub/internal/community"
)

// Workshop is a scheduled event owned by one organization. SeatLimit 0 means
// unlimited.
type Workshop struct {
	ID             string                 `json:"id"`
	Title          string                 `json:"title"`
	Description    string                 `json:"description"`
	Date           time.Time              `json:"date"`
	Org            community.Organization `json:"org"`
	BannerURL      string                 `json:"banner_url,omitempty"`
	BadgeURL       string                 `json:"badge_url,omitempty"`
	CertificateURL string                 `json:"certificate_url,omitempty"`
	SeatLimit      int                    `json:"seat_limit"`
	CreatedBy      string                 `json:"created_by"`
	CreatedAt      time.Time              `json:"created_at"`
}

// Participant is the denormalized user snapshot stored on the join row, so
// listing participants needs no profile join at read time.
type Participant struct {
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	JoinedAt  time.Time `json:"joined_at"`
}

// Comment is a workshop comment with the author's display fields joined in.
type Comment struct {
	ID           string    `json:"id"`
	WorkshopID   string    `json:"workshop_id"`
	AuthorID     string    `json:"author_id"`
	AuthorName   string    `json:"author_name"`
	AuthorAvatar string    `json:"author_avatar,omitempty"`
	Content      string    `json:"content"`
	CreatedAt    time.Time `json:"created_at"`
}

// ErrNotFound is returned when a workshop does not exist.
var ErrNotFound = errors.New("workshop not found")

// Repository persists workshops in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const workshopColumns = `id, title, description, date, org, banner_url, badge_url, certificate_url, seat_limit, created_by, created_at`

// List returns workshops, optionally scoped to one organization, soonest first.
func (r *Repository) List(ctx context.Context, org community.Organization) ([]Workshop, error) {
	query := `SELECT ` + workshopColumns + ` FROM workshops`
	args := []any{}
	if org != "" {
		query += ` WHERE org = $1`
		args = append(args, org)
	}
	query += ` ORDER BY date ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Workshop{}
	for rows.Next() {
		var w Workshop
		if err := rows.Scan(&w.ID, &w.Title, &w.Description, &w.Date, &w.Org, &w.BannerURL, &w.BadgeURL, &w.CertificateURL, &w.SeatLimit, &w.CreatedBy, &w.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// Get returns a single workshop by id.
func (r *Repository) Get(ctx context.Context, id string) (Workshop, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+workshopColumns+` FROM workshops WHERE id = $1`, id)
	var w Workshop
	err := row.Scan(&w.ID, &w.Title, &w.Description, &w.Date, &w.Org, &w.BannerURL, &w.BadgeURL, &w.CertificateURL, &w.SeatLimit, &w.CreatedBy, &w.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Workshop{}, ErrNotFound
		}
		return Workshop{}, err
	}
	return w, nil
}

// Create inserts a new workshop.
func (r *Repository) Create(ctx context.Context, w Workshop) (Workshop, error) {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO workshops (id, title, description, date, org, banner_url, badge_url, certificate_url, seat_limit, created_by, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, w.ID, w.Title, w.Description, w.Date, w.Org, w.BannerURL, w.BadgeURL, w.CertificateURL, w.SeatLimit, w.CreatedBy, w.CreatedAt)
	if err != nil {
		return Workshop{}, err
	}
	return w, nil
}

// Update rewrites the mutable fields of a workshop.
func (r *Repository) Update(ctx context.Context, w Workshop) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE workshops
		SET title = $2, description = $3, date = $4, org = $5,
		    banner_url = $6, badge_url = $7, certificate_url = $8, seat_limit = $9
		WHERE id = $1
	`, w.ID, w.Title, w.Description, w.Date, w.Org, w.BannerURL, w.BadgeURL, w.CertificateURL, w.SeatLimit)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a workshop; participants and comments cascade in the schema.
func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM workshops WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// AddParticipant inserts the join row with its snapshot. The unique constraint
// makes duplicate joins a no-op; the bool reports whether a row was written.
func (r *Repository) AddParticipant(ctx context.Context, workshopID string, p Participant) (bool, error) {
	if p.JoinedAt.IsZero() {
		p.JoinedAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO workshop_participants (workshop_id, user_id, name, email, avatar_url, joined_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (workshop_id, user_id) DO NOTHING
	`, workshopID, p.UserID, p.Name, p.Email, p.AvatarURL, p.JoinedAt)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RemoveParticipant deletes the join row.
func (r *Repository) RemoveParticipant(ctx context.Context, workshopID, userID string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM workshop_participants WHERE workshop_id = $1 AND user_id = $2
	`, workshopID, userID)
	return err
}

// ListParticipants returns the workshop's participants in join order.
func (r *Repository) ListParticipants(ctx context.Context, workshopID string) ([]Participant, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, name, email, avatar_url, joined_at
		FROM workshop_participants
		WHERE workshop_id = $1
		ORDER BY joined_at ASC
	`, workshopID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Participant{}
	for rows.Next() {
		var p Participant
		if err := rows.Scan(&p.UserID, &p.Name, &p.Email, &p.AvatarURL, &p.JoinedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CountParticipants returns how many users joined the workshop.
func (r *Repository) CountParticipants(ctx context.Context, workshopID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM workshop_participants WHERE workshop_id = $1
	`, workshopID).Scan(&count)
	return count, err
}

// AddComment appends a comment.
func (r *Repository) AddComment(ctx context.Context, workshopID, authorID, content string) (Comment, error) {
	c := Comment{
		ID:         uuid.NewString(),
		WorkshopID: workshopID,
		AuthorID:   authorID,
		Content:    content,
		CreatedAt:  time.Now().UTC(),
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO comments (id, workshop_id, author_id, content, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, c.ID, c.WorkshopID, c.AuthorID, c.Content, c.CreatedAt)
	if err != nil {
		return Comment{}, err
	}
	return c, nil
}

// ListComments returns the workshop's comments oldest first, with the author's
// display fields joined in. A missing author profile maps to "Unknown" so
// display code never null-checks the name.
func (r *Repository) ListComments(ctx context.Context, workshopID string) ([]Comment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.workshop_id, c.author_id,
		       COALESCE(p.name, 'Unknown'), COALESCE(p.avatar_url, ''),
		       c.content, c.created_at
		FROM comments c
		LEFT JOIN profiles p ON p.id = c.author_id
		WHERE c.workshop_id = $1
		ORDER BY c.created_at ASC
	`, workshopID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Comment{}
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.WorkshopID, &c.AuthorID, &c.AuthorName, &c.AuthorAvatar, &c.Content, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
