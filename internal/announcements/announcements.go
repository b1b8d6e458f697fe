package announcements

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"communityhub/internal/community"
)

// Announcement is a feed post scoped to one organization. The author's display
// fields are a denormalized snapshot taken at posting time.
type Announcement struct {
	ID           string                 `json:"id"`
	Title        string                 `json:"title"`
	Content      string                 `json:"content"`
	ImageURL     string                 `json:"image_url,omitempty"`
	Org          community.Organization `json:"org"`
	AuthorID     string                 `json:"author_id"`
	AuthorName   string                 `json:"author_name"`
	AuthorRole   string                 `json:"author_role"`
	AuthorAvatar string                 `json:"author_avatar,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
	LikeCount    int                    `json:"like_count"`
	LikedBy      []string               `json:"liked_by,omitempty"`
	Comments     []Comment              `json:"comments,omitempty"`
}

// Comment is an announcement comment with the author's display fields joined
// in at read time; a missing profile maps to "Unknown".
type Comment struct {
	ID             string    `json:"id"`
	AnnouncementID string    `json:"announcement_id"`
	AuthorID       string    `json:"author_id"`
	AuthorName     string    `json:"author_name"`
	AuthorAvatar   string    `json:"author_avatar,omitempty"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// ErrNotFound is returned when an announcement does not exist.
var ErrNotFound = errors.New("announcement not found")

// Repository persists announcements in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const announcementColumns = `a.id, a.title, a.content, a.image_url, a.org, a.author_id, a.author_name, a.author_role, a.author_avatar, a.created_at`

// List returns announcements newest first, optionally scoped to one
// organization, with like counts.
func (r *Repository) List(ctx context.Context, org community.Organization) ([]Announcement, error) {
	query := `
		SELECT ` + announcementColumns + `,
		       (SELECT COUNT(*) FROM announcement_likes l WHERE l.announcement_id = a.id)
		FROM announcements a`
	args := []any{}
	if org != "" {
		query += ` WHERE a.org = $1`
		args = append(args, org)
	}
	query += ` ORDER BY a.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Announcement{}
	for rows.Next() {
		var a Announcement
		if err := rows.Scan(&a.ID, &a.Title, &a.Content, &a.ImageURL, &a.Org, &a.AuthorID, &a.AuthorName, &a.AuthorRole, &a.AuthorAvatar, &a.CreatedAt, &a.LikeCount); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Get returns one announcement with its like set and comments.
func (r *Repository) Get(ctx context.Context, id string) (Announcement, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+announcementColumns+`,
		       (SELECT COUNT(*) FROM announcement_likes l WHERE l.announcement_id = a.id)
		FROM announcements a WHERE a.id = $1
	`, id)

	var a Announcement
	err := row.Scan(&a.ID, &a.Title, &a.Content, &a.ImageURL, &a.Org, &a.AuthorID, &a.AuthorName, &a.AuthorRole, &a.AuthorAvatar, &a.CreatedAt, &a.LikeCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Announcement{}, ErrNotFound
		}
		return Announcement{}, err
	}

	if a.LikedBy, err = r.Likes(ctx, id); err != nil {
		return Announcement{}, err
	}
	if a.Comments, err = r.ListComments(ctx, id); err != nil {
		return Announcement{}, err
	}
	return a, nil
}

// Create inserts a new announcement with its author snapshot.
func (r *Repository) Create(ctx context.Context, a Announcement) (Announcement, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.AuthorName == "" {
		a.AuthorName = "Unknown"
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO announcements (id, title, content, image_url, org, author_id, author_name, author_role, author_avatar, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, a.ID, a.Title, a.Content, a.ImageURL, a.Org, a.AuthorID, a.AuthorName, a.AuthorRole, a.AuthorAvatar, a.CreatedAt)
	if err != nil {
		return Announcement{}, err
	}
	return a, nil
}

// Update rewrites the mutable fields of an announcement.
func (r *Repository) Update(ctx context.Context, a Announcement) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE announcements SET title = $2, content = $3, image_url = $4, org = $5 WHERE id = $1
	`, a.ID, a.Title, a.Content, a.ImageURL, a.Org)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an announcement; likes and comments cascade in the schema.
func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM announcements WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// ToggleLike removes the user's like if present, otherwise inserts it, and
// reports whether the announcement is now liked. Keyed on the table's primary
// key, so toggling twice sequentially is an exact round trip and two racing
// toggles cannot double-insert.
func (r *Repository) ToggleLike(ctx context.Context, announcementID, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM announcement_likes WHERE announcement_id = $1 AND user_id = $2
	`, announcementID, userID)
	if err != nil {
		return false, err
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return false, nil
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO announcement_likes (announcement_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (announcement_id, user_id) DO NOTHING
	`, announcementID, userID)
	if err != nil {
		return false, err
	}
	return true, nil
}

// Likes returns the ids of users who liked the announcement.
func (r *Repository) Likes(ctx context.Context, announcementID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id FROM announcement_likes WHERE announcement_id = $1
	`, announcementID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// AddComment appends a comment.
func (r *Repository) AddComment(ctx context.Context, announcementID, authorID, content string) (Comment, error) {
	c := Comment{
		ID:             uuid.NewString(),
		AnnouncementID: announcementID,
		AuthorID:       authorID,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO announcement_comments (id, announcement_id, author_id, content, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, c.ID, c.AnnouncementID, c.AuthorID, c.Content, c.CreatedAt)
	if err != nil {
		return Comment{}, err
	}
	return c, nil
}

// ListComments returns comments oldest first with author display fields.
func (r *Repository) ListComments(ctx context.Context, announcementID string) ([]Comment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.announcement_id, c.author_id,
		       COALESCE(p.name, 'Unknown'), COALESCE(p.avatar_url, ''),
		       c.content, c.created_at
		FROM announcement_comments c
		LEFT JOIN profiles p ON p.id = c.author_id
		WHERE c.announcement_id = $1
		ORDER BY c.created_at ASC
	`, announcementID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Comment{}
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.AnnouncementID, &c.AuthorID, &c.AuthorName, &c.AuthorAvatar, &c.Content, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
