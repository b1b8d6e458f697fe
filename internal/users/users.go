package users

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"communityhub/internal/community"
)

// Role is a user's platform role.
type Role string

const (
	RoleMember  Role = "MEMBER"
	RoleOfficer Role = "OFFICER"
	RoleAdmin   Role = "ADMIN"
)

// User is an application profile. OfficerOrg is empty unless the user holds
// officer authority over an organization.
type User struct {
	ID         string                 `json:"id"`
	Name       string                 `json:"name"`
	Email      string                 `json:"email"`
	Role       Role                   `json:"role"`
	OfficerOrg community.Organization `json:"officer_org,omitempty"`
	AvatarURL  string                 `json:"avatar_url,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

// ErrNotFound is returned when a profile row does not exist. Reads never mask
// a backend failure as "no data".
var ErrNotFound = errors.New("user not found")

// Repository persists profiles and refresh tokens in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new profile with its password hash.
func (r *Repository) Create(ctx context.Context, u User, passwordHash string) (User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = RoleMember
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profiles (id, name, email, password_hash, role, officer_org, avatar_url, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, u.ID, u.Name, u.Email, passwordHash, u.Role, nullableOrg(u.OfficerOrg), u.AvatarURL, u.CreatedAt)
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// GetByID returns a single profile.
func (r *Repository) GetByID(ctx context.Context, id string) (User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, role, officer_org, avatar_url, created_at
		FROM profiles WHERE id = $1
	`, id)
	return scanUser(row)
}

// GetCredentials returns the profile and password hash for an email.
func (r *Repository) GetCredentials(ctx context.Context, email string) (User, string, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, role, officer_org, avatar_url, created_at, password_hash
		FROM profiles WHERE email = $1
	`, email)

	var u User
	var org sql.NullString
	var hash string
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &org, &u.AvatarURL, &u.CreatedAt, &hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, "", ErrNotFound
		}
		return User{}, "", err
	}
	if org.Valid {
		u.OfficerOrg = community.Organization(org.String)
	}
	return u, hash, nil
}

// List returns all profiles, newest first.
func (r *Repository) List(ctx context.Context) ([]User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, email, role, officer_org, avatar_url, created_at
		FROM profiles ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []User{}
	for rows.Next() {
		var u User
		var org sql.NullString
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &org, &u.AvatarURL, &u.CreatedAt); err != nil {
			return nil, err
		}
		if org.Valid {
			u.OfficerOrg = community.Organization(org.String)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// UpdateRole persists a role transition.
func (r *Repository) UpdateRole(ctx context.Context, id string, role Role, officerOrg community.Organization) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE profiles SET role = $2, officer_org = $3 WHERE id = $1
	`, id, role, nullableOrg(officerOrg))
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateAvatar stores a new avatar URL.
func (r *Repository) UpdateAvatar(ctx context.Context, id, avatarURL string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE profiles SET avatar_url = $2 WHERE id = $1
	`, id, avatarURL)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveRefreshToken stores a refresh token for rotation checks.
func (r *Repository) SaveRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO refresh_tokens (user_id, token, expires_at)
		VALUES ($1, $2, $3)
	`, userID, token, expiresAt)
	return err
}

// RefreshTokenState reports the owner and validity of a stored refresh token.
func (r *Repository) RefreshTokenState(ctx context.Context, token string) (userID string, revoked bool, expiresAt time.Time, err error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT user_id, revoked, expires_at FROM refresh_tokens WHERE token = $1
	`, token)
	if err = row.Scan(&userID, &revoked, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrNotFound
		}
		return "", false, time.Time{}, err
	}
	return userID, revoked, expiresAt, nil
}

// RevokeRefreshToken marks a token revoked.
func (r *Repository) RevokeRefreshToken(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE refresh_tokens SET revoked = TRUE WHERE token = $1`, token)
	return err
}

func scanUser(row *sql.Row) (User, error) {
	var u User
	var org sql.NullString
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &org, &u.AvatarURL, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	if org.Valid {
		u.OfficerOrg = community.Organization(org.String)
	}
	return u, nil
}

func nullableOrg(org community.Organization) any {
	if org == "" {
		return nil
	}
	return string(org)
}
