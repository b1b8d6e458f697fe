package analytics

import (
	"context"
	"database/sql"
	"time"

	"communityhub/internal/community"
)

// Repository loads the aggregation snapshot from Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Snapshot loads everything one aggregation pass needs.
func (r *Repository) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	var err error

	if snap.Workshops, err = r.workshopStats(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.AnnouncementOrgs, err = r.announcementOrgs(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.UserCreatedAts, err = r.userCreatedAts(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.AwardCount, err = r.awardCount(ctx); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func (r *Repository) workshopStats(ctx context.Context) ([]WorkshopStat, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT w.org, w.title, w.date, COUNT(p.user_id)
		FROM workshops w
		LEFT JOIN workshop_participants p ON p.workshop_id = w.id
		GROUP BY w.id, w.org, w.title, w.date
		ORDER BY w.date ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []WorkshopStat{}
	for rows.Next() {
		var s WorkshopStat
		if err := rows.Scan(&s.Org, &s.Title, &s.Date, &s.Participants); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repository) announcementOrgs(ctx context.Context) ([]community.Organization, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT org FROM announcements`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []community.Organization{}
	for rows.Next() {
		var org community.Organization
		if err := rows.Scan(&org); err != nil {
			return nil, err
		}
		out = append(out, org)
	}
	return out, rows.Err()
}

func (r *Repository) userCreatedAts(ctx context.Context) ([]time.Time, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT created_at FROM profiles`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []time.Time{}
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repository) awardCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM badges) + (SELECT COUNT(*) FROM certificates)
	`).Scan(&count)
	return count, err
}
