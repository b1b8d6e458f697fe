package analytics

import (
	"sort"
	"time"

	"communityhub/internal/community"
)

// Engagement score weights: workshops count most, then announcements, then
// raw participation.
const (
	workshopWeight     = 5
	announcementWeight = 2
)

// trendSamples is how many of the most recent workshops feed the attendance
// trend, and trendMinScale the floor for the y-axis scale.
const (
	trendSamples  = 8
	trendMinScale = 5
)

// WorkshopStat is the slice of a workshop the aggregations need.
type WorkshopStat struct {
	Org          community.Organization `json:"org"`
	Title        string                 `json:"title"`
	Date         time.Time              `json:"date"`
	Participants int                    `json:"participants"`
}

// Snapshot is the in-memory input for one aggregation pass.
type Snapshot struct {
	Workshops        []WorkshopStat
	AnnouncementOrgs []community.Organization
	UserCreatedAts   []time.Time
	AwardCount       int
}

// OrgStats is the per-organization aggregate.
type OrgStats struct {
	Org           community.Organization `json:"org"`
	Workshops     int                    `json:"workshops"`
	Announcements int                    `json:"announcements"`
	Participants  int                    `json:"participants"`
	Score         int                    `json:"score"`
	MostActive    bool                   `json:"most_active"`
}

// Point is a bounded 2D plot coordinate in the 0..100 space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Overview is the platform-wide analytics payload.
type Overview struct {
	Orgs        []OrgStats `json:"orgs"`
	TotalAwards int        `json:"total_awards"`
	NewUsers30d int        `json:"new_users_30d"`
	Trend       []Point    `json:"trend,omitempty"`
	GeneratedAt time.Time  `json:"generated_at"`
}

// Score computes the engagement score for one organization:
// 5*workshops + 2*announcements + 1*participants.
func Score(workshops, announcements, participants int) int {
	return workshopWeight*workshops + announcementWeight*announcements + participants
}

// Leaderboard aggregates per-organization stats from the snapshot and ranks
// them by score descending. Every organization appears, even with zero
// activity; the top scorer is flagged most active when its score is positive.
func Leaderboard(snap Snapshot) []OrgStats {
	byOrg := make(map[community.Organization]*OrgStats)
	out := make([]OrgStats, 0, len(community.Organizations()))
	for _, org := range community.Organizations() {
		out = append(out, OrgStats{Org: org})
	}
	for i := range out {
		byOrg[out[i].Org] = &out[i]
	}

	for _, w := range snap.Workshops {
		if s, ok := byOrg[w.Org]; ok {
			s.Workshops++
			s.Participants += w.Participants
		}
	}
	for _, org := range snap.AnnouncementOrgs {
		if s, ok := byOrg[org]; ok {
			s.Announcements++
		}
	}
	for i := range out {
		out[i].Score = Score(out[i].Workshops, out[i].Announcements, out[i].Participants)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > 0 && out[0].Score > 0 {
		out[0].MostActive = true
	}
	return out
}

// Trend samples the chronologically last workshops and maps their participant
// counts into the bounded 0..100 plot space, scaling the y-axis by the largest
// observed count with a floor of 5. Fewer than two workshops yields nil — an
// explicit "no chart" state rather than a single-point line.
func Trend(workshops []WorkshopStat) []Point {
	sorted := make([]WorkshopStat, len(workshops))
	copy(sorted, workshops)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	if len(sorted) > trendSamples {
		sorted = sorted[len(sorted)-trendSamples:]
	}
	if len(sorted) < 2 {
		return nil
	}

	scale := trendMinScale
	for _, w := range sorted {
		if w.Participants > scale {
			scale = w.Participants
		}
	}

	points := make([]Point, len(sorted))
	step := 100.0 / float64(len(sorted)-1)
	for i, w := range sorted {
		points[i] = Point{
			X: float64(i) * step,
			Y: float64(w.Participants) / float64(scale) * 100,
		}
	}
	return points
}

// NewUsersSince counts users created within the trailing window ending at now.
func NewUsersSince(createdAts []time.Time, now time.Time, window time.Duration) int {
	cutoff := now.Add(-window)
	count := 0
	for _, t := range createdAts {
		if t.After(cutoff) && !t.After(now) {
			count++
		}
	}
	return count
}

// BuildOverview runs every aggregation over one snapshot. now is injected so
// the trailing-30-day count is deterministic for a given input.
func BuildOverview(snap Snapshot, now time.Time) Overview {
	return Overview{
		Orgs:        Leaderboard(snap),
		TotalAwards: snap.AwardCount,
		NewUsers30d: NewUsersSince(snap.UserCreatedAts, now, 30*24*time.Hour),
		Trend:       Trend(snap.Workshops),
		GeneratedAt: now,
	}
}
