package analytics

import (
	"testing"
	"time"

	"communityhub/internal/community"
)

func TestScore(t *testing.T) {
	// 4 workshops, 1 announcement, 4 participants -> 5*4 + 2*1 + 4 = 26
	if got := Score(4, 1, 4); got != 26 {
		t.Fatalf("expected 26, got %d", got)
	}
	if got := Score(0, 0, 0); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestLeaderboard_RanksAndFlagsMostActive(t *testing.T) {
	snap := Snapshot{
		Workshops: []WorkshopStat{
			{Org: community.OrgCES, Participants: 10},
			{Org: community.OrgCES, Participants: 5},
			{Org: community.OrgTCC, Participants: 3},
		},
		AnnouncementOrgs: []community.Organization{community.OrgTCC},
	}

	stats := Leaderboard(snap)
	if len(stats) != len(community.Organizations()) {
		t.Fatalf("expected every org present, got %d entries", len(stats))
	}
	if stats[0].Org != community.OrgCES {
		t.Fatalf("expected CES first, got %s", stats[0].Org)
	}
	if !stats[0].MostActive {
		t.Fatal("top scorer should be flagged most active")
	}
	if stats[0].Score != 25 { // 5*2 + 15 participants
		t.Fatalf("expected CES score 25, got %d", stats[0].Score)
	}
	for _, s := range stats[1:] {
		if s.MostActive {
			t.Fatalf("%s should not be most active", s.Org)
		}
	}
}

func TestLeaderboard_NoActivityHasNoMostActive(t *testing.T) {
	stats := Leaderboard(Snapshot{})
	for _, s := range stats {
		if s.MostActive {
			t.Fatalf("%s flagged most active with zero score", s.Org)
		}
	}
}

func TestTrend_FewerThanTwoWorkshopsIsNil(t *testing.T) {
	if Trend(nil) != nil {
		t.Fatal("expected nil trend for no workshops")
	}
	one := []WorkshopStat{{Participants: 3}}
	if Trend(one) != nil {
		t.Fatal("expected nil trend for a single workshop")
	}
}

func TestTrend_ScaleFloorAndBounds(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ws := []WorkshopStat{
		{Date: base, Participants: 1},
		{Date: base.AddDate(0, 0, 1), Participants: 5},
	}

	points := Trend(ws)
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}
	if points[0].X != 0 || points[1].X != 100 {
		t.Fatalf("expected x to span 0..100, got %v and %v", points[0].X, points[1].X)
	}
	// scale floor is 5, so 1 participant maps to 20 and 5 to 100
	if points[0].Y != 20 {
		t.Fatalf("expected y=20 at the floor scale, got %v", points[0].Y)
	}
	if points[1].Y != 100 {
		t.Fatalf("expected y=100 for the max count, got %v", points[1].Y)
	}
}

func TestTrend_KeepsOnlyLastSamples(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ws := make([]WorkshopStat, 0, 12)
	for i := 0; i < 12; i++ {
		ws = append(ws, WorkshopStat{Date: base.AddDate(0, 0, i), Participants: i})
	}

	points := Trend(ws)
	if len(points) != trendSamples {
		t.Fatalf("expected %d points, got %d", trendSamples, len(points))
	}
	// last sample is the newest workshop (11 participants, also the scale max)
	if points[len(points)-1].Y != 100 {
		t.Fatalf("expected newest workshop at y=100, got %v", points[len(points)-1].Y)
	}
}

func TestNewUsersSince(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	created := []time.Time{
		now.AddDate(0, 0, -5),
		now.AddDate(0, 0, -29),
		now.AddDate(0, 0, -31), // outside the window
		now.AddDate(0, 0, 1),   // in the future, excluded
	}
	if got := NewUsersSince(created, now, 30*24*time.Hour); got != 2 {
		t.Fatalf("expected 2 new users, got %d", got)
	}
}

func TestBuildOverview(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	snap := Snapshot{
		Workshops: []WorkshopStat{
			{Org: community.OrgICSO, Date: now.AddDate(0, 0, -2), Participants: 4},
			{Org: community.OrgICSO, Date: now.AddDate(0, 0, -1), Participants: 6},
		},
		UserCreatedAts: []time.Time{now.AddDate(0, 0, -1)},
		AwardCount:     7,
	}

	ov := BuildOverview(snap, now)
	if ov.TotalAwards != 7 {
		t.Fatalf("expected 7 awards, got %d", ov.TotalAwards)
	}
	if ov.NewUsers30d != 1 {
		t.Fatalf("expected 1 new user, got %d", ov.NewUsers30d)
	}
	if len(ov.Trend) != 2 {
		t.Fatalf("expected 2 trend points, got %d", len(ov.Trend))
	}
	if !ov.GeneratedAt.Equal(now) {
		t.Fatalf("expected generated_at %v, got %v", now, ov.GeneratedAt)
	}
}
