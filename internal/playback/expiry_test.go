package playback

import (
	"testing"
	"time"

	"story-feed-backend/internal/models"
)

func TestExpiredBoundary(t *testing.T) {
	expires := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	story := &models.Story{ID: "s1", ExpiresAt: expires}

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"one ms before expiry", expires.Add(-time.Millisecond), false},
		{"exactly at expiry", expires, true},
		{"one ms after expiry", expires.Add(time.Millisecond), true},
		{"long before expiry", expires.Add(-24 * time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Expired(story, tt.now); got != tt.want {
				t.Errorf("Expired(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestFilterActive(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	stories := []*models.Story{
		{ID: "live1", ExpiresAt: now.Add(time.Hour)},
		{ID: "dead", ExpiresAt: now.Add(-time.Hour)},
		{ID: "live2", ExpiresAt: now.Add(time.Minute)},
		{ID: "boundary", ExpiresAt: now},
	}

	active := FilterActive(stories, now)

	if len(active) != 2 {
		t.Fatalf("expected 2 active stories, got %d", len(active))
	}
	if active[0].ID != "live1" || active[1].ID != "live2" {
		t.Errorf("order not preserved: got [%s, %s]", active[0].ID, active[1].ID)
	}
}

func TestFilterActiveEmpty(t *testing.T) {
	now := time.Now()
	if got := FilterActive(nil, now); len(got) != 0 {
		t.Errorf("expected empty result for nil input, got %d", len(got))
	}
}
