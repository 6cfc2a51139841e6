// Package playback holds the pure story playback model: expiry policy,
// per-user grouping, the viewer cursor and the progress timer. Nothing in
// this package performs I/O; callers supply the current time.
package playback

import (
	"time"

	"story-feed-backend/internal/models"
)

// Expired reports whether a story is past its expiry. A story is expired
// iff now >= ExpiresAt, so the instant of expiry itself counts as expired.
func Expired(s *models.Story, now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// FilterActive returns the stories that have not expired, preserving order.
// A fetch may race with expiry between the server read and use, so results
// are re-filtered here even when the query already excluded expired rows.
func FilterActive(stories []*models.Story, now time.Time) []*models.Story {
	active := make([]*models.Story, 0, len(stories))
	for _, s := range stories {
		if !Expired(s, now) {
			active = append(active, s)
		}
	}
	return active
}
