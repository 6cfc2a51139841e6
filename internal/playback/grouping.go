package playback

import (
	"story-feed-backend/internal/models"
)

// Group is the per-user playback queue derived from the raw story list.
// Rebuilt on every fetch, never persisted.
type Group struct {
	UserID    string          `json:"user_id"`
	Username  string          `json:"username"`
	AvatarURL string          `json:"avatar_url"`
	Stories   []*models.Story `json:"stories"`
	HasUnseen bool            `json:"has_unseen"`
}

// GroupStories buckets stories by owning user and orders the groups for
// playback: the viewer's own group first, then groups containing at least
// one unseen story, then the rest. Relative order among equals follows the
// first appearance of each owner in the input, so the sort is stable with
// respect to the fetch ordering. Stories keep their input order inside a
// bucket. An owner with zero stories produces no group.
//
// seen is the set of story ids the viewer has already opened; profiles maps
// user id to profile for display fields and may be missing entries.
func GroupStories(stories []*models.Story, viewerID string, seen map[string]bool, profiles map[string]*models.User) []*Group {
	byUser := make(map[string]*Group)
	var order []*Group

	for _, s := range stories {
		g, ok := byUser[s.UserID]
		if !ok {
			g = &Group{UserID: s.UserID}
			if p := profiles[s.UserID]; p != nil {
				g.Username = p.Username
				g.AvatarURL = p.AvatarURL
			}
			byUser[s.UserID] = g
			order = append(order, g)
		}
		g.Stories = append(g.Stories, s)
		if !seen[s.ID] {
			g.HasUnseen = true
		}
	}

	// Three-way stable partition: self, unseen, seen.
	sorted := make([]*Group, 0, len(order))
	for _, g := range order {
		if g.UserID == viewerID {
			sorted = append(sorted, g)
		}
	}
	for _, g := range order {
		if g.UserID != viewerID && g.HasUnseen {
			sorted = append(sorted, g)
		}
	}
	for _, g := range order {
		if g.UserID != viewerID && !g.HasUnseen {
			sorted = append(sorted, g)
		}
	}
	return sorted
}
