package playback

import (
	"story-feed-backend/internal/models"
)

// Cursor tracks the viewer's position across the 2D grid of user groups and
// their stories. It is either closed or viewing a valid (group, story)
// position; invalid combinations are unrepresentable. Advancing past the
// last story of the last group closes the cursor; retreating before the
// first story of the first group is a no-op.
type Cursor struct {
	groups  []*Group
	viewing bool
	user    int
	story   int
}

// NewCursor returns a closed cursor over the given groups.
func NewCursor(groups []*Group) *Cursor {
	return &Cursor{groups: groups}
}

// Open positions the cursor on the group and story containing storyID.
// If no group contains it (the story may have expired between link
// creation and click) the cursor stays closed and Open reports false.
func (c *Cursor) Open(storyID string) bool {
	for gi, g := range c.groups {
		for si, s := range g.Stories {
			if s.ID == storyID {
				c.viewing = true
				c.user = gi
				c.story = si
				return true
			}
		}
	}
	return false
}

// Closed reports whether the cursor is closed
func (c *Cursor) Closed() bool {
	return !c.viewing
}

// Position returns the current (group index, story index). Only meaningful
// while the cursor is open.
func (c *Cursor) Position() (int, int) {
	return c.user, c.story
}

// Current returns the group and story under the cursor, or ok=false when closed
func (c *Cursor) Current() (*Group, *models.Story, bool) {
	if !c.viewing {
		return nil, nil, false
	}
	g := c.groups[c.user]
	return g, g.Stories[c.story], true
}

// NextStory advances to the next story in the current group, or to the next
// user's group when the current one is exhausted.
func (c *Cursor) NextStory() {
	if !c.viewing {
		return
	}
	if c.story < len(c.groups[c.user].Stories)-1 {
		c.story++
		return
	}
	c.NextUser()
}

// PrevStory steps back to the previous story in the current group, or to
// the previous user's group. At the very first story it is a no-op.
func (c *Cursor) PrevStory() {
	if !c.viewing {
		return
	}
	if c.story > 0 {
		c.story--
		return
	}
	c.PrevUser()
}

// NextUser jumps to the first story of the next group; past the last group
// the cursor closes.
func (c *Cursor) NextUser() {
	if !c.viewing {
		return
	}
	if c.user < len(c.groups)-1 {
		c.user++
		c.story = 0
		return
	}
	c.Close()
}

// PrevUser jumps to the first story of the previous group; at the first
// group it is a no-op that leaves the cursor unchanged.
func (c *Cursor) PrevUser() {
	if !c.viewing || c.user == 0 {
		return
	}
	c.user--
	c.story = 0
}

// JumpToUser moves directly to the first story of the group at index i.
// Out-of-range indexes are ignored.
func (c *Cursor) JumpToUser(i int) {
	if !c.viewing || i < 0 || i >= len(c.groups) {
		return
	}
	c.user = i
	c.story = 0
}

// Close closes the cursor unconditionally
func (c *Cursor) Close() {
	c.viewing = false
	c.user = 0
	c.story = 0
}
