package playback

import (
	"testing"

	"story-feed-backend/internal/models"
)

func testGroups() []*Group {
	return []*Group{
		{UserID: "A", Stories: []*models.Story{story("a1", "A"), story("a2", "A")}},
		{UserID: "B", Stories: []*models.Story{story("b1", "B")}},
		{UserID: "C", Stories: []*models.Story{story("c1", "C"), story("c2", "C")}},
	}
}

func assertPosition(t *testing.T, c *Cursor, wantUser, wantStory int) {
	t.Helper()
	if c.Closed() {
		t.Fatal("cursor unexpectedly closed")
	}
	u, s := c.Position()
	if u != wantUser || s != wantStory {
		t.Errorf("position = (%d, %d), want (%d, %d)", u, s, wantUser, wantStory)
	}
}

func TestCursorOpen(t *testing.T) {
	c := NewCursor(testGroups())

	if !c.Open("b1") {
		t.Fatal("open on an existing story failed")
	}
	assertPosition(t, c, 1, 0)

	g, s, ok := c.Current()
	if !ok || g.UserID != "B" || s.ID != "b1" {
		t.Errorf("Current() = %v, %v, %v", g, s, ok)
	}
}

func TestCursorOpenUnknownStoryStaysClosed(t *testing.T) {
	c := NewCursor(testGroups())

	// The story may have expired between link creation and click.
	if c.Open("gone") {
		t.Error("open on a missing story should fail")
	}
	if !c.Closed() {
		t.Error("cursor should remain closed")
	}
}

func TestCursorNextStory(t *testing.T) {
	c := NewCursor(testGroups())
	c.Open("a1")

	c.NextStory()
	assertPosition(t, c, 0, 1)

	// Last story of the group spills into the next user.
	c.NextStory()
	assertPosition(t, c, 1, 0)
}

func TestCursorNextStoryAtEndCloses(t *testing.T) {
	c := NewCursor(testGroups())
	c.Open("c2")

	c.NextStory()
	if !c.Closed() {
		t.Error("advancing past the last story of the last group should close the cursor")
	}
}

func TestCursorPrevStory(t *testing.T) {
	c := NewCursor(testGroups())
	c.Open("a2")

	c.PrevStory()
	assertPosition(t, c, 0, 0)

	// Retreating before the first story of the first group is a no-op.
	c.PrevStory()
	assertPosition(t, c, 0, 0)
}

func TestCursorPrevStorySpillsToPrevUser(t *testing.T) {
	c := NewCursor(testGroups())
	c.Open("b1")

	c.PrevStory()
	assertPosition(t, c, 0, 0)
}

func TestCursorUserNavigation(t *testing.T) {
	c := NewCursor(testGroups())
	c.Open("a2")

	c.NextUser()
	assertPosition(t, c, 1, 0)

	c.NextUser()
	assertPosition(t, c, 2, 0)

	c.NextUser()
	if !c.Closed() {
		t.Error("NextUser past the last group should close the cursor")
	}
}

func TestCursorPrevUserAtFirstIsNoop(t *testing.T) {
	c := NewCursor(testGroups())
	c.Open("a2")

	c.PrevUser()
	assertPosition(t, c, 0, 1)
}

func TestCursorJumpToUser(t *testing.T) {
	c := NewCursor(testGroups())
	c.Open("a1")

	c.JumpToUser(2)
	assertPosition(t, c, 2, 0)

	// Out of range indexes are ignored.
	c.JumpToUser(99)
	assertPosition(t, c, 2, 0)
	c.JumpToUser(-1)
	assertPosition(t, c, 2, 0)
}

func TestCursorClose(t *testing.T) {
	c := NewCursor(testGroups())
	c.Open("a1")

	c.Close()
	if !c.Closed() {
		t.Fatal("cursor should be closed")
	}
	if _, _, ok := c.Current(); ok {
		t.Error("Current() should report not ok after close")
	}

	// Navigation on a closed cursor does nothing.
	c.NextStory()
	c.PrevUser()
	if !c.Closed() {
		t.Error("navigation must not reopen a closed cursor")
	}
}
