package playback

import (
	"time"

	"story-feed-backend/internal/models"
)

// SessionHooks are the callbacks a Session fires as playback advances.
// Nil hooks are skipped. OnEnter fires whenever a story comes under the
// cursor, including the initial open, so receipt marking happens on entry
// rather than on navigation past.
type SessionHooks struct {
	OnEnter    func(g *Group, s *models.Story, groupIndex, storyIndex int)
	OnProgress func(percent float64)
	OnClose    func()
}

// Session drives a viewer over grouped stories: it owns the cursor and the
// progress timer and turns ticks into auto-advance transitions. It is not
// safe for concurrent use; the owner must serialize Tick and navigation
// calls (one event loop per session).
type Session struct {
	cursor   *Cursor
	progress *Progress
	duration time.Duration
	settle   time.Duration
	settleAt time.Time
	hooks    SessionHooks
}

// NewSession returns a closed session over groups. duration is the
// per-story playback time, settle the delay before jumping to the next
// user's group at the end of a queue.
func NewSession(groups []*Group, duration, settle time.Duration, hooks SessionHooks) *Session {
	return &Session{
		cursor:   NewCursor(groups),
		duration: duration,
		settle:   settle,
		hooks:    hooks,
	}
}

// Open starts playback at the story with the given id. If no group
// contains it the session stays closed and Open reports false.
func (s *Session) Open(storyID string, now time.Time) bool {
	if !s.cursor.Open(storyID) {
		return false
	}
	s.progress = NewProgress(s.duration, now)
	s.enter()
	return true
}

// Closed reports whether the session is closed
func (s *Session) Closed() bool {
	return s.cursor.Closed()
}

// Tick advances playback to now. On reaching 100% it either advances to
// the next story in the group, or schedules the jump to the next user's
// group after the settle delay. Ticks after close are ignored.
func (s *Session) Tick(now time.Time) {
	if s.cursor.Closed() {
		return
	}

	if !s.settleAt.IsZero() {
		if now.Before(s.settleAt) {
			return
		}
		s.settleAt = time.Time{}
		s.cursor.NextUser()
		s.afterNav(now)
		return
	}

	pct, complete := s.progress.Tick(now)
	if s.hooks.OnProgress != nil {
		s.hooks.OnProgress(pct)
	}
	if !complete {
		return
	}

	g, _, _ := s.cursor.Current()
	_, si := s.cursor.Position()
	if si < len(g.Stories)-1 {
		s.cursor.NextStory()
		s.afterNav(now)
	} else {
		s.settleAt = now.Add(s.settle)
	}
}

// Pause freezes the progress timer
func (s *Session) Pause(now time.Time) {
	if s.cursor.Closed() {
		return
	}
	s.progress.Pause(now)
}

// Resume continues the progress timer from its frozen value
func (s *Session) Resume(now time.Time) {
	if s.cursor.Closed() {
		return
	}
	s.progress.Resume(now)
}

// NextStory advances one story, spilling into the next group
func (s *Session) NextStory(now time.Time) {
	s.navigate(now, (*Cursor).NextStory)
}

// PrevStory steps back one story; a no-op at the very first story
func (s *Session) PrevStory(now time.Time) {
	s.navigate(now, (*Cursor).PrevStory)
}

// NextUser jumps to the next user's group; past the last group the
// session closes.
func (s *Session) NextUser(now time.Time) {
	s.navigate(now, (*Cursor).NextUser)
}

// PrevUser jumps to the previous user's group; a no-op at the first
func (s *Session) PrevUser(now time.Time) {
	s.navigate(now, (*Cursor).PrevUser)
}

// JumpToUser moves directly to the group at index i
func (s *Session) JumpToUser(i int, now time.Time) {
	s.navigate(now, func(c *Cursor) { c.JumpToUser(i) })
}

// Close closes the session and cancels any pending auto-advance
func (s *Session) Close() {
	if s.cursor.Closed() {
		return
	}
	s.settleAt = time.Time{}
	s.cursor.Close()
	if s.hooks.OnClose != nil {
		s.hooks.OnClose()
	}
}

func (s *Session) navigate(now time.Time, move func(*Cursor)) {
	if s.cursor.Closed() {
		return
	}
	pu, ps := s.cursor.Position()
	move(s.cursor)
	if s.cursor.Closed() {
		s.settleAt = time.Time{}
		if s.hooks.OnClose != nil {
			s.hooks.OnClose()
		}
		return
	}
	if u, st := s.cursor.Position(); u != pu || st != ps {
		s.settleAt = time.Time{}
		s.progress.Reset(now)
		s.enter()
	}
}

// afterNav handles the outcome of an auto-advance transition
func (s *Session) afterNav(now time.Time) {
	if s.cursor.Closed() {
		if s.hooks.OnClose != nil {
			s.hooks.OnClose()
		}
		return
	}
	s.progress.Reset(now)
	s.enter()
}

func (s *Session) enter() {
	if s.hooks.OnEnter == nil {
		return
	}
	g, st, ok := s.cursor.Current()
	if !ok {
		return
	}
	u, si := s.cursor.Position()
	s.hooks.OnEnter(g, st, u, si)
}
