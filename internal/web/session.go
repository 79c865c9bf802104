package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Yates-Labs/bookrag/internal/answer"
	"github.com/Yates-Labs/bookrag/internal/orchestrator"
)

// SourceView is a retrieved chunk prepared for display.
type SourceView struct {
	Number  int
	Page    int
	Score   float32
	Preview string
}

// HistoryEntry is one answered question in a session.
type HistoryEntry struct {
	Question string
	Answer   string
	Sources  []SourceView
	AskedAt  time.Time
}

func newHistoryEntry(ans *answer.Answer) HistoryEntry {
	sources := make([]SourceView, len(ans.Sources))
	for i, src := range ans.Sources {
		sources[i] = SourceView{
			Number:  i + 1,
			Page:    src.Page,
			Score:   src.Score,
			Preview: orchestrator.Preview(src.Text, previewLength),
		}
	}

	return HistoryEntry{
		Question: ans.Question,
		Answer:   ans.Text,
		Sources:  sources,
		AskedAt:  ans.GeneratedAt,
	}
}

// sessionStore keeps per-session conversation history in memory. It holds
// at most maxSessions sessions and evicts the least recently used one.
type sessionStore struct {
	mu          sync.Mutex
	limit       int
	maxSessions int
	clock       uint64
	sessions    map[string]*session
}

type session struct {
	entries  []HistoryEntry
	lastUsed uint64
}

func newSessionStore(limit, maxSessions int) *sessionStore {
	return &sessionStore{
		limit:       limit,
		maxSessions: maxSessions,
		sessions:    make(map[string]*session),
	}
}

// Append adds an entry, dropping the oldest once the limit is reached
func (s *sessionStore) Append(id string, entry HistoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		if len(s.sessions) >= s.maxSessions {
			s.evictOldest()
		}
		sess = &session{}
		s.sessions[id] = sess
	}
	s.touch(sess)

	sess.entries = append(sess.entries, entry)
	if len(sess.entries) > s.limit {
		sess.entries = sess.entries[len(sess.entries)-s.limit:]
	}
}

// Recent returns the session history, most recent first
func (s *sessionStore) Recent(id string) []HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return []HistoryEntry{}
	}
	s.touch(sess)

	recent := make([]HistoryEntry, len(sess.entries))
	for i, e := range sess.entries {
		recent[len(sess.entries)-1-i] = e
	}
	return recent
}

// Clear drops the session history
func (s *sessionStore) Clear(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len returns the number of sessions held
func (s *sessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *sessionStore) touch(sess *session) {
	s.clock++
	sess.lastUsed = s.clock
}

// evictOldest must be called with mu held
func (s *sessionStore) evictOldest() {
	var (
		oldestID string
		oldest   uint64
	)
	for id, sess := range s.sessions {
		if oldestID == "" || sess.lastUsed < oldest {
			oldestID, oldest = id, sess.lastUsed
		}
	}
	delete(s.sessions, oldestID)
}

// sessionID returns the caller's session id, issuing a new cookie if needed
func sessionID(c *gin.Context) string {
	if id, err := c.Cookie(sessionCookie); err == nil {
		if _, err := uuid.Parse(id); err == nil {
			return id
		}
	}

	id := uuid.NewString()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, id, 0, "/", "", false, true)
	return id
}
