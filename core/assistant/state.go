package assistant

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/trezcool/edutrack/core/report"
)

// Phase is the step of the multi-turn flow a caller is in.
type Phase string

const (
	PhaseIdle                         Phase = "idle"
	PhaseAwaitingUserFields           Phase = "awaiting_user_fields"
	PhaseAwaitingOptionalUserFields   Phase = "awaiting_optional_user_fields"
	PhaseAwaitingCourseFields         Phase = "awaiting_course_fields"
	PhaseAwaitingOptionalCourseFields Phase = "awaiting_optional_course_fields"
	PhaseAwaitingReportFilters        Phase = "awaiting_report_filters"
	PhaseAwaitingReportConfirmation   Phase = "awaiting_report_confirmation"
)

// Pending reports whether the phase expects a reply.
func (p Phase) Pending() bool {
	return p != "" && p != PhaseIdle
}

func (p Phase) collectingUser() bool {
	return p == PhaseAwaitingUserFields || p == PhaseAwaitingOptionalUserFields
}

// State is what the assistant remembers of a caller between turns.
type State struct {
	LastIntent   Intent
	LastEntities Entities
	Phase        Phase
	LastReport   *report.Result // set while a download confirmation is pending
	UpdatedAt    time.Time
}

// StateStore keeps the dialogue state per caller.
// Lock serializes the turns of a caller; the returned func releases it.
type StateStore interface {
	Get(callerID string) (State, bool)
	Put(callerID string, st State)
	Delete(callerID string)
	Lock(callerID string) (unlock func())
}

type callerLock struct {
	mu   sync.Mutex
	refs int
}

// MemoryStore is a process-local StateStore whose entries expire after a period of inactivity.
type MemoryStore struct {
	cache *cache.Cache

	mu    sync.Mutex
	locks map[string]*callerLock
}

var _ StateStore = (*MemoryStore)(nil)

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	cleanup := ttl / 2
	if ttl == cache.NoExpiration || cleanup < time.Minute {
		cleanup = time.Minute
	}
	return &MemoryStore{
		cache: cache.New(ttl, cleanup),
		locks: make(map[string]*callerLock),
	}
}

func (s *MemoryStore) Get(callerID string) (State, bool) {
	v, ok := s.cache.Get(callerID)
	if !ok {
		return State{}, false
	}
	st := v.(State)
	st.LastEntities = st.LastEntities.Clone()
	return st, true
}

func (s *MemoryStore) Put(callerID string, st State) {
	st.LastEntities = st.LastEntities.Clone()
	s.cache.Set(callerID, st, cache.DefaultExpiration)
}

func (s *MemoryStore) Delete(callerID string) {
	s.cache.Delete(callerID)
}

func (s *MemoryStore) Lock(callerID string) func() {
	s.mu.Lock()
	l, ok := s.locks[callerID]
	if !ok {
		l = new(callerLock)
		s.locks[callerID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		if l.refs--; l.refs == 0 {
			delete(s.locks, callerID)
		}
		s.mu.Unlock()
	}
}
