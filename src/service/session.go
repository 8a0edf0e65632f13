package service

import (
	"BikeSharingInsight/src/dataset"
	"BikeSharingInsight/src/processor"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session 每个用户独立的过滤状态，保留最近一次有效结果
type Session struct {
	ID string

	mu       sync.Mutex
	criteria dataset.FilterCriteria
	last     *processor.Dashboard
	lastSeen time.Time
}

// Apply 用新条件重新计算。条件非法时返回上一次有效结果和 FilterError，
// 会话状态保持不变
func (s *Session) Apply(svc *Service, c dataset.FilterCriteria) (*processor.Dashboard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := svc.Compute(c)
	if err != nil {
		var fe *dataset.FilterError
		if errors.As(err, &fe) {
			return s.last, err
		}
		return nil, err
	}
	s.criteria = d.Criteria
	s.last = d
	return d, nil
}

// Current 最近一次有效结果，没有时为 nil
func (s *Session) Current() (*processor.Dashboard, dataset.FilterCriteria) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.criteria
}

// SessionStore 会话表，空闲超过 idle 的会话由 Evict 清除
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	idle     time.Duration
	now      func() time.Time
}

func NewSessionStore(idle time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		idle:     idle,
		now:      time.Now,
	}
}

// Get 取出会话；id 为空或不是 uuid 时分配新 id
func (st *SessionStore) Get(id string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}
	s, ok := st.sessions[id]
	if !ok {
		s = &Session{ID: id}
		st.sessions[id] = s
	}
	s.lastSeen = st.now()
	return s
}

// Evict 清除空闲会话，返回清除数量
func (st *SessionStore) Evict() int {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.idle <= 0 {
		return 0
	}
	cutoff := st.now().Add(-st.idle)
	n := 0
	for id, s := range st.sessions {
		if s.lastSeen.Before(cutoff) {
			delete(st.sessions, id)
			n++
		}
	}
	return n
}

func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}
