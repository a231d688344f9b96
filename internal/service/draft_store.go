package service

import (
	"sync"
	"time"

	"github.com/fjod/thread-storefront/domain"
	"github.com/google/uuid"
)

const (
	// DraftTTL is how long an idle checkout draft is kept
	DraftTTL = 30 * time.Minute

	// DraftCleanupInterval is how often the background cleanup runs
	DraftCleanupInterval = time.Minute
)

type draftEntry struct {
	state     domain.CheckoutState
	expiresAt time.Time
}

// DraftStore keeps checkout drafts in memory, keyed by checkout id
type DraftStore struct {
	mu     sync.RWMutex
	drafts map[string]*draftEntry
	ttl    time.Duration
	now    func() time.Time

	stopCleanup chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

// NewDraftStore creates a draft store and starts its cleanup goroutine
func NewDraftStore(ttl time.Duration) *DraftStore {
	if ttl <= 0 {
		ttl = DraftTTL
	}
	s := &DraftStore{
		drafts:      make(map[string]*draftEntry),
		ttl:         ttl,
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}

	s.wg.Add(1)
	go s.cleanupLoop()

	return s
}

func (s *DraftStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(DraftCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.expireDrafts()
		case <-s.stopCleanup:
			return
		}
	}
}

// expireDrafts drops every draft past its deadline
func (s *DraftStore) expireDrafts() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	expired := 0
	for id, entry := range s.drafts {
		if now.After(entry.expiresAt) {
			delete(s.drafts, id)
			expired++
		}
	}
	return expired
}

// Create stores a new draft for userID and assigns its id
func (s *DraftStore) Create(state domain.CheckoutState) domain.CheckoutState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state.ID = uuid.NewString()
	state.Items = domain.CloneItems(state.Items)
	s.drafts[state.ID] = &draftEntry{state: state, expiresAt: s.now().Add(s.ttl)}
	return cloneState(state)
}

// Get returns the draft when it exists, is not expired and belongs to userID
func (s *DraftStore) Get(id, userID string) (domain.CheckoutState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.drafts[id]
	if !ok || entry.state.UserID != userID || s.now().After(entry.expiresAt) {
		return domain.CheckoutState{}, domain.ErrDraftNotFound
	}
	return cloneState(entry.state), nil
}

// Update applies fn to the stored draft and extends its deadline
func (s *DraftStore) Update(id, userID string, fn func(*domain.CheckoutState) error) (domain.CheckoutState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.drafts[id]
	if !ok || entry.state.UserID != userID || s.now().After(entry.expiresAt) {
		return domain.CheckoutState{}, domain.ErrDraftNotFound
	}

	next := cloneState(entry.state)
	if err := fn(&next); err != nil {
		return domain.CheckoutState{}, err
	}
	next.ID = id
	next.UserID = userID
	entry.state = next
	entry.expiresAt = s.now().Add(s.ttl)
	return cloneState(next), nil
}

// Delete removes a draft; missing drafts are ignored
func (s *DraftStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, id)
}

// Len returns the number of stored drafts, expired ones included
func (s *DraftStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.drafts)
}

// Close stops the cleanup goroutine
func (s *DraftStore) Close() {
	s.stopOnce.Do(func() { close(s.stopCleanup) })
	s.wg.Wait()
}

func cloneState(state domain.CheckoutState) domain.CheckoutState {
	state.Items = domain.CloneItems(state.Items)
	return state
}
