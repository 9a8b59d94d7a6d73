package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Deleting a report is destructive (children cascade), so the API hands out
// a random 6-digit code the caller must type back. A wrong code generates a
// fresh one and the loop continues until match or cancel.

const DefaultChallengeTTL = 5 * time.Minute

type challengeEntry struct {
	code      string
	expiresAt time.Time
}

type ChallengeStore struct {
	mu      sync.Mutex
	entries map[uuid.UUID]challengeEntry
	ttl     time.Duration

	now func() time.Time // swapped in tests
}

func NewChallengeStore(ttl time.Duration) *ChallengeStore {
	if ttl <= 0 {
		ttl = DefaultChallengeTTL
	}
	return &ChallengeStore{
		entries: make(map[uuid.UUID]challengeEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func generateCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		// crypto/rand failing means the process has bigger problems
		panic(err)
	}
	return fmt.Sprintf("%06d", n.Int64())
}

// Issue creates (or replaces) the challenge for a report and returns the code.
func (s *ChallengeStore) Issue(reportID uuid.UUID) string {
	code := generateCode()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[reportID] = challengeEntry{code: code, expiresAt: s.now().Add(s.ttl)}
	return code
}

// Verify checks a typed code against the stored one (exact match after
// trimming). On match the entry is consumed and ok=true. On mismatch, or an
// expired/absent entry, a fresh code is issued and returned so the caller
// can re-prompt.
func (s *ChallengeStore) Verify(reportID uuid.UUID, typed string) (ok bool, newCode string) {
	s.mu.Lock()
	entry, exists := s.entries[reportID]
	if exists && s.now().Before(entry.expiresAt) && strings.TrimSpace(typed) == entry.code {
		delete(s.entries, reportID)
		s.mu.Unlock()
		return true, ""
	}
	s.mu.Unlock()
	return false, s.Issue(reportID)
}

// Cancel aborts the challenge; nothing is deleted.
func (s *ChallengeStore) Cancel(reportID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, reportID)
}

// Sweep drops expired entries and reports how many were removed.
func (s *ChallengeStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for id, entry := range s.entries {
		if !now.Before(entry.expiresAt) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}

// TTL reports how long an issued code stays valid.
func (s *ChallengeStore) TTL() time.Duration { return s.ttl }

// Pending reports how many live challenges exist (for the sweeper's log line).
func (s *ChallengeStore) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
