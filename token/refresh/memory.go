package refresh

import (
	"context"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

const shardCount = 32

type record struct {
	fingerprint string
	expiresAt   time.Time
}

type shard struct {
	lock    sync.Mutex
	records map[string]record
}

var (
	_ Registry = (*MemoryRegistry)(nil)
	_ Sweeper  = (*MemoryRegistry)(nil)
)

// MemoryRegistry is a process local Registry. Subjects are spread over
// mutex guarded shards so different subjects rarely contend.
type MemoryRegistry struct {
	shards  [shardCount]*shard
	nowFunc func() time.Time
}

// MemoryOption defines a function type to modify the MemoryRegistry instance.
type MemoryOption func(*MemoryRegistry)

// WithMemoryNowFunc sets the clock used for expiry checks (primarily for testing)
func WithMemoryNowFunc(nowFunc func() time.Time) MemoryOption {
	return func(m *MemoryRegistry) {
		m.nowFunc = nowFunc
	}
}

func NewMemoryRegistry(options ...MemoryOption) *MemoryRegistry {
	m := &MemoryRegistry{nowFunc: time.Now}
	for i := range m.shards {
		m.shards[i] = &shard{records: make(map[string]record)}
	}
	for _, option := range options {
		option(m)
	}
	return m
}

func (m *MemoryRegistry) shardFor(subjectID string) *shard {
	return m.shards[xxhash.Sum64String(subjectID)%shardCount]
}

func (m *MemoryRegistry) Insert(ctx context.Context, subjectID, token string, expiresAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s := m.shardFor(subjectID)
	s.lock.Lock()
	defer s.lock.Unlock()

	s.records[subjectID] = record{fingerprint: Fingerprint(token), expiresAt: expiresAt}
	return nil
}

func (m *MemoryRegistry) Validate(ctx context.Context, subjectID, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s := m.shardFor(subjectID)
	s.lock.Lock()
	defer s.lock.Unlock()

	return m.check(s, subjectID, token)
}

func (m *MemoryRegistry) Rotate(ctx context.Context, subjectID, presented, next string, expiresAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s := m.shardFor(subjectID)
	s.lock.Lock()
	defer s.lock.Unlock()

	if err := m.check(s, subjectID, presented); err != nil {
		return err
	}
	s.records[subjectID] = record{fingerprint: Fingerprint(next), expiresAt: expiresAt}
	return nil
}

func (m *MemoryRegistry) Invalidate(ctx context.Context, subjectID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s := m.shardFor(subjectID)
	s.lock.Lock()
	defer s.lock.Unlock()

	delete(s.records, subjectID)
	return nil
}

// check must be called with the shard lock held
func (m *MemoryRegistry) check(s *shard, subjectID, token string) error {
	current, ok := s.records[subjectID]
	if !ok {
		return ErrTokenRevoked
	}
	if !current.expiresAt.After(m.nowFunc()) {
		delete(s.records, subjectID)
		return ErrTokenRevoked
	}
	if !fingerprintsEqual(current.fingerprint, Fingerprint(token)) {
		return ErrTokenMismatch
	}
	return nil
}

// Sweep removes records that expired at or before now and returns how many were dropped
func (m *MemoryRegistry) Sweep(ctx context.Context, now time.Time) (int, error) {
	removed := 0
	for _, s := range m.shards {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		s.lock.Lock()
		for subjectID, r := range s.records {
			if !r.expiresAt.After(now) {
				delete(s.records, subjectID)
				removed++
			}
		}
		s.lock.Unlock()
	}
	return removed, nil
}

// Len returns the number of records held, expired or not
func (m *MemoryRegistry) Len() int {
	n := 0
	for _, s := range m.shards {
		s.lock.Lock()
		n += len(s.records)
		s.lock.Unlock()
	}
	return n
}
