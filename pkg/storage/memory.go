package storage

import (
	"context"
	"sync"
	"time"
)

// MemorySink keeps records in process memory.
type MemorySink struct {
	mu       sync.Mutex
	records  []SurveyRecord
	failNext []error
	pingErr  error
}

var _ Sink = (*MemorySink)(nil)

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (m *MemorySink) Save(ctx context.Context, rec SurveyRecord) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, sinkError("save", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.failNext) > 0 {
		err := m.failNext[0]
		m.failNext = m.failNext[1:]
		return 0, sinkError("save", err)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	m.records = append(m.records, rec)
	return int64(len(m.records)), nil
}

// FailNext queues err for the next Save call. Calls stack in order.
func (m *MemorySink) FailNext(err error) {
	m.mu.Lock()
	m.failNext = append(m.failNext, err)
	m.mu.Unlock()
}

// SetPingError makes Ping return err until reset with nil.
func (m *MemorySink) SetPingError(err error) {
	m.mu.Lock()
	m.pingErr = err
	m.mu.Unlock()
}

// Records returns a copy of everything saved so far.
func (m *MemorySink) Records() []SurveyRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SurveyRecord(nil), m.records...)
}

func (m *MemorySink) ByUser(ctx context.Context, userID int64) ([]SurveyRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, sinkError("by_user", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []SurveyRecord
	for _, rec := range m.records {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *MemorySink) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return sinkError("ping", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return sinkError("ping", m.pingErr)
}

func (m *MemorySink) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.records)), nil
}

func (m *MemorySink) Close() error {
	return nil
}
