package ledger

import "sync"

type InMemoryStore struct {
	mu      sync.Mutex
	records map[string]AuditLogRecord
	order   []string
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		records: make(map[string]AuditLogRecord),
	}
}

func (s *InMemoryStore) PutAuditLog(rec AuditLogRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rec.AuditID]; !ok {
		s.order = append(s.order, rec.AuditID)
	}
	s.records[rec.AuditID] = rec
	return nil
}

func (s *InMemoryStore) GetAuditLog(auditID string) (AuditLogRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[auditID]
	return rec, ok
}

func (s *InMemoryStore) ListAuditLogs(targetID string, limit int) ([]AuditLogRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []AuditLogRecord{}
	for i := len(s.order) - 1; i >= 0; i-- {
		rec := s.records[s.order[i]]
		if targetID != "" && rec.TargetID != targetID {
			continue
		}
		out = append(out, rec)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
