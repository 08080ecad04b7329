package mcp

import (
	"context"
	"slices"

	"github.com/custodia-labs/lexiq/internal/core/domain"
	"github.com/custodia-labs/lexiq/internal/core/ports/driving"
)

// --- Mock implementations ---

type mockReanalysisService struct {
	outcome  *domain.Outcome
	err      error
	state    domain.State
	snapshot *domain.Snapshot
	result   *domain.AnalysisResult
	edits    []domain.Edit
	cleared  int
}

func (m *mockReanalysisService) Reanalyze(_ context.Context, edit domain.Edit, _ domain.ProgressFunc) (*domain.Outcome, error) {
	m.edits = append(m.edits, edit)
	if m.err != nil {
		return nil, m.err
	}
	if m.outcome != nil {
		return m.outcome, nil
	}
	return &domain.Outcome{Path: domain.PathFull}, nil
}

func (m *mockReanalysisService) State() domain.State {
	if m.state == "" {
		return domain.StateIdle
	}
	return m.state
}

func (m *mockReanalysisService) LastSnapshot() (domain.Snapshot, bool) {
	if m.snapshot == nil {
		return domain.Snapshot{}, false
	}
	return *m.snapshot, true
}

func (m *mockReanalysisService) CurrentResult() (domain.AnalysisResult, bool) {
	if m.result == nil {
		return domain.AnalysisResult{}, false
	}
	return *m.result, true
}

func (m *mockReanalysisService) Subscribe(func(domain.Transition)) func() { return func() {} }

func (m *mockReanalysisService) Reset() {}

func (m *mockReanalysisService) ClearCache(context.Context) { m.cleared++ }

type mockSessionService struct {
	sessions map[string]*mockReanalysisService
	nextID   string
}

func newMockSessionService() *mockSessionService {
	return &mockSessionService{
		sessions: make(map[string]*mockReanalysisService),
		nextID:   "generated-id",
	}
}

func (m *mockSessionService) add(id string, svc *mockReanalysisService) {
	m.sessions[id] = svc
}

func (m *mockSessionService) Open(id string) (string, driving.ReanalysisService) {
	if id == "" {
		id = m.nextID
	}
	svc, ok := m.sessions[id]
	if !ok {
		svc = &mockReanalysisService{}
		m.sessions[id] = svc
	}
	return id, svc
}

func (m *mockSessionService) Find(id string) (driving.ReanalysisService, bool) {
	svc, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	return svc, true
}

func (m *mockSessionService) Remove(id string) bool {
	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	return true
}

func (m *mockSessionService) IDs() []string {
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
