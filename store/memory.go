/*
memory.go - In-memory Store implementation (for testing/dev)

Mirrors the SQLite store's behavior, including the approval rule that
advances from_previous_application. Thread-safe via RWMutex.
*/
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/stanton/construction-ops/budget"
	"github.com/stanton/construction-ops/payapp"
)

type Memory struct {
	mu           sync.RWMutex
	projects     map[string]Project
	contractors  map[string]Contractor
	budgetLines  map[string]budget.LineInput
	contracts    map[string]Contract
	sovLines     map[string]payapp.SOVLine
	applications map[string]PaymentApplication
}

func NewMemory() *Memory {
	return &Memory{
		projects:     make(map[string]Project),
		contractors:  make(map[string]Contractor),
		budgetLines:  make(map[string]budget.LineInput),
		contracts:    make(map[string]Contract),
		sovLines:     make(map[string]payapp.SOVLine),
		applications: make(map[string]PaymentApplication),
	}
}

var _ Store = (*Memory)(nil)

// =============================================================================
// PROJECTS
// =============================================================================

func (m *Memory) ListProjects(_ context.Context) ([]Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Project, 0, len(m.projects))
	for _, p := range m.projects {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) GetProject(_ context.Context, id string) (*Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.projects[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *Memory) SaveProject(_ context.Context, p Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects[p.ID] = p
	return nil
}

// =============================================================================
// CONTRACTORS
// =============================================================================

func (m *Memory) ListContractors(_ context.Context) ([]Contractor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Contractor, 0, len(m.contractors))
	for _, c := range m.contractors {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) GetContractor(_ context.Context, id string) (*Contractor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.contractors[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *Memory) SaveContractor(_ context.Context, c Contractor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contractors[c.ID] = c
	return nil
}

// =============================================================================
// BUDGET LINES
// =============================================================================

func (m *Memory) ListBudgetLines(_ context.Context, projectID string) ([]budget.LineInput, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []budget.LineInput
	for _, l := range m.budgetLines {
		if l.ProjectID == projectID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) GetBudgetLine(_ context.Context, id string) (*budget.LineInput, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	l, ok := m.budgetLines[id]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (m *Memory) SaveBudgetLine(_ context.Context, line budget.LineInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.budgetLines[line.ID] = line
	return nil
}

func (m *Memory) SaveBudgetLines(_ context.Context, lines []budget.LineInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range lines {
		m.budgetLines[l.ID] = l
	}
	return nil
}

func (m *Memory) DeleteBudgetLine(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.budgetLines[id]; !ok {
		return ErrNotFound
	}
	delete(m.budgetLines, id)
	return nil
}

// =============================================================================
// CONTRACTS
// =============================================================================

func (m *Memory) ListContracts(_ context.Context, projectID string) ([]Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Contract
	for _, c := range m.contracts {
		if c.ProjectID == projectID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) GetContract(_ context.Context, id string) (*Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.contracts[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *Memory) SaveContract(_ context.Context, c Contract) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contracts[c.ID] = c
	return nil
}

func (m *Memory) ActiveContractLinks(_ context.Context, budgetLineID string) ([]budget.ContractLink, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var ids []string
	for id, c := range m.contracts {
		if c.BudgetLineID == budgetLineID && c.Status == ContractActive {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	links := make([]budget.ContractLink, 0, len(ids))
	for _, id := range ids {
		links = append(links, budget.ContractLink{ContractID: id, Amount: m.contracts[id].Amount})
	}
	return links, nil
}

// =============================================================================
// SCHEDULE OF VALUES
// =============================================================================

func (m *Memory) ListSOVLines(_ context.Context, contractID string) ([]payapp.SOVLine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []payapp.SOVLine
	for _, l := range m.sovLines {
		if l.ContractID == contractID {
			out = append(out, l)
		}
	}
	return payapp.SortSchedule(out), nil
}

func (m *Memory) SaveSOVLine(_ context.Context, line payapp.SOVLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sovLines[line.ID] = line
	return nil
}

func (m *Memory) ReorderSOVLines(_ context.Context, contractID string, orderedIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, id := range orderedIDs {
		l, ok := m.sovLines[id]
		if !ok || l.ContractID != contractID {
			return ErrNotFound
		}
		l.DisplayOrder = i + 1
		m.sovLines[id] = l
	}
	return nil
}

// =============================================================================
// PAYMENT APPLICATIONS
// =============================================================================

func (m *Memory) SavePaymentApplication(_ context.Context, app PaymentApplication) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applications[app.ID] = app
	return nil
}

func (m *Memory) ListPaymentApplications(_ context.Context, contractID string) ([]PaymentApplication, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []PaymentApplication
	for _, a := range m.applications {
		if a.ContractID == contractID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) GetPaymentApplication(_ context.Context, id string) (*PaymentApplication, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.applications[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (m *Memory) ApprovePaymentApplication(_ context.Context, id string, decidedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	app, ok := m.applications[id]
	if !ok {
		return ErrNotFound
	}
	if app.Status != ApplicationSubmitted {
		return ErrConflict
	}

	// Advance each billed line's floor to the approved percent.
	for _, billing := range app.Lines {
		line, ok := m.sovLines[billing.LineID]
		if !ok {
			return ErrNotFound
		}
		line.FromPrevious = billing.CurrentPercent
		m.sovLines[billing.LineID] = line
	}

	app.Status = ApplicationApproved
	app.DecidedAt = &decidedAt
	m.applications[id] = app
	return nil
}

func (m *Memory) RejectPaymentApplication(_ context.Context, id string, decidedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	app, ok := m.applications[id]
	if !ok {
		return ErrNotFound
	}
	if app.Status != ApplicationSubmitted {
		return ErrConflict
	}

	app.Status = ApplicationRejected
	app.DecidedAt = &decidedAt
	m.applications[id] = app
	return nil
}
