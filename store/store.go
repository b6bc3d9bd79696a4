/*
Package store defines the persistence interface for the construction ops
service and the records it exchanges with the engines.

PURPOSE:
  The budget and payapp engines are pure; everything durable lives behind
  this interface. Implementations exist for SQLite (production) and memory
  (tests). Engine types cross the boundary unchanged - a budget line is
  persisted exactly as the budget.LineInput the engine derives from.

KEY RECORDS:
  Project:            A construction project
  Contractor:         A trade contractor
  Contract:           A signed contract, optionally linked to a budget line
                      (the source of derived committed costs)
  PaymentApplication: One submitted application with its validated billing

LIFECYCLE RULES ENFORCED HERE:
  - A payment application row is written only after engine validation; the
    store never sees an invalid application.
  - Approving an application atomically advances each schedule-of-values
    line's from_previous_application to the approved percent. That advance
    happens nowhere else.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - store/memory.go:        In-memory for tests

SEE ALSO:
  - budget/types.go: LineInput persisted as-is
  - payapp/types.go: SOVLine and billing shapes
*/
package store

import (
	"context"
	"errors"
	"time"

	"github.com/stanton/construction-ops/budget"
	"github.com/stanton/construction-ops/money"
	"github.com/stanton/construction-ops/payapp"
)

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

var (
	// ErrNotFound is returned when a referenced record doesn't exist.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when a write would violate a uniqueness or
	// state constraint (e.g. approving an already-approved application).
	ErrConflict = errors.New("conflicting state")
)

// =============================================================================
// RECORDS
// =============================================================================

type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Client    string    `json:"client,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Contractor struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Trade     string    `json:"trade,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type ContractStatus string

const (
	ContractDraft      ContractStatus = "draft"
	ContractActive     ContractStatus = "active"
	ContractTerminated ContractStatus = "terminated"
)

// Contract is a signed agreement with a contractor. When BudgetLineID is set,
// the contract's amount feeds the linked line's derived committed costs.
type Contract struct {
	ID           string         `json:"id"`
	ProjectID    string         `json:"project_id"`
	ContractorID string         `json:"contractor_id"`
	BudgetLineID string         `json:"budget_line_id,omitempty"`
	Description  string         `json:"description,omitempty"`
	Amount       money.Money    `json:"amount"`
	Status       ContractStatus `json:"status"`
	CreatedAt    time.Time      `json:"created_at"`
}

type ApplicationStatus string

const (
	ApplicationSubmitted ApplicationStatus = "submitted"
	ApplicationApproved  ApplicationStatus = "approved"
	ApplicationRejected  ApplicationStatus = "rejected"
	ApplicationPaid      ApplicationStatus = "paid"
)

// PaymentApplication is one validated submission: the per-line billing the
// engine computed plus totals and notes. Always written whole.
type PaymentApplication struct {
	ID         string                   `json:"id"`
	ContractID string                   `json:"contract_id"`
	Status     ApplicationStatus        `json:"status"`
	Notes      string                   `json:"notes,omitempty"`
	Lines      []payapp.LineBilling     `json:"lines"`
	Totals     payapp.ApplicationTotals `json:"totals"`
	CreatedAt  time.Time                `json:"created_at"`
	DecidedAt  *time.Time               `json:"decided_at,omitempty"`
}

// =============================================================================
// STORE INTERFACE
// =============================================================================

type Store interface {
	// Projects
	ListProjects(ctx context.Context) ([]Project, error)
	GetProject(ctx context.Context, id string) (*Project, error)
	SaveProject(ctx context.Context, p Project) error

	// Contractors
	ListContractors(ctx context.Context) ([]Contractor, error)
	GetContractor(ctx context.Context, id string) (*Contractor, error)
	SaveContractor(ctx context.Context, c Contractor) error

	// Budget lines. Save is an upsert; SaveBudgetLines is atomic (bulk
	// import either lands whole or not at all).
	ListBudgetLines(ctx context.Context, projectID string) ([]budget.LineInput, error)
	GetBudgetLine(ctx context.Context, id string) (*budget.LineInput, error)
	SaveBudgetLine(ctx context.Context, line budget.LineInput) error
	SaveBudgetLines(ctx context.Context, lines []budget.LineInput) error
	DeleteBudgetLine(ctx context.Context, id string) error

	// Contracts
	ListContracts(ctx context.Context, projectID string) ([]Contract, error)
	GetContract(ctx context.Context, id string) (*Contract, error)
	SaveContract(ctx context.Context, c Contract) error

	// ActiveContractLinks returns the active contracts linked to a budget
	// line, in the shape the reconciliation engine consumes.
	ActiveContractLinks(ctx context.Context, budgetLineID string) ([]budget.ContractLink, error)

	// Schedule of values
	ListSOVLines(ctx context.Context, contractID string) ([]payapp.SOVLine, error)
	SaveSOVLine(ctx context.Context, line payapp.SOVLine) error
	ReorderSOVLines(ctx context.Context, contractID string, orderedIDs []string) error

	// Payment applications
	SavePaymentApplication(ctx context.Context, app PaymentApplication) error
	ListPaymentApplications(ctx context.Context, contractID string) ([]PaymentApplication, error)
	GetPaymentApplication(ctx context.Context, id string) (*PaymentApplication, error)

	// ApprovePaymentApplication marks the application approved and advances
	// from_previous_application on every billed line, atomically.
	ApprovePaymentApplication(ctx context.Context, id string, decidedAt time.Time) error

	// RejectPaymentApplication marks the application rejected; schedule
	// lines are untouched.
	RejectPaymentApplication(ctx context.Context, id string, decidedAt time.Time) error
}
