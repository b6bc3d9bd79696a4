/*
Package sqlite provides the SQLite-backed implementation of store.Store.

PURPOSE:
  Durable persistence for projects, contractors, budget lines, contracts,
  schedules of values, and payment applications. The same SQL shapes port
  to PostgreSQL with minor dialect changes.

MONEY REPRESENTATION:
  Monetary and percent columns are TEXT holding decimal strings. SQLite's
  numeric affinity would silently go through float64; text round-trips
  decimal.Decimal exactly.

ATOMICITY:
  - SaveBudgetLines: bulk import lands whole or not at all
  - SavePaymentApplication: application header + lines in one transaction
  - ApprovePaymentApplication: status change + from_previous_application
    advance across every billed line in one transaction

WAL MODE:
  Opened with WAL and foreign keys on, same as any multi-reader deployment.

USAGE:
  st, err := sqlite.New("./data/ops.db")   // ":memory:" for tests
  defer st.Close()

SEE ALSO:
  - store/store.go:  Interface and records
  - store/memory.go: In-memory twin for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/stanton/construction-ops/budget"
	"github.com/stanton/construction-ops/money"
	"github.com/stanton/construction-ops/payapp"
	"github.com/stanton/construction-ops/store"
)

type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// New opens (and migrates) a SQLite store. Use ":memory:" for tests.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		client TEXT,
		address TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS contractors (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		trade TEXT,
		phone TEXT,
		email TEXT,
		created_at TEXT NOT NULL
	);

	-- Raw budget line fields. Derived fields (remaining, percent spent,
	-- status) are never stored; the engine recomputes them on read.
	CREATE TABLE IF NOT EXISTS budget_lines (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects(id),
		category_name TEXT NOT NULL,
		original_amount TEXT NOT NULL,
		revised_amount TEXT NOT NULL,
		actual_spend TEXT NOT NULL,
		committed_costs TEXT NOT NULL,
		committed_source TEXT NOT NULL DEFAULT 'manual',
		display_order INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_budget_lines_project
		ON budget_lines(project_id, display_order);

	CREATE TABLE IF NOT EXISTS contracts (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects(id),
		contractor_id TEXT NOT NULL REFERENCES contractors(id),
		budget_line_id TEXT REFERENCES budget_lines(id),
		description TEXT,
		amount TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'draft',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_contracts_project ON contracts(project_id);
	-- Hot path: committed-cost reconciliation sums active contracts per line
	CREATE INDEX IF NOT EXISTS idx_contracts_budget_line
		ON contracts(budget_line_id, status);

	CREATE TABLE IF NOT EXISTS sov_lines (
		id TEXT PRIMARY KEY,
		contract_id TEXT NOT NULL REFERENCES contracts(id),
		description TEXT,
		scheduled_value TEXT NOT NULL,
		change_order_amount TEXT NOT NULL,
		from_previous_application TEXT NOT NULL,
		display_order INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_sov_lines_contract
		ON sov_lines(contract_id, display_order);

	CREATE TABLE IF NOT EXISTS payment_applications (
		id TEXT PRIMARY KEY,
		contract_id TEXT NOT NULL REFERENCES contracts(id),
		status TEXT NOT NULL,
		notes TEXT,
		total_scheduled_value TEXT NOT NULL,
		total_previous_amount TEXT NOT NULL,
		total_current_amount TEXT NOT NULL,
		total_this_period TEXT NOT NULL,
		created_at TEXT NOT NULL,
		decided_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_applications_contract
		ON payment_applications(contract_id, created_at);

	CREATE TABLE IF NOT EXISTS payment_application_lines (
		application_id TEXT NOT NULL REFERENCES payment_applications(id),
		sov_line_id TEXT NOT NULL REFERENCES sov_lines(id),
		current_percent TEXT NOT NULL,
		this_period_percent TEXT NOT NULL,
		this_period_amount TEXT NOT NULL,
		paid_to_date_amount TEXT NOT NULL,
		PRIMARY KEY (application_id, sov_line_id)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// SCAN HELPERS
// =============================================================================

func scanMoney(s string) (money.Money, error) { return money.FromString(s) }

func scanPercent(s string) (money.Percent, error) {
	m, err := money.FromString(s)
	if err != nil {
		return money.Percent{}, err
	}
	return money.PercentFromDecimal(m.Value), nil
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

// =============================================================================
// PROJECTS
// =============================================================================

func (s *Store) ListProjects(ctx context.Context) ([]store.Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, COALESCE(client,''), COALESCE(address,''), created_at
		 FROM projects ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Project
	for rows.Next() {
		var p store.Project
		var createdAt string
		if err := rows.Scan(&p.ID, &p.Name, &p.Client, &p.Address, &createdAt); err != nil {
			return nil, err
		}
		p.CreatedAt = parseTime(createdAt)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) GetProject(ctx context.Context, id string) (*store.Project, error) {
	var p store.Project
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, COALESCE(client,''), COALESCE(address,''), created_at
		 FROM projects WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.Client, &p.Address, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.CreatedAt = parseTime(createdAt)
	return &p, nil
}

func (s *Store) SaveProject(ctx context.Context, p store.Project) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (id, name, client, address, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name=excluded.name, client=excluded.client,
		   address=excluded.address`,
		p.ID, p.Name, p.Client, p.Address, p.CreatedAt.Format(time.RFC3339Nano))
	return err
}

// =============================================================================
// CONTRACTORS
// =============================================================================

func (s *Store) ListContractors(ctx context.Context) ([]store.Contractor, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, COALESCE(trade,''), COALESCE(phone,''), COALESCE(email,''), created_at
		 FROM contractors ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Contractor
	for rows.Next() {
		var c store.Contractor
		var createdAt string
		if err := rows.Scan(&c.ID, &c.Name, &c.Trade, &c.Phone, &c.Email, &createdAt); err != nil {
			return nil, err
		}
		c.CreatedAt = parseTime(createdAt)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) GetContractor(ctx context.Context, id string) (*store.Contractor, error) {
	var c store.Contractor
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, COALESCE(trade,''), COALESCE(phone,''), COALESCE(email,''), created_at
		 FROM contractors WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.Trade, &c.Phone, &c.Email, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.CreatedAt = parseTime(createdAt)
	return &c, nil
}

func (s *Store) SaveContractor(ctx context.Context, c store.Contractor) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO contractors (id, name, trade, phone, email, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name=excluded.name, trade=excluded.trade,
		   phone=excluded.phone, email=excluded.email`,
		c.ID, c.Name, c.Trade, c.Phone, c.Email, c.CreatedAt.Format(time.RFC3339Nano))
	return err
}

// =============================================================================
// BUDGET LINES
// =============================================================================

const budgetLineCols = `id, project_id, category_name, original_amount,
	revised_amount, actual_spend, committed_costs, committed_source, display_order`

func scanBudgetLine(scan func(...any) error) (budget.LineInput, error) {
	var (
		l                                    budget.LineInput
		original, revised, actual, committed string
		source                               string
	)
	if err := scan(&l.ID, &l.ProjectID, &l.CategoryName, &original, &revised,
		&actual, &committed, &source, &l.DisplayOrder); err != nil {
		return budget.LineInput{}, err
	}

	var err error
	if l.OriginalAmount, err = scanMoney(original); err != nil {
		return budget.LineInput{}, err
	}
	if l.RevisedAmount, err = scanMoney(revised); err != nil {
		return budget.LineInput{}, err
	}
	if l.ActualSpend, err = scanMoney(actual); err != nil {
		return budget.LineInput{}, err
	}
	committedAmount, err := scanMoney(committed)
	if err != nil {
		return budget.LineInput{}, err
	}
	l.Committed = budget.CommittedCosts{
		Amount: committedAmount,
		Source: budget.CommittedSource(source),
	}
	return l, nil
}

func (s *Store) ListBudgetLines(ctx context.Context, projectID string) ([]budget.LineInput, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+budgetLineCols+` FROM budget_lines
		 WHERE project_id = ? ORDER BY display_order, id`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []budget.LineInput
	for rows.Next() {
		l, err := scanBudgetLine(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Store) GetBudgetLine(ctx context.Context, id string) (*budget.LineInput, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+budgetLineCols+` FROM budget_lines WHERE id = ?`, id)

	l, err := scanBudgetLine(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *Store) SaveBudgetLine(ctx context.Context, line budget.LineInput) error {
	return execSaveBudgetLine(ctx, s.db, line)
}

func (s *Store) SaveBudgetLines(ctx context.Context, lines []budget.LineInput) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, l := range lines {
		if err := execSaveBudgetLine(ctx, tx, l); err != nil {
			return err
		}
	}
	return tx.Commit()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func execSaveBudgetLine(ctx context.Context, ex execer, l budget.LineInput) error {
	_, err := ex.ExecContext(ctx,
		`INSERT INTO budget_lines (id, project_id, category_name, original_amount,
		   revised_amount, actual_spend, committed_costs, committed_source, display_order)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   category_name=excluded.category_name,
		   original_amount=excluded.original_amount,
		   revised_amount=excluded.revised_amount,
		   actual_spend=excluded.actual_spend,
		   committed_costs=excluded.committed_costs,
		   committed_source=excluded.committed_source,
		   display_order=excluded.display_order`,
		l.ID, l.ProjectID, l.CategoryName,
		l.OriginalAmount.String(), l.RevisedAmount.String(), l.ActualSpend.String(),
		l.Committed.Amount.String(), string(l.Committed.Source), l.DisplayOrder)
	return err
}

func (s *Store) DeleteBudgetLine(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM budget_lines WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// =============================================================================
// CONTRACTS
// =============================================================================

func scanContract(scan func(...any) error) (store.Contract, error) {
	var (
		c                 store.Contract
		amount, createdAt string
		status            string
	)
	if err := scan(&c.ID, &c.ProjectID, &c.ContractorID, &c.BudgetLineID,
		&c.Description, &amount, &status, &createdAt); err != nil {
		return store.Contract{}, err
	}
	m, err := scanMoney(amount)
	if err != nil {
		return store.Contract{}, err
	}
	c.Amount = m
	c.Status = store.ContractStatus(status)
	c.CreatedAt = parseTime(createdAt)
	return c, nil
}

func (s *Store) ListContracts(ctx context.Context, projectID string) ([]store.Contract, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, contractor_id, COALESCE(budget_line_id,''),
		        COALESCE(description,''), amount, status, created_at
		 FROM contracts WHERE project_id = ? ORDER BY created_at, id`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Contract
	for rows.Next() {
		c, err := scanContract(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) GetContract(ctx context.Context, id string) (*store.Contract, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, project_id, contractor_id, COALESCE(budget_line_id,''),
		        COALESCE(description,''), amount, status, created_at
		 FROM contracts WHERE id = ?`, id)

	c, err := scanContract(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) SaveContract(ctx context.Context, c store.Contract) error {
	var budgetLineID any
	if c.BudgetLineID != "" {
		budgetLineID = c.BudgetLineID
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO contracts (id, project_id, contractor_id, budget_line_id,
		   description, amount, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   contractor_id=excluded.contractor_id,
		   budget_line_id=excluded.budget_line_id,
		   description=excluded.description,
		   amount=excluded.amount,
		   status=excluded.status`,
		c.ID, c.ProjectID, c.ContractorID, budgetLineID,
		c.Description, c.Amount.String(), string(c.Status),
		c.CreatedAt.Format(time.RFC3339Nano))
	return err
}

func (s *Store) ActiveContractLinks(ctx context.Context, budgetLineID string) ([]budget.ContractLink, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, amount FROM contracts
		 WHERE budget_line_id = ? AND status = ? ORDER BY id`,
		budgetLineID, string(store.ContractActive))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []budget.ContractLink
	for rows.Next() {
		var link budget.ContractLink
		var amount string
		if err := rows.Scan(&link.ContractID, &amount); err != nil {
			return nil, err
		}
		if link.Amount, err = scanMoney(amount); err != nil {
			return nil, err
		}
		out = append(out, link)
	}
	return out, rows.Err()
}

// =============================================================================
// SCHEDULE OF VALUES
// =============================================================================

func (s *Store) ListSOVLines(ctx context.Context, contractID string) ([]payapp.SOVLine, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, contract_id, COALESCE(description,''), scheduled_value,
		        change_order_amount, from_previous_application, display_order
		 FROM sov_lines WHERE contract_id = ? ORDER BY display_order, id`, contractID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []payapp.SOVLine
	for rows.Next() {
		var (
			l                       payapp.SOVLine
			scheduled, change, prev string
		)
		if err := rows.Scan(&l.ID, &l.ContractID, &l.Description, &scheduled,
			&change, &prev, &l.DisplayOrder); err != nil {
			return nil, err
		}
		if l.ScheduledValue, err = scanMoney(scheduled); err != nil {
			return nil, err
		}
		if l.ChangeOrderAmount, err = scanMoney(change); err != nil {
			return nil, err
		}
		if l.FromPrevious, err = scanPercent(prev); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Store) SaveSOVLine(ctx context.Context, line payapp.SOVLine) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sov_lines (id, contract_id, description, scheduled_value,
		   change_order_amount, from_previous_application, display_order)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   description=excluded.description,
		   scheduled_value=excluded.scheduled_value,
		   change_order_amount=excluded.change_order_amount,
		   from_previous_application=excluded.from_previous_application,
		   display_order=excluded.display_order`,
		line.ID, line.ContractID, line.Description, line.ScheduledValue.String(),
		line.ChangeOrderAmount.String(), line.FromPrevious.String(), line.DisplayOrder)
	return err
}

func (s *Store) ReorderSOVLines(ctx context.Context, contractID string, orderedIDs []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i, id := range orderedIDs {
		res, err := tx.ExecContext(ctx,
			`UPDATE sov_lines SET display_order = ? WHERE id = ? AND contract_id = ?`,
			i+1, id, contractID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return store.ErrNotFound
		}
	}
	return tx.Commit()
}

// =============================================================================
// PAYMENT APPLICATIONS
// =============================================================================

func (s *Store) SavePaymentApplication(ctx context.Context, app store.PaymentApplication) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var decidedAt any
	if app.DecidedAt != nil {
		decidedAt = app.DecidedAt.Format(time.RFC3339Nano)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO payment_applications (id, contract_id, status, notes,
		   total_scheduled_value, total_previous_amount, total_current_amount,
		   total_this_period, created_at, decided_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		app.ID, app.ContractID, string(app.Status), app.Notes,
		app.Totals.TotalScheduledValue.String(),
		app.Totals.TotalPreviousAmount.String(),
		app.Totals.TotalCurrentAmount.String(),
		app.Totals.TotalThisPeriod.String(),
		app.CreatedAt.Format(time.RFC3339Nano), decidedAt)
	if err != nil {
		return err
	}

	for _, l := range app.Lines {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO payment_application_lines (application_id, sov_line_id,
			   current_percent, this_period_percent, this_period_amount,
			   paid_to_date_amount)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			app.ID, l.LineID, l.CurrentPercent.String(), l.ThisPeriodPercent.String(),
			l.ThisPeriodAmount.String(), l.PaidToDateAmount.String())
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) ListPaymentApplications(ctx context.Context, contractID string) ([]store.PaymentApplication, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM payment_applications
		 WHERE contract_id = ? ORDER BY created_at, id`, contractID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]store.PaymentApplication, 0, len(ids))
	for _, id := range ids {
		app, err := s.GetPaymentApplication(ctx, id)
		if err != nil {
			return nil, err
		}
		if app != nil {
			out = append(out, *app)
		}
	}
	return out, nil
}

func (s *Store) GetPaymentApplication(ctx context.Context, id string) (*store.PaymentApplication, error) {
	var (
		app                                  store.PaymentApplication
		status, createdAt                    string
		decidedAt                            sql.NullString
		scheduled, previous, current, period string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, contract_id, status, COALESCE(notes,''),
		        total_scheduled_value, total_previous_amount,
		        total_current_amount, total_this_period, created_at, decided_at
		 FROM payment_applications WHERE id = ?`, id).
		Scan(&app.ID, &app.ContractID, &status, &app.Notes,
			&scheduled, &previous, &current, &period, &createdAt, &decidedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	app.Status = store.ApplicationStatus(status)
	app.CreatedAt = parseTime(createdAt)
	if decidedAt.Valid {
		t := parseTime(decidedAt.String)
		app.DecidedAt = &t
	}
	if app.Totals.TotalScheduledValue, err = scanMoney(scheduled); err != nil {
		return nil, err
	}
	if app.Totals.TotalPreviousAmount, err = scanMoney(previous); err != nil {
		return nil, err
	}
	if app.Totals.TotalCurrentAmount, err = scanMoney(current); err != nil {
		return nil, err
	}
	if app.Totals.TotalThisPeriod, err = scanMoney(period); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT sov_line_id, current_percent, this_period_percent,
		        this_period_amount, paid_to_date_amount
		 FROM payment_application_lines
		 WHERE application_id = ? ORDER BY sov_line_id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			l                     payapp.LineBilling
			curPct, periodPct     string
			periodAmt, paidToDate string
		)
		if err := rows.Scan(&l.LineID, &curPct, &periodPct, &periodAmt, &paidToDate); err != nil {
			return nil, err
		}
		if l.CurrentPercent, err = scanPercent(curPct); err != nil {
			return nil, err
		}
		if l.ThisPeriodPercent, err = scanPercent(periodPct); err != nil {
			return nil, err
		}
		if l.ThisPeriodAmount, err = scanMoney(periodAmt); err != nil {
			return nil, err
		}
		if l.PaidToDateAmount, err = scanMoney(paidToDate); err != nil {
			return nil, err
		}
		app.Lines = append(app.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &app, nil
}

func (s *Store) ApprovePaymentApplication(ctx context.Context, id string, decidedAt time.Time) error {
	app, err := s.GetPaymentApplication(ctx, id)
	if err != nil {
		return err
	}
	if app == nil {
		return store.ErrNotFound
	}
	if app.Status != store.ApplicationSubmitted {
		return store.ErrConflict
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Advance each billed line's floor to the approved percent.
	for _, l := range app.Lines {
		res, err := tx.ExecContext(ctx,
			`UPDATE sov_lines SET from_previous_application = ? WHERE id = ?`,
			l.CurrentPercent.String(), l.LineID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return store.ErrNotFound
		}
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE payment_applications SET status = ?, decided_at = ? WHERE id = ?`,
		string(store.ApplicationApproved), decidedAt.Format(time.RFC3339Nano), id)
	if err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) RejectPaymentApplication(ctx context.Context, id string, decidedAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE payment_applications SET status = ?, decided_at = ?
		 WHERE id = ? AND status = ?`,
		string(store.ApplicationRejected), decidedAt.Format(time.RFC3339Nano),
		id, string(store.ApplicationSubmitted))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		app, err := s.GetPaymentApplication(ctx, id)
		if err != nil {
			return err
		}
		if app == nil {
			return store.ErrNotFound
		}
		return store.ErrConflict
	}
	return nil
}
