/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements earnings.TxStore plus the collaborator operations the API needs
  (projects, profession authoring, shift lifecycle, exports) on SQLite.

INTERFACES IMPLEMENTED:
  earnings.Store:   Shift/profession reads, status guard, breakdown append
  earnings.TxStore: WithTx for the engine's single atomic write

APPEND-ONLY ENFORCEMENT:
  - No UPDATE or DELETE statements on the earnings table
  - No uniqueness on earnings.shift_id: appending twice stores two rows
  - The only guard against recalculation is the conditional status update
    in MarkCalculated (WHERE status = 'confirmed')

KEY TABLES:
  projects:             Worker projects
  professions:          One pay-rule set per project
  progressive_rates:    Ordered overtime brackets
  meal_types:           Meal catalog with bonus hours
  additional_services:  Service catalog with own tax rates
  shifts:               Logged workdays
  shift_meals:          Shift-to-meal links (duplicates allowed)
  shift_services:       Services explicitly attached to a shift
  earnings:             Calculation results (write-once rows)

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. Inside WithTx every read and write
  goes through the open *sql.Tx, never back through the locked Store.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency.

USAGE:
  store, err := sqlite.New("./data/earnings.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  engine := earnings.NewEngine(store, logger)

SEE ALSO:
  - earnings/store.go: Interface definitions
  - earnings/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/shift-earnings/earnings"
)

const dateLayout = "2006-01-02"

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ earnings.TxStore = (*Store)(nil)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL,
		description TEXT,
		is_active BOOLEAN DEFAULT TRUE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_projects_user
		ON projects(user_id);

	-- One profession per project
	CREATE TABLE IF NOT EXISTS professions (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL UNIQUE REFERENCES projects(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		base_shift_hours REAL NOT NULL,
		base_rate_net INTEGER NOT NULL,
		base_rate_gross INTEGER NOT NULL,
		tax_percentage REAL NOT NULL,
		base_overtime_rate INTEGER NOT NULL,
		daily_allowance INTEGER NOT NULL DEFAULT 0,
		overtime_threshold REAL NOT NULL DEFAULT 0,
		overtime_rounding REAL NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS progressive_rates (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		profession_id TEXT NOT NULL REFERENCES professions(id) ON DELETE CASCADE,
		hours_from REAL NOT NULL,
		hours_to REAL,
		rate INTEGER NOT NULL,
		order_num INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_progressive_rates_profession
		ON progressive_rates(profession_id, order_num);

	-- Catalog IDs are unique per profession, so presets can be reused
	CREATE TABLE IF NOT EXISTS meal_types (
		id TEXT NOT NULL,
		profession_id TEXT NOT NULL REFERENCES professions(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		bonus_hours REAL NOT NULL DEFAULT 1.0,
		keywords TEXT,
		PRIMARY KEY (profession_id, id)
	);

	CREATE TABLE IF NOT EXISTS additional_services (
		id TEXT NOT NULL,
		profession_id TEXT NOT NULL REFERENCES professions(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		cost INTEGER NOT NULL,
		tax_percentage REAL NOT NULL DEFAULT 0,
		application_rule TEXT NOT NULL DEFAULT 'on_mention',
		keywords TEXT,
		PRIMARY KEY (profession_id, id)
	);

	CREATE TABLE IF NOT EXISTS shifts (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects(id),
		date TEXT NOT NULL,
		start_time TEXT,
		end_time TEXT,
		total_hours REAL NOT NULL,
		is_expense_day BOOLEAN DEFAULT FALSE,
		status TEXT NOT NULL DEFAULT 'draft',
		original_message TEXT,
		parsed_data TEXT,
		overtime_hours REAL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_shifts_project_date
		ON shifts(project_id, date);

	CREATE TABLE IF NOT EXISTS shift_meals (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		shift_id TEXT NOT NULL REFERENCES shifts(id) ON DELETE CASCADE,
		meal_type_id TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_shift_meals_shift
		ON shift_meals(shift_id);

	CREATE TABLE IF NOT EXISTS shift_services (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		shift_id TEXT NOT NULL REFERENCES shifts(id) ON DELETE CASCADE,
		service_id TEXT NOT NULL
	);

	-- Earnings (append-only, no uniqueness on shift_id)
	CREATE TABLE IF NOT EXISTS earnings (
		id TEXT PRIMARY KEY,
		shift_id TEXT NOT NULL REFERENCES shifts(id),
		base_pay_net INTEGER NOT NULL,
		base_pay_gross INTEGER NOT NULL,
		overtime_net INTEGER NOT NULL,
		overtime_gross INTEGER NOT NULL,
		meals_net INTEGER NOT NULL,
		meals_gross INTEGER NOT NULL,
		daily_allowance INTEGER NOT NULL,
		services_net INTEGER NOT NULL,
		services_gross INTEGER NOT NULL,
		total_net INTEGER NOT NULL,
		total_gross INTEGER NOT NULL,
		calculation_details TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_earnings_shift
		ON earnings(shift_id, created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// PROJECTS
// =============================================================================

// Project is a worker's project. Each project carries one profession.
type Project struct {
	ID          string
	UserID      string
	Name        string
	Description string
	IsActive    bool
	CreatedAt   time.Time
}

// SaveProject inserts or updates a project.
func (s *Store) SaveProject(ctx context.Context, p Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO projects (id, user_id, name, description, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			name = excluded.name,
			description = excluded.description,
			is_active = excluded.is_active
	`
	_, err := s.db.ExecContext(ctx, query,
		p.ID, p.UserID, p.Name, p.Description, p.IsActive,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// GetProject retrieves a project by ID.
func (s *Store) GetProject(ctx context.Context, id string) (*Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var p Project
	var desc sql.NullString
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, user_id, name, description, is_active, created_at FROM projects WHERE id = ?",
		id,
	).Scan(&p.ID, &p.UserID, &p.Name, &desc, &p.IsActive, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, earnings.ErrProjectNotFound
	}
	if err != nil {
		return nil, err
	}
	p.Description = desc.String
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &p, nil
}

// ListProjects returns all projects, optionally filtered by user.
func (s *Store) ListProjects(ctx context.Context, userID string) ([]Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT id, user_id, name, description, is_active, created_at FROM projects"
	var args []any
	if userID != "" {
		query += " WHERE user_id = ?"
		args = append(args, userID)
	}
	query += " ORDER BY created_at DESC, name"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		var desc sql.NullString
		var createdAt string
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &desc, &p.IsActive, &createdAt); err != nil {
			return nil, err
		}
		p.Description = desc.String
		p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// =============================================================================
// PROFESSIONS
// =============================================================================

// SaveProfession stores a profession and replaces its brackets, meal catalog
// and service catalog in one transaction.
func (s *Store) SaveProfession(ctx context.Context, p earnings.Profession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := saveProfession(ctx, sqlTx, p); err != nil {
		return err
	}
	return sqlTx.Commit()
}

func saveProfession(ctx context.Context, q querier, p earnings.Profession) error {
	now := time.Now().UTC().Format(time.RFC3339)

	var existingID string
	err := q.QueryRowContext(ctx, "SELECT id FROM professions WHERE project_id = ?", p.ProjectID).Scan(&existingID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return err
	default:
		if existingID != string(p.ID) {
			if _, err := q.ExecContext(ctx, "DELETE FROM professions WHERE id = ?", existingID); err != nil {
				return fmt.Errorf("failed to replace profession: %w", err)
			}
		}
	}

	query := `
		INSERT INTO professions
		(id, project_id, name, base_shift_hours, base_rate_net, base_rate_gross, tax_percentage,
		 base_overtime_rate, daily_allowance, overtime_threshold, overtime_rounding, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			project_id = excluded.project_id,
			name = excluded.name,
			base_shift_hours = excluded.base_shift_hours,
			base_rate_net = excluded.base_rate_net,
			base_rate_gross = excluded.base_rate_gross,
			tax_percentage = excluded.tax_percentage,
			base_overtime_rate = excluded.base_overtime_rate,
			daily_allowance = excluded.daily_allowance,
			overtime_threshold = excluded.overtime_threshold,
			overtime_rounding = excluded.overtime_rounding,
			updated_at = excluded.updated_at
	`
	_, err = q.ExecContext(ctx, query,
		p.ID, p.ProjectID, p.Name, p.BaseShiftHours, p.BasePayNet, p.BasePayGross, p.TaxPercent,
		p.BaseOvertimeRate, p.PerDiem, p.OvertimeThreshold, p.OvertimeRounding, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save profession: %w", err)
	}

	for _, table := range []string{"progressive_rates", "meal_types", "additional_services"} {
		if _, err := q.ExecContext(ctx, "DELETE FROM "+table+" WHERE profession_id = ?", p.ID); err != nil {
			return err
		}
	}

	for _, b := range p.Brackets {
		var to sql.NullFloat64
		if b.HoursTo != nil {
			to = sql.NullFloat64{Float64: *b.HoursTo, Valid: true}
		}
		_, err := q.ExecContext(ctx,
			"INSERT INTO progressive_rates (profession_id, hours_from, hours_to, rate, order_num) VALUES (?, ?, ?, ?, ?)",
			p.ID, b.HoursFrom, to, b.RateNet, b.Order,
		)
		if err != nil {
			return fmt.Errorf("failed to save progressive rate: %w", err)
		}
	}

	for _, m := range p.Meals {
		_, err := q.ExecContext(ctx,
			"INSERT INTO meal_types (id, profession_id, name, bonus_hours, keywords) VALUES (?, ?, ?, ?, ?)",
			m.ID, p.ID, m.Name, m.BonusHours, encodeKeywords(m.Keywords),
		)
		if err != nil {
			return fmt.Errorf("failed to save meal type: %w", err)
		}
	}

	for _, svc := range p.Services {
		_, err := q.ExecContext(ctx,
			`INSERT INTO additional_services (id, profession_id, name, cost, tax_percentage, application_rule, keywords)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			svc.ID, p.ID, svc.Name, svc.CostNet, svc.TaxPercent, svc.Rule, encodeKeywords(svc.Keywords),
		)
		if err != nil {
			return fmt.Errorf("failed to save service: %w", err)
		}
	}
	return nil
}

// GetProfessionByProject loads a project's profession with its brackets in
// declared order and both catalogs.
func (s *Store) GetProfessionByProject(ctx context.Context, projectID earnings.ProjectID) (*earnings.Profession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getProfessionByProject(ctx, s.db, projectID)
}

func getProfessionByProject(ctx context.Context, q querier, projectID earnings.ProjectID) (*earnings.Profession, error) {
	var p earnings.Profession
	err := q.QueryRowContext(ctx, `
		SELECT id, project_id, name, base_shift_hours, base_rate_net, base_rate_gross, tax_percentage,
		       base_overtime_rate, daily_allowance, overtime_threshold, overtime_rounding
		FROM professions WHERE project_id = ?`,
		projectID,
	).Scan(&p.ID, &p.ProjectID, &p.Name, &p.BaseShiftHours, &p.BasePayNet, &p.BasePayGross, &p.TaxPercent,
		&p.BaseOvertimeRate, &p.PerDiem, &p.OvertimeThreshold, &p.OvertimeRounding)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project %s: %w", projectID, earnings.ErrProfessionNotFound)
	}
	if err != nil {
		return nil, err
	}

	if p.Brackets, err = loadBrackets(ctx, q, p.ID); err != nil {
		return nil, err
	}
	if p.Meals, err = loadMeals(ctx, q, p.ID); err != nil {
		return nil, err
	}
	if p.Services, err = loadServices(ctx, q, p.ID); err != nil {
		return nil, err
	}
	return &p, nil
}

func loadBrackets(ctx context.Context, q querier, professionID earnings.ProfessionID) ([]earnings.Bracket, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT hours_from, hours_to, rate, order_num FROM progressive_rates WHERE profession_id = ? ORDER BY order_num, id",
		professionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var brackets []earnings.Bracket
	for rows.Next() {
		var b earnings.Bracket
		var to sql.NullFloat64
		if err := rows.Scan(&b.HoursFrom, &to, &b.RateNet, &b.Order); err != nil {
			return nil, err
		}
		if to.Valid {
			v := to.Float64
			b.HoursTo = &v
		}
		brackets = append(brackets, b)
	}
	return brackets, rows.Err()
}

func loadMeals(ctx context.Context, q querier, professionID earnings.ProfessionID) ([]earnings.MealType, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT id, name, bonus_hours, keywords FROM meal_types WHERE profession_id = ? ORDER BY rowid",
		professionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var meals []earnings.MealType
	for rows.Next() {
		var m earnings.MealType
		var keywords sql.NullString
		if err := rows.Scan(&m.ID, &m.Name, &m.BonusHours, &keywords); err != nil {
			return nil, err
		}
		m.Keywords = decodeKeywords(keywords.String)
		meals = append(meals, m)
	}
	return meals, rows.Err()
}

func loadServices(ctx context.Context, q querier, professionID earnings.ProfessionID) ([]earnings.Service, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT id, name, cost, tax_percentage, application_rule, keywords FROM additional_services WHERE profession_id = ? ORDER BY rowid",
		professionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var services []earnings.Service
	for rows.Next() {
		var svc earnings.Service
		var keywords sql.NullString
		if err := rows.Scan(&svc.ID, &svc.Name, &svc.CostNet, &svc.TaxPercent, &svc.Rule, &keywords); err != nil {
			return nil, err
		}
		svc.Keywords = decodeKeywords(keywords.String)
		services = append(services, svc)
	}
	return services, rows.Err()
}

// =============================================================================
// SHIFTS
// =============================================================================

// CreateShift inserts a shift with its meal links and attached services.
// An empty ID is filled with a new UUID; an empty status defaults to draft.
func (s *Store) CreateShift(ctx context.Context, shift earnings.Shift) (earnings.ShiftID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	id, err := createShift(ctx, sqlTx, shift)
	if err != nil {
		return "", err
	}
	if err := sqlTx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

func createShift(ctx context.Context, q querier, shift earnings.Shift) (earnings.ShiftID, error) {
	if shift.ID == "" {
		shift.ID = earnings.ShiftID(uuid.NewString())
	}
	if shift.Status == "" {
		shift.Status = earnings.StatusDraft
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO shifts
		(id, project_id, date, start_time, end_time, total_hours, is_expense_day, status,
		 original_message, parsed_data, overtime_hours, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		shift.ID, shift.ProjectID, shift.Date.Format(dateLayout), shift.StartTime, shift.EndTime,
		shift.TotalHours, shift.IsExpenseDay, shift.Status, shift.OriginalMessage,
		nullString(shift.MentionsJSON), shift.OvertimeHours, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create shift: %w", err)
	}

	for _, mealID := range shift.Meals {
		if _, err := q.ExecContext(ctx,
			"INSERT INTO shift_meals (shift_id, meal_type_id) VALUES (?, ?)", shift.ID, mealID,
		); err != nil {
			return "", fmt.Errorf("failed to link meal: %w", err)
		}
	}
	for _, svcID := range shift.AttachedServices {
		if _, err := q.ExecContext(ctx,
			"INSERT INTO shift_services (shift_id, service_id) VALUES (?, ?)", shift.ID, svcID,
		); err != nil {
			return "", fmt.Errorf("failed to attach service: %w", err)
		}
	}
	return shift.ID, nil
}

// GetShift retrieves a shift with its meal links and attached services.
func (s *Store) GetShift(ctx context.Context, id earnings.ShiftID) (*earnings.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getShift(ctx, s.db, id)
}

const shiftColumns = `id, project_id, date, start_time, end_time, total_hours, is_expense_day, status,
	original_message, parsed_data, overtime_hours, created_at`

func getShift(ctx context.Context, q querier, id earnings.ShiftID) (*earnings.Shift, error) {
	row := q.QueryRowContext(ctx, "SELECT "+shiftColumns+" FROM shifts WHERE id = ?", id)
	shift, err := scanShift(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("shift %s: %w", id, earnings.ErrShiftNotFound)
	}
	if err != nil {
		return nil, err
	}

	if shift.Meals, err = loadShiftLinks[earnings.MealTypeID](ctx, q,
		"SELECT meal_type_id FROM shift_meals WHERE shift_id = ? ORDER BY id", id); err != nil {
		return nil, err
	}
	if shift.AttachedServices, err = loadShiftLinks[earnings.ServiceID](ctx, q,
		"SELECT service_id FROM shift_services WHERE shift_id = ? ORDER BY id", id); err != nil {
		return nil, err
	}
	return shift, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanShift(row rowScanner) (*earnings.Shift, error) {
	var sh earnings.Shift
	var date, createdAt string
	var start, end, msg, parsed sql.NullString
	var overtime sql.NullFloat64

	err := row.Scan(&sh.ID, &sh.ProjectID, &date, &start, &end, &sh.TotalHours, &sh.IsExpenseDay,
		&sh.Status, &msg, &parsed, &overtime, &createdAt)
	if err != nil {
		return nil, err
	}
	sh.Date, _ = time.Parse(dateLayout, date)
	sh.StartTime = start.String
	sh.EndTime = end.String
	sh.OriginalMessage = msg.String
	sh.MentionsJSON = parsed.String
	sh.OvertimeHours = overtime.Float64
	sh.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &sh, nil
}

func loadShiftLinks[T ~string](ctx context.Context, q querier, query string, id earnings.ShiftID) ([]T, error) {
	rows, err := q.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, T(v))
	}
	return out, rows.Err()
}

// ListShifts returns a project's shifts, newest date first. Meal links are
// not loaded.
func (s *Store) ListShifts(ctx context.Context, projectID earnings.ProjectID) ([]earnings.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+shiftColumns+" FROM shifts WHERE project_id = ? ORDER BY date DESC, created_at DESC",
		projectID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shifts []earnings.Shift
	for rows.Next() {
		sh, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		shifts = append(shifts, *sh)
	}
	return shifts, rows.Err()
}

// ConfirmShift moves a draft shift to confirmed.
func (s *Store) ConfirmShift(ctx context.Context, id earnings.ShiftID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return transition(ctx, s.db, id, earnings.StatusDraft, earnings.StatusConfirmed, nil)
}

// MarkCalculated moves a confirmed shift to calculated. The conditional
// update is the single-writer guard for a shift.
func (s *Store) MarkCalculated(ctx context.Context, id earnings.ShiftID, overtimeHours float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return transition(ctx, s.db, id, earnings.StatusConfirmed, earnings.StatusCalculated, &overtimeHours)
}

func transition(ctx context.Context, q querier, id earnings.ShiftID, from, to earnings.ShiftStatus, overtimeHours *float64) error {
	var res sql.Result
	var err error
	if overtimeHours != nil {
		res, err = q.ExecContext(ctx,
			"UPDATE shifts SET status = ?, overtime_hours = ? WHERE id = ? AND status = ?",
			to, *overtimeHours, id, from)
	} else {
		res, err = q.ExecContext(ctx,
			"UPDATE shifts SET status = ? WHERE id = ? AND status = ?",
			to, id, from)
	}
	if err != nil {
		return fmt.Errorf("failed to update shift status: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	var current earnings.ShiftStatus
	err = q.QueryRowContext(ctx, "SELECT status FROM shifts WHERE id = ?", id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("shift %s: %w", id, earnings.ErrShiftNotFound)
	}
	if err != nil {
		return err
	}
	return &earnings.TransitionError{ShiftID: id, From: current, To: to}
}

// =============================================================================
// EARNINGS (append-only)
// =============================================================================

// AppendBreakdown inserts a breakdown row.
func (s *Store) AppendBreakdown(ctx context.Context, b earnings.Breakdown) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendBreakdown(ctx, s.db, b)
}

func appendBreakdown(ctx context.Context, q querier, b earnings.Breakdown) error {
	details, err := json.Marshal(b.Details)
	if err != nil {
		return fmt.Errorf("failed to encode calculation details: %w", err)
	}
	if b.ID == "" {
		b.ID = earnings.BreakdownID(uuid.NewString())
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO earnings
		(id, shift_id, base_pay_net, base_pay_gross, overtime_net, overtime_gross, meals_net, meals_gross,
		 daily_allowance, services_net, services_gross, total_net, total_gross, calculation_details, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.ShiftID, b.BasePayNet, b.BasePayGross, b.OvertimeNet, b.OvertimeGross, b.MealsNet, b.MealsGross,
		b.PerDiem, b.ServicesNet, b.ServicesGross, b.TotalNet, b.TotalGross, string(details),
		b.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to append earnings: %w", err)
	}
	return nil
}

// ListBreakdowns returns a shift's breakdown rows, oldest first.
func (s *Store) ListBreakdowns(ctx context.Context, shiftID earnings.ShiftID) ([]earnings.Breakdown, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queryBreakdowns(ctx, s.db,
		"SELECT "+earningsColumns+" FROM earnings WHERE shift_id = ? ORDER BY created_at, rowid", shiftID)
}

// ListProjectBreakdowns returns every breakdown row of a project's shifts,
// ordered by shift date.
func (s *Store) ListProjectBreakdowns(ctx context.Context, projectID earnings.ProjectID) ([]earnings.Breakdown, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queryBreakdowns(ctx, s.db, `
		SELECT `+prefixed("e.", earningsColumns)+`
		FROM earnings e JOIN shifts sh ON sh.id = e.shift_id
		WHERE sh.project_id = ?
		ORDER BY sh.date, e.created_at, e.rowid`, projectID)
}

const earningsColumns = `id, shift_id, base_pay_net, base_pay_gross, overtime_net, overtime_gross, meals_net, meals_gross, daily_allowance, services_net, services_gross, total_net, total_gross, calculation_details, created_at`

func prefixed(prefix, columns string) string {
	cols := strings.Split(columns, ", ")
	for i, c := range cols {
		cols[i] = prefix + c
	}
	return strings.Join(cols, ", ")
}

func queryBreakdowns(ctx context.Context, q querier, query string, args ...any) ([]earnings.Breakdown, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []earnings.Breakdown
	for rows.Next() {
		var b earnings.Breakdown
		var details, createdAt string
		err := rows.Scan(&b.ID, &b.ShiftID, &b.BasePayNet, &b.BasePayGross, &b.OvertimeNet, &b.OvertimeGross,
			&b.MealsNet, &b.MealsGross, &b.PerDiem, &b.ServicesNet, &b.ServicesGross, &b.TotalNet, &b.TotalGross,
			&details, &createdAt)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(details), &b.Details); err != nil {
			return nil, fmt.Errorf("earnings %s: failed to decode calculation details: %w", b.ID, err)
		}
		b.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		result = append(result, b)
	}
	return result, rows.Err()
}

// =============================================================================
// TRANSACTIONAL STORE (earnings.TxStore interface)
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store earnings.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) CreateShift(ctx context.Context, shift earnings.Shift) (earnings.ShiftID, error) {
	return createShift(ctx, ts.tx, shift)
}

func (ts *txStore) ConfirmShift(ctx context.Context, id earnings.ShiftID) error {
	return transition(ctx, ts.tx, id, earnings.StatusDraft, earnings.StatusConfirmed, nil)
}

func (ts *txStore) GetShift(ctx context.Context, id earnings.ShiftID) (*earnings.Shift, error) {
	return getShift(ctx, ts.tx, id)
}

func (ts *txStore) GetProfessionByProject(ctx context.Context, projectID earnings.ProjectID) (*earnings.Profession, error) {
	return getProfessionByProject(ctx, ts.tx, projectID)
}

func (ts *txStore) MarkCalculated(ctx context.Context, id earnings.ShiftID, overtimeHours float64) error {
	return transition(ctx, ts.tx, id, earnings.StatusConfirmed, earnings.StatusCalculated, &overtimeHours)
}

func (ts *txStore) AppendBreakdown(ctx context.Context, b earnings.Breakdown) error {
	return appendBreakdown(ctx, ts.tx, b)
}

func (ts *txStore) ListBreakdowns(ctx context.Context, shiftID earnings.ShiftID) ([]earnings.Breakdown, error) {
	return queryBreakdowns(ctx, ts.tx,
		"SELECT "+earningsColumns+" FROM earnings WHERE shift_id = ? ORDER BY created_at, rowid", shiftID)
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{
		"earnings", "shift_services", "shift_meals", "shifts",
		"additional_services", "meal_types", "progressive_rates", "professions", "projects",
	}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// Keywords are opaque to the engine; they are kept as a JSON list.
func encodeKeywords(keywords []string) sql.NullString {
	if len(keywords) == 0 {
		return sql.NullString{}
	}
	b, err := json.Marshal(keywords)
	if err != nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(b), Valid: true}
}

func decodeKeywords(raw string) []string {
	if raw == "" {
		return nil
	}
	var keywords []string
	if err := json.Unmarshal([]byte(raw), &keywords); err != nil {
		return nil
	}
	return keywords
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
