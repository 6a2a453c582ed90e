package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/wellmind/assessment-api/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS categories (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	name        TEXT NOT NULL UNIQUE COLLATE NOCASE,
	description TEXT NOT NULL DEFAULT '',
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS questions (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	text        TEXT NOT NULL,
	weight      INTEGER NOT NULL DEFAULT 1 CHECK (weight > 0),
	category_id INTEGER NOT NULL REFERENCES categories(id),
	active      INTEGER NOT NULL DEFAULT 1,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS professionals (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	first_name     TEXT NOT NULL,
	last_name      TEXT NOT NULL,
	specialization TEXT NOT NULL,
	type           TEXT NOT NULL,
	phone          TEXT NOT NULL,
	email          TEXT NOT NULL UNIQUE COLLATE NOCASE,
	address        TEXT NOT NULL,
	latitude       REAL,
	longitude      REAL,
	created_at     DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at     DATETIME
);

CREATE INDEX IF NOT EXISTS idx_questions_category_id ON questions(category_id);
CREATE INDEX IF NOT EXISTS idx_professionals_type ON professionals(type);
CREATE INDEX IF NOT EXISTS idx_professionals_specialization ON professionals(specialization);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Categories ---

func (s *SQLiteStore) CreateCategory(ctx context.Context, c *model.Category) error {
	c.Name = strings.TrimSpace(c.Name)
	taken, err := s.categoryNameTaken(ctx, c.Name, 0)
	if err != nil {
		return err
	}
	if taken {
		return eris.Wrapf(ErrConflict, "sqlite: category name %q", c.Name)
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (name, description, created_at) VALUES (?, ?, ?)`,
		c.Name, c.Description, now,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert category")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return eris.Wrap(err, "sqlite: category id")
	}
	c.ID = id
	c.CreatedAt = now
	return nil
}

func (s *SQLiteStore) GetCategory(ctx context.Context, id int64) (*model.Category, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, created_at FROM categories WHERE id = ?`, id)
	var c model.Category
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, eris.Wrapf(ErrNotFound, "sqlite: category %d", id)
		}
		return nil, eris.Wrap(err, "sqlite: scan category")
	}
	return &c, nil
}

func (s *SQLiteStore) Categories(ctx context.Context) ([]model.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, created_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list categories")
	}
	defer rows.Close()

	var out []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan category")
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate categories")
}

func (s *SQLiteStore) UpdateCategory(ctx context.Context, c *model.Category) error {
	c.Name = strings.TrimSpace(c.Name)
	taken, err := s.categoryNameTaken(ctx, c.Name, c.ID)
	if err != nil {
		return err
	}
	if taken {
		return eris.Wrapf(ErrConflict, "sqlite: category name %q", c.Name)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, description = ? WHERE id = ?`,
		c.Name, c.Description, c.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update category %d", c.ID)
	}
	return checkRowsAffected(res, "category", c.ID)
}

func (s *SQLiteStore) DeleteCategory(ctx context.Context, id int64) error {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM questions WHERE category_id = ?`, id).Scan(&n)
	if err != nil {
		return eris.Wrap(err, "sqlite: count category questions")
	}
	if n > 0 {
		return eris.Wrapf(ErrConflict, "sqlite: category %d still has %d questions", id, n)
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete category %d", id)
	}
	return checkRowsAffected(res, "category", id)
}

func (s *SQLiteStore) categoryNameTaken(ctx context.Context, name string, excludeID int64) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM categories WHERE name = ? COLLATE NOCASE AND id != ?`,
		name, excludeID).Scan(&n)
	if err != nil {
		return false, eris.Wrap(err, "sqlite: check category name")
	}
	return n > 0, nil
}

// --- Questions ---

func (s *SQLiteStore) CreateQuestion(ctx context.Context, q *model.Question) error {
	if q.Weight <= 0 {
		q.Weight = 1
	}
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO questions (text, weight, category_id, active, created_at) VALUES (?, ?, ?, ?, ?)`,
		q.Text, q.Weight, q.CategoryID, q.Active, now,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert question")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return eris.Wrap(err, "sqlite: question id")
	}
	q.ID = id
	q.CreatedAt = now
	return nil
}

const questionColumns = `q.id, q.text, q.weight, q.category_id, q.active, q.created_at,
	c.id, c.name, c.description, c.created_at`

func scanQuestion(row scannable) (*model.Question, error) {
	var q model.Question
	err := row.Scan(
		&q.ID, &q.Text, &q.Weight, &q.CategoryID, &q.Active, &q.CreatedAt,
		&q.Category.ID, &q.Category.Name, &q.Category.Description, &q.Category.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (s *SQLiteStore) GetQuestion(ctx context.Context, id int64) (*model.Question, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+questionColumns+` FROM questions q JOIN categories c ON c.id = q.category_id WHERE q.id = ?`, id)
	q, err := scanQuestion(row)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: question %d", id)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan question")
	}
	return q, nil
}

func (s *SQLiteStore) ListQuestions(ctx context.Context, f QuestionFilter) ([]model.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions q JOIN categories c ON c.id = q.category_id`
	var conds []string
	var args []any
	if f.CategoryID != 0 {
		conds = append(conds, "q.category_id = ?")
		args = append(args, f.CategoryID)
	}
	if f.ActiveOnly {
		conds = append(conds, "q.active = 1")
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY q.category_id, q.id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list questions")
	}
	defer rows.Close()
	return collectQuestions(rows)
}

func (s *SQLiteStore) QuestionsByIDs(ctx context.Context, ids []int64) ([]model.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+questionColumns+` FROM questions q JOIN categories c ON c.id = q.category_id
		 WHERE q.id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: questions by ids")
	}
	defer rows.Close()
	return collectQuestions(rows)
}

func collectQuestions(rows *sql.Rows) ([]model.Question, error) {
	var out []model.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan question")
		}
		out = append(out, *q)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate questions")
}

func (s *SQLiteStore) UpdateQuestion(ctx context.Context, q *model.Question) error {
	if q.Weight <= 0 {
		q.Weight = 1
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE questions SET text = ?, weight = ?, category_id = ?, active = ? WHERE id = ?`,
		q.Text, q.Weight, q.CategoryID, q.Active, q.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update question %d", q.ID)
	}
	return checkRowsAffected(res, "question", q.ID)
}

func (s *SQLiteStore) DeleteQuestion(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM questions WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete question %d", id)
	}
	return checkRowsAffected(res, "question", id)
}

// --- Professionals ---

// normalizeProfessional trims free-text fields and lowercases the email,
// matching what the write path has always stored.
func normalizeProfessional(p *model.Professional) {
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	p.Specialization = strings.TrimSpace(p.Specialization)
	p.Phone = strings.TrimSpace(p.Phone)
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.Address = strings.TrimSpace(p.Address)
}

func (s *SQLiteStore) CreateProfessional(ctx context.Context, p *model.Professional) error {
	normalizeProfessional(p)
	taken, err := s.emailTaken(ctx, p.Email, 0)
	if err != nil {
		return err
	}
	if taken {
		return eris.Wrapf(ErrConflict, "sqlite: professional email %q", p.Email)
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO professionals (first_name, last_name, specialization, type, phone, email, address, latitude, longitude, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.FirstName, p.LastName, p.Specialization, string(p.Type), p.Phone, p.Email, p.Address,
		p.Latitude, p.Longitude, now,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert professional")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return eris.Wrap(err, "sqlite: professional id")
	}
	p.ID = id
	p.CreatedAt = now
	return nil
}

const professionalColumns = `id, first_name, last_name, specialization, type, phone, email, address,
	latitude, longitude, created_at, updated_at`

func scanProfessional(row scannable) (*model.Professional, error) {
	var p model.Professional
	var typ string
	var updated sql.NullTime
	err := row.Scan(
		&p.ID, &p.FirstName, &p.LastName, &p.Specialization, &typ, &p.Phone, &p.Email, &p.Address,
		&p.Latitude, &p.Longitude, &p.CreatedAt, &updated,
	)
	if err != nil {
		return nil, err
	}
	p.Type = model.ProfessionalType(typ)
	if updated.Valid {
		t := updated.Time
		p.UpdatedAt = &t
	}
	return &p, nil
}

func (s *SQLiteStore) GetProfessional(ctx context.Context, id int64) (*model.Professional, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+professionalColumns+` FROM professionals WHERE id = ?`, id)
	p, err := scanProfessional(row)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: professional %d", id)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan professional")
	}
	return p, nil
}

// professionalSortKeys allowlists ORDER BY clauses for list queries.
var professionalSortKeys = map[string]string{
	SortByName:           "first_name %s, last_name %s",
	SortBySpecialization: "specialization %s",
	SortByType:           "type %s",
	SortByCreatedAt:      "created_at %s",
}

func (s *SQLiteStore) ListProfessionals(ctx context.Context, f ProfessionalFilter) (*ProfessionalPage, error) {
	var conds []string
	var args []any

	if f.Search != "" {
		like := "%" + strings.ToLower(f.Search) + "%"
		conds = append(conds,
			`(LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(specialization) LIKE ? OR LOWER(address) LIKE ?)`)
		args = append(args, like, like, like, like)
	}
	if f.Specialization != "" {
		conds = append(conds, `LOWER(specialization) LIKE ?`)
		args = append(args, "%"+strings.ToLower(f.Specialization)+"%")
	}
	if f.City != "" {
		conds = append(conds, `LOWER(address) LIKE ?`)
		args = append(args, "%"+strings.ToLower(f.City)+"%")
	}
	if f.Type != "" {
		conds = append(conds, `type = ?`)
		args = append(args, string(f.Type))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM professionals`+where, args...).Scan(&total); err != nil {
		return nil, eris.Wrap(err, "sqlite: count professionals")
	}

	dir := "ASC"
	if f.SortDesc {
		dir = "DESC"
	}
	sortTmpl, ok := professionalSortKeys[strings.ToLower(f.SortBy)]
	if !ok {
		sortTmpl = professionalSortKeys[SortByName]
	}
	orderBy := strings.ReplaceAll(sortTmpl, "%s", dir)

	page, pageSize := normalizePage(f.Page, f.PageSize)
	query := fmt.Sprintf(
		`SELECT %s FROM professionals%s ORDER BY %s LIMIT ? OFFSET ?`,
		professionalColumns, where, orderBy,
	)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list professionals")
	}
	defer rows.Close()

	var out []model.Professional
	for rows.Next() {
		p, err := scanProfessional(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan professional")
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate professionals")
	}

	return &ProfessionalPage{
		Professionals: out,
		TotalCount:    total,
		Page:          page,
		PageSize:      pageSize,
		HasNext:       page*pageSize < total,
		HasPrev:       page > 1,
	}, nil
}

func (s *SQLiteStore) ProfessionalsByType(ctx context.Context, t model.ProfessionalType, onlyWithCoordinates bool) ([]model.Professional, error) {
	var conds []string
	var args []any
	if t != "" {
		conds = append(conds, `type = ?`)
		args = append(args, string(t))
	}
	if onlyWithCoordinates {
		conds = append(conds, `latitude IS NOT NULL AND longitude IS NOT NULL`)
	}
	query := `SELECT ` + professionalColumns + ` FROM professionals`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: professionals by type")
	}
	defer rows.Close()

	var out []model.Professional
	for rows.Next() {
		p, err := scanProfessional(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan professional")
		}
		out = append(out, *p)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate professionals")
}

func (s *SQLiteStore) UpdateProfessional(ctx context.Context, p *model.Professional) error {
	normalizeProfessional(p)
	taken, err := s.emailTaken(ctx, p.Email, p.ID)
	if err != nil {
		return err
	}
	if taken {
		return eris.Wrapf(ErrConflict, "sqlite: professional email %q", p.Email)
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE professionals SET first_name = ?, last_name = ?, specialization = ?, type = ?,
		 phone = ?, email = ?, address = ?, latitude = ?, longitude = ?, updated_at = ? WHERE id = ?`,
		p.FirstName, p.LastName, p.Specialization, string(p.Type), p.Phone, p.Email, p.Address,
		p.Latitude, p.Longitude, now, p.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update professional %d", p.ID)
	}
	if err := checkRowsAffected(res, "professional", p.ID); err != nil {
		return err
	}
	p.UpdatedAt = &now
	return nil
}

func (s *SQLiteStore) DeleteProfessional(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM professionals WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete professional %d", id)
	}
	return checkRowsAffected(res, "professional", id)
}

func (s *SQLiteStore) Specializations(ctx context.Context) ([]string, error) {
	return s.specializations(ctx,
		`SELECT DISTINCT specialization FROM professionals ORDER BY specialization`)
}

func (s *SQLiteStore) SpecializationsByType(ctx context.Context, t model.ProfessionalType) ([]string, error) {
	return s.specializations(ctx,
		`SELECT DISTINCT specialization FROM professionals WHERE type = ? ORDER BY specialization`,
		string(t))
}

func (s *SQLiteStore) specializations(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list specializations")
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var sp string
		if err := rows.Scan(&sp); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan specialization")
		}
		out = append(out, sp)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate specializations")
}

func (s *SQLiteStore) emailTaken(ctx context.Context, email string, excludeID int64) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM professionals WHERE email = ? COLLATE NOCASE AND id != ?`,
		email, excludeID).Scan(&n)
	if err != nil {
		return false, eris.Wrap(err, "sqlite: check email")
	}
	return n > 0, nil
}

// helpers

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 10
	}
	if size > 100 {
		size = 100
	}
	return page, size
}

func checkRowsAffected(res sql.Result, entity string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s %d", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}
