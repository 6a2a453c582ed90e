package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/wellmind/assessment-api/internal/db"
	"github.com/wellmind/assessment-api/internal/model"
)

// PostgresStore implements Store using a pgx connection pool.
type PostgresStore struct {
	pool db.Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS categories (
	id          BIGSERIAL PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_name ON categories (LOWER(name));

CREATE TABLE IF NOT EXISTS questions (
	id          BIGSERIAL PRIMARY KEY,
	text        TEXT NOT NULL,
	weight      INTEGER NOT NULL DEFAULT 1 CHECK (weight > 0),
	category_id BIGINT NOT NULL REFERENCES categories(id),
	active      BOOLEAN NOT NULL DEFAULT TRUE,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_questions_category_id ON questions(category_id);

CREATE TABLE IF NOT EXISTS professionals (
	id             BIGSERIAL PRIMARY KEY,
	first_name     TEXT NOT NULL,
	last_name      TEXT NOT NULL,
	specialization TEXT NOT NULL,
	type           TEXT NOT NULL,
	phone          TEXT NOT NULL,
	email          TEXT NOT NULL,
	address        TEXT NOT NULL,
	latitude       DOUBLE PRECISION,
	longitude      DOUBLE PRECISION,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at     TIMESTAMPTZ
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_professionals_email ON professionals (LOWER(email));
CREATE INDEX IF NOT EXISTS idx_professionals_type ON professionals(type);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// --- Categories ---

func (s *PostgresStore) CreateCategory(ctx context.Context, c *model.Category) error {
	c.Name = strings.TrimSpace(c.Name)
	taken, err := s.categoryNameTaken(ctx, c.Name, 0)
	if err != nil {
		return err
	}
	if taken {
		return eris.Wrapf(ErrConflict, "postgres: category name %q", c.Name)
	}

	now := time.Now().UTC()
	err = s.pool.QueryRow(ctx,
		`INSERT INTO categories (name, description, created_at) VALUES ($1, $2, $3) RETURNING id`,
		c.Name, c.Description, now,
	).Scan(&c.ID)
	if err != nil {
		return eris.Wrap(err, "postgres: insert category")
	}
	c.CreatedAt = now
	return nil
}

func (s *PostgresStore) GetCategory(ctx context.Context, id int64) (*model.Category, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, description, created_at FROM categories WHERE id = $1`, id)
	var c model.Category
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "postgres: category %d", id)
		}
		return nil, eris.Wrap(err, "postgres: scan category")
	}
	return &c, nil
}

func (s *PostgresStore) Categories(ctx context.Context) ([]model.Category, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, description, created_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list categories")
	}
	defer rows.Close()

	var out []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan category")
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate categories")
}

func (s *PostgresStore) UpdateCategory(ctx context.Context, c *model.Category) error {
	c.Name = strings.TrimSpace(c.Name)
	taken, err := s.categoryNameTaken(ctx, c.Name, c.ID)
	if err != nil {
		return err
	}
	if taken {
		return eris.Wrapf(ErrConflict, "postgres: category name %q", c.Name)
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE categories SET name = $1, description = $2 WHERE id = $3`,
		c.Name, c.Description, c.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update category %d", c.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "category %d", c.ID)
	}
	return nil
}

func (s *PostgresStore) DeleteCategory(ctx context.Context, id int64) error {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM questions WHERE category_id = $1`, id).Scan(&n)
	if err != nil {
		return eris.Wrap(err, "postgres: count category questions")
	}
	if n > 0 {
		return eris.Wrapf(ErrConflict, "postgres: category %d still has %d questions", id, n)
	}

	tag, err := s.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete category %d", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "category %d", id)
	}
	return nil
}

func (s *PostgresStore) categoryNameTaken(ctx context.Context, name string, excludeID int64) (bool, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM categories WHERE LOWER(name) = LOWER($1) AND id != $2`,
		name, excludeID).Scan(&n)
	if err != nil {
		return false, eris.Wrap(err, "postgres: check category name")
	}
	return n > 0, nil
}

// --- Questions ---

const pgQuestionColumns = `q.id, q.text, q.weight, q.category_id, q.active, q.created_at,
	c.id, c.name, c.description, c.created_at`

func (s *PostgresStore) CreateQuestion(ctx context.Context, q *model.Question) error {
	if q.Weight <= 0 {
		q.Weight = 1
	}
	now := time.Now().UTC()
	err := s.pool.QueryRow(ctx,
		`INSERT INTO questions (text, weight, category_id, active, created_at) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		q.Text, q.Weight, q.CategoryID, q.Active, now,
	).Scan(&q.ID)
	if err != nil {
		return eris.Wrap(err, "postgres: insert question")
	}
	q.CreatedAt = now
	return nil
}

func (s *PostgresStore) GetQuestion(ctx context.Context, id int64) (*model.Question, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+pgQuestionColumns+` FROM questions q JOIN categories c ON c.id = q.category_id WHERE q.id = $1`, id)
	q, err := scanQuestion(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: question %d", id)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan question")
	}
	return q, nil
}

func (s *PostgresStore) ListQuestions(ctx context.Context, f QuestionFilter) ([]model.Question, error) {
	query := `SELECT ` + pgQuestionColumns + ` FROM questions q JOIN categories c ON c.id = q.category_id`
	var conds []string
	var args []any
	if f.CategoryID != 0 {
		args = append(args, f.CategoryID)
		conds = append(conds, fmt.Sprintf("q.category_id = $%d", len(args)))
	}
	if f.ActiveOnly {
		conds = append(conds, "q.active")
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY q.category_id, q.id"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list questions")
	}
	defer rows.Close()
	return collectPgQuestions(rows)
}

func (s *PostgresStore) QuestionsByIDs(ctx context.Context, ids []int64) ([]model.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+pgQuestionColumns+` FROM questions q JOIN categories c ON c.id = q.category_id
		 WHERE q.id = ANY($1)`, ids)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: questions by ids")
	}
	defer rows.Close()
	return collectPgQuestions(rows)
}

func collectPgQuestions(rows pgx.Rows) ([]model.Question, error) {
	var out []model.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan question")
		}
		out = append(out, *q)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate questions")
}

func (s *PostgresStore) UpdateQuestion(ctx context.Context, q *model.Question) error {
	if q.Weight <= 0 {
		q.Weight = 1
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE questions SET text = $1, weight = $2, category_id = $3, active = $4 WHERE id = $5`,
		q.Text, q.Weight, q.CategoryID, q.Active, q.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update question %d", q.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "question %d", q.ID)
	}
	return nil
}

func (s *PostgresStore) DeleteQuestion(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete question %d", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "question %d", id)
	}
	return nil
}

// --- Professionals ---

const pgProfessionalColumns = `id, first_name, last_name, specialization, type, phone, email, address,
	latitude, longitude, created_at, updated_at`

func (s *PostgresStore) CreateProfessional(ctx context.Context, p *model.Professional) error {
	normalizeProfessional(p)
	taken, err := s.emailTaken(ctx, p.Email, 0)
	if err != nil {
		return err
	}
	if taken {
		return eris.Wrapf(ErrConflict, "postgres: professional email %q", p.Email)
	}

	now := time.Now().UTC()
	err = s.pool.QueryRow(ctx,
		`INSERT INTO professionals (first_name, last_name, specialization, type, phone, email, address, latitude, longitude, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`,
		p.FirstName, p.LastName, p.Specialization, string(p.Type), p.Phone, p.Email, p.Address,
		p.Latitude, p.Longitude, now,
	).Scan(&p.ID)
	if err != nil {
		return eris.Wrap(err, "postgres: insert professional")
	}
	p.CreatedAt = now
	return nil
}

func scanPgProfessional(row scannable) (*model.Professional, error) {
	var p model.Professional
	var typ string
	var updated *time.Time
	err := row.Scan(
		&p.ID, &p.FirstName, &p.LastName, &p.Specialization, &typ, &p.Phone, &p.Email, &p.Address,
		&p.Latitude, &p.Longitude, &p.CreatedAt, &updated,
	)
	if err != nil {
		return nil, err
	}
	p.Type = model.ProfessionalType(typ)
	p.UpdatedAt = updated
	return &p, nil
}

func (s *PostgresStore) GetProfessional(ctx context.Context, id int64) (*model.Professional, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+pgProfessionalColumns+` FROM professionals WHERE id = $1`, id)
	p, err := scanPgProfessional(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: professional %d", id)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan professional")
	}
	return p, nil
}

func (s *PostgresStore) ListProfessionals(ctx context.Context, f ProfessionalFilter) (*ProfessionalPage, error) {
	var conds []string
	var args []any

	if f.Search != "" {
		args = append(args, "%"+strings.ToLower(f.Search)+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			`(LOWER(first_name) LIKE $%d OR LOWER(last_name) LIKE $%d OR LOWER(specialization) LIKE $%d OR LOWER(address) LIKE $%d)`,
			n, n, n, n))
	}
	if f.Specialization != "" {
		args = append(args, "%"+strings.ToLower(f.Specialization)+"%")
		conds = append(conds, fmt.Sprintf(`LOWER(specialization) LIKE $%d`, len(args)))
	}
	if f.City != "" {
		args = append(args, "%"+strings.ToLower(f.City)+"%")
		conds = append(conds, fmt.Sprintf(`LOWER(address) LIKE $%d`, len(args)))
	}
	if f.Type != "" {
		args = append(args, string(f.Type))
		conds = append(conds, fmt.Sprintf(`type = $%d`, len(args)))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM professionals`+where, args...).Scan(&total); err != nil {
		return nil, eris.Wrap(err, "postgres: count professionals")
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
	args = append(args, pageSize, (page-1)*pageSize)
	query := fmt.Sprintf(
		`SELECT %s FROM professionals%s ORDER BY %s LIMIT $%d OFFSET $%d`,
		pgProfessionalColumns, where, orderBy, len(args)-1, len(args),
	)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list professionals")
	}
	defer rows.Close()

	var out []model.Professional
	for rows.Next() {
		p, err := scanPgProfessional(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan professional")
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate professionals")
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

func (s *PostgresStore) ProfessionalsByType(ctx context.Context, t model.ProfessionalType, onlyWithCoordinates bool) ([]model.Professional, error) {
	var conds []string
	var args []any
	if t != "" {
		args = append(args, string(t))
		conds = append(conds, fmt.Sprintf(`type = $%d`, len(args)))
	}
	if onlyWithCoordinates {
		conds = append(conds, `latitude IS NOT NULL AND longitude IS NOT NULL`)
	}
	query := `SELECT ` + pgProfessionalColumns + ` FROM professionals`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY id"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: professionals by type")
	}
	defer rows.Close()

	var out []model.Professional
	for rows.Next() {
		p, err := scanPgProfessional(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan professional")
		}
		out = append(out, *p)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate professionals")
}

func (s *PostgresStore) UpdateProfessional(ctx context.Context, p *model.Professional) error {
	normalizeProfessional(p)
	taken, err := s.emailTaken(ctx, p.Email, p.ID)
	if err != nil {
		return err
	}
	if taken {
		return eris.Wrapf(ErrConflict, "postgres: professional email %q", p.Email)
	}

	now := time.Now().UTC()
	tag, err := s.pool.Exec(ctx,
		`UPDATE professionals SET first_name = $1, last_name = $2, specialization = $3, type = $4,
		 phone = $5, email = $6, address = $7, latitude = $8, longitude = $9, updated_at = $10 WHERE id = $11`,
		p.FirstName, p.LastName, p.Specialization, string(p.Type), p.Phone, p.Email, p.Address,
		p.Latitude, p.Longitude, now, p.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update professional %d", p.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "professional %d", p.ID)
	}
	p.UpdatedAt = &now
	return nil
}

func (s *PostgresStore) DeleteProfessional(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM professionals WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete professional %d", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "professional %d", id)
	}
	return nil
}

func (s *PostgresStore) Specializations(ctx context.Context) ([]string, error) {
	return s.specializations(ctx,
		`SELECT DISTINCT specialization FROM professionals ORDER BY specialization`)
}

func (s *PostgresStore) SpecializationsByType(ctx context.Context, t model.ProfessionalType) ([]string, error) {
	return s.specializations(ctx,
		`SELECT DISTINCT specialization FROM professionals WHERE type = $1 ORDER BY specialization`,
		string(t))
}

func (s *PostgresStore) specializations(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list specializations")
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var sp string
		if err := rows.Scan(&sp); err != nil {
			return nil, eris.Wrap(err, "postgres: scan specialization")
		}
		out = append(out, sp)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate specializations")
}

func (s *PostgresStore) emailTaken(ctx context.Context, email string, excludeID int64) (bool, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM professionals WHERE LOWER(email) = LOWER($1) AND id != $2`,
		email, excludeID).Scan(&n)
	if err != nil {
		return false, eris.Wrap(err, "postgres: check email")
	}
	return n > 0, nil
}
