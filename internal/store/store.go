// Package store defines the persistence interfaces for the question
// catalog and the professional directory, with sqlite and postgres
// implementations.
package store

import (
	"context"
	"errors"

	"github.com/wellmind/assessment-api/internal/model"
)

// Sentinel errors. Implementations wrap these so callers can test with
// errors.Is regardless of backend.
var (
	// ErrNotFound signals a lookup by id that matched nothing.
	ErrNotFound = errors.New("not found")
	// ErrConflict signals a write that would violate the email or
	// category-name uniqueness invariants.
	ErrConflict = errors.New("already exists")
)

// QuestionFilter specifies criteria for listing catalog questions.
type QuestionFilter struct {
	CategoryID int64 `json:"category_id,omitempty"`
	ActiveOnly bool  `json:"active_only,omitempty"`
}

// Professional list sort keys.
const (
	SortByName           = "name"
	SortBySpecialization = "specialization"
	SortByType           = "professionaltype"
	SortByCreatedAt      = "createdat"
)

// ProfessionalFilter specifies criteria for listing directory entries.
// Zero-valued fields are ignored.
type ProfessionalFilter struct {
	// Search matches name, specialization and address, case-insensitively.
	Search         string                 `json:"search,omitempty"`
	Specialization string                 `json:"specialization,omitempty"`
	City           string                 `json:"city,omitempty"`
	Type           model.ProfessionalType `json:"type,omitempty"`
	SortBy         string                 `json:"sort_by,omitempty"`
	SortDesc       bool                   `json:"sort_desc,omitempty"`
	Page           int                    `json:"page,omitempty"`
	PageSize       int                    `json:"page_size,omitempty"`
}

// ProfessionalPage is a paginated directory listing.
type ProfessionalPage struct {
	Professionals []model.Professional `json:"professionals"`
	TotalCount    int                  `json:"total_count"`
	Page          int                  `json:"page"`
	PageSize      int                  `json:"page_size"`
	HasNext       bool                 `json:"has_next"`
	HasPrev       bool                 `json:"has_prev"`
}

// CatalogStore persists categories and questions.
type CatalogStore interface {
	// Categories
	CreateCategory(ctx context.Context, c *model.Category) error
	GetCategory(ctx context.Context, id int64) (*model.Category, error)
	Categories(ctx context.Context) ([]model.Category, error)
	UpdateCategory(ctx context.Context, c *model.Category) error
	// DeleteCategory fails with ErrConflict while questions still
	// reference the category.
	DeleteCategory(ctx context.Context, id int64) error

	// Questions
	CreateQuestion(ctx context.Context, q *model.Question) error
	GetQuestion(ctx context.Context, id int64) (*model.Question, error)
	ListQuestions(ctx context.Context, f QuestionFilter) ([]model.Question, error)
	QuestionsByIDs(ctx context.Context, ids []int64) ([]model.Question, error)
	UpdateQuestion(ctx context.Context, q *model.Question) error
	DeleteQuestion(ctx context.Context, id int64) error
}

// DirectoryStore persists professional directory records.
type DirectoryStore interface {
	CreateProfessional(ctx context.Context, p *model.Professional) error
	GetProfessional(ctx context.Context, id int64) (*model.Professional, error)
	ListProfessionals(ctx context.Context, f ProfessionalFilter) (*ProfessionalPage, error)
	// ProfessionalsByType returns all professionals of the given type
	// (empty type means all), optionally restricted to records with both
	// coordinates present.
	ProfessionalsByType(ctx context.Context, t model.ProfessionalType, onlyWithCoordinates bool) ([]model.Professional, error)
	UpdateProfessional(ctx context.Context, p *model.Professional) error
	DeleteProfessional(ctx context.Context, id int64) error
	Specializations(ctx context.Context) ([]string, error)
	SpecializationsByType(ctx context.Context, t model.ProfessionalType) ([]string, error)
}

// Store is the full persistence interface.
type Store interface {
	CatalogStore
	DirectoryStore

	Migrate(ctx context.Context) error
	Close() error
}
