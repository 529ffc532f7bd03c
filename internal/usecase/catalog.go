package usecase

import (
	"context"
	"fmt"

	"github.com/cxyfer/oj-catalog/internal/domain"
)

// CatalogFacade exposes problem listing/detail/CRUD and tag/stat queries
// to the HTTP layer, validating the source argument once at the boundary
// so repositories never see an invalid one.
type CatalogFacade struct {
	repo domain.CatalogRepository
}

// NewCatalogFacade constructs a CatalogFacade.
func NewCatalogFacade(repo domain.CatalogRepository) *CatalogFacade {
	return &CatalogFacade{repo: repo}
}

func requireValidSource(source string) error {
	if !domain.IsValidSource(source) {
		return fmt.Errorf("%w: invalid source: %s", domain.ErrInvalidArgument, source)
	}
	return nil
}

// GetProblem fetches a single problem, resolving a slug to its canonical
// id first if idOrSlug doesn't match a stored id directly.
func (c *CatalogFacade) GetProblem(ctx context.Context, source, idOrSlug string) (*domain.Problem, error) {
	if err := requireValidSource(source); err != nil {
		return nil, err
	}
	if p, err := c.repo.GetProblem(ctx, source, idOrSlug); err == nil {
		return p, nil
	}
	id, found, err := c.repo.GetProblemIDBySlug(ctx, source, idOrSlug)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: problem not found", domain.ErrNotFound)
	}
	return c.repo.GetProblem(ctx, source, id)
}

// ListProblems validates source and delegates to the repository.
func (c *CatalogFacade) ListProblems(ctx context.Context, params domain.ListParams) (*domain.ListResult, error) {
	if err := requireValidSource(params.Source); err != nil {
		return nil, err
	}
	return c.repo.ListProblems(ctx, params)
}

// ListTags validates source and delegates to the repository.
func (c *CatalogFacade) ListTags(ctx context.Context, source string) ([]string, error) {
	if err := requireValidSource(source); err != nil {
		return nil, err
	}
	return c.repo.ListTags(ctx, source)
}

// CreateProblem validates source and inserts a new catalog row.
func (c *CatalogFacade) CreateProblem(ctx context.Context, p domain.Problem) error {
	if err := requireValidSource(p.Source); err != nil {
		return err
	}
	return c.repo.InsertProblem(ctx, p)
}

// UpdateProblem validates source and overwrites an existing catalog row.
func (c *CatalogFacade) UpdateProblem(ctx context.Context, source, id string, p domain.Problem) error {
	if err := requireValidSource(source); err != nil {
		return err
	}
	ok, err := c.repo.UpdateProblem(ctx, source, id, p)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: problem %s/%s", domain.ErrNotFound, source, id)
	}
	return nil
}

// DeleteProblem validates source and removes a catalog row with its embeddings.
func (c *CatalogFacade) DeleteProblem(ctx context.Context, source, id string) error {
	if err := requireValidSource(source); err != nil {
		return err
	}
	ok, err := c.repo.DeleteProblem(ctx, source, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: problem %s/%s", domain.ErrNotFound, source, id)
	}
	return nil
}

// PlatformStats returns per-source catalog coverage.
func (c *CatalogFacade) PlatformStats(ctx context.Context) ([]domain.PlatformStats, error) {
	return c.repo.PlatformStats(ctx)
}
