// file: service/category_service.go

package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"expense-ledger-api/logger"
	"expense-ledger-api/model"
	"expense-ledger-api/repository"
	"fmt"
	"time"
)

// CategoryService manages expense labels. A category with no owner is
// global: readable by every user, writable by admins only. Visibility is
// a pure query predicate, never ambient state.
type CategoryService struct {
	repo  repository.ICategoryRepository
	cache ICacheClient
}

func NewCategoryService(repo repository.ICategoryRepository, cache ICacheClient) *CategoryService {
	return &CategoryService{repo: repo, cache: cache}
}

func categoriesCacheKey(userID int) string {
	return fmt.Sprintf("categories:%d", userID)
}

// CreateCategory creates a personal category, or a global one when the
// caller is an admin and asked for it.
func (s *CategoryService) CreateCategory(ctx context.Context, userID int, role string, req model.CreateCategoryRequest) (*model.Category, error) {
	category := &model.Category{Name: req.Name}
	if req.Global {
		if role != string(model.RoleAdmin) {
			return nil, ErrPermissionDenied
		}
	} else {
		owner := userID
		category.OwnerID = &owner
	}

	if err := s.repo.CreateCategory(category); err != nil {
		return nil, err
	}

	s.invalidate(ctx, userID, category.OwnerID == nil)
	return category, nil
}

// ListCategories lists the global categories plus the caller's own,
// utilizing a cache-aside strategy.
func (s *CategoryService) ListCategories(ctx context.Context, userID int) ([]*model.Category, error) {
	cacheKey := categoriesCacheKey(userID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var categories []*model.Category
			if err := json.Unmarshal([]byte(cached), &categories); err == nil {
				return categories, nil
			}
		}
	}

	categories, err := s.repo.ListCategoriesVisibleTo(userID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(categories); err == nil {
			s.cache.Set(ctx, cacheKey, data, 10*time.Minute)
		}
	}

	return categories, nil
}

// UpdateCategory renames a category the caller may write.
func (s *CategoryService) UpdateCategory(ctx context.Context, userID int, role string, categoryID int, req model.UpdateCategoryRequest) (*model.Category, error) {
	category, err := s.getWritable(userID, role, categoryID)
	if err != nil {
		return nil, err
	}

	category.Name = req.Name
	if err := s.repo.UpdateCategory(category); err != nil {
		return nil, err
	}

	s.invalidate(ctx, userID, category.OwnerID == nil)
	return category, nil
}

// DeleteCategory removes a category the caller may write. Referencing
// expenses keep their amounts; the label reference is cleared by the
// schema, so no balance adjustment is involved.
func (s *CategoryService) DeleteCategory(ctx context.Context, userID int, role string, categoryID int) error {
	category, err := s.getWritable(userID, role, categoryID)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteCategory(categoryID); err != nil {
		return err
	}

	s.invalidate(ctx, userID, category.OwnerID == nil)
	return nil
}

// getWritable loads a category and checks write access: owners write
// their own, admins also write global ones. Categories invisible to the
// caller are reported as missing, not forbidden.
func (s *CategoryService) getWritable(userID int, role string, categoryID int) (*model.Category, error) {
	category, err := s.repo.GetCategoryByID(categoryID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}

	if category.OwnerID == nil {
		if role != string(model.RoleAdmin) {
			return nil, ErrPermissionDenied
		}
		return category, nil
	}
	if *category.OwnerID != userID {
		return nil, ErrCategoryNotFound
	}
	return category, nil
}

// invalidate drops the caller's cached listing. A global category change
// affects every user's listing; those entries age out via TTL.
func (s *CategoryService) invalidate(ctx context.Context, userID int, global bool) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, categoriesCacheKey(userID)).Err(); err != nil {
		logger.Log.WithError(err).Warn("Failed to invalidate category cache")
	}
	if global {
		logger.Log.Info("Global category changed; per-user listings refresh on TTL expiry")
	}
}
