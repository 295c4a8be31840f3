// service/category_service_test.go
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"expense-ledger-api/model"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// mockCacheClient is a mock for ICacheClient.
type mockCacheClient struct{ mock.Mock }

func (m *mockCacheClient) Get(ctx context.Context, key string) *redis.StringCmd {
	args := m.Called(key)
	return args.Get(0).(*redis.StringCmd)
}

func (m *mockCacheClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	args := m.Called(key, value, expiration)
	return args.Get(0).(*redis.StatusCmd)
}

func (m *mockCacheClient) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	args := m.Called(keys)
	return args.Get(0).(*redis.IntCmd)
}

func TestCreateCategory(t *testing.T) {
	t.Run("PersonalCategory", func(t *testing.T) {
		repo := new(MockCategoryRepository)
		repo.On("CreateCategory", mock.AnythingOfType("*model.Category")).Return(nil)

		categoryService := NewCategoryService(repo, nil)

		category, err := categoryService.CreateCategory(context.Background(), 1, string(model.RoleUser), model.CreateCategoryRequest{Name: "Food"})

		assert.NoError(t, err)
		assert.NotNil(t, category.OwnerID)
		assert.Equal(t, 1, *category.OwnerID)
	})

	t.Run("GlobalRequiresAdmin", func(t *testing.T) {
		repo := new(MockCategoryRepository)
		categoryService := NewCategoryService(repo, nil)

		category, err := categoryService.CreateCategory(context.Background(), 1, string(model.RoleUser), model.CreateCategoryRequest{Name: "Utilities", Global: true})

		assert.Nil(t, category)
		assert.ErrorIs(t, err, ErrPermissionDenied)
		repo.AssertNotCalled(t, "CreateCategory", mock.Anything)
	})

	t.Run("GlobalByAdmin", func(t *testing.T) {
		repo := new(MockCategoryRepository)
		repo.On("CreateCategory", mock.AnythingOfType("*model.Category")).Return(nil)

		categoryService := NewCategoryService(repo, nil)

		category, err := categoryService.CreateCategory(context.Background(), 1, string(model.RoleAdmin), model.CreateCategoryRequest{Name: "Utilities", Global: true})

		assert.NoError(t, err)
		assert.Nil(t, category.OwnerID)
	})
}

func TestListCategories_CacheAside(t *testing.T) {
	ownerID := 1
	categories := []*model.Category{
		{ID: 1, Name: "Utilities"},
		{ID: 2, Name: "Food", OwnerID: &ownerID},
	}

	t.Run("CacheMissFetchesAndStores", func(t *testing.T) {
		repo := new(MockCategoryRepository)
		cache := new(mockCacheClient)

		cache.On("Get", "categories:1").Return(redis.NewStringResult("", redis.Nil))
		repo.On("ListCategoriesVisibleTo", 1).Return(categories, nil)
		cache.On("Set", "categories:1", mock.Anything, 10*time.Minute).Return(redis.NewStatusResult("OK", nil))

		categoryService := NewCategoryService(repo, cache)

		listed, err := categoryService.ListCategories(context.Background(), 1)

		assert.NoError(t, err)
		assert.Len(t, listed, 2)
		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("CacheHitSkipsRepository", func(t *testing.T) {
		repo := new(MockCategoryRepository)
		cache := new(mockCacheClient)

		cached, err := json.Marshal(categories)
		assert.NoError(t, err)
		cache.On("Get", "categories:1").Return(redis.NewStringResult(string(cached), nil))

		categoryService := NewCategoryService(repo, cache)

		listed, err := categoryService.ListCategories(context.Background(), 1)

		assert.NoError(t, err)
		assert.Len(t, listed, 2)
		repo.AssertNotCalled(t, "ListCategoriesVisibleTo", mock.Anything)
	})
}

func TestUpdateCategory(t *testing.T) {
	t.Run("OwnCategory", func(t *testing.T) {
		ownerID := 1
		repo := new(MockCategoryRepository)
		cache := new(mockCacheClient)

		repo.On("GetCategoryByID", 2).Return(&model.Category{ID: 2, Name: "Food", OwnerID: &ownerID}, nil)
		repo.On("UpdateCategory", mock.AnythingOfType("*model.Category")).Return(nil)
		cache.On("Del", []string{"categories:1"}).Return(redis.NewIntResult(1, nil))

		categoryService := NewCategoryService(repo, cache)

		category, err := categoryService.UpdateCategory(context.Background(), 1, string(model.RoleUser), 2, model.UpdateCategoryRequest{Name: "Groceries"})

		assert.NoError(t, err)
		assert.Equal(t, "Groceries", category.Name)
		cache.AssertExpectations(t)
	})

	t.Run("SomeoneElsesReadsAsMissing", func(t *testing.T) {
		otherOwner := 99
		repo := new(MockCategoryRepository)

		repo.On("GetCategoryByID", 2).Return(&model.Category{ID: 2, Name: "Food", OwnerID: &otherOwner}, nil)

		categoryService := NewCategoryService(repo, nil)

		category, err := categoryService.UpdateCategory(context.Background(), 1, string(model.RoleUser), 2, model.UpdateCategoryRequest{Name: "Groceries"})

		assert.Nil(t, category)
		// Invisible categories are reported as missing, not forbidden.
		assert.ErrorIs(t, err, ErrCategoryNotFound)
		repo.AssertNotCalled(t, "UpdateCategory", mock.Anything)
	})

	t.Run("GlobalByNonAdmin", func(t *testing.T) {
		repo := new(MockCategoryRepository)

		repo.On("GetCategoryByID", 1).Return(&model.Category{ID: 1, Name: "Utilities"}, nil)

		categoryService := NewCategoryService(repo, nil)

		category, err := categoryService.UpdateCategory(context.Background(), 1, string(model.RoleUser), 1, model.UpdateCategoryRequest{Name: "Bills"})

		assert.Nil(t, category)
		assert.ErrorIs(t, err, ErrPermissionDenied)
	})
}

func TestDeleteCategory(t *testing.T) {
	t.Run("NotFound", func(t *testing.T) {
		repo := new(MockCategoryRepository)
		repo.On("GetCategoryByID", 404).Return(nil, sql.ErrNoRows)

		categoryService := NewCategoryService(repo, nil)

		err := categoryService.DeleteCategory(context.Background(), 1, string(model.RoleUser), 404)

		assert.ErrorIs(t, err, ErrCategoryNotFound)
	})

	t.Run("GlobalByAdmin", func(t *testing.T) {
		repo := new(MockCategoryRepository)
		cache := new(mockCacheClient)

		repo.On("GetCategoryByID", 1).Return(&model.Category{ID: 1, Name: "Utilities"}, nil)
		repo.On("DeleteCategory", 1).Return(nil)
		cache.On("Del", []string{"categories:1"}).Return(redis.NewIntResult(1, nil))

		categoryService := NewCategoryService(repo, cache)

		err := categoryService.DeleteCategory(context.Background(), 1, string(model.RoleAdmin), 1)

		assert.NoError(t, err)
		repo.AssertExpectations(t)
	})
}
