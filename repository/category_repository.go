package repository

import (
	"database/sql"
	"expense-ledger-api/logger"
	"expense-ledger-api/model"
)

// ICategoryRepository defines the contract for category database operations.
// Visibility rule: a category with a NULL owner is global and readable by
// every user; an owned category is visible to its owner only.
type ICategoryRepository interface {
	CreateCategory(category *model.Category) error
	GetCategoryByID(categoryID int) (*model.Category, error)
	CategoryVisibleTo(tx *sql.Tx, categoryID, userID int) (bool, error)
	ListCategoriesVisibleTo(userID int) ([]*model.Category, error)
	UpdateCategory(category *model.Category) error
	DeleteCategory(categoryID int) error
}

// CategoryRepository implements ICategoryRepository.
type CategoryRepository struct {
	DB *sql.DB
}

func NewCategoryRepository(db *sql.DB) *CategoryRepository {
	return &CategoryRepository{DB: db}
}

func (r *CategoryRepository) CreateCategory(category *model.Category) error {
	log := logger.Log.WithField("name", category.Name)
	log.Info("Executing query to create a new category")

	query := `INSERT INTO categories (name, owner_id) VALUES ($1, $2) RETURNING id, created_at`
	err := r.DB.QueryRow(query, category.Name, category.OwnerID).Scan(&category.ID, &category.CreatedAt)
	if err != nil {
		log.WithError(err).Error("Failed to execute create category query")
		return err
	}
	return nil
}

func (r *CategoryRepository) GetCategoryByID(categoryID int) (*model.Category, error) {
	category := &model.Category{}
	query := `SELECT id, name, owner_id, created_at FROM categories WHERE id = $1`
	err := r.DB.QueryRow(query, categoryID).Scan(&category.ID, &category.Name, &category.OwnerID, &category.CreatedAt)
	if err != nil {
		if err != sql.ErrNoRows {
			logger.Log.WithError(err).WithField("category_id", categoryID).Error("Failed to execute get category by ID query")
		}
		return nil, err
	}
	return category, nil
}

// CategoryVisibleTo checks, inside the caller's transaction, that the
// category exists and is visible to the user. Running the check in the
// same transaction as the expense write closes the window where a
// category deleted mid-operation leaves an orphaned reference.
func (r *CategoryRepository) CategoryVisibleTo(tx *sql.Tx, categoryID, userID int) (bool, error) {
	var visible bool
	query := `SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1 AND (owner_id IS NULL OR owner_id = $2))`
	err := tx.QueryRow(query, categoryID, userID).Scan(&visible)
	if err != nil {
		logger.Log.WithError(err).WithField("category_id", categoryID).Error("Failed to execute category visibility query")
		return false, err
	}
	return visible, nil
}

// ListCategoriesVisibleTo retrieves the global categories plus the user's own.
func (r *CategoryRepository) ListCategoriesVisibleTo(userID int) ([]*model.Category, error) {
	log := logger.Log.WithField("user_id", userID)
	log.Info("Executing query to list visible categories")

	query := `SELECT id, name, owner_id, created_at FROM categories WHERE owner_id IS NULL OR owner_id = $1 ORDER BY name`
	rows, err := r.DB.Query(query, userID)
	if err != nil {
		log.WithError(err).Error("Failed to execute query for visible categories")
		return nil, err
	}
	defer rows.Close()

	var categories []*model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.OwnerID, &c.CreatedAt); err != nil {
			log.WithError(err).Error("Failed to scan category row")
			return nil, err
		}
		categories = append(categories, &c)
	}
	return categories, nil
}

func (r *CategoryRepository) UpdateCategory(category *model.Category) error {
	log := logger.Log.WithField("category_id", category.ID)
	log.Info("Executing query to update category")

	query := `UPDATE categories SET name = $1 WHERE id = $2`
	_, err := r.DB.Exec(query, category.Name, category.ID)
	if err != nil {
		log.WithError(err).Error("Failed to execute update category query")
		return err
	}
	return nil
}

// DeleteCategory removes a category. Expenses referencing it keep their
// amounts and lose only the label (ON DELETE SET NULL).
func (r *CategoryRepository) DeleteCategory(categoryID int) error {
	log := logger.Log.WithField("category_id", categoryID)
	log.Info("Executing query to delete category")

	query := `DELETE FROM categories WHERE id = $1`
	_, err := r.DB.Exec(query, categoryID)
	if err != nil {
		log.WithError(err).Error("Failed to execute delete category query")
		return err
	}
	return nil
}
