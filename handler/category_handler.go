package handler

import (
	"encoding/json"
	"expense-ledger-api/common"
	"expense-ledger-api/model"
	"expense-ledger-api/service"
	"net/http"
	"strconv"
)

type CategoryHandler struct {
	service *service.CategoryService
}

func NewCategoryHandler(s *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{service: s}
}

func callerIdentity(r *http.Request) (int, string, *common.AppError) {
	userID, ok := r.Context().Value(UserIDKey).(int)
	if !ok {
		return 0, "", common.NewAppError(http.StatusUnauthorized, "Invalid user ID in token", nil)
	}
	role, ok := r.Context().Value(UserRoleKey).(string)
	if !ok {
		return 0, "", common.NewAppError(http.StatusUnauthorized, "Invalid user role in token", nil)
	}
	return userID, role, nil
}

// CreateCategory godoc
// @Summary      Create a category
// @Description  Creates a personal category, or a global one when the caller is an admin.
// @Tags         categories
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        category body model.CreateCategoryRequest true "Category details"
// @Success      201  {object}  model.Category
// @Router       /api/categories [post]
func (h *CategoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, role, appErr := callerIdentity(r)
	if appErr != nil {
		return appErr
	}

	var req model.CreateCategoryRequest
	if appErr := common.ValidateAndDecode(r, &req); appErr != nil {
		return appErr
	}

	category, err := h.service.CreateCategory(r.Context(), userID, role, req)
	if err != nil {
		return mapLedgerError(err, "Could not create category")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(category)
	return nil
}

// ListCategories godoc
// @Summary      List visible categories
// @Description  Returns global categories plus the caller's own.
// @Tags         categories
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  model.Category
// @Router       /api/categories [get]
func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, _, appErr := callerIdentity(r)
	if appErr != nil {
		return appErr
	}

	categories, err := h.service.ListCategories(r.Context(), userID)
	if err != nil {
		return mapLedgerError(err, "Could not retrieve categories")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(categories)
	return nil
}

// UpdateCategory godoc
// @Summary      Rename a category
// @Tags         categories
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        categoryId path int true "The category ID"
// @Param        category body model.UpdateCategoryRequest true "New name"
// @Success      200  {object}  model.Category
// @Router       /api/categories/{categoryId} [put]
func (h *CategoryHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, role, appErr := callerIdentity(r)
	if appErr != nil {
		return appErr
	}

	categoryID, err := strconv.Atoi(r.PathValue("categoryId"))
	if err != nil {
		return common.NewAppError(http.StatusBadRequest, "Invalid category ID in URL path", err)
	}

	var req model.UpdateCategoryRequest
	if appErr := common.ValidateAndDecode(r, &req); appErr != nil {
		return appErr
	}

	category, err := h.service.UpdateCategory(r.Context(), userID, role, categoryID, req)
	if err != nil {
		return mapLedgerError(err, "Could not update category")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(category)
	return nil
}

// DeleteCategory godoc
// @Summary      Delete a category
// @Tags         categories
// @Security     BearerAuth
// @Param        categoryId path int true "The category ID"
// @Success      204  "No Content"
// @Router       /api/categories/{categoryId} [delete]
func (h *CategoryHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, role, appErr := callerIdentity(r)
	if appErr != nil {
		return appErr
	}

	categoryID, err := strconv.Atoi(r.PathValue("categoryId"))
	if err != nil {
		return common.NewAppError(http.StatusBadRequest, "Invalid category ID in URL path", err)
	}

	if err := h.service.DeleteCategory(r.Context(), userID, role, categoryID); err != nil {
		return mapLedgerError(err, "Could not delete category")
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}
