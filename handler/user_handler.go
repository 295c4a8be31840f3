package handler

import (
	"encoding/json"
	"expense-ledger-api/common"
	"expense-ledger-api/model"
	"expense-ledger-api/service"
	"net/http"
	"strconv"
)

type UserHandler struct {
	userService *service.UserService
	authService *service.AuthService
}

func NewUserHandler(userService *service.UserService, authService *service.AuthService) *UserHandler {
	return &UserHandler{
		userService: userService,
		authService: authService,
	}
}

// registerResponse pairs the created user with their new ledger account,
// so the client learns the account number immediately.
type registerResponse struct {
	User    *model.User    `json:"user"`
	Account *model.Account `json:"account"`
}

// Register godoc
// @Summary      Register a new user
// @Description  Creates the user and their ledger account atomically.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        user body model.RegisterRequest true "Registration details"
// @Success      201  {object}  registerResponse
// @Failure      400  {object}  common.AppError "Validation failure"
// @Router       /register [post]
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.RegisterRequest
	if appErr := common.ValidateAndDecode(r, &req); appErr != nil {
		return appErr
	}

	user, account, err := h.userService.Register(r.Context(), req)
	if err != nil {
		return common.NewAppError(http.StatusInternalServerError, "Could not create user", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(registerResponse{User: user, Account: account})
	return nil
}

// Login godoc
// @Summary      Authenticate a user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        credentials body model.LoginRequest true "Login credentials"
// @Success      200  {object}  service.TokenPair
// @Failure      401  {object}  common.AppError "Invalid credentials"
// @Router       /login [post]
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.LoginRequest
	if appErr := common.ValidateAndDecode(r, &req); appErr != nil {
		return appErr
	}

	pair, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		if err == service.ErrInvalidCredentials {
			return common.NewAppError(http.StatusUnauthorized, err.Error(), err)
		}
		return common.NewAppError(http.StatusInternalServerError, "Could not log in", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(pair)
	return nil
}

// Refresh godoc
// @Summary      Rotate a refresh token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Success      200  {object}  service.TokenPair
// @Failure      401  {object}  common.AppError "Invalid or expired refresh token"
// @Router       /refresh [post]
func (h *UserHandler) Refresh(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}
	if appErr := common.ValidateAndDecode(r, &req); appErr != nil {
		return appErr
	}

	pair, err := h.authService.Refresh(req.RefreshToken)
	if err != nil {
		if err == service.ErrInvalidToken {
			return common.NewAppError(http.StatusUnauthorized, err.Error(), err)
		}
		return common.NewAppError(http.StatusInternalServerError, "Could not refresh token", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(pair)
	return nil
}

// Logout godoc
// @Summary      Revoke the caller's refresh tokens
// @Tags         auth
// @Security     BearerAuth
// @Success      204  "No Content"
// @Router       /api/logout [post]
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := r.Context().Value(UserIDKey).(int)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user ID in token", nil)
	}

	if err := h.authService.Logout(userID); err != nil {
		return common.NewAppError(http.StatusInternalServerError, "Could not log out", err)
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

// UpdateUserRole godoc
// @Summary      Update a user's role (admin)
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        userId path int true "The user ID"
// @Param        role body model.UpdateUserRoleRequest true "New role"
// @Success      200  {object}  map[string]string
// @Router       /api/admin/users/{userId}/role [put]
func (h *UserHandler) UpdateUserRole(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, err := strconv.Atoi(r.PathValue("userId"))
	if err != nil {
		return common.NewAppError(http.StatusBadRequest, "Invalid user ID in URL path", err)
	}

	var req model.UpdateUserRoleRequest
	if appErr := common.ValidateAndDecode(r, &req); appErr != nil {
		return appErr
	}

	if err := h.userService.UpdateUserRole(userID, req.Role); err != nil {
		return common.NewAppError(http.StatusInternalServerError, "Could not update user role", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "role updated"})
	return nil
}
