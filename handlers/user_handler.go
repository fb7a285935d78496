package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"usuarios-service/middleware"
	"usuarios-service/models"
	"usuarios-service/services"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const RootMessage = "User CRUD API is running. See /usuarios for the user endpoints."

type JSONResponse map[string]interface{}

// UserService is the set of user operations the handlers call.
type UserService interface {
	Create(ctx context.Context, in models.UserCreate) (models.UserOutput, error)
	List(ctx context.Context) ([]models.UserOutput, error)
	Get(ctx context.Context, username string) (models.UserOutput, error)
	Update(ctx context.Context, username string, in models.UserUpdate) (models.UserOutput, error)
	Delete(ctx context.Context, username string) error
	Login(ctx context.Context, in models.UserLogin) (models.LoginResult, error)
}

type UserHandler struct {
	service UserService
	log     *zap.SugaredLogger
	timeout time.Duration
}

// NewUserHandler builds the handlers. A zero timeout leaves the request
// context untouched.
func NewUserHandler(service UserService, log *zap.SugaredLogger, timeout time.Duration) *UserHandler {
	return &UserHandler{service: service, log: log, timeout: timeout}
}

func (h *UserHandler) RootHandler(w http.ResponseWriter, r *http.Request) error {
	return writeJSON(w, http.StatusOK, JSONResponse{"message": RootMessage})
}

func (h *UserHandler) HealthHandler(w http.ResponseWriter, r *http.Request) error {
	return writeJSON(w, http.StatusOK, JSONResponse{"status": "ok"})
}

func (h *UserHandler) CreateHandler(w http.ResponseWriter, r *http.Request) error {
	var req models.CreateRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	ctx, cancel := h.context(r)
	defer cancel()

	out, err := h.service.Create(ctx, req.UserCreate())
	if err != nil {
		return toAppError(err)
	}
	return writeJSON(w, http.StatusCreated, out)
}

func (h *UserHandler) ListHandler(w http.ResponseWriter, r *http.Request) error {
	ctx, cancel := h.context(r)
	defer cancel()

	users, err := h.service.List(ctx)
	if err != nil {
		return toAppError(err)
	}
	return writeJSON(w, http.StatusOK, users)
}

func (h *UserHandler) GetHandler(w http.ResponseWriter, r *http.Request) error {
	ctx, cancel := h.context(r)
	defer cancel()

	out, err := h.service.Get(ctx, mux.Vars(r)["username"])
	if err != nil {
		return toAppError(err)
	}
	return writeJSON(w, http.StatusOK, out)
}

func (h *UserHandler) UpdateHandler(w http.ResponseWriter, r *http.Request) error {
	// An empty body supplies no fields and is reported as an empty update.
	var in models.UserUpdate
	if err := decodeJSON(r, &in); err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	ctx, cancel := h.context(r)
	defer cancel()

	out, err := h.service.Update(ctx, mux.Vars(r)["username"], in)
	if err != nil {
		return toAppError(err)
	}
	return writeJSON(w, http.StatusOK, out)
}

func (h *UserHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) error {
	ctx, cancel := h.context(r)
	defer cancel()

	if err := h.service.Delete(ctx, mux.Vars(r)["username"]); err != nil {
		return toAppError(err)
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (h *UserHandler) LoginHandler(w http.ResponseWriter, r *http.Request) error {
	var req models.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	in := req.UserLogin()

	ctx, cancel := h.context(r)
	defer cancel()

	result, err := h.service.Login(ctx, in)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			h.log.Infow("login rejected", "username", in.Username)
		}
		return toAppError(err)
	}
	return writeJSON(w, http.StatusOK, result)
}

func (h *UserHandler) context(r *http.Request) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return r.Context(), func() {}
	}
	return context.WithTimeout(r.Context(), h.timeout)
}

// decodeJSON reads the body into dst and validates it. Syntax errors are 400;
// wrong types and failed validation are 422.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			message := "invalid payload: wrong type"
			if typeErr.Field != "" {
				message = "invalid payload: " + typeErr.Field + " must be a " + typeErr.Type.String()
			}
			return middleware.NewAppError(http.StatusUnprocessableEntity, message, err)
		}
		return middleware.NewAppError(http.StatusBadRequest, "Invalid request payload", err)
	}

	if err := models.Validate(dst); err != nil {
		var validationErr *models.ValidationError
		if errors.As(err, &validationErr) {
			return middleware.NewAppError(http.StatusUnprocessableEntity, validationErr.Error(), err)
		}
		return middleware.NewAppError(http.StatusInternalServerError, "Internal server error", err)
	}
	return nil
}

func toAppError(err error) error {
	var notFound *services.NotFoundError
	switch {
	case errors.Is(err, services.ErrDuplicateUsername):
		return middleware.NewAppError(http.StatusBadRequest, services.ErrDuplicateUsername.Error(), err)
	case errors.Is(err, services.ErrEmptyUpdate):
		return middleware.NewAppError(http.StatusBadRequest, services.ErrEmptyUpdate.Error(), err)
	case errors.As(err, &notFound):
		return middleware.NewAppError(http.StatusNotFound, notFound.Error(), err)
	case errors.Is(err, services.ErrNotFound):
		return middleware.NewAppError(http.StatusNotFound, services.ErrNotFound.Error(), err)
	case errors.Is(err, services.ErrInvalidCredentials):
		return middleware.NewAppError(http.StatusUnauthorized, services.ErrInvalidCredentials.Error(), err)
	case errors.Is(err, models.ErrSerialization):
		return middleware.NewAppError(http.StatusInternalServerError, models.ErrSerialization.Error(), err)
	default:
		return middleware.NewAppError(http.StatusInternalServerError, "Internal server error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(body)
}
