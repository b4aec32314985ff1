package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/restoinsight/insights-server/internal/api/http/response"
	"github.com/restoinsight/insights-server/internal/logger"
	"github.com/restoinsight/insights-server/internal/model"
)

// maxAuthBodyBytes bounds the JSON body of auth requests.
const maxAuthBodyBytes = 1 << 16

// AuthService defines account registration, login and verification.
type AuthService interface {
	Register(ctx context.Context, email, password string) (model.Account, error)
	Login(ctx context.Context, email, password string) (string, error)
	Verify(ctx context.Context, token string) error
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerResponse struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type verifyRequest struct {
	Token string `json:"token"`
}

// Auth handles account endpoints.
type Auth struct {
	authService AuthService
	logger      *logger.Logger
}

// NewAuth creates a new Auth handler.
func NewAuth(authService AuthService, logger *logger.Logger) *Auth {
	return &Auth{
		authService: authService,
		logger:      logger,
	}
}

// Register creates an account and mails its verification token.
func (h *Auth) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		invalidInput(w, "invalid request body")
		return
	}

	account, err := h.authService.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Error("Auth handler: registration failed", "error", err.Error())
		handleError(w, err)
		return
	}

	h.logger.Info("Auth handler: account registered", "account_id", account.ID)

	response.JSON(w, http.StatusCreated, registerResponse{ID: account.ID, Email: account.Email})
}

// Login exchanges credentials for an access token.
func (h *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		invalidInput(w, "invalid request body")
		return
	}

	token, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Warn("Auth handler: login failed", "error", err.Error())
		handleError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, loginResponse{AccessToken: token, TokenType: "Bearer"})
}

// Verify marks the account named by a verification token as verified.
func (h *Auth) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decodeJSON(w, r, &req); err != nil || req.Token == "" {
		invalidInput(w, "verification token is required")
		return
	}

	if err := h.authService.Verify(r.Context(), req.Token); err != nil {
		h.logger.Warn("Auth handler: verification failed", "error", err.Error())
		handleError(w, err)
		return
	}

	response.NoContent(w)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAuthBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
