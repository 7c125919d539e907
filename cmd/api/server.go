package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"boardflow/auth"
)

// AuthService is the slice of auth.Service the HTTP layer depends on,
// abstracted so handler tests can stub it.
type AuthService interface {
	Register(ctx context.Context, req auth.RegisterRequest) (*auth.Account, error)
	Login(ctx context.Context, req auth.LoginRequest) (auth.LoginResult, error)
	VerifyToken(ctx context.Context, tokenString string) (*auth.Account, error)
	ListAccounts(ctx context.Context, limit int) ([]auth.Account, error)
}

type Server struct {
	authService AuthService
	logger      *slog.Logger
}

func NewServer(authService AuthService, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		authService: authService,
		logger:      logger,
	}
}

// Routes builds the request mux. Which roles a route requires is declared
// here, next to the route itself, and enforced by requireRoles.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/signup", s.handleSignup)
	mux.HandleFunc("POST /api/auth/signin", s.handleSignin)

	mux.Handle("GET /api/me", s.requireRoles(http.HandlerFunc(s.handleMe)))
	mux.Handle("GET /api/accounts", s.requireRoles(http.HandlerFunc(s.handleAccounts), auth.RoleAdmin))

	return mux
}

type accountResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

func newAccountResponse(account auth.Account) accountResponse {
	return accountResponse{
		ID:        account.ID,
		Email:     account.Email,
		Username:  account.Username,
		Role:      string(account.Role),
		CreatedAt: account.CreatedAt.Format(time.RFC3339),
	}
}

type tokenResponse struct {
	AccessToken string          `json:"access_token"`
	Account     accountResponse `json:"account"`
}

type errorResponse struct {
	Message string `json:"message"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.logger.Debug("sign-up attempt", slog.String("email", req.Email))

	account, err := s.authService.Register(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrMissingFields), errors.Is(err, auth.ErrWeakPassword):
			s.writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, auth.ErrDuplicateEmail):
			s.writeError(w, http.StatusConflict, "email already exists")
		default:
			s.logger.Error("sign-up failed", slog.String("email", req.Email), slog.Any("error", err))
			s.writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	s.logger.Info("account created", slog.String("email", account.Email), slog.String("id", account.ID))
	s.writeJSON(w, http.StatusCreated, newAccountResponse(*account))
}

func (s *Server) handleSignin(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.authService.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			s.writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		s.logger.Error("sign-in failed", slog.String("email", req.Email), slog.Any("error", err))
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.logger.Info("sign-in", slog.String("email", result.Account.Email))

	w.Header().Set("Authorization", "Bearer "+result.Token)
	s.writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: result.Token,
		Account:     newAccountResponse(result.Account),
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	account, ok := accountFromContext(r.Context())
	if !ok {
		s.writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	s.writeJSON(w, http.StatusOK, newAccountResponse(account))
}

func (s *Server) handleAccounts(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	accounts, err := s.authService.ListAccounts(r.Context(), limit)
	if err != nil {
		s.logger.Error("list accounts", slog.Any("error", err))
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]accountResponse, 0, len(accounts))
	for _, account := range accounts {
		out = append(out, newAccountResponse(account))
	}
	s.writeJSON(w, http.StatusOK, out)
}

type contextKey string

const accountContextKey contextKey = "account"

// requireRoles verifies the bearer token, re-resolves the account, and checks
// it against the declared role set. An empty set requires authentication only.
func (s *Server) requireRoles(next http.Handler, roles ...auth.Role) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			s.writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		account, err := s.authService.VerifyToken(r.Context(), token)
		if err != nil {
			s.writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		if !auth.CheckAccess(*account, roles) {
			s.writeError(w, http.StatusForbidden, "forbidden")
			return
		}

		ctx := context.WithValue(r.Context(), accountContextKey, *account)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func accountFromContext(ctx context.Context) (auth.Account, bool) {
	account, ok := ctx.Value(accountContextKey).(auth.Account)
	return account, ok
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("encode response", slog.Any("error", err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Message: message})
}
