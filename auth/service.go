package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrInvalidCredentials signals wrong email or password. Unknown email and
	// bad password share one sentinel so callers cannot probe which addresses
	// are registered.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrInvalidToken signals a token that failed signature, expiry or account
	// resolution. The specific cause is deliberately not exposed.
	ErrInvalidToken = errors.New("auth: invalid token")
	// ErrMissingFields signals empty registration fields.
	ErrMissingFields = errors.New("auth: username, password and email are required")
	// ErrWeakPassword signals password doesn't meet requirements.
	ErrWeakPassword = errors.New("auth: password must be at least 8 characters")
)

// Service handles authentication business logic.
type Service struct {
	repo        Repository
	tokens      *TokenManager
	idGenerator func() string
}

// LoginResult bundles the token and domain account returned after a
// successful login.
type LoginResult struct {
	Token   string
	Account Account
}

// NewService creates a new authentication service.
func NewService(repo Repository, tokens *TokenManager) *Service {
	return &Service{
		repo:        repo,
		tokens:      tokens,
		idGenerator: uuid.NewString,
	}
}

// WithIDGenerator overrides account ID generation, for tests.
func (s *Service) WithIDGenerator(gen func() string) *Service {
	s.idGenerator = gen
	return s
}

// Register creates a new account. Self-service sign-up always gets RoleUser,
// whatever role the request carried.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Account, error) {
	if req.Username == "" || req.Password == "" || req.Email == "" {
		return nil, ErrMissingFields
	}
	if len(req.Password) < 8 {
		return nil, ErrWeakPassword
	}

	// Best-effort guard. The unique index on accounts.email decides a
	// concurrent duplicate; CreateAccount reports it as ErrDuplicateEmail.
	exists, err := s.repo.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("auth: check email: %w", err)
	}
	if exists {
		return nil, ErrDuplicateEmail
	}

	passwordHash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	account, err := s.repo.CreateAccount(ctx, CreateAccountParams{
		ID:           s.idGenerator(),
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: passwordHash,
		Role:         RoleUser,
	})
	if err != nil {
		return nil, err
	}

	return &account, nil
}

// Login authenticates an account and returns a signed token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (LoginResult, error) {
	account, err := s.repo.GetAccountByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	if !CheckPassword(req.Password, account.PasswordHash) {
		return LoginResult{}, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(account)
	if err != nil {
		return LoginResult{}, fmt.Errorf("auth: issue token: %w", err)
	}

	return LoginResult{Token: token, Account: account}, nil
}

// VerifyToken validates tokenString and re-resolves the account it names.
// The directory lookup is authoritative: a role change or deletion after
// issuance is observed on the next request.
func (s *Service) VerifyToken(ctx context.Context, tokenString string) (*Account, error) {
	claims, err := s.tokens.Parse(tokenString)
	if err != nil {
		return nil, ErrInvalidToken
	}

	account, err := s.repo.GetAccountByEmail(ctx, claims.Email)
	if err != nil {
		return nil, ErrInvalidToken
	}

	return &account, nil
}

// ListAccounts returns the most recently created accounts, for the
// admin-facing listing.
func (s *Service) ListAccounts(ctx context.Context, limit int) ([]Account, error) {
	return s.repo.ListAccounts(ctx, limit)
}

// CheckAccess re-exports the pure access decision so transport middleware can
// take the service as its single dependency.
func (s *Service) CheckAccess(account Account, requiredRoles []Role) bool {
	return CheckAccess(account, requiredRoles)
}
