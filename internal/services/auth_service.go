package services

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"strings"

	"github.com/atknylmz/Urtim-server/internal/models"
	"github.com/atknylmz/Urtim-server/internal/repositories"
	"github.com/atknylmz/Urtim-server/internal/utils"
	"github.com/atknylmz/Urtim-server/internal/validator"
)

type authService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	tokens    *utils.TokenManager
}

func NewAuthService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, tokens *utils.TokenManager) AuthService {
	return &authService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		tokens:    tokens,
	}
}

// Login checks, in order: unknown email (404), wrong password (401), then the
// requested panel against the account authority (403).
func (s *authService) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.repo.User().GetByEmail(ctx, email)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("no user with this email")
		}
		return nil, internal("failed to load user", err)
	}

	if subtle.ConstantTimeCompare([]byte(user.PasswordPlain), []byte(req.Password)) != 1 {
		s.logger.Info("Login rejected", "user_id", user.ID, "reason", "password")
		return nil, ErrWrongPassword
	}

	role := strings.ToLower(strings.TrimSpace(req.Role))
	switch role {
	case string(models.AuthorityAdmin):
		if !user.IsAdmin() {
			return nil, ErrAdminRequired
		}
	case string(models.AuthorityUser):
		if user.Authority != models.AuthorityAdmin && user.Authority != models.AuthorityUser {
			return nil, ErrUserPanelDenied
		}
	}

	token, err := s.tokens.Issue(user.ID, user.Username, user.Email, string(user.Authority))
	if err != nil {
		return nil, internal("failed to issue token", err)
	}

	message := "User login successful"
	if role == string(models.AuthorityAdmin) {
		message = "Admin login successful"
	}

	s.logger.Info("User logged in", "user_id", user.ID, "panel", role)
	return &LoginResponse{
		Message: message,
		Token:   token,
		User: LoginUserView{
			ID:        user.ID,
			FullName:  user.FullName,
			Email:     user.Email,
			Authority: string(user.Authority),
			Role:      user.Role,
			WorkArea:  user.WorkArea,
		},
	}, nil
}

func (s *authService) VerifyToken(token string) (*utils.Claims, error) {
	return s.tokens.Verify(token)
}
