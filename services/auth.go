package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/princinho/parkingbackend/apperror"
	"github.com/princinho/parkingbackend/models"
	"github.com/princinho/parkingbackend/repository"
	"github.com/princinho/parkingbackend/utils"
)

// bcrypt ignores input past this many bytes.
const maxPasswordBytes = 72

type LoginResult struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type AuthService struct {
	users  repository.UserRepository
	tokens *TokenService
}

func NewAuthService(users repository.UserRepository, tokens *TokenService) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

func (s *AuthService) Register(ctx context.Context, email, fullName, password string) (*models.User, error) {
	email = utils.NormalizeEmail(email)
	fullName = strings.TrimSpace(fullName)

	verr := apperror.Validation("Submitted data did not pass validation")
	if email == "" {
		verr.WithField("email", "field required")
	}
	if n := utf8.RuneCountInString(fullName); n < 1 || n > 100 {
		verr.WithField("full_name", "must be between 1 and 100 characters")
	}
	if msg := passwordProblem(password); msg != "" {
		verr.WithField("password", msg)
	}
	if len(verr.Fields) > 0 {
		return nil, verr
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	user := &models.User{
		Email:        email,
		FullName:     fullName,
		PasswordHash: hash,
		Role:         models.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.AlreadyExists(
				"USER_ALREADY_EXISTS",
				"User already exists",
				"A user with this email already exists",
			).WithField("email", "already registered")
		}
		return nil, apperror.Internal(err)
	}
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, utils.NormalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.InvalidCredentials()
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if err := utils.CheckPassword(user.PasswordHash, password); err != nil {
		return nil, apperror.InvalidCredentials()
	}

	issued, err := s.tokens.Issue(strconv.FormatInt(user.ID, 10))
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return &LoginResult{
		AccessToken: issued.Token,
		TokenType:   "bearer",
		ExpiresAt:   issued.ExpiresAt,
	}, nil
}

// Logout revokes the token's jti. It only needs a well-formed, unexpired
// token, so logging out twice with the same token succeeds.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return authFailed(err)
	}
	if claims.TokenID == "" {
		return authFailed(ErrInvalidToken)
	}
	if err := s.tokens.Revoke(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
		return apperror.Internal(err)
	}
	return nil
}

func (s *AuthService) Me(ctx context.Context, caller *Principal) (*models.User, error) {
	user, err := s.users.GetByID(ctx, caller.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, authFailed(ErrUserNotFound)
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return user, nil
}

// ChangePassword replaces the caller's password and revokes the token
// the request was made with.
func (s *AuthService) ChangePassword(ctx context.Context, caller *Principal, current, next string) error {
	user, err := s.Me(ctx, caller)
	if err != nil {
		return err
	}
	if err := utils.CheckPassword(user.PasswordHash, current); err != nil {
		return apperror.FieldValidation("current_password", "is incorrect")
	}
	if msg := passwordProblem(next); msg != "" {
		return apperror.FieldValidation("new_password", msg)
	}

	hash, err := utils.HashPassword(next)
	if err != nil {
		return apperror.Internal(err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return apperror.Internal(err)
	}
	if err := s.tokens.Revoke(ctx, caller.TokenID, caller.ExpiresAt); err != nil {
		return apperror.Internal(err)
	}
	return nil
}

// SetRole promotes or demotes a user. Admin only.
func (s *AuthService) SetRole(ctx context.Context, caller *Principal, userID int64, role models.Role) (*models.User, error) {
	if err := RequireAdmin(caller); err != nil {
		return nil, err
	}
	if caller.ID == userID && role != models.RoleAdmin {
		return nil, apperror.FieldValidation("role", "admins cannot demote themselves")
	}
	user, err := s.users.UpdateRole(ctx, userID, role)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.NotFound("USER_NOT_FOUND", "User not found", "The requested user does not exist").
			WithField("user_id", "does not exist")
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return user, nil
}

// passwordProblem returns why password is unacceptable, or "".
func passwordProblem(password string) string {
	n := utf8.RuneCountInString(password)
	if n < 8 || n > 64 {
		return "must be between 8 and 64 characters"
	}
	if len(password) > maxPasswordBytes {
		return "must not exceed 72 bytes when UTF-8 encoded"
	}
	var lower, upper, digit bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !lower || !upper || !digit {
		return "must contain a lowercase letter, an uppercase letter and a digit"
	}
	return ""
}
