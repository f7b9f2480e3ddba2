package service

import (
	"context"
	"strings"

	"nuesa/internal/auth"
	"nuesa/internal/middleware"
	"nuesa/internal/models"
	"nuesa/internal/repository"
	"nuesa/internal/validation"
)

// UserService handles registration, credential login, token refresh, and
// account management.
type UserService struct {
	repo   repository.UserRepository
	tokens *auth.TokenService
}

// RegisterInput is the payload for creating an account.
type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}

// LoginInput carries login credentials.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenPair is the response of a successful login or refresh. ExpiresIn is
// the access token lifetime in seconds.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// UpdateUserInput updates the mutable account fields. Nil means unchanged.
type UpdateUserInput struct {
	FullName  *string `json:"full_name"`
	Phone     *string `json:"phone"`
	Bio       *string `json:"bio"`
	AvatarURL *string `json:"avatar_url"`
}

// ProfileInput replaces the extended academic profile.
type ProfileInput struct {
	GPA         *float64 `json:"gpa"`
	University  string   `json:"university"`
	Major       string   `json:"major"`
	YearOfStudy string   `json:"year_of_study"`
	Skills      string   `json:"skills"`
	Experience  string   `json:"experience"`
	Country     string   `json:"country"`
	State       string   `json:"state"`
}

func NewUserService(repo repository.UserRepository, tokens *auth.TokenService) *UserService {
	return &UserService{repo: repo, tokens: tokens}
}

// Register creates a new account. Email comparison is case-insensitive: the
// address is lowercased before storage and lookup.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateFullName(in.FullName); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePhone(in.Phone); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	hashed, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Email:    in.Email,
		FullName: in.FullName,
		Password: hashed,
		Phone:    in.Phone,
		IsActive: true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// Login verifies credentials and issues a token pair. Bad email and bad
// password return the same unauthorized error so the response does not
// reveal which accounts exist. Disabled accounts are refused after the
// password check, as a forbidden error.
func (s *UserService) Login(ctx context.Context, in LoginInput) (*TokenPair, *models.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, nil, err
	}
	if user == nil || !auth.CheckPassword(in.Password, user.Password) {
		return nil, nil, models.NewUnauthorizedError("Incorrect email or password")
	}
	if !user.IsActive {
		return nil, nil, models.NewForbiddenError("Account is disabled")
	}

	pair, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

// Refresh redeems a refresh token for a new access token. The refresh token
// itself is returned unchanged; it stays valid until its own expiry. Role
// claims are re-derived from the current user record, not the old token.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokens.Verify(refreshToken)
	if err != nil {
		return nil, models.NewUnauthorizedError("Invalid refresh token")
	}
	if !claims.IsRefresh {
		return nil, models.NewUnauthorizedError("Invalid refresh token")
	}

	user, err := s.repo.GetByID(ctx, claims.UserID)
	if err != nil {
		if models.HasCode(err, models.CodeNotFound) {
			return nil, models.NewUnauthorizedError("Invalid refresh token")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, models.NewForbiddenError("Account is disabled")
	}

	access, err := s.tokens.IssueAccess(user)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
	}, nil
}

// Get returns the user by ID.
func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	return s.repo.GetByID(ctx, id)
}

// Update applies a partial update to the principal's own account.
func (s *UserService) Update(ctx context.Context, principal auth.Principal, in UpdateUserInput) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, principal.UserID)
	if err != nil {
		return nil, err
	}

	if in.FullName != nil {
		if err := validation.ValidateFullName(*in.FullName); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.FullName = *in.FullName
	}
	if in.Phone != nil {
		if err := validation.ValidatePhone(*in.Phone); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.Phone = *in.Phone
	}
	if in.Bio != nil {
		user.Bio = *in.Bio
	}
	if in.AvatarURL != nil {
		user.AvatarURL = *in.AvatarURL
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Delete removes the principal's account and everything owned by it.
func (s *UserService) Delete(ctx context.Context, principal auth.Principal) error {
	return s.repo.Delete(ctx, principal.UserID)
}

// GetProfile returns the principal's academic profile, creating an empty
// one on first access.
func (s *UserService) GetProfile(ctx context.Context, principal auth.Principal) (*models.UserProfile, error) {
	return s.repo.GetProfile(ctx, principal.UserID)
}

// UpdateProfile replaces the principal's academic profile fields.
func (s *UserService) UpdateProfile(ctx context.Context, principal auth.Principal, in ProfileInput) (*models.UserProfile, error) {
	if in.GPA != nil && (*in.GPA < 0 || *in.GPA > 5) {
		return nil, models.NewValidationError("GPA must be between 0 and 5")
	}

	profile, err := s.repo.GetProfile(ctx, principal.UserID)
	if err != nil {
		return nil, err
	}

	profile.GPA = in.GPA
	profile.University = in.University
	profile.Major = in.Major
	profile.YearOfStudy = in.YearOfStudy
	profile.Skills = in.Skills
	profile.Experience = in.Experience
	profile.Country = in.Country
	profile.State = in.State

	if err := s.repo.SaveProfile(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// SetAdmin grants or revokes the admin flag on a user. Admin-only surface.
func (s *UserService) SetAdmin(ctx context.Context, userID uint, isAdmin bool) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.IsAdmin == isAdmin {
		return user, nil
	}
	user.IsAdmin = isAdmin
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// List returns users for the admin listing.
func (s *UserService) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *UserService) issueTokens(user *models.User) (*TokenPair, error) {
	access, err := s.tokens.IssueAccess(user)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	refresh, err := s.tokens.IssueRefresh(user)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
	}, nil
}
