package service

//go:generate mockgen -source=user_service.go -destination=mocks/mock_user_service.go -package=mocks

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"inventory-api/internal/model"
	"inventory-api/internal/repository"
	"inventory-api/pkg/apperror"
	"inventory-api/pkg/pagination"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultHashCost = 12
	minPasswordLen  = 6
	userNotFound    = "Could not find user for this id."
	loginFailed     = "Invalid credentials, could not log you in."
)

// DTOs for Request validation
type SignupRequest struct {
	Name     string `json:"name" form:"name" binding:"required"`
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required,min=6"`
	Role     string `json:"role" form:"role"`
	Image    string `json:"-" form:"-"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UpdateUserRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email" binding:"omitempty,email"`
	Role  *string `json:"role"`
}

// AuthResponse is returned by signup and login.
type AuthResponse struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	Token  string `json:"token"`
}

// UserResponse never carries the password hash.
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Image     string    `json:"image,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toUserResponse(u *model.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		Image:     u.Image,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// TokenIssuer signs HS256 access tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (t *TokenIssuer) Issue(u *model.User) (string, error) {
	now := t.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":    u.ID.String(),
		"userId": u.ID.String(),
		"email":  u.Email,
		"role":   u.Role,
		"iat":    now.Unix(),
		"exp":    now.Add(t.ttl).Unix(),
	})
	return token.SignedString(t.secret)
}

// UserService defines the interface for business logic related to User
type UserService interface {
	ListUsers(ctx context.Context, page pagination.Params) ([]UserResponse, pagination.Meta, error)
	Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	UpdateUser(ctx context.Context, id string, req UpdateUserRequest) (*UserResponse, error)
	DeleteUser(ctx context.Context, id string) error
}

type userService struct {
	repo     repository.UserRepository
	tokens   *TokenIssuer
	hashCost int
	now      func() time.Time
}

// NewUserService returns a new instance of UserService
func NewUserService(repo repository.UserRepository, tokens *TokenIssuer) UserService {
	return &userService{repo: repo, tokens: tokens, hashCost: defaultHashCost, now: time.Now}
}

func parseUserID(id string) (uuid.UUID, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, apperror.NotFound(userNotFound)
	}
	return uid, nil
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func (s *userService) ListUsers(ctx context.Context, page pagination.Params) ([]UserResponse, pagination.Meta, error) {
	users, total, err := s.repo.List(ctx, page.Offset, page.Limit)
	if err != nil {
		return nil, pagination.Meta{}, apperror.Internal("Fetching users failed, please try again later.", err)
	}

	res := make([]UserResponse, 0, len(users))
	for i := range users {
		res = append(res, toUserResponse(&users[i]))
	}
	return res, page.Meta(total), nil
}

func (s *userService) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	const failed = "Signing up failed, please try again later."

	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	if name == "" || !validEmail(email) || len(req.Password) < minPasswordLen {
		return nil, apperror.Validation("Invalid inputs passed, please check your data.")
	}

	role := req.Role
	if role == "" {
		role = model.RoleStaff
	}
	if !model.IsValidRole(role) {
		return nil, apperror.Validation("Invalid role: " + role)
	}

	_, err := s.repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, apperror.Validation("User exists already, please login instead.")
	case !repository.IsNotFound(err):
		return nil, apperror.Internal(failed, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return nil, apperror.Internal("Could not create user, please try again.", err)
	}

	now := s.now()
	user := &model.User{
		ID:        uuid.New(),
		Name:      name,
		Email:     email,
		Password:  string(hash),
		Role:      role,
		Image:     req.Image,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperror.Validation("User exists already, please login instead.")
		}
		return nil, apperror.Internal(failed, err)
	}

	return s.authResponse(user, failed)
}

func (s *userService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	const failed = "Logging in failed, please try again later."

	user, err := s.repo.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperror.Forbidden(loginFailed)
		}
		return nil, apperror.Internal(failed, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, apperror.Forbidden(loginFailed)
		}
		return nil, apperror.Internal("Could not log you in, please check your credentials and try again.", err)
	}

	return s.authResponse(user, failed)
}

func (s *userService) authResponse(user *model.User, failed string) (*AuthResponse, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, apperror.Internal(failed, err)
	}
	return &AuthResponse{
		UserID: user.ID.String(),
		Email:  user.Email,
		Name:   user.Name,
		Role:   user.Role,
		Token:  token,
	}, nil
}

func (s *userService) UpdateUser(ctx context.Context, id string, req UpdateUserRequest) (*UserResponse, error) {
	const failed = "Something went wrong, could not update user."

	uid, err := parseUserID(id)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.GetByID(ctx, uid)
	if err != nil {
		return nil, lookup(err, userNotFound, failed)
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperror.Validation("Name must not be empty.")
		}
		user.Name = name
	}

	if req.Role != nil {
		if !model.IsValidRole(*req.Role) {
			return nil, apperror.Validation("Invalid role: " + *req.Role)
		}
		user.Role = *req.Role
	}

	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if !validEmail(email) {
			return nil, apperror.Validation("Invalid inputs passed, please check your data.")
		}
		if !strings.EqualFold(email, user.Email) {
			other, err := s.repo.GetByEmail(ctx, email)
			switch {
			case err == nil && other.ID != user.ID:
				return nil, apperror.Validation("Email is already in use.")
			case err != nil && !repository.IsNotFound(err):
				return nil, apperror.Internal(failed, err)
			}
		}
		user.Email = email
	}

	user.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperror.Validation("Email is already in use.")
		}
		return nil, lookup(err, userNotFound, failed)
	}

	res := toUserResponse(user)
	return &res, nil
}

func (s *userService) DeleteUser(ctx context.Context, id string) error {
	uid, err := parseUserID(id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, uid); err != nil {
		return lookup(err, userNotFound, "Something went wrong, could not delete user.")
	}
	return nil
}
