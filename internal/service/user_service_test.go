package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"inventory-api/internal/model"
	"inventory-api/internal/repository/mocks"
	"inventory-api/pkg/apperror"
	"inventory-api/pkg/pagination"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

func newTestUserService(t *testing.T) (*userService, *mocks.MockUserRepository) {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockUserRepository(ctrl)

	svc := NewUserService(repo, NewTokenIssuer(testSecret, time.Hour)).(*userService)
	svc.hashCost = bcrypt.MinCost
	svc.now = func() time.Time { return testNow }
	return svc, repo
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func parseToken(t *testing.T, token string) jwt.MapClaims {
	t.Helper()
	parsed, err := jwt.Parse(token, func(*jwt.Token) (interface{}, error) { return []byte(testSecret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	require.NoError(t, err)
	return parsed.Claims.(jwt.MapClaims)
}

func TestUserService_Signup(t *testing.T) {
	type testCase struct {
		name      string
		req       SignupRequest
		setupMock func(m *mocks.MockUserRepository)
		wantErr   error
		wantMsg   string
	}

	tests := []testCase{
		{
			name: "Success",
			req:  SignupRequest{Name: "Anna", Email: "anna@example.com", Password: "secret1"},
			setupMock: func(m *mocks.MockUserRepository) {
				m.EXPECT().GetByEmail(gomock.Any(), "anna@example.com").Return(nil, gorm.ErrRecordNotFound)
				m.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, u *model.User) error {
					assert.Equal(t, model.RoleStaff, u.Role)
					assert.NotEqual(t, "secret1", u.Password)
					assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("secret1")))
					return nil
				})
			},
		},
		{
			name: "ExistingEmail",
			req:  SignupRequest{Name: "Anna", Email: "anna@example.com", Password: "secret1"},
			setupMock: func(m *mocks.MockUserRepository) {
				m.EXPECT().GetByEmail(gomock.Any(), "anna@example.com").Return(&model.User{ID: uuid.New()}, nil)
			},
			wantErr: apperror.ErrValidation,
			wantMsg: "User exists already, please login instead.",
		},
		{
			name:    "ShortPassword",
			req:     SignupRequest{Name: "Anna", Email: "anna@example.com", Password: "12345"},
			wantErr: apperror.ErrValidation,
			wantMsg: "Invalid inputs passed, please check your data.",
		},
		{
			name:    "UnknownRole",
			req:     SignupRequest{Name: "Anna", Email: "anna@example.com", Password: "secret1", Role: "owner"},
			wantErr: apperror.ErrValidation,
			wantMsg: "Invalid role: owner",
		},
		{
			name: "RepoError",
			req:  SignupRequest{Name: "Anna", Email: "anna@example.com", Password: "secret1"},
			setupMock: func(m *mocks.MockUserRepository) {
				m.EXPECT().GetByEmail(gomock.Any(), gomock.Any()).Return(nil, errors.New("db error"))
			},
			wantErr: apperror.ErrInternal,
			wantMsg: "Signing up failed, please try again later.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newTestUserService(t)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			got, err := svc.Signup(context.Background(), tt.req)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr))
				_, msg := apperror.Resolve(err)
				assert.Equal(t, tt.wantMsg, msg)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "anna@example.com", got.Email)
			assert.Equal(t, model.RoleStaff, got.Role)

			claims := parseToken(t, got.Token)
			assert.Equal(t, got.UserID, claims["userId"])
			assert.Equal(t, got.UserID, claims["sub"])
			assert.Equal(t, "anna@example.com", claims["email"])
			assert.Equal(t, model.RoleStaff, claims["role"])
		})
	}
}

func TestUserService_Login(t *testing.T) {
	user := &model.User{ID: uuid.New(), Name: "Anna", Email: "anna@example.com", Password: "", Role: model.RoleAdmin}

	type testCase struct {
		name      string
		req       LoginRequest
		setupMock func(t *testing.T, m *mocks.MockUserRepository)
		wantErr   error
	}

	tests := []testCase{
		{
			name: "Success",
			req:  LoginRequest{Email: "anna@example.com", Password: "secret1"},
			setupMock: func(t *testing.T, m *mocks.MockUserRepository) {
				u := *user
				u.Password = hashed(t, "secret1")
				m.EXPECT().GetByEmail(gomock.Any(), "anna@example.com").Return(&u, nil)
			},
		},
		{
			name: "UnknownEmail",
			req:  LoginRequest{Email: "nobody@example.com", Password: "secret1"},
			setupMock: func(t *testing.T, m *mocks.MockUserRepository) {
				m.EXPECT().GetByEmail(gomock.Any(), gomock.Any()).Return(nil, gorm.ErrRecordNotFound)
			},
			wantErr: apperror.ErrForbidden,
		},
		{
			name: "WrongPassword",
			req:  LoginRequest{Email: "anna@example.com", Password: "wrong"},
			setupMock: func(t *testing.T, m *mocks.MockUserRepository) {
				u := *user
				u.Password = hashed(t, "secret1")
				m.EXPECT().GetByEmail(gomock.Any(), gomock.Any()).Return(&u, nil)
			},
			wantErr: apperror.ErrForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newTestUserService(t)
			tt.setupMock(t, repo)

			got, err := svc.Login(context.Background(), tt.req)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr))
				assert.Equal(t, "Invalid credentials, could not log you in.", err.Error())
				return
			}

			require.NoError(t, err)
			assert.Equal(t, user.ID.String(), got.UserID)
			claims := parseToken(t, got.Token)
			assert.Equal(t, model.RoleAdmin, claims["role"])
			assert.InDelta(t, float64(time.Now().Add(time.Hour).Unix()), claims["exp"], 5)
		})
	}
}

func TestUserService_ListUsersHidesPasswords(t *testing.T) {
	svc, repo := newTestUserService(t)
	repo.EXPECT().List(gomock.Any(), 10, 10).Return([]model.User{
		{ID: uuid.New(), Name: "Anna", Email: "anna@example.com", Password: "hash", Role: model.RoleAdmin},
	}, int64(11), nil)

	users, meta, err := svc.ListUsers(context.Background(), pagination.New(2, 10))
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Anna", users[0].Name)
	assert.Equal(t, int64(2), meta.TotalPages)
}

func TestUserService_UpdateUser(t *testing.T) {
	id := uuid.New()

	t.Run("Success", func(t *testing.T) {
		svc, repo := newTestUserService(t)
		repo.EXPECT().GetByID(gomock.Any(), id).Return(&model.User{ID: id, Name: "Anna", Email: "anna@example.com", Role: model.RoleStaff}, nil)
		repo.EXPECT().GetByEmail(gomock.Any(), "ann@example.com").Return(nil, gorm.ErrRecordNotFound)
		repo.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)

		email := "ann@example.com"
		role := model.RoleAdmin
		got, err := svc.UpdateUser(context.Background(), id.String(), UpdateUserRequest{Email: &email, Role: &role})
		require.NoError(t, err)
		assert.Equal(t, "ann@example.com", got.Email)
		assert.Equal(t, model.RoleAdmin, got.Role)
		assert.Equal(t, "Anna", got.Name)
		assert.Equal(t, testNow, got.UpdatedAt)
	})

	t.Run("EmailTaken", func(t *testing.T) {
		svc, repo := newTestUserService(t)
		repo.EXPECT().GetByID(gomock.Any(), id).Return(&model.User{ID: id, Email: "anna@example.com", Role: model.RoleStaff}, nil)
		repo.EXPECT().GetByEmail(gomock.Any(), "bob@example.com").Return(&model.User{ID: uuid.New()}, nil)

		email := "bob@example.com"
		_, err := svc.UpdateUser(context.Background(), id.String(), UpdateUserRequest{Email: &email})
		assert.True(t, errors.Is(err, apperror.ErrValidation))
	})

	t.Run("NotFound", func(t *testing.T) {
		svc, repo := newTestUserService(t)
		repo.EXPECT().GetByID(gomock.Any(), id).Return(nil, gorm.ErrRecordNotFound)

		name := "X"
		_, err := svc.UpdateUser(context.Background(), id.String(), UpdateUserRequest{Name: &name})
		require.Error(t, err)
		assert.Equal(t, "Could not find user for this id.", err.Error())
	})
}

func TestUserService_DeleteUser(t *testing.T) {
	svc, repo := newTestUserService(t)
	id := uuid.New()

	repo.EXPECT().Delete(gomock.Any(), id).Return(nil)
	assert.NoError(t, svc.DeleteUser(context.Background(), id.String()))

	repo.EXPECT().Delete(gomock.Any(), id).Return(gorm.ErrRecordNotFound)
	assert.True(t, errors.Is(svc.DeleteUser(context.Background(), id.String()), apperror.ErrNotFound))

	assert.True(t, errors.Is(svc.DeleteUser(context.Background(), "bad-id"), apperror.ErrNotFound))
}
