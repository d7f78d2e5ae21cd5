package services_test

import (
	"context"
	"testing"
	"time"

	"storefront/internal/apperror"
	"storefront/internal/config"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/dgrijalva/jwt-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	args := m.Called(ctx, login)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) UsernameTaken(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) EmailTaken(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserRepository) UpdateRoles(ctx context.Context, id string, isStaff, isSuperuser *bool) (*models.User, error) {
	args := m.Called(ctx, id, isStaff, isSuperuser)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

const testSecret = "test-secret"

func newAuthService(repo *MockUserRepository) *services.AuthService {
	return services.NewAuthService(repo, config.JWT{
		Secret:     testSecret,
		AccessTTL:  time.Hour,
		RefreshTTL: 24 * time.Hour,
	}, zerolog.Nop())
}

func hashedUser(t *testing.T, password string) *models.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{ID: "user-123", Username: "testuser", Email: "test@example.com", Password: string(hash), IsActive: true, IsStaff: true}
}

func TestAuthService_Register(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := newAuthService(mockRepo)
	ctx := context.Background()

	mockRepo.On("EmailTaken", ctx, "new@example.com").Return(false, nil).Once()
	mockRepo.On("UsernameTaken", ctx, "newuser").Return(false, nil).Once()
	mockRepo.On("Create", ctx, mock.MatchedBy(func(u *models.User) bool {
		return u.Email == "new@example.com" && u.IsActive &&
			bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("s3cret-pass")) == nil
	})).Return(nil).Once()

	user, err := authService.Register(ctx, services.RegisterInput{
		Username:        "newuser",
		Email:           "New@Example.com",
		Password:        "s3cret-pass",
		ConfirmPassword: "s3cret-pass",
	})
	require.NoError(t, err)
	assert.Equal(t, "newuser", user.Username)
	assert.NotEqual(t, "s3cret-pass", user.Password)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_RegisterRejections(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := newAuthService(mockRepo)
	ctx := context.Background()

	_, err := authService.Register(ctx, services.RegisterInput{
		Username: "u1", Email: "a@example.com", Password: "password1", ConfirmPassword: "password2",
	})
	assert.True(t, apperror.Is(err, apperror.KindInvalidArgument))
	assert.Equal(t, "Passwords do not match.", apperror.Message(err))

	mockRepo.On("EmailTaken", ctx, "taken@example.com").Return(true, nil).Once()
	_, err = authService.Register(ctx, services.RegisterInput{
		Username: "u1", Email: "taken@example.com", Password: "password1", ConfirmPassword: "password1",
	})
	assert.True(t, apperror.Is(err, apperror.KindConflict))

	mockRepo.On("EmailTaken", ctx, "free@example.com").Return(false, nil).Once()
	mockRepo.On("UsernameTaken", ctx, "existing").Return(true, nil).Once()
	_, err = authService.Register(ctx, services.RegisterInput{
		Username: "existing", Email: "free@example.com", Password: "password1", ConfirmPassword: "password1",
	})
	assert.True(t, apperror.Is(err, apperror.KindConflict))
	assert.Equal(t, "This username is already taken.", apperror.Message(err))

	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_LoginAndAuthenticate(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := newAuthService(mockRepo)
	ctx := context.Background()
	user := hashedUser(t, "password123")

	mockRepo.On("GetByLogin", ctx, "test@example.com").Return(user, nil).Once()
	mockRepo.On("GetByID", ctx, user.ID).Return(user, nil)

	pair, err := authService.Login(ctx, "test@example.com", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.Access)
	assert.NotEmpty(t, pair.Refresh)
	assert.Equal(t, "testuser", pair.User.Username)
	assert.True(t, pair.User.IsAdmin)

	claims, err := authService.ValidateToken(pair.Access, services.TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims["user_id"])

	principal, err := authService.Authenticate(ctx, pair.Access)
	require.NoError(t, err)
	assert.Equal(t, user.ID, principal.UserID)
	assert.True(t, principal.IsStaff)

	// A refresh token is not accepted where an access token is expected.
	_, err = authService.Authenticate(ctx, pair.Refresh)
	assert.True(t, apperror.Is(err, apperror.KindUnauthorized))

	access, err := authService.Refresh(ctx, pair.Refresh)
	require.NoError(t, err)
	_, err = authService.ValidateToken(access, services.TokenTypeAccess)
	assert.NoError(t, err)

	_, err = authService.Refresh(ctx, pair.Access)
	assert.True(t, apperror.Is(err, apperror.KindUnauthorized))

	mockRepo.AssertExpectations(t)
}

func TestAuthService_LoginFailures(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := newAuthService(mockRepo)
	ctx := context.Background()
	user := hashedUser(t, "password123")

	mockRepo.On("GetByLogin", ctx, "testuser").Return(user, nil).Once()
	_, err := authService.Login(ctx, "testuser", "wrong")
	assert.True(t, apperror.Is(err, apperror.KindInvalidArgument))

	mockRepo.On("GetByLogin", ctx, "ghost").Return(nil, apperror.NotFound("user ghost not found")).Once()
	_, err = authService.Login(ctx, "ghost", "password123")
	assert.True(t, apperror.Is(err, apperror.KindInvalidArgument))
	assert.Equal(t, "No active account found with the given credentials.", apperror.Message(err))

	disabled := hashedUser(t, "password123")
	disabled.IsActive = false
	mockRepo.On("GetByLogin", ctx, "testuser").Return(disabled, nil).Once()
	_, err = authService.Login(ctx, "testuser", "password123")
	assert.True(t, apperror.Is(err, apperror.KindInvalidArgument))
	assert.Equal(t, "User account is disabled.", apperror.Message(err))

	mockRepo.AssertExpectations(t)
}

func TestAuthService_ValidateToken(t *testing.T) {
	authService := newAuthService(new(MockUserRepository))

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":    "user-123",
		"token_type": services.TokenTypeAccess,
		"exp":        time.Now().Add(-time.Hour).Unix(),
	})
	expiredString, err := expired.SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = authService.ValidateToken(expiredString, services.TokenTypeAccess)
	assert.True(t, apperror.Is(err, apperror.KindUnauthorized))

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":    "user-123",
		"token_type": services.TokenTypeAccess,
		"exp":        time.Now().Add(time.Hour).Unix(),
	})
	forgedString, err := forged.SignedString([]byte("other-secret"))
	require.NoError(t, err)
	_, err = authService.ValidateToken(forgedString, services.TokenTypeAccess)
	assert.True(t, apperror.Is(err, apperror.KindUnauthorized))

	_, err = authService.ValidateToken("not-a-token", services.TokenTypeAccess)
	assert.Error(t, err)
}
