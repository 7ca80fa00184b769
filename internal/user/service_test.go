package user_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"gba-rental/internal/auth"
	"gba-rental/internal/config"
	"gba-rental/internal/logger"
	"gba-rental/internal/models"
	"gba-rental/internal/user"
	userdb "gba-rental/internal/user/db"
)

type fakeUserDB struct {
	byID    map[string]*models.User
	byEmail map[string]*models.User
}

func newFakeUserDB() *fakeUserDB {
	return &fakeUserDB{
		byID:    map[string]*models.User{},
		byEmail: map[string]*models.User{},
	}
}

func (f *fakeUserDB) CreateUser(u models.User) error {
	if _, ok := f.byEmail[u.Email]; ok {
		return userdb.ErrEmailTaken
	}
	f.byID[u.UserID] = &u
	f.byEmail[u.Email] = &u
	return nil
}

func (f *fakeUserDB) GetUserByID(id string) (*models.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, userdb.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserDB) GetUserByEmail(email string) (*models.User, error) {
	u, ok := f.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, userdb.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserDB) ListUsers() ([]models.User, error) {
	var users []models.User
	for _, u := range f.byID {
		users = append(users, *u)
	}
	return users, nil
}

func (f *fakeUserDB) UpdateUser(u models.User) error {
	if _, ok := f.byID[u.UserID]; !ok {
		return userdb.ErrUserNotFound
	}
	f.byID[u.UserID] = &u
	return nil
}

func (f *fakeUserDB) DeleteUser(id string) error {
	u, ok := f.byID[id]
	if !ok {
		return userdb.ErrUserNotFound
	}
	delete(f.byEmail, u.Email)
	delete(f.byID, id)
	return nil
}

type fakeWelcomeNotifier struct {
	welcomed []string
	fail     bool
}

func (f *fakeWelcomeNotifier) Welcome(u models.User) error {
	if f.fail {
		return errors.New("kafka down")
	}
	f.welcomed = append(f.welcomed, u.Email)
	return nil
}

func newTestService(db *fakeUserDB, notifier *fakeWelcomeNotifier) *user.UserService {
	issuer := auth.NewTokenIssuer(config.AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour})
	return user.NewUserService(db, issuer, notifier, logger.NewLogger())
}

func TestRegisterHashesPasswordAndIssuesToken(t *testing.T) {
	db := newFakeUserDB()
	notifier := &fakeWelcomeNotifier{}
	svc := newTestService(db, notifier)

	resp, err := svc.Register(models.RegisterRequest{
		Name:     "Alice",
		Email:    "Alice@Example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", resp.Email)
	assert.Equal(t, models.RoleUser, resp.Role)
	assert.NotEmpty(t, resp.Token)

	stored := db.byEmail["alice@example.com"]
	require.NotNil(t, stored)
	assert.NotEqual(t, "correct-horse", stored.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("correct-horse")))

	assert.Equal(t, []string{"alice@example.com"}, notifier.welcomed)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	db := newFakeUserDB()
	svc := newTestService(db, &fakeWelcomeNotifier{})

	_, err := svc.Register(models.RegisterRequest{Name: "Alice", Email: "a@b.com", Password: "password1"})
	require.NoError(t, err)

	_, err = svc.Register(models.RegisterRequest{Name: "Alice2", Email: "A@B.com", Password: "password2"})
	assert.ErrorIs(t, err, userdb.ErrEmailTaken)
}

func TestRegisterNotificationFailureIsNonFatal(t *testing.T) {
	svc := newTestService(newFakeUserDB(), &fakeWelcomeNotifier{fail: true})

	resp, err := svc.Register(models.RegisterRequest{Name: "Bob", Email: "bob@b.com", Password: "password1"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
}

func TestLogin(t *testing.T) {
	db := newFakeUserDB()
	svc := newTestService(db, &fakeWelcomeNotifier{})

	_, err := svc.Register(models.RegisterRequest{Name: "Alice", Email: "a@b.com", Password: "password1"})
	require.NoError(t, err)

	resp, err := svc.Login(models.LoginRequest{Email: "a@b.com", Password: "password1"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)

	_, err = svc.Login(models.LoginRequest{Email: "a@b.com", Password: "wrong"})
	assert.ErrorIs(t, err, user.ErrInvalidCredentials)

	_, err = svc.Login(models.LoginRequest{Email: "nobody@b.com", Password: "password1"})
	assert.ErrorIs(t, err, user.ErrInvalidCredentials)
}

func TestUpdateUserPatchesOnlyGivenFields(t *testing.T) {
	db := newFakeUserDB()
	svc := newTestService(db, &fakeWelcomeNotifier{})

	resp, err := svc.Register(models.RegisterRequest{Name: "Alice", Email: "a@b.com", Password: "password1"})
	require.NoError(t, err)

	updated, err := svc.UpdateUser(resp.UserID, models.UserUpdateRequest{Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, "Alice", updated.Name)
	assert.Equal(t, "a@b.com", updated.Email)
	assert.Equal(t, models.RoleAdmin, updated.Role)
}
