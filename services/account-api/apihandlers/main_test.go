package apihandlers

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	accountuser "github.com/clipshare/account-backend/pkg/db/account-user"
	"github.com/clipshare/account-backend/pkg/user-management/types"
)

const (
	testAccessSignKey  = "test-access-sign-key"
	testRefreshSignKey = "test-refresh-sign-key"
)

// fakeUserStore implements UserStore in memory with the same contract
// as the Mongo-backed service.
type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]types.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]types.User{}}
}

func (f *fakeUserStore) AddUser(user types.User) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Username == user.Username || strings.EqualFold(existing.Email, user.Email) {
			return "", accountuser.ErrAccountExists
		}
	}
	user.ID = primitive.NewObjectID()
	user.Timestamps.CreatedAt = time.Now().Unix()
	f.users[user.ID.Hex()] = user
	return user.ID.Hex(), nil
}

func (f *fakeUserStore) GetUser(userID string) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return types.User{}, accountuser.ErrAccountNotFound
	}
	return user, nil
}

func (f *fakeUserStore) GetUserByUsernameOrEmail(identifier string) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Username == identifier || user.Email == identifier {
			return user, nil
		}
	}
	return types.User{}, accountuser.ErrAccountNotFound
}

func (f *fakeUserStore) GetUserByEmail(email string) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, accountuser.ErrAccountNotFound
}

func (f *fakeUserStore) UpdateRefreshToken(userID string, refreshToken string) error {
	return f.update(userID, func(u *types.User) {
		u.RefreshToken = refreshToken
		u.Timestamps.LastLogin = time.Now().Unix()
	})
}

func (f *fakeUserStore) ClearRefreshToken(userID string) error {
	return f.update(userID, func(u *types.User) {
		u.RefreshToken = ""
	})
}

func (f *fakeUserStore) SetResetToken(userID string, hash string, expiresAt time.Time) error {
	return f.update(userID, func(u *types.User) {
		u.ResetToken = &types.ResetToken{Hash: hash, ExpiresAt: expiresAt}
	})
}

func (f *fakeUserStore) GetUserByValidResetToken(hash string) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.ResetToken != nil && user.ResetToken.Hash == hash && time.Now().Before(user.ResetToken.ExpiresAt) {
			return user, nil
		}
	}
	return types.User{}, accountuser.ErrAccountNotFound
}

func (f *fakeUserStore) UpdatePasswordAndClearResetToken(userID string, newPasswordHash string) error {
	return f.update(userID, func(u *types.User) {
		u.PasswordHash = newPasswordHash
		u.ResetToken = nil
		u.Timestamps.LastPasswordChange = time.Now().Unix()
	})
}

func (f *fakeUserStore) DeleteUser(userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[userID]; !ok {
		return accountuser.ErrAccountNotFound
	}
	delete(f.users, userID)
	return nil
}

func (f *fakeUserStore) update(userID string, change func(u *types.User)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return accountuser.ErrAccountNotFound
	}
	change(&user)
	f.users[userID] = user
	return nil
}

type fakeAvatarStore struct {
	failNext bool
	stored   []string
	removed  []string
}

func (f *fakeAvatarStore) Store(ctx context.Context, localPath string) (types.AvatarRef, error) {
	defer os.Remove(localPath)
	if f.failNext {
		f.failNext = false
		return types.AvatarRef{}, fmt.Errorf("storage unavailable")
	}
	key := fmt.Sprintf("avatars/test/%d", len(f.stored))
	f.stored = append(f.stored, key)
	return types.AvatarRef{URL: "https://media.test/" + key, Key: key}, nil
}

func (f *fakeAvatarStore) Remove(ctx context.Context, key string) error {
	f.removed = append(f.removed, key)
	return nil
}

type fakeEmailSender struct {
	failNext bool
	sent     []sentResetEmail
}

type sentResetEmail struct {
	to       string
	resetURL string
}

func (f *fakeEmailSender) send(to string, displayName string, resetURL string, validMinutes int) error {
	if f.failNext {
		f.failNext = false
		return fmt.Errorf("smtp unavailable")
	}
	f.sent = append(f.sent, sentResetEmail{to: to, resetURL: resetURL})
	return nil
}

type testEnv struct {
	router      *gin.Engine
	store       *fakeUserStore
	avatarStore *fakeAvatarStore
	emails      *fakeEmailSender
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := newFakeUserStore()
	avatarStore := &fakeAvatarStore{}
	emails := &fakeEmailSender{}

	h := NewHTTPHandler(
		testAccessSignKey,
		testRefreshSignKey,
		TokenTTLs{
			AccessToken:  24 * time.Hour,
			RefreshToken: 7 * 24 * time.Hour,
			ResetToken:   15 * time.Minute,
		},
		store,
		avatarStore,
		emails.send,
		"https://app.test",
		t.TempDir(),
		false,
	)

	router := gin.New()
	v1 := router.Group("/v1")
	h.AddAccountAPI(v1)
	h.AddPasswordResetAPI(v1)

	return &testEnv{
		router:      router,
		store:       store,
		avatarStore: avatarStore,
		emails:      emails,
	}
}

// minimal valid PNG header, enough for content type sniffing
var testPNG = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 13, 'I', 'H', 'D', 'R'}

func buildRegistrationForm(t *testing.T, fields map[string]string, withAvatar bool) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if withAvatar {
		part, err := writer.CreateFormFile("avatar", "avatar.png")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := part.Write(testPNG); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return body, writer.FormDataContentType()
}
