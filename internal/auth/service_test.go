package auth

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/database"
	"github.com/mrlokans/librarian/internal/entities"
)

const testPassword = "correct-horse-battery"

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "auth.db")
	db, err := gorm.Open(sqlite.Open(database.SQLiteDSN(dbPath)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return db
}

func testAuthConfig() config.Auth {
	return config.Auth{
		JWTSecret:        "test-secret",
		AccessTokenTTL:   time.Hour,
		BcryptCost:       4, // Low cost for faster tests
		MaxLoginAttempts: 3,
		LockoutDuration:  time.Minute,
	}
}

func createPublisher(t *testing.T, db *gorm.DB, name string) uint {
	t.Helper()
	p := &entities.Publisher{Name: name}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("failed to create publisher: %v", err)
	}
	return p.ID
}

func TestService_CreateUser(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, testAuthConfig())

	tests := []struct {
		name     string
		username string
		email    string
		password string
		wantErr  error
	}{
		{name: "valid user", username: "alice", email: "alice@example.com", password: testPassword},
		{name: "missing username", email: "x@example.com", password: testPassword, wantErr: ErrUsernameRequired},
		{name: "missing email", username: "bob", password: testPassword, wantErr: ErrEmailRequired},
		{name: "missing password", username: "bob", email: "bob@example.com", wantErr: ErrPasswordRequired},
		{name: "password too short", username: "bob", email: "bob@example.com", password: "short", wantErr: ErrPasswordTooShort},
		{name: "invalid username", username: "no spaces", email: "bob@example.com", password: testPassword, wantErr: ErrUsernameInvalid},
		{name: "username too short", username: "ab", email: "bob@example.com", password: testPassword, wantErr: ErrUsernameInvalid},
		{name: "invalid email", username: "bob", email: "not-an-email", password: testPassword, wantErr: ErrEmailInvalid},
		{name: "duplicate username", username: "alice", email: "other@example.com", password: testPassword, wantErr: ErrUserExists},
		{name: "duplicate email", username: "carol", email: "alice@example.com", password: testPassword, wantErr: ErrUserExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := svc.CreateUser(tt.username, tt.email, tt.password, nil)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("CreateUser() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr == nil {
				if user.ID == 0 {
					t.Error("expected user to be persisted")
				}
				if user.PasswordHash == "" || user.PasswordHash == tt.password {
					t.Error("password must be stored hashed")
				}
			}
		})
	}
}

func TestService_CreateUser_WithPublisher(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, testAuthConfig())
	pubID := createPublisher(t, db, "Ace")

	user, err := svc.CreateUser("editor", "editor@example.com", testPassword, &pubID)
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	loaded, err := svc.GetUserByID(user.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if loaded.PublisherID == nil || *loaded.PublisherID != pubID {
		t.Errorf("PublisherID = %v, want %d", loaded.PublisherID, pubID)
	}
	if loaded.Publisher == nil || loaded.Publisher.Name != "Ace" {
		t.Error("expected publisher to be loaded")
	}
}

func TestService_Authenticate(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, testAuthConfig())
	if _, err := svc.CreateUser("alice", "alice@example.com", testPassword, nil); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	if _, err := svc.Authenticate("alice", testPassword); err != nil {
		t.Errorf("Authenticate(username) error = %v", err)
	}

	user, err := svc.Authenticate("alice@example.com", testPassword)
	if err != nil {
		t.Fatalf("Authenticate(email) error = %v", err)
	}
	if user.LastLoginAt == nil {
		t.Error("LastLoginAt should be set after login")
	}

	if _, err := svc.Authenticate("alice", "wrong-password-123"); !errors.Is(err, ErrInvalidPassword) {
		t.Errorf("wrong password error = %v, want %v", err, ErrInvalidPassword)
	}
	if _, err := svc.Authenticate("nobody", testPassword); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("unknown user error = %v, want %v", err, ErrUserNotFound)
	}
}

func TestService_Authenticate_LocksAccount(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, testAuthConfig())
	user, err := svc.CreateUser("alice", "alice@example.com", testPassword, nil)
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := svc.Authenticate("alice", "wrong-password-123"); !errors.Is(err, ErrInvalidPassword) {
			t.Fatalf("attempt %d: error = %v", i+1, err)
		}
	}

	if _, err := svc.Authenticate("alice", testPassword); !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("locked account error = %v, want %v", err, ErrAccountLocked)
	}

	// lockout expires
	svc.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, err := svc.Authenticate("alice", testPassword); err != nil {
		t.Fatalf("Authenticate after lockout error = %v", err)
	}

	var stored entities.User
	if err := db.First(&stored, user.ID).Error; err != nil {
		t.Fatalf("failed to reload user: %v", err)
	}
	if stored.FailedLoginCount != 0 || stored.LockedUntil != nil {
		t.Errorf("successful login should reset lockout, got count=%d lockedUntil=%v", stored.FailedLoginCount, stored.LockedUntil)
	}
}

func TestService_APITokenLifecycle(t *testing.T) {
	db := setupTestDB(t)
	cfg := testAuthConfig()
	cfg.TokenExpiry = time.Hour
	svc := NewService(db, cfg)
	user, err := svc.CreateUser("alice", "alice@example.com", testPassword, nil)
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	token, err := svc.GenerateToken(user.ID)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	var stored entities.User
	db.First(&stored, user.ID)
	if stored.TokenHash != HashToken(token) {
		t.Error("only the token hash should be stored")
	}

	got, err := svc.ValidateToken(token)
	if err != nil || got.ID != user.ID {
		t.Fatalf("ValidateToken() = %v, %v", got, err)
	}

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := svc.ValidateToken(token); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expired token error = %v, want %v", err, ErrTokenExpired)
	}
	svc.now = time.Now

	if err := svc.RevokeToken(user.ID); err != nil {
		t.Fatalf("RevokeToken() error = %v", err)
	}
	if _, err := svc.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("revoked token error = %v, want %v", err, ErrInvalidToken)
	}

	if _, err := svc.GenerateToken(9999); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GenerateToken(unknown) error = %v, want %v", err, ErrUserNotFound)
	}
}

func TestService_ResolveBearer(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, testAuthConfig())
	pubID := createPublisher(t, db, "Ace")
	user, err := svc.CreateUser("alice", "alice@example.com", testPassword, &pubID)
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	access, _, err := svc.IssueAccessToken(user)
	if err != nil {
		t.Fatalf("IssueAccessToken() error = %v", err)
	}
	apiToken, err := svc.GenerateToken(user.ID)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	got, kind, err := svc.ResolveBearer(access)
	if err != nil || got.ID != user.ID || kind != AuthTypeAccessToken {
		t.Errorf("ResolveBearer(access) = %v, %v, %v", got, kind, err)
	}
	if got != nil && (got.PublisherID == nil || *got.PublisherID != pubID) {
		t.Error("resolved user should carry the publisher id")
	}

	got, kind, err = svc.ResolveBearer(apiToken)
	if err != nil || got.ID != user.ID || kind != AuthTypeAPIToken {
		t.Errorf("ResolveBearer(api token) = %v, %v, %v", got, kind, err)
	}

	if _, _, err := svc.ResolveBearer("garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ResolveBearer(garbage) error = %v, want %v", err, ErrInvalidToken)
	}
	if _, _, err := svc.ResolveBearer(""); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ResolveBearer(empty) error = %v, want %v", err, ErrInvalidToken)
	}
}

func TestService_GeneratesSecretWhenUnset(t *testing.T) {
	db := setupTestDB(t)
	cfg := testAuthConfig()
	cfg.JWTSecret = ""

	a := NewService(db, cfg)
	b := NewService(db, cfg)

	token, err := a.tokens.Issue(1)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if _, err := b.tokens.Parse(token); err == nil {
		t.Error("services with generated secrets must not accept each other's tokens")
	}
}

func TestService_HasUsers(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, testAuthConfig())

	has, err := svc.HasUsers()
	if err != nil || has {
		t.Fatalf("HasUsers() on empty db = %v, %v", has, err)
	}
	if _, err := svc.CreateUser("alice", "alice@example.com", testPassword, nil); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if has, _ := svc.HasUsers(); !has {
		t.Error("HasUsers() should be true after creating a user")
	}
}
