package auth

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/database/users"
	"github.com/mrlokans/librarian/internal/entities"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,64}$`)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrUserExists       = errors.New("user already exists")
	ErrInvalidToken     = errors.New("invalid token")
	ErrTokenExpired     = errors.New("token expired")
	ErrUsernameRequired = errors.New("username is required")
	ErrEmailRequired    = errors.New("email is required")
	ErrPasswordRequired = errors.New("password is required")
	ErrAccountLocked    = errors.New("account is locked due to too many failed login attempts")
	ErrUsernameInvalid  = errors.New("username must be 3-64 characters, alphanumeric and underscore/hyphen only")
	ErrEmailInvalid     = errors.New("invalid email format")
)

// Service handles authentication and user management.
type Service struct {
	users  *users.Repository
	config config.Auth
	tokens *TokenIssuer
	now    func() time.Time
}

// NewService creates a new authentication service. When no JWT secret is
// configured a random one is generated, so access tokens do not survive a
// restart.
func NewService(db *gorm.DB, cfg config.Auth) *Service {
	secret := cfg.JWTSecret
	if secret == "" {
		generated, err := GenerateSigningSecret()
		if err != nil {
			panic(fmt.Sprintf("auth: cannot generate signing secret: %v", err))
		}
		secret = generated
		log.Warn().Msg("AUTH_JWT_SECRET is not set, access tokens will be invalidated on restart")
	}

	return &Service{
		users:  users.NewRepository(db),
		config: cfg,
		tokens: NewTokenIssuer(secret, cfg.AccessTokenTTL),
		now:    time.Now,
	}
}

// CreateUser creates a new user with password authentication. publisherID
// may be nil for users that only read the catalog.
func (s *Service) CreateUser(username, email, password string, publisherID *uint) (*entities.User, error) {
	if username == "" {
		return nil, ErrUsernameRequired
	}
	if email == "" {
		return nil, ErrEmailRequired
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}

	if err := validation.Validate(username, validation.Match(usernamePattern)); err != nil {
		return nil, ErrUsernameInvalid
	}
	// RFC 5321 caps addresses at 254 characters
	if err := validation.Validate(email, validation.Length(3, 254), is.EmailFormat); err != nil {
		return nil, ErrEmailInvalid
	}

	exists, err := s.users.Exists(username, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if exists {
		return nil, ErrUserExists
	}

	passwordHash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entities.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		PublisherID:  publisherID,
	}
	if err := s.users.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Authenticate validates credentials and returns the user. The account is
// locked for LockoutDuration after MaxLoginAttempts consecutive failures.
func (s *Service) Authenticate(login, password string) (*entities.User, error) {
	user, err := s.users.GetByLogin(login)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	now := s.now()
	if user.LockedUntil != nil && now.Before(*user.LockedUntil) {
		return nil, ErrAccountLocked
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		s.recordFailedLogin(user)
		return nil, err
	}

	if _, err := s.users.Update(user.ID, map[string]any{
		"last_login_at":      now,
		"failed_login_count": 0,
		"locked_until":       nil,
	}); err != nil {
		log.Error().Err(err).Uint("user_id", user.ID).Msg("failed to record login")
	}
	user.LastLoginAt = &now
	user.FailedLoginCount = 0
	user.LockedUntil = nil

	return user, nil
}

func (s *Service) recordFailedLogin(user *entities.User) {
	user.FailedLoginCount++
	updates := map[string]any{
		"failed_login_count": user.FailedLoginCount,
	}

	maxAttempts := s.config.MaxLoginAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if user.FailedLoginCount >= maxAttempts {
		lockout := s.config.LockoutDuration
		if lockout <= 0 {
			lockout = 30 * time.Minute
		}
		updates["locked_until"] = s.now().Add(lockout)
	}

	if _, err := s.users.Update(user.ID, updates); err != nil {
		log.Error().Err(err).Uint("user_id", user.ID).Msg("failed to record failed login")
	}
}

// IssueAccessToken returns a signed access token for the user and its
// lifetime.
func (s *Service) IssueAccessToken(user *entities.User) (string, time.Duration, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", 0, err
	}
	return token, s.tokens.TTL(), nil
}

// ResolveBearer returns the user a bearer token belongs to. Prefixed
// tokens are looked up as API tokens; anything else must be a valid
// access token.
func (s *Service) ResolveBearer(token string) (*entities.User, AuthType, error) {
	if token == "" {
		return nil, AuthTypeNone, ErrInvalidToken
	}

	if IsAPIToken(token) {
		user, err := s.ValidateToken(token)
		if err != nil {
			return nil, AuthTypeNone, err
		}
		return user, AuthTypeAPIToken, nil
	}

	userID, err := s.tokens.Parse(token)
	if err != nil {
		return nil, AuthTypeNone, err
	}
	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, AuthTypeNone, ErrInvalidToken
	}
	return user, AuthTypeAccessToken, nil
}

// GetUserByID retrieves a user with their publisher.
func (s *Service) GetUserByID(id uint) (*entities.User, error) {
	user, err := s.users.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// ValidateToken checks a plaintext API token and returns the associated
// user. Returns ErrTokenExpired if the token is past its expiry time.
func (s *Service) ValidateToken(token string) (*entities.User, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	user, err := s.users.GetByTokenHash(HashToken(token))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	if s.config.TokenExpiry > 0 && user.TokenCreatedAt != nil {
		if s.now().Sub(*user.TokenCreatedAt) > s.config.TokenExpiry {
			return nil, ErrTokenExpired
		}
	}

	return user, nil
}

// GenerateToken creates a new API token for a user, replacing any previous
// one. Returns the plaintext token (show to user once); only the hash is
// stored.
func (s *Service) GenerateToken(userID uint) (string, error) {
	plaintext, hash, err := GenerateAPIToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	rows, err := s.users.Update(userID, map[string]any{
		"token_hash":       hash,
		"token_created_at": s.now(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to save token: %w", err)
	}
	if rows == 0 {
		return "", ErrUserNotFound
	}

	return plaintext, nil
}

// RevokeToken removes a user's API token.
func (s *Service) RevokeToken(userID uint) error {
	_, err := s.users.Update(userID, map[string]any{
		"token_hash":       "",
		"token_created_at": nil,
	})
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// HasUsers returns true if any users exist in the database.
func (s *Service) HasUsers() (bool, error) {
	count, err := s.users.Count()
	return count > 0, err
}
