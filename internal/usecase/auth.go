package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sweetworks/sweetshop-api/internal/core/domain"
	"github.com/sweetworks/sweetshop-api/internal/core/port"
	"github.com/sweetworks/sweetshop-api/internal/infra/logger"
	"github.com/sweetworks/sweetshop-api/internal/infra/security"
	"github.com/sweetworks/sweetshop-api/internal/repository"
)

var (
	// ErrEmailTaken indicates the email is already registered.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials collapses unknown-email and wrong-password so
	// responses cannot be used to probe which accounts exist.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidEmail indicates the email fails basic syntactic validation.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrWeakPassword indicates the password is shorter than the minimum.
	ErrWeakPassword = errors.New("password too short")
	// ErrInvalidRefreshToken covers unknown, revoked, and already-spent
	// refresh tokens. Deliberately indistinguishable from the outside.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	// ErrExpiredRefreshToken indicates the refresh token has aged out.
	ErrExpiredRefreshToken = errors.New("refresh token expired")
	// ErrInvalidAccessToken indicates the access token failed verification.
	ErrInvalidAccessToken = errors.New("invalid access token")
	// ErrExpiredAccessToken indicates the access token has expired.
	ErrExpiredAccessToken = errors.New("access token expired")
	// ErrRevokedAccessToken indicates a verified token that was blacklisted.
	ErrRevokedAccessToken = errors.New("access token revoked")
)

const minPasswordLength = 8

// AccessTokenCodec mints and verifies signed access tokens.
type AccessTokenCodec interface {
	Mint(subject string) (string, error)
	Verify(token string) (*security.AccessClaims, error)
	TTL() time.Duration
}

// RegisterInput carries the fields required to create an account.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// AuthService coordinates registration, login, token rotation, and logout.
type AuthService struct {
	users     port.UserRepository
	hasher    port.PasswordHasher
	codec     AccessTokenCodec
	refresh   *RefreshTokenService
	blacklist *BlacklistService
	publisher port.EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewAuthService constructs an AuthService. The publisher is optional.
func NewAuthService(
	users port.UserRepository,
	hasher port.PasswordHasher,
	codec AccessTokenCodec,
	refresh *RefreshTokenService,
	blacklist *BlacklistService,
	publisher port.EventPublisher,
	lg *zap.Logger,
) *AuthService {
	if lg == nil {
		lg = zap.NewNop()
	}

	service := &AuthService{
		users:     users,
		hasher:    hasher,
		codec:     codec,
		refresh:   refresh,
		blacklist: blacklist,
		publisher: publisher,
		logger:    lg,
	}
	service.now = func() time.Time { return time.Now().UTC() }
	return service
}

// WithClock overrides the service clock for deterministic tests.
func (s *AuthService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// Register creates a new customer account and opens its first session.
func (s *AuthService) Register(ctx context.Context, input RegisterInput, client domain.ClientContext) (*TokenPair, *domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, nil, ErrInvalidEmail
	}
	if len(input.Password) < minPasswordLength {
		return nil, nil, ErrWeakPassword
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, nil, ErrEmailTaken
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	user := domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, nil, ErrEmailTaken
		}
		return nil, nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("User registered",
		zap.String("user_id", user.ID),
		zap.String("email", logger.MaskEmail(user.Email)),
	)

	if s.publisher != nil {
		event := domain.UserRegisteredEvent{
			EventID:      uuid.NewString(),
			UserID:       user.ID,
			Email:        user.Email,
			RegisteredAt: now,
		}
		if err := s.publisher.PublishUserRegistered(ctx, event); err != nil {
			s.logger.Warn("Failed to publish user registered event", zap.Error(err))
		}
	}

	pair, err := s.issuePair(ctx, user.ID, client)
	if err != nil {
		return nil, nil, err
	}

	return pair, &user, nil
}

// Login verifies credentials and issues a fresh token pair. Unknown emails
// and wrong passwords produce the same error.
func (s *AuthService) Login(ctx context.Context, email, password string, client domain.ClientContext) (*TokenPair, *domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("load user: %w", err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		s.logger.Info("Login rejected",
			zap.String("email", logger.MaskEmail(email)),
			zap.String("ip", logger.MaskIP(client.IP)),
		)
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.issuePair(ctx, user.ID, client)
	if err != nil {
		return nil, nil, err
	}

	return pair, user, nil
}

// Refresh spends the presented refresh token and issues a new pair for the
// same user. A spent, unknown, or revoked token always yields
// ErrInvalidRefreshToken.
func (s *AuthService) Refresh(ctx context.Context, rawSecret string, client domain.ClientContext) (*TokenPair, error) {
	token, err := s.refresh.Consume(ctx, rawSecret)
	if err != nil {
		return nil, err
	}

	return s.issuePair(ctx, token.UserID, client)
}

// Logout blacklists the presented access token and revokes the session's
// refresh token. The two revocations are independent: a failure or missing
// token on one side never blocks the other. Repeating a logout is harmless.
func (s *AuthService) Logout(ctx context.Context, claims *security.AccessClaims, rawRefresh string) error {
	var firstErr error

	if claims != nil {
		if err := s.blacklist.Revoke(ctx, claims.Subject, claims.JTI, claims.ExpiresAt, "logout"); err != nil {
			firstErr = err
		}
	}

	if err := s.refresh.Revoke(ctx, rawRefresh); err != nil && firstErr == nil {
		firstErr = err
	}

	if firstErr != nil {
		return firstErr
	}

	if claims != nil {
		s.logger.Info("User logged out", zap.String("user_id", claims.Subject))
	}
	return nil
}

// LogoutWithTokens is the unauthenticated logout entry point: the access
// token is verified best-effort, so a client holding only a refresh token
// (or an expired access token) can still kill its session.
func (s *AuthService) LogoutWithTokens(ctx context.Context, rawAccess, rawRefresh string) error {
	var claims *security.AccessClaims
	if strings.TrimSpace(rawAccess) != "" {
		if verified, err := s.codec.Verify(rawAccess); err == nil {
			claims = verified
		}
	}

	return s.Logout(ctx, claims, rawRefresh)
}

// LogoutAll blacklists the presented access token and revokes every refresh
// session the user holds. Returns the number of sessions revoked.
func (s *AuthService) LogoutAll(ctx context.Context, claims *security.AccessClaims) (int, error) {
	if claims == nil {
		return 0, ErrInvalidAccessToken
	}

	if err := s.blacklist.Revoke(ctx, claims.Subject, claims.JTI, claims.ExpiresAt, "logout_all"); err != nil {
		return 0, err
	}

	revoked, err := s.refresh.RevokeAllForUser(ctx, claims.Subject)
	if err != nil {
		return 0, err
	}

	if s.publisher != nil {
		event := domain.SessionsRevokedEvent{
			EventID:   uuid.NewString(),
			UserID:    claims.Subject,
			Reason:    "logout_all",
			Count:     revoked,
			RevokedAt: s.now(),
		}
		if err := s.publisher.PublishSessionsRevoked(ctx, event); err != nil {
			s.logger.Warn("Failed to publish sessions revoked event", zap.Error(err))
		}
	}

	s.logger.Info("All sessions revoked",
		zap.String("user_id", claims.Subject),
		zap.Int("count", revoked),
	)

	return revoked, nil
}

// AuthenticateAccessToken runs the full verification chain for a bearer
// token: signature and expiry, then the revocation check, then principal
// resolution. A token whose subject no longer exists is treated as invalid.
func (s *AuthService) AuthenticateAccessToken(ctx context.Context, tokenString string) (*domain.User, *security.AccessClaims, error) {
	claims, err := s.codec.Verify(tokenString)
	if err != nil {
		switch {
		case errors.Is(err, security.ErrExpiredToken):
			return nil, nil, ErrExpiredAccessToken
		default:
			return nil, nil, ErrInvalidAccessToken
		}
	}

	revoked, err := s.blacklist.IsRevoked(ctx, claims.JTI)
	if err != nil {
		return nil, nil, err
	}
	if revoked {
		return nil, nil, ErrRevokedAccessToken
	}

	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrInvalidAccessToken
		}
		return nil, nil, fmt.Errorf("load principal: %w", err)
	}

	return user, claims, nil
}

func (s *AuthService) issuePair(ctx context.Context, userID string, client domain.ClientContext) (*TokenPair, error) {
	access, err := s.codec.Mint(userID)
	if err != nil {
		return nil, fmt.Errorf("mint access token: %w", err)
	}

	refreshSecret, err := s.refresh.Issue(ctx, userID, client)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refreshSecret,
		ExpiresIn:    int64(s.codec.TTL().Seconds()),
	}, nil
}
