package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"quizmaster/internal/domain"
)

const dateLayout = "2006-01-02"

// AuthService handles accounts and session tokens.
type AuthService struct {
	users  UserRepository
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewAuthService(users UserRepository, secret string, ttl time.Duration) *AuthService {
	return &AuthService{users: users, secret: []byte(secret), ttl: ttl, now: time.Now}
}

// RegisterInput is the sign-up form.
type RegisterInput struct {
	Username        string `json:"username" validate:"required,max=80"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
	Name            string `json:"name" validate:"required,max=80"`
	Qualification   string `json:"qualification" validate:"max=256"`
	DOB             string `json:"dob" validate:"omitempty,datetime=2006-01-02"`
}

// ProfileInput is the profile edit form; all fields are required.
type ProfileInput struct {
	Username        string `json:"username" validate:"required,max=80"`
	CurrentPassword string `json:"currentPassword" validate:"required"`
	Password        string `json:"password" validate:"required"`
	Name            string `json:"name" validate:"required,max=80"`
}

type loginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type sessionClaims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

// Register creates a non-admin account.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (domain.User, error) {
	if err := validateInput(in); err != nil {
		return domain.User{}, err
	}
	user := domain.User{
		Username:      in.Username,
		Name:          in.Name,
		Qualification: in.Qualification,
	}
	if in.DOB != "" {
		dob, err := time.Parse(dateLayout, in.DOB)
		if err != nil {
			return domain.User{}, domain.NewValidationError("dob", "must be a date in 2006-01-02 format")
		}
		if dob.After(domain.Day(s.now())) {
			return domain.User{}, domain.NewValidationError("dob", "must not be in the future")
		}
		user.DOB = &dob
	}

	if _, err := s.users.GetUserByUsername(ctx, in.Username); err == nil {
		return domain.User{}, domain.ErrUsernameTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return domain.User{}, err
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return domain.User{}, err
	}
	user.PasswordHash = hash
	return s.users.CreateUser(ctx, user)
}

// Login verifies credentials and issues a token bound to a fresh session id.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, domain.User, error) {
	if err := validateInput(loginInput{Username: username, Password: password}); err != nil {
		return "", domain.User{}, err
	}
	user, err := s.users.GetUserByUsername(ctx, username)
	if errors.Is(err, domain.ErrUserNotFound) {
		return "", domain.User{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return "", domain.User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", domain.User{}, domain.ErrInvalidCredentials
	}

	token, err := s.issue(user.ID)
	if err != nil {
		return "", domain.User{}, err
	}
	log.Info().Int64("user_id", user.ID).Msg("login")
	return token, user, nil
}

func (s *AuthService) issue(userID int64) (string, error) {
	now := s.now()
	claims := sessionClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Authenticate resolves a token to an identity. The admin flag is read from the stored user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, domain.ErrUnauthenticated
	}
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid || claims.UserID == 0 || claims.ID == "" {
		return Identity{}, domain.ErrUnauthenticated
	}

	user, err := s.users.GetUser(ctx, claims.UserID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return Identity{}, domain.ErrUnauthenticated
	}
	if err != nil {
		return Identity{}, err
	}
	return Identity{
		UserID:    user.ID,
		SessionID: claims.ID,
		Username:  user.Username,
		IsAdmin:   user.IsAdmin,
	}, nil
}

// Profile returns the stored account.
func (s *AuthService) Profile(ctx context.Context, userID int64) (domain.User, error) {
	return s.users.GetUser(ctx, userID)
}

// UpdateProfile changes username, password and name after verifying the current password.
func (s *AuthService) UpdateProfile(ctx context.Context, userID int64, in ProfileInput) (domain.User, error) {
	if err := validateInput(in); err != nil {
		return domain.User{}, err
	}
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.CurrentPassword)) != nil {
		return domain.User{}, domain.NewValidationError("currentPassword", "is incorrect")
	}
	if in.Username != user.Username {
		if _, err := s.users.GetUserByUsername(ctx, in.Username); err == nil {
			return domain.User{}, domain.ErrUsernameTaken
		} else if !errors.Is(err, domain.ErrUserNotFound) {
			return domain.User{}, err
		}
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return domain.User{}, err
	}
	user.Username = in.Username
	user.PasswordHash = hash
	user.Name = in.Name
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// EnsureAdmin creates the admin account when none exists. It reports whether one was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	exists, err := s.users.HasAdmin(ctx)
	if err != nil || exists {
		return false, err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return false, err
	}
	if _, err := s.users.CreateUser(ctx, domain.User{
		Username:     username,
		PasswordHash: hash,
		Name:         "Admin",
		IsAdmin:      true,
	}); err != nil {
		return false, err
	}
	return true, nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
