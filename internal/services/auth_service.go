package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"paysync-server/internal/models"
	"paysync-server/internal/repo"
	"paysync-server/internal/utils"
)

type AuthOptions struct {
	Secret         string
	Issuer         string
	Audience       string
	Expiry         time.Duration
	PasswordMinLen int
}

type AuthService struct {
	users UserStore
	opts  AuthOptions
	now   func() time.Time
}

type TokenResponse struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	ExpiresIn   int64    `json:"expires_in"`
	User        UserInfo `json:"user"`
}

type UserInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

var errInvalidCredentials = utils.NewAppError(http.StatusUnauthorized, "UNAUTHORIZED", "invalid credentials", nil)

func NewAuthService(users UserStore, opts AuthOptions) *AuthService {
	if opts.Expiry <= 0 {
		opts.Expiry = 24 * time.Hour
	}
	return &AuthService{users: users, opts: opts, now: time.Now}
}

func (s *AuthService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	details := map[string]string{}
	if username == "" {
		details["username"] = "required"
	}
	if _, err := mail.ParseAddress(email); err != nil {
		details["email"] = "must be a valid email address"
	}
	if len(password) < s.opts.PasswordMinLen {
		details["password"] = fmt.Sprintf("must be at least %d characters", s.opts.PasswordMinLen)
	}
	if len(details) > 0 {
		return nil, utils.NewAppError(http.StatusBadRequest, "VALIDATION_ERROR", "invalid request", details)
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, utils.NewAppError(http.StatusInternalServerError, "INTERNAL_ERROR", "could not check existing users", nil).WithCause(err)
	}
	if exists {
		return nil, utils.NewAppError(http.StatusConflict, "CONFLICT", "email already registered", nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, utils.NewAppError(http.StatusInternalServerError, "INTERNAL_ERROR", "could not secure password", nil).WithCause(err)
	}

	user, err := s.users.Create(ctx, username, email, "user", string(hash))
	if err != nil {
		return nil, utils.NewAppError(http.StatusInternalServerError, "INTERNAL_ERROR", "could not create user", nil).WithCause(err)
	}
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenResponse, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, utils.NewAppError(http.StatusInternalServerError, "INTERNAL_ERROR", "could not load user", nil).WithCause(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, errInvalidCredentials
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, utils.NewAppError(http.StatusInternalServerError, "INTERNAL_ERROR", "could not generate token", nil).WithCause(err)
	}

	return &TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.opts.Expiry.Seconds()),
		User:        userInfo(user),
	}, nil
}

// Me loads the user behind a validated token.
func (s *AuthService) Me(ctx context.Context, userID string) (*UserInfo, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, utils.NewAppError(http.StatusNotFound, "NOT_FOUND", "user not found", nil)
		}
		return nil, utils.NewAppError(http.StatusInternalServerError, "INTERNAL_ERROR", "could not load user", nil).WithCause(err)
	}
	info := userInfo(user)
	return &info, nil
}

// ParseToken validates signature, expiry, issuer and audience.
func (s *AuthService) ParseToken(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.opts.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.opts.Issuer),
		jwt.WithAudience(s.opts.Audience),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	return claims, nil
}

func (s *AuthService) generateToken(user *models.User) (string, error) {
	issuedAt := s.now()
	claims := Claims{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.opts.Issuer,
			Audience:  jwt.ClaimStrings{s.opts.Audience},
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.opts.Expiry)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.opts.Secret))
}

func userInfo(u *models.User) UserInfo {
	return UserInfo{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role}
}
