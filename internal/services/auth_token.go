package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/terraincognita07/timebill/internal/models"
)

const DefaultAuthTokenTTL = 7 * 24 * time.Hour

var (
	ErrAuthTokenMissing       = errors.New("auth token missing")
	ErrAuthTokenInvalid       = errors.New("auth token invalid")
	ErrAuthTokenExpired       = errors.New("auth token expired")
	ErrAuthTokenInvalidUserID = errors.New("auth token user id invalid")
)

type AuthClaims struct {
	UserID uint `json:"uid"`
	jwt.RegisteredClaims
}

// BuildAuthToken signs an HS256 bearer token carrying the user id in the uid claim.
func BuildAuthToken(secretKey []byte, userID uint, ttl time.Duration, now time.Time) (string, error) {
	if userID == 0 {
		return "", ErrAuthTokenInvalidUserID
	}
	if ttl <= 0 {
		ttl = DefaultAuthTokenTTL
	}
	if now.IsZero() {
		now = time.Now()
	}

	claims := AuthClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secretKey)
}

func ParseAuthToken(secretKey []byte, rawToken string, now time.Time) (*AuthClaims, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, ErrAuthTokenMissing
	}
	if now.IsZero() {
		now = time.Now()
	}

	claims := &AuthClaims{}
	token, err := jwt.ParseWithClaims(rawToken, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return secretKey, nil
	}, jwt.WithTimeFunc(func() time.Time { return now }))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrAuthTokenExpired
		}
		return nil, ErrAuthTokenInvalid
	}
	if !token.Valid {
		return nil, ErrAuthTokenInvalid
	}
	if claims.ExpiresAt == nil || claims.ExpiresAt.Time.Before(now) {
		return nil, ErrAuthTokenExpired
	}
	if claims.UserID == 0 {
		return nil, ErrAuthTokenInvalidUserID
	}
	return claims, nil
}

type UserRepository interface {
	FindByID(userID uint) (models.User, bool, error)
}

type UserService struct {
	users UserRepository
}

func NewUserService(users UserRepository) *UserService {
	return &UserService{users: users}
}

func (service *UserService) FindByID(userID uint) (models.User, error) {
	user, found, err := service.users.FindByID(userID)
	if err != nil {
		return models.User{}, fmt.Errorf("load user: %w", err)
	}
	if !found {
		return models.User{}, ErrUserNotFound
	}
	return user, nil
}
