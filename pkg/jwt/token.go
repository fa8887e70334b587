package jwtPkg

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"StudySanctuary/internal/entity"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

const AccessTokenSecret = "JWT_ACCESS_TOKEN_SECRET"

// MethodFace marks tokens issued by face login.
const MethodFace = "face"

var (
	ErrMissingToken     = errors.New("empty Authorization header")
	ErrMalformedHeader  = errors.New("invalid Authorization format")
	ErrSecretNotSet     = errors.New("JWT secret not configured")
	ErrIncompleteClaims = errors.New("token claims are missing required fields")
)

func Sign(Data map[string]interface{}, ExpiredAt time.Duration) (string, int64, error) {
	now := time.Now()
	expiredAt := now.Add(ExpiredAt).Unix()

	JWTSecretKey := os.Getenv(AccessTokenSecret)
	if JWTSecretKey == "" {
		return "", 0, fmt.Errorf("%w: %s not set", ErrSecretNotSet, AccessTokenSecret)
	}

	claims := jwt.MapClaims{}
	claims["exp"] = expiredAt
	claims["iat"] = now.Unix()
	claims["authorization"] = true

	for i, v := range Data {
		claims[i] = v
	}

	logrus.WithField("claim_keys", len(claims)).Debug("Creating token with claims")

	to := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	accessToken, err := to.SignedString([]byte(JWTSecretKey))
	if err != nil {
		logrus.WithError(err).Error("Failed to sign token")
		return "", 0, err
	}

	return accessToken, expiredAt, nil
}

// SignUser issues an access token for user. The claim set is the one UserFromClaims reads back.
func SignUser(user entity.UserLoginData, method string, ttl time.Duration) (string, int64, error) {
	return Sign(map[string]interface{}{
		"sub":      user.ID,
		"id":       user.ID,
		"username": user.Username,
		"email":    user.Email,
		"method":   method,
	}, ttl)
}

// UserFromClaims reads the login data out of verified claims. Email may be empty, id may not.
func UserFromClaims(claims jwt.MapClaims) (entity.UserLoginData, error) {
	id, idOk := claims["id"].(string)
	email, emailOk := claims["email"].(string)
	username, usernameOk := claims["username"].(string)
	if !idOk || !emailOk || !usernameOk || id == "" {
		return entity.UserLoginData{}, ErrIncompleteClaims
	}

	return entity.UserLoginData{
		ID:       id,
		Username: username,
		Email:    email,
	}, nil
}

func VerifyTokenHeader(c *fiber.Ctx, secretEnvKey string) (*jwt.Token, error) {
	log := logrus.WithField("func", "VerifyTokenHeader")

	header := c.Get("Authorization")
	if header == "" {
		log.Warn("Empty Authorization header")
		return nil, ErrMissingToken
	}

	accessToken, ok := strings.CutPrefix(header, "Bearer ")
	accessToken = strings.TrimSpace(accessToken)
	if !ok || accessToken == "" {
		log.Warn("Invalid Authorization format")
		return nil, ErrMalformedHeader
	}

	JWTSecretKey := os.Getenv(secretEnvKey)
	if JWTSecretKey == "" {
		log.Errorf("%s environment variable not set", secretEnvKey)
		return nil, ErrSecretNotSet
	}

	token, err := jwt.Parse(accessToken, func(token *jwt.Token) (interface{}, error) {
		return []byte(JWTSecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		log.WithError(err).Warn("Failed to parse JWT token")
		return nil, err
	}

	log.Debug("Token successfully verified")
	return token, nil
}

func GetUserLoginData(c *fiber.Ctx) (entity.UserLoginData, error) {
	userData := c.Locals("user")

	user, ok := userData.(entity.UserLoginData)
	if !ok {
		return entity.UserLoginData{}, fiber.ErrUnauthorized
	}

	return user, nil
}
