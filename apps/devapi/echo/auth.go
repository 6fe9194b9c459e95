package devapi

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-console/core/session"
)

const (
	tokenContextKey = "userToken"
	tokenTTL        = 24 * time.Hour
	adminID         = "1"
	roleAdmin       = "admin"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Username string   `json:"username,omitempty"`
	Roles    []string `json:"roles,omitempty"`
}

func newJWTConfig(secret string) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(secret),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    tokenContextKey,
		Claims:        new(Claims),
	}
}

// GenerateToken generates a signed JWT token string for usr.
func GenerateToken(usr session.User, secret string) (string, error) {
	now := time.Now()
	claims := &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    "masomo.devapi",
			Subject:   usr.ID,
			ExpiresAt: now.Add(tokenTTL).Unix(),
			IssuedAt:  now.Unix(),
		},
		Username: usr.Username,
		Roles:    usr.Roles,
	}
	ss, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

type (
	LoginRequest struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	LoginResponse struct {
		Token string       `json:"token"`
		User  session.User `json:"user"`
	}
)

func (s *server) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}

	conf := s.Conf.DevAPI
	userOK := subtle.ConstantTimeCompare([]byte(data.Username), []byte(conf.Username)) == 1
	pwdOK := subtle.ConstantTimeCompare([]byte(data.Password), []byte(conf.Password)) == 1
	if data.Username == "" || !userOK || !pwdOK {
		return errAuthenticationFailed
	}

	usr := session.User{
		ID:       adminID,
		Username: conf.Username,
		Name:     "Administrateur",
		Roles:    []string{roleAdmin},
	}
	token, err := GenerateToken(usr, s.Conf.SecretKey)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"data": LoginResponse{Token: token, User: usr}})
}
