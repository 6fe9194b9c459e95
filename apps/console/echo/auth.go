package echoweb

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-console/core/session"
)

const contextSessionKey = "session"

// cookieClaims are carried by the session cookie. Id is the session id.
type cookieClaims struct {
	jwt.StandardClaims
}

// signCookie returns the session cookie value for sess.
func (s *server) signCookie(sess session.Session) (string, error) {
	claims := cookieClaims{
		StandardClaims: jwt.StandardClaims{
			Id:        sess.ID,
			Issuer:    s.Conf.AppName,
			Subject:   sess.User.ID,
			IssuedAt:  sess.CreatedAt.Unix(),
			ExpiresAt: sess.ExpiresAt.Unix(),
		},
	}
	ss, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.Conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing session cookie")
	}
	return ss, nil
}

// parseCookie returns the session id carried by a cookie value.
func (s *server) parseCookie(value string) (string, error) {
	var claims cookieClaims
	_, err := jwt.ParseWithClaims(value, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(s.Conf.SecretKey), nil
	})
	if err != nil {
		return "", errors.Wrap(err, "parsing session cookie")
	}
	if claims.Id == "" {
		return "", errors.New("session cookie carries no session id")
	}
	return claims.Id, nil
}

func (s *server) setCookie(ctx echo.Context, value string, expires time.Time) {
	ctx.SetCookie(&http.Cookie{
		Name:     s.Conf.Server.CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   !s.Conf.Debug && !s.Conf.TestMode,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *server) clearCookie(ctx echo.Context) {
	s.setCookie(ctx, "", time.Unix(0, 0))
}

// sessionMiddleware loads the session named by the cookie and carries it in the request context.
// Anonymous HTML requests are sent to the login page.
func (s *server) sessionMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		cookie, err := ctx.Cookie(s.Conf.Server.CookieName)
		if err != nil || cookie.Value == "" {
			return s.unauthenticated(ctx)
		}
		id, err := s.parseCookie(cookie.Value)
		if err != nil {
			s.clearCookie(ctx)
			return s.unauthenticated(ctx)
		}

		req := ctx.Request()
		sess, err := s.Sessions.Get(req.Context(), id)
		if err != nil {
			if errors.Is(err, session.ErrNotFound) || errors.Is(err, session.ErrExpired) {
				s.workspaces.drop(id)
				s.clearCookie(ctx)
				return s.unauthenticated(ctx)
			}
			return errors.Wrap(err, "getting session")
		}

		ctx.SetRequest(req.WithContext(session.NewContext(req.Context(), sess)))
		ctx.Set(contextSessionKey, sess)
		return next(ctx)
	}
}

func (s *server) unauthenticated(ctx echo.Context) error {
	if wantsJSON(ctx) {
		return errUnauthorized
	}
	next := ctx.Request().URL.RequestURI()
	return ctx.Redirect(http.StatusSeeOther, "/login?next="+url.QueryEscape(next))
}

func getContextSession(ctx echo.Context) (session.Session, bool) {
	sess, ok := ctx.Get(contextSessionKey).(session.Session)
	return sess, ok
}

type (
	LoginRequest struct {
		Username string `json:"username" form:"username"`
		Password string `json:"password" form:"password"`
		Next     string `json:"next" form:"next"`
	}

	loginContent struct {
		Username string
		Next     string
		Error    string
	}
)

// safeNext keeps redirects on this site.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}

// Handlers

func (s *server) loginPage(ctx echo.Context) error {
	content := loginContent{Next: safeNext(ctx.QueryParam("next"))}
	return ctx.Render(http.StatusOK, "login", newLayout(s.Conf.AppName, "Connexion", session.Session{}, nil, "", content))
}

func (s *server) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}

	sess, err := s.Sessions.Login(ctx.Request().Context(), data.Username, data.Password)
	if err != nil {
		if !errors.Is(err, session.ErrInvalidCredentials) {
			s.Logger.Error("login failed", errors.Wrap(err, "logging in"))
		}
		if wantsJSON(ctx) {
			if errors.Is(err, session.ErrInvalidCredentials) {
				return errAuthenticationFailed
			}
			return errors.Wrap(err, "logging in")
		}
		msg := "Identifiants invalides"
		code := http.StatusUnauthorized
		if !errors.Is(err, session.ErrInvalidCredentials) {
			msg = "Le serveur est injoignable, réessayez plus tard"
			code = http.StatusBadGateway
		}
		content := loginContent{Username: data.Username, Next: safeNext(data.Next), Error: msg}
		return ctx.Render(code, "login", newLayout(s.Conf.AppName, "Connexion", session.Session{}, nil, "", content))
	}

	cookie, err := s.signCookie(sess)
	if err != nil {
		return err
	}
	s.setCookie(ctx, cookie, sess.ExpiresAt)
	s.Logger.Info("user logged in", sess.User)

	if wantsJSON(ctx) {
		return ctx.JSON(http.StatusOK, echo.Map{"user": sess.User, "expiresAt": sess.ExpiresAt})
	}
	return ctx.Redirect(http.StatusSeeOther, safeNext(data.Next))
}

func (s *server) logout(ctx echo.Context) error {
	sess, ok := getContextSession(ctx)
	if !ok {
		return errUnauthorized
	}
	if err := s.Sessions.Logout(ctx.Request().Context(), sess.ID); err != nil {
		return errors.Wrap(err, "logging out")
	}
	s.workspaces.drop(sess.ID)
	s.clearCookie(ctx)

	if wantsJSON(ctx) {
		return ctx.NoContent(http.StatusNoContent)
	}
	return ctx.Redirect(http.StatusSeeOther, "/login")
}
