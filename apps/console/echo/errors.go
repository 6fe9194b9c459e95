package echoweb

import (
	"net/http"
	"net/url"
	"sort"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-console/apps/workspace"
	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/session"
	"github.com/trezcool/masomo-console/core/table"
	"github.com/trezcool/masomo-console/services/restapi"
)

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusBadRequest, "authentication failed")
	errHttpNotFound         = echo.NewHTTPError(http.StatusNotFound, "not found")
	errBadGateway           = echo.NewHTTPError(http.StatusBadGateway, "the backend failed to answer")
)

type errorContent struct {
	Code    int
	Message string
}

// httpError maps err to a status code and the message shown to the client.
// It returns code 0 for unexpected errors.
func httpError(err error, translator ut.Translator) (code int, message interface{}) {
	switch origErr := errors.Cause(err).(type) {
	case *echo.HTTPError:
		if origErr.Internal != nil {
			if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
				origErr = herr
			}
		}
		return origErr.Code, origErr.Message
	case validator.ValidationErrors:
		fldErrs := make(map[string]string, len(origErr))
		for _, vErr := range origErr {
			fldErrs[vErr.Field()] = vErr.Translate(translator)
		}
		return http.StatusBadRequest, fldErrs
	case *core.ValidationError:
		if origErr.Fields != nil {
			return http.StatusBadRequest, origErr.FieldMap()
		}
		return http.StatusBadRequest, origErr.Error()
	case *restapi.HTTPError:
		switch {
		case origErr.StatusCode == http.StatusUnauthorized:
			return errUnauthorized.Code, errUnauthorized.Message
		case origErr.StatusCode >= 400 && origErr.StatusCode < 500:
			return origErr.StatusCode, origErr.Message()
		}
		return errBadGateway.Code, errBadGateway.Message
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) { // the backend is unreachable
		return errBadGateway.Code, errBadGateway.Message
	}

	switch {
	case errors.Is(err, workspace.ErrUnknownResource), errors.Is(err, table.ErrRowNotFound):
		return errHttpNotFound.Code, errHttpNotFound.Message
	case errors.Is(err, table.ErrNoHandler):
		return http.StatusMethodNotAllowed, table.ErrNoHandler.Error()
	case errors.Is(err, table.ErrUnknownFormat), errors.Is(err, table.ErrMissingHeaders):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, table.ErrDeleteCanceled):
		return http.StatusConflict, table.ErrDeleteCanceled.Error()
	case errors.Is(err, session.ErrInvalidCredentials):
		return errAuthenticationFailed.Code, errAuthenticationFailed.Message
	}
	return 0, nil
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// HTML clients get the error page, JSON clients a JSON body.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func (s *server) newAppHTTPErrorHandler(signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		code, message := httpError(err, s.Translator)
		if code == 0 { // any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg

			args := []interface{}{errors.Wrap(err, msg)}
			if sess, ok := getContextSession(ctx); ok {
				args = append(args, sess.User)
			}
			s.Logger.Error(msg, args...)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Response().Committed {
			return
		}

		if ctx.Request().Method == http.MethodHead { // Issue #608
			err = ctx.NoContent(code)
		} else if wantsJSON(ctx) {
			if ctx.Echo().Debug && code == http.StatusInternalServerError {
				message = err.Error()
			}
			if m, ok := message.(string); ok {
				message = echo.Map{"error": m}
			}
			err = ctx.JSON(code, message)
		} else {
			if code == http.StatusUnauthorized {
				err = s.unauthenticated(ctx)
			} else {
				err = s.renderError(ctx, code, message)
			}
		}
		if err != nil {
			ctx.Echo().Logger.Error(err)
		}
	}
}

func (s *server) renderError(ctx echo.Context, code int, message interface{}) error {
	content := errorContent{Code: code, Message: http.StatusText(code)}
	switch m := message.(type) {
	case string:
		content.Message = m
	case map[string]string:
		content.Message = fieldMessages(m)
	}

	sess, _ := getContextSession(ctx)
	var ws *workspace.Workspace
	if sess.ID != "" {
		ws = s.workspaces.get(sess)
	}
	return ctx.Render(code, "error", newLayout(s.Conf.AppName, "Erreur", sess, ws, "", content))
}

// fieldMessages joins field errors in field order.
func fieldMessages(flds map[string]string) string {
	keys := make([]string, 0, len(flds))
	for k := range flds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, flds[k])
	}
	return strings.Join(msgs, "; ")
}
