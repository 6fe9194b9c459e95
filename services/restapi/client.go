// Package restapi is the client of the school REST backend.
package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/session"
)

// HTTPError is returned when the backend answers with a non-2xx status.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Message returns the backend's error message when the body carries one, or the status text.
func (e *HTTPError) Message() string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal([]byte(e.Body), &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return http.StatusText(e.StatusCode)
}

// StatusCode returns the backend status carried by err, or 0 when err is not an *HTTPError.
func StatusCode(err error) int {
	var hErr *HTTPError
	if errors.As(err, &hErr) {
		return hErr.StatusCode
	}
	return 0
}

const maxErrorBody = 2048

// Client sends requests to the backend. There are no retries: every failure is returned to the caller.
type Client struct {
	baseURL string
	http    *http.Client
	logger  core.Logger
}

func NewClient(conf core.APIConfig, logger core.Logger, httpClient ...*http.Client) *Client {
	hc := &http.Client{Timeout: conf.Timeout}
	if len(httpClient) > 0 && httpClient[0] != nil {
		hc = httpClient[0]
	}
	return &Client{
		baseURL: strings.TrimRight(conf.BaseURL, "/"),
		http:    hc,
		logger:  logger,
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

// do sends body as JSON and returns the response body of a 2xx answer.
// The bearer token of the session carried by ctx, if any, authenticates the request.
func (c *Client) do(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "encoding request body")
		}
		rdr = bytes.NewReader(data)
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, rdr)
	if err != nil {
		return nil, errors.Wrap(err, "creating request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sess, ok := session.FromContext(ctx); ok && sess.Token != "" {
		req.Header.Set("Authorization", "Bearer "+sess.Token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", method, url)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s: reading response", method, url)
	}
	if c.logger != nil {
		c.logger.Debug(fmt.Sprintf("%s %s -> %d (%s)", method, url, resp.StatusCode, time.Since(start).Round(time.Millisecond)))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if len(data) > maxErrorBody {
			data = data[:maxErrorBody]
		}
		return nil, &HTTPError{
			Method:     method,
			URL:        url,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(data)),
		}
	}
	return data, nil
}

type loginResponse struct {
	Token string       `json:"token"`
	User  session.User `json:"user"`
}

// Login exchanges credentials for a bearer token. It implements session.Authenticator.
// A 401 answer is reported as session.ErrInvalidCredentials.
func (c *Client) Login(ctx context.Context, username, password string) (session.User, string, error) {
	data, err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		if code := StatusCode(err); code == http.StatusUnauthorized || code == http.StatusBadRequest {
			return session.User{}, "", session.ErrInvalidCredentials
		}
		return session.User{}, "", err
	}

	resp, ok, err := decodeOne[loginResponse](data)
	if err != nil {
		return session.User{}, "", err
	}
	if !ok || resp.Token == "" {
		return session.User{}, "", errors.New("login response carries no token")
	}
	if resp.User.Username == "" {
		resp.User.Username = username
	}
	return resp.User, resp.Token, nil
}

var _ session.Authenticator = (*Client)(nil)
