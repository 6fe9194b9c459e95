package logsvc

import (
	"bytes"
	"context"
	"errors"
	"log"
	"testing"

	"github.com/rollbar/rollbar-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/session"
)

func TestRollbarLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewRollbarLogger(log.New(&buf, "CONSOLE : ", 0), &core.Config{Env: "TEST"})
	logger.Enable(false)

	sess := session.Session{ID: "s1", Token: "secret-token", User: session.User{ID: "1", Username: "admin"}}
	logger.Error("loading etudiants", errors.New("backend down"), sess)

	out := buf.String()
	assert.Contains(t, out, "CONSOLE : loading etudiants")
	assert.Contains(t, out, "backend down")
	assert.Contains(t, out, "admin")
	assert.NotContains(t, out, "secret-token")
}

func TestRollbarLogger_prepare(t *testing.T) {
	logger := RollbarLogger{}
	usr := session.User{ID: "1", Username: "admin"}
	err := errors.New("boom")

	args := logger.prepare("msg", []interface{}{err, map[string]interface{}{"k": "v"}})
	assert.Equal(t, []interface{}{"msg", err, map[string]interface{}{"k": "v"}}, args)

	args = logger.prepare("msg", []interface{}{err, usr, session.User{ID: "2"}})
	require.Len(t, args, 3)
	assert.Equal(t, []interface{}{"msg", err}, args[:2])
	ctx, ok := args[2].(context.Context)
	require.True(t, ok)
	person, ok := rollbar.PersonFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, &rollbar.Person{Id: "1", Username: "admin"}, person)
}

func TestRollbarLogger_personPerItem(t *testing.T) {
	logger := RollbarLogger{}
	base := context.WithValue(context.Background(), ctxKey{}, "req")
	first := logger.prepare("a", []interface{}{base, session.User{ID: "1"}})
	second := logger.prepare("b", []interface{}{session.Session{User: session.User{ID: "2"}}})

	p1, _ := rollbar.PersonFromContext(first[1].(context.Context))
	p2, _ := rollbar.PersonFromContext(second[1].(context.Context))
	assert.Equal(t, "1", p1.Id)
	assert.Equal(t, "2", p2.Id)
	assert.Equal(t, "req", first[1].(context.Context).Value(ctxKey{}), "the caller's context is kept")
}

type ctxKey struct{}

func TestLoggerMock(t *testing.T) {
	logger := NewLoggerMock()
	logger.Warn("w1")
	logger.Info("i1")
	logger.Warn("w2", 1)

	assert.Len(t, logger.Entries(""), 3)
	warns := logger.Entries("warn")
	assert.Equal(t, []Entry{{Level: "warn", Message: "w1"}, {Level: "warn", Message: "w2", Args: []interface{}{1}}}, warns)
	assert.Panics(t, func() { logger.Fatal("bye") })
}
