package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistryReady(t *testing.T) {
	r := NewRegistry()
	r.Register("drafts", NewCheckFunc("memory", func(context.Context) error { return nil }))
	r.Register("database", NewCheckFunc("postgres", func(context.Context) error { return nil }))

	ready, status := r.Ready(context.Background())
	assert.True(t, ready)
	assert.Equal(t, map[string]string{"drafts": "ok", "database": "ok"}, status)
	assert.Equal(t, []string{"database", "drafts"}, r.List())
	assert.Equal(t, "postgres", r.Get("database").Type())

	r.Register("database", NewCheckFunc("postgres", func(context.Context) error { return errors.New("connection refused") }))
	ready, status = r.Ready(context.Background())
	assert.False(t, ready)
	assert.Equal(t, "connection refused", status["database"])

	r.Unregister("database")
	ready, _ = r.Ready(context.Background())
	assert.True(t, ready)
	assert.Nil(t, r.Get("database"))
}

type closingChecker struct {
	*CheckFunc
	closed int
	err    error
}

func (c *closingChecker) Close() error {
	c.closed++
	return c.err
}

func TestRegistryCloseReleasesCheckers(t *testing.T) {
	r := NewRegistry()
	pg := &closingChecker{CheckFunc: NewCheckFunc("postgres", func(context.Context) error { return nil })}
	broken := &closingChecker{CheckFunc: NewCheckFunc("postgres", func(context.Context) error { return nil }), err: errors.New("already closed")}
	r.Register("database", pg)
	r.Register("replica", broken)
	r.Register("drafts", NewCheckFunc("memory", func(context.Context) error { return nil }))

	err := r.Close()
	assert.ErrorContains(t, err, "replica")
	assert.Equal(t, 1, pg.closed)
	assert.Equal(t, 1, broken.closed)
}
