package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keuin/daigunyun/internal/config"
)

// fakeSource implements Source without any backing store.
type fakeSource struct {
	name   string
	fields []string
}

func (f *fakeSource) Name() string       { return f.name }
func (f *fakeSource) FieldIDs() []string { return f.fields }
func (f *fakeSource) Lookup(ctx context.Context, field, value string) (map[string][]string, error) {
	return nil, nil
}

func TestNewIndexesByField(t *testing.T) {
	fields := []config.Field{
		{ID: "user_id", Distinct: true},
		{ID: "email", Distinct: true},
		{ID: "country"},
	}
	users := &fakeSource{name: "users", fields: []string{"user_id", "email"}}
	accounts := &fakeSource{name: "accounts", fields: []string{"email", "country"}}

	reg, err := New(fields, []Source{users, accounts})
	require.NoError(t, err)

	sources, ok := reg.RelationsFor("email")
	require.True(t, ok)
	require.Len(t, sources, 2)
	// Declaration order is preserved
	assert.Equal(t, "users", sources[0].Name())
	assert.Equal(t, "accounts", sources[1].Name())

	sources, ok = reg.RelationsFor("country")
	require.True(t, ok)
	require.Len(t, sources, 1)
	assert.Equal(t, "accounts", sources[0].Name())

	_, ok = reg.RelationsFor("phone")
	assert.False(t, ok, "unknown field must not resolve")
}

func TestNewRejectsUndeclaredField(t *testing.T) {
	fields := []config.Field{{ID: "user_id"}}
	src := &fakeSource{name: "users", fields: []string{"user_id", "email"}}

	_, err := New(fields, []Source{src})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `undeclared field "email" used in relation "users"`)
}

func TestNewRejectsDuplicateField(t *testing.T) {
	fields := []config.Field{{ID: "user_id"}, {ID: "user_id"}}

	_, err := New(fields, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate field "user_id"`)
}

func TestDistinct(t *testing.T) {
	fields := []config.Field{
		{ID: "user_id", Distinct: true},
		{ID: "country"},
	}
	reg, err := New(fields, nil)
	require.NoError(t, err)

	assert.True(t, reg.Distinct("user_id"))
	assert.False(t, reg.Distinct("country"))
	assert.False(t, reg.Distinct("unknown"))
}

func TestFieldIDsOrder(t *testing.T) {
	fields := []config.Field{
		{ID: "user_id"}, {ID: "email"}, {ID: "country"},
	}
	users := &fakeSource{name: "users", fields: []string{"user_id", "email"}}
	accounts := &fakeSource{name: "accounts", fields: []string{"email", "country"}}

	reg, err := New(fields, []Source{users, accounts})
	require.NoError(t, err)

	assert.Equal(t, []string{"user_id", "email", "country"}, reg.FieldIDs())
	assert.Equal(t, 3, reg.NumFields())
}
