package mcpauth

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/edgemcp/pkg/kvstore"
)

func openTestKV(t *testing.T) kvstore.KVStore {
	t.Helper()
	store, err := kvstore.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestInit_OpenByDefault(t *testing.T) {
	m := New(nil, true)
	require.NoError(t, m.Init(context.Background(), true))
	assert.False(t, m.IsRequired())
	assert.True(t, m.Validate(MethodNone, ""))
}

func TestInit_ClosedByDefault(t *testing.T) {
	m := New(nil, true)
	require.NoError(t, m.Init(context.Background(), false))
	assert.False(t, m.IsRequired())
}

func TestSetAndValidate_TokenMethod(t *testing.T) {
	m := New(nil, true)
	require.NoError(t, m.Init(context.Background(), true))
	require.NoError(t, m.Set(context.Background(), "apikey", "secret123", false))

	assert.True(t, m.IsRequired())
	assert.True(t, m.Validate("apikey", "secret123"))
	assert.False(t, m.Validate("apikey", "wrong"))
	assert.False(t, m.Validate("other", "secret123"))
}

func TestValidate_NoneCallerStrictVsPermissive(t *testing.T) {
	strict := New(nil, true)
	require.NoError(t, strict.Init(context.Background(), true))
	require.NoError(t, strict.Set(context.Background(), "apikey", "secret123", false))
	assert.False(t, strict.Validate(MethodNone, ""))

	permissive := New(nil, false)
	require.NoError(t, permissive.Init(context.Background(), true))
	require.NoError(t, permissive.Set(context.Background(), "apikey", "secret123", false))
	assert.True(t, permissive.Validate(MethodNone, ""))
}

func TestClear_ResetsToOpen(t *testing.T) {
	m := New(nil, true)
	require.NoError(t, m.Init(context.Background(), true))
	require.NoError(t, m.Set(context.Background(), "apikey", "secret123", false))
	require.NoError(t, m.Clear(context.Background()))

	assert.False(t, m.IsRequired())
	assert.True(t, m.Validate(MethodNone, ""))
}

func TestPersistence_SurvivesRestart(t *testing.T) {
	kv := openTestKV(t)

	m1 := New(kv, true)
	require.NoError(t, m1.Init(context.Background(), true))
	require.NoError(t, m1.Set(context.Background(), "apikey", "secret123", true))

	m2 := New(kv, true)
	require.NoError(t, m2.Init(context.Background(), true))

	assert.True(t, m2.IsRequired())
	assert.True(t, m2.Validate("apikey", "secret123"))
}

func TestValidate_JWTMethod(t *testing.T) {
	m := New(nil, true)
	require.NoError(t, m.Init(context.Background(), true))

	claims := jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte("unused-signing-key"))
	require.NoError(t, err)

	require.NoError(t, m.Set(context.Background(), MethodJWT, signed, false))
	assert.True(t, m.Validate(MethodJWT, signed))

	expiredClaims := jwt.MapClaims{"exp": time.Now().Add(-time.Hour).Unix()}
	expiredTok := jwt.NewWithClaims(jwt.SigningMethodHS256, expiredClaims)
	expiredSigned, err := expiredTok.SignedString([]byte("unused-signing-key"))
	require.NoError(t, err)
	require.NoError(t, m.Set(context.Background(), MethodJWT, expiredSigned, false))
	assert.False(t, m.Validate(MethodJWT, expiredSigned))
}

func TestSet_RequiresTokenForNonNoneMethod(t *testing.T) {
	m := New(nil, true)
	require.NoError(t, m.Init(context.Background(), true))

	err := m.Set(context.Background(), "apikey", "", false)
	assert.Error(t, err)
}
