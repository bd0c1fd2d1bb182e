package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/nutrify/internal/store"
)

func signed(t *testing.T, c Claims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

func testRepo(t *testing.T) store.CredentialRepo {
	t.Helper()
	s, err := store.Open("file::memory:?cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s.CredentialRepo()
}

func TestProviderNotLoggedIn(t *testing.T) {
	p := NewProvider(testRepo(t))
	_, err := p.Token(context.Background())
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestProviderReturnsValidToken(t *testing.T) {
	repo := testRepo(t)
	tok := signed(t, Claims{
		UserID: "u-42", Email: "coach@example.com", Role: "coach",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	require.NoError(t, repo.Save(context.Background(), tok))

	p := NewProvider(repo)
	got, err := p.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, tok, got)

	c, err := p.Claims(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u-42", c.User())
	assert.Equal(t, "coach", c.Role)
}

func TestProviderExpiredToken(t *testing.T) {
	repo := testRepo(t)
	exp := time.Now().Add(time.Hour)
	tok := signed(t, Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject: "u-1", ExpiresAt: jwt.NewNumericDate(exp),
	}})
	require.NoError(t, repo.Save(context.Background(), tok))

	p := NewProvider(repo)
	p.now = func() time.Time { return exp.Add(time.Second) }

	_, err := p.Token(context.Background())
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestProviderOpaqueToken(t *testing.T) {
	repo := testRepo(t)
	require.NoError(t, repo.Save(context.Background(), "opaque-api-key"))

	got, err := NewProvider(repo).Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "opaque-api-key", got)
}

type fakeLogin struct {
	token string
	err   error
}

func (f fakeLogin) Login(context.Context, string, string) (string, error) { return f.token, f.err }

func TestLoginStoresToken(t *testing.T) {
	repo := testRepo(t)
	tok := signed(t, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u-7"}})

	c, err := Login(context.Background(), fakeLogin{token: tok}, repo, "a@b.c", "pw")
	require.NoError(t, err)
	assert.Equal(t, "u-7", c.User())

	stored, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, tok, stored)

	require.NoError(t, Logout(context.Background(), repo))
	_, err = NewProvider(repo).Token(context.Background())
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestLoginFailureStoresNothing(t *testing.T) {
	repo := testRepo(t)
	_, err := Login(context.Background(), fakeLogin{err: errors.New("bad password")}, repo, "a@b.c", "x")
	require.Error(t, err)

	_, err = repo.Load(context.Background())
	assert.ErrorIs(t, err, store.ErrNoCredentials)
}

func TestSaveTokenRejectsExpired(t *testing.T) {
	repo := testRepo(t)
	tok := signed(t, Claims{RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}})

	_, err := SaveToken(context.Background(), repo, "Bearer "+tok)
	assert.ErrorIs(t, err, ErrTokenExpired)

	_, err = SaveToken(context.Background(), repo, "   ")
	assert.Error(t, err)
}
