package tokenizer_test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"
	"time"

	"github.com/layer-3/dapptober/adapters/tokenizer"
	"github.com/layer-3/dapptober/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	return key
}

func testSession(now time.Time) *core.Session {
	return &core.Session{
		ID:            "session-1",
		Address:       "0xabcdef0123456789abcdef0123456789abcdef01",
		IssuedAt:      now,
		AccessExpiry:  now.Add(time.Hour),
		RefreshExpiry: now.Add(7 * 24 * time.Hour),
		RefreshID:     "refresh-1",
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	tk := tokenizer.NewJWTTokenizer(newKey(t))
	now := time.Now().Truncate(time.Second)
	session := testSession(now)

	token, err := tk.SessionToAccessToken(session)
	require.NoError(t, err)

	got, err := tk.AccessTokenToSession(token)
	require.NoError(t, err)
	assert.Equal(t, session.ID, got.ID)
	assert.Equal(t, session.Address, got.Address)
	assert.Equal(t, session.RefreshID, got.RefreshID)
	assert.True(t, session.AccessExpiry.Equal(got.AccessExpiry))
}

func TestRefreshTokenCarriesRefreshID(t *testing.T) {
	tk := tokenizer.NewJWTTokenizer(newKey(t))
	session := testSession(time.Now())

	token, err := tk.SessionToRefreshToken(session)
	require.NoError(t, err)

	got, err := tk.RefreshTokenToSession(token)
	require.NoError(t, err)
	assert.Equal(t, "refresh-1", got.RefreshID)
	assert.Equal(t, session.Address, got.Address)
}

func TestAudienceIsEnforced(t *testing.T) {
	tk := tokenizer.NewJWTTokenizer(newKey(t))
	session := testSession(time.Now())

	refresh, err := tk.SessionToRefreshToken(session)
	require.NoError(t, err)

	_, err = tk.AccessTokenToSession(refresh)
	assert.ErrorIs(t, err, core.ErrInvalidToken)
}

func TestForeignKeyIsRejected(t *testing.T) {
	issuer := tokenizer.NewJWTTokenizer(newKey(t))
	other := tokenizer.NewJWTTokenizer(newKey(t))

	token, err := issuer.SessionToAccessToken(testSession(time.Now()))
	require.NoError(t, err)

	_, err = other.AccessTokenToSession(token)
	assert.ErrorIs(t, err, core.ErrInvalidToken)
}

func TestExpiredToken(t *testing.T) {
	tk := tokenizer.NewJWTTokenizer(newKey(t))
	session := testSession(time.Now().Add(-2 * time.Hour))

	token, err := tk.SessionToAccessToken(session)
	require.NoError(t, err)

	_, err = tk.AccessTokenToSession(token)
	assert.ErrorIs(t, err, core.ErrTokenExpired)
}

func TestGarbageToken(t *testing.T) {
	tk := tokenizer.NewJWTTokenizer(newKey(t))
	_, err := tk.RefreshTokenToSession("not-a-jwt")
	assert.ErrorIs(t, err, core.ErrInvalidToken)
}

func TestSubjectMustBeWallet(t *testing.T) {
	tk := tokenizer.NewJWTTokenizer(newKey(t))
	session := testSession(time.Now())
	session.Address = "alice"

	token, err := tk.SessionToAccessToken(session)
	require.NoError(t, err)

	_, err = tk.AccessTokenToSession(token)
	assert.ErrorIs(t, err, core.ErrInvalidToken)
}
