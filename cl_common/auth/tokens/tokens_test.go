/*
 * COPYRIGHT 2020 Brightgate Inc.  All rights reserved.
 *
 * This copyright notice is Copyright Management Information under 17 USC 1202
 * and is included to protect this work and deter copyright infringement.
 * Removal or alteration of this Copyright Management Information without the
 * express written permission of Brightgate Inc is prohibited, and any
 * such unauthorized removal or alteration will be a violation of federal law.
 */

package tokens

import (
	"encoding/base64"
	"io/ioutil"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"redsafe/cloud_rpc"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempSecretPath(t *testing.T) (string, func()) {
	dir, err := ioutil.TempDir("", "tokens-test")
	require.NoError(t, err)
	return filepath.Join(dir, "secret"), func() { os.RemoveAll(dir) }
}

func newTestIssuer(t *testing.T) *Issuer {
	path, cleanup := tempSecretPath(t)
	defer cleanup()
	secret, err := LoadOrCreateSecret(path)
	require.NoError(t, err)
	issuer, err := NewIssuer(secret)
	require.NoError(t, err)
	return issuer
}

func TestSecretCreatedOnceAndReused(t *testing.T) {
	path, cleanup := tempSecretPath(t)
	defer cleanup()

	first, err := LoadOrCreateSecret(path)
	require.NoError(t, err)
	assert.Len(t, first, 32)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	raw, err := ioutil.ReadFile(path)
	require.NoError(t, err)
	decoded, err := base64.RawURLEncoding.DecodeString(
		string(raw[:len(raw)-1]))
	require.NoError(t, err)
	assert.Equal(t, first, decoded)

	second, err := LoadOrCreateSecret(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSecretRejectsCorruptFile(t *testing.T) {
	path, cleanup := tempSecretPath(t)
	defer cleanup()
	require.NoError(t, ioutil.WriteFile(path, []byte("@@@@\n"), 0600))
	_, err := LoadOrCreateSecret(path)
	assert.Error(t, err)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	issuer := newTestIssuer(t)

	token, err := issuer.NewAccessToken("user-42", time.Now())
	require.NoError(t, err)

	code, userID := issuer.Decode(token)
	assert.Equal(t, DecodeOK, code)
	assert.Equal(t, "user-42", userID)
}

func TestAccessTokenSubjectIsOpaque(t *testing.T) {
	issuer := newTestIssuer(t)

	token, err := issuer.NewAccessToken("user-42", time.Now())
	require.NoError(t, err)

	parser := &jwt.Parser{}
	claims := &jwt.StandardClaims{}
	_, _, err = parser.ParseUnverified(token, claims)
	require.NoError(t, err)
	assert.NotContains(t, claims.Subject, "user-42")
	assert.Equal(t, "RED-Safe", claims.Issuer)
}

func TestDecodeExpired(t *testing.T) {
	issuer := newTestIssuer(t)

	token, err := issuer.NewAccessToken("user-42", time.Now().Add(-time.Hour))
	require.NoError(t, err)

	code, userID := issuer.Decode(token)
	assert.Equal(t, DecodeExpired, code)
	assert.Empty(t, userID)
}

func TestDecodeBadSignature(t *testing.T) {
	token, err := newTestIssuer(t).NewAccessToken("user-42", time.Now())
	require.NoError(t, err)

	code, _ := newTestIssuer(t).Decode(token)
	assert.Equal(t, DecodeBadSignature, code)
}

func TestDecodeMalformed(t *testing.T) {
	code, _ := newTestIssuer(t).Decode("not-a-jwt")
	assert.Equal(t, DecodeMalformed, code)
}

func TestDecodeRejectsForeignIssuer(t *testing.T) {
	issuer := newTestIssuer(t)

	claims := &jwt.StandardClaims{
		Issuer:    "somebody-else",
		Subject:   "whatever",
		IssuedAt:  time.Now().Unix(),
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString(issuer.secret)
	require.NoError(t, err)

	code, _ := issuer.Decode(signed)
	assert.Equal(t, DecodeInvalid, code)
}

func TestDecodeRejectsUndecryptableSubject(t *testing.T) {
	issuer := newTestIssuer(t)

	claims := &jwt.StandardClaims{
		Issuer:    "RED-Safe",
		Subject:   base64.RawURLEncoding.EncodeToString([]byte("plain")),
		IssuedAt:  time.Now().Unix(),
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString(issuer.secret)
	require.NoError(t, err)

	code, _ := issuer.Decode(signed)
	assert.Equal(t, DecodeInvalid, code)
}

func TestRefreshTokenShape(t *testing.T) {
	token, hash, err := NewRefreshToken()
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{64}$`), token)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{64}$`), hash)
	assert.Equal(t, hash, HashRefreshToken(token))
	assert.NotEqual(t, token, hash)
}

func TestRefreshTokensAreUnique(t *testing.T) {
	t1, _, err := NewRefreshToken()
	require.NoError(t, err)
	t2, _, err := NewRefreshToken()
	require.NoError(t, err)
	assert.NotEqual(t, t1, t2)
}

func TestDecodeCodesMatchWire(t *testing.T) {
	// The numeric values are a wire contract with the iOS clients;
	// they must track the UserAuthService constants exactly.
	assert.Equal(t, cloud_rpc.DecodeOK, DecodeOK)
	assert.Equal(t, cloud_rpc.DecodeExpired, DecodeExpired)
	assert.Equal(t, cloud_rpc.DecodeInvalid, DecodeInvalid)
	assert.Equal(t, cloud_rpc.DecodeBadSignature, DecodeBadSignature)
	assert.Equal(t, cloud_rpc.DecodeMalformed, DecodeMalformed)
	assert.Equal(t, cloud_rpc.DecodeInternal, DecodeInternal)
	assert.Equal(t, 0, DecodeOK)
	assert.Equal(t, 5, DecodeInternal)
}
