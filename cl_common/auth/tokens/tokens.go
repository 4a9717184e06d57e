/*
 * COPYRIGHT 2020 Brightgate Inc.  All rights reserved.
 *
 * This copyright notice is Copyright Management Information under 17 USC 1202
 * and is included to protect this work and deter copyright infringement.
 * Removal or alteration of this Copyright Management Information without the
 * express written permission of Brightgate Inc is prohibited, and any
 * such unauthorized removal or alteration will be a violation of federal law.
 */

// Package tokens issues and decodes the platform's access and refresh
// tokens.  Access tokens are HS256 JWTs whose subject is the AES-GCM
// encrypted user ID; refresh tokens are opaque random strings of which
// only a SHA-256 digest is ever stored.  Both derive from one 32-byte
// secret persisted beside the daemon.
package tokens

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"time"

	"redsafe/base_def"
	"redsafe/cloud_rpc"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"
)

// Decode result codes, aliased from the UserAuthService wire values so
// the issuer and the RPC surface can never disagree.
const (
	DecodeOK           = cloud_rpc.DecodeOK
	DecodeExpired      = cloud_rpc.DecodeExpired
	DecodeInvalid      = cloud_rpc.DecodeInvalid
	DecodeBadSignature = cloud_rpc.DecodeBadSignature
	DecodeMalformed    = cloud_rpc.DecodeMalformed
	DecodeInternal     = cloud_rpc.DecodeInternal
)

const secretLen = 32

// LoadOrCreateSecret returns the token secret stored at path, creating
// and persisting a fresh one on first use.  The file holds one line of
// URL-safe unpadded base64; it is written atomically with mode 0600 and
// treated as read-only thereafter.
func LoadOrCreateSecret(path string) ([]byte, error) {
	if raw, err := ioutil.ReadFile(path); err == nil {
		secret, derr := base64.RawURLEncoding.DecodeString(
			strings.TrimSpace(string(raw)))
		if derr != nil {
			return nil, errors.Wrapf(derr, "decoding secret %s", path)
		}
		if len(secret) != secretLen {
			return nil, errors.Errorf("secret %s is %d bytes, want %d",
				path, len(secret), secretLen)
		}
		return secret, nil
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "reading secret %s", path)
	}

	secret := make([]byte, secretLen)
	if _, err := rand.Read(secret); err != nil {
		return nil, errors.Wrap(err, "generating secret")
	}

	tmp, err := ioutil.TempFile(filepath.Dir(path), ".secret-*")
	if err != nil {
		return nil, errors.Wrap(err, "creating secret temp file")
	}
	defer os.Remove(tmp.Name())

	line := base64.RawURLEncoding.EncodeToString(secret) + "\n"
	if _, err = tmp.WriteString(line); err != nil {
		tmp.Close()
		return nil, errors.Wrap(err, "writing secret temp file")
	}
	if err = tmp.Close(); err != nil {
		return nil, errors.Wrap(err, "closing secret temp file")
	}
	if err = os.Chmod(tmp.Name(), 0600); err != nil {
		return nil, errors.Wrap(err, "setting secret mode")
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return nil, errors.Wrapf(err, "renaming secret to %s", path)
	}
	return secret, nil
}

// Issuer signs, encrypts and decodes access tokens.
type Issuer struct {
	secret []byte
	aead   cipher.AEAD
}

// NewIssuer builds an Issuer from the 32-byte token secret.
func NewIssuer(secret []byte) (*Issuer, error) {
	if len(secret) != secretLen {
		return nil, errors.Errorf("secret is %d bytes, want %d",
			len(secret), secretLen)
	}
	block, err := aes.NewCipher(secret)
	if err != nil {
		return nil, errors.Wrap(err, "building AES cipher")
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(err, "building GCM")
	}
	return &Issuer{secret: secret, aead: aead}, nil
}

// encryptSubject seals userID into a URL-safe string.
func (i *Issuer) encryptSubject(userID string) (string, error) {
	nonce := make([]byte, i.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", errors.Wrap(err, "generating nonce")
	}
	sealed := i.aead.Seal(nonce, nonce, []byte(userID), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// decryptSubject reverses encryptSubject.
func (i *Issuer) decryptSubject(sub string) (string, error) {
	sealed, err := base64.RawURLEncoding.DecodeString(sub)
	if err != nil {
		return "", errors.Wrap(err, "decoding subject")
	}
	ns := i.aead.NonceSize()
	if len(sealed) < ns {
		return "", errors.New("subject too short")
	}
	plain, err := i.aead.Open(nil, sealed[:ns], sealed[ns:], nil)
	if err != nil {
		return "", errors.Wrap(err, "opening subject")
	}
	return string(plain), nil
}

// NewAccessToken issues a signed access token for userID, valid from
// now for the configured access-token lifetime.
func (i *Issuer) NewAccessToken(userID string, now time.Time) (string, error) {
	sub, err := i.encryptSubject(userID)
	if err != nil {
		return "", err
	}

	claims := &jwt.StandardClaims{
		Issuer:    base_def.ACCESS_TOKEN_ISSUER,
		Subject:   sub,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(base_def.ACCESS_TOKEN_TTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", errors.Wrap(err, "signing access token")
	}
	return signed, nil
}

// Decode validates an access token and recovers its user ID.  The
// returned code is one of the Decode* constants; user ID is non-empty
// only for DecodeOK.
func (i *Issuer) Decode(tokenString string) (int, string) {
	claims := &jwt.StandardClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.Errorf("unexpected signing method %v",
					t.Header["alg"])
			}
			return i.secret, nil
		})

	if err != nil {
		ve, ok := err.(*jwt.ValidationError)
		if !ok {
			return DecodeInternal, ""
		}
		switch {
		case ve.Errors&jwt.ValidationErrorMalformed != 0:
			return DecodeMalformed, ""
		case ve.Errors&jwt.ValidationErrorSignatureInvalid != 0:
			return DecodeBadSignature, ""
		case ve.Errors&jwt.ValidationErrorExpired != 0:
			return DecodeExpired, ""
		default:
			return DecodeInvalid, ""
		}
	}
	if !token.Valid || claims.Issuer != base_def.ACCESS_TOKEN_ISSUER {
		return DecodeInvalid, ""
	}

	userID, err := i.decryptSubject(claims.Subject)
	if err != nil {
		return DecodeInvalid, ""
	}
	return DecodeOK, userID
}

// NewRefreshToken mints an opaque refresh token and the hash under
// which it is persisted.
func NewRefreshToken() (string, string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", "", errors.Wrap(err, "generating refresh token")
	}
	token := hex.EncodeToString(raw)
	return token, HashRefreshToken(token), nil
}

// HashRefreshToken renders the stored form of a refresh token.
func HashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
