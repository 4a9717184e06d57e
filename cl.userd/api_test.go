/*
 * COPYRIGHT 2020 Brightgate Inc.  All rights reserved.
 *
 * This copyright notice is Copyright Management Information under 17 USC 1202
 * and is included to protect this work and deter copyright infringement.
 * Removal or alteration of this Copyright Management Information without the
 * express written permission of Brightgate Inc is prohibited, and any
 * such unauthorized removal or alteration will be a violation of federal law.
 */

package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"redsafe/cl_common/auth/tokens"
	"redsafe/cl_common/restapi"
	"redsafe/cloud_models/redsafedb"
	"redsafe/cloud_rpc"
	"redsafe/common/passwords"

	"github.com/labstack/echo"
	"github.com/satori/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	log = zap.NewNop()
	slog = log.Sugar()
}

// fakeDB is a canned-response DataStore for handler tests.
type fakeDB struct {
	redsafedb.DataStore

	account     *redsafedb.UserAccount
	credsErr    error
	registerErr error
	bindErr     error
	unbindErr   error
	edges       []string
	refreshUser uuid.UUID
	refreshErr  error

	registered   *redsafedb.UserAccount
	boundSerial  string
	revokedHash  string
	refreshHash  string
	storedleases []string
}

func (f *fakeDB) RegisterUser(_ context.Context, u *redsafedb.UserAccount) error {
	if f.registerErr != nil {
		return f.registerErr
	}
	u.UserID = uuid.NewV4()
	f.registered = u
	return nil
}

func (f *fakeDB) UserCredentialsByEmail(_ context.Context, email string) (*redsafedb.UserAccount, error) {
	if f.credsErr != nil {
		return nil, f.credsErr
	}
	return f.account, nil
}

func (f *fakeDB) UserNameEmailByID(_ context.Context, id uuid.UUID) (*redsafedb.UserAccount, error) {
	if f.account == nil || f.account.UserID != id {
		return nil, redsafedb.NotFoundError{}
	}
	return f.account, nil
}

func (f *fakeDB) EdgesByUser(_ context.Context, _ uuid.UUID) ([]string, error) {
	return f.edges, nil
}

func (f *fakeDB) RegisterRefreshToken(_ context.Context, hash string,
	_ uuid.UUID, _ time.Time) error {
	f.storedleases = append(f.storedleases, hash)
	return nil
}

func (f *fakeDB) CheckRefreshToken(_ context.Context, hash string) (uuid.UUID, error) {
	f.refreshHash = hash
	if f.refreshErr != nil {
		return uuid.Nil, f.refreshErr
	}
	return f.refreshUser, nil
}

func (f *fakeDB) RevokeRefreshToken(_ context.Context, hash string) error {
	f.revokedHash = hash
	return nil
}

func (f *fakeDB) BindEdge(_ context.Context, _ uuid.UUID, serial string) error {
	if f.bindErr != nil {
		return f.bindErr
	}
	f.boundSerial = serial
	return nil
}

func (f *fakeDB) UnbindEdge(_ context.Context, _ uuid.UUID, serial string) error {
	return f.unbindErr
}

func newAPI(t *testing.T, db *fakeDB) *apiHandler {
	secret := make([]byte, 32)
	issuer, err := tokens.NewIssuer(secret)
	require.NoError(t, err)
	return &apiHandler{db: db, issuer: issuer, now: time.Now}
}

func request(method, target, body string) echo.Context {
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	return e.NewContext(req, httptest.NewRecorder())
}

func bearer(c echo.Context, token string) echo.Context {
	c.Request().Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	return c
}

func TestUserSignup(t *testing.T) {
	db := &fakeDB{}
	api := newAPI(t, db)

	r := api.userSignup(request(http.MethodPost, "/user/signup",
		`{"email":"alice@example.com","user_name":"alice","password":"Passw0rd"}`))
	require.Equal(t, http.StatusOK, r.StatusCode)
	assert.Equal(t, restapi.CodeSuccess, r.ErrorCode)
	assert.NotEmpty(t, r.Body["user_id"])

	require.NotNil(t, db.registered)
	assert.Equal(t, "alice@example.com", db.registered.Email)
	assert.True(t, passwords.VerifyPassword(db.registered.PwdHash, "Passw0rd"))
}

func TestUserSignupValidation(t *testing.T) {
	api := newAPI(t, &fakeDB{})

	cases := []struct {
		name string
		body string
		code int
	}{
		{"missing fields", `{"email":"a@b.co"}`,
			restapi.CodeMissingSignupFields},
		{"bad email", `{"email":"nope","user_name":"alice","password":"Passw0rd"}`,
			restapi.CodeInvalidEmailFormat},
		{"bad username", `{"email":"a@b.co","user_name":"has space","password":"Passw0rd"}`,
			restapi.CodeInvalidUserNameFormat},
		{"weak password", `{"email":"a@b.co","user_name":"alice","password":"password"}`,
			restapi.CodeInvalidPasswordFormat},
	}
	for _, tc := range cases {
		r := api.userSignup(request(http.MethodPost, "/user/signup", tc.body))
		assert.Equal(t, http.StatusBadRequest, r.StatusCode, tc.name)
		assert.Equal(t, tc.code, r.ErrorCode, tc.name)
	}
}

func TestUserSignupDuplicateEmail(t *testing.T) {
	db := &fakeDB{registerErr: redsafedb.UniqueViolationError{
		Constraint: "user_account_email_key"}}
	api := newAPI(t, db)

	r := api.userSignup(request(http.MethodPost, "/user/signup",
		`{"email":"alice@example.com","user_name":"alice","password":"Passw0rd"}`))
	assert.Equal(t, http.StatusConflict, r.StatusCode)
	assert.Equal(t, restapi.CodeEmailAlreadyRegistered, r.ErrorCode)
}

func signinAccount(t *testing.T) *redsafedb.UserAccount {
	hash, err := passwords.HashPassword("Passw0rd")
	require.NoError(t, err)
	return &redsafedb.UserAccount{
		UserID:   uuid.NewV4(),
		Email:    "alice@example.com",
		UserName: "alice",
		PwdHash:  hash,
	}
}

func TestUserSignin(t *testing.T) {
	account := signinAccount(t)
	db := &fakeDB{account: account, edges: []string{"RED-0A1B2C3D"}}
	api := newAPI(t, db)

	r := api.userSignin(request(http.MethodPost, "/user/signin",
		`{"email":"alice@example.com","password":"Passw0rd"}`))
	require.Equal(t, http.StatusOK, r.StatusCode)

	code, userID := api.issuer.Decode(r.Body["access_token"].(string))
	assert.Equal(t, tokens.DecodeOK, code)
	assert.Equal(t, account.UserID.String(), userID)

	assert.Equal(t, "alice", r.Body["user_name"])
	assert.Equal(t, []string{"RED-0A1B2C3D"}, r.Body["edge_devices"])

	require.NotEmpty(t, r.RefreshToken)
	require.Len(t, db.storedleases, 1)
	assert.Equal(t, tokens.HashRefreshToken(r.RefreshToken), db.storedleases[0])
}

func TestUserSigninBadCredentials(t *testing.T) {
	account := signinAccount(t)

	r := newAPI(t, &fakeDB{account: account}).userSignin(request(
		http.MethodPost, "/user/signin",
		`{"email":"alice@example.com","password":"WrongPwd1"}`))
	assert.Equal(t, http.StatusBadRequest, r.StatusCode)
	assert.Equal(t, restapi.CodeEmailOrPasswordError, r.ErrorCode)

	r = newAPI(t, &fakeDB{credsErr: redsafedb.NotFoundError{}}).userSignin(
		request(http.MethodPost, "/user/signin",
			`{"email":"bob@example.com","password":"Passw0rd"}`))
	assert.Equal(t, http.StatusBadRequest, r.StatusCode)
	assert.Equal(t, restapi.CodeEmailOrPasswordError, r.ErrorCode)
}

func TestUserSigninMissingFields(t *testing.T) {
	r := newAPI(t, &fakeDB{}).userSignin(request(http.MethodPost,
		"/user/signin", `{"email":"alice@example.com"}`))
	assert.Equal(t, http.StatusBadRequest, r.StatusCode)
	assert.Equal(t, restapi.CodeMissingEmailOrPassword, r.ErrorCode)
}

func TestUserAll(t *testing.T) {
	account := signinAccount(t)
	db := &fakeDB{account: account, edges: []string{"RED-0A1B2C3D"}}
	api := newAPI(t, db)

	token, err := api.issuer.NewAccessToken(account.UserID.String(), time.Now())
	require.NoError(t, err)

	r := api.userAll(bearer(request(http.MethodGet, "/user/all", ""), token))
	require.Equal(t, http.StatusOK, r.StatusCode)
	assert.Equal(t, "alice", r.Body["user_name"])
	assert.Equal(t, "alice@example.com", r.Body["email"])
	assert.Equal(t, []string{"RED-0A1B2C3D"}, r.Body["edge_devices"])
}

func TestUserAllTokenFailures(t *testing.T) {
	api := newAPI(t, &fakeDB{})

	r := api.userAll(request(http.MethodGet, "/user/all", ""))
	assert.Equal(t, http.StatusBadRequest, r.StatusCode)
	assert.Equal(t, restapi.CodeMissingAccessToken, r.ErrorCode)

	expired, err := api.issuer.NewAccessToken(uuid.NewV4().String(),
		time.Now().Add(-time.Hour))
	require.NoError(t, err)
	r = api.userAll(bearer(request(http.MethodGet, "/user/all", ""), expired))
	assert.Equal(t, http.StatusUnauthorized, r.StatusCode)
	assert.Equal(t, restapi.CodeAccessTokenExpired, r.ErrorCode)

	r = api.userAll(bearer(request(http.MethodGet, "/user/all", ""), "junk"))
	assert.Equal(t, http.StatusBadRequest, r.StatusCode)
	assert.Equal(t, restapi.CodeJWTInvalidToken, r.ErrorCode)
}

func withRefreshCookie(c echo.Context, token string) echo.Context {
	c.Request().AddCookie(&http.Cookie{Name: "refresh_token", Value: token})
	return c
}

func TestAuthRefresh(t *testing.T) {
	userID := uuid.NewV4()
	db := &fakeDB{refreshUser: userID}
	api := newAPI(t, db)

	token, _, err := tokens.NewRefreshToken()
	require.NoError(t, err)

	r := api.authRefresh(withRefreshCookie(request(http.MethodPost,
		"/auth/refresh", ""), token))
	require.Equal(t, http.StatusOK, r.StatusCode)
	assert.Equal(t, tokens.HashRefreshToken(token), db.refreshHash)

	code, decoded := api.issuer.Decode(r.Body["access_token"].(string))
	assert.Equal(t, tokens.DecodeOK, code)
	assert.Equal(t, userID.String(), decoded)
}

func TestAuthRefreshExpired(t *testing.T) {
	api := newAPI(t, &fakeDB{refreshErr: redsafedb.NotFoundError{}})

	token, _, err := tokens.NewRefreshToken()
	require.NoError(t, err)

	r := api.authRefresh(withRefreshCookie(request(http.MethodPost,
		"/auth/refresh", ""), token))
	assert.Equal(t, http.StatusUnauthorized, r.StatusCode)
	assert.Equal(t, restapi.CodeRefreshTokenExpired, r.ErrorCode)
}

func TestAuthRefreshMissingCookie(t *testing.T) {
	r := newAPI(t, &fakeDB{}).authRefresh(request(http.MethodPost,
		"/auth/refresh", ""))
	assert.Equal(t, http.StatusBadRequest, r.StatusCode)
	assert.Equal(t, restapi.CodeMissingRefreshToken, r.ErrorCode)
}

func TestAuthOut(t *testing.T) {
	db := &fakeDB{}
	api := newAPI(t, db)

	token, _, err := tokens.NewRefreshToken()
	require.NoError(t, err)

	r := api.authOut(withRefreshCookie(request(http.MethodPost,
		"/auth/out", ""), token))
	assert.Equal(t, http.StatusOK, r.StatusCode)
	assert.Equal(t, tokens.HashRefreshToken(token), db.revokedHash)
}

func TestIosBind(t *testing.T) {
	userID := uuid.NewV4()
	db := &fakeDB{}
	api := newAPI(t, db)

	token, err := api.issuer.NewAccessToken(userID.String(), time.Now())
	require.NoError(t, err)

	r := api.iosBind(bearer(request(http.MethodPost, "/ios/bind",
		`{"serial_number":"RED-0A1B2C3D"}`), token))
	require.Equal(t, http.StatusOK, r.StatusCode)
	assert.Equal(t, "RED-0A1B2C3D", db.boundSerial)
}

func TestIosBindFailures(t *testing.T) {
	userID := uuid.NewV4()
	api := newAPI(t, &fakeDB{bindErr: redsafedb.UniqueViolationError{}})
	token, err := api.issuer.NewAccessToken(userID.String(), time.Now())
	require.NoError(t, err)

	r := api.iosBind(bearer(request(http.MethodPost, "/ios/bind",
		`{"serial_number":"RED-0A1B2C3D"}`), token))
	assert.Equal(t, http.StatusConflict, r.StatusCode)
	assert.Equal(t, restapi.CodeBindingAlreadyExists, r.ErrorCode)

	r = api.iosBind(bearer(request(http.MethodPost, "/ios/bind",
		`{"serial_number":"red-bad"}`), token))
	assert.Equal(t, http.StatusBadRequest, r.StatusCode)
	assert.Equal(t, restapi.CodeInvalidSerialNumberFormat, r.ErrorCode)

	r = api.iosBind(request(http.MethodPost, "/ios/bind",
		`{"serial_number":"RED-0A1B2C3D"}`))
	assert.Equal(t, http.StatusBadRequest, r.StatusCode)
	assert.Equal(t, restapi.CodeMissingAccessToken, r.ErrorCode)
}

func TestIosUnbindIdempotent(t *testing.T) {
	api := newAPI(t, &fakeDB{})
	token, err := api.issuer.NewAccessToken(uuid.NewV4().String(), time.Now())
	require.NoError(t, err)

	r := api.iosUnbind(bearer(request(http.MethodPost, "/ios/unbind",
		`{"serial_number":"RED-0A1B2C3D"}`), token))
	assert.Equal(t, http.StatusOK, r.StatusCode)
	assert.Equal(t, restapi.CodeSuccess, r.ErrorCode)
}

func TestAuthServerDecode(t *testing.T) {
	api := newAPI(t, &fakeDB{})
	srv := &authServer{issuer: api.issuer}
	userID := uuid.NewV4()

	token, err := api.issuer.NewAccessToken(userID.String(), time.Now())
	require.NoError(t, err)

	resp, err := srv.DecodeAccessToken(context.Background(),
		&cloud_rpc.DecodeAccessTokenRequest{AccessToken: token})
	require.NoError(t, err)
	assert.EqualValues(t, cloud_rpc.DecodeOK, resp.Code)
	assert.Equal(t, userID.String(), resp.UserId)
	assert.Empty(t, resp.ErrorMessage)

	resp, err = srv.DecodeAccessToken(context.Background(),
		&cloud_rpc.DecodeAccessTokenRequest{AccessToken: "junk"})
	require.NoError(t, err)
	assert.EqualValues(t, cloud_rpc.DecodeMalformed, resp.Code)
	assert.NotEmpty(t, resp.ErrorMessage)
}
