/*
 * COPYRIGHT 2020 Brightgate Inc.  All rights reserved.
 *
 * This copyright notice is Copyright Management Information under 17 USC 1202
 * and is included to protect this work and deter copyright infringement.
 * Removal or alteration of this Copyright Management Information without the
 * express written permission of Brightgate Inc is prohibited, and any
 * such unauthorized removal or alteration will be a violation of federal law.
 */

package restapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestWrapRendersEnvelope(t *testing.T) {
	c, rec := testContext(http.MethodGet, "/user/all", "")

	h := Wrap(func(echo.Context) *Result {
		return OK(map[string]interface{}{"user_name": "alice"})
	})
	require.NoError(t, h(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, CodeSuccess, body["error_code"])
	assert.Equal(t, "alice", body["user_name"])
}

func TestWrapSetsRefreshCookie(t *testing.T) {
	c, rec := testContext(http.MethodPost, "/user/signin", "")
	token := strings.Repeat("ab", 32)

	h := Wrap(func(echo.Context) *Result {
		r := OK(map[string]interface{}{"access_token": "jwt"})
		r.RefreshToken = token
		return r
	})
	require.NoError(t, h(c))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	ck := cookies[0]
	assert.Equal(t, "refresh_token", ck.Name)
	assert.Equal(t, token, ck.Value)
	assert.Equal(t, "/auth", ck.Path)
	assert.Equal(t, 2592000, ck.MaxAge)
	assert.True(t, ck.HttpOnly)
	assert.True(t, ck.Secure)
	assert.Equal(t, http.SameSiteStrictMode, ck.SameSite)
}

func TestWrapErrorHasNoCookie(t *testing.T) {
	c, rec := testContext(http.MethodPost, "/auth/refresh", "")

	h := Wrap(func(echo.Context) *Result {
		return Fail(http.StatusUnauthorized, CodeRefreshTokenExpired)
	})
	require.NoError(t, h(c))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, CodeRefreshTokenExpired, body["error_code"])
}

func TestNotFoundHandler(t *testing.T) {
	c, rec := testContext(http.MethodGet, "/nonesuch", "")
	require.NoError(t, NotFoundHandler(c))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, CodeUnknownEndpoint, body["error_code"])
}

func TestBindJSONFailure(t *testing.T) {
	c, _ := testContext(http.MethodPost, "/user/signup", `{"email":`)

	var v struct {
		Email string `json:"email"`
	}
	r := BindJSON(c, &v)
	require.NotNil(t, r)
	assert.Equal(t, http.StatusBadRequest, r.StatusCode)
	assert.Equal(t, CodeInvalidJSON, r.ErrorCode)
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header string
		want   string
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi"},
		{"  Bearer abc.def.ghi  ", "abc.def.ghi"},
		{"Basic dXNlcjpwYXNz", ""},
		{"abc.def.ghi", ""},
		{"", ""},
	}
	for _, tc := range cases {
		c, _ := testContext(http.MethodGet, "/user/all", "")
		if tc.header != "" {
			c.Request().Header.Set(echo.HeaderAuthorization, tc.header)
		}
		assert.Equal(t, tc.want, BearerToken(c), "header %q", tc.header)
	}
}

func TestRefreshTokenCookie(t *testing.T) {
	valid := strings.Repeat("0f", 32)
	cases := []struct {
		value string
		want  string
	}{
		{valid, valid},
		{strings.ToUpper(valid), ""},
		{"deadbeef", ""},
		{"", ""},
	}
	for _, tc := range cases {
		c, _ := testContext(http.MethodPost, "/auth/refresh", "")
		if tc.value != "" {
			c.Request().AddCookie(&http.Cookie{
				Name:  "refresh_token",
				Value: tc.value,
			})
		}
		assert.Equal(t, tc.want, RefreshToken(c), "cookie %q", tc.value)
	}
}

func TestValidationPatterns(t *testing.T) {
	assert.True(t, SerialNumberRE.MatchString("RED-0A1B2C3D"))
	assert.False(t, SerialNumberRE.MatchString("RED-0a1b2c3d"))
	assert.False(t, SerialNumberRE.MatchString("RED-0A1B2C3D4"))

	assert.True(t, ApnsTokenRE.MatchString(strings.Repeat("a1", 32)))
	assert.False(t, ApnsTokenRE.MatchString(strings.Repeat("A1", 32)))

	assert.True(t, EmailRE.MatchString("alice@example.com"))
	assert.False(t, EmailRE.MatchString("alice@example"))

	assert.True(t, UserNameRE.MatchString("alice_01"))
	assert.True(t, UserNameRE.MatchString("照護者"))
	assert.False(t, UserNameRE.MatchString("a name"))
	assert.False(t, UserNameRE.MatchString(strings.Repeat("a", 17)))
}
