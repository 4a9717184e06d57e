/*
 * COPYRIGHT 2020 Brightgate Inc.  All rights reserved.
 *
 * This copyright notice is Copyright Management Information under 17 USC 1202
 * and is included to protect this work and deter copyright infringement.
 * Removal or alteration of this Copyright Management Information without the
 * express written permission of Brightgate Inc is prohibited, and any
 * such unauthorized removal or alteration will be a violation of federal law.
 */

// Package restapi carries the HTTP envelope shared by the cloud
// daemons: handler results, the wire-stable error-code table, request
// validation, and the refresh-token cookie contract.
package restapi

import (
	"net/http"
	"regexp"
	"strings"

	"redsafe/base_def"

	"github.com/labstack/echo"
)

// Wire-stable error codes.  These values appear in client-facing JSON
// and must never be renumbered.
const (
	CodeSuccess                   = 0
	CodeUnknownEndpoint           = 99
	CodeInvalidJSON               = 100
	CodeInvalidSerialNumberFormat = 101
	CodeInvalidApnsTokenFormat    = 102
	CodeInvalidEmailFormat        = 103
	CodeInvalidUserNameFormat     = 104
	CodeInvalidPasswordFormat     = 105
	CodeEmailOrPasswordError      = 201
	CodeEdgeAlreadyRegistered     = 301
	CodeEmailAlreadyRegistered    = 302
	CodeBindingAlreadyExists      = 303
	CodeMissingSerialOrVersion    = 401
	CodeMissingSignupFields       = 402
	CodeMissingEmailOrPassword    = 403
	CodeMissingUserIDOrApnsToken  = 404
	CodeMissingSerialNumber       = 405
	CodeMissingRefreshToken       = 406
	CodeMissingAccessToken        = 407
	CodeInternalServerError       = 500
	CodeRefreshTokenExpired       = 501
	CodeRefreshTokenInvalid       = 502
	CodeAccessTokenExpired        = 503
	CodeAccessTokenInvalid        = 504
	CodeJWTInvalidSignature       = 505
	CodeJWTInvalidToken           = 506
)

// Validation patterns.  These are the authoritative client-input
// formats; handlers reject anything they do not match.
var (
	SerialNumberRE = regexp.MustCompile(`^RED-[0-9A-F]{8}$`)
	ApnsTokenRE    = regexp.MustCompile(`^[0-9a-f]{64}$`)
	EmailRE        = regexp.MustCompile(
		`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	UserNameRE = regexp.MustCompile(
		`^[A-Za-z0-9\x{4E00}-\x{9FFF}\-_\.]{1,16}$`)

	refreshTokenRE = regexp.MustCompile(`^[0-9a-f]{64}$`)
)

// Result is what an endpoint handler produces; the echo adapter turns
// it into the response envelope.
type Result struct {
	StatusCode   int
	ErrorCode    int
	Body         map[string]interface{}
	RefreshToken string
}

// OK builds a 200 result with the given body fields.
func OK(body map[string]interface{}) *Result {
	return &Result{StatusCode: http.StatusOK, ErrorCode: CodeSuccess,
		Body: body}
}

// Fail builds an error result with no body beyond the error code.
func Fail(status, code int) *Result {
	return &Result{StatusCode: status, ErrorCode: code}
}

// Internal is the catch-all for unexpected server-side failures.
func Internal() *Result {
	return Fail(http.StatusInternalServerError, CodeInternalServerError)
}

// Handler is an endpoint implementation over the parsed request.
type Handler func(c echo.Context) *Result

// Wrap adapts a Handler into an echo route, rendering the envelope and
// attaching the refresh-token cookie when one was issued.
func Wrap(h Handler) echo.HandlerFunc {
	return func(c echo.Context) error {
		r := h(c)
		if r == nil {
			r = Internal()
		}

		if r.RefreshToken != "" {
			c.SetCookie(NewRefreshCookie(r.RefreshToken))
		}

		body := make(map[string]interface{}, len(r.Body)+1)
		for k, v := range r.Body {
			body[k] = v
		}
		body["error_code"] = r.ErrorCode
		return c.JSON(r.StatusCode, body)
	}
}

// NotFoundHandler renders the unknown-endpoint envelope for any
// unrouted method/path pair.
func NotFoundHandler(c echo.Context) error {
	return c.JSON(http.StatusNotFound, map[string]interface{}{
		"error_code": CodeUnknownEndpoint,
	})
}

// BindJSON parses the request body into v; a nil return means success.
func BindJSON(c echo.Context, v interface{}) *Result {
	if err := c.Bind(v); err != nil {
		return Fail(http.StatusBadRequest, CodeInvalidJSON)
	}
	return nil
}

// BearerToken extracts the access token from the Authorization header.
// Anything other than a Bearer credential yields "".
func BearerToken(c echo.Context) string {
	auth := strings.TrimSpace(c.Request().Header.Get(echo.HeaderAuthorization))
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(auth[len("Bearer "):])
}

// RefreshToken extracts the refresh_token cookie value.  Values that do
// not look like a refresh token are treated as absent.
func RefreshToken(c echo.Context) string {
	cookie, err := c.Cookie(base_def.REFRESH_TOKEN_COOKIE)
	if err != nil || !refreshTokenRE.MatchString(cookie.Value) {
		return ""
	}
	return cookie.Value
}

// NewRefreshCookie renders the Set-Cookie attributes the refresh token
// contract requires.
func NewRefreshCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     base_def.REFRESH_TOKEN_COOKIE,
		Value:    token,
		Path:     "/auth",
		MaxAge:   int(base_def.REFRESH_TOKEN_TTL.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}
}
