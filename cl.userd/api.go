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
	"net/http"
	"time"

	"redsafe/base_def"
	"redsafe/cl_common/auth/tokens"
	"redsafe/cl_common/restapi"
	"redsafe/cloud_models/redsafedb"
	"redsafe/common/passwords"

	"github.com/labstack/echo"
	"github.com/satori/uuid"
)

// apiHandler binds the endpoint handlers to their dependencies.
type apiHandler struct {
	db     redsafedb.DataStore
	issuer *tokens.Issuer
	now    func() time.Time
}

// decodeBearer resolves the request's access token to a user ID; on
// failure the second return carries the client-facing result.
func (a *apiHandler) decodeBearer(c echo.Context) (uuid.UUID, *restapi.Result) {
	raw := restapi.BearerToken(c)
	if raw == "" {
		return uuid.Nil, restapi.Fail(http.StatusBadRequest,
			restapi.CodeMissingAccessToken)
	}

	code, userID := a.issuer.Decode(raw)
	switch code {
	case tokens.DecodeOK:
	case tokens.DecodeExpired:
		return uuid.Nil, restapi.Fail(http.StatusUnauthorized,
			restapi.CodeAccessTokenExpired)
	case tokens.DecodeBadSignature:
		return uuid.Nil, restapi.Fail(http.StatusUnauthorized,
			restapi.CodeJWTInvalidSignature)
	case tokens.DecodeMalformed:
		return uuid.Nil, restapi.Fail(http.StatusBadRequest,
			restapi.CodeJWTInvalidToken)
	case tokens.DecodeInvalid:
		return uuid.Nil, restapi.Fail(http.StatusUnauthorized,
			restapi.CodeAccessTokenInvalid)
	default:
		return uuid.Nil, restapi.Internal()
	}

	id, err := uuid.FromString(userID)
	if err != nil {
		return uuid.Nil, restapi.Fail(http.StatusUnauthorized,
			restapi.CodeAccessTokenInvalid)
	}
	return id, nil
}

func (a *apiHandler) userSignup(c echo.Context) *restapi.Result {
	var req struct {
		Email    string `json:"email"`
		UserName string `json:"user_name"`
		Password string `json:"password"`
	}
	if r := restapi.BindJSON(c, &req); r != nil {
		return r
	}
	if req.Email == "" || req.UserName == "" || req.Password == "" {
		return restapi.Fail(http.StatusBadRequest,
			restapi.CodeMissingSignupFields)
	}
	if !restapi.EmailRE.MatchString(req.Email) {
		return restapi.Fail(http.StatusBadRequest,
			restapi.CodeInvalidEmailFormat)
	}
	if !restapi.UserNameRE.MatchString(req.UserName) {
		return restapi.Fail(http.StatusBadRequest,
			restapi.CodeInvalidUserNameFormat)
	}
	if !passwords.AcceptablePassword(req.Password) {
		return restapi.Fail(http.StatusBadRequest,
			restapi.CodeInvalidPasswordFormat)
	}

	hash, err := passwords.HashPassword(req.Password)
	if err != nil {
		slog.Errorf("hashing password: %v", err)
		return restapi.Internal()
	}

	account := &redsafedb.UserAccount{
		Email:    req.Email,
		UserName: req.UserName,
		PwdHash:  hash,
	}
	err = a.db.RegisterUser(c.Request().Context(), account)
	if _, ok := err.(redsafedb.UniqueViolationError); ok {
		return restapi.Fail(http.StatusConflict,
			restapi.CodeEmailAlreadyRegistered)
	}
	if err != nil {
		slog.Errorf("registering user: %v", err)
		return restapi.Internal()
	}

	return restapi.OK(map[string]interface{}{
		"user_id": account.UserID.String(),
	})
}

func (a *apiHandler) userSignin(c echo.Context) *restapi.Result {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if r := restapi.BindJSON(c, &req); r != nil {
		return r
	}
	if req.Email == "" || req.Password == "" {
		return restapi.Fail(http.StatusBadRequest,
			restapi.CodeMissingEmailOrPassword)
	}

	ctx := c.Request().Context()
	account, err := a.db.UserCredentialsByEmail(ctx, req.Email)
	if _, ok := err.(redsafedb.NotFoundError); ok {
		metrics.authFailures.Inc()
		return restapi.Fail(http.StatusBadRequest,
			restapi.CodeEmailOrPasswordError)
	}
	if err != nil {
		slog.Errorf("fetching credentials: %v", err)
		return restapi.Internal()
	}
	if !passwords.VerifyPassword(account.PwdHash, req.Password) {
		metrics.authFailures.Inc()
		return restapi.Fail(http.StatusBadRequest,
			restapi.CodeEmailOrPasswordError)
	}

	now := a.now()
	accessToken, err := a.issuer.NewAccessToken(account.UserID.String(), now)
	if err != nil {
		slog.Errorf("issuing access token: %v", err)
		return restapi.Internal()
	}
	refreshToken, refreshHash, err := tokens.NewRefreshToken()
	if err != nil {
		slog.Errorf("minting refresh token: %v", err)
		return restapi.Internal()
	}
	err = a.db.RegisterRefreshToken(ctx, refreshHash, account.UserID,
		now.Add(base_def.REFRESH_TOKEN_TTL))
	if err != nil {
		slog.Errorf("storing refresh token: %v", err)
		return restapi.Internal()
	}

	serials, err := a.db.EdgesByUser(ctx, account.UserID)
	if err != nil {
		slog.Errorf("listing edges: %v", err)
		return restapi.Internal()
	}
	if serials == nil {
		serials = []string{}
	}

	metrics.tokensIssued.Inc()
	r := restapi.OK(map[string]interface{}{
		"access_token": accessToken,
		"user_name":    account.UserName,
		"email":        account.Email,
		"edge_devices": serials,
	})
	r.RefreshToken = refreshToken
	return r
}

func (a *apiHandler) userAll(c echo.Context) *restapi.Result {
	userID, fail := a.decodeBearer(c)
	if fail != nil {
		return fail
	}

	ctx := c.Request().Context()
	account, err := a.db.UserNameEmailByID(ctx, userID)
	if _, ok := err.(redsafedb.NotFoundError); ok {
		return restapi.Fail(http.StatusUnauthorized,
			restapi.CodeAccessTokenInvalid)
	}
	if err != nil {
		slog.Errorf("fetching profile: %v", err)
		return restapi.Internal()
	}

	serials, err := a.db.EdgesByUser(ctx, userID)
	if err != nil {
		slog.Errorf("listing edges: %v", err)
		return restapi.Internal()
	}
	if serials == nil {
		serials = []string{}
	}

	return restapi.OK(map[string]interface{}{
		"user_name":    account.UserName,
		"email":        account.Email,
		"edge_devices": serials,
	})
}

func (a *apiHandler) authRefresh(c echo.Context) *restapi.Result {
	token := restapi.RefreshToken(c)
	if token == "" {
		return restapi.Fail(http.StatusBadRequest,
			restapi.CodeMissingRefreshToken)
	}

	userID, err := a.db.CheckRefreshToken(c.Request().Context(),
		tokens.HashRefreshToken(token))
	if _, ok := err.(redsafedb.NotFoundError); ok {
		return restapi.Fail(http.StatusUnauthorized,
			restapi.CodeRefreshTokenExpired)
	}
	if err != nil {
		slog.Errorf("checking refresh token: %v", err)
		return restapi.Internal()
	}

	accessToken, err := a.issuer.NewAccessToken(userID.String(), a.now())
	if err != nil {
		slog.Errorf("issuing access token: %v", err)
		return restapi.Internal()
	}
	metrics.tokensIssued.Inc()
	return restapi.OK(map[string]interface{}{
		"access_token": accessToken,
	})
}

func (a *apiHandler) authOut(c echo.Context) *restapi.Result {
	token := restapi.RefreshToken(c)
	if token == "" {
		return restapi.Fail(http.StatusBadRequest,
			restapi.CodeMissingRefreshToken)
	}

	err := a.db.RevokeRefreshToken(c.Request().Context(),
		tokens.HashRefreshToken(token))
	if err != nil {
		slog.Errorf("revoking refresh token: %v", err)
		return restapi.Internal()
	}
	return restapi.OK(nil)
}

func (a *apiHandler) iosBind(c echo.Context) *restapi.Result {
	userID, fail := a.decodeBearer(c)
	if fail != nil {
		return fail
	}

	var req struct {
		SerialNumber string `json:"serial_number"`
	}
	if r := restapi.BindJSON(c, &req); r != nil {
		return r
	}
	if req.SerialNumber == "" {
		return restapi.Fail(http.StatusBadRequest,
			restapi.CodeMissingSerialNumber)
	}
	if !restapi.SerialNumberRE.MatchString(req.SerialNumber) {
		return restapi.Fail(http.StatusBadRequest,
			restapi.CodeInvalidSerialNumberFormat)
	}

	err := a.db.BindEdge(c.Request().Context(), userID, req.SerialNumber)
	if _, ok := err.(redsafedb.UniqueViolationError); ok {
		return restapi.Fail(http.StatusConflict,
			restapi.CodeBindingAlreadyExists)
	}
	if err != nil {
		slog.Errorf("binding edge: %v", err)
		return restapi.Internal()
	}
	return restapi.OK(nil)
}

func (a *apiHandler) iosUnbind(c echo.Context) *restapi.Result {
	userID, fail := a.decodeBearer(c)
	if fail != nil {
		return fail
	}

	var req struct {
		SerialNumber string `json:"serial_number"`
	}
	if r := restapi.BindJSON(c, &req); r != nil {
		return r
	}
	if req.SerialNumber == "" {
		return restapi.Fail(http.StatusBadRequest,
			restapi.CodeMissingSerialNumber)
	}
	if !restapi.SerialNumberRE.MatchString(req.SerialNumber) {
		return restapi.Fail(http.StatusBadRequest,
			restapi.CodeInvalidSerialNumberFormat)
	}

	err := a.db.UnbindEdge(c.Request().Context(), userID, req.SerialNumber)
	if err != nil {
		slog.Errorf("unbinding edge: %v", err)
		return restapi.Internal()
	}
	return restapi.OK(nil)
}
