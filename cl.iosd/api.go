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

	"redsafe/cl_common/auth/tokens"
	"redsafe/cl_common/restapi"
	"redsafe/cloud_models/redsafedb"
	"redsafe/cloud_rpc"

	"github.com/guregu/null"
	"github.com/labstack/echo"
	"github.com/satori/uuid"
)

// apiHandler binds the endpoint handlers to their dependencies.
type apiHandler struct {
	db   redsafedb.DataStore
	auth cloud_rpc.UserAuthServiceClient
}

// decodeBearer resolves the request's access token to a user ID by way
// of cl.userd's UserAuthService.  An empty Authorization header is not
// an error here; callers that accept a user_id in the body fall back to
// that.
func (a *apiHandler) decodeBearer(c echo.Context) (uuid.UUID, *restapi.Result) {
	raw := restapi.BearerToken(c)
	if raw == "" {
		return uuid.Nil, nil
	}

	resp, err := a.auth.DecodeAccessToken(c.Request().Context(),
		&cloud_rpc.DecodeAccessTokenRequest{AccessToken: raw})
	if err != nil {
		slog.Errorf("decoding access token: %v", err)
		return uuid.Nil, restapi.Internal()
	}

	switch int(resp.Code) {
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

	id, err := uuid.FromString(resp.UserId)
	if err != nil {
		return uuid.Nil, restapi.Fail(http.StatusUnauthorized,
			restapi.CodeAccessTokenInvalid)
	}
	return id, nil
}

// edgeSignup records an edge gateway.  Gateways repeat this call every
// time their watchdog trips, so re-registration must always succeed.
func (a *apiHandler) edgeSignup(c echo.Context) *restapi.Result {
	var req struct {
		SerialNumber string `json:"serial_number"`
		Version      string `json:"version"`
	}
	if r := restapi.BindJSON(c, &req); r != nil {
		return r
	}
	if req.SerialNumber == "" || req.Version == "" {
		return restapi.Fail(http.StatusBadRequest,
			restapi.CodeMissingSerialOrVersion)
	}
	if !restapi.SerialNumberRE.MatchString(req.SerialNumber) {
		return restapi.Fail(http.StatusBadRequest,
			restapi.CodeInvalidSerialNumberFormat)
	}

	updated, err := a.db.RegisterEdge(c.Request().Context(), &redsafedb.EdgeDevice{
		SerialNumber: req.SerialNumber,
		Version:      req.Version,
	})
	if err != nil {
		slog.Errorf("registering edge %s: %v", req.SerialNumber, err)
		return restapi.Internal()
	}
	if updated {
		// Known serial: the record was refreshed, but the caller
		// needs to learn it was already on file.
		return restapi.Fail(http.StatusConflict,
			restapi.CodeEdgeAlreadyRegistered)
	}
	return restapi.OK(map[string]interface{}{
		"serial_number": req.SerialNumber,
	})
}

// iosSignup records an iOS companion device and its APNS token.  The
// owning user comes from the bearer token when one is presented, or
// from user_id in the body otherwise.
func (a *apiHandler) iosSignup(c echo.Context) *restapi.Result {
	var req struct {
		UserID      string `json:"user_id"`
		ApnsToken   string `json:"apns_token"`
		IOSDeviceID string `json:"ios_device_id"`
		DeviceName  string `json:"device_name"`
	}
	if r := restapi.BindJSON(c, &req); r != nil {
		return r
	}

	userID, fail := a.decodeBearer(c)
	if fail != nil {
		return fail
	}
	if userID == uuid.Nil {
		if req.UserID == "" {
			return restapi.Fail(http.StatusBadRequest,
				restapi.CodeMissingUserIDOrApnsToken)
		}
		var err error
		if userID, err = uuid.FromString(req.UserID); err != nil {
			return restapi.Fail(http.StatusBadRequest,
				restapi.CodeMissingUserIDOrApnsToken)
		}
	}
	if req.ApnsToken == "" {
		return restapi.Fail(http.StatusBadRequest,
			restapi.CodeMissingUserIDOrApnsToken)
	}
	if !restapi.ApnsTokenRE.MatchString(req.ApnsToken) {
		return restapi.Fail(http.StatusBadRequest,
			restapi.CodeInvalidApnsTokenFormat)
	}

	dev := &redsafedb.IOSDevice{
		UserID:    userID,
		ApnsToken: req.ApnsToken,
	}
	if req.IOSDeviceID != "" {
		id, err := uuid.FromString(req.IOSDeviceID)
		if err != nil {
			return restapi.Fail(http.StatusBadRequest,
				restapi.CodeMissingUserIDOrApnsToken)
		}
		dev.IOSDeviceID = id
	}
	if req.DeviceName != "" {
		dev.DeviceName = null.StringFrom(req.DeviceName)
	}

	err := a.db.RegisterIOSDevice(c.Request().Context(), dev)
	if err != nil {
		slog.Errorf("registering ios device: %v", err)
		return restapi.Internal()
	}
	return restapi.OK(map[string]interface{}{
		"ios_device_id": dev.IOSDeviceID.String(),
	})
}
