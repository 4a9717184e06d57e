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

	"redsafe/cl_common/auth/tokens"
	"redsafe/cloud_rpc"
)

// authServer answers DecodeAccessToken for the other cloud daemons, so
// the signing secret never leaves this process.
type authServer struct {
	issuer *tokens.Issuer
}

var decodeMessages = map[int]string{
	tokens.DecodeOK:           "",
	tokens.DecodeExpired:      "access token expired",
	tokens.DecodeInvalid:      "access token invalid",
	tokens.DecodeBadSignature: "invalid signature",
	tokens.DecodeMalformed:    "malformed token",
	tokens.DecodeInternal:     "internal error",
}

// DecodeAccessToken validates a token and returns the user it names.
func (s *authServer) DecodeAccessToken(ctx context.Context,
	req *cloud_rpc.DecodeAccessTokenRequest) (*cloud_rpc.DecodeAccessTokenResponse, error) {

	code, userID := s.issuer.Decode(req.GetAccessToken())
	return &cloud_rpc.DecodeAccessTokenResponse{
		Code:         int32(code),
		UserId:       userID,
		ErrorMessage: decodeMessages[code],
	}, nil
}
