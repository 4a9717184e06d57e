/*
 * COPYRIGHT 2020 Brightgate Inc.  All rights reserved.
 *
 * This copyright notice is Copyright Management Information under 17 USC 1202
 * and is included to protect this work and deter copyright infringement.
 * Removal or alteration of this Copyright Management Information without the
 * express written permission of Brightgate Inc is prohibited, and any
 * such unauthorized removal or alteration will be a violation of federal law.
 */

package cmdplane

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Command is the wire envelope received on <edge_id>/cmd.  The code field
// arrives as either a JSON string or an integer; integers are stringified
// during parsing so dispatch always keys on a string.
type Command struct {
	TraceID string
	Code    string
	Payload json.RawMessage
}

type rawCommand struct {
	TraceID *string         `json:"trace_id"`
	Code    json.RawMessage `json:"code"`
	Payload json.RawMessage `json:"payload"`
}

// ParseCommand decodes a command envelope.
func ParseCommand(payload []byte) (*Command, error) {
	var raw rawCommand
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, errors.Wrap(err, "parsing command envelope")
	}
	if raw.TraceID == nil {
		return nil, errors.New("trace_id must be a string")
	}

	cmd := &Command{
		TraceID: *raw.TraceID,
		Payload: raw.Payload,
	}

	if len(raw.Code) == 0 {
		return nil, errors.New("code is required")
	}
	if raw.Code[0] == '"' {
		if err := json.Unmarshal(raw.Code, &cmd.Code); err != nil {
			return nil, errors.Wrap(err, "parsing code")
		}
	} else {
		var n json.Number
		if err := json.Unmarshal(raw.Code, &n); err != nil {
			return nil, errors.Wrap(err, "parsing code")
		}
		cmd.Code = n.String()
	}

	return cmd, nil
}

// Reply is the envelope published to <edge_id>/data.  TraceID and Code
// echo the incoming command.
type Reply struct {
	TraceID string      `json:"trace_id"`
	Code    string      `json:"code"`
	Status  string      `json:"status"`
	Result  interface{} `json:"result"`
}

// OkReply builds a successful reply for cmd.
func OkReply(cmd *Command, result interface{}) *Reply {
	return &Reply{
		TraceID: cmd.TraceID,
		Code:    cmd.Code,
		Status:  "ok",
		Result:  result,
	}
}

// ErrorReply builds a failed reply for cmd.
func ErrorReply(cmd *Command, message string) *Reply {
	return &Reply{
		TraceID: cmd.TraceID,
		Code:    cmd.Code,
		Status:  "error",
		Result:  map[string]string{"error_message": message},
	}
}
