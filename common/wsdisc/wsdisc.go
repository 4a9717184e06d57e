/*
 * COPYRIGHT 2020 Brightgate Inc.  All rights reserved.
 *
 * This copyright notice is Copyright Management Information under 17 USC 1202
 * and is included to protect this work and deter copyright infringement.
 * Removal or alteration of this Copyright Management Information without the
 * express written permission of Brightgate Inc is prohibited, and any
 * such unauthorized removal or alteration will be a violation of federal law.
 */

// Package wsdisc builds ONVIF WS-Discovery probe messages and picks device
// attributes out of probe responses.
//
// A Probe is a SOAP 1.2 envelope multicast to 239.255.255.250:3702; a
// responding camera returns a ProbeMatch whose Scopes element carries a
// whitespace-separated list of onvif:// URIs.  The interesting attributes
// (device MAC and model name) ride inside those URIs with no single
// canonical encoding, so extraction is deliberately permissive: sub-keys
// may be delimited by '/', ':', '=', or '-', and values arrive
// percent-encoded.
package wsdisc

import (
	"fmt"
	"net/url"
	"strings"

	"redsafe/common/network"

	"github.com/satori/uuid"
)

const probeTemplate = `<?xml version="1.0" encoding="UTF-8"?>` +
	`<s:Envelope xmlns:s="http://www.w3.org/2003/05/soap-envelope"` +
	` xmlns:wsa="http://schemas.xmlsoap.org/ws/2004/08/addressing"` +
	` xmlns:d="http://schemas.xmlsoap.org/ws/2005/04/discovery"` +
	` xmlns:dn="http://www.onvif.org/ver10/network/wsdl">` +
	`<s:Header>` +
	`<wsa:MessageID>uuid:%s</wsa:MessageID>` +
	`<wsa:To>urn:schemas-xmlsoap-org:ws:2005:04:discovery</wsa:To>` +
	`<wsa:Action>http://schemas.xmlsoap.org/ws/2005/04/discovery/Probe</wsa:Action>` +
	`</s:Header>` +
	`<s:Body>` +
	`<d:Probe><d:Types>dn:NetworkVideoTransmitter</d:Types></d:Probe>` +
	`</s:Body>` +
	`</s:Envelope>`

// ScopeInfo holds the attributes recovered from a ProbeMatch's Scopes.
type ScopeInfo struct {
	Mac  string
	Name string
}

// BuildProbe returns a WS-Discovery Probe for NetworkVideoTransmitter
// devices with a fresh v4 MessageID.
func BuildProbe() []byte {
	return BuildProbeWithID(uuid.NewV4().String())
}

// BuildProbeWithID is BuildProbe with a caller-supplied MessageID, which
// keeps the probe body deterministic under test.
func BuildProbeWithID(id string) []byte {
	return []byte(fmt.Sprintf(probeTemplate, id))
}

// The tag names under which cameras have been observed to ship their
// Scopes.  Prefixes are matched literally; response namespaces in the wild
// are too inconsistent for prefix resolution to be worth it.
var scopeTags = []string{"d:Scopes", "Scopes", "wsd:Scopes", "wsdd:Scopes"}

const onvifPrefix = "onvif://www.onvif.org/"

// ParseScopes extracts MAC and name attributes from a raw ProbeMatch
// payload.  The second return is false when the payload carries no Scopes
// element at all.
func ParseScopes(payload []byte) (ScopeInfo, bool) {
	body, ok := scopesText(string(payload))
	if !ok {
		return ScopeInfo{}, false
	}

	var info ScopeInfo
	for _, token := range strings.Fields(body) {
		if !strings.Contains(strings.ToLower(token), onvifPrefix) {
			continue
		}
		if info.Mac == "" {
			if v, ok := subValue(token, "mac"); ok {
				info.Mac = network.NormalizeMac(percentDecode(v))
			}
		}
		if info.Name == "" {
			if v, ok := subValue(token, "name"); ok {
				info.Name = percentDecode(v)
			}
		}
	}
	return info, true
}

// scopesText returns the character content of the first Scopes element
// found under any of the known tag spellings.
func scopesText(xml string) (string, bool) {
	for _, tag := range scopeTags {
		open := "<" + tag
		start := strings.Index(xml, open)
		if start < 0 {
			continue
		}
		// The next char must close the tag name, not extend it
		// (e.g. "<Scopes" must not match "<ScopesExt").
		rest := xml[start+len(open):]
		if len(rest) == 0 || (rest[0] != '>' && rest[0] != ' ' && rest[0] != '\t' &&
			rest[0] != '\r' && rest[0] != '\n' && rest[0] != '/') {
			continue
		}
		gt := strings.Index(rest, ">")
		if gt < 0 {
			continue
		}
		content := rest[gt+1:]
		end := strings.Index(content, "</"+tag+">")
		if end < 0 {
			continue
		}
		return content[:end], true
	}
	return "", false
}

func isDelim(b byte) bool {
	return b == '/' || b == ':' || b == '=' || b == '-'
}

// subValue finds "key" inside an onvif scope token and returns everything
// after the delimiter that follows it.  The key must be preceded by a
// delimiter (or start the token) and followed by one; the search is
// case-insensitive.
func subValue(token, key string) (string, bool) {
	lower := strings.ToLower(token)
	for i := 0; ; {
		idx := strings.Index(lower[i:], key)
		if idx < 0 {
			return "", false
		}
		idx += i
		i = idx + 1

		if idx > 0 && !isDelim(token[idx-1]) {
			continue
		}
		end := idx + len(key)
		if end >= len(token) || !isDelim(token[end]) {
			continue
		}
		return token[end+1:], true
	}
}

// percentDecode undoes URL escaping, including '+' as space.  Tokens that
// fail to decode are used as-is; cameras get this wrong often enough that
// dropping them would lose real devices.
func percentDecode(s string) string {
	if d, err := url.QueryUnescape(s); err == nil {
		return d
	}
	return s
}
