/*
 * COPYRIGHT 2018 Brightgate Inc.  All rights reserved.
 *
 * This copyright notice is Copyright Management Information under 17 USC 1202
 * and is included to protect this work and deter copyright infringement.
 * Removal or alteration of this Copyright Management Information without the
 * express written permission of Brightgate Inc is prohibited, and any
 * such unauthorized removal or alteration will be a violation of federal law.
 */

// Package pgutils has helpers for handling Postgres connection strings.
package pgutils

import (
	"net/url"
	"regexp"
	"strings"
)

const pwMask = "********"

var kvPasswordRE = regexp.MustCompile(`\bpassword=[^ ]*`)

// CensorPassword masks the password in a Postgres connection string so
// the string can go into the logs.  Both the URI form and the key/value
// form are handled.
func CensorPassword(connInfo string) string {
	if strings.HasPrefix(connInfo, "postgres://") ||
		strings.HasPrefix(connInfo, "postgresql://") {
		return censorURI(connInfo)
	}

	// Key/value form; a password containing a space would defeat
	// this, but lib/pq quoting support never landed upstream.
	return kvPasswordRE.ReplaceAllString(connInfo, "password="+pwMask)
}

func censorURI(connInfo string) string {
	theURL, _ := url.Parse(connInfo)

	// The password may travel as a query parameter ...
	q := theURL.Query()
	if q.Get("password") != "" {
		q.Set("password", pwMask)
	}
	theURL.RawQuery = q.Encode()

	// ... or in the userinfo ahead of the host.
	if _, pwset := theURL.User.Password(); pwset {
		theURL.User = url.UserPassword(theURL.User.Username(), pwMask)
	}

	// Keep the mask as literal asterisks rather than their
	// URL-encoded spelling.
	return strings.Replace(theURL.String(),
		"password="+url.QueryEscape(pwMask), "password="+pwMask, -1)
}
