/*
 * COPYRIGHT 2020 Brightgate Inc.  All rights reserved.
 *
 * This copyright notice is Copyright Management Information under 17 USC 1202
 * and is included to protect this work and deter copyright infringement.
 * Removal or alteration of this Copyright Management Information without the
 * express written permission of Brightgate Inc is prohibited, and any
 * such unauthorized removal or alteration will be a violation of federal law.
 */

package redsafedb

import (
	"testing"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

// The statement names are a wire-stable contract with the database
// owner; a missing or extra name is a bug, not a refactor.
func TestStatementContract(t *testing.T) {
	names := []string{
		"register_edge",
		"register_user",
		"find_user_id",
		"find_user_name_email",
		"find_user_name_userid",
		"find_email",
		"register_ios_device",
		"find_ios_device_id",
		"bind_edge_user",
		"unbind_edge_user",
		"find_user_pwdhash",
		"find_user_edges",
		"reg_refretoken",
		"chk_refretoken",
		"revoke_refretoken",
	}
	assert.Len(t, statements, len(names))
	for _, name := range names {
		assert.Contains(t, statements, name)
	}
}

func TestMapUnique(t *testing.T) {
	uv := mapUnique(&pq.Error{Code: "23505", Constraint: "user_account_email_key"})
	uve, ok := uv.(UniqueViolationError)
	assert.True(t, ok)
	assert.Equal(t, "user_account_email_key", uve.Constraint)
	assert.Contains(t, uve.Error(), "user_account_email_key")

	other := errors.New("connection reset")
	assert.Equal(t, other, mapUnique(other))
	assert.Equal(t, mapUnique(&pq.Error{Code: "23503"}),
		&pq.Error{Code: "23503"})
}

func TestNotFoundError(t *testing.T) {
	err := NotFoundError{"no such row"}
	assert.Equal(t, "no such row", err.Error())
}
