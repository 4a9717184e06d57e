/*
 * COPYRIGHT 2020 Brightgate Inc.  All rights reserved.
 *
 * This copyright notice is Copyright Management Information under 17 USC 1202
 * and is included to protect this work and deter copyright infringement.
 * Removal or alteration of this Copyright Management Information without the
 * express written permission of Brightgate Inc is prohibited, and any
 * such unauthorized removal or alteration will be a violation of federal law.
 */

// Package redsafedb is the cloud daemons' view of the fleet database:
// edge devices, user accounts, iOS devices, bindings and refresh
// tokens.  Every operation runs one named prepared statement; the
// schema beyond these statements is private to the database owner.
package redsafedb

import (
	"context"
	"database/sql"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"sync"
	"time"

	"github.com/guregu/null"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/satori/uuid"
)

// DataStore facilitates mocking the database
// See http://www.alexedwards.net/blog/organising-database-access
type DataStore interface {
	LoadSchema(context.Context, string) error
	RegisterEdge(context.Context, *EdgeDevice) (bool, error)
	RegisterUser(context.Context, *UserAccount) error
	UserIDByEmail(context.Context, string) (uuid.UUID, error)
	UserNameByEmail(context.Context, string) (string, error)
	UserNameEmailByID(context.Context, uuid.UUID) (*UserAccount, error)
	EmailRegistered(context.Context, string) (bool, error)
	RegisterIOSDevice(context.Context, *IOSDevice) error
	IOSDeviceIDByToken(context.Context, uuid.UUID, string) (uuid.UUID, error)
	BindEdge(context.Context, uuid.UUID, string) error
	UnbindEdge(context.Context, uuid.UUID, string) error
	UserCredentialsByEmail(context.Context, string) (*UserAccount, error)
	EdgesByUser(context.Context, uuid.UUID) ([]string, error)
	RegisterRefreshToken(context.Context, string, uuid.UUID, time.Time) error
	CheckRefreshToken(context.Context, string) (uuid.UUID, error)
	RevokeRefreshToken(context.Context, string) error
	Ping() error
	Close() error
}

// EdgeDevice is one registered edge gateway.
type EdgeDevice struct {
	SerialNumber string `json:"serial_number"`
	Version      string `json:"version"`
}

// UserAccount is one caregiver account.  PwdHash is only populated by
// the credential lookup.
type UserAccount struct {
	UserID   uuid.UUID `json:"user_id"`
	Email    string    `json:"email"`
	UserName string    `json:"user_name"`
	PwdHash  string    `json:"-"`
}

// IOSDevice is one companion-app installation.
type IOSDevice struct {
	IOSDeviceID uuid.UUID   `json:"ios_device_id"`
	UserID      uuid.UUID   `json:"user_id"`
	ApnsToken   string      `json:"apns_token"`
	DeviceName  null.String `json:"device_name"`
}

// NotFoundError is returned when the requested resource is not present
// in the database.
type NotFoundError struct {
	s string
}

func (e NotFoundError) Error() string {
	return e.s
}

// UniqueViolationError reports an insert that lost to an existing row.
type UniqueViolationError struct {
	Constraint string
}

func (e UniqueViolationError) Error() string {
	return fmt.Sprintf("unique constraint %q violated", e.Constraint)
}

func mapUnique(err error) error {
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
		return UniqueViolationError{Constraint: pqErr.Constraint}
	}
	return err
}

// The database contract: every statement the daemons run, keyed by its
// stable name.
var statements = map[string]string{
	"register_edge": `
	    INSERT INTO edge_device (serial_number, version, last_seen)
	    VALUES ($1, $2, now())
	    ON CONFLICT (serial_number) DO UPDATE
	    SET version = EXCLUDED.version, last_seen = now()
	    RETURNING (xmax <> 0)`,
	"register_user": `
	    INSERT INTO user_account (user_id, email, user_name, pwd_hash)
	    VALUES ($1, $2, $3, $4)`,
	"find_user_id": `
	    SELECT user_id FROM user_account WHERE email = $1`,
	"find_user_name_email": `
	    SELECT user_name FROM user_account WHERE email = $1`,
	"find_user_name_userid": `
	    SELECT user_name, email FROM user_account WHERE user_id = $1`,
	"find_email": `
	    SELECT count(*) FROM user_account WHERE email = $1`,
	"register_ios_device": `
	    INSERT INTO ios_device (ios_device_id, user_id, apns_token,
	        device_name)
	    VALUES ($1, $2, $3, $4)
	    ON CONFLICT (ios_device_id) DO UPDATE
	    SET apns_token = EXCLUDED.apns_token,
	        device_name = EXCLUDED.device_name`,
	"find_ios_device_id": `
	    SELECT ios_device_id FROM ios_device
	    WHERE user_id = $1 AND apns_token = $2`,
	"bind_edge_user": `
	    INSERT INTO edge_binding (user_id, serial_number)
	    VALUES ($1, $2)`,
	"unbind_edge_user": `
	    DELETE FROM edge_binding
	    WHERE user_id = $1 AND serial_number = $2`,
	"find_user_pwdhash": `
	    SELECT user_id, user_name, pwd_hash FROM user_account
	    WHERE email = $1`,
	"find_user_edges": `
	    SELECT serial_number FROM edge_binding
	    WHERE user_id = $1
	    ORDER BY bound_at`,
	"reg_refretoken": `
	    INSERT INTO refresh_token (token_hash, user_id, expires_at,
	        revoked)
	    VALUES ($1, $2, $3, FALSE)`,
	// Slide the expiry of a live token and, in the same statement,
	// revoke a matching token that has already expired.  A concurrent
	// refresh racing with expiry sees exactly one of the two outcomes.
	"chk_refretoken": `
	    WITH refreshed AS (
	        UPDATE refresh_token
	        SET expires_at = now() + interval '30 days'
	        WHERE token_hash = $1 AND NOT revoked AND expires_at > now()
	        RETURNING user_id
	    ), expired AS (
	        UPDATE refresh_token
	        SET revoked = TRUE
	        WHERE token_hash = $1 AND NOT revoked AND expires_at <= now()
	    )
	    SELECT user_id FROM refreshed`,
	"revoke_refretoken": `
	    UPDATE refresh_token SET revoked = TRUE WHERE token_hash = $1`,
}

// RedSafeDB implements DataStore with the actual DB backend
// sql.DB implements Ping() and Close()
type RedSafeDB struct {
	*sql.DB

	mu    sync.Mutex
	stmts map[string]*sql.Stmt
}

// Connect opens a new connection to the DataStore
func Connect(dataSource string) (DataStore, error) {
	sqldb, err := sql.Open("postgres", dataSource)
	if err != nil {
		return nil, err
	}
	// Unbounded connection growth has drowned the database before;
	// cap it.
	sqldb.SetMaxOpenConns(16)
	var ds DataStore = &RedSafeDB{DB: sqldb,
		stmts: make(map[string]*sql.Stmt)}
	return ds, nil
}

// stmt returns the prepared statement for name, preparing it on first
// use.
func (db *RedSafeDB) stmt(ctx context.Context, name string) (*sql.Stmt, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if s, ok := db.stmts[name]; ok {
		return s, nil
	}
	text, ok := statements[name]
	if !ok {
		return nil, errors.Errorf("unknown statement %q", name)
	}
	s, err := db.PrepareContext(ctx, text)
	if err != nil {
		return nil, errors.Wrapf(err, "preparing %q", name)
	}
	db.stmts[name] = s
	return s, nil
}

// LoadSchema loads the SQL schema files from a directory.  ioutil.ReadDir
// sorts the input, ensuring the schema is loaded in the right sequence.
func (db *RedSafeDB) LoadSchema(ctx context.Context, schemaDir string) error {
	files, err := ioutil.ReadDir(schemaDir)
	if err != nil {
		return errors.Wrap(err, "could not scan schema dir")
	}

	for _, file := range files {
		bytes, err := ioutil.ReadFile(filepath.Join(schemaDir, file.Name()))
		if err != nil {
			return errors.Wrap(err, "failed to read sql")
		}
		_, err = db.ExecContext(ctx, string(bytes))
		if err != nil {
			return errors.Wrap(err, "failed to exec sql")
		}
	}
	return nil
}

// RegisterEdge inserts or refreshes an edge device record.  Re-running
// the onboarding handshake for a known serial updates its version and
// last-seen time; the returned flag reports whether the serial was
// already registered.
func (db *RedSafeDB) RegisterEdge(ctx context.Context, dev *EdgeDevice) (bool, error) {
	s, err := db.stmt(ctx, "register_edge")
	if err != nil {
		return false, err
	}
	var updated bool
	err = s.QueryRowContext(ctx, dev.SerialNumber, dev.Version).Scan(&updated)
	return updated, err
}

// RegisterUser inserts a new account.  A zero UserID is assigned here.
func (db *RedSafeDB) RegisterUser(ctx context.Context, u *UserAccount) error {
	if u.UserID == uuid.Nil {
		u.UserID = uuid.NewV4()
	}
	s, err := db.stmt(ctx, "register_user")
	if err != nil {
		return err
	}
	_, err = s.ExecContext(ctx, u.UserID, u.Email, u.UserName, u.PwdHash)
	return mapUnique(err)
}

// UserIDByEmail resolves an account's ID.
func (db *RedSafeDB) UserIDByEmail(ctx context.Context, email string) (uuid.UUID, error) {
	s, err := db.stmt(ctx, "find_user_id")
	if err != nil {
		return uuid.Nil, err
	}
	var id uuid.UUID
	err = s.QueryRowContext(ctx, email).Scan(&id)
	if err == sql.ErrNoRows {
		return uuid.Nil, NotFoundError{fmt.Sprintf(
			"UserIDByEmail: no account for %s", email)}
	}
	return id, err
}

// UserNameByEmail returns the display name registered for email.
func (db *RedSafeDB) UserNameByEmail(ctx context.Context, email string) (string, error) {
	s, err := db.stmt(ctx, "find_user_name_email")
	if err != nil {
		return "", err
	}
	var name string
	err = s.QueryRowContext(ctx, email).Scan(&name)
	if err == sql.ErrNoRows {
		return "", NotFoundError{fmt.Sprintf(
			"UserNameByEmail: no account for %s", email)}
	}
	return name, err
}

// UserNameEmailByID returns the profile fields for an account ID.
func (db *RedSafeDB) UserNameEmailByID(ctx context.Context, id uuid.UUID) (*UserAccount, error) {
	s, err := db.stmt(ctx, "find_user_name_userid")
	if err != nil {
		return nil, err
	}
	u := &UserAccount{UserID: id}
	err = s.QueryRowContext(ctx, id).Scan(&u.UserName, &u.Email)
	if err == sql.ErrNoRows {
		return nil, NotFoundError{fmt.Sprintf(
			"UserNameEmailByID: no account %s", id)}
	}
	return u, err
}

// EmailRegistered reports whether an account exists for email.
func (db *RedSafeDB) EmailRegistered(ctx context.Context, email string) (bool, error) {
	s, err := db.stmt(ctx, "find_email")
	if err != nil {
		return false, err
	}
	var count int
	if err = s.QueryRowContext(ctx, email).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// RegisterIOSDevice inserts or updates a companion-app record.  A zero
// IOSDeviceID is assigned here.
func (db *RedSafeDB) RegisterIOSDevice(ctx context.Context, dev *IOSDevice) error {
	if dev.IOSDeviceID == uuid.Nil {
		dev.IOSDeviceID = uuid.NewV4()
	}
	s, err := db.stmt(ctx, "register_ios_device")
	if err != nil {
		return err
	}
	_, err = s.ExecContext(ctx, dev.IOSDeviceID, dev.UserID,
		dev.ApnsToken, dev.DeviceName)
	return mapUnique(err)
}

// IOSDeviceIDByToken finds the device record a user registered under an
// APNs token.
func (db *RedSafeDB) IOSDeviceIDByToken(ctx context.Context, userID uuid.UUID,
	apnsToken string) (uuid.UUID, error) {

	s, err := db.stmt(ctx, "find_ios_device_id")
	if err != nil {
		return uuid.Nil, err
	}
	var id uuid.UUID
	err = s.QueryRowContext(ctx, userID, apnsToken).Scan(&id)
	if err == sql.ErrNoRows {
		return uuid.Nil, NotFoundError{fmt.Sprintf(
			"IOSDeviceIDByToken: no device for %s", userID)}
	}
	return id, err
}

// BindEdge associates an edge device with a user.
func (db *RedSafeDB) BindEdge(ctx context.Context, userID uuid.UUID,
	serial string) error {

	s, err := db.stmt(ctx, "bind_edge_user")
	if err != nil {
		return err
	}
	_, err = s.ExecContext(ctx, userID, serial)
	return mapUnique(err)
}

// UnbindEdge removes an association.  Removing a non-existent binding
// is not an error.
func (db *RedSafeDB) UnbindEdge(ctx context.Context, userID uuid.UUID,
	serial string) error {

	s, err := db.stmt(ctx, "unbind_edge_user")
	if err != nil {
		return err
	}
	_, err = s.ExecContext(ctx, userID, serial)
	return err
}

// UserCredentialsByEmail returns the account ID, name and password hash
// for a signin attempt.
func (db *RedSafeDB) UserCredentialsByEmail(ctx context.Context,
	email string) (*UserAccount, error) {

	s, err := db.stmt(ctx, "find_user_pwdhash")
	if err != nil {
		return nil, err
	}
	u := &UserAccount{Email: email}
	err = s.QueryRowContext(ctx, email).Scan(&u.UserID, &u.UserName,
		&u.PwdHash)
	if err == sql.ErrNoRows {
		return nil, NotFoundError{fmt.Sprintf(
			"UserCredentialsByEmail: no account for %s", email)}
	}
	return u, err
}

// EdgesByUser lists the serial numbers bound to an account, in binding
// order.
func (db *RedSafeDB) EdgesByUser(ctx context.Context, userID uuid.UUID) ([]string, error) {
	s, err := db.stmt(ctx, "find_user_edges")
	if err != nil {
		return nil, err
	}
	rows, err := s.QueryContext(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var serials []string
	for rows.Next() {
		var serial string
		if err = rows.Scan(&serial); err != nil {
			return nil, err
		}
		serials = append(serials, serial)
	}
	return serials, rows.Err()
}

// RegisterRefreshToken stores the hash of a freshly minted refresh
// token.
func (db *RedSafeDB) RegisterRefreshToken(ctx context.Context, tokenHash string,
	userID uuid.UUID, expiresAt time.Time) error {

	s, err := db.stmt(ctx, "reg_refretoken")
	if err != nil {
		return err
	}
	_, err = s.ExecContext(ctx, tokenHash, userID, expiresAt)
	return mapUnique(err)
}

// CheckRefreshToken slides the expiry of a live refresh token and
// returns its user; an expired match is revoked in the same statement.
// NotFoundError means the token is unknown, revoked or expired.
func (db *RedSafeDB) CheckRefreshToken(ctx context.Context,
	tokenHash string) (uuid.UUID, error) {

	s, err := db.stmt(ctx, "chk_refretoken")
	if err != nil {
		return uuid.Nil, err
	}
	var id uuid.UUID
	err = s.QueryRowContext(ctx, tokenHash).Scan(&id)
	if err == sql.ErrNoRows {
		return uuid.Nil, NotFoundError{"CheckRefreshToken: no live token"}
	}
	return id, err
}

// RevokeRefreshToken marks a token revoked.  Idempotent; revoking an
// unknown token succeeds.
func (db *RedSafeDB) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	s, err := db.stmt(ctx, "revoke_refretoken")
	if err != nil {
		return err
	}
	_, err = s.ExecContext(ctx, tokenHash)
	return err
}
