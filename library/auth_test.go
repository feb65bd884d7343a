package library

import (
	"errors"
	"testing"
)

func seedAccount(t *testing.T, db *Database, username, password string, role Role, locked bool) {
	t.Helper()
	hash, salt, err := GenerateCredential(password)
	if err != nil {
		t.Fatalf("generate credential: %v", err)
	}
	account := &Account{Username: username, PasswordHash: hash, Salt: salt, Role: role, Locked: locked}
	if _, err := db.CreateAccount(account, nil); err != nil {
		t.Fatalf("create account: %v", err)
	}
}

func newGate(t *testing.T, db *Database) *RoleGate {
	t.Helper()
	gate, err := NewRoleGate(db, nopLogger)
	if err != nil {
		t.Fatalf("new role gate: %v", err)
	}
	return gate
}

func TestAuthenticateSuccess(t *testing.T) {
	db := tempDB(t)
	seedAccount(t, db, "head_librarian", "libpass", RoleLibrarian, false)
	gate := newGate(t, db)

	result, err := gate.Authenticate("head_librarian", "libpass")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if result.Username != "head_librarian" || result.Role != RoleLibrarian {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestAuthenticateWrongPassword(t *testing.T) {
	db := tempDB(t)
	seedAccount(t, db, "alice", "right", RoleMember, false)
	gate := newGate(t, db)

	_, err := gate.Authenticate("alice", "wrong")
	if !IsAuthFailure(err, ReasonInvalidCredentials) {
		t.Fatalf("want invalid credentials, got %v", err)
	}
}

func TestAuthenticateUnknownUserIsIndistinguishable(t *testing.T) {
	db := tempDB(t)
	seedAccount(t, db, "alice", "right", RoleMember, false)
	gate := newGate(t, db)

	_, errUnknown := gate.Authenticate("nobody", "whatever")
	_, errWrong := gate.Authenticate("alice", "wrong")

	if !IsAuthFailure(errUnknown, ReasonInvalidCredentials) {
		t.Fatalf("want invalid credentials for unknown user, got %v", errUnknown)
	}
	if errUnknown.Error() != errWrong.Error() {
		t.Fatalf("failure messages differ: %q vs %q", errUnknown.Error(), errWrong.Error())
	}
}

func TestAuthenticateLockedAccountNeverSucceeds(t *testing.T) {
	db := tempDB(t)
	seedAccount(t, db, "locked_user", "libpass", RoleMember, true)
	gate := newGate(t, db)

	// Correct password: still locked.
	_, err := gate.Authenticate("locked_user", "libpass")
	if !IsAuthFailure(err, ReasonAccountLocked) {
		t.Fatalf("want account locked with correct password, got %v", err)
	}

	// Wrong password: the locked state takes precedence.
	_, err = gate.Authenticate("locked_user", "wrong")
	if !IsAuthFailure(err, ReasonAccountLocked) {
		t.Fatalf("want account locked with wrong password, got %v", err)
	}
}

func TestAuthenticateUnknownRoleFailsClosed(t *testing.T) {
	db := tempDB(t)
	// Stored role outside the closed set, e.g. from a hand-edited row.
	seedAccount(t, db, "odd", "libpass", Role("superuser"), false)
	gate := newGate(t, db)

	_, err := gate.Authenticate("odd", "libpass")
	if !IsAuthFailure(err, ReasonUnknownRole) {
		t.Fatalf("want unknown role, got %v", err)
	}
}

func TestManagerLoginWritesAudit(t *testing.T) {
	db := tempDB(t)
	mgr := &Manager{db: db, log: nopLogger}
	mgr.Auth = newGate(t, db)
	seedAccount(t, db, "auditor", "libpass", RoleAdmin, false)

	if _, err := mgr.Login("auditor", "libpass"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := mgr.Login("auditor", "nope"); !IsAuthFailure(err, ReasonInvalidCredentials) {
		t.Fatalf("want invalid credentials, got %v", err)
	}

	entries, err := db.ListAuditLog(10)
	if err != nil {
		t.Fatalf("list audit: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("want 2 audit rows, got %d", len(entries))
	}
}

func TestLockUnlockCycle(t *testing.T) {
	db := tempDB(t)
	mgr := &Manager{db: db, log: nopLogger}
	mgr.Auth = newGate(t, db)
	seedAccount(t, db, "cycle", "libpass", RoleMember, false)

	if err := mgr.LockAccount("cycle"); err != nil {
		t.Fatalf("lock: %v", err)
	}
	if _, err := mgr.Auth.Authenticate("cycle", "libpass"); !IsAuthFailure(err, ReasonAccountLocked) {
		t.Fatalf("want locked after LockAccount, got %v", err)
	}

	if err := mgr.UnlockAccount("cycle"); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if _, err := mgr.Auth.Authenticate("cycle", "libpass"); err != nil {
		t.Fatalf("want login after UnlockAccount, got %v", err)
	}

	if err := mgr.LockAccount("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound for unknown account, got %v", err)
	}
}
