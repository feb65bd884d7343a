package library

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// AuthResult is a successful authentication: who logged in and which
// authorization class the UI should unlock for them.
type AuthResult struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// RoleGate authenticates usernames against stored accounts and maps their
// stored role onto the closed Role set.
type RoleGate struct {
	store Store
	log   zerolog.Logger

	// decoyHash/decoySalt are verified against when the username does not
	// exist, so the lookup miss and a wrong password cost about the same.
	decoyHash string
	decoySalt string
}

// NewRoleGate builds a RoleGate over the given store.
func NewRoleGate(store Store, log zerolog.Logger) (*RoleGate, error) {
	hash, salt, err := GenerateCredential("decoy")
	if err != nil {
		return nil, fmt.Errorf("init role gate: %w", err)
	}
	return &RoleGate{store: store, log: log, decoyHash: hash, decoySalt: salt}, nil
}

// Authenticate verifies the username/password pair. A locked account never
// authenticates, regardless of password correctness; the check runs before
// any password verification. Failure for an unknown username and a wrong
// password is the same AuthError so callers learn nothing about which it was.
func (g *RoleGate) Authenticate(username, plaintext string) (*AuthResult, error) {
	account, err := g.store.FindAccountByUsername(username)
	if errors.Is(err, ErrNotFound) {
		VerifyCredential(plaintext, g.decoyHash, g.decoySalt)
		g.log.Info().Str("username", username).Msg("login rejected")
		return nil, &AuthError{Reason: ReasonInvalidCredentials}
	}
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	if account.Locked {
		g.log.Warn().Str("username", username).Msg("login attempt on locked account")
		return nil, &AuthError{Reason: ReasonAccountLocked}
	}

	if !VerifyCredential(plaintext, account.PasswordHash, account.Salt) {
		g.log.Info().Str("username", username).Msg("login rejected")
		return nil, &AuthError{Reason: ReasonInvalidCredentials}
	}

	role, ok := ParseRole(string(account.Role))
	if !ok {
		// Fail closed: an unmapped role never falls through to a
		// permissive default.
		g.log.Error().Str("username", username).Str("role", string(account.Role)).Msg("unmapped role on account")
		return nil, &AuthError{Reason: ReasonUnknownRole}
	}

	g.log.Info().Str("username", username).Str("role", string(role)).Msg("login succeeded")
	return &AuthResult{Username: account.Username, Role: role}, nil
}
