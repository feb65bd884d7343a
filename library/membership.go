package library

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// MembershipLifecycle handles member registration, renewal, and expiry.
type MembershipLifecycle struct {
	store    Store
	log      zerolog.Logger
	validate *validator.Validate
	now      func() time.Time
}

// NewMembershipLifecycle builds a MembershipLifecycle over the given store.
func NewMembershipLifecycle(store Store, log zerolog.Logger) *MembershipLifecycle {
	return &MembershipLifecycle{
		store:    store,
		log:      log,
		validate: validator.New(),
		now:      time.Now,
	}
}

// registrationInput is validated before any write happens.
type registrationInput struct {
	Name    string `validate:"required"`
	Contact string `validate:"required,email"`
}

// RegisterMember validates the input and creates a new member. The member id
// is allocated by the store inside the insert transaction. Two calls with
// identical inputs produce two distinct members; identity dedup happens at
// the account level, not here.
func (l *MembershipLifecycle) RegisterMember(name, contact string, membershipType MembershipType) (*Member, error) {
	if err := l.validateRegistration(name, contact, membershipType); err != nil {
		return nil, err
	}

	today := DateOnly(l.now())
	member := &Member{
		Name:             strings.TrimSpace(name),
		Contact:          strings.TrimSpace(contact),
		MembershipType:   membershipType,
		RegistrationDate: today,
		MembershipExpiry: initialExpiry(today, membershipType),
	}

	stored, err := l.store.InsertMember(member)
	if err != nil {
		return nil, fmt.Errorf("register member: %w", err)
	}
	l.log.Info().Int64("member_id", stored.ID).Str("type", string(membershipType)).Msg("member registered")
	return stored, nil
}

func (l *MembershipLifecycle) validateRegistration(name, contact string, membershipType MembershipType) error {
	if _, ok := ParseMembershipType(string(membershipType)); !ok {
		return &ValidationError{Field: "membership type", Reason: "must be Regular, Premium, or Student"}
	}
	in := registrationInput{Name: strings.TrimSpace(name), Contact: strings.TrimSpace(contact)}
	if err := l.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			f := verrs[0]
			if f.Field() == "Contact" {
				return &ValidationError{Field: "contact", Reason: "must be a valid email address"}
			}
			return &ValidationError{Field: strings.ToLower(f.Field()), Reason: "must not be blank"}
		}
		return &ValidationError{Field: "input", Reason: err.Error()}
	}
	return nil
}

// initialExpiry is the first membership term: one year for Premium, six
// months for everything else.
func initialExpiry(registration time.Time, membershipType MembershipType) time.Time {
	if membershipType == MembershipPremium {
		return registration.AddDate(1, 0, 0)
	}
	return registration.AddDate(0, 6, 0)
}

// RenewMembership sets the expiry to today plus the chosen duration and
// updates the membership type in place. Renewal always extends from the
// renewal date, not the previous expiry: renewing early forfeits the unused
// remainder, renewing after expiry starts fresh from today.
func (l *MembershipLifecycle) RenewMembership(memberID int64, newType MembershipType, duration RenewalDuration) (*Member, error) {
	if _, ok := ParseMembershipType(string(newType)); !ok {
		return nil, &ValidationError{Field: "membership type", Reason: "must be Regular, Premium, or Student"}
	}

	member, err := l.store.FindMemberByID(memberID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("renew membership: %w", err)
	}

	today := DateOnly(l.now())
	expiry, ok := duration.addTo(today)
	if !ok {
		return nil, &ValidationError{Field: "duration", Reason: "must be 6 Months, 1 Year, or 2 Years"}
	}

	member.MembershipType = newType
	member.MembershipExpiry = expiry
	if err := l.store.UpdateMember(member); err != nil {
		return nil, fmt.Errorf("renew membership: %w", err)
	}
	l.log.Info().Int64("member_id", memberID).Str("type", string(newType)).
		Str("expiry", formatDate(expiry)).Msg("membership renewed")
	return member, nil
}

// IsExpired reports whether the membership has lapsed as of the given date.
// A membership is valid through its expiry date and expired strictly after.
func IsExpired(m *Member, asOf time.Time) bool {
	return DateOnly(asOf).After(DateOnly(m.MembershipExpiry))
}
