package models

import (
	"fmt"
	"strings"

	"github.com/Gobusters/ectolinq"

	"github.com/Ramsey-B/iris/pkg/normalizers"
)

// DefaultContactCapacity is the maximum number of values kept per contact list
const DefaultContactCapacity = 5

// ContactType identifies one of the three contact lists of a person
type ContactType string

const (
	ContactTypePhone    ContactType = "phone"
	ContactTypeEmail    ContactType = "email"
	ContactTypeTelegram ContactType = "telegram"
)

var ContactTypes = []ContactType{ContactTypePhone, ContactTypeEmail, ContactTypeTelegram}

func ParseContactType(s string) (ContactType, bool) {
	ct := ContactType(strings.ToLower(strings.TrimSpace(s)))
	return ct, ectolinq.Contains(ContactTypes, ct)
}

// NormalizeContact returns the comparison form of a contact value: digits for phones,
// lowercase for emails, lowercase without "@" for telegram handles.
func NormalizeContact(ct ContactType, value string) string {
	switch ct {
	case ContactTypePhone:
		return normalizers.NormalizePhone(value)
	case ContactTypeEmail:
		return normalizers.NormalizeEmail(value)
	case ContactTypeTelegram:
		return normalizers.NormalizeTelegram(value)
	}
	return strings.TrimSpace(value)
}

// AddOutcome reports what ContactSet.Add did with a value
type AddOutcome int

const (
	AddOutcomeAdded AddOutcome = iota
	AddOutcomeDuplicate
	AddOutcomeFull
	AddOutcomeBlank
)

// ContactSet holds a person's phones, emails and telegram handles. Values are stored as
// given; comparisons use NormalizeContact.
type ContactSet struct {
	Phones    []string `json:"phones"`
	Emails    []string `json:"emails"`
	Telegrams []string `json:"telegram_usernames"`
}

func (s *ContactSet) List(ct ContactType) []string {
	switch ct {
	case ContactTypePhone:
		return s.Phones
	case ContactTypeEmail:
		return s.Emails
	case ContactTypeTelegram:
		return s.Telegrams
	}
	return nil
}

func (s *ContactSet) setList(ct ContactType, values []string) {
	switch ct {
	case ContactTypePhone:
		s.Phones = values
	case ContactTypeEmail:
		s.Emails = values
	case ContactTypeTelegram:
		s.Telegrams = values
	}
}

// Contains reports whether a value equal after normalization is already stored.
func (s *ContactSet) Contains(ct ContactType, value string) bool {
	target := NormalizeContact(ct, value)
	if target == "" {
		return false
	}
	return len(ectolinq.Filter(s.List(ct), func(v string) bool {
		return NormalizeContact(ct, v) == target
	})) > 0
}

// Add appends value unless it is blank, already present or the list holds capacity values.
func (s *ContactSet) Add(ct ContactType, value string, capacity int) AddOutcome {
	value = strings.TrimSpace(value)
	if NormalizeContact(ct, value) == "" {
		return AddOutcomeBlank
	}
	if s.Contains(ct, value) {
		return AddOutcomeDuplicate
	}
	list := s.List(ct)
	if len(list) >= capacity {
		return AddOutcomeFull
	}
	s.setList(ct, append(list, value))
	return AddOutcomeAdded
}

// Remove drops every value equal to value after normalization.
func (s *ContactSet) Remove(ct ContactType, value string) bool {
	target := NormalizeContact(ct, value)
	list := s.List(ct)
	kept := ectolinq.Filter(list, func(v string) bool {
		return NormalizeContact(ct, v) != target
	})
	s.setList(ct, kept)
	return len(kept) != len(list)
}

// Clean drops entries that are empty or whitespace-only. Other values are kept as given.
func (s *ContactSet) Clean() {
	for _, ct := range ContactTypes {
		s.setList(ct, ectolinq.Filter(s.List(ct), func(v string) bool {
			return strings.TrimSpace(v) != ""
		}))
	}
}

// Validate checks every list against capacity.
func (s *ContactSet) Validate(capacity int) error {
	for _, ct := range ContactTypes {
		if n := len(s.List(ct)); n > capacity {
			return fmt.Errorf("%s list holds %d values, maximum is %d", ct, n, capacity)
		}
	}
	return nil
}
