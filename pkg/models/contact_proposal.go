package models

import (
	"time"

	"github.com/google/uuid"
)

type ProposalStatus string

const (
	ProposalStatusPending   ProposalStatus = "pending"
	ProposalStatusConfirmed ProposalStatus = "confirmed"
	ProposalStatusRejected  ProposalStatus = "rejected"
)

// ContactAdditionProposal records a contact appended to a person, awaiting review
type ContactAdditionProposal struct {
	ID           uuid.UUID      `json:"id" db:"id"`
	PersonID     int64          `json:"person_id" db:"person_id"`
	ContactType  ContactType    `json:"contact_type" db:"contact_type"`
	ContactValue string         `json:"contact_value" db:"contact_value"`
	Status       ProposalStatus `json:"status" db:"status"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`
	ResolvedAt   *time.Time     `json:"resolved_at,omitempty" db:"resolved_at"`
	ResolvedBy   *string        `json:"resolved_by,omitempty" db:"resolved_by"`
}

// ContactNotification tells a reviewer that a contact was added to a person
type ContactNotification struct {
	ProposalID   uuid.UUID   `json:"proposal_id"`
	ContactType  ContactType `json:"contact_type"`
	ContactValue string      `json:"contact_value"`
	PersonID     int64       `json:"person_id"`
}

// ConsolidateContactsRequest carries the contacts extracted for one named person
type ConsolidateContactsRequest struct {
	PersonName string     `json:"person_name" validate:"required"`
	PersonType PersonType `json:"person_type" validate:"omitempty,oneof=casting_director casting_assistant director producer agent other"`
	Phone      string     `json:"phone"`
	Email      string     `json:"email"`
	Telegram   string     `json:"telegram"`
}

type ResolveProposalRequest struct {
	Reviewer string `json:"reviewer"`
}
