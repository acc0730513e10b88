package models

import "time"

// Person is a catalog contact: casting director, producer, agent and so on
type Person struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	PersonType PersonType `json:"person_type"`
	Contacts   ContactSet `json:"contacts"`
	IsActive   bool       `json:"is_active"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
}

func (p *Person) RecordID() int64    { return p.ID }
func (p *Person) Category() Category { return CategoryPerson }
func (p *Person) Subtype() string    { return string(p.PersonType) }

// Field returns the name or the first stored value of a contact list.
func (p *Person) Field(name string) (string, bool) {
	if name == "name" {
		return p.Name, p.Name != ""
	}
	values := p.FieldValues(name)
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// FieldValues exposes the contact lists so a query phone can match any stored phone.
func (p *Person) FieldValues(name string) []string {
	switch name {
	case "name":
		if p.Name == "" {
			return nil
		}
		return []string{p.Name}
	case "phone":
		return p.Contacts.Phones
	case "email":
		return p.Contacts.Emails
	case "telegram":
		return p.Contacts.Telegrams
	}
	return nil
}

func (p *Person) Attributes() map[string]string {
	return map[string]string{"person_type": string(p.PersonType)}
}

type CreatePersonRequest struct {
	Name       string     `json:"name" validate:"required"`
	PersonType PersonType `json:"person_type" validate:"required,oneof=casting_director casting_assistant director producer agent other"`
	Contacts   ContactSet `json:"contacts"`
}
