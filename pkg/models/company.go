package models

import "time"

// Company is a production house, distributor, agency or other studio in the catalog
type Company struct {
	ID          int64       `json:"id" db:"id"`
	Name        string      `json:"name" db:"name"`
	Email       string      `json:"email" db:"email"`
	Phone       string      `json:"phone" db:"phone"`
	Website     string      `json:"website" db:"website"`
	Description string      `json:"description" db:"description"`
	CompanyType CompanyType `json:"company_type" db:"company_type"`
	IsActive    bool        `json:"is_active" db:"is_active"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
	DeletedAt   *time.Time  `json:"deleted_at,omitempty" db:"deleted_at"`
}

func (c *Company) RecordID() int64    { return c.ID }
func (c *Company) Category() Category { return CategoryCompany }
func (c *Company) Subtype() string    { return string(c.CompanyType) }

func (c *Company) Field(name string) (string, bool) {
	switch name {
	case "name":
		return c.Name, c.Name != ""
	case "email":
		return c.Email, c.Email != ""
	case "phone":
		return c.Phone, c.Phone != ""
	case "website":
		return c.Website, c.Website != ""
	case "description":
		return c.Description, c.Description != ""
	}
	return "", false
}

func (c *Company) Attributes() map[string]string {
	return map[string]string{"company_type": string(c.CompanyType)}
}

// CreateCompanyRequest is the request to add a company to the catalog
type CreateCompanyRequest struct {
	Name        string      `json:"name" validate:"required"`
	Email       string      `json:"email" validate:"omitempty,email"`
	Phone       string      `json:"phone"`
	Website     string      `json:"website"`
	Description string      `json:"description"`
	CompanyType CompanyType `json:"company_type" validate:"required,oneof=production distribution casting_agency advertising streaming theater other"`
}
