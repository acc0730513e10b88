package models

import "time"

// Project is a film, series, commercial or stage production
type Project struct {
	ID          int64         `json:"id" db:"id"`
	Title       string        `json:"title" db:"title"`
	Description string        `json:"description" db:"description"`
	ProjectType ProjectType   `json:"project_type" db:"project_type"`
	Status      ProjectStatus `json:"status" db:"status"`
	CompanyID   *int64        `json:"company_id,omitempty" db:"company_id"`
	IsActive    bool          `json:"is_active" db:"is_active"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" db:"updated_at"`
	DeletedAt   *time.Time    `json:"deleted_at,omitempty" db:"deleted_at"`
}

func (p *Project) RecordID() int64    { return p.ID }
func (p *Project) Category() Category { return CategoryProject }

// Subtype is the production status; project thresholds are keyed by status.
func (p *Project) Subtype() string { return string(p.Status) }

func (p *Project) Field(name string) (string, bool) {
	switch name {
	case "title":
		return p.Title, p.Title != ""
	case "description":
		return p.Description, p.Description != ""
	}
	return "", false
}

func (p *Project) Attributes() map[string]string {
	return map[string]string{
		"status":       string(p.Status),
		"project_type": string(p.ProjectType),
	}
}

type CreateProjectRequest struct {
	Title       string        `json:"title" validate:"required"`
	Description string        `json:"description"`
	ProjectType ProjectType   `json:"project_type" validate:"required,oneof=feature_film series commercial music_video theater short_film other"`
	Status      ProjectStatus `json:"status" validate:"required,oneof=planning pre_production in_production post_production completed cancelled"`
	CompanyID   *int64        `json:"company_id,omitempty"`
}
