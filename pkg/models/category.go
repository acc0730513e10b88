package models

import "strings"

// Category is a kind of catalog record that can be matched
type Category string

const (
	CategoryCompany Category = "company"
	CategoryProject Category = "project"
	CategoryPerson  Category = "person"
)

// Categories lists every matchable category
var Categories = []Category{CategoryCompany, CategoryProject, CategoryPerson}

// ParseCategory accepts singular or plural spellings ("company", "companies").
func ParseCategory(s string) (Category, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "company", "companies":
		return CategoryCompany, true
	case "project", "projects":
		return CategoryProject, true
	case "person", "persons", "people":
		return CategoryPerson, true
	}
	return "", false
}

// Confidence is the label attached to a match candidate
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// CompanyType is the subtype used for company thresholds
type CompanyType string

const (
	CompanyTypeProduction    CompanyType = "production"
	CompanyTypeDistribution  CompanyType = "distribution"
	CompanyTypeCastingAgency CompanyType = "casting_agency"
	CompanyTypeAdvertising   CompanyType = "advertising"
	CompanyTypeStreaming     CompanyType = "streaming"
	CompanyTypeTheater       CompanyType = "theater"
	CompanyTypeOther         CompanyType = "other"
)

var CompanyTypes = []CompanyType{
	CompanyTypeProduction, CompanyTypeDistribution, CompanyTypeCastingAgency,
	CompanyTypeAdvertising, CompanyTypeStreaming, CompanyTypeTheater, CompanyTypeOther,
}

// ProjectStatus is the subtype used for project thresholds
type ProjectStatus string

const (
	ProjectStatusPlanning       ProjectStatus = "planning"
	ProjectStatusPreProduction  ProjectStatus = "pre_production"
	ProjectStatusInProduction   ProjectStatus = "in_production"
	ProjectStatusPostProduction ProjectStatus = "post_production"
	ProjectStatusCompleted      ProjectStatus = "completed"
	ProjectStatusCancelled      ProjectStatus = "cancelled"
)

var ProjectStatuses = []ProjectStatus{
	ProjectStatusPlanning, ProjectStatusPreProduction, ProjectStatusInProduction,
	ProjectStatusPostProduction, ProjectStatusCompleted, ProjectStatusCancelled,
}

type ProjectType string

const (
	ProjectTypeFeatureFilm ProjectType = "feature_film"
	ProjectTypeSeries      ProjectType = "series"
	ProjectTypeCommercial  ProjectType = "commercial"
	ProjectTypeMusicVideo  ProjectType = "music_video"
	ProjectTypeTheater     ProjectType = "theater"
	ProjectTypeShortFilm   ProjectType = "short_film"
	ProjectTypeOther       ProjectType = "other"
)

var ProjectTypes = []ProjectType{
	ProjectTypeFeatureFilm, ProjectTypeSeries, ProjectTypeCommercial, ProjectTypeMusicVideo,
	ProjectTypeTheater, ProjectTypeShortFilm, ProjectTypeOther,
}

// PersonType is the subtype used for person thresholds
type PersonType string

const (
	PersonTypeCastingDirector  PersonType = "casting_director"
	PersonTypeCastingAssistant PersonType = "casting_assistant"
	PersonTypeDirector         PersonType = "director"
	PersonTypeProducer         PersonType = "producer"
	PersonTypeAgent            PersonType = "agent"
	PersonTypeOther            PersonType = "other"
)

var PersonTypes = []PersonType{
	PersonTypeCastingDirector, PersonTypeCastingAssistant, PersonTypeDirector,
	PersonTypeProducer, PersonTypeAgent, PersonTypeOther,
}

// Subtypes returns the allowed subtype values of a category.
func Subtypes(category Category) []string {
	var out []string
	switch category {
	case CategoryCompany:
		for _, t := range CompanyTypes {
			out = append(out, string(t))
		}
	case CategoryProject:
		for _, s := range ProjectStatuses {
			out = append(out, string(s))
		}
	case CategoryPerson:
		for _, t := range PersonTypes {
			out = append(out, string(t))
		}
	}
	return out
}
