package ai

import (
	"strings"
	"unicode/utf8"
)

// Context tags select the prompt template and normalization rules.
const (
	ContextBulletPoint         = "resume_bullet_point"
	ContextEducation           = "education_achievement"
	ContextSkills              = "skills_suggestion"
	ContextProjectDescription  = "project_description"
	ContextProjectTechnologies = "project_technologies"
	ContextCertification       = "certification_suggestion"
	ContextAboutMe             = "about_me_description"
)

const maxFieldLength = 500

// SuggestionRequest is the body of POST /api/ai-suggest. Which fields are
// read depends on Context.
type SuggestionRequest struct {
	Context string `json:"context" yaml:"context"`

	Company     string `json:"company,omitempty" yaml:"company,omitempty"`
	Position    string `json:"position,omitempty" yaml:"position,omitempty"`
	Duration    string `json:"duration,omitempty" yaml:"duration,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	Institution  string `json:"institution,omitempty" yaml:"institution,omitempty"`
	Degree       string `json:"degree,omitempty" yaml:"degree,omitempty"`
	FieldOfStudy string `json:"fieldOfStudy,omitempty" yaml:"fieldOfStudy,omitempty"`

	Industry       string `json:"industry,omitempty" yaml:"industry,omitempty"`
	ExistingSkills string `json:"existingSkills,omitempty" yaml:"existingSkills,omitempty"`

	ProjectName  string `json:"projectName,omitempty" yaml:"projectName,omitempty"`
	Technologies string `json:"technologies,omitempty" yaml:"technologies,omitempty"`

	Experience string `json:"experience,omitempty" yaml:"experience,omitempty"`
	Skills     string `json:"skills,omitempty" yaml:"skills,omitempty"`
}

// SuggestionResponse is the success body of POST /api/ai-suggest.
type SuggestionResponse struct {
	Suggestions []string `json:"suggestions"`
}

// Kind returns the effective context tag. Empty and unknown tags resolve to
// the bullet point context.
func (r SuggestionRequest) Kind() string {
	switch r.Context {
	case ContextEducation, ContextSkills, ContextProjectDescription,
		ContextProjectTechnologies, ContextCertification, ContextAboutMe:
		return r.Context
	default:
		return ContextBulletPoint
	}
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Validate checks the required fields for the request's context and the
// length of every free-form field.
func (r SuggestionRequest) Validate() error {
	switch r.Kind() {
	case ContextEducation:
		if blank(r.Institution) || blank(r.Degree) {
			field := "institution"
			if !blank(r.Institution) {
				field = "degree"
			}
			return &ValidationError{Field: field, Message: "Institution and degree are required for education suggestions"}
		}
	case ContextSkills:
		if blank(r.Position) {
			return &ValidationError{Field: "position", Message: "Position is required for skills suggestions"}
		}
	case ContextCertification:
		if blank(r.Position) {
			return &ValidationError{Field: "position", Message: "Position is required for certification suggestions"}
		}
	case ContextAboutMe:
		if blank(r.Position) {
			return &ValidationError{Field: "position", Message: "Position is required for about me suggestions"}
		}
	case ContextProjectDescription, ContextProjectTechnologies:
		if blank(r.ProjectName) {
			return &ValidationError{Field: "projectName", Message: "Project name is required for project suggestions"}
		}
	default:
		if blank(r.Company) || blank(r.Position) {
			field := "company"
			if !blank(r.Company) {
				field = "position"
			}
			return &ValidationError{Field: field, Message: "Company and position are required for bullet point suggestions"}
		}
	}

	for _, f := range r.fields() {
		if utf8.RuneCountInString(f.value) > maxFieldLength {
			return &ValidationError{Field: f.name, Message: f.name + " is too long (max 500 chars)"}
		}
	}
	return nil
}

type namedField struct {
	name  string
	value string
}

func (r SuggestionRequest) fields() []namedField {
	return []namedField{
		{"company", r.Company},
		{"position", r.Position},
		{"duration", r.Duration},
		{"description", r.Description},
		{"institution", r.Institution},
		{"degree", r.Degree},
		{"fieldOfStudy", r.FieldOfStudy},
		{"industry", r.Industry},
		{"existingSkills", r.ExistingSkills},
		{"projectName", r.ProjectName},
		{"technologies", r.Technologies},
		{"experience", r.Experience},
		{"skills", r.Skills},
	}
}
