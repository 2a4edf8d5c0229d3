package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	DefaultResumeTitle    = "Untitled Resume"
	MaxResumeTitleLength  = 100
	DefaultResumeTemplate = "modern"
)

// ResumeTemplates lists the layouts the editor can render.
var ResumeTemplates = []string{"modern", "classic", "minimal"}

func IsValidTemplate(name string) bool {
	for _, t := range ResumeTemplates {
		if t == name {
			return true
		}
	}
	return false
}

type PersonalInfo struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Location string `json:"location,omitempty"`
	Website  string `json:"website,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
	GitHub   string `json:"github,omitempty"`
}

type Experience struct {
	Company     string   `json:"company"`
	Position    string   `json:"position"`
	StartDate   string   `json:"startDate,omitempty"`
	EndDate     string   `json:"endDate,omitempty"`
	Current     bool     `json:"current,omitempty"`
	Description string   `json:"description,omitempty"`
	Bullets     []string `json:"bullets,omitempty"`
}

type Education struct {
	Institution  string   `json:"institution"`
	Degree       string   `json:"degree"`
	FieldOfStudy string   `json:"fieldOfStudy,omitempty"`
	StartDate    string   `json:"startDate,omitempty"`
	EndDate      string   `json:"endDate,omitempty"`
	Achievements []string `json:"achievements,omitempty"`
}

type Project struct {
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Technologies []string `json:"technologies,omitempty"`
	URL          string   `json:"url,omitempty"`
}

type Certification struct {
	Name   string `json:"name"`
	Issuer string `json:"issuer,omitempty"`
	Date   string `json:"date,omitempty"`
}

type Resume struct {
	ID             uuid.UUID       `json:"id"`
	UserID         uuid.UUID       `json:"user_id"`
	Title          string          `json:"title"`
	Template       string          `json:"template"`
	PersonalInfo   PersonalInfo    `json:"personalInfo"`
	AboutMe        string          `json:"aboutMe"`
	Experiences    []Experience    `json:"experiences"`
	Education      []Education     `json:"education"`
	Skills         []string        `json:"skills"`
	Projects       []Project       `json:"projects"`
	Certifications []Certification `json:"certifications"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ResumeContent is the editable part of a resume, used for create and update.
type ResumeContent struct {
	Title          string          `json:"title"`
	Template       string          `json:"template"`
	PersonalInfo   PersonalInfo    `json:"personalInfo"`
	AboutMe        string          `json:"aboutMe"`
	Experiences    []Experience    `json:"experiences"`
	Education      []Education     `json:"education"`
	Skills         []string        `json:"skills"`
	Projects       []Project       `json:"projects"`
	Certifications []Certification `json:"certifications"`
}

// Normalize applies the title and template defaults.
func (c *ResumeContent) Normalize() {
	if c.Title == "" {
		c.Title = DefaultResumeTitle
	}
	if c.Template == "" {
		c.Template = DefaultResumeTemplate
	}
	if c.Experiences == nil {
		c.Experiences = []Experience{}
	}
	if c.Education == nil {
		c.Education = []Education{}
	}
	if c.Skills == nil {
		c.Skills = []string{}
	}
	if c.Projects == nil {
		c.Projects = []Project{}
	}
	if c.Certifications == nil {
		c.Certifications = []Certification{}
	}
}

// AIGenerationLog is one row of ai_generation_logs.
type AIGenerationLog struct {
	UserID       *uuid.UUID
	Context      string
	Model        string
	TokensInput  int
	TokensOutput int
	DurationMs   int64
	Status       string
}
