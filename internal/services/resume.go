package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/HammerMeetNail/resumebuilder/internal/models"
)

var (
	ErrResumeNotFound  = errors.New("resume not found")
	ErrTitleTooLong    = errors.New("title must be 100 characters or fewer")
	ErrInvalidTemplate = errors.New("template must be one of modern, classic, minimal")
)

const resumeColumns = `id, user_id, title, template, personal_info, about_me,
	experiences, education, skills, projects, certifications, created_at, updated_at`

type ResumeService struct {
	db DBConn
}

func NewResumeService(db DBConn) *ResumeService {
	return &ResumeService{db: db}
}

func validateResumeContent(c *models.ResumeContent) error {
	c.Title = strings.TrimSpace(c.Title)
	c.Normalize()
	if utf8.RuneCountInString(c.Title) > models.MaxResumeTitleLength {
		return ErrTitleTooLong
	}
	if !models.IsValidTemplate(c.Template) {
		return ErrInvalidTemplate
	}
	return nil
}

// encodedSections holds the JSONB columns of a resume in insert order.
type encodedSections struct {
	personalInfo, experiences, education, skills, projects, certifications []byte
}

func encodeSections(c models.ResumeContent) (encodedSections, error) {
	var out encodedSections
	var err error
	fields := []struct {
		dst *[]byte
		src any
	}{
		{&out.personalInfo, c.PersonalInfo},
		{&out.experiences, c.Experiences},
		{&out.education, c.Education},
		{&out.skills, c.Skills},
		{&out.projects, c.Projects},
		{&out.certifications, c.Certifications},
	}
	for _, f := range fields {
		if *f.dst, err = json.Marshal(f.src); err != nil {
			return out, fmt.Errorf("encoding resume sections: %w", err)
		}
	}
	return out, nil
}

func scanResume(row Row) (*models.Resume, error) {
	r := &models.Resume{}
	var sec encodedSections
	err := row.Scan(&r.ID, &r.UserID, &r.Title, &r.Template, &sec.personalInfo, &r.AboutMe,
		&sec.experiences, &sec.education, &sec.skills, &sec.projects, &sec.certifications,
		&r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}

	fields := []struct {
		src []byte
		dst any
	}{
		{sec.personalInfo, &r.PersonalInfo},
		{sec.experiences, &r.Experiences},
		{sec.education, &r.Education},
		{sec.skills, &r.Skills},
		{sec.projects, &r.Projects},
		{sec.certifications, &r.Certifications},
	}
	for _, f := range fields {
		if len(f.src) == 0 {
			continue
		}
		if err := json.Unmarshal(f.src, f.dst); err != nil {
			return nil, fmt.Errorf("decoding resume sections: %w", err)
		}
	}
	return r, nil
}

func (s *ResumeService) Create(ctx context.Context, userID uuid.UUID, content models.ResumeContent) (*models.Resume, error) {
	if err := validateResumeContent(&content); err != nil {
		return nil, err
	}
	sec, err := encodeSections(content)
	if err != nil {
		return nil, err
	}

	resume, err := scanResume(s.db.QueryRow(ctx,
		`INSERT INTO resumes (user_id, title, template, personal_info, about_me,
			experiences, education, skills, projects, certifications)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING `+resumeColumns,
		userID, content.Title, content.Template, sec.personalInfo, content.AboutMe,
		sec.experiences, sec.education, sec.skills, sec.projects, sec.certifications,
	))
	if err != nil {
		return nil, fmt.Errorf("creating resume: %w", err)
	}
	return resume, nil
}

func (s *ResumeService) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Resume, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+resumeColumns+` FROM resumes WHERE user_id = $1 ORDER BY updated_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing resumes: %w", err)
	}
	defer rows.Close()

	resumes := []*models.Resume{}
	for rows.Next() {
		r, err := scanResume(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning resume: %w", err)
		}
		resumes = append(resumes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating resumes: %w", err)
	}
	return resumes, nil
}

// Get returns the resume only when userID owns it.
func (s *ResumeService) Get(ctx context.Context, userID, resumeID uuid.UUID) (*models.Resume, error) {
	r, err := scanResume(s.db.QueryRow(ctx,
		`SELECT `+resumeColumns+` FROM resumes WHERE id = $1 AND user_id = $2`,
		resumeID, userID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrResumeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting resume: %w", err)
	}
	return r, nil
}

func (s *ResumeService) Update(ctx context.Context, userID, resumeID uuid.UUID, content models.ResumeContent) (*models.Resume, error) {
	if err := validateResumeContent(&content); err != nil {
		return nil, err
	}
	sec, err := encodeSections(content)
	if err != nil {
		return nil, err
	}

	r, err := scanResume(s.db.QueryRow(ctx,
		`UPDATE resumes SET title = $3, template = $4, personal_info = $5, about_me = $6,
			experiences = $7, education = $8, skills = $9, projects = $10, certifications = $11,
			updated_at = NOW()
		 WHERE id = $1 AND user_id = $2
		 RETURNING `+resumeColumns,
		resumeID, userID, content.Title, content.Template, sec.personalInfo, content.AboutMe,
		sec.experiences, sec.education, sec.skills, sec.projects, sec.certifications,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrResumeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("updating resume: %w", err)
	}
	return r, nil
}

func (s *ResumeService) Delete(ctx context.Context, userID, resumeID uuid.UUID) error {
	result, err := s.db.Exec(ctx, `DELETE FROM resumes WHERE id = $1 AND user_id = $2`, resumeID, userID)
	if err != nil {
		return fmt.Errorf("deleting resume: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrResumeNotFound
	}
	return nil
}
