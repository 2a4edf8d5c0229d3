package ai

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/resumebuilder/internal/config"
	"github.com/HammerMeetNail/resumebuilder/internal/logging"
	"github.com/HammerMeetNail/resumebuilder/internal/models"
)

const (
	stubModel         = "stub"
	usageWriteTimeout = 2 * time.Second
)

// UsageRecorder persists one row per suggestion attempt.
type UsageRecorder interface {
	RecordUsage(ctx context.Context, entry models.AIGenerationLog) error
}

// Service runs the suggestion pipeline:
// validate, build prompt, call the gateway, normalize.
type Service struct {
	gen   Generator
	usage UsageRecorder
	stub  bool
	model string
}

func NewService(cfg config.AIConfig, usage UsageRecorder) *Service {
	client := NewGeminiClient(cfg)
	return &Service{
		gen:   client,
		usage: usage,
		stub:  cfg.Stub,
		model: client.Model(),
	}
}

// NewServiceWithGenerator builds a Service around an arbitrary Generator.
func NewServiceWithGenerator(gen Generator, usage UsageRecorder) *Service {
	return &Service{gen: gen, usage: usage}
}

// Stubbed reports whether completions are canned instead of provider generated.
func (s *Service) Stubbed() bool {
	return s.stub
}

func (s *Service) Suggest(ctx context.Context, userID uuid.UUID, req SuggestionRequest) ([]string, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	kind := req.Kind()
	prompt := BuildPrompt(req)

	var (
		raw   string
		stats UsageStats
		err   error
	)
	if s.stub {
		raw, stats = stubCompletion(kind), UsageStats{Model: stubModel}
	} else {
		raw, stats, err = s.gen.Generate(ctx, prompt)
	}
	if err != nil {
		s.recordUsageWithTimeout(ctx, userID, kind, stats, err)
		return nil, err
	}

	suggestions := Normalize(raw, kind)
	if len(suggestions) == 0 {
		s.recordUsageWithTimeout(ctx, userID, kind, stats, ErrEmptyResult)
		logging.FromContext(ctx).Warn("AI completion produced no suggestions", map[string]interface{}{
			"context":         kind,
			"response_length": len(raw),
		})
		return nil, ErrEmptyResult
	}

	s.recordUsageWithTimeout(ctx, userID, kind, stats, nil)
	return suggestions, nil
}

// recordUsageWithTimeout writes the usage row on a context detached from the
// request so a cancelled request still gets logged.
func (s *Service) recordUsageWithTimeout(ctx context.Context, userID uuid.UUID, kind string, stats UsageStats, genErr error) {
	if s.usage == nil {
		return
	}
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), usageWriteTimeout)
	defer cancel()

	entry := models.AIGenerationLog{
		Context:      kind,
		Model:        stats.Model,
		TokensInput:  stats.TokensInput,
		TokensOutput: stats.TokensOutput,
		DurationMs:   stats.Duration.Milliseconds(),
		Status:       usageStatus(genErr),
	}
	if entry.Model == "" {
		entry.Model = s.model
	}
	if userID != uuid.Nil {
		id := userID
		entry.UserID = &id
	}

	if err := s.usage.RecordUsage(writeCtx, entry); err != nil {
		logging.FromContext(ctx).Error("Failed to log AI usage", map[string]interface{}{
			"error":   err.Error(),
			"user_id": userID.String(),
		})
	}
}

// stubCompletion returns a fixed completion shaped like the provider output
// for each context.
func stubCompletion(kind string) string {
	switch kind {
	case ContextSkills:
		return "Java, Spring Boot, PostgreSQL, Kafka, AWS, Leadership, Communication"
	case ContextProjectTechnologies:
		return "React, TypeScript, Node.js, PostgreSQL, Docker"
	case ContextProjectDescription:
		return "Built a full-stack web application that lets users track and share progress. " +
			"Implemented a REST API with authentication and a responsive frontend. " +
			"Deployed with containerized infrastructure and automated tests."
	case ContextAboutMe:
		return "Results-driven professional with a track record of delivering reliable software. " +
			"Skilled at turning ambiguous requirements into well-scoped solutions. " +
			"Known for clear communication and mentoring teammates."
	case ContextEducation:
		return "Graduated with honors while completing a rigorous course load\n" +
			"Led a capstone team that shipped a production-ready web application\n" +
			"Served as teaching assistant for an introductory programming course"
	case ContextCertification:
		return "AWS Certified Solutions Architect - Associate\n" +
			"Certified Kubernetes Administrator (CKA)\n" +
			"Professional Scrum Master I (PSM I)"
	default:
		return "Delivered key features that improved customer retention by 15%\n" +
			"Collaborated with cross-functional teams to ship releases on schedule\n" +
			"Streamlined internal processes, reducing manual work by 10 hours per week"
	}
}
