package services

import (
	"context"
	"fmt"
	"time"

	"github.com/HammerMeetNail/resumebuilder/internal/models"
)

// UsageLogService stores one ai_generation_logs row per suggestion attempt.
type UsageLogService struct {
	db DBConn
}

func NewUsageLogService(db DBConn) *UsageLogService {
	return &UsageLogService{db: db}
}

func (s *UsageLogService) RecordUsage(ctx context.Context, entry models.AIGenerationLog) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO ai_generation_logs (user_id, context, model, tokens_input, tokens_output, duration_ms, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, entry.UserID, entry.Context, entry.Model, entry.TokensInput, entry.TokensOutput, entry.DurationMs, entry.Status)
	if err != nil {
		return fmt.Errorf("recording ai usage: %w", err)
	}
	return nil
}

// PurgeOlderThan deletes usage rows created before cutoff.
func (s *UsageLogService) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.Exec(ctx, `DELETE FROM ai_generation_logs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purging ai usage logs: %w", err)
	}
	return result.RowsAffected(), nil
}
