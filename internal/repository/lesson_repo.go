package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"educonnect-tracking/internal/models"
)

// LessonRepo reads lesson content from the platform's database. It is a
// read-only dependency used to enrich current-lesson responses; the
// tracking service never writes to these tables.
type LessonRepo struct {
	pool *pgxpool.Pool
}

func NewLessonRepo(pool *pgxpool.Pool) *LessonRepo {
	return &LessonRepo{pool: pool}
}

// FetchLessonDetails looks up the full lesson row by serie and lesson id.
// Returns (nil, nil) when no such lesson exists.
func (r *LessonRepo) FetchLessonDetails(ctx context.Context, serieID, lessonID string) (*models.LessonDetails, error) {
	details := &models.LessonDetails{
		LessonID: lessonID,
		SerieID:  serieID,
	}

	query := `SELECT title, description, video_url, transcript, duration_seconds
		FROM lessons WHERE serie_id = $1 AND lesson_id = $2`

	err := r.pool.QueryRow(ctx, query, serieID, lessonID).Scan(
		&details.Title,
		&details.Description,
		&details.VideoURL,
		&details.Transcript,
		&details.DurationSeconds,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return details, nil
}
