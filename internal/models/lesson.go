package models

// LessonDetails is the full lesson content row from the platform's content
// store, attached to a current-lesson view on a best-effort basis.
type LessonDetails struct {
	LessonID        string  `json:"lesson_id"`
	SerieID         string  `json:"serie_id"`
	Title           string  `json:"title"`
	Description     *string `json:"description,omitempty"`
	VideoURL        *string `json:"video_url,omitempty"`
	Transcript      *string `json:"transcript,omitempty"`
	DurationSeconds *int    `json:"duration_seconds,omitempty"`
}
