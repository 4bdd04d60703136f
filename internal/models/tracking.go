package models

import (
	"time"
)

// ActiveLesson is one browser tab's currently open lesson.
type ActiveLesson struct {
	LessonID    string    `json:"lesson_id"`
	SerieID     string    `json:"serie_id"`
	LessonTitle string    `json:"lesson_title,omitempty"`
	TabID       string    `json:"tab_id"`
	LastActive  time.Time `json:"last_active"`
}

// TrackingRecord is the per-user tracking document, one per user_id.
// CurrentLesson is a copy of the focused entry in ActiveLessons, never a
// reference into the slice. A record with no active lessons is never
// persisted; it is deleted instead.
type TrackingRecord struct {
	UserID        string         `json:"user_id"`
	ActiveLessons []ActiveLesson `json:"active_lessons"`
	CurrentLesson *ActiveLesson  `json:"current_lesson,omitempty"`
	LastUpdated   time.Time      `json:"last_updated"`
}

// Clone returns a deep copy that shares no memory with the receiver.
func (r *TrackingRecord) Clone() *TrackingRecord {
	if r == nil {
		return nil
	}
	cp := &TrackingRecord{
		UserID:      r.UserID,
		LastUpdated: r.LastUpdated,
	}
	if r.ActiveLessons != nil {
		cp.ActiveLessons = make([]ActiveLesson, len(r.ActiveLessons))
		copy(cp.ActiveLessons, r.ActiveLessons)
	}
	if r.CurrentLesson != nil {
		focused := *r.CurrentLesson
		cp.CurrentLesson = &focused
	}
	return cp
}

type EnterLessonRequest struct {
	UserID      string `json:"user_id"`
	LessonID    string `json:"lesson_id"`
	SerieID     string `json:"serie_id"`
	LessonTitle string `json:"lesson_title,omitempty"`
	TabID       string `json:"tab_id"`
}

type ExitLessonRequest struct {
	UserID string `json:"user_id"`
	TabID  string `json:"tab_id"`
}

type UpdateFocusRequest struct {
	UserID string `json:"user_id"`
	TabID  string `json:"tab_id"`
}

// CurrentLessonResponse describes the focused tab for the chatbot. When the
// user is in no lesson only UserID and IsInLesson=false are meaningful.
type CurrentLessonResponse struct {
	UserID          string         `json:"user_id"`
	LessonID        string         `json:"lesson_id,omitempty"`
	SerieID         string         `json:"serie_id,omitempty"`
	LessonTitle     string         `json:"lesson_title,omitempty"`
	LastUpdated     *time.Time     `json:"last_updated,omitempty"`
	IsInLesson      bool           `json:"is_in_lesson"`
	ActiveLessons   []ActiveLesson `json:"active_lessons"`
	TotalActiveTabs int            `json:"total_active_tabs"`
	LessonDetails   *LessonDetails `json:"lesson_details,omitempty"`
}

// TrackingUpdate is the payload pushed over the websocket feed whenever a
// user's tracking state changes.
type TrackingUpdate struct {
	UserID          string     `json:"user_id"`
	LessonID        string     `json:"lesson_id,omitempty"`
	SerieID         string     `json:"serie_id,omitempty"`
	LessonTitle     string     `json:"lesson_title,omitempty"`
	TabID           string     `json:"tab_id,omitempty"`
	IsInLesson      bool       `json:"is_in_lesson"`
	TotalActiveTabs int        `json:"total_active_tabs"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty"`
}
