package services

import (
	"context"
	"log"
	"time"

	"educonnect-tracking/internal/models"
	"educonnect-tracking/internal/repository"
)

// TrackingService is the lesson-focus state machine. Every operation is one
// read-modify-write cycle against a single user's record: load the record,
// apply a pure transition, persist the result. Transitions never mutate the
// loaded record; they build a fresh one, so the race window between the read
// and the write is exactly the store's last-writer-wins boundary and nothing
// else.
type TrackingService struct {
	store  repository.TrackingStore
	events eventPublisher
	now    func() time.Time
}

// eventPublisher pushes best-effort tracking updates to subscribers.
type eventPublisher interface {
	PublishTrackingEvent(ctx context.Context, userID string, msg models.WSMessage)
}

// NewTrackingService wires the state machine to its store and the optional
// event publisher (nil disables publishing).
func NewTrackingService(store repository.TrackingStore, events eventPublisher) *TrackingService {
	return &TrackingService{
		store:  store,
		events: events,
		now:    utcNow,
	}
}

func utcNow() time.Time {
	return time.Now().UTC()
}

// FocusResult reports an operation that left a tab focused.
type FocusResult struct {
	Entry     models.ActiveLesson
	TotalTabs int
}

// ExitResult reports the outcome of removing a tab. Exactly one of
// NothingToClear / AllCleared / RemainingTabs>0 describes the record's fate.
type ExitResult struct {
	NothingToClear bool
	AllCleared     bool
	RemainingTabs  int
}

// EnterLesson records that a tab opened a lesson. The tab's previous entry
// (if any) is replaced and focus always moves to the new entry, regardless
// of which tab held it before.
func (s *TrackingService) EnterLesson(ctx context.Context, req models.EnterLessonRequest) (*FocusResult, error) {
	fields := make(map[string]string)
	if req.UserID == "" {
		fields["user_id"] = "user_id is required"
	}
	if req.LessonID == "" {
		fields["lesson_id"] = "lesson_id is required"
	}
	if req.SerieID == "" {
		fields["serie_id"] = "serie_id is required"
	}
	if req.TabID == "" {
		fields["tab_id"] = "tab_id is required"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	record, err := s.store.Get(ctx, req.UserID)
	if err != nil {
		return nil, &StoreError{Message: "Failed to load tracking data", Err: err}
	}

	now := s.now()
	entry := models.ActiveLesson{
		LessonID:    req.LessonID,
		SerieID:     req.SerieID,
		LessonTitle: req.LessonTitle,
		TabID:       req.TabID,
		LastActive:  now,
	}
	next := enterTransition(record, req.UserID, entry, now)

	if err := s.store.Save(ctx, next); err != nil {
		return nil, &StoreError{Message: "Failed to save tracking data", Err: err}
	}

	log.Printf("Set current lesson for user %s: %s (tab %s)", req.UserID, req.LessonID, req.TabID)
	s.publish(ctx, "lesson_entered", req.UserID, next)

	return &FocusResult{Entry: entry, TotalTabs: len(next.ActiveLessons)}, nil
}

// ExitLesson removes a tab's entry. A user with no record is a no-op
// success: there is nothing to clear and that is fine. Removing the last
// entry deletes the whole record; otherwise focus is re-elected among the
// survivors. Re-election runs on every exit, focused tab or not.
func (s *TrackingService) ExitLesson(ctx context.Context, req models.ExitLessonRequest) (*ExitResult, error) {
	fields := make(map[string]string)
	if req.UserID == "" {
		fields["user_id"] = "user_id is required"
	}
	if req.TabID == "" {
		fields["tab_id"] = "tab_id is required"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	record, err := s.store.Get(ctx, req.UserID)
	if err != nil {
		return nil, &StoreError{Message: "Failed to load tracking data", Err: err}
	}
	if record == nil {
		log.Printf("No active lessons to clear for user %s", req.UserID)
		return &ExitResult{NothingToClear: true}, nil
	}

	next := exitTransition(record, req.TabID, s.now())
	if next == nil {
		if err := s.store.Delete(ctx, req.UserID); err != nil {
			return nil, &StoreError{Message: "Failed to clear tracking data", Err: err}
		}
		log.Printf("Cleared all lessons for user %s", req.UserID)
		s.publish(ctx, "tracking_cleared", req.UserID, nil)
		return &ExitResult{AllCleared: true}, nil
	}

	if err := s.store.Save(ctx, next); err != nil {
		return nil, &StoreError{Message: "Failed to save tracking data", Err: err}
	}

	log.Printf("Exited lesson for user %s (tab %s), %d tab(s) remain", req.UserID, req.TabID, len(next.ActiveLessons))
	s.publish(ctx, "lesson_exited", req.UserID, next)

	return &ExitResult{RemainingTabs: len(next.ActiveLessons)}, nil
}

// UpdateFocus marks an already-open tab as the focused one and refreshes its
// last_active. Unknown users and unknown tabs are NotFoundError; the record
// is left untouched in both cases.
func (s *TrackingService) UpdateFocus(ctx context.Context, req models.UpdateFocusRequest) (*FocusResult, error) {
	fields := make(map[string]string)
	if req.UserID == "" {
		fields["user_id"] = "user_id is required"
	}
	if req.TabID == "" {
		fields["tab_id"] = "tab_id is required"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	record, err := s.store.Get(ctx, req.UserID)
	if err != nil {
		return nil, &StoreError{Message: "Failed to load tracking data", Err: err}
	}
	if record == nil {
		return nil, &NotFoundError{Message: "No tracking data found for user"}
	}

	next, found := focusTransition(record, req.TabID, s.now())
	if !found {
		return nil, &NotFoundError{Message: "Tab not found in active lessons"}
	}

	if err := s.store.Save(ctx, next); err != nil {
		return nil, &StoreError{Message: "Failed to save tracking data", Err: err}
	}

	log.Printf("Updated focus for user %s to tab %s", req.UserID, req.TabID)
	s.publish(ctx, "focus_changed", req.UserID, next)

	return &FocusResult{Entry: *next.CurrentLesson, TotalTabs: len(next.ActiveLessons)}, nil
}

// GetCurrent returns the user's record when a focused lesson exists, nil
// when the user is in no lesson. Read-only; a missing user is a normal
// answer here, never an error.
func (s *TrackingService) GetCurrent(ctx context.Context, userID string) (*models.TrackingRecord, error) {
	if userID == "" {
		return nil, &ValidationError{Fields: map[string]string{"user_id": "user_id is required"}}
	}

	record, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, &StoreError{Message: "Failed to load tracking data", Err: err}
	}
	if record == nil || record.CurrentLesson == nil {
		return nil, nil
	}
	return record, nil
}

// PruneStale drops every entry whose last_active is older than staleAfter,
// then applies the usual rules: empty record deleted, otherwise focus
// re-elected. Returns how many entries were removed and how many remain.
func (s *TrackingService) PruneStale(ctx context.Context, userID string, staleAfter time.Duration) (removed, remaining int, err error) {
	if userID == "" {
		return 0, 0, &ValidationError{Fields: map[string]string{"user_id": "user_id is required"}}
	}

	record, loadErr := s.store.Get(ctx, userID)
	if loadErr != nil {
		return 0, 0, &StoreError{Message: "Failed to load tracking data", Err: loadErr}
	}
	if record == nil {
		return 0, 0, nil
	}

	now := s.now()
	next, removed := pruneTransition(record, now.Add(-staleAfter), now)
	if removed == 0 {
		return 0, len(record.ActiveLessons), nil
	}

	if next == nil {
		if err := s.store.Delete(ctx, userID); err != nil {
			return 0, 0, &StoreError{Message: "Failed to clear tracking data", Err: err}
		}
		s.publish(ctx, "tracking_cleared", userID, nil)
		return removed, 0, nil
	}

	if err := s.store.Save(ctx, next); err != nil {
		return 0, 0, &StoreError{Message: "Failed to save tracking data", Err: err}
	}
	s.publish(ctx, "focus_changed", userID, next)
	return removed, len(next.ActiveLessons), nil
}

// ─── Transitions ───
//
// All transitions build a new record value; the input record is read, never
// written. A nil return from exitTransition/pruneTransition means the record
// emptied out and must be deleted.

// enterTransition replaces any entry with the same tab_id, appends the new
// entry and focuses it.
func enterTransition(record *models.TrackingRecord, userID string, entry models.ActiveLesson, now time.Time) *models.TrackingRecord {
	next := &models.TrackingRecord{UserID: userID, LastUpdated: now}
	if record != nil {
		for _, lesson := range record.ActiveLessons {
			if lesson.TabID != entry.TabID {
				next.ActiveLessons = append(next.ActiveLessons, lesson)
			}
		}
	}
	next.ActiveLessons = append(next.ActiveLessons, entry)

	focused := entry
	next.CurrentLesson = &focused
	return next
}

// exitTransition removes the tab's entry (a no-op when the tab is unknown)
// and re-elects focus among whatever remains.
func exitTransition(record *models.TrackingRecord, tabID string, now time.Time) *models.TrackingRecord {
	next := &models.TrackingRecord{UserID: record.UserID, LastUpdated: now}
	for _, lesson := range record.ActiveLessons {
		if lesson.TabID != tabID {
			next.ActiveLessons = append(next.ActiveLessons, lesson)
		}
	}
	if len(next.ActiveLessons) == 0 {
		return nil
	}
	next.CurrentLesson = electFocus(next.ActiveLessons)
	return next
}

// focusTransition refreshes the tab's last_active and focuses it. The
// second return is false when the tab has no entry.
func focusTransition(record *models.TrackingRecord, tabID string, now time.Time) (*models.TrackingRecord, bool) {
	next := &models.TrackingRecord{UserID: record.UserID, LastUpdated: now}
	var focused models.ActiveLesson
	found := false
	for _, lesson := range record.ActiveLessons {
		if lesson.TabID == tabID {
			lesson.LastActive = now
			focused = lesson
			found = true
		}
		next.ActiveLessons = append(next.ActiveLessons, lesson)
	}
	if !found {
		return nil, false
	}
	next.CurrentLesson = &focused
	return next, true
}

// pruneTransition drops entries last active before the cutoff. Returns the
// new record (nil when every entry was stale) and the removal count; with
// zero removals the caller must treat the record as untouched.
func pruneTransition(record *models.TrackingRecord, cutoff, now time.Time) (*models.TrackingRecord, int) {
	next := &models.TrackingRecord{UserID: record.UserID, LastUpdated: now}
	removed := 0
	for _, lesson := range record.ActiveLessons {
		if lesson.LastActive.Before(cutoff) {
			removed++
			continue
		}
		next.ActiveLessons = append(next.ActiveLessons, lesson)
	}
	if removed == 0 {
		return nil, 0
	}
	if len(next.ActiveLessons) == 0 {
		return nil, removed
	}
	next.CurrentLesson = electFocus(next.ActiveLessons)
	return next, removed
}

// electFocus picks the entry with the greatest last_active. Ties keep the
// first such entry in insertion order, which makes re-election
// deterministic.
func electFocus(lessons []models.ActiveLesson) *models.ActiveLesson {
	best := lessons[0]
	for _, lesson := range lessons[1:] {
		if lesson.LastActive.After(best.LastActive) {
			best = lesson
		}
	}
	return &best
}

func (s *TrackingService) publish(ctx context.Context, eventType, userID string, record *models.TrackingRecord) {
	if s.events == nil {
		return
	}

	update := models.TrackingUpdate{UserID: userID}
	if record != nil && record.CurrentLesson != nil {
		update.LessonID = record.CurrentLesson.LessonID
		update.SerieID = record.CurrentLesson.SerieID
		update.LessonTitle = record.CurrentLesson.LessonTitle
		update.TabID = record.CurrentLesson.TabID
		update.IsInLesson = true
		update.TotalActiveTabs = len(record.ActiveLessons)
		updatedAt := record.LastUpdated
		update.UpdatedAt = &updatedAt
	}

	s.events.PublishTrackingEvent(ctx, userID, models.WSMessage{Type: eventType, Payload: update})
}

// ─── Service errors ───

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "Validation error" }

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

// StoreError wraps a persistence failure. The message is safe to show to
// callers; the wrapped cause is for logs.
type StoreError struct {
	Message string
	Err     error
}

func (e *StoreError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *StoreError) Unwrap() error { return e.Err }
