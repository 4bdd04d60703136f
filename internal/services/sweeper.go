package services

import (
	"context"
	"log"
	"time"

	"educonnect-tracking/internal/repository"
)

const sweepInterval = 1 * time.Hour

// StaleTabSweeper periodically removes tab entries that have not reported
// activity within the configured threshold. Browsers that crash or lose
// connectivity never send an exit, so without the sweeper their tabs would
// sit in tracking records until the record TTL expires.
type StaleTabSweeper struct {
	store      repository.TrackingStore
	tracking   *TrackingService
	staleAfter time.Duration
	stopChan   chan struct{}
}

func NewStaleTabSweeper(store repository.TrackingStore, tracking *TrackingService, staleAfter time.Duration) *StaleTabSweeper {
	return &StaleTabSweeper{
		store:      store,
		tracking:   tracking,
		staleAfter: staleAfter,
		stopChan:   make(chan struct{}),
	}
}

// Start launches the sweep loop. A non-positive threshold disables sweeping.
func (s *StaleTabSweeper) Start() {
	if s.staleAfter <= 0 {
		log.Println("Stale tab sweeper disabled")
		return
	}
	go s.run()
	log.Printf("Stale tab sweeper started (threshold %s, interval %s)", s.staleAfter, sweepInterval)
}

func (s *StaleTabSweeper) Stop() {
	select {
	case <-s.stopChan:
	default:
		close(s.stopChan)
	}
}

func (s *StaleTabSweeper) run() {
	// Sweep once at startup, then on the interval.
	s.sweep(context.Background())

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.sweep(context.Background())
		}
	}
}

func (s *StaleTabSweeper) sweep(ctx context.Context) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		log.Printf("Stale tab sweep skipped: %v", err)
		return
	}

	removedTotal := 0
	for _, userID := range users {
		removed, _, err := s.tracking.PruneStale(ctx, userID, s.staleAfter)
		if err != nil {
			log.Printf("Stale tab sweep failed for user %s: %v", userID, err)
			continue
		}
		removedTotal += removed
	}

	if removedTotal > 0 {
		log.Printf("Stale tab sweep removed %d tab(s) across %d user(s)", removedTotal, len(users))
	}
}
