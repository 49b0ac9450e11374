// Package expiration implements the retention sweeper, a background task
// that removes files and registry records past their expiration time.
package expiration

import (
	"log"
	"os"
	"time"

	"github.com/artyrk/filebox/internal/config"
	"github.com/artyrk/filebox/internal/db"
)

// Sweeper periodically scans the registry for expired records and deletes
// both the backing file and the record. Read paths check expiration on their
// own, so a record the sweeper has not reached yet is already unreachable.
type Sweeper struct {
	cfg      *config.Config
	db       *db.DB
	stopChan chan struct{}
}

// NewSweeper creates a new retention sweeper
func NewSweeper(cfg *config.Config, database *db.DB) *Sweeper {
	return &Sweeper{
		cfg:      cfg,
		db:       database,
		stopChan: make(chan struct{}),
	}
}

// Start begins the sweep loop: one pass immediately, then one per interval.
func (s *Sweeper) Start() {
	if !s.cfg.SweeperEnabled {
		log.Println("Retention sweeper disabled")
		return
	}

	go func() {
		s.Sweep()

		ticker := time.NewTicker(time.Duration(s.cfg.SweepInterval) * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.Sweep()
			case <-s.stopChan:
				log.Println("Retention sweeper stopped")
				return
			}
		}
	}()
	log.Printf("Retention sweeper started, checking every %d minutes", s.cfg.SweepInterval)
}

// Stop halts the sweep loop
func (s *Sweeper) Stop() {
	close(s.stopChan)
}

// Sweep runs a single cleanup pass. A failure on one record never aborts the
// rest of the pass, and a missing backing file is not an error. The registry
// record is removed even when the file could not be, so metadata never
// outlives its retention window.
func (s *Sweeper) Sweep() {
	expired, err := s.db.FindExpired(time.Now())
	if err != nil {
		log.Printf("Error finding expired records: %v", err)
		return
	}

	var removed int
	for _, record := range expired {
		if err := os.Remove(record.StoragePath); err != nil && !os.IsNotExist(err) {
			log.Printf("Warning: Failed to delete expired file %s: %v", record.StoragePath, err)
		}

		if err := s.db.Delete(record.ID); err != nil {
			log.Printf("Error deleting expired record %s: %v", record.ShortCode, err)
			continue
		}
		removed++
	}

	if len(expired) > 0 {
		log.Printf("Expiration sweep complete. Removed %d of %d expired records", removed, len(expired))
	}
}
