package session

import (
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/howtosavemytime-sys/chatbot-backend/pkg/logging"
)

// Sweeper periodically evicts idle sessions from a MemoryStore.
// Resolve already expires sessions lazily; the sweeper reclaims the ones
// that are never revisited.
type Sweeper struct {
	cron   *cron.Cron
	store  *MemoryStore
	logger *logging.Logger
}

// NewSweeper schedules store.Sweep using a cron spec such as "@every 10m".
func NewSweeper(store *MemoryStore, spec string, logger *logging.Logger) (*Sweeper, error) {
	if store == nil {
		return nil, fmt.Errorf("session: sweeper requires a memory store")
	}
	if logger == nil {
		logger = logging.Default()
	}
	s := &Sweeper{cron: cron.New(), store: store, logger: logger}
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, fmt.Errorf("session: sweep schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *Sweeper) run() {
	if removed := s.store.Sweep(); removed > 0 {
		s.logger.Info("expired sessions swept", "removed", removed, "remaining", s.store.Len())
	}
}

func (s *Sweeper) Start() { s.cron.Start() }

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}
