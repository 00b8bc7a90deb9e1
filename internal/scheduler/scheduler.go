package scheduler

import (
	"sync"

	"github.com/charmbracelet/log"
	"github.com/robfig/cron/v3"
)

// Scheduler runs named periodic jobs
type Scheduler struct {
	cron      *cron.Cron
	logger    *log.Logger
	jobMap    map[string]cron.EntryID // Maps job name to cron entry ID
	jobMapMux sync.RWMutex            // Protects jobMap
}

// NewScheduler creates a scheduler
func NewScheduler(logger *log.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		logger: logger.WithPrefix("SCHEDULER"),
		jobMap: make(map[string]cron.EntryID),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("cron scheduler started")
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("cron scheduler stopped")
}

// AddOrUpdateJob schedules fn under name, replacing any job with the same name
func (s *Scheduler) AddOrUpdateJob(name, spec string, fn func()) error {
	s.RemoveJob(name)

	entryID, err := s.cron.AddFunc(spec, func() {
		s.logger.Debug("job triggered", "job", name)
		fn()
	})
	if err != nil {
		s.logger.Error("failed to schedule job", "job", name, "spec", spec, "err", err)
		return err
	}

	s.jobMapMux.Lock()
	s.jobMap[name] = entryID
	s.jobMapMux.Unlock()

	s.logger.Info("scheduled job", "job", name, "spec", spec, "entry", entryID)
	return nil
}

// RemoveJob removes a job by name
func (s *Scheduler) RemoveJob(name string) {
	s.jobMapMux.Lock()
	defer s.jobMapMux.Unlock()

	if entryID, exists := s.jobMap[name]; exists {
		s.cron.Remove(entryID)
		delete(s.jobMap, name)
		s.logger.Info("removed job", "job", name, "entry", entryID)
	}
}

// GetScheduledJobCount returns the number of currently scheduled jobs
func (s *Scheduler) GetScheduledJobCount() int {
	s.jobMapMux.RLock()
	defer s.jobMapMux.RUnlock()
	return len(s.jobMap)
}
