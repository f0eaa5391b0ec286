// Package scheduler wraps robfig/cron for the periodic forced refresh.
package scheduler

import (
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
)

// Scheduler arms a single periodic refresh job. Arm once from the startup
// path; scheduled runs themselves never re-arm.
type Scheduler struct {
	mu    sync.Mutex
	cron  *cron.Cron
	entry cron.EntryID
	armed bool
}

// New returns an unarmed scheduler.
func New() *Scheduler {
	return &Scheduler{cron: cron.New()}
}

// ScheduleRefresh arms the periodic refresh with a cron spec (standard five
// fields or descriptors like "@every 12h"). Arming twice is an error.
func (s *Scheduler) ScheduleRefresh(spec string, job func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.armed {
		return fmt.Errorf("scheduler: refresh already armed")
	}
	id, err := s.cron.AddFunc(spec, job)
	if err != nil {
		return fmt.Errorf("scheduler: bad spec %q: %w", spec, err)
	}
	s.entry = id
	s.armed = true
	s.cron.Start()
	return nil
}

// StopRefresh disarms the refresh job and stops the cron runner. Running jobs
// finish; no new ones fire.
func (s *Scheduler) StopRefresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.armed {
		return
	}
	s.cron.Remove(s.entry)
	s.cron.Stop()
	s.armed = false
}
