package backup

import (
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"warden/pkg/logging"
)

// Scheduler fires scheduled backups from per-platform cron expressions.
// The reconciler keeps it in sync with each platform's backup policy.
type Scheduler struct {
	cron    *cron.Cron
	trigger func(namespace, name string)

	mu      sync.Mutex
	entries map[string]cron.EntryID
}

// NewScheduler calls trigger each time a platform's schedule fires.
// trigger must not block; it should enqueue work and return.
func NewScheduler(trigger func(namespace, name string)) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		trigger: trigger,
		entries: make(map[string]cron.EntryID),
	}
}

// Start begins firing schedules. Safe to call once.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and waits for in-flight triggers.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Set installs or replaces the schedule for one platform. An empty
// schedule removes it.
func (s *Scheduler) Set(namespace, name, schedule string) error {
	key := namespace + "/" + name

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.entries[key]; ok {
		s.cron.Remove(id)
		delete(s.entries, key)
	}
	if schedule == "" {
		return nil
	}

	id, err := s.cron.AddFunc(schedule, func() {
		logging.Info("Backup", "Scheduled backup firing for %s", key)
		s.trigger(namespace, name)
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q for %s: %w", schedule, key, err)
	}
	s.entries[key] = id
	return nil
}

// Remove drops the schedule for a deleted platform.
func (s *Scheduler) Remove(namespace, name string) {
	key := namespace + "/" + name

	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.entries[key]; ok {
		s.cron.Remove(id)
		delete(s.entries, key)
	}
}

// Scheduled reports whether a platform currently has a schedule installed.
func (s *Scheduler) Scheduled(namespace, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[namespace+"/"+name]
	return ok
}
