// Package reminder watches the schedule for upcoming block starts and
// fires a one-shot notification per block per schedule generation.
//
// The check is periodic rather than event-driven, so the actual fire time
// jitters by up to one tick interval. A window that was never observed
// while open is never fired retroactively: a late notification is worse
// than none.
package reminder

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	appLog "dayflow/internal/log"
	"dayflow/internal/model"
	"dayflow/internal/timeparse"
)

// Permission mirrors the browser notification permission tri-state.
type Permission int

const (
	PermissionDefault Permission = iota
	PermissionGranted
	PermissionDenied
)

func (p Permission) String() string {
	switch p {
	case PermissionGranted:
		return "granted"
	case PermissionDenied:
		return "denied"
	default:
		return "default"
	}
}

// ParsePermission maps the browser's permission strings onto the
// tri-state. ok is false for anything unrecognized.
func ParsePermission(s string) (Permission, bool) {
	switch s {
	case "default":
		return PermissionDefault, true
	case "granted":
		return PermissionGranted, true
	case "denied":
		return PermissionDenied, true
	default:
		return PermissionDefault, false
	}
}

// Notifier is the permission-gated alert capability.
type Notifier interface {
	// Permission reports the current notification permission.
	Permission() Permission
	// Notify emits a user-visible alert.
	Notify(title, body string) error
}

// Chime plays the audio cue that accompanies a notification.
type Chime interface {
	Play()
}

// Source exposes the state the scheduler reads on each tick.
type Source interface {
	Schedule() model.Schedule
	Muted() bool
}

// Scheduler scans blocks on a cron-driven tick and notifies once per
// block when now falls inside [start-lead, start).
type Scheduler struct {
	source   Source
	notifier Notifier
	chime    Chime
	lead     time.Duration
	loc      *time.Location
	now      func() time.Time

	cron *cron.Cron

	mu       sync.Mutex
	notified map[int]bool
}

// New creates a scheduler. lead is the reminder lead time; zero disables
// reminders entirely.
func New(source Source, notifier Notifier, chime Chime, lead time.Duration, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		source:   source,
		notifier: notifier,
		chime:    chime,
		lead:     lead,
		loc:      loc,
		now:      time.Now,
		notified: map[int]bool{},
	}
}

// Start begins ticking on the given cron spec (e.g. "@every 30s"). The
// interval should stay materially smaller than the lead time.
func (s *Scheduler) Start(spec string) error {
	if s.cron != nil {
		return nil
	}
	c := cron.New(cron.WithLocation(s.loc))
	if _, err := c.AddFunc(spec, s.Check); err != nil {
		return fmt.Errorf("reminder cron spec %q: %w", spec, err)
	}
	c.Start()
	s.cron = c
	appLog.Info("reminder scheduler started", "spec", spec, "lead", s.lead.String())
	return nil
}

// Stop cancels the tick loop and waits for an in-flight check to finish,
// so no callback runs after teardown.
func (s *Scheduler) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.cron = nil
}

// Reset clears the notified set. Called when a new schedule replaces the
// old one; every block of the new generation starts unnotified.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notified = map[int]bool{}
}

// Check runs one scan. Exported so a tick can be forced in tests and from
// the generate path right after a schedule lands.
func (s *Scheduler) Check() {
	if s.lead <= 0 || s.notifier.Permission() != PermissionGranted {
		return
	}

	now := s.now().In(s.loc)
	muted := s.source.Muted()

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, block := range s.source.Schedule() {
		if s.notified[block.ID] {
			continue
		}

		start, _, ok := timeparse.Range(block.Time, now, s.loc)
		if !ok {
			// Unparseable start: skip permanently rather than retrying
			// a string that will never parse.
			s.notified[block.ID] = true
			continue
		}

		if !now.Before(start) {
			// Window already passed; fail silently, never notify late.
			s.notified[block.ID] = true
			continue
		}
		if now.Before(start.Add(-s.lead)) {
			continue
		}

		s.fire(block, muted)
		s.notified[block.ID] = true
	}
}

func (s *Scheduler) fire(block model.Block, muted bool) {
	body := "Coming up: " + block.Title
	if len(block.Tasks) > 0 {
		body += ". First task: " + block.Tasks[0].Text
	}
	if err := s.notifier.Notify(block.Title, body); err != nil {
		appLog.Error("notification failed", err, "block", block.ID)
		return
	}
	if !muted && s.chime != nil {
		s.chime.Play()
	}
	appLog.Info("reminder fired", "block", block.ID, "title", block.Title)
}
