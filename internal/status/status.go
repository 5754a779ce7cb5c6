// Package status gathers runtime counters for the !status command and the
// HTTP status endpoint.
package status

import (
	"time"

	"minigame-bot/internal/game"
	"minigame-bot/internal/reminder"
)

// Report is a point-in-time view of the running bot.
type Report struct {
	StartedAt      time.Time      `json:"started_at"`
	UptimeSeconds  int64          `json:"uptime_seconds"`
	ArmedReminders int            `json:"armed_reminders"`
	Sessions       map[string]int `json:"sessions"`
}

// Uptime returns the uptime as a duration.
func (r Report) Uptime() time.Duration {
	return time.Duration(r.UptimeSeconds) * time.Second
}

// Collector builds reports. Either source may be nil.
type Collector struct {
	started   time.Time
	router    *game.Router
	scheduler *reminder.Scheduler
	now       func() time.Time
}

// NewCollector creates a collector whose uptime starts now.
func NewCollector(router *game.Router, scheduler *reminder.Scheduler) *Collector {
	return &Collector{
		started:   time.Now(),
		router:    router,
		scheduler: scheduler,
		now:       time.Now,
	}
}

// Report returns the current counters.
func (c *Collector) Report() Report {
	r := Report{
		StartedAt:     c.started,
		UptimeSeconds: int64(c.now().Sub(c.started) / time.Second),
		Sessions:      map[string]int{},
	}
	if c.router != nil {
		r.Sessions = c.router.ActiveSessions()
	}
	if c.scheduler != nil {
		r.ArmedReminders = c.scheduler.ArmedCount()
	}
	return r
}
