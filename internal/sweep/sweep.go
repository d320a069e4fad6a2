// Package sweep runs the periodic garbage collection of abandoned sessions.
// Sessions that are simply never completed stay open until this sweep
// expires them; the core session logic never closes them on its own.
package sweep

import (
	"time"

	"github.com/go-co-op/gocron"

	"github.com/example/revsched/internal/logger"
)

// Sweeper is anything that can abandon idle sessions. The session
// orchestrator satisfies this.
type Sweeper interface {
	SweepIdle(olderThan time.Duration) int
}

// Service periodically sweeps idle sessions
type Service struct {
	scheduler  *gocron.Scheduler
	sweeper    Sweeper
	idleWindow time.Duration
	log        *logger.Logger
}

// New creates a sweep service. interval is how often the sweep runs;
// idleWindow is how long a session may sit idle before being abandoned.
func New(sweeper Sweeper, interval, idleWindow time.Duration, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	s := gocron.NewScheduler(time.UTC)
	svc := &Service{
		scheduler:  s,
		sweeper:    sweeper,
		idleWindow: idleWindow,
		log:        log,
	}
	s.Every(interval).Do(svc.run)
	return svc
}

// Start begins the sweep loop in the background
func (s *Service) Start() {
	s.scheduler.StartAsync()
}

// Stop terminates the sweep loop
func (s *Service) Stop() {
	s.scheduler.Stop()
}

func (s *Service) run() {
	if n := s.sweeper.SweepIdle(s.idleWindow); n > 0 {
		s.log.Info("swept idle sessions", "count", n, "idle_window", s.idleWindow)
	}
}
