package upstream

import (
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is a named refresh. Provider satisfies it.
type Job interface {
	Run() error
	Name() string
}

// Scheduler triggers refresh jobs on cron specs. A run that is still going
// when its next tick arrives makes that tick a no-op.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger
}

// cronLogger routes cron's own messages into zerolog.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}

// NewScheduler accepts five-field specs and descriptors like "@every 1h".
func NewScheduler(log zerolog.Logger) *Scheduler {
	log = log.With().Str("component", "refresh_scheduler").Logger()
	cl := cronLogger{log: log}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		log: log,
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Int("jobs", s.Entries()).Msg("Refresh scheduler running")
}

// Stop waits for an in-flight refresh to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info().Msg("Refresh scheduler stopped")
}

// AddJob runs job on every tick of spec. Failures are logged; the next tick
// tries again.
func (s *Scheduler) AddJob(spec string, job Job) error {
	name := job.Name()
	if _, err := s.cron.AddJob(spec, cron.FuncJob(func() {
		if err := job.Run(); err != nil {
			s.log.Warn().Err(err).Str("job", name).Msg("Refresh failed")
			return
		}
		s.log.Debug().Str("job", name).Msg("Refresh done")
	})); err != nil {
		return err
	}
	s.log.Info().Str("spec", spec).Str("job", name).Msg("Refresh scheduled")
	return nil
}

// Entries is the number of scheduled jobs.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}
