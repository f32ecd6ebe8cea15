package services

import (
	"log"
	"time"
)

// Job is one unit of periodic background work.
type Job struct {
	Name string
	Run  func() error
}

// Scheduler runs its jobs on a fixed interval. A job that errors or panics is
// logged and skipped; the next tick proceeds independently. There is no retry
// or backoff.
type Scheduler struct {
	interval time.Duration
	jobs     []Job
	stop     chan struct{}
	done     chan struct{}
}

func NewScheduler(interval time.Duration, jobs ...Job) *Scheduler {
	if interval <= 0 {
		interval = 60 * time.Minute
	}
	return &Scheduler{interval: interval, jobs: jobs}
}

// Start launches the tick loop. Calling Start on a running scheduler is a
// no-op.
func (s *Scheduler) Start() {
	if s.stop != nil {
		return
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.loop()
	log.Printf("scheduler: started, interval %s, %d job(s)", s.interval, len(s.jobs))
}

// Stop halts the tick loop and waits for any in-flight run to finish.
func (s *Scheduler) Stop() {
	if s.stop == nil {
		return
	}
	close(s.stop)
	<-s.done
	s.stop = nil
	log.Printf("scheduler: stopped")
}

// RunNow executes all jobs once, synchronously. Used at startup and by admin
// triggers.
func (s *Scheduler) RunNow() {
	for _, j := range s.jobs {
		s.runJob(j)
	}
}

func (s *Scheduler) loop() {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.RunNow()
		}
	}
}

func (s *Scheduler) runJob(j Job) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("scheduler: job %s panicked: %v", j.Name, r)
		}
	}()
	if err := j.Run(); err != nil {
		log.Printf("scheduler: job %s failed: %v", j.Name, err)
	}
}
