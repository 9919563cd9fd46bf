package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"SlicerQC/internal/ports"
)

// DefaultSpec fires at every shift boundary.
const DefaultSpec = "0 6,14,22 * * *"

// CronScheduler runs a job on a five-field cron expression in a fixed time zone.
type CronScheduler struct {
	spec string
	loc  *time.Location

	mu   sync.Mutex
	cron *cron.Cron
	stop chan struct{}
	done chan struct{}
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler; an empty spec means DefaultSpec.
func NewCronScheduler(spec string, loc *time.Location) *CronScheduler {
	if spec == "" {
		spec = DefaultSpec
	}
	if loc == nil {
		loc = time.Local
	}
	return &CronScheduler{spec: spec, loc: loc}
}

// Validate parses the expression without scheduling anything.
func (c *CronScheduler) Validate() error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(c.spec); err != nil {
		return fmt.Errorf("parse cron spec %q: %w", c.spec, err)
	}
	return nil
}

// Start registers job and runs it until Stop is called or ctx is cancelled.
// Calling Start on a running scheduler is a no-op.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}
	if err := c.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cron != nil {
		return nil
	}

	runner := cron.New(cron.WithLocation(c.loc))
	loc := c.loc
	if _, err := runner.AddFunc(c.spec, func() { job(time.Now().In(loc)) }); err != nil {
		return fmt.Errorf("add cron job: %w", err)
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	c.cron, c.stop, c.done = runner, stop, done

	runner.Start()
	go func() {
		defer close(done)
		select {
		case <-ctx.Done():
		case <-stop:
		}
		<-runner.Stop().Done()
	}()

	return nil
}

// Stop halts the cron runner and waits for a running job to finish or ctx to expire.
func (c *CronScheduler) Stop(ctx context.Context) error {
	c.mu.Lock()
	if c.cron == nil {
		c.mu.Unlock()
		return nil
	}
	stop, done := c.stop, c.done
	c.cron, c.stop, c.done = nil, nil, nil
	c.mu.Unlock()

	close(stop)
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
