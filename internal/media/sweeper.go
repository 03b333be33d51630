package media

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/designstudio/portfolio-backend/internal/projects/domain"
)

// DefaultSweepGrace keeps recent uploads that may still belong to an open
// edit session.
const DefaultSweepGrace = 24 * time.Hour

// ProjectLister is the read side of the project repository.
type ProjectLister interface {
	List(ctx context.Context) ([]domain.Project, error)
}

// Sweeper removes stored blobs that no project references any more.
type Sweeper struct {
	inv      Inventory
	projects ProjectLister
	grace    time.Duration
	now      func() time.Time
}

func NewSweeper(inv Inventory, projects ProjectLister, grace time.Duration) *Sweeper {
	if grace <= 0 {
		grace = DefaultSweepGrace
	}
	return &Sweeper{inv: inv, projects: projects, grace: grace, now: time.Now}
}

// Sweep deletes unreferenced blobs older than the grace period and returns
// how many were removed.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	projects, err := s.projects.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list projects: %w", err)
	}
	objects, err := s.inv.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list media: %w", err)
	}

	refs := make([]string, 0, len(projects)*2)
	for _, p := range projects {
		if p.Image != "" {
			refs = append(refs, p.Image)
		}
		if p.Video != "" {
			refs = append(refs, p.Video)
		}
	}

	cutoff := s.now().Add(-s.grace)
	removed := 0
	for _, obj := range objects {
		if obj.LastModified.After(cutoff) || referenced(obj, refs) {
			continue
		}
		if err := s.inv.Remove(ctx, obj.Key); err != nil {
			return removed, fmt.Errorf("remove %s: %w", obj.Key, err)
		}
		removed++
	}
	return removed, nil
}

// referenced matches on the full URL or, when the public prefix changed since
// upload, on the trailing object key.
func referenced(obj Object, refs []string) bool {
	for _, ref := range refs {
		if ref == obj.URL || strings.HasSuffix(ref, "/"+obj.Key) {
			return true
		}
	}
	return false
}

// SweepScheduler runs a Sweeper on a cron schedule.
type SweepScheduler struct {
	sweeper *Sweeper
	cron    *cron.Cron
}

func NewSweepScheduler(sweeper *Sweeper) *SweepScheduler {
	return &SweepScheduler{sweeper: sweeper, cron: cron.New(cron.WithSeconds())}
}

// Start registers the sweep under schedule (six-field, seconds first) and starts
// the scheduler.
func (s *SweepScheduler) Start(schedule string) error {
	_, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		n, err := s.sweeper.Sweep(ctx)
		if err != nil {
			log.Printf("[error] operation=media.sweep removed=%d error=%v", n, err)
			return
		}
		log.Printf("[info] operation=media.sweep removed=%d", n)
	})
	if err != nil {
		return fmt.Errorf("schedule sweep %q: %w", schedule, err)
	}
	log.Printf("[info] media sweep scheduled schedule=%q grace=%s", schedule, s.sweeper.grace)
	s.cron.Start()
	return nil
}

// Stop waits for a running sweep to finish.
func (s *SweepScheduler) Stop() {
	<-s.cron.Stop().Done()
}
