package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

const purgeTimeout = 30 * time.Second

// Purger drops revocation records whose tokens have expired.
type Purger interface {
	PurgeRevoked(ctx context.Context) (int64, error)
}

// Scheduler runs background maintenance for the quiz service.
type Scheduler struct {
	scheduler *gocron.Scheduler
	purger    Purger
	interval  time.Duration
}

func New(purger Purger, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		purger:    purger,
		interval:  interval,
	}
}

// Start schedules the token cleanup job and returns without blocking. The
// first run happens immediately.
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Every(s.interval).Do(s.purgeRevokedTokens); err != nil {
		return err
	}
	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) purgeRevokedTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), purgeTimeout)
	defer cancel()

	purged, err := s.purger.PurgeRevoked(ctx)
	if err != nil {
		log.Printf("token cleanup failed: %v", err)
		return
	}
	if purged > 0 {
		log.Printf("token cleanup removed %d expired revocations", purged)
	}
}
