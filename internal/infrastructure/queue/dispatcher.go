// Package queue runs the background repair of interrupted domain renames.
package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/link-dashboard/internal/core/domain"
	"github.com/99minutos/link-dashboard/internal/core/ports"
	"github.com/99minutos/link-dashboard/internal/pkg/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 64
)

// Dispatcher routes pending migrations to a fixed set of workers using
// consistent hashing on the project slug, so repairs of one project never
// run concurrently.
type Dispatcher struct {
	workers  []chan domain.Migration
	repairer ports.MigrationRepairer
	log      zerolog.Logger

	mu     sync.Mutex
	queued map[string]struct{} // slugs enqueued and not yet processed
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, repairer ports.MigrationRepairer, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:  make([]chan domain.Migration, numWorkers),
		repairer: repairer,
		log:      log,
		queued:   make(map[string]struct{}),
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.Migration, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands a migration to the worker responsible for its project.
// It reports false when that project is already queued.
func (d *Dispatcher) Enqueue(m domain.Migration) bool {
	d.mu.Lock()
	if _, dup := d.queued[m.Slug]; dup {
		d.mu.Unlock()
		return false
	}
	d.queued[m.Slug] = struct{}{}
	d.mu.Unlock()

	idx := d.shardIndex(m.Slug)
	d.workers[idx] <- m
	metrics.RepairQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	return true
}

// Sweep enqueues every marker older than grace and returns how many were
// newly queued.
func (d *Dispatcher) Sweep(ctx context.Context, grace time.Duration) (int, error) {
	stale, err := d.repairer.StaleMigrations(ctx, grace)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, m := range stale {
		if d.Enqueue(m) {
			n++
		}
	}
	return n, nil
}

// RunSweeper calls Sweep every interval until ctx is cancelled.
func (d *Dispatcher) RunSweeper(ctx context.Context, interval, grace time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := d.Sweep(ctx, grace)
			if err != nil {
				d.log.Warn().Err(err).Msg("migration sweep failed")
				continue
			}
			if n > 0 {
				d.log.Info().Int("queued", n).Msg("stale migrations queued for repair")
			}
		}
	}
}

// shardIndex maps a slug deterministically to a worker index.
func (d *Dispatcher) shardIndex(slug string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(slug))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.Migration) {
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-ch:
			if !ok {
				return
			}
			metrics.RepairQueueDepth.WithLabelValues(label).Set(float64(len(ch)))

			start := time.Now()
			err := d.repairer.RepairMigration(ctx, m)
			metrics.RepairDuration.Observe(time.Since(start).Seconds())

			d.mu.Lock()
			delete(d.queued, m.Slug)
			d.mu.Unlock()

			if err != nil {
				metrics.MigrationRepairsTotal.WithLabelValues("error").Inc()
				d.log.Error().Err(err).
					Str("slug", m.Slug).
					Int("worker_id", id).
					Msg("migration repair failed")
				continue
			}
			metrics.MigrationRepairsTotal.WithLabelValues("ok").Inc()
		}
	}
}
