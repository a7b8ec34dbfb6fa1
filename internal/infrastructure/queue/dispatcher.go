package queue

import (
	"context"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/nestmarket/session-gateway/internal/api/metrics"
	"github.com/nestmarket/session-gateway/internal/core/domain"
)

const (
	defaultWorkers = 4
	channelBuffer  = 64
)

// Job is a unit of background work owned by one client.
type Job struct {
	Owner string
	Run   func(ctx context.Context)
}

// Dispatcher routes jobs to a fixed set of workers using consistent hashing
// on the owner, so one client's jobs run in submission order.
type Dispatcher struct {
	workers []chan Job
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan Job, numWorkers),
		log:     log.With().Str("component", "dispatcher").Logger(),
	}
	for i := range d.workers {
		d.workers[i] = make(chan Job, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// TryEnqueue hands job to its owner's worker without blocking. It fails
// with domain.ErrQueueFull when that worker's buffer is full.
func (d *Dispatcher) TryEnqueue(job Job) error {
	idx := d.shardIndex(job.Owner)
	select {
	case d.workers[idx] <- job:
		metrics.BeaconQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
		return nil
	default:
		return domain.ErrQueueFull
	}
}

// shardIndex maps an owner deterministically to a worker index.
func (d *Dispatcher) shardIndex(owner string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(owner))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan Job) {
	depth := metrics.BeaconQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-ch:
			depth.Set(float64(len(ch)))
			d.run(ctx, id, job)
		}
	}
}

func (d *Dispatcher) run(ctx context.Context, id int, job Job) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().Interface("panic", r).Int("worker_id", id).Msg("job panicked")
		}
	}()
	job.Run(ctx)
}
