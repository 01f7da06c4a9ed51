// Package watch re-runs saved searches on a schedule and reports when a
// channel's aggregate prices move.
package watch

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/guarzo/cardcomps/internal/model"
	"github.com/guarzo/cardcomps/internal/pipeline"
)

// DefaultSchedule re-checks every six hours.
const DefaultSchedule = "0 */6 * * *"

// runTimeout bounds one full sweep over the saved queries.
const runTimeout = 10 * time.Minute

// Update describes one observed change in a channel's aggregates.
type Update struct {
	Query    model.Query
	Channel  model.Channel
	Previous model.StatsSummary
	Current  model.StatsSummary
	At       time.Time
}

// Runner is the search entry point the service drives. Satisfied by
// *pipeline.Runner.
type Runner interface {
	Run(ctx context.Context, q model.Query) *pipeline.Result
}

// Service holds the saved queries and the schedule that re-checks them.
type Service struct {
	runner   Runner
	cron     *cron.Cron
	onUpdate func(Update)

	mu      sync.Mutex
	queries []model.Query
	last    map[string]model.StatsSummary
}

// New creates a watch service. onUpdate may be nil, in which case changes
// are only logged.
func New(runner Runner, onUpdate func(Update)) *Service {
	return &Service{
		runner:   runner,
		cron:     cron.New(),
		onUpdate: onUpdate,
		last:     make(map[string]model.StatsSummary),
	}
}

// Add registers a query for periodic re-checking.
func (s *Service) Add(q model.Query) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, q)
}

// Queries returns a copy of the saved queries.
func (s *Service) Queries() []model.Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Query, len(s.queries))
	copy(out, s.queries)
	return out
}

// Start schedules the sweep and begins running. An empty spec selects
// DefaultSchedule.
func (s *Service) Start(spec string) error {
	if spec == "" {
		spec = DefaultSchedule
	}
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		s.RunOnce(ctx)
	})
	if err != nil {
		return fmt.Errorf("scheduling watch sweep: %w", err)
	}
	s.cron.Start()
	log.Printf("watch: started, schedule %q, %d queries", spec, len(s.Queries()))
	return nil
}

// Stop halts the schedule and waits for any in-flight sweep to finish.
func (s *Service) Stop() {
	<-s.cron.Stop().Done()
	log.Println("watch: stopped")
}

// RunOnce sweeps every saved query immediately. It is also the body of
// each scheduled run.
func (s *Service) RunOnce(ctx context.Context) {
	for _, q := range s.Queries() {
		if ctx.Err() != nil {
			log.Printf("watch: sweep aborted: %v", ctx.Err())
			return
		}
		s.check(ctx, q)
	}
}

func (s *Service) check(ctx context.Context, q model.Query) {
	result := s.runner.Run(ctx, q)
	if result.Failed() {
		log.Printf("watch: %q: all channels failed, keeping previous aggregates", pipeline.SearchTerm(q))
		return
	}

	for channel, ch := range result.Channels {
		if ch.Failed() {
			continue
		}
		key := statKey(q, channel)

		s.mu.Lock()
		prev, seen := s.last[key]
		s.last[key] = ch.Stats
		s.mu.Unlock()

		if !seen || prev == ch.Stats {
			continue
		}
		log.Printf("watch: %q %s moved: avg %s -> %s (%d points)",
			pipeline.SearchTerm(q), channel, prev.Average, ch.Stats.Average, ch.Stats.DataPoints)
		if s.onUpdate != nil {
			s.onUpdate(Update{
				Query:    q,
				Channel:  channel,
				Previous: prev,
				Current:  ch.Stats,
				At:       time.Now(),
			})
		}
	}
}

func statKey(q model.Query, channel model.Channel) string {
	return pipeline.SearchTerm(q) + "|" + string(channel)
}
