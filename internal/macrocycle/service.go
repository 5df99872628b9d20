package macrocycle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"github.com/2beens/trainingplanner/internal/cache"
	"github.com/2beens/trainingplanner/internal/telemetry/metrics"
	"github.com/2beens/trainingplanner/internal/telemetry/tracing"
)

//go:generate mockgen -source=$GOFILE -destination=service_mocks_test.go -package=macrocycle_test

type planRepo interface {
	Save(ctx context.Context, plan *Plan) error
	// List returns all plans of an athlete ordered by target date.
	List(ctx context.Context, athleteID string) ([]Plan, error)
	Delete(ctx context.Context, athleteID, planID string) error
}

// Service stores macro plans and resolves each athlete's active one.
type Service struct {
	repo    planRepo
	planner *Planner
	cache   cache.Cache
	group   singleflight.Group
	metrics *metrics.Manager

	// bumped on every write so an in-flight load cannot cache a superseded plan
	genMu sync.Mutex
	gens  map[string]uint64
}

func NewService(repo planRepo, planner *Planner, planCache cache.Cache, metricsManager *metrics.Manager) *Service {
	return &Service{
		repo:    repo,
		planner: planner,
		cache:   planCache,
		metrics: metricsManager,
		gens:    make(map[string]uint64),
	}
}

func (s *Service) generation(athleteID string) uint64 {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	return s.gens[athleteID]
}

func (s *Service) invalidate(athleteID string) {
	s.genMu.Lock()
	s.gens[athleteID]++
	s.cache.Del(athleteID)
	s.genMu.Unlock()
	s.group.Forget(athleteID)
}

// cacheIfCurrent stores plan unless a write happened after the load started at gen.
func (s *Service) cacheIfCurrent(athleteID string, gen uint64, plan *Plan) {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	if s.gens[athleteID] != gen {
		log.Tracef("skip caching stale active plan for athlete [%s]", athleteID)
		return
	}
	s.cache.Set(athleteID, plan, 1)
}

// CreatePlan generates and stores a new plan. An earlier plan for another event stays in
// history and is superseded as active only if the new target is nearer.
func (s *Service) CreatePlan(ctx context.Context, athleteID, sport, eventName string, target time.Time) (_ *Plan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "macro.service.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("athlete", athleteID), attribute.String("sport", sport))

	plan, err := s.planner.GeneratePhasePlan(athleteID, sport, target)
	if err != nil {
		return nil, err
	}
	plan.ID = uuid.NewString()
	plan.EventName = eventName

	if err := s.repo.Save(ctx, plan); err != nil {
		return nil, fmt.Errorf("save plan: %w", err)
	}
	s.invalidate(athleteID)

	if s.metrics != nil {
		s.metrics.CounterPlansGenerated.WithLabelValues("macrocycle").Inc()
	}
	log.Debugf("macro plan [%s] created for athlete [%s]: %s, %d weeks to %s",
		plan.ID, athleteID, plan.Category, plan.TotalWeeks, plan.TargetDate.Format(time.DateOnly))

	return plan, nil
}

// ActivePlan returns the plan with the nearest target date not in the past.
func (s *Service) ActivePlan(ctx context.Context, athleteID string) (_ *Plan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "macro.service.active")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	today := Date(s.planner.now())
	if cached, found := s.cache.Get(athleteID); found {
		if plan, ok := cached.(*Plan); ok && !plan.TargetDate.Before(today) {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return plan, nil
		}
	}

	v, err, _ := s.group.Do(athleteID, func() (interface{}, error) {
		gen := s.generation(athleteID)
		plans, err := s.repo.List(ctx, athleteID)
		if err != nil {
			return nil, fmt.Errorf("list plans: %w", err)
		}

		var active *Plan
		for i := range plans {
			p := &plans[i]
			if p.TargetDate.Before(today) {
				continue
			}
			if active == nil || p.TargetDate.Before(active.TargetDate) {
				active = p
			}
		}
		if active == nil {
			return nil, ErrPlanNotFound
		}

		s.cacheIfCurrent(athleteID, gen, active)
		return active, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*Plan), nil
}

func (s *Service) Plans(ctx context.Context, athleteID string) ([]Plan, error) {
	plans, err := s.repo.List(ctx, athleteID)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	if plans == nil {
		plans = []Plan{}
	}
	return plans, nil
}

func (s *Service) DeletePlan(ctx context.Context, athleteID, planID string) error {
	if err := s.repo.Delete(ctx, athleteID, planID); err != nil {
		return err
	}
	s.invalidate(athleteID)
	return nil
}

// CurrentPhase resolves the active plan's phase on date. It returns nil when date is
// outside the plan.
func (s *Service) CurrentPhase(ctx context.Context, athleteID string, date time.Time) (*PhaseProgress, error) {
	plan, err := s.ActivePlan(ctx, athleteID)
	if err != nil {
		return nil, err
	}
	return CurrentPhase(plan, date), nil
}
