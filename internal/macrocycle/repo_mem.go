package macrocycle

import (
	"context"
	"sort"
	"sync"
)

type MemPlanRepo struct {
	mu    sync.RWMutex
	plans map[string][]Plan
}

func NewMemPlanRepo() *MemPlanRepo {
	return &MemPlanRepo{
		plans: make(map[string][]Plan),
	}
}

func (r *MemPlanRepo) Save(_ context.Context, plan *Plan) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.plans[plan.AthleteID] {
		if p.ID == plan.ID {
			return ErrPlanExists
		}
	}
	r.plans[plan.AthleteID] = append(r.plans[plan.AthleteID], *plan)
	return nil
}

func (r *MemPlanRepo) List(_ context.Context, athleteID string) ([]Plan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	plans := append([]Plan(nil), r.plans[athleteID]...)
	sort.SliceStable(plans, func(i, j int) bool {
		return plans[i].TargetDate.Before(plans[j].TargetDate)
	})
	return plans, nil
}

func (r *MemPlanRepo) Delete(_ context.Context, athleteID, planID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	plans := r.plans[athleteID]
	for i, p := range plans {
		if p.ID == planID {
			r.plans[athleteID] = append(plans[:i:i], plans[i+1:]...)
			return nil
		}
	}
	return ErrPlanNotFound
}
