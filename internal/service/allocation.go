package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/wisselwerking/indeler/internal/capacity"
	"github.com/wisselwerking/indeler/internal/models"
)

// CapacitySource is the part of the capacity store the allocation needs.
type CapacitySource interface {
	Resolve(ctx context.Context, label string, resolver capacity.Resolver) (int, error)
	Labels() []string
}

type enrollmentStatus int

const (
	statusPending enrollmentStatus = iota
	statusAssigned
)

// PriorityEntry is one (enrollment, choice) pair of the priority list.
type PriorityEntry struct {
	Enrollment int
	Rank       int
	Choice     string
}

// Allocation is the state of one allocation run. It is built once per cycle and
// every change to counters and open choices goes through assign and release.
type Allocation struct {
	Enrollments []models.Enrollment
	Sentinels   models.Sentinels

	capacities CapacitySource
	resolver   capacity.Resolver

	capacity map[string]int
	counter  map[string]int
	open     map[string]bool
	status   []enrollmentStatus
	assigned []string
	priority []PriorityEntry
	queues   map[string][]int
	cursor   map[string]int
	passes   int
}

// NewAllocation resolves the capacity of every known choice, asking the resolver for
// unknown ones, and builds the priority list. Choices with capacity 0 never open.
func NewAllocation(ctx context.Context, enrollments []models.Enrollment, capacities CapacitySource, resolver capacity.Resolver, sentinels models.Sentinels) (*Allocation, error) {
	a := &Allocation{
		Enrollments: enrollments,
		Sentinels:   sentinels,
		capacities:  capacities,
		resolver:    resolver,
		capacity:    map[string]int{},
		counter:     map[string]int{},
		open:        map[string]bool{},
		status:      make([]enrollmentStatus, len(enrollments)),
		assigned:    make([]string, len(enrollments)),
		queues:      map[string][]int{},
		cursor:      map[string]int{},
	}

	a.priority = BuildPriorityList(enrollments, sentinels)
	for i, entry := range a.priority {
		a.queues[entry.Choice] = append(a.queues[entry.Choice], i)
	}

	for _, label := range a.Choices() {
		n, err := a.capacityOf(ctx, label)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			a.open[label] = true
		}
	}
	return a, nil
}

// BuildPriorityList orders (enrollment, choice) pairs rank first, enrollment order second:
// every first choice comes before any second choice.
func BuildPriorityList(enrollments []models.Enrollment, sentinels models.Sentinels) []PriorityEntry {
	var out []PriorityEntry
	for rank := 0; rank < models.Ranks; rank++ {
		for i, e := range enrollments {
			choice := e.Choices[rank]
			if sentinels.IsNoChoice(choice) {
				continue
			}
			out = append(out, PriorityEntry{Enrollment: i, Rank: rank + 1, Choice: choice})
		}
	}
	return out
}

// Choices lists every real choice known to this run: ranked by someone or present in
// the capacity file. The surprise pseudo-choice is included when someone ranked it.
func (a *Allocation) Choices() []string {
	seen := map[string]bool{}
	var out []string
	add := func(label string) {
		if seen[label] || a.Sentinels.IsNoChoice(label) || label == a.Sentinels.Unassigned {
			return
		}
		seen[label] = true
		out = append(out, label)
	}
	for _, label := range a.capacities.Labels() {
		add(label)
	}
	for _, entry := range a.priority {
		add(entry.Choice)
	}
	sort.Strings(out)
	return out
}

func (a *Allocation) capacityOf(ctx context.Context, label string) (int, error) {
	if n, ok := a.capacity[label]; ok {
		return n, nil
	}
	n, err := a.capacities.Resolve(ctx, label, a.resolver)
	if err != nil {
		return 0, fmt.Errorf("capacity of %s: %w", label, err)
	}
	a.capacity[label] = n
	return n, nil
}

// Run performs passes over the open choices in label order. In each pass every open
// choice takes the first still pending enrollment that ranked it, so no choice can
// drain its queue before the others had a turn. Stops when nobody is pending, nothing
// is open or a pass assigns nobody.
func (a *Allocation) Run(ctx context.Context) error {
	for a.Pending() > 0 && len(a.open) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		a.passes++
		progress := 0
		for _, label := range a.OpenChoices() {
			if !a.open[label] {
				continue
			}
			if i, ok := a.next(label); ok {
				a.assign(i, label)
				progress++
			}
		}
		if progress == 0 {
			break
		}
	}
	return nil
}

// next advances the choice's cursor to the first priority entry whose enrollment is pending.
func (a *Allocation) next(label string) (int, bool) {
	queue := a.queues[label]
	for a.cursor[label] < len(queue) {
		entry := a.priority[queue[a.cursor[label]]]
		a.cursor[label]++
		if a.status[entry.Enrollment] == statusPending {
			return entry.Enrollment, true
		}
	}
	return 0, false
}

func (a *Allocation) assign(i int, label string) {
	a.counter[label]++
	a.status[i] = statusAssigned
	a.assigned[i] = label
	if a.counter[label] >= a.capacity[label] {
		delete(a.open, label)
	}
}

func (a *Allocation) release(i int) {
	label := a.assigned[i]
	a.counter[label]--
	a.status[i] = statusPending
	a.assigned[i] = ""
	if a.counter[label] < a.capacity[label] {
		a.open[label] = true
	}
}

// Admit assigns a pending enrollment to label outside the regular passes, resolving the
// capacity first. It reports false when the choice is closed or full.
func (a *Allocation) Admit(ctx context.Context, i int, label string) (bool, error) {
	if a.status[i] != statusPending {
		return false, fmt.Errorf("enrollment %s is already assigned to %s", a.Enrollments[i].Email, a.assigned[i])
	}
	n, err := a.capacityOf(ctx, label)
	if err != nil {
		return false, err
	}
	if a.counter[label] >= n {
		return false, nil
	}
	a.assign(i, label)
	return true, nil
}

func (a *Allocation) OpenChoices() []string {
	out := make([]string, 0, len(a.open))
	for label := range a.open {
		out = append(out, label)
	}
	sort.Strings(out)
	return out
}

func (a *Allocation) Pending() int {
	n := 0
	for _, s := range a.status {
		if s == statusPending {
			n++
		}
	}
	return n
}

// Count is the number of enrollments currently assigned to label.
func (a *Allocation) Count(label string) int {
	return a.counter[label]
}

// Capacity is the resolved capacity of label, or false when it was never resolved.
func (a *Allocation) Capacity(label string) (int, bool) {
	n, ok := a.capacity[label]
	return n, ok
}

func (a *Allocation) Passes() int {
	return a.passes
}

// AssignedTo lists the enrollments currently assigned to label, in enrollment order.
func (a *Allocation) AssignedTo(label string) []int {
	var out []int
	for i, l := range a.assigned {
		if a.status[i] == statusAssigned && l == label {
			out = append(out, i)
		}
	}
	return out
}

// Assignments returns one assignment per enrollment, oldest enrollment first.
// Enrollments left pending get the unassigned label.
func (a *Allocation) Assignments() []models.Assignment {
	out := make([]models.Assignment, len(a.Enrollments))
	for i, e := range a.Enrollments {
		out[i] = models.Assignment{Enrollment: e, Choice: a.Sentinels.Unassigned}
		if a.status[i] == statusAssigned {
			out[i].Choice = a.assigned[i]
			out[i].Assigned = true
		}
	}
	return out
}
