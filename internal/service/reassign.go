package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/wisselwerking/indeler/internal/history"
	"github.com/wisselwerking/indeler/internal/operator"
)

// Reassigner lets the operator hand-pick a real choice for everybody the allocation
// parked on the surprise pseudo-choice.
type Reassigner struct {
	Operator operator.Operator
	History  *history.Collection
	Logger   zerolog.Logger
}

// Run returns the number of reassigned enrollments. On return without error no
// enrollment is assigned to the surprise label.
func (r *Reassigner) Run(ctx context.Context, a *Allocation) (int, error) {
	surprised := a.AssignedTo(a.Sentinels.Surprise)
	out := r.Operator.Out()

	for n, i := range surprised {
		a.release(i)
		if n == 0 {
			r.printSession(out, a, len(surprised))
		}
		r.printParticipant(out, a, i)

		label, err := r.pick(ctx, a, i)
		if err != nil {
			return n, err
		}
		r.Logger.Info().
			Str("email", a.Enrollments[i].Email).
			Str("choice", label).
			Msg("surprise reassigned")
	}
	return len(surprised), nil
}

func (r *Reassigner) pick(ctx context.Context, a *Allocation, i int) (string, error) {
	out := r.Operator.Out()
	e := a.Enrollments[i]
	for {
		answer, err := r.Operator.Ask(ctx, fmt.Sprintf("Choice for %s? ", e))
		if err != nil {
			return "", err
		}
		label, ok := r.match(a, answer)
		if !ok {
			fmt.Fprintf(out, "%q is not a choice\n", answer)
			continue
		}
		admitted, err := a.Admit(ctx, i, label)
		if err != nil {
			return "", err
		}
		if !admitted {
			capacity, _ := a.Capacity(label)
			fmt.Fprintf(out, "%s is full (%d/%d)\n", label, a.Count(label), capacity)
			continue
		}
		return label, nil
	}
}

// match resolves the operator's answer to a known choice, ignoring case.
func (r *Reassigner) match(a *Allocation, answer string) (string, bool) {
	answer = strings.TrimSpace(answer)
	if answer == "" || a.Sentinels.IsReserved(answer) {
		return "", false
	}
	for _, label := range a.Choices() {
		if label == answer {
			return label, true
		}
	}
	for _, label := range a.Choices() {
		if strings.EqualFold(label, answer) && !a.Sentinels.IsReserved(label) {
			return label, true
		}
	}
	return "", false
}

func (r *Reassigner) printSession(w io.Writer, a *Allocation, count int) {
	fmt.Fprintf(w, "\nSURPRISE ME: %d participant(s) need a choice\n", count)
	if r.History != nil && len(r.History.Records) > 0 {
		fmt.Fprintln(w, "\nPrevious cycles:")
		for _, c := range r.History.AggregateCounts() {
			fmt.Fprintf(w, "%s\t%d\n", c.Label, c.Count)
		}
	}
	fmt.Fprintln(w, "\nCurrent:")
	for _, label := range a.Choices() {
		if label == a.Sentinels.Surprise {
			continue
		}
		capacity, _ := a.Capacity(label)
		fmt.Fprintf(w, "%s\t%d/%d\n", label, a.Count(label), capacity)
	}
}

func (r *Reassigner) printParticipant(w io.Writer, a *Allocation, i int) {
	e := a.Enrollments[i]
	fmt.Fprintf(w, "\n%s (%s)\n", e, e.Department)
	if r.History == nil || len(r.History.ByEmail(e.Email)) == 0 {
		fmt.Fprintln(w, "  newcomer")
		return
	}
	for _, rec := range r.History.ByEmail(e.Email) {
		fmt.Fprintf(w, "  %s\t%s -> %s\n", rec.YearRange(), rec.Department, rec.Assigned)
	}
}
