package service

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/wisselwerking/indeler/internal/history"
)

type ChoiceCount struct {
	Label    string `yaml:"label"`
	Count    int    `yaml:"count"`
	Capacity int    `yaml:"capacity"`
	// Demand is how many enrollments ranked the choice first.
	Demand int `yaml:"demand"`
}

// Full reports whether the choice reached its capacity.
func (c ChoiceCount) Full() bool {
	return c.Capacity > 0 && c.Count >= c.Capacity
}

// OverSubscribed reports whether more people ranked the choice first than it could take.
func (c ChoiceCount) OverSubscribed() bool {
	return c.Demand > c.Capacity
}

type Report struct {
	Counts         []ChoiceCount   `yaml:"counts"`
	Total          int             `yaml:"total"`
	Enrollments    int             `yaml:"enrollments"`
	Empty          []string        `yaml:"empty"`
	Full           []string        `yaml:"full"`
	OverSubscribed []string        `yaml:"over_subscribed"`
	Unassigned     []string        `yaml:"unassigned"`
	History        []history.Count `yaml:"history,omitempty"`
}

// BuildReport summarises the final state. It does not modify the allocation.
func BuildReport(a *Allocation, hist *history.Collection) Report {
	demand := map[string]int{}
	for _, e := range a.Enrollments {
		demand[e.Choices[0]]++
	}

	r := Report{Enrollments: len(a.Enrollments)}
	for _, label := range a.Choices() {
		capacity, _ := a.Capacity(label)
		c := ChoiceCount{Label: label, Count: a.Count(label), Capacity: capacity, Demand: demand[label]}
		r.Total += c.Count
		if label == a.Sentinels.Surprise {
			continue
		}
		r.Counts = append(r.Counts, c)
		if c.Count == 0 {
			r.Empty = append(r.Empty, label)
		}
		if c.Full() {
			r.Full = append(r.Full, label)
		}
		if c.OverSubscribed() {
			r.OverSubscribed = append(r.OverSubscribed, label)
		}
	}
	for _, asg := range a.Assignments() {
		if !asg.Assigned {
			r.Unassigned = append(r.Unassigned, asg.Enrollment.Email)
		}
	}
	if hist != nil {
		r.History = hist.AggregateCounts()
	}
	return r
}

// Print writes the operator summary. Unassigned participants are listed when listUnassigned is set.
func (r Report) Print(w io.Writer, listUnassigned bool) {
	fmt.Fprintln(w, "\nENROLLMENTS PER CHOICE:")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, c := range r.Counts {
		marker := ""
		switch {
		case c.OverSubscribed():
			marker = "over-subscribed"
		case c.Full():
			marker = "full"
		}
		fmt.Fprintf(tw, "%s\t%d/%d\t%s\n", c.Label, c.Count, c.Capacity, marker)
	}
	fmt.Fprintf(tw, "TOTAL\t%d\t\n", r.Total)
	_ = tw.Flush()

	if len(r.Empty) > 0 {
		fmt.Fprintln(w, "\nNOBODY ENROLLED:")
		for _, label := range r.Empty {
			fmt.Fprintln(w, label)
		}
	}
	fmt.Fprintf(w, "\nUNASSIGNED: %d\n", len(r.Unassigned))
	if listUnassigned {
		for _, email := range r.Unassigned {
			fmt.Fprintln(w, email)
		}
	}
}
