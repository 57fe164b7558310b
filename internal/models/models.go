package models

import (
	"fmt"
	"math"
	"strings"
)

// Unbounded is the capacity reported for the surprise pseudo-choice.
const Unbounded = math.MaxInt32

// Ranks is the number of ranked choices on every enrollment form.
const Ranks = 3

type Enrollment struct {
	Email      string            `json:"email" yaml:"email"`
	FirstName  string            `json:"first_name" yaml:"first_name"`
	LastName   string            `json:"last_name" yaml:"last_name"`
	Department string            `json:"department" yaml:"department"`
	Phone      string            `json:"phone,omitempty" yaml:"phone,omitempty"`
	Choices    [Ranks]string     `json:"choices" yaml:"choices"`
	Fields     map[string]string `json:"-" yaml:"-"`
}

func (e Enrollment) Name() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

func (e Enrollment) String() string {
	if name := e.Name(); name != "" {
		return fmt.Sprintf("%s <%s>", name, e.Email)
	}
	return e.Email
}

type Choice struct {
	Label    string `json:"label" yaml:"label"`
	Capacity int    `json:"capacity" yaml:"capacity"`
}

type Assignment struct {
	Enrollment Enrollment `json:"enrollment" yaml:"enrollment"`
	Choice     string     `json:"choice" yaml:"choice"`
	Assigned   bool       `json:"assigned" yaml:"assigned"`
}

type HistoryRecord struct {
	Email      string `json:"email" yaml:"email"`
	Years      []int  `json:"years" yaml:"years"`
	Department string `json:"department" yaml:"department"`
	Assigned   string `json:"assigned" yaml:"assigned"`
}

// YearRange renders the cycle years the way the cycle directories name them, e.g. 2019-2020.
func (r HistoryRecord) YearRange() string {
	parts := make([]string, 0, len(r.Years))
	for _, y := range r.Years {
		parts = append(parts, fmt.Sprint(y))
	}
	return strings.Join(parts, "-")
}

// Sentinels holds the labels that never denote a real choice.
type Sentinels struct {
	NoChoice   string
	Surprise   string
	Unassigned string
}

// IsNoChoice reports whether a (trimmed) ranked label means "no choice made".
func (s Sentinels) IsNoChoice(label string) bool {
	return label == "" || label == s.NoChoice
}

func (s Sentinels) IsReserved(label string) bool {
	return s.IsNoChoice(label) || label == s.Surprise || label == s.Unassigned
}
