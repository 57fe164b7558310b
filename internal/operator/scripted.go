package operator

import (
	"bytes"
	"context"
	"io"
)

// Scripted replays prepared answers; used for tests and dry runs.
// Running out of answers behaves like closing the terminal.
type Scripted struct {
	Answers   []string
	Questions []string
	out       bytes.Buffer
}

func NewScripted(answers ...string) *Scripted {
	return &Scripted{Answers: answers}
}

func (s *Scripted) Ask(ctx context.Context, question string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", ErrAborted
	}
	s.Questions = append(s.Questions, question)
	s.out.WriteString(question)
	if len(s.Answers) == 0 {
		return "", ErrAborted
	}
	answer := s.Answers[0]
	s.Answers = s.Answers[1:]
	s.out.WriteString(answer + "\n")
	return answer, nil
}

func (s *Scripted) Out() io.Writer {
	return &s.out
}

// Transcript is everything shown to and typed by the operator so far.
func (s *Scripted) Transcript() string {
	return s.out.String()
}
