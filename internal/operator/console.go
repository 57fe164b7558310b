package operator

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Console asks questions on a terminal. Lines are read on a helper goroutine so a
// pending question can be abandoned when ctx is cancelled (Ctrl-C).
type Console struct {
	out   io.Writer
	lines chan string
	done  chan struct{}
	err   error
}

func NewConsole(in io.Reader, out io.Writer) *Console {
	c := &Console{out: out, lines: make(chan string), done: make(chan struct{})}
	go c.read(in)
	return c
}

func (c *Console) read(in io.Reader) {
	defer close(c.done)
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		c.lines <- scanner.Text()
	}
	c.err = scanner.Err()
}

func (c *Console) Out() io.Writer {
	return c.out
}

func (c *Console) Ask(ctx context.Context, question string) (string, error) {
	fmt.Fprint(c.out, question)
	select {
	case line := <-c.lines:
		return strings.TrimSpace(line), nil
	case <-c.done:
		fmt.Fprintln(c.out)
		if c.err != nil {
			return "", fmt.Errorf("%w: %v", ErrAborted, c.err)
		}
		return "", ErrAborted
	case <-ctx.Done():
		fmt.Fprintln(c.out)
		return "", fmt.Errorf("%w: %v", ErrAborted, ctx.Err())
	}
}

// CapacityResolver asks the operator for a missing capacity until a non-negative
// integer is entered.
type CapacityResolver struct {
	Operator Operator
}

func (r CapacityResolver) ResolveCapacity(ctx context.Context, label string) (int, error) {
	for {
		answer, err := r.Operator.Ask(ctx, fmt.Sprintf("Capacity for %s? ", label))
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(answer)
		if err != nil || n < 0 {
			fmt.Fprintf(r.Operator.Out(), "%q is not a valid capacity, enter a whole number of 0 or more\n", answer)
			continue
		}
		return n, nil
	}
}
