package challenge

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"
)

// Resolver is the suspension point for manual challenge resolution. Resolve
// blocks its caller until the operator acknowledges (or ctx is cancelled);
// with multiple workers only the calling worker stalls.
type Resolver interface {
	Resolve(ctx context.Context, ev Event) error
}

// StdinResolver prompts on Out and waits for a newline on In. Prompts are
// serialized so concurrent workers never interleave on the terminal.
type StdinResolver struct {
	In  io.Reader
	Out io.Writer

	mu   sync.Mutex
	once sync.Once
	r    *bufio.Reader
}

var _ Resolver = (*StdinResolver)(nil)

func (s *StdinResolver) Resolve(ctx context.Context, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.once.Do(func() { s.r = bufio.NewReader(s.In) })

	fmt.Fprintf(s.Out, "[CHALLENGE] %s blocked at %s. Solve it in the browser, then press Enter...\n", ev.Company, ev.URL)

	done := make(chan error, 1)
	go func() {
		_, err := s.r.ReadString('\n')
		done <- err
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil && err != io.EOF {
			return fmt.Errorf("operator ack: %w", err)
		}
		return nil
	}
}

// AutoResolver acknowledges immediately. Used in tests and when the operator
// wants challenged companies skipped without a pause.
type AutoResolver struct{}

func (AutoResolver) Resolve(ctx context.Context, ev Event) error {
	return ctx.Err()
}
