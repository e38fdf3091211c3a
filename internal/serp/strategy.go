package serp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/intakehq/prospector/internal/challenge"
	"github.com/intakehq/prospector/internal/metrics"
	"github.com/intakehq/prospector/internal/model"
)

// State tracks where a search run is in its lifecycle.
type State string

const (
	StateInit              State = "init"
	StateQueryIssued       State = "query-issued"
	StateResultsReady      State = "results-ready"
	StateChallengeDetected State = "challenge-detected"
	StateChallengeResolved State = "challenge-resolved"
	StateExtractedDone     State = "extracted-done"
	StateFailed            State = "failed"
)

// ErrBackendsExhausted means neither backend produced a result page. The
// company still gets a (mostly empty) result; the batch goes on.
var ErrBackendsExhausted = errors.New("all search backends exhausted")

// Strategy orchestrates the primary backend, challenge policy, and the
// secondary fallback for one company. Build one per company.
type Strategy struct {
	Primary   PrimaryProvider
	Secondary Provider
	Policy    challenge.Policy
	Log       *challenge.Log
	Resolver  challenge.Resolver
	Logger    *slog.Logger

	state State
}

// Run drives the state machine to a terminal state. The returned Result is
// never nil on a nil error.
func (s *Strategy) Run(ctx context.Context, in model.CompanyInput) (*Result, error) {
	if s.Logger == nil {
		s.Logger = slog.Default()
	}
	s.transition(StateInit, in)

	s.transition(StateQueryIssued, in)
	res, err := s.Primary.Search(ctx, in)

	var chErr *ChallengeError
	switch {
	case err == nil:
		s.transition(StateResultsReady, in)

	case errors.As(err, &chErr):
		s.transition(StateChallengeDetected, in)
		metrics.ChallengesTotal.Inc()
		ev := s.Log.Record(in.CompanyName, chErr.URL)
		res, err = s.afterChallenge(ctx, in, ev)

	default:
		// Unrecoverable primary I/O failure: the documented fallback is the
		// only automatic retry.
		s.Logger.Warn("primary backend failed", "company", in.CompanyName, "err", err)
		res, err = s.fallback(ctx, in)
	}

	if err != nil {
		s.transition(StateFailed, in)
		return nil, err
	}

	res.Cap()
	s.transition(StateExtractedDone, in)
	return res, nil
}

// LastState reports the terminal state of the most recent Run.
func (s *Strategy) LastState() State {
	return s.state
}

func (s *Strategy) afterChallenge(ctx context.Context, in model.CompanyInput, ev challenge.Event) (*Result, error) {
	switch s.Policy {
	case challenge.PolicyPause:
		if err := s.Resolver.Resolve(ctx, ev); err != nil {
			s.Logger.Warn("challenge resolution abandoned", "company", in.CompanyName, "err", err)
			return s.fallback(ctx, in)
		}
		s.transition(StateChallengeResolved, in)
		res, err := s.Primary.Harvest(ctx, in)
		if err != nil {
			return s.fallback(ctx, in)
		}
		return res, nil

	default: // challenge.PolicyFallback
		return s.fallback(ctx, in)
	}
}

func (s *Strategy) fallback(ctx context.Context, in model.CompanyInput) (*Result, error) {
	if s.Secondary == nil {
		return nil, ErrBackendsExhausted
	}
	res, err := s.Secondary.Search(ctx, in)
	if err != nil {
		s.Logger.Warn("secondary backend failed", "company", in.CompanyName, "err", err)
		return nil, fmt.Errorf("%w: %v", ErrBackendsExhausted, err)
	}
	metrics.FallbacksTotal.Inc()
	return res, nil
}

func (s *Strategy) transition(next State, in model.CompanyInput) {
	s.state = next
	s.Logger.Debug("search state", "company", in.CompanyName, "state", string(next))
}
