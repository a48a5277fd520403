// Package poll implements the poll scheduler, §4.D: selecting which
// sessions to capture each cycle, enforcing at-most-one-poll-in-flight with
// a follow-up-requested flag, generation-stamping results so stale
// completions are dropped, and adapting cadence to recent activity.
// Generalized from one-worktree-at-a-time polling to the bounded
// multi-target selection §4.D names.
package poll

import "time"

// Targets is the result of selecting which sessions to capture this cycle,
// per §4.D step 1.
type Targets struct {
	LivePreviewSession string
	NeedsCursorCapture bool
	StatusPollSessions []string
}

// SelectTargets builds this cycle's Targets: the live-preview session
// (always captured), its cursor metadata when interactiveModeActive, and a
// bounded set of other visible sessions needing a status refresh, with the
// live-preview session excluded from that set.
func SelectTargets(livePreviewSession string, interactiveModeActive bool, visibleSessions []string, maxStatusPolls int) Targets {
	t := Targets{
		LivePreviewSession: livePreviewSession,
		NeedsCursorCapture: interactiveModeActive && livePreviewSession != "",
	}

	for _, s := range visibleSessions {
		if s == livePreviewSession {
			continue
		}
		if maxStatusPolls > 0 && len(t.StatusPollSessions) >= maxStatusPolls {
			break
		}
		t.StatusPollSessions = append(t.StatusPollSessions, s)
	}
	return t
}

const (
	// FastCadence is used after a cycle where any capture's cleaned output
	// changed.
	FastCadence = 100 * time.Millisecond
	// SlowCadence is the backoff cadence once output has stopped changing.
	SlowCadence = 1 * time.Second
)

// NextCadence implements §4.D step 4: schedule soon after recent activity,
// otherwise back off.
func NextCadence(anyChangedCleaned bool) time.Duration {
	if anyChangedCleaned {
		return FastCadence
	}
	return SlowCadence
}

// Scheduler enforces §4.D's at-most-one-poll-in-flight contract and
// generation stamping for one stream of poll cycles (internal/app uses a
// single Scheduler for every target of a cycle).
type Scheduler struct {
	inFlight   bool
	requested  bool
	generation int64
}

// NewScheduler returns an idle Scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Generation returns the current generation token.
func (s *Scheduler) Generation() int64 {
	return s.generation
}

// Dispatch attempts to start a poll, per §4.D step 2. If a poll is already
// in flight, it records that a follow-up is wanted and returns ok=false.
// Otherwise it marks in-flight, bumps the generation, and returns the
// generation the dispatched poll should be stamped with.
func (s *Scheduler) Dispatch() (generation int64, ok bool) {
	if s.inFlight {
		s.requested = true
		return 0, false
	}
	s.inFlight = true
	s.generation++
	return s.generation, true
}

// Prioritize is the "prioritized poll" variant of §4.D step 5: it does not
// require the in-flight slot to be free. It always bumps the generation
// (superseding any outstanding poll, whose eventual completion will then
// carry a stale generation and be dropped) and marks in-flight.
func (s *Scheduler) Prioritize() int64 {
	s.inFlight = true
	s.requested = false
	s.generation++
	return s.generation
}

// Complete reports a poll's completion for resultGeneration. It returns
// accept=false when resultGeneration is stale (s.generation has since been
// bumped by a Prioritize call) and the caller must discard the result. It
// also returns followUp=true when a request arrived while this poll was in
// flight, per §4.D step 2, so the caller can immediately dispatch another.
func (s *Scheduler) Complete(resultGeneration int64) (accept, followUp bool) {
	accept = resultGeneration == s.generation
	s.inFlight = false
	followUp = s.requested
	s.requested = false
	return accept, followUp
}
