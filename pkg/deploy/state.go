package deploy

import "sync"

// Phase represents where a deployment run is in its lifecycle.
// Transitions: Initialized → Verifying → Enumerating → Processing →
// Completed, with Aborted reachable only on directory-level fatal errors
// (per-file failures stay within Processing).
type Phase string

const (
	// PhaseInitialized is the state before Run is called
	PhaseInitialized Phase = "initialized"
	// PhaseVerifying covers source/destination root verification
	PhaseVerifying Phase = "verifying"
	// PhaseEnumerating covers source file discovery
	PhaseEnumerating Phase = "enumerating"
	// PhaseProcessing covers concurrent per-file processing
	PhaseProcessing Phase = "processing"
	// PhaseCompleted is the terminal state of a finished run
	PhaseCompleted Phase = "completed"
	// PhaseAborted is the terminal state after a fatal error or cancellation
	PhaseAborted Phase = "aborted"
)

// runState tracks the current phase of a run
type runState struct {
	mu    sync.Mutex
	phase Phase
}

func newRunState() *runState {
	return &runState{phase: PhaseInitialized}
}

func (s *runState) set(phase Phase) {
	s.mu.Lock()
	s.phase = phase
	s.mu.Unlock()
}

func (s *runState) get() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}
