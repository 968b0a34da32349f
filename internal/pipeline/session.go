package pipeline

import (
	"fmt"
	"sync"
	"time"

	"salebook/internal"
)

type CaptureState string

const (
	StateIdle              CaptureState = "idle"
	StatePermissionPending CaptureState = "permission_pending"
	StateRecording         CaptureState = "recording"
	StateProcessing        CaptureState = "processing"
	StateProcessed         CaptureState = "processed"
	StateFailed            CaptureState = "failed"
)

// CaptureSession drives one capture lifecycle:
// idle -> permission_pending -> recording -> processing -> processed/failed.
// Only one capture is in flight at a time; beginning a new one cancels the
// previous. The recording countdown is stopped on both normal stop and
// failure, and a countdown from a superseded capture can never touch the
// current one (generation check).
type CaptureSession struct {
	mu          sync.Mutex
	state       CaptureState
	gen         uint64
	timer       *time.Timer
	maxDuration time.Duration
	doc         *internal.CandidateDocument
	err         error
}

func NewCaptureSession(maxDuration time.Duration) *CaptureSession {
	return &CaptureSession{state: StateIdle, maxDuration: maxDuration}
}

func (s *CaptureSession) State() CaptureState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Begin starts a new capture, cancelling any in-progress one.
func (s *CaptureSession) Begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
	s.state = StatePermissionPending
}

func (s *CaptureSession) PermissionGranted() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StatePermissionPending {
		return fmt.Errorf("cannot start recording from state %s", s.state)
	}
	s.state = StateRecording
	if s.maxDuration > 0 {
		gen := s.gen
		s.timer = time.AfterFunc(s.maxDuration, func() {
			s.autoStop(gen)
		})
	}
	return nil
}

func (s *CaptureSession) PermissionDenied() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StatePermissionPending {
		return
	}
	s.state = StateFailed
	s.err = fmt.Errorf("capture permission denied")
}

// StopRecording ends the recording and moves to processing.
func (s *CaptureSession) StopRecording() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRecording {
		return fmt.Errorf("cannot stop recording from state %s", s.state)
	}
	s.stopTimerLocked()
	s.state = StateProcessing
	return nil
}

func (s *CaptureSession) autoStop(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen || s.state != StateRecording {
		return
	}
	s.state = StateProcessing
}

// Complete stores the extraction result and ends the capture.
func (s *CaptureSession) Complete(doc internal.CandidateDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateProcessing {
		return fmt.Errorf("cannot complete from state %s", s.state)
	}
	s.doc = &doc
	s.state = StateProcessed
	return nil
}

// Fail aborts the capture from any active state.
func (s *CaptureSession) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimerLocked()
	s.err = err
	s.state = StateFailed
}

// Reset returns to idle and discards the previous document and error.
func (s *CaptureSession) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
	s.state = StateIdle
}

// Document returns the extraction result of a processed capture.
func (s *CaptureSession) Document() (*internal.CandidateDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if s.state != StateProcessed || s.doc == nil {
		return nil, fmt.Errorf("no document in state %s", s.state)
	}
	return s.doc, nil
}

func (s *CaptureSession) cancelLocked() {
	s.gen++
	s.stopTimerLocked()
	s.doc = nil
	s.err = nil
}

func (s *CaptureSession) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
