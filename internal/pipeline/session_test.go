package pipeline

import (
	"fmt"
	"testing"
	"time"

	"salebook/internal"
)

func TestCaptureSessionLifecycle(t *testing.T) {
	s := NewCaptureSession(0)
	if s.State() != StateIdle {
		t.Fatalf("state = %s", s.State())
	}

	s.Begin()
	if s.State() != StatePermissionPending {
		t.Fatalf("state = %s", s.State())
	}
	if err := s.PermissionGranted(); err != nil {
		t.Fatal(err)
	}
	if s.State() != StateRecording {
		t.Fatalf("state = %s", s.State())
	}
	if err := s.StopRecording(); err != nil {
		t.Fatal(err)
	}
	if s.State() != StateProcessing {
		t.Fatalf("state = %s", s.State())
	}

	doc := internal.CandidateDocument{Intent: internal.IntentCreateOrder}
	if err := s.Complete(doc); err != nil {
		t.Fatal(err)
	}
	got, err := s.Document()
	if err != nil {
		t.Fatal(err)
	}
	if got.Intent != internal.IntentCreateOrder {
		t.Fatalf("doc = %+v", got)
	}
}

func TestCaptureSessionInvalidTransitions(t *testing.T) {
	s := NewCaptureSession(0)
	if err := s.PermissionGranted(); err == nil {
		t.Fatal("granting permission from idle must fail")
	}
	if err := s.StopRecording(); err == nil {
		t.Fatal("stopping from idle must fail")
	}
	if err := s.Complete(internal.CandidateDocument{}); err == nil {
		t.Fatal("completing from idle must fail")
	}
}

func TestCaptureSessionPermissionDenied(t *testing.T) {
	s := NewCaptureSession(0)
	s.Begin()
	s.PermissionDenied()
	if s.State() != StateFailed {
		t.Fatalf("state = %s", s.State())
	}
	if _, err := s.Document(); err == nil {
		t.Fatal("document must report the denial")
	}
}

func TestCaptureSessionAutoStop(t *testing.T) {
	s := NewCaptureSession(20 * time.Millisecond)
	s.Begin()
	if err := s.PermissionGranted(); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(time.Second)
	for s.State() != StateProcessing {
		select {
		case <-deadline:
			t.Fatalf("countdown never fired, state = %s", s.State())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestCaptureSessionBeginCancelsPrevious(t *testing.T) {
	s := NewCaptureSession(20 * time.Millisecond)
	s.Begin()
	if err := s.PermissionGranted(); err != nil {
		t.Fatal(err)
	}

	// Superseding the capture invalidates the old countdown.
	s.Begin()
	if err := s.PermissionGranted(); err != nil {
		t.Fatal(err)
	}
	if err := s.StopRecording(); err != nil {
		t.Fatal(err)
	}
	if err := s.Complete(internal.CandidateDocument{Intent: internal.IntentCreateOrder}); err != nil {
		t.Fatal(err)
	}

	time.Sleep(50 * time.Millisecond)
	if s.State() != StateProcessed {
		t.Fatalf("stale countdown moved state to %s", s.State())
	}
}

func TestCaptureSessionFailStopsCountdown(t *testing.T) {
	s := NewCaptureSession(20 * time.Millisecond)
	s.Begin()
	if err := s.PermissionGranted(); err != nil {
		t.Fatal(err)
	}
	s.Fail(fmt.Errorf("upload interrupted"))
	if s.State() != StateFailed {
		t.Fatalf("state = %s", s.State())
	}

	time.Sleep(50 * time.Millisecond)
	if s.State() != StateFailed {
		t.Fatalf("countdown fired after failure, state = %s", s.State())
	}
}

func TestCaptureSessionResetDiscardsResult(t *testing.T) {
	s := NewCaptureSession(0)
	s.Begin()
	_ = s.PermissionGranted()
	_ = s.StopRecording()
	_ = s.Complete(internal.CandidateDocument{Intent: internal.IntentCreateOrder})

	s.Reset()
	if s.State() != StateIdle {
		t.Fatalf("state = %s", s.State())
	}
	if _, err := s.Document(); err == nil {
		t.Fatal("reset must discard the document")
	}
}
