package vm

import (
	"testing"
)

func TestDetachedStringRoundTrip(t *testing.T) {
	s := newDetachedString("abc")
	if got := s.refcount(); got != 1 {
		t.Fatalf("fresh count = %d, want 1", got)
	}
	if got := s.value(); got != "abc" {
		t.Fatalf("value = %q, want %q", got, "abc")
	}

	if shared := s.retain(); shared != s {
		t.Fatalf("retain returned a new handle; want the same one")
	}
	if got := s.refcount(); got != 2 {
		t.Fatalf("count after retain = %d, want 2", got)
	}

	if freed := s.release(); freed {
		t.Fatalf("first release freed the buffer")
	}
	if s.freed() {
		t.Fatalf("buffer reported freed after first release")
	}
	if got := s.value(); got != "abc" {
		t.Fatalf("value after first release = %q, want %q", got, "abc")
	}

	if freed := s.release(); !freed {
		t.Fatalf("second release did not free the buffer")
	}
	if !s.freed() {
		t.Fatalf("buffer not reported freed after second release")
	}
}

func TestDetachedStringReleaseAfterFree(t *testing.T) {
	s := newDetachedString("x")
	s.release()

	defer func() {
		if recover() == nil {
			t.Fatalf("release after free did not panic")
		}
	}()
	s.release()
}

func TestDetachedStringEmpty(t *testing.T) {
	s := newDetachedString("")
	if got := s.length(); got != 0 {
		t.Fatalf("length = %d, want 0", got)
	}
	if got := s.value(); got != "" {
		t.Fatalf("value = %q, want empty", got)
	}
	s.release()
}
