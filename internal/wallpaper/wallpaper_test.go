package wallpaper

import (
	"errors"
	"testing"
)

type stubCall struct {
	path  string
	flags Flags
}

// stubBackend records calls and remembers the last applied path.
type stubBackend struct {
	current string
	calls   []stubCall
	fail    error
}

func (s *stubBackend) Name() string { return "stub" }

func (s *stubBackend) Apply(path string, flags Flags) error {
	s.calls = append(s.calls, stubCall{path: path, flags: flags})
	if s.fail != nil {
		return s.fail
	}
	s.current = path
	return nil
}

func (s *stubBackend) Current() (string, error) {
	return s.current, nil
}

func TestSet_AppliesAndReportsCurrent(t *testing.T) {
	backend := &stubBackend{}
	s := NewWithBackend(backend)

	if err := s.Set(Request{ImagePath: "/walls/forest.jpg"}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := s.Current()
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if got != "/walls/forest.jpg" {
		t.Fatalf("Current = %q, want /walls/forest.jpg", got)
	}
}

func TestSet_Idempotent(t *testing.T) {
	backend := &stubBackend{}
	s := NewWithBackend(backend)

	for i := 0; i < 3; i++ {
		if err := s.Set(Request{ImagePath: "/walls/forest.jpg"}); err != nil {
			t.Fatalf("Set %d: %v", i, err)
		}
	}
	if got, _ := s.Current(); got != "/walls/forest.jpg" {
		t.Fatalf("Current = %q after repeated sets", got)
	}
}

func TestSet_LastWriteWins(t *testing.T) {
	backend := &stubBackend{}
	s := NewWithBackend(backend)

	s.Set(Request{ImagePath: "/walls/one.png"})
	s.Set(Request{ImagePath: "/walls/two.png"})

	if got, _ := s.Current(); got != "/walls/two.png" {
		t.Fatalf("Current = %q, want /walls/two.png", got)
	}
}

func TestSet_AlwaysPersistsAndNotifies(t *testing.T) {
	backend := &stubBackend{}
	s := NewWithBackend(backend)

	for _, p := range []string{"/a.png", "/b.png", "relative/c.png"} {
		s.Set(Request{ImagePath: p})
	}
	backend.fail = errors.New("denied")
	s.Set(Request{ImagePath: "/d.png"})

	if len(backend.calls) != 4 {
		t.Fatalf("expected 4 backend calls, got %d", len(backend.calls))
	}
	for _, c := range backend.calls {
		if !c.flags.Persist || !c.flags.Notify {
			t.Fatalf("call for %q missing a flag: %+v", c.path, c.flags)
		}
		if c.flags.WinIni() != spifUpdateINIFile|spifSendChange {
			t.Fatalf("WinIni = %#x, want 0x3", c.flags.WinIni())
		}
	}
}

func TestSet_PassesPathThrough(t *testing.T) {
	backend := &stubBackend{}
	s := NewWithBackend(backend)

	s.Set(Request{ImagePath: "walls/../walls/a b.png"})
	if backend.calls[0].path != "walls/../walls/a b.png" {
		t.Fatalf("path was rewritten: %q", backend.calls[0].path)
	}
}

func TestSet_EmptyPathIsMissingArgument(t *testing.T) {
	backend := &stubBackend{}
	s := NewWithBackend(backend)

	if err := s.Set(Request{}); !errors.Is(err, ErrMissingArgument) {
		t.Fatalf("Set(\"\") = %v, want ErrMissingArgument", err)
	}
	if len(backend.calls) != 0 {
		t.Fatalf("backend should not be called for an empty path, got %d calls", len(backend.calls))
	}
}

func TestSet_BlankPathGoesToPlatform(t *testing.T) {
	backend := &stubBackend{}
	s := NewWithBackend(backend)

	if err := s.Set(Request{ImagePath: "   "}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if len(backend.calls) != 1 || backend.calls[0].path != "   " {
		t.Fatalf("blank path not handed to the backend: %+v", backend.calls)
	}
}

func TestSet_BackendFailureIsOSCallError(t *testing.T) {
	cause := errors.New("The system cannot find the file specified.")
	backend := &stubBackend{fail: cause}
	s := NewWithBackend(backend)

	err := s.Set(Request{ImagePath: `C:\missing.bmp`})
	var oe *OSCallError
	if !errors.As(err, &oe) {
		t.Fatalf("expected *OSCallError, got %T: %v", err, err)
	}
	if oe.Backend != "stub" || oe.Path != `C:\missing.bmp` {
		t.Fatalf("unexpected error fields: %+v", oe)
	}
	if !errors.Is(err, cause) {
		t.Fatal("OSCallError should unwrap to the backend error")
	}
	if got, _ := s.Current(); got != "" {
		t.Fatalf("failed set must not change Current, got %q", got)
	}
}

func TestFlagsWinIni(t *testing.T) {
	tests := []struct {
		flags Flags
		want  uint32
	}{
		{Flags{}, 0},
		{Flags{Persist: true}, 0x01},
		{Flags{Notify: true}, 0x02},
		{Flags{Persist: true, Notify: true}, 0x03},
	}
	for _, tt := range tests {
		if got := tt.flags.WinIni(); got != tt.want {
			t.Errorf("%+v.WinIni() = %#x, want %#x", tt.flags, got, tt.want)
		}
	}
}

func TestRequestValidate(t *testing.T) {
	if err := (Request{ImagePath: "/a.png"}).Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if err := (Request{}).Validate(); !errors.Is(err, ErrMissingArgument) {
		t.Fatalf("Validate(empty) = %v", err)
	}
	if err := (Request{ImagePath: " "}).Validate(); err != nil {
		t.Fatalf("Validate(blank) = %v, want nil", err)
	}
}
