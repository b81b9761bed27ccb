package errors

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestTreeErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *TreeError
		want string
	}{
		{
			name: "plain",
			err:  New("tree.AppendChild", KindIllegalMutation, "node is sealed"),
			want: "tree.AppendChild [illegal_mutation]: illegal mutation of sealed node: node is sealed",
		},
		{
			name: "surface",
			err:  New("commit.TryCommit", KindCommitFailed, "3 attempts").WithSurface(1),
			want: "commit.TryCommit [commit_failed] surface=1: commit failed: 3 attempts",
		},
		{
			name: "tag",
			err:  New("uimanager.CreateNode", KindComponentNotFound, "%q", "Slider").WithTag(7),
			want: `uimanager.CreateNode [component_not_found] tag=7: component not found: "Slider"`,
		},
		{
			name: "surface and tag",
			err:  New("uimanager.SetNativeProps", KindSurfaceNotFound, "gone").WithSurface(2).WithTag(9),
			want: "uimanager.SetNativeProps [surface_not_found] surface=2 tag=9: surface not found: gone",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTreeErrorMatchesSentinel(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want error
	}{
		{KindComponentNotFound, ErrComponentNotFound},
		{KindIllegalMutation, ErrIllegalMutation},
		{KindCommitFailed, ErrCommitFailed},
		{KindSurfaceNotFound, ErrSurfaceNotFound},
		{KindInvalidArgument, ErrInvalidArgument},
	}
	for _, tt := range tests {
		err := fmt.Errorf("outer: %w", New("op", tt.kind, "x"))
		if !stderrors.Is(err, tt.want) {
			t.Errorf("kind %s: errors.Is(%v, %v) = false", tt.kind, err, tt.want)
		}
		if got := KindOf(err); got != tt.kind {
			t.Errorf("KindOf = %s, want %s", got, tt.kind)
		}
	}
	if stderrors.Is(New("op", KindIllegalMutation, "x"), ErrCommitFailed) {
		t.Error("illegal mutation must not match ErrCommitFailed")
	}
	if got := KindOf(stderrors.New("plain")); got != KindUnknown {
		t.Errorf("KindOf(plain) = %s, want unknown", got)
	}
}

func TestErrorKindString(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want string
	}{
		{KindUnknown, "unknown"},
		{KindComponentNotFound, "component_not_found"},
		{KindIllegalMutation, "illegal_mutation"},
		{KindCommitFailed, "commit_failed"},
		{KindSurfaceNotFound, "surface_not_found"},
		{KindInvalidArgument, "invalid_argument"},
		{KindPanic, "panic"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("ErrorKind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestPanicErrorString(t *testing.T) {
	err := &PanicError{Value: "boom", Timestamp: time.Now()}
	if got, want := err.Error(), "panic: boom"; got != want {
		t.Errorf("PanicError.Error() = %q, want %q", got, want)
	}
	err.Op = "commit.TryCommit"
	if got, want := err.Error(), "panic in commit.TryCommit: boom"; got != want {
		t.Errorf("PanicError.Error() = %q, want %q", got, want)
	}
}

func TestReport(t *testing.T) {
	var captured *TreeError
	handler := &testHandler{onError: func(err *TreeError) { captured = err }}

	SetHandler(handler)
	defer SetHandler(nil)

	Report(New("test.op", KindCommitFailed, "exhausted"))

	if captured == nil {
		t.Fatal("expected error to be captured")
	}
	if captured.Op != "test.op" {
		t.Errorf("Op = %q, want %q", captured.Op, "test.op")
	}
	if captured.Timestamp.IsZero() {
		t.Error("expected Timestamp to be set")
	}
}

func TestRecover(t *testing.T) {
	var captured *PanicError
	handler := &testHandler{onPanic: func(err *PanicError) { captured = err }}

	SetHandler(handler)
	defer SetHandler(nil)

	func() {
		defer Recover("test.recover")
		panic("intentional test panic")
	}()

	if captured == nil {
		t.Fatal("expected panic to be recovered and captured")
	}
	if captured.Value != "intentional test panic" {
		t.Errorf("Value = %v, want %q", captured.Value, "intentional test panic")
	}
	if captured.Op != "test.recover" {
		t.Errorf("Op = %q, want %q", captured.Op, "test.recover")
	}
}

func TestRecoverAs(t *testing.T) {
	SetHandler(&testHandler{})
	defer SetHandler(nil)

	run := func() (err error) {
		defer RecoverAs("test.transform", &err)
		panic("bad transform")
	}
	err := run()
	if KindOf(err) != KindPanic {
		t.Fatalf("KindOf = %s, want panic", KindOf(err))
	}
	if !strings.Contains(err.Error(), "bad transform") {
		t.Errorf("error %q should mention the panic value", err)
	}
}

func TestCaptureStack(t *testing.T) {
	stack := CaptureStack()
	if stack == "" {
		t.Error("expected non-empty stack trace")
	}
	if !strings.Contains(stack, "testing") && !strings.Contains(stack, "runtime") {
		t.Errorf("stack trace should contain testing or runtime frames, got: %s", stack)
	}
}

func TestSetHandlerNil(t *testing.T) {
	SetHandler(nil)
	if _, ok := DefaultHandler.(*LogHandler); !ok {
		t.Errorf("SetHandler(nil) should set LogHandler, got %T", DefaultHandler)
	}
}

func TestLogHandlerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	h := NewLogHandler(zerolog.New(&buf), false)

	h.HandleError(New("commit.TryCommit", KindCommitFailed, "3 attempts").WithSurface(4))

	out := buf.String()
	for _, want := range []string{`"level":"warn"`, `"op":"commit.TryCommit"`, `"kind":"commit_failed"`, `"surface":4`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %s missing %s", out, want)
		}
	}
}

func TestLogHandlerZeroValueDiscards(t *testing.T) {
	h := &LogHandler{}
	h.HandleError(New("op", KindUnknown, "x"))
	h.HandlePanic(&PanicError{Value: 1})
}

type testHandler struct {
	onError func(*TreeError)
	onPanic func(*PanicError)
}

func (h *testHandler) HandleError(err *TreeError) {
	if h.onError != nil {
		h.onError(err)
	}
}

func (h *testHandler) HandlePanic(err *PanicError) {
	if h.onPanic != nil {
		h.onPanic(err)
	}
}
