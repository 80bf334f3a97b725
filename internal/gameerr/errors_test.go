package gameerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsMatchesByCode(t *testing.T) {
	err := Newf(CodePreconditionFailed, "need %d iron_ore", 3)
	if !errors.Is(err, ErrPreconditionFailed) {
		t.Fatal("expected precondition sentinel to match")
	}
	if errors.Is(err, ErrConfigMissing) {
		t.Fatal("unexpected config sentinel match")
	}
	wrapped := fmt.Errorf("craft: %w", err)
	if CodeOf(wrapped) != CodePreconditionFailed {
		t.Fatalf("expected code through wrap, got %q", CodeOf(wrapped))
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := Wrap(CodeCorruptSave, "decode save", cause)
	if !errors.Is(err, cause) {
		t.Fatal("expected cause in chain")
	}
	if err.Error() != "decode save: unexpected EOF" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if CodeOf(errors.New("plain")) != "" {
		t.Fatal("expected empty code for plain error")
	}
}
