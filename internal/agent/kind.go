package agent

import (
	"fmt"

	"github.com/msp-agents/msp/internal/errors"
)

// Kind identifies a worker type. The set is closed: an unrecognized
// name is an error rather than a silently-accepted passthrough.
type Kind string

const (
	KindCoder      Kind = "coder"
	KindDocumenter Kind = "documenter"
	KindTester     Kind = "tester"
	KindEcho       Kind = "echo"
)

// Kinds returns every valid worker kind in priority order.
func Kinds() []Kind {
	return []Kind{KindCoder, KindDocumenter, KindTester, KindEcho}
}

// ParseKind converts a string into a Kind, rejecting unknown names.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", errors.Wrapf(errors.ErrWorkerNotFound, "unknown agent kind %q", s)
	}
	return k, nil
}

// Valid reports whether k names a known worker kind.
func (k Kind) Valid() bool {
	switch k {
	case KindCoder, KindDocumenter, KindTester, KindEcho:
		return true
	}
	return false
}

func (k Kind) String() string {
	return string(k)
}

// ScratchpadName returns the scratchpad file name for the i-th subtask
// assigned to this kind within a run.
func (k Kind) ScratchpadName(i int) string {
	return fmt.Sprintf("%s_%d.scratchpad.md", k, i)
}
