package grender

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidResource is the cause of InvalidResourceReference conditions.
	ErrInvalidResource = errors.New("invalid resource reference")
	// ErrReentrantMutation is returned by Enqueue and Flush when called during a flush.
	ErrReentrantMutation = errors.New("render queue mutated during flush")
	// ErrContextLost is returned by Flush when the DrawManager surface is unavailable.
	ErrContextLost = errors.New("render surface unavailable")
)

// ConditionKind classifies the recoverable conditions met during a flush.
type ConditionKind int

const (
	// InvalidResourceReference: a command refers to a released or unknown
	// atlas or texture. The command is skipped.
	InvalidResourceReference ConditionKind = iota
	// ReentrantMutation: Enqueue or Flush was called during a flush. The rest
	// of the frame is dropped.
	ReentrantMutation
	// DeadContext: the surface is unavailable. Frames are dropped until it
	// comes back.
	DeadContext
)

func (k ConditionKind) String() string {
	switch k {
	case InvalidResourceReference:
		return "InvalidResourceReference"
	case ReentrantMutation:
		return "ReentrantMutation"
	case DeadContext:
		return "DeadContext"
	}
	return fmt.Sprintf("ConditionKind(%d)", int(k))
}

// A Condition is reported for each problem met during a flush. Index is the
// position in the frame queue, in enqueue order, of the offending command, or
// -1 if the condition does not relate to a command.
type Condition struct {
	Kind  ConditionKind
	Index int
	Err   error
}

func (c Condition) String() string {
	if c.Index < 0 {
		return fmt.Sprintf("%v: %v", c.Kind, c.Err)
	}
	return fmt.Sprintf("%v at command %d: %v", c.Kind, c.Index, c.Err)
}

// FlushError aggregates the conditions met during one flush. Errors
// wrapped by its conditions are visible to errors.Is and errors.As.
type FlushError struct {
	Frame      uint64
	Conditions []Condition
}

func (e *FlushError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "frame %d:", e.Frame)
	for i, c := range e.Conditions {
		if i > 0 {
			sb.WriteByte(';')
		}
		sb.WriteByte(' ')
		sb.WriteString(c.String())
	}
	return sb.String()
}

// Is reports whether any condition error matches target.
func (e *FlushError) Is(target error) bool {
	for _, c := range e.Conditions {
		if errors.Is(c.Err, target) {
			return true
		}
	}
	return false
}

// Count returns the number of conditions of kind k.
func (e *FlushError) Count(k ConditionKind) int {
	n := 0
	for _, c := range e.Conditions {
		if c.Kind == k {
			n++
		}
	}
	return n
}
