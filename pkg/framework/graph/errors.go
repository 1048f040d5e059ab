package graph

import "errors"

var (
	// ErrOutOfCapacity is returned when a fixed-capacity resource (unit
	// pool on the real-time path, connection or sink table, scheduler
	// scratch, bus pool) is exhausted.
	ErrOutOfCapacity = errors.New("graph: out of capacity")

	// ErrFeedbackLoop is returned by Connect for a self-connection.
	// Non-trivial cycles are not detected; executing a cyclic graph is
	// undefined, though scheduling always terminates.
	ErrFeedbackLoop = errors.New("graph: connection would form a feedback loop")

	// ErrInvalidChannel is returned by Connect for a channel index
	// outside [0, unit.MaxPorts).
	ErrInvalidChannel = errors.New("graph: channel index out of range")

	// ErrInvalidGraph is latched when scheduling detects an unrecoverable
	// state. Run emits silence until a mutation and Reschedule clear it.
	ErrInvalidGraph = errors.New("graph: invalid graph")
)
