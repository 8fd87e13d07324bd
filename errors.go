package settings

import "errors"

var (
	// ErrInvalidContainer indicates a container was assigned to a slot whose
	// variant constraint it violates. The slot keeps its previous container.
	ErrInvalidContainer = errors.New("settings: container type not allowed in slot")
	// ErrTooManyExtruders indicates an extruder attachment would exceed the
	// machine_extruder_count resolved from the definition.
	ErrTooManyExtruders = errors.New("settings: extruder count exceeded")
	// ErrInvalidOperation indicates a structural mutation that is categorically
	// unsupported on a global stack.
	ErrInvalidOperation = errors.New("settings: operation not supported on a global stack")
)
