package dispatch

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"
)

// Lifecycle states. These stay untyped string constants for statekit.StateID
// compatibility.
const (
	StateIdle       = "idle"
	StateSending    = "sending"
	StateRendered   = "rendered"
	StateAlerted    = "alerted"
	StateSuperseded = "superseded"
)

// Lifecycle events.
const (
	EventSend      = "send"
	EventRender    = "render"
	EventAlert     = "alert"
	EventSupersede = "supersede"
)

// lifecycleContext carries the trigger the machine belongs to.
type lifecycleContext struct {
	Trigger Trigger
}

// Lifecycle tracks one dispatch from trigger to outcome.
type Lifecycle struct {
	interpreter *statekit.Interpreter[lifecycleContext]
}

func NewLifecycle(trigger Trigger) (*Lifecycle, error) {
	builder := statekit.NewMachine[lifecycleContext]("dispatch-lifecycle").
		WithInitial(StateIdle).
		WithContext(lifecycleContext{Trigger: trigger})

	builder.State(StateIdle).
		On(EventSend).Target(StateSending).
		On(EventAlert).Target(StateAlerted).
		Done()

	builder.State(StateSending).
		On(EventRender).Target(StateRendered).
		On(EventAlert).Target(StateAlerted).
		On(EventSupersede).Target(StateSuperseded).
		Done()

	// Outcomes are terminal.
	builder.State(StateRendered).Done()
	builder.State(StateAlerted).Done()
	builder.State(StateSuperseded).Done()

	machine, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build lifecycle machine: %w", err)
	}

	interpreter := statekit.NewInterpreter(machine)
	interpreter.Start()
	return &Lifecycle{interpreter: interpreter}, nil
}

// Fire sends event and reports an error if it did not move the machine.
func (l *Lifecycle) Fire(event string) error {
	before := l.Current()
	l.interpreter.Send(statekit.Event{Type: statekit.EventType(event)})
	if l.Current() == before {
		return fmt.Errorf("event %q is not allowed in state %q", event, before)
	}
	return nil
}

func (l *Lifecycle) Current() string {
	return string(l.interpreter.State().Value)
}

// Done reports whether the dispatch reached an outcome.
func (l *Lifecycle) Done() bool {
	switch l.Current() {
	case StateRendered, StateAlerted, StateSuperseded:
		return true
	default:
		return false
	}
}
