// Package agents provides the swarm member data model, its initialisation, and the local
// update rule.
package agents

import (
	"fmt"
	"math/rand/v2"
)

// AgentID identifies an agent within one run. IDs are the agent's index, 0..N-1, so they
// are unique and stable for the life of the run.
type AgentID int

// Role is a discrete agent type tag.
type Role uint8

const (
	RoleNaive    Role = iota // ignores the environment field
	RoleInformed             // activation is driven by the environment field
)

func (r Role) String() string {
	switch r {
	case RoleNaive:
		return "naive"
	case RoleInformed:
		return "informed"
	default:
		return fmt.Sprintf("role(%d)", uint8(r))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Role) UnmarshalText(b []byte) error {
	switch string(b) {
	case "naive":
		*r = RoleNaive
	case "informed":
		*r = RoleInformed
	default:
		return fmt.Errorf("unknown role %q", b)
	}
	return nil
}

// State is one agent's state at one step. Slices are owned by the state; Clone before
// handing a state to code that may keep it.
type State struct {
	Position   []float64 `json:"position"`
	Velocity   []float64 `json:"velocity"`
	Activation float64   `json:"activation"`
	Energy     float64   `json:"energy"`
	Active     bool      `json:"active"` // false once energy is exhausted
	Role       Role      `json:"role"`
}

// Clone returns a deep copy.
func (s State) Clone() State {
	s.Position = append([]float64(nil), s.Position...)
	s.Velocity = append([]float64(nil), s.Velocity...)
	return s
}

// Speed returns the Euclidean norm of the velocity.
func (s State) Speed() float64 {
	return norm(s.Velocity)
}

// Agent is one swarm member: a stable identity, its current state, and the private random
// stream consumed by its update rule.
type Agent struct {
	ID    AgentID `json:"id"`
	State State   `json:"state"`

	rng *rand.Rand
}

// Rand returns the agent's dynamics stream.
func (a *Agent) Rand() *rand.Rand {
	return a.rng
}
