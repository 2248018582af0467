package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Grid lists the axes a sweep file varies. An empty axis keeps the base value.
type Grid struct {
	Policies     []Policy  `yaml:"policies,omitempty" json:"policies,omitempty"`
	SwarmSizes   []int     `yaml:"swarm_sizes,omitempty" json:"swarm_sizes,omitempty"`
	Complexities []float64 `yaml:"complexities,omitempty" json:"complexities,omitempty"`
	Seeds        []int64   `yaml:"seeds,omitempty" json:"seeds,omitempty"`
}

// Sweep is a base experiment plus the grid it is expanded over.
type Sweep struct {
	Name string     `yaml:"name" json:"name"`
	Base Experiment `yaml:"base" json:"base"`
	Grid Grid       `yaml:"grid,omitempty" json:"grid,omitempty"`
}

// Load reads a YAML sweep file. Fields missing from the file keep their Default values.
func Load(path string) (Sweep, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Sweep{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML sweep document. Unknown keys are rejected.
func Parse(data []byte) (Sweep, error) {
	s := Sweep{Base: Default()}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return Sweep{}, fmt.Errorf("parse config: %w", err)
	}

	if s.Name == "" {
		s.Name = s.Base.Name
	} else if s.Base.Name == Default().Name {
		s.Base.Name = s.Name
	}
	if err := s.Base.Connectivity.Resolve(); err != nil {
		return Sweep{}, err
	}
	return s, nil
}

// Resolve decodes the free-form Params map into the typed rule fields and clears it.
func (c *Connectivity) Resolve() error {
	if len(c.Params) == 0 {
		return nil
	}
	params := c.Params
	c.Params = nil

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           c,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return fmt.Errorf("connectivity decoder: %w", err)
	}
	if err := dec.Decode(params); err != nil {
		return invalid("connectivity.params", "%v", err)
	}
	return nil
}

// Expand returns one experiment per grid cell, ordered policy, swarm size, complexity,
// seed. The order is fixed so repeated expansions produce identical sweeps.
func (s Sweep) Expand() []Experiment {
	policies := s.Grid.Policies
	if len(policies) == 0 {
		policies = []Policy{s.Base.Dynamics.Policy}
	}
	sizes := s.Grid.SwarmSizes
	if len(sizes) == 0 {
		sizes = []int{s.Base.SwarmSize}
	}
	complexities := s.Grid.Complexities
	if len(complexities) == 0 {
		complexities = []float64{s.Base.Complexity}
	}
	seeds := s.Grid.Seeds
	if len(seeds) == 0 {
		seeds = []int64{s.Base.Seed}
	}

	name := s.Name
	if name == "" {
		name = s.Base.Name
	}

	out := make([]Experiment, 0, len(policies)*len(sizes)*len(complexities)*len(seeds))
	for _, p := range policies {
		for _, n := range sizes {
			for _, c := range complexities {
				for _, seed := range seeds {
					e := s.Base.Clone()
					e.Name = name
					e.Dynamics.Policy = p
					e.SwarmSize = n
					e.Complexity = c
					e.Seed = seed
					out = append(out, e)
				}
			}
		}
	}
	return out
}
