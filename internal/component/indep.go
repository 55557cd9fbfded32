package component

import "github.com/san-kum/mdao/internal/core"

// IndepVarComp publishes design variables as outputs. It has no inputs and
// no partials; its outputs change only through Model.SetVal.
type IndepVarComp struct {
	Base
	names  []string
	values []core.Value
}

func NewIndepVarComp(name string, v core.Value) *IndepVarComp {
	c := &IndepVarComp{}
	return c.Add(name, v)
}

// Add registers another output. It must be called before the component is attached.
func (c *IndepVarComp) Add(name string, v core.Value) *IndepVarComp {
	c.names = append(c.names, name)
	c.values = append(c.values, v)
	return c
}

func (c *IndepVarComp) Setup() error {
	for i, name := range c.names {
		if err := c.AddOutput(name, c.values[i]); err != nil {
			return err
		}
	}
	return nil
}

func (c *IndepVarComp) SetupPartials() error                   { return nil }
func (c *IndepVarComp) Compute(Inputs, Outputs) error          { return nil }
func (c *IndepVarComp) ComputePartials(Inputs, Partials) error { return nil }
