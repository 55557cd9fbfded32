package component

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Options is the opaque keyword configuration handed to a component at
// construction. The framework never interprets it.
type Options map[string]any

// Decode fills the struct pointed to by out, matching keys against
// `mapstructure` tags. Unknown keys are an error.
func (o Options) Decode(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(map[string]any(o)); err != nil {
		return fmt.Errorf("component options: %w", err)
	}
	return nil
}

func (o Options) Float(key string, def float64) float64 {
	switch v := o[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return def
}

func (o Options) String(key, def string) string {
	if v, ok := o[key].(string); ok {
		return v
	}
	return def
}
