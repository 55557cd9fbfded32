package core

import (
	"fmt"
	"strconv"
	"strings"
)

// Shape is the dimension list of a value. A nil or empty shape is a scalar.
type Shape []int

func (s Shape) Size() int {
	n := 1
	for _, d := range s {
		n *= d
	}
	return n
}

func (s Shape) Equal(o Shape) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

func (s Shape) String() string {
	if len(s) == 0 {
		return "()"
	}
	parts := make([]string, len(s))
	for i, d := range s {
		parts[i] = strconv.Itoa(d)
	}
	return "(" + strings.Join(parts, ",") + ")"
}

// Value is either a scalar or a tensor with an explicit shape.
type Value struct {
	shape Shape
	data  []float64
}

func Scalar(v float64) Value {
	return Value{data: []float64{v}}
}

// Vector returns a 1-D tensor holding a copy of data.
func Vector(data ...float64) Value {
	if len(data) == 0 {
		panic("core: empty vector")
	}
	d := make([]float64, len(data))
	copy(d, data)
	return Value{shape: Shape{len(d)}, data: d}
}

// Zeros returns a zero tensor of the given shape, or a zero scalar when no
// dimensions are given. It panics on non-positive dimensions.
func Zeros(shape ...int) Value {
	if len(shape) == 0 {
		return Scalar(0)
	}
	for _, d := range shape {
		if d <= 0 {
			panic(fmt.Sprintf("core: invalid dimension %d", d))
		}
	}
	s := make(Shape, len(shape))
	copy(s, shape)
	return Value{shape: s, data: make([]float64, s.Size())}
}

// NewTensor builds a tensor from row-major data.
func NewTensor(shape Shape, data []float64) (Value, error) {
	if len(shape) == 0 {
		return Value{}, fmt.Errorf("core: tensor needs at least one dimension")
	}
	for _, d := range shape {
		if d <= 0 {
			return Value{}, fmt.Errorf("core: invalid dimension %d in %s", d, shape)
		}
	}
	if shape.Size() != len(data) {
		return Value{}, &ShapeError{Op: "tensor", Want: shape, Got: Shape{len(data)}}
	}
	s := make(Shape, len(shape))
	copy(s, shape)
	d := make([]float64, len(data))
	copy(d, data)
	return Value{shape: s, data: d}, nil
}

func (v Value) IsScalar() bool { return len(v.shape) == 0 }

func (v Value) Size() int { return len(v.data) }

func (v Value) Shape() Shape {
	if v.IsScalar() {
		return nil
	}
	s := make(Shape, len(v.shape))
	copy(s, v.shape)
	return s
}

// Data returns a copy of the flattened values.
func (v Value) Data() []float64 {
	d := make([]float64, len(v.data))
	copy(d, v.data)
	return d
}

// Float returns the scalar value, or the first element of a tensor.
func (v Value) Float() float64 {
	if len(v.data) == 0 {
		return 0
	}
	return v.data[0]
}

func (v Value) At(i int) float64 { return v.data[i] }

func (v Value) SameShape(o Value) bool {
	return v.shape.Equal(o.shape)
}

// WithData returns a value of the same shape holding a copy of data.
func (v Value) WithData(data []float64) (Value, error) {
	if len(data) != len(v.data) {
		return Value{}, &ShapeError{Op: "assign", Want: v.shape, Got: Shape{len(data)}}
	}
	d := make([]float64, len(data))
	copy(d, data)
	return Value{shape: v.Shape(), data: d}, nil
}

func (v Value) Clone() Value {
	return Value{shape: v.Shape(), data: v.Data()}
}

func (v Value) String() string {
	if v.IsScalar() {
		return strconv.FormatFloat(v.Float(), 'g', -1, 64)
	}
	parts := make([]string, len(v.data))
	for i, x := range v.data {
		parts[i] = strconv.FormatFloat(x, 'g', 6, 64)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
