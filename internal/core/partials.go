package core

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Key identifies the partial block d(Of)/d(Wrt).
type Key struct {
	Of  string
	Wrt string
}

func (k Key) String() string {
	return fmt.Sprintf("(%s, %s)", k.Of, k.Wrt)
}

// block stores either a dense matrix or a fixed coordinate pattern.
type block struct {
	rows, cols int

	dense *mat.Dense

	// coordinate storage; the pattern never changes after declaration
	ri, ci []int
	vals   []float64
}

func (b *block) sparse() bool { return b.dense == nil }

func (b *block) nnz() int {
	if b.sparse() {
		return len(b.vals)
	}
	return b.rows * b.cols
}

// Table holds every declared partial block of an analysis.
type Table struct {
	order  []Key
	blocks map[Key]*block
}

func NewTable() *Table {
	return &Table{blocks: make(map[Key]*block)}
}

func (t *Table) add(op string, k Key, b *block) error {
	if _, ok := t.blocks[k]; ok {
		return &BlockError{Op: op, Key: k, Err: ErrDuplicateName}
	}
	t.blocks[k] = b
	t.order = append(t.order, k)
	return nil
}

func checkDims(op string, k Key, rows, cols int) error {
	if rows <= 0 || cols <= 0 {
		return &ShapeError{Op: op, Name: k.String(), Want: Shape{1, 1}, Got: Shape{rows, cols}}
	}
	return nil
}

// DeclareDense allocates a rows×cols block, zero unless initial is given.
func (t *Table) DeclareDense(of, wrt string, rows, cols int, initial mat.Matrix) error {
	k := Key{of, wrt}
	if err := checkDims("declare dense", k, rows, cols); err != nil {
		return err
	}
	d := mat.NewDense(rows, cols, nil)
	if initial != nil {
		r, c := initial.Dims()
		if r != rows || c != cols {
			return &ShapeError{Op: "declare dense", Name: k.String(), Want: Shape{rows, cols}, Got: Shape{r, c}}
		}
		d.Copy(initial)
	}
	return t.add("declare dense", k, &block{rows: rows, cols: cols, dense: d})
}

// DeclareSparse fixes the coordinate pattern (rowIdx[i], colIdx[i]) of a
// rows×cols block. values seeds the pattern and defaults to zeros.
func (t *Table) DeclareSparse(of, wrt string, rows, cols int, rowIdx, colIdx []int, values []float64) error {
	k := Key{of, wrt}
	if err := checkDims("declare sparse", k, rows, cols); err != nil {
		return err
	}
	if len(rowIdx) != len(colIdx) {
		return &ShapeError{Op: "declare sparse", Name: k.String(), Want: Shape{len(rowIdx)}, Got: Shape{len(colIdx)}}
	}
	for i := range rowIdx {
		if rowIdx[i] < 0 || rowIdx[i] >= rows || colIdx[i] < 0 || colIdx[i] >= cols {
			return &BlockError{Op: "declare sparse", Key: k,
				Err: fmt.Errorf("%w: coordinate (%d,%d) outside %dx%d block", ErrShapeMismatch, rowIdx[i], colIdx[i], rows, cols)}
		}
	}
	vals := make([]float64, len(rowIdx))
	if values != nil {
		if len(values) != len(rowIdx) {
			return &ShapeError{Op: "declare sparse", Name: k.String(), Want: Shape{len(rowIdx)}, Got: Shape{len(values)}}
		}
		copy(vals, values)
	}
	ri := make([]int, len(rowIdx))
	ci := make([]int, len(colIdx))
	copy(ri, rowIdx)
	copy(ci, colIdx)
	return t.add("declare sparse", k, &block{rows: rows, cols: cols, ri: ri, ci: ci, vals: vals})
}

func (t *Table) lookup(op, of, wrt string) (*block, error) {
	k := Key{of, wrt}
	b, ok := t.blocks[k]
	if !ok {
		return nil, &BlockError{Op: op, Key: k, Err: ErrUnknownBlock}
	}
	return b, nil
}

// Fill overwrites a block's values: the pattern values for sparse blocks, or
// row-major entries for dense ones.
func (t *Table) Fill(of, wrt string, values []float64) error {
	b, err := t.lookup("fill", of, wrt)
	if err != nil {
		return err
	}
	if len(values) != b.nnz() {
		want := Shape{b.rows, b.cols}
		if b.sparse() {
			want = Shape{len(b.vals)}
		}
		return &ShapeError{Op: "fill", Name: Key{of, wrt}.String(), Want: want, Got: Shape{len(values)}}
	}
	if b.sparse() {
		copy(b.vals, values)
		return nil
	}
	copy(b.dense.RawMatrix().Data, values)
	return nil
}

// FillDense overwrites a dense block from a matrix of the same dimensions.
func (t *Table) FillDense(of, wrt string, m mat.Matrix) error {
	b, err := t.lookup("fill", of, wrt)
	if err != nil {
		return err
	}
	r, c := m.Dims()
	if r != b.rows || c != b.cols {
		return &ShapeError{Op: "fill", Name: Key{of, wrt}.String(), Want: Shape{b.rows, b.cols}, Got: Shape{r, c}}
	}
	if b.sparse() {
		return &BlockError{Op: "fill", Key: Key{of, wrt}, Err: fmt.Errorf("%w: block has a fixed coordinate pattern", ErrShapeMismatch)}
	}
	b.dense.Copy(m)
	return nil
}

// Dense materializes a block. Sparse blocks are scattered; repeated
// coordinates accumulate.
func (t *Table) Dense(of, wrt string) (*mat.Dense, error) {
	b, err := t.lookup("get", of, wrt)
	if err != nil {
		return nil, err
	}
	d := mat.NewDense(b.rows, b.cols, nil)
	if !b.sparse() {
		d.Copy(b.dense)
		return d, nil
	}
	for i, v := range b.vals {
		d.Set(b.ri[i], b.ci[i], d.At(b.ri[i], b.ci[i])+v)
	}
	return d, nil
}

// AddTo adds alpha times the block into dst with its top-left corner at (r0, c0).
func (t *Table) AddTo(dst *mat.Dense, r0, c0 int, of, wrt string, alpha float64) error {
	b, err := t.lookup("assemble", of, wrt)
	if err != nil {
		return err
	}
	if b.sparse() {
		for i, v := range b.vals {
			r, c := r0+b.ri[i], c0+b.ci[i]
			dst.Set(r, c, dst.At(r, c)+alpha*v)
		}
		return nil
	}
	for i := 0; i < b.rows; i++ {
		for j := 0; j < b.cols; j++ {
			dst.Set(r0+i, c0+j, dst.At(r0+i, c0+j)+alpha*b.dense.At(i, j))
		}
	}
	return nil
}

func (t *Table) Has(of, wrt string) bool {
	_, ok := t.blocks[Key{of, wrt}]
	return ok
}

func (t *Table) Dims(of, wrt string) (int, int, error) {
	b, err := t.lookup("dims", of, wrt)
	if err != nil {
		return 0, 0, err
	}
	return b.rows, b.cols, nil
}

// Pattern returns a copy of the coordinate pattern of a sparse block.
func (t *Table) Pattern(of, wrt string) (rows, cols []int, ok bool) {
	b, found := t.blocks[Key{of, wrt}]
	if !found || !b.sparse() {
		return nil, nil, false
	}
	rows = make([]int, len(b.ri))
	cols = make([]int, len(b.ci))
	copy(rows, b.ri)
	copy(cols, b.ci)
	return rows, cols, true
}

// Keys returns the declared blocks in declaration order.
func (t *Table) Keys() []Key {
	out := make([]Key, len(t.order))
	copy(out, t.order)
	return out
}

func (t *Table) Len() int { return len(t.order) }

// Truncate forgets every block declared after the first n.
func (t *Table) Truncate(n int) {
	if n < 0 || n >= len(t.order) {
		return
	}
	for _, k := range t.order[n:] {
		delete(t.blocks, k)
	}
	t.order = t.order[:n]
}
