// Package field holds the raw two-dimensional sample storage shared by polar
// sweeps and Cartesian grids, together with the classification of raw values
// into data, undetect and nodata.
//
// Raw values are kept as float64 in a gonum dense matrix; the declared
// DataType decides how a value is narrowed when it is stored, so a uint8
// field behaves like the byte arrays radar products are exchanged in.
package field

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// ErrInvalidSize is returned when a field is allocated with a non-positive dimension.
var ErrInvalidSize = errors.New("invalid field size")

// ValueType classifies a raw value against the nodata and undetect sentinels.
type ValueType int

const (
	Data ValueType = iota
	Undetect
	Nodata
)

func (v ValueType) String() string {
	switch v {
	case Data:
		return "data"
	case Undetect:
		return "undetect"
	case Nodata:
		return "nodata"
	default:
		return fmt.Sprintf("ValueType(%d)", int(v))
	}
}

// Classify compares raw against the sentinels by exact equality.
// Nodata wins when both sentinels share a value.
func Classify(raw, nodata, undetect float64) ValueType {
	switch raw {
	case nodata:
		return Nodata
	case undetect:
		return Undetect
	default:
		return Data
	}
}

// DataType is the storage type of a field's raw values.
type DataType int

const (
	Undefined DataType = iota
	Int8
	Uint8
	Int16
	Uint16
	Int32
	Uint32
	Int64
	Float32
	Float64
)

var dataTypeNames = map[DataType]string{
	Int8:    "int8",
	Uint8:   "uint8",
	Int16:   "int16",
	Uint16:  "uint16",
	Int32:   "int32",
	Uint32:  "uint32",
	Int64:   "int64",
	Float32: "float32",
	Float64: "float64",
}

func (t DataType) String() string {
	if name, ok := dataTypeNames[t]; ok {
		return name
	}
	return "undefined"
}

// ParseDataType maps a type name such as "uint8" or "float64" to a DataType.
// The ODIM-style aliases "uchar", "short", "int", "float" and "double" are accepted too.
func ParseDataType(s string) (DataType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "int8", "char":
		return Int8, nil
	case "uint8", "uchar":
		return Uint8, nil
	case "int16", "short":
		return Int16, nil
	case "uint16", "ushort":
		return Uint16, nil
	case "int32", "int":
		return Int32, nil
	case "uint32", "uint":
		return Uint32, nil
	case "int64", "long":
		return Int64, nil
	case "float32", "float":
		return Float32, nil
	case "float64", "double":
		return Float64, nil
	default:
		return Undefined, fmt.Errorf("unknown data type %q", s)
	}
}

// Convert narrows v to what a cell of type t can hold. Integer types
// truncate toward zero and saturate at their range; NaN stores as zero.
func (t DataType) Convert(v float64) float64 {
	switch t {
	case Float64, Undefined:
		return v
	case Float32:
		return float64(float32(v))
	}
	if math.IsNaN(v) {
		return 0
	}
	lo, hi := t.bounds()
	v = math.Trunc(v)
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (t DataType) bounds() (float64, float64) {
	switch t {
	case Int8:
		return math.MinInt8, math.MaxInt8
	case Uint8:
		return 0, math.MaxUint8
	case Int16:
		return math.MinInt16, math.MaxInt16
	case Uint16:
		return 0, math.MaxUint16
	case Int32:
		return math.MinInt32, math.MaxInt32
	case Uint32:
		return 0, math.MaxUint32
	default:
		return math.MinInt64, math.MaxInt64
	}
}

// Field is a dense xsize by ysize array of raw values.
// Row y holds the samples for one ray (polar) or one grid row (Cartesian).
type Field struct {
	typ  DataType
	data *mat.Dense
}

// New allocates a zero-filled field.
func New(xsize, ysize int, t DataType) (*Field, error) {
	if xsize <= 0 || ysize <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, xsize, ysize)
	}
	if t == Undefined {
		t = Float64
	}
	return &Field{typ: t, data: mat.NewDense(ysize, xsize, nil)}, nil
}

// FromRows builds a field from row-major values; every row must have the same length.
func FromRows(rows [][]float64, t DataType) (*Field, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: empty rows", ErrInvalidSize)
	}
	f, err := New(len(rows[0]), len(rows), t)
	if err != nil {
		return nil, err
	}
	for y, row := range rows {
		if len(row) != len(rows[0]) {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrInvalidSize, y, len(row), len(rows[0]))
		}
		for x, v := range row {
			f.data.Set(y, x, t.Convert(v))
		}
	}
	return f, nil
}

func (f *Field) XSize() int {
	_, c := f.data.Dims()
	return c
}

func (f *Field) YSize() int {
	r, _ := f.data.Dims()
	return r
}

func (f *Field) Type() DataType { return f.typ }

// Contains reports whether (x, y) addresses a cell of the field.
func (f *Field) Contains(x, y int) bool {
	r, c := f.data.Dims()
	return x >= 0 && y >= 0 && x < c && y < r
}

// Value returns the raw value at (x, y); ok is false outside the field.
func (f *Field) Value(x, y int) (v float64, ok bool) {
	if !f.Contains(x, y) {
		return 0, false
	}
	return f.data.At(y, x), true
}

// SetValue stores v at (x, y) after conversion to the field's data type.
func (f *Field) SetValue(x, y int, v float64) bool {
	if !f.Contains(x, y) {
		return false
	}
	f.data.Set(y, x, f.typ.Convert(v))
	return true
}

// Fill sets every cell to v.
func (f *Field) Fill(v float64) {
	v = f.typ.Convert(v)
	r, c := f.data.Dims()
	for y := 0; y < r; y++ {
		for x := 0; x < c; x++ {
			f.data.Set(y, x, v)
		}
	}
}

// Rows copies the field out as row-major slices.
func (f *Field) Rows() [][]float64 {
	r, _ := f.data.Dims()
	rows := make([][]float64, r)
	for y := range rows {
		rows[y] = mat.Row(nil, y, f.data)
	}
	return rows
}

// Clone returns a deep copy.
func (f *Field) Clone() *Field {
	return &Field{typ: f.typ, data: mat.DenseCopyOf(f.data)}
}
