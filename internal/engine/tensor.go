package engine

// DataType identifies the element type of a runtime-neutral tensor.
type DataType int

const (
	TypeUnknown DataType = iota
	TypeFloat32
	TypeInt64
)

func (t DataType) String() string {
	switch t {
	case TypeFloat32:
		return "float32"
	case TypeInt64:
		return "int64"
	default:
		return "unknown"
	}
}

// Tensor is a runtime-neutral tensor payload. It carries flat data plus a
// shape so the pipeline stays testable without a native inference runtime
// loaded. Exactly one of F32/I64 is populated, matching Type.
type Tensor struct {
	Shape []int64
	Type  DataType
	F32   []float32
	I64   []int64
}

// Float32Tensor builds a float tensor over the given shape.
func Float32Tensor(shape []int64, data []float32) *Tensor {
	return &Tensor{Shape: shape, Type: TypeFloat32, F32: data}
}

// Int64Tensor builds an integer tensor over the given shape.
func Int64Tensor(shape []int64, data []int64) *Tensor {
	return &Tensor{Shape: shape, Type: TypeInt64, I64: data}
}

// Len reports the element count implied by the shape.
func (t *Tensor) Len() int64 {
	if len(t.Shape) == 0 {
		return 0
	}
	n := int64(1)
	for _, d := range t.Shape {
		n *= d
	}
	return n
}

// InputInfo describes one input slot a loaded model declares.
type InputInfo struct {
	Name string
	Dims []int64
	Type DataType
}
