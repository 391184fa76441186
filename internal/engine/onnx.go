package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	ort "github.com/yalue/onnxruntime_go"
)

// Initialize loads the ONNX Runtime shared library and environment. Call
// once per process before opening sessions; pair with Shutdown at exit.
func Initialize(libraryPath string) error {
	if libraryPath != "" {
		ort.SetSharedLibraryPath(libraryPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("initialize onnxruntime: %w", err)
	}
	return nil
}

// Shutdown releases the ONNX Runtime environment.
func Shutdown() error {
	return ort.DestroyEnvironment()
}

// ONNXSession runs a voice model through ONNX Runtime. The native Run call is
// atomic, so each run executes on a worker goroutine and the returned Stepper
// polls it with a bounded wait per step.
type ONNXSession struct {
	sess         *ort.DynamicAdvancedSession
	inputs       []InputInfo
	inputNames   []string
	stepInterval time.Duration
	log          *slog.Logger

	mu      sync.Mutex
	bound   map[string]*Tensor
	running bool
	output  *Tensor
	closed  bool
	wg      sync.WaitGroup
}

// OpenONNX loads the model at modelPath on the given backend and discovers
// its declared input slots.
func OpenONNX(modelPath string, backend Backend, stepInterval time.Duration, log *slog.Logger) (*ONNXSession, error) {
	inputInfo, outputInfo, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("inspect model %s: %w", modelPath, err)
	}
	if len(outputInfo) == 0 {
		return nil, fmt.Errorf("model %s declares no outputs", modelPath)
	}

	names := make([]string, len(inputInfo))
	infos := make([]InputInfo, len(inputInfo))
	for i, in := range inputInfo {
		names[i] = in.Name
		infos[i] = InputInfo{
			Name: in.Name,
			Dims: append([]int64(nil), in.Dimensions...),
			Type: dataTypeFromOrt(in.DataType),
		}
	}

	opts, err := backend.sessionOptions()
	if err != nil {
		return nil, err
	}
	if opts != nil {
		defer opts.Destroy()
	}

	sess, err := ort.NewDynamicAdvancedSession(modelPath, names, []string{outputInfo[0].Name}, opts)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", modelPath, err)
	}

	return &ONNXSession{
		sess:         sess,
		inputs:       infos,
		inputNames:   names,
		stepInterval: stepInterval,
		log:          log.With(slog.String("component", "onnx-session")),
		bound:        make(map[string]*Tensor),
	}, nil
}

func (s *ONNXSession) Inputs() []InputInfo {
	return s.inputs
}

func (s *ONNXSession) Bind(name string, t *Tensor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bound[name] = t
}

func (s *ONNXSession) Run(ctx context.Context) (Stepper, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSessionClosed
	}
	if s.running {
		return nil, ErrRunInFlight
	}

	bound := s.bound
	s.bound = make(map[string]*Tensor)

	values := make([]ort.Value, len(s.inputNames))
	destroyValues := func() {
		for _, v := range values {
			if v != nil {
				v.Destroy()
			}
		}
	}
	for i, name := range s.inputNames {
		t, ok := bound[name]
		if !ok {
			destroyValues()
			return nil, fmt.Errorf("%w: %s", ErrMissingInput, name)
		}
		v, err := ortValue(t)
		if err != nil {
			destroyValues()
			return nil, err
		}
		values[i] = v
	}

	s.running = true
	s.output = nil
	done := make(chan error, 1)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer destroyValues()

		outputs := []ort.Value{nil}
		err := s.sess.Run(values, outputs)

		var out *Tensor
		if err == nil {
			out = neutralFromOrt(outputs[0])
			if outputs[0] != nil {
				outputs[0].Destroy()
			}
		} else {
			err = fmt.Errorf("run inference: %w", err)
		}

		s.mu.Lock()
		s.output = out
		s.running = false
		s.mu.Unlock()
		done <- err
	}()

	return newPollStepper(done, s.stepInterval), nil
}

func (s *ONNXSession) Output() (*Tensor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil, nil
	}
	return s.output, nil
}

// Close abandons any in-flight run, waits for its worker to release the
// bound tensors, and destroys the native session exactly once.
func (s *ONNXSession) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.wg.Wait()
	return s.sess.Destroy()
}

func ortValue(t *Tensor) (ort.Value, error) {
	switch t.Type {
	case TypeFloat32:
		return ort.NewTensor(ort.NewShape(t.Shape...), t.F32)
	case TypeInt64:
		return ort.NewTensor(ort.NewShape(t.Shape...), t.I64)
	default:
		return nil, fmt.Errorf("unsupported tensor type %s", t.Type)
	}
}

func neutralFromOrt(v ort.Value) *Tensor {
	switch tv := v.(type) {
	case nil:
		return nil
	case *ort.Tensor[float32]:
		shape := append([]int64(nil), tv.GetShape()...)
		data := append([]float32(nil), tv.GetData()...)
		return Float32Tensor(shape, data)
	case *ort.Tensor[int64]:
		shape := append([]int64(nil), tv.GetShape()...)
		data := append([]int64(nil), tv.GetData()...)
		return Int64Tensor(shape, data)
	default:
		return &Tensor{Type: TypeUnknown}
	}
}

func dataTypeFromOrt(t ort.TensorElementDataType) DataType {
	switch t {
	case ort.TensorElementDataTypeFloat:
		return TypeFloat32
	case ort.TensorElementDataTypeInt64:
		return TypeInt64
	default:
		return TypeUnknown
	}
}
