package engine

import (
	"fmt"

	ort "github.com/yalue/onnxruntime_go"
)

// Backend selects the compute provider inference runs on.
type Backend string

const (
	BackendCPU      Backend = "cpu"
	BackendCUDA     Backend = "cuda"
	BackendCoreML   Backend = "coreml"
	BackendDirectML Backend = "directml"
)

// ParseBackend validates a configured backend name.
func ParseBackend(s string) (Backend, error) {
	switch Backend(s) {
	case "", BackendCPU:
		return BackendCPU, nil
	case BackendCUDA, BackendCoreML, BackendDirectML:
		return Backend(s), nil
	default:
		return "", fmt.Errorf("unknown inference backend %q", s)
	}
}

// sessionOptions builds the ONNX Runtime session options for the backend.
// CPU needs none; the caller destroys the returned options after session
// creation.
func (b Backend) sessionOptions() (*ort.SessionOptions, error) {
	if b == "" || b == BackendCPU {
		return nil, nil
	}
	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("create session options: %w", err)
	}
	switch b {
	case BackendCUDA:
		cuda, err := ort.NewCUDAProviderOptions()
		if err != nil {
			opts.Destroy()
			return nil, fmt.Errorf("create cuda provider options: %w", err)
		}
		defer cuda.Destroy()
		if err := opts.AppendExecutionProviderCUDA(cuda); err != nil {
			opts.Destroy()
			return nil, fmt.Errorf("append cuda provider: %w", err)
		}
	case BackendCoreML:
		if err := opts.AppendExecutionProviderCoreML(0); err != nil {
			opts.Destroy()
			return nil, fmt.Errorf("append coreml provider: %w", err)
		}
	case BackendDirectML:
		if err := opts.AppendExecutionProviderDirectML(0); err != nil {
			opts.Destroy()
			return nil, fmt.Errorf("append directml provider: %w", err)
		}
	default:
		opts.Destroy()
		return nil, fmt.Errorf("unknown inference backend %q", string(b))
	}
	return opts, nil
}
