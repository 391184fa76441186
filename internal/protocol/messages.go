package protocol

import "time"

// SynthesisRequest asks the synthesizer to render text as speech.
type SynthesisRequest struct {
	SessionID string  `json:"session_id"`
	Target    string  `json:"target,omitempty"`
	Text      string  `json:"text"`
	Voice     string  `json:"voice,omitempty"`
	Speed     float64 `json:"speed,omitempty"`
	Pitch     float64 `json:"pitch,omitempty"`
	Glottal   float64 `json:"glottal,omitempty"`
}

// AudioChunk carries one sequential slice of the synthesized waveform as
// 16-bit little-endian PCM.
type AudioChunk struct {
	SessionID  string `json:"session_id"`
	Target     string `json:"target,omitempty"`
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
	Sequence   int    `json:"sequence"`
	PCM        []byte `json:"pcm"`
	Final      bool   `json:"final"`
}

// SynthesisStatus reports the outcome of one request.
type SynthesisStatus struct {
	SessionID string    `json:"session_id"`
	Target    string    `json:"target,omitempty"`
	Completed bool      `json:"completed"`
	Reason    string    `json:"reason,omitempty"`
	Sentences int       `json:"sentences"`
	Skipped   int       `json:"skipped"`
	Samples   int       `json:"samples"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	SubjectSynthesize = "tts.synthesize"
	SubjectAudio      = "tts.audio"
	SubjectDone       = "tts.done"

	SubjectNodeAnnounce        = "ctrl.node.announce"
	SubjectNodeHeartbeatPrefix = "ctrl.node.heartbeat"
)
