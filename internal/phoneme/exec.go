package phoneme

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sync"

	"github.com/mattn/go-shellwords"
)

type execPhonemizer struct {
	cmd     []string
	dataDir string
	mu      sync.Mutex
}

type execRequest struct {
	Text    string `json:"text"`
	Voice   string `json:"voice"`
	DataDir string `json:"data_dir,omitempty"`
}

type execSentence struct {
	IDs   []int64 `json:"ids"`
	Final bool    `json:"final"`
}

// NewExecPhonemizer wraps an espeak-style subprocess that reads one JSON
// request on stdin and writes one JSON sentence per stdout line. dataDir
// points at the phonemizer's voice data resources.
func NewExecPhonemizer(command, dataDir string) (Phonemizer, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse phonemizer command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("phonemizer command empty")
	}
	return &execPhonemizer{cmd: args, dataDir: dataDir}, nil
}

func (e *execPhonemizer) Phonemize(ctx context.Context, text, voice string) (*Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	payload, err := json.Marshal(execRequest{Text: text, Voice: voice, DataDir: e.dataDir})
	if err != nil {
		return nil, err
	}

	base := e.cmd[0]
	args := append([]string{}, e.cmd[1:]...)
	cmd := exec.CommandContext(ctx, base, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start phonemizer: %w", err)
	}

	if _, err := stdin.Write(payload); err != nil {
		cmd.Wait()
		return nil, err
	}
	stdin.Close()

	result := &Result{}
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var sent execSentence
		if err := json.Unmarshal(line, &sent); err != nil {
			cmd.Wait()
			return nil, fmt.Errorf("decode phonemizer output: %w", err)
		}
		result.Sentences = append(result.Sentences, Sentence{Index: len(result.Sentences), IDs: sent.IDs})
		if sent.Final {
			break
		}
	}
	if err := cmd.Wait(); err != nil {
		return nil, fmt.Errorf("phonemizer command failed: %w", err)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (e *execPhonemizer) Close() error { return nil }
