package speech

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// ExecSynthesizer speaks by running a local TTS command such as espeak,
// espeak-ng or say. The process is killed when the context is cancelled.
type ExecSynthesizer struct {
	Command string
	// ExtraArgs are placed before the generated voice arguments.
	ExtraArgs []string
}

// NewExecSynthesizer resolves command on PATH.
func NewExecSynthesizer(command string) (*ExecSynthesizer, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty TTS command")
	}
	path, err := exec.LookPath(fields[0])
	if err != nil {
		return nil, fmt.Errorf("find TTS command %q: %w", fields[0], err)
	}
	return &ExecSynthesizer{Command: path, ExtraArgs: fields[1:]}, nil
}

func (s *ExecSynthesizer) Speak(ctx context.Context, text string, v Voice) error {
	args := append(append([]string{}, s.ExtraArgs...), voiceArgs(filepath.Base(s.Command), v)...)
	args = append(args, text)

	cmd := exec.CommandContext(ctx, s.Command, args...)
	out, err := cmd.CombinedOutput()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg != "" {
			return fmt.Errorf("%s: %w: %s", filepath.Base(s.Command), err, msg)
		}
		return fmt.Errorf("%s: %w", filepath.Base(s.Command), err)
	}
	return nil
}

// voiceArgs maps rate and pitch onto the flags each known tool understands.
func voiceArgs(tool string, v Voice) []string {
	switch tool {
	case "espeak", "espeak-ng":
		// espeak: -s words per minute (default 175), -p pitch 0-99 (default 50).
		wpm := int(math.Round(175 * v.Rate))
		pitch := int(math.Round(50 * v.Pitch))
		if pitch > 99 {
			pitch = 99
		}
		args := []string{"-s", strconv.Itoa(wpm), "-p", strconv.Itoa(pitch)}
		if v.Lang != "" {
			args = append(args, "-v", strings.ToLower(v.Lang))
		}
		return args
	case "say":
		return []string{"-r", strconv.Itoa(int(math.Round(175 * v.Rate)))}
	default:
		return nil
	}
}

// CommandRecognizer runs an external transcriber that captures audio itself
// and prints one JSON object per line: {"text": "...", "final": true}.
// An {"error": "no-speech"} line reports silence.
type CommandRecognizer struct {
	Command string
	Args    []string
}

// NewCommandRecognizer resolves command on PATH.
func NewCommandRecognizer(command string) (*CommandRecognizer, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty recognizer command")
	}
	path, err := exec.LookPath(fields[0])
	if err != nil {
		return nil, fmt.Errorf("find recognizer command %q: %w", fields[0], err)
	}
	return &CommandRecognizer{Command: path, Args: fields[1:]}, nil
}

type recognizerLine struct {
	Text  string `json:"text"`
	Final bool   `json:"final"`
	Error string `json:"error,omitempty"`
}

func (r *CommandRecognizer) Recognize(ctx context.Context, _ Stream, lang string) (<-chan Result, error) {
	args := append(append([]string{}, r.Args...), "--lang", lang)
	cmd := exec.CommandContext(ctx, r.Command, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("recognizer stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start recognizer: %w", err)
	}

	out := make(chan Result)
	go func() {
		defer close(out)
		send := func(res Result) bool {
			select {
			case out <- res:
				return true
			case <-ctx.Done():
				return false
			}
		}

		results := scanRecognizerLines(stdout)
		for res := range results {
			if !send(res) || res.Err != nil {
				break
			}
		}
		// Drain so the process can exit, then reap it.
		for range results {
		}
		if err := cmd.Wait(); err != nil && ctx.Err() == nil {
			send(Result{Err: fmt.Errorf("recognizer exited: %w", err)})
		}
	}()
	return out, nil
}

func scanRecognizerLines(rd io.Reader) <-chan Result {
	ch := make(chan Result)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(rd)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" {
				continue
			}
			var rl recognizerLine
			if err := json.Unmarshal([]byte(line), &rl); err != nil {
				ch <- Result{Err: fmt.Errorf("decode recognizer output: %w", err)}
				continue
			}
			switch {
			case rl.Error == "no-speech":
				ch <- Result{Err: ErrNoSpeech}
			case rl.Error != "":
				ch <- Result{Err: errors.New(rl.Error)}
			default:
				ch <- Result{Text: rl.Text, Final: rl.Final}
			}
		}
	}()
	return ch
}

// OpenMicrophone grants a no-op stream. It pairs with recognizers that own
// the capture device themselves.
type OpenMicrophone struct{}

func (OpenMicrophone) Acquire(ctx context.Context) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nopStream{}, nil
}

type nopStream struct{}

func (nopStream) Close() error { return nil }
