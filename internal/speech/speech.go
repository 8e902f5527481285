// Package speech turns post content into a WAV byte stream through a
// local synthesis engine, invoked synchronously once per request.
package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

var (
	ErrEmptyContent = errors.New("post content is empty and cannot be read")
	ErrSynthesis    = errors.New("speech synthesis failed")
)

// Synthesizer converts plain text to WAV audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// EspeakSynthesizer shells out to an espeak-ng compatible binary with a
// fixed voice profile, amplitude, and speaking rate.
type EspeakSynthesizer struct {
	Binary string
	Voice  string
	Volume int
	Rate   int
}

func NewEspeak(binary, voice string, volume, rate int) *EspeakSynthesizer {
	return &EspeakSynthesizer{Binary: binary, Voice: voice, Volume: volume, Rate: rate}
}

func (e *EspeakSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyContent
	}
	args := []string{
		"--stdout",
		"-v", e.Voice,
		"-a", strconv.Itoa(e.Volume),
		"-s", strconv.Itoa(e.Rate),
		"--stdin",
	}
	cmd := exec.CommandContext(ctx, e.Binary, args...)
	cmd.Stdin = strings.NewReader(text)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return nil, fmt.Errorf("%w: %s", ErrSynthesis, detail)
	}
	wav := stdout.Bytes()
	if len(wav) < 12 || string(wav[:4]) != "RIFF" {
		return nil, fmt.Errorf("%w: engine did not produce a wav stream", ErrSynthesis)
	}
	return wav, nil
}

// StripHTML reduces HTML post content to the text worth speaking.
// Tags are dropped, block boundaries become sentence pauses.
func StripHTML(content string) string {
	var b strings.Builder
	inTag := false
	for _, r := range content {
		switch {
		case r == '<':
			inTag = true
			b.WriteRune(' ')
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	text := b.String()
	for _, ent := range [][2]string{
		{"&nbsp;", " "}, {"&amp;", "&"}, {"&lt;", "<"}, {"&gt;", ">"}, {"&quot;", `"`}, {"&#39;", "'"},
	} {
		text = strings.ReplaceAll(text, ent[0], ent[1])
	}
	return strings.Join(strings.Fields(text), " ")
}
