/*
Package ocr extracts text from screen captures.

Extractors are interchangeable: Tesseract shells out to the tesseract binary,
Passthrough returns text a provider already attached to the sample, and Chain
tries several in order. Confidence is reported but never used to discard
text.
*/
package ocr

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/khanglvm/promptwatch/internal/capture"
	"github.com/khanglvm/promptwatch/internal/model"
)

// Extractor turns a capture into text.
type Extractor interface {
	ExtractText(ctx context.Context, sample capture.Sample) (model.ExtractedText, error)
}

// ErrNoImage is returned when a sample carries no image to recognize.
var ErrNoImage = errors.New("sample has no image data")

// CommandError describes a failed OCR command.
type CommandError struct {
	Command string
	Stderr  string
	Err     error
}

func (e *CommandError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s failed: %v: %s", e.Command, e.Err, e.Stderr)
	}
	return fmt.Sprintf("%s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Passthrough returns the text already attached to a sample.
type Passthrough struct{}

// ExtractText returns sample.Text with full confidence.
func (Passthrough) ExtractText(_ context.Context, sample capture.Sample) (model.ExtractedText, error) {
	return model.ExtractedText{
		Text:       sample.Text,
		Confidence: 1,
		Timestamp:  sample.Timestamp,
	}, nil
}

// Chain tries extractors in order and returns the first non-blank result.
type Chain []Extractor

// ExtractText implements Extractor. If every extractor fails the errors are
// joined; if none fails but none finds text an empty result is returned.
func (c Chain) ExtractText(ctx context.Context, sample capture.Sample) (model.ExtractedText, error) {
	var errs []error
	for _, ex := range c {
		out, err := ex.ExtractText(ctx, sample)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if strings.TrimSpace(out.Text) != "" {
			return out, nil
		}
	}

	if len(errs) == len(c) && len(errs) > 0 {
		return model.ExtractedText{}, errors.Join(errs...)
	}
	ts := sample.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return model.ExtractedText{Timestamp: ts}, nil
}
