package ocr

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/khanglvm/promptwatch/internal/capture"
	"github.com/khanglvm/promptwatch/internal/model"
)

// execCommand is a variable so tests can substitute a fake process.
var execCommand = exec.CommandContext

const defaultTesseractTimeout = 30 * time.Second

// Tesseract recognizes text with the tesseract command-line tool.
type Tesseract struct {
	Binary   string
	Language string
	Timeout  time.Duration
}

// NewTesseract returns an extractor using "tesseract" from PATH.
func NewTesseract(language string) *Tesseract {
	if language == "" {
		language = "eng"
	}
	return &Tesseract{
		Binary:   "tesseract",
		Language: language,
		Timeout:  defaultTesseractTimeout,
	}
}

// Available reports whether the binary can be found.
func (t *Tesseract) Available() bool {
	_, err := exec.LookPath(t.binary())
	return err == nil
}

func (t *Tesseract) binary() string {
	if t.Binary == "" {
		return "tesseract"
	}
	return t.Binary
}

// ExtractText feeds the sample image to tesseract on stdin and parses the
// TSV output.
func (t *Tesseract) ExtractText(ctx context.Context, sample capture.Sample) (model.ExtractedText, error) {
	if len(sample.ImageData) == 0 {
		return model.ExtractedText{}, ErrNoImage
	}

	timeout := t.Timeout
	if timeout <= 0 {
		timeout = defaultTesseractTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := []string{"stdin", "stdout"}
	if t.Language != "" {
		args = append(args, "-l", t.Language)
	}
	args = append(args, "tsv")

	var stdout, stderr bytes.Buffer
	cmd := execCommand(ctx, t.binary(), args...)
	cmd.Stdin = bytes.NewReader(sample.ImageData)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return model.ExtractedText{}, &CommandError{
			Command: t.binary(),
			Stderr:  strings.TrimSpace(stderr.String()),
			Err:     err,
		}
	}

	out, err := parseTSV(stdout.Bytes())
	if err != nil {
		return model.ExtractedText{}, fmt.Errorf("parse %s output: %w", t.binary(), err)
	}
	out.Timestamp = sample.Timestamp
	if out.Timestamp.IsZero() {
		out.Timestamp = time.Now()
	}
	return out, nil
}

// TSV column indexes as emitted by tesseract.
const (
	colLevel = iota
	colPage
	colBlock
	colPar
	colLine
	colWord
	colLeft
	colTop
	colWidth
	colHeight
	colConf
	colText
	tsvColumns
)

// wordLevel is the tesseract TSV level for individual words.
const wordLevel = 5

type lineKey struct {
	page, block, par, line int
}

type lineAcc struct {
	words                  []string
	confSum                float64
	confN                  int
	left, top, right, bott int
}

// maxTSVLine bounds a single TSV row.
const maxTSVLine = 1024 * 1024

// parseTSV groups word rows into lines. Confidence is the mean over words
// with a valid score, scaled to 0..1. A row longer than maxTSVLine is an
// error rather than a silently shortened text.
func parseTSV(data []byte) (model.ExtractedText, error) {
	var (
		order   []lineKey
		lines   = map[lineKey]*lineAcc{}
		confSum float64
		confN   int
	)

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), maxTSVLine)
	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), "\t")
		if len(fields) < tsvColumns {
			continue
		}
		level, err := strconv.Atoi(fields[colLevel])
		if err != nil || level != wordLevel {
			continue
		}
		word := strings.TrimSpace(fields[colText])
		if word == "" {
			continue
		}

		key := lineKey{
			page:  atoi(fields[colPage]),
			block: atoi(fields[colBlock]),
			par:   atoi(fields[colPar]),
			line:  atoi(fields[colLine]),
		}
		left, top := atoi(fields[colLeft]), atoi(fields[colTop])
		right, bott := left+atoi(fields[colWidth]), top+atoi(fields[colHeight])

		acc, ok := lines[key]
		if !ok {
			acc = &lineAcc{left: left, top: top, right: right, bott: bott}
			lines[key] = acc
			order = append(order, key)
		}
		acc.words = append(acc.words, word)
		acc.left = min(acc.left, left)
		acc.top = min(acc.top, top)
		acc.right = max(acc.right, right)
		acc.bott = max(acc.bott, bott)

		if conf, err := strconv.ParseFloat(fields[colConf], 64); err == nil && conf >= 0 {
			acc.confSum += conf
			acc.confN++
			confSum += conf
			confN++
		}
	}
	if err := scanner.Err(); err != nil {
		return model.ExtractedText{}, err
	}

	out := model.ExtractedText{}
	texts := make([]string, 0, len(order))
	for _, key := range order {
		acc := lines[key]
		text := strings.Join(acc.words, " ")
		texts = append(texts, text)

		region := model.Region{
			X:      acc.left,
			Y:      acc.top,
			Width:  acc.right - acc.left,
			Height: acc.bott - acc.top,
			Text:   text,
		}
		if acc.confN > 0 {
			region.Confidence = acc.confSum / float64(acc.confN) / 100
		}
		out.Regions = append(out.Regions, region)
	}
	out.Text = strings.Join(texts, "\n")
	if confN > 0 {
		out.Confidence = confSum / float64(confN) / 100
	}
	return out, nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}
