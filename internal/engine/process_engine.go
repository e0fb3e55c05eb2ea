package engine

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// ProcessEngine runs the tesseract binary once per page.
type ProcessEngine struct {
	path    string
	tempDir string
	dpi     int
}

// NewProcessEngine creates an engine around the binary at path.
func NewProcessEngine(path, tempDir string, dpi int) *ProcessEngine {
	if path == "" {
		path = "tesseract"
	}
	return &ProcessEngine{path: path, tempDir: tempDir, dpi: dpi}
}

func (e *ProcessEngine) Kind() Kind   { return KindProcess }
func (e *ProcessEngine) Name() string { return "tesseract-cli" }

// Check verifies that the binary runs.
func (e *ProcessEngine) Check(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, e.path, "--version").CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("tesseract not runnable at %s: %w", e.path, err)
	}
	version, _, _ := strings.Cut(string(out), "\n")
	return strings.TrimSpace(version), nil
}

// Recognize writes the page to a temp PNG and parses tesseract's TSV output.
func (e *ProcessEngine) Recognize(ctx context.Context, img image.Image, lang Language) (Recognition, error) {
	data, err := encodePNG(img)
	if err != nil {
		return Recognition{}, err
	}

	tmp, err := os.CreateTemp(e.tempDir, "ocr-page-*.png")
	if err != nil {
		return Recognition{}, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return Recognition{}, fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return Recognition{}, fmt.Errorf("failed to close temp file: %w", err)
	}

	args := []string{tmp.Name(), "stdout", "-l", lang.TesseractCode(), "--oem", "3", "--psm", "6"}
	if e.dpi > 0 {
		args = append(args, "--dpi", strconv.Itoa(e.dpi))
	}
	args = append(args, "tsv")

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.path, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Recognition{}, ctxErr
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = "tesseract failed"
		}
		return Recognition{}, fmt.Errorf("%s: %w", msg, err)
	}

	return ParseTSV(stdout.Bytes())
}

const tsvColumns = 12

// ParseTSV rebuilds page text from tesseract TSV output. Words on one line are
// joined by spaces, lines by a newline and paragraphs by a blank line.
// Confidence is collected for every word row with conf >= 0.
func ParseTSV(data []byte) (Recognition, error) {
	var (
		text        strings.Builder
		confidences []float64
		lastPara    = [3]int{-1, -1, -1}
		lastLine    = -1
		started     bool
	)

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" || strings.HasPrefix(line, "level\t") {
			continue
		}
		fields := strings.SplitN(line, "\t", tsvColumns)
		if len(fields) < tsvColumns {
			continue
		}
		if fields[0] != "5" {
			continue
		}

		word := strings.TrimSpace(fields[11])
		if word == "" {
			continue
		}

		page, _ := strconv.Atoi(fields[1])
		block, _ := strconv.Atoi(fields[2])
		para, _ := strconv.Atoi(fields[3])
		lineNum, _ := strconv.Atoi(fields[4])

		key := [3]int{page, block, para}
		switch {
		case !started:
			started = true
		case key != lastPara:
			text.WriteString("\n\n")
		case lineNum != lastLine:
			text.WriteString("\n")
		default:
			text.WriteString(" ")
		}
		lastPara, lastLine = key, lineNum
		text.WriteString(word)

		conf, err := strconv.ParseFloat(fields[10], 64)
		if err == nil && conf >= 0 {
			confidences = append(confidences, conf/100)
		}
	}
	if err := scanner.Err(); err != nil {
		return Recognition{}, fmt.Errorf("failed to read tesseract output: %w", err)
	}

	return Recognition{Text: text.String(), Confidences: confidences}, nil
}
