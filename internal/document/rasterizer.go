package document

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
)

// Rasterizer renders every page of a PDF.
type Rasterizer interface {
	Rasterize(ctx context.Context, pdf []byte, dpi int) ([]image.Image, error)
}

// PopplerRasterizer shells out to pdftoppm.
type PopplerRasterizer struct {
	Path    string
	TempDir string
}

// Rasterize writes the PDF to a scratch directory, renders PNG pages and
// loads them in page order.
func (r *PopplerRasterizer) Rasterize(ctx context.Context, pdf []byte, dpi int) ([]image.Image, error) {
	path := r.Path
	if path == "" {
		path = "pdftoppm"
	}
	if dpi <= 0 {
		dpi = 150
	}

	dir, err := os.MkdirTemp(r.TempDir, "ocr-pdf-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer os.RemoveAll(dir)

	input := filepath.Join(dir, "input.pdf")
	if err := os.WriteFile(input, pdf, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, "-r", strconv.Itoa(dpi), "-png", input, filepath.Join(dir, "page"))
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("pdftoppm failed: %s: %w", strings.TrimSpace(stderr.String()), err)
	}

	files, err := filepath.Glob(filepath.Join(dir, "page-*.png"))
	if err != nil {
		return nil, fmt.Errorf("failed to list rendered pages: %w", err)
	}
	sortByPageNumber(files)

	images := make([]image.Image, 0, len(files))
	for _, f := range files {
		img, err := imaging.Open(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read rendered page %s: %w", filepath.Base(f), err)
		}
		images = append(images, img)
	}
	return images, nil
}

// sortByPageNumber orders page-N.png files numerically; pdftoppm pads the
// number to the width of the page count.
func sortByPageNumber(files []string) {
	number := func(f string) int {
		base := strings.TrimSuffix(filepath.Base(f), ".png")
		n, _ := strconv.Atoi(base[strings.LastIndex(base, "-")+1:])
		return n
	}
	sort.Slice(files, func(i, j int) bool {
		return number(files[i]) < number(files[j])
	})
}
