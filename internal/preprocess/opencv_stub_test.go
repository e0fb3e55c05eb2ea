//go:build !gocv

package preprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPortableBackend(t *testing.T) {
	assert.Equal(t, "go", Backend)

	img := textImage(t, "KELURAHAN MENTENG")
	_, err := enhanceOpenCV(img, DefaultOptions())
	assert.ErrorIs(t, err, errOpenCVUnavailable)

	p := New(Options{})
	out, err := p.Enhance(img)
	require.NoError(t, err)
	assert.Equal(t, p.enhancePortable(img).Pix, out.Pix)
}
