package engine

import (
	"context"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTSV = "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n" +
	"1\t1\t0\t0\t0\t0\t0\t0\t800\t600\t-1\t\n" +
	"2\t1\t1\t0\t0\t0\t10\t10\t500\t60\t-1\t\n" +
	"5\t1\t1\t1\t1\t1\t10\t10\t80\t20\t96.5\tDEPARTEMEN\n" +
	"5\t1\t1\t1\t1\t2\t95\t10\t80\t20\t91\tDALAM\n" +
	"5\t1\t1\t1\t2\t1\t10\t40\t80\t20\t88\tNegeri\n" +
	"5\t1\t2\t1\t1\t1\t10\t200\t80\t20\t-1\t \n" +
	"5\t1\t2\t1\t1\t2\t10\t200\t80\t20\t42\tRp.1.500\n"

func TestParseTSV(t *testing.T) {
	rec, err := ParseTSV([]byte(sampleTSV))
	require.NoError(t, err)

	assert.Equal(t, "DEPARTEMEN DALAM\nNegeri\n\nRp.1.500", rec.Text)
	require.Len(t, rec.Confidences, 4)
	assert.InDelta(t, 0.965, rec.Confidences[0], 1e-9)
	assert.InDelta(t, 0.42, rec.Confidences[3], 1e-9)
}

func TestParseTSVEmpty(t *testing.T) {
	rec, err := ParseTSV(nil)
	require.NoError(t, err)
	assert.Equal(t, "", rec.Text)
	assert.Empty(t, rec.Confidences)
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
		err  bool
	}{
		{"", KindAuto, false},
		{"auto", KindAuto, false},
		{"process", KindProcess, false},
		{"Tesseract", KindProcess, false},
		{"inprocess", KindInProcess, false},
		{"easyocr", KindAuto, true},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if tt.err {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestLanguageCodes(t *testing.T) {
	lang, err := ParseLanguage("ID")
	require.NoError(t, err)
	assert.Equal(t, "ind", lang.TesseractCode())
	assert.Equal(t, "eng", LanguageEnglish.TesseractCode())
	assert.Equal(t, "eng", LanguageMixed.TesseractCode())

	_, err = ParseLanguage("jv")
	assert.Error(t, err)
}

type stubEngine struct{ kind Kind }

func (s stubEngine) Kind() Kind   { return s.kind }
func (s stubEngine) Name() string { return s.kind.String() }
func (s stubEngine) Recognize(context.Context, image.Image, Language) (Recognition, error) {
	return Recognition{Text: s.kind.String()}, nil
}

func TestRegistryResolve(t *testing.T) {
	reg, err := NewStaticRegistry(stubEngine{KindProcess})
	require.NoError(t, err)

	assert.Equal(t, KindProcess, reg.Resolve(KindAuto).Kind())
	// requesting a missing variant falls back to what is available
	assert.Equal(t, KindProcess, reg.Resolve(KindInProcess).Kind())
	assert.Equal(t, []Kind{KindProcess}, reg.Available())

	_, err = NewStaticRegistry()
	assert.Error(t, err)
}
