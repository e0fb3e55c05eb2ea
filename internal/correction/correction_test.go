package correction

import (
	"strings"
	"testing"

	"github.com/dlclark/regexp2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine() *Engine {
	return NewEngine(Config{Cutoff: DefaultCutoff, Fuzzy: true})
}

func TestCorrect_AddressLine(t *testing.T) {
	out, n := newTestEngine().Correct("jalan krmat jakrta", BaseDictionary())

	assert.Equal(t, "jalan kramat jakarta", out)
	assert.Equal(t, 2, n)
}

func TestCorrect_PreservesCase(t *testing.T) {
	e := newTestEngine()
	dict := BaseDictionary()

	tests := []struct {
		in   string
		want string
	}{
		{"DEPARTNN", "DEPARTEMEN"},  // fuzzy
		{"Departntn", "Departemen"}, // phrase table
		{"departntn", "departemen"},
		{"JALAN KRMAT", "JALAN KRAMAT"},
		{"Jalan krmat", "Jalan Kramat"},
		{"Dirktur", "Direktur"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			out, n := e.Correct(tt.in, dict)
			assert.Equal(t, tt.want, out)
			assert.Equal(t, 1, n)
		})
	}
}

func TestCorrect_PhraseAcrossLineBreak(t *testing.T) {
	out, n := newTestEngine().Correct("jalan\nkrmat", BaseDictionary())

	assert.Equal(t, "jalan kramat", out)
	assert.Equal(t, 1, n)
}

func TestCorrect_LongestPhraseWins(t *testing.T) {
	out, n := newTestEngine().Correct("departemen pekerjaan umum pan tenaca", BaseDictionary())

	assert.Equal(t, "departemen pekerjaan umum dan tenaga", out)
	assert.Equal(t, 1, n)
}

func TestCorrect_EmptyAndBlank(t *testing.T) {
	e := newTestEngine()

	out, n := e.Correct("", BaseDictionary())
	assert.Equal(t, "", out)
	assert.Zero(t, n)

	out, n = e.Correct("  \n\t", BaseDictionary())
	assert.Equal(t, "  \n\t", out)
	assert.Zero(t, n)
}

func TestCorrect_LeavesNumbersAndPunctuation(t *testing.T) {
	in := "No. 2078 / 1.500,- 17-08 (x) ;"
	out, n := newTestEngine().Correct(in, BaseDictionary())

	assert.Equal(t, in, out)
	assert.Zero(t, n)
}

func TestCorrect_DictionaryWordsUntouched(t *testing.T) {
	in := "DEPARTEMEN PEKERJAAN UMUM\nJalan Kramat Jakarta\nNomor 2078 tanggal 15 November 1965\nKepada Yth. Direktur"
	out, n := newTestEngine().Correct(in, BaseDictionary())

	assert.Equal(t, in, out)
	assert.Zero(t, n)
}

func TestCorrect_Idempotent(t *testing.T) {
	e := newTestEngine()
	dict := BaseDictionary()

	inputs := []string{
		"jalan krmat jakrta",
		"DEPARTNN PKERJAAN UMUM",
		"Kepeda Yth. Dirktur djawaton gedun nogara",
		"departemen pekerjaan umum pan tenaca",
	}
	for _, in := range inputs {
		once, _ := e.Correct(in, dict)
		twice, n := e.Correct(once, dict)
		assert.Equal(t, once, twice, "input %q", in)
		assert.Zero(t, n, "input %q", in)
	}
}

func TestCorrect_TableOutputsAreFixedPoints(t *testing.T) {
	e := newTestEngine()
	dict := BaseDictionary()

	var outputs []string
	for _, r := range multiWordRules {
		outputs = append(outputs, r.replacement)
	}
	for _, v := range phraseCorrections {
		if v != "" {
			outputs = append(outputs, v)
		}
	}

	for _, o := range outputs {
		out, n := e.Correct(o, dict)
		assert.Equal(t, o, out)
		assert.Zero(t, n, "output %q was rewritten", o)
	}
}

func TestCorrect_ReduplicatedWordsUntouched(t *testing.T) {
	e := newTestEngine()
	dict := BaseDictionary()

	for _, in := range []string{"Jenis kelamin: laki-laki", "Laki-laki", "masing-masing", "kira-kira"} {
		out, n := e.Correct(in, dict)
		assert.Equal(t, in, out)
		assert.Zero(t, n, "input %q", in)
	}
}

func TestBaseDictionary_RuleOutputsAreNotFuzzyTargets(t *testing.T) {
	dict := BaseDictionary()

	assert.True(t, dict.Contains("lain-lain"))
	assert.NotContains(t, dict.Words(), "lain-lain")
	for _, w := range KnownWords() {
		assert.True(t, dict.Contains(w), "rule output %q is not known", w)
	}

	// 200*8/18 against lain-lain would clear any cutoff if it were a candidate
	e := newTestEngine()
	only := NewWordSet([]string{"kantor"}).WithKnown([]string{"lain-lain"})
	out, n := e.Correct("lain-lajn", only)
	assert.Equal(t, "lain-lajn", out)
	assert.Zero(t, n)

	out, n = e.Correct("lain-lain", only)
	assert.Equal(t, "lain-lain", out)
	assert.Zero(t, n)
}

func TestTables_KeysAreNotDictionaryWords(t *testing.T) {
	dict := BaseDictionary()
	for key := range phraseCorrections {
		assert.False(t, dict.Contains(key), "phrase key %q is a dictionary word", key)
		assert.Equal(t, key, wordPattern.FindString(key), "phrase key %q is not a single token", key)
	}
}

func TestFuzzy_CutoffBoundary(t *testing.T) {
	e := NewEngine(Config{Cutoff: 65, Fuzzy: true})
	dict := NewWordSet([]string{"abcdefghijklmnopqrst"})

	require.Equal(t, 65.0, Ratio("abcdefghijklmzzzzzzz", "abcdefghijklmnopqrst"))
	require.Equal(t, 60.0, Ratio("abcdefghijklzzzzzzzz", "abcdefghijklmnopqrst"))

	out, n := e.Correct("abcdefghijklmzzzzzzz", dict)
	assert.Equal(t, "abcdefghijklmnopqrst", out)
	assert.Equal(t, 1, n)

	out, n = e.Correct("abcdefghijklzzzzzzzz", dict)
	assert.Equal(t, "abcdefghijklzzzzzzzz", out)
	assert.Zero(t, n)
}

func TestFuzzy_TieKeepsSmallestWord(t *testing.T) {
	dict := NewWordSet([]string{"bata", "bara"})

	word, score, ok := bestMatch("baxa", dict, 65)
	require.True(t, ok)
	assert.Equal(t, "bara", word)
	assert.Equal(t, 75.0, score)
}

func TestFuzzy_ShortTokensSkipped(t *testing.T) {
	e := NewEngine(Config{Fuzzy: true})
	dict := NewWordSet([]string{"ab"})

	out, n := e.Correct("ax", dict)
	assert.Equal(t, "ax", out)
	assert.Zero(t, n)
}

func TestRun_DegradedWithoutDictionary(t *testing.T) {
	res := newTestEngine().Run("jakrta dirktur", nil, Options{})

	assert.True(t, res.Degraded)
	assert.Equal(t, "jakarta dirktur", res.Text)
	assert.Equal(t, 1, res.Corrections)
}

func TestRun_DegradedWhenFuzzyDisabled(t *testing.T) {
	e := NewEngine(Config{Fuzzy: false})
	res := e.Run("dirktur", BaseDictionary(), Options{})

	assert.True(t, res.Degraded)
	assert.Equal(t, "dirktur", res.Text)
}

func TestRun_AllStages(t *testing.T) {
	res := newTestEngine().Run("Djalan krmat, gaji Rp.277.--", BaseDictionary(), Options{
		NormalizeSpelling: true,
		NormalizeCurrency: true,
	})

	assert.False(t, res.Degraded)
	assert.Equal(t, "Jalan Kramat, gaji Rp 277,-", res.Text)
	assert.Equal(t, 1, res.PhraseCorrections)
	assert.Equal(t, 1, res.NumberFixes)
	assert.Equal(t, res.PhraseCorrections+res.WordCorrections+1, res.Corrections)
	assert.Equal(t, res.PhraseCorrections+res.WordCorrections+res.SpellingChanges+res.NumberFixes, res.Total())
}

func TestRun_NumberRepairsCountOnce(t *testing.T) {
	e := newTestEngine()

	res := e.Run("ll Maret 971", BaseDictionary(), Options{NormalizeCurrency: true})
	assert.Equal(t, "11 Maret 1971", res.Text)
	assert.Equal(t, 2, res.NumberFixes)
	assert.Equal(t, 1, res.Corrections)

	res = e.Run("gaji Rp 277,-", BaseDictionary(), Options{NormalizeCurrency: true})
	assert.Zero(t, res.NumberFixes)
	assert.Zero(t, res.Corrections)

	assert.Equal(t, 0, CountNumberFixes(0))
	assert.Equal(t, 1, CountNumberFixes(3))
}

func TestRatio(t *testing.T) {
	assert.Equal(t, 100.0, Ratio("", ""))
	assert.Equal(t, 100.0, Ratio("kramat", "kramat"))
	assert.Equal(t, 0.0, Ratio("abc", "xyz"))
	assert.InDelta(t, 90.909, Ratio("krmat", "kramat"), 0.001)
	assert.Equal(t, Ratio("jakrta", "jakarta"), Ratio("jakarta", "jakrta"))
	// lengths are counted in runes, not bytes
	assert.InDelta(t, 85.714, Ratio("sejarah", "séjarah"), 0.001)
	assert.Equal(t, 0.0, Ratio("", "kramat"))
}

func TestNormalizeSpelling(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		changes int
	}{
		{"Oetara adalah arah jang penting", "Utara adalah arah yang penting", 2},
		{"Djalan ini menoedju ke pasar", "Jalan ini menuju ke pasar", 2},
		{"Chabar baik dari project manager", "Khabar baik dari project manager", 1},
		{"pendjajan", "penjajan", 1},
		{"Kedjujoeran", "Kejujuran", 1},
		{"NJAMUK", "NYAMUK", 1},
		{"Jang", "Yang", 1},
		{"banjir di jalan panjang", "banjir di jalan panjang", 0},
		{"", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			out, n := NormalizeSpelling(tt.in)
			assert.Equal(t, tt.want, out)
			assert.Equal(t, tt.changes, n)
		})
	}
}

func TestNormalizeNumbers(t *testing.T) {
	tests := []struct {
		in    string
		want  string
		fixes int
	}{
		{"Gaji pokok Rp.277.--", "Gaji pokok Rp 277,-", 1},
		{"Rp.l5OO", "Rp 1500", 1},
		{"RPy 25.000", "Rp 25.000", 1},
		{"sebesar ..277 rupiah", "sebesar Rp 277 rupiah", 1},
		{"tanggal 17 Maret 971", "tanggal 17 Maret 1971", 1},
		{"Maret 97l", "Maret 1971", 1},
		{"ll Maret 971", "11 Maret 1971", 2},
		{"Agustus 19 71", "Agustus 1971", 1},
		{"tahun 1g63", "tahun 1963", 1},
		{"tahun 196l", "tahun 1961", 1},
		{"dua Plh ribu", "dua puluh ribu", 1},
		{"soratus ribu", "seratus ribu", 1},
		{"kelima ribu", "lima ribu", 1},
		{"Nomor 2078 tanggal 15 November 1965", "Nomor 2078 tanggal 15 November 1965", 0},
		{"", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			out, n := NormalizeNumbers(tt.in)
			assert.Equal(t, tt.want, out)
			assert.Equal(t, tt.fixes, n)
		})
	}
}

func TestNumberRules_RewrittenSpansAreFrozen(t *testing.T) {
	rules := []numberRule{
		mustRule("a-to-b", `a+`, func(*regexp2.Match) string { return "b" }),
		mustRule("b-to-c", `b`, func(*regexp2.Match) string { return "c" }),
	}

	out, n := applyNumberRules("aa b", rules)

	assert.Equal(t, "b c", out)
	assert.Equal(t, 2, n)
}

func TestNormalizeNumbers_Idempotent(t *testing.T) {
	in := "ll Maret 971, gaji Rp.l5OO.-- dan ..277"
	once, _ := NormalizeNumbers(in)
	twice, n := NormalizeNumbers(once)

	assert.Equal(t, once, twice)
	assert.Zero(t, n)
	assert.False(t, strings.Contains(once, "Rp Rp"))
}
