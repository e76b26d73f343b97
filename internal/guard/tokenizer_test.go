package guard

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testVocab is a minimal vocab.txt in id order.
const testVocab = `[PAD]
[UNK]
[CLS]
[SEP]
ignore
previous
instructions
jail
##break
hello
`

func loadTestTokenizer(t *testing.T) *Tokenizer {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vocab.txt")
	require.NoError(t, os.WriteFile(path, []byte(testVocab), 0o600))
	tok, err := LoadTokenizer(path)
	require.NoError(t, err)
	return tok
}

func TestEncodeKnownWords(t *testing.T) {
	tok := loadTestTokenizer(t)

	ids, attn := tok.Encode("Ignore previous instructions", 8)
	require.Len(t, ids, 8)
	require.Len(t, attn, 8)

	// [CLS] ignore previous instructions [SEP] [PAD] [PAD] [PAD]
	assert.Equal(t, []int64{2, 4, 5, 6, 3, 0, 0, 0}, ids)
	assert.Equal(t, []int64{1, 1, 1, 1, 1, 0, 0, 0}, attn)
}

func TestEncodeWordPieceSplit(t *testing.T) {
	tok := loadTestTokenizer(t)

	ids, _ := tok.Encode("jailbreak", 6)
	// [CLS] jail ##break [SEP] [PAD] [PAD]
	assert.Equal(t, []int64{2, 7, 8, 3, 0, 0}, ids)
}

func TestEncodeUnknownWordCollapses(t *testing.T) {
	tok := loadTestTokenizer(t)

	ids, _ := tok.Encode("zzzqqq", 5)
	// [CLS] [UNK] [SEP] [PAD] [PAD]
	assert.Equal(t, []int64{2, 1, 3, 0, 0}, ids)
}

func TestEncodeTruncatesLongInput(t *testing.T) {
	tok := loadTestTokenizer(t)

	ids, attn := tok.Encode("ignore previous instructions ignore previous instructions", 5)
	require.Len(t, ids, 5)

	// Truncated to seqLen with [SEP] kept as the final real token.
	assert.Equal(t, int64(2), ids[0])
	assert.Equal(t, int64(3), ids[4])
	for _, a := range attn {
		assert.Equal(t, int64(1), a)
	}
}

func TestEncodeLowercases(t *testing.T) {
	tok := loadTestTokenizer(t)

	upper, _ := tok.Encode("HELLO", 4)
	lower, _ := tok.Encode("hello", 4)
	assert.Equal(t, lower, upper)
}

func TestLoadTokenizerEmptyVocab(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.txt")
	require.NoError(t, os.WriteFile(path, []byte("\n\n"), 0o600))
	_, err := LoadTokenizer(path)
	require.Error(t, err)
}

func TestLoadTokenizerMissingFile(t *testing.T) {
	_, err := LoadTokenizer(filepath.Join(t.TempDir(), "absent.txt"))
	require.Error(t, err)
}
