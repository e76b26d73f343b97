package guard

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// wordPieceContinuation prefixes sub-word pieces in BERT-family vocabs.
const wordPieceContinuation = "##"

// Tokenizer encodes text into fixed-length input id and attention mask
// slices for the classifier.
type Tokenizer struct {
	vocab map[string]int64
	clsID int64
	sepID int64
	padID int64
	unkID int64
}

// LoadTokenizer builds a WordPiece tokenizer from a vocab.txt file, one
// token per line in id order.
func LoadTokenizer(path string) (*Tokenizer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vocab: %w", err)
	}
	defer f.Close()

	vocab := make(map[string]int64)
	sc := bufio.NewScanner(f)
	var idx int64
	for sc.Scan() {
		token := strings.TrimSpace(sc.Text())
		if token == "" {
			continue
		}
		vocab[token] = idx
		idx++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan vocab: %w", err)
	}
	if len(vocab) == 0 {
		return nil, fmt.Errorf("vocab at %s is empty", path)
	}

	return &Tokenizer{
		vocab: vocab,
		clsID: vocab["[CLS]"],
		sepID: vocab["[SEP]"],
		padID: vocab["[PAD]"],
		unkID: vocab["[UNK]"],
	}, nil
}

// Encode lowercases and tokenizes the text into exactly seqLen ids plus the
// matching attention mask, truncating long input and padding short input.
func (t *Tokenizer) Encode(text string, seqLen int) ([]int64, []int64) {
	if seqLen <= 0 {
		return nil, nil
	}

	tokens := []int64{t.clsID}
	for _, word := range strings.Fields(strings.ToLower(text)) {
		tokens = append(tokens, t.wordPiece(word)...)
		if len(tokens) >= seqLen-1 {
			tokens = tokens[:seqLen-1]
			break
		}
	}
	tokens = append(tokens, t.sepID)

	attn := make([]int64, seqLen)
	for i := 0; i < len(tokens); i++ {
		attn[i] = 1
	}
	for len(tokens) < seqLen {
		tokens = append(tokens, t.padID)
	}
	return tokens, attn
}

// wordPiece applies greedy longest-match-first sub-word splitting; words
// with no matching piece collapse to [UNK].
func (t *Tokenizer) wordPiece(word string) []int64 {
	if id, ok := t.vocab[word]; ok {
		return []int64{id}
	}

	var pieces []int64
	start := 0
	for start < len(word) {
		end := len(word)
		matched := false
		for end > start {
			sub := word[start:end]
			if start > 0 {
				sub = wordPieceContinuation + sub
			}
			if id, ok := t.vocab[sub]; ok {
				pieces = append(pieces, id)
				start = end
				matched = true
				break
			}
			end--
		}
		if !matched {
			return []int64{t.unkID}
		}
	}
	if len(pieces) == 0 {
		return []int64{t.unkID}
	}
	return pieces
}
