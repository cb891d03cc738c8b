package bert

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// ErrInvalidInput is returned for text that cannot be tokenized (e.g. invalid UTF-8).
var ErrInvalidInput = errors.New("invalid input text")

// Tokenizer is an uncased BERT WordPiece tokenizer. It is safe for concurrent use.
type Tokenizer struct {
	vocab *Vocabulary
}

// NewTokenizer returns a tokenizer over vocab.
func NewTokenizer(vocab *Vocabulary) *Tokenizer {
	return &Tokenizer{vocab: vocab}
}

// Tokenize splits text into WordPiece tokens, without special tokens.
func (t *Tokenizer) Tokenize(text string) ([]string, error) {
	if !utf8.ValidString(text) {
		return nil, ErrInvalidInput
	}
	var tokens []string
	for _, word := range t.basicTokenize(text) {
		tokens = append(tokens, t.wordPiece(word)...)
	}
	return tokens, nil
}

// Encode tokenizes text and maps the tokens to input IDs, without special tokens.
func (t *Tokenizer) Encode(text string) ([]int64, error) {
	tokens, err := t.Tokenize(text)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(tokens))
	for i, tok := range tokens {
		id, ok := t.vocab.ids[tok]
		if !ok {
			id = t.vocab.unkID
		}
		ids[i] = id
	}
	return ids, nil
}

// Inputs wraps content IDs in [CLS] ... [SEP] and returns the three model inputs
// (input_ids, attention_mask, token_type_ids) for a single unpadded sequence.
func (t *Tokenizer) Inputs(ids []int64) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	n := len(ids) + 2
	inputIDs = make([]int64, 0, n)
	inputIDs = append(inputIDs, t.vocab.clsID)
	inputIDs = append(inputIDs, ids...)
	inputIDs = append(inputIDs, t.vocab.sepID)
	attentionMask = make([]int64, n)
	for i := range attentionMask {
		attentionMask[i] = 1
	}
	tokenTypeIDs = make([]int64, n)
	return inputIDs, attentionMask, tokenTypeIDs
}

// basicTokenize cleans text, isolates CJK characters and punctuation, and
// lower-cases and strips accents when the vocabulary is uncased.
func (t *Tokenizer) basicTokenize(text string) []string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case r == 0 || r == utf8.RuneError || isControl(r):
			continue
		case isWhitespace(r):
			b.WriteByte(' ')
		case isCJK(r):
			b.WriteByte(' ')
			b.WriteRune(r)
			b.WriteByte(' ')
		default:
			b.WriteRune(r)
		}
	}

	var words []string
	for _, word := range strings.Fields(b.String()) {
		if t.vocab.lowercase {
			word = stripAccents(strings.ToLower(word))
		}
		words = append(words, splitPunctuation(word)...)
	}
	return words
}

// wordPiece greedily matches the longest vocabulary entry from the left,
// using the continuation prefix for non-initial pieces.
func (t *Tokenizer) wordPiece(word string) []string {
	runes := []rune(word)
	if len(runes) > t.vocab.maxCharsPerWord {
		return []string{t.vocab.unkToken}
	}
	var pieces []string
	for start := 0; start < len(runes); {
		end := len(runes)
		match := ""
		for start < end {
			sub := string(runes[start:end])
			if start > 0 {
				sub = t.vocab.subwordPrefix + sub
			}
			if _, ok := t.vocab.ids[sub]; ok {
				match = sub
				break
			}
			end--
		}
		if match == "" {
			return []string{t.vocab.unkToken}
		}
		pieces = append(pieces, match)
		start = end
	}
	return pieces
}

func stripAccents(s string) string {
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func splitPunctuation(word string) []string {
	var out []string
	start := 0
	for i, r := range word {
		if !isPunctuation(r) {
			continue
		}
		if start < i {
			out = append(out, word[start:i])
		}
		size := utf8.RuneLen(r)
		out = append(out, word[i:i+size])
		start = i + size
	}
	if start < len(word) {
		out = append(out, word[start:])
	}
	return out
}

func isWhitespace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r':
		return true
	}
	return unicode.Is(unicode.Zs, r)
}

func isControl(r rune) bool {
	if r == '\t' || r == '\n' || r == '\r' {
		return false
	}
	return unicode.In(r, unicode.Cc, unicode.Cf)
}

// isPunctuation treats all non-alphanumeric ASCII symbols as punctuation, as BERT does.
func isPunctuation(r rune) bool {
	if (r >= 33 && r <= 47) || (r >= 58 && r <= 64) || (r >= 91 && r <= 96) || (r >= 123 && r <= 126) {
		return true
	}
	return unicode.IsPunct(r)
}

func isCJK(r rune) bool {
	return (r >= 0x4E00 && r <= 0x9FFF) ||
		(r >= 0x3400 && r <= 0x4DBF) ||
		(r >= 0x20000 && r <= 0x2A6DF) ||
		(r >= 0x2A700 && r <= 0x2B73F) ||
		(r >= 0x2B740 && r <= 0x2B81F) ||
		(r >= 0x2B820 && r <= 0x2CEAF) ||
		(r >= 0xF900 && r <= 0xFAFF) ||
		(r >= 0x2F800 && r <= 0x2FA1F)
}
