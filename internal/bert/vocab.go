package bert

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
)

// Special tokens every BERT vocabulary must define.
const (
	ClsToken = "[CLS]"
	SepToken = "[SEP]"
	UnkToken = "[UNK]"
)

const (
	defaultSubwordPrefix   = "##"
	defaultMaxCharsPerWord = 100
)

// ErrMalformedVocabulary is returned when a tokenizer resource cannot be parsed.
var ErrMalformedVocabulary = errors.New("malformed vocabulary")

// Vocabulary maps WordPiece tokens to model input IDs.
type Vocabulary struct {
	ids             map[string]int64
	unkToken        string
	subwordPrefix   string
	maxCharsPerWord int
	lowercase       bool

	clsID int64
	sepID int64
	unkID int64
}

// tokenizerFile is the subset of a Hugging Face tokenizer.json that WordPiece needs.
type tokenizerFile struct {
	Normalizer *struct {
		Type      string `json:"type"`
		Lowercase *bool  `json:"lowercase"`
	} `json:"normalizer"`
	Model struct {
		Type                    string           `json:"type"`
		UnkToken                string           `json:"unk_token"`
		ContinuingSubwordPrefix string           `json:"continuing_subword_prefix"`
		MaxInputCharsPerWord    int              `json:"max_input_chars_per_word"`
		Vocab                   map[string]int64 `json:"vocab"`
	} `json:"model"`
}

// LoadVocabulary parses a tokenizer resource. Names ending in ".json" are read as a
// Hugging Face tokenizer.json with a WordPiece model; anything else is read as a
// plain vocabulary list with one token per line, the line number being the ID.
func LoadVocabulary(name string, data []byte) (*Vocabulary, error) {
	if strings.EqualFold(path.Ext(name), ".json") {
		return parseTokenizerJSON(data)
	}
	return parseVocabList(data)
}

func parseTokenizerJSON(data []byte) (*Vocabulary, error) {
	var tf tokenizerFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedVocabulary, err)
	}
	if tf.Model.Type != "" && tf.Model.Type != "WordPiece" {
		return nil, fmt.Errorf("%w: unsupported tokenizer model %q", ErrMalformedVocabulary, tf.Model.Type)
	}
	v := &Vocabulary{
		ids:             tf.Model.Vocab,
		unkToken:        tf.Model.UnkToken,
		subwordPrefix:   tf.Model.ContinuingSubwordPrefix,
		maxCharsPerWord: tf.Model.MaxInputCharsPerWord,
		lowercase:       true,
	}
	if tf.Normalizer != nil && tf.Normalizer.Lowercase != nil {
		v.lowercase = *tf.Normalizer.Lowercase
	}
	return v.finish()
}

func parseVocabList(data []byte) (*Vocabulary, error) {
	ids := make(map[string]int64)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	var id int64
	for scanner.Scan() {
		token := strings.TrimRight(scanner.Text(), "\r")
		if token != "" {
			ids[token] = id
		}
		id++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedVocabulary, err)
	}
	return (&Vocabulary{ids: ids, lowercase: true}).finish()
}

func (v *Vocabulary) finish() (*Vocabulary, error) {
	if len(v.ids) == 0 {
		return nil, fmt.Errorf("%w: empty vocabulary", ErrMalformedVocabulary)
	}
	if v.unkToken == "" {
		v.unkToken = UnkToken
	}
	if v.subwordPrefix == "" {
		v.subwordPrefix = defaultSubwordPrefix
	}
	if v.maxCharsPerWord <= 0 {
		v.maxCharsPerWord = defaultMaxCharsPerWord
	}
	for _, special := range []struct {
		token string
		dst   *int64
	}{
		{ClsToken, &v.clsID},
		{SepToken, &v.sepID},
		{v.unkToken, &v.unkID},
	} {
		id, ok := v.ids[special.token]
		if !ok {
			return nil, fmt.Errorf("%w: missing special token %s", ErrMalformedVocabulary, special.token)
		}
		*special.dst = id
	}
	return v, nil
}

// Size returns the number of tokens in the vocabulary.
func (v *Vocabulary) Size() int { return len(v.ids) }

// ID returns the input ID of token.
func (v *Vocabulary) ID(token string) (int64, bool) {
	id, ok := v.ids[token]
	return id, ok
}
