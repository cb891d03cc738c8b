package embedding

import "context"

// BgeQueryPrefix is the instruction BGE-zh recommends prepending to retrieval
// queries (not to the passages being searched).
const BgeQueryPrefix = "为这个句子生成表示以用于检索相关文章："

// BgeSmallZhV15Q is the quantized BAAI bge-small-zh-v1.5 model. Texts of any
// length are accepted, but quality degrades past 512 tokens.
var BgeSmallZhV15Q = ModelSpec{
	Name:          "bge-small-zh-v15-q",
	ModelFile:     "bge-small-zh-v1.5-q.onnx",
	TokenizerFile: "bge-small-zh-v1.5-tokenizer.json",
	Pooling:       PoolingCLS,
	Dimension:     512,
}

// E5SmallV2 is intfloat/e5-small-v2. Its dimension is measured on first use.
var E5SmallV2 = ModelSpec{
	Name:          "e5-small-v2",
	ModelFile:     "e5-small-v2.onnx",
	TokenizerFile: "bert-vocabulary-en.txt",
	Pooling:       PoolingMean,
}

// Catalog returns the built-in models.
func Catalog() []ModelSpec {
	return []ModelSpec{BgeSmallZhV15Q, E5SmallV2}
}

// Lookup finds a built-in model by name.
func Lookup(name string) (ModelSpec, bool) {
	for _, spec := range Catalog() {
		if spec.Name == name {
			return spec, true
		}
	}
	return ModelSpec{}, false
}

// NewBgeSmallZhV15Quantized returns a BGE-small-zh-v1.5 model. Without
// WithExecutor it runs on its own pool sized to the number of CPUs.
func NewBgeSmallZhV15Quantized(ctx context.Context, opts ...Option) (*Model, error) {
	return New(ctx, BgeSmallZhV15Q, opts...)
}

// NewE5SmallV2 returns an E5-small-v2 model.
func NewE5SmallV2(ctx context.Context, opts ...Option) (*Model, error) {
	return New(ctx, E5SmallV2, opts...)
}
