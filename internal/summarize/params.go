package summarize

// Generation parameter floors. A minimum below 10 or a per-chunk maximum
// below 50 asks the model for degenerate output, so derivation never goes
// under these regardless of input size.
const (
	minLengthFloor      = 10
	perChunkMaxFloor    = 50
	minWordMargin       = 10
	minMaxMargin        = 20
	directMaxHeadroom   = 50
	minSummarizeWords   = 30
	minChunkWords       = 20
	directLimitWords    = 700
	defaultChunkBudget  = 900
	minCountSafetyWords = 5
)

// Params bounds a single generation call.
// Invariant: minLengthFloor <= MinLength < MaxLength before any call, and
// MinLength never exceeds the input's word count minus minCountSafetyWords.
type Params struct {
	MaxLength int
	MinLength int
}

// DeriveParams computes safe generation bounds for summarizing wordCount
// words in the given style. It is total: any style (via the Detailed
// fallback) and any word count yield a consistent Params.
//
// The minimum is lowered to fit the available text (wordCount-10) and to
// keep a 20-word margin under the maximum, then clamped to the floor.
func DeriveParams(style Style, wordCount int) Params {
	t := style.target()

	adjustedMin := min(t.minLength, wordCount-minWordMargin, t.maxLength-minMaxMargin)
	adjustedMin = max(adjustedMin, minLengthFloor)

	return Params{MaxLength: t.maxLength, MinLength: adjustedMin}
}

// PerChunkParams divides the whole-text targets across chunkCount chunks.
// Each bound is independently clamped so no chunk is asked for a
// degenerately short summary however many chunks there are.
func PerChunkParams(style Style, chunkCount int) Params {
	t := style.target()
	if chunkCount < 1 {
		chunkCount = 1
	}

	return Params{
		MaxLength: max(t.maxLength/chunkCount, perChunkMaxFloor),
		MinLength: max(t.minLength/chunkCount, minLengthFloor),
	}
}
