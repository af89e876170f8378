package summarize

import "errors"

// ErrGeneration indicates the generation collaborator failed during
// reduction. The reducer fails hard on it: no partial or degraded summary
// is returned in its place.
var ErrGeneration = errors.New("summary generation failed")
