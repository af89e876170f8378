package extract

// Exports for black-box tests.

// WithRun exposes the internal process-runner injection option.
var WithRun = withRun
