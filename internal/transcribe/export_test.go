package transcribe

// Exports for black-box tests.

// WithClient exposes the internal mock-injection option.
var WithClient = withClient
