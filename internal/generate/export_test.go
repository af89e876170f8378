package generate

// Exports for black-box tests.

// WithChatCompleter exposes the internal mock-injection option.
var WithChatCompleter = withChatCompleter
