// Package observability provides the optional metrics and crash-reporting
// collaborators the core may call when present. Both are injected at
// construction time rather than reached through ambient global state, so
// tests run without them and hooks never alter the errors the core raises.
package observability
