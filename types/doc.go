// Package types provides the canonical request/response types used across
// llmbridge. This package has ZERO dependencies on other llmbridge packages
// to avoid circular imports. All other packages should import types from here.
//
// The canonical shapes are provider-agnostic: adapters translate them to and
// from each provider's wire format, so callers never see wire-level field
// names or nesting.
package types
