// Package tlsutil provides the hardened TLS configuration shared by every
// outgoing HTTP client: TLS 1.2 minimum, AEAD cipher suites only.
package tlsutil
