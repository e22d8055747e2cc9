package observability

// CrashReporter forwards transient and fatal call failures to an external
// issue-tracking system. Implementations must be best-effort: a reporter
// that panics or blocks would otherwise distort the call path it observes,
// so the core invokes it through Report, which swallows panics.
type CrashReporter interface {
	CaptureError(err error, tags map[string]string)
}

// NopCrashReporter discards everything.
type NopCrashReporter struct{}

// CaptureError implements CrashReporter.
func (NopCrashReporter) CaptureError(error, map[string]string) {}

// Report invokes the reporter if one is present, isolating the caller from
// reporter misbehaviour. The original error is always left untouched.
func Report(r CrashReporter, err error, tags map[string]string) {
	if r == nil || err == nil {
		return
	}
	defer func() {
		_ = recover()
	}()
	r.CaptureError(err, tags)
}
