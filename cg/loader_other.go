//go:build !darwin && !freebsd && !linux

package cg

// Open reports ErrUnavailable: runtime loading of Cg is not supported on
// this platform. Use Command instead.
func Open(path string) (*Library, error) {
	return nil, ErrUnavailable
}

// Close is a no-op.
func (l *Library) Close() error {
	return nil
}
