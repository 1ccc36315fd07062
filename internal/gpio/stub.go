//go:build !linux

package gpio

import (
	"errors"
	"log/slog"

	"github.com/sweeney/judsound-box/internal/logic"
)

// RealSource is not available on non-Linux platforms.
type RealSource struct{}

// NewRealSource returns an error on non-Linux platforms.
func NewRealSource(cfg Config, logger *slog.Logger) (*RealSource, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// Events is not implemented on non-Linux platforms.
func (s *RealSource) Events() <-chan logic.ButtonEvent {
	return nil
}

// SetPosition is not implemented on non-Linux platforms.
func (s *RealSource) SetPosition(pos int) {}

// Close is not implemented on non-Linux platforms.
func (s *RealSource) Close() error {
	return nil
}
