//go:build linux

package gpio

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/judsound-box/internal/logic"
)

// RealSource reads buttons and the rotary encoder from actual hardware
// using the Linux GPIO character device. Buttons are active-low with
// pull-ups; the kernel debounces them and reports both edges.
type RealSource struct {
	*dispatcher

	cfg     Config
	logger  *slog.Logger
	chip    *gpiocdev.Chip
	buttons []*gpiocdev.Line
	encoder *gpiocdev.Lines
	hold    *holdTimer

	mu   sync.Mutex
	quad *Quadrature
	clk  bool
	dt   bool
}

// NewRealSource requests every input line on cfg.Chip.
func NewRealSource(cfg Config, logger *slog.Logger) (*RealSource, error) {
	if logger == nil {
		logger = slog.Default()
	}
	chip, err := gpiocdev.NewChip(cfg.Chip)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	s := &RealSource{
		dispatcher: newDispatcher(time.Now),
		cfg:        cfg,
		logger:     logger,
		chip:       chip,
	}
	s.hold = newHoldTimer(cfg.Hold, time.Now, s.emit)

	pins := make([]int, 0, logic.TopButtons+1)
	pins = append(pins, cfg.Buttons[:]...)
	pins = append(pins, cfg.Mode)
	for i, pin := range pins {
		button := i
		if i == logic.TopButtons {
			button = logic.ModeButton
		}
		opts := []gpiocdev.LineReqOption{
			gpiocdev.AsInput,
			gpiocdev.WithPullUp,
			gpiocdev.AsActiveLow,
			gpiocdev.WithBothEdges,
			gpiocdev.WithEventHandler(s.buttonHandler(button)),
		}
		if cfg.Debounce > 0 {
			opts = append(opts, gpiocdev.WithDebounce(cfg.Debounce))
		}
		line, err := chip.RequestLine(pin, opts...)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("request button pin %d: %w", pin, err)
		}
		s.buttons = append(s.buttons, line)
	}

	enc, err := chip.RequestLines([]int{cfg.CLK, cfg.DT},
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(s.encoderHandler))
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("request encoder pins %d/%d: %w", cfg.CLK, cfg.DT, err)
	}
	s.encoder = enc

	vals := make([]int, 2)
	if err := enc.Values(vals); err != nil {
		s.Close()
		return nil, fmt.Errorf("read encoder pins: %w", err)
	}
	s.mu.Lock()
	s.clk, s.dt = vals[0] == 1, vals[1] == 1
	s.quad = NewQuadrature(s.clk, s.dt, cfg.MaxSteps)
	s.mu.Unlock()

	return s, nil
}

func (s *RealSource) buttonHandler(button int) func(gpiocdev.LineEvent) {
	return func(evt gpiocdev.LineEvent) {
		// Active-low: a logical rising edge is the button going down.
		if evt.Type == gpiocdev.LineEventRisingEdge {
			s.hold.Press(button)
		} else {
			s.hold.Release(button)
		}
	}
}

func (s *RealSource) encoderHandler(evt gpiocdev.LineEvent) {
	level := evt.Type == gpiocdev.LineEventRisingEdge

	s.mu.Lock()
	if s.quad == nil {
		s.mu.Unlock()
		return
	}
	switch evt.Offset {
	case s.cfg.CLK:
		s.clk = level
	case s.cfg.DT:
		s.dt = level
	}
	step, moved := s.quad.Update(s.clk, s.dt)
	pos := s.quad.Position()
	s.mu.Unlock()

	if moved {
		s.emit(logic.Rotated(step, pos))
	}
}

// SetPosition re-seeds the encoder position.
func (s *RealSource) SetPosition(pos int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.quad != nil {
		s.quad.SetPosition(pos)
	}
}

// Close releases GPIO resources.
// Reconfigures lines to plain inputs before closing so the pins are left
// in a neutral state for shutdown/reboot.
func (s *RealSource) Close() error {
	var errs []error

	s.stop()
	if s.hold != nil {
		s.hold.Reset()
	}
	for _, line := range s.buttons {
		if err := line.Reconfigure(gpiocdev.AsInput); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure button pin: %w", err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close button pin: %w", err))
		}
	}
	if s.encoder != nil {
		if err := s.encoder.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close encoder pins: %w", err))
		}
	}
	if s.chip != nil {
		if err := s.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
