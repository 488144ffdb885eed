package cwkey

/*------------------------------------------------------------------
 *
 * Purpose:   	Activate the output control lines for push to talk.
 *
 * Description:	Traditionally this has been done with the RTS or DTR
 *		line of a serial port.  A GPIO line, or one of the GPIO
 *		pins of a CM108 style USB audio adapter, work just as well.
 *
 *		More positive output corresponds to transmit unless
 *		invert is set.
 *
 *		With direct keying there is no PTT at all and OpenPTT
 *		hands back nil.
 *
 *---------------------------------------------------------------*/

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/term"
	"github.com/warthog618/go-gpiocdev"
)

const gpioConsumer = "cwkey"

/*-------------------------------------------------------------------
 *
 * Name:        OpenPTT
 *
 * Purpose:    	Open whatever PTT hardware is configured and make
 *		sure it starts out in receive.
 *
 * Returns:	Output, something to close at the end, error.
 *		Output and closer are nil for method "none".
 *
 *--------------------------------------------------------------------*/

func OpenPTT(cfg PTTConfig) (PTTOutput, io.Closer, error) {
	var p interface {
		PTTOutput
		io.Closer
	}

	var err error

	switch strings.ToLower(cfg.Method) {
	case PTT_METHOD_NONE, "":
		return nil, nil, nil
	case PTT_METHOD_SERIAL:
		p, err = OpenSerialPTT(cfg.Device, cfg.Line, cfg.Line2, cfg.Invert)
	case PTT_METHOD_GPIOD:
		p, err = OpenGPIODPTT(cfg.Device, cfg.GPIO, cfg.Invert)
	case PTT_METHOD_CM108:
		var device, resolveErr = ResolveCM108Device(cfg.Device)
		if resolveErr != nil {
			return nil, nil, resolveErr
		}
		p, err = NewCM108PTT(device, cfg.GPIO, cfg.Invert)
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownPTTMethod, cfg.Method)
	}

	if err != nil {
		return nil, nil, err
	}

	if err := p.SetPTT(false); err != nil {
		p.Close()
		return nil, nil, fmt.Errorf("setting initial PTT state: %w", err)
	}

	return p, p, nil
}

// modemLines is the part of a serial port we care about.
type modemLines interface {
	SetRTS(v bool) error
	SetDTR(v bool) error
	Close() error
}

type SerialPTT struct {
	port    modemLines
	line    int
	invert  bool
	line2   int
	invert2 bool
}

// Windows style names are translated, COM1 -> /dev/ttyS0, etc.
func serialDeviceName(device string) string {
	if len(device) > 3 && strings.EqualFold(device[:3], "COM") {
		var n, err = strconv.Atoi(device[3:])
		if err == nil {
			return fmt.Sprintf("/dev/ttyS%d", max(n, 1)-1)
		}
	}

	return device
}

/*-------------------------------------------------------------------
 *
 * Name:        OpenSerialPTT
 *
 * Inputs:	device	- Serial port such as /dev/ttyUSB0 or COM3.
 *
 *		line	- rts, dtr, -rts or -dtr.
 *
 *		line2	- Optional second line.  Some interfaces
 *			  want the two driven with opposite polarity,
 *			  e.g. "rts" and "-dtr".
 *
 *		invert	- Flip the first line, same as a leading minus.
 *
 *--------------------------------------------------------------------*/

func OpenSerialPTT(device string, line string, line2 string, invert bool) (*SerialPTT, error) {
	var l1, inv1, err = ParseLine(line)
	if err != nil {
		return nil, err
	}

	var l2 = PTT_LINE_NONE
	var inv2 = false
	if line2 != "" {
		l2, inv2, err = ParseLine(line2)
		if err != nil {
			return nil, err
		}
	}

	var name = serialDeviceName(device)
	var t, openErr = term.Open(name)
	if openErr != nil {
		return nil, fmt.Errorf("can't open device %s for PTT control: %w", name, openErr)
	}

	return newSerialPTT(t, l1, inv1 != invert, l2, inv2), nil
}

func newSerialPTT(port modemLines, line int, invert bool, line2 int, invert2 bool) *SerialPTT {
	return &SerialPTT{
		port:    port,
		line:    line,
		invert:  invert,
		line2:   line2,
		invert2: invert2,
	}
}

func (s *SerialPTT) SetPTT(on bool) error {
	if err := s.drive(s.line, on != s.invert); err != nil {
		return err
	}

	return s.drive(s.line2, on != s.invert2)
}

func (s *SerialPTT) drive(line int, v bool) error {
	switch line {
	case PTT_LINE_RTS:
		return s.port.SetRTS(v)
	case PTT_LINE_DTR:
		return s.port.SetDTR(v)
	}

	/* else neither one */
	return nil
}

func (s *SerialPTT) Close() error {
	var offErr = s.SetPTT(false)
	var closeErr = s.port.Close()
	if offErr != nil {
		return offErr
	}

	return closeErr
}

// gpiodOutputLine is the part of a gpiocdev line we use.
type gpiodOutputLine interface {
	SetValue(v int) error
	Close() error
}

type GPIODPTT struct {
	line   gpiodOutputLine
	invert bool
}

/*-------------------------------------------------------------------
 *
 * Name:        OpenGPIODPTT
 *
 * Inputs:	chip	- /dev/gpiochip3, gpiochip3 or just 3.
 *			  Use the "gpioinfo" command for a list.
 *
 *		offset	- Line number on the chip.
 *
 *--------------------------------------------------------------------*/

func OpenGPIODPTT(chip string, offset int, invert bool) (*GPIODPTT, error) {
	var initial = 0
	if invert {
		initial = 1
	}

	var path = GPIOChipPath(chip)
	var l, err = gpiocdev.RequestLine(path, offset,
		gpiocdev.AsOutput(initial),
		gpiocdev.WithConsumer(gpioConsumer))
	if err != nil {
		return nil, fmt.Errorf("requesting %s line %d for PTT: %w", path, offset, err)
	}

	return &GPIODPTT{line: l, invert: invert}, nil
}

func (g *GPIODPTT) SetPTT(on bool) error {
	if g.line == nil {
		return nil
	}

	var v = 0
	if on != g.invert {
		v = 1
	}

	return g.line.SetValue(v)
}

func (g *GPIODPTT) Close() error {
	if g.line == nil {
		return nil
	}

	var offErr = g.SetPTT(false)
	var closeErr = g.line.Close()
	g.line = nil

	if offErr != nil {
		return offErr
	}

	return closeErr
}
