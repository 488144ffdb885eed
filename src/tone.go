package cwkey

/*------------------------------------------------------------------
 *
 * Purpose:   	Things that can be keyed: a sine tone to the sound
 *		card, a GPIO line, or nothing at all (dry run).
 *
 *---------------------------------------------------------------*/

import (
	"fmt"
	"io"
	"math"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/gordonklaus/portaudio"
	"github.com/warthog618/go-gpiocdev"
)

const TICKS_PER_CYCLE = (256.0 * 256.0 * 256.0 * 256.0)

/*-------------------------------------------------------------------
 *
 * Name:        OpenTone
 *
 * Returns:	Output, something to close at the end, error.
 *		The closer is nil for method "none".
 *
 *--------------------------------------------------------------------*/

func OpenTone(cfg ToneConfig, logger *log.Logger) (ToneOutput, io.Closer, error) {
	switch strings.ToLower(cfg.Method) {
	case TONE_METHOD_NONE, "":
		return &LogTone{log: logger}, nil, nil
	case TONE_METHOD_AUDIO:
		var t, err = OpenAudioTone(cfg.FrequencyHz, cfg.SampleRate, cfg.Amplitude)
		if err != nil {
			return nil, nil, err
		}
		return t, t, nil
	case TONE_METHOD_GPIOD:
		var t, err = OpenGPIODTone(cfg.Device, cfg.GPIO, cfg.Invert)
		if err != nil {
			return nil, nil, err
		}
		return t, t, nil
	}

	return nil, nil, fmt.Errorf("%w: %q", ErrUnknownToneMethod, cfg.Method)
}

// LogTone only reports what it would have done.
type LogTone struct {
	log *log.Logger
}

func (t *LogTone) SetTone(level uint8) error {
	if t.log != nil {
		t.log.Info("key", "level", level)
	}

	return nil
}

/*
 * Phase accumulator for tone generation.
 * Upper bits are used as index into sine table.
 */

type toneGen struct {
	sine  [256]float32
	phase uint32
	step  uint32
	level atomic.Uint32
}

/*-------------------------------------------------------------------
 *
 * Name:        newToneGen
 *
 * Inputs:	freq		- Tone frequency in Hz.
 *
 *		sampleRate	- Samples per second.
 *
 *		amp		- Signal amplitude on scale of 0 .. 100.
 *				  100 will produce full scale samples.
 *
 * Description:	Precompute a sine wave table.
 *
 *--------------------------------------------------------------------*/

func newToneGen(freq int, sampleRate int, amp int) *toneGen {
	var g = new(toneGen)

	for j := range g.sine {
		var a = (float64(j) / 256.0) * (2 * math.Pi)
		g.sine[j] = float32(math.Sin(a) * float64(amp) / 100.0)
	}

	g.step = uint32((float64(freq)*TICKS_PER_CYCLE)/float64(sampleRate) + 0.5)

	return g
}

func (g *toneGen) setLevel(level uint8) {
	g.level.Store(uint32(level))
}

// fill runs on the audio thread.
func (g *toneGen) fill(out []float32) {
	var scale = float32(g.level.Load()) / 255.0

	if scale == 0 {
		for i := range out {
			out[i] = 0
		}
		// Restart from zero crossing so each tone begins cleanly.
		g.phase = 0
		return
	}

	for i := range out {
		g.phase += g.step
		out[i] = g.sine[(g.phase>>24)&0xff] * scale
	}
}

type AudioTone struct {
	gen    *toneGen
	stream *portaudio.Stream
}

func OpenAudioTone(freq int, sampleRate int, amp int) (*AudioTone, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio init: %w", err)
	}

	var gen = newToneGen(freq, sampleRate, amp)

	var stream, err = portaudio.OpenDefaultStream(0, 1, float64(sampleRate), 0, gen.fill)
	if err != nil {
		portaudio.Terminate() //nolint:errcheck
		return nil, fmt.Errorf("opening audio output: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()        //nolint:errcheck
		portaudio.Terminate() //nolint:errcheck
		return nil, fmt.Errorf("starting audio output: %w", err)
	}

	return &AudioTone{gen: gen, stream: stream}, nil
}

func (a *AudioTone) SetTone(level uint8) error {
	a.gen.setLevel(level)
	return nil
}

func (a *AudioTone) Close() error {
	a.gen.setLevel(0)

	var stopErr = a.stream.Stop()
	var closeErr = a.stream.Close()
	var termErr = portaudio.Terminate()

	switch {
	case stopErr != nil:
		return stopErr
	case closeErr != nil:
		return closeErr
	}

	return termErr
}

// GPIODTone keys a GPIO line directly.  Any level above zero is on.
type GPIODTone struct {
	line   gpiodOutputLine
	invert bool
}

func OpenGPIODTone(chip string, offset int, invert bool) (*GPIODTone, error) {
	var initial = 0
	if invert {
		initial = 1
	}

	var path = GPIOChipPath(chip)
	var l, err = gpiocdev.RequestLine(path, offset,
		gpiocdev.AsOutput(initial),
		gpiocdev.WithConsumer(gpioConsumer))
	if err != nil {
		return nil, fmt.Errorf("requesting %s line %d for keying: %w", path, offset, err)
	}

	return &GPIODTone{line: l, invert: invert}, nil
}

func (g *GPIODTone) SetTone(level uint8) error {
	var v = 0
	if (level > 0) != g.invert {
		v = 1
	}

	return g.line.SetValue(v)
}

func (g *GPIODTone) Close() error {
	var offErr = g.SetTone(0)
	var closeErr = g.line.Close()

	if offErr != nil {
		return offErr
	}

	return closeErr
}
