package cwkey

/*------------------------------------------------------------------
 *
 * Purpose:   	Timing and station configuration.
 *
 * Description:	The keyer timing lives in Config and is all an Engine
 *		needs.  StationConfig wraps it with the hardware choices
 *		and is what gets read from the YAML file, e.g.
 *
 *			keyer:
 *			  wpm: 15
 *			  ptt_delay_ms: 300
 *			ptt:
 *			  method: serial
 *			  device: /dev/ttyUSB0
 *			  line: rts
 *			  line2: -dtr
 *			tone:
 *			  method: audio
 *			  frequency_hz: 700
 *
 *---------------------------------------------------------------*/

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"
)

// Length of dit in ms.  Dah is 3x this value, word space is 7x.
const DEFAULT_DIT_MS = 100

// Time between PTT activating and the first element.
const DEFAULT_PTT_DELAY_MS = 250

// Tone levels when none is configured.  Half duty into a radio's mic input,
// full on when the output is the key itself.
const (
	DEFAULT_PTT_TONE_LEVEL    = 127
	DEFAULT_DIRECT_TONE_LEVEL = 255
)

const MORSE_TONE = 800

const DEFAULT_SAMPLES_PER_SEC = 44100

// All known CM108 designs use GPIO 3 for PTT.
const DEFAULT_CM108_GPIO = 3

var (
	ErrBadConfig         = errors.New("bad configuration")
	ErrUnknownPTTMethod  = errors.New("unknown PTT method")
	ErrUnknownToneMethod = errors.New("unknown tone method")
	ErrBadLine           = errors.New("expected RTS or DTR")
	ErrBusy              = errors.New("keyer busy")
)

type Config struct {
	DitMs            uint32 `yaml:"dit_ms"`
	WPM              int    `yaml:"wpm"` // Replaces DitMs when set.
	PTTDelayMs       uint32 `yaml:"ptt_delay_ms"`
	DirectKeying     bool   `yaml:"direct_keying"`
	OverrideInFlight bool   `yaml:"override_in_flight"`
	ToneLevel        uint8  `yaml:"tone_level"` // 0 picks a default for the mode.
}

func DefaultConfig() Config {
	return Config{ //nolint:exhaustruct
		DitMs:      DEFAULT_DIT_MS,
		PTTDelayMs: DEFAULT_PTT_DELAY_MS,
	}
}

// WPMToDitMs uses the PARIS standard word of 50 dits.
func WPMToDitMs(wpm int) uint32 {
	if wpm <= 0 {
		return DEFAULT_DIT_MS
	}

	return uint32(max(60000/(50*wpm), 1)) //nolint:gosec
}

func (c Config) normalized() Config {
	if c.WPM > 0 {
		c.DitMs = WPMToDitMs(c.WPM)
	}
	if c.DitMs == 0 {
		c.DitMs = DEFAULT_DIT_MS
	}

	return c
}

// KeyLevel is the tone level while keyed.
func (c Config) KeyLevel() uint8 {
	switch {
	case c.ToneLevel != 0:
		return c.ToneLevel
	case c.DirectKeying:
		return DEFAULT_DIRECT_TONE_LEVEL
	default:
		return DEFAULT_PTT_TONE_LEVEL
	}
}

const (
	PTT_METHOD_NONE   = "none"
	PTT_METHOD_SERIAL = "serial"
	PTT_METHOD_GPIOD  = "gpiod"
	PTT_METHOD_CM108  = "cm108"
)

type PTTConfig struct {
	Method string `yaml:"method"`
	Device string `yaml:"device"` // Serial port, gpio chip or hidraw device.
	Line   string `yaml:"line"`   // rts, dtr, -rts, -dtr for serial.
	Line2  string `yaml:"line2"`  // Optional second serial line.
	GPIO   int    `yaml:"gpio"`   // Line offset for gpiod, 1-8 for cm108.
	Invert bool   `yaml:"invert"`
}

const (
	TONE_METHOD_NONE  = "none"
	TONE_METHOD_AUDIO = "audio"
	TONE_METHOD_GPIOD = "gpiod"
)

type ToneConfig struct {
	Method      string `yaml:"method"`
	FrequencyHz int    `yaml:"frequency_hz"`
	SampleRate  int    `yaml:"sample_rate"`
	Amplitude   int    `yaml:"amplitude"` // 0 .. 100
	Device      string `yaml:"device"`    // gpio chip for gpiod.
	GPIO        int    `yaml:"gpio"`
	Invert      bool   `yaml:"invert"`
}

type LogConfig struct {
	Level           string `yaml:"level"`
	TimestampFormat string `yaml:"timestamp_format"` // strftime, for transmit reports.
}

type StationConfig struct {
	Keyer Config     `yaml:"keyer"`
	PTT   PTTConfig  `yaml:"ptt"`
	Tone  ToneConfig `yaml:"tone"`
	Log   LogConfig  `yaml:"log"`
}

func DefaultStationConfig() StationConfig {
	return StationConfig{
		Keyer: DefaultConfig(),
		PTT: PTTConfig{ //nolint:exhaustruct
			Method: PTT_METHOD_NONE,
			Line:   "rts",
			GPIO:   DEFAULT_CM108_GPIO,
		},
		Tone: ToneConfig{ //nolint:exhaustruct
			Method:      TONE_METHOD_AUDIO,
			FrequencyHz: MORSE_TONE,
			SampleRate:  DEFAULT_SAMPLES_PER_SEC,
			Amplitude:   50,
		},
		Log: LogConfig{ //nolint:exhaustruct
			Level: "info",
		},
	}
}

/*-------------------------------------------------------------------
 *
 * Name:        LoadStationConfig
 *
 * Purpose:    	Read the YAML file on top of the defaults.
 *
 * Inputs:	path	- File name.  Empty means defaults only.
 *
 *--------------------------------------------------------------------*/

func LoadStationConfig(path string) (StationConfig, error) {
	var cfg = DefaultStationConfig()

	if path == "" {
		return cfg, nil
	}

	var data, readErr = os.ReadFile(path) //nolint:gosec
	if readErr != nil {
		return cfg, fmt.Errorf("reading %s: %w", path, readErr)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.Keyer = cfg.Keyer.normalized()

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

func (c StationConfig) Validate() error {
	if c.Keyer.WPM < 0 {
		return fmt.Errorf("%w: wpm %d is negative", ErrBadConfig, c.Keyer.WPM)
	}

	switch strings.ToLower(c.PTT.Method) {
	case PTT_METHOD_NONE, "":
	case PTT_METHOD_SERIAL:
		if c.PTT.Device == "" {
			return fmt.Errorf("%w: serial PTT needs a device", ErrBadConfig)
		}
		if _, _, err := ParseLine(c.PTT.Line); err != nil {
			return err
		}
		if c.PTT.Line2 != "" {
			if _, _, err := ParseLine(c.PTT.Line2); err != nil {
				return err
			}
		}
	case PTT_METHOD_GPIOD:
		if c.PTT.Device == "" {
			return fmt.Errorf("%w: gpiod PTT needs a chip", ErrBadConfig)
		}
	case PTT_METHOD_CM108:
		if c.PTT.GPIO < 1 || c.PTT.GPIO > 8 {
			return fmt.Errorf("%w: CM108 GPIO number %d is not in range of 1 thru 8", ErrBadConfig, c.PTT.GPIO)
		}
		if c.PTT.Device == "" {
			return fmt.Errorf("%w: CM108 PTT needs a device name such as /dev/hidraw1 or plughw:1,0", ErrBadConfig)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownPTTMethod, c.PTT.Method)
	}

	switch strings.ToLower(c.Tone.Method) {
	case TONE_METHOD_NONE, "":
	case TONE_METHOD_AUDIO:
		if c.Tone.FrequencyHz <= 0 || c.Tone.SampleRate <= 0 || c.Tone.FrequencyHz*2 > c.Tone.SampleRate {
			return fmt.Errorf("%w: tone %d Hz at %d samples/sec", ErrBadConfig, c.Tone.FrequencyHz, c.Tone.SampleRate)
		}
		if c.Tone.Amplitude < 0 || c.Tone.Amplitude > 100 {
			return fmt.Errorf("%w: amplitude %d is not in range of 0 thru 100", ErrBadConfig, c.Tone.Amplitude)
		}
	case TONE_METHOD_GPIOD:
		if c.Tone.Device == "" {
			return fmt.Errorf("%w: gpiod tone needs a chip", ErrBadConfig)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownToneMethod, c.Tone.Method)
	}

	if c.Log.Level != "" {
		if _, err := log.ParseLevel(c.Log.Level); err != nil {
			return fmt.Errorf("%w: %w", ErrBadConfig, err)
		}
	}

	return nil
}

// Serial port control lines.
const (
	PTT_LINE_NONE = iota
	PTT_LINE_RTS
	PTT_LINE_DTR
)

/*-------------------------------------------------------------------
 *
 * Name:        ParseLine
 *
 * Purpose:    	Decode "rts", "dtr", "-rts" or "-dtr".
 *
 * Returns:	Line and whether the leading minus asked for inversion.
 *
 *--------------------------------------------------------------------*/

func ParseLine(s string) (int, bool, error) {
	var invert = strings.HasPrefix(s, "-")
	var name = strings.TrimPrefix(s, "-")

	switch {
	case strings.EqualFold(name, "rts"):
		return PTT_LINE_RTS, invert, nil
	case strings.EqualFold(name, "dtr"):
		return PTT_LINE_DTR, invert, nil
	}

	return PTT_LINE_NONE, false, fmt.Errorf("%w: got %q", ErrBadLine, s)
}

// GPIOChipPath accepts a device path, a bare number or a chip name.
func GPIOChipPath(s string) string {
	switch {
	case s == "":
		return s
	case s[0] == '/':
		return s
	case unicode.IsDigit(rune(s[0])):
		return "/dev/gpiochip" + s
	default:
		return "/dev/" + s
	}
}
