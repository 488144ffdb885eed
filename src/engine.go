package cwkey

/*------------------------------------------------------------------
 *
 * Purpose:   	Send Morse code without blocking the caller.
 *
 * Description:	The caller queues a message then calls Poll (or Tick)
 *		every time around its main loop.  Each call looks at the
 *		clock, decides whether the current tone or silence has
 *		run long enough, and if so moves on to the next one.
 *		Nothing here ever sleeps.
 *
 *		The default setup uses a PTT line plus a tone output,
 *		such as feeding audio to a handheld for a fox hunt.
 *		For true CW, use direct keying: there is no PTT line and
 *		the tone output is simply on or off.
 *
 *---------------------------------------------------------------*/

import (
	"time"

	"github.com/charmbracelet/log"
)

// ToneOutput is whatever makes the sound or keys the transmitter.
// Level 0 is silent.
type ToneOutput interface {
	SetTone(level uint8) error
}

// PTTOutput is the push-to-talk line.
type PTTOutput interface {
	SetPTT(on bool) error
}

// Clock is a free running millisecond counter.  It may wrap.
type Clock interface {
	Millis() uint32
}

// State is where the engine is in a transmission.
type State int

const (
	StateIdle State = iota
	StateGating
	StateTone
	StateElementGap
	StateCharGap
	StateWordGap
	StateForcedTone
)

var stateNames = [...]string{
	StateIdle:       "idle",
	StateGating:     "gating",
	StateTone:       "tone",
	StateElementGap: "element-gap",
	StateCharGap:    "char-gap",
	StateWordGap:    "word-gap",
	StateForcedTone: "forced-tone",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}

	return stateNames[s]
}

// Gap lengths, in dits.
const (
	DAH_UNITS         = 3
	ELEMENT_GAP_UNITS = 1
	CHAR_GAP_UNITS    = 3
	WORD_GAP_UNITS    = 7
)

// Stands in for anything outside ASCII so it still costs one word space.
const placeholderNoGlyph = 0

type Engine struct {
	cfg   Config
	tone  ToneOutput
	ptt   PTTOutput
	clock Clock
	log   *log.Logger

	state State

	// Session.
	buffer      []byte
	cursor      int
	sessionDone bool
	forced      bool
	forcedMs    uint32

	// Current character.
	decoded   bool
	remaining int
	shift     uint8

	// Current window.
	windowStart uint32
	windowLen   uint32
	toneActive  bool

	// PTT gate.
	gateArmedAt uint32
	gateReady   bool

	// Last values written, so repeated polls write nothing.
	// After a failed write the real state is unknown and the next one always goes out.
	levelOut     uint8
	pttOut       bool
	levelUnknown bool
	pttUnknown   bool
}

type Option func(*Engine)

// WithConfig replaces the default timing.
func WithConfig(cfg Config) Option {
	return func(e *Engine) {
		e.cfg = cfg.normalized()
	}
}

// WithLogger sends transition and hardware error messages somewhere other than the default logger.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

/*-------------------------------------------------------------------
 *
 * Name:        NewEngine
 *
 * Inputs:	tone	- Tone or key output.  Required.
 *
 *		ptt	- PTT line.  nil means direct keying.
 *
 *		clock	- Used to stamp the start of the PTT delay.
 *			  Poll takes its own sample.
 *
 *--------------------------------------------------------------------*/

func NewEngine(tone ToneOutput, ptt PTTOutput, clock Clock, opts ...Option) *Engine {
	var e = &Engine{ //nolint:exhaustruct
		cfg:         DefaultConfig(),
		tone:        tone,
		ptt:         ptt,
		clock:       clock,
		log:         log.Default(),
		state:       StateIdle,
		sessionDone: true,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.ptt == nil {
		e.cfg.DirectKeying = true
	}

	return e
}

// Configure sets the basic timing.  A zero dit length picks the default.
func (e *Engine) Configure(ditMs uint32, pttDelayMs uint32, directKeying bool) {
	e.cfg.DitMs = ditMs
	e.cfg.WPM = 0
	e.cfg.PTTDelayMs = pttDelayMs
	e.cfg.DirectKeying = directKeying || e.ptt == nil
	e.cfg = e.cfg.normalized()
}

func (e *Engine) Config() Config {
	return e.cfg
}

func (e *Engine) SetDitLength(ms uint32) {
	e.cfg.DitMs = ms
	e.cfg.WPM = 0
	e.cfg = e.cfg.normalized()
}

// SetDitLengthWPM sets the dit length from a speed, using PARIS timing.
func (e *Engine) SetDitLengthWPM(wpm int) {
	e.cfg.WPM = wpm
	e.cfg = e.cfg.normalized()
}

func (e *Engine) SetPTTDelay(ms uint32) {
	e.cfg.PTTDelayMs = ms
}

// SetToneLevel sets the level used while a tone is keyed.  0 restores the default.
func (e *Engine) SetToneLevel(level uint8) {
	e.cfg.ToneLevel = level
}

// SetOverride lets new messages replace one still being sent.
func (e *Engine) SetOverride(b bool) {
	e.cfg.OverrideInFlight = b
}

func (e *Engine) IsDone() bool {
	return e.sessionDone
}

func (e *Engine) GateReady() bool {
	return e.gateReady
}

func (e *Engine) Cursor() int {
	return e.cursor
}

func (e *Engine) State() State {
	return e.state
}

// Window returns the start and length of the current tone or silence.
func (e *Engine) Window() (uint32, uint32) {
	return e.windowStart, e.windowLen
}

// Estimate is how long a message would take, PTT delay included.
func (e *Engine) Estimate(text string) time.Duration {
	var ms = int64(MessageUnits(text)) * int64(e.cfg.DitMs)
	if !e.cfg.DirectKeying {
		ms += int64(e.cfg.PTTDelayMs)
	}

	return time.Duration(ms) * time.Millisecond
}

/*-------------------------------------------------------------------
 *
 * Name:        AcceptMessage
 *
 * Purpose:    	Start sending a new message.
 *
 * Inputs:	text		- Characters to send.  Anything not in
 *				  the table is sent as a word space.
 *
 *		override	- Replace a message still being sent.
 *
 * Returns:	false if busy.  Nothing is queued in that case.
 *
 *--------------------------------------------------------------------*/

func (e *Engine) AcceptMessage(text string, override bool) bool {
	if !e.sessionDone && !override && !e.cfg.OverrideInFlight {
		return false
	}

	var buffer = make([]byte, 0, len(text))
	for _, r := range text {
		if r > 0x7f {
			buffer = append(buffer, placeholderNoGlyph)
		} else {
			buffer = append(buffer, byte(r))
		}
	}

	e.begin()
	e.buffer = buffer
	e.forced = false
	e.forcedMs = 0

	e.log.Debug("message accepted", "length", len(buffer), "dit_ms", e.cfg.DitMs)

	return true
}

/*-------------------------------------------------------------------
 *
 * Name:        ForceTone
 *
 * Purpose:    	Key one continuous tone, for calibration.
 *
 * Inputs:	durationMs	- Length of the tone.  The dit length
 *				  does not matter.
 *
 * Returns:	false if busy.
 *
 *--------------------------------------------------------------------*/

func (e *Engine) ForceTone(durationMs uint32) bool {
	if !e.sessionDone && !e.cfg.OverrideInFlight {
		return false
	}

	e.begin()
	e.buffer = nil
	e.forced = true
	e.forcedMs = durationMs

	e.log.Debug("forced tone accepted", "ms", durationMs)

	return true
}

// Release silences everything and abandons whatever was being sent.
func (e *Engine) Release() {
	if e.state == StateIdle && e.sessionDone {
		return
	}

	e.finish()
}

// Tick is Poll with a fresh sample of the engine's clock.
func (e *Engine) Tick() {
	e.Poll(e.clock.Millis())
}

/*-------------------------------------------------------------------
 *
 * Name:        Poll
 *
 * Purpose:    	Advance by at most one step.
 *
 * Inputs:	now	- Millisecond clock sample.
 *
 * Description:	Call this on every trip around the main loop.
 *		Timing is only as good as the calling interval.
 *
 *--------------------------------------------------------------------*/

func (e *Engine) Poll(now uint32) {
	switch e.state {
	case StateIdle:
		return

	case StateGating:
		// Let the transmitter key up.  Latched until the session ends.
		if !e.gateReady && now-e.gateArmedAt >= e.cfg.PTTDelayMs {
			e.gateReady = true
		}
		if !e.gateReady {
			return
		}

		if e.forced {
			e.startWindow(now, e.forcedMs, true, StateForcedTone)
			return
		}

		e.beginCharacter(now)

	case StateTone:
		if !e.expired(now) {
			return
		}

		if e.remaining > 0 {
			e.startWindow(now, ELEMENT_GAP_UNITS*e.cfg.DitMs, false, StateElementGap)
		} else {
			e.startWindow(now, CHAR_GAP_UNITS*e.cfg.DitMs, false, StateCharGap)
		}

	case StateElementGap:
		if !e.expired(now) {
			return
		}

		e.startElement(now)

	case StateCharGap, StateWordGap:
		if !e.expired(now) {
			return
		}

		e.cursor++
		e.decoded = false

		if e.cursor < len(e.buffer) {
			e.beginCharacter(now)
		} else {
			e.finish()
		}

	case StateForcedTone:
		if !e.expired(now) {
			return
		}

		e.finish()
	}
}

func (e *Engine) expired(now uint32) bool {
	// Unsigned subtraction copes with the counter wrapping.
	return now-e.windowStart >= e.windowLen
}

func (e *Engine) begin() {
	e.setTone(0)

	// Drop PTT first so a replaced message gets a fresh key up delay.
	e.setPTT(false)
	e.gateReady = false
	e.setPTT(true)
	e.gateArmedAt = e.clock.Millis()
	if e.cfg.DirectKeying {
		e.gateReady = true
	}

	e.cursor = 0
	e.decoded = false
	e.remaining = 0
	e.shift = 0
	e.windowStart = e.gateArmedAt
	e.windowLen = 0
	e.toneActive = false
	e.sessionDone = false
	e.state = StateGating
}

func (e *Engine) beginCharacter(now uint32) {
	if e.cursor >= len(e.buffer) {
		e.finish()
		return
	}

	if !e.decoded {
		var s = Lookup(e.buffer[e.cursor])
		e.remaining = s.Elements()
		e.shift = s.Pattern()
		e.decoded = true
	}

	if e.remaining == 0 {
		e.startWindow(now, WORD_GAP_UNITS*e.cfg.DitMs, false, StateWordGap)
		return
	}

	e.startElement(now)
}

func (e *Engine) startElement(now uint32) {
	var units uint32 = 1
	if e.shift&1 != 0 {
		units = DAH_UNITS
	}

	e.shift >>= 1
	e.remaining--

	e.startWindow(now, units*e.cfg.DitMs, true, StateTone)
}

func (e *Engine) startWindow(now uint32, length uint32, tone bool, next State) {
	e.windowStart = now
	e.windowLen = length
	e.toneActive = tone
	e.state = next

	if tone {
		e.setTone(e.cfg.KeyLevel())
	} else {
		e.setTone(0)
	}

	e.log.Debug("window", "state", next, "ms", length, "cursor", e.cursor)
}

func (e *Engine) finish() {
	e.setTone(0)
	e.setPTT(false)

	e.toneActive = false
	e.gateReady = false
	e.sessionDone = true
	e.forced = false
	e.forcedMs = 0
	e.state = StateIdle

	e.log.Debug("transmission complete")
}

func (e *Engine) setTone(level uint8) {
	if level == e.levelOut && !e.levelUnknown {
		return
	}

	if err := e.tone.SetTone(level); err != nil {
		e.levelUnknown = true
		e.log.Error("tone output failed", "level", level, "err", err)
		return
	}

	e.levelOut = level
	e.levelUnknown = false
}

// setPTT never skips a release, even if direct keying was turned on mid-session.
func (e *Engine) setPTT(on bool) {
	if e.ptt == nil || (on == e.pttOut && !e.pttUnknown) {
		return
	}
	if on && e.cfg.DirectKeying {
		return
	}

	if err := e.ptt.SetPTT(on); err != nil {
		e.pttUnknown = true
		e.log.Error("PTT output failed", "on", on, "err", err)
		return
	}

	e.pttOut = on
	e.pttUnknown = false
}
