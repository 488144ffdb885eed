package cwkey

/*------------------------------------------------------------------
 *
 * Purpose:   	Command line front end.  Send a message, or a steady
 *		tone for setting levels, then exit.
 *
 * Usage:	cwkey [options] message ...
 *
 *		cwkey -n -w 20 CQ CQ DE N0CALL
 *		cwkey -c station.yaml -f 2000
 *		cwkey --list-cm108
 *
 *---------------------------------------------------------------*/

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lestrrat-go/strftime"
	"github.com/spf13/pflag"
	"golang.org/x/sys/unix"
)

func CWKeyMain() {
	var configFile = pflag.StringP("config-file", "c", "", "Read station configuration from this YAML file.")
	var wpm = pflag.IntP("wpm", "w", 0, "Speed in words per minute.  Takes priority over --dit-ms.")
	var ditMs = pflag.Uint32P("dit-ms", "D", DEFAULT_DIT_MS, "Length of a dit in milliseconds.")
	var pttDelay = pflag.Uint32P("ptt-delay", "p", DEFAULT_PTT_DELAY_MS, "Milliseconds between PTT on and the first element.")
	var directKeying = pflag.BoolP("direct-keying", "k", false, "Key the tone output directly.  No PTT.")
	var toneFor = pflag.Uint32P("tone-for", "f", 0, "Send a steady tone for this many milliseconds instead of a message.")
	var pttMethod = pflag.StringP("ptt-method", "P", "", "PTT method: none, serial, gpiod or cm108.")
	var toneMethod = pflag.StringP("tone-method", "t", "", "Tone method: none, audio or gpiod.")
	var dryRun = pflag.BoolP("dry-run", "n", false, "Don't touch any hardware.  Log the key changes instead.")
	var symbolDump = pflag.BoolP("symbol-dump", "S", false, "Print the Morse table and exit.")
	var listCM108 = pflag.Bool("list-cm108", false, "List USB audio adapters and which can be used for PTT, then exit.")
	var timestampFormat = pflag.StringP("timestamp-format", "T", "", "Precede the transmit report with 'strftime' format time stamp.")
	var debug = pflag.BoolP("debug", "d", false, "Debug output.")
	var version = pflag.BoolP("version", "v", false, "Print version and exit.  With --debug, include build information.")
	var help = pflag.BoolP("help", "h", false, "Display help text.")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] message ...\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "Characters that can't be sent in Morse code are sent as a word space.\n")
		fmt.Fprintf(os.Stderr, "\n")
		pflag.PrintDefaults()
	}

	pflag.Parse()

	if *help {
		pflag.Usage()
		os.Exit(0)
	}

	if *version {
		printVersion(os.Stdout, *debug)
		return
	}

	if *symbolDump {
		dumpSymbols(os.Stdout)
		return
	}

	if *listCM108 {
		var things, err = ListCM108()
		if err != nil {
			log.Fatal("could not list USB audio devices", "err", err)
		}
		printCM108(os.Stdout, things)
		return
	}

	var message = strings.Join(pflag.Args(), " ")
	if message == "" && *toneFor == 0 {
		fmt.Fprintf(os.Stderr, "Nothing to send.\n")
		pflag.Usage()
		os.Exit(1)
	}

	var cfg, cfgErr = LoadStationConfig(*configFile)
	if cfgErr != nil {
		log.Fatal("configuration", "err", cfgErr)
	}

	if pflag.CommandLine.Changed("dit-ms") {
		cfg.Keyer.DitMs = *ditMs
		cfg.Keyer.WPM = 0
	}
	if pflag.CommandLine.Changed("wpm") {
		cfg.Keyer.WPM = *wpm
	}
	if pflag.CommandLine.Changed("ptt-delay") {
		cfg.Keyer.PTTDelayMs = *pttDelay
	}
	if *directKeying {
		cfg.Keyer.DirectKeying = true
	}
	if *pttMethod != "" {
		cfg.PTT.Method = *pttMethod
	}
	if *toneMethod != "" {
		cfg.Tone.Method = *toneMethod
	}
	if *dryRun {
		cfg.PTT.Method = PTT_METHOD_NONE
		cfg.Tone.Method = TONE_METHOD_NONE
	}
	if *debug {
		cfg.Log.Level = "debug"
	}
	if *timestampFormat != "" {
		cfg.Log.TimestampFormat = *timestampFormat
	}
	cfg.Keyer = cfg.Keyer.normalized()

	if err := cfg.Validate(); err != nil {
		log.Fatal("configuration", "err", err)
	}

	var logger = NewLogger(os.Stderr, cfg.Log.Level)
	var previous = log.Default()
	log.SetDefault(logger)
	defer log.SetDefault(previous)

	if err := key(cfg, message, *toneFor, os.Stdout, logger); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("interrupted")
		} else {
			logger.Error("transmit failed", "err", err)
		}
		os.Exit(1)
	}
}

/*-------------------------------------------------------------------
 *
 * Name:        key
 *
 * Purpose:     Open the hardware, send one message or tone, and
 *		put everything back the way it was.
 *
 * Inputs:	toneFor	- Non-zero for a steady tone instead of message.
 *
 *		out	- Where the transmit report goes.
 *
 *--------------------------------------------------------------------*/

func key(cfg StationConfig, message string, toneFor uint32, out io.Writer, logger *log.Logger) error {
	var ptt, pttCloser, pttErr = OpenPTT(cfg.PTT)
	if pttErr != nil {
		return fmt.Errorf("PTT: %w", pttErr)
	}
	if pttCloser != nil {
		defer closeLogged(logger, "PTT", pttCloser)
	}

	var tone, toneCloser, toneErr = OpenTone(cfg.Tone, logger)
	if toneErr != nil {
		return fmt.Errorf("tone: %w", toneErr)
	}
	if toneCloser != nil {
		defer closeLogged(logger, "tone", toneCloser)
	}

	var e = NewEngine(tone, ptt, SystemClock{}, WithConfig(cfg.Keyer), WithLogger(logger))

	var what string
	var estimate time.Duration
	if toneFor > 0 {
		what = "tone"
		estimate = time.Duration(toneFor) * time.Millisecond
		if !e.Config().DirectKeying {
			estimate += time.Duration(e.Config().PTTDelayMs) * time.Millisecond
		}
		if !e.ForceTone(toneFor) {
			return ErrBusy
		}
	} else {
		what = fmt.Sprintf("%q", message)
		estimate = e.Estimate(message)
		if !e.AcceptMessage(message, false) {
			return ErrBusy
		}
	}

	fmt.Fprintln(out, transmitReport(cfg.Log.TimestampFormat, time.Now(), what, estimate))

	var ctx, stop = signal.NotifyContext(context.Background(), os.Interrupt, unix.SIGTERM)
	defer stop()

	return Run(ctx, e, DEFAULT_POLL_INTERVAL)
}

func closeLogged(logger *log.Logger, what string, c io.Closer) {
	if err := c.Close(); err != nil {
		logger.Error("close failed", "what", what, "err", err)
	}
}

// transmitReport is the line printed before keying, e.g. [cwkey 12:34:56] "CQ" (~1500 ms)
func transmitReport(format string, now time.Time, what string, estimate time.Duration) string {
	var stamp = ""
	if format != "" {
		var formattedTime, _ = strftime.Format(format, now)
		stamp = " " + formattedTime
	}

	return fmt.Sprintf("[cwkey%s] %s (~%d ms)", stamp, what, estimate.Milliseconds())
}

// dumpSymbols prints every character in the table with its packed byte.
func dumpSymbols(w io.Writer) {
	var chars []byte
	for ch := byte('A'); ch <= 'Z'; ch++ {
		chars = append(chars, ch)
	}
	for ch := byte(bandFirst); ch <= bandLast; ch++ {
		chars = append(chars, ch)
	}
	chars = append(chars, '=', '?', '!')

	for _, ch := range chars {
		var s = Lookup(ch)
		fmt.Fprintf(w, "%c  %08b  %-6s  %2d\n", ch, byte(s), s, Units(s))
	}
}

func printCM108(w io.Writer, things []CM108Device) {
	fmt.Fprintf(w, "    VID  PID   %-24s %-20s %-12s %-14s %s\n", "Product", "Sound", "ADEVICE", "HID [ptt]", "USB")
	fmt.Fprintf(w, "    ---  ---   %-24s %-20s %-12s %-14s %s\n", "-------", "-----", "-------", "---------", "---")

	for _, t := range things {
		var good = "  "
		if t.CanGPIOPTT {
			good = "**"
		}
		fmt.Fprintf(w, "%2s  %04x %04x  %-24s %-20s %-12s %-14s %s\n",
			good, t.VID, t.PID, t.Product, t.SoundNode, t.PlugHW(), t.HIDRawNode, t.USBNode)
	}

	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "** = Can use Audio Adapter GPIO for PTT.\n")
}
