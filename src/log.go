package cwkey

/*------------------------------------------------------------------
 *
 * Purpose:	Logger setup shared by the library and the command.
 *
 *------------------------------------------------------------------*/

import (
	"io"

	"github.com/charmbracelet/log"
)

// NewLogger writes to w with the package prefix.  An unparsable level means info.
func NewLogger(w io.Writer, level string) *log.Logger {
	var l = log.NewWithOptions(w, log.Options{ //nolint:exhaustruct
		Prefix:          "cwkey",
		ReportTimestamp: true,
	})

	var lvl, err = log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	l.SetLevel(lvl)

	return l
}
