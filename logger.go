package dustr

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"

	"github.com/ffishim/dustr/report"
)

// NewLogger returns a human-readable logger writing to w. Output is
// colored if w is a terminal. An empty level means "info".
func NewLogger(w io.Writer, level string) (zerolog.Logger, error) {
	if level == "" {
		level = "info"
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), err
	}
	color := false
	if f, ok := w.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd())
	}
	out := zerolog.ConsoleWriter{
		Out:          w,
		NoColor:      !color,
		PartsExclude: []string{zerolog.TimestampFieldName},
	}
	return zerolog.New(out).Level(lvl), nil
}

// errorString returns the full description of err. Errors providing a
// multi-line String method, like *config.Error and *binding.Error, are
// printed with all lines after the first indented.
func errorString(err error) string {
	s := err.Error()
	var st fmt.Stringer
	if errors.As(err, &st) {
		s = st.String()
	}
	first, rest, ok := strings.Cut(s, "\n")
	if !ok {
		return s
	}
	return first + "\n" + report.IndentString(rest, "  ", 1)
}
