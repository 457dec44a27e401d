package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"golang.org/x/term"
)

// Banner is printed by the version command
const Banner = `
  _                    _       __      _       _
 | | ____ _  __ _  __ _| | ___ / _| ___| |_ ___| |__
 | |/ / _' |/ _' |/ _' | |/ _ \ |_ / _ \ __/ __| '_ \
 |   < (_| | (_| | (_| | |  __/  _|  __/ || (__| | | |
 |_|\_\__,_|\__, |\__, |_|\___|_|  \___|\__\___|_| |_|
            |___/ |___/
`

// Output receives everything the Print helpers write
var Output io.Writer = os.Stdout

var (
	quiet        atomic.Bool
	colorEnabled = detectColor()
)

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

// detectColor enables ANSI colors for interactive terminals unless NO_COLOR
// is set or TERM is dumb
func detectColor() bool {
	if os.Getenv("NO_COLOR") != "" || strings.EqualFold(os.Getenv("TERM"), "dumb") {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// colorize returns a function that wraps text with ANSI color codes
func colorize(colorString string) func(string) string {
	return func(text string) string {
		if !colorEnabled {
			return text
		}
		return fmt.Sprintf(colorString, text)
	}
}

// SetColor forces colors on or off
func SetColor(enabled bool) {
	colorEnabled = enabled
}

// SetQuietMode suppresses informational output. Errors are still printed.
func SetQuietMode(enabled bool) {
	quiet.Store(enabled)
}

// IsQuietMode reports whether informational output is suppressed
func IsQuietMode() bool {
	return quiet.Load()
}

// Writer returns Output, or io.Discard in quiet mode
func Writer() io.Writer {
	if IsQuietMode() {
		return io.Discard
	}
	return Output
}

// PrintBanner prints the banner with color
func PrintBanner() {
	fmt.Fprint(Writer(), Cyan(Banner))
}

// PrintError prints an error message in red
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Fprintln(Output, Red(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(Output, Red(msg))
	}
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	fmt.Fprintln(Writer(), Green(msg))
}

// PrintInfo prints a label/value pair
func PrintInfo(label string, value string) {
	fmt.Fprintf(Writer(), "%s: %s\n", Cyan(label), Yellow(value))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Fprintln(Writer(), Yellow(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(Writer(), Yellow(msg))
	}
}

// PrintHighlight prints a highlighted message in magenta
func PrintHighlight(msg string) {
	fmt.Fprintln(Writer(), Magenta(msg))
}

// PrintHint prints a dimmed follow-up suggestion
func PrintHint(msg string) {
	fmt.Fprintln(Writer(), Dim(msg))
}
