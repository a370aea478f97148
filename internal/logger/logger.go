package logger

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorCyan   = "\033[36m"
	colorDim    = "\033[2m"
)

func colorize(color, s string) string {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		return s
	}
	return color + s + colorReset
}

func line(color, level, tag, msg string) {
	fmt.Printf("%s %s %s\n", colorize(color, level), colorize(colorDim, "["+tag+"]"), msg)
}

// Info prints an informational message with a tag.
func Info(tag, msg string) {
	line(colorCyan, "INFO", tag, msg)
}

// Success prints a success message with a tag.
func Success(tag, msg string) {
	line(colorGreen, " OK ", tag, msg)
}

// Warn prints a warning message with a tag.
func Warn(tag, msg string) {
	line(colorYellow, "WARN", tag, msg)
}

// Error prints an error message with a tag.
func Error(tag, msg string) {
	line(colorRed, "FAIL", tag, msg)
}

// Banner prints the startup banner with the given version string.
func Banner(version string) {
	if version == "" {
		version = "dev"
	}
	fmt.Println(colorize(colorCyan, strings.Repeat("=", 46)))
	fmt.Println(colorize(colorCyan, fmt.Sprintf("  procur - agent procurement engine  %s", version)))
	fmt.Println(colorize(colorCyan, strings.Repeat("=", 46)))
}

// Section prints a section divider.
func Section(name string) {
	fmt.Println(colorize(colorCyan, "--- "+name+" ---"))
}

// Stats prints a key/value stat line.
func Stats(key string, value any) {
	fmt.Printf("  %s: %v\n", colorize(colorDim, key), value)
}
