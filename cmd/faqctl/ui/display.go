package ui

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	okColor     = color.New(color.FgGreen, color.Bold)
	failColor   = color.New(color.FgRed, color.Bold)
	dimColor    = color.New(color.FgHiBlack)
)

func Init(noColor bool) {
	if noColor {
		color.NoColor = true
	}
}

// Table prints rows under headers with columns padded to the widest cell.
func Table(headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	line := func(cells []string) string {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			parts[i] = fmt.Sprintf("%-*s", widths[i], cell)
		}
		return strings.Join(parts, "  ")
	}

	headerColor.Println(line(headers))
	for _, row := range rows {
		fmt.Println(line(row))
	}
}

func KeyValue(key, value string) {
	fmt.Printf("%s %s\n", headerColor.Sprint(key+":"), value)
}

func OK(format string, args ...interface{}) {
	fmt.Printf("%s %s\n", okColor.Sprint("OK  "), fmt.Sprintf(format, args...))
}

func Fail(format string, args ...interface{}) {
	fmt.Printf("%s %s\n", failColor.Sprint("FAIL"), fmt.Sprintf(format, args...))
}

func Dim(format string, args ...interface{}) {
	dimColor.Printf(format+"\n", args...)
}
