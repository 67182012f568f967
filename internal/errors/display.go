package errors

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/viper"
)

// DisplayError formats and displays an error on stderr
func DisplayError(err error) {
	Fprint(os.Stderr, err)
}

// Fprint writes err to w, with guidance when err carries a SpliceError
func Fprint(w io.Writer, err error) {
	if err == nil {
		return
	}

	color.NoColor = colorDisabled()

	spliceErr, ok := As(err)
	if !ok {
		fmt.Fprintf(w, "%s\n", color.RedString("Error: %v", err))
		return
	}

	colorFunc := getErrorStyle(spliceErr.Type)

	fmt.Fprintf(w, "\n%s\n", colorFunc(spliceErr.Message))

	if spliceErr.Cause != "" {
		fmt.Fprintf(w, "   %s %s\n", color.YellowString("Cause:"), color.HiBlackString(spliceErr.Cause))
	}

	if spliceErr.Environment != "" {
		fmt.Fprintf(w, "   %s %s\n", color.CyanString("Environment:"), color.HiBlackString(spliceErr.Environment))
	}

	if len(spliceErr.Solutions) > 0 {
		fmt.Fprintf(w, "\n   %s\n", color.GreenString("Solutions:"))
		for i, solution := range spliceErr.Solutions {
			fmt.Fprintf(w, "   %s %s\n", color.HiBlackString(fmt.Sprintf("%d.", i+1)), solution)
		}
	}

	if spliceErr.Verify != "" {
		fmt.Fprintf(w, "\n   %s %s\n", color.BlueString("Verify:"), color.HiWhiteString(spliceErr.Verify))
	}

	if spliceErr.Help != "" {
		fmt.Fprintf(w, "   %s %s\n", color.MagentaString("Help:"), color.HiWhiteString(spliceErr.Help))
	}

	fmt.Fprintln(w)
}

// getErrorStyle returns the appropriate color function for an error type
func getErrorStyle(errType ErrorType) func(format string, a ...interface{}) string {
	switch errType {
	case ErrorTypeAuthentication, ErrorTypeTransfer:
		return color.RedString
	case ErrorTypeConfiguration, ErrorTypeValidation, ErrorTypeNoSnapshots:
		return color.YellowString
	case ErrorTypeProvider:
		return color.CyanString
	case ErrorTypeFileSystem, ErrorTypePathNotFound, ErrorTypeParse:
		return color.MagentaString
	default:
		return color.RedString
	}
}

// FormatErrorWithContext formats an error without color, for logs and Lambda responses
func FormatErrorWithContext(err error, context map[string]string) string {
	var sb strings.Builder

	spliceErr, ok := As(err)
	if !ok {
		sb.WriteString(fmt.Sprintf("Error: %v\n", err))
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("Error: %s\n", spliceErr.Message))
	sb.WriteString(fmt.Sprintf("Type: %s\n", spliceErr.Type))

	if spliceErr.Cause != "" {
		sb.WriteString(fmt.Sprintf("Cause: %s\n", spliceErr.Cause))
	}

	if len(context) > 0 {
		sb.WriteString("\nContext:\n")
		keys := make([]string, 0, len(context))
		for k := range context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sb.WriteString(fmt.Sprintf("  %s: %s\n", k, context[k]))
		}
	}

	if len(spliceErr.Solutions) > 0 {
		sb.WriteString("\nSolutions:\n")
		for i, solution := range spliceErr.Solutions {
			sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, solution))
		}
	}

	if spliceErr.Verify != "" {
		sb.WriteString(fmt.Sprintf("\nVerify: %s\n", spliceErr.Verify))
	}

	return sb.String()
}

// DisplaySuccess writes a success message to w, normally stderr
func DisplaySuccess(w io.Writer, message string) {
	color.NoColor = colorDisabled()
	fmt.Fprintf(w, "Success: %s\n", color.GreenString(message))
}

func colorDisabled() bool {
	if os.Getenv("NO_COLOR") != "" || os.Getenv("SNAPSPLICE_NO_COLOR") != "" {
		return true
	}
	// set by --no-color
	return viper.IsSet("output.no_color") && viper.GetBool("output.no_color")
}
