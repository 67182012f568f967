package errors

import (
	stderrors "errors"
	"fmt"
	"os"
	"strings"
)

// ErrorType represents the category of error
type ErrorType string

const (
	ErrorTypeNoSnapshots    ErrorType = "NoSnapshots"
	ErrorTypePathNotFound   ErrorType = "PathNotFound"
	ErrorTypeTransfer       ErrorType = "Transfer"
	ErrorTypeParse          ErrorType = "Parse"
	ErrorTypeAuthentication ErrorType = "Authentication"
	ErrorTypeConfiguration  ErrorType = "Configuration"
	ErrorTypeProvider       ErrorType = "Provider"
	ErrorTypeFileSystem     ErrorType = "FileSystem"
	ErrorTypeValidation     ErrorType = "Validation"
)

// Sentinels matched by errors.Is against any SpliceError of the same type.
var (
	ErrNoSnapshotsFound = stderrors.New("no cluster snapshots found")
	ErrPathNotFound     = stderrors.New("template path not found")
	ErrTransfer         = stderrors.New("object transfer failed")
	ErrParse            = stderrors.New("template is not valid YAML")
)

var sentinels = map[ErrorType]error{
	ErrorTypeNoSnapshots:  ErrNoSnapshotsFound,
	ErrorTypePathNotFound: ErrPathNotFound,
	ErrorTypeTransfer:     ErrTransfer,
	ErrorTypeParse:        ErrParse,
}

// SpliceError represents a user-facing error with actionable guidance
type SpliceError struct {
	Type        ErrorType
	Message     string
	Cause       string
	Solutions   []string
	Verify      string
	Help        string
	Environment string

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface
func (e *SpliceError) Error() string {
	if e.Cause == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, e.Cause)
}

// Detail renders the error with its solutions, one section per line
func (e *SpliceError) Detail() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("\nError: %s\n", e.Message))

	if e.Cause != "" {
		sb.WriteString(fmt.Sprintf("Cause: %s\n", e.Cause))
	}

	if e.Environment != "" {
		sb.WriteString(fmt.Sprintf("Environment: %s\n", e.Environment))
	}

	if len(e.Solutions) > 0 {
		sb.WriteString("\nSolutions:\n")
		for _, solution := range e.Solutions {
			sb.WriteString(fmt.Sprintf("  %s\n", solution))
		}
	}

	if e.Verify != "" {
		sb.WriteString(fmt.Sprintf("\nVerify: %s\n", e.Verify))
	}

	if e.Help != "" {
		sb.WriteString(fmt.Sprintf("Help: %s\n", e.Help))
	}

	return sb.String()
}

// Format implements fmt.Formatter for custom formatting
func (e *SpliceError) Format(f fmt.State, verb rune) {
	switch verb {
	case 'v':
		if f.Flag('+') {
			fmt.Fprintf(f, "[%s] %s", e.Type, e.Detail())
			return
		}
		fmt.Fprint(f, e.Error())
	default:
		fmt.Fprint(f, e.Error())
	}
}

// Is reports whether target is the sentinel for this error's type
func (e *SpliceError) Is(target error) bool {
	sentinel, ok := sentinels[e.Type]
	return ok && target == sentinel
}

// Unwrap returns the underlying error
func (e *SpliceError) Unwrap() error {
	return e.Err
}

// New creates a new SpliceError
func New(errType ErrorType, message string) *SpliceError {
	return &SpliceError{
		Type:        errType,
		Message:     message,
		Environment: detectEnvironment(),
	}
}

// Wrap creates a new SpliceError around err, using err's text as the cause
func Wrap(errType ErrorType, message string, err error) *SpliceError {
	e := New(errType, message)
	if err != nil {
		e.Err = err
		e.Cause = err.Error()
	}
	return e
}

// WithCause adds cause information
func (e *SpliceError) WithCause(cause string) *SpliceError {
	e.Cause = cause
	return e
}

// WithSolutions adds solution steps
func (e *SpliceError) WithSolutions(solutions ...string) *SpliceError {
	e.Solutions = append(e.Solutions, solutions...)
	return e
}

// WithVerify adds verification command
func (e *SpliceError) WithVerify(verify string) *SpliceError {
	e.Verify = verify
	return e
}

// WithHelp adds help command
func (e *SpliceError) WithHelp(help string) *SpliceError {
	e.Help = help
	return e
}

// detectEnvironment detects the current environment
func detectEnvironment() string {
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		return "AWS Lambda detected"
	}

	ciVars := []string{"CI", "CONTINUOUS_INTEGRATION", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_HOME"}
	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			return "CI/CD detected"
		}
	}

	if _, err := os.Stat("/.dockerenv"); err == nil {
		return "Container environment detected"
	}

	if os.Getenv("AWS_EXECUTION_ENV") == "CloudShell" {
		return "Cloud Shell detected"
	}

	return "Development workstation detected"
}

// As returns the first SpliceError in err's chain
func As(err error) (*SpliceError, bool) {
	var spliceErr *SpliceError
	if stderrors.As(err, &spliceErr) {
		return spliceErr, true
	}
	return nil, false
}

// IsUserError reports whether err can only be cleared by the operator, as
// opposed to a transient AWS or disk failure that may pass on retry
func IsUserError(err error) bool {
	spliceErr, ok := As(err)
	if !ok {
		return false
	}

	switch spliceErr.Type {
	case ErrorTypeTransfer, ErrorTypeProvider, ErrorTypeFileSystem:
		return false
	default:
		return true
	}
}

// GetExitCode returns appropriate exit code for error type
func GetExitCode(err error) int {
	if err == nil {
		return 0
	}

	spliceErr, ok := As(err)
	if !ok {
		return 1
	}

	switch spliceErr.Type {
	case ErrorTypeAuthentication:
		return 77 // EX_NOPERM
	case ErrorTypeConfiguration:
		return 78 // EX_CONFIG
	case ErrorTypeNoSnapshots:
		return 66 // EX_NOINPUT
	case ErrorTypePathNotFound, ErrorTypeParse, ErrorTypeValidation:
		return 65 // EX_DATAERR
	case ErrorTypeTransfer, ErrorTypeProvider:
		return 69 // EX_UNAVAILABLE
	case ErrorTypeFileSystem:
		return 74 // EX_IOERR
	default:
		return 1
	}
}
