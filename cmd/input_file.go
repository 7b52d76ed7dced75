package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/afero"
)

var (
	// ErrInputFileNotFound is returned when the input file does not exist.
	ErrInputFileNotFound = errors.New("input file not found")
	// ErrInputFilePermission is returned when the input file cannot be read.
	ErrInputFilePermission = errors.New("permission denied reading input file")
	// ErrInputFileEmpty is returned when the input file holds no usable URL.
	ErrInputFileEmpty = errors.New("input file contains no valid URLs")
)

// InputFileError ties an input file failure to its path.
type InputFileError struct {
	Path string
	Err  error
}

func (e *InputFileError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Path)
}

func (e *InputFileError) Unwrap() error {
	return e.Err
}

// NewInputFileError creates an InputFileError.
func NewInputFileError(path string, err error) *InputFileError {
	return &InputFileError{Path: path, Err: err}
}

// InvalidLine is a non-comment line that is not an http(s) URL.
type InvalidLine struct {
	// LineNumber is 1-indexed.
	LineNumber int
	Content    string
	Reason     string
}

const invalidSchemeReason = "URL must start with http:// or https://"

// ParseResult is what ParseInputFile found.
type ParseResult struct {
	URLs []string
	// SkippedLines counts comment lines.
	SkippedLines int
	// Duplicates counts URLs dropped because they appeared earlier.
	Duplicates   int
	TotalLines   int
	InvalidLines []InvalidLine
}

// ParseInputFile reads one URL per line from path on fs. Blank lines and
// lines starting with # are skipped, as are repeats of an earlier URL, since
// a scheduler can only address the first of two equal URLs.
func ParseInputFile(fs afero.Fs, path string) (*ParseResult, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, wrapInputFileError(path, err)
	}
	lines := strings.Split(string(data), "\n")
	result := &ParseResult{TotalLines: len(lines)}
	seen := make(map[string]struct{})

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			continue
		case strings.HasPrefix(trimmed, "#"):
			result.SkippedLines++
			continue
		case !isHTTPURL(trimmed):
			result.InvalidLines = append(result.InvalidLines, InvalidLine{
				LineNumber: i + 1,
				Content:    trimmed,
				Reason:     invalidSchemeReason,
			})
			continue
		}
		if _, dup := seen[trimmed]; dup {
			result.Duplicates++
			continue
		}
		seen[trimmed] = struct{}{}
		result.URLs = append(result.URLs, trimmed)
	}

	if len(result.URLs) == 0 {
		return result, NewInputFileError(path, ErrInputFileEmpty)
	}
	return result, nil
}

func isHTTPURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func wrapInputFileError(path string, err error) error {
	if os.IsNotExist(err) {
		return NewInputFileError(path, ErrInputFileNotFound)
	}
	if os.IsPermission(err) {
		return NewInputFileError(path, ErrInputFilePermission)
	}
	return NewInputFileError(path, err)
}
