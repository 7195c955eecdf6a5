package evaluation

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrNothingToExport is informational: the collection is empty so no file is produced.
	ErrNothingToExport = errors.New("no evaluation records to export")
	ErrInvalidNumber   = errors.New("invalid integer")
)

// FormatError is returned when JSON input is not an array of records.
type FormatError struct {
	Err error // syntax error, if the text is not JSON at all
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return "failed to parse JSON: " + e.Err.Error()
	}
	return "invalid JSON format: expected an array"
}

func (e *FormatError) Unwrap() error { return e.Err }

// NoValidRecordsError is returned when decoding yields zero records passing the required-field check.
type NoValidRecordsError struct {
	Format  Format
	Skipped int
}

func (e *NoValidRecordsError) Error() string {
	if e.Format == FormatCSV {
		return "no valid evaluation records found in CSV"
	}
	return "no valid evaluation records found in file"
}

// MalformedInputError is returned when CSV input lacks a header row or any data row.
type MalformedInputError struct {
	Lines int // number of non-blank lines found
}

func (e *MalformedInputError) Error() string {
	return "CSV file must have at least a header row and one data row"
}

// UnsupportedFormatError is returned when the filename extension is neither .json nor .csv.
type UnsupportedFormatError struct {
	Filename string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file format %q: please use JSON or CSV", e.Filename)
}

// ReadError is returned when the import source cannot be read.
type ReadError struct {
	Err error
}

func (e *ReadError) Error() string {
	return "failed to read file: " + e.Err.Error()
}

func (e *ReadError) Unwrap() error { return e.Err }

// Stage is a step of an import.
type Stage int

const (
	StageIdle Stage = iota
	StageReading
	StageDecoding
	StageMerging
	StagePersisted
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageReading:
		return "reading"
	case StageDecoding:
		return "decoding"
	case StageMerging:
		return "merging"
	case StagePersisted:
		return "persisted"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// ImportError reports the stage an import failed at. Its message is the underlying error's.
type ImportError struct {
	Stage Stage
	Err   error
}

func (e *ImportError) Error() string {
	return e.Err.Error()
}

func (e *ImportError) Unwrap() error { return e.Err }

// IsImportInputError tells whether err was caused by the imported content itself
// (as opposed to a storage failure).
func IsImportInputError(err error) bool {
	var (
		fe  *FormatError
		nve *NoValidRecordsError
		mie *MalformedInputError
		ufe *UnsupportedFormatError
		re  *ReadError
	)
	return errors.As(err, &fe) || errors.As(err, &nve) || errors.As(err, &mie) ||
		errors.As(err, &ufe) || errors.As(err, &re)
}
