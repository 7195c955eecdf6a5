package evaluation

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/convivencia/core"
)

// Export is an encoded collection ready to be delivered as a file.
type Export struct {
	Format      Format
	Filename    string
	ContentType string
	Content     []byte
	Count       int
}

// ImportResult describes a successful import.
type ImportResult struct {
	Filename string
	Format   Format
	Imported int // records parsed from the file, not necessarily new ones
	Skipped  int
	Total    int // collection size after the merge
}

// ExportFilename returns `convivencia-evaluations-<YYYY-MM-DD>.<format>`.
func ExportFilename(format Format, t time.Time) string {
	return fmt.Sprintf("convivencia-evaluations-%s.%s", core.ISODate(t), format)
}

// Export encodes the stored collection. It returns ErrNothingToExport if the collection is empty.
func (svc *Service) Export(ctx context.Context, format Format) (Export, error) {
	if format != FormatJSON && format != FormatCSV {
		return Export{}, &UnsupportedFormatError{Filename: string(format)}
	}

	records, err := svc.store.Load(ctx)
	if err != nil {
		return Export{}, errors.Wrap(err, "loading records")
	}
	if len(records) == 0 {
		return Export{}, ErrNothingToExport
	}

	content, err := svc.codec.Encode(format, records)
	if err != nil {
		return Export{}, err
	}
	exp := Export{
		Format:      format,
		Filename:    ExportFilename(format, nowFunc()),
		ContentType: format.ContentType(),
		Content:     content,
		Count:       len(records),
	}
	svc.logger.Info("evaluation records exported", map[string]interface{}{"count": exp.Count, "filename": exp.Filename})
	return exp, nil
}

func (svc *Service) ExportJSON(ctx context.Context) (Export, error) {
	return svc.Export(ctx, FormatJSON)
}

func (svc *Service) ExportCSV(ctx context.Context) (Export, error) {
	return svc.Export(ctx, FormatCSV)
}

// Import reads r to completion, decodes it according to the filename extension, merges the
// decoded records into the stored collection and saves the result.
// The format is checked before anything is read, and nothing is saved unless decoding succeeded.
// Failures are returned as *ImportError.
func (svc *Service) Import(ctx context.Context, filename string, r io.Reader) (ImportResult, error) {
	stage := StageIdle
	fail := func(err error) (ImportResult, error) {
		svc.logger.Error("evaluation import failed", err, map[string]interface{}{"filename": filename, "stage": stage.String()})
		return ImportResult{}, &ImportError{Stage: stage, Err: err}
	}

	format, err := FormatFromFilename(filename)
	if err != nil {
		return fail(err)
	}

	stage = StageReading
	data, err := io.ReadAll(r)
	if err != nil {
		return fail(&ReadError{Err: err})
	}

	stage = StageDecoding
	decoded, err := svc.codec.Decode(format, data)
	if err != nil {
		return fail(err)
	}
	if decoded.Skipped > 0 {
		svc.logger.Warn("evaluation import skipped invalid records", map[string]interface{}{"filename": filename, "skipped": decoded.Skipped})
	}

	stage = StageMerging
	svc.mu.Lock()
	defer svc.mu.Unlock()

	existing, err := svc.store.Load(ctx)
	if err != nil {
		return fail(errors.Wrap(err, "loading records"))
	}
	merged := Merge(existing, decoded.Records)
	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	if err := svc.store.Save(ctx, merged); err != nil {
		return fail(errors.Wrap(err, "saving records"))
	}

	stage = StagePersisted
	res := ImportResult{
		Filename: filename,
		Format:   format,
		Imported: len(decoded.Records),
		Skipped:  decoded.Skipped,
		Total:    len(merged),
	}
	svc.logger.Info("evaluation records imported", map[string]interface{}{"filename": filename, "count": res.Imported, "total": res.Total})
	return res, nil
}

// ImportFile imports the file at path. Unsupported extensions fail before the file is opened.
func (svc *Service) ImportFile(ctx context.Context, path string) (ImportResult, error) {
	if _, err := FormatFromFilename(path); err != nil {
		return ImportResult{}, &ImportError{Stage: StageIdle, Err: err}
	}
	file, err := os.Open(path)
	if err != nil {
		return ImportResult{}, &ImportError{Stage: StageReading, Err: &ReadError{Err: err}}
	}
	//goland:noinspection GoUnhandledErrorResult
	defer file.Close()
	return svc.Import(ctx, filepath.Base(path), file)
}

// Message types
const (
	MessageSuccess = "success"
	MessageError   = "error"
	MessageInfo    = "info"
)

// Message is a user-facing outcome of an interchange operation.
type Message struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func ExportMessage(exp Export, err error) Message {
	switch {
	case err == nil:
		return Message{Type: MessageSuccess, Text: fmt.Sprintf("Exported %d evaluation records to %s", exp.Count, exp.Format.Label())}
	case errors.Is(err, ErrNothingToExport):
		return Message{Type: MessageInfo, Text: "No evaluation records to export"}
	default:
		return Message{Type: MessageError, Text: "Export failed: " + err.Error()}
	}
}

func ImportMessage(res ImportResult, err error) Message {
	if err != nil {
		return Message{Type: MessageError, Text: "Import failed: " + err.Error()}
	}
	return Message{Type: MessageSuccess, Text: fmt.Sprintf("Imported %d evaluation records", res.Imported)}
}
