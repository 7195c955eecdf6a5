package evaluation

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/convivencia/core"
)

// Format is an interchange file format.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

var utf8BOM = []byte("\xef\xbb\xbf")

// EmptyCSV is the CSV text produced for an empty collection.
const EmptyCSV = "No data to export"

// ParseFormat parses a format name ("json" or "csv", case-insensitive).
func ParseFormat(name string) (Format, error) {
	switch f := Format(core.CleanString(name, true /* lower */)); f {
	case FormatJSON, FormatCSV:
		return f, nil
	default:
		return "", &UnsupportedFormatError{Filename: name}
	}
}

// FormatFromFilename picks the format from the lowered filename extension.
func FormatFromFilename(filename string) (Format, error) {
	switch core.FileExt(filename) {
	case ".json":
		return FormatJSON, nil
	case ".csv":
		return FormatCSV, nil
	default:
		return "", &UnsupportedFormatError{Filename: filename}
	}
}

func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv"
	}
	return "application/json"
}

// Label is the upper-case name used in user-facing messages.
func (f Format) Label() string {
	return strings.ToUpper(string(f))
}

// Decoded is the result of decoding interchange text.
type Decoded struct {
	Records []Record
	Skipped int // elements or rows dropped by the required-field check
}

// Codec converts record collections to and from JSON and CSV text.
type Codec struct {
	validate *validator.Validate
}

func NewCodec(validate *validator.Validate) *Codec {
	return &Codec{validate: validate}
}

func (c *Codec) Encode(format Format, records []Record) ([]byte, error) {
	switch format {
	case FormatJSON:
		return c.EncodeJSON(records)
	case FormatCSV:
		return c.EncodeCSV(records), nil
	default:
		return nil, &UnsupportedFormatError{Filename: string(format)}
	}
}

func (c *Codec) Decode(format Format, data []byte) (Decoded, error) {
	switch format {
	case FormatJSON:
		return c.DecodeJSON(data)
	case FormatCSV:
		return c.DecodeCSV(data)
	default:
		return Decoded{}, &UnsupportedFormatError{Filename: string(format)}
	}
}

// EncodeJSON renders records as a JSON array indented with 2 spaces.
func (c *Codec) EncodeJSON(records []Record) ([]byte, error) {
	if records == nil {
		records = []Record{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return nil, errors.Wrap(err, "encoding records")
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// EncodeCSV renders records as CSV text, lines joined by "\n" without a trailing newline.
// The header is the union of the fields present in the records, in first-seen order;
// a record lacking a header field gets an empty cell.
func (c *Codec) EncodeCSV(records []Record) []byte {
	if len(records) == 0 {
		return []byte(EmptyCSV)
	}

	var (
		headers []string
		seen    = make(map[string]bool)
		rows    = make([]map[string]string, 0, len(records))
	)
	for _, r := range records {
		row := make(map[string]string)
		for _, f := range r.fields() {
			if !seen[f.key] {
				seen[f.key] = true
				headers = append(headers, f.key)
			}
			row[f.key] = f.value
		}
		rows = append(rows, row)
	}

	lines := make([]string, 0, len(records)+1)
	lines = append(lines, strings.Join(headers, ","))
	for _, row := range rows {
		cells := make([]string, len(headers))
		for i, h := range headers {
			if v, ok := row[h]; ok {
				cells[i] = quoteField(v)
			}
		}
		lines = append(lines, strings.Join(cells, ","))
	}
	return []byte(strings.Join(lines, "\n"))
}

// DecodeJSON parses a JSON array of records, dropping the elements that fail the required-field check.
func (c *Codec) DecodeJSON(data []byte) (Decoded, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(trimBOM(data), &elems); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return Decoded{}, &FormatError{}
		}
		return Decoded{}, &FormatError{Err: err}
	}
	if elems == nil { // `null`
		return Decoded{}, &FormatError{}
	}

	var res Decoded
	for _, elem := range elems {
		var r Record
		if err := json.Unmarshal(elem, &r); err != nil {
			res.Skipped++
			continue
		}
		if err := r.Validate(c.validate); err != nil {
			res.Skipped++
			continue
		}
		res.Records = append(res.Records, r)
	}
	if len(res.Records) == 0 {
		return Decoded{}, &NoValidRecordsError{Format: FormatJSON, Skipped: res.Skipped}
	}
	return res, nil
}

// DecodeCSV parses CSV text whose first non-blank line is a header naming record fields.
// Unknown columns are ignored, short rows are padded with empty cells, and rows failing
// the required-field check or holding a malformed number are dropped.
func (c *Codec) DecodeCSV(data []byte) (Decoded, error) {
	var lines []string
	for _, line := range strings.Split(string(trimBOM(data)), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) < 2 {
		return Decoded{}, &MalformedInputError{Lines: len(lines)}
	}

	headers := SplitLine(lines[0], ',')
	var res Decoded
	for _, line := range lines[1:] {
		values := SplitLine(line, ',')
		cells := make(map[string]string, len(headers))
		for i, h := range headers {
			var v string
			if i < len(values) {
				v = values[i]
			}
			cells[h] = v // duplicate headers: last one wins
		}

		r, err := c.recordFromCells(cells)
		if err != nil {
			res.Skipped++
			continue
		}
		res.Records = append(res.Records, r)
	}
	if len(res.Records) == 0 {
		return Decoded{}, &NoValidRecordsError{Format: FormatCSV, Skipped: res.Skipped}
	}
	return res, nil
}

// trimBOM drops the UTF-8 byte order mark spreadsheet tools put at the start of saved files.
func trimBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, utf8BOM)
}

func (c *Codec) recordFromCells(cells map[string]string) (Record, error) {
	sessionNumber, err := ParseOptionalInt(cells[FieldSessionNumber], 0)
	if err != nil {
		return Record{}, err
	}
	before, err := ParseOptionalInt(cells[FieldBeforeMixedInteractions], 0)
	if err != nil {
		return Record{}, err
	}
	after, err := ParseOptionalInt(cells[FieldAfterMixedInteractions], 0)
	if err != nil {
		return Record{}, err
	}

	r := Record{
		ID:                      ID(cells[FieldID]),
		SessionNumber:           sessionNumber,
		Date:                    cells[FieldDate],
		GroupName:               cells[FieldGroupName],
		DuringParticipation:     cells[FieldDuringParticipation],
		BeforeMixedInteractions: before,
		AfterMixedInteractions:  after,
		BeforeStereotypes:       cells[FieldBeforeStereotypes],
		AfterStereotypes:        cells[FieldAfterStereotypes],
		Notes:                   cells[FieldNotes],
	}
	if err := r.Validate(c.validate); err != nil {
		return Record{}, err
	}
	return r, nil
}
