package evaluation

import (
	"context"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/convivencia/core"
	logsvc "github.com/trezcool/convivencia/services/logger"
)

func newTestService(t *testing.T, records ...Record) (*Service, *memStore) {
	t.Helper()
	store := new(memStore)
	if records != nil {
		require.NoError(t, store.Save(context.Background(), records))
		store.saves = 0
	}
	validate, _ := core.NewValidator()
	return NewService(store, validate, logsvc.NewNopLogger()), store
}

func freezeTime(t *testing.T, at time.Time) {
	nowFunc = func() time.Time { return at }
	t.Cleanup(func() { nowFunc = time.Now })
}

// panicReader fails the test if the import tries to read it.
type panicReader struct{ t *testing.T }

func (r panicReader) Read([]byte) (int, error) {
	r.t.Fatal("unexpected read")
	return 0, nil
}

func TestService_Export(t *testing.T) {
	freezeTime(t, time.Date(2024, 3, 15, 23, 30, 0, 0, time.UTC))
	ctx := context.Background()

	t.Run("empty collection", func(t *testing.T) {
		svc, _ := newTestService(t)
		for _, format := range []Format{FormatJSON, FormatCSV} {
			exp, err := svc.Export(ctx, format)
			assert.True(t, errors.Is(err, ErrNothingToExport))
			assert.Equal(t, Message{Type: MessageInfo, Text: "No evaluation records to export"}, ExportMessage(exp, err))
		}
	})

	t.Run("json", func(t *testing.T) {
		svc, _ := newTestService(t, sampleRecords()...)
		exp, err := svc.ExportJSON(ctx)
		require.NoError(t, err)
		assert.Equal(t, "convivencia-evaluations-2024-03-15.json", exp.Filename)
		assert.Equal(t, "application/json", exp.ContentType)
		assert.Equal(t, 2, exp.Count)

		decoded, err := svc.Codec().DecodeJSON(exp.Content)
		require.NoError(t, err)
		if diff := cmp.Diff(sampleRecords(), decoded.Records); diff != "" {
			t.Errorf("exported JSON mismatch (-want +got):\n%s", diff)
		}
		assert.Equal(t, Message{Type: MessageSuccess, Text: "Exported 2 evaluation records to JSON"}, ExportMessage(exp, err))
	})

	t.Run("csv", func(t *testing.T) {
		svc, _ := newTestService(t, sampleRecords()...)
		exp, err := svc.ExportCSV(ctx)
		require.NoError(t, err)
		assert.Equal(t, "convivencia-evaluations-2024-03-15.csv", exp.Filename)
		assert.Equal(t, "text/csv", exp.ContentType)
		assert.True(t, strings.HasPrefix(string(exp.Content), "id,sessionNumber,date,groupName,"))
		assert.Equal(t, "Exported 2 evaluation records to CSV", ExportMessage(exp, err).Text)
	})

	t.Run("unknown format", func(t *testing.T) {
		svc, _ := newTestService(t, sampleRecords()...)
		_, err := svc.Export(ctx, Format("xml"))
		assert.IsType(t, &UnsupportedFormatError{}, err)
	})

	t.Run("store failure", func(t *testing.T) {
		svc, store := newTestService(t, sampleRecords()...)
		store.loadErr = errors.New("disk on fire")
		exp, err := svc.ExportJSON(ctx)
		require.Error(t, err)
		msg := ExportMessage(exp, err)
		assert.Equal(t, MessageError, msg.Type)
		assert.Equal(t, "Export failed: loading records: disk on fire", msg.Text)
	})
}

func TestService_Import(t *testing.T) {
	ctx := context.Background()
	existing := []Record{rec("1", "a"), rec("2", "b")}

	jsonInput := `[
		{"id":"1","sessionNumber":1,"date":"2024-01-01","groupName":"G","notes":"A"},
		{"id":"3","sessionNumber":1,"date":"2024-01-01","groupName":"G","notes":"c"},
		{"id":"4","sessionNumber":1,"date":"2024-01-01"}
	]`
	csvInput := "id,sessionNumber,date,groupName,notes\r\n1,1,2024-01-01,G,A\r\n3,1,2024-01-01,G,c\r\n"

	tests := []struct {
		name      string
		filename  string
		input     string
		wantStage Stage
		wantErr   interface{}
		wantMsg   string
		want      []Record
	}{
		{
			name: "json", filename: "backup.json", input: jsonInput,
			wantMsg: "Imported 2 evaluation records",
			want:    []Record{rec("1", "A"), rec("2", "b"), rec("3", "c")},
		},
		{
			name: "csv, upper-case extension", filename: "BACKUP.CSV", input: csvInput,
			wantMsg: "Imported 2 evaluation records",
			want:    []Record{rec("1", "A"), rec("2", "b"), rec("3", "c")},
		},
		{
			name: "unsupported format", filename: "records.txt", input: jsonInput,
			wantStage: StageIdle, wantErr: &UnsupportedFormatError{},
			wantMsg: `Import failed: unsupported file format "records.txt": please use JSON or CSV`,
		},
		{
			name: "not an array", filename: "records.json", input: "{}",
			wantStage: StageDecoding, wantErr: &FormatError{},
			wantMsg: "Import failed: invalid JSON format: expected an array",
		},
		{
			name: "no valid records", filename: "records.json", input: `[{"id":"9"}]`,
			wantStage: StageDecoding, wantErr: &NoValidRecordsError{},
			wantMsg: "Import failed: no valid evaluation records found in file",
		},
		{
			name: "header only csv", filename: "records.csv", input: "id,sessionNumber,date,groupName\n",
			wantStage: StageDecoding, wantErr: &MalformedInputError{},
			wantMsg: "Import failed: CSV file must have at least a header row and one data row",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newTestService(t, existing...)

			res, err := svc.Import(ctx, tt.filename, strings.NewReader(tt.input))
			assert.Equal(t, tt.wantMsg, ImportMessage(res, err).Text)

			if tt.wantErr != nil {
				var ie *ImportError
				require.True(t, errors.As(err, &ie), "got err %v", err)
				assert.Equal(t, tt.wantStage, ie.Stage)
				assert.IsType(t, tt.wantErr, ie.Err)
				assert.True(t, IsImportInputError(err))
				assert.Zero(t, store.saves, "nothing must be saved on failure")
				tt.want = existing
			} else {
				require.NoError(t, err)
				assert.Equal(t, len(tt.want), res.Total)
				assert.Equal(t, 1, store.saves)
			}

			got, err := store.Load(ctx)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("stored records mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestService_Import_NoReadForUnsupportedFormat(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Import(context.Background(), "notes.txt", panicReader{t})
	var ufe *UnsupportedFormatError
	assert.True(t, errors.As(err, &ufe))
}

func TestService_Import_ReadError(t *testing.T) {
	svc, store := newTestService(t, rec("1", "a"))
	res, err := svc.Import(context.Background(), "records.json", iotest.ErrReader(errors.New("connection reset")))

	var ie *ImportError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, StageReading, ie.Stage)
	assert.IsType(t, &ReadError{}, ie.Err)
	assert.Equal(t, "Import failed: failed to read file: connection reset", ImportMessage(res, err).Text)
	assert.Zero(t, store.saves)
}

func TestService_Import_SaveError(t *testing.T) {
	svc, store := newTestService(t, rec("1", "a"))
	store.saveErr = errors.New("read-only")

	_, err := svc.Import(context.Background(), "records.json", strings.NewReader(`[{"id":"2","sessionNumber":1,"date":"2024-01-01","groupName":"G"}]`))
	var ie *ImportError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, StageMerging, ie.Stage)
	assert.False(t, IsImportInputError(err))
}

func TestService_Import_Cancelled(t *testing.T) {
	svc, store := newTestService(t, rec("1", "a"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Import(ctx, "records.json", strings.NewReader(`[{"id":"2","sessionNumber":1,"date":"2024-01-01","groupName":"G"}]`))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Zero(t, store.saves)
}

func TestService_ImportFile(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.ImportFile(ctx, "/does/not/exist.json")
	var re *ReadError
	assert.True(t, errors.As(err, &re))

	_, err = svc.ImportFile(ctx, "/does/not/exist.txt")
	var ufe *UnsupportedFormatError
	assert.True(t, errors.As(err, &ufe))
}

func TestService_ExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	for _, format := range []Format{FormatJSON, FormatCSV} {
		t.Run(string(format), func(t *testing.T) {
			src, _ := newTestService(t, sampleRecords()...)
			exp, err := src.Export(ctx, format)
			require.NoError(t, err)

			dst, store := newTestService(t)
			res, err := dst.Import(ctx, exp.Filename, strings.NewReader(string(exp.Content)))
			require.NoError(t, err)
			assert.Equal(t, 2, res.Imported)

			got, err := store.Load(ctx)
			require.NoError(t, err)
			if diff := cmp.Diff(sampleRecords(), got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, rec("1", "a"))

	_, err := svc.Create(ctx, NewRecord{GroupName: "G"})
	require.Error(t, err)

	r, err := svc.Create(ctx, NewRecord{
		SessionNumber:          2,
		Date:                   " 2024-02-02 ",
		GroupName:              "Grupo C",
		AfterMixedInteractions: 4,
		AfterStereotypes:       "LOW",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, "2024-02-02", r.Date)
	assert.Equal(t, "low", r.AfterStereotypes)

	records, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, r, records[1])
}
