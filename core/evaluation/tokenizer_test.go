package evaluation

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestSplitLine(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		delim byte
		want  []string
	}{
		{name: "quoted fields", line: `a,"b,c","d""e",f`, delim: ',', want: []string{"a", "b,c", `d"e`, "f"}},
		{name: "empty line", line: "", delim: ',', want: []string{""}},
		{name: "trailing delimiter", line: "a,b,", delim: ',', want: []string{"a", "b", ""}},
		{name: "fields are trimmed", line: "  a , b\t,c \r", delim: ',', want: []string{"a", "b", "c"}},
		{name: "unterminated quote", line: `a,"b,c`, delim: ',', want: []string{"a", "b,c"}},
		{name: "escaped quote outside quotes toggles", line: `a""b`, delim: ',', want: []string{"ab"}},
		{name: "other delimiter", line: `x;"y;z";w`, delim: ';', want: []string{"x", "y;z", "w"}},
		{name: "multibyte", line: `é,"ñ,ü"`, delim: ',', want: []string{"é", "ñ,ü"}},
		{name: "invalid utf-8 kept", line: "a\xff\xfe,\"b\xc3\",c", delim: ',', want: []string{"a\xff\xfe", "b\xc3", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitLine(tt.line, tt.delim))
		})
	}
}

func TestParseOptionalInt(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		def     int
		want    int
		wantErr bool
	}{
		{name: "blank uses default", text: "  ", def: 7, want: 7},
		{name: "number", text: "42", want: 42},
		{name: "padded number", text: " 3 ", want: 3},
		{name: "negative", text: "-2", want: -2},
		{name: "not a number", text: "abc", wantErr: true},
		{name: "decimal", text: "1.5", wantErr: true},
		{name: "trailing garbage", text: "12abc", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOptionalInt(tt.text, tt.def)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidNumber), "got err %v", err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuoteField(t *testing.T) {
	assert.Equal(t, "plain", quoteField("plain"))
	assert.Equal(t, `"a,b"`, quoteField("a,b"))
	assert.Equal(t, `"say ""hi"""`, quoteField(`say "hi"`))
}
