package evaluation

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/convivencia/core"
)

// Record field names, as they appear in JSON objects and CSV headers.
const (
	FieldID                      = "id"
	FieldSessionNumber           = "sessionNumber"
	FieldDate                    = "date"
	FieldGroupName               = "groupName"
	FieldDuringParticipation     = "duringParticipation"
	FieldBeforeMixedInteractions = "beforeMixedInteractions"
	FieldAfterMixedInteractions  = "afterMixedInteractions"
	FieldBeforeStereotypes       = "beforeStereotypes"
	FieldAfterStereotypes        = "afterStereotypes"
	FieldNotes                   = "notes"
)

// ID is an opaque record identifier. It decodes from a JSON string or a JSON number.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.Wrap(err, "decoding id")
	}
	*id = ID(n.String())
	return nil
}

// Record is a single evaluation of a group session.
type Record struct {
	ID                      ID     `json:"id" validate:"required"`
	SessionNumber           int    `json:"sessionNumber" validate:"required"`
	Date                    string `json:"date" validate:"required"`
	GroupName               string `json:"groupName" validate:"required"`
	DuringParticipation     string `json:"duringParticipation,omitempty"`
	BeforeMixedInteractions int    `json:"beforeMixedInteractions"`
	AfterMixedInteractions  int    `json:"afterMixedInteractions"`
	BeforeStereotypes       string `json:"beforeStereotypes,omitempty"`
	AfterStereotypes        string `json:"afterStereotypes,omitempty"`
	Notes                   string `json:"notes,omitempty"`
}

// Validate runs the required-field check: id, sessionNumber, date and groupName must be set.
func (r Record) Validate(validate *validator.Validate) error {
	return validate.Struct(r)
}

// UnmarshalJSON accepts numeric fields encoded either as JSON numbers or as numeric strings.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID                      ID      `json:"id"`
		SessionNumber           flexInt `json:"sessionNumber"`
		Date                    string  `json:"date"`
		GroupName               string  `json:"groupName"`
		DuringParticipation     string  `json:"duringParticipation"`
		BeforeMixedInteractions flexInt `json:"beforeMixedInteractions"`
		AfterMixedInteractions  flexInt `json:"afterMixedInteractions"`
		BeforeStereotypes       string  `json:"beforeStereotypes"`
		AfterStereotypes        string  `json:"afterStereotypes"`
		Notes                   string  `json:"notes"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = Record{
		ID:                      raw.ID,
		SessionNumber:           int(raw.SessionNumber),
		Date:                    raw.Date,
		GroupName:               raw.GroupName,
		DuringParticipation:     raw.DuringParticipation,
		BeforeMixedInteractions: int(raw.BeforeMixedInteractions),
		AfterMixedInteractions:  int(raw.AfterMixedInteractions),
		BeforeStereotypes:       raw.BeforeStereotypes,
		AfterStereotypes:        raw.AfterStereotypes,
		Notes:                   raw.Notes,
	}
	return nil
}

// fields returns the record's present fields in a stable order.
// Optional text fields are only present when set, matching the JSON encoding.
func (r Record) fields() []field {
	flds := make([]field, 0, 10)
	flds = append(flds,
		field{FieldID, string(r.ID)},
		field{FieldSessionNumber, itoa(r.SessionNumber)},
		field{FieldDate, r.Date},
		field{FieldGroupName, r.GroupName},
	)
	if r.DuringParticipation != "" {
		flds = append(flds, field{FieldDuringParticipation, r.DuringParticipation})
	}
	flds = append(flds,
		field{FieldBeforeMixedInteractions, itoa(r.BeforeMixedInteractions)},
		field{FieldAfterMixedInteractions, itoa(r.AfterMixedInteractions)},
	)
	if r.BeforeStereotypes != "" {
		flds = append(flds, field{FieldBeforeStereotypes, r.BeforeStereotypes})
	}
	if r.AfterStereotypes != "" {
		flds = append(flds, field{FieldAfterStereotypes, r.AfterStereotypes})
	}
	if r.Notes != "" {
		flds = append(flds, field{FieldNotes, r.Notes})
	}
	return flds
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"}

// Day returns the `YYYY-MM-DD` (UTC) day of the record's date, or "" if it cannot be parsed.
func (r Record) Day() string {
	date := strings.TrimSpace(r.Date)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, date); err == nil {
			return core.ISODate(t)
		}
	}
	return ""
}

type field struct {
	key   string
	value string
}

// flexInt decodes from a JSON number, a numeric string or null.
type flexInt int

func (fi *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	text := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
	}
	n, err := ParseOptionalInt(text, 0)
	if err != nil {
		return err
	}
	*fi = flexInt(n)
	return nil
}

// NewRecord contains information needed to create a new Record.
type NewRecord struct {
	SessionNumber           int    `json:"sessionNumber" validate:"required,min=1"`
	Date                    string `json:"date" validate:"required"`
	GroupName               string `json:"groupName" validate:"required,max=255"`
	DuringParticipation     string `json:"duringParticipation" validate:"omitempty,max=50"`
	BeforeMixedInteractions int    `json:"beforeMixedInteractions" validate:"min=0"`
	AfterMixedInteractions  int    `json:"afterMixedInteractions" validate:"min=0"`
	BeforeStereotypes       string `json:"beforeStereotypes" validate:"omitempty,oneof=low medium high"`
	AfterStereotypes        string `json:"afterStereotypes" validate:"omitempty,oneof=low medium high"`
	Notes                   string `json:"notes"`
}

func (nr *NewRecord) Validate(validate *validator.Validate) error {
	nr.Date = core.CleanString(nr.Date)
	nr.GroupName = core.CleanString(nr.GroupName)
	nr.DuringParticipation = core.CleanString(nr.DuringParticipation)
	nr.BeforeStereotypes = core.CleanString(nr.BeforeStereotypes, true /* lower */)
	nr.AfterStereotypes = core.CleanString(nr.AfterStereotypes, true /* lower */)
	nr.Notes = core.CleanString(nr.Notes)
	return validate.Struct(nr)
}
