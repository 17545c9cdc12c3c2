package zerobounce

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

type param struct {
	name  string
	value any // string, int, bool or nil
}

// ParamSet is an ordered bag of request parameters. Serialization follows
// insertion order so that equal sets always produce equal fingerprints.
// A nil value marks the field as absent.
type ParamSet struct {
	fields []param
}

// NewParamSet creates an empty parameter set.
func NewParamSet() *ParamSet {
	return &ParamSet{}
}

// Set assigns a value, keeping the field's original position when it already exists.
// Supported values are string, int, bool and nil.
func (p *ParamSet) Set(name string, value any) *ParamSet {
	value = normalizeParamValue(value)
	for i := range p.fields {
		if p.fields[i].name == name {
			p.fields[i].value = value
			return p
		}
	}
	p.fields = append(p.fields, param{name: name, value: value})
	return p
}

// Get returns the value of a field and whether it is present and non-nil.
func (p *ParamSet) Get(name string) (any, bool) {
	if p == nil {
		return nil, false
	}
	for _, f := range p.fields {
		if f.name == name {
			return f.value, f.value != nil
		}
	}
	return nil, false
}

// Len returns the number of declared fields, including absent ones.
func (p *ParamSet) Len() int {
	if p == nil {
		return 0
	}
	return len(p.fields)
}

// RequireFields fails with a ParameterError for the first named field that is absent.
func (p *ParamSet) RequireFields(names ...string) error {
	for _, name := range names {
		if _, ok := p.Get(name); !ok {
			return requiredParam(name)
		}
	}
	return nil
}

// QueryString returns "k=v&..." for every non-nil field in declaration order.
func (p *ParamSet) QueryString() string {
	if p == nil {
		return ""
	}
	var b strings.Builder
	for _, f := range p.fields {
		if f.value == nil {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(f.name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(formatParamValue(f.value)))
	}
	return b.String()
}

// FieldMap returns the non-nil fields as a flat map for multipart form encoding.
func (p *ParamSet) FieldMap() map[string]string {
	out := make(map[string]string, p.Len())
	if p == nil {
		return out
	}
	for _, f := range p.fields {
		if f.value == nil {
			continue
		}
		out[f.name] = formatParamValue(f.value)
	}
	return out
}

// pairs returns the canonical [name, value] list used by fingerprints.
func (p *ParamSet) pairs() [][2]any {
	if p == nil {
		return nil
	}
	out := make([][2]any, 0, len(p.fields))
	for _, f := range p.fields {
		out = append(out, [2]any{f.name, f.value})
	}
	return out
}

func normalizeParamValue(v any) any {
	switch t := v.(type) {
	case nil, string, int, bool:
		return t
	case *string:
		if t == nil {
			return nil
		}
		return *t
	case *int:
		if t == nil {
			return nil
		}
		return *t
	case *bool:
		if t == nil {
			return nil
		}
		return *t
	case int64:
		return int(t)
	case int32:
		return int(t)
	default:
		return fmt.Sprint(t)
	}
}

func formatParamValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case bool:
		if t {
			return "1"
		}
		return "0"
	default:
		return ""
	}
}

func validateParams(email, ip any) *ParamSet {
	return NewParamSet().
		Set("email", email).
		Set("ip_address", ip)
}

func usageParams(start, end string) *ParamSet {
	return NewParamSet().
		Set("start_date", start).
		Set("end_date", end)
}

func fileParams(fileID string) *ParamSet {
	var id any
	if fileID != "" {
		id = fileID
	}
	return NewParamSet().Set("file_id", id)
}

// BulkSendFileParams describes the columns of an uploaded list.
// Column indexes start from 1 and nil fields are not sent.
// EmailAddressColumn is required; ReturnURL is called back when processing completes.
type BulkSendFileParams struct {
	ReturnURL          *string `validate:"omitempty,url"`
	EmailAddressColumn *int    `validate:"omitempty,min=1"`
	HasHeaderRow       *bool
	FirstNameColumn    *int `validate:"omitempty,min=1"`
	LastNameColumn     *int `validate:"omitempty,min=1"`
	GenderColumn       *int `validate:"omitempty,min=1"`
	IPAddressColumn    *int `validate:"omitempty,min=1"`
}

var (
	paramValidator     *validator.Validate
	paramValidatorOnce sync.Once
)

func getParamValidator() *validator.Validate {
	paramValidatorOnce.Do(func() {
		paramValidator = validator.New(validator.WithRequiredStructEnabled())
	})
	return paramValidator
}

// Validate checks field formats. Required fields are checked separately by the client.
func (p BulkSendFileParams) Validate() error {
	if err := getParamValidator().Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return &ParameterError{
				Field:  bulkParamNames[fe.Field()],
				Reason: "failed " + fe.Tag() + " check",
				Err:    err,
			}
		}
		return &ParameterError{Reason: "invalid bulk parameters", Err: err}
	}
	return nil
}

var bulkParamNames = map[string]string{
	"ReturnURL":          "return_url",
	"EmailAddressColumn": "email_address_column",
	"FirstNameColumn":    "first_name_column",
	"LastNameColumn":     "last_name_column",
	"GenderColumn":       "gender_column",
	"IPAddressColumn":    "ip_address_column",
}

func (p BulkSendFileParams) paramSet() *ParamSet {
	return NewParamSet().
		Set("return_url", p.ReturnURL).
		Set("email_address_column", p.EmailAddressColumn).
		Set("has_header_row", p.HasHeaderRow).
		Set("first_name_column", p.FirstNameColumn).
		Set("last_name_column", p.LastNameColumn).
		Set("gender_column", p.GenderColumn).
		Set("ip_address_column", p.IPAddressColumn)
}

// Int returns a pointer to v, for optional parameter fields.
func Int(v int) *int { return &v }

// Bool returns a pointer to v, for optional parameter fields.
func Bool(v bool) *bool { return &v }

// String returns a pointer to v, for optional parameter fields.
func String(v string) *string { return &v }
