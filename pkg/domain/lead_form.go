package domain

import (
	"fmt"
	"strings"

	"github.com/aretw0/smoc/internal/htmltext"
)

// FormField names a lead form field.
type FormField string

const (
	FieldFirstName     FormField = "first_name"
	FieldLastName      FormField = "last_name"
	FieldPhoneNumber   FormField = "phone_number"
	FieldEmail         FormField = "email"
	FieldCompany       FormField = "company"
	FieldID            FormField = "id"
	FieldStreet        FormField = "street"
	FieldCity          FormField = "city"
	FieldZip           FormField = "zip"
	FieldState         FormField = "state"
	FieldContract      FormField = "contract"
	FieldCommunication FormField = "communication"
	FieldFreeTextInput FormField = "free_text_input"
)

// FormFields lists every field accepted in a lead form.
var FormFields = []FormField{
	FieldFirstName,
	FieldLastName,
	FieldPhoneNumber,
	FieldEmail,
	FieldCompany,
	FieldID,
	FieldStreet,
	FieldCity,
	FieldZip,
	FieldState,
	FieldContract,
	FieldCommunication,
	FieldFreeTextInput,
}

// ToFormField maps an input name to a FormField, ignoring case and surrounding space.
func ToFormField(name string) (FormField, bool) {
	f := FormField(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range FormFields {
		if f == known {
			return f, true
		}
	}
	return "", false
}

// LeadForm holds the visitor's contact details.
type LeadForm map[FormField]string

// NewLeadForm builds a LeadForm from named values. Names that are not lead form
// fields and blank values are dropped; values are reduced to plain text.
// It reports false when no field remains.
func NewLeadForm(values map[string]string) (LeadForm, bool) {
	form := LeadForm{}
	for name, v := range values {
		f, ok := ToFormField(name)
		if !ok {
			continue
		}
		text := htmltext.ToText(v)
		if text == "" {
			continue
		}
		form[f] = text
	}
	if len(form) == 0 {
		return nil, false
	}
	return form, true
}

// Validate checks that the form is non-empty and only carries known fields.
func (f LeadForm) Validate() error {
	if len(f) == 0 {
		return fmt.Errorf("empty lead form")
	}
	for field := range f {
		if _, ok := ToFormField(string(field)); !ok || string(field) != strings.ToLower(string(field)) {
			return fmt.Errorf("unknown lead form field %q", field)
		}
	}
	return nil
}
