// Package privacy masks visitor contact details in conversation events
// before they leave the process.
package privacy

import (
	"fmt"
	"regexp"

	"github.com/aretw0/smoc/pkg/client"
	"github.com/aretw0/smoc/pkg/domain"
)

// Mask replaces a masked value.
const Mask = "***"

// DefaultPIIPatterns match the lead form fields that identify a person.
var DefaultPIIPatterns = []string{
	`^(first|last)_name$`,
	`^phone_number$`,
	`^email$`,
	`^id$`,
	`^(street|city|zip|state)$`,
}

// Middleware rewrites an event on its way out.
type Middleware func(client.Event) client.Event

// Chain applies middlewares in order.
func Chain(mws ...Middleware) Middleware {
	return func(ev client.Event) client.Event {
		for _, mw := range mws {
			if mw != nil {
				ev = mw(ev)
			}
		}
		return ev
	}
}

// NewPIIMiddleware masks the values of lead form fields whose name matches
// one of the patterns. The event given is never modified.
func NewPIIMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid pii pattern %q: %w", p, err)
		}
		patterns[i] = re
	}

	return func(ev client.Event) client.Event {
		submit, ok := ev.Command.(domain.SubmitLeadForm)
		if !ok {
			return ev
		}
		ev.Command = domain.SubmitLeadForm{Form: maskForm(submit.Form, patterns)}
		return ev
	}, nil
}

func maskForm(form domain.LeadForm, patterns []*regexp.Regexp) domain.LeadForm {
	out := make(domain.LeadForm, len(form))
	for field, v := range form {
		out[field] = v
		for _, p := range patterns {
			if p.MatchString(string(field)) {
				out[field] = Mask
				break
			}
		}
	}
	return out
}
