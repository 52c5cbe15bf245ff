package privacy

import (
	"testing"

	"github.com/aretw0/smoc/pkg/client"
	"github.com/aretw0/smoc/pkg/domain"
	"github.com/aretw0/smoc/pkg/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPIIMiddleware(t *testing.T) {
	mw, err := NewPIIMiddleware(DefaultPIIPatterns)
	require.NoError(t, err)

	form := domain.LeadForm{
		domain.FieldEmail:     "ada@example.com",
		domain.FieldFirstName: "Ada",
		domain.FieldCompany:   "Analytical Engines",
	}
	ev := client.CommandEvent(domain.SubmitLeadForm{Form: form})

	masked := mw(ev)
	submit, ok := masked.Command.(domain.SubmitLeadForm)
	require.True(t, ok)
	assert.Equal(t, domain.LeadForm{
		domain.FieldEmail:     Mask,
		domain.FieldFirstName: Mask,
		domain.FieldCompany:   "Analytical Engines",
	}, submit.Form)

	// The original form is left untouched.
	assert.Equal(t, "ada@example.com", form[domain.FieldEmail])
}

func TestPIIMiddleware_OtherEvents(t *testing.T) {
	mw, err := NewPIIMiddleware(DefaultPIIPatterns)
	require.NoError(t, err)

	status := client.StatusEvent(transport.StatusConnected)
	assert.Equal(t, status, mw(status))

	action := client.CommandEvent(domain.PerformAction{NodePath: []string{"root"}})
	assert.Equal(t, action, mw(action))
}

func TestPIIMiddleware_InvalidPattern(t *testing.T) {
	_, err := NewPIIMiddleware([]string{"("})
	assert.Error(t, err)
}

func TestChain(t *testing.T) {
	tag := func(text string) Middleware {
		return func(ev client.Event) client.Event {
			ev.Text += text
			return ev
		}
	}
	out := Chain(tag("a"), nil, tag("b"))(client.SystemEvent(""))
	assert.Equal(t, "ab", out.Text)
}
