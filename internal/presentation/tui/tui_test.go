package tui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/aretw0/smoc/pkg/domain"
	"github.com/aretw0/smoc/pkg/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "1.2.3")
	assert.Contains(t, buf.String(), "v1.2.3")
	assert.Greater(t, strings.Count(buf.String(), "\n"), 5)
}

func TestNewRenderer(t *testing.T) {
	render := NewRenderer(60)
	out, err := render("**Welcome** to the flow")
	require.NoError(t, err)
	assert.Contains(t, out, "Welcome")
}

func TestStatusFormatter(t *testing.T) {
	format := StatusFormatter(domain.Theme{Colors: domain.Colors{"primary": "#112233"}})
	assert.Contains(t, format(transport.StatusConnected), "connected")
	assert.Contains(t, format(transport.StatusConnecting), "connecting")
	assert.Equal(t, "left", format(transport.Status("left")))
}
