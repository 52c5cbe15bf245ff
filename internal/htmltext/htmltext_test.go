package htmltext

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain text is trimmed", in: "  Ada Lovelace ", want: "Ada Lovelace"},
		{name: "inline tags are dropped", in: "<b>Ada</b> <i>Lovelace</i>", want: "Ada Lovelace"},
		{name: "entities are decoded", in: "Fish &amp; Chips", want: "Fish & Chips"},
		{name: "scripts are removed", in: "hi<script>alert(1)</script>", want: "hi"},
		{name: "empty stays empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToText(tt.in))
		})
	}
}

func TestToText_Blocks(t *testing.T) {
	got := ToText("<p>Hello <b>world</b></p><p>Bye</p>")
	assert.Contains(t, got, "Hello world")
	assert.Contains(t, got, "Bye")
	assert.NotContains(t, got, "<")
}
