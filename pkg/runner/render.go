package runner

import (
	"fmt"
	"strings"

	"github.com/aretw0/smoc/internal/htmltext"
	"github.com/aretw0/smoc/pkg/domain"
)

// Markdown renders the content of a message in lang. Controls and form fields
// are left out; handlers present them as prompts.
func Markdown(msg domain.NodeMessage, lang domain.Lang) string {
	if msg.ChatMessage == nil {
		return ""
	}

	var blocks []string
	for _, el := range msg.ChatMessage.Content() {
		if b := markdownBlock(el, lang); b != "" {
			blocks = append(blocks, b)
		}
	}
	body := strings.Join(blocks, "\n\n")

	if msg.ChatMessage.Interlocutor() == domain.InterlocutorVisitor && body != "" {
		return "> " + strings.ReplaceAll(body, "\n", "\n> ")
	}
	return body
}

func markdownBlock(el domain.Element, lang domain.Lang) string {
	switch e := el.(type) {
	case domain.Prose:
		return htmltext.ToText(localized(e.Options.Text, lang))
	case domain.Link:
		return fmt.Sprintf("[%s](%s)", localized(e.Options.Text, lang), localized(e.Options.Href, lang))
	case domain.Image:
		return fmt.Sprintf("![%s](%s)", localized(e.Options.Alt, lang), localized(e.Options.URL, lang))
	case domain.OpenGraph:
		var parts []string
		if e.Options.Title != "" {
			parts = append(parts, "**"+e.Options.Title+"**")
		}
		if e.Options.Description != "" {
			parts = append(parts, e.Options.Description)
		}
		if e.Options.URL != "" {
			parts = append(parts, e.Options.URL)
		}
		return strings.Join(parts, "\n")
	case domain.CustomHTML:
		return htmltext.ToText(e.Options.HTML)
	case domain.ThankYou:
		return "*Thank you!*"
	case domain.Party:
		return "🎉"
	}
	return ""
}

func localized(s domain.LangString, lang domain.Lang) string {
	if v, err := s.Value(lang); err == nil {
		return v
	}
	return s.String()
}
