package domain

import (
	"encoding/json"
	"fmt"
)

// ElementType discriminates the Element variants on the wire.
type ElementType string

const (
	ElementDecision         ElementType = "decision"
	ElementMultiArmedBandit ElementType = "multi-armed-bandit"
	ElementImage            ElementType = "image"
	ElementProse            ElementType = "prose"
	ElementPoweredBy        ElementType = "powered-by"
	ElementButton           ElementType = "button"
	ElementRadio            ElementType = "radio"
	ElementLink             ElementType = "link"
	ElementOpenGraph        ElementType = "open-graph"
	ElementInput            ElementType = "input"
	ElementCheckbox         ElementType = "checkbox"
	ElementFreeText         ElementType = "free-text"
	ElementCustomHTML       ElementType = "custom-html"
	ElementParty            ElementType = "party"
	ElementThankYou         ElementType = "thank-you"
)

// Element is a renderable piece of a bot message.
// The set of implementations is closed; use a type switch to handle them.
type Element interface {
	ElementType() ElementType
	isElement()
}

// Control is an element the visitor can answer by choosing it.
type Control interface {
	Element
	Control() ControlOptions
}

type ImageSize string

const (
	ImageSmall  ImageSize = "small"
	ImageMedium ImageSize = "medium"
	ImageLarge  ImageSize = "large"
)

type InputType string

const (
	InputText     InputType = "text"
	InputEmail    InputType = "email"
	InputTel      InputType = "tel"
	InputCheckbox InputType = "checkbox"
)

type FreeTextType string

const (
	FreeTextInput    FreeTextType = "input"
	FreeTextTextArea FreeTextType = "text-area"
)

type ProseOptions struct {
	Text     LangString `json:"text"`
	Editable bool       `json:"editable,omitempty"`
}

// ControlOptions are shared by buttons and radios.
type ControlOptions struct {
	Text                LangString `json:"text"`
	Disabled            bool       `json:"disabled,omitempty"`
	SurveyAnswerID      string     `json:"surveyAnswerId,omitempty"`
	ApprovalAnswerID    string     `json:"approvalAnswerId,omitempty"`
	Editable            bool       `json:"editable,omitempty"`
	Bold                bool       `json:"bold,omitempty"`
	SurveyQuestionTitle string     `json:"surveyQuestionTitle,omitempty"`
	ChosenAnswerTitle   string     `json:"chosenAnswerTitle,omitempty"`
}

type LinkOptions struct {
	Text     LangString `json:"text"`
	Href     LangString `json:"href"`
	Editable bool       `json:"editable,omitempty"`
}

type ImageOptions struct {
	URL  LangString `json:"url"`
	Alt  LangString `json:"alt"`
	Size ImageSize  `json:"size"`
}

type MultiArmedBanditOptions struct {
	ArmCount int `json:"armCount"`
}

type OpenGraphMedia struct {
	URL       string `json:"url"`
	SecureURL string `json:"secureUrl,omitempty"`
	Type      string `json:"type,omitempty"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
	Alt       string `json:"alt,omitempty"`
}

type OpenGraphOptions struct {
	Style       string           `json:"style"`
	Title       string           `json:"title,omitempty"`
	Type        string           `json:"type,omitempty"`
	URL         string           `json:"url,omitempty"`
	Description string           `json:"description,omitempty"`
	SiteName    string           `json:"siteName,omitempty"`
	Images      []OpenGraphMedia `json:"images,omitempty"`
	Videos      []OpenGraphMedia `json:"videos,omitempty"`
	Audios      []OpenGraphMedia `json:"audios,omitempty"`
}

type InputOptions struct {
	Value       string     `json:"value"`
	Type        InputType  `json:"type"`
	Label       LangString `json:"label"`
	Name        string     `json:"name"`
	Required    bool       `json:"required,omitempty"`
	Disabled    bool       `json:"disabled,omitempty"`
	Placeholder bool       `json:"placeholder,omitempty"`
}

type CheckboxOptions struct {
	Type        InputType  `json:"type"`
	Label       LangString `json:"label"`
	Title       LangString `json:"title,omitempty"`
	Name        string     `json:"name"`
	Required    bool       `json:"required,omitempty"`
	Disabled    bool       `json:"disabled,omitempty"`
	Placeholder LangString `json:"placeholder,omitempty"`
	Href        string     `json:"href,omitempty"`
	Checked     bool       `json:"checked,omitempty"`
}

type FreeTextOptions struct {
	Value       string       `json:"value"`
	Type        FreeTextType `json:"type"`
	Label       LangString   `json:"label"`
	Name        string       `json:"name"`
	Placeholder LangString   `json:"placeholder,omitempty"`
	Required    bool         `json:"required,omitempty"`
	Disabled    bool         `json:"disabled,omitempty"`
}

type CustomHTMLOptions struct {
	HTML string `json:"html"`
}

type emptyOptions struct{}

type Decision struct {
	Expression string
}

type MultiArmedBandit struct {
	Expression string
	Options    MultiArmedBanditOptions
}

type Image struct {
	Expression string
	Options    ImageOptions
}

type Prose struct {
	Expression string
	Options    ProseOptions
}

type PoweredBy struct {
	Expression string
}

type Button struct {
	Expression string
	Options    ControlOptions
}

type Radio struct {
	Expression string
	Options    ControlOptions
}

type Link struct {
	Expression string
	Options    LinkOptions
}

type OpenGraph struct {
	Expression string
	Options    OpenGraphOptions
}

type Input struct {
	Expression string
	Options    InputOptions
}

type Checkbox struct {
	Expression string
	Options    CheckboxOptions
}

type FreeText struct {
	Expression string
	Options    FreeTextOptions
}

type CustomHTML struct {
	Expression string
	Options    CustomHTMLOptions
}

type Party struct {
	Expression string
}

type ThankYou struct {
	Expression string
}

func (Decision) ElementType() ElementType         { return ElementDecision }
func (MultiArmedBandit) ElementType() ElementType { return ElementMultiArmedBandit }
func (Image) ElementType() ElementType            { return ElementImage }
func (Prose) ElementType() ElementType            { return ElementProse }
func (PoweredBy) ElementType() ElementType        { return ElementPoweredBy }
func (Button) ElementType() ElementType           { return ElementButton }
func (Radio) ElementType() ElementType            { return ElementRadio }
func (Link) ElementType() ElementType             { return ElementLink }
func (OpenGraph) ElementType() ElementType        { return ElementOpenGraph }
func (Input) ElementType() ElementType            { return ElementInput }
func (Checkbox) ElementType() ElementType         { return ElementCheckbox }
func (FreeText) ElementType() ElementType         { return ElementFreeText }
func (CustomHTML) ElementType() ElementType       { return ElementCustomHTML }
func (Party) ElementType() ElementType            { return ElementParty }
func (ThankYou) ElementType() ElementType         { return ElementThankYou }

func (Decision) isElement()         {}
func (MultiArmedBandit) isElement() {}
func (Image) isElement()            {}
func (Prose) isElement()            {}
func (PoweredBy) isElement()        {}
func (Button) isElement()           {}
func (Radio) isElement()            {}
func (Link) isElement()             {}
func (OpenGraph) isElement()        {}
func (Input) isElement()            {}
func (Checkbox) isElement()         {}
func (FreeText) isElement()         {}
func (CustomHTML) isElement()       {}
func (Party) isElement()            {}
func (ThankYou) isElement()         {}

func (b Button) Control() ControlOptions { return b.Options }
func (r Radio) Control() ControlOptions  { return r.Options }

type elementEnvelope struct {
	Type       ElementType     `json:"type"`
	Expression string          `json:"expression,omitempty"`
	Options    json.RawMessage `json:"options,omitempty"`
}

func marshalElement(t ElementType, expression string, options any) ([]byte, error) {
	return json.Marshal(struct {
		Type       ElementType `json:"type"`
		Expression string      `json:"expression,omitempty"`
		Options    any         `json:"options"`
	}{t, expression, options})
}

func (e Decision) MarshalJSON() ([]byte, error) {
	return marshalElement(ElementDecision, e.Expression, emptyOptions{})
}

func (e MultiArmedBandit) MarshalJSON() ([]byte, error) {
	return marshalElement(ElementMultiArmedBandit, e.Expression, e.Options)
}

func (e Image) MarshalJSON() ([]byte, error) {
	return marshalElement(ElementImage, e.Expression, e.Options)
}

func (e Prose) MarshalJSON() ([]byte, error) {
	return marshalElement(ElementProse, e.Expression, e.Options)
}

func (e PoweredBy) MarshalJSON() ([]byte, error) {
	return marshalElement(ElementPoweredBy, e.Expression, emptyOptions{})
}

func (e Button) MarshalJSON() ([]byte, error) {
	return marshalElement(ElementButton, e.Expression, e.Options)
}

func (e Radio) MarshalJSON() ([]byte, error) {
	return marshalElement(ElementRadio, e.Expression, e.Options)
}

func (e Link) MarshalJSON() ([]byte, error) {
	return marshalElement(ElementLink, e.Expression, e.Options)
}

func (e OpenGraph) MarshalJSON() ([]byte, error) {
	return marshalElement(ElementOpenGraph, e.Expression, e.Options)
}

func (e Input) MarshalJSON() ([]byte, error) {
	return marshalElement(ElementInput, e.Expression, e.Options)
}

func (e Checkbox) MarshalJSON() ([]byte, error) {
	return marshalElement(ElementCheckbox, e.Expression, e.Options)
}

func (e FreeText) MarshalJSON() ([]byte, error) {
	return marshalElement(ElementFreeText, e.Expression, e.Options)
}

func (e CustomHTML) MarshalJSON() ([]byte, error) {
	return marshalElement(ElementCustomHTML, e.Expression, e.Options)
}

func (e Party) MarshalJSON() ([]byte, error) {
	return marshalElement(ElementParty, e.Expression, emptyOptions{})
}

func (e ThankYou) MarshalJSON() ([]byte, error) {
	return marshalElement(ElementThankYou, e.Expression, emptyOptions{})
}

// DecodeElement decodes one wire element into its concrete variant.
func DecodeElement(data []byte) (Element, error) {
	var env elementEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: element: %w", ErrInvalidMessage, err)
	}

	switch env.Type {
	case ElementDecision:
		return Decision{Expression: env.Expression}, nil
	case ElementPoweredBy:
		return PoweredBy{Expression: env.Expression}, nil
	case ElementParty:
		return Party{Expression: env.Expression}, nil
	case ElementThankYou:
		return ThankYou{Expression: env.Expression}, nil
	case ElementMultiArmedBandit:
		var o MultiArmedBanditOptions
		if err := decodeOptions(env, &o); err != nil {
			return nil, err
		}
		return MultiArmedBandit{Expression: env.Expression, Options: o}, nil
	case ElementImage:
		var o ImageOptions
		if err := decodeOptions(env, &o); err != nil {
			return nil, err
		}
		switch o.Size {
		case ImageSmall, ImageMedium, ImageLarge:
		default:
			return nil, fmt.Errorf("%w: image size %q", ErrInvalidMessage, o.Size)
		}
		return Image{Expression: env.Expression, Options: o}, nil
	case ElementProse:
		var o ProseOptions
		if err := decodeOptions(env, &o); err != nil {
			return nil, err
		}
		return Prose{Expression: env.Expression, Options: o}, nil
	case ElementButton:
		var o ControlOptions
		if err := decodeOptions(env, &o); err != nil {
			return nil, err
		}
		return Button{Expression: env.Expression, Options: o}, nil
	case ElementRadio:
		var o ControlOptions
		if err := decodeOptions(env, &o); err != nil {
			return nil, err
		}
		return Radio{Expression: env.Expression, Options: o}, nil
	case ElementLink:
		var o LinkOptions
		if err := decodeOptions(env, &o); err != nil {
			return nil, err
		}
		return Link{Expression: env.Expression, Options: o}, nil
	case ElementOpenGraph:
		var o OpenGraphOptions
		if err := decodeOptions(env, &o); err != nil {
			return nil, err
		}
		if o.Style != "small" && o.Style != "large" {
			return nil, fmt.Errorf("%w: open-graph style %q", ErrInvalidMessage, o.Style)
		}
		return OpenGraph{Expression: env.Expression, Options: o}, nil
	case ElementInput:
		var o InputOptions
		if err := decodeOptions(env, &o); err != nil {
			return nil, err
		}
		if err := validateInputType(o.Type); err != nil {
			return nil, err
		}
		return Input{Expression: env.Expression, Options: o}, nil
	case ElementCheckbox:
		var o CheckboxOptions
		if err := decodeOptions(env, &o); err != nil {
			return nil, err
		}
		if err := validateInputType(o.Type); err != nil {
			return nil, err
		}
		return Checkbox{Expression: env.Expression, Options: o}, nil
	case ElementFreeText:
		var o FreeTextOptions
		if err := decodeOptions(env, &o); err != nil {
			return nil, err
		}
		if o.Type != FreeTextInput && o.Type != FreeTextTextArea {
			return nil, fmt.Errorf("%w: free-text type %q", ErrInvalidMessage, o.Type)
		}
		return FreeText{Expression: env.Expression, Options: o}, nil
	case ElementCustomHTML:
		var o CustomHTMLOptions
		if err := decodeOptions(env, &o); err != nil {
			return nil, err
		}
		return CustomHTML{Expression: env.Expression, Options: o}, nil
	case "":
		return nil, fmt.Errorf("%w: element without type", ErrInvalidMessage)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownElement, env.Type)
	}
}

func decodeOptions(env elementEnvelope, dst any) error {
	if len(env.Options) == 0 {
		return fmt.Errorf("%w: %s element without options", ErrInvalidMessage, env.Type)
	}
	if err := json.Unmarshal(env.Options, dst); err != nil {
		return fmt.Errorf("%w: %s options: %w", ErrInvalidMessage, env.Type, err)
	}
	return nil
}

func validateInputType(t InputType) error {
	switch t {
	case InputText, InputEmail, InputTel, InputCheckbox:
		return nil
	}
	return fmt.Errorf("%w: input type %q", ErrInvalidMessage, t)
}

func decodeElements(raw []json.RawMessage) ([]Element, error) {
	out := make([]Element, 0, len(raw))
	for i, r := range raw {
		el, err := DecodeElement(r)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, el)
	}
	return out, nil
}

// Controls returns the buttons and radios among elements.
func Controls(elements []Element) []Control {
	var out []Control
	for _, el := range elements {
		if c, ok := el.(Control); ok {
			out = append(out, c)
		}
	}
	return out
}

// Proses returns the prose elements among elements.
func Proses(elements []Element) []Prose {
	var out []Prose
	for _, el := range elements {
		if p, ok := el.(Prose); ok {
			out = append(out, p)
		}
	}
	return out
}
