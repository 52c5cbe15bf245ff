package domain

import (
	"encoding/json"
	"fmt"
)

// Interlocutor discriminates who authored a ChatMessage.
type Interlocutor string

const (
	InterlocutorBot     Interlocutor = "bot"
	InterlocutorVisitor Interlocutor = "visitor"
)

type CouponType string

const (
	CouponLink     CouponType = "link"
	CouponCampaign CouponType = "campaign"
)

type Coupon struct {
	Redeemed bool       `json:"redeemed"`
	Type     CouponType `json:"type"`
}

// AdvertisementDetails describes the campaign behind a sponsored message.
type AdvertisementDetails struct {
	AdvertisementBidCents            *int    `json:"advertisement_bid_cents"`
	AdvertisementCategory            *int    `json:"advertisement_category"`
	AdvertisementID                  *int    `json:"advertisement_id"`
	AdvertisementRankingElementID    *int    `json:"advertisement_ranking_element_id"`
	AdvertisementRankingElementTitle *string `json:"advertisement_ranking_element_title"`
	CampaignDescription              *string `json:"campaign_description"`
	CampaignEndDate                  *string `json:"campaign_end_date"`
	CampaignID                       *int    `json:"campaign_id"`
	CampaignStartDate                *string `json:"campaign_start_date"`
	CampaignTitle                    *string `json:"campaign_title"`
}

// MessageMetadata carries optional annotations attached by the service.
type MessageMetadata struct {
	AdvertisementDetails *AdvertisementDetails `json:"advertisementDetails,omitempty"`
	SurveyQuestionID     string                `json:"surveyQuestionId,omitempty"`
	Coupon               *Coupon               `json:"coupon,omitempty"`
}

// ChatMessage is the content of a NodeMessage: either a BotMessage or a VisitorMessage.
type ChatMessage interface {
	Interlocutor() Interlocutor
	// Meta returns the message metadata, nil when absent.
	Meta() *MessageMetadata
	// Content returns the message elements in display order.
	Content() []Element
	isChatMessage()
}

// BotMessage is authored by the conversation service.
type BotMessage struct {
	MessageID string
	Metadata  *MessageMetadata
	Elements  []Element
}

// VisitorMessage echoes something the visitor said. Only prose is allowed.
type VisitorMessage struct {
	Metadata *MessageMetadata
	Elements []Prose
}

func (BotMessage) Interlocutor() Interlocutor     { return InterlocutorBot }
func (VisitorMessage) Interlocutor() Interlocutor { return InterlocutorVisitor }

func (m BotMessage) Meta() *MessageMetadata     { return m.Metadata }
func (m VisitorMessage) Meta() *MessageMetadata { return m.Metadata }

func (m BotMessage) Content() []Element { return m.Elements }

func (m VisitorMessage) Content() []Element {
	out := make([]Element, len(m.Elements))
	for i, p := range m.Elements {
		out[i] = p
	}
	return out
}

func (BotMessage) isChatMessage()     {}
func (VisitorMessage) isChatMessage() {}

// Controls returns the answerable elements of the message.
func (m BotMessage) Controls() []Control {
	return Controls(m.Elements)
}

func (m BotMessage) MarshalJSON() ([]byte, error) {
	elements := m.Elements
	if elements == nil {
		elements = []Element{}
	}
	return json.Marshal(struct {
		Interlocutor Interlocutor     `json:"interlocutor"`
		MessageID    string           `json:"messageId"`
		Metadata     *MessageMetadata `json:"metadata,omitempty"`
		Elements     []Element        `json:"elements"`
	}{InterlocutorBot, m.MessageID, m.Metadata, elements})
}

func (m VisitorMessage) MarshalJSON() ([]byte, error) {
	elements := m.Elements
	if elements == nil {
		elements = []Prose{}
	}
	return json.Marshal(struct {
		Interlocutor Interlocutor     `json:"interlocutor"`
		Metadata     *MessageMetadata `json:"metadata,omitempty"`
		Elements     []Prose          `json:"elements"`
	}{InterlocutorVisitor, m.Metadata, elements})
}

type chatMessageWire struct {
	Interlocutor Interlocutor      `json:"interlocutor"`
	MessageID    string            `json:"messageId"`
	Metadata     *MessageMetadata  `json:"metadata"`
	Elements     []json.RawMessage `json:"elements"`
}

// DecodeChatMessage decodes a wire chat message into a BotMessage or a VisitorMessage.
func DecodeChatMessage(data []byte) (ChatMessage, error) {
	var w chatMessageWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: chat message: %w", ErrInvalidMessage, err)
	}

	elements, err := decodeElements(w.Elements)
	if err != nil {
		return nil, err
	}

	switch w.Interlocutor {
	case InterlocutorBot:
		return BotMessage{MessageID: w.MessageID, Metadata: w.Metadata, Elements: elements}, nil
	case InterlocutorVisitor:
		proses := make([]Prose, 0, len(elements))
		for i, el := range elements {
			p, ok := el.(Prose)
			if !ok {
				return nil, fmt.Errorf("%w: visitor element %d is %s", ErrInvalidMessage, i, el.ElementType())
			}
			proses = append(proses, p)
		}
		return VisitorMessage{Metadata: w.Metadata, Elements: proses}, nil
	default:
		return nil, fmt.Errorf("%w: interlocutor %q", ErrInvalidMessage, w.Interlocutor)
	}
}
