package domain

// Colors maps theme color slots (e.g. "button-text") to hex codes.
type Colors map[string]string

// Theme describes how the embedding page should style the conversation.
type Theme struct {
	BotImageKey             *string `json:"botImageKey,omitempty"`
	VisitorImageKey         *string `json:"visitorImageKey,omitempty"`
	BackgroundImageKey      *string `json:"backgroundImageKey,omitempty"`
	LogoImageKey            *string `json:"logoImageKey,omitempty"`
	SocialImageKey          *string `json:"socialImageKey,omitempty"`
	BackgroundImagePosition *string `json:"backgroundImagePosition,omitempty"`
	BackgroundType          *string `json:"backgroundType,omitempty"`
	Colors                  Colors  `json:"colors"`
	ForcedLanguage          *Lang   `json:"forcedLanguage,omitempty"`
	OperatorChannelID       int     `json:"operatorChannelId"`
	DefaultCountry          *string `json:"defaultCountry,omitempty"`
	IframeMode              *bool   `json:"iframeMode,omitempty"`
	TransparentMode         *bool   `json:"transparentMode,omitempty"`
	SocialTitle             *string `json:"socialTitle,omitempty"`
	SocialDescription       *string `json:"socialDescription,omitempty"`
	NotificationEmail       *string `json:"notificationEmail,omitempty"`
	HeadTags                *string `json:"headTags,omitempty"`
}

// ConversationDetail identifies a conversation and the visit it belongs to.
// Keys are snake_case on the wire.
type ConversationDetail struct {
	UserID                  string   `json:"user_id"`
	VisitID                 string   `json:"visit_id"`
	ConversationID          string   `json:"conversation_id"`
	InviterUserID           string   `json:"inviter_user_id,omitempty"`
	Lang                    Lang     `json:"lang"`
	AcceptLanguage          string   `json:"accept_language,omitempty"`
	OperatorKey             string   `json:"operator_key"`
	OperatorChannelKey      string   `json:"operator_channel_key"`
	ConversationTemplateKey string   `json:"conversation_template_key"`
	IP                      string   `json:"ip"`
	UserAgent               string   `json:"user_agent"`
	Referrer                *string  `json:"referrer"`
	ReferringDomain         *string  `json:"referring_domain"`
	ConversationURL         string   `json:"conversation_url"`
	Browser                 *string  `json:"browser,omitempty"`
	OS                      *string  `json:"os,omitempty"`
	OSVersion               *string  `json:"os_version"`
	DeviceType              *string  `json:"device_type,omitempty"`
	CountryCode             *string  `json:"country_code"`
	CountryName             *string  `json:"country_name"`
	Latitude                *float64 `json:"latitude"`
	Longitude               *float64 `json:"longitude"`
	Region                  *string  `json:"region"`
	City                    *string  `json:"city"`
	UTMSource               *string  `json:"utm_source"`
	UTMMedium               *string  `json:"utm_medium"`
	UTMTerm                 *string  `json:"utm_term"`
	UTMContent              *string  `json:"utm_content"`
	UTMCampaign             *string  `json:"utm_campaign"`
}
