package teams

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Activity types delivered to the messaging endpoint.
const (
	ActivityMessage            = "message"
	ActivityInvoke             = "invoke"
	ActivityTyping             = "typing"
	ActivityConversationUpdate = "conversationUpdate"
)

// AdaptiveCardContentType is the attachment content type for Adaptive Cards.
const AdaptiveCardContentType = "application/vnd.microsoft.card.adaptive"

// ChannelAccount identifies a user or bot in a conversation.
type ChannelAccount struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	AADObjectID string `json:"aadObjectId,omitempty"`
	Email       string `json:"email,omitempty"`
}

// ConversationAccount identifies the conversation an activity belongs to.
type ConversationAccount struct {
	ID               string `json:"id"`
	Name             string `json:"name,omitempty"`
	ConversationType string `json:"conversationType,omitempty"`
	TenantID         string `json:"tenantId,omitempty"`
}

// Attachment carries rich content, typically an Adaptive Card.
type Attachment struct {
	ContentType string `json:"contentType"`
	Content     any    `json:"content,omitempty"`
}

// Activity is a Bot Framework activity as posted by the Teams service.
type Activity struct {
	Type         string               `json:"type"`
	ID           string               `json:"id,omitempty"`
	Timestamp    string               `json:"timestamp,omitempty"`
	ServiceURL   string               `json:"serviceUrl,omitempty"`
	ChannelID    string               `json:"channelId,omitempty"`
	From         *ChannelAccount      `json:"from,omitempty"`
	Recipient    *ChannelAccount      `json:"recipient,omitempty"`
	Conversation *ConversationAccount `json:"conversation,omitempty"`
	Text         string               `json:"text,omitempty"`
	Name         string               `json:"name,omitempty"` // invoke action name
	Value        json.RawMessage      `json:"value,omitempty"`
	ReplyToID    string               `json:"replyToId,omitempty"`
	Attachments  []Attachment         `json:"attachments,omitempty"`
	MembersAdded []ChannelAccount     `json:"membersAdded,omitempty"`
}

// ConversationRef is the minimal state needed to message a conversation
// later, outside the lifetime of the inbound request.
type ConversationRef struct {
	ActivityID   string              `json:"activityId,omitempty"`
	User         ChannelAccount      `json:"user"`
	Bot          ChannelAccount      `json:"bot"`
	Conversation ConversationAccount `json:"conversation"`
	ChannelID    string              `json:"channelId"`
	ServiceURL   string              `json:"serviceUrl"`
}

// Reference extracts a ConversationRef from an inbound activity.
func (a *Activity) Reference() ConversationRef {
	ref := ConversationRef{
		ActivityID: a.ID,
		ChannelID:  "msteams",
		ServiceURL: a.ServiceURL,
	}
	if a.From != nil {
		ref.User = *a.From
	}
	if a.Recipient != nil {
		ref.Bot = *a.Recipient
	}
	if a.Conversation != nil {
		ref.Conversation = *a.Conversation
	}
	return ref
}

// UserEmail returns the best available address for the sender. Teams puts
// the UPN in the name field for most tenants; when it carries only a
// display name, the email field is filled from a roster lookup first.
func (a *Activity) UserEmail() string {
	if a.From == nil {
		return ""
	}
	if a.From.Email != "" {
		return a.From.Email
	}
	if strings.Contains(a.From.Name, "@") {
		return a.From.Name
	}
	if a.From.AADObjectID != "" {
		return a.From.AADObjectID
	}
	return a.From.ID
}

var mentionPattern = regexp.MustCompile(`<at>.*?</at>`)

// CleanText strips bot mentions and surrounding whitespace from the
// activity text.
func (a *Activity) CleanText() string {
	return strings.TrimSpace(mentionPattern.ReplaceAllString(a.Text, ""))
}
