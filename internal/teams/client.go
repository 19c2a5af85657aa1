package teams

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"deskbot/internal/config"
)

const (
	defaultServiceURL = "https://smba.trafficmanager.net/amer/"
	botScope          = "https://api.botframework.com/.default"
	apiTimeout        = 15 * time.Second
	maxResponseSize   = 64 * 1024
)

// Client sends activities back through the Bot Framework connector.
type Client struct {
	appID      string
	appSecret  string
	tenantID   string
	serviceURL string
	loginURL   string // override for testing
	httpClient *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewClient builds a connector client from config.
func NewClient(cfg config.TeamsConfig) *Client {
	serviceURL := cfg.ServiceURL
	if serviceURL == "" {
		serviceURL = defaultServiceURL
	}
	return &Client{
		appID:      cfg.AppID,
		appSecret:  cfg.AppSecret,
		tenantID:   cfg.TenantID,
		serviceURL: serviceURL,
		httpClient: &http.Client{Timeout: apiTimeout},
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// authToken returns a cached client-credentials token, refreshing it a
// minute before expiry.
func (c *Client) authToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	tokenURL := c.loginURL
	if tokenURL == "" {
		tokenURL = fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", c.tenantID)
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.appID},
		"client_secret": {c.appSecret},
		"scope":         {botScope},
	}

	req, err := http.NewRequestWithContext(ctx, "POST", tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned status %d: %.200s", resp.StatusCode, string(body))
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", fmt.Errorf("unmarshal token response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned no access token")
	}

	expiresIn := tok.ExpiresIn
	if expiresIn == 0 {
		expiresIn = 3600
	}
	c.token = tok.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(expiresIn-60) * time.Second)
	return c.token, nil
}

// CheckAuth verifies the Bot Framework credentials by fetching a token.
func (c *Client) CheckAuth(ctx context.Context) error {
	_, err := c.authToken(ctx)
	return err
}

// ReplyText sends a plain-text reply to the inbound activity.
func (c *Client) ReplyText(ctx context.Context, inbound *Activity, text string) error {
	reply := c.replyEnvelope(inbound)
	reply.Text = text
	return c.postReply(ctx, inbound, reply)
}

// ReplyCard sends an Adaptive Card reply to the inbound activity.
func (c *Client) ReplyCard(ctx context.Context, inbound *Activity, card any) error {
	reply := c.replyEnvelope(inbound)
	reply.Attachments = []Attachment{{ContentType: AdaptiveCardContentType, Content: card}}
	return c.postReply(ctx, inbound, reply)
}

// UpdateCard replaces the card on the activity the user interacted with.
func (c *Client) UpdateCard(ctx context.Context, inbound *Activity, card any) error {
	activityID := inbound.ReplyToID
	if activityID == "" {
		activityID = inbound.ID
	}
	target := fmt.Sprintf("%sv3/conversations/%s/activities/%s",
		c.serviceBase(inbound), conversationID(inbound), activityID)

	updated := &Activity{
		Type:        ActivityMessage,
		Attachments: []Attachment{{ContentType: AdaptiveCardContentType, Content: card}},
	}
	return c.send(ctx, "PUT", target, updated)
}

// Typing sends a typing indicator to the inbound conversation.
func (c *Client) Typing(ctx context.Context, inbound *Activity) error {
	target := fmt.Sprintf("%sv3/conversations/%s/activities",
		c.serviceBase(inbound), conversationID(inbound))
	typing := &Activity{Type: ActivityTyping, From: inbound.Recipient}
	return c.send(ctx, "POST", target, typing)
}

// SendProactiveText messages a conversation from a stored reference.
func (c *Client) SendProactiveText(ctx context.Context, ref ConversationRef, text string) error {
	return c.sendProactive(ctx, ref, &Activity{
		Type:         ActivityMessage,
		From:         &ref.Bot,
		Conversation: &ref.Conversation,
		Recipient:    &ref.User,
		Text:         text,
	})
}

// SendProactiveCard sends an Adaptive Card to a conversation from a
// stored reference.
func (c *Client) SendProactiveCard(ctx context.Context, ref ConversationRef, card any) error {
	return c.sendProactive(ctx, ref, &Activity{
		Type:         ActivityMessage,
		From:         &ref.Bot,
		Conversation: &ref.Conversation,
		Recipient:    &ref.User,
		Attachments:  []Attachment{{ContentType: AdaptiveCardContentType, Content: card}},
	})
}

func (c *Client) sendProactive(ctx context.Context, ref ConversationRef, activity *Activity) error {
	serviceURL := ref.ServiceURL
	if serviceURL == "" {
		serviceURL = c.serviceURL
	}
	target := fmt.Sprintf("%sv3/conversations/%s/activities", serviceURL, ref.Conversation.ID)
	return c.send(ctx, "POST", target, activity)
}

// createConversationRequest opens a new group conversation in a channel.
type createConversationRequest struct {
	Bot         ChannelAccount `json:"bot"`
	IsGroup     bool           `json:"isGroup"`
	ChannelData map[string]any `json:"channelData"`
	Activity    *Activity      `json:"activity"`
}

// SendToChannel posts an Adaptive Card into a Teams channel by opening a
// new conversation there.
func (c *Client) SendToChannel(ctx context.Context, channelID string, card any) error {
	req := createConversationRequest{
		Bot:     ChannelAccount{ID: c.appID, Name: "IT Support Bot"},
		IsGroup: true,
		ChannelData: map[string]any{
			"teamsChannelId": channelID,
			"tenant":         map[string]string{"id": c.tenantID},
		},
		Activity: &Activity{
			Type:        ActivityMessage,
			Attachments: []Attachment{{ContentType: AdaptiveCardContentType, Content: card}},
		},
	}
	target := c.serviceURL + "v3/conversations"
	return c.send(ctx, "POST", target, req)
}

// Member is a conversation roster entry.
type Member struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	UPN   string `json:"userPrincipalName,omitempty"`
}

// UserInfo fetches the roster entry for one conversation member.
func (c *Client) UserInfo(ctx context.Context, inbound *Activity, userID string) (*Member, error) {
	token, err := c.authToken(ctx)
	if err != nil {
		return nil, err
	}

	target := fmt.Sprintf("%sv3/conversations/%s/members/%s",
		c.serviceBase(inbound), conversationID(inbound), userID)
	req, err := http.NewRequestWithContext(ctx, "GET", target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("member lookup failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("member lookup returned status %d", resp.StatusCode)
	}

	var m Member
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, fmt.Errorf("unmarshal member: %w", err)
	}
	return &m, nil
}

func (c *Client) replyEnvelope(inbound *Activity) *Activity {
	return &Activity{
		Type:         ActivityMessage,
		From:         inbound.Recipient,
		Conversation: inbound.Conversation,
		Recipient:    inbound.From,
		ReplyToID:    inbound.ID,
	}
}

func (c *Client) postReply(ctx context.Context, inbound *Activity, reply *Activity) error {
	target := fmt.Sprintf("%sv3/conversations/%s/activities/%s",
		c.serviceBase(inbound), conversationID(inbound), inbound.ID)
	return c.send(ctx, "POST", target, reply)
}

func (c *Client) send(ctx context.Context, method, target string, body any) error {
	token, err := c.authToken(ctx)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal activity: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("connector request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated &&
		resp.StatusCode != http.StatusAccepted {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		return fmt.Errorf("connector returned status %d: %.200s", resp.StatusCode, string(respBody))
	}
	return nil
}

func (c *Client) serviceBase(inbound *Activity) string {
	if inbound.ServiceURL != "" {
		return inbound.ServiceURL
	}
	return c.serviceURL
}

func conversationID(inbound *Activity) string {
	if inbound.Conversation == nil {
		return ""
	}
	return inbound.Conversation.ID
}
