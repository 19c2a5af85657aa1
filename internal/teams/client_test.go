package teams

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"deskbot/internal/config"
)

func newTestClient(t *testing.T, connector http.HandlerFunc) (*Client, *int32) {
	t.Helper()
	var tokenCalls int32
	login := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&tokenCalls, 1)
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if got := r.Form.Get("grant_type"); got != "client_credentials" {
			t.Errorf("grant_type = %q", got)
		}
		if got := r.Form.Get("scope"); got != "https://api.botframework.com/.default" {
			t.Errorf("scope = %q", got)
		}
		w.Write([]byte(`{"access_token":"tok-123","expires_in":3600}`))
	}))
	t.Cleanup(login.Close)

	svc := httptest.NewServer(connector)
	t.Cleanup(svc.Close)

	c := NewClient(config.TeamsConfig{
		AppID:      "app-id",
		AppSecret:  "secret",
		TenantID:   "tenant",
		ServiceURL: svc.URL + "/",
	})
	c.loginURL = login.URL
	return c, &tokenCalls
}

func inboundActivity(serviceURL string) *Activity {
	return &Activity{
		Type:         ActivityMessage,
		ID:           "act-1",
		ServiceURL:   serviceURL,
		From:         &ChannelAccount{ID: "user-1", Name: "pat@example.com"},
		Recipient:    &ChannelAccount{ID: "bot-1", Name: "IT Support Bot"},
		Conversation: &ConversationAccount{ID: "conv-1"},
		Text:         "<at>IT Support Bot</at> my vpn is down",
	}
}

func TestReplyTextRoutesToActivityURL(t *testing.T) {
	var gotPath string
	var gotReply Activity
	var client *Client
	client, _ = newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Errorf("Authorization = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReply); err != nil {
			t.Fatalf("decode reply: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	})

	inbound := inboundActivity(client.serviceURL)
	if err := client.ReplyText(context.Background(), inbound, "try restarting"); err != nil {
		t.Fatalf("ReplyText: %v", err)
	}

	if gotPath != "/v3/conversations/conv-1/activities/act-1" {
		t.Errorf("path = %q", gotPath)
	}
	if gotReply.Text != "try restarting" {
		t.Errorf("text = %q", gotReply.Text)
	}
	if gotReply.ReplyToID != "act-1" {
		t.Errorf("replyToId = %q", gotReply.ReplyToID)
	}
	// Direction flips on the way out.
	if gotReply.From == nil || gotReply.From.ID != "bot-1" {
		t.Errorf("from = %+v, want bot", gotReply.From)
	}
	if gotReply.Recipient == nil || gotReply.Recipient.ID != "user-1" {
		t.Errorf("recipient = %+v, want user", gotReply.Recipient)
	}
}

func TestReplyCardAttachesAdaptiveCard(t *testing.T) {
	var gotReply Activity
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotReply); err != nil {
			t.Fatalf("decode reply: %v", err)
		}
	})

	inbound := inboundActivity(client.serviceURL)
	card := map[string]any{"type": "AdaptiveCard"}
	if err := client.ReplyCard(context.Background(), inbound, card); err != nil {
		t.Fatalf("ReplyCard: %v", err)
	}

	if len(gotReply.Attachments) != 1 {
		t.Fatalf("attachments = %d, want 1", len(gotReply.Attachments))
	}
	if gotReply.Attachments[0].ContentType != AdaptiveCardContentType {
		t.Errorf("contentType = %q", gotReply.Attachments[0].ContentType)
	}
}

func TestTokenCachedAcrossCalls(t *testing.T) {
	client, tokenCalls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	inbound := inboundActivity(client.serviceURL)
	for i := 0; i < 3; i++ {
		if err := client.Typing(context.Background(), inbound); err != nil {
			t.Fatalf("Typing: %v", err)
		}
	}

	if got := atomic.LoadInt32(tokenCalls); got != 1 {
		t.Errorf("token endpoint called %d times, want 1", got)
	}
}

func TestUpdateCardUsesPutOnReplyTo(t *testing.T) {
	var gotMethod, gotPath string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
	})

	inbound := inboundActivity(client.serviceURL)
	inbound.ReplyToID = "orig-9"
	if err := client.UpdateCard(context.Background(), inbound, map[string]any{}); err != nil {
		t.Fatalf("UpdateCard: %v", err)
	}

	if gotMethod != "PUT" {
		t.Errorf("method = %q, want PUT", gotMethod)
	}
	if gotPath != "/v3/conversations/conv-1/activities/orig-9" {
		t.Errorf("path = %q", gotPath)
	}
}

func TestSendProactiveTextUsesStoredRef(t *testing.T) {
	var gotPath string
	var gotActivity Activity
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotActivity); err != nil {
			t.Fatalf("decode: %v", err)
		}
	})

	ref := ConversationRef{
		User:         ChannelAccount{ID: "user-1"},
		Bot:          ChannelAccount{ID: "bot-1"},
		Conversation: ConversationAccount{ID: "conv-7"},
		ServiceURL:   client.serviceURL,
	}
	if err := client.SendProactiveText(context.Background(), ref, "ticket IT-1 closed"); err != nil {
		t.Fatalf("SendProactiveText: %v", err)
	}

	if gotPath != "/v3/conversations/conv-7/activities" {
		t.Errorf("path = %q", gotPath)
	}
	if gotActivity.Text != "ticket IT-1 closed" {
		t.Errorf("text = %q", gotActivity.Text)
	}
}

func TestSendErrorSurfacesStatus(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	})

	inbound := inboundActivity(client.serviceURL)
	err := client.ReplyText(context.Background(), inbound, "hi")
	if err == nil {
		t.Fatal("expected error on 403")
	}
}

func TestCleanText(t *testing.T) {
	a := inboundActivity("")
	if got := a.CleanText(); got != "my vpn is down" {
		t.Errorf("CleanText = %q", got)
	}

	a.Text = "no mentions here"
	if got := a.CleanText(); got != "no mentions here" {
		t.Errorf("CleanText = %q", got)
	}
}

func TestSendToChannelOpensConversation(t *testing.T) {
	var gotPath string
	var gotReq createConversationRequest
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Write([]byte(`{"id":"new-conv"}`))
	})

	card := map[string]any{"type": "AdaptiveCard"}
	if err := client.SendToChannel(context.Background(), "19:channel@thread", card); err != nil {
		t.Fatalf("SendToChannel error: %v", err)
	}
	if gotPath != "/v3/conversations" {
		t.Errorf("path = %q", gotPath)
	}
	if got := gotReq.ChannelData["teamsChannelId"]; got != "19:channel@thread" {
		t.Errorf("teamsChannelId = %v", got)
	}
	if !gotReq.IsGroup || len(gotReq.Activity.Attachments) != 1 {
		t.Errorf("request = %+v", gotReq)
	}
}

func TestUserInfoFetchesRosterMember(t *testing.T) {
	var gotPath, gotAuth string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"id":"user-1","name":"Pat Doe","email":"pat.doe@example.com","userPrincipalName":"pdoe@example.com"}`))
	})

	member, err := client.UserInfo(context.Background(), inboundActivity(""), "user-1")
	if err != nil {
		t.Fatalf("UserInfo error: %v", err)
	}
	if gotPath != "/v3/conversations/conv-1/members/user-1" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("auth = %q", gotAuth)
	}
	if member.Email != "pat.doe@example.com" || member.UPN != "pdoe@example.com" {
		t.Errorf("member = %+v", member)
	}
}

func TestUserInfoSurfacesLookupFailure(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	if _, err := client.UserInfo(context.Background(), inboundActivity(""), "ghost"); err == nil {
		t.Fatal("expected error for 404 roster lookup")
	}
}

func TestUserEmail(t *testing.T) {
	a := inboundActivity("")
	if got := a.UserEmail(); got != "pat@example.com" {
		t.Errorf("UserEmail = %q", got)
	}

	a.From = &ChannelAccount{ID: "29:abc", Name: "Pat Doe", AADObjectID: "aad-1"}
	if got := a.UserEmail(); got != "aad-1" {
		t.Errorf("UserEmail = %q, want aad fallback", got)
	}

	a.From.Email = "pat.doe@example.com"
	if got := a.UserEmail(); got != "pat.doe@example.com" {
		t.Errorf("UserEmail = %q, want resolved email first", got)
	}
}

func TestReference(t *testing.T) {
	a := inboundActivity("https://svc.example/")
	ref := a.Reference()
	if ref.Conversation.ID != "conv-1" || ref.User.ID != "user-1" || ref.Bot.ID != "bot-1" {
		t.Errorf("ref = %+v", ref)
	}
	if ref.ServiceURL != "https://svc.example/" {
		t.Errorf("serviceUrl = %q", ref.ServiceURL)
	}
	if ref.ChannelID != "msteams" {
		t.Errorf("channelId = %q", ref.ChannelID)
	}
}
