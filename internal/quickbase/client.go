package quickbase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"deskbot/internal/config"
)

const (
	defaultBaseURL  = "https://api.quickbase.com/v1"
	apiTimeout      = 15 * time.Second
	maxResponseSize = 256 * 1024
)

// Client talks to the QuickBase records API for the tickets table.
type Client struct {
	realm      string
	userToken  string
	tableID    string
	baseURL    string
	httpClient *http.Client
	now        func() time.Time
}

// NewClient builds a ticket client from config.
func NewClient(cfg config.QuickBaseConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		realm:      cfg.Realm,
		userToken:  cfg.UserToken,
		tableID:    cfg.TableID,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: apiTimeout},
		now:        time.Now,
	}
}

// fieldValue is the {"value": ...} wrapper QuickBase uses for every field.
type fieldValue struct {
	Value any `json:"value"`
}

type record map[string]fieldValue

type upsertRequest struct {
	To             string   `json:"to"`
	Data           []record `json:"data"`
	FieldsToReturn []int    `json:"fieldsToReturn,omitempty"`
}

type upsertResponse struct {
	Data     []record `json:"data"`
	Metadata struct {
		CreatedRecordIDs []int `json:"createdRecordIds"`
	} `json:"metadata"`
}

type sortBy struct {
	FieldID int    `json:"fieldId"`
	Order   string `json:"order"`
}

type queryOptions struct {
	Top   int  `json:"top,omitempty"`
	Count bool `json:"count,omitempty"`
}

type queryRequest struct {
	From    string        `json:"from"`
	Select  []int         `json:"select"`
	Where   string        `json:"where,omitempty"`
	SortBy  []sortBy      `json:"sortBy,omitempty"`
	Options *queryOptions `json:"options,omitempty"`
}

type queryResponse struct {
	Data     []record `json:"data"`
	Metadata struct {
		TotalRecords int `json:"totalRecords"`
	} `json:"metadata"`
}

var ticketFields = []int{
	fieldRecordID, fieldTicketNumber, fieldSubject, fieldDescription,
	fieldPriority, fieldCategory, fieldStatus, fieldSubmittedDate,
	fieldDueDate, fieldResolvedDate, fieldResolution, fieldSubmittedBy,
}

// CreateTicket inserts a new ticket record and returns it with its
// generated ticket number and record ID.
func (c *Client) CreateTicket(ctx context.Context, t NewTicket) (*Ticket, error) {
	now := c.now()
	number := TicketNumber(now)

	description := t.Description
	if t.UserName != "" {
		description += fmt.Sprintf("\n\nTeams User: %s", t.UserName)
	}
	status := t.Status
	if status == "" {
		status = StatusNew
	}

	rec := record{
		fid(fieldTicketNumber):  {Value: number},
		fid(fieldSubject):       {Value: t.Subject},
		fid(fieldDescription):   {Value: description},
		fid(fieldPriority):      {Value: t.Priority},
		fid(fieldCategory):      {Value: t.Category},
		fid(fieldStatus):        {Value: status},
		fid(fieldSubmittedDate): {Value: now.UTC().Format(time.RFC3339)},
		fid(fieldDueDate):       {Value: DueDate(t.Priority, now).Format("2006-01-02")},
		fid(fieldSubmittedBy):   {Value: t.UserEmail},
	}

	reqBody := upsertRequest{
		To:             c.tableID,
		Data:           []record{rec},
		FieldsToReturn: []int{fieldRecordID, fieldTicketNumber},
	}

	var resp upsertResponse
	if err := c.do(ctx, "/records", reqBody, &resp); err != nil {
		return nil, fmt.Errorf("create ticket: %w", err)
	}
	if len(resp.Metadata.CreatedRecordIDs) == 0 {
		return nil, fmt.Errorf("create ticket: no record created")
	}

	recordID := fmt.Sprintf("%d", resp.Metadata.CreatedRecordIDs[0])
	return &Ticket{
		TicketNumber:  number,
		RecordID:      recordID,
		Subject:       t.Subject,
		Description:   description,
		Priority:      t.Priority,
		Category:      t.Category,
		Status:        status,
		SubmittedDate: now.UTC().Format(time.RFC3339),
		DueDate:       DueDate(t.Priority, now).Format("2006-01-02"),
		SubmittedBy:   t.UserEmail,
		URL:           c.TicketURL(recordID),
	}, nil
}

// GetTicket looks up a single ticket by its ticket number.
func (c *Client) GetTicket(ctx context.Context, ticketNumber string) (*Ticket, error) {
	reqBody := queryRequest{
		From:   c.tableID,
		Select: ticketFields,
		Where:  fmt.Sprintf("{%d.EX.'%s'}", fieldTicketNumber, ticketNumber),
	}

	var resp queryResponse
	if err := c.do(ctx, "/records/query", reqBody, &resp); err != nil {
		return nil, fmt.Errorf("get ticket %s: %w", ticketNumber, err)
	}
	if len(resp.Data) == 0 {
		return nil, nil
	}
	t := c.decodeTicket(resp.Data[0])
	return &t, nil
}

// UserTickets returns the user's open tickets, newest first, capped at 10.
func (c *Client) UserTickets(ctx context.Context, email string) ([]Ticket, error) {
	reqBody := queryRequest{
		From:   c.tableID,
		Select: ticketFields,
		Where: fmt.Sprintf("{%d.EX.'%s'} AND {%d.NE.'%s'}",
			fieldSubmittedBy, email, fieldStatus, StatusClosed),
		SortBy:  []sortBy{{FieldID: fieldSubmittedDate, Order: "DESC"}},
		Options: &queryOptions{Top: 10},
	}

	var resp queryResponse
	if err := c.do(ctx, "/records/query", reqBody, &resp); err != nil {
		return nil, fmt.Errorf("list tickets for %s: %w", email, err)
	}

	tickets := make([]Ticket, 0, len(resp.Data))
	for _, rec := range resp.Data {
		tickets = append(tickets, c.decodeTicket(rec))
	}
	return tickets, nil
}

// UpdateTicket applies an Update to an existing ticket. The record is
// located by ticket number first.
func (c *Client) UpdateTicket(ctx context.Context, u Update) error {
	existing, err := c.GetTicket(ctx, u.TicketNumber)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("update ticket: %s not found", u.TicketNumber)
	}

	rec := record{
		fid(fieldRecordID): {Value: existing.RecordID},
	}
	if u.Status != "" {
		rec[fid(fieldStatus)] = fieldValue{Value: u.Status}
		if u.Status == StatusResolved || u.Status == StatusClosed {
			rec[fid(fieldResolvedDate)] = fieldValue{Value: c.now().UTC().Format(time.RFC3339)}
		}
	}
	if u.Resolution != "" {
		rec[fid(fieldResolution)] = fieldValue{Value: u.Resolution}
	}
	if u.TimeSpent > 0 {
		rec[fid(fieldTimeSpent)] = fieldValue{Value: u.TimeSpent}
	}

	reqBody := upsertRequest{To: c.tableID, Data: []record{rec}}

	var resp upsertResponse
	if err := c.do(ctx, "/records", reqBody, &resp); err != nil {
		return fmt.Errorf("update ticket %s: %w", u.TicketNumber, err)
	}
	return nil
}

// ResolveTicket marks a ticket resolved with the resolution text and resolver.
func (c *Client) ResolveTicket(ctx context.Context, ticketNumber, resolution, resolvedBy string) error {
	return c.UpdateTicket(ctx, Update{
		TicketNumber: ticketNumber,
		Status:       StatusResolved,
		Resolution: fmt.Sprintf("%s\n\nResolved by: %s at %s",
			resolution, resolvedBy, c.now().Format("2006-01-02 15:04:05")),
	})
}

// Stats aggregates open/resolved counts and an open-ticket breakdown by
// priority. Partial failures zero the affected counter rather than
// failing the whole report.
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{ByPriority: make(map[string]int)}

	openWhere := fmt.Sprintf("{%d.NE.'%s'} AND {%d.NE.'%s'}",
		fieldStatus, StatusClosed, fieldStatus, StatusResolved)
	n, err := c.count(ctx, openWhere)
	if err != nil {
		return nil, fmt.Errorf("ticket stats: %w", err)
	}
	stats.TotalOpen = n

	todayStart := c.now().Truncate(24 * time.Hour).UTC().Format(time.RFC3339)
	n, err = c.count(ctx, fmt.Sprintf("{%d.GTE.'%s'}", fieldResolvedDate, todayStart))
	if err == nil {
		stats.ResolvedToday = n
	}

	for _, priority := range []string{"Low", "Medium", "High", "Critical"} {
		where := fmt.Sprintf("{%d.EX.'%s'} AND {%d.NE.'%s'}",
			fieldPriority, priority, fieldStatus, StatusClosed)
		if n, err := c.count(ctx, where); err == nil {
			stats.ByPriority[priority] = n
		}
	}

	return stats, nil
}

func (c *Client) count(ctx context.Context, where string) (int, error) {
	reqBody := queryRequest{
		From:    c.tableID,
		Select:  []int{fieldRecordID},
		Where:   where,
		Options: &queryOptions{Count: true},
	}
	var resp queryResponse
	if err := c.do(ctx, "/records/query", reqBody, &resp); err != nil {
		return 0, err
	}
	return resp.Metadata.TotalRecords, nil
}

// TicketURL returns the browser URL for a ticket record.
func (c *Client) TicketURL(recordID string) string {
	return fmt.Sprintf("https://%s/db/%s?a=dr&rid=%s", c.realm, c.tableID, recordID)
}

func (c *Client) do(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("QB-Realm-Hostname", c.realm)
	req.Header.Set("Authorization", "QB-USER-TOKEN "+c.userToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API returned status %d: %.200s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

func (c *Client) decodeTicket(rec record) Ticket {
	t := Ticket{
		TicketNumber:  str(rec, fieldTicketNumber),
		RecordID:      str(rec, fieldRecordID),
		Subject:       str(rec, fieldSubject),
		Description:   str(rec, fieldDescription),
		Priority:      str(rec, fieldPriority),
		Category:      str(rec, fieldCategory),
		Status:        str(rec, fieldStatus),
		SubmittedDate: str(rec, fieldSubmittedDate),
		DueDate:       str(rec, fieldDueDate),
		ResolvedDate:  str(rec, fieldResolvedDate),
		Resolution:    str(rec, fieldResolution),
		SubmittedBy:   str(rec, fieldSubmittedBy),
	}
	if t.RecordID != "" {
		t.URL = c.TicketURL(t.RecordID)
	}
	return t
}

func fid(id int) string { return fmt.Sprintf("%d", id) }

// str extracts a field's value as a string. Record IDs arrive as numbers.
func str(rec record, id int) string {
	fv, ok := rec[fid(id)]
	if !ok || fv.Value == nil {
		return ""
	}
	switch v := fv.Value.(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
