package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"briddhi-be/models"
	"briddhi-be/realtime"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// AdminSync keeps the dashboard's issue board reconciled with the server.
// Status edits are authoritative mutations: local state changes only after
// the server confirms, so a rejected edit leaves the display untouched.
type AdminSync struct {
	BaseURL      string
	WSURL        string
	Token        string
	HTTP         *http.Client
	PollInterval time.Duration
	State        *State
}

// adminIssueRow is the enriched wire shape of /admin/issues entries.
type adminIssueRow struct {
	ID          primitive.ObjectID `json:"_id"`
	Title       string             `json:"title"`
	Type        models.IssueType   `json:"type"`
	Description string             `json:"description"`
	Images      []string           `json:"images"`
	Location    models.GeoPoint    `json:"location"`
	Address     string             `json:"address"`
	Status      models.IssueStatus `json:"status"`
	ReportedBy  struct {
		ID primitive.ObjectID `json:"_id"`
	} `json:"reportedBy"`
	CreatedAt time.Time `json:"createdAt"`
}

func (r adminIssueRow) toIssue() models.Issue {
	return models.Issue{
		ID:          r.ID,
		Title:       r.Title,
		Type:        r.Type,
		Description: r.Description,
		Images:      r.Images,
		Location:    r.Location,
		Address:     r.Address,
		Status:      r.Status,
		ReportedBy:  r.ReportedBy.ID,
		CreatedAt:   r.CreatedAt,
	}
}

// Run fetches once, then polls on a fixed interval until the context is done
// or the session turns unauthenticated.
func (s *AdminSync) Run(ctx context.Context) error {
	if err := s.Refresh(ctx); err != nil {
		return err
	}

	if s.WSURL != "" {
		go s.listen(ctx)
	}

	ticker := time.NewTicker(s.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil {
				if errors.Is(err, ErrUnauthenticated) {
					return err
				}
				log.Println("poll failed:", err)
			}
		}
	}
}

// Refresh fetches the full issue list and merges it into the local state.
func (s *AdminSync) Refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"/admin/issues", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.Token)

	resp, err := s.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthenticated
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("admin issues returned status %d", resp.StatusCode)
	}

	var payload struct {
		Issues []adminIssueRow `json:"issues"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return err
	}

	for _, row := range payload.Issues {
		s.State.Observe(row.toIssue())
	}
	return nil
}

// SetStatus asks the server to transition an issue and reflects the confirmed
// record into local state. Any rejection returns an error without touching
// the displayed status.
func (s *AdminSync) SetStatus(ctx context.Context, issueID string, status models.IssueStatus) (models.Issue, error) {
	body, err := json.Marshal(map[string]string{"status": string(status)})
	if err != nil {
		return models.Issue{}, err
	}

	url := fmt.Sprintf("%s/admin/issues/%s/status", s.BaseURL, issueID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return models.Issue{}, err
	}
	req.Header.Set("Authorization", "Bearer "+s.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient().Do(req)
	if err != nil {
		return models.Issue{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return models.Issue{}, ErrUnauthenticated
	}
	if resp.StatusCode != http.StatusOK {
		return models.Issue{}, fmt.Errorf("status update returned status %d", resp.StatusCode)
	}

	var payload struct {
		Issue models.Issue `json:"issue"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return models.Issue{}, err
	}

	s.State.Observe(payload.Issue)
	return payload.Issue, nil
}

// listen joins the admin scope and merges pushed new-issue events.
func (s *AdminSync) listen(ctx context.Context) {
	conn, _, err := websocket.Dial(ctx, s.WSURL+"?token="+s.Token, nil)
	if err != nil {
		log.Println("push channel dial failed:", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "closed")

	for {
		var evt realtime.Event
		if err := wsjson.Read(ctx, conn, &evt); err != nil {
			return
		}
		if evt.Name == realtime.EventNewIssue {
			s.State.Observe(evt.Issue)
		}
	}
}

func (s *AdminSync) httpClient() *http.Client {
	if s.HTTP != nil {
		return s.HTTP
	}
	return http.DefaultClient
}
