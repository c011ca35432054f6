package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"briddhi-be/models"
	"briddhi-be/realtime"
)

// ErrUnauthenticated is returned when the server rejects the session token.
// The caller must surface a re-login prompt; polling a dead session is never
// retried.
var ErrUnauthenticated = errors.New("session is no longer authenticated")

// CitizenSync keeps a citizen's "my issues" view reconciled with the server.
// Polling is the source of truth; the push channel only makes updates arrive
// sooner.
type CitizenSync struct {
	BaseURL      string
	WSURL        string
	Token        string
	HTTP         *http.Client
	PollInterval time.Duration
	State        *State
}

// Run fetches once, then polls on a fixed interval until the context is done
// or the session turns unauthenticated. The push listener runs alongside when
// WSURL is set; its failures are silent because the next poll reconciles.
func (s *CitizenSync) Run(ctx context.Context) error {
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

// Refresh fetches the owner-filtered issue list and merges it into the local
// state.
func (s *CitizenSync) Refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"/citizen/my-issues", nil)
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
		return fmt.Errorf("my-issues returned status %d", resp.StatusCode)
	}

	var payload struct {
		Issues []models.Issue `json:"issues"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return err
	}

	s.State.Observe(payload.Issues...)
	return nil
}

// listen joins the private scope and merges pushed status updates. Any error
// ends the listener; the poll loop keeps the view correct regardless.
func (s *CitizenSync) listen(ctx context.Context) {
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
		if evt.Name == realtime.EventIssueStatusUpdate {
			s.State.Observe(evt.Issue)
		}
	}
}

func (s *CitizenSync) httpClient() *http.Client {
	if s.HTTP != nil {
		return s.HTTP
	}
	return http.DefaultClient
}
