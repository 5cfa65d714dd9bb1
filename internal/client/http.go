package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/heartline/heartline/internal/realtime"
)

// API talks to the HTTP side of the server with a session token. It
// authorizes channel subscriptions and touches the member's last-active time.
type API struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func NewAPI(baseURL, token string) *API {
	return &API{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (a *API) Authorize(ctx context.Context, socketID, channel string) (*realtime.ChannelAuth, error) {
	form := url.Values{"socket_id": {socketID}, "channel_name": {channel}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+"/api/realtime/auth", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var auth realtime.ChannelAuth
	if err := a.do(req, &auth); err != nil {
		return nil, err
	}
	return &auth, nil
}

func (a *API) TouchLastActive(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+"/api/members/last-active", nil)
	if err != nil {
		return err
	}
	return a.do(req, nil)
}

func (a *API) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+a.Token)

	resp, err := a.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: status %d", req.Method, req.URL.Path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
