// Package rest talks to the rule engine's request/response API. Every call
// returns the resulting viewer-scoped snapshot or an *APIError.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"example.com/ww-client/internal/werewolf"
)

// APIError is a non-success response from the rule engine. Detail is the
// server's human-readable explanation.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %s (status %d)", e.Detail, e.Status)
}

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type joinRequest struct {
	Nickname string `json:"nickname"`
	PlayerID string `json:"player_id"`
}

type startRequest struct {
	PlayerID string             `json:"player_id"`
	Settings *werewolf.Settings `json:"settings,omitempty"`
}

type actionRequest struct {
	ActionType string `json:"action_type"`
	TargetID   string `json:"target_id"`
	Confirmed  bool   `json:"confirmed"`
}

type voteRequest struct {
	TargetID string `json:"target_id"`
}

type playerRequest struct {
	PlayerID string `json:"player_id"`
}

type kickRequest struct {
	PlayerID string `json:"player_id"`
	TargetID string `json:"target_id"`
}

func (c *Client) CreateRoom(ctx context.Context) (*werewolf.GameState, error) {
	return c.do(ctx, http.MethodPost, "/rooms", struct{}{})
}

// GetRoom fetches the latest snapshot. An empty viewerID yields the
// fully-redacted public view.
func (c *Client) GetRoom(ctx context.Context, roomID, viewerID string) (*werewolf.GameState, error) {
	path := "/rooms/" + url.PathEscape(roomID)
	if viewerID != "" {
		path += "?player_id=" + url.QueryEscape(viewerID)
	}
	return c.do(ctx, http.MethodGet, path, nil)
}

func (c *Client) Join(ctx context.Context, roomID, nickname, playerID string) (*werewolf.GameState, error) {
	return c.do(ctx, http.MethodPost, "/rooms/"+url.PathEscape(roomID)+"/join",
		joinRequest{Nickname: nickname, PlayerID: playerID})
}

func (c *Client) UpdateSettings(ctx context.Context, roomID, playerID string, settings werewolf.Settings) (*werewolf.GameState, error) {
	path := fmt.Sprintf("/rooms/%s/settings?player_id=%s", url.PathEscape(roomID), url.QueryEscape(playerID))
	return c.do(ctx, http.MethodPost, path, settings)
}

func (c *Client) StartGame(ctx context.Context, roomID, playerID string, settings *werewolf.Settings) (*werewolf.GameState, error) {
	return c.do(ctx, http.MethodPost, "/rooms/"+url.PathEscape(roomID)+"/start",
		startRequest{PlayerID: playerID, Settings: settings})
}

// SubmitAction sends a night action. confirmed=false proposes or unlocks,
// confirmed=true locks the action in.
func (c *Client) SubmitAction(ctx context.Context, roomID, playerID string, actionType werewolf.ActionType, targetID string, confirmed bool) (*werewolf.GameState, error) {
	path := fmt.Sprintf("/rooms/%s/action?player_id=%s", url.PathEscape(roomID), url.QueryEscape(playerID))
	return c.do(ctx, http.MethodPost, path,
		actionRequest{ActionType: string(actionType), TargetID: targetID, Confirmed: confirmed})
}

func (c *Client) SubmitVote(ctx context.Context, roomID, playerID, targetID string) (*werewolf.GameState, error) {
	path := fmt.Sprintf("/rooms/%s/vote?player_id=%s", url.PathEscape(roomID), url.QueryEscape(playerID))
	return c.do(ctx, http.MethodPost, path, voteRequest{TargetID: targetID})
}

func (c *Client) EndGame(ctx context.Context, roomID, playerID string) (*werewolf.GameState, error) {
	return c.do(ctx, http.MethodPost, "/rooms/"+url.PathEscape(roomID)+"/end", playerRequest{PlayerID: playerID})
}

func (c *Client) RestartGame(ctx context.Context, roomID, playerID string) (*werewolf.GameState, error) {
	return c.do(ctx, http.MethodPost, "/rooms/"+url.PathEscape(roomID)+"/restart", playerRequest{PlayerID: playerID})
}

func (c *Client) KickPlayer(ctx context.Context, roomID, playerID, targetID string) (*werewolf.GameState, error) {
	return c.do(ctx, http.MethodPost, "/rooms/"+url.PathEscape(roomID)+"/kick",
		kickRequest{PlayerID: playerID, TargetID: targetID})
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*werewolf.GameState, error) {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parseError(resp)
	}

	var state werewolf.GameState
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return nil, fmt.Errorf("api %s %s: decode: %w", method, path, err)
	}
	return &state, nil
}

func parseError(resp *http.Response) *APIError {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil || payload.Detail == "" {
		payload.Detail = fmt.Sprintf("HTTP %d", resp.StatusCode)
	}
	return &APIError{Status: resp.StatusCode, Detail: payload.Detail}
}
