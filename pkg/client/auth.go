package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/typeface/typeface/pkg/protocol"
)

// Login authenticates with email/password and returns the issued token.
// The token is not stored; that is the caller's job.
func (c *Client) Login(ctx context.Context, email, password string) (*protocol.LoginResponse, error) {
	body, _ := json.Marshal(protocol.LoginRequest{Email: email, Password: password})

	req, err := c.newRequest(ctx, "POST", protocol.PathLogin, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req, "login", KindAuthFailed)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result protocol.LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &Error{Kind: KindAuthFailed, Op: "login", Err: fmt.Errorf("parse login response: %w", err)}
	}
	if result.Token == "" {
		return nil, &Error{Kind: KindAuthFailed, Op: "login", Message: "response carried no token"}
	}
	return &result, nil
}

// Register creates an account and returns the server's message.
// Plain-text responses are returned as-is.
func (c *Client) Register(ctx context.Context, username, email, password string) (string, error) {
	body, _ := json.Marshal(protocol.RegisterRequest{
		Username: username,
		Email:    email,
		Password: password,
	})

	req, err := c.newRequest(ctx, "POST", protocol.PathRegister, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req, "register", KindAuthFailed)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{Kind: KindAuthFailed, Op: "register", Err: err}
	}

	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		var msg protocol.MessageResponse
		if err := json.Unmarshal(data, &msg); err != nil {
			return "", &Error{Kind: KindAuthFailed, Op: "register", Err: fmt.Errorf("parse register response: %w", err)}
		}
		return msg.Message, nil
	}
	return strings.TrimSpace(string(data)), nil
}
