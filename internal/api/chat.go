package api

import (
	"context"
	"fmt"
	"net/http"

	"go-cvassist-client/internal/models"
)

func (c *Client) Ask(ctx context.Context, question string) (*models.ChatAnswer, error) {
	req, err := jsonRequest(http.MethodPost, "/api/chat/ask", true, map[string]string{"question": question})
	if err != nil {
		return nil, err
	}
	var out models.ChatAnswer
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ChatHistory(ctx context.Context) (models.ChatHistory, error) {
	var out models.ChatHistory
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/chat/history", auth: true}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeleteChatMessage(ctx context.Context, id int64) (*models.Ack, error) {
	var out models.Ack
	path := fmt.Sprintf("/api/chat/history/%d", id)
	if err := c.do(ctx, request{method: http.MethodDelete, path: path, auth: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ClearChatHistory(ctx context.Context) (*models.Ack, error) {
	var out models.Ack
	if err := c.do(ctx, request{method: http.MethodDelete, path: "/api/chat/history", auth: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
