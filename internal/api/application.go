package api

import (
	"context"
	"fmt"
	"net/http"

	"go-cvassist-client/internal/models"
)

func (c *Client) Generate(ctx context.Context, jobDescription string, kind models.ApplicationType) (*models.Generated, error) {
	req, err := jsonRequest(http.MethodPost, "/api/application/generate", true, models.GenerateRequest{
		JobDescription:  jobDescription,
		ApplicationType: kind,
	})
	if err != nil {
		return nil, err
	}
	var out models.Generated
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ApplicationHistory(ctx context.Context) (models.ApplicationHistory, error) {
	var out models.ApplicationHistory
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/application/history", auth: true}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ApplicationDetail(ctx context.Context, id int64) (*models.Application, error) {
	var out models.Application
	path := fmt.Sprintf("/api/application/history/%d", id)
	if err := c.do(ctx, request{method: http.MethodGet, path: path, auth: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteApplication(ctx context.Context, id int64) (*models.Ack, error) {
	var out models.Ack
	path := fmt.Sprintf("/api/application/history/%d", id)
	if err := c.do(ctx, request{method: http.MethodDelete, path: path, auth: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ClearApplicationHistory(ctx context.Context) (*models.Ack, error) {
	var out models.Ack
	if err := c.do(ctx, request{method: http.MethodDelete, path: "/api/application/history", auth: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
