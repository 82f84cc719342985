package models

import (
	"errors"
	"fmt"
	"strings"
)

type ChatAnswer struct {
	Question string `json:"question,omitempty"`
	Answer   string `json:"answer"`
}

func (a *ChatAnswer) Validate() error {
	if strings.TrimSpace(a.Answer) == "" {
		return errors.New("answer missing")
	}
	return nil
}

type ChatEntry struct {
	ID        int64     `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	CreatedAt Timestamp `json:"created_at"`
}

type ChatHistory []ChatEntry

func (h *ChatHistory) Validate() error {
	for i, e := range *h {
		if e.ID <= 0 {
			return fmt.Errorf("chat entry %d: id missing", i)
		}
	}
	return nil
}
