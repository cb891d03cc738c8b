// Package models defines the request and result types the CLI reads and writes.
package models

import "fmt"

// EmbedRequest is a batch of texts to embed with one model.
type EmbedRequest struct {
	Model  string   `json:"model,omitempty"`
	Texts  []string `json:"texts"`
	Prefix string   `json:"prefix,omitempty"` // prepended to every text, e.g. a retrieval instruction
}

// Validate ensures the request has at least one text.
func (r *EmbedRequest) Validate() error {
	if len(r.Texts) == 0 {
		return fmt.Errorf("texts cannot be empty")
	}
	return nil
}

// Inputs returns the texts with Prefix applied.
func (r *EmbedRequest) Inputs() []string {
	if r.Prefix == "" {
		return r.Texts
	}
	out := make([]string, len(r.Texts))
	for i, t := range r.Texts {
		out[i] = r.Prefix + t
	}
	return out
}
