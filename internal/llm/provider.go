// Package llm abstracts the language-model collaborators behind a small
// request/response interface so the support chain never depends on a
// specific provider SDK.
package llm

import (
	"context"
	"errors"
	"log"
)

// Request is a single system+user completion request.
type Request struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int64
}

// Provider issues one completion call and returns the model's text output.
type Provider interface {
	Complete(ctx context.Context, req Request) (string, error)
	Name() string
}

// ErrEmptyCompletion is returned when a provider call succeeds at the
// transport level but yields no usable text.
var ErrEmptyCompletion = errors.New("llm: empty completion")

// Failover tries the primary provider first and falls back to the
// secondary on any error. Mirrors the primary-endpoint/fallback-endpoint
// arrangement the bot is deployed with.
type Failover struct {
	Primary   Provider
	Secondary Provider
}

// NewFailover wires a primary and an optional secondary provider. A nil
// secondary reduces to the primary alone.
func NewFailover(primary, secondary Provider) *Failover {
	return &Failover{Primary: primary, Secondary: secondary}
}

// Complete implements Provider.
func (f *Failover) Complete(ctx context.Context, req Request) (string, error) {
	out, err := f.Primary.Complete(ctx, req)
	if err == nil {
		return out, nil
	}
	if f.Secondary == nil {
		return "", err
	}
	log.Printf("[llm] %s failed (%v), trying %s", f.Primary.Name(), err, f.Secondary.Name())
	return f.Secondary.Complete(ctx, req)
}

// Name implements Provider.
func (f *Failover) Name() string {
	if f.Secondary == nil {
		return f.Primary.Name()
	}
	return f.Primary.Name() + "+" + f.Secondary.Name()
}
