package openai

import (
	"errors"
	"time"
)

// Retry tuning for chat completion calls.
const (
	InitialBackoffDuration = 1 * time.Second
	DefaultSystemPrompt    = "You are a helpful assistant chatting with people on Telegram. Keep answers concise."
)

var (
	ErrNoChoices     = errors.New("no choices in response")
	ErrEmptyResponse = errors.New("empty response content")
	ErrNoMessages    = errors.New("cannot generate a reply without messages")
)
