// Package types contains shared types used across multiple packages.
// This helps avoid import cycles between gateway, pipeline and telegram.
package types

import (
	"fmt"
	"strings"
	"time"
)

// Sender identifies the Telegram user behind an update.
type Sender struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName,omitempty"`
	Username  string `json:"username,omitempty"`
}

// DisplayName is "First Last", falling back to @username and then the numeric ID.
func (s Sender) DisplayName() string {
	name := strings.TrimSpace(s.FirstName + " " + s.LastName)
	if name != "" {
		return name
	}
	if s.Username != "" {
		return "@" + s.Username
	}
	return fmt.Sprintf("%d", s.ID)
}

// VoiceMessage is one inbound audio payload. Built once per update, never mutated.
type VoiceMessage struct {
	UpdateID     int       `json:"updateId"`
	ChatID       int64     `json:"chatId"`
	MessageID    int       `json:"messageId"`
	FileID       string    `json:"fileId"`
	FileUniqueID string    `json:"fileUniqueId"`
	Duration     int       `json:"duration"`     // seconds
	ReportedSize int64     `json:"reportedSize"` // bytes, as reported by Telegram
	MimeType     string    `json:"mimeType"`
	FileName     string    `json:"fileName,omitempty"` // audio documents only
	Sender       Sender    `json:"sender"`
	ReceivedAt   time.Time `json:"receivedAt"`
}

// UpdateKind classifies a decoded update.
type UpdateKind int

const (
	UpdateIgnored UpdateKind = iota
	UpdateVoice
	UpdateText
)

func (k UpdateKind) String() string {
	switch k {
	case UpdateVoice:
		return "voice"
	case UpdateText:
		return "text"
	default:
		return "ignored"
	}
}

// Update is a Telegram update reduced to what the bot acts on.
type Update struct {
	ID        int
	Kind      UpdateKind
	ChatID    int64
	MessageID int
	Sender    Sender
	Text      string        // UpdateText only
	Voice     *VoiceMessage // UpdateVoice only
}
