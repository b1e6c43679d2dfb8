// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/deepcognitive/deepcog-tui/internal/dashboard"
	"github.com/google/uuid"
)

// =============================================================================
// MESSAGE TYPES
// =============================================================================

// Sender identifies who wrote a message.
type Sender int

const (
	SenderUser Sender = iota
	SenderAssistant
)

func (s Sender) String() string {
	if s == SenderUser {
		return "user"
	}
	return "assistant"
}

// Message is one entry of the conversation log.
type Message struct {
	ID        string      `json:"id"`
	Text      string      `json:"text"`
	Sender    Sender      `json:"sender"`
	ImagePath string      `json:"image_path,omitempty"`
	Attach    *Attachment `json:"attachment,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// IsUser reports whether the user wrote the message.
func (m Message) IsUser() bool { return m.Sender == SenderUser }

func newMessage(sender Sender, text string, at time.Time) Message {
	return Message{
		ID:        uuid.NewString(),
		Text:      text,
		Sender:    sender,
		CreatedAt: at,
	}
}

// =============================================================================
// ATTACHMENTS
// =============================================================================

// AttachmentKind is the kind of file a user attached.
type AttachmentKind int

const (
	AttachImage AttachmentKind = iota
	AttachPhoto
	AttachText
	AttachJSON
	AttachPDF
	AttachAudio
)

// Attachment references a file the user attached. Only the path is kept;
// contents are never read.
type Attachment struct {
	Kind AttachmentKind `json:"kind"`
	Path string         `json:"path"`
}

var attachmentInfo = map[AttachmentKind]struct {
	name   string
	prefix string
	agent  dashboard.AgentType
}{
	AttachImage: {"image", "Image selected", dashboard.AgentImage},
	AttachPhoto: {"photo", "Photo taken", dashboard.AgentImage},
	AttachText:  {"text", "Text file selected", dashboard.AgentDocument},
	AttachJSON:  {"json", "JSON file selected", dashboard.AgentDocument},
	AttachPDF:   {"pdf", "PDF file selected", dashboard.AgentDocument},
	AttachAudio: {"audio", "Audio file selected", dashboard.AgentAudio},
}

// AttachmentKinds lists the kinds in menu order.
func AttachmentKinds() []AttachmentKind {
	return []AttachmentKind{AttachImage, AttachPhoto, AttachText, AttachJSON, AttachPDF, AttachAudio}
}

func (k AttachmentKind) String() string {
	if info, ok := attachmentInfo[k]; ok {
		return info.name
	}
	return "unknown"
}

// Agent returns the dashboard agent that handles this kind of file.
func (k AttachmentKind) Agent() dashboard.AgentType {
	return attachmentInfo[k].agent
}

// describe returns the log text for an attachment, e.g. "PDF file selected: a.pdf".
func (k AttachmentKind) describe(path string) string {
	info, ok := attachmentInfo[k]
	if !ok {
		return "File selected: " + path
	}
	return info.prefix + ": " + path
}

// ParseAttachmentKind parses a kind name such as "pdf".
func ParseAttachmentKind(s string) (AttachmentKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, k := range AttachmentKinds() {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown attachment kind %q", s)
}

// GuessAttachmentKind picks a kind from the file extension.
func GuessAttachmentKind(path string) (AttachmentKind, bool) {
	lower := strings.ToLower(path)
	switch {
	case hasAnySuffix(lower, ".png", ".jpg", ".jpeg", ".gif", ".webp", ".bmp"):
		return AttachImage, true
	case hasAnySuffix(lower, ".txt", ".md", ".log", ".csv"):
		return AttachText, true
	case strings.HasSuffix(lower, ".json"):
		return AttachJSON, true
	case strings.HasSuffix(lower, ".pdf"):
		return AttachPDF, true
	case hasAnySuffix(lower, ".wav", ".mp3", ".m4a", ".ogg", ".flac"):
		return AttachAudio, true
	}
	return 0, false
}

func hasAnySuffix(s string, suffixes ...string) bool {
	for _, suf := range suffixes {
		if strings.HasSuffix(s, suf) {
			return true
		}
	}
	return false
}
