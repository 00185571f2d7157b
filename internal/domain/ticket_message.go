package domain

import "time"

// MessageVisibility controls who may read a thread message.
type MessageVisibility string

const (
	VisibilityPublic   MessageVisibility = "PUBLIC"
	VisibilityInternal MessageVisibility = "INTERNAL"
)

// Valid reports whether the visibility is a known enum value.
func (v MessageVisibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityInternal
}

// TicketMessage is one entry of a ticket's conversation thread.
type TicketMessage struct {
	ID          string
	TicketID    string
	AuthorID    string
	Body        string
	Visibility  MessageVisibility
	CreatedAt   time.Time
	Attachments []Attachment
}

// Attachment references an uploaded file. Blob storage lives outside this
// service; only the metadata is persisted.
type Attachment struct {
	ID           string
	TicketID     string
	MessageID    *string
	UploadedByID string
	FileName     string
	StorageKey   string
	MimeType     string
	SizeBytes    int64
	CreatedAt    time.Time
}
