package mail

import "time"

// RawMessage is an inbound message exactly as fetched from the mail
// gateway. It is immutable after fetch; pipeline steps read it through
// the processing context and never modify it.
type RawMessage struct {
	ID          string       `json:"id"`
	Subject     string       `json:"subject"`
	Sender      string       `json:"sender"`
	Timestamp   time.Time    `json:"timestamp"`
	Body        string       `json:"body"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

type Attachment struct {
	Filename string `json:"filename"`
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"data,omitempty"`
}
