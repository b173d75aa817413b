package model

import "time"

// Record is one normalized inbound communication item awaiting resolution
// to a business entity. Records are produced by the ingestion pipeline and
// are immutable here; the linker only reads them.
type Record struct {
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	ID        string    `json:"id" yaml:"id"`
	Sender    string    `json:"sender" yaml:"sender"`
	Domain    string    `json:"domain" yaml:"domain"`
	Subject   string    `json:"subject" yaml:"subject"`
	ThreadID  string    `json:"thread_id,omitempty" yaml:"thread_id,omitempty"`
	Body      string    `json:"body" yaml:"body"`
}
