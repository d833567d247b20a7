package audit

import (
	"github.com/formbridge/formbridge/internal/types"
)

var schemaVersion = "0.1.0"
var logContext = "audit"

type Disposition string

const (
	DispositionNeutral Disposition = "neutral"
	DispositionGood    Disposition = "good"
	DispositionBad     Disposition = "bad"
)

type EventType string

const (
	EvtSubmissionReceived   EventType = "submission_received"
	EvtSubmissionResult     EventType = "submission_result"
	EvtVerificationFailed   EventType = "verification_failed"
	EvtFileArchived         EventType = "file_archived"
	EvtCacheCleared         EventType = "cache_cleared"
	EvtEntryDeleted         EventType = "entry_deleted"
	EvtFallbackEmail        EventType = "fallback_email"
	EvtFormSettingsModified EventType = "form_settings_modified"
)

type Message struct {
	FormID        *string     `json:"form_id"`
	Integration   *string     `json:"integration"`
	LogContext    string      `json:"log_context" validate:"required"`
	SchemaVersion string      `json:"version"     validate:"required"`
	Disposition   Disposition `json:"disposition" validate:"required"`
	Type          EventType   `json:"event_type"  validate:"required"`

	Timestamp types.UnixMilli `json:"timestamp" validate:"required"`
}

type SubmissionReceivedEvent struct {
	ItemID   string `json:"item_id"   validate:"required"`
	RemoteIP string `json:"remote_ip"`
	Params   int    `json:"params"`
	Files    int    `json:"files"`
}

type SubmissionReceived struct {
	Event SubmissionReceivedEvent `json:"event" validate:"required"`
	Message
}

type SubmissionResultEvent struct {
	Status  types.Status `json:"status"  validate:"required"`
	Message string       `json:"message" validate:"required"`
	Code    int          `json:"code"    validate:"required"`
}

type SubmissionResult struct {
	Event SubmissionResultEvent `json:"event" validate:"required"`
	Message
}

type VerificationFailedEvent struct {
	Reason   string `json:"reason"    validate:"required"`
	RemoteIP string `json:"remote_ip"`
}

type VerificationFailed struct {
	Event VerificationFailedEvent `json:"event" validate:"required"`
	Message
}

type FileArchivedEvent struct {
	BucketName string `json:"bucket_name" validate:"required"`
	ObjectName string `json:"object_name" validate:"required"`
	Field      string `json:"field"       validate:"required"`
	EntryID    string `json:"entry_id"`
}

type FileArchived struct {
	Event FileArchivedEvent `json:"event" validate:"required"`
	Message
}

type CacheClearedEvent struct {
	Keys []string `json:"keys" validate:"required"`
}

type CacheCleared struct {
	Event CacheClearedEvent `json:"event" validate:"required"`
	Message
}

type EntryDeletedEvent struct {
	EntryID string `json:"entry_id" validate:"required"`
}

type EntryDeleted struct {
	Event EntryDeletedEvent `json:"event" validate:"required"`
	Message
}

type FallbackEmailEvent struct {
	Error       *string `json:"error"`
	Message     string  `json:"message"     validate:"required"`
	Attachments int     `json:"attachments"`
}

type FallbackEmail struct {
	Event FallbackEmailEvent `json:"event" validate:"required"`
	Message
}

type FormSettingsModifiedEvent struct {
	Key     string `json:"key"     validate:"required"`
	Deleted bool   `json:"deleted"`
}

type FormSettingsModified struct {
	Event FormSettingsModifiedEvent `json:"event" validate:"required"`
	Message
}
