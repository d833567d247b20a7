package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/formbridge/formbridge/internal/logger"
	"github.com/formbridge/formbridge/internal/types"
)

type Context struct {
	FormID      *string
	Integration *string
}

func newMessage(c Context, t EventType, disposition Disposition) Message {
	return Message{
		FormID:        c.FormID,
		Integration:   c.Integration,
		LogContext:    logContext,
		SchemaVersion: schemaVersion,
		Disposition:   disposition,
		Type:          t,
		Timestamp:     types.UnixMilli(time.Now().UTC().UnixMilli()),
	}
}

func emit(t EventType, event any) {
	evtStr, err := json.Marshal(event)
	if err != nil {
		logger.Logger.Error("could not serialize audit event", "eventType", t, "error", err)
		return
	}

	fmt.Println(string(evtStr))
}

func dispForStatus(status types.Status) Disposition {
	switch status {
	case types.StatusSuccess:
		return DispositionGood
	case types.StatusError:
		return DispositionBad
	default:
		return DispositionNeutral
	}
}

func LogSubmissionReceived(c Context, itemID string, remoteIP string, params int, files int) {
	event := SubmissionReceived{Message: newMessage(c, EvtSubmissionReceived, DispositionNeutral)}

	event.Event.ItemID = itemID
	event.Event.RemoteIP = remoteIP
	event.Event.Params = params
	event.Event.Files = files

	emit(event.Type, event)
}

func LogSubmissionResult(c Context, envelope types.Envelope) {
	event := SubmissionResult{Message: newMessage(c, EvtSubmissionResult, dispForStatus(envelope.Status))}

	event.Event.Status = envelope.Status
	event.Event.Message = envelope.Message
	event.Event.Code = envelope.Code

	emit(event.Type, event)
}

func LogVerificationFailed(c Context, reason string, remoteIP string) {
	event := VerificationFailed{Message: newMessage(c, EvtVerificationFailed, DispositionBad)}

	event.Event.Reason = reason
	event.Event.RemoteIP = remoteIP

	emit(event.Type, event)
}

func LogFileArchived(c Context, bucketName string, objectName string, field string, entryID string) {
	event := FileArchived{Message: newMessage(c, EvtFileArchived, DispositionNeutral)}

	event.Event.BucketName = bucketName
	event.Event.ObjectName = objectName
	event.Event.Field = field
	event.Event.EntryID = entryID

	emit(event.Type, event)
}

func LogCacheCleared(c Context, keys []string) {
	event := CacheCleared{Message: newMessage(c, EvtCacheCleared, DispositionNeutral)}

	event.Event.Keys = keys

	emit(event.Type, event)
}

func LogEntryDeleted(c Context, entryID string) {
	event := EntryDeleted{Message: newMessage(c, EvtEntryDeleted, DispositionNeutral)}

	event.Event.EntryID = entryID

	emit(event.Type, event)
}

// err is nil when the mail went out
func LogFallbackEmail(c Context, message string, attachments int, err error) {
	disposition := DispositionNeutral
	var errStr *string
	if err != nil {
		disposition = DispositionBad
		s := err.Error()
		errStr = &s
	}

	event := FallbackEmail{Message: newMessage(c, EvtFallbackEmail, disposition)}

	event.Event.Message = message
	event.Event.Attachments = attachments
	event.Event.Error = errStr

	emit(event.Type, event)
}

func LogFormSettingsModified(c Context, key string, deleted bool) {
	event := FormSettingsModified{Message: newMessage(c, EvtFormSettingsModified, DispositionNeutral)}

	event.Event.Key = key
	event.Event.Deleted = deleted

	emit(event.Type, event)
}
