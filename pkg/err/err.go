package errprocess

import (
	"errors"

	"social_story_service/pkg/logger"
)

// Kind 區分錯誤類別，讓 handler 層決定回應狀態碼
type Kind int

const (
	// KindUnknown unclassified error
	KindUnknown Kind = iota
	// KindValidation malformed or missing required fields
	KindValidation
	// KindNotFound referenced story/message/conversation absent
	KindNotFound
	// KindForbidden ownership/following authorization failure
	KindForbidden
	// KindUnsupportedMedia upload gate rejected the MIME type
	KindUnsupportedMedia
	// KindPayloadTooLarge upload gate rejected the payload size
	KindPayloadTooLarge
	// KindProbeFailure media probe step failed, pipeline aborts
	KindProbeFailure
	// KindTranscodeFailure transcode/thumbnail step failed, pipeline aborts
	KindTranscodeFailure
	// KindStorage persistence layer failure, caller may retry
	KindStorage
)

// Error carry kind & message
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	return e.Msg
}

// Unwrap expose the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// New 記錄並回傳帶類別的錯誤
func New(kind Kind, errMsg string) error {
	logger.Log.Error(errMsg)
	return &Error{Kind: kind, Msg: errMsg}
}

// Wrap 記錄並包裝底層錯誤
func Wrap(kind Kind, errMsg string, err error) error {
	logger.Log.Errorf(errMsg, err)
	return &Error{Kind: kind, Msg: errMsg, Err: err}
}

// KindOf 取出錯誤類別，非 *Error 視為 KindUnknown
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind report whether err carries the given kind
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
