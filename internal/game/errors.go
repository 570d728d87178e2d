package game

import "errors"

// ErrorKind classifies a rejected operation. Kinds are stable and safe to map
// to transport-level statuses.
type ErrorKind string

const (
	KindInvalidFormat       ErrorKind = "invalid_format"
	KindNotFound            ErrorKind = "not_found"
	KindNameTaken           ErrorKind = "name_taken"
	KindNotJoinable         ErrorKind = "not_joinable"
	KindWrongState          ErrorKind = "wrong_state"
	KindNotCreator          ErrorKind = "not_creator"
	KindTooFewPlayers       ErrorKind = "too_few_players"
	KindInvalidRounds       ErrorKind = "invalid_rounds"
	KindWrongPlayer         ErrorKind = "wrong_player"
	KindWrongPhase          ErrorKind = "wrong_phase"
	KindEmptyInput          ErrorKind = "empty_input"
	KindMultiWordInput      ErrorKind = "multi_word_input"
	KindDuplicateSubmission ErrorKind = "duplicate_submission"
)

// Error is a user-facing rejection. Message is human readable and stable.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches any *Error of the same kind, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrInvalidFormat       = &Error{Kind: KindInvalidFormat, Message: "invalid format"}
	ErrNotFound            = &Error{Kind: KindNotFound, Message: "not found"}
	ErrNameTaken           = &Error{Kind: KindNameTaken, Message: "name taken"}
	ErrNotJoinable         = &Error{Kind: KindNotJoinable, Message: "not joinable"}
	ErrWrongState          = &Error{Kind: KindWrongState, Message: "wrong state"}
	ErrNotCreator          = &Error{Kind: KindNotCreator, Message: "not creator"}
	ErrTooFewPlayers       = &Error{Kind: KindTooFewPlayers, Message: "too few players"}
	ErrInvalidRounds       = &Error{Kind: KindInvalidRounds, Message: "invalid rounds"}
	ErrWrongPlayer         = &Error{Kind: KindWrongPlayer, Message: "wrong player"}
	ErrWrongPhase          = &Error{Kind: KindWrongPhase, Message: "wrong phase"}
	ErrEmptyInput          = &Error{Kind: KindEmptyInput, Message: "empty input"}
	ErrMultiWordInput      = &Error{Kind: KindMultiWordInput, Message: "multi-word input"}
	ErrDuplicateSubmission = &Error{Kind: KindDuplicateSubmission, Message: "duplicate submission"}
)

func newError(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// KindOf extracts the kind of a rejection. ok is false for internal errors.
func KindOf(err error) (kind ErrorKind, ok bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
