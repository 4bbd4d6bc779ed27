package game

import (
	"errors"
	"fmt"

	"github.com/zeusync/unseen/internal/core/observability/log"
	"github.com/zeusync/unseen/internal/core/spacetime"
	"github.com/zeusync/unseen/internal/core/worldline"
)

// Session construction errors
var (
	ErrNoPlayer        = errors.New("no player entity in cube")
	ErrMultiplePlayers = errors.New("multiple player entities in cube")
	ErrMissingCube     = errors.New("game state requires a cube")
	ErrInvalidConfig   = errors.New("invalid game config")
)

// Action errors
var (
	ErrNotActive         = errors.New("game is not active")
	ErrMoveBlocked       = errors.New("move blocked")
	ErrNoRiftHere        = errors.New("no rift at current position")
	ErrInvalidRiftTarget = errors.New("rift target is invalid")
	ErrNothingToPush     = errors.New("nothing to push")
	ErrPushBlocked       = errors.New("push blocked")
	ErrPushChainTooLong  = errors.New("push chain too long")
	ErrNothingToPull     = errors.New("nothing to pull")
	ErrNotPullable       = errors.New("entity not pullable")
	ErrInternal          = errors.New("internal engine error")
)

// ErrorCode is a numeric action error code for callers that switch on kinds.
type ErrorCode int

const (
	ErrorCodeNone ErrorCode = 0

	// Rule violations (1000-1999)

	ErrorCodeNotActive         ErrorCode = 1001
	ErrorCodeMoveBlocked       ErrorCode = 1002
	ErrorCodeNoRiftHere        ErrorCode = 1003
	ErrorCodeInvalidRiftTarget ErrorCode = 1004
	ErrorCodeNothingToPush     ErrorCode = 1005
	ErrorCodePushBlocked       ErrorCode = 1006
	ErrorCodePushChainTooLong  ErrorCode = 1007
	ErrorCodeNothingToPull     ErrorCode = 1008
	ErrorCodeNotPullable       ErrorCode = 1009

	// Engine defects (9000-9999)

	ErrorCodeInternal ErrorCode = 9003
	ErrorCodeUnknown  ErrorCode = 9999
)

var errorCodeMap = map[error]ErrorCode{
	ErrNotActive:         ErrorCodeNotActive,
	ErrMoveBlocked:       ErrorCodeMoveBlocked,
	ErrNoRiftHere:        ErrorCodeNoRiftHere,
	ErrInvalidRiftTarget: ErrorCodeInvalidRiftTarget,
	ErrNothingToPush:     ErrorCodeNothingToPush,
	ErrPushBlocked:       ErrorCodePushBlocked,
	ErrPushChainTooLong:  ErrorCodePushChainTooLong,
	ErrNothingToPull:     ErrorCodeNothingToPull,
	ErrNotPullable:       ErrorCodeNotPullable,
	ErrInternal:          ErrorCodeInternal,
}

var codeSentinels = func() map[ErrorCode]error {
	out := make(map[ErrorCode]error, len(errorCodeMap))
	for err, code := range errorCodeMap {
		out[code] = err
	}
	return out
}()

// ActionError is a rejected action. It matches both its kind sentinel and its cause with errors.Is.
type ActionError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

func (e *ActionError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ActionError) Unwrap() []error {
	out := make([]error, 0, 2)
	if kind, ok := codeSentinels[e.Code]; ok {
		out = append(out, kind)
	}
	if e.Cause != nil {
		out = append(out, e.Cause)
	}
	return out
}

// NewActionError creates an action error with an empty context.
func NewActionError(code ErrorCode, message string, cause error) *ActionError {
	return &ActionError{
		Code:    code,
		Message: message,
		Cause:   cause,
		Context: make(map[string]any),
	}
}

// WithContext adds context to the error
func (e *ActionError) WithContext(key string, value any) *ActionError {
	e.Context[key] = value
	return e
}

// IsInternal reports an engine defect rather than a rule violation.
func (e *ActionError) IsInternal() bool {
	return e.Code == ErrorCodeInternal
}

// GetErrorCode returns the error code for a given error
func GetErrorCode(err error) ErrorCode {
	if err == nil {
		return ErrorCodeNone
	}
	if code, exists := errorCodeMap[err]; exists {
		return code
	}

	var actionErr *ActionError
	if errors.As(err, &actionErr) {
		return actionErr.Code
	}

	return ErrorCodeUnknown
}

func notActive(phase Phase) *ActionError {
	return NewActionError(ErrorCodeNotActive, fmt.Sprintf("game is not active (phase: %s)", phase), nil).
		WithContext("phase", phase)
}

func moveBlocked(me *MoveError) *ActionError {
	return NewActionError(ErrorCodeMoveBlocked, "move blocked", me).
		WithContext("target", me.Target)
}

// internalError builds and loudly logs an engine defect.
func internalError(message string, cause error) *ActionError {
	fields := []log.Field{log.String("reason", message)}
	if cause != nil {
		fields = append(fields, log.Error(cause))
	}
	log.Provide().Error("engine invariant violated", fields...)
	return NewActionError(ErrorCodeInternal, "internal error: "+message, cause)
}

// MoveReason classifies why a target position was rejected.
type MoveReason uint8

const (
	MoveOutOfBounds MoveReason = iota + 1
	MoveBlockedByEntity
	MoveSelfIntersection
	MoveInvalidDirection
	MoveTimeOverflow
)

func (r MoveReason) String() string {
	switch r {
	case MoveOutOfBounds:
		return "out of bounds"
	case MoveBlockedByEntity:
		return "blocked"
	case MoveSelfIntersection:
		return "self-intersection"
	case MoveInvalidDirection:
		return "invalid direction"
	case MoveTimeOverflow:
		return "time overflow"
	default:
		return fmt.Sprintf("MoveReason(%d)", uint8(r))
	}
}

// MoveError explains why a single target position is illegal.
// Blocker fields are set for MoveBlockedByEntity, MaxT for MoveTimeOverflow.
type MoveError struct {
	Reason      MoveReason
	Target      spacetime.Position
	BlockerID   spacetime.EntityID
	BlockerType spacetime.EntityType
	MaxT        int
	Err         error
}

func (e *MoveError) Error() string {
	switch e.Reason {
	case MoveBlockedByEntity:
		return fmt.Sprintf("position blocked by %s at %s", e.BlockerType, e.Target)
	case MoveTimeOverflow:
		return fmt.Sprintf("time overflow: t=%d exceeds maximum %d", e.Target.T, e.MaxT)
	case MoveSelfIntersection:
		return fmt.Sprintf("self-intersection: player already visited %s", e.Target)
	default:
		return fmt.Sprintf("%s: %s", e.Reason, e.Target)
	}
}

func (e *MoveError) Unwrap() error {
	return e.Err
}

func outOfBounds(target spacetime.Position, err error) *MoveError {
	return &MoveError{Reason: MoveOutOfBounds, Target: target, Err: err}
}

func blockedBy(target spacetime.Position, blocker spacetime.Entity) *MoveError {
	return &MoveError{
		Reason:      MoveBlockedByEntity,
		Target:      target,
		BlockerID:   blocker.ID(),
		BlockerType: blocker.Type(),
		Err:         spacetime.ErrPositionBlocked,
	}
}

func selfIntersection(target spacetime.Position) *MoveError {
	return &MoveError{Reason: MoveSelfIntersection, Target: target, Err: worldline.ErrSelfIntersection}
}

func timeOverflow(target spacetime.Position, depth int) *MoveError {
	return &MoveError{Reason: MoveTimeOverflow, Target: target, MaxT: depth - 1, Err: spacetime.ErrOutOfBounds}
}
