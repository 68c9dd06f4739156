package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopworks/attrkit/validate"
)

var (
	// ErrNotReady is returned by edits and submissions outside the Ready state.
	ErrNotReady = errors.New("session not ready")

	// ErrNoRecordSource is returned by Open on a session without a RecordSource.
	ErrNoRecordSource = errors.New("session has no record source")

	// ErrNoSink is returned by Submit on a session without a Sink.
	ErrNoSink = errors.New("session has no sink")
)

// SchemaError reports a product type that could not be fetched or whose
// declared fields are invalid. The session recovers with a schema built from
// the record being edited, or an empty one.
type SchemaError struct {
	ProductType string
	Err         error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("product type %q unavailable: %v", e.ProductType, e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// ValidationFailure reports a submission blocked by invalid values. Fields
// holds per-field messages for custom fields; TopLevel holds messages about
// the record's top-level attributes.
type ValidationFailure struct {
	Fields   validate.Errors
	TopLevel []string
}

func (e *ValidationFailure) Error() string {
	msgs := append([]string(nil), e.TopLevel...)
	for _, name := range e.Fields.Fields() {
		msgs = append(msgs, e.Fields[name])
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// TransportError reports a submission rejected by the sink. The session
// keeps its values so the submission can be retried.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("submission failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
