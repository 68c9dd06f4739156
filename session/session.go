// Package session runs one product editing session: it selects a product
// type, assembles its schema, holds the values being edited and submits the
// normalized record to a sink.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/shopworks/attrkit/multilingual"
	"github.com/shopworks/attrkit/schema"
	"github.com/shopworks/attrkit/validate"
)

// State is the lifecycle state of a session.
type State int

const (
	Unselected State = iota
	Loading
	Ready
	Submitting
	Committed
)

func (s State) String() string {
	switch s {
	case Unselected:
		return "unselected"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Submitting:
		return "submitting"
	case Committed:
		return "committed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ProductTypeSource provides product type definitions.
type ProductTypeSource interface {
	ProductType(ctx context.Context, id string) (*schema.ProductType, error)
}

// RecordSource provides stored records for edit mode.
type RecordSource interface {
	Record(ctx context.Context, id string) (multilingual.NormalizedRecord, error)
}

// Sink persists submitted records and returns their id.
type Sink interface {
	Submit(ctx context.Context, rec multilingual.NormalizedRecord) (string, error)
}

// Result is the outcome of a successful submission.
type Result struct {
	ID string
}

// Ticket identifies one product type selection. Only the ticket of the
// latest selection can be applied.
type Ticket struct {
	ProductType string
	generation  uint64
}

// Option configures a Session.
type Option func(*Session)

// WithRecords sets the source of existing records, required by Open.
func WithRecords(rs RecordSource) Option {
	return func(s *Session) {
		s.records = rs
	}
}

// WithSink sets the sink used by Submit.
func WithSink(sink Sink) Option {
	return func(s *Session) {
		s.sink = sink
	}
}

// WithValidator replaces the default validation registry.
func WithValidator(r *validate.Registry) Option {
	return func(s *Session) {
		s.validator = r
	}
}

// WithGroupRules replaces the default field group rules.
func WithGroupRules(rules []schema.GroupRule) Option {
	return func(s *Session) {
		s.groupRules = rules
	}
}

// Session is one editing session. Its methods may be called from several
// goroutines; fetch responses are commonly applied from another goroutine
// than the one that started the fetch.
type Session struct {
	types      ProductTypeSource
	records    RecordSource
	sink       Sink
	validator  *validate.Registry
	groupRules []schema.GroupRule

	mu          sync.Mutex
	state       State
	generation  uint64
	selected    string
	productType *schema.ProductType
	schema      *schema.Schema
	drift       []schema.Drift
	store       *Store
	flat        multilingual.FlatRecord
	existing    map[string]any
	topLevel    []string
}

// New creates a session reading product types from types.
func New(types ProductTypeSource, opts ...Option) *Session {
	s := &Session{
		types:     types,
		validator: validate.Default(),
		state:     Unselected,
		flat:      multilingual.FlatRecord{Fields: make(map[string]any)},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BeginSelect starts the selection of a product type and returns the
// ticket its fetch result must be applied with. Any earlier ticket becomes
// stale. A session that is submitting or committed cannot change its
// product type and ErrNotReady is returned.
func (s *Session) BeginSelect(id string) (Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Submitting || s.state == Committed {
		return Ticket{}, fmt.Errorf("select %q: %w (state %s)", id, ErrNotReady, s.state)
	}
	s.generation++
	s.selected = id
	s.state = Loading
	return Ticket{ProductType: id, generation: s.generation}, nil
}

// ApplyProductType applies the fetch result of a selection. A stale ticket,
// or one applied when the session is no longer loading, is ignored and
// false is returned. A fetch error does not fail the selection: the schema
// is built from the record being edited instead.
func (s *Session) ApplyProductType(t Ticket, pt *schema.ProductType, err error) bool {
	applied, _ := s.apply(t, pt, err, nil)
	return applied
}

// apply installs the schema of a selection. When rec is non-nil it becomes
// the record being edited, under the same ticket check.
func (s *Session) apply(t Ticket, pt *schema.ProductType, fetchErr error, rec *multilingual.NormalizedRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.generation != s.generation || s.state != Loading {
		slog.Debug("discarding stale product type response",
			"requested", t.ProductType, "selected", s.selected, "state", s.state)
		return false, nil
	}
	if rec != nil {
		s.loadLocked(*rec)
	}

	var schemaErr error
	if fetchErr != nil {
		schemaErr = &SchemaError{ProductType: t.ProductType, Err: fetchErr}
		slog.Warn("product type unavailable, building schema from record",
			"product_type", t.ProductType, "err", fetchErr)
		pt = nil
	}

	sc, drift, err := schema.Assemble(pt, s.existing)
	if err != nil {
		schemaErr = &SchemaError{ProductType: t.ProductType, Err: err}
		slog.Warn("product type has invalid fields, building schema from record",
			"product_type", t.ProductType, "err", err)
		sc, drift, err = schema.Assemble(nil, s.existing)
		if err != nil {
			sc, drift = schema.Empty(t.ProductType), nil
		}
	}
	if sc.ProductType == "" {
		sc.ProductType = t.ProductType
	}

	s.productType = pt
	s.schema = sc
	s.drift = drift
	s.store = NewStore(sc, s.existing)
	s.flat.ProductType = t.ProductType
	s.topLevel = nil
	s.state = Ready
	return true, schemaErr
}

// abandon reverts a selection whose fetch could not complete.
func (s *Session) abandon(t Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.generation != s.generation || s.state != Loading {
		return
	}
	if s.schema != nil {
		s.selected = s.schema.ProductType
		s.state = Ready
		return
	}
	s.state = Unselected
}

// Select selects a product type for a new record, fetching it from the
// product type source. A *SchemaError is returned when the product type
// could not be used; the session is Ready with a fallback schema anyway.
func (s *Session) Select(ctx context.Context, id string) error {
	t, err := s.BeginSelect(id)
	if err != nil {
		return err
	}
	pt, err := s.types.ProductType(ctx, id)
	_, schemaErr := s.apply(t, pt, err, nil)
	return schemaErr
}

// Open starts editing an existing record. The product type and the record
// are fetched concurrently. With an empty typeID the record's own product
// type is used. A failure to load the record fails Open; a failure to load
// the product type is reported as a *SchemaError like Select does. If a
// newer selection starts while Open is fetching, the fetched record is
// dropped.
func (s *Session) Open(ctx context.Context, typeID, recordID string) error {
	if s.records == nil {
		return ErrNoRecordSource
	}

	if typeID == "" {
		rec, err := s.records.Record(ctx, recordID)
		if err != nil {
			return fmt.Errorf("loading record %q: %w", recordID, err)
		}
		t, err := s.BeginSelect(rec.ProductType)
		if err != nil {
			return err
		}
		pt, ptErr := s.types.ProductType(ctx, rec.ProductType)
		_, schemaErr := s.apply(t, pt, ptErr, &rec)
		return schemaErr
	}

	t, err := s.BeginSelect(typeID)
	if err != nil {
		return err
	}

	var (
		pt    *schema.ProductType
		ptErr error
		rec   multilingual.NormalizedRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		pt, ptErr = s.types.ProductType(gctx, typeID)
		return nil
	})
	g.Go(func() error {
		r, err := s.records.Record(gctx, recordID)
		if err != nil {
			return fmt.Errorf("loading record %q: %w", recordID, err)
		}
		rec = r
		return nil
	})
	if err := g.Wait(); err != nil {
		s.abandon(t)
		return err
	}

	_, schemaErr := s.apply(t, pt, ptErr, &rec)
	return schemaErr
}

// loadLocked makes rec the record being edited. s.mu must be held.
func (s *Session) loadLocked(rec multilingual.NormalizedRecord) {
	flat := multilingual.ToEditable(rec)
	s.existing = flat.CustomFields
	flat.CustomFields = nil
	if flat.Fields == nil {
		flat.Fields = make(map[string]any)
	}
	s.flat = flat
}

// State returns the lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ProductType returns the id of the selected product type.
func (s *Session) ProductType() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Definition returns the applied product type, or nil when the session runs
// on a fallback schema.
func (s *Session) Definition() *schema.ProductType {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.productType
}

// Schema returns the current schema, or nil before a product type was
// applied.
func (s *Session) Schema() *schema.Schema {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schema
}

// Groups returns the display grouping of the current schema, using the
// rules set by WithGroupRules when there are any.
func (s *Session) Groups() schema.Groups {
	sc := s.Schema()
	if s.groupRules == nil || sc == nil {
		return sc.Groups()
	}
	return schema.ClassifyWith(s.groupRules, sc.Fields)
}

// Drift returns the stored custom keys the product type does not declare.
func (s *Session) Drift() []schema.Drift {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]schema.Drift(nil), s.drift...)
}

// Values returns a copy of the custom field values.
func (s *Session) Values() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		return map[string]any{}
	}
	return s.store.Values()
}

// SetValue replaces the value of one custom field and clears its error.
func (s *Session) SetValue(name string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Ready {
		return fmt.Errorf("set %q: %w (state %s)", name, ErrNotReady, s.state)
	}
	s.store.Set(name, v)
	return nil
}

// Reset drops every custom field edit.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Ready {
		return fmt.Errorf("reset: %w (state %s)", ErrNotReady, s.state)
	}
	s.store.Reset()
	return nil
}

// Errors returns the custom field errors of the latest validation pass.
func (s *Session) Errors() validate.Errors {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		return validate.Errors{}
	}
	return s.store.Errors()
}

// TopLevelErrors returns the top-level attribute messages of the latest
// validation pass.
func (s *Session) TopLevelErrors() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.topLevel...)
}

// SetField sets a top-level attribute in its flat form.
func (s *Session) SetField(name string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Ready {
		return fmt.Errorf("set %q: %w (state %s)", name, ErrNotReady, s.state)
	}
	s.flat.Fields[name] = v
	return nil
}

// SetSecondary sets the secondary-language text of a bilingual top-level
// attribute.
func (s *Session) SetSecondary(name, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Ready {
		return fmt.Errorf("set %q: %w (state %s)", name, ErrNotReady, s.state)
	}
	if s.flat.Secondary == nil {
		s.flat.Secondary = make(map[string]string)
	}
	s.flat.Secondary[name] = text
	return nil
}

// Flat returns the record in its canonical flat form, custom values
// included.
func (s *Session) Flat() multilingual.FlatRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flatLocked().Canonical()
}

func (s *Session) flatLocked() multilingual.FlatRecord {
	flat := multilingual.FlatRecord{
		ID:          s.flat.ID,
		ProductType: s.flat.ProductType,
		Fields:      maps.Clone(s.flat.Fields),
		Secondary:   maps.Clone(s.flat.Secondary),
	}
	if s.store != nil {
		flat.CustomFields = Coerce(s.schema, s.store.Values())
	}
	return flat
}

// Completion returns how many custom fields hold a value, and how many
// there are.
func (s *Session) Completion() (filled, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		return 0, 0
	}
	return s.store.Completion()
}

// AddField adds a custom field by hand. The schema is replaced and the new
// field starts at its default value.
func (s *Session) AddField(f schema.Field) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Ready {
		return fmt.Errorf("add field %q: %w (state %s)", f.Name, ErrNotReady, s.state)
	}
	sc, err := s.schema.WithField(f)
	if err != nil {
		return fmt.Errorf("add field %q: %w", f.Name, err)
	}
	s.schema = sc
	s.store.adoptSchema(sc)
	return nil
}

// Submit validates the values and hands the normalized record to the sink.
//
// A *ValidationFailure leaves the session Ready with its errors set. A
// *TransportError leaves it Ready with every value kept, so the submission
// can be retried. On success the session is Committed and accepts no more
// edits.
func (s *Session) Submit(ctx context.Context) (Result, error) {
	s.mu.Lock()
	if s.state != Ready {
		state := s.state
		s.mu.Unlock()
		return Result{}, fmt.Errorf("submit: %w (state %s)", ErrNotReady, state)
	}
	if s.sink == nil {
		s.mu.Unlock()
		return Result{}, ErrNoSink
	}
	s.state = Submitting

	errs := s.validator.All(s.schema, s.store.Values())
	rec := multilingual.ToSubmission(s.flatLocked())
	topLevel := multilingual.ValidateTopLevel(rec)

	s.store.SetErrors(errs)
	s.topLevel = topLevel
	if !errs.OK() || len(topLevel) > 0 {
		s.state = Ready
		s.mu.Unlock()
		return Result{}, &ValidationFailure{Fields: errs, TopLevel: topLevel}
	}
	s.mu.Unlock()

	id, err := s.sink.Submit(ctx, rec)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = Ready
		slog.Warn("submission rejected", "product_type", rec.ProductType, "err", err)
		return Result{}, &TransportError{Err: err}
	}
	s.state = Committed
	s.flat.ID = id
	slog.Debug("record committed", "id", id, "product_type", rec.ProductType)
	return Result{ID: id}, nil
}
