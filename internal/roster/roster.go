// Package roster owns the record lifecycle: validation, audit timestamps,
// update history and the gender uniqueness rule. It is the only reader and
// writer of the record store.
//
// Two write paths exist side by side:
//
//   - the governed path (CreateFromRequest, UpdateFromRequest) validates,
//     timestamps and grows the update history;
//   - the full-record path (CreateFromRecord, UpdateFromRecord) stores the
//     record exactly as given, for administrative loads.
//
// Only governed creation checks gender uniqueness. Full-record writes and
// governed updates may produce duplicates.
//
// UpdateFromRequest is an unguarded read-then-write: two concurrent updates
// of one id can lose a history entry (last writer wins).
package roster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/roster-api/internal/metrics"
	"github.com/aanand-mishra/roster-api/internal/storage"
	"github.com/aanand-mishra/roster-api/internal/types"
)

// ErrInvalidRequest wraps validator.ValidationErrors when a creation
// request is rejected.
var ErrInvalidRequest = errors.New("invalid request")

// Service implements the roster operations over a storage.Storage.
type Service struct {
	store    storage.Storage
	validate *validator.Validate
	now      func() time.Time
	log      *slog.Logger
	metrics  *metrics.Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New returns a Service backed by store.
func New(store storage.Storage, opts ...Option) *Service {
	s := &Service{
		store:    store,
		validate: validator.New(),
		now:      time.Now,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// ListAll returns every record in store order.
func (s *Service) ListAll(ctx context.Context) ([]types.Student, error) {
	students, err := s.store.FindAll(ctx)
	if err != nil {
		s.metrics.Observe("list_all", metrics.OutcomeError)
		return nil, fmt.Errorf("ListAll: %w", err)
	}
	s.metrics.Observe("list_all", metrics.OutcomeOK)
	return students, nil
}

// GetByID returns StatusAbsent when the id is unknown.
func (s *Service) GetByID(ctx context.Context, id string) (Result, error) {
	const op = "get_by_id"

	student, err := s.store.FindByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		s.metrics.Observe(op, metrics.OutcomeAbsent)
		return Result{Status: StatusAbsent}, nil
	}
	if err != nil {
		s.metrics.Observe(op, metrics.OutcomeError)
		return Result{}, fmt.Errorf("GetByID: %w", err)
	}

	s.metrics.Observe(op, metrics.OutcomeOK)
	return Result{Student: student, Status: StatusOK}, nil
}

// CreateFromRecord stores student as given. The returned record carries
// the id the store assigned, if it had none.
func (s *Service) CreateFromRecord(ctx context.Context, student types.Student) (types.Student, error) {
	saved, err := s.store.Save(ctx, student)
	if err != nil {
		s.metrics.Observe("create_from_record", metrics.OutcomeError)
		return types.Student{}, fmt.Errorf("CreateFromRecord: %w", err)
	}
	s.metrics.Observe("create_from_record", metrics.OutcomeOK)
	return saved, nil
}

// CreateFromRequest is the governed creation path. An invalid request
// fails with ErrInvalidRequest and touches no store. A gender that is
// already on the roster yields StatusRefused and no write.
func (s *Service) CreateFromRequest(ctx context.Context, req types.CreateRequest) (Result, error) {
	const op = "create_from_request"

	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			s.metrics.Observe(op, metrics.OutcomeInvalid)
			return Result{}, fmt.Errorf("%w: %w", ErrInvalidRequest, verrs)
		}
		return Result{}, fmt.Errorf("CreateFromRequest: validate: %w", err)
	}

	exists, err := s.store.ExistsByGender(ctx, req.Gender)
	if err != nil {
		s.metrics.Observe(op, metrics.OutcomeError)
		return Result{}, fmt.Errorf("CreateFromRequest: %w", err)
	}
	if exists {
		s.log.Debug("student creation refused: gender already on roster",
			slog.String("gender", req.Gender))
		s.metrics.Observe(op, metrics.OutcomeRefused)
		return Result{Status: StatusRefused}, nil
	}

	createdAt := s.now()
	student := types.Student{
		Name:          req.Name,
		Age:           req.Age,
		Gender:        req.Gender,
		CreatedAt:     &createdAt,
		UpdateHistory: []time.Time{},
	}

	saved, err := s.store.Save(ctx, student)
	if err != nil {
		s.metrics.Observe(op, metrics.OutcomeError)
		return Result{}, fmt.Errorf("CreateFromRequest: %w", err)
	}

	s.metrics.Observe(op, metrics.OutcomeOK)
	return Result{Student: saved, Status: StatusOK}, nil
}

// UpdateFromRecord overwrites the stored record with student verbatim.
// History is not touched.
func (s *Service) UpdateFromRecord(ctx context.Context, student types.Student) (types.Student, error) {
	saved, err := s.store.Save(ctx, student)
	if err != nil {
		s.metrics.Observe("update_from_record", metrics.OutcomeError)
		return types.Student{}, fmt.Errorf("UpdateFromRecord: %w", err)
	}
	s.metrics.Observe("update_from_record", metrics.OutcomeOK)
	return saved, nil
}

// UpdateFromRequest is the governed update path. It replaces name, age and
// gender, keeps id and createdAt, and appends the current time to the
// update history. An unknown id yields StatusAbsent and no write.
func (s *Service) UpdateFromRequest(ctx context.Context, req types.UpdateRequest) (Result, error) {
	const op = "update_from_request"

	existing, err := s.store.FindByID(ctx, req.ID)
	if errors.Is(err, storage.ErrNotFound) {
		s.metrics.Observe(op, metrics.OutcomeAbsent)
		return Result{Status: StatusAbsent}, nil
	}
	if err != nil {
		s.metrics.Observe(op, metrics.OutcomeError)
		return Result{}, fmt.Errorf("UpdateFromRequest: %w", err)
	}

	history := make([]time.Time, 0, len(existing.UpdateHistory)+1)
	history = append(history, existing.UpdateHistory...)
	history = append(history, s.now())

	replacement := types.Student{
		ID:            existing.ID,
		Name:          req.Name,
		Age:           req.Age,
		Gender:        req.Gender,
		CreatedAt:     existing.CreatedAt,
		UpdateHistory: history,
	}

	saved, err := s.store.Save(ctx, replacement)
	if err != nil {
		s.metrics.Observe(op, metrics.OutcomeError)
		return Result{}, fmt.Errorf("UpdateFromRequest: %w", err)
	}

	s.metrics.Observe(op, metrics.OutcomeOK)
	s.metrics.ObserveHistory(len(saved.UpdateHistory))
	return Result{Student: saved, Status: StatusOK}, nil
}

// DeleteByID removes a record. Unknown ids are not an error.
func (s *Service) DeleteByID(ctx context.Context, id string) error {
	if err := s.store.DeleteByID(ctx, id); err != nil {
		s.metrics.Observe("delete_by_id", metrics.OutcomeError)
		return fmt.Errorf("DeleteByID: %w", err)
	}
	s.metrics.Observe("delete_by_id", metrics.OutcomeOK)
	return nil
}

// InitializeSeedSet resets the store to SeedSet. Meant to run once at
// process start.
func (s *Service) InitializeSeedSet(ctx context.Context) error {
	n, err := Seed(ctx, s.store)
	if err != nil {
		s.metrics.Observe("initialize_seed_set", metrics.OutcomeError)
		return err
	}
	s.log.Info("roster seeded", slog.Int("count", n))
	s.metrics.Observe("initialize_seed_set", metrics.OutcomeOK)
	return nil
}
