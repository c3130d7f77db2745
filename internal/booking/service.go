package booking

import (
	"context"
	"fmt"
	"time"

	"bookline/internal/database"
	"bookline/internal/metrics"
	"bookline/internal/models"
	"bookline/internal/timeutil"

	"github.com/rs/zerolog"
)

// Store is the persistence surface the service needs. *database.DB
// satisfies it; tests may substitute their own.
type Store interface {
	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	UpdateBookingStatusGuarded(ctx context.Context, id int64, from, to string) error
	ListBookings(ctx context.Context, partyID int64, role string, filter database.BookingFilter) ([]*models.Booking, error)
	ListProviderDayBookings(ctx context.Context, providerID int64, date time.Time) ([]*models.Booking, error)
	ListTemplatesForWeekday(ctx context.Context, providerID int64, weekday int) ([]*models.AvailabilityTemplate, error)
	GetOverrideForDate(ctx context.Context, providerID int64, date time.Time) (*models.AvailabilityOverride, error)
}

// Notifier receives a payload-free "something changed" signal for a party
// after every durable mutation.
type Notifier interface {
	Notify(ctx context.Context, partyID int64)
}

type Service struct {
	store    Store
	notifier Notifier
	logger   *zerolog.Logger
}

func NewService(store Store, notifier Notifier, logger *zerolog.Logger) *Service {
	return &Service{
		store:    store,
		notifier: notifier,
		logger:   logger,
	}
}

// CreateRequest carries everything needed to open a new booking.
type CreateRequest struct {
	CustomerID     int64
	ProviderID     int64
	ServiceID      int64
	Date           time.Time
	StartTime      string
	EndTime        string
	ServiceAddress string
	TotalPrice     float64
}

// Create validates the request against the provider's open windows and
// existing non-terminal bookings, then persists the booking with status
// pending and times normalized to canonical "HH:MM". Rejections leave no
// trace in the store.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Booking, error) {
	start, err := timeutil.ParseClock(req.StartTime)
	if err != nil {
		return nil, ErrInvalidTimeRange
	}
	end, err := timeutil.ParseClock(req.EndTime)
	if err != nil {
		return nil, ErrInvalidTimeRange
	}
	if start >= end {
		return nil, ErrInvalidTimeRange
	}
	if req.TotalPrice < 0 {
		return nil, ErrInvalidPrice
	}

	inside, err := s.insideOpenWindow(ctx, req.ProviderID, req.Date, start, end)
	if err != nil {
		return nil, err
	}
	if !inside {
		return nil, ErrOutsideAvailability
	}

	existing, err := s.store.ListProviderDayBookings(ctx, req.ProviderID, req.Date)
	if err != nil {
		return nil, err
	}
	for _, b := range existing {
		// Terminal bookings no longer hold their slot.
		if models.IsTerminal(b.Status) {
			continue
		}
		bStart, err := timeutil.ParseClock(b.StartTime)
		if err != nil {
			continue
		}
		bEnd, err := timeutil.ParseClock(b.EndTime)
		if err != nil {
			continue
		}
		if timeutil.Overlaps(start, end, bStart, bEnd) {
			return nil, ErrOverlaps
		}
	}

	b := &models.Booking{
		CustomerID:     req.CustomerID,
		ProviderID:     req.ProviderID,
		ServiceID:      req.ServiceID,
		Status:         models.StatusPending,
		ScheduledDate:  timeutil.DateOnly(req.Date),
		StartTime:      timeutil.FormatClock(start),
		EndTime:        timeutil.FormatClock(end),
		ServiceAddress: req.ServiceAddress,
		TotalPrice:     req.TotalPrice,
	}
	if err := s.store.CreateBooking(ctx, b); err != nil {
		return nil, err
	}

	metrics.IncBookingCreated()
	s.logEvent(b, "booking created")
	s.notifyParties(ctx, b)

	return b, nil
}

// insideOpenWindow checks [start, end) against the day's open windows:
// the override when one exists (blocked means no windows at all), the
// weekly templates otherwise.
func (s *Service) insideOpenWindow(ctx context.Context, providerID int64, date time.Time, start, end int) (bool, error) {
	ov, err := s.store.GetOverrideForDate(ctx, providerID, date)
	if err != nil {
		return false, err
	}
	if ov != nil {
		if ov.Blocked {
			return false, nil
		}
		return windowContains(ov.StartTime, ov.EndTime, start, end), nil
	}

	templates, err := s.store.ListTemplatesForWeekday(ctx, providerID, int(date.Weekday()))
	if err != nil {
		return false, err
	}
	for _, tpl := range templates {
		if windowContains(tpl.StartTime, tpl.EndTime, start, end) {
			return true, nil
		}
	}
	return false, nil
}

func windowContains(winStart, winEnd string, start, end int) bool {
	ws, err := timeutil.ParseClock(winStart)
	if err != nil {
		return false
	}
	we, err := timeutil.ParseClock(winEnd)
	if err != nil {
		return false
	}
	return timeutil.Contains(ws, we, start, end)
}

// Transition applies a state-machine action through the store's
// compare-and-swap. The status read here is the expected value of the
// conditional write: if another caller moved the booking in between, the
// store reports ErrStaleState and nothing is overwritten.
func (s *Service) Transition(ctx context.Context, bookingID int64, action Action, callerID int64, role string) error {
	rule, ok := RuleFor(action)
	if !ok {
		return fmt.Errorf("unknown action %q", action)
	}

	b, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}

	if err := authorize(rule, b, callerID, role); err != nil {
		metrics.IncTransition(string(action), "unauthorized")
		return err
	}

	if !rule.allowsFrom(b.Status) {
		metrics.IncTransition(string(action), "invalid")
		return ErrInvalidTransition
	}

	if err := s.store.UpdateBookingStatusGuarded(ctx, bookingID, b.Status, rule.To); err != nil {
		metrics.IncTransition(string(action), "conflict")
		return err
	}

	metrics.IncTransition(string(action), "ok")
	b.Status = rule.To
	s.logEvent(b, "booking transitioned")

	// Notify only after the conditional write has been applied.
	s.notifyParties(ctx, b)

	return nil
}

func authorize(rule Rule, b *models.Booking, callerID int64, role string) error {
	switch role {
	case models.RoleProvider:
		if callerID != b.ProviderID {
			return ErrUnauthorized
		}
		return nil
	case models.RoleCustomer:
		if rule.ProviderOnly && !rule.CustomerAlso {
			return ErrUnauthorized
		}
		if callerID != b.CustomerID {
			return ErrUnauthorized
		}
		return nil
	default:
		return ErrUnauthorized
	}
}

func (s *Service) Accept(ctx context.Context, bookingID, callerID int64, role string) error {
	return s.Transition(ctx, bookingID, ActionAccept, callerID, role)
}

func (s *Service) Decline(ctx context.Context, bookingID, callerID int64, role string) error {
	return s.Transition(ctx, bookingID, ActionDecline, callerID, role)
}

func (s *Service) Start(ctx context.Context, bookingID, callerID int64, role string) error {
	return s.Transition(ctx, bookingID, ActionStart, callerID, role)
}

func (s *Service) Complete(ctx context.Context, bookingID, callerID int64, role string) error {
	return s.Transition(ctx, bookingID, ActionComplete, callerID, role)
}

func (s *Service) Cancel(ctx context.Context, bookingID, callerID int64, role string) error {
	return s.Transition(ctx, bookingID, ActionCancel, callerID, role)
}

func (s *Service) Get(ctx context.Context, bookingID int64) (*models.Booking, error) {
	return s.store.GetBooking(ctx, bookingID)
}

// List returns bookings visible to a party in a role, optionally filtered
// by status set and date range.
func (s *Service) List(ctx context.Context, partyID int64, role string, filter database.BookingFilter) ([]*models.Booking, error) {
	return s.store.ListBookings(ctx, partyID, role, filter)
}

func (s *Service) notifyParties(ctx context.Context, b *models.Booking) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, b.ProviderID)
	s.notifier.Notify(ctx, b.CustomerID)
}

func (s *Service) logEvent(b *models.Booking, msg string) {
	if s.logger == nil {
		return
	}
	s.logger.Info().
		Int64("booking_id", b.ID).
		Int64("provider_id", b.ProviderID).
		Int64("customer_id", b.CustomerID).
		Str("status", b.Status).
		Msg(msg)
}
