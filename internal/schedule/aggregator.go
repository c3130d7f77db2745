package schedule

import (
	"context"
	"fmt"
	"sort"
	"time"

	"bookline/internal/database"
	"bookline/internal/models"
	"bookline/internal/timeutil"

	"github.com/rs/zerolog"
)

// Store is the read surface the aggregator needs.
type Store interface {
	ProviderKnown(ctx context.Context, providerID int64) (bool, error)
	GetOverrideForDate(ctx context.Context, providerID int64, date time.Time) (*models.AvailabilityOverride, error)
	ListTemplatesForWeekday(ctx context.Context, providerID int64, weekday int) ([]*models.AvailabilityTemplate, error)
	ListProviderDayBookings(ctx context.Context, providerID int64, date time.Time) ([]*models.Booking, error)
}

// Aggregator merges a provider's availability and bookings into a single
// ordered timeline for one calendar date. It is a presentation merge: it
// does not detect or resolve overlaps, and it never caches results.
type Aggregator struct {
	store  Store
	logger *zerolog.Logger
}

func NewAggregator(store Store, logger *zerolog.Logger) *Aggregator {
	return &Aggregator{store: store, logger: logger}
}

// statusLabels are display labels for booking schedule items.
var statusLabels = map[string]string{
	models.StatusPending:    "Pending request",
	models.StatusConfirmed:  "Confirmed booking",
	models.StatusInProgress: "In progress",
	models.StatusCompleted:  "Completed",
}

// BuildDay returns the provider's schedule items for a date, sorted by
// start time ascending; at equal start times overrides rank before
// bookings, which rank before template availability. An empty day is a
// valid result; an unknown provider is database.ErrNotFound.
func (a *Aggregator) BuildDay(ctx context.Context, providerID int64, date time.Time) ([]*models.ScheduleItem, error) {
	known, err := a.store.ProviderKnown(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if !known {
		return nil, database.ErrNotFound
	}

	items, err := a.openWindowItems(ctx, providerID, date)
	if err != nil {
		return nil, err
	}

	bookings, err := a.store.ListProviderDayBookings(ctx, providerID, date)
	if err != nil {
		return nil, err
	}
	for _, b := range bookings {
		items = append(items, &models.ScheduleItem{
			StartTime: b.StartTime,
			EndTime:   b.EndTime,
			Kind:      models.KindBooking,
			Title:     statusLabels[b.Status],
			Subtitle:  b.ServiceAddress,
			Status:    b.Status,
			BookingID: b.ID,
		})
	}

	sortItems(items)

	if a.logger != nil {
		a.logger.Debug().
			Int64("provider_id", providerID).
			Str("date", date.Format(timeutil.DateLayout)).
			Int("items", len(items)).
			Msg("schedule built")
	}

	return items, nil
}

// openWindowItems emits the day's open windows: the override exclusively
// when one exists (none at all when it is blocked), otherwise the weekly
// templates for the date's weekday.
func (a *Aggregator) openWindowItems(ctx context.Context, providerID int64, date time.Time) ([]*models.ScheduleItem, error) {
	ov, err := a.store.GetOverrideForDate(ctx, providerID, date)
	if err != nil {
		return nil, err
	}

	var items []*models.ScheduleItem
	if ov != nil {
		if ov.Blocked {
			return nil, nil
		}
		items = append(items, &models.ScheduleItem{
			StartTime: ov.StartTime,
			EndTime:   ov.EndTime,
			Kind:      models.KindOverride,
			Title:     "Special hours",
			Subtitle:  fmt.Sprintf("Open %s-%s for this date only", ov.StartTime, ov.EndTime),
		})
		return items, nil
	}

	templates, err := a.store.ListTemplatesForWeekday(ctx, providerID, int(date.Weekday()))
	if err != nil {
		return nil, err
	}
	for _, tpl := range templates {
		items = append(items, &models.ScheduleItem{
			StartTime: tpl.StartTime,
			EndTime:   tpl.EndTime,
			Kind:      models.KindAvailability,
			Title:     "Available",
		})
	}
	return items, nil
}

// kindRank orders items that start at the same instant: overrides and
// bookings are events, template availability is background context.
var kindRank = map[string]int{
	models.KindOverride:     0,
	models.KindBooking:      1,
	models.KindAvailability: 2,
}

func sortItems(items []*models.ScheduleItem) {
	sort.SliceStable(items, func(i, j int) bool {
		si, errI := timeutil.ParseClock(items[i].StartTime)
		sj, errJ := timeutil.ParseClock(items[j].StartTime)
		if errI != nil || errJ != nil {
			return errJ != nil && errI == nil
		}
		if si != sj {
			return si < sj
		}
		return kindRank[items[i].Kind] < kindRank[items[j].Kind]
	})
}
