package service

import (
	"context"
	"time"

	"github.com/agritrack/machinery-booking/internal/model"
)

// findAvailableMachine returns the first machine in the district (registry
// name order) that is available and holds no active booking on the date,
// or nil when every machine is taken.
func (e *BookingEngine) findAvailableMachine(ctx context.Context, district string, date time.Time) (*model.Machine, error) {
	machines, err := e.machines.ListAvailableByDistrict(ctx, district)
	if err != nil {
		return nil, err
	}
	for i := range machines {
		taken, err := e.bookings.HasActiveOnDate(ctx, machines[i].ID, date)
		if err != nil {
			return nil, err
		}
		if !taken {
			return &machines[i], nil
		}
	}
	return nil, nil
}

// findNextAvailableDate scans start+1 .. start+AltSearchDays inclusive and
// returns the first date with a free machine. The window is deliberately
// shorter than the booking horizon so alternates stay close to the
// farmer's original intent.
func (e *BookingEngine) findNextAvailableDate(ctx context.Context, district string, start time.Time) (time.Time, *model.Machine, error) {
	for i := 1; i <= e.policy.AltSearchDays; i++ {
		date := start.AddDate(0, 0, i)
		machine, err := e.findAvailableMachine(ctx, district, date)
		if err != nil {
			return time.Time{}, nil, err
		}
		if machine != nil {
			return date, machine, nil
		}
	}
	return time.Time{}, nil, nil
}
