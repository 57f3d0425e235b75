package gcal

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

type Event struct {
	ID          string
	Title       string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	Attendees   []string
	Link        string
}

// Patch lists the fields Update changes. Nil fields are kept.
type Patch struct {
	Title       *string
	Description *string
	Start       *time.Time
	Duration    time.Duration
}

type Store struct {
	svc        *calendar.Service
	calendarID string
	timeZone   string
}

func NewStore(ctx context.Context, httpClient *http.Client, calendarID, timeZone string, opts ...option.ClientOption) (*Store, error) {
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating calendar service: %w", err)
	}
	if calendarID == "" {
		calendarID = "primary"
	}
	return &Store{svc: svc, calendarID: calendarID, timeZone: timeZone}, nil
}

func (s *Store) Insert(ctx context.Context, ev Event) (Event, error) {
	created, err := s.svc.Events.Insert(s.calendarID, s.toAPI(ev)).
		SendUpdates("all").
		Context(ctx).
		Do()
	if err != nil {
		return Event{}, fmt.Errorf("inserting event: %w", err)
	}
	return fromAPI(created), nil
}

func (s *Store) Upcoming(ctx context.Context, from time.Time, n int) ([]Event, error) {
	res, err := s.svc.Events.List(s.calendarID).
		TimeMin(from.Format(time.RFC3339)).
		MaxResults(int64(n)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}

	out := make([]Event, 0, len(res.Items))
	for _, it := range res.Items {
		out = append(out, fromAPI(it))
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.svc.Events.Delete(s.calendarID, id).Context(ctx).Do(); err != nil {
		return fmt.Errorf("deleting event %s: %w", id, err)
	}
	return nil
}

func (s *Store) Update(ctx context.Context, id string, p Patch) (Event, error) {
	ev, err := s.svc.Events.Get(s.calendarID, id).Context(ctx).Do()
	if err != nil {
		return Event{}, fmt.Errorf("fetching event %s: %w", id, err)
	}

	if p.Title != nil {
		ev.Summary = *p.Title
	}
	if p.Description != nil {
		ev.Description = *p.Description
	}
	if p.Start != nil {
		d := p.Duration
		if d <= 0 {
			d = time.Hour
		}
		ev.Start = s.dateTime(*p.Start)
		ev.End = s.dateTime(p.Start.Add(d))
	}

	updated, err := s.svc.Events.Update(s.calendarID, id, ev).Context(ctx).Do()
	if err != nil {
		return Event{}, fmt.Errorf("updating event %s: %w", id, err)
	}
	return fromAPI(updated), nil
}

func (s *Store) dateTime(t time.Time) *calendar.EventDateTime {
	return &calendar.EventDateTime{
		DateTime: t.Format(time.RFC3339),
		TimeZone: s.timeZone,
	}
}

func (s *Store) toAPI(ev Event) *calendar.Event {
	out := &calendar.Event{
		Summary:     ev.Title,
		Description: ev.Description,
		Location:    ev.Location,
		Start:       s.dateTime(ev.Start),
		End:         s.dateTime(ev.End),
		Reminders: &calendar.EventReminders{
			Overrides: []*calendar.EventReminder{
				{Method: "popup", Minutes: 10},
			},
			ForceSendFields: []string{"UseDefault"},
		},
	}
	for _, email := range ev.Attendees {
		out.Attendees = append(out.Attendees, &calendar.EventAttendee{Email: email})
	}
	return out
}

func fromAPI(ev *calendar.Event) Event {
	out := Event{
		ID:          ev.Id,
		Title:       ev.Summary,
		Description: ev.Description,
		Location:    ev.Location,
		Start:       parseDateTime(ev.Start),
		End:         parseDateTime(ev.End),
		Link:        ev.HtmlLink,
	}
	for _, a := range ev.Attendees {
		out.Attendees = append(out.Attendees, a.Email)
	}
	return out
}

func parseDateTime(dt *calendar.EventDateTime) time.Time {
	if dt == nil {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, dt.DateTime); err == nil {
		return t
	}
	// all-day events carry only a date
	if t, err := time.ParseInLocation("2006-01-02", dt.Date, time.Local); err == nil {
		return t
	}
	return time.Time{}
}
