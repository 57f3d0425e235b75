package executor

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"voxdesk/internal/gcal"
	"voxdesk/internal/nlu"
)

const (
	defaultEventDuration = 60 * time.Minute
	maxEventDuration     = 24 * time.Hour
)

var andSeparator = regexp.MustCompile(`(?i)\s+and\s+`)

// EventDuration converts a length in minutes. Non-positive values give the
// default hour and anything longer than a day is capped.
func EventDuration(minutes int) time.Duration {
	switch {
	case minutes <= 0:
		return defaultEventDuration
	case minutes >= int(maxEventDuration/time.Minute):
		return maxEventDuration
	}
	return time.Duration(minutes) * time.Minute
}

type EventStore interface {
	Insert(ctx context.Context, ev gcal.Event) (gcal.Event, error)
	Upcoming(ctx context.Context, from time.Time, n int) ([]gcal.Event, error)
	Delete(ctx context.Context, id string) error
	Update(ctx context.Context, id string, p gcal.Patch) (gcal.Event, error)
}

type Calendar struct {
	store   EventStore
	gen     TextGenerator
	resolve func(name string) string
	logger  *slog.Logger
	parser  *when.Parser
	now     func() time.Time
}

// NewCalendar builds the calendar handler. resolve maps participant names to
// addresses and may be nil.
func NewCalendar(store EventStore, gen TextGenerator, resolve func(string) string, logger *slog.Logger) *Calendar {
	if logger == nil {
		logger = slog.Default()
	}
	if resolve == nil {
		resolve = func(s string) string { return s }
	}

	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	return &Calendar{store: store, gen: gen, resolve: resolve, logger: logger, parser: w, now: time.Now}
}

func (c *Calendar) Route() Route {
	return Route{Icon: "📅", Handle: c.Handle}
}

func (c *Calendar) Handle(ctx context.Context, slots nlu.Slots) string {
	if c.store == nil {
		return warnf("Calendar is not configured.")
	}

	ev, err := c.Create(ctx, slots, Transcript(ctx))
	if err != nil {
		return failf("Failed to create event: %v", err)
	}
	return fmt.Sprintf("Event created: %s at %s (id: %s)",
		ev.Title, ev.Start.In(time.Local).Format("Jan 02 2006 03:04 PM"), ev.ID)
}

// Create inserts an event described by slots. transcript, when present, is
// used for the description and as a last resort for the start time.
func (c *Calendar) Create(ctx context.Context, slots nlu.Slots, transcript string) (gcal.Event, error) {
	title := slots.First("title", "summary")
	if title == "" {
		title = "Meeting"
	}

	now := c.now()

	start, ok := c.ParseWhen(slots.First("datetime", "when", "start"), now)
	if !ok && transcript != "" {
		start, ok = c.ParseWhen(transcript, now)
	}
	if !ok {
		start = DefaultStart(now)
	}

	duration := defaultEventDuration
	if n, ok := slots.Int("duration"); ok {
		duration = EventDuration(n)
	}

	emails, names := c.splitParticipants(slots.First("participants", "people", "to"))

	description := slots.Text("description", "")
	if description == "" {
		description = c.describe(ctx, transcript)
	}
	if description == "" {
		source := transcript
		if source == "" {
			source = title
		}
		description = "Created via Voice Assistant: " + truncate(source, 200)
	}
	if len(names) > 0 {
		description += "\nParticipants: " + strings.Join(names, ", ")
	}

	return c.store.Insert(ctx, gcal.Event{
		Title:       title,
		Description: description,
		Location:    slots.Text("location", ""),
		Start:       start,
		End:         start.Add(duration),
		Attendees:   emails,
	})
}

func (c *Calendar) List(ctx context.Context, n int) ([]gcal.Event, error) {
	return c.store.Upcoming(ctx, c.now(), n)
}

func (c *Calendar) Delete(ctx context.Context, id string) error {
	return c.store.Delete(ctx, id)
}

// Reschedule moves an event to the natural-language time when.
func (c *Calendar) Reschedule(ctx context.Context, id, whenText string, duration time.Duration) (gcal.Event, error) {
	start, ok := c.ParseWhen(whenText, c.now())
	if !ok {
		return gcal.Event{}, fmt.Errorf("could not understand time %q", whenText)
	}
	if duration <= 0 {
		duration = defaultEventDuration
	}
	duration = min(duration, maxEventDuration)
	return c.store.Update(ctx, id, gcal.Patch{Start: &start, Duration: duration})
}

var isoLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseWhen understands ISO timestamps and English phrases such as
// "next monday at 10am" relative to now.
func (c *Calendar) ParseWhen(text string, now time.Time) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}

	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, text, now.Location()); err == nil {
			return t, true
		}
	}

	r, err := c.parser.Parse(text, now)
	if err != nil || r == nil {
		return time.Time{}, false
	}
	return r.Time, true
}

// DefaultStart is tomorrow at 09:00 local time.
func DefaultStart(now time.Time) time.Time {
	t := now.AddDate(0, 0, 1)
	return time.Date(t.Year(), t.Month(), t.Day(), 9, 0, 0, 0, now.Location())
}

// SplitParticipants splits "Raj, Asha and bob@x.io" into its names.
func SplitParticipants(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		for _, p := range andSeparator.Split(part, -1) {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func (c *Calendar) splitParticipants(s string) (emails, names []string) {
	for _, p := range SplitParticipants(s) {
		addr := c.resolve(p)
		if ValidEmail(addr) {
			emails = append(emails, addr)
		} else {
			names = append(names, p)
		}
	}
	return emails, names
}

const descriptionPrompt = `You are concise. Generate a 1-2 sentence calendar event description from this user sentence.

User: %q

Description:`

func (c *Calendar) describe(ctx context.Context, transcript string) string {
	if c.gen == nil || transcript == "" {
		return ""
	}
	out, err := c.gen.Generate(ctx, fmt.Sprintf(descriptionPrompt, transcript))
	if err != nil {
		c.logger.Debug("description generation failed", "err", err)
		return ""
	}
	return truncate(firstLine(out), 400)
}
