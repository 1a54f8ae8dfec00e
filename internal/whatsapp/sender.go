package whatsapp

import (
	"context"                         // For cancellation
	"shaadi_planner/internal/metrics" // Message counters
	"time"                            // For send intervals

	"golang.org/x/time/rate" // Pacing between sends
)

// Recipient is one guest to notify.
type Recipient struct {
	ID     uint   // Guest ID
	Name   string // Guest name
	Mobile string // As stored, normalised before sending
	Room   string // Room name, empty when unallocated
}

// Message is what every recipient receives.
type Message struct {
	Template string // Text with placeholders, empty for image-only sends
	Date     string // Value for {{date}}
	Venue    string // Value for {{venue}}
	Image    []byte // Optional picture sent before the text
}

// Result status values.
const (
	ResultSent   = "sent"
	ResultFailed = "failed"
)

// Result is the outcome for one recipient.
type Result struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Sender sends messages one at a time with a fixed pause in between.
type Sender struct {
	interval    time.Duration
	countryCode string
}

// NewSender returns a Sender pausing interval between two sends.
func NewSender(interval time.Duration, countryCode string) *Sender {
	return &Sender{interval: interval, countryCode: countryCode}
}

// Send delivers msg to every recipient in order. onSent runs after each
// successful delivery. Once ctx is done the remaining recipients fail.
func (s *Sender) Send(ctx context.Context, sess Session, recipients []Recipient, msg Message, onSent func(Recipient)) []Result {
	limit := rate.Inf // No pause when interval is zero
	if s.interval > 0 {
		limit = rate.Every(s.interval)
	}
	limiter := rate.NewLimiter(limit, 1) // Burst of one: first send goes out at once

	results := make([]Result, 0, len(recipients))
	for _, r := range recipients {
		res := Result{ID: r.ID, Name: r.Name, Status: ResultSent}
		if err := s.sendOne(ctx, limiter, sess, r, msg); err != nil {
			res.Status, res.Error = ResultFailed, err.Error()
		} else if onSent != nil {
			onSent(r)
		}
		metrics.RecordMessage(res.Status == ResultSent) // Count every attempt
		results = append(results, res)
	}
	return results
}

func (s *Sender) sendOne(ctx context.Context, limiter *rate.Limiter, sess Session, r Recipient, msg Message) error {
	phone, err := NormalizePhone(r.Mobile, s.countryCode)
	if err != nil {
		return err
	}
	if err := limiter.Wait(ctx); err != nil {
		return err // Cancelled while waiting for our turn
	}
	if len(msg.Image) > 0 {
		if err := sess.SendImage(ctx, phone, msg.Image); err != nil {
			return err
		}
	}
	if msg.Template == "" {
		return nil // Image only
	}
	text := Render(msg.Template, Vars{Name: r.Name, Room: r.Room, Mobile: r.Mobile, Date: msg.Date, Venue: msg.Venue})
	return sess.SendText(ctx, phone, text)
}

// Count tallies sent and failed results.
func Count(results []Result) (sent, failed int) {
	for _, r := range results {
		if r.Status == ResultSent {
			sent++
		} else {
			failed++
		}
	}
	return sent, failed
}
