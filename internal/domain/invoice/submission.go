package invoice

import (
	"strings"
	"time"

	"invoicer/internal/core/apperror"
)

// Submission is the raw create/edit input as entered in the invoice form.
type Submission struct {
	ClientName    string
	ClientEmail   string
	ClientPhone   string
	ClientAddress string
	PurchaseOrder string
	Description   string

	// InvoiceDate and DueDate use DateLayout; empty means default.
	InvoiceDate string
	DueDate     string

	Departments []string
	Tax         TaxSelection
	Lines       RawLines
}

// departments returns the trimmed, de-duplicated department keys in
// submission order.
func (s Submission) departments() []string {
	seen := make(map[string]bool, len(s.Departments))
	out := make([]string, 0, len(s.Departments))
	for _, d := range s.Departments {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}

// dates resolves the invoice and due dates, defaulting to today and
// today plus dueDays.
func (s Submission) dates(today time.Time, dueDays int) (time.Time, time.Time, error) {
	date := dateOnly(today)
	if v := strings.TrimSpace(s.InvoiceDate); v != "" {
		d, err := time.Parse(DateLayout, v)
		if err != nil {
			return time.Time{}, time.Time{}, apperror.NewValidation("invoice date must be YYYY-MM-DD").WithDetail("field", "invoiceDate")
		}
		date = d
	}

	due := date.AddDate(0, 0, dueDays)
	if v := strings.TrimSpace(s.DueDate); v != "" {
		d, err := time.Parse(DateLayout, v)
		if err != nil {
			return time.Time{}, time.Time{}, apperror.NewValidation("due date must be YYYY-MM-DD").WithDetail("field", "dueDate")
		}
		due = d
	}
	return date, due, nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
