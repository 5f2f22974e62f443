// Package slip renders and emails the registration slip a candidate
// presents at the exam venue. Sending is always best-effort: a mail
// outage must never roll back a completed registration.
package slip

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"time"
)

//go:embed slip.html.tmpl
var slipTemplate string

var tmpl = template.Must(template.New("slip").Parse(slipTemplate))

// Slip carries everything the venue staff need to admit a candidate.
type Slip struct {
	FullName   string
	Email      string
	ExamNumber string
	ExamType   string
	ExamDate   time.Time
	MDA        string
	IssuedAt   time.Time
}

// Render produces the HTML body of the slip email.
func Render(slip Slip) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, slip); err != nil {
		return "", fmt.Errorf("render registration slip: %w", err)
	}
	return buf.String(), nil
}

// Sender delivers a rendered slip to the candidate.
type Sender interface {
	Send(ctx context.Context, slip Slip) error
}
