package settlement

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/billing_recon/models"
	"github.com/shopspring/decimal"
)

// RowError is a row-level parse failure. One bad row never aborts the rest
// of the file; errors are collected and reported per line.
type RowError struct {
	LineNumber int
	Message    string
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %s", e.LineNumber, e.Message)
}

// Row is one successfully decoded detail record.
type Row struct {
	LineNumber int
	Event      models.PaymentEvent
}

// Result carries everything decoded from one file, in file order.
type Result struct {
	Layout int
	Rows   []Row
	Errors []RowError
}

// TotalDetailRows counts every detail line seen, good or bad.
func (r Result) TotalDetailRows() int {
	return len(r.Rows) + len(r.Errors)
}

// Parse decodes a raw settlement file. providerCode stamps each event with
// the originating bank. The returned error is file-level only (empty file or
// undetectable layout); everything row-shaped is reported in Result.Errors.
func Parse(raw []byte, providerCode string) (Result, error) {
	lines := splitLines(string(raw))
	if len(lines) == 0 {
		return Result{}, fmt.Errorf("settlement file is empty")
	}

	spec, ok := layouts[len(lines[0])]
	if !ok {
		return Result{}, fmt.Errorf("unknown settlement layout: first line is %d columns", len(lines[0]))
	}

	result := Result{Layout: spec.width}
	for i, line := range lines {
		lineNo := i + 1
		if len(line) != spec.width {
			result.Errors = append(result.Errors, RowError{lineNo, fmt.Sprintf("expected %d columns, got %d", spec.width, len(line))})
			continue
		}

		switch line[0] {
		case recordHeader:
			// Header carries bank metadata we already know from the
			// account configuration.
			continue
		case recordTrailer:
			if err := checkTrailer(line, result.TotalDetailRows()); err != nil {
				result.Errors = append(result.Errors, RowError{lineNo, err.Error()})
			}
			continue
		case recordDetail:
			event, err := parseDetail(spec, line, providerCode)
			if err != nil {
				result.Errors = append(result.Errors, RowError{lineNo, err.Error()})
				continue
			}
			result.Rows = append(result.Rows, Row{LineNumber: lineNo, Event: event})
		default:
			result.Errors = append(result.Errors, RowError{lineNo, fmt.Sprintf("unknown record type %q", string(line[0]))})
		}
	}
	return result, nil
}

func parseDetail(spec layoutSpec, line, providerCode string) (models.PaymentEvent, error) {
	ourNumber := strings.TrimSpace(spec.ourNumber.slice(line))
	if ourNumber == "" {
		return models.PaymentEvent{}, fmt.Errorf("our number is blank")
	}

	amount, err := parseMinorUnits(spec.amountPaid.slice(line))
	if err != nil {
		return models.PaymentEvent{}, fmt.Errorf("amount: %w", err)
	}

	paymentDate, err := parseDate(spec.paymentDate.slice(line))
	if err != nil {
		return models.PaymentEvent{}, fmt.Errorf("payment date: %w", err)
	}

	event := models.PaymentEvent{
		ProviderCode:       providerCode,
		OurNumber:          ourNumber,
		AmountPaid:         amount,
		PaymentDate:        paymentDate,
		AuthenticationCode: strings.TrimSpace(spec.authCode.slice(line)),
		Channel:            strings.TrimSpace(spec.channel.slice(line)),
		SourceType:         models.EventSourceBatch,
	}

	// Credit date is optional; all zeros means not yet settled.
	if raw := spec.creditDate.slice(line); strings.Trim(raw, "0 ") != "" {
		creditDate, err := parseDate(raw)
		if err != nil {
			return models.PaymentEvent{}, fmt.Errorf("credit date: %w", err)
		}
		event.CreditDate = &creditDate
	}

	if err := event.Validate(); err != nil {
		return models.PaymentEvent{}, err
	}
	return event, nil
}

func checkTrailer(line string, detailRows int) error {
	raw := strings.TrimSpace(trailerCount.slice(line))
	count, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("trailer count %q is not numeric", raw)
	}
	if count != detailRows {
		return fmt.Errorf("trailer count %d does not match %d detail rows", count, detailRows)
	}
	return nil
}

// parseMinorUnits decodes a zero-padded integer minor-unit amount into an
// exact decimal. Binary floating point never touches money.
func parseMinorUnits(raw string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(raw)
	n, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%q is not a minor-unit amount", trimmed)
	}
	if n < 0 {
		return decimal.Zero, fmt.Errorf("amount %d is negative", n)
	}
	return decimal.New(n, -2), nil
}

func parseDate(raw string) (time.Time, error) {
	return time.Parse("20060102", strings.TrimSpace(raw))
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
