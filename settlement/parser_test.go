package settlement

import (
	"fmt"
	"strings"
	"testing"

	"bitbucket.org/mmdatafocus/billing_recon/models"
)

func padRight(s string, width int) string {
	if len(s) > width {
		return s[:width]
	}
	return s + strings.Repeat(" ", width-len(s))
}

func zeroPad(n int64, width int) string {
	return fmt.Sprintf("%0*d", width, n)
}

func compactDetail(ourNumber string, amountMinor int64, paymentDate, creditDate, authCode, channel string) string {
	line := "D" +
		padRight(ourNumber, 20) +
		zeroPad(amountMinor, 13) +
		paymentDate +
		creditDate +
		padRight(authCode, 20) +
		padRight(channel, 3)
	return padRight(line, LayoutCompact)
}

func compactHeader() string {
	return padRight("H", LayoutCompact)
}

func compactTrailer(count int) string {
	return padRight("T"+zeroPad(int64(count), 6), LayoutCompact)
}

func extendedDetail(ourNumber string, amountMinor int64, paymentDate string) string {
	line := "D" +
		strings.Repeat(" ", 8) +
		padRight(ourNumber, 35) +
		zeroPad(amountMinor, 17) +
		paymentDate +
		"00000000" +
		padRight("AUTH", 40) +
		padRight("APP", 3)
	return padRight(line, LayoutExtended)
}

func TestParseCompactLayout(t *testing.T) {
	file := strings.Join([]string{
		compactHeader(),
		compactDetail("INV-2026-0001", 1550000, "20260815", "20260817", "KBZ-9001", "QR "),
		compactDetail("INV-2026-0002", 250000, "20260816", "00000000", "KBZ-9002", "APP"),
		compactTrailer(2),
	}, "\n")

	result, err := Parse([]byte(file), "kbzpay")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if result.Layout != LayoutCompact {
		t.Fatalf("layout = %d, want %d", result.Layout, LayoutCompact)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected row errors: %v", result.Errors)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(result.Rows))
	}

	first := result.Rows[0].Event
	if first.OurNumber != "INV-2026-0001" {
		t.Errorf("our number = %q", first.OurNumber)
	}
	if got := first.AmountPaid.String(); got != "15500" {
		t.Errorf("amount = %s, want 15500", got)
	}
	if first.PaymentDate.Format("20060102") != "20260815" {
		t.Errorf("payment date = %s", first.PaymentDate)
	}
	if first.CreditDate == nil || first.CreditDate.Format("20060102") != "20260817" {
		t.Errorf("credit date = %v", first.CreditDate)
	}
	if first.SourceType != models.EventSourceBatch {
		t.Errorf("source type = %s", first.SourceType)
	}
	if first.ProviderCode != "kbzpay" {
		t.Errorf("provider = %s", first.ProviderCode)
	}

	second := result.Rows[1].Event
	if second.CreditDate != nil {
		t.Errorf("zeroed credit date should be nil, got %v", second.CreditDate)
	}
}

func TestParseExtendedLayout(t *testing.T) {
	file := extendedDetail("CONTRACT-778899", 999950, "20260801")

	result, err := Parse([]byte(file), "ayapay")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if result.Layout != LayoutExtended {
		t.Fatalf("layout = %d, want %d", result.Layout, LayoutExtended)
	}
	if len(result.Rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(result.Rows))
	}
	event := result.Rows[0].Event
	if event.OurNumber != "CONTRACT-778899" {
		t.Errorf("our number = %q", event.OurNumber)
	}
	if got := event.AmountPaid.String(); got != "9999.5" {
		t.Errorf("amount = %s, want 9999.5", got)
	}
}

func TestParseOneBadRowDoesNotAbort(t *testing.T) {
	lines := []string{compactHeader()}
	for i := 1; i <= 50; i++ {
		line := compactDetail(fmt.Sprintf("INV-%04d", i), int64(i)*1000, "20260815", "00000000", "AUTH", "QR ")
		if i == 17 {
			// Corrupt the amount field of exactly one row.
			line = line[:21] + "XXXXXXXXXXXXX" + line[34:]
		}
		lines = append(lines, line)
	}
	lines = append(lines, compactTrailer(50))

	result, err := Parse([]byte(strings.Join(lines, "\n")), "kbzpay")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(result.Rows) != 49 {
		t.Errorf("rows = %d, want 49", len(result.Rows))
	}
	if len(result.Errors) != 1 {
		t.Fatalf("errors = %d, want 1", len(result.Errors))
	}
	if result.Errors[0].LineNumber != 18 {
		t.Errorf("bad row reported at line %d, want 18", result.Errors[0].LineNumber)
	}
}

func TestParseTrailerMismatch(t *testing.T) {
	file := strings.Join([]string{
		compactHeader(),
		compactDetail("INV-1", 1000, "20260815", "00000000", "A", "QR "),
		compactTrailer(5),
	}, "\n")

	result, err := Parse([]byte(file), "kbzpay")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(result.Rows) != 1 {
		t.Errorf("rows = %d, want 1", len(result.Rows))
	}
	if len(result.Errors) != 1 {
		t.Fatalf("errors = %d, want 1", len(result.Errors))
	}
	if !strings.Contains(result.Errors[0].Message, "trailer count") {
		t.Errorf("unexpected error: %s", result.Errors[0].Message)
	}
}

func TestParseRowLevelFailures(t *testing.T) {
	blankOurNumber := compactDetail("", 1000, "20260815", "00000000", "A", "QR ")
	badDate := compactDetail("INV-1", 1000, "2026AB15", "00000000", "A", "QR ")
	shortLine := "D short"
	unknownType := padRight("X garbage", LayoutCompact)

	file := strings.Join([]string{blankOurNumber, badDate, shortLine, unknownType}, "\n")
	result, err := Parse([]byte(file), "kbzpay")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(result.Rows) != 0 {
		t.Errorf("rows = %d, want 0", len(result.Rows))
	}
	if len(result.Errors) != 4 {
		t.Fatalf("errors = %d, want 4: %v", len(result.Errors), result.Errors)
	}
}

func TestParseFileLevelFailures(t *testing.T) {
	if _, err := Parse(nil, "kbzpay"); err == nil {
		t.Error("empty file should fail")
	}
	if _, err := Parse([]byte("D too narrow for any layout"), "kbzpay"); err == nil {
		t.Error("unknown width should fail")
	}
	if _, err := Parse([]byte("\n\n  \n"), "kbzpay"); err == nil {
		t.Error("blank-only file should fail")
	}
}
