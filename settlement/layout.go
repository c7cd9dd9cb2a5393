// Package settlement decodes fixed-width bank settlement files into
// canonical payment events. Two interchange layouts are in circulation,
// distinguished by line width; the layout is detected from the first line of
// the file.
package settlement

// Supported line widths.
const (
	LayoutCompact  = 120
	LayoutExtended = 240
)

// Record type markers (first column of every line).
const (
	recordHeader  = 'H'
	recordDetail  = 'D'
	recordTrailer = 'T'
)

type fieldRange struct {
	start int
	end   int
}

func (f fieldRange) slice(line string) string {
	return line[f.start:f.end]
}

// layoutSpec holds the column offsets of the detail record for one layout.
// Amount fields are zero-padded integer minor units (pya).
type layoutSpec struct {
	width       int
	ourNumber   fieldRange
	amountPaid  fieldRange
	paymentDate fieldRange
	creditDate  fieldRange
	authCode    fieldRange
	channel     fieldRange
}

var layouts = map[int]layoutSpec{
	LayoutCompact: {
		width:       LayoutCompact,
		ourNumber:   fieldRange{1, 21},
		amountPaid:  fieldRange{21, 34},
		paymentDate: fieldRange{34, 42},
		creditDate:  fieldRange{42, 50},
		authCode:    fieldRange{50, 70},
		channel:     fieldRange{70, 73},
	},
	LayoutExtended: {
		width:       LayoutExtended,
		ourNumber:   fieldRange{9, 44},
		amountPaid:  fieldRange{44, 61},
		paymentDate: fieldRange{61, 69},
		creditDate:  fieldRange{69, 77},
		authCode:    fieldRange{77, 117},
		channel:     fieldRange{117, 120},
	},
}

// trailerCount is the zero-padded detail-record count carried on the trailer
// line, identical in both layouts.
var trailerCount = fieldRange{1, 7}
