package report

import (
	"fmt"                            // For text formatting
	"io"                             // Output stream
	"os"                             // For the logo file check
	"shaadi_planner/internal/domain" // Guest and room models
	"strings"                        // For truncation

	"github.com/go-pdf/fpdf"     // PDF writer
	"github.com/sirupsen/logrus" // Logging library
)

// ContentTypePDF is the MIME type of generated documents.
const ContentTypePDF = "application/pdf"

type rgb struct{ r, g, b int }

var (
	brandColor = rgb{79, 70, 229}
	grayColor  = rgb{107, 114, 128}
	cardColor  = rgb{243, 244, 246}
	zebraColor = rgb{249, 250, 251}
	inkColor   = rgb{17, 24, 39}
	textColor  = rgb{31, 41, 55}
	softText   = rgb{55, 65, 81}
	alertColor = rgb{220, 38, 38}
)

// Page geometry in points on A4 (595x842).
const (
	marginLeft   = 50.0
	contentWidth = 500.0
	groupBreakY  = 650.0
	rowBreakY    = 750.0
)

// document wraps fpdf with the house style of every report.
type document struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func newDocument(subtitle string, opts Options) *document {
	pdf := fpdf.New("P", "pt", "A4", "") // Portrait, points, A4
	pdf.SetMargins(marginLeft, marginLeft, marginLeft)
	pdf.SetAutoPageBreak(true, marginLeft)
	pdf.AddPage()
	d := &document{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")} // cp1252 for the core fonts

	if opts.LogoPath != "" {
		if _, err := os.Stat(opts.LogoPath); err == nil {
			pdf.ImageOptions(opts.LogoPath, 460, 45, 80, 0, false, fpdf.ImageOptions{ReadDpi: true}, 0, "") // Top right
			if pdf.Err() {                                                                                  // A broken logo must not fail the report
				logrus.WithField("path", opts.LogoPath).Warnf("report logo skipped: %v", pdf.Error())
				pdf.ClearError()
			}
		} else {
			logrus.WithField("path", opts.LogoPath).Warn("report logo not found")
		}
	}

	d.color(brandColor)
	pdf.SetFont("Helvetica", "B", 24)
	pdf.CellFormat(0, 30, d.tr("Wedding Planner"), "", 1, "L", false, 0, "")
	d.color(grayColor)
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 14, d.tr(fmt.Sprintf("%s • Generated %s", subtitle, opts.now().In(opts.location()).Format("02 Jan 2006"))), "", 1, "L", false, 0, "")
	pdf.Ln(20)
	return d
}

func (d *document) color(c rgb) {
	d.pdf.SetTextColor(c.r, c.g, c.b)
}

func (d *document) fill(c rgb, x, y, w, h float64) {
	d.pdf.SetFillColor(c.r, c.g, c.b)
	d.pdf.Rect(x, y, w, h, "F")
}

// section draws an underlined section title.
func (d *document) section(title string, c rgb) {
	d.color(c)
	d.pdf.SetFont("Helvetica", "B", 18)
	d.pdf.CellFormat(0, 24, d.tr(title), "", 1, "L", false, 0, "")
	y := d.pdf.GetY()
	d.pdf.SetDrawColor(c.r, c.g, c.b)
	d.pdf.SetLineWidth(2)
	d.pdf.Line(marginLeft, y, marginLeft+contentWidth, y)
	d.pdf.Ln(14)
}

// note writes an italic gray line.
func (d *document) note(text string, x float64) {
	d.color(grayColor)
	d.pdf.SetFont("Helvetica", "I", 10)
	d.pdf.SetX(x)
	d.pdf.CellFormat(0, 14, d.tr(text), "", 1, "L", false, 0, "")
}

// bullet writes one indented list line, breaking pages near the bottom.
func (d *document) bullet(text string, c rgb) {
	if d.pdf.GetY() > rowBreakY {
		d.pdf.AddPage()
	}
	d.color(c)
	d.pdf.SetFont("Helvetica", "", 11)
	d.pdf.SetX(75)
	d.pdf.CellFormat(0, 16, d.tr("  • "+text), "", 1, "L", false, 0, "")
}

// card draws a gray header band with a bold title and a right-hand caption.
func (d *document) card(title string, titleColor rgb, caption string, height float64) {
	if d.pdf.GetY() > groupBreakY {
		d.pdf.AddPage()
	}
	y := d.pdf.GetY()
	d.fill(cardColor, marginLeft, y, contentWidth, height)
	d.color(titleColor)
	d.pdf.SetFont("Helvetica", "B", 12)
	d.pdf.SetXY(60, y+6)
	d.pdf.CellFormat(230, 14, d.tr(title), "", 0, "L", false, 0, "")
	d.color(grayColor)
	d.pdf.SetFont("Helvetica", "", 10)
	d.pdf.SetXY(300, y+6)
	d.pdf.CellFormat(240, 14, d.tr(caption), "", 0, "R", false, 0, "")
	d.pdf.SetY(y + height + 5)
}

func (d *document) output(w io.Writer) error {
	return d.pdf.Output(w)
}

// RoomLayoutPDF renders room cards and, on a new page, the unassigned queue.
func RoomLayoutPDF(w io.Writer, rooms []domain.Room, unassigned []domain.Guest, opts Options) error {
	d := newDocument("Room Assignment Report", opts)
	d.section("ASSIGNED ROOMS", brandColor)

	for _, room := range rooms {
		caption := fmt.Sprintf("Capacity: %d", room.EffectiveCapacity())
		if room.HasExtraBed {
			caption += " [Extra Bed Active]"
		}
		d.card(room.Name, inkColor, caption, 25)
		if len(room.Guests) == 0 {
			d.note("No guests assigned to this room.", 75)
		}
		for _, g := range room.Guests {
			label := "" // Gender marker, none for Other
			switch g.Gender {
			case domain.GenderMale:
				label = " (M)"
			case domain.GenderFemale:
				label = " (F)"
			}
			d.bullet(fmt.Sprintf("%s%s | %s", g.Name, label, g.Mobile), softText)
		}
		d.pdf.Ln(14)
	}
	if len(rooms) == 0 {
		d.note("No rooms created yet.", marginLeft)
	}

	if len(unassigned) > 0 {
		d.pdf.AddPage() // Queue gets its own page
		d.section("UNASSIGNED GUESTS (QUEUE)", alertColor)
		for _, g := range unassigned {
			d.bullet(fmt.Sprintf("%-30s | %s | %s", g.Name, g.Mobile, g.Gender), textColor)
		}
	}
	return d.output(w)
}

// TravelPDF renders arrival and/or departure groups depending on mode.
// With both directions, departures start on a new page.
func TravelPDF(w io.Writer, guests []domain.Guest, mode Mode, opts Options) error {
	d := newDocument("Travel Coordination Report", opts)
	first := true
	for _, dir := range []Direction{Arrival, Departure} {
		if !mode.Includes(dir) {
			continue
		}
		if !first {
			d.pdf.AddPage() // Departures start on a new page
		}
		first = false

		title, empty := "GUEST ARRIVALS", "No arrival details recorded."
		if dir == Departure {
			title, empty = "GUEST DEPARTURES", "No departure details recorded."
		}
		d.section(title, brandColor)

		groups := GroupTravel(guests, dir)
		if len(groups) == 0 {
			d.note(empty, marginLeft)
		}
		for _, group := range groups {
			d.card(group.Key, brandColor, "Time: "+opts.FormatTime(group.Time, "N/A"), 35)
			for _, g := range group.Guests {
				_, pnr, _ := travelLeg(g, dir)
				d.bullet(fmt.Sprintf("%s | %s | PNR: %s", g.Name, g.Mobile, orDash(pnr)), textColor)
			}
			d.pdf.Ln(16)
		}
	}
	return d.output(w)
}

var guestTableColumns = []struct {
	title string
	x     float64
	width float64
}{
	{"#", 60, 36},
	{"Name", 100, 190},
	{"Mobile", 300, 110},
	{"Room", 420, 125},
}

func (d *document) guestTableHeader() {
	y := d.pdf.GetY()
	d.fill(cardColor, marginLeft, y, contentWidth, 25)
	d.color(inkColor)
	d.pdf.SetFont("Helvetica", "B", 10)
	for _, col := range guestTableColumns {
		d.pdf.SetXY(col.x, y+6)
		d.pdf.CellFormat(col.width, 14, col.title, "", 0, "L", false, 0, "")
	}
	d.pdf.SetY(y + 30)
}

// GuestListPDF renders all guests as a table, repeating the header on each page.
func GuestListPDF(w io.Writer, guests []domain.Guest, opts Options) error {
	d := newDocument("Master Guest List", opts)
	d.section("ALL GUESTS", brandColor)
	d.guestTableHeader()

	for i, g := range guests {
		if d.pdf.GetY() > rowBreakY {
			d.pdf.AddPage()
			d.guestTableHeader() // Repeat the header on every page
		}
		y := d.pdf.GetY()
		if i%2 == 1 { // Zebra rows
			d.fill(zebraColor, marginLeft, y-2, contentWidth, 20)
		}
		room := "-"
		if g.Room != nil {
			room = g.Room.Name
		}
		cells := []string{fmt.Sprint(i + 1), truncate(g.Name, 40), g.Mobile, room}
		d.color(softText)
		d.pdf.SetFont("Helvetica", "", 10)
		for c, col := range guestTableColumns {
			d.pdf.SetXY(col.x, y)
			d.pdf.CellFormat(col.width, 16, d.tr(cells[c]), "", 0, "L", false, 0, "")
		}
		d.pdf.SetY(y + 20)
	}
	if len(guests) == 0 {
		d.note("No guests added yet.", marginLeft)
	}
	return d.output(w)
}

func truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n-1]) + "…"
}
