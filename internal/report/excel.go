package report

import (
	"fmt"                            // For error wrapping and cell names
	"shaadi_planner/internal/domain" // Guest and room models

	"github.com/xuri/excelize/v2" // Excel workbook writer
)

// ContentTypeXLSX is the MIME type of generated workbooks.
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// sheetData is one worksheet: rows of cells plus the indexes of rows to embolden.
type sheetData struct {
	name   string
	rows   [][]any
	bold   []int
	widths map[string]float64
}

func (s *sheetData) add(row ...any) {
	s.rows = append(s.rows, row)
}

func (s *sheetData) addBold(row ...any) {
	s.bold = append(s.bold, len(s.rows))
	s.rows = append(s.rows, row)
}

// writeWorkbook renders sheets into an xlsx file.
func writeWorkbook(sheets []*sheetData) ([]byte, error) {
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	f := excelize.NewFile() // Starts with one sheet named Sheet1
	defer f.Close()         // Release temp files held by excelize

	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create bold style: %w", err)
	}

	for i, s := range sheets {
		if i == 0 {
			// Reuse the default sheet for the first one
			if err := f.SetSheetName("Sheet1", s.name); err != nil {
				return nil, fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return nil, fmt.Errorf("failed to create sheet %s: %w", s.name, err)
		}
		for r, row := range s.rows {
			if len(row) == 0 {
				continue // Spacer row
			}
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				return nil, fmt.Errorf("failed to convert coordinates: %w", err)
			}
			values := row
			if err := f.SetSheetRow(s.name, cell, &values); err != nil {
				return nil, fmt.Errorf("failed to write row %d of %s: %w", r+1, s.name, err)
			}
		}
		for _, r := range s.bold {
			end, err := excelize.CoordinatesToCellName(max(len(s.rows[r]), 1), r+1)
			if err != nil {
				return nil, fmt.Errorf("failed to convert coordinates: %w", err)
			}
			if err := f.SetCellStyle(s.name, fmt.Sprintf("A%d", r+1), end, boldStyle); err != nil {
				return nil, fmt.Errorf("failed to set style: %w", err)
			}
		}
		for col, w := range s.widths {
			if err := f.SetColWidth(s.name, col, col, w); err != nil {
				return nil, fmt.Errorf("failed to set column width: %w", err)
			}
		}
	}
	f.SetActiveSheet(0) // Open on the first sheet

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// RoomLayoutExcel renders rooms with their guests followed by the unassigned queue.
func RoomLayoutExcel(rooms []domain.Room, unassigned []domain.Guest) ([]byte, error) {
	s := &sheetData{name: "Room Layout", widths: map[string]float64{"A": 24, "B": 12, "C": 18, "D": 60}}
	s.addBold("ROOM LAYOUT")
	s.addBold("Room Name", "Capacity", "Current Occupancy", "Guests")
	for _, room := range rooms {
		s.add(room.Name, room.EffectiveCapacity(), len(room.Guests), guestNames(room.Guests))
	}
	s.add() // Spacer before the queue
	s.addBold("UNASSIGNED GUESTS (QUEUE)")
	s.addBold("Name", "Mobile", "Gender")
	for _, g := range unassigned {
		s.add(g.Name, g.Mobile, g.Gender)
	}
	return writeWorkbook([]*sheetData{s})
}

// travelSheet renders the grouped guests of one direction.
func travelSheet(guests []domain.Guest, d Direction, opts Options) *sheetData {
	name, title, timeHeader := "Arrivals", "GUEST TRAVEL REPORT - ARRIVALS", "Arrival Time"
	if d == Departure {
		name, title, timeHeader = "Departures", "GUEST TRAVEL REPORT - DEPARTURES", "Departure Time"
	}
	s := &sheetData{name: name, widths: map[string]float64{"A": 18, "B": 14, "C": 24, "D": 30, "E": 16}}
	s.addBold(title)
	s.addBold("Flight/Train No", "PNR", timeHeader, "Guest Name", "Mobile")
	for _, group := range GroupTravel(guests, d) {
		for i, g := range group.Guests {
			_, pnr, _ := travelLeg(g, d)
			key, at := "", ""
			if i == 0 { // Group key and time only on the first row
				key, at = group.Key, opts.FormatTime(group.Time, "-")
			}
			s.add(key, orDash(pnr), at, g.Name, g.Mobile)
		}
		s.add() // Spacer after each group
	}
	return s
}

// TravelExcel renders arrival and/or departure sheets depending on mode.
func TravelExcel(guests []domain.Guest, mode Mode, opts Options) ([]byte, error) {
	var sheets []*sheetData
	if mode.Includes(Arrival) {
		sheets = append(sheets, travelSheet(guests, Arrival, opts))
	}
	if mode.Includes(Departure) {
		sheets = append(sheets, travelSheet(guests, Departure, opts))
	}
	return writeWorkbook(sheets)
}

// GuestListExcel renders every guest with room and travel details.
func GuestListExcel(guests []domain.Guest, opts Options) ([]byte, error) {
	s := &sheetData{name: "Guests", widths: map[string]float64{"B": 28, "C": 16, "F": 20, "G": 22, "H": 22}}
	s.addBold("#", "Name", "Mobile", "Gender", "Side", "Room", "Arrival", "Departure", "Tentative", "Notified")
	for i, g := range guests {
		room := "-"
		if g.Room != nil {
			room = g.Room.Name
		}
		s.add(i+1, g.Name, g.Mobile, g.Gender, orDash(g.Side), room,
			opts.FormatTime(g.ArrivalTime, "-"), opts.FormatTime(g.DepartureTime, "-"),
			yesNo(g.IsTentative), yesNo(g.IsNotified))
	}
	return writeWorkbook([]*sheetData{s})
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
