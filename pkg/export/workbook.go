package export

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/dd0wney/cluso-flownet/pkg/analytics"
)

const maxSheetName = 31

// WorkbookSink writes one sheet per unit. Column A lists input streams and
// column B output streams, each from row 1 down.
type WorkbookSink struct {
	Target Target
	File   string
}

func (s *WorkbookSink) Name() string { return "workbook" }

func (s *WorkbookSink) Write(ctx context.Context, report *analytics.Report) error {
	f, err := BuildWorkbook(report.Sheets)
	if err != nil {
		return err
	}
	defer f.Close()

	return writeArtifact(ctx, s.Target, s.File, func(w io.Writer) error {
		return f.Write(w)
	})
}

// BuildWorkbook lays sheets out in a new workbook. The default sheet is
// reused for the first unit, so a network without units yields a workbook
// with one empty sheet.
func BuildWorkbook(sheets []analytics.UnitSheet) (*excelize.File, error) {
	f := excelize.NewFile()
	defaultSheet := f.GetSheetName(0)
	titles := SheetTitles(sheets)

	for i, sheet := range sheets {
		title := titles[i]
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, title); err != nil {
				f.Close()
				return nil, fmt.Errorf("rename sheet for unit %q: %w", sheet.Unit, err)
			}
		} else if _, err := f.NewSheet(title); err != nil {
			f.Close()
			return nil, fmt.Errorf("create sheet for unit %q: %w", sheet.Unit, err)
		}

		for row, pair := range sheet.Rows() {
			for col, value := range pair {
				if value == "" {
					continue
				}
				cell, err := excelize.CoordinatesToCellName(col+1, row+1)
				if err != nil {
					f.Close()
					return nil, err
				}
				if err := f.SetCellStr(title, cell, value); err != nil {
					f.Close()
					return nil, fmt.Errorf("write %s!%s: %w", title, cell, err)
				}
			}
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

// SheetTitles maps each unit to a valid, unique worksheet title. Characters
// Excel forbids are dropped, titles are cut to 31 characters and clashes
// (compared case-insensitively) get a " (n)" suffix.
func SheetTitles(sheets []analytics.UnitSheet) []string {
	titles := make([]string, len(sheets))
	used := make(map[string]bool, len(sheets))

	for i, sheet := range sheets {
		base := sanitizeSheetName(sheet.Unit)
		title := base
		for n := 2; used[strings.ToLower(title)]; n++ {
			suffix := " (" + strconv.Itoa(n) + ")"
			title = truncateRunes(base, maxSheetName-utf8.RuneCountInString(suffix)) + suffix
		}
		used[strings.ToLower(title)] = true
		titles[i] = title
	}
	return titles
}

func sanitizeSheetName(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return -1
		}
		return r
	}, name)
	cleaned = strings.Trim(strings.TrimSpace(cleaned), "'")
	if cleaned == "" {
		cleaned = "Unit"
	}
	return truncateRunes(cleaned, maxSheetName)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
