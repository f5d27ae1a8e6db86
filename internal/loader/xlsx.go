package loader

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/callscope/internal/analysis"
)

type xlsxLoader struct{}

func (xlsxLoader) CanLoad(filename string) bool {
	return hasExt(filename, ".xlsx", ".xlsm")
}

// Load reads the selected worksheet (or the first one) with its first row as
// the header. Shared strings and inline strings are resolved, and numbers in
// date-formatted cells become RFC 3339 text; other cells keep their stored text.
func (xlsxLoader) Load(p string, opt Options) (*analysis.Frame, error) {
	zr, err := zip.OpenReader(p)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer zr.Close()

	wb := readZipFile(&zr.Reader, "xl/workbook.xml")
	sheets := parseWorkbook(wb)
	rels := parseRelationships(readZipFile(&zr.Reader, "xl/_rels/workbook.xml.rels"))
	target, err := sheetTarget(sheets, rels, opt.Sheet)
	if err != nil {
		return nil, fmt.Errorf("select sheet in %s: %w", filepath.Base(p), err)
	}
	data := readZipFile(&zr.Reader, target)
	if data == nil {
		return nil, fmt.Errorf("read xlsx: worksheet %s not found", target)
	}
	shared := parseSharedStrings(readZipFile(&zr.Reader, "xl/sharedStrings.xml"))

	rr := newSheetRowReader(data, shared)
	rr.dates = parseDateStyles(readZipFile(&zr.Reader, "xl/styles.xml"))
	rr.date1904 = uses1904Epoch(wb)
	header, ok := rr.Next()
	if !ok || len(header) == 0 {
		return nil, fmt.Errorf("read xlsx %s: %w", filepath.Base(p), ErrNoHeader)
	}
	var rows [][]string
	for {
		row, ok := rr.Next()
		if !ok {
			break
		}
		rows = append(rows, row)
	}
	return analysis.NewFrame(filepath.Base(p), header, rows, opt.Parse), nil
}

type wbSheet struct {
	Name    string
	SheetID int
	RID     string
}

func sheetTarget(sheets []wbSheet, rels map[string]string, name string) (string, error) {
	if name != "" {
		for _, s := range sheets {
			if strings.EqualFold(s.Name, name) {
				if rel, ok := rels[s.RID]; ok {
					return normalizeRelPath(rel), nil
				}
			}
		}
		names := make([]string, len(sheets))
		for i, s := range sheets {
			names[i] = s.Name
		}
		return "", fmt.Errorf("sheet %q not found (available: %s)", name, strings.Join(names, ", "))
	}
	if len(sheets) > 0 {
		if rel, ok := rels[sheets[0].RID]; ok {
			return normalizeRelPath(rel), nil
		}
	}
	return "xl/worksheets/sheet1.xml", nil
}

// parseWorkbook extracts sheet entries in workbook order.
func parseWorkbook(data []byte) []wbSheet {
	if len(data) == 0 {
		return nil
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	var sheets []wbSheet
	for {
		tok, err := dec.Token()
		if err != nil {
			return sheets
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "sheet" {
			continue
		}
		var s wbSheet
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "name":
				s.Name = a.Value
			case "sheetId":
				s.SheetID = atoiSafe(a.Value)
			case "id":
				s.RID = a.Value
			}
		}
		sheets = append(sheets, s)
	}
}

// parseRelationships maps relationship ids to their targets.
func parseRelationships(data []byte) map[string]string {
	out := map[string]string{}
	if len(data) == 0 {
		return out
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "Relationship" {
			continue
		}
		var id, target string
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "Id":
				id = a.Value
			case "Target":
				target = a.Value
			}
		}
		if id != "" && target != "" {
			out[id] = target
		}
	}
}

func readZipFile(zr *zip.Reader, name string) []byte {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil
		}
		defer rc.Close()
		b, _ := io.ReadAll(rc)
		return b
	}
	return nil
}

func parseSharedStrings(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	var out []string
	var buf strings.Builder
	var inT bool
	for {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch se.Name.Local {
			case "si":
				buf.Reset()
			case "t":
				inT = true
			}
		case xml.EndElement:
			switch se.Name.Local {
			case "t":
				inT = false
			case "si":
				out = append(out, buf.String())
				buf.Reset()
			}
		case xml.CharData:
			if inT {
				buf.Write(se)
			}
		}
	}
}

// sheetRowReader streams rows out of a worksheet part.
type sheetRowReader struct {
	dec      *xml.Decoder
	shared   []string
	dates    map[int]bool // cellXfs index -> date format
	date1904 bool
	inRow    bool
	row      []string
	next     int
}

func newSheetRowReader(data []byte, shared []string) *sheetRowReader {
	return &sheetRowReader{dec: xml.NewDecoder(bytes.NewReader(data)), shared: shared}
}

// Next returns the following row, with gaps between referenced cells left empty.
func (r *sheetRowReader) Next() ([]string, bool) {
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return nil, false
		}
		switch se := tok.(type) {
		case xml.StartElement:
			if se.Name.Local == "row" {
				r.inRow, r.row, r.next = true, nil, 0
				continue
			}
			if !r.inRow || se.Name.Local != "c" {
				continue
			}
			var ref, typ string
			style := -1
			for _, a := range se.Attr {
				switch a.Name.Local {
				case "r":
					ref = a.Value
				case "t":
					typ = a.Value
				case "s":
					style = atoiSafe(a.Value)
				}
			}
			col := colIndexFromRef(ref)
			if col < 0 {
				col = r.next
			}
			r.next = col + 1
			val := r.readCellValue(typ)
			if (typ == "" || typ == "n") && r.dates[style] {
				val = serialToTime(val, r.date1904)
			}
			if len(r.row) <= col {
				grown := make([]string, col+1)
				copy(grown, r.row)
				r.row = grown
			}
			r.row[col] = val
		case xml.EndElement:
			if se.Name.Local == "row" {
				r.inRow = false
				return r.row, true
			}
		}
	}
}

func (r *sheetRowReader) readCellValue(typ string) string {
	var val string
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return val
		}
		switch se := tok.(type) {
		case xml.StartElement:
			if se.Name.Local != "v" && se.Name.Local != "t" {
				continue
			}
			var sb strings.Builder
			for {
				tk, err := r.dec.Token()
				if err != nil {
					break
				}
				if ed, ok := tk.(xml.EndElement); ok && (ed.Name.Local == "v" || ed.Name.Local == "t") {
					break
				}
				if ch, ok := tk.(xml.CharData); ok {
					sb.Write(ch)
				}
			}
			val = sb.String()
		case xml.EndElement:
			if se.Name.Local != "c" {
				continue
			}
			if typ == "s" {
				idx := atoiSafe(val)
				if idx >= 0 && idx < len(r.shared) {
					return r.shared[idx]
				}
				return ""
			}
			return val
		}
	}
}

// builtinDateFormats are the predefined numFmtIds that display dates or times.
var builtinDateFormats = map[int]bool{
	14: true, 15: true, 16: true, 17: true, 18: true, 19: true, 20: true, 21: true, 22: true,
	27: true, 28: true, 29: true, 30: true, 31: true, 32: true, 33: true, 34: true, 35: true, 36: true,
	45: true, 46: true, 47: true, 50: true, 51: true, 52: true, 53: true, 54: true, 55: true,
	56: true, 57: true, 58: true,
}

// parseDateStyles reads styles.xml and reports which cellXfs entries use a
// date or time number format.
func parseDateStyles(data []byte) map[int]bool {
	out := map[int]bool{}
	if len(data) == 0 {
		return out
	}
	custom := map[int]bool{}
	dec := xml.NewDecoder(bytes.NewReader(data))
	inXfs := false
	xf := 0
	for {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch se.Name.Local {
			case "numFmt":
				id, code := -1, ""
				for _, a := range se.Attr {
					switch a.Name.Local {
					case "numFmtId":
						id = atoiSafe(a.Value)
					case "formatCode":
						code = a.Value
					}
				}
				custom[id] = isDateFormat(code)
			case "cellXfs":
				inXfs = true
			case "xf":
				if !inXfs {
					continue
				}
				for _, a := range se.Attr {
					if a.Name.Local != "numFmtId" {
						continue
					}
					id := atoiSafe(a.Value)
					if d, ok := custom[id]; ok {
						out[xf] = d
					} else {
						out[xf] = builtinDateFormats[id]
					}
				}
				xf++
			}
		case xml.EndElement:
			if se.Name.Local == "cellXfs" {
				inXfs = false
			}
		}
	}
}

// isDateFormat reports whether a custom format code shows date or time parts.
// Quoted literals, escapes and bracketed sections like [Red] are ignored.
func isDateFormat(code string) bool {
	var quoted, bracket bool
	for i := 0; i < len(code); i++ {
		c := code[i]
		switch {
		case quoted:
			quoted = c != '"'
		case bracket:
			bracket = c != ']'
		case c == '"':
			quoted = true
		case c == '[':
			bracket = true
		case c == '\\' || c == '_' || c == '*':
			i++
		default:
			switch c | 0x20 {
			case 'd', 'm', 'y', 'h', 's':
				return true
			}
		}
	}
	return false
}

// uses1904Epoch reports whether the workbook counts dates from 1904.
func uses1904Epoch(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return false
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "workbookPr" {
			continue
		}
		for _, a := range se.Attr {
			if a.Name.Local == "date1904" {
				return a.Value == "1" || a.Value == "true"
			}
		}
		return false
	}
}

// serialToTime converts an Excel date serial to RFC 3339 text in UTC. Values
// that are not numbers are returned unchanged.
func serialToTime(v string, date1904 bool) string {
	serial, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || serial < 0 {
		return v
	}
	epoch := time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
	switch {
	case date1904:
		epoch = time.Date(1904, 1, 1, 0, 0, 0, 0, time.UTC)
	case serial < 61:
		// Serials before the phantom 1900-02-29 are one day ahead.
		epoch = epoch.AddDate(0, 0, 1)
	}
	secs := math.Round(serial * 86400)
	return epoch.Add(time.Duration(secs) * time.Second).Format(time.RFC3339)
}

// colIndexFromRef converts a cell reference like "C12" to a 0-based column.
// It returns -1 when ref carries no column letters.
func colIndexFromRef(ref string) int {
	idx := 0
	for i := 0; i < len(ref); i++ {
		c := ref[i]
		switch {
		case c >= 'A' && c <= 'Z':
			idx = idx*26 + int(c-'A'+1)
		case c >= 'a' && c <= 'z':
			idx = idx*26 + int(c-'a'+1)
		default:
			return idx - 1
		}
	}
	return idx - 1
}

func atoiSafe(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
	}
	return n
}

// normalizeRelPath converts a relationship target into a ZIP entry name.
// Targets may be absolute ("/xl/worksheets/sheet1.xml") or relative to xl/.
func normalizeRelPath(rel string) string {
	rel = strings.TrimPrefix(rel, "/")
	if strings.HasPrefix(rel, "xl/") {
		return rel
	}
	return path.Join("xl", rel)
}
