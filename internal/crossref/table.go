package crossref

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
)

// ErrNoHeader is returned for input without a header row
var ErrNoHeader = errors.New("csv has no header row")

type role int

const (
	roleNone role = iota
	roleEmail
	roleFirst
	roleLast
	roleName
	rolePhone
)

var headerAliases = map[string]role{
	"email":        roleEmail,
	"emailaddress": roleEmail,
	"primaryemail": roleEmail,
	"mail":         roleEmail,
	"firstname":    roleFirst,
	"fname":        roleFirst,
	"first":        roleFirst,
	"givenname":    roleFirst,
	"lastname":     roleLast,
	"lname":        roleLast,
	"last":         roleLast,
	"surname":      roleLast,
	"familyname":   roleLast,
	"name":         roleName,
	"fullname":     roleName,
	"contactname":  roleName,
	"contact":      roleName,
	"borrowername": roleName,
	"clientname":   roleName,
	"phone":        rolePhone,
	"phonenumber":  rolePhone,
	"mobile":       rolePhone,
	"mobilephone":  rolePhone,
	"cell":         rolePhone,
	"cellphone":    rolePhone,
	"homephone":    rolePhone,
	"workphone":    rolePhone,
}

// Record is one row of a contact table
type Record struct {
	Row       int               `json:"row"`
	Name      string            `json:"name,omitempty"`
	FirstName string            `json:"first_name,omitempty"`
	LastName  string            `json:"last_name,omitempty"`
	Email     string            `json:"email,omitempty"`
	Phone     string            `json:"phone,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// Table is a parsed contact CSV
type Table struct {
	Headers []string
	Records []Record
}

func headerKey(h string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(h) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func columnRoles(headers []string) map[role]int {
	roles := make(map[role]int)
	for i, h := range headers {
		r, ok := headerAliases[headerKey(h)]
		if !ok {
			continue
		}
		if _, taken := roles[r]; !taken {
			roles[r] = i
		}
	}
	return roles
}

// ReadTable parses a CSV export with a header row
func ReadTable(r io.Reader) (*Table, error) {
	br := bufio.NewReader(r)
	// Excel exports start with a UTF-8 BOM
	if bom, err := br.Peek(3); err == nil && bytes.Equal(bom, []byte{0xEF, 0xBB, 0xBF}) {
		_, _ = br.Discard(3)
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	headers, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoHeader
		}
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}
	roles := columnRoles(headers)

	table := &Table{Headers: headers}
	row := 1
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if err != nil {
			return nil, fmt.Errorf("failed to read csv row %d: %w", row, err)
		}
		if isBlankRow(fields) {
			continue
		}

		rec := Record{Row: row, Fields: make(map[string]string, len(headers))}
		for i, h := range headers {
			value := ""
			if i < len(fields) {
				value = strings.TrimSpace(fields[i])
			}
			rec.Fields[h] = value
		}
		get := func(r role) string {
			if idx, ok := roles[r]; ok && idx < len(fields) {
				return strings.TrimSpace(fields[idx])
			}
			return ""
		}
		rec.Email = NormalizeEmail(get(roleEmail))
		rec.FirstName = get(roleFirst)
		rec.LastName = get(roleLast)
		rec.Name = get(roleName)
		rec.Phone = get(rolePhone)
		fillNames(&rec)

		table.Records = append(table.Records, rec)
	}

	return table, nil
}

func isBlankRow(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// fillNames derives whichever of full name / first+last is missing
func fillNames(rec *Record) {
	if rec.Name == "" {
		rec.Name = strings.TrimSpace(rec.FirstName + " " + rec.LastName)
		return
	}
	if rec.FirstName != "" || rec.LastName != "" {
		return
	}
	if before, after, ok := strings.Cut(rec.Name, ","); ok && strings.TrimSpace(after) != "" {
		rec.LastName = strings.TrimSpace(before)
		rec.FirstName = strings.TrimSpace(after)
		return
	}
	fields := strings.Fields(rec.Name)
	switch len(fields) {
	case 0:
	case 1:
		rec.FirstName = fields[0]
	default:
		rec.FirstName = fields[0]
		rec.LastName = strings.Join(fields[1:], " ")
	}
}
