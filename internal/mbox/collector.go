package mbox

import (
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

const snippetBytes = 500

// Contact is a person seen in one or more messages
type Contact struct {
	Email         string    `json:"email"`
	Name          string    `json:"name,omitempty"`
	FirstName     string    `json:"first_name,omitempty"`
	LastName      string    `json:"last_name,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	MessageCount  int       `json:"message_count"`
	SentCount     int       `json:"sent_count"`
	ReceivedCount int       `json:"received_count"`
	FirstSeen     time.Time `json:"first_seen"`
	LastSeen      time.Time `json:"last_seen"`
	LastSubject   string    `json:"last_subject,omitempty"`
	Snippet       string    `json:"-"`
}

// Suppressor filters addresses that must never become contacts
type Suppressor interface {
	IsSuppressed(email string) bool
}

type entry struct {
	contact   Contact
	names     map[string]int
	nameOrder []string
}

// Collector aggregates messages into a contact list keyed by address
type Collector struct {
	suppressor Suppressor
	entries    map[string]*entry
	skipped    int
}

// NewCollector creates a collector. suppressor may be nil.
func NewCollector(suppressor Suppressor) *Collector {
	return &Collector{
		suppressor: suppressor,
		entries:    make(map[string]*entry),
	}
}

// Skipped returns how many address occurrences were suppressed
func (c *Collector) Skipped() int {
	return c.skipped
}

// Add records every participant of a message
func (c *Collector) Add(m *Message) {
	if m == nil {
		return
	}
	// A message counts once per contact even if they appear in several headers
	touched := make(map[string]struct{})

	senders := m.ReplyTo
	if len(senders) == 0 {
		senders = m.From
	}
	for i, addr := range senders {
		c.record(m, addr, true, i == 0, touched)
	}
	if len(m.ReplyTo) > 0 {
		for _, addr := range m.From {
			c.record(m, addr, true, false, touched)
		}
	}
	for _, list := range [][]Address{m.To, m.Cc} {
		for _, addr := range list {
			c.record(m, addr, false, false, touched)
		}
	}
}

func (c *Collector) record(m *Message, addr Address, sent, primary bool, touched map[string]struct{}) {
	email := strings.ToLower(strings.TrimSpace(addr.Email))
	if email == "" {
		return
	}
	if c.suppressor != nil && c.suppressor.IsSuppressed(email) {
		c.skipped++
		return
	}

	e, ok := c.entries[email]
	if !ok {
		e = &entry{
			contact: Contact{Email: email},
			names:   make(map[string]int),
		}
		c.entries[email] = e
	}

	if name := cleanName(addr.Name); name != "" {
		if _, seen := e.names[name]; !seen {
			e.nameOrder = append(e.nameOrder, name)
		}
		e.names[name]++
	}

	if _, done := touched[email]; done {
		return
	}
	touched[email] = struct{}{}

	ct := &e.contact
	ct.MessageCount++
	if sent {
		ct.SentCount++
	} else {
		ct.ReceivedCount++
	}

	latest := false
	if !m.Date.IsZero() {
		if ct.FirstSeen.IsZero() || m.Date.Before(ct.FirstSeen) {
			ct.FirstSeen = m.Date
		}
		if !m.Date.Before(ct.LastSeen) {
			ct.LastSeen = m.Date
			ct.LastSubject = m.Subject
			latest = true
		}
	} else if ct.LastSubject == "" {
		ct.LastSubject = m.Subject
		latest = true
	}

	if primary {
		if ct.Phone == "" {
			ct.Phone = FindPhone(m.Body)
		}
		// Snippet tracks the same message as LastSubject
		if latest || ct.Snippet == "" {
			ct.Snippet = snippet(m.Body)
		}
	}
}

func snippet(body string) string {
	if len(body) <= snippetBytes {
		return body
	}
	n := snippetBytes
	// Back up to a rune boundary
	for n > 0 && !utf8.RuneStart(body[n]) {
		n--
	}
	return body[:n]
}

// cleanName rejects display names that carry no information
func cleanName(name string) string {
	name = strings.Join(strings.Fields(strings.Trim(name, `"' `)), " ")
	if name == "" || strings.Contains(name, "@") {
		return ""
	}
	return name
}

// SplitName splits a display name into first and last name.
// "Doe, Jane" and "Jane Doe" both yield ("Jane", "Doe").
func SplitName(name string) (first, last string) {
	name = cleanName(name)
	if name == "" {
		return "", ""
	}
	if before, after, ok := strings.Cut(name, ","); ok {
		last = strings.TrimSpace(before)
		first = strings.TrimSpace(after)
		if first != "" && last != "" {
			return first, last
		}
		name = strings.TrimSpace(before + " " + after)
	}
	fields := strings.Fields(name)
	if len(fields) == 1 {
		return fields[0], ""
	}
	return fields[0], strings.Join(fields[1:], " ")
}

// Contacts returns the aggregated contacts, most active first
func (c *Collector) Contacts() []Contact {
	out := make([]Contact, 0, len(c.entries))
	for _, e := range c.entries {
		ct := e.contact
		ct.Name = bestName(e)
		ct.FirstName, ct.LastName = SplitName(ct.Name)
		out = append(out, ct)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MessageCount != out[j].MessageCount {
			return out[i].MessageCount > out[j].MessageCount
		}
		return out[i].Email < out[j].Email
	})
	return out
}

func bestName(e *entry) string {
	best, bestCount := "", 0
	for _, name := range e.nameOrder {
		if count := e.names[name]; count > bestCount {
			best, bestCount = name, count
		}
	}
	return best
}
