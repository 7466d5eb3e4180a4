package mbox

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/encoding/htmlindex"
)

const (
	maxBodyBytes  = 1 << 20
	maxPartDepth  = 5
	noTextContent = ""
)

var (
	htmlTagRegex    = regexp.MustCompile(`(?s)<(script|style)[^>]*>.*?</(script|style)>|<[^>]+>`)
	blankLinesRegex = regexp.MustCompile(`\n{3,}`)
	looseEmailRegex = regexp.MustCompile(`(?i)[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}`)
)

// Address is a decoded mailbox
type Address struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

// Message is the part of an email that matters for contact extraction
type Message struct {
	Envelope  string    `json:"envelope,omitempty"`
	MessageID string    `json:"message_id,omitempty"`
	Date      time.Time `json:"date"`
	From      []Address `json:"from,omitempty"`
	To        []Address `json:"to,omitempty"`
	Cc        []Address `json:"cc,omitempty"`
	ReplyTo   []Address `json:"reply_to,omitempty"`
	Subject   string    `json:"subject,omitempty"`
	Body      string    `json:"body,omitempty"`
}

type headerGetter interface {
	Get(key string) string
}

// charsetReader resolves any charset name golang.org/x/text knows about
func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(charset) {
	case "", "utf-8", "utf8", "us-ascii", "ascii":
		return input, nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", charset, err)
	}
	return enc.NewDecoder().Reader(input), nil
}

var wordDecoder = &mime.WordDecoder{CharsetReader: charsetReader}

// DecodeHeader decodes RFC 2047 encoded words, returning the raw value
// when decoding fails
func DecodeHeader(value string) string {
	decoded, err := wordDecoder.DecodeHeader(value)
	if err != nil {
		return strings.TrimSpace(value)
	}
	return strings.TrimSpace(decoded)
}

// ParseMessage parses a single RFC 5322 message
func ParseMessage(raw []byte) (*Message, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse message headers: %w", err)
	}
	if len(msg.Header) == 0 {
		return nil, fmt.Errorf("message has no headers")
	}

	m := &Message{
		MessageID: strings.Trim(msg.Header.Get("Message-Id"), "<> \t"),
		From:      ParseAddressList(msg.Header.Get("From")),
		To:        ParseAddressList(msg.Header.Get("To")),
		Cc:        ParseAddressList(msg.Header.Get("Cc")),
		ReplyTo:   ParseAddressList(msg.Header.Get("Reply-To")),
		Subject:   DecodeHeader(msg.Header.Get("Subject")),
	}
	if date, err := msg.Header.Date(); err == nil {
		m.Date = date
	}

	plain, htmlText := extractText(msg.Header, msg.Body, 0)
	if plain != noTextContent {
		m.Body = plain
	} else {
		m.Body = htmlToText(htmlText)
	}

	return m, nil
}

// ParseAddressList parses an address header. Lists that fail as a whole
// are split and parsed entry by entry so one bad entry does not lose the rest.
func ParseAddressList(value string) []Address {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	parser := mail.AddressParser{WordDecoder: wordDecoder}
	if list, err := parser.ParseList(value); err == nil {
		return toAddresses(list)
	}

	var out []Address
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if addr, err := parser.Parse(part); err == nil {
			out = append(out, toAddresses([]*mail.Address{addr})...)
			continue
		}
		// Last resort: anything that looks like an address
		for _, email := range looseEmailRegex.FindAllString(part, -1) {
			out = append(out, Address{Email: strings.ToLower(email)})
		}
	}
	return out
}

func toAddresses(list []*mail.Address) []Address {
	out := make([]Address, 0, len(list))
	for _, a := range list {
		email := strings.ToLower(strings.TrimSpace(a.Address))
		if email == "" {
			continue
		}
		name := strings.Trim(strings.TrimSpace(a.Name), `"'`)
		if strings.EqualFold(name, email) {
			name = ""
		}
		out = append(out, Address{Name: name, Email: email})
	}
	return out
}

// FindEmails returns the distinct addresses mentioned in free text
func FindEmails(text string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, match := range looseEmailRegex.FindAllString(text, -1) {
		email := strings.ToLower(strings.Trim(match, "."))
		if _, ok := seen[email]; ok {
			continue
		}
		seen[email] = struct{}{}
		out = append(out, email)
	}
	return out
}

func decodeTransfer(encoding string, r io.Reader) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, r)
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	default:
		return r
	}
}

func readBody(h headerGetter, body io.Reader, params map[string]string) string {
	r := decodeTransfer(h.Get("Content-Transfer-Encoding"), body)
	if cr, err := charsetReader(params["charset"], r); err == nil {
		r = cr
	}
	data, err := io.ReadAll(io.LimitReader(r, maxBodyBytes))
	if err != nil && len(data) == 0 {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// extractText walks a MIME tree and returns the concatenated text/plain
// and text/html content. Attachments are skipped.
func extractText(h headerGetter, body io.Reader, depth int) (plain string, htmlText string) {
	contentType := h.Get("Content-Type")
	if contentType == "" {
		contentType = "text/plain"
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		// Unparseable Content-Type is treated as plain text
		return readBody(h, body, nil), ""
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := params["boundary"]
		if boundary == "" || depth >= maxPartDepth {
			return "", ""
		}
		var plainParts, htmlParts []string
		mr := multipart.NewReader(body, boundary)
		for {
			part, err := mr.NextPart()
			if err != nil {
				// io.EOF or a broken part: keep what we have
				break
			}
			if isAttachment(part.Header.Get("Content-Disposition")) {
				continue
			}
			p, ht := extractText(part.Header, part, depth+1)
			if p != "" {
				plainParts = append(plainParts, p)
			}
			if ht != "" {
				htmlParts = append(htmlParts, ht)
			}
			// multipart/alternative carries the same text twice
			if mediaType == "multipart/alternative" && len(plainParts) > 0 {
				break
			}
		}
		return strings.Join(plainParts, "\n"), strings.Join(htmlParts, "\n")
	}

	switch mediaType {
	case "text/plain":
		return readBody(h, body, params), ""
	case "text/html":
		return "", readBody(h, body, params)
	default:
		return "", ""
	}
}

func isAttachment(disposition string) bool {
	if disposition == "" {
		return false
	}
	d, _, err := mime.ParseMediaType(disposition)
	return err == nil && d == "attachment"
}

func htmlToText(s string) string {
	if s == "" {
		return ""
	}
	s = strings.NewReplacer("<br>", "\n", "<br/>", "\n", "<br />", "\n", "</p>", "\n", "</div>", "\n").Replace(s)
	s = htmlTagRegex.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = blankLinesRegex.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
