// Package mbox streams messages out of mbox exports and turns their
// headers into a deduplicated contact list.
package mbox

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

// DefaultMaxMessageBytes bounds the memory used for a single message
const DefaultMaxMessageBytes = 25 * 1024 * 1024

var fromLine = []byte("From ")

// Stats counts what a Reader has seen so far
type Stats struct {
	Messages  int
	Malformed int
	Oversized int
}

// Option configures a Reader
type Option func(*Reader)

// WithMaxMessageBytes sets the size above which messages are skipped
func WithMaxMessageBytes(n int64) Option {
	return func(r *Reader) {
		if n > 0 {
			r.maxBytes = n
		}
	}
}

// Reader reads messages one at a time from an mbox stream
type Reader struct {
	br       *bufio.Reader
	maxBytes int64
	started  bool
	done     bool
	envelope string
	stats    Stats
}

// NewReader creates a new mbox reader
func NewReader(r io.Reader, opts ...Option) *Reader {
	reader := &Reader{
		br:       bufio.NewReaderSize(r, 64*1024),
		maxBytes: DefaultMaxMessageBytes,
	}
	for _, opt := range opts {
		opt(reader)
	}
	return reader
}

// Stats returns the counters accumulated so far
func (r *Reader) Stats() Stats {
	return r.stats
}

// Next returns the next parseable message. Malformed and oversized
// messages are skipped and counted. io.EOF is returned after the last one.
func (r *Reader) Next() (*Message, error) {
	for {
		raw, envelope, oversized, err := r.nextRaw()
		if err != nil {
			return nil, err
		}
		if oversized {
			r.stats.Oversized++
			continue
		}

		msg, err := ParseMessage(raw)
		if err != nil {
			r.stats.Malformed++
			continue
		}
		msg.Envelope = envelope
		r.stats.Messages++
		return msg, nil
	}
}

// readLine returns the next line including its terminator
func (r *Reader) readLine() ([]byte, error) {
	line, err := r.br.ReadBytes('\n')
	if err == io.EOF && len(line) > 0 {
		return line, nil
	}
	return line, err
}

func trimEOL(line []byte) []byte {
	line = bytes.TrimSuffix(line, []byte("\n"))
	return bytes.TrimSuffix(line, []byte("\r"))
}

// skipPreamble drops anything before the first separator line
func (r *Reader) skipPreamble() error {
	prevBlank := true
	for {
		line, err := r.readLine()
		if err != nil {
			return err
		}
		content := trimEOL(line)
		if prevBlank && bytes.HasPrefix(content, fromLine) {
			r.envelope = string(content[len(fromLine):])
			r.started = true
			return nil
		}
		prevBlank = len(bytes.TrimSpace(content)) == 0
	}
}

// nextRaw collects the bytes of one message, up to the next separator
func (r *Reader) nextRaw() (raw []byte, envelope string, oversized bool, err error) {
	if r.done {
		return nil, "", false, io.EOF
	}
	if !r.started {
		if err := r.skipPreamble(); err != nil {
			if errors.Is(err, io.EOF) {
				r.done = true
			}
			return nil, "", false, err
		}
	}

	envelope = r.envelope
	var buf bytes.Buffer
	var size int64
	// A blank line is held back until we know it is not the one
	// preceding a separator
	var heldBlank []byte
	prevBlank := false

	for {
		line, readErr := r.readLine()
		if readErr != nil {
			if !errors.Is(readErr, io.EOF) {
				return nil, "", false, readErr
			}
			r.done = true
			break
		}

		content := trimEOL(line)
		if prevBlank && bytes.HasPrefix(content, fromLine) {
			r.envelope = string(content[len(fromLine):])
			heldBlank = nil
			break
		}

		if heldBlank != nil {
			size += int64(len(heldBlank))
			if !oversized {
				buf.Write(heldBlank)
			}
			heldBlank = nil
		}

		isBlank := len(bytes.TrimSpace(content)) == 0
		if isBlank {
			heldBlank = append([]byte(nil), line...)
			prevBlank = true
			continue
		}
		prevBlank = false

		// mboxrd: ">From " and ">>From " lose exactly one '>'
		if unescaped := bytes.TrimLeft(content, ">"); len(unescaped) < len(content) && bytes.HasPrefix(unescaped, fromLine) {
			line = line[1:]
		}

		size += int64(len(line))
		if size > r.maxBytes {
			oversized = true
			buf.Reset()
		}
		if !oversized {
			buf.Write(line)
		}
	}

	if heldBlank != nil && !oversized {
		buf.Write(heldBlank)
	}

	if buf.Len() == 0 && !oversized {
		// A separator with nothing after it
		if r.done {
			return nil, "", false, io.EOF
		}
		return r.nextRaw()
	}

	return buf.Bytes(), envelope, oversized, nil
}
