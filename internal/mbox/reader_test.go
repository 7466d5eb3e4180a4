package mbox

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleMbox = `garbage before the first separator

From alice@example.com Mon Jan  1 00:00:00 2024
From: Alice Smith <alice@example.com>
To: bob@example.com
Subject: Hello
Date: Mon, 01 Jan 2024 10:00:00 +0000

Hi Bob
>From the desk of Alice

From bob@example.com Tue Jan  2 00:00:00 2024
From: Bob <bob@example.com>
To: Alice Smith <alice@example.com>
Subject: Re: Hello

Hi Alice
`

func readAll(t *testing.T, r *Reader) []*Message {
	t.Helper()
	var out []*Message
	for {
		msg, err := r.Next()
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
		out = append(out, msg)
	}
}

func TestReaderSplitsMessages(t *testing.T) {
	r := NewReader(strings.NewReader(sampleMbox))
	msgs := readAll(t, r)

	require.Len(t, msgs, 2)
	assert.Equal(t, "Hello", msgs[0].Subject)
	assert.Equal(t, "alice@example.com Mon Jan  1 00:00:00 2024", msgs[0].Envelope)
	assert.Equal(t, "Hi Bob\nFrom the desk of Alice", msgs[0].Body)
	assert.Equal(t, []Address{{Name: "Alice Smith", Email: "alice@example.com"}}, msgs[0].From)
	assert.Equal(t, 2024, msgs[0].Date.Year())

	assert.Equal(t, "Re: Hello", msgs[1].Subject)
	assert.Equal(t, "Hi Alice", msgs[1].Body)
	assert.Equal(t, Stats{Messages: 2}, r.Stats())

	// Reading past the end keeps returning io.EOF
	_, err := r.Next()
	assert.Equal(t, io.EOF, err)
}

func TestReaderEmptyInput(t *testing.T) {
	r := NewReader(strings.NewReader(""))
	_, err := r.Next()
	assert.Equal(t, io.EOF, err)
}

func TestReaderSkipsMalformed(t *testing.T) {
	input := "From x@example.com Mon Jan  1 00:00:00 2024\n" +
		"this is not a header line\n\nbody\n\n" +
		"From y@example.com Mon Jan  1 00:00:00 2024\n" +
		"From: y@example.com\nSubject: ok\n\nfine\n"

	r := NewReader(strings.NewReader(input))
	msgs := readAll(t, r)

	require.Len(t, msgs, 1)
	assert.Equal(t, "ok", msgs[0].Subject)
	assert.Equal(t, 1, r.Stats().Malformed)
}

func TestReaderSkipsOversized(t *testing.T) {
	input := "From x@example.com Mon Jan  1 00:00:00 2024\n" +
		"From: x@example.com\nSubject: big\n\n" + strings.Repeat("a", 500) + "\n\n" +
		"From y@example.com Mon Jan  1 00:00:00 2024\n" +
		"From: y@example.com\nSubject: small\n\nok\n"

	r := NewReader(strings.NewReader(input), WithMaxMessageBytes(200))
	msgs := readAll(t, r)

	require.Len(t, msgs, 1)
	assert.Equal(t, "small", msgs[0].Subject)
	assert.Equal(t, 1, r.Stats().Oversized)
}

func TestReaderCRLF(t *testing.T) {
	input := "From a@example.com Mon Jan  1 00:00:00 2024\r\n" +
		"From: A <a@example.com>\r\nSubject: one\r\n\r\nbody one\r\n\r\n" +
		"From b@example.com Mon Jan  1 00:00:00 2024\r\n" +
		"From: B <b@example.com>\r\nSubject: two\r\n\r\nbody two\r\n"

	msgs := readAll(t, NewReader(strings.NewReader(input)))
	require.Len(t, msgs, 2)
	assert.Equal(t, "one", msgs[0].Subject)
	assert.Equal(t, "body one", msgs[0].Body)
	assert.Equal(t, "two", msgs[1].Subject)
}

func TestReaderFromInsideBodyWithoutBlankLine(t *testing.T) {
	input := "From a@example.com Mon Jan  1 00:00:00 2024\n" +
		"From: a@example.com\nSubject: one\n\nline\nFrom here on it is still the body\n"

	msgs := readAll(t, NewReader(strings.NewReader(input)))
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Body, "From here on")
}
