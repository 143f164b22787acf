package filter

import (
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readMessage(t *testing.T, raw string) *mail.Message {
	t.Helper()
	msg, err := mail.ReadMessage(strings.NewReader(raw))
	require.NoError(t, err)
	return msg
}

func TestDecodeEncodedHeader(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Plain subject", "Plain subject"},
		{"=?UTF-8?B?SGVsbG8gd29ybGQ=?=", "Hello world"},
		{"=?utf-8?q?caf=C3=A9_time?=", "café time"},
		{"=?ISO-8859-1?Q?r=E9sum=E9?=", "résumé"},
		{"Re: =?UTF-8?Q?na=C3=AFve?= question", "Re: naïve question"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := decodeEncodedHeader(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := decodeEncodedHeader("=?x-unknown-charset?Q?abc?=")
	assert.Error(t, err)
}

func TestExtractTextPlain(t *testing.T) {
	msg := readMessage(t, "Subject: hi\r\n\r\nJust a plain body\r\n")
	text, err := extractTextFromMessage(msg)
	require.NoError(t, err)
	assert.Equal(t, "Just a plain body\r\n", text)
}

func TestExtractTextTransferEncodings(t *testing.T) {
	msg := readMessage(t, "Content-Type: text/plain; charset=utf-8\r\n"+
		"Content-Transfer-Encoding: base64\r\n\r\n"+
		"SGVsbG8g\r\nd29ybGQ=\r\n")
	text, err := extractTextFromMessage(msg)
	require.NoError(t, err)
	assert.Equal(t, "Hello world", text)

	msg = readMessage(t, "Content-Type: text/plain; charset=iso-8859-1\r\n"+
		"Content-Transfer-Encoding: quoted-printable\r\n\r\n"+
		"Caf=E9 au lait\r\n")
	text, err = extractTextFromMessage(msg)
	require.NoError(t, err)
	assert.Equal(t, "Café au lait\r\n", text)
}

func TestExtractTextMultipart(t *testing.T) {
	raw := "MIME-Version: 1.0\r\n" +
		"Content-Type: multipart/mixed; boundary=outer\r\n\r\n" +
		"--outer\r\n" +
		"Content-Type: multipart/alternative; boundary=inner\r\n\r\n" +
		"--inner\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n\r\n" +
		"plain version\r\n" +
		"--inner\r\n" +
		"Content-Type: text/html\r\n\r\n" +
		"<p>html version</p>\r\n" +
		"--inner--\r\n" +
		"--outer\r\n" +
		"Content-Type: text/plain\r\n" +
		"Content-Disposition: attachment; filename=notes.txt\r\n\r\n" +
		"attached text\r\n" +
		"--outer--\r\n"

	text, err := extractTextFromMessage(readMessage(t, raw))
	require.NoError(t, err)
	assert.Contains(t, text, "plain version")
	assert.NotContains(t, text, "html version")
	assert.NotContains(t, text, "attached text")
}

func TestExtractTextHTMLFallback(t *testing.T) {
	raw := "Content-Type: multipart/alternative; boundary=b\r\n\r\n" +
		"--b\r\n" +
		"Content-Type: text/html\r\n" +
		"Content-Transfer-Encoding: quoted-printable\r\n\r\n" +
		"<b>Claim your prize=21</b>\r\n" +
		"--b--\r\n"

	text, err := extractTextFromMessage(readMessage(t, raw))
	require.NoError(t, err)
	assert.Contains(t, text, "<b>Claim your prize!</b>")
}

func TestExtractEmailAddress(t *testing.T) {
	assert.Equal(t, "jane@example.com", extractEmailAddress("Jane Doe <jane@example.com>"))
	assert.Equal(t, "jane@example.com", extractEmailAddress("jane@example.com"))
	assert.Equal(t, "odd@host", extractEmailAddress("broken, \"name <odd@host>"))
	assert.Equal(t, "nobody", extractEmailAddress("  nobody "))
}
