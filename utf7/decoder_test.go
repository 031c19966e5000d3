package utf7_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/emersion/go-imapsession/utf7"
)

func TestDecoder_valid(t *testing.T) {
	tests := map[string]string{
		"":                    "",
		"INBOX":               "INBOX",
		"&-abc":               "&abc",
		"a&-b&-c":             "a&b&c",
		"&ABk-":               "\x19",
		"ABk-":                "ABk-",
		"Entw&APw-rfe":        "Entwürfe",
		"&-&-,&AP8-&-":        "&&,ÿ&",
		"&BBAEQARFBDgEMg-":    "Архив",
		"Sent/&ZeVnLIqe-":     "Sent/日本語",
		"&2D3eCg- &2D3eCw-":   "\U0001f60a \U0001f60b",
		"x &AP8A,wD,- y &- z": "x ÿÿÿ y & z",
		"00 &" + strings.Repeat("MEIwQjBC", 4) + "- 00": "00 " + strings.Repeat("あ", 12) + " 00",
	}
	dec := utf7.Encoding.NewDecoder()
	for in, want := range tests {
		out, err := dec.String(in)
		if assert.NoError(t, err, "%+q", in) {
			assert.Equal(t, want, out, "%+q", in)
		}
	}
}

func TestDecoder_invalid(t *testing.T) {
	for _, in := range []string{
		// not printable ASCII
		"\x00", "abc\n", "abc\x7Fxyz", "М",
		// bad base64 alphabet
		"&/+8-", "&*-", "&ZeVnLIqe -",
		// line breaks inside a shift
		"&ZeVnLIqe\r\n-",
		// padding left in
		"&AAAAHw=-", "&AAAAHwB,AIA==-",
		// truncated UTF-16
		"&2A-", "&AAAAHwB,A-", "&AAAAHwB,AI-",
		// shift never closed
		"&", "&Jjo", "abc&Jjo", "&Jjo!",
		// two adjacent shifts
		"&AGE-&Jjo-", "&U,BTFw-&ZeVnLIqe-",
		// printable ASCII that must not be base64 encoded
		"&AGE-", "&ACY-", "&JjoAIQ-",
		// unpaired surrogates
		"&2AA-", "&3AA-", "&2AAAQQ-", "&3ADYAA-",
	} {
		_, err := utf7.Decode(in)
		assert.Error(t, err, "%+q", in)
	}
}
