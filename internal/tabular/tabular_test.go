package tabular

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLatin9(t *testing.T) {
	enc, err := Encoding("iso8859-15")
	require.NoError(t, err)

	// 0xE9 is e-acute and 0xA4 is the euro sign in ISO-8859-15.
	raw := []byte("Naam;Prijs\nRen\xe9;\xa45\n")
	table, err := Parse(bytes.NewReader(raw), enc)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "René", table.Rows[0].Get("naam"))
	assert.Equal(t, "€5", table.Rows[0].Get("PRIJS"))
}

func TestParseSkipsBlankRowsAndBOM(t *testing.T) {
	table, err := Parse(strings.NewReader("\ufeffemail;afdeling\na@x.nl;ICT\n;\n"), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"email", "afdeling"}, table.Header)
	require.Len(t, table.Rows, 1)
	assert.True(t, table.Has("Email"))
	assert.Equal(t, map[string]string{"email": "a@x.nl", "afdeling": "ICT"}, table.Rows[0].Map())
}

func TestGetFallsBackToLaterNames(t *testing.T) {
	table, err := Parse(strings.NewReader("mail;e-mail\n;b@x.nl\n"), nil)
	require.NoError(t, err)
	assert.Equal(t, "b@x.nl", table.Rows[0].Get("mail", "e-mail"))
	assert.Equal(t, "", table.Rows[0].Get("missing"))
}

func TestWriteRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, Write(fs, "out.csv", []string{"keuze", "aantal"}, [][]string{{"Tuin; kas", "3"}}))

	data, err := afero.ReadFile(fs, "out.csv")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}), "expected a byte order mark")

	table, err := Read(fs, "out.csv", nil)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "Tuin; kas", table.Rows[0].Get("keuze"))
	assert.Equal(t, "3", table.Rows[0].Get("aantal"))
}

func TestEncodingUnknown(t *testing.T) {
	_, err := Encoding("klingon")
	assert.Error(t, err)
}
