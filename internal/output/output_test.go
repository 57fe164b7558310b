package output

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wisselwerking/indeler/internal/models"
	"github.com/wisselwerking/indeler/internal/tabular"
)

func newWriter(fs afero.Fs) *Writer {
	return &Writer{FS: fs, AssignedColumn: "toegewezen", MessageColumn: "bericht", Logger: zerolog.Nop()}
}

func sampleAssignments() []models.Assignment {
	anna := models.Enrollment{
		Email: "anna@x.nl", FirstName: "Anna", LastName: "de Vries", Department: "ICT", Phone: "0612345678",
		Fields: map[string]string{"voornaam": "Anna", "email": "anna@x.nl", "toegewezen": "oud"},
	}
	bob := models.Enrollment{
		Email: "bob@x.nl", FirstName: "Bob", Department: "HR",
		Fields: map[string]string{"voornaam": "Bob", "email": "bob@x.nl"},
	}
	return []models.Assignment{
		{Enrollment: anna, Choice: "Tuin", Assigned: true},
		{Enrollment: bob, Choice: "**GEEN**"},
	}
}

func TestNotification(t *testing.T) {
	as := sampleAssignments()
	msg, err := Notification(as[0])
	require.NoError(t, err)
	assert.Contains(t, msg, "Beste Anna, je bent ingedeeld bij Tuin.")

	msg, err = Notification(as[1])
	require.NoError(t, err)
	assert.Contains(t, msg, "niet indelen")
	assert.NotContains(t, msg, "**GEEN**")
}

func TestWriteAssignments(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, newWriter(fs).WriteAssignments("toewijzingen.csv", []string{"voornaam", "email", "toegewezen"}, sampleAssignments()))

	table, err := tabular.Read(fs, "toewijzingen.csv", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"toegewezen", "bericht", "voornaam", "email"}, table.Header)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "Tuin", table.Rows[0].Get("toegewezen"))
	assert.Equal(t, "anna@x.nl", table.Rows[0].Get("email"))
	assert.Equal(t, "**GEEN**", table.Rows[1].Get("toegewezen"))
}

func TestWriteLettersRemovesStale(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "mails/Oud.txt", []byte("stale"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "mails/notities.md", []byte("keep"), 0o644))

	require.NoError(t, newWriter(fs).WriteLetters("mails", []string{"Tuin", "Keuken/Kantine"}, sampleAssignments()))

	tuin, err := afero.ReadFile(fs, "mails/Tuin.txt")
	require.NoError(t, err)
	assert.Contains(t, string(tuin), "Anna de Vries (ICT)")
	assert.Contains(t, string(tuin), "telefoon: 0612345678")
	assert.NotContains(t, string(tuin), "Bob")

	keuken, err := afero.ReadFile(fs, "mails/Keuken_Kantine.txt")
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(keuken), "niemand"), "expected the nobody-enrolled variant")

	exists, err := afero.Exists(fs, "mails/Oud.txt")
	require.NoError(t, err)
	assert.False(t, exists)
	exists, err = afero.Exists(fs, "mails/notities.md")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestWriteSummary(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, newWriter(fs).WriteSummary("summary.yaml", map[string]int{"total": 3}))
	data, err := afero.ReadFile(fs, "summary.yaml")
	require.NoError(t, err)
	assert.Equal(t, "total: 3\n", string(data))
}
