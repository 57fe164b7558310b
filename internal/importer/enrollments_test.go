package importer

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wisselwerking/indeler/internal/config"
	"github.com/wisselwerking/indeler/internal/models"
)

const header = "voornaam;achternaam;email;afdeling;bron;eerste_keuze;tweede_keus;derde_keus\n"

func newImporter(fs afero.Fs) *Importer {
	cfg := config.Default()
	return &Importer{
		FS:        fs,
		Encoding:  cfg.EnrollmentEncoding,
		Columns:   cfg.Columns,
		Sentinels: cfg.Sentinels,
		Logger:    zerolog.Nop(),
	}
}

func TestReadReversesAndDeduplicates(t *testing.T) {
	fs := afero.NewMemMapFs()
	content := header +
		"Dirk;Jansen;DIRK@x.nl;ICT;form;Tuin;Keuken;Maak je keuze\n" +
		"Eva;Smit;eva@x.nl;HR;test;Tuin;Keuken;Bieb\n" +
		"Dirk;Jansen;dirk@x.nl ;ICT;form; Keuken ;Tuin;Bieb\n" +
		"Ren\xe9;Bos;rene@x.nl;Financi\xebn;form;Bieb;  Maak je keuze ;Tuin\n"
	require.NoError(t, afero.WriteFile(fs, "aanmeldingen.csv", []byte(content), 0o644))

	res, err := newImporter(fs).Read("aanmeldingen.csv")
	require.NoError(t, err)

	assert.Equal(t, Summary{Parsed: 4, Test: 1, Duplicates: 1, Accepted: 2}, res.Summary)
	require.Len(t, res.Enrollments, 2)

	rene := res.Enrollments[0]
	assert.Equal(t, "rene@x.nl", rene.Email)
	assert.Equal(t, "René Bos", rene.Name())
	assert.Equal(t, "Financiën", rene.Department)
	assert.Equal(t, [models.Ranks]string{"Bieb", "Maak je keuze", "Tuin"}, rene.Choices)

	dirk := res.Enrollments[1]
	assert.Equal(t, "dirk@x.nl", dirk.Email)
	assert.Equal(t, [models.Ranks]string{"Keuken", "Tuin", "Bieb"}, dirk.Choices, "the oldest submission wins")
	assert.Equal(t, " Keuken ", dirk.Fields["eerste_keuze"])

	assert.Equal(t, []string{"voornaam", "achternaam", "email", "afdeling", "bron", "eerste_keuze", "tweede_keus", "derde_keus"}, res.Header)
}

func TestReadMissingColumn(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "a.csv", []byte("email;eerste_keuze\na@x.nl;Tuin\n"), 0o644))
	_, err := newImporter(fs).Read("a.csv")
	assert.ErrorContains(t, err, "tweede_keus")
}
