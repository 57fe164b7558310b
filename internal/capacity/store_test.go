package capacity

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wisselwerking/indeler/internal/models"
)

const surprise = "Verras me!"

type fixedResolver struct {
	value int
	err   error
	calls []string
}

func (r *fixedResolver) ResolveCapacity(_ context.Context, label string) (int, error) {
	r.calls = append(r.calls, label)
	return r.value, r.err
}

func newStore(fs afero.Fs) *Store {
	return New(fs, "capacities.csv", "keuze", "aantal", surprise)
}

func TestLoadTreatsMalformedAsUnknown(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "capacities.csv", []byte("keuze;aantal\nTuin;3\nKeuken;veel\nBieb;\nDicht;0\n"), 0o644))

	s := newStore(fs)
	require.NoError(t, s.Load())

	n, err := s.Get("Tuin")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = s.Get("Dicht")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = s.Get("Keuken")
	assert.ErrorIs(t, err, ErrUnknownCapacity)
	_, err = s.Get("Bieb")
	assert.ErrorIs(t, err, ErrUnknownCapacity)

	assert.Equal(t, []string{"Bieb", "Dicht", "Keuken", "Tuin"}, s.Labels())
}

func TestLoadMissingFile(t *testing.T) {
	s := newStore(afero.NewMemMapFs())
	require.NoError(t, s.Load())
	assert.Empty(t, s.Labels())
}

func TestSurpriseIsUnbounded(t *testing.T) {
	s := newStore(afero.NewMemMapFs())
	n, err := s.Get(surprise)
	require.NoError(t, err)
	assert.Equal(t, models.Unbounded, n)

	s.Set(surprise, 4)
	assert.Empty(t, s.Labels())
}

func TestResolveCachesOperatorAnswer(t *testing.T) {
	s := newStore(afero.NewMemMapFs())
	r := &fixedResolver{value: 7}

	n, err := s.Resolve(context.Background(), "Tuin", r)
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	n, err = s.Resolve(context.Background(), "Tuin", r)
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	assert.Equal(t, []string{"Tuin"}, r.calls)
}

func TestResolvePropagatesResolverError(t *testing.T) {
	s := newStore(afero.NewMemMapFs())
	stop := errors.New("stop")
	_, err := s.Resolve(context.Background(), "Tuin", &fixedResolver{err: stop})
	assert.ErrorIs(t, err, stop)

	_, err = s.Get("Tuin")
	assert.ErrorIs(t, err, ErrUnknownCapacity)
}

func TestResolveWithoutResolver(t *testing.T) {
	s := newStore(afero.NewMemMapFs())
	_, err := s.Resolve(context.Background(), "Tuin", nil)
	assert.ErrorIs(t, err, ErrUnknownCapacity)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := newStore(fs)
	s.Set("Tuin", 3)
	s.Set("Keuken", 0)
	s.Set("Bibliotheek; archief", 12)
	require.NoError(t, s.Save())

	reloaded := newStore(fs)
	require.NoError(t, reloaded.Load())
	assert.Equal(t, s.Labels(), reloaded.Labels())
	for _, label := range s.Labels() {
		want, err := s.Get(label)
		require.NoError(t, err)
		got, err := reloaded.Get(label)
		require.NoError(t, err)
		assert.Equal(t, want, got, label)
	}
}

func TestSaveKeepsUnknownBlank(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "capacities.csv", []byte("keuze;aantal\nKeuken;?\n"), 0o644))
	s := newStore(fs)
	require.NoError(t, s.Load())
	require.NoError(t, s.Save())

	data, err := afero.ReadFile(fs, "capacities.csv")
	require.NoError(t, err)
	assert.Equal(t, "\ufeffkeuze;aantal\nKeuken;\n", string(data))
}
