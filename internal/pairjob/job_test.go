package pairjob

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/suPer8Hu/pairhub/internal/conversation"
	"github.com/suPer8Hu/pairhub/internal/pairing"
)

type fakeCreator struct {
	mu    sync.Mutex
	calls [][2]any
	err   error
}

func (f *fakeCreator) CreatePair(_ context.Context, a, b any) (*conversation.DevicePair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, [2]any{a, b})
	if f.err != nil {
		return nil, f.err
	}
	return &conversation.DevicePair{ID: pairing.PairID(a, b)}, nil
}

func (f *fakeCreator) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestDecode(t *testing.T) {
	m, err := Decode([]byte(`{"device_a": "device_33", "device_b": 10}`))
	require.NoError(t, err)
	require.Equal(t, "device_33", m.DeviceA)
	require.Equal(t, json.Number("10"), m.DeviceB)

	for _, bad := range []string{`nope`, `{}`, `{"device_a": "x"}`, `{"device_a": "", "device_b": "y"}`} {
		_, err := Decode([]byte(bad))
		require.ErrorIs(t, err, ErrBadMessage, bad)
	}
}

func TestHandle(t *testing.T) {
	c := &fakeCreator{}
	p, err := Handle(context.Background(), c, []byte(`{"device_a": 33, "device_b": "device_10"}`))
	require.NoError(t, err)
	require.Equal(t, "pair_10_33", p.ID)
	require.Equal(t, 1, c.count())

	c.err = errors.New("db down")
	_, err = Handle(context.Background(), c, []byte(`{"device_a": 1, "device_b": 2}`))
	require.EqualError(t, err, "db down")
}
