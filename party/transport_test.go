package party

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBroadcastIsABarrier(t *testing.T) {
	const n = 4
	hub := NewRoundHub(n)

	var wg sync.WaitGroup
	results := make([][][]byte, n)
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(id int) {
			defer wg.Done()
			tr := hub.View(id)
			out, err := tr.Broadcast("round1", []byte(fmt.Sprintf("party-%d", id)))
			require.NoError(t, err)
			results[id] = out
		}(i)
	}
	wg.Wait()

	for id := 0; id < n; id++ {
		require.Len(t, results[id], n)
		for j := 0; j < n; j++ {
			require.Equal(t, fmt.Sprintf("party-%d", j), string(results[id][j]))
		}
	}
}

func TestSequentialRoundsDoNotInterfere(t *testing.T) {
	const n = 3
	hub := NewRoundHub(n)

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(id int) {
			defer wg.Done()
			tr := hub.View(id)

			out1, err := tr.Broadcast("a", []byte{byte(id)})
			require.NoError(t, err)
			require.Len(t, out1, n)

			out2, err := tr.Broadcast("b", []byte{byte(id + 10)})
			require.NoError(t, err)
			require.Len(t, out2, n)
			require.Equal(t, byte(10), out2[0][0])
		}(i)
	}
	wg.Wait()
}

func TestBroadcastRejectsOutOfRangeID(t *testing.T) {
	hub := NewRoundHub(2)
	bad := &LocalTransport{hub: hub, id: 5}
	_, err := bad.Broadcast("x", []byte("y"))
	require.Error(t, err)
}
