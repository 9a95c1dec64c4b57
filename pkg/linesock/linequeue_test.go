package linesock

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLineQueue_Empty(t *testing.T) {
	q := NewLineQueue()

	_, err := q.PopNowait()
	require.ErrorIs(t, err, ErrEmpty)
	require.Equal(t, 0, q.Len())
}

func TestLineQueue_PushThenPop(t *testing.T) {
	q := NewLineQueue()

	q.Push("first")
	q.Push("second")
	require.Equal(t, 2, q.Len())

	line, err := q.PopNowait()
	require.NoError(t, err)
	require.Equal(t, "first", line)

	line, err = q.PopNowait()
	require.NoError(t, err)
	require.Equal(t, "second", line)

	_, err = q.PopNowait()
	require.ErrorIs(t, err, ErrEmpty)
}

func TestLineQueue_CompactsWhileConsumerLags(t *testing.T) {
	q := NewLineQueue()

	next := 0
	for i := 0; i < 10*compactThreshold; i++ {
		q.Push(strconv.Itoa(i))
		q.Push(strconv.Itoa(i) + "b")
		line, err := q.PopNowait()
		require.NoError(t, err)
		if next%2 == 0 {
			require.Equal(t, strconv.Itoa(next/2), line)
		} else {
			require.Equal(t, strconv.Itoa(next/2)+"b", line)
		}
		next++
	}
	require.Equal(t, 10*compactThreshold, q.Len())
}

func TestLineQueue_ConcurrentFIFO(t *testing.T) {
	const total = 20000
	q := NewLineQueue()

	var wg sync.WaitGroup
	results := make([][]int, 3)

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < total; i++ {
			q.Push(strconv.Itoa(i))
		}
	}()

	var mu sync.Mutex
	received := 0
	for c := range results {
		wg.Add(1)
		go func(c int) {
			defer wg.Done()
			for {
				mu.Lock()
				finished := received == total
				mu.Unlock()
				if finished {
					return
				}

				line, err := q.PopNowait()
				if err != nil {
					continue
				}
				n, err := strconv.Atoi(line)
				if err != nil {
					panic(err)
				}
				results[c] = append(results[c], n)

				mu.Lock()
				received++
				mu.Unlock()
			}
		}(c)
	}

	wg.Wait()

	seen := make(map[int]bool, total)
	for _, got := range results {
		// Each consumer sees lines in push order
		for i := 1; i < len(got); i++ {
			require.Less(t, got[i-1], got[i])
		}
		for _, n := range got {
			require.False(t, seen[n], "line %d delivered twice", n)
			seen[n] = true
		}
	}
	require.Len(t, seen, total)
}
