package rest

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanonicalKey(t *testing.T) {
	a := InputRow{"region": "Nevada", "id": 1, "nested": map[string]interface{}{"z": 1, "a": 2}}
	b := InputRow{"nested": map[string]interface{}{"a": 2, "z": 1}, "id": 1, "region": "Nevada"}
	ka, err := a.CanonicalKey()
	require.Nil(t, err)
	kb, err := b.CanonicalKey()
	require.Nil(t, err)
	require.Equal(t, ka, kb)
	require.Equal(t, `{"id":1,"nested":{"a":2,"z":1},"region":"Nevada"}`, ka)

	kc, err := InputRow{"region": "Nevada", "id": 2}.CanonicalKey()
	require.Nil(t, err)
	require.NotEqual(t, ka, kc)
	require.Equal(t, []string{"id", "nested", "region"}, a.Keys())
}

func TestCanonicalKeyConcurrentNested(t *testing.T) {
	rows := make([]InputRow, 64)
	for i := range rows {
		wide := make(map[string]interface{}, 40)
		for j := 0; j < 40; j++ {
			wide[fmt.Sprintf("k%02d", j)] = []interface{}{j, map[string]interface{}{"v": i}}
		}
		rows[i] = InputRow{"id": i, "wide": wide, "tags": []string{"a", "b"}}
	}
	keys := make([]string, len(rows))
	errs := make([]error, len(rows))
	var wg sync.WaitGroup
	for i := range rows {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			keys[i], errs[i] = rows[i].CanonicalKey()
		}(i)
	}
	wg.Wait()
	seen := make(map[string]bool, len(keys))
	for i, k := range keys {
		require.Nil(t, errs[i])
		require.Contains(t, k, fmt.Sprintf(`"id":%d,`, i))
		require.Contains(t, k, `"k00":[0,{"v":`)
		seen[k] = true
	}
	require.Len(t, seen, len(rows))
}

func TestRowStateAdvance(t *testing.T) {
	s, err := Pending.Advance(Invoked)
	require.Nil(t, err)
	require.Equal(t, Invoked, s)
	s, err = s.Advance(ParsedCorrupt)
	require.Nil(t, err)
	require.True(t, s.IsFinal())
	_, err = s.Advance(ParsedOk)
	require.NotNil(t, err)
	_, err = Pending.Advance(ParsedOk)
	require.NotNil(t, err)
	require.Equal(t, "ParsedCorrupt", ParsedCorrupt.String())
}

func TestResponseOK(t *testing.T) {
	require.True(t, (&Response{StatusCode: 204}).OK())
	require.False(t, (&Response{StatusCode: 302}).OK())
}
