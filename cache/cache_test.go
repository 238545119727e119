package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	rest "github.com/go-sif/sif-rest"
	"github.com/go-sif/sif-rest/errors"
	"github.com/stretchr/testify/require"
)

func countingInvoker(calls *int32, body string) rest.InvokerFunc {
	return func(ctx context.Context, row rest.InputRow) *rest.Response {
		atomic.AddInt32(calls, 1)
		return &rest.Response{StatusCode: 200, Body: []byte(body)}
	}
}

func TestGetOrInvokeCachesByValue(t *testing.T) {
	var calls int32
	c := New(&Config{})
	invoke := countingInvoker(&calls, `{"a":1}`)

	resp, hit := c.GetOrInvoke(context.Background(), rest.InputRow{"x": 1, "y": "b"}, invoke)
	require.False(t, hit)
	require.Equal(t, `{"a":1}`, string(resp.Body))

	// distinct map instance, same values
	resp, hit = c.GetOrInvoke(context.Background(), rest.InputRow{"y": "b", "x": 1}, invoke)
	require.True(t, hit)
	require.Equal(t, `{"a":1}`, string(resp.Body))
	require.EqualValues(t, 1, calls)

	_, hit = c.GetOrInvoke(context.Background(), rest.InputRow{"x": 2, "y": "b"}, invoke)
	require.False(t, hit)
	require.EqualValues(t, 2, calls)
	require.Equal(t, 2, c.Len())
	require.EqualValues(t, 1, c.Hits())
	require.EqualValues(t, 2, c.Misses())
}

func TestConcurrentDuplicatesInvokeOnce(t *testing.T) {
	var calls int32
	c := New(&Config{NumShards: 4})
	inv := Decorate(countingInvoker(&calls, `{"k":"v"}`), c)

	responses := make([]*rest.Response, 64)
	var wg sync.WaitGroup
	for i := range responses {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			responses[i] = inv.Invoke(context.Background(), rest.InputRow{"id": i % 4})
		}(i)
	}
	wg.Wait()
	for _, resp := range responses {
		require.True(t, resp.OK())
	}
	require.EqualValues(t, 4, calls)
	require.Equal(t, 4, c.Len())
}

func TestFailuresAreCached(t *testing.T) {
	var calls int32
	c := New(nil)
	invoke := func(ctx context.Context, row rest.InputRow) *rest.Response {
		atomic.AddInt32(&calls, 1)
		return &rest.Response{StatusCode: 500, Body: []byte("boom"), Err: errors.HTTPError{StatusCode: 500, Body: []byte("boom")}}
	}
	row := rest.InputRow{"id": 1}
	first, _ := c.GetOrInvoke(context.Background(), row, invoke)
	second, hit := c.GetOrInvoke(context.Background(), row, invoke)
	require.True(t, hit)
	require.EqualValues(t, 1, calls)
	require.Equal(t, first.Err, second.Err)
	require.Equal(t, 500, second.StatusCode)
}

func TestCancellationIsNotCached(t *testing.T) {
	var calls int32
	c := New(nil)
	invoke := func(ctx context.Context, row rest.InputRow) *rest.Response {
		atomic.AddInt32(&calls, 1)
		return &rest.Response{Err: context.Canceled}
	}
	row := rest.InputRow{"id": 1}
	c.GetOrInvoke(context.Background(), row, invoke)
	c.GetOrInvoke(context.Background(), row, invoke)
	require.EqualValues(t, 2, calls)
	require.Equal(t, 0, c.Len())
}

func TestCompressedBodies(t *testing.T) {
	var calls int32
	c := New(&Config{CompressBodies: true})
	body := `{"region":"Northern California","values":[1,2,3,4,5,6,7,8,9,10]}`
	invoke := countingInvoker(&calls, body)
	row := rest.InputRow{"id": 1}
	c.GetOrInvoke(context.Background(), row, invoke)
	resp, hit := c.GetOrInvoke(context.Background(), row, invoke)
	require.True(t, hit)
	require.Equal(t, body, string(resp.Body))
}

func TestDestroy(t *testing.T) {
	var calls int32
	c := New(nil)
	invoke := countingInvoker(&calls, `{}`)
	c.GetOrInvoke(context.Background(), rest.InputRow{"id": 1}, invoke)
	require.Equal(t, 1, c.Len())
	c.Destroy()
	require.Equal(t, 0, c.Len())
	_, hit := c.GetOrInvoke(context.Background(), rest.InputRow{"id": 1}, invoke)
	require.False(t, hit)
}

func TestTimeoutsAreCached(t *testing.T) {
	var calls int32
	c := New(nil)
	invoke := func(ctx context.Context, row rest.InputRow) *rest.Response {
		atomic.AddInt32(&calls, 1)
		return &rest.Response{Err: errors.TimeoutError{URL: "http://localhost", Cause: context.DeadlineExceeded}}
	}
	row := rest.InputRow{"id": 1}
	c.GetOrInvoke(context.Background(), row, invoke)
	_, hit := c.GetOrInvoke(context.Background(), row, invoke)
	require.True(t, hit)
	require.EqualValues(t, 1, calls)
}
