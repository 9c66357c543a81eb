package runstream

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/kairodev/kairo/internal/errors"
)

func TestPipeDeliversInOrder(t *testing.T) {
	p := NewPipe(4)
	ctx := context.Background()

	for _, content := range []string{"a", "b", "c"} {
		prim := NewPrimitive(PrimTextDelta, map[string]any{"content": content})
		require.NoError(t, p.Send(ctx, prim))
	}
	p.CloseSend()

	var got []string
	for {
		prim, err := p.Next()
		if err != nil {
			assert.ErrorIs(t, err, io.EOF)
			break
		}
		evt, ok := Normalize(prim)
		require.True(t, ok)
		got = append(got, evt.(Text).Content)
	}
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestPipeFailDrainsBufferFirst(t *testing.T) {
	p := NewPipe(2)
	ctx := context.Background()

	prim := NewPrimitive(PrimTextDelta, map[string]any{"content": "buffered"})
	require.NoError(t, p.Send(ctx, prim))
	p.Fail(apperrors.Transport("connection reset"))

	got, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, PrimTextDelta, got.Type)

	_, err = p.Next()
	assert.ErrorIs(t, err, apperrors.ErrTransport)
}

func TestPipeSendAfterClose(t *testing.T) {
	p := NewPipe(0)
	require.NoError(t, p.Close())

	prim := Primitive{Type: PrimDone}
	err := p.Send(context.Background(), prim)
	assert.ErrorIs(t, err, apperrors.ErrTransport)

	_, err = p.Next()
	assert.ErrorIs(t, err, apperrors.ErrTransport)
}

func TestPipeSendHonorsContext(t *testing.T) {
	p := NewPipe(0) // unbuffered, nobody reading
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Send(ctx, Primitive{Type: PrimDone})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPipeCloseIsIdempotent(t *testing.T) {
	p := NewPipe(1)
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	p.CloseSend()
	p.CloseSend()
	p.Fail(errors.New("late"))
}
