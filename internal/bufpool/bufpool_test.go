package bufpool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetPutScratch(t *testing.T) {
	b := Get()
	assert.Len(t, *b, ScratchSize)
	Put(b)

	b2 := Get()
	assert.Len(t, *b2, ScratchSize)
	Put(b2)
}

func TestPutDiscardsWrongSize(t *testing.T) {
	wrong := make([]byte, 10)
	Put(&wrong) // must not panic, must not pollute the pool

	b := Get()
	assert.Len(t, *b, ScratchSize)
}

func TestGetChunkResizes(t *testing.T) {
	b := GetChunk(100)
	assert.Len(t, *b, 100)
	PutChunk(b)

	b2 := GetChunk(32768)
	assert.Len(t, *b2, 32768)
	PutChunk(b2)
}
