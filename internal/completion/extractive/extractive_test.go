package extractive

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfqa/internal/domain"
)

const context1 = `The Nile is the longest river in Africa. It flows north into the Mediterranean Sea.
Cairo lies on the banks of the Nile. The Sahara is a desert.`

func TestCompletePicksMatchingSentencesInOrder(t *testing.T) {
	c := New(2, "")
	answer, err := c.Complete(context.Background(), domain.Prompt{
		Context:  context1,
		Question: "Which city lies on the Nile?",
	})
	require.NoError(t, err)
	assert.Equal(t, "The Nile is the longest river in Africa. Cairo lies on the banks of the Nile.", answer)
}

func TestCompleteWithoutOverlapSaysNotFound(t *testing.T) {
	c := New(3, "nothing here")
	answer, err := c.Complete(context.Background(), domain.Prompt{
		Context:  context1,
		Question: "quantum chromodynamics?",
	})
	require.NoError(t, err)
	assert.Equal(t, "nothing here", answer)

	answer, err = New(3, "").Complete(context.Background(), domain.Prompt{Context: context1, Question: "what is the?"})
	require.NoError(t, err)
	assert.Equal(t, DefaultNotFound, answer)
}

func TestCompleteDeduplicatesOverlappingChunks(t *testing.T) {
	c := New(5, "")
	answer, err := c.Complete(context.Background(), domain.Prompt{
		Context:  "Go has goroutines.\n\nGo has goroutines.\n\nChannels connect goroutines",
		Question: "goroutines",
	})
	require.NoError(t, err)
	assert.Equal(t, "Go has goroutines. Channels connect goroutines", answer)
}
