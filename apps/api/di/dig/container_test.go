package dig_container

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/edutrack/apps/api/echo"
	"github.com/trezcool/edutrack/core"
	"github.com/trezcool/edutrack/core/assistant"
	inmem "github.com/trezcool/edutrack/storage/database/inmem"
)

func TestNew(t *testing.T) {
	c := New(core.NewTestConfig)

	err := c.Invoke(func(storage Storage, llm assistant.Completer, server *echoapi.Server) {
		assert.IsType(t, new(inmem.Store), storage.Store)
		assert.Nil(t, storage.DB)
		assert.NoError(t, storage.Close())
		assert.Nil(t, llm)
		assert.NotNil(t, server)
	})
	require.NoError(t, err)
}

func TestNewCompleter(t *testing.T) {
	conf := core.NewTestConfig()
	assert.Nil(t, newCompleter(conf))

	conf.Assistant.LLMEnabled = true
	assert.Nil(t, newCompleter(conf), "no API key")

	conf.Assistant.OpenAIKey = "sk-test"
	assert.NotNil(t, newCompleter(conf))
}
