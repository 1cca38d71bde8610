package assistant

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/edutrack/core"
	"github.com/trezcool/edutrack/services/logger"
)

const testKnowledge = `
fallback: No sé la respuesta.
entries:
  - topic: greeting
    keywords: [hola, buenos días]
    answer: ¡Hola!
  - topic: attendance
    keywords: [asistencia, faltas]
    answer: Sobre la asistencia.
  - topic: grades
    keywords: [calificación, notas, promedio]
    answer: Sobre las notas.
`

func newTestKB(t *testing.T) *KnowledgeBase {
	kb, err := ParseKnowledgeBase([]byte(testKnowledge))
	require.NoError(t, err)
	return kb
}

func newTestLogger() core.Logger {
	return logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), core.NewTestConfig())
}

func TestKnowledgeBase_Answer(t *testing.T) {
	kb := newTestKB(t)
	tests := []struct {
		message string
		want    string
	}{
		{"Hola", "¡Hola!"},
		{"Buenos días, ¿cómo están?", "¡Hola!"},
		{"hola, ¿cómo veo las faltas y la asistencia?", "Sobre la asistencia."},
		{"¿Cómo se calcula el promedio de la calificación?", "Sobre las notas."},
		{"¿cuál es la capital de Francia?", "No sé la respuesta."},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			assert.Equal(t, tt.want, kb.Answer(tt.message))
		})
	}
}

func TestLoadKnowledgeBase(t *testing.T) {
	kb, err := LoadKnowledgeBase()
	require.NoError(t, err)
	assert.NotEmpty(t, kb.Fallback)
	assert.NotEmpty(t, kb.Entries)
	assert.NotEqual(t, kb.Fallback, kb.Answer("necesito ayuda con un reporte"))
}

type fakeCompleter struct {
	answer string
	err    error
	delay  time.Duration
	calls  int
	system string
}

func (f *fakeCompleter) Complete(ctx context.Context, system, _ string) (string, error) {
	f.calls++
	f.system = system
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.answer, f.err
}

func TestBridge_Ask(t *testing.T) {
	ctx := context.Background()
	kb := newTestKB(t)
	logger := newTestLogger()

	t.Run("knowledge base without model", func(t *testing.T) {
		b := NewBridge(nil, kb, time.Second, logger)
		assert.Equal(t, "¡Hola!", b.Ask(ctx, "", IntentGeneralQuery, Entities{}, "hola"))
	})

	t.Run("model answer", func(t *testing.T) {
		llm := &fakeCompleter{answer: "Respuesta del modelo"}
		b := NewBridge(llm, kb, time.Second, logger)
		assert.Equal(t, "Respuesta del modelo", b.Ask(ctx, "El usuario tiene el rol de profesor.", IntentGeneralQuery, Entities{}, "hola"))
		assert.Equal(t, 1, llm.calls)
		assert.Contains(t, llm.system, "El usuario tiene el rol de profesor.")
		assert.Contains(t, llm.system, "¡Hola!")
	})

	t.Run("model error falls back", func(t *testing.T) {
		b := NewBridge(&fakeCompleter{err: errors.New("boom")}, kb, time.Second, logger)
		assert.Equal(t, "Sobre la asistencia.", b.Ask(ctx, "", IntentGeneralQuery, Entities{}, "asistencia"))
	})

	t.Run("empty model answer falls back", func(t *testing.T) {
		b := NewBridge(&fakeCompleter{answer: " "}, kb, time.Second, logger)
		assert.Equal(t, "No sé la respuesta.", b.Ask(ctx, "", IntentGeneralQuery, Entities{}, "qué tal"))
	})

	t.Run("timeout falls back", func(t *testing.T) {
		b := NewBridge(&fakeCompleter{answer: "tarde", delay: time.Second}, kb, 10*time.Millisecond, logger)
		assert.Equal(t, "¡Hola!", b.Ask(ctx, "", IntentGeneralQuery, Entities{}, "hola"))
	})

	t.Run("incomplete user creation is not handed to the model", func(t *testing.T) {
		llm := &fakeCompleter{answer: "Usuario creado"}
		b := NewBridge(llm, kb, time.Second, logger)
		answer := b.Ask(ctx, "", IntentCreateUser, Entities{FieldName: "Ana"}, "crear usuario Ana")
		assert.Zero(t, llm.calls)
		assert.Contains(t, answer, "falta: email")
	})

	t.Run("user creation not yet completed is not handed to the model", func(t *testing.T) {
		llm := &fakeCompleter{answer: "He creado el usuario."}
		b := NewBridge(llm, kb, time.Second, logger)
		e := Entities{FieldName: "Ana Torres", FieldEmail: "ana@x.com"}
		answer := b.Ask(ctx, "", IntentCreateUser, e, "Nombre: Ana Torres, Email: ana@x.com")
		assert.Zero(t, llm.calls)
		assert.NotEqual(t, "He creado el usuario.", answer)
		assert.NotEmpty(t, answer)

		e.SetFlag(FieldAllFieldsProvided, true)
		assert.Equal(t, pendingCreationMsg, b.Ask(ctx, "", IntentCreateUser, e, "listo"))
		assert.Zero(t, llm.calls)
	})

	t.Run("completed user creation reaches the model", func(t *testing.T) {
		llm := &fakeCompleter{answer: "Listo, ¿algo más?"}
		b := NewBridge(llm, kb, time.Second, logger)
		e := Entities{FieldName: "Ana Torres", FieldEmail: "ana@x.com"}
		e.SetFlag(FieldUserCreationCompleted, true)
		assert.Equal(t, "Listo, ¿algo más?", b.Ask(ctx, "", IntentCreateUser, e, "gracias"))
		assert.Equal(t, 1, llm.calls)
	})
}
