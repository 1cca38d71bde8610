package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/edutrack/core"
)

var errEmptyAnswer = errors.New("empty answer")

const pendingCreationMsg = "El usuario aún no ha sido creado. Envía los datos que faltan o responde \"no\" para crearlo con los datos actuales."

const systemPrompt = `Eres el asistente virtual de EduTrack, un sistema de gestión académica.
Responde siempre en español, de forma breve y amable.
Nunca afirmes haber creado usuarios o cursos ni generado reportes: esas acciones solo las realiza el sistema.
Si el usuario quiere crear algo, indícale qué datos debe enviar.`

// Completer is a language model answering a message under a system prompt.
type Completer interface {
	Complete(ctx context.Context, system, message string) (string, error)
}

// Bridge answers messages no action handles, through the language model when one is configured
// and from the knowledge base otherwise or on failure.
type Bridge struct {
	llm     Completer
	kb      *KnowledgeBase
	timeout time.Duration
	logger  core.Logger
}

func NewBridge(llm Completer, kb *KnowledgeBase, timeout time.Duration, logger core.Logger) *Bridge {
	return &Bridge{llm: llm, kb: kb, timeout: timeout, logger: logger}
}

// Ask returns a non-empty answer to message. prompt adds turn context to the system prompt.
// A user creation that has not completed is never handed to the model.
func (b *Bridge) Ask(ctx context.Context, prompt string, intent Intent, e Entities, message string) string {
	if intent == IntentCreateUser && !e.Flag(FieldUserCreationCompleted) {
		if p := BuildPrompt(intent, e); p != "" {
			return p
		}
		return pendingCreationMsg
	}
	if b.llm == nil {
		return b.kb.Answer(message)
	}

	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}
	answer, err := b.llm.Complete(ctx, b.system(prompt, intent, e, message), message)
	if err == nil && strings.TrimSpace(answer) == "" {
		err = errEmptyAnswer
	}
	if err != nil {
		b.logger.Warn("assistant.Bridge.Ask: falling back to knowledge base", err, map[string]interface{}{"intent": intent})
		return b.kb.Answer(message)
	}
	return answer
}

func (b *Bridge) system(prompt string, intent Intent, e Entities, message string) string {
	var sb strings.Builder
	sb.WriteString(systemPrompt)
	if prompt != "" {
		sb.WriteString("\n\n" + prompt)
	}
	fmt.Fprintf(&sb, "\n\nIntención detectada: %s", intent)
	if len(e) > 0 {
		if data, err := json.Marshal(e); err == nil {
			fmt.Fprintf(&sb, "\nDatos detectados: %s", data)
		}
	}
	if ref := b.kb.Answer(message); ref != "" {
		sb.WriteString("\n\nInformación de referencia:\n" + ref)
	}
	return sb.String()
}
