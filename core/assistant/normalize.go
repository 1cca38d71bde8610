package assistant

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var placeholderRe = regexp.MustCompile(`\[[^\]]*\]`)

// fold lower-cases s and strips its diacritics: "Código Ñandú" -> "codigo nandu".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return strings.ToLower(out)
}

// stripPlaceholders removes template placeholders such as "[opcional]".
func stripPlaceholders(s string) string {
	return placeholderRe.ReplaceAllString(s, " ")
}

func isShort(message string, threshold int) bool {
	return utf8.RuneCountInString(strings.TrimSpace(message)) < threshold
}

// reply reduces a message to its folded words: "¡No, gracias!" -> "no gracias".
func reply(message string) string {
	f := fold(message)
	return strings.Join(strings.FieldsFunc(f, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}), " ")
}

var (
	negativeReplies = []string{"no", "ninguno", "ninguna", "nada", "no gracias", "no quiero", "no necesito"}

	dismissalReplies = []string{
		"no", "ninguno", "ninguna", "nada", "no gracias", "continuar", "continua", "continue",
		"asi esta bien", "asi estan bien", "esta bien asi", "asi", "listo", "sin datos opcionales",
		"no quiero agregar mas", "no agregar", "omitir", "saltar", "crear asi", "crealo asi",
		"crealo", "no hace falta", "no es necesario",
	}

	affirmativeReplies = []string{
		"si", "claro", "ok", "okay", "dale", "por favor", "si por favor", "si gracias",
		"de acuerdo", "correcto", "adelante", "descargar", "descargalo", "si descargar", "si descargalo",
		"quiero descargarlo", "bajar", "si quiero",
	}

	cancelReplies = []string{"cancelar", "cancela", "olvidalo", "olvida", "salir", "detener", "parar"}
)

func matchesReply(message string, replies []string) bool {
	r := reply(message)
	for _, candidate := range replies {
		if r == candidate {
			return true
		}
	}
	return false
}

// isNegative is the exact "no"/"ninguno" answer to a filter prompt.
func isNegative(message string) bool {
	return matchesReply(message, negativeReplies)
}

// isDismissal is a "skip the optional fields" reply. Near-exact: a trailing "gracias" is tolerated.
func isDismissal(message string) bool {
	r := strings.TrimSuffix(reply(message), " gracias")
	for _, candidate := range dismissalReplies {
		if r == candidate {
			return true
		}
	}
	return false
}

func isAffirmative(message string) bool {
	return matchesReply(message, affirmativeReplies)
}

func isCancel(message string) bool {
	return matchesReply(message, cancelReplies)
}
