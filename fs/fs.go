// Package appfs embeds the static assets shipped with the binaries:
// SQL migrations, e-mail templates, the assistant knowledge base and the common-password list.
package appfs

import "embed"

//go:embed migrations/*.sql templates/email/* assistant/*.yaml passwords/common-passwords.txt
var FS embed.FS

const (
	MigrationsDir     = "migrations"
	EmailTemplatesDir = "templates/email"
	KnowledgeBaseFile = "assistant/knowledge.yaml"
	CommonPasswords   = "passwords/common-passwords.txt"
)
