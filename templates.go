package formkit

import (
	"io/fs"

	"github.com/goliatone/go-formkit/pkg/messages"
)

// EmbeddedTemplates exposes the built-in validation message templates so
// callers can reuse or override them without importing the messages package
// directly.
func EmbeddedTemplates() fs.FS {
	return messages.TemplatesFS()
}
