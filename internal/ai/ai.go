// Package ai defines the completion service contract the screening engine
// scores with.
package ai

import "context"

// Completer sends a text prompt to a language-model completion service and
// returns the raw textual response. Implementations perform no response
// parsing; the caller owns validation of the returned text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
