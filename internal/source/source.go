// Package source turns pasted text and uploaded documents into the plain
// text the pipeline works on.
package source

import (
	"context"
	"strings"

	"github.com/abhisek/quizrag/internal/mcq"
)

// Normalize trims raw input and rejects it when nothing is left.
func Normalize(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", mcq.NewError(mcq.KindInput, "Input text cannot be empty.")
	}
	return text, nil
}

// Select picks the pipeline input. A document, when one is given, wins
// over pasted text.
func Select(loader *Loader, path, pasted string) (string, error) {
	return SelectContext(context.Background(), loader, path, pasted)
}

// SelectContext is Select with ctx passed through to the loader.
func SelectContext(ctx context.Context, loader *Loader, path, pasted string) (string, error) {
	if path != "" {
		text, err := loader.LoadContext(ctx, path)
		if err != nil {
			return "", err
		}
		return Normalize(text)
	}
	return Normalize(pasted)
}
