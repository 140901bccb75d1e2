package worker

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Transform applies the pipeline's processing step to a payload: uppercase
// the text and report the length of the transformed string in bytes. The
// function is pure and deterministic; the same payload always yields the
// same output regardless of worker or timing.
//
// Payloads that are not valid UTF-8 are rejected, since case mapping over
// arbitrary bytes would silently mangle them.
func Transform(payload string) (string, int, error) {
	if !utf8.ValidString(payload) {
		return "", 0, fmt.Errorf("payload is not valid UTF-8")
	}

	output := strings.ToUpper(payload)
	return output, len(output), nil
}
