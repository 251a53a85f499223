package skills

import (
	"fmt"
	"regexp"
	"strings"
)

// Update payloads originate from a generative process that may be tempted
// to emit "just the changed part" of a skill. Accepting that would silently
// destroy accumulated procedural knowledge, so a replacement body is
// screened before it is accepted. The checks are deliberately heuristic:
// false positives and negatives at the margins are an accepted
// safety-over-precision tradeoff.
const (
	// GuardMinChars and GuardMinLines define when an existing body is
	// substantial enough to protect.
	GuardMinChars = 240
	GuardMinLines = 6

	// GuardShrinkRatio: a new body under this fraction of the existing
	// length looks like a truncation.
	GuardShrinkRatio = 0.30

	// GuardLineFloor: a shrunken body with fewer non-empty lines than this
	// is rejected.
	GuardLineFloor = 4

	// GuardManyLines / GuardFewLines: a body collapsing from "many" lines
	// to "very few" is rejected regardless of character ratio.
	GuardManyLines = 20
	GuardFewLines  = 3
)

var (
	hunkHeader    = regexp.MustCompile(`(?m)^@@ -\d+(,\d+)? \+\d+(,\d+)? @@`)
	oldFileHeader = regexp.MustCompile(`(?m)^--- \S`)
	newFileHeader = regexp.MustCompile(`(?m)^\+\+\+ \S`)
	diffGitHeader = regexp.MustCompile(`(?m)^diff --git `)
)

// validateReplacement rejects a proposed body that looks like a diff/patch
// fragment or a truncation of the existing body. A nil return means the
// proposal is a plausible complete replacement.
func validateReplacement(existing, proposed string) error {
	if looksLikePatch(proposed) {
		return fmt.Errorf("%w: body looks like a diff/patch fragment", ErrUnsafeUpdate)
	}

	substantial := len(existing) >= GuardMinChars || lineCount(existing) >= GuardMinLines
	if !substantial {
		return nil
	}

	shrunken := float64(len(proposed)) < GuardShrinkRatio*float64(len(existing))
	if shrunken && nonEmptyLineCount(proposed) < GuardLineFloor {
		return fmt.Errorf("%w: body shrank to %d of %d chars with %d non-empty lines",
			ErrUnsafeUpdate, len(proposed), len(existing), nonEmptyLineCount(proposed))
	}
	if lineCount(existing) >= GuardManyLines && nonEmptyLineCount(proposed) <= GuardFewLines {
		return fmt.Errorf("%w: body collapsed from %d lines to %d non-empty lines",
			ErrUnsafeUpdate, lineCount(existing), nonEmptyLineCount(proposed))
	}
	return nil
}

// looksLikePatch detects unified-diff shapes: a hunk header, a ---/+++
// file-header pair, or a git diff header. Single "---" markdown rules do
// not trigger it.
func looksLikePatch(body string) bool {
	if hunkHeader.MatchString(body) || diffGitHeader.MatchString(body) {
		return true
	}
	return oldFileHeader.MatchString(body) && newFileHeader.MatchString(body)
}

func lineCount(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}

func nonEmptyLineCount(s string) int {
	n := 0
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}
