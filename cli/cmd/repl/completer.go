package repl

import (
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/nib/lang"
)

// ctrlCommands are the available control-mode commands.
var ctrlCommands = []string{"help", "list", "edit", "reset", "clear", "quit"}

// keywords complete like names but are never bound.
var keywords = []string{"true", "false", "nil"}

func isWordStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isWordByte(c byte) bool { return isWordStart(c) || (c >= '0' && c <= '9') }

// isWordName reports whether s is a name that can be typed as a word.
// Operator names such as "+" are bound in scope but are not words.
func isWordName(s string) bool {
	if s == "" || !isWordStart(s[0]) {
		return false
	}

	for i := 1; i < len(s); i++ {
		if !isWordByte(s[i]) {
			return false
		}
	}

	return !slices.Contains(keywords, s)
}

// wordBounds returns the word at the cursor position and its byte
// boundaries within input. Returns an empty word when the cursor is not
// adjacent to a word.
func wordBounds(input string, cursor int) (word string, start, end int) {
	cursor = min(max(cursor, 0), len(input))

	start = cursor
	for start > 0 && isWordByte(input[start-1]) {
		start--
	}

	end = cursor
	for end < len(input) && isWordByte(input[end]) {
		end++
	}

	// "%s" and "%array" name macros, not bindings.
	if start > 0 && input[start-1] == '%' {
		return "", cursor, cursor
	}

	return input[start:end], start, end
}

// nameCandidates returns the word names visible from scope plus keywords.
func nameCandidates(scope *lang.Scope) []string {
	names := slices.DeleteFunc(scope.Names(), func(s string) bool {
		return !isWordName(s)
	})

	return append(names, keywords...)
}

// computeMatches calculates the fuzzy match results for the word at the
// cursor, ranked best-first. An empty word has no matches so that the hint
// line stays visible.
func (m model) computeMatches() (
	matches fuzzy.Matches,
	candidates []string,
	wordStart, wordEnd int,
) {
	word, wordStart, wordEnd := wordBounds(m.input.Value(), m.input.Position())
	if word == "" {
		return nil, nil, wordStart, wordEnd
	}

	if m.mode == modeCtrl {
		candidates = ctrlCommands
	} else {
		candidates = nameCandidates(m.session.scope())
	}

	return fuzzy.Find(word, candidates), candidates, wordStart, wordEnd
}

// renderCandidateBar builds the single-line completion bar, ellipsized to fit
// within the given terminal width.
func renderCandidateBar(
	matches fuzzy.Matches,
	suggIdx int,
	tabActive bool,
	width int,
	scope *lang.Scope,
) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	sepWidth := lipgloss.Width(sep)
	ellipsis := hintStyle.Render("...")
	ellipsisWidth := lipgloss.Width(ellipsis)

	var b strings.Builder

	used := 0

	for i, match := range matches {
		rendered := renderCandidate(match, tabActive && i == suggIdx, scope)

		entryWidth := lipgloss.Width(rendered)
		if i > 0 {
			entryWidth += sepWidth
		}

		if i > 0 && used+entryWidth+ellipsisWidth > width {
			b.WriteString(sep)
			b.WriteString(ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += entryWidth
	}

	return b.String()
}

// renderCandidate renders a single candidate with matched characters
// highlighted. Functions are followed by their parameter names.
func renderCandidate(match fuzzy.Match, selected bool, scope *lang.Scope) string {
	baseStyle := suggestionStyle
	highlightStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("4")).
		Bold(true)

	if selected {
		baseStyle = selectedStyle
		highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4")).
			Bold(true)
	}

	var b strings.Builder

	for i, r := range match.Str {
		if slices.Contains(match.MatchedIndexes, i) {
			b.WriteString(highlightStyle.Render(string(r)))
		} else {
			b.WriteString(baseStyle.Render(string(r)))
		}
	}

	if scope != nil {
		if params, ok := getSignature(scope, match.Str); ok {
			b.WriteString(hintStyle.Render(` \` + strings.Join(append([]string{""}, params...), " ")))
		}
	}

	return b.String()
}

// formatPreview returns a one-line preview of a bound value.
func formatPreview(value any, width int) string {
	preview := lang.FormatValue(value)
	if s, ok := value.(string); ok {
		preview = `%s ` + strings.ReplaceAll(s, "\n", `\n`)
	}

	if width > 3 && len(preview) > width {
		return preview[:width-3] + "..."
	}

	return preview
}
