package theme

import (
	"strings"

	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// HighlightDiff runs unified-diff text through chroma's diff lexer for
// richer coloring than the plain line-kind styles. The second return is
// false when highlighting failed; callers fall back to line-kind styling.
func HighlightDiff(src string) (string, bool) {
	lexer := lexers.Get("diff")
	if lexer == nil {
		return "", false
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		return "", false
	}
	style := styles.Get("native")
	if style == nil {
		style = styles.Fallback
	}

	iterator, err := lexer.Tokenise(nil, src)
	if err != nil {
		return "", false
	}
	var sb strings.Builder
	if err := formatter.Format(&sb, style, iterator); err != nil {
		return "", false
	}
	return sb.String(), true
}
