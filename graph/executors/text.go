package executors

import (
	"context"
	"regexp"
	"strings"

	"github.com/dshills/pipeline-go/graph"
)

var (
	placeholderPattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)
	whitespaceRun      = regexp.MustCompile(`\s+`)
)

// TextExecutor fills {{variable}} placeholders in its "text" config from
// bound inputs. Variable names are trimmed and inner whitespace becomes
// "_", so {{ first name }} reads input "first_name". Unbound variables
// render as "".
type TextExecutor struct{}

// Execute implements graph.Executor.
func (TextExecutor) Execute(_ context.Context, cfg map[string]any, in graph.Inputs) (graph.Outputs, error) {
	text := placeholderPattern.ReplaceAllStringFunc(configString(cfg, "text", ""), func(match string) string {
		name := VariableName(placeholderPattern.FindStringSubmatch(match)[1])
		return stringify(in[name])
	})
	return graph.Outputs{"output": text, "processedText": text}, nil
}

// VariableName normalizes the inside of a placeholder to an input port name.
func VariableName(raw string) string {
	return whitespaceRun.ReplaceAllString(strings.TrimSpace(raw), "_")
}

// TemplateVariables lists the distinct input names a template refers to,
// in first-use order.
func TemplateVariables(text string) []string {
	var names []string
	seen := map[string]bool{}
	for _, m := range placeholderPattern.FindAllStringSubmatch(text, -1) {
		name := VariableName(m[1])
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}
