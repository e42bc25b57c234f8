package domain

import "strings"

// Prompt is a grounded question. Completers that talk to a language model
// send Render(); local completers may use the parts directly.
type Prompt struct {
	Instruction string
	Context     string
	Question    string
}

// Render lays the prompt out as a single instruction block.
func (p Prompt) Render() string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(p.Instruction))
	b.WriteString("\n\nDocument content:\n")
	b.WriteString(p.Context)
	b.WriteString("\n\nQuestion: ")
	b.WriteString(strings.TrimSpace(p.Question))
	b.WriteString("\n\nAnswer:")
	return b.String()
}
