// Package command defines the shell's command tree: the tagged value a
// tokenized input line is turned into before it reaches a built-in, an
// external-process executor, or the pipeline executor.
package command

import "strings"

// Word is a non-empty string produced by the tokenizer. It carries no
// interpretation beyond the split itself.
type Word = string

// Segment is a single pipeline stage: an ordered, non-empty sequence of
// Words. Segment[0] is the program name; the full slice is the argument
// vector, including argv[0].
type Segment []Word

// Program returns the segment's leading word, the program or built-in
// name.
func (s Segment) Program() string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}

// Render reproduces the segment's source text, words joined by single
// spaces.
func (s Segment) Render() string {
	return strings.Join(s, " ")
}

// Kind distinguishes the three shapes a Tree may take.
type Kind int

const (
	// External marks a single segment naming a program on the host.
	External Kind = iota
	// BuiltIn marks a single segment naming a built-in command.
	BuiltIn
	// Pipeline marks an ordered sequence of two or more stages, each
	// External or BuiltIn, chained by pipes.
	Pipeline
)

// Tree is the tagged command value parsed from one input line. Per
// invariant, a Pipeline never nests another Pipeline, and the
// Background flag on a Pipeline's inner Stages is meaningless — only the
// Tree's own Background flag governs foreground/background placement.
type Tree struct {
	Kind Kind

	// Segment is populated when Kind is External or BuiltIn.
	Segment Segment

	// Stages is populated when Kind is Pipeline; len(Stages) >= 2. Each
	// stage's own Kind is External or BuiltIn, never Pipeline.
	Stages []Tree

	// Background indicates a trailing "&" was present on the input line.
	Background bool
}

// NewExternal builds a single-stage External Tree.
func NewExternal(seg Segment, background bool) Tree {
	return Tree{Kind: External, Segment: seg, Background: background}
}

// NewBuiltIn builds a single-stage BuiltIn Tree.
func NewBuiltIn(seg Segment, background bool) Tree {
	return Tree{Kind: BuiltIn, Segment: seg, Background: background}
}

// NewPipeline builds a multi-stage Tree. stages must have length >= 2;
// callers are expected to have already classified each stage as
// External or BuiltIn.
func NewPipeline(stages []Tree, background bool) Tree {
	return Tree{Kind: Pipeline, Stages: stages, Background: background}
}

// Render reproduces the Tree's source text: stages joined by " | ", with
// a trailing " &" if the Tree runs in the background. This is the
// rendering used for history and job-table lines.
func (t Tree) Render() string {
	var parts []string
	switch t.Kind {
	case Pipeline:
		for _, stage := range t.Stages {
			parts = append(parts, stage.Segment.Render())
		}
	default:
		parts = append(parts, t.Segment.Render())
	}

	rendered := strings.Join(parts, " | ")
	if t.Background {
		rendered += " &"
	}
	return rendered
}

// Program returns the leading program name a Tree will invoke. For a
// Pipeline this is the first stage's program, matching the convention
// built-in dispatch only ever looks at a whole single-stage Tree.
func (t Tree) Program() string {
	switch t.Kind {
	case Pipeline:
		if len(t.Stages) == 0 {
			return ""
		}
		return t.Stages[0].Segment.Program()
	default:
		return t.Segment.Program()
	}
}

// BuiltInNames lists the words the tokenizer-to-tree classification
// step recognizes as built-ins.
var BuiltInNames = map[string]struct{}{
	"cd":      {},
	"pwd":     {},
	"exit":    {},
	"jobs":    {},
	"fg":      {},
	"bg":      {},
	"kill":    {},
	"history": {},
	"h":       {},
}

// IsBuiltIn reports whether name is a recognized built-in command.
func IsBuiltIn(name string) bool {
	_, ok := BuiltInNames[name]
	return ok
}

// Classify builds a single-stage Tree from seg, tagging it External or
// BuiltIn based on its program name.
func Classify(seg Segment, background bool) Tree {
	if IsBuiltIn(seg.Program()) {
		return NewBuiltIn(seg, background)
	}
	return NewExternal(seg, background)
}
