package command

import "testing"

func TestRender(t *testing.T) {
	tests := map[string]struct {
		tree Tree
		exp  string
	}{
		"external": {
			tree: NewExternal(Segment{"ls", "-la"}, false),
			exp:  "ls -la",
		},
		"builtin backgrounded": {
			tree: NewBuiltIn(Segment{"jobs"}, true),
			exp:  "jobs &",
		},
		"pipeline": {
			tree: NewPipeline([]Tree{
				NewExternal(Segment{"cat", "f"}, false),
				NewExternal(Segment{"grep", "x"}, false),
			}, false),
			exp: "cat f | grep x",
		},
		"pipeline backgrounded": {
			tree: NewPipeline([]Tree{
				NewExternal(Segment{"yes"}, false),
				NewExternal(Segment{"head"}, false),
			}, true),
			exp: "yes | head &",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			if actual := test.tree.Render(); actual != test.exp {
				t.Fatalf("unexpected render; actual: %q, expected: %q", actual, test.exp)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := map[string]struct {
		program string
		exp     Kind
	}{
		"external":   {program: "ls", exp: External},
		"cd builtin": {program: "cd", exp: BuiltIn},
		"history":    {program: "history", exp: BuiltIn},
		"h alias":    {program: "h", exp: BuiltIn},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			tree := Classify(Segment{test.program}, false)
			if tree.Kind != test.exp {
				t.Fatalf("unexpected kind; actual: %v, expected: %v", tree.Kind, test.exp)
			}
		})
	}
}

func TestProgram(t *testing.T) {
	pipeline := NewPipeline([]Tree{
		NewExternal(Segment{"cat", "f"}, false),
		NewExternal(Segment{"grep", "x"}, false),
	}, false)

	if actual := pipeline.Program(); actual != "cat" {
		t.Fatalf("unexpected program; actual: %q, expected: %q", actual, "cat")
	}
}
