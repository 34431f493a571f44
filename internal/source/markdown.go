package source

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// CodeBlock represents a fenced code block found in markdown content.
type CodeBlock struct {
	// Lang is the language identifier of the code block, if any.
	Lang string
	// Content is the raw text inside the code block.
	Content string
}

// ExtractCodeBlocks uses a markdown AST to find all fenced code blocks.
func ExtractCodeBlocks(source []byte) ([]CodeBlock, error) {
	var blocks []CodeBlock
	parser := goldmark.DefaultParser()
	root := parser.Parse(text.NewReader(source))

	walker := func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		fencedCodeBlock, ok := node.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}

		var block CodeBlock
		if fencedCodeBlock.Info != nil {
			block.Lang = string(fencedCodeBlock.Info.Text(source))
		}

		var content bytes.Buffer
		lines := fencedCodeBlock.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			content.Write(line.Value(source))
		}
		block.Content = content.String()

		blocks = append(blocks, block)
		return ast.WalkSkipChildren, nil
	}

	if err := ast.Walk(root, walker); err != nil {
		return nil, err
	}

	return blocks, nil
}

// Unfence extracts dump text that arrived wrapped in markdown code fences,
// as happens when a dump is copied out of a chat or a document. Fenced
// blocks containing a `# file: ` header are concatenated and returned; when
// no such block exists the content is returned unchanged.
func Unfence(content string) string {
	blocks, err := ExtractCodeBlocks([]byte(content))
	if err != nil {
		return content
	}

	var dumps []string
	for _, block := range blocks {
		if hasHeader(block.Content) {
			dumps = append(dumps, block.Content)
		}
	}
	if len(dumps) == 0 {
		return content
	}
	return strings.Join(dumps, "")
}

func hasHeader(text string) bool {
	return strings.HasPrefix(text, "# file: ") || strings.Contains(text, "\n# file: ")
}
