package coach

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/host"
)

const fileSeparator = "-----------------------------"

// Bundle is the context gathered for a single interaction.
type Bundle struct {
	GuideContent string
	Files        []host.File
	ErrorText    string
}

// Aggregate fetches the host context in one call. Failures are fatal for the interaction.
func Aggregate(ctx context.Context, src host.ContextSource) (Bundle, error) {
	hc, err := src.Context(ctx)
	if err != nil {
		return Bundle{}, fmt.Errorf("fetch context: %w", err)
	}
	return Bundle{
		GuideContent: hc.GuidesPage.Content,
		Files:        hc.Files,
		ErrorText:    hc.Error.Text,
	}, nil
}

// FilesText concatenates every file in host order, numbered from 1.
func (b Bundle) FilesText() string {
	var sb strings.Builder
	for i, f := range b.Files {
		sb.WriteString(fileSeparator)
		sb.WriteString("\n")
		fmt.Fprintf(&sb, "File Number: %d\n", i+1)
		fmt.Fprintf(&sb, "File name: %s\n", path.Base(f.Path))
		fmt.Fprintf(&sb, "File path: %s\n", f.Path)
		sb.WriteString("File content:\n")
		sb.WriteString(f.Content)
		if !strings.HasSuffix(f.Content, "\n") {
			sb.WriteString("\n")
		}
		sb.WriteString(fileSeparator)
		sb.WriteString("\n")
	}
	return sb.String()
}
