package jj

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/thiagokokada/jjk-go/internal/graph"
)

// nodeTemplate picks the glyph jj draws for each node.
const nodeTemplate = `coalesce(` +
	`if(!self, "~"), ` +
	`if(current_working_copy, "@"), ` +
	`if(root, "┴"), ` +
	`if(immutable, "◆"), ` +
	`if(conflict, "×"), ` +
	`"○")`

// recordTemplate prints one tab separated record per commit. The leading tab
// separates the graph prefix from the fields.
const recordTemplate = `"\t" ++ ` +
	`change_id.short(12) ++ "\t" ++ ` +
	`commit_id.short(12) ++ "\t" ++ ` +
	`author.name() ++ "\t" ++ ` +
	`author.email() ++ "\t" ++ ` +
	`author.timestamp().utc().format("%Y-%m-%dT%H:%M:%SZ") ++ "\t" ++ ` +
	`if(current_working_copy, "@") ++ ` +
	`if(immutable, "i") ++ ` +
	`if(conflict, "c") ++ ` +
	`if(empty, "e") ++ ` +
	`if(root, "r") ++ ` +
	`if(divergent, "d") ++ "\t" ++ ` +
	`bookmarks ++ "\t" ++ ` +
	`description.first_line() ++ "\n"`

const recordFields = 8

// LogArgs builds the jj log invocation. An empty revset keeps jj's default.
func LogArgs(revset string) []string {
	args := []string{
		"log",
		"--config", "templates.log_node=" + nodeTemplate,
		"--config", "ui.graph.style=curved",
		"-T", recordTemplate,
	}
	if revset != "" {
		args = append(args, "-r", revset)
	}
	return args
}

func decodeRecord(record string) (graph.Node, error) {
	fields := strings.SplitN(record, string(graph.RecordSeparator), recordFields)
	if len(fields) != recordFields {
		return graph.Node{}, fmt.Errorf("expected %d fields, got %d", recordFields, len(fields))
	}
	n := graph.Node{
		ChangeID:    fields[0],
		CommitID:    fields[1],
		Description: strings.TrimRight(fields[7], "\r\n"),
		Author: graph.Signature{
			Name:  fields[2],
			Email: fields[3],
		},
		Bookmarks: strings.Fields(fields[6]),
	}
	if n.ChangeID == "" {
		return graph.Node{}, errors.New("empty change id")
	}
	if fields[4] != "" {
		when, err := time.Parse(time.RFC3339, fields[4])
		if err != nil {
			return graph.Node{}, fmt.Errorf("author timestamp: %w", err)
		}
		n.Author.When = when
	}
	for _, f := range fields[5] {
		switch f {
		case '@':
			n.WorkingCopy = true
		case 'i':
			n.Immutable = true
		case 'c':
			n.Conflict = true
		case 'e':
			n.Empty = true
		case 'r':
			n.Root = true
		case 'd':
			n.Divergent = true
		default:
			return graph.Node{}, fmt.Errorf("unknown flag %q", f)
		}
	}
	return n, nil
}
