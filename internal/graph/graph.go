// Package graph generates DOT and Mermaid attachment graphs showing which
// managed policies each IAM role in a template holds.
package graph

import (
	"io"
	"strings"

	"github.com/emicklei/dot"

	"github.com/rolepatch/rolepatch"
	"github.com/rolepatch/rolepatch/internal/template"
)

// Format specifies the output format for the graph.
type Format string

const (
	// FormatDOT outputs Graphviz DOT format.
	FormatDOT Format = "dot"
	// FormatMermaid outputs Mermaid format for GitHub/markdown rendering.
	FormatMermaid Format = "mermaid"
)

// Generator creates attachment graphs from a template's role resources.
type Generator struct {
	// Format specifies the output format (dot or mermaid). Defaults to dot.
	Format Format

	// Pending holds policy ARNs an attach pass would add. Edges for
	// pending attachments render dashed so a reviewer can tell them from
	// attachments already in the template.
	Pending []string
}

// Generate creates an attachment graph and writes it to w.
func (g *Generator) Generate(tmpl *rolepatch.Template, w io.Writer) error {
	graph := g.buildGraph(tmpl)

	format := g.Format
	if format == "" {
		format = FormatDOT
	}

	var output string
	if format == FormatMermaid {
		output = dot.MermaidGraph(graph, dot.MermaidLeftToRight)
	} else {
		output = graph.String()
	}

	_, err := w.Write([]byte(output))
	return err
}

// GenerateString is a convenience method that returns the graph as a string.
func (g *Generator) GenerateString(tmpl *rolepatch.Template) (string, error) {
	var sb strings.Builder
	if err := g.Generate(tmpl, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// buildGraph creates the dot.Graph structure from the template's roles.
func (g *Generator) buildGraph(tmpl *rolepatch.Template) *dot.Graph {
	graph := dot.NewGraph(dot.Directed)
	graph.Attr("rankdir", "LR")

	// Role nodes are boxes, policy nodes override to ellipses below.
	graph.NodeInitializer(func(n dot.Node) {
		n.Attr("shape", "box")
		n.Attr("fontname", "Arial")
	})

	graph.EdgeInitializer(func(e dot.Edge) {
		e.Attr("fontname", "Arial")
		e.Attr("fontsize", "10")
	})

	roles := template.Roles(tmpl)

	for _, name := range template.RoleNames(tmpl) {
		res := roles[name]

		roleNode := graph.Node(name)
		roleNode.Label(name + "\\n[" + rolepatch.RoleResourceType + "]")

		attached := template.AttachedPolicies(res)
		for _, policy := range attached {
			graph.Edge(roleNode, g.policyNode(graph, policy))
		}

		for _, policy := range g.Pending {
			if contains(attached, policy) {
				continue
			}
			e := graph.Edge(roleNode, g.policyNode(graph, policy))
			e.Attr("style", "dashed")
		}
	}

	return graph
}

// policyNode returns the node for a policy ARN, creating it on first use.
// dot.Graph.Node is idempotent per id, so shared policies collapse into a
// single node with edges from every role that holds them.
func (g *Generator) policyNode(graph *dot.Graph, arn string) dot.Node {
	n := graph.Node(arn)
	n.Attr("shape", "ellipse")
	n.Label(policyLabel(arn))
	return n
}

// policyLabel shortens an ARN to its path/name segment for display. The
// full ARN stays as the node id so distinct policies never collide.
func policyLabel(arn string) string {
	if i := strings.Index(arn, ":policy/"); i != -1 {
		return arn[i+len(":policy/"):]
	}
	return arn
}

func contains(list []string, s string) bool {
	for _, entry := range list {
		if entry == s {
			return true
		}
	}
	return false
}
