package main

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/list"

	ldapclient "github.com/isometry/terraform-provider-admover/internal/ldap"
)

// renderTree draws nodes below a root label with connectors.
func renderTree(rootLabel string, nodes []*ldapclient.DirectoryObject) string {
	lw := list.NewWriter()
	lw.SetStyle(list.StyleConnectedRounded)
	lw.AppendItem(rootLabel)
	if len(nodes) > 0 {
		lw.Indent()
		appendNodes(lw, nodes)
	}
	return lw.Render()
}

func appendNodes(lw list.Writer, nodes []*ldapclient.DirectoryObject) {
	for _, node := range nodes {
		lw.AppendItem(nodeLabel(node))
		if len(node.Children) > 0 {
			lw.Indent()
			appendNodes(lw, node.Children)
			lw.UnIndent()
		}
	}
}

func nodeLabel(node *ldapclient.DirectoryObject) string {
	switch node.Kind {
	case ldapclient.KindComputer:
		return node.Name
	case ldapclient.KindOrganizationalUnit:
		return node.Name + "/"
	default:
		return fmt.Sprintf("%s/ (%s)", node.Name, node.Kind)
	}
}

// renderTreeTable lists nodes in pre-order with names indented by depth.
func renderTreeTable(nodes []*ldapclient.DirectoryObject) string {
	var rows [][]string
	for _, node := range ldapclient.Flatten(nodes) {
		rows = append(rows, []string{
			strings.Repeat("  ", node.Depth) + node.Name,
			node.Kind.String(),
			node.DistinguishedName,
		})
	}
	return renderTable([]string{"Name", "Kind", "Distinguished name"}, rows)
}

type treeNodeJSON struct {
	Name              string `json:"name"`
	Path              string `json:"path"`
	DistinguishedName string `json:"dn"`
	Kind              string `json:"kind"`
	ParentPath        string `json:"parent_path,omitempty"`
	Depth             int    `json:"depth"`
	ChildCount        int    `json:"child_count"`
}

func treeJSON(nodes []*ldapclient.DirectoryObject) []treeNodeJSON {
	flat := ldapclient.Flatten(nodes)
	out := make([]treeNodeJSON, 0, len(flat))
	for _, node := range flat {
		out = append(out, treeNodeJSON{
			Name:              node.Name,
			Path:              node.Path,
			DistinguishedName: node.DistinguishedName,
			Kind:              node.Kind.String(),
			ParentPath:        node.ParentPath,
			Depth:             node.Depth,
			ChildCount:        node.ChildCount,
		})
	}
	return out
}
