// Package template edits CloudFormation templates in YAML form.
//
// Documents are kept as yaml.v3 node trees rather than decoded into maps, so
// a patched template keeps its key order, comments and short-form intrinsic
// tags such as !Ref and !GetAtt.
package template

import (
	"bytes"
	"errors"
	"io"

	spliceerrors "github.com/yairfalse/snapsplice/internal/errors"
	"gopkg.in/yaml.v3"
)

const indent = 2

// SnapshotPath returns the property path holding the restore snapshot of resource.
func SnapshotPath(resource string) []string {
	return []string{"Resources", resource, "Properties", "SnapshotIdentifier"}
}

// Document is a parsed YAML template.
type Document struct {
	root *yaml.Node
}

// Parse parses data as a single YAML document. A stream holding more than
// one document is rejected.
func Parse(data []byte) (*Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))

	var root yaml.Node
	if err := dec.Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, spliceerrors.ParseError("", errors.New("document is empty"))
		}
		return nil, spliceerrors.ParseError("", err)
	}

	var next yaml.Node
	switch err := dec.Decode(&next); {
	case err == nil:
		return nil, spliceerrors.ParseError("", errors.New("expected a single document but found another after ---"))
	case !errors.Is(err, io.EOF):
		return nil, spliceerrors.ParseError("", err)
	}

	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, spliceerrors.ParseError("", errors.New("document is empty"))
	}

	return &Document{root: &root}, nil
}

// Get returns the scalar value at path.
func (d *Document) Get(path []string) (string, error) {
	_, node, err := d.lookup(path)
	if err != nil {
		return "", err
	}
	return resolve(node).Value, nil
}

// Set replaces the value at path with a plain string scalar. Every key on the
// path must already exist; nothing is created.
//
// Aliases of an anchored value are expanded to the old value first, so they
// keep resolving. A last key inherited through a merge key is shadowed by an
// explicit key in its own mapping and the merged mapping is left as it was.
func (d *Document) Set(path []string, value string) error {
	mapping, node, err := d.lookup(path)
	if err != nil {
		return err
	}

	key := path[len(path)-1]
	if ownValue(mapping, key) == nil {
		node = &yaml.Node{}
		mapping.Content = append(mapping.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			node,
		)
	} else if node.Anchor != "" {
		d.expandAliases(node)
	}

	*node = yaml.Node{
		Kind:        yaml.ScalarNode,
		Tag:         "!!str",
		Value:       value,
		HeadComment: node.HeadComment,
		LineComment: node.LineComment,
		FootComment: node.FootComment,
		Line:        node.Line,
		Column:      node.Column,
	}

	return nil
}

// Encode serializes the document in block style with two-space indentation.
// Non-ASCII text is written as-is.
func (d *Document) Encode() ([]byte, error) {
	var buf bytes.Buffer

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(indent)

	if err := enc.Encode(d.root); err != nil {
		return nil, spliceerrors.FileSystemError("failed to serialize template", err)
	}
	if err := enc.Close(); err != nil {
		return nil, spliceerrors.FileSystemError("failed to serialize template", err)
	}

	return buf.Bytes(), nil
}

// lookup walks path through nested mappings and returns the value node of
// the last key along with the mapping it was found in. Aliases are followed
// for intermediate mappings only.
func (d *Document) lookup(path []string) (*yaml.Node, *yaml.Node, error) {
	if len(path) == 0 {
		return nil, nil, spliceerrors.PathNotFoundError(path, -1)
	}

	var mapping *yaml.Node
	node := d.root.Content[0]
	for i, key := range path {
		mapping = resolve(node)
		if mapping.Kind != yaml.MappingNode {
			return nil, nil, spliceerrors.PathNotFoundError(path, i)
		}

		child := mappingValue(mapping, key, map[*yaml.Node]bool{})
		if child == nil {
			return nil, nil, spliceerrors.PathNotFoundError(path, i)
		}
		node = child
	}

	return mapping, node, nil
}

// mappingValue returns the value node for key, or nil. Keys of the mapping
// itself win over keys merged in through "<<"; earlier merge sources win over
// later ones.
func mappingValue(mapping *yaml.Node, key string, seen map[*yaml.Node]bool) *yaml.Node {
	if seen[mapping] {
		return nil
	}
	seen[mapping] = true

	if v := ownValue(mapping, key); v != nil {
		return v
	}
	for _, src := range mergeSources(mapping) {
		if v := mappingValue(src, key, seen); v != nil {
			return v
		}
	}
	return nil
}

func ownValue(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		k := mapping.Content[i]
		if !isMergeKey(k) && k.Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

// mergeSources returns the mappings merged into mapping, in precedence order.
func mergeSources(mapping *yaml.Node) []*yaml.Node {
	var sources []*yaml.Node
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if !isMergeKey(mapping.Content[i]) {
			continue
		}

		v := resolve(mapping.Content[i+1])
		switch v.Kind {
		case yaml.MappingNode:
			sources = append(sources, v)
		case yaml.SequenceNode:
			for _, item := range v.Content {
				if item = resolve(item); item.Kind == yaml.MappingNode {
					sources = append(sources, item)
				}
			}
		}
	}
	return sources
}

func isMergeKey(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.Value == "<<" && node.ShortTag() == "!!merge"
}

func resolve(node *yaml.Node) *yaml.Node {
	for node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	return node
}

// expandAliases replaces every alias of target with a copy of target, so the
// document stays valid once target is overwritten.
func (d *Document) expandAliases(target *yaml.Node) {
	var walk func(n *yaml.Node)
	walk = func(n *yaml.Node) {
		if n.Kind == yaml.AliasNode && n.Alias == target {
			head, line, foot := n.HeadComment, n.LineComment, n.FootComment
			*n = *deepCopy(target)
			n.Anchor = ""
			n.HeadComment, n.LineComment, n.FootComment = head, line, foot
			return
		}
		for _, child := range n.Content {
			walk(child)
		}
	}
	walk(d.root)
}

func deepCopy(node *yaml.Node) *yaml.Node {
	cp := *node
	if node.Content != nil {
		cp.Content = make([]*yaml.Node, len(node.Content))
		for i, child := range node.Content {
			cp.Content[i] = deepCopy(child)
		}
	}
	return &cp
}

// Splice parses data, sets path to value and re-encodes it. It returns the
// encoded document and the value it replaced.
func Splice(data []byte, path []string, value string) ([]byte, string, error) {
	doc, err := Parse(data)
	if err != nil {
		return nil, "", err
	}

	previous, err := doc.Get(path)
	if err != nil {
		return nil, "", err
	}

	if err := doc.Set(path, value); err != nil {
		return nil, "", err
	}

	out, err := doc.Encode()
	if err != nil {
		return nil, "", err
	}

	return out, previous, nil
}
