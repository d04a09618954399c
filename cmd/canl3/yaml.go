package main

import (
	"fmt"
	"io"
	"math"

	"gopkg.in/yaml.v3"

	"github.com/KimNorgaard/go-canl3/value"
)

// maxAliasExpansions bounds the number of aliases resolved per document.
const maxAliasExpansions = 10000

// parseYAML converts a YAML document into a value tree. Mapping order is
// preserved. An empty document is null.
func parseYAML(data []byte) (*value.Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("yaml: %w", err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return value.NewNull(), nil
	}
	c := &yamlConverter{active: map[*yaml.Node]bool{}}
	return c.convert(doc.Content[0])
}

type yamlConverter struct {
	active  map[*yaml.Node]bool
	aliases int
}

func (c *yamlConverter) convert(n *yaml.Node) (*value.Value, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return value.NewNull(), nil
		}
		return c.convert(n.Content[0])

	case yaml.MappingNode:
		obj := value.NewObject()
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if k.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("yaml: line %d: mapping keys must be scalars", k.Line)
			}
			item, err := c.convert(v)
			if err != nil {
				return nil, err
			}
			obj.Set(k.Value, item)
		}
		return obj, nil

	case yaml.SequenceNode:
		list := value.NewList()
		for _, item := range n.Content {
			v, err := c.convert(item)
			if err != nil {
				return nil, err
			}
			list.Append(v)
		}
		return list, nil

	case yaml.AliasNode:
		c.aliases++
		if c.aliases > maxAliasExpansions {
			return nil, fmt.Errorf("yaml: line %d: too many alias expansions", n.Line)
		}
		if c.active[n.Alias] {
			return nil, fmt.Errorf("yaml: line %d: recursive alias %q", n.Line, n.Value)
		}
		c.active[n.Alias] = true
		defer delete(c.active, n.Alias)
		return c.convert(n.Alias)

	case yaml.ScalarNode:
		return scalar(n)
	}
	return nil, fmt.Errorf("yaml: line %d: unsupported node", n.Line)
}

func scalar(n *yaml.Node) (*value.Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return value.NewNull(), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, fmt.Errorf("yaml: %w", err)
		}
		return value.NewBool(b), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			// Out of int64 range: keep the digits.
			return value.NewString(n.Value), nil
		}
		return value.NewInt(i), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, fmt.Errorf("yaml: %w", err)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return value.NewNull(), nil
		}
		return value.NewFloat(f), nil
	}
	return value.NewString(n.Value), nil
}

// writeYAML writes v as a YAML document with two space indentation.
func writeYAML(w io.Writer, v *value.Value) error {
	node, err := yamlNode(v)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return err
	}
	return enc.Close()
}

func yamlNode(v *value.Value) (*yaml.Node, error) {
	switch v.Kind() {
	case value.Null:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case value.Bool:
		s := "false"
		if v.AsBool() {
			s = "true"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: s}, nil
	case value.Number:
		b, err := v.MarshalJSON()
		if err != nil {
			return nil, err
		}
		tag := "!!float"
		if v.IsExact() {
			tag = "!!int"
		}
		if string(b) == "null" {
			tag = "!!null"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: string(b)}, nil
	case value.String:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.AsString()}, nil
	case value.List:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range v.Items() {
			c, err := yamlNode(item)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, c)
		}
		return n, nil
	case value.Object:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, m := range v.Members() {
			c, err := yamlNode(m.Value)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: m.Key},
				c)
		}
		return n, nil
	}
	return nil, fmt.Errorf("yaml: unsupported value kind %s", v.Kind())
}
