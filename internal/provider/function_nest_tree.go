package provider

import (
	"context"
	"fmt"
	"maps"

	"github.com/creasty/defaults"
	"github.com/hashicorp/terraform-plugin-framework/attr"
	"github.com/hashicorp/terraform-plugin-framework/function"
	"github.com/hashicorp/terraform-plugin-framework/types"

	"github.com/isometry/terraform-provider-admover/internal/provider/helpers"
)

var _ function.Function = &NestTreeFunction{}

// NestTreeConfig holds the options of the nest_tree function.
type NestTreeConfig struct {
	// IDField names the attribute identifying each node.
	IDField string `default:"path"`

	// ParentField names the attribute referencing the parent's IDField value.
	ParentField string `default:"parent_path"`

	// KeyField names the attribute used as the key of a node among its siblings.
	KeyField string `default:"name"`

	// ChildrenField names the attribute the nested children are stored under.
	ChildrenField string `default:"children"`

	// MaxDepth bounds the nesting depth of the result.
	MaxDepth int64 `default:"64"`
}

// Validate reports the first invalid option.
func (c *NestTreeConfig) Validate() error {
	if c.MaxDepth < 1 {
		return fmt.Errorf("max_depth must be greater than 0, got %d", c.MaxDepth)
	}
	for name, value := range map[string]string{
		"id_field":       c.IDField,
		"parent_field":   c.ParentField,
		"key_field":      c.KeyField,
		"children_field": c.ChildrenField,
	} {
		if value == "" {
			return fmt.Errorf("%s cannot be empty", name)
		}
	}
	return nil
}

// NestTreeFunction implements the nest_tree function.
type NestTreeFunction struct{}

// NewNestTreeFunction creates a new instance of the nest_tree function.
func NewNestTreeFunction() function.Function {
	return &NestTreeFunction{}
}

func (f NestTreeFunction) Metadata(_ context.Context, req function.MetadataRequest, resp *function.MetadataResponse) {
	resp.Name = "nest_tree"
}

func (f NestTreeFunction) Definition(_ context.Context, req function.DefinitionRequest, resp *function.DefinitionResponse) {
	resp.Definition = function.Definition{
		Summary:     "Nest a flat directory tree",
		Description: "Turns the flat node list of the ad_directory_tree data source into nested objects. Nodes are keyed by name among their siblings and hold their children under a children attribute. Nodes whose parent is not in the list become top-level entries.",
		MarkdownDescription: "Turns the flat `nodes` list of the `ad_directory_tree` data source into nested objects. " +
			"Nodes are keyed by name among their siblings and hold their children under a `children` attribute. " +
			"Nodes whose parent is not in the list become top-level entries.\n\n" +
			"**Configuration fields (all optional):**\n" +
			"- `id_field` (string): Attribute identifying each node (default: \"path\")\n" +
			"- `parent_field` (string): Attribute referencing the parent's identifier (default: \"parent_path\")\n" +
			"- `key_field` (string): Attribute used as the key among siblings (default: \"name\")\n" +
			"- `children_field` (string): Attribute holding the nested children (default: \"children\")\n" +
			"- `max_depth` (number): Maximum nesting depth (default: 64)",
		Parameters: []function.Parameter{
			function.DynamicParameter{
				Name:                "nodes",
				Description:         "List of node objects, such as data.ad_directory_tree.example.nodes.",
				MarkdownDescription: "List of node objects, such as `data.ad_directory_tree.example.nodes`.",
			},
			function.DynamicParameter{
				Name:           "config",
				Description:    "Optional configuration object. Null selects the defaults.",
				AllowNullValue: true,
			},
		},
		Return: function.DynamicReturn{},
	}
}

func (f NestTreeFunction) Run(ctx context.Context, req function.RunRequest, resp *function.RunResponse) {
	var nodes types.Dynamic
	var config types.Dynamic

	resp.Error = function.ConcatFuncErrors(resp.Error, req.Arguments.Get(ctx, &nodes, &config))
	if resp.Error != nil {
		return
	}

	if nodes.IsNull() || nodes.IsUnknown() {
		resp.Error = function.NewArgumentFuncError(0, "nodes parameter cannot be null")
		return
	}

	objects, err := helpers.DynamicValueToObjects(ctx, nodes)
	if err != nil {
		resp.Error = function.NewArgumentFuncError(0, fmt.Sprintf("Failed to read nodes: %s", err.Error()))
		return
	}

	nestConfig, err := f.ParseConfig(ctx, config)
	if err != nil {
		resp.Error = function.NewArgumentFuncError(1, fmt.Sprintf("Invalid configuration: %s", err.Error()))
		return
	}

	nested, err := f.Nest(objects, nestConfig)
	if err != nil {
		resp.Error = function.NewFuncError(fmt.Sprintf("Failed to nest tree: %s", err.Error()))
		return
	}

	attrTypes := make(map[string]attr.Type, len(nested))
	attrValues := make(map[string]attr.Value, len(nested))
	for key, val := range nested {
		terraformVal, err := helpers.GoValueToTerraform(ctx, val)
		if err != nil {
			resp.Error = function.NewFuncError(fmt.Sprintf("Failed to convert node %s: %s", key, err.Error()))
			return
		}
		attrValues[key] = terraformVal
		attrTypes[key] = terraformVal.Type(ctx)
	}

	result := types.DynamicValue(types.ObjectValueMust(attrTypes, attrValues))
	resp.Error = resp.Result.Set(ctx, result)
}

// Nest arranges objects into nested maps keyed by KeyField. Sibling order
// is not retained since Terraform objects are unordered.
func (f NestTreeFunction) Nest(objects []map[string]any, config *NestTreeConfig) (map[string]any, error) {
	byID := make(map[string]map[string]any, len(objects))
	order := make([]string, 0, len(objects))

	for i, obj := range objects {
		id, ok := obj[config.IDField].(string)
		if !ok || id == "" {
			return nil, fmt.Errorf("node %d has no string %s", i, config.IDField)
		}
		if _, ok := obj[config.KeyField].(string); !ok {
			return nil, fmt.Errorf("node %s has no string %s", id, config.KeyField)
		}
		if _, dup := byID[id]; dup {
			return nil, fmt.Errorf("duplicate node %s", id)
		}
		byID[id] = obj
		order = append(order, id)
	}

	parentOf := make(map[string]string)
	children := make(map[string][]string)
	var roots []string
	for _, id := range order {
		parent, _ := byID[id][config.ParentField].(string)
		if _, known := byID[parent]; parent == "" || !known {
			roots = append(roots, id)
			continue
		}
		parentOf[id] = parent
		children[parent] = append(children[parent], id)
	}

	if err := detectCycles(parentOf); err != nil {
		return nil, err
	}

	var build func(id string, depth int64) (map[string]any, error)
	build = func(id string, depth int64) (map[string]any, error) {
		if depth > config.MaxDepth {
			return nil, fmt.Errorf("maximum depth %d exceeded at %s", config.MaxDepth, id)
		}

		node := make(map[string]any, len(byID[id])+1)
		maps.Copy(node, byID[id])

		if kids := children[id]; len(kids) > 0 {
			nested, err := keyed(kids, byID, config.KeyField, id, func(kid string) (map[string]any, error) {
				return build(kid, depth+1)
			})
			if err != nil {
				return nil, err
			}
			node[config.ChildrenField] = nested
		}
		return node, nil
	}

	return keyed(roots, byID, config.KeyField, "the top level", func(id string) (map[string]any, error) {
		return build(id, 0)
	})
}

// keyed builds each of ids and stores it under its key, rejecting sibling
// key collisions.
func keyed(ids []string, byID map[string]map[string]any, keyField, where string, build func(string) (map[string]any, error)) (map[string]any, error) {
	result := make(map[string]any, len(ids))
	for _, id := range ids {
		key := byID[id][keyField].(string)
		if _, dup := result[key]; dup {
			return nil, fmt.Errorf("duplicate %s %q under %s; set key_field to a unique attribute such as dn", keyField, key, where)
		}
		node, err := build(id)
		if err != nil {
			return nil, err
		}
		result[key] = node
	}
	return result, nil
}

// detectCycles reports a circular parent reference.
func detectCycles(parentOf map[string]string) error {
	visited := make(map[string]bool)
	onStack := make(map[string]bool)

	var dfs func(string) error
	dfs = func(node string) error {
		if onStack[node] {
			return fmt.Errorf("circular reference detected involving node: %s", node)
		}
		if visited[node] {
			return nil
		}

		visited[node] = true
		onStack[node] = true
		if parent, ok := parentOf[node]; ok {
			if err := dfs(parent); err != nil {
				return err
			}
		}
		onStack[node] = false
		return nil
	}

	for node := range parentOf {
		if err := dfs(node); err != nil {
			return err
		}
	}
	return nil
}

// ParseConfig converts the dynamic config argument to a NestTreeConfig,
// starting from the struct defaults.
func (f NestTreeFunction) ParseConfig(ctx context.Context, configValue types.Dynamic) (*NestTreeConfig, error) {
	config := &NestTreeConfig{}
	if err := defaults.Set(config); err != nil {
		return nil, fmt.Errorf("failed to set default values: %w", err)
	}

	if configValue.IsNull() || configValue.IsUnknown() || configValue.IsUnderlyingValueNull() {
		return config, nil
	}

	configMap, err := helpers.DynamicValueToMap(ctx, configValue)
	if err != nil {
		return nil, fmt.Errorf("failed to extract config map: %w", err)
	}

	stringFields := map[string]*string{
		"id_field":       &config.IDField,
		"parent_field":   &config.ParentField,
		"key_field":      &config.KeyField,
		"children_field": &config.ChildrenField,
	}
	for key, val := range configMap {
		if val == nil {
			continue
		}
		if target, ok := stringFields[key]; ok {
			str, ok := val.(string)
			if !ok {
				return nil, fmt.Errorf("%s must be a string, got %T", key, val)
			}
			*target = str
			continue
		}
		if key != "max_depth" {
			return nil, fmt.Errorf("unknown configuration field %s", key)
		}
		switch v := val.(type) {
		case int64:
			config.MaxDepth = v
		case float64:
			config.MaxDepth = int64(v)
		default:
			return nil, fmt.Errorf("max_depth must be a number, got %T", val)
		}
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return config, nil
}
