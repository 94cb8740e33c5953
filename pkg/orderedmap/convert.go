// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package orderedmap

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

type Conversion struct {
	Object interface{}
}

// FromUnorderedMaps copies object replacing Go maps with *Map (keys sorted).
func (c Conversion) FromUnorderedMaps() interface{} {
	return c.fromUnorderedMaps(c.Object)
}

func (c Conversion) fromUnorderedMaps(object interface{}) interface{} {
	switch typedObj := object.(type) {
	case map[interface{}]interface{}:
		result := NewMap()
		for _, key := range c.sortedMapKeys(c.mapKeysFromInterfaceMap(typedObj)) {
			result.Set(key, c.fromUnorderedMaps(typedObj[key]))
		}
		return result

	case map[string]interface{}:
		result := NewMap()
		for _, key := range c.sortedMapKeys(c.mapKeysFromStringMap(typedObj)) {
			result.Set(key, c.fromUnorderedMaps(typedObj[key.(string)]))
		}
		return result

	case map[string]string:
		result := NewMap()
		for _, key := range c.sortedMapKeys(c.mapKeysFromStringStringMap(typedObj)) {
			result.Set(key, typedObj[key.(string)])
		}
		return result

	case *Map:
		panic("Expected map[interface{}]interface{} instead of *orderedmap.Map in fromUnorderedMaps")

	case []interface{}:
		result := make([]interface{}, len(typedObj))
		for i, item := range typedObj {
			result[i] = c.fromUnorderedMaps(item)
		}
		return result

	case []map[string]interface{}:
		result := make([]interface{}, len(typedObj))
		for i, item := range typedObj {
			result[i] = c.fromUnorderedMaps(item)
		}
		return result

	default:
		return typedObj
	}
}

func (Conversion) mapKeysFromInterfaceMap(m map[interface{}]interface{}) []interface{} {
	var keys []interface{}
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

func (Conversion) mapKeysFromStringMap(m map[string]interface{}) []interface{} {
	var keys []interface{}
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

func (Conversion) mapKeysFromStringStringMap(m map[string]string) []interface{} {
	var keys []interface{}
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

func (Conversion) sortedMapKeys(keys []interface{}) []interface{} {
	sort.Slice(keys, func(i, j int) bool {
		iStr := fmt.Sprintf("%s", keys[i])
		jStr := fmt.Sprintf("%s", keys[j])
		return iStr < jStr
	})
	return keys
}

// FromYAML decodes a single YAML document keeping mapping key order.
// Empty documents decode to nil.
func FromYAML(data []byte) (interface{}, error) {
	var doc yaml.Node
	err := yaml.Unmarshal(data, &doc)
	if err != nil {
		return nil, err
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, nil
	}
	return fromYAMLNode(doc.Content[0])
}

func fromYAMLNode(node *yaml.Node) (interface{}, error) {
	switch node.Kind {
	case yaml.MappingNode:
		result := NewMap()
		for i := 0; i+1 < len(node.Content); i += 2 {
			var key interface{}
			err := node.Content[i].Decode(&key)
			if err != nil {
				return nil, err
			}
			val, err := fromYAMLNode(node.Content[i+1])
			if err != nil {
				return nil, err
			}
			result.Set(key, val)
		}
		return result, nil

	case yaml.SequenceNode:
		result := []interface{}{}
		for _, itemNode := range node.Content {
			item, err := fromYAMLNode(itemNode)
			if err != nil {
				return nil, err
			}
			result = append(result, item)
		}
		return result, nil

	case yaml.AliasNode:
		return fromYAMLNode(node.Alias)

	default:
		var val interface{}
		err := node.Decode(&val)
		return val, err
	}
}
