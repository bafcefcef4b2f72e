// Copyright (C) 2025 Bakutransit Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package matching

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed aliases.yaml
var aliasesYAML []byte

// AliasTable maps colloquial names and abbreviations to one or more
// canonical search terms. Lookup keys are normalized forms. The table is
// read-only after construction.
type AliasTable map[string][]string

// LoadAliases parses the embedded alias table.
//
// Outputs:
//   - AliasTable: The parsed table with normalized keys.
//   - error: Non-nil if the embedded YAML is malformed.
func LoadAliases() (AliasTable, error) {
	return ParseAliases(aliasesYAML)
}

// ParseAliases parses an alias table from YAML. Keys are normalized so that
// lookups against Normalize output always agree with the table.
func ParseAliases(data []byte) (AliasTable, error) {
	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("matching: parsing alias table: %w", err)
	}

	table := make(AliasTable, len(raw))
	for key, terms := range raw {
		normalizedTerms := make([]string, 0, len(terms))
		for _, term := range terms {
			normalizedTerms = append(normalizedTerms, Normalize(term))
		}
		table[Normalize(key)] = normalizedTerms
	}
	return table, nil
}

// Lookup returns the canonical search terms for a normalized key, or nil
// when the key has no alias entry.
func (t AliasTable) Lookup(normalized string) []string {
	return t[normalized]
}
