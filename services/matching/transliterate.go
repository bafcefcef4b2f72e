// Copyright (C) 2025 Bakutransit Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package matching resolves free-form Azerbaijani place names to stop
// records in the transit graph.
//
// Users type stop names with inconsistent diacritics ("genclik" vs
// "gənclik"), in ASCII digraph spelling ("koroglu", "sheher"), and with
// productive case suffixes attached ("dayanacaqdan" = "from the stop").
// A single normalized string is not enough to hit an index built on the
// canonical form, so this package generates a bounded set of candidate
// surface forms and tries them in a fixed priority order.
package matching

import (
	"strings"
	"unicode/utf8"
)

// digraphMap holds ASCII digraph → Azerbaijani letter substitutions used to
// recover a native-script guess from ASCII-typed input. Applied in this
// order; the patterns are not mutually exclusive.
var digraphMap = []struct {
	ascii string
	az    string
}{
	{"sh", "ş"},
	{"ch", "ç"},
	{"gh", "ğ"},
	{"oe", "ö"},
	{"ue", "ü"},
}

// asciiMap maps each Azerbaijani letter to its closest ASCII letter.
// Substitutions are single-rune, so application order does not matter.
var asciiMap = map[rune]rune{
	'ə': 'e',
	'ş': 's',
	'ç': 'c',
	'ö': 'o',
	'ü': 'u',
	'ğ': 'g',
	'ı': 'i',
}

// singleSwaps are the ASCII letters that individually map back to an
// Azerbaijani letter when generating search variants. e→ə is too aggressive
// to apply inside ExpandToAzerbaijani, so it only appears here.
var singleSwaps = []struct {
	ascii string
	az    string
}{
	{"e", "ə"},
	{"g", "ğ"},
	{"i", "ı"},
}

// caseSuffixes lists the inflectional suffixes stripped from user input
// before index lookup, longest first. ASCII spellings of the same endings
// are included because the input may already be in ASCII form. Only one
// suffix is removed per variant.
var caseSuffixes = []string{
	"ından", "indən", "inden", "undan", "ündən", "unden",
	"sında", "sində", "sinde",
	"dakı", "dəki", "deki",
	"ndan", "ndən", "nden",
	"dan", "dən", "den",
	"nda", "ndə", "nde",
	"da", "də", "de",
	"ya", "yə", "ye",
	"a", "ə", "e",
}

// minStemRunes is the minimum rune length a stem must keep after suffix
// removal. Shorter stems match almost everything in the index.
const minStemRunes = 2

// Normalize lowercases and trims the input. Azerbaijani letters are
// preserved. Idempotent.
func Normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// ToASCII converts Azerbaijani letters in the normalized input to their
// closest ASCII equivalents.
func ToASCII(text string) string {
	normalized := Normalize(text)
	var b strings.Builder
	b.Grow(len(normalized))
	for _, r := range normalized {
		if ascii, ok := asciiMap[r]; ok {
			b.WriteRune(ascii)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ExpandToAzerbaijani converts ASCII-typed input to a possible Azerbaijani
// form, e.g. "sheher" → "şəhər" is approximated as "şeher" by the digraph
// pass alone. Single-letter swaps (e→ə and friends) are handled separately
// by GenerateVariants since they over-trigger on their own.
func ExpandToAzerbaijani(text string) string {
	result := Normalize(text)
	for _, sub := range digraphMap {
		result = strings.ReplaceAll(result, sub.ascii, sub.az)
	}
	return result
}

// GenerateVariants returns the candidate surface forms for a piece of user
// input, deduplicated and order-preserving. The normalized input is always
// first. The set is bounded (at most six entries).
func GenerateVariants(text string) []string {
	normalized := Normalize(text)
	variants := []string{normalized}

	if ascii := ToASCII(normalized); ascii != normalized {
		variants = append(variants, ascii)
	}
	if az := ExpandToAzerbaijani(normalized); az != normalized {
		variants = append(variants, az)
	}
	for _, swap := range singleSwaps {
		if strings.Contains(normalized, swap.ascii) {
			variants = append(variants, strings.ReplaceAll(normalized, swap.ascii, swap.az))
		}
	}

	return dedupeStrings(variants)
}

// StripSuffixes returns the input followed by every single-suffix-stripped
// form whose remaining stem is longer than minStemRunes. Suffixes are tried
// independently in caseSuffixes order (longest first), never cumulatively.
func StripSuffixes(text string) []string {
	normalized := Normalize(text)
	forms := []string{normalized}

	for _, suffix := range caseSuffixes {
		stem, ok := strings.CutSuffix(normalized, suffix)
		if !ok {
			continue
		}
		if utf8.RuneCountInString(stem) <= minStemRunes {
			continue
		}
		forms = append(forms, stem)
	}

	return dedupeStrings(forms)
}

// dedupeStrings removes duplicates preserving first-seen order.
func dedupeStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
