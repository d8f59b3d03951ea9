// Copyright (C) 2025 AjithTao
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package nlq

import (
	"regexp"
	"strings"
)

var placeholderRe = regexp.MustCompile(`\{([a-z_]+)\}`)

// TemplatePlaceholders lists the distinct placeholders a template references,
// in first-appearance order. Used by corpus validation at load time.
func TemplatePlaceholders(template string) []Slot {
	seen := make(map[Slot]bool)
	var out []Slot
	for _, m := range placeholderRe.FindAllStringSubmatch(template, -1) {
		s := Slot(m[1])
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// BuildJQL fills a query template from a slot set.
//
// Description:
//
//	Substitution is literal: each "{slot}" placeholder is replaced with the
//	slot's value, quotes inside values escaped. The builder never re-parses
//	the original text and never invents filters; everything it emits comes
//	from the template or the slot set. A placeholder with no value is a
//	hard error — silently dropping a filter would broaden the result set
//	behind the user's back.
//
//	When the set carries an order slot and the template has no ORDER BY of
//	its own, the ordering is appended.
//
// Inputs:
//
//	intent - The matched intent name, for error reporting.
//	template - The corpus query template.
//	slots - The slot set after defaulting.
//
// Outputs:
//
//	string - The finished query.
//	error - *MissingSlotError when a placeholder has no value.
func BuildJQL(intent, template string, slots SlotSet) (string, error) {
	var missing *MissingSlotError
	filled := placeholderRe.ReplaceAllStringFunc(template, func(ph string) string {
		slot := Slot(strings.Trim(ph, "{}"))
		if slot == SlotOrder {
			// Order is appended below, not spliced mid-query, unless the
			// template places it explicitly.
			if slots.Has(SlotOrder) {
				return slots[SlotOrder]
			}
		}
		if !slots.Has(slot) {
			if missing == nil {
				missing = &MissingSlotError{Intent: intent, Slot: slot}
			}
			return ph
		}
		return escapeValue(slots[slot])
	})
	if missing != nil {
		return "", missing
	}

	if slots.Has(SlotOrder) && !containsOrderBy(template) {
		filled = filled + " ORDER BY " + slots[SlotOrder]
	}
	return filled, nil
}

func containsOrderBy(template string) bool {
	return strings.Contains(strings.ToLower(template), "order by") ||
		strings.Contains(template, "{order}")
}

// escapeValue escapes double quotes so a value can sit inside a quoted JQL
// string. Values are otherwise spliced verbatim; operator-style slots like
// status_category carry their own comparison operator.
func escapeValue(v string) string {
	return strings.ReplaceAll(v, `"`, `\"`)
}
