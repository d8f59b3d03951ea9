// Copyright (C) 2025 AjithTao
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package nlq implements the natural-language-to-query core: slot extraction,
// intent/template matching, intent defaulting, and query building. Everything
// in this package is pure and in-memory; external directories are injected as
// read-only snapshots per call.
package nlq

import "strconv"

// Slot names a single piece of structured information extracted from free
// text. A slot is either present with a value or absent; absence means
// "not mentioned", never an error.
type Slot string

// maxQuantity caps a user-requested result count so "top 9999" cannot turn
// into an oversized fetch.
const maxQuantity = 50

// Recognized slots. Template placeholders are written as "{<slot>}" and must
// use one of these names.
const (
	SlotProject        Slot = "project"
	SlotAssignee       Slot = "assignee"
	SlotIssueType      Slot = "issuetype"
	SlotStatus         Slot = "status"
	SlotStatusCategory Slot = "status_category"
	SlotPriority       Slot = "priority"
	SlotLabel          Slot = "label"
	SlotComponent      Slot = "component"
	SlotVersion        Slot = "version"
	SlotDateRange      Slot = "date_range"
	SlotSprint         Slot = "sprint"
	SlotEpic           Slot = "epic"
	SlotText           Slot = "text"
	SlotQuantity       Slot = "quantity"
	SlotOrder          Slot = "order"
)

// KnownSlots is the closed set of slot names a template placeholder may
// reference. Corpus validation rejects placeholders outside this set.
var KnownSlots = map[Slot]bool{
	SlotProject:        true,
	SlotAssignee:       true,
	SlotIssueType:      true,
	SlotStatus:         true,
	SlotStatusCategory: true,
	SlotPriority:       true,
	SlotLabel:          true,
	SlotComponent:      true,
	SlotVersion:        true,
	SlotDateRange:      true,
	SlotSprint:         true,
	SlotEpic:           true,
	SlotText:           true,
	SlotQuantity:       true,
	SlotOrder:          true,
}

// SlotSet maps slot names to extracted values.
//
// Description:
//
//	Built fresh per query by the extractor and treated as immutable once
//	returned. Downstream stages (defaulting, building) copy before adding
//	values; the builder never re-parses raw text, only consumes this set.
type SlotSet map[Slot]string

// QuantityLimit returns the user-requested result count from the quantity
// slot ("top 5 bugs"), clamped to [1, 50]. The fallback applies when the slot
// is absent or does not parse as a positive integer.
func QuantityLimit(slots SlotSet, fallback int) int {
	raw, ok := slots[SlotQuantity]
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	if n > maxQuantity {
		return maxQuantity
	}
	return n
}

// Has reports whether the slot is present with a non-empty value.
func (s SlotSet) Has(slot Slot) bool {
	v, ok := s[slot]
	return ok && v != ""
}

// Clone returns a shallow copy of the set. Clone of a nil set returns an
// empty, non-nil set so callers can add to it.
func (s SlotSet) Clone() SlotSet {
	out := make(SlotSet, len(s)+2)
	for k, v := range s {
		out[k] = v
	}
	return out
}
