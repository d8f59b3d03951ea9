// Copyright (C) 2025 AjithTao
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package nlq

import "strings"

// defaultRule supplies a slot value when an intent's name contains a keyword
// and the user did not say otherwise. Keyed on name substrings so a new
// corpus intent picks up sensible defaults without a code change.
type defaultRule struct {
	keyword string
	slot    Slot
	value   string
}

// defaultRules are evaluated in order; every matching rule applies, but a
// rule never overwrites a slot that is already present — explicit user input
// always beats an intent default, and earlier rules beat later ones.
var defaultRules = []defaultRule{
	{"open", SlotStatusCategory, "!= Done"},
	{"unresolved", SlotStatusCategory, "!= Done"},
	{"completed", SlotStatusCategory, "= Done"},
	{"done", SlotStatusCategory, "= Done"},
	{"bug", SlotIssueType, "Bug"},
	{"story", SlotIssueType, "Story"},
	{"stories", SlotIssueType, "Story"},
	{"epic", SlotIssueType, "Epic"},
	{"sprint", SlotSprint, "openSprints()"},
	{"blocked", SlotStatus, "Blocked"},
	{"recent", SlotDateRange, "-7d"},
	{"recent", SlotOrder, "updated DESC"},
	{"high", SlotPriority, "High"},
	{"priority", SlotOrder, "priority DESC"},
}

// ApplyDefaults fills intent-implied slots into a copy of the extracted set.
//
// Description:
//
//	An intent like "list_open_bugs" implies statusCategory != Done and
//	issuetype = Bug even when the paraphrase that matched never said
//	"open" or "bug". Defaults only ever fill absent slots.
//
// Inputs:
//
//	intent - The matched intent name.
//	slots - The extracted slot set. Not mutated.
//
// Outputs:
//
//	SlotSet - A new set: extracted values plus applicable defaults.
func ApplyDefaults(intent string, slots SlotSet) SlotSet {
	out := slots.Clone()
	name := strings.ToLower(intent)
	for _, rule := range defaultRules {
		if !strings.Contains(name, rule.keyword) {
			continue
		}
		if out.Has(rule.slot) {
			continue
		}
		out[rule.slot] = rule.value
	}
	return out
}
