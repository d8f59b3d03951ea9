// Copyright (C) 2025 AjithTao
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package nlq

import (
	"errors"
	"fmt"
)

// ErrNoMatch signals that neither the exact nor the fuzzy path found a
// paraphrase at or above the acceptance threshold. This is an expected,
// recoverable outcome: callers fall back to a broader strategy (typically a
// clarification prompt), they do not treat it as a failure.
var ErrNoMatch = errors.New("no intent match")

// MissingSlotError reports that a template references a placeholder with no
// corresponding slot value and no applicable default.
//
// Description:
//
//	The builder fails loudly rather than silently dropping a filter — a
//	dropped filter would silently broaden results, which is worse than
//	asking the user for the missing value. Callers surface Slot to the end
//	user as a request for clarification.
type MissingSlotError struct {
	// Intent is the matched intent whose template could not be filled.
	Intent string

	// Slot is the placeholder that had neither a value nor a default.
	Slot Slot
}

func (e *MissingSlotError) Error() string {
	return fmt.Sprintf("intent %q: no value for required slot %q", e.Intent, e.Slot)
}

// AsMissingSlot unwraps err as a *MissingSlotError if it is one.
func AsMissingSlot(err error) (*MissingSlotError, bool) {
	var mse *MissingSlotError
	if errors.As(err, &mse) {
		return mse, true
	}
	return nil, false
}
