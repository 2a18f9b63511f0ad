package soundfont

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// SelectionReasonEmpty reports a blank choice.
	SelectionReasonEmpty = "choice is empty"
	// SelectionReasonOutOfRange reports a number outside 1..Count.
	SelectionReasonOutOfRange = "number is out of range"
	// SelectionReasonUnknownName reports a name missing from the list.
	SelectionReasonUnknownName = "name is not in the set list"
	// SelectionReasonListUnavailable reports a number given without a list to index.
	SelectionReasonListUnavailable = "set list is unavailable, enter the set name"
	// SelectionReasonInvalidName reports a name that cannot be used as a directory.
	SelectionReasonInvalidName = "name contains a path separator"

	pathSeparators = `/\`

	errorSelectionFormat      = "invalid set choice %q: %s"
	errorSelectionRangeFormat = "invalid set choice %q: %s (1-%d)"
)

// ErrInvalidSelection is matched by every *SelectionError.
var ErrInvalidSelection = errors.New("invalid set selection")

// SelectionError explains why a choice does not identify a set.
type SelectionError struct {
	Choice string
	Count  int
	Reason string
}

func (selectionError *SelectionError) Error() string {
	if selectionError.Reason == SelectionReasonOutOfRange {
		return fmt.Sprintf(errorSelectionRangeFormat, selectionError.Choice, selectionError.Reason, selectionError.Count)
	}
	return fmt.Sprintf(errorSelectionFormat, selectionError.Choice, selectionError.Reason)
}

func (selectionError *SelectionError) Is(target error) bool {
	return target == ErrInvalidSelection
}

// Select resolves choice against setNames. A choice that parses as an integer is a
// 1-based position in setNames; any other choice must equal a listed name. When
// listAvailable is false the list could not be fetched: names are accepted verbatim and
// numbers are rejected. Names containing a path separator are rejected in both cases.
func Select(choice string, setNames []string, listAvailable bool) (string, error) {
	trimmedChoice := strings.TrimSpace(choice)
	if trimmedChoice == "" {
		return "", &SelectionError{Choice: choice, Count: len(setNames), Reason: SelectionReasonEmpty}
	}
	position, parseError := strconv.Atoi(trimmedChoice)
	isNumber := parseError == nil

	if !listAvailable {
		if isNumber {
			return "", &SelectionError{Choice: choice, Reason: SelectionReasonListUnavailable}
		}
		return checkedSetName(choice, trimmedChoice, len(setNames))
	}

	if isNumber {
		if position < 1 || position > len(setNames) {
			return "", &SelectionError{Choice: choice, Count: len(setNames), Reason: SelectionReasonOutOfRange}
		}
		return checkedSetName(choice, setNames[position-1], len(setNames))
	}
	for _, setName := range setNames {
		if setName == trimmedChoice {
			return checkedSetName(choice, setName, len(setNames))
		}
	}
	return "", &SelectionError{Choice: choice, Count: len(setNames), Reason: SelectionReasonUnknownName}
}

func checkedSetName(choice string, setName string, count int) (string, error) {
	if !IsValidSetName(setName) {
		return "", &SelectionError{Choice: choice, Count: count, Reason: SelectionReasonInvalidName}
	}
	return setName, nil
}

// IsValidSetName reports whether setName can name a directory below the destination.
func IsValidSetName(setName string) bool {
	return setName != "" && !strings.ContainsAny(setName, pathSeparators)
}
