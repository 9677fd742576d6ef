// CLAUDE:SUMMARY Sentinel errors for rule loading: missing rules file, malformed document.
package rules

import "errors"

// ErrRulesNotFound is returned when the rules file does not exist.
var ErrRulesNotFound = errors.New("rules: rules file not found")

// ErrMalformedRules is returned when the rules document cannot be parsed or
// a field has the wrong shape.
var ErrMalformedRules = errors.New("rules: malformed rules document")
