// Package arn validates managed policy ARN identifiers.
package arn

import (
	"fmt"
	"regexp"
)

// policyPattern matches a managed policy ARN: the literal arn:aws:iam::
// prefix, a numeric account ID, :policy/, and a non-empty path/name
// remainder. Anything else is rejected, including ARNs for other IAM
// resource kinds and the aws-managed account alias.
var policyPattern = regexp.MustCompile(`^arn:aws:iam::[0-9]+:policy/.+$`)

// Valid reports whether s is a well-formed managed policy ARN.
func Valid(s string) bool {
	return policyPattern.MatchString(s)
}

// Validate returns an *InvalidPolicyARNError when s is not a well-formed
// managed policy ARN.
func Validate(s string) error {
	if Valid(s) {
		return nil
	}
	return &InvalidPolicyARNError{ARN: s}
}

// InvalidPolicyARNError reports a policy identifier that failed structural
// validation. The message format is part of the operator contract.
type InvalidPolicyARNError struct {
	ARN string
}

func (e *InvalidPolicyARNError) Error() string {
	return fmt.Sprintf("%q is not a valid policy ARN.", e.ARN)
}
