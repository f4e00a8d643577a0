package convert

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/not-in-stock/terminal-profiles-hm/pkg/profile"
)

// ErrUnknownPolicy is returned for an unrecognized policy name.
var ErrUnknownPolicy = errors.New("unknown policy")

// DuplicatePolicy decides what happens when two profiles share a name.
type DuplicatePolicy string

const (
	// DuplicatesError rejects the whole batch before anything is written.
	DuplicatesError DuplicatePolicy = "error"
	// DuplicatesOverwrite writes every profile to the same location, in input
	// order, so the last one wins.
	DuplicatesOverwrite DuplicatePolicy = "overwrite"
	// DuplicatesSuffix gives later duplicates distinct identifiers such as
	// "Name (2)".
	DuplicatesSuffix DuplicatePolicy = "suffix"
)

// AllDuplicatePolicies lists the valid [DuplicatePolicy] names.
var AllDuplicatePolicies = []string{
	string(DuplicatesError),
	string(DuplicatesOverwrite),
	string(DuplicatesSuffix),
}

// ParseDuplicatePolicy parses a [DuplicatePolicy] name.
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch p := DuplicatePolicy(strings.ToLower(s)); p {
	case DuplicatesError, DuplicatesOverwrite, DuplicatesSuffix:
		return p, nil
	default:
		return "", fmt.Errorf("%w: duplicates %q", ErrUnknownPolicy, s)
	}
}

// FailurePolicy decides what happens when a profile fails.
type FailurePolicy string

const (
	// OnErrorAbort stops at the first failed profile.
	OnErrorAbort FailurePolicy = "abort"
	// OnErrorContinue processes every profile and reports all failures.
	OnErrorContinue FailurePolicy = "continue"
)

// AllFailurePolicies lists the valid [FailurePolicy] names.
var AllFailurePolicies = []string{
	string(OnErrorAbort),
	string(OnErrorContinue),
}

// ParseFailurePolicy parses a [FailurePolicy] name.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch p := FailurePolicy(strings.ToLower(s)); p {
	case OnErrorAbort, OnErrorContinue:
		return p, nil
	default:
		return "", fmt.Errorf("%w: on error %q", ErrUnknownPolicy, s)
	}
}

// Identifiers returns the output identifier of each profile under policy.
// [DuplicatesError] fails with [ErrDuplicateName] listing every repeated
// name.
func Identifiers(l profile.List, policy DuplicatePolicy) ([]string, error) {
	names := l.Names()
	ids := make([]string, len(names))

	switch policy {
	case DuplicatesError:
		dups := l.Duplicates()
		if len(dups) > 0 {
			quoted := make([]string, 0, len(dups))
			for _, d := range dups {
				quoted = append(quoted, strconv.Quote(d))
			}

			return nil, fmt.Errorf("%w: %s", ErrDuplicateName, strings.Join(quoted, ", "))
		}

		copy(ids, names)

	case DuplicatesOverwrite:
		copy(ids, names)

	case DuplicatesSuffix:
		taken := make(map[string]bool, len(names))
		for _, name := range names {
			taken[name] = true
		}

		seen := make(map[string]int, len(names))
		for i, name := range names {
			seen[name]++
			if seen[name] == 1 {
				ids[i] = name

				continue
			}

			n := seen[name]

			id := fmt.Sprintf("%s (%d)", name, n)
			for taken[id] {
				n++
				id = fmt.Sprintf("%s (%d)", name, n)
			}

			seen[name] = n
			taken[id] = true
			ids[i] = id
		}

	default:
		return nil, fmt.Errorf("%w: duplicates %q", ErrUnknownPolicy, policy)
	}

	return ids, nil
}
