package register

import (
	"context"
	"sort"
	"strings"

	"scrutiny/pkg/domain"
)

// Matcher finds duplicate registrants with three independent strategies.
// Each strategy contributes its own findings; a voter pair can appear under
// more than one strategy.
type Matcher struct{}

// NewMatcher constructs a Matcher.
func NewMatcher() *Matcher {
	return &Matcher{}
}

// Detect runs all three strategies over the voter snapshot.
//
// Exact-identifier collisions indicate a store-level uniqueness violation;
// the store is expected to enforce national-id uniqueness, so hits here are
// a stronger signal than the other strategies and sort first in the output.
func (m *Matcher) Detect(ctx context.Context, voters []domain.VoterRecord, mode domain.MatchMode) ([]DuplicateFinding, error) {
	findings := make([]DuplicateFinding, 0)

	exact := groupCollisions(voters, domain.StrategyExactIdentifier, "national_identifier", func(v domain.VoterRecord) string {
		return v.NationalIdentifier.String()
	})
	findings = append(findings, exact...)

	fuzzy, err := m.fuzzyIdentity(ctx, voters, mode)
	if err != nil {
		return nil, err
	}
	findings = append(findings, fuzzy...)

	biometric := groupCollisions(voters, domain.StrategyBiometricCollision, "biometric_digest", func(v domain.VoterRecord) string {
		return v.BiometricDigest
	})
	findings = append(findings, biometric...)

	return findings, ctx.Err()
}

// groupCollisions flags any key shared by more than one voter. Grouping is
// naturally order-independent; members are sorted for stable output.
func groupCollisions(voters []domain.VoterRecord, strategy domain.DuplicateStrategy, field string, key func(domain.VoterRecord) string) []DuplicateFinding {
	groups := make(map[string][]domain.VoterID)
	for _, v := range voters {
		k := key(v)
		if k == "" {
			continue
		}
		groups[k] = append(groups[k], v.VoterID)
	}

	keys := make([]string, 0, len(groups))
	for k, members := range groups {
		if len(members) > 1 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	findings := make([]DuplicateFinding, 0, len(keys))
	for _, k := range keys {
		members := groups[k]
		sort.Slice(members, func(i, j int) bool {
			return members[i].String() < members[j].String()
		})
		findings = append(findings, DuplicateFinding{
			Strategy:   strategy,
			SubjectIDs: members,
			Evidence:   map[string]string{field: k},
		})
	}
	return findings
}

// fuzzyIdentity flags voters whose case-folded trimmed legal name and exact
// date of birth both match. The predicate is deliberately strict; no
// edit-distance fuzziness.
func (m *Matcher) fuzzyIdentity(ctx context.Context, voters []domain.VoterRecord, mode domain.MatchMode) ([]DuplicateFinding, error) {
	switch mode {
	case domain.MatchBucketed:
		return m.fuzzyBucketed(ctx, voters)
	default:
		return m.fuzzyAllPairs(ctx, voters)
	}
}

// fuzzyAllPairs compares every distinct unordered pair. O(n^2); acceptable
// only for bounded scopes such as a single district.
func (m *Matcher) fuzzyAllPairs(ctx context.Context, voters []domain.VoterRecord) ([]DuplicateFinding, error) {
	findings := make([]DuplicateFinding, 0)
	for i := 0; i < len(voters); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for j := i + 1; j < len(voters); j++ {
			if f, ok := fuzzyPair(voters[i], voters[j]); ok {
				findings = append(findings, f)
			}
		}
	}
	sortPairFindings(findings)
	return findings, nil
}

// fuzzyBucketed blocks candidates by normalized-name prefix plus birth year
// before pairwise comparison. The matching predicate is identical to the
// all-pairs path: a matching pair always shares its bucket key, so blocking
// cannot lose matches, only skip comparisons.
func (m *Matcher) fuzzyBucketed(ctx context.Context, voters []domain.VoterRecord) ([]DuplicateFinding, error) {
	buckets := make(map[string][]domain.VoterRecord)
	for _, v := range voters {
		buckets[bucketKey(v)] = append(buckets[bucketKey(v)], v)
	}

	findings := make([]DuplicateFinding, 0)
	for _, bucket := range buckets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(bucket) < 2 {
			continue
		}
		for i := 0; i < len(bucket); i++ {
			for j := i + 1; j < len(bucket); j++ {
				if f, ok := fuzzyPair(bucket[i], bucket[j]); ok {
					findings = append(findings, f)
				}
			}
		}
	}
	sortPairFindings(findings)
	return findings, nil
}

// fuzzyPair applies the matching predicate and canonicalizes pair order
// (lower id first) so (a,b) and (b,a) cannot both appear.
func fuzzyPair(a, b domain.VoterRecord) (DuplicateFinding, bool) {
	nameA := normalizeName(a.LegalName)
	if nameA == "" || nameA != normalizeName(b.LegalName) {
		return DuplicateFinding{}, false
	}
	if a.DateOfBirth == "" || a.DateOfBirth != b.DateOfBirth {
		return DuplicateFinding{}, false
	}
	first, second := a.VoterID, b.VoterID
	if second.String() < first.String() {
		first, second = second, first
	}
	return DuplicateFinding{
		Strategy:   domain.StrategyFuzzyIdentity,
		SubjectIDs: []domain.VoterID{first, second},
		Evidence: map[string]string{
			"normalized_name": nameA,
			"date_of_birth":   a.DateOfBirth,
		},
	}, true
}

// normalizeName case-folds and collapses whitespace.
func normalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// bucketKey blocks on the first two runes of the normalized name plus the
// birth year.
func bucketKey(v domain.VoterRecord) string {
	name := normalizeName(v.LegalName)
	prefix := name
	if runes := []rune(name); len(runes) > 2 {
		prefix = string(runes[:2])
	}
	year := ""
	if len(v.DateOfBirth) >= 4 {
		year = v.DateOfBirth[:4]
	}
	return prefix + "|" + year
}

func sortPairFindings(findings []DuplicateFinding) {
	sort.Slice(findings, func(i, j int) bool {
		a, b := findings[i].SubjectIDs[0].String(), findings[j].SubjectIDs[0].String()
		if a != b {
			return a < b
		}
		return findings[i].SubjectIDs[1].String() < findings[j].SubjectIDs[1].String()
	})
}
