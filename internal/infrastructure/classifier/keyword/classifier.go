// Package keyword implements the deterministic two-stage evidence classifier:
// an upload-hint fast path layered over taxonomy keyword matching against the
// filename and a bounded content sample.
package keyword

import (
	"sort"
	"strings"

	"github.com/caseward/evidence-intake/internal/core/domain"
	"github.com/caseward/evidence-intake/internal/core/ports"
)

const (
	hintBaseConfidence    = 0.9
	hintAgreementBonus    = 0.05
	hintConflictPenalty   = 0.2
	noSignalFloor         = 0.5
	distinctKeywordWeight = 0.08
	repeatHitWeight       = 0.02
	maxContentConfidence  = 0.95
)

type Classifier struct {
	taxonomy ports.TaxonomySource
}

func New(taxonomy ports.TaxonomySource) *Classifier {
	return &Classifier{taxonomy: taxonomy}
}

// Classify is a pure function of its inputs: identical inputs always produce
// an identical result. It never fails; with no usable signal it returns the
// default sub-type of the hinted (or default) class at the confidence floor.
func (c *Classifier) Classify(caseCategory, sample, filename string, hints domain.UploadHints) domain.Classification {
	taxonomy := c.taxonomy.Lookup(caseCategory)
	haystack := strings.ToLower(filename + "\n" + sample)

	primary := bestMatch(haystack, taxonomy.PrimaryKeywords)
	secondary := bestMatch(haystack, taxonomy.SecondaryKeywords)

	if hints.DirectUpload || hints.SourceURL != "" {
		return c.classifyWithHints(taxonomy, hints, primary, secondary)
	}
	return classifyByContent(taxonomy, primary, secondary)
}

// classifyWithHints lets provenance decide the class. Content still picks the
// sub-type within that class, and disagreement between the two signals costs
// confidence.
func (c *Classifier) classifyWithHints(taxonomy domain.Taxonomy, hints domain.UploadHints, primary, secondary match) domain.Classification {
	class := domain.ClassSecondary
	winning, opposing := secondary, primary
	if hints.DirectUpload {
		// Case-owner uploads outrank source URLs when both flags are set.
		class = domain.ClassPrimary
		winning, opposing = primary, secondary
	}

	confidence := hintBaseConfidence
	switch {
	case opposing.score > winning.score:
		confidence -= hintConflictPenalty
	case winning.distinct > 0:
		confidence += hintAgreementBonus
	}

	subType := winning.subType
	if subType == "" {
		subType = defaultSubType(taxonomy, class)
	}
	return domain.Classification{
		Class:      class,
		SubType:    subType,
		Confidence: clamp(confidence),
	}
}

// classifyByContent falls back to the stronger keyword family. With no signal
// at all the item defaults to primary, which is what unhinted case uploads
// overwhelmingly are.
func classifyByContent(taxonomy domain.Taxonomy, primary, secondary match) domain.Classification {
	class := domain.ClassPrimary
	winning := primary
	if secondary.score > primary.score {
		class = domain.ClassSecondary
		winning = secondary
	}

	subType := winning.subType
	if subType == "" {
		subType = defaultSubType(taxonomy, class)
	}

	confidence := noSignalFloor
	if winning.distinct > 0 {
		extra := winning.score - winning.distinct
		confidence += distinctKeywordWeight*float64(winning.distinct) + repeatHitWeight*float64(extra)
		if confidence > maxContentConfidence {
			confidence = maxContentConfidence
		}
	}
	return domain.Classification{
		Class:      class,
		SubType:    subType,
		Confidence: clamp(confidence),
	}
}

type match struct {
	subType  string
	score    int // total keyword occurrences
	distinct int // keywords with at least one occurrence
}

// bestMatch scores every sub-type of one keyword family. Sub-types are walked
// in sorted order so equal scores break ties deterministically.
func bestMatch(haystack string, keywords map[string][]string) match {
	subTypes := make([]string, 0, len(keywords))
	for subType := range keywords {
		subTypes = append(subTypes, subType)
	}
	sort.Strings(subTypes)

	var best match
	for _, subType := range subTypes {
		var score, distinct int
		for _, kw := range keywords[subType] {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				continue
			}
			if hits := strings.Count(haystack, kw); hits > 0 {
				score += hits
				distinct++
			}
		}
		if score > best.score {
			best = match{subType: subType, score: score, distinct: distinct}
		}
	}
	return best
}

func defaultSubType(taxonomy domain.Taxonomy, class domain.EvidenceClass) string {
	if class == domain.ClassPrimary {
		if taxonomy.DefaultPrimary != "" {
			return taxonomy.DefaultPrimary
		}
		return "document"
	}
	if taxonomy.DefaultSecondary != "" {
		return taxonomy.DefaultSecondary
	}
	return "reference"
}

func clamp(confidence float64) float64 {
	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}
