package pipeline

import "strings"

// ExpandTerms derives lexical variants of a query or genre name to widen
// recall against providers that need near-exact term matches. The original
// term always comes first; variants are deduplicated case-insensitively.
// Pure and deterministic: empty input yields an empty sequence.
func ExpandTerms(term string) []string {
	normalized := strings.TrimSpace(term)
	if normalized == "" {
		return nil
	}

	variants := []string{normalized}
	lower := strings.ToLower(normalized)
	switch {
	case strings.HasSuffix(lower, "ies"):
		variants = append(variants, normalized[:len(normalized)-3]+"y")
	case strings.HasSuffix(lower, "y"):
		variants = append(variants, normalized[:len(normalized)-1]+"ies")
	}
	if strings.HasSuffix(lower, "s") {
		if singular := normalized[:len(normalized)-1]; singular != "" {
			variants = append(variants, singular)
		}
	} else {
		variants = append(variants, normalized+"s")
	}

	return dedupeTerms(variants)
}

// expandGenreTerms widens a genre name with browse-oriented suffixes on top
// of the lexical variants. The suffix list matters: genre names are poor
// search terms on their own, so "comedy movie" style phrases seed most of the
// dynamically discovered pool.
func expandGenreTerms(genre string, suffixes []string) []string {
	base := ExpandTerms(genre)
	if len(base) == 0 {
		base = []string{genre}
	}
	extended := append([]string(nil), base...)
	for _, suffix := range suffixes {
		extended = append(extended, genre+" "+suffix)
	}
	return dedupeTerms(extended)
}

var genreBrowseSuffixes = []string{"movie", "film", "blockbuster", "cinema"}

var boxOfficeGenreSuffixes = []string{"movie", "film", "blockbuster"}

func dedupeTerms(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	ordered := make([]string, 0, len(terms))
	for _, term := range terms {
		key := strings.ToLower(strings.TrimSpace(term))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		ordered = append(ordered, term)
	}
	return ordered
}

// fallbackTerm broadens an exhausted query by toggling a trailing "s".
func fallbackTerm(query string) string {
	if strings.HasSuffix(strings.ToLower(query), "s") {
		return query[:len(query)-1]
	}
	return query + "s"
}
