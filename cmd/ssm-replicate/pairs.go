package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cullancarey/PortfolioWebsite/internal/replicator"
)

// parsePairs combines --parameters-json with repeated --param flags, JSON
// pairs first. A flag without "=" copies the key to the same name. Returns
// nil when neither is given so the environment value is kept.
func parsePairs(params []string, rawJSON string) ([]replicator.Pair, error) {
	var pairs []replicator.Pair
	if raw := strings.TrimSpace(rawJSON); raw != "" {
		if err := json.Unmarshal([]byte(raw), &pairs); err != nil {
			return nil, fmt.Errorf("parse --parameters-json: %w", err)
		}
		if pairs == nil {
			pairs = []replicator.Pair{}
		}
	}
	for _, p := range params {
		source, target, found := strings.Cut(p, "=")
		source, target = strings.TrimSpace(source), strings.TrimSpace(target)
		if !found {
			target = source
		}
		if source == "" || target == "" {
			return nil, fmt.Errorf("invalid --param %q: want source[=target]", p)
		}
		pairs = append(pairs, replicator.Pair{Source: source, Target: target})
	}
	return pairs, nil
}
