package game

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/jason-s-yu/wordherd/internal/matcher"
)

// Cluster is a group of players whose answers matched the founding word.
type Cluster struct {
	Canonical string      `json:"canonical"`
	Members   []uuid.UUID `json:"members"`
}

// ClusterAnswers partitions answers greedily. Each answer is compared only with
// the founding word of each existing cluster, in founding order, and joins the
// first one that matches. Answers are visited in join order; answers from ids
// missing from order are visited last, sorted by id.
func ClusterAnswers(ctx context.Context, m matcher.Matcher, order []uuid.UUID, answers map[uuid.UUID]string) []Cluster {
	if len(answers) == 0 {
		return nil
	}
	m = matcher.Memoize(m)

	var clusters []Cluster
	for _, id := range enumerationOrder(order, answers) {
		word := answers[id]
		placed := false
		for i := range clusters {
			if m.Similar(ctx, word, clusters[i].Canonical) {
				clusters[i].Members = append(clusters[i].Members, id)
				placed = true
				break
			}
		}
		if !placed {
			clusters = append(clusters, Cluster{Canonical: word, Members: []uuid.UUID{id}})
		}
	}
	return clusters
}

func enumerationOrder(order []uuid.UUID, answers map[uuid.UUID]string) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(answers))
	seen := make(map[uuid.UUID]bool, len(answers))
	for _, id := range order {
		if _, ok := answers[id]; ok && !seen[id] {
			ids = append(ids, id)
			seen[id] = true
		}
	}
	var rest []uuid.UUID
	for id := range answers {
		if !seen[id] {
			rest = append(rest, id)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i].String() < rest[j].String() })
	return append(ids, rest...)
}
