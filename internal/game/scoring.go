package game

import (
	"context"

	"github.com/google/uuid"
	"github.com/jason-s-yu/wordherd/internal/matcher"
	"github.com/jason-s-yu/wordherd/internal/models"
)

// Score computes the per-player delta for a turn. It does not mutate turn or g.
//
// A turn is a dud when nobody matched anyone or when everyone gave the same
// answer; the questioner then loses a point and everyone else gets nothing.
// Otherwise each member of a cluster of n >= 2 earns n-1, and members other than
// the questioner earn one more when the questioner is in their cluster.
func Score(ctx context.Context, m matcher.Matcher, turn *models.Turn, g *models.Game) map[uuid.UUID]int {
	scores := make(map[uuid.UUID]int, len(g.Players))
	for _, p := range g.Players {
		scores[p.ID] = 0
	}
	if len(turn.Answers) == 0 {
		return scores
	}

	clusters := ClusterAnswers(ctx, m, g.PlayerIDs(), turn.Answers)
	if isDud(clusters, len(turn.Answers)) {
		scores[turn.QuestionerID] = -1
		return scores
	}

	for _, c := range clusters {
		if len(c.Members) < 2 {
			continue
		}
		matchCount := len(c.Members) - 1
		withQuestioner := false
		for _, id := range c.Members {
			if id == turn.QuestionerID {
				withQuestioner = true
				break
			}
		}
		for _, id := range c.Members {
			scores[id] = matchCount
			if withQuestioner && id != turn.QuestionerID {
				scores[id]++
			}
		}
	}
	return scores
}

func isDud(clusters []Cluster, answerCount int) bool {
	if len(clusters) == answerCount {
		return true
	}
	return len(clusters) == 1 && len(clusters[0].Members) == answerCount
}
