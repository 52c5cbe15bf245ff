package reconcile

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/aretw0/smoc/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func botMessage(id string, progress float64) domain.NodeMessage {
	return domain.NodeMessage{
		Path:       []string{"root"},
		InstanceID: id,
		Progress:   &progress,
		ChatMessage: domain.BotMessage{
			MessageID: "m-" + id,
			Elements:  []domain.Element{domain.Prose{Options: domain.ProseOptions{Text: domain.NewLangString(id)}}},
		},
	}
}

func ids(l Log) []string {
	out := make([]string, len(l))
	for i, m := range l {
		out[i] = m.InstanceID
	}
	return out
}

func TestMerge_AppendsUnknown(t *testing.T) {
	log, outcome := Merge(nil, botMessage("A", 0))
	assert.Equal(t, Outcome{Kind: Appended, Index: 0}, outcome)

	log, outcome = Merge(log, botMessage("B", 0))
	assert.Equal(t, Outcome{Kind: Appended, Index: 1}, outcome)
	assert.Equal(t, []string{"A", "B"}, ids(log))
}

func TestMerge_ReplacesInPlace(t *testing.T) {
	log := MergeAll(nil, botMessage("A", 0.1), botMessage("B", 0.2))

	next, outcome := Merge(log, botMessage("A", 0.9))
	assert.Equal(t, Outcome{Kind: Updated, Index: 0}, outcome)
	assert.True(t, outcome.IsUpdate())
	assert.Equal(t, []string{"A", "B"}, ids(next))
	assert.InDelta(t, 0.9, *next[0].Progress, 1e-9)

	// input untouched
	assert.InDelta(t, 0.1, *log[0].Progress, 1e-9)
}

func TestMerge_ProgressUpdateScenario(t *testing.T) {
	log := Log{botMessage("A", 0.1)}

	next, outcome := Merge(log, botMessage("A", 0.5))
	require.Len(t, next, 1)
	assert.Equal(t, Updated, outcome.Kind)
	assert.InDelta(t, 0.5, *next[0].Progress, 1e-9)

	next, outcome = Merge(next, botMessage("B", 0))
	assert.Equal(t, []string{"A", "B"}, ids(next))
	assert.Equal(t, Outcome{Kind: Appended, Index: 1}, outcome)
}

func TestMerge_Properties(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))

	for round := 0; round < 200; round++ {
		var log Log
		for step := 0; step < 30; step++ {
			m := botMessage(fmt.Sprintf("id-%d", r.IntN(8)), r.Float64())
			before := log.Clone()

			next, outcome := Merge(log, m)

			// input is never mutated
			require.Equal(t, before, log)

			// length grows by one only for unknown ids
			if before.Index(m.InstanceID) >= 0 {
				require.Equal(t, Updated, outcome.Kind)
				require.Len(t, next, len(before))
			} else {
				require.Equal(t, Appended, outcome.Kind)
				require.Len(t, next, len(before)+1)
			}

			// the merged message is at the reported index
			require.Equal(t, m, next[outcome.Index])

			// ids stay unique and every other entry keeps its position
			seen := map[string]bool{}
			for i, e := range next {
				require.False(t, seen[e.InstanceID], "duplicate %s", e.InstanceID)
				seen[e.InstanceID] = true
				if i != outcome.Index {
					require.Equal(t, before[i], e)
				}
			}

			// merging the same message again is idempotent
			again, _ := Merge(next, m)
			require.Equal(t, next, again)

			log = next
		}
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "appended", Appended.String())
	assert.Equal(t, "updated", Updated.String())
	assert.Equal(t, "unknown", Kind(0).String())
}
