// Package grouping clusters case rows that appear to concern the same
// person or matter.
package grouping

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ppiankov/casewatch/internal/model"
)

// Mode selects the grouping algorithm
type Mode string

const (
	// ModeHeuristic groups by exact person name, then by one-hop party
	// overlap among the rows left over, then singletons. Groups from the
	// two passes are never merged.
	ModeHeuristic Mode = "heuristic"

	// ModeConnected merges rows transitively across shared person names
	// and shared party names.
	ModeConnected Mode = "connected"
)

// ParseMode validates a mode name. Empty selects ModeHeuristic.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeHeuristic:
		return ModeHeuristic, nil
	case ModeConnected:
		return ModeConnected, nil
	default:
		return "", fmt.Errorf("unknown grouping mode: %s (supported: heuristic, connected)", s)
	}
}

// Cluster is one group of rows. Indices point into the input slice and are
// ascending.
type Cluster struct {
	ID      int
	Indices []int
}

// Size returns the number of rows in the group
func (g Cluster) Size() int {
	return len(g.Indices)
}

// Group partitions records. Every index appears in exactly one group and
// IDs are dense starting at 0.
func Group(records []model.CaseRecord, mode Mode) []Cluster {
	if mode == ModeConnected {
		return connected(records)
	}
	return heuristic(records)
}

// Assign returns the group id of each record
func Assign(records []model.CaseRecord, mode Mode) []int {
	ids := make([]int, len(records))
	for _, g := range Group(records, mode) {
		for _, i := range g.Indices {
			ids[i] = g.ID
		}
	}
	return ids
}

func heuristic(records []model.CaseRecord) []Cluster {
	n := len(records)
	assigned := make([]bool, n)
	var groups []Cluster

	add := func(indices []int) {
		sort.Ints(indices)
		for _, i := range indices {
			assigned[i] = true
		}
		groups = append(groups, Cluster{ID: len(groups), Indices: indices})
	}

	// Pass 1: shared person name
	for i := range records {
		if assigned[i] || !records[i].HasPerson() {
			continue
		}
		name := personKey(records[i])

		same := []int{i}
		for j := i + 1; j < n; j++ {
			if !assigned[j] && records[j].HasPerson() && personKey(records[j]) == name {
				same = append(same, j)
			}
		}
		if len(same) > 1 {
			add(same)
		}
	}

	// Pass 2: party overlap with the row itself, no transitive closure
	parties := make([]map[string]struct{}, n)
	for i := range records {
		parties[i] = records[i].Parties()
	}

	for i := range records {
		if assigned[i] {
			continue
		}

		related := []int{i}
		for j := range records {
			if j != i && !assigned[j] && intersects(parties[i], parties[j]) {
				related = append(related, j)
			}
		}
		if len(related) > 1 {
			add(related)
		}
	}

	// Pass 3: singletons in input order
	for i := range records {
		if !assigned[i] {
			add([]int{i})
		}
	}

	return groups
}

func connected(records []model.CaseRecord) []Cluster {
	uf := newUnionFind(len(records))

	byPerson := make(map[string]int)
	byParty := make(map[string]int)
	for i, rec := range records {
		if rec.HasPerson() {
			key := personKey(rec)
			if first, ok := byPerson[key]; ok {
				uf.union(first, i)
			} else {
				byPerson[key] = i
			}
		}
		for party := range rec.Parties() {
			if first, ok := byParty[party]; ok {
				uf.union(first, i)
			} else {
				byParty[party] = i
			}
		}
	}

	// Groups are numbered by their lowest member index
	rootID := make(map[int]int)
	var groups []Cluster
	for i := range records {
		root := uf.find(i)
		id, ok := rootID[root]
		if !ok {
			id = len(groups)
			rootID[root] = id
			groups = append(groups, Cluster{ID: id})
		}
		groups[id].Indices = append(groups[id].Indices, i)
	}
	return groups
}

func personKey(rec model.CaseRecord) string {
	return strings.TrimSpace(rec.PersonName)
}

func intersects(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for k := range a {
		if _, ok := b[k]; ok {
			return true
		}
	}
	return false
}

type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), rank: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	switch {
	case u.rank[ra] < u.rank[rb]:
		u.parent[ra] = rb
	case u.rank[ra] > u.rank[rb]:
		u.parent[rb] = ra
	default:
		u.parent[rb] = ra
		u.rank[ra]++
	}
}
