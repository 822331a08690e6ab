package services

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"cyberlens/internal/domain/models"
	"cyberlens/pkg/logger"
)

type caseLister interface {
	ListCases() ([]models.CaseRecord, error)
}

// ThreatHub answers cross-case intelligence queries over the persisted
// case records. Every query loads a fresh snapshot; cases written
// mid-query may or may not appear.
type ThreatHub struct {
	store  caseLister
	logger *logger.Logger
}

func NewThreatHub(store caseLister, log *logger.Logger) *ThreatHub {
	return &ThreatHub{
		store:  store,
		logger: log.WithComponent("threat_hub"),
	}
}

// Search returns cases whose serialized form contains the query,
// case-insensitively. This deliberately matches any field: entity
// values, raw text, rationale sentences, domains.
func (h *ThreatHub) Search(query string) ([]models.SearchHit, error) {
	cases, err := h.store.ListCases()
	if err != nil {
		return nil, fmt.Errorf("load cases: %w", err)
	}

	needle := strings.ToLower(query)
	hits := []models.SearchHit{}
	for _, c := range cases {
		serialized, err := json.Marshal(c)
		if err != nil {
			h.logger.Warn().Err(err).Str("file_id", c.FileID).Msg("case not serializable, skipping")
			continue
		}
		if !strings.Contains(strings.ToLower(string(serialized)), needle) {
			continue
		}
		hits = append(hits, models.SearchHit{
			FileID:     c.FileID,
			Category:   c.ScamClass.Category,
			Score:      c.Risk.Score,
			RiskLevel:  c.Risk.RiskLevel,
			AnalyzedAt: c.AnalyzedAt,
		})
	}
	return hits, nil
}

// TopEntities ranks entity values by how many cases mention them.
// Values are grouped by lowercased form; avg_risk averages the host
// case's fused score over the occurrences. Equal counts order
// lexicographically.
func (h *ThreatHub) TopEntities(limit int) ([]models.TopEntity, error) {
	cases, err := h.store.ListCases()
	if err != nil {
		return nil, fmt.Errorf("load cases: %w", err)
	}

	type bucket struct {
		count   int
		riskSum float64
	}
	freq := make(map[string]*bucket)
	for _, c := range cases {
		for _, ent := range c.Entities {
			key := strings.ToLower(ent.Value)
			b, ok := freq[key]
			if !ok {
				b = &bucket{}
				freq[key] = b
			}
			b.count++
			b.riskSum += c.Risk.Score
		}
	}

	ranked := make([]models.TopEntity, 0, len(freq))
	for value, b := range freq {
		ranked = append(ranked, models.TopEntity{
			Entity:  value,
			Count:   b.count,
			AvgRisk: math.Round(b.riskSum/float64(b.count)*100) / 100,
		})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Entity < ranked[j].Entity
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// EntityProfile builds the cross-case view of one entity value using
// case-insensitive substring matching. A case contributes once no
// matter how many of its entities match.
func (h *ThreatHub) EntityProfile(value string) (*models.EntityProfile, error) {
	cases, err := h.store.ListCases()
	if err != nil {
		return nil, fmt.Errorf("load cases: %w", err)
	}

	needle := strings.ToLower(value)
	profile := &models.EntityProfile{
		Entity:           value,
		LinkedCategories: []models.ScamCategory{},
		Cases:            []models.EntityProfileCase{},
	}
	linked := make(map[models.ScamCategory]struct{})
	var riskSum float64

	for _, c := range cases {
		matched := false
		for _, ent := range c.Entities {
			if strings.Contains(strings.ToLower(ent.Value), needle) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}

		profile.Cases = append(profile.Cases, models.EntityProfileCase{
			FileID:     c.FileID,
			Category:   c.ScamClass.Category,
			RiskScore:  c.Risk.Score,
			OSINTHits:  c.OSINTHits,
			AnalyzedAt: c.AnalyzedAt,
		})
		if _, dup := linked[c.ScamClass.Category]; !dup {
			linked[c.ScamClass.Category] = struct{}{}
			profile.LinkedCategories = append(profile.LinkedCategories, c.ScamClass.Category)
		}
		riskSum += c.Risk.Score
	}

	if len(profile.Cases) == 0 {
		return nil, fmt.Errorf("entity %q: %w", value, models.ErrNotFound)
	}

	profile.FoundIn = len(profile.Cases)
	profile.AvgRisk = math.Round(riskSum/float64(len(profile.Cases))*100) / 100
	return profile, nil
}

// Clusters finds connected components of cases joined by shared entity
// values. Components of a single case are not emitted. Built with
// union-find over the entity→cases inverted index, so a hub entity
// touching N cases costs N unions, not N² edges.
func (h *ThreatHub) Clusters() ([]models.Cluster, error) {
	cases, err := h.store.ListCases()
	if err != nil {
		return nil, fmt.Errorf("load cases: %w", err)
	}

	index := make(map[string]int, len(cases))
	ids := make([]string, len(cases))
	for i, c := range cases {
		index[c.FileID] = i
		ids[i] = c.FileID
	}

	uf := newUnionFind(len(cases))
	entityToFirst := make(map[string]int)
	for i, c := range cases {
		for _, ent := range c.Entities {
			key := strings.ToLower(ent.Value)
			if first, ok := entityToFirst[key]; ok {
				uf.union(first, i)
			} else {
				entityToFirst[key] = i
			}
		}
	}

	members := make(map[int][]string)
	for i := range cases {
		root := uf.find(i)
		members[root] = append(members[root], ids[i])
	}

	clusters := []models.Cluster{}
	for _, group := range members {
		if len(group) < 2 {
			continue
		}
		sort.Strings(group)
		clusters = append(clusters, models.Cluster{Cases: group})
	}
	sort.Slice(clusters, func(i, j int) bool {
		return clusters[i].Cases[0] < clusters[j].Cases[0]
	})
	return clusters, nil
}

type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{
		parent: make([]int, n),
		rank:   make([]int, n),
	}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	if uf.rank[ra] < uf.rank[rb] {
		ra, rb = rb, ra
	}
	uf.parent[rb] = ra
	if uf.rank[ra] == uf.rank[rb] {
		uf.rank[ra]++
	}
}
