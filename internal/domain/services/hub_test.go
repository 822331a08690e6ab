package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cyberlens/internal/domain/models"
)

type memCaseLister struct {
	cases []models.CaseRecord
	err   error
}

func (m *memCaseLister) ListCases() ([]models.CaseRecord, error) {
	return m.cases, m.err
}

func hubCase(fileID string, category models.ScamCategory, score float64, values ...string) models.CaseRecord {
	entities := make([]models.Entity, 0, len(values))
	for _, v := range values {
		entities = append(entities, models.Entity{Type: models.EntityTypeDomain, Value: v, Confidence: 0.8})
	}
	return models.CaseRecord{
		FileID:   fileID,
		Entities: entities,
		ScamClass: models.ScamClass{
			Category:   category,
			Confidence: 0.9,
		},
		Risk: models.RiskReport{
			Score:     score,
			RiskLevel: models.RiskLabelFor(score),
		},
		AnalyzedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func newTestHub(cases ...models.CaseRecord) *ThreatHub {
	return NewThreatHub(&memCaseLister{cases: cases}, testLogger())
}

func TestThreatHubSearchMatchesAnyField(t *testing.T) {
	hub := newTestHub(
		hubCase("case-a.png", models.CategoryFakeBank, 0.8, "fraud-desk.xyz"),
		hubCase("case-b.png", models.CategoryLottery, 0.3, "prize-claims.in"),
	)

	hits, err := hub.Search("fraud-desk")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "case-a.png", hits[0].FileID)
	assert.Equal(t, models.CategoryFakeBank, hits[0].Category)
	assert.Equal(t, models.RiskLevelHigh, hits[0].RiskLevel)

	// category names live in the serialized record too
	hits, err = hub.Search("LOTTERY")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "case-b.png", hits[0].FileID)

	hits, err = hub.Search("no-such-token")
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestThreatHubTopEntitiesCountsAndAverages(t *testing.T) {
	hub := newTestHub(
		hubCase("c1.png", models.CategoryFakeBank, 0.9, "entity-a.com", "entity-b.com"),
		hubCase("c2.png", models.CategoryFakeBank, 0.6, "entity-b.com", "entity-c.com"),
		hubCase("c3.png", models.CategoryLottery, 0.3, "entity-b.com"),
	)

	top, err := hub.TopEntities(2)
	require.NoError(t, err)
	require.Len(t, top, 2)

	assert.Equal(t, "entity-b.com", top[0].Entity)
	assert.Equal(t, 3, top[0].Count)
	assert.InDelta(t, 0.6, top[0].AvgRisk, 1e-9) // (0.9+0.6+0.3)/3

	// a and c tie on count; lexicographic order breaks it
	assert.Equal(t, "entity-a.com", top[1].Entity)
	assert.Equal(t, 1, top[1].Count)
	assert.InDelta(t, 0.9, top[1].AvgRisk, 1e-9)
}

func TestThreatHubTopEntitiesGroupsCaseInsensitively(t *testing.T) {
	hub := newTestHub(
		hubCase("c1.png", models.CategoryFakeBank, 0.8, "Fraud-Desk.XYZ"),
		hubCase("c2.png", models.CategoryFakeBank, 0.4, "fraud-desk.xyz"),
	)

	top, err := hub.TopEntities(0)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "fraud-desk.xyz", top[0].Entity)
	assert.Equal(t, 2, top[0].Count)
	assert.InDelta(t, 0.6, top[0].AvgRisk, 1e-9)
}

func TestThreatHubEntityProfile(t *testing.T) {
	hub := newTestHub(
		hubCase("c1.png", models.CategoryTechSupport, 0.8, "pay.fraud-desk.xyz"),
		hubCase("c2.png", models.CategoryFakeBank, 0.6, "fraud-desk.xyz", "fraud-desk.xyz/verify"),
		hubCase("c3.png", models.CategoryLottery, 0.2, "clean-site.com"),
	)

	profile, err := hub.EntityProfile("fraud-desk")
	require.NoError(t, err)

	assert.Equal(t, "fraud-desk", profile.Entity)
	// c2 matches twice but contributes once
	assert.Equal(t, 2, profile.FoundIn)
	require.Len(t, profile.Cases, 2)
	assert.Equal(t, "c1.png", profile.Cases[0].FileID)
	assert.Equal(t, "c2.png", profile.Cases[1].FileID)
	assert.Equal(t, []models.ScamCategory{models.CategoryTechSupport, models.CategoryFakeBank}, profile.LinkedCategories)
	assert.InDelta(t, 0.7, profile.AvgRisk, 1e-9)
}

func TestThreatHubEntityProfileUnknownEntity(t *testing.T) {
	hub := newTestHub(hubCase("c1.png", models.CategoryFakeBank, 0.8, "fraud-desk.xyz"))

	_, err := hub.EntityProfile("unseen-value")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestThreatHubClustersTransitiveLinks(t *testing.T) {
	hub := newTestHub(
		hubCase("c1.png", models.CategoryFakeBank, 0.8, "e1.com"),
		hubCase("c2.png", models.CategoryFakeBank, 0.7, "e1.com", "e2.com"),
		hubCase("c3.png", models.CategoryFakeBank, 0.6, "e2.com"),
		hubCase("c4.png", models.CategoryLottery, 0.3, "e3.com"),
	)

	clusters, err := hub.Clusters()
	require.NoError(t, err)

	// c1-c2 share e1, c2-c3 share e2; c4 is isolated and not emitted
	require.Len(t, clusters, 1)
	assert.Equal(t, []string{"c1.png", "c2.png", "c3.png"}, clusters[0].Cases)
}

func TestThreatHubClustersMultipleComponents(t *testing.T) {
	hub := newTestHub(
		hubCase("a1.png", models.CategoryFakeBank, 0.8, "x.com"),
		hubCase("a2.png", models.CategoryFakeBank, 0.7, "x.com"),
		hubCase("b1.png", models.CategoryFakeBank, 0.6, "y.com"),
		hubCase("b2.png", models.CategoryFakeBank, 0.5, "y.com"),
	)

	clusters, err := hub.Clusters()
	require.NoError(t, err)
	require.Len(t, clusters, 2)
	assert.Equal(t, []string{"a1.png", "a2.png"}, clusters[0].Cases)
	assert.Equal(t, []string{"b1.png", "b2.png"}, clusters[1].Cases)
}

func TestThreatHubEmptyStore(t *testing.T) {
	hub := newTestHub()

	hits, err := hub.Search("anything")
	require.NoError(t, err)
	assert.Empty(t, hits)

	top, err := hub.TopEntities(10)
	require.NoError(t, err)
	assert.Empty(t, top)

	clusters, err := hub.Clusters()
	require.NoError(t, err)
	assert.Empty(t, clusters)
}
