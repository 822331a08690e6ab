package models

// ScamCategory is one of the fixed scam classes the classifier emits
type ScamCategory string

const (
	CategoryFakeBank     ScamCategory = "Fake Bank / Financial Fraud"
	CategoryLottery      ScamCategory = "Lottery / Prize Scam"
	CategoryTechSupport  ScamCategory = "Tech Support Scam"
	CategoryFakeJob      ScamCategory = "Fake Job / Recruitment Scam"
	CategoryInvestment   ScamCategory = "Investment / Crypto Scam"
	CategoryRomance      ScamCategory = "Romance / Relationship Scam"
	CategoryUnclassified ScamCategory = "Unclassified"
)

// Categories is the closed, ordered set of classifiable scam types.
// CategoryUnclassified is reserved for empty input and is not votable.
var Categories = []ScamCategory{
	CategoryFakeBank,
	CategoryLottery,
	CategoryTechSupport,
	CategoryFakeJob,
	CategoryInvestment,
	CategoryRomance,
}

// ToneSignals carries normalized lexicon-hit counts for the three tone
// dimensions plus the derived overall factor.
type ToneSignals struct {
	UrgencyScore   float64 `json:"urgency_score"`
	FinancialScore float64 `json:"financial_score"`
	RewardScore    float64 `json:"reward_score"`
	ToneFactor     float64 `json:"tone_factor"`
}

// ClassifierVotes records the category each voter picked
type ClassifierVotes struct {
	ML        ScamCategory `json:"ml"`
	Semantic  ScamCategory `json:"semantic"`
	Heuristic ScamCategory `json:"heuristic"`
}

// ScamClass is the hybrid classifier's verdict for one case
type ScamClass struct {
	Category          ScamCategory    `json:"category"`
	Confidence        float64         `json:"confidence"`
	Votes             ClassifierVotes `json:"votes"`
	ToneSignals       ToneSignals     `json:"tone_signals"`
	SentimentPolarity float64         `json:"sentiment_polarity"`
	Keywords          []string        `json:"keywords"`
}
