package models

// ChantierInput is the full description of a wood-hauling job to estimate.
// Environment must be set before any calculator runs.
type ChantierInput struct {
	Name   string      `json:"name"`
	Client string      `json:"client"`
	Type   BillingType `json:"type"`

	InvoicedPrice float64 `json:"invoicedPrice"` // € sold to the client

	Location Coordinate `json:"location"`

	Volume            float64 `json:"volume"`            // m³
	TransportDistance float64 `json:"transportDistance"` // km, depot to chantier one way
	HaulingDistance   float64 `json:"haulingDistance"`   // m, cutting zone to forest road

	Dispersion Dispersion  `json:"dispersion"`
	Density    Density     `json:"density"`
	Regrowth   RegrowthAge `json:"regrowth"`

	Environment *EnvironmentalSnapshot `json:"environment,omitempty"`
}

// TimeEstimate is the working-time breakdown for a chantier.
type TimeEstimate struct {
	TotalHours   float64 `json:"totalHours"`   // rounded to one decimal
	RoundTrips   int     `json:"roundTrips"`   // ceil(volume / effective payload)
	CycleMinutes float64 `json:"cycleMinutes"` // per hauling cycle
	AvgSpeed     float64 `json:"avgSpeed"`     // km/h after coefficients
	HaulingHours float64 `json:"haulingHours"`
	SetupHours   float64 `json:"setupHours"`
}

// CostBreakdown splits the chantier cost into its four components.
// Each component is rounded to the euro independently; Total is the sum of
// the rounded components.
type CostBreakdown struct {
	Transport float64 `json:"transport"`
	Fuel      float64 `json:"fuel"`
	Machine   float64 `json:"machine"`
	Labor     float64 `json:"labor"`
	Total     float64 `json:"total"`
}

// RiskLevel is the qualitative tier of the total risk score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"      // score < 30
	RiskMedium   RiskLevel = "medium"   // score < 60
	RiskHigh     RiskLevel = "high"     // score < 80
	RiskCritical RiskLevel = "critical" // score >= 80
)

// RiskAssessment is the weighted multi-factor risk of a chantier.
type RiskAssessment struct {
	ScoreTotal   float64   `json:"scoreTotal"` // 0-100, clamped
	ScoreWeather float64   `json:"scoreWeather"`
	ScoreSoil    float64   `json:"scoreSoil"`
	ScoreSlope   float64   `json:"scoreSlope"`
	ScoreSeason  float64   `json:"scoreSeason"`
	Factors      []string  `json:"factors"` // combination bonuses first, then individual factors
	Level        RiskLevel `json:"level"`
}

// MarginBand is the qualitative profitability tier.
type MarginBand string

const (
	MarginNonProfitable    MarginBand = "non_profitable"    // margin% < 10
	MarginLow              MarginBand = "low_margin"        // margin% < 20
	MarginProfitable       MarginBand = "profitable"        // margin% < 30
	MarginHighlyProfitable MarginBand = "highly_profitable" // margin% >= 30
)

// Decision is the final go/no-go recommendation.
type Decision string

const (
	DecisionAccept           Decision = "accept"
	DecisionAcceptConditions Decision = "accept_with_conditions"
	DecisionRefuse           Decision = "refuse"
)

// Recommendation is the structured advice attached to a result. Rendering
// (markdown, emphasis, localization) belongs to the presentation layer.
type Recommendation struct {
	Band        MarginBand `json:"band"`
	RiskFactors []string   `json:"riskFactors"`
	Suggestions []string   `json:"suggestions"`
	Decision    Decision   `json:"decision"`
}

// AIAnalysis is the externally produced annotation. The core never inspects
// it beyond attaching it to the result.
type AIAnalysis struct {
	Score              int      `json:"score"` // 0-100
	Interpretation     string   `json:"interpretation"`
	Recommendations    []string `json:"recommendations"`
	SuccessProbability string   `json:"successProbability"` // high, medium, low
}

// ChantierResult is the complete estimation output for one chantier.
type ChantierResult struct {
	Time           TimeEstimate   `json:"time"`
	Costs          CostBreakdown  `json:"costs"`
	Margin         float64        `json:"margin"`        // invoiced price - total cost, unrounded
	MarginPercent  float64        `json:"marginPercent"` // rounded to one decimal
	Risk           RiskAssessment `json:"risk"`
	Recommendation Recommendation `json:"recommendation"`
	OptimalPeriod  string         `json:"optimalPeriod,omitempty"`
	AIAnalysis     *AIAnalysis    `json:"aiAnalysis,omitempty"`
}
