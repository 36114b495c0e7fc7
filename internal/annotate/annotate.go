// Package annotate produces the optional AI annotations attached to an
// estimation: a one-line soil interpretation and a scored chantier
// analysis. Both come from the Mistral chat-completions API when a key is
// configured and degrade to rule-based text when the API is unreachable,
// misconfigured or returns something unparseable. The rest of the service
// treats the output as opaque.
package annotate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/aristee/chantier-service/internal/models"
	"github.com/aristee/chantier-service/internal/observability"
)

const (
	defaultBaseURL = "https://api.mistral.ai"
	defaultModel   = "mistral-large-latest"

	soilMaxTokens     = 80
	analysisMaxTokens = 400
	temperature       = 0.3
)

// Config configures the annotator. An empty APIKey disables the remote
// calls entirely; the annotator then always answers from rules.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Annotator calls Mistral for soil interpretations and chantier analyses.
type Annotator struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

// New builds an annotator. logger must not be nil.
func New(cfg Config, logger *zap.Logger) *Annotator {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Annotator{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Enabled reports whether remote annotation is configured.
func (a *Annotator) Enabled() bool {
	return a.cfg.APIKey != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// InterpretSoil returns a short operator-facing sentence about the soil's
// impact on hauling. Never fails; remote errors fall back to rules.
func (a *Annotator) InterpretSoil(ctx context.Context, soil models.SoilData) string {
	if !a.Enabled() {
		return fallbackSoilInterpretation(soil)
	}

	prompt := fmt.Sprintf(
		"You are a forestry expert. In at most two short sentences (150 characters max), "+
			"explain the impact of this soil on wood hauling, naming the main risk and one "+
			"machine or timing recommendation. Plain text only, no formatting.\n\n"+
			"Soil: clay %.0f%%, sand %.0f%%, silt %.0f%%, drainage %s.",
		soil.ClayContent, soil.SandContent, soil.SiltContent, soil.Drainage)

	content, err := a.complete(ctx, "soil",
		"You are a forestry expert in soil science and wood hauling. You give short, concrete, professional answers.",
		prompt, soilMaxTokens)
	if err != nil {
		a.logger.Warn("soil interpretation fell back to rules", zap.Error(err))
		return fallbackSoilInterpretation(soil)
	}
	return strings.TrimSpace(content)
}

// AnalyzeChantier returns the scored analysis for a completed estimation.
// Never fails; remote errors fall back to rules.
func (a *Annotator) AnalyzeChantier(ctx context.Context, input models.ChantierInput, result models.ChantierResult) *models.AIAnalysis {
	if !a.Enabled() {
		return ruleBasedAnalysis(input, result)
	}

	content, err := a.complete(ctx, "analysis",
		"You are a forestry consultant for the profitability of wood-hauling operations. "+
			"You score chantiers and give precise recommendations.",
		buildAnalysisPrompt(input, result), analysisMaxTokens)
	if err != nil {
		a.logger.Warn("chantier analysis fell back to rules", zap.Error(err))
		return ruleBasedAnalysis(input, result)
	}

	analysis, err := parseAnalysis(content)
	if err != nil {
		a.logger.Warn("unparseable analysis response, falling back to rules", zap.Error(err))
		return ruleBasedAnalysis(input, result)
	}
	return analysis
}

func (a *Annotator) complete(ctx context.Context, kind, system, prompt string, maxTokens int) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: a.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)

	start := time.Now()
	resp, err := a.client.Do(req)
	if err != nil {
		observability.ProviderCallsTotal.WithLabelValues("mistral", "error").Inc()
		return "", fmt.Errorf("mistral %s call: %w", kind, err)
	}
	defer resp.Body.Close()

	status := observability.StatusLabel(resp.StatusCode)
	observability.ProviderCallsTotal.WithLabelValues("mistral", status).Inc()
	observability.ProviderCallDuration.WithLabelValues("mistral", status).Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("mistral %s call: HTTP %d", kind, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("empty completion")
	}
	return parsed.Choices[0].Message.Content, nil
}

func buildAnalysisPrompt(input models.ChantierInput, result models.ChantierResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze this wood-hauling chantier and reply ONLY with strict JSON of the form "+
		`{"score": <0-100>, "interpretation": "<3-4 short sentences, 400 characters max>", `+
		`"recommendations": ["<short line>", ...], "successProbability": "<high|medium|low>"}`+".\n\n")
	fmt.Fprintf(&b, "Chantier %q for client %q, billed %s.\n", input.Name, input.Client, input.Type)
	fmt.Fprintf(&b, "Invoiced %.0f EUR, volume %.0f m3, estimated cost %.0f EUR, margin %.1f%%, time %.1f h.\n",
		input.InvoicedPrice, input.Volume, result.Costs.Total, result.MarginPercent, result.Time.TotalHours)
	fmt.Fprintf(&b, "Transport %.0f km, hauling %.0f m, dispersion %s.\n",
		input.TransportDistance, input.HaulingDistance, input.Dispersion)
	fmt.Fprintf(&b, "Risk score %.0f/100 (%s).\n", result.Risk.ScoreTotal, result.Risk.Level)
	for _, f := range result.Risk.Factors {
		fmt.Fprintf(&b, "- %s\n", f)
	}
	if env := input.Environment; env != nil {
		fmt.Fprintf(&b, "Weather: rain probability %.0f%%, 7-day accumulation %.0f mm.\n",
			env.Weather.PrecipitationProbability, env.Weather.RainAccumulation7d)
		fmt.Fprintf(&b, "Soil: drainage %s, clay %.0f%%. Slope %.1f%%.\n",
			env.Soil.Drainage, env.Soil.ClayContent, env.Terrain.Slope)
		if heavyRain(env) && env.Soil.Drainage == models.DrainagePoor {
			b.WriteString("CRITICAL: heavy rain over poorly drained soil. Recommend postponing; force successProbability to low.\n")
		}
	}
	b.WriteString("Score bands: 80-100 excellent, 60-79 good, 40-59 average, 20-39 difficult, 0-19 avoid or postpone.")
	return b.String()
}

// parseAnalysis extracts and validates the JSON object from a completion.
// Models occasionally wrap the JSON in prose or code fences.
func parseAnalysis(content string) (*models.AIAnalysis, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in completion")
	}

	var analysis models.AIAnalysis
	if err := json.Unmarshal([]byte(content[start:end+1]), &analysis); err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}

	if analysis.Score < 0 {
		analysis.Score = 0
	}
	if analysis.Score > 100 {
		analysis.Score = 100
	}
	switch analysis.SuccessProbability {
	case "high", "medium", "low":
	default:
		analysis.SuccessProbability = "medium"
	}
	if analysis.Interpretation == "" {
		return nil, fmt.Errorf("analysis without interpretation")
	}
	return &analysis, nil
}

// fallbackSoilInterpretation covers the common textures with canned advice.
func fallbackSoilInterpretation(soil models.SoilData) string {
	badDrainage := soil.Drainage == models.DrainagePoor
	highClay := soil.ClayContent > 30
	highSand := soil.SandContent > 60

	switch {
	case badDrainage && highClay:
		return "Clayey soil with poor drainage. Use wide tracks and favor a dry period."
	case badDrainage:
		return "Limited drainage, rutting risk. Plan ground protection mats if rain is expected."
	case highClay:
		return "Clayey soil sensitive to moisture. Avoid rainy periods."
	case highSand:
		return "Well-drained sandy soil, favorable for hauling year round."
	default:
		return "Balanced soil, favorable conditions for hauling."
	}
}

func heavyRain(env *models.EnvironmentalSnapshot) bool {
	return env.Weather.PrecipitationProbability >= 80 || env.Weather.RainAccumulation7d/7 > 5
}

// daysUntilClearWeather returns the index of the first forecast day with
// rain probability under 30%, or -1 when no such day exists.
func daysUntilClearWeather(env *models.EnvironmentalSnapshot) int {
	for i, day := range env.Weather.Forecast {
		if day.PrecipitationProbability < 30 {
			return i
		}
	}
	return -1
}

// ruleBasedAnalysis reproduces the scoring the remote model is prompted
// for: start at 50, penalize weather and risk, reward margin, clamp.
func ruleBasedAnalysis(input models.ChantierInput, result models.ChantierResult) *models.AIAnalysis {
	score := 50.0
	env := input.Environment

	rainy := env != nil && heavyRain(env)
	critical := rainy && env.Soil.Drainage == models.DrainagePoor

	if critical {
		score -= 40
	} else if rainy {
		score -= 15
	}

	margin := result.MarginPercent
	switch {
	case margin > 25:
		score += 20
	case margin > 15:
		score += 10
	case margin < 5:
		score -= 20
	}

	score -= math.Floor(result.Risk.ScoreTotal / 5)

	if input.Type == models.BillingPerVolume && margin > 15 {
		score += 5
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	probability := "low"
	switch {
	case score >= 70:
		probability = "high"
	case score >= 50:
		probability = "medium"
	}
	if critical {
		probability = "low"
	}

	var recs []string
	if critical {
		if clear := daysUntilClearWeather(env); clear > 0 {
			recs = append(recs, fmt.Sprintf("Postpone the chantier by %d day(s): heavy rain over sealed soil risks bogging down machines", clear))
		} else {
			recs = append(recs, "Postpone the chantier: no weather improvement forecast over 7 days and the soil is sealed")
		}
		recs = append(recs, "If intervention is urgent, use anti-rut mats along the hauling corridors")
	} else if rainy {
		recs = append(recs, "Plan ground protection mats on the hauling corridors and avoid clayey zones")
	} else if env != nil && env.Soil.Drainage == models.DrainagePoor {
		recs = append(recs, "Sensitive soil: use wide-track machines and work in a dry period")
	}

	if input.TransportDistance > 150 {
		recs = append(recs, fmt.Sprintf("Transport distance %.0f km: plan chantiers of 3-5 days minimum to amortize it", input.TransportDistance))
	}
	if env != nil && env.Terrain.Slope > 15 {
		recs = append(recs, "Steep slope: equip the forwarder with a winch and plan anchor points")
	}
	if input.Dispersion == models.DispersionScattered {
		recs = append(recs, "Scattered trees: group the logs before hauling to shorten cycles")
	}
	switch {
	case margin < 15:
		recs = append(recs, "Low margin: negotiate a 10-15% price increase or refuse the chantier")
	case margin > 25:
		recs = append(recs, "Excellent margin: secure the contract with the client quickly")
	}

	var interp strings.Builder
	switch {
	case margin > 20:
		fmt.Fprintf(&interp, "Excellent margin of %.1f%%. ", margin)
	case margin > 10:
		fmt.Fprintf(&interp, "Workable margin of %.1f%%. ", margin)
	default:
		fmt.Fprintf(&interp, "Weak margin of %.1f%%. ", margin)
	}
	if critical {
		interp.WriteString("Heavy rain over sealed soil: critical bogging risk, postponing is advised. ")
	} else if rainy {
		interp.WriteString("Rain is forecast but drainage holds up; feasible with precautions. ")
	} else if result.Risk.ScoreTotal > 60 {
		fmt.Fprintf(&interp, "Elevated risk (%.0f/100). ", result.Risk.ScoreTotal)
	} else {
		fmt.Fprintf(&interp, "Moderate risk (%.0f/100). ", result.Risk.ScoreTotal)
	}
	if len(result.Risk.Factors) > 0 {
		watch := result.Risk.Factors
		if len(watch) > 2 {
			watch = watch[:2]
		}
		fmt.Fprintf(&interp, "Watch: %s.", strings.Join(watch, ", "))
	}

	return &models.AIAnalysis{
		Score:              int(score),
		Interpretation:     strings.TrimSpace(interp.String()),
		Recommendations:    recs,
		SuccessProbability: probability,
	}
}
