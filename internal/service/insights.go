package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	jmespath "github.com/jmespath-community/go-jmespath"
	"golang.org/x/sync/errgroup"

	"github.com/salinaworks/salina-go/internal/apiclient"
)

// JMESPathEvaluator abstracts JMESPath operations for testability.
type JMESPathEvaluator interface {
	Validate(expr string) error
	Evaluate(expr string, data any) (any, error)
}

// jmespathLibEvaluator implements JMESPathEvaluator using go-jmespath.
type jmespathLibEvaluator struct{}

func (j jmespathLibEvaluator) Validate(expr string) error {
	if strings.TrimSpace(expr) == "" {
		return nil
	}
	_, err := jmespath.Compile(expr)
	return err
}

func (j jmespathLibEvaluator) Evaluate(expr string, data any) (any, error) {
	return jmespath.Search(expr, data)
}

// ModelInfo describes the waste-prediction model currently served.
type ModelInfo struct {
	Version   string
	Targets   []string
	TrainedAt string
}

// WasteForecast is a single prediction from the waste model.
type WasteForecast struct {
	WasteKg     float64
	Composition map[string]float64
}

// PredictionInput carries the site conditions a forecast is computed from.
type PredictionInput struct {
	Production  float64 `json:"production"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Rainfall    float64 `json:"rainfall"`
}

// OptimizationRun is one entry of the optimizer's run history.
type OptimizationRun struct {
	ID            string
	Objective     string
	PredictedKg   float64
	BestProdLevel float64
}

// FederatedStatus reports whether a site's model participates in the
// federated aggregation round.
type FederatedStatus struct {
	ClientID     string
	Round        int
	ModelPresent bool
}

// TwinConditions are the site conditions a single-month digital-twin
// simulation runs from. Field names follow the twin backend's input schema.
type TwinConditions struct {
	ProductionKg float64 `json:"production_volume_kg"`
	CapacityKg   float64 `json:"production_capacity_kg,omitempty"`
	RainfallMm   float64 `json:"rain_sum_mm"`
	TemperatureC float64 `json:"temperature_mean_c"`
	HumidityPct  float64 `json:"humidity_mean_percent"`
	WindSpeedKmh float64 `json:"wind_speed_mean_kmh"`
}

// TwinSimulation is one simulated month of the digital twin's waste
// composition and recovery-potential output.
type TwinSimulation struct {
	TotalWasteKg       float64
	LimestoneKg        float64
	GypsumKg           float64
	IndustrialSaltKg   float64
	BitternLiters      float64
	EpsomSaltKg        float64
	PotashKg           float64
	MagnesiumOilLiters float64
}

// DashboardSummary aggregates the collaborator readouts shown on the
// inspection dashboard.
type DashboardSummary struct {
	Model     ModelInfo
	History   []OptimizationRun
	Federated FederatedStatus
}

// InsightsAPIOptions groups dependencies for InsightsAPI.
type InsightsAPIOptions struct {
	Client    *apiclient.Client
	Evaluator JMESPathEvaluator // Optional: defaults to the library evaluator
	Logger    *slog.Logger
}

// InsightsAPI is a read client for the prediction, digital-twin,
// optimization, and federated-learning backends. Their payloads are
// loosely shaped JSON;
// fields are projected out with JMESPath rather than rigid struct tags so
// a collaborator adding fields never breaks the dashboard.
type InsightsAPI struct {
	client *apiclient.Client
	jems   JMESPathEvaluator
	logger *slog.Logger
}

// NewInsightsAPI constructs the insights client.
func NewInsightsAPI(opts InsightsAPIOptions) *InsightsAPI {
	jems := opts.Evaluator
	if jems == nil {
		jems = jmespathLibEvaluator{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &InsightsAPI{client: opts.Client, jems: jems, logger: logger}
}

// ModelInfo reads the served waste-prediction model's metadata.
func (s *InsightsAPI) ModelInfo(ctx context.Context) (ModelInfo, error) {
	raw, err := apiclient.Do[map[string]any](ctx, s.client, http.MethodGet, "/model/info", nil)
	if err != nil {
		return ModelInfo{}, err
	}

	info := ModelInfo{
		Version:   s.projectString(raw, "model.version || version"),
		TrainedAt: s.projectString(raw, "model.trained_at || trained_at"),
	}
	if targets, err := s.jems.Evaluate("model.targets || targets", raw); err == nil {
		info.Targets = toStrings(targets)
	}
	return info, nil
}

// PredictWaste requests a forecast for the given site conditions.
func (s *InsightsAPI) PredictWaste(ctx context.Context, in PredictionInput) (WasteForecast, error) {
	raw, err := apiclient.Do[map[string]any](ctx, s.client, http.MethodPost, "/predict", in)
	if err != nil {
		return WasteForecast{}, err
	}

	forecast := WasteForecast{
		WasteKg:     s.projectFloat(raw, "prediction.waste_kg || waste_kg"),
		Composition: map[string]float64{},
	}
	comp, err := s.jems.Evaluate("prediction.composition || composition", raw)
	if err == nil {
		if m, ok := comp.(map[string]any); ok {
			for k, v := range m {
				if f, ok := toFloat(v); ok {
					forecast.Composition[k] = f
				}
			}
		}
	}
	return forecast, nil
}

// OptimizationHistory lists the optimizer's past runs, newest first.
func (s *InsightsAPI) OptimizationHistory(ctx context.Context) ([]OptimizationRun, error) {
	raw, err := apiclient.Do[map[string]any](ctx, s.client, http.MethodGet, "/optimize/history", nil)
	if err != nil {
		return nil, err
	}

	entries, err := s.jems.Evaluate("history || results", raw)
	if err != nil {
		return nil, fmt.Errorf("project optimization history: %w", err)
	}
	list, ok := entries.([]any)
	if !ok {
		return nil, nil
	}

	runs := make([]OptimizationRun, 0, len(list))
	for _, e := range list {
		m, ok := e.(map[string]any)
		if !ok {
			continue
		}
		run := OptimizationRun{
			ID:        s.projectString(m, "id || run_id"),
			Objective: s.projectString(m, "objective"),
		}
		run.PredictedKg = s.projectFloat(m, "predicted_waste_kg || predicted_waste")
		run.BestProdLevel = s.projectFloat(m, "best.production || production")
		runs = append(runs, run)
	}
	return runs, nil
}

// FederatedStatus reads a site's federated-learning participation state.
func (s *InsightsAPI) FederatedStatus(ctx context.Context) (FederatedStatus, error) {
	raw, err := apiclient.Do[map[string]any](ctx, s.client, http.MethodGet, "/status", nil)
	if err != nil {
		return FederatedStatus{}, err
	}

	status := FederatedStatus{
		ClientID: s.projectString(raw, "client_id"),
	}
	status.Round = int(s.projectFloat(raw, "round || current_round"))
	if v, err := s.jems.Evaluate("model_present || has_model", raw); err == nil {
		if b, ok := v.(bool); ok {
			status.ModelPresent = b
		}
	}
	return status, nil
}

// TwinState simulates a single month of waste composition on the digital
// twin for the given site conditions.
func (s *InsightsAPI) TwinState(ctx context.Context, in TwinConditions) (TwinSimulation, error) {
	raw, err := apiclient.Do[map[string]any](ctx, s.client, http.MethodPost, "/predict/single", in)
	if err != nil {
		return TwinSimulation{}, err
	}
	return s.twinSimulation(raw), nil
}

// SimulateRange replays the calibrated digital twin over a historical
// window. Dates are YYYY-MM-DD; a window with no data yields an empty
// slice, not an error.
func (s *InsightsAPI) SimulateRange(ctx context.Context, startDate, endDate string) ([]TwinSimulation, error) {
	body := map[string]string{"start_date": startDate, "end_date": endDate}
	raw, err := apiclient.Do[[]map[string]any](ctx, s.client, http.MethodPost, "/simulate/range", body)
	if err != nil {
		return nil, err
	}

	sims := make([]TwinSimulation, 0, len(raw))
	for _, entry := range raw {
		sims = append(sims, s.twinSimulation(entry))
	}
	return sims, nil
}

// twinSimulation projects the twin backend's capitalized field names, with
// snake_case fallbacks for older deployments.
func (s *InsightsAPI) twinSimulation(raw map[string]any) TwinSimulation {
	return TwinSimulation{
		TotalWasteKg:       s.projectFloat(raw, "Total_Waste_kg || total_waste_kg"),
		LimestoneKg:        s.projectFloat(raw, "Solid_Waste_Limestone_kg || limestone_kg"),
		GypsumKg:           s.projectFloat(raw, "Solid_Waste_Gypsum_kg || gypsum_kg"),
		IndustrialSaltKg:   s.projectFloat(raw, "Solid_Waste_Industrial_Salt_kg || industrial_salt_kg"),
		BitternLiters:      s.projectFloat(raw, "Liquid_Waste_Bittern_Liters || bittern_liters"),
		EpsomSaltKg:        s.projectFloat(raw, "Potential_Epsom_Salt_kg || epsom_salt_kg"),
		PotashKg:           s.projectFloat(raw, "Potential_Potash_kg || potash_kg"),
		MagnesiumOilLiters: s.projectFloat(raw, "Potential_Magnesium_Oil_Liters || magnesium_oil_liters"),
	}
}

// DashboardSummary fans out to the collaborator backends concurrently and
// assembles the inspection-dashboard readout. The first failure cancels
// the remaining reads.
func (s *InsightsAPI) DashboardSummary(ctx context.Context) (DashboardSummary, error) {
	var summary DashboardSummary

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		info, err := s.ModelInfo(ctx)
		if err != nil {
			return err
		}
		summary.Model = info
		return nil
	})
	g.Go(func() error {
		history, err := s.OptimizationHistory(ctx)
		if err != nil {
			return err
		}
		summary.History = history
		return nil
	})
	g.Go(func() error {
		fed, err := s.FederatedStatus(ctx)
		if err != nil {
			return err
		}
		summary.Federated = fed
		return nil
	})

	if err := g.Wait(); err != nil {
		return DashboardSummary{}, err
	}

	s.logger.DebugContext(ctx, "dashboard summary assembled",
		"model_version", summary.Model.Version,
		"optimization_runs", len(summary.History),
		"federated_round", summary.Federated.Round)
	return summary, nil
}

func (s *InsightsAPI) projectString(data any, expr string) string {
	v, err := s.jems.Evaluate(expr, data)
	if err != nil {
		return ""
	}
	str, _ := v.(string)
	return str
}

func (s *InsightsAPI) projectFloat(data any, expr string) float64 {
	v, err := s.jems.Evaluate(expr, data)
	if err != nil {
		return 0
	}
	f, _ := toFloat(v)
	return f
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

func toStrings(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
