/*
Package factory provides JSON to Go profession conversion.

PURPOSE:
  Converts JSON profession definitions into earnings.Profession values.
  Projects get their pay rules from JSON (admin UI, API, presets) and the
  factory fills defaults, derives the gross base pay and validates the
  result before it reaches storage.

JSON SCHEMA:
  {
    "id": "prof-operator",
    "position": "Camera operator",
    "base_rate_net": 10000,
    "tax_percentage": 13,
    "base_overtime_rate": 500,
    "daily_allowance": 1000,
    "base_shift_hours": 12,
    "overtime_threshold": 0.25,
    "overtime_rounding": 0.5,
    "progressive_rates": [
      {"hours_from": 0, "hours_to": 2, "rate": 500, "order_num": 1},
      {"hours_from": 2, "hours_to": null, "rate": 600, "order_num": 2}
    ],
    "meal_types": [
      {"name": "lunch", "bonus_hours": 1.0, "keywords": ["lunch"]}
    ],
    "additional_services": [
      {"name": "camera car", "cost": 500, "tax_percentage": 15,
       "application_rule": "on_mention", "keywords": ["car"]}
    ]
  }

DEFAULTS:
  - base_shift_hours: 12
  - base_rate_gross:  round(base_rate_net / (1 - tax/100)) when omitted
  - meal bonus_hours: 1.0
  - service tax_percentage: the profession's tax when omitted
  - service application_rule: on_mention
  - missing catalog IDs: generated UUIDs

USAGE:
  f := factory.NewProfessionFactory()
  prof, err := f.ParseProfession("proj-1", jsonString)

  // From a preset
  prof, err := f.ParseProfession("proj-1", factory.OperatorJSON())

SEE ALSO:
  - earnings/types.go: Profession type definition
  - earnings/validate.go: Validation rules
  - factory/presets.go: Built-in profession configurations
*/
package factory

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/warp/shift-earnings/earnings"
)

// DefaultBaseShiftHours applies when a definition omits base_shift_hours.
const DefaultBaseShiftHours = 12.0

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// ProfessionJSON is the JSON representation of a profession.
type ProfessionJSON struct {
	ID                 string        `json:"id,omitempty"`
	Position           string        `json:"position"`
	BaseRateNet        int64         `json:"base_rate_net"`
	BaseRateGross      *int64        `json:"base_rate_gross,omitempty"`
	TaxPercentage      float64       `json:"tax_percentage"`
	BaseOvertimeRate   int64         `json:"base_overtime_rate"`
	DailyAllowance     int64         `json:"daily_allowance,omitempty"`
	BaseShiftHours     float64       `json:"base_shift_hours,omitempty"`
	OvertimeThreshold  float64       `json:"overtime_threshold,omitempty"`
	OvertimeRounding   float64       `json:"overtime_rounding,omitempty"`
	ProgressiveRates   []RateJSON    `json:"progressive_rates,omitempty"`
	MealTypes          []MealJSON    `json:"meal_types,omitempty"`
	AdditionalServices []ServiceJSON `json:"additional_services,omitempty"`
}

// RateJSON represents one overtime bracket. A null hours_to is open-ended.
type RateJSON struct {
	HoursFrom float64  `json:"hours_from"`
	HoursTo   *float64 `json:"hours_to"`
	Rate      int64    `json:"rate"`
	OrderNum  int      `json:"order_num"`
}

// MealJSON represents a meal type.
type MealJSON struct {
	ID         string   `json:"id,omitempty"`
	Name       string   `json:"name"`
	BonusHours *float64 `json:"bonus_hours,omitempty"`
	Keywords   []string `json:"keywords,omitempty"`
}

// ServiceJSON represents an additional service.
type ServiceJSON struct {
	ID              string   `json:"id,omitempty"`
	Name            string   `json:"name"`
	Cost            int64    `json:"cost"`
	TaxPercentage   *float64 `json:"tax_percentage,omitempty"`
	ApplicationRule string   `json:"application_rule,omitempty"`
	Keywords        []string `json:"keywords,omitempty"`
}

// =============================================================================
// PROFESSION FACTORY
// =============================================================================

// ProfessionFactory converts JSON professions to earnings.Profession.
type ProfessionFactory struct {
	// NewID generates catalog IDs that the definition leaves empty.
	NewID func() string
}

// NewProfessionFactory creates a new profession factory.
func NewProfessionFactory() *ProfessionFactory {
	return &ProfessionFactory{NewID: uuid.NewString}
}

// ParseProfession parses a JSON string into a Profession bound to projectID.
func (f *ProfessionFactory) ParseProfession(projectID earnings.ProjectID, jsonStr string) (*earnings.Profession, error) {
	var pj ProfessionJSON
	if err := json.Unmarshal([]byte(jsonStr), &pj); err != nil {
		return nil, fmt.Errorf("failed to parse profession JSON: %w", err)
	}
	return f.FromJSON(projectID, pj)
}

// FromJSON converts ProfessionJSON to a validated earnings.Profession.
func (f *ProfessionFactory) FromJSON(projectID earnings.ProjectID, pj ProfessionJSON) (*earnings.Profession, error) {
	if strings.TrimSpace(pj.Position) == "" {
		return nil, &earnings.ConfigError{Field: "position", Reason: "is required"}
	}

	prof := &earnings.Profession{
		ID:                earnings.ProfessionID(pj.ID),
		ProjectID:         projectID,
		Name:              pj.Position,
		BaseShiftHours:    pj.BaseShiftHours,
		BasePayNet:        earnings.Money(pj.BaseRateNet),
		TaxPercent:        pj.TaxPercentage,
		BaseOvertimeRate:  earnings.Money(pj.BaseOvertimeRate),
		PerDiem:           earnings.Money(pj.DailyAllowance),
		OvertimeThreshold: pj.OvertimeThreshold,
		OvertimeRounding:  pj.OvertimeRounding,
	}
	if prof.ID == "" {
		prof.ID = earnings.ProfessionID("prof-" + string(projectID))
	}
	if prof.BaseShiftHours == 0 {
		prof.BaseShiftHours = DefaultBaseShiftHours
	}

	// Gross base pay is derived once here and stored with the profession.
	if pj.BaseRateGross != nil {
		prof.BasePayGross = earnings.Money(*pj.BaseRateGross)
	} else {
		gross, err := earnings.GrossFromNet(prof.BasePayNet, prof.TaxPercent)
		if err != nil {
			return nil, err
		}
		prof.BasePayGross = gross
	}

	for _, rj := range pj.ProgressiveRates {
		prof.Brackets = append(prof.Brackets, earnings.Bracket{
			Order:     rj.OrderNum,
			HoursFrom: rj.HoursFrom,
			HoursTo:   rj.HoursTo,
			RateNet:   earnings.Money(rj.Rate),
		})
	}

	for _, mj := range pj.MealTypes {
		prof.Meals = append(prof.Meals, f.parseMeal(mj))
	}

	for i, sj := range pj.AdditionalServices {
		svc, err := f.parseService(sj, prof.TaxPercent)
		if err != nil {
			return nil, fmt.Errorf("additional_services[%d]: %w", i, err)
		}
		prof.Services = append(prof.Services, svc)
	}

	if err := prof.Validate(); err != nil {
		return nil, err
	}
	return prof, nil
}

// ToJSON converts a Profession back to its JSON form. The gross base pay is
// always written out explicitly.
func (f *ProfessionFactory) ToJSON(prof *earnings.Profession) ProfessionJSON {
	gross := int64(prof.BasePayGross)
	pj := ProfessionJSON{
		ID:                string(prof.ID),
		Position:          prof.Name,
		BaseRateNet:       int64(prof.BasePayNet),
		BaseRateGross:     &gross,
		TaxPercentage:     prof.TaxPercent,
		BaseOvertimeRate:  int64(prof.BaseOvertimeRate),
		DailyAllowance:    int64(prof.PerDiem),
		BaseShiftHours:    prof.BaseShiftHours,
		OvertimeThreshold: prof.OvertimeThreshold,
		OvertimeRounding:  prof.OvertimeRounding,
	}

	for _, b := range prof.Brackets {
		pj.ProgressiveRates = append(pj.ProgressiveRates, RateJSON{
			HoursFrom: b.HoursFrom,
			HoursTo:   b.HoursTo,
			Rate:      int64(b.RateNet),
			OrderNum:  b.Order,
		})
	}
	for _, m := range prof.Meals {
		bonus := m.BonusHours
		pj.MealTypes = append(pj.MealTypes, MealJSON{
			ID:         string(m.ID),
			Name:       m.Name,
			BonusHours: &bonus,
			Keywords:   m.Keywords,
		})
	}
	for _, s := range prof.Services {
		tax := s.TaxPercent
		pj.AdditionalServices = append(pj.AdditionalServices, ServiceJSON{
			ID:              string(s.ID),
			Name:            s.Name,
			Cost:            int64(s.CostNet),
			TaxPercentage:   &tax,
			ApplicationRule: string(s.Rule),
			Keywords:        s.Keywords,
		})
	}
	return pj
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func (f *ProfessionFactory) parseMeal(mj MealJSON) earnings.MealType {
	m := earnings.MealType{
		ID:         earnings.MealTypeID(mj.ID),
		Name:       mj.Name,
		BonusHours: earnings.DefaultMealBonusHours,
		Keywords:   mj.Keywords,
	}
	if m.ID == "" {
		m.ID = earnings.MealTypeID(f.NewID())
	}
	if mj.BonusHours != nil {
		m.BonusHours = *mj.BonusHours
	}
	return m
}

func (f *ProfessionFactory) parseService(sj ServiceJSON, professionTax float64) (earnings.Service, error) {
	rule, err := parseRule(sj.ApplicationRule)
	if err != nil {
		return earnings.Service{}, err
	}

	svc := earnings.Service{
		ID:         earnings.ServiceID(sj.ID),
		Name:       sj.Name,
		CostNet:    earnings.Money(sj.Cost),
		TaxPercent: professionTax,
		Rule:       rule,
		Keywords:   sj.Keywords,
	}
	if svc.ID == "" {
		svc.ID = earnings.ServiceID(f.NewID())
	}
	if sj.TaxPercentage != nil {
		svc.TaxPercent = *sj.TaxPercentage
	}
	return svc, nil
}

func parseRule(s string) (earnings.ServiceRule, error) {
	switch earnings.ServiceRule(s) {
	case "", earnings.RuleOnMention:
		return earnings.RuleOnMention, nil
	case earnings.RuleAlways:
		return earnings.RuleAlways, nil
	default:
		return "", &earnings.ConfigError{Field: "application_rule", Reason: fmt.Sprintf("unknown rule %q", s)}
	}
}
