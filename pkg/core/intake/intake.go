// Package intake parses deal files submitted by analysts. Files are
// accepted as strict JSON, sloppy JSON (trailing commas, single quotes,
// markdown fences), or Hjson, in that order of preference.
package intake

import (
	"encoding/json"
	"fmt"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	"github.com/google/uuid"
	hjson "github.com/hjson/hjson-go/v4"

	"hcre_deal_engine/pkg/core/buyout"
	"hcre_deal_engine/pkg/core/proforma"
	"hcre_deal_engine/pkg/models"
)

// PartnerSpec describes one equity partner in a deal file.
type PartnerSpec struct {
	Name           string  `json:"name"`
	Type           string  `json:"type"` // LP or GP
	Contribution   float64 `json:"contribution"`
	OwnershipShare float64 `json:"ownership_share"`
}

// DealFile is the analyst-facing deal document.
type DealFile struct {
	ID   string `json:"id,omitempty"` // assigned on parse when absent
	Name string `json:"name"`

	Facilities []models.FacilityMetrics `json:"facilities"`
	Parameters models.DealParameters    `json:"parameters"`

	// Optional scope narrowing; empty means all structures.
	Structures []string `json:"structures,omitempty"`

	Partners []PartnerSpec `json:"partners,omitempty"`

	// Optional operator pro forma; runs when present.
	ProForma *proforma.Assumptions `json:"pro_forma,omitempty"`

	// Optional lease buyout proposal; runs when the facilities carry
	// in-place leases.
	Buyout *buyout.Terms `json:"buyout,omitempty"`
}

// ParseDeal reads a deal file with progressively more lenient parsers:
// strict JSON first, then repaired JSON, then Hjson. The returned deal
// always carries an ID and has passed basic validation.
func ParseDeal(data []byte) (*DealFile, error) {
	deal, err := smartParse(data)
	if err != nil {
		return nil, err
	}
	if err := validate(deal); err != nil {
		return nil, err
	}
	if deal.ID == "" {
		deal.ID = uuid.NewString()
	}
	return deal, nil
}

func smartParse(data []byte) (*DealFile, error) {
	var deal DealFile
	if err := json.Unmarshal(data, &deal); err == nil {
		return &deal, nil
	}

	if repaired, err := jsonrepair.RepairJSON(string(data)); err == nil {
		deal = DealFile{}
		if err := json.Unmarshal([]byte(repaired), &deal); err == nil {
			return &deal, nil
		}
	}

	// Hjson last: it accepts almost anything, so it must not shadow a
	// repairable JSON document.
	deal = DealFile{}
	if err := hjson.Unmarshal(data, &deal); err == nil && len(deal.Facilities) > 0 {
		return &deal, nil
	}

	return nil, fmt.Errorf("deal file is not valid JSON or Hjson")
}

func validate(deal *DealFile) error {
	if len(deal.Facilities) == 0 {
		return models.InvalidParameterf("deal has no facilities")
	}
	for i, f := range deal.Facilities {
		if f.Name == "" {
			return models.InvalidParameterf("facility %d has no name", i)
		}
		if f.NOI == 0 && f.EBITDAR == 0 {
			return models.InvalidParameterf("facility %q has neither NOI nor EBITDAR", f.Name)
		}
		if f.Occupancy < 0 || f.Occupancy > 1 {
			return models.InvalidParameterf("facility %q occupancy %.2f outside [0,1]", f.Name, f.Occupancy)
		}
	}
	if deal.Buyout != nil {
		if deal.Buyout.BuyoutAmount <= 0 {
			return models.InvalidParameterf("buyout amount must be positive, got %.2f", deal.Buyout.BuyoutAmount)
		}
		leased := false
		for _, f := range deal.Facilities {
			if f.CurrentRent > 0 {
				leased = true
				break
			}
		}
		if !leased {
			return models.InvalidParameterf("buyout requested but no facility carries a lease")
		}
	}
	if len(deal.Partners) > 0 {
		total := 0.0
		for _, p := range deal.Partners {
			if p.Type != "LP" && p.Type != "GP" {
				return models.InvalidParameterf("partner %q has unknown type %q", p.Name, p.Type)
			}
			total += p.OwnershipShare
		}
		if total < 0.999 || total > 1.001 {
			return models.InvalidParameterf("partner ownership shares sum to %.4f, want 1.0", total)
		}
	}
	return nil
}
