package earnings

// =============================================================================
// SERVICE MATCHER
// =============================================================================

// ServiceResult is the priced extra services of one shift.
type ServiceResult struct {
	Net   Money
	Gross Money
	Lines []ServiceLine
}

// MatchServices selects the catalog services that apply to a shift and prices
// each at its own tax rate.
//
// A service applies when it was attached to the shift explicitly, or when its
// rule is on_mention and its name matches a mentioned service. Services with
// any other rule are never applied from mentions alone.
func MatchServices(mentioned []string, attached []ServiceID, catalog []Service) (ServiceResult, error) {
	var res ServiceResult

	explicit := make(map[ServiceID]bool, len(attached))
	for _, id := range attached {
		explicit[id] = true
	}

	for _, svc := range catalog {
		applied := explicit[svc.ID] ||
			(svc.Rule == RuleOnMention && mentionMatches(svc.Name, mentioned))
		if !applied {
			continue
		}

		gross, err := GrossFromNet(svc.CostNet, svc.TaxPercent)
		if err != nil {
			return ServiceResult{}, err
		}
		res.Net += svc.CostNet
		res.Gross += gross
		res.Lines = append(res.Lines, ServiceLine{
			Name:       svc.Name,
			CostNet:    svc.CostNet,
			CostGross:  gross,
			TaxPercent: svc.TaxPercent,
		})
	}
	return res, nil
}
