package scoring

import "sort"

// categoryDef is the fixed display name and default weight of a category.
type categoryDef struct {
	Name   string
	Weight int
}

// CategoryOrder is the fixed report order of the six scoring categories.
var CategoryOrder = []string{"docs", "ci", "security", "quality", "maintenance", "governance"}

// Default category weights. They sum to 100.
var categoryDefaults = map[string]categoryDef{
	"docs":        {Name: "Docs", Weight: 15},
	"ci":          {Name: "CI", Weight: 15},
	"security":    {Name: "Security", Weight: 25},
	"quality":     {Name: "Quality", Weight: 20},
	"maintenance": {Name: "Maintenance", Weight: 15},
	"governance":  {Name: "Governance", Weight: 10},
}

// CategoryName returns the display name for a category id.
func CategoryName(id string) string {
	if def, ok := categoryDefaults[id]; ok {
		return def.Name
	}
	return id
}

// ResolveWeights merges positive overrides for known category ids into the
// defaults and renormalizes so the weights sum to exactly 100. Overrides for
// unknown categories or with non-positive weights are ignored; the policy
// layer has already reported them.
func ResolveWeights(overrides map[string]int) map[string]categoryDef {
	merged := make(map[string]categoryDef, len(categoryDefaults))
	for id, def := range categoryDefaults {
		merged[id] = def
	}
	for id, weight := range overrides {
		def, ok := merged[id]
		if !ok || weight <= 0 {
			continue
		}
		def.Weight = weight
		merged[id] = def
	}

	total := 0
	for _, def := range merged {
		total += def.Weight
	}
	if total == 100 || total <= 0 {
		return merged
	}

	// Largest-remainder normalization: floor each proportional share of 100,
	// then hand the leftover points to the largest fractional remainders.
	// Ties go to the larger original weight, then to the lower category id.
	type share struct {
		id       string
		original int
		floor    int
		frac     float64
	}
	shares := make([]share, 0, len(merged))
	floorSum := 0
	for id, def := range merged {
		exact := float64(def.Weight) / float64(total) * 100.0
		fl := int(exact)
		shares = append(shares, share{id: id, original: def.Weight, floor: fl, frac: exact - float64(fl)})
		floorSum += fl
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].frac != shares[j].frac {
			return shares[i].frac > shares[j].frac
		}
		if shares[i].original != shares[j].original {
			return shares[i].original > shares[j].original
		}
		return shares[i].id < shares[j].id
	})
	remainder := 100 - floorSum
	for i := range shares {
		if remainder <= 0 {
			break
		}
		shares[i].floor++
		remainder--
	}

	for _, s := range shares {
		def := merged[s.id]
		def.Weight = s.floor
		merged[s.id] = def
	}
	return merged
}
