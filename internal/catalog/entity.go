package catalog

// EntityKind is a taxonomy collection served by the backend at /{kind}
type EntityKind string

const (
	KindBrands     EntityKind = "brands"
	KindModels     EntityKind = "models"
	KindColors     EntityKind = "colors"
	KindStorages   EntityKind = "storages"
	KindSims       EntityKind = "sims"
	KindConditions EntityKind = "device-conditions"
	KindWarranties EntityKind = "warranties"
	KindFlags      EntityKind = "flags"
)

// EntityKinds lists every taxonomy collection
var EntityKinds = []EntityKind{
	KindBrands, KindModels, KindColors, KindStorages,
	KindSims, KindConditions, KindWarranties, KindFlags,
}

// ParseEntityKind validates a kind coming from a URL
func ParseEntityKind(s string) (EntityKind, bool) {
	for _, k := range EntityKinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// Entity is a taxonomy record (brand, model, color, ...)
type Entity struct {
	ID       string `json:"_id"`
	Name     string `json:"name,omitempty"`
	Type     string `json:"type,omitempty"`
	Duration string `json:"duration,omitempty"`
	IsActive bool   `json:"isActive"`
}
