package elements

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// ImpactType selects the impact category rendered by a single impact element.
type ImpactType string

const (
	ImpactCO2    ImpactType = "co2"
	ImpactFossil ImpactType = "fossil"
	ImpactWaste  ImpactType = "waste"
	ImpactEnergy ImpactType = "energy"
)

// ImpactTypes lists every impact category supported by the hosted runtime.
func ImpactTypes() []ImpactType {
	return []ImpactType{ImpactCO2, ImpactFossil, ImpactWaste, ImpactEnergy}
}

// Valid reports whether the impact type is known to the runtime.
func (t ImpactType) Valid() bool {
	switch t {
	case ImpactCO2, ImpactFossil, ImpactWaste, ImpactEnergy:
		return true
	default:
		return false
	}
}

// ParseImpactType normalizes user input into an ImpactType.
func ParseImpactType(value string) (ImpactType, error) {
	impact := ImpactType(strings.ToLower(strings.TrimSpace(value)))
	if !impact.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidImpact, value)
	}
	return impact, nil
}

// IdentifierType describes how a portfolio entry is identified.
type IdentifierType string

const (
	IdentifierISIN IdentifierType = "isin"
	IdentifierUID  IdentifierType = "uid"
	IdentifierUUID IdentifierType = "uuid"
)

// PortfolioQuery is the ordered list of weighted identifiers handed to the runtime.
type PortfolioQuery struct {
	IDs []WeightedIdentifier `json:"ids" yaml:"ids"`
}

// WeightedIdentifier is a single portfolio entry. Exactly one of Weight or
// Allocation carries the entry's contribution.
type WeightedIdentifier struct {
	Type       IdentifierType `json:"type" yaml:"type"`
	ID         string         `json:"id" yaml:"id"`
	Weight     *float64       `json:"weight,omitempty" yaml:"weight,omitempty"`
	Allocation *Allocation    `json:"allocation,omitempty" yaml:"allocation,omitempty"`
}

// Key returns the (type, id) pair that must be unique within a query.
func (w WeightedIdentifier) Key() string {
	return string(w.Type) + ":" + w.ID
}

// Allocation is a monetary contribution to the portfolio.
type Allocation struct {
	Amount   decimal.Decimal
	Currency string
}

type allocationJSON struct {
	Amount   json.Number `json:"amount"`
	Currency string      `json:"currency"`
}

// MarshalJSON emits the amount as a JSON number, as the runtime expects.
func (a Allocation) MarshalJSON() ([]byte, error) {
	return json.Marshal(allocationJSON{
		Amount:   json.Number(a.Amount.String()),
		Currency: a.Currency,
	})
}

// UnmarshalJSON accepts the amount as a number or a quoted decimal. A
// missing or null amount is rejected.
func (a *Allocation) UnmarshalJSON(data []byte) error {
	var raw struct {
		Amount   *decimal.Decimal `json:"amount"`
		Currency string           `json:"currency"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Amount == nil {
		return fmt.Errorf("%w: allocation amount is required", ErrInvalidPortfolio)
	}
	a.Amount = *raw.Amount
	a.Currency = raw.Currency
	return nil
}

// UnmarshalYAML decodes allocations from portfolio files.
func (a *Allocation) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Amount   string `yaml:"amount"`
		Currency string `yaml:"currency"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	if strings.TrimSpace(raw.Amount) == "" {
		return fmt.Errorf("%w: allocation amount is required", ErrInvalidPortfolio)
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(raw.Amount))
	if err != nil {
		return fmt.Errorf("elements: parse allocation amount %q: %w", raw.Amount, err)
	}
	a.Amount = amount
	a.Currency = raw.Currency
	return nil
}

// Clone returns a deep copy so callers cannot mutate a mounted portfolio.
func (q PortfolioQuery) Clone() PortfolioQuery {
	out := PortfolioQuery{IDs: make([]WeightedIdentifier, len(q.IDs))}
	for i, entry := range q.IDs {
		cloned := entry
		if entry.Weight != nil {
			w := *entry.Weight
			cloned.Weight = &w
		}
		if entry.Allocation != nil {
			alloc := *entry.Allocation
			cloned.Allocation = &alloc
		}
		out.IDs[i] = cloned
	}
	return out
}

// Hash returns a structural fingerprint of the query.
func (q PortfolioQuery) Hash() string {
	return contentHash(q)
}

// Contribution returns a float contribution for an entry regardless of encoding.
func (w WeightedIdentifier) Contribution() float64 {
	switch {
	case w.Allocation != nil:
		return w.Allocation.Amount.InexactFloat64()
	case w.Weight != nil:
		return *w.Weight
	default:
		return 0
	}
}

// WidgetOptions mirrors the hosted runtime's option bag. The runtime owns
// interpretation; only shape is checked locally.
type WidgetOptions struct {
	Locale              string          `json:"locale,omitempty" yaml:"locale,omitempty"`
	CSSURLs             []string        `json:"cssUrls,omitempty" yaml:"css_urls,omitempty"`
	PreloadImages       []string        `json:"preloadImages,omitempty" yaml:"preload_images,omitempty"`
	PreloadStyles       []string        `json:"preloadStyles,omitempty" yaml:"preload_styles,omitempty"`
	Pages               []string        `json:"pages,omitempty" yaml:"pages,omitempty"`
	NoResetOnLeave      bool            `json:"noResetOnLeave,omitempty" yaml:"no_reset_on_leave,omitempty"`
	NextIcon            *string         `json:"nextIcon,omitempty" yaml:"next_icon,omitempty"`
	DoneIcon            *string         `json:"doneIcon,omitempty" yaml:"done_icon,omitempty"`
	InfoIcon            *string         `json:"infoIcon,omitempty" yaml:"info_icon,omitempty"`
	ProgressIcon        *string         `json:"progressIcon,omitempty" yaml:"progress_icon,omitempty"`
	ProgressCurrentIcon *string         `json:"progressCurrentIcon,omitempty" yaml:"progress_current_icon,omitempty"`
	Tooltip             *TooltipOptions `json:"tooltip,omitempty" yaml:"tooltip,omitempty"`
}

// TooltipOptions configures the "read more" tooltip.
type TooltipOptions struct {
	ReadMoreLinks      ReadMoreLinks `json:"readMoreLinks" yaml:"read_more_links"`
	ReadMoreText       string        `json:"readMoreText,omitempty" yaml:"read_more_text,omitempty"`
	ReadMoreOpenTarget string        `json:"readMoreOpenTarget,omitempty" yaml:"read_more_open_target,omitempty"`
}

// ReadMoreLinks is either one link for every page or a link per page id.
type ReadMoreLinks struct {
	All     string
	PerPage map[string]string
}

// MarshalJSON encodes the per-page map when present, otherwise the shared link.
func (l ReadMoreLinks) MarshalJSON() ([]byte, error) {
	if len(l.PerPage) > 0 {
		return json.Marshal(l.PerPage)
	}
	return json.Marshal(l.All)
}

// UnmarshalJSON accepts a string or an object of page ids to links.
func (l *ReadMoreLinks) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		l.All = single
		l.PerPage = nil
		return nil
	}
	var perPage map[string]string
	if err := json.Unmarshal(data, &perPage); err != nil {
		return fmt.Errorf("elements: readMoreLinks must be a string or an object: %w", err)
	}
	l.All = ""
	l.PerPage = perPage
	return nil
}

// UnmarshalYAML mirrors UnmarshalJSON for config files.
func (l *ReadMoreLinks) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		l.All = node.Value
		l.PerPage = nil
		return nil
	case yaml.MappingNode:
		var perPage map[string]string
		if err := node.Decode(&perPage); err != nil {
			return err
		}
		l.All = ""
		l.PerPage = perPage
		return nil
	default:
		return fmt.Errorf("elements: read_more_links must be a string or a mapping")
	}
}

func contentHash(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "invalid"
	}
	sum := sha1.Sum(b)
	return hex.EncodeToString(sum[:])
}
