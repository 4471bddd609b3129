package domain

// Section is one of the six fixed checklist groupings that partition
// all audit items in a run. Downstream consumers rely on every completed
// audit containing exactly these six keys.
type Section string

const (
	SectionOnPage      Section = "on_page"
	SectionStructure   Section = "structure_navigation"
	SectionContact     Section = "contact_page"
	SectionService     Section = "service_pages"
	SectionLocation    Section = "location_pages"
	SectionServiceArea Section = "service_area_pages"
)

// AllSections returns the six fixed sections in display order.
func AllSections() []Section {
	return []Section{
		SectionOnPage,
		SectionStructure,
		SectionContact,
		SectionService,
		SectionLocation,
		SectionServiceArea,
	}
}

// ItemStatus is the evaluated severity of a checklist item.
type ItemStatus string

const (
	// ItemStatusPriorityOFI marks a deficiency satisfying at least two
	// of the four weighted escalation criteria.
	ItemStatusPriorityOFI ItemStatus = "Priority OFI"
	// ItemStatusOFI marks an ordinary opportunity for improvement.
	ItemStatusOFI ItemStatus = "OFI"
	// ItemStatusOK marks a satisfied item.
	ItemStatusOK ItemStatus = "OK"
	// ItemStatusNA marks an item with no applicable pages.
	ItemStatusNA ItemStatus = "N/A"
)

// ValidItemStatus reports whether s is a recognized item status.
func ValidItemStatus(s ItemStatus) bool {
	switch s {
	case ItemStatusPriorityOFI, ItemStatusOFI, ItemStatusOK, ItemStatusNA:
		return true
	}
	return false
}

// Importance is the fixed weight of a checklist question. It is assigned
// at question definition time, never computed.
type Importance string

const (
	ImportanceHigh   Importance = "High"
	ImportanceMedium Importance = "Medium"
	ImportanceLow    Importance = "Low"
)

// AuditItem is one checklist question evaluated against the crawled pages
// of a section.
type AuditItem struct {
	// Name is the stable question identifier.
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Importance  Importance `json:"importance"`
	Status      ItemStatus `json:"status"`
	// Notes carries free operator text plus the classifier's appended
	// display block. Nothing parses Notes back; the structured rationale
	// fields below are authoritative.
	Notes string `json:"notes,omitempty"`
	// Rationale records the classifier's criteria trace for the current
	// status. Nil for items the classifier never ran on (OK / N/A).
	Rationale *Rationale `json:"rationale,omitempty"`
	// PreviousRationale records the trace from an earlier classification
	// of the same item within this record, enabling downgrade detection.
	PreviousRationale *Rationale `json:"previous_rationale,omitempty"`
	// ManualOverride marks an operator-set status. Overridden items are
	// excluded from classifier-decision metrics.
	ManualOverride bool `json:"manual_override,omitempty"`
}

// Downgraded reports whether this item moved from Priority OFI to OFI
// between its previous and current classification within this record.
func (i *AuditItem) Downgraded() bool {
	return i.PreviousRationale != nil &&
		i.PreviousRationale.Status == ItemStatusPriorityOFI &&
		i.Status == ItemStatusOFI &&
		!i.ManualOverride
}

// Results maps each of the six sections to its ordered list of items.
type Results map[Section][]AuditItem
