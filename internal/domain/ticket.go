package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "Open"
	TicketStatusInProgress TicketStatus = "InProgress"
	TicketStatusClosed     TicketStatus = "Closed"
)

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityP1 TicketPriority = "P1"
	TicketPriorityP2 TicketPriority = "P2"
	TicketPriorityP3 TicketPriority = "P3"
)

// TicketCategory classifies the affected area.
type TicketCategory string

const (
	TicketCategoryHardware TicketCategory = "Hardware"
	TicketCategorySoftware TicketCategory = "Software"
	TicketCategoryRedes    TicketCategory = "Redes"
)

// TicketType separates incidents from service requests.
type TicketType string

const (
	TicketTypeIncidencia TicketType = "Incidencia"
	TicketTypeSolicitud  TicketType = "Solicitud"
)

// catalog is a closed, ordered set of symbolic names. The index of a name is
// its persisted ordinal.
type catalog[T ~string] struct {
	kind    string
	values  []T
	aliases map[string]T
	// numeric decodes integers outside the ordinal range, if set.
	numeric func(int) (T, bool)
}

func (c catalog[T]) parse(raw string) (T, error) {
	var zero T
	s := strings.TrimSpace(raw)
	if s == "" {
		return zero, fmt.Errorf("%s is required", c.kind)
	}
	for _, v := range c.values {
		if strings.EqualFold(string(v), s) {
			return v, nil
		}
	}
	if v, ok := c.aliases[strings.ToLower(s)]; ok {
		return v, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		if v, ok := c.fromOrdinal(n); ok {
			return v, nil
		}
		if c.numeric != nil {
			if v, ok := c.numeric(n); ok {
				return v, nil
			}
		}
	}
	return zero, fmt.Errorf("invalid %s %q", c.kind, raw)
}

func (c catalog[T]) ordinal(v T) int {
	for i, candidate := range c.values {
		if candidate == v {
			return i
		}
	}
	return -1
}

func (c catalog[T]) fromOrdinal(n int) (T, bool) {
	var zero T
	if n < 0 || n >= len(c.values) {
		return zero, false
	}
	return c.values[n], true
}

var (
	statusCatalog = catalog[TicketStatus]{
		kind:   "status",
		values: []TicketStatus{TicketStatusOpen, TicketStatusInProgress, TicketStatusClosed},
		aliases: map[string]TicketStatus{
			"in_progress": TicketStatusInProgress,
			"in progress": TicketStatusInProgress,
		},
		numeric: statusFromFlags,
	}
	priorityCatalog = catalog[TicketPriority]{
		kind:   "priority",
		values: []TicketPriority{TicketPriorityP1, TicketPriorityP2, TicketPriorityP3},
	}
	categoryCatalog = catalog[TicketCategory]{
		kind:   "category",
		values: []TicketCategory{TicketCategoryHardware, TicketCategorySoftware, TicketCategoryRedes},
		aliases: map[string]TicketCategory{
			"network":  TicketCategoryRedes,
			"networks": TicketCategoryRedes,
			"red":      TicketCategoryRedes,
		},
	}
	typeCatalog = catalog[TicketType]{
		kind:   "type",
		values: []TicketType{TicketTypeIncidencia, TicketTypeSolicitud},
		aliases: map[string]TicketType{
			"incident": TicketTypeIncidencia,
			"request":  TicketTypeSolicitud,
		},
	}
)

// statusFromFlags decodes the legacy 1/2/4 bitmask some clients still send
// for values that are not plain ordinals. Closed wins over InProgress, which
// wins over Open.
func statusFromFlags(n int) (TicketStatus, bool) {
	if n <= 0 || n > 7 {
		return "", false
	}
	switch {
	case n&4 == 4:
		return TicketStatusClosed, true
	case n&2 == 2:
		return TicketStatusInProgress, true
	default:
		return TicketStatusOpen, true
	}
}

// ParseTicketStatus accepts a symbolic name (any case) or its ordinal.
func ParseTicketStatus(s string) (TicketStatus, error) { return statusCatalog.parse(s) }

// ParseTicketPriority accepts a symbolic name (any case) or its ordinal.
func ParseTicketPriority(s string) (TicketPriority, error) { return priorityCatalog.parse(s) }

// ParseTicketCategory accepts a symbolic name, an English alias or its ordinal.
func ParseTicketCategory(s string) (TicketCategory, error) { return categoryCatalog.parse(s) }

// ParseTicketType accepts a symbolic name, an English alias or its ordinal.
func ParseTicketType(s string) (TicketType, error) { return typeCatalog.parse(s) }

func (s TicketStatus) Ordinal() int { return statusCatalog.ordinal(s) }
func (p TicketPriority) Ordinal() int { return priorityCatalog.ordinal(p) }
func (c TicketCategory) Ordinal() int { return categoryCatalog.ordinal(c) }
func (t TicketType) Ordinal() int { return typeCatalog.ordinal(t) }

func (s TicketStatus) Valid() bool { return s.Ordinal() >= 0 }
func (p TicketPriority) Valid() bool { return p.Ordinal() >= 0 }
func (c TicketCategory) Valid() bool { return c.Ordinal() >= 0 }
func (t TicketType) Valid() bool { return t.Ordinal() >= 0 }

// StatusFromOrdinal maps a persisted ordinal back to its symbolic status.
func StatusFromOrdinal(n int) (TicketStatus, error) {
	if v, ok := statusCatalog.fromOrdinal(n); ok {
		return v, nil
	}
	return "", fmt.Errorf("unknown status ordinal %d", n)
}

// PriorityFromOrdinal maps a persisted ordinal back to its symbolic priority.
func PriorityFromOrdinal(n int) (TicketPriority, error) {
	if v, ok := priorityCatalog.fromOrdinal(n); ok {
		return v, nil
	}
	return "", fmt.Errorf("unknown priority ordinal %d", n)
}

// CategoryFromOrdinal maps a persisted ordinal back to its symbolic category.
func CategoryFromOrdinal(n int) (TicketCategory, error) {
	if v, ok := categoryCatalog.fromOrdinal(n); ok {
		return v, nil
	}
	return "", fmt.Errorf("unknown category ordinal %d", n)
}

// TypeFromOrdinal maps a persisted ordinal back to its symbolic type.
func TypeFromOrdinal(n int) (TicketType, error) {
	if v, ok := typeCatalog.fromOrdinal(n); ok {
		return v, nil
	}
	return "", fmt.Errorf("unknown type ordinal %d", n)
}

// AllPriorities lists priorities in ordinal order.
func AllPriorities() []TicketPriority {
	return append([]TicketPriority(nil), priorityCatalog.values...)
}

// Field limits shared by validation and persistence.
const (
	MaxTitleLength           = 200
	MaxDescriptionLength     = 4000
	MaxEventMessageLength    = 2000
	MaxActorLength           = 120
	MaxDeleteReasonLength    = 500
	MaxEvidenceCommentLength = 500
	MaxFileNameLength        = 260
	MinSLAHours              = 1
	MaxSLAHours              = 720
)

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID           string
	Title        string
	Description  *string
	Status       TicketStatus
	Priority     TicketPriority
	Category     TicketCategory
	Type         TicketType
	SLAHours     int
	CreatedBy    string
	AssignedTo   *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	IsDeleted    bool
	DeletedAt    *time.Time
	DeletedBy    *string
	DeleteReason *string
	Version      int64
}

// TicketDetail is the materialized view returned by lifecycle operations.
type TicketDetail struct {
	Ticket     Ticket
	Activities []TicketActivity
	Comments   []TicketEvent
}
