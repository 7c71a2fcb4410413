package repository

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/servicedesk/ticket-service/internal/domain"
)

// Paging limits for ticket listings.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	// MaxPageNumber keeps Offset within int for every allowed size.
	MaxPageNumber = math.MaxInt / MaxPageSize
)

// ticketField names a filterable or sortable ticket attribute together with
// its column and in-memory accessor.
type ticketField int

const (
	fieldTitle ticketField = iota
	fieldDescription
	fieldCreatedBy
	fieldAssignedTo
	fieldDeletedBy
	fieldDeleteReason
	fieldCreatedAt
	fieldUpdatedAt
	fieldDeletedAt
	fieldStatus
	fieldPriority
	fieldCategory
	fieldType
	fieldIsDeleted
)

var fieldColumns = map[ticketField]string{
	fieldTitle:        "title",
	fieldDescription:  "description",
	fieldCreatedBy:    "created_by",
	fieldAssignedTo:   "assigned_to",
	fieldDeletedBy:    "deleted_by",
	fieldDeleteReason: "delete_reason",
	fieldCreatedAt:    "created_at",
	fieldUpdatedAt:    "updated_at",
	fieldDeletedAt:    "deleted_at",
	fieldStatus:       "status",
	fieldPriority:     "priority",
	fieldCategory:     "category",
	fieldType:         "type",
	fieldIsDeleted:    "is_deleted",
}

func (f ticketField) column() string { return fieldColumns[f] }

func (f ticketField) text(t *domain.Ticket) (string, bool) {
	switch f {
	case fieldTitle:
		return t.Title, true
	case fieldCreatedBy:
		return t.CreatedBy, true
	case fieldDescription:
		return deref(t.Description)
	case fieldAssignedTo:
		return deref(t.AssignedTo)
	case fieldDeletedBy:
		return deref(t.DeletedBy)
	case fieldDeleteReason:
		return deref(t.DeleteReason)
	}
	return "", false
}

func (f ticketField) time(t *domain.Ticket) (time.Time, bool) {
	switch f {
	case fieldCreatedAt:
		return t.CreatedAt, true
	case fieldUpdatedAt:
		return t.UpdatedAt, true
	case fieldDeletedAt:
		if t.DeletedAt == nil {
			return time.Time{}, false
		}
		return *t.DeletedAt, true
	}
	return time.Time{}, false
}

func (f ticketField) ordinal(t *domain.Ticket) int {
	switch f {
	case fieldStatus:
		return t.Status.Ordinal()
	case fieldPriority:
		return t.Priority.Ordinal()
	case fieldCategory:
		return t.Category.Ordinal()
	case fieldType:
		return t.Type.Ordinal()
	}
	return -1
}

func (f ticketField) isTime() bool {
	return f == fieldCreatedAt || f == fieldUpdatedAt || f == fieldDeletedAt
}

func (f ticketField) isText() bool { return !f.isTime() && !f.isOrdinal() && f != fieldIsDeleted }

func (f ticketField) isOrdinal() bool {
	return f == fieldStatus || f == fieldPriority || f == fieldCategory || f == fieldType
}

func deref(s *string) (string, bool) {
	if s == nil {
		return "", false
	}
	return *s, true
}

// Predicate is one condition of a ticket listing. Predicates in a query are
// combined with AND and each one renders both as SQL and as an in-memory match.
type Predicate interface {
	Matches(t *domain.Ticket) bool
	// SQL appends its bind values to args and returns the clause.
	SQL(args *[]any) string
}

type deletedPredicate struct{ deleted bool }

func (p deletedPredicate) Matches(t *domain.Ticket) bool { return t.IsDeleted == p.deleted }

func (p deletedPredicate) SQL(args *[]any) string {
	*args = append(*args, p.deleted)
	return fmt.Sprintf("%s = $%d", fieldIsDeleted.column(), len(*args))
}

type equalsPredicate struct {
	field   ticketField
	ordinal int
}

func (p equalsPredicate) Matches(t *domain.Ticket) bool { return p.field.ordinal(t) == p.ordinal }

func (p equalsPredicate) SQL(args *[]any) string {
	*args = append(*args, p.ordinal)
	return fmt.Sprintf("%s = $%d", p.field.column(), len(*args))
}

type containsPredicate struct {
	fields []ticketField
	term   string
}

func (p containsPredicate) Matches(t *domain.Ticket) bool {
	needle := strings.ToLower(p.term)
	for _, f := range p.fields {
		if v, ok := f.text(t); ok && strings.Contains(strings.ToLower(v), needle) {
			return true
		}
	}
	return false
}

func (p containsPredicate) SQL(args *[]any) string {
	*args = append(*args, "%"+escapeLike(strings.ToLower(p.term))+"%")
	placeholder := fmt.Sprintf("$%d", len(*args))
	parts := make([]string, len(p.fields))
	for i, f := range p.fields {
		parts[i] = fmt.Sprintf(`LOWER(%s) LIKE %s ESCAPE '\'`, f.column(), placeholder)
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

type timePredicate struct {
	field ticketField
	bound time.Time
	upper bool
}

func (p timePredicate) Matches(t *domain.Ticket) bool {
	v, ok := p.field.time(t)
	if !ok {
		return false
	}
	if p.upper {
		return !v.After(p.bound)
	}
	return !v.Before(p.bound)
}

func (p timePredicate) SQL(args *[]any) string {
	*args = append(*args, p.bound)
	op := ">="
	if p.upper {
		op = "<="
	}
	return fmt.Sprintf("%s %s $%d", p.field.column(), op, len(*args))
}

// IsDeleted restricts a listing to live or to soft-deleted tickets.
func IsDeleted(deleted bool) Predicate { return deletedPredicate{deleted: deleted} }

func StatusIs(s domain.TicketStatus) Predicate {
	return equalsPredicate{field: fieldStatus, ordinal: s.Ordinal()}
}

func PriorityIs(p domain.TicketPriority) Predicate {
	return equalsPredicate{field: fieldPriority, ordinal: p.Ordinal()}
}

func CategoryIs(c domain.TicketCategory) Predicate {
	return equalsPredicate{field: fieldCategory, ordinal: c.Ordinal()}
}

func TypeIs(t domain.TicketType) Predicate {
	return equalsPredicate{field: fieldType, ordinal: t.Ordinal()}
}

// TitleOrDescriptionContains matches a case-insensitive substring.
func TitleOrDescriptionContains(term string) Predicate {
	return containsPredicate{fields: []ticketField{fieldTitle, fieldDescription}, term: term}
}

// TitleOrDeleteReasonContains is the free-text search of the deleted history.
func TitleOrDeleteReasonContains(term string) Predicate {
	return containsPredicate{fields: []ticketField{fieldTitle, fieldDeleteReason}, term: term}
}

func CreatedByContains(term string) Predicate {
	return containsPredicate{fields: []ticketField{fieldCreatedBy}, term: term}
}

func AssignedToContains(term string) Predicate {
	return containsPredicate{fields: []ticketField{fieldAssignedTo}, term: term}
}

func DeletedByContains(term string) Predicate {
	return containsPredicate{fields: []ticketField{fieldDeletedBy}, term: term}
}

func CreatedFrom(t time.Time) Predicate { return timePredicate{field: fieldCreatedAt, bound: t} }
func CreatedTo(t time.Time) Predicate { return timePredicate{field: fieldCreatedAt, bound: t, upper: true} }
func UpdatedFrom(t time.Time) Predicate { return timePredicate{field: fieldUpdatedAt, bound: t} }
func UpdatedTo(t time.Time) Predicate { return timePredicate{field: fieldUpdatedAt, bound: t, upper: true} }
func DeletedFrom(t time.Time) Predicate { return timePredicate{field: fieldDeletedAt, bound: t} }
func DeletedTo(t time.Time) Predicate { return timePredicate{field: fieldDeletedAt, bound: t, upper: true} }

// SortKey is one of the enumerated listing orders.
type SortKey string

const (
	SortCreatedAt  SortKey = "createdAt"
	SortUpdatedAt  SortKey = "updatedAt"
	SortTitle      SortKey = "title"
	SortPriority   SortKey = "priority"
	SortStatus     SortKey = "status"
	SortCreatedBy  SortKey = "createdBy"
	SortAssignedTo SortKey = "assignedTo"
	SortDeletedAt  SortKey = "deletedAt"
	SortDeletedBy  SortKey = "deletedBy"
)

// TicketSortKeys are accepted by the default listing; the first is the fallback.
var TicketSortKeys = []SortKey{SortCreatedAt, SortUpdatedAt, SortTitle, SortPriority, SortStatus, SortCreatedBy, SortAssignedTo}

// DeletedSortKeys are accepted by the deleted history; the first is the fallback.
var DeletedSortKeys = []SortKey{SortDeletedAt, SortTitle, SortDeletedBy}

var sortFields = map[SortKey]ticketField{
	SortCreatedAt:  fieldCreatedAt,
	SortUpdatedAt:  fieldUpdatedAt,
	SortTitle:      fieldTitle,
	SortPriority:   fieldPriority,
	SortStatus:     fieldStatus,
	SortCreatedBy:  fieldCreatedBy,
	SortAssignedTo: fieldAssignedTo,
	SortDeletedAt:  fieldDeletedAt,
	SortDeletedBy:  fieldDeletedBy,
}

var sortAliases = map[string]string{
	"created": "createdat",
	"updated": "updatedat",
	"deleted": "deletedat",
}

// ParseSortKey matches raw against allowed ignoring case, underscores and
// dashes. Unknown keys fall back to allowed[0].
func ParseSortKey(raw string, allowed []SortKey) SortKey {
	norm := strings.ToLower(strings.NewReplacer("_", "", "-", "").Replace(strings.TrimSpace(raw)))
	if alias, ok := sortAliases[norm]; ok {
		norm = alias
	}
	for _, key := range allowed {
		if strings.ToLower(string(key)) == norm {
			return key
		}
	}
	return allowed[0]
}

// Sort orders a listing. Ties are broken by id in the same direction.
type Sort struct {
	Key  SortKey
	Desc bool
}

// NewSort parses a key against allowed and a direction that defaults to desc.
func NewSort(key string, direction string, allowed []SortKey) Sort {
	return Sort{
		Key:  ParseSortKey(key, allowed),
		Desc: !strings.EqualFold(strings.TrimSpace(direction), "asc"),
	}
}

func (s Sort) field() ticketField {
	if f, ok := sortFields[s.Key]; ok {
		return f
	}
	return fieldCreatedAt
}

// SQL renders the ORDER BY list. NULLs sort first ascending and last
// descending, and text columns use the "C" collation so rows come back in
// the byte order Compare uses.
func (s Sort) SQL() string {
	dir, nulls := "ASC", "NULLS FIRST"
	if s.Desc {
		dir, nulls = "DESC", "NULLS LAST"
	}
	column := s.field().column()
	if s.field().isText() {
		column += ` COLLATE "C"`
	}
	return fmt.Sprintf("%s %s %s, id %s", column, dir, nulls, dir)
}

// Compare orders a before b (negative), after b (positive) or equal (zero).
func (s Sort) Compare(a, b *domain.Ticket) int {
	c := compareField(s.field(), a, b)
	if c == 0 {
		c = strings.Compare(a.ID, b.ID)
	}
	if s.Desc {
		return -c
	}
	return c
}

func compareField(f ticketField, a, b *domain.Ticket) int {
	switch {
	case f.isTime():
		av, aok := f.time(a)
		bv, bok := f.time(b)
		if c := compareNull(aok, bok); c != 0 || !aok {
			return c
		}
		return av.Compare(bv)
	case f.isOrdinal():
		return f.ordinal(a) - f.ordinal(b)
	default:
		av, aok := f.text(a)
		bv, bok := f.text(b)
		if c := compareNull(aok, bok); c != 0 || !aok {
			return c
		}
		return strings.Compare(av, bv)
	}
}

// compareNull places a missing value before a present one.
func compareNull(aok, bok bool) int {
	switch {
	case aok == bok:
		return 0
	case !aok:
		return -1
	default:
		return 1
	}
}

// Page is a clamped page request.
type Page struct {
	Number int
	Size   int
}

// NewPage clamps number to [1,MaxPageNumber] and size to [1,MaxPageSize],
// using DefaultPageSize for out of range sizes.
func NewPage(number, size int) Page {
	if number < 1 {
		number = 1
	}
	if number > MaxPageNumber {
		number = MaxPageNumber
	}
	if size < 1 || size > MaxPageSize {
		size = DefaultPageSize
	}
	return Page{Number: number, Size: size}
}

func (p Page) Offset() int { return (p.Number - 1) * p.Size }

// TicketQuery is a fully resolved listing request.
type TicketQuery struct {
	Predicates []Predicate
	Sort       Sort
	Page       Page
}

// Where renders the predicates as a WHERE body and its bind values.
func (q TicketQuery) Where() (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}
	for _, p := range q.Predicates {
		clauses = append(clauses, p.SQL(&args))
	}
	return strings.Join(clauses, " AND "), args
}

// Matches reports whether t satisfies every predicate.
func (q TicketQuery) Matches(t *domain.Ticket) bool {
	for _, p := range q.Predicates {
		if !p.Matches(t) {
			return false
		}
	}
	return true
}

// TicketFilter holds the optional filters of the default listing.
type TicketFilter struct {
	Status      *domain.TicketStatus
	Priority    *domain.TicketPriority
	Category    *domain.TicketCategory
	Type        *domain.TicketType
	Search      string
	CreatedBy   string
	AssignedTo  string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	UpdatedFrom *time.Time
	UpdatedTo   *time.Time
}

// Predicates always excludes soft-deleted tickets and adds one predicate per
// filter that is set.
func (f TicketFilter) Predicates() []Predicate {
	preds := []Predicate{IsDeleted(false)}
	if f.Status != nil {
		preds = append(preds, StatusIs(*f.Status))
	}
	if f.Priority != nil {
		preds = append(preds, PriorityIs(*f.Priority))
	}
	if f.Category != nil {
		preds = append(preds, CategoryIs(*f.Category))
	}
	if f.Type != nil {
		preds = append(preds, TypeIs(*f.Type))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		preds = append(preds, TitleOrDescriptionContains(s))
	}
	if s := strings.TrimSpace(f.CreatedBy); s != "" {
		preds = append(preds, CreatedByContains(s))
	}
	if s := strings.TrimSpace(f.AssignedTo); s != "" {
		preds = append(preds, AssignedToContains(s))
	}
	if f.CreatedFrom != nil {
		preds = append(preds, CreatedFrom(*f.CreatedFrom))
	}
	if f.CreatedTo != nil {
		preds = append(preds, CreatedTo(*f.CreatedTo))
	}
	if f.UpdatedFrom != nil {
		preds = append(preds, UpdatedFrom(*f.UpdatedFrom))
	}
	if f.UpdatedTo != nil {
		preds = append(preds, UpdatedTo(*f.UpdatedTo))
	}
	return preds
}

// DeletedTicketFilter holds the filters of the deleted history.
type DeletedTicketFilter struct {
	Search      string
	DeletedBy   string
	DeletedFrom *time.Time
	DeletedTo   *time.Time
}

// Predicates requires soft-deleted tickets.
func (f DeletedTicketFilter) Predicates() []Predicate {
	preds := []Predicate{IsDeleted(true)}
	if s := strings.TrimSpace(f.Search); s != "" {
		preds = append(preds, TitleOrDeleteReasonContains(s))
	}
	if s := strings.TrimSpace(f.DeletedBy); s != "" {
		preds = append(preds, DeletedByContains(s))
	}
	if f.DeletedFrom != nil {
		preds = append(preds, DeletedFrom(*f.DeletedFrom))
	}
	if f.DeletedTo != nil {
		preds = append(preds, DeletedTo(*f.DeletedTo))
	}
	return preds
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

func parseDay(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// DayStart parses a date and returns 00:00:00.000 UTC of that day. Unparseable
// input yields nil.
func DayStart(raw string) *time.Time {
	day, ok := parseDay(raw)
	if !ok {
		return nil
	}
	return &day
}

// DayEnd parses a date and returns 23:59:59.999 UTC of that day. Unparseable
// input yields nil.
func DayEnd(raw string) *time.Time {
	day, ok := parseDay(raw)
	if !ok {
		return nil
	}
	end := day.Add(24*time.Hour - time.Millisecond)
	return &end
}
