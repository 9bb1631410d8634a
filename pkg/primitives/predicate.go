package primitives

// Predicate is a comparison operator a scan or index can be asked to
// evaluate. Index.CanProcess uses it to decide whether an index can service
// a filter without a full scan.
type Predicate int

const (
	Equals Predicate = iota
	LessThan
	GreaterThan
	LessThanOrEqual
	GreaterThanOrEqual
	NotEqual
	In
)

func (p Predicate) String() string {
	switch p {
	case Equals:
		return "="
	case LessThan:
		return "<"
	case GreaterThan:
		return ">"
	case LessThanOrEqual:
		return "<="
	case GreaterThanOrEqual:
		return ">="
	case NotEqual:
		return "!="
	case In:
		return "IN"
	default:
		return "UNKNOWN"
	}
}
