package comments

import (
	"encoding/json"
	"strings"
)

// Kind identifies which surface a comment thread hangs off.
// It is a closed set: every value has an entry in kindTables.
type Kind int

const (
	KindForum Kind = iota + 1
	KindProduct
)

// KindTable names the storage objects backing one comment kind.
// Values are compile-time constants and never derived from request data.
type KindTable struct {
	Comments      string // comment rows
	Subjects      string // rows being commented on
	SubjectColumn string // foreign key column on Comments
	VoteSubject   string // votes.subject_kind value
}

var kindTables = map[Kind]KindTable{
	KindForum: {
		Comments:      "forum_comments",
		Subjects:      "forum_topics",
		SubjectColumn: "topic_id",
		VoteSubject:   "forum_comment",
	},
	KindProduct: {
		Comments:      "product_comments",
		Subjects:      "products",
		SubjectColumn: "product_id",
		VoteSubject:   "product_comment",
	},
}

var kindNames = map[Kind]string{
	KindForum:   "forum",
	KindProduct: "product",
}

// Kinds returns every known kind in declaration order.
func Kinds() []Kind {
	return []Kind{KindForum, KindProduct}
}

// ParseKind converts a wire value ("forum", "product") to a Kind.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, ErrInvalidKind
}

// ParseVoteSubject maps a votes.subject_kind value back to its Kind.
func ParseVoteSubject(s string) (Kind, error) {
	for k, t := range kindTables {
		if t.VoteSubject == s {
			return k, nil
		}
	}
	return 0, ErrInvalidKind
}

// Table returns the storage mapping for k.
func (k Kind) Table() (KindTable, error) {
	t, ok := kindTables[k]
	if !ok {
		return KindTable{}, ErrInvalidKind
	}
	return t, nil
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	_, ok := kindTables[k]
	return ok
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// MarshalJSON encodes the kind by name.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes a kind by name.
func (k *Kind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return ErrInvalidKind
	}
	parsed, err := ParseKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
