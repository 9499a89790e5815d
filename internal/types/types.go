package types

// Common system-wide constants
const (
	// File size limits
	DefaultMaxFileSize = 10 * 1024 * 1024 // 10MB per file - standard limit for indexing
	// Rationale: type declarations live in source files; anything larger
	// is almost always generated code or a binary blob.

	// Performance limits
	DefaultMaxFileCount = 10000 // Maximum files to index in a single scan
)

// FileID identifies an indexed source file.
type FileID uint32

// NodeID identifies a type node in the symbol graph. IDs are derived from
// the qualified type name plus declaration site, so they are stable across
// re-indexing of unchanged files.
type NodeID uint64

// TypeKind classifies what sort of type declaration a node represents.
type TypeKind uint8

const (
	KindClass TypeKind = iota
	KindInterface
	KindStruct
	KindEnum
	KindTrait
	KindRecord
	KindAnonymous
)

func (tk TypeKind) String() string {
	switch tk {
	case KindClass:
		return "class"
	case KindInterface:
		return "interface"
	case KindStruct:
		return "struct"
	case KindEnum:
		return "enum"
	case KindTrait:
		return "trait"
	case KindRecord:
		return "record"
	case KindAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// Extensibility is the closed classification of whether a node can have
// subtypes of its own. It is decided once when the node is created from a
// declaration and never re-derived from the live graph.
type Extensibility uint8

const (
	// ExtensibleOpen - ordinary type, may have arbitrary subtypes
	ExtensibleOpen Extensibility = iota
	// ExtensibleFinal - final/sealed-without-permits, never expanded
	ExtensibleFinal
	// ExtensibleAnonymous - anonymous or local type, never expanded
	ExtensibleAnonymous
	// ExtensibleSealed - sealed with a known permitted subtype list;
	// treated like final for expansion, the permitted subtypes reach the
	// graph through their own declarations
	ExtensibleSealed
)

func (e Extensibility) String() string {
	switch e {
	case ExtensibleOpen:
		return "open"
	case ExtensibleFinal:
		return "final"
	case ExtensibleAnonymous:
		return "anonymous"
	case ExtensibleSealed:
		return "sealed"
	default:
		return "unknown"
	}
}

// Expandable reports whether a traversal may fetch children through a node
// of this extensibility.
func (e Extensibility) Expandable() bool {
	return e == ExtensibleOpen
}

// TypeNode is a resolved type declaration in the symbol graph.
type TypeNode struct {
	ID            NodeID        `json:"id"`
	Name          string        `json:"name"` // empty for anonymous types
	QualifiedName string        `json:"qualified_name"`
	Kind          TypeKind      `json:"kind"`
	Extensibility Extensibility `json:"extensibility"`
	FileID        FileID        `json:"file_id"`
	Line          int           `json:"line"`
	Column        int           `json:"column"`
}

// IsAnonymous reports whether the node has no usable name.
func (n *TypeNode) IsAnonymous() bool {
	return n.Kind == KindAnonymous || n.Extensibility == ExtensibleAnonymous
}

// TypeDecl is the parser's view of a single type declaration before it is
// installed in the graph. Supertypes are unresolved names exactly as they
// appear in source; resolution happens at graph insertion.
type TypeDecl struct {
	Name          string
	Kind          TypeKind
	Extensibility Extensibility
	Supertypes    []string // direct supertype names, no transitive closure
	Line          int
	Column        int
	Nested        []TypeDecl // declarations lexically inside this one
	Local         bool       // declared inside a function/method body
}

// SearchScope restricts which nodes a search may report. The zero value is
// the everything scope. A scope with an explicit file set is "local" and
// triggers the file-scan strategy instead of hierarchy traversal.
type SearchScope struct {
	files []FileID
	local bool
}

// EverythingScope covers the whole indexed graph.
func EverythingScope() SearchScope {
	return SearchScope{}
}

// FileScope covers exactly the given files.
func FileScope(files ...FileID) SearchScope {
	fs := make([]FileID, len(files))
	copy(fs, files)
	return SearchScope{files: fs, local: true}
}

// IsLocal reports whether the scope is a finite explicit file set.
func (s SearchScope) IsLocal() bool {
	return s.local
}

// Files returns the explicit file set of a local scope, nil for the
// everything scope.
func (s SearchScope) Files() []FileID {
	if !s.local {
		return nil
	}
	return s.files
}

// Contains reports whether a file lies within the scope.
func (s SearchScope) Contains(fileID FileID) bool {
	if !s.local {
		return true
	}
	for _, f := range s.files {
		if f == fileID {
			return true
		}
	}
	return false
}
